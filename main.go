package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"fixmyarea-be/config"
	"fixmyarea-be/controllers"
	"fixmyarea-be/middlewares"
	"fixmyarea-be/notify"
	"fixmyarea-be/realtime"
	"fixmyarea-be/repository"
	"fixmyarea-be/routes"
	"fixmyarea-be/services"
	"fixmyarea-be/storage"
	authUtils "fixmyarea-be/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	client, db, err := config.ConnectDB(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	if err := repository.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisClient, err := config.ConnectRedis(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tokens, err := authUtils.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}

	gridfs, err := storage.NewGridFSStore(db, cfg.PublicBaseURL)
	if err != nil {
		return err
	}
	photos := storage.NewBreakerStore(gridfs, logger)

	var tx repository.TxRunner = repository.SequentialTxRunner{}
	if cfg.MongoTransactions {
		supported, err := config.SupportsTransactions(ctx, client)
		switch {
		case err != nil:
			return err
		case supported:
			tx = repository.NewMongoTxRunner(client)
		default:
			logger.Warn("MONGODB_TRANSACTIONS is set but MongoDB is standalone, running mutations sequentially")
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if cfg.SendGridAPIKey != "" {
		notifier = notify.NewSendGridNotifier(cfg.SendGridAPIKey, cfg.MailFrom, cfg.MailFromName, logger)
	} else {
		logger.Info("SENDGRID_API_KEY not set, email notifications disabled")
	}

	hub := realtime.NewHub(cfg.AllowedOrigins, logger)
	go hub.Run()
	defer hub.Stop()

	users := repository.NewUserRepository(db)
	complaints := repository.NewComplaintRepository(db)
	updates := repository.NewWorkerUpdateRepository(db)
	counts := repository.NewRedisCountsCache(redisClient, cfg.CountsCacheTTL)

	authService := services.NewAuthService(users, tokens, services.RegistrationKeys{
		Admin:  cfg.AdminRegisterKey,
		Worker: cfg.WorkerRegisterKey,
	}, logger)
	complaintService := services.NewComplaintService(services.ComplaintDeps{
		Complaints: complaints,
		Updates:    updates,
		Users:      users,
		Photos:     photos,
		Tx:         tx,
		Counts:     counts,
		Events:     hub,
		Notifier:   notifier,
	}, logger)
	userService := services.NewUserService(services.UserDeps{
		Users:      users,
		Complaints: complaints,
		Tx:         tx,
		Counts:     counts,
		Events:     hub,
	}, services.RemovalPolicy{
		Key:            cfg.WorkerRemovalKey,
		ReopenResolved: cfg.ReopenResolvedOnRemoval,
	}, logger)

	router := routes.NewRouter(routes.Dependencies{
		Log:            logger,
		AllowedOrigins: cfg.AllowedOrigins,
		Gate:           middlewares.NewGate(middlewares.DefaultPolicy, tokens),
		LoginThrottle:  middlewares.NewLoginThrottle(cfg.LoginRatePerMinute),
		ComplaintLimit: middlewares.ComplaintRateLimiter(redisClient, cfg.ComplaintLimitQueue, cfg.ComplaintDailyLimit, logger),
		Auth:           controllers.NewAuthController(authService, logger),
		Complaints:     controllers.NewComplaintController(complaintService, cfg.MaxPhotoBytes, logger),
		Users:          controllers.NewUserController(userService, logger),
		Files:          controllers.NewFileController(photos, logger),
		Events:         controllers.NewEventsController(hub, logger),
		HealthChecks: map[string]routes.HealthCheck{
			"mongodb": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
