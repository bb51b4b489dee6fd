// Package routes assembles the HTTP engine.
package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"fixmyarea-be/controllers"
	"fixmyarea-be/metrics"
	"fixmyarea-be/middlewares"
)

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Dependencies is everything the router needs to mount handlers.
type Dependencies struct {
	Log            *zap.Logger
	AllowedOrigins []string
	Gate           *middlewares.Gate
	LoginThrottle  *middlewares.LoginThrottle
	ComplaintLimit gin.HandlerFunc
	Auth           *controllers.AuthController
	Complaints     *controllers.ComplaintController
	Users          *controllers.UserController
	Files          *controllers.FileController
	Events         *controllers.EventsController
	HealthChecks   map[string]HealthCheck
}

func NewRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.RequestLogger(deps.Log), middlewares.Recovery(deps.Log))
	r.Use(cors.New(corsConfig(deps.AllowedOrigins)))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/health", health(deps.HealthChecks))
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	if deps.Events != nil {
		r.GET("/ws", with(deps.Gate.Require(middlewares.OpEventsSubscribe), deps.Events.Subscribe)...)
	}

	api := r.Group("/api")
	AuthRoutes(api, deps.Auth, deps.LoginThrottle)
	ComplaintRoutes(api, deps.Gate, deps.Complaints, deps.ComplaintLimit)
	UserRoutes(api, deps.Gate, deps.Auth, deps.Users)
	api.GET("/files/:id", deps.Files.Get)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "code": "NOT_FOUND"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "x-auth-token", "x-removal-key", middlewares.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middlewares.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowOrigins = nil
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			break
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func health(checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				results[name] = err.Error()
				continue
			}
			results[name] = "ok"
		}
		results["status"] = http.StatusText(status)
		c.JSON(status, results)
	}
}
