package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port     string `mapstructure:"PORT"`
	GinMode  string `mapstructure:"GIN_MODE"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	MongoURI          string `mapstructure:"MONGODB_URI"`
	MongoDatabase     string `mapstructure:"MONGODB_DATABASE"`
	MongoTransactions bool   `mapstructure:"MONGODB_TRANSACTIONS"`

	RedisAddress        string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword       string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB             int           `mapstructure:"REDIS_DB"`
	ComplaintLimitQueue string        `mapstructure:"REDIS_QUEUE_FOR_COMPLAINT_LIMIT"`
	ComplaintDailyLimit int           `mapstructure:"COMPLAINT_DAILY_LIMIT"`
	CountsCacheTTL      time.Duration `mapstructure:"COUNTS_CACHE_TTL"`

	JWTSecret string        `mapstructure:"JWT_SECRET"`
	TokenTTL  time.Duration `mapstructure:"TOKEN_TTL"`

	AdminRegisterKey        string `mapstructure:"ADMIN_REGISTER_KEY"`
	WorkerRegisterKey       string `mapstructure:"WORKER_REGISTER_KEY"`
	WorkerRemovalKey        string `mapstructure:"WORKER_REMOVAL_KEY"`
	ReopenResolvedOnRemoval bool   `mapstructure:"REOPEN_RESOLVED_ON_REMOVAL"`

	AllowedOrigins     []string `mapstructure:"ALLOWED_ORIGINS"`
	PublicBaseURL      string   `mapstructure:"PUBLIC_BASE_URL"`
	MaxPhotoBytes      int64    `mapstructure:"MAX_PHOTO_BYTES"`
	LoginRatePerMinute int      `mapstructure:"LOGIN_RATE_PER_MINUTE"`

	SendGridAPIKey string `mapstructure:"SENDGRID_API_KEY"`
	MailFrom       string `mapstructure:"MAIL_FROM"`
	MailFromName   string `mapstructure:"MAIL_FROM_NAME"`
}

var defaults = map[string]any{
	"PORT":                            "8080",
	"GIN_MODE":                        "debug",
	"LOG_LEVEL":                       "info",
	"MONGODB_URI":                     "",
	"MONGODB_DATABASE":                "fixmyarea",
	"MONGODB_TRANSACTIONS":            false,
	"REDIS_ADDRESS":                   "localhost:6379",
	"REDIS_PASSWORD":                  "",
	"REDIS_DB":                        0,
	"REDIS_QUEUE_FOR_COMPLAINT_LIMIT": "complaint-limit",
	"COMPLAINT_DAILY_LIMIT":           10,
	"COUNTS_CACHE_TTL":                30 * time.Second,
	"JWT_SECRET":                      "",
	"TOKEN_TTL":                       time.Hour,
	"ADMIN_REGISTER_KEY":              "",
	"WORKER_REGISTER_KEY":             "",
	"WORKER_REMOVAL_KEY":              "",
	"REOPEN_RESOLVED_ON_REMOVAL":      true,
	"ALLOWED_ORIGINS":                 "http://localhost:5173",
	"PUBLIC_BASE_URL":                 "http://localhost:8080",
	"MAX_PHOTO_BYTES":                 10 << 20,
	"LOGIN_RATE_PER_MINUTE":           20,
	"SENDGRID_API_KEY":                "",
	"MAIL_FROM":                       "noreply@fixmyarea.local",
	"MAIL_FROM_NAME":                  "FixMyArea",
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.AllowedOrigins = splitOrigins(v.GetString("ALLOWED_ORIGINS"))
	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	required := map[string]string{
		"MONGODB_URI":         c.MongoURI,
		"JWT_SECRET":          c.JWTSecret,
		"ADMIN_REGISTER_KEY":  c.AdminRegisterKey,
		"WORKER_REGISTER_KEY": c.WorkerRegisterKey,
		"WORKER_REMOVAL_KEY":  c.WorkerRemovalKey,
	}
	for _, key := range []string{"MONGODB_URI", "JWT_SECRET", "ADMIN_REGISTER_KEY", "WORKER_REGISTER_KEY", "WORKER_REMOVAL_KEY"} {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("please define the %s environment variable", key))
		}
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.ComplaintDailyLimit < 1 {
		errs = append(errs, errors.New("COMPLAINT_DAILY_LIMIT must be at least 1"))
	}
	return errors.Join(errs...)
}

// IsRelease reports whether gin runs in release mode.
func (c *Config) IsRelease() bool {
	return c.GinMode == "release"
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
