package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/yungbote/perspective-backend/internal/data/db"
)

// Config is read from the environment without a prefix.
type Config struct {
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogMode  string `envconfig:"LOG_MODE" default:"development"`
	Port     string `envconfig:"PORT" default:"8080"`
	Timezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	DBDriver         string `envconfig:"DB_DRIVER" default:"postgres"`
	PostgresHost     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	PostgresPort     string `envconfig:"POSTGRES_PORT" default:"5432"`
	PostgresUser     string `envconfig:"POSTGRES_USER" default:"postgres"`
	PostgresPassword string `envconfig:"POSTGRES_PASSWORD"`
	PostgresName     string `envconfig:"POSTGRES_NAME" default:"perspective"`
	PostgresSSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
	SQLitePath       string `envconfig:"SQLITE_PATH" default:"wellness.db"`

	JWTSecret   string `envconfig:"AUTH_JWT_SECRET"`
	JWTIssuer   string `envconfig:"AUTH_JWT_ISSUER"`
	JWTAudience string `envconfig:"AUTH_JWT_AUDIENCE"`
	CronSecret  string `envconfig:"CRON_SECRET"`

	OpenAIAPIKey         string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL        string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com"`
	OpenAIModel          string `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	OpenAITimeoutSeconds int    `envconfig:"OPENAI_TIMEOUT_SECONDS" default:"60"`
	OpenAIMaxRetries     int    `envconfig:"OPENAI_MAX_RETRIES" default:"2"`

	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	BatchConcurrency int           `envconfig:"BATCH_CONCURRENCY" default:"1"`
	BatchLockTTL     time.Duration `envconfig:"BATCH_LOCK_TTL" default:"2m"`

	SchedulerEnabled     bool   `envconfig:"SCHEDULER_ENABLED" default:"false"`
	SchedulerDailySpec   string `envconfig:"SCHEDULER_DAILY_SPEC" default:"0 22 * * *"`
	SchedulerWeeklySpec  string `envconfig:"SCHEDULER_WEEKLY_SPEC" default:"0 6 * * 1"`
	SchedulerMonthlySpec string `envconfig:"SCHEDULER_MONTHLY_SPEC" default:"0 6 1 * *"`
	SchedulerNotifySpec  string `envconfig:"SCHEDULER_NOTIFY_SPEC" default:"*/15 * * * *"`

	CORSAllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS"`

	// Location is resolved from Timezone by LoadConfig.
	Location *time.Location `ignored:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.resolve(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) resolve() error {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return fmt.Errorf("invalid APP_TIMEZONE %q: %w", c.Timezone, err)
	}
	c.Location = loc

	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}

	origins := c.CORSAllowedOrigins[:0]
	for _, o := range c.CORSAllowedOrigins {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	c.CORSAllowedOrigins = origins
	return nil
}

func (c Config) DBOptions() db.Options {
	return db.Options{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		PostgresSSLMode:  c.PostgresSSLMode,
		SQLitePath:       c.SQLitePath,
	}
}
