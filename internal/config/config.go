package config

import (
	"fmt"
	"os"
	"time"

	"spreadpool/internal/season"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	APIPort  int    `envconfig:"API_PORT" default:"8080"`

	// Scoreboard feed
	ScoreboardRegURL  string        `envconfig:"SCOREBOARD_REG_URL" default:"http://www.nfl.com/liveupdate/scorestrip/scorestrip.json"`
	ScoreboardPostURL string        `envconfig:"SCOREBOARD_POST_URL" default:"http://www.nfl.com/liveupdate/scorestrip/postseason/scorestrip.json"`
	ScoreboardTimeout time.Duration `envconfig:"SCOREBOARD_TIMEOUT" default:"30s"`
	ScoreboardRetries int           `envconfig:"SCOREBOARD_MAX_RETRIES" default:"0"`

	// Season calendar
	SeasonYear           int       `envconfig:"SEASON_YEAR" default:"2016"`
	SeasonWeekOne        time.Time `envconfig:"SEASON_WEEK_ONE" default:"2016-09-06T09:00:00Z"`
	SeasonPreseasonStart time.Time `envconfig:"SEASON_PRESEASON_START" default:"2016-08-09T00:00:00Z"`
	SeasonRegularWeeks   int       `envconfig:"SEASON_REGULAR_WEEKS" default:"17"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"spreadpool"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"spreadpool"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`
	DatabaseMigrate  bool   `envconfig:"DATABASE_MIGRATE" default:"true"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Freshness windows
	CacheTTL        time.Duration `envconfig:"CACHE_TTL" default:"300s"`
	StoreStaleAfter time.Duration `envconfig:"STORE_STALE_AFTER" default:"300s"`

	// Scheduler
	EnableScheduler   bool          `envconfig:"ENABLE_SCHEDULER" default:"true"`
	TallyRefreshCron  string        `envconfig:"TALLY_REFRESH_CRON" default:"*/15 * * * *"`
	ScorePollInterval time.Duration `envconfig:"SCORE_POLL_INTERVAL" default:"60s"`

	// Acknowledgment mail
	SMTPHost     string `envconfig:"SMTP_HOST" default:""`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" default:""`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" default:""`
	MailSender   string `envconfig:"MAIL_SENDER" default:"arbiter@spreadpool.local"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if !c.SeasonPreseasonStart.Before(c.SeasonWeekOne) {
		return fmt.Errorf("SEASON_PRESEASON_START must be before SEASON_WEEK_ONE")
	}

	if c.SeasonRegularWeeks <= 0 {
		return fmt.Errorf("SEASON_REGULAR_WEEKS must be positive, got %d", c.SeasonRegularWeeks)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}

	return nil
}

// Calendar builds the season calendar described by the configuration
func (c *Config) Calendar() *season.Calendar {
	return &season.Calendar{
		Year:           c.SeasonYear,
		PreseasonStart: c.SeasonPreseasonStart,
		WeekOne:        c.SeasonWeekOne,
		RegularWeeks:   c.SeasonRegularWeeks,
	}
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// SMTPEnabled reports whether acknowledgment mail should be delivered
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or exits the process.
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
