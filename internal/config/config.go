package config

import (
	"fmt"
	"strings"
	"time"

	"anoa.com/karmafeed/internal/entity"
	"anoa.com/karmafeed/pkg/database"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	Port           string `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"text"`

	DBDriver      string `envconfig:"DB_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DBHost        string `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string `envconfig:"DB_PORT" default:"5432"`
	DBUser        string `envconfig:"DB_USER" default:"postgres"`
	DBPassword    string `envconfig:"DB_PASS"`
	DBName        string `envconfig:"DB_NAME" default:"karmafeed"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"karmafeed.db"`
	DBTxIsolation string `envconfig:"DB_TX_ISOLATION" default:"default"`

	RedisURL string `envconfig:"REDIS_URL"`

	MeiliSearchHost string `envconfig:"MEILISEARCH_HOST"`
	MeiliMasterKey  string `envconfig:"MEILI_MASTER_KEY"`

	JWTSecret string `envconfig:"JWT_SECRET"`

	KarmaPostLikeWeight    int `envconfig:"KARMA_POST_LIKE_WEIGHT" default:"5"`
	KarmaCommentLikeWeight int `envconfig:"KARMA_COMMENT_LIKE_WEIGHT" default:"1"`

	LeaderboardDefaultWindowHours int    `envconfig:"LEADERBOARD_DEFAULT_WINDOW_HOURS" default:"24"`
	LeaderboardDefaultLimit       int    `envconfig:"LEADERBOARD_DEFAULT_LIMIT" default:"5"`
	LeaderboardMaxWindowHours     int    `envconfig:"LEADERBOARD_MAX_WINDOW_HOURS" default:"168"`
	LeaderboardMaxLimit           int    `envconfig:"LEADERBOARD_MAX_LIMIT" default:"100"`
	LeaderboardBroadcastSpec      string `envconfig:"LEADERBOARD_BROADCAST_SPEC" default:"@every 1m"`

	RateLimitPost    time.Duration `envconfig:"RATE_LIMIT_POST" default:"5s"`
	RateLimitComment time.Duration `envconfig:"RATE_LIMIT_COMMENT" default:"2s"`
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if cfg.JWTSecret == "" && !cfg.IsProduction() {
		cfg.JWTSecret = "dev-secret"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case database.DriverPostgres, database.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", database.DriverPostgres, database.DriverSQLite, c.DBDriver)
	}
	if _, err := database.TxOptions(c.DBTxIsolation); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in production")
	}
	if c.KarmaPostLikeWeight <= 0 || c.KarmaCommentLikeWeight <= 0 {
		return fmt.Errorf("karma weights must be positive")
	}
	if c.LeaderboardMaxWindowHours < 1 || c.LeaderboardMaxLimit < 1 {
		return fmt.Errorf("leaderboard maximums must be positive")
	}
	if c.LeaderboardDefaultWindowHours < 1 || c.LeaderboardDefaultWindowHours > c.LeaderboardMaxWindowHours {
		return fmt.Errorf("LEADERBOARD_DEFAULT_WINDOW_HOURS must be between 1 and %d", c.LeaderboardMaxWindowHours)
	}
	if c.LeaderboardDefaultLimit < 1 || c.LeaderboardDefaultLimit > c.LeaderboardMaxLimit {
		return fmt.Errorf("LEADERBOARD_DEFAULT_LIMIT must be between 1 and %d", c.LeaderboardMaxLimit)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func (c *Config) Database() database.Config {
	return database.Config{
		Driver:     c.DBDriver,
		URL:        c.DatabaseURL,
		Host:       c.DBHost,
		Port:       c.DBPort,
		User:       c.DBUser,
		Password:   c.DBPassword,
		Name:       c.DBName,
		SQLitePath: c.SQLitePath,
	}
}

func (c *Config) KarmaWeights() entity.KarmaWeights {
	return entity.KarmaWeights{
		PostLike:    c.KarmaPostLikeWeight,
		CommentLike: c.KarmaCommentLikeWeight,
	}
}

func (c *Config) Origins() []string {
	var origins []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
