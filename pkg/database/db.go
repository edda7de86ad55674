package database

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SQLitePath string
}

func Connect(cfg Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case DriverPostgres, "":
		dialector = postgres.Open(postgresDSN(cfg))
	case DriverSQLite:
		dialector = sqlite.Open(SQLiteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, GormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// sqlite allows a single writer
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.WithField("driver", db.Dialector.Name()).Info("database connected")
	return db, nil
}

// GormConfig is shared by every connection so that driver errors are
// translated (gorm.ErrDuplicatedKey etc.) and timestamps are stored in UTC.
func GormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		Logger: logger.New(log.StandardLogger(), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	}
}

func SQLiteDSN(path string) string {
	if path == "" {
		path = "karmafeed.db"
	}
	return path + "?_foreign_keys=on&_busy_timeout=5000"
}

// TxOptions maps a configured isolation name to transaction options. The
// empty result means the driver default.
func TxOptions(isolation string) ([]*sql.TxOptions, error) {
	switch strings.ToLower(isolation) {
	case "", "default":
		return nil, nil
	case "serializable":
		return []*sql.TxOptions{{Isolation: sql.LevelSerializable}}, nil
	case "repeatable_read":
		return []*sql.TxOptions{{Isolation: sql.LevelRepeatableRead}}, nil
	case "read_committed":
		return []*sql.TxOptions{{Isolation: sql.LevelReadCommitted}}, nil
	}
	return nil, fmt.Errorf("unsupported transaction isolation %q", isolation)
}

func postgresDSN(cfg Config) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		valueOrDefault(cfg.Host, "localhost"),
		valueOrDefault(cfg.User, "postgres"),
		cfg.Password,
		valueOrDefault(cfg.Name, "karmafeed"),
		valueOrDefault(cfg.Port, "5432"),
	)
}

func valueOrDefault(val, fallback string) string {
	if val != "" {
		return val
	}
	return fallback
}
