package database

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Options struct {
	Driver     string
	URL        string
	Host       string
	User       string
	Password   string
	Name       string
	Port       string
	SQLitePath string
	Debug      bool
}

// Connect opens the store described by opts. Postgres connections are retried a
// few times because the database container usually starts after the service.
func Connect(opts Options, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(opts)
	if err != nil {
		return nil, err
	}

	level := logger.Warn
	if opts.Debug {
		level = logger.Info
	}

	cfg := &gorm.Config{
		Logger:         newZapLogger(log, level),
		TranslateError: true,
	}

	var db *gorm.DB
	for attempt := 1; attempt <= 5; attempt++ {
		db, err = gorm.Open(dialector, cfg)
		if err == nil {
			break
		}
		log.Warn("database not ready, retrying", zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if opts.Driver == DriverSQLite {
		// sqlite allows a single writer; one connection keeps writes serialized.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	log.Info("database connected", zap.String("driver", opts.Driver))
	return db, nil
}

func dialectorFor(opts Options) (gorm.Dialector, error) {
	switch opts.Driver {
	case "", DriverPostgres:
		dsn := opts.URL
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
				opts.Host, opts.User, opts.Password, opts.Name, opts.Port,
			)
		}
		return postgres.Open(dsn), nil
	case DriverSQLite:
		return sqlite.Open(opts.SQLitePath), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}
