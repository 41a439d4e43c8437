package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

const connectAttempts = 5

// Connect opens the configured database, verifies it responds and tunes the
// connection pool. Transient failures are retried with doubling backoff, which
// covers the window where Postgres is still starting alongside the API.
func Connect(opts Options) (*gorm.DB, error) {
	log.WithFields(logrus.Fields{
		"db_driver": opts.Driver,
		"db_host":   opts.Host,
		"db_name":   opts.Name,
		"db_path":   opts.Path,
	}).Info("Connecting to database")

	switch strings.ToLower(opts.Driver) {
	case "postgres", "postgresql", "sqlite", "":
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: postgres, sqlite)", opts.Driver)
	}

	var lastErr error
	delay := time.Second
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		db, err := open(opts)
		if err == nil {
			log.WithField("attempt", attempt).Info("Database connection established")
			return db, nil
		}
		lastErr = err

		log.WithFields(logrus.Fields{
			"attempt": attempt,
			"error":   err.Error(),
		}).Warn("Database connection attempt failed")

		if attempt < connectAttempts {
			time.Sleep(delay)
			delay *= 2
		}
	}
	return nil, fmt.Errorf("database unreachable after %d attempts: %w", connectAttempts, lastErr)
}

func open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	if d := strings.ToLower(opts.Driver); d == "postgres" || d == "postgresql" {
		dialector = postgres.Open(opts.DSN())
	} else {
		dialector = sqlite.Open(opts.DSN())
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}
