package database

import (
	"fmt"
	"strings"

	"github.com/pizzamaster/pizzamaster-api/internal/config"
)

// Options selects the database driver and its connection parameters.
// Postgres is the production target; sqlite serves development and tests.
type Options struct {
	Driver string

	// Postgres
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string

	// SQLite
	Path string
}

// OptionsFromConfig maps the application configuration onto database options
func OptionsFromConfig(conf *config.Config) Options {
	return Options{
		Driver:   conf.DBDriver,
		Host:     conf.DBHost,
		Port:     conf.DBPort,
		User:     conf.DBUser,
		Password: conf.DBPassword,
		Name:     conf.DBName,
		SSLMode:  conf.DBSSLMode,
		Path:     conf.DBPath,
	}
}

// String returns a representation with sensitive data masked
func (o Options) String() string {
	return fmt.Sprintf("Options{Driver: %s, Host: %s, Port: %s, User: %s, Password: [REDACTED], Name: %s, SSLMode: %s, Path: %s}",
		o.Driver, o.Host, o.Port, o.User, o.Name, o.SSLMode, o.Path)
}

// DSN builds the driver-specific data source name
func (o Options) DSN() string {
	switch strings.ToLower(o.Driver) {
	case "postgres", "postgresql":
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
			o.Host, o.User, o.Password, o.Name, o.Port, o.SSLMode)
	case "sqlite", "":
		if o.Path == ":memory:" {
			return o.Path
		}
		// Order placement holds a write transaction across the order and all
		// four ingredient tables; concurrent writers must wait, not fail.
		return o.Path + "?_busy_timeout=5000"
	default:
		return ""
	}
}
