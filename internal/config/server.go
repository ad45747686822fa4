package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Database drivers understood by the record store.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Server holds the record store service settings.
type Server struct {
	Listen   string
	LogLevel string

	DB    Database
	Redis Redis
}

// Database selects and addresses the SQL backend.
type Database struct {
	Driver     string
	Host       string
	Port       string
	Name       string
	User       string
	Password   string
	SSLMode    string
	SQLitePath string
}

// Redis addresses the optional list cache. An empty Addr disables it.
type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

const (
	defaultListen     = ":8000"
	defaultSQLitePath = "waypoint.db"
	defaultCacheTTL   = 30 * time.Second
)

// LoadServer reads .env style files (missing files are skipped) and then the
// process environment. Variables already set in the environment win.
func LoadServer(envFiles ...string) (Server, error) {
	for _, path := range envFiles {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Server{}, fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	cfg := Server{
		Listen:   envOr("WAYPOINT_LISTEN", defaultListen),
		LogLevel: strings.ToLower(envOr("LOG_LEVEL", defaultLogLevel)),
		DB: Database{
			Driver:     strings.ToLower(envOr("DB_DRIVER", DriverSQLite)),
			Host:       envOr("DB_HOST", "localhost"),
			Port:       envOr("DB_PORT", "5432"),
			Name:       envOr("DB_NAME", "waypoint"),
			User:       envOr("DB_USER", "postgres"),
			Password:   os.Getenv("DB_PASSWORD"),
			SSLMode:    envOr("DB_SSLMODE", "disable"),
			SQLitePath: envOr("SQLITE_PATH", defaultSQLitePath),
		},
		Redis: Redis{
			Addr:     strings.TrimSpace(os.Getenv("REDIS_ADDR")),
			Password: os.Getenv("REDIS_PASSWORD"),
			TTL:      defaultCacheTTL,
		},
	}

	switch cfg.DB.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return Server{}, fmt.Errorf("DB_DRIVER %q: want %s or %s", cfg.DB.Driver, DriverSQLite, DriverPostgres)
	}

	if v := strings.TrimSpace(os.Getenv("REDIS_DB")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Server{}, fmt.Errorf("REDIS_DB %q: want a non-negative integer", v)
		}
		cfg.Redis.DB = n
	}
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Server{}, fmt.Errorf("CACHE_TTL: %w", err)
		}
		cfg.Redis.TTL = d
	}

	return cfg, nil
}

// DSN renders the connection string for the configured driver.
func (d Database) DSN() string {
	if d.Driver == DriverPostgres {
		u := url.URL{
			Scheme:   "postgres",
			Host:     d.Host + ":" + d.Port,
			Path:     "/" + d.Name,
			RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
		}
		if d.Password != "" {
			u.User = url.UserPassword(d.User, d.Password)
		} else {
			u.User = url.User(d.User)
		}
		return u.String()
	}
	return d.SQLitePath
}

// Redacted is DSN with the password masked, for logging.
func (d Database) Redacted() string {
	if d.Driver == DriverPostgres && d.Password != "" {
		masked := d
		masked.Password = "xxxxx"
		return masked.DSN()
	}
	return d.DSN()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
