// Package config loads waypoint configuration for the editor and for the
// record store service.
//
// # Editor Configuration
//
// Load reads a TOML file, by default ~/.config/waypoint/config.toml:
//
//	api_url = "http://127.0.0.1:8000"
//	page_size = 50
//	request_timeout = "10s"
//	log_file = "~/.local/state/waypoint/waypoint.log"
//	log_level = "info"
//
// Resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/waypoint/config.toml
//  3. If the file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// Values are trimmed and a leading ~ expands to the home directory. A page
// size below zero or an unparsable timeout is an error; the editor refuses to
// start rather than guess.
//
// # Service Configuration
//
// LoadServer reads .env files first (godotenv; missing files are skipped,
// existing variables are never overridden) and then the environment:
//
//	WAYPOINT_LISTEN   listen address (default :8000)
//	LOG_LEVEL         debug, info, warn or error (default info)
//	DB_DRIVER         sqlite or postgres (default sqlite)
//	DB_HOST, DB_PORT, DB_NAME, DB_USER, DB_PASSWORD, DB_SSLMODE
//	SQLITE_PATH       database file for the sqlite driver (default waypoint.db)
//	REDIS_ADDR        list cache address; empty disables the cache
//	REDIS_PASSWORD, REDIS_DB
//	CACHE_TTL         lifetime of cached pages (default 30s)
//
// Database.DSN renders a postgres URL or the sqlite path. Use Redacted when
// logging it.
package config
