package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/five82/waypoint/internal/cache"
	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/logging"
	"github.com/five82/waypoint/internal/metrics"
	"github.com/five82/waypoint/internal/server"
	"github.com/five82/waypoint/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "env file to load before reading the environment (optional)")
	listen := flag.String("listen", "", "listen address (overrides WAYPOINT_LISTEN)")
	console := flag.Bool("console", false, "human readable logs instead of JSON")
	flag.Parse()

	cfg, err := config.LoadServer(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "waypointd: %v\n", err)
		return 1
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	logs, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: *console})
	if err != nil {
		fmt.Fprintf(os.Stderr, "waypointd: %v\n", err)
		return 1
	}
	log := logs.Logger.With().Str("component", "waypointd").Logger()
	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	db, err := store.Open(cfg.DB, logs.Logger)
	if err != nil {
		log.Error().Err(err).Str("dsn", cfg.DB.Redacted()).Msg("open database")
		return 1
	}
	defer db.Close()
	log.Info().Str("driver", cfg.DB.Driver).Str("dsn", cfg.DB.Redacted()).Msg("database ready")

	m := metrics.New()
	opts := server.Options{Repo: db, Logger: logs.Logger, Metrics: m}
	if rdb := cache.OpenRedis(cfg.Redis); rdb != nil {
		defer rdb.Close()
		if err := rdb.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis unreachable, cache will fall back to the database")
		}
		opts.Repo = cache.New(db, rdb, cfg.Redis.TTL, logs.Logger, m)
		opts.Checks = map[string]server.Pinger{"cache": rdb}
		log.Info().Str("addr", cfg.Redis.Addr).Dur("ttl", cfg.Redis.TTL).Msg("list cache enabled")
	}

	srv, err := server.New(opts)
	if err != nil {
		log.Error().Err(err).Msg("build server")
		return 1
	}
	if err := srv.Run(ctx, cfg.Listen); err != nil {
		log.Error().Err(err).Msg("server stopped")
		return 1
	}
	return 0
}
