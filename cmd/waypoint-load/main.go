package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/five82/waypoint/internal/cache"
	"github.com/five82/waypoint/internal/config"
	"github.com/five82/waypoint/internal/ingest"
	"github.com/five82/waypoint/internal/logging"
	"github.com/five82/waypoint/internal/store"
)

func main() {
	os.Exit(run())
}

func run() int {
	envFile := flag.String("env", ".env", "env file to load before reading the environment (optional)")
	prefix := flag.String("prefix", ingest.DefaultPrefix, "prefix for synthesized names and descriptions")
	replace := flag.Bool("replace", false, "delete all existing features before loading")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: waypoint-load [flags] <file.geojson|->\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		return 2
	}

	cfg, err := config.LoadServer(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "waypoint-load: %v\n", err)
		return 1
	}
	logs, err := logging.New(logging.Options{Level: cfg.LogLevel, Console: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "waypoint-load: %v\n", err)
		return 1
	}
	log := logs.Logger

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fc, err := ingest.Read(flag.Arg(0), os.Stdin)
	if err != nil {
		log.Error().Err(err).Msg("read input")
		return 1
	}

	db, err := store.Open(cfg.DB, logs.Logger)
	if err != nil {
		log.Error().Err(err).Str("dsn", cfg.DB.Redacted()).Msg("open database")
		return 1
	}
	defer db.Close()

	// Writes go through the cache so a running server stops serving old pages.
	var w ingest.Writer = db
	if rdb := cache.OpenRedis(cfg.Redis); rdb != nil {
		defer rdb.Close()
		w = cache.New(db, rdb, cfg.Redis.TTL, logs.Logger, nil)
	}

	res, err := ingest.Load(ctx, w, fc, ingest.Options{Prefix: *prefix, Replace: *replace, Logger: logs.Logger})
	if err != nil {
		log.Error().Err(err).Msg("load features")
		return 1
	}
	total, err := db.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count features")
	}
	fmt.Printf("loaded %d features (%d skipped), %d in store\n", res.Inserted, res.Skipped, total)
	return 0
}
