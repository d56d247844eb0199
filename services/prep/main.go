package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"

	"github.com/wrapped/internal/config"
	"github.com/wrapped/internal/logger"
	"github.com/wrapped/internal/model"
	"github.com/wrapped/internal/pipeline"
	"github.com/wrapped/internal/startup"
)

func main() {
	os.Exit(run())
}

func run() int {
	logger.SetPrefix("prep")
	defer logger.Flush()

	exportPath := flag.String("export", "", "path to the export zip or unpacked directory (default: EXPORT_PATH)")
	exclude := flag.String("exclude", "", "comma-separated user ids excluded from co-posters and percentiles (default: EXCLUDED_USER_IDS)")
	workers := flag.Int("workers", 0, "channels processed in parallel (default: PIPELINE_WORKERS)")
	dev := flag.Bool("dev", false, "start with embedded PostgreSQL (no external DB required)")
	percentilesOnly := flag.Bool("percentiles-only", false, "recompute final stats from stored base stats")
	flag.Parse()

	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)
	opts := pipeline.Options{
		ExportPath:      cfg.Pipeline.ExportPath,
		ExcludedUserIDs: cfg.Pipeline.ExcludedUserIDs,
		Workers:         cfg.Pipeline.Workers,
	}
	if *exportPath != "" {
		opts.ExportPath = *exportPath
	}
	if *exclude != "" {
		opts.ExcludedUserIDs = config.SplitList(*exclude)
	}
	if *workers > 0 {
		opts.Workers = *workers
	}

	var embeddedDB *embeddedpostgres.EmbeddedPostgres
	if *dev {
		var err error
		embeddedDB, err = startup.StartEmbeddedPostgres(cfg)
		if err != nil {
			logger.Errorf("embedded postgres: %v", err)
			return 1
		}
		defer func() {
			logger.Info("stopping embedded postgres...")
			if err := embeddedDB.Stop(); err != nil {
				logger.Errorf("embedded postgres stop: %v", err)
			}
		}()
	}

	store, closeStore, err := startup.OpenStore(cfg, "")
	if err != nil {
		logger.Errorf("open report store: %v", err)
		return 1
	}
	defer closeStore()
	cache := startup.OpenCache(cfg, "")
	defer cache.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	p := pipeline.New(store, cache)
	var res *pipeline.Result
	if *percentilesOnly {
		logger.Info("recomputing percentiles from stored base stats")
		res, err = p.RecomputePercentiles(ctx, opts)
	} else {
		logger.Infof("processing export %s (workers=%d, excluded=%d)", opts.ExportPath, opts.Workers, len(opts.ExcludedUserIDs))
		res, err = p.Run(ctx, opts)
	}
	if err != nil {
		logger.Errorf("pipeline: %v", err)
		return 1
	}

	logLeaderboard("top thread creators", res.Leaderboard.TopThreadCreators)
	logLeaderboard("top repliers", res.Leaderboard.TopRepliers)
	logger.Infof("done: run=%s users=%d active=%d", res.RunID, res.Users, res.Population)
	return 0
}

func logLeaderboard(title string, list []model.UserCount) {
	logger.Infof("%s:", title)
	for i, u := range list {
		logger.Infof("  %d. %s (%s): %d", i+1, u.Name, u.UserID, u.Count)
	}
}
