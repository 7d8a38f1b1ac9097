// Command prewarm builds the LP corp index for every corporation in the
// catalog and writes the results to the shared on-disk cache, so the site's
// static pages and the first API hits are served warm. Intended to run on a
// schedule alongside the catalog ETL.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"evegem/internal/cache"
	"evegem/internal/catalog"
	"evegem/internal/config"
	"evegem/internal/db"
	"evegem/internal/esi"
	"evegem/internal/history"
	"evegem/internal/lpindex"
	"evegem/internal/logger"
)

var version = "dev"

func main() {
	region := flag.Int("region", 0, "market region id (overrides EVEGEM_REGION_ID)")
	days := flag.Int("days", 0, "index window in days (overrides EVEGEM_DAYS)")
	limit := flag.Int("limit", 0, "basket size limit (overrides EVEGEM_BASKET_LIMIT)")
	flag.Parse()

	logger.Banner(version)

	cfg := config.FromEnv()
	regionID := cfg.DefaultRegionID
	if *region > 0 {
		regionID = int32(*region)
	}
	os.MkdirAll(filepath.Join(cfg.DataDir, "cache"), 0755)

	database, err := db.Open(filepath.Join(cfg.DataDir, "cache", "history.db"))
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()
	database.CleanupOldHistory()

	esiClient := esi.NewClient()
	cat := catalog.New(cfg.DataDir)
	hist := history.New(esiClient, database, cfg.HistoryTTL)
	store := cache.NewFS(filepath.Join(cfg.DataDir, "cache"))
	builder := lpindex.NewBuilder(cat, hist, store, cfg.HistoryConcurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	built, skipped, err := builder.Prewarm(ctx, regionID,
		cfg.ClampDays(*days), cfg.ClampLimit(*limit), cfg.PrewarmTTL)
	if err != nil {
		logger.Error("Prewarm", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
	logger.Success("Prewarm", fmt.Sprintf("Done: %d built, %d fresh", built, skipped))
}
