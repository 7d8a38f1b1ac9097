// Command lpetl rebuilds the LP store catalog: it discovers every NPC
// corporation with an LP store in the static data export, pulls their offers
// from ESI, prices each offer against the configured market region and
// writes json/lp_corps.json and json/lp_offers.json for the server to read.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"evegem/internal/config"
	"evegem/internal/db"
	"evegem/internal/esi"
	"evegem/internal/etl"
	"evegem/internal/history"
	"evegem/internal/logger"
	"evegem/internal/sde"
)

var version = "dev"

func main() {
	region := flag.Int("region", 0, "market region id (overrides EVEGEM_REGION_ID)")
	sdeDir := flag.String("sde", "", "SDE directory (default <data dir>/SDE)")
	concurrency := flag.Int("concurrency", 4, "concurrent ESI lookups")
	flag.Parse()

	logger.Banner(version)

	cfg := config.FromEnv()
	regionID := cfg.DefaultRegionID
	if *region > 0 {
		regionID = int32(*region)
	}
	dir := *sdeDir
	if dir == "" {
		dir = filepath.Join(cfg.DataDir, "SDE")
	}
	os.MkdirAll(filepath.Join(cfg.DataDir, "cache"), 0755)

	data, err := sde.Load(dir)
	if err != nil {
		logger.Error("SDE", fmt.Sprintf("Load failed: %v", err))
		os.Exit(1)
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, "cache", "history.db"))
	if err != nil {
		logger.Error("DB", fmt.Sprintf("Failed to open database: %v", err))
		os.Exit(1)
	}
	defer database.Close()
	database.CleanupOldHistory()

	esiClient := esi.NewClient()
	hist := history.New(esiClient, database, cfg.HistoryTTL)
	worker := etl.New(esiClient, data, hist, cfg.DataDir, regionID, *concurrency)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := worker.Run(ctx); err != nil {
		logger.Error("ETL", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
