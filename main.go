package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"evegem/internal/api"
	"evegem/internal/cache"
	"evegem/internal/catalog"
	"evegem/internal/config"
	"evegem/internal/db"
	"evegem/internal/esi"
	"evegem/internal/history"
	"evegem/internal/logger"
	"evegem/internal/lpindex"
)

var version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP server port (overrides EVEGEM_PORT)")
	flag.Parse()

	logger.Banner(version)

	cfg := config.FromEnv()
	if *port > 0 {
		cfg.Port = *port
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
	if !esiClient.HealthCheck() {
		logger.Warn("ESI", "Health check failed, continuing anyway")
	}

	cat := catalog.New(cfg.DataDir)
	hist := history.New(esiClient, database, cfg.HistoryTTL)
	store := cache.NewFS(filepath.Join(cfg.DataDir, "cache"))
	builder := lpindex.NewBuilder(cat, hist, store, cfg.HistoryConcurrency)

	srv := api.NewServer(cfg, builder, hist, esiClient)

	// API plus the static site: frontend/ at the root, with the catalog
	// json/ directory exposed for direct chart fetches.
	apiHandler := srv.Handler()
	frontendDir := filepath.Join(cfg.DataDir, "frontend")
	fileServer := http.FileServer(http.Dir(frontendDir))
	jsonServer := http.StripPrefix("/json/", http.FileServer(http.Dir(filepath.Join(cfg.DataDir, "json"))))
	configServer := http.StripPrefix("/config/", http.FileServer(http.Dir(filepath.Join(cfg.DataDir, "config"))))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/"):
			apiHandler.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/json/"):
			jsonServer.ServeHTTP(w, r)
		case strings.HasPrefix(r.URL.Path, "/config/"):
			configServer.ServeHTTP(w, r)
		default:
			path := strings.TrimPrefix(r.URL.Path, "/")
			if path == "" {
				path = "index.html"
			}
			if _, err := os.Stat(filepath.Join(frontendDir, path)); err != nil {
				// SPA fallback
				r.URL.Path = "/"
			}
			fileServer.ServeHTTP(w, r)
		}
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	logger.Server(addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Error("Server", fmt.Sprintf("Failed: %v", err))
		os.Exit(1)
	}
}
