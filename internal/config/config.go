package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application settings. All durations and limits that tune the
// index builder live here so the HTTP path and the batch path share one
// source of truth instead of duplicated constants.
type Config struct {
	Port    int    // HTTP listen port
	DataDir string // root for json/, config/, frontend/ and the history DB

	DefaultRegionID int32 // market region used when the request omits one

	// Index window and basket bounds (request values are clamped into these).
	DefaultDays  int
	MinDays      int
	MaxDays      int
	DefaultLimit int
	MinLimit     int
	MaxLimit     int

	// Freshness thresholds. The on-demand and batch paths intentionally use
	// different values; see the index builder docs before unifying them.
	IndexTTL     time.Duration // on-demand /api/lp_corp_index cache
	PrewarmTTL   time.Duration // batch pre-warmer per-corp output cache
	HistoryTTL   time.Duration // per-(region,type) market history cache
	BuyOrdersTTL time.Duration // in-memory buy-order snapshot cache

	// HistoryConcurrency bounds simultaneous history lookups per build.
	HistoryConcurrency int
}

// Default returns a Config with the standard defaults.
func Default() *Config {
	return &Config{
		Port:               8090,
		DataDir:            ".",
		DefaultRegionID:    10000002, // The Forge (Jita)
		DefaultDays:        30,
		MinDays:            3,
		MaxDays:            90,
		DefaultLimit:       25,
		MinLimit:           5,
		MaxLimit:           40,
		IndexTTL:           6 * time.Hour,
		PrewarmTTL:         12 * time.Hour,
		HistoryTTL:         12 * time.Hour,
		BuyOrdersTTL:       5 * time.Minute,
		HistoryConcurrency: 6,
	}
}

// FromEnv returns the default config overlaid with environment variables.
// A .env file in the working directory is loaded first if present.
func FromEnv() *Config {
	godotenv.Load()

	cfg := Default()
	cfg.Port = envInt("EVEGEM_PORT", cfg.Port)
	if v := os.Getenv("EVEGEM_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	cfg.DefaultRegionID = int32(envInt("EVEGEM_REGION_ID", int(cfg.DefaultRegionID)))
	cfg.DefaultDays = envInt("EVEGEM_DAYS", cfg.DefaultDays)
	cfg.DefaultLimit = envInt("EVEGEM_BASKET_LIMIT", cfg.DefaultLimit)
	cfg.IndexTTL = envHours("EVEGEM_INDEX_TTL_HOURS", cfg.IndexTTL)
	cfg.PrewarmTTL = envHours("EVEGEM_PREWARM_TTL_HOURS", cfg.PrewarmTTL)
	cfg.HistoryTTL = envHours("EVEGEM_HISTORY_TTL_HOURS", cfg.HistoryTTL)
	cfg.HistoryConcurrency = envInt("EVEGEM_HISTORY_CONCURRENCY", cfg.HistoryConcurrency)
	return cfg
}

// ClampDays clamps a requested window length into the configured bounds.
// Zero means the request omitted the parameter and gets the default;
// anything else, negative included, clamps into bounds.
func (c *Config) ClampDays(days int) int {
	if days == 0 {
		days = c.DefaultDays
	}
	return clamp(days, c.MinDays, c.MaxDays)
}

// ClampLimit clamps a requested basket limit into the configured bounds.
// Zero means the request omitted the parameter and gets the default.
func (c *Config) ClampLimit(limit int) int {
	if limit == 0 {
		limit = c.DefaultLimit
	}
	return clamp(limit, c.MinLimit, c.MaxLimit)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func envHours(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			return time.Duration(n * float64(time.Hour))
		}
	}
	return fallback
}
