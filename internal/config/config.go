package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	EnginePath string
	Variant    string

	PollInterval time.Duration
	TimeBudget   time.Duration
	Depth        int

	RedisURL    string
	DatabaseURL string
	CacheTTL    time.Duration

	NNUEDir     string
	NNUEBaseURL string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		Variant:      "janggi",
		PollInterval: 10 * time.Millisecond,
		TimeBudget:   3 * time.Second,
		Depth:        18,
		CacheTTL:     10 * time.Minute,
		NNUEDir:      "nnue",
	}

	cfg.EnginePath = strings.TrimSpace(os.Getenv("ENGINE_PATH"))
	if v := strings.TrimSpace(os.Getenv("ENGINE_VARIANT")); v != "" {
		cfg.Variant = v
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_POLL_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PollInterval = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_TIME_BUDGET_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TimeBudget = time.Duration(n) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_DEPTH")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Depth = n
		}
	}

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if v := strings.TrimSpace(os.Getenv("CACHE_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.CacheTTL = time.Duration(n) * time.Second
		}
	}

	if v := strings.TrimSpace(os.Getenv("NNUE_DIR")); v != "" {
		cfg.NNUEDir = v
	}
	cfg.NNUEBaseURL = strings.TrimSpace(os.Getenv("NNUE_BASE_URL"))

	if cfg.EnginePath == "" {
		return nil, errors.New("ENGINE_PATH is required")
	}
	return cfg, nil
}
