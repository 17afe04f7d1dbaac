package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	appcfg "github.com/park285/fairy-xboard/internal/config"
	"github.com/park285/fairy-xboard/internal/engine"
	"github.com/park285/fairy-xboard/internal/history"
	"github.com/park285/fairy-xboard/internal/nnue"
	"github.com/park285/fairy-xboard/internal/obslog"
	"github.com/park285/fairy-xboard/internal/variant"
	"github.com/park285/fairy-xboard/internal/xboard"
)

func main() {
	var (
		fenFlag   = flag.String("fen", "", "position to analyze (default: variant start position)")
		bestFlag  = flag.Bool("best", false, "ask for the best move instead of a full analysis")
		hintFlag  = flag.Bool("hint", false, "ask the engine for a hint")
		depthFlag = flag.Int("depth", 0, "analysis depth (default: ENGINE_DEPTH)")
		msFlag    = flag.Int("ms", 0, "best-move time budget in milliseconds (default: ENGINE_TIME_BUDGET_MS)")
	)
	flag.Parse()

	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer logger.Sync()

	v, err := variant.Parse(cfg.Variant)
	if err != nil {
		log.Fatalf("variant error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if cfg.NNUEBaseURL != "" {
		fetcher := nnue.NewFetcher(cfg.NNUEBaseURL)
		path, err := fetcher.Ensure(ctx, cfg.NNUEDir, v)
		if err != nil {
			log.Fatalf("nnue setup error: %v", err)
		}
		if path != "" {
			logger.Info("nnue weights ready", zap.String("path", path))
		}
	}

	var cache *engine.Cache
	if cfg.RedisURL != "" {
		cache, err = engine.NewCache(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatalf("cache init error: %v", err)
		}
	}

	var hist history.Repository
	if cfg.DatabaseURL != "" {
		hist, err = history.NewRepository(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("history init error: %v", err)
		}
	} else {
		hist = history.NewMemoryRepository()
	}

	eng, err := engine.New(engine.Config{
		EnginePath:   cfg.EnginePath,
		Variant:      v,
		PollInterval: cfg.PollInterval,
		Cache:        cache,
		History:      hist,
		Logger:       logger,
	})
	if err != nil {
		log.Fatalf("engine init error: %v", err)
	}
	defer func() {
		if err := eng.Close(); err != nil {
			logger.Warn("engine shutdown", zap.Error(err))
		}
	}()

	if err := eng.Start(ctx); err != nil {
		log.Fatalf("engine start error: %v", err)
	}

	fen := *fenFlag
	if fen == "" {
		fen = eng.StartFEN()
	}

	switch {
	case *hintFlag:
		move, err := eng.Hint(ctx)
		if err != nil {
			logger.Fatal("hint failed", zap.Error(err))
		}
		fmt.Println(move)

	case *bestFlag:
		budget := cfg.TimeBudget
		if *msFlag > 0 {
			budget = time.Duration(*msFlag) * time.Millisecond
		}
		move, err := eng.BestMove(ctx, fen, budget)
		if err != nil {
			logger.Fatal("best move failed", zap.Error(err))
		}
		fmt.Println(move)

	default:
		depth := cfg.Depth
		if *depthFlag > 0 {
			depth = *depthFlag
		}
		snap, err := eng.Analyze(ctx, fen, depth, func(s xboard.Snapshot) {
			logger.Debug("thinking",
				zap.Int("depth", s.Depth),
				zap.String("score", xboard.FormatScore(s.Score)),
				zap.Int64("nodes", s.Nodes))
		})
		if err != nil {
			logger.Fatal("analysis failed", zap.Error(err))
		}
		fmt.Printf("depth %d score %s nodes %d nps %d time %dms\n",
			snap.Depth, xboard.FormatScore(snap.Score), snap.Nodes, snap.NPS, snap.TimeMS)
		if len(snap.PV) > 0 {
			fmt.Printf("pv:")
			for _, mv := range snap.PV {
				fmt.Printf(" %s", mv)
			}
			fmt.Println()
		}
	}
	_ = os.Stdout.Sync()
}
