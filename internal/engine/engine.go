// Package engine is the caller-facing facade: one protocol session plus
// the optional result cache and request history.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/fairy-xboard/internal/board"
	"github.com/park285/fairy-xboard/internal/history"
	"github.com/park285/fairy-xboard/internal/variant"
	"github.com/park285/fairy-xboard/internal/xboard"
)

type Config struct {
	EnginePath   string
	Variant      variant.Variant
	PollInterval time.Duration
	Cache        *Cache             // optional
	History      history.Repository // optional
	Logger       *zap.Logger
}

type Engine struct {
	sess  *xboard.Session
	cache *Cache
	hist  history.Repository
	log   *zap.Logger
}

func New(cfg Config) (*Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tr := xboard.NewExecTransport(log)
	sess, err := xboard.NewSession(tr, xboard.Config{
		EnginePath:   cfg.EnginePath,
		Variant:      cfg.Variant,
		PollInterval: cfg.PollInterval,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}
	return &Engine{
		sess:  sess,
		cache: cfg.Cache,
		hist:  cfg.History,
		log:   log,
	}, nil
}

func (e *Engine) Start(ctx context.Context) error {
	return e.sess.Initialize(ctx)
}

func (e *Engine) SetVariant(v variant.Variant) error {
	return e.sess.SetVariant(v)
}

// StartFEN returns the initial position for the selected variant.
func (e *Engine) StartFEN() string {
	info, err := variant.Lookup(e.sess.Variant())
	if err != nil {
		return ""
	}
	return info.StartFEN
}

// BestMove answers from the cache when the position was searched before
// with the same budget, otherwise runs the engine and records the result.
func (e *Engine) BestMove(ctx context.Context, fen string, budget time.Duration) (string, error) {
	v := e.sess.Variant()
	if e.cache != nil {
		if move, ok, err := e.cache.GetBestMove(ctx, v, fen, budget); err != nil {
			e.log.Warn("best-move cache read failed", zap.Error(err))
		} else if ok {
			e.log.Debug("best-move cache hit", zap.String("fen", fen))
			return move, nil
		}
	}

	start := time.Now()
	mv, err := e.sess.RequestBestMove(ctx, fen, budget)
	if err != nil {
		return "", err
	}
	token := mv.String()

	if e.cache != nil {
		if err := e.cache.PutBestMove(ctx, v, fen, budget, token); err != nil {
			e.log.Warn("best-move cache write failed", zap.Error(err))
		}
	}
	e.record(ctx, &history.Record{
		ID:        uuid.NewString(),
		Variant:   v.String(),
		FEN:       fen,
		Kind:      "move",
		Move:      token,
		ElapsedMS: time.Since(start).Milliseconds(),
		CreatedAt: time.Now(),
	})
	return token, nil
}

// Analyze runs a fixed-depth search and returns the final snapshot;
// intermediate snapshots stream through onProgress when set.
func (e *Engine) Analyze(ctx context.Context, fen string, depth int, onProgress func(xboard.Snapshot)) (xboard.Snapshot, error) {
	v := e.sess.Variant()
	if e.cache != nil {
		if snap, err := e.cache.GetAnalysis(ctx, v, fen, depth); err != nil {
			e.log.Warn("analysis cache read failed", zap.Error(err))
		} else if snap != nil {
			return *snap, nil
		}
	}

	start := time.Now()
	snap, err := e.sess.RequestAnalysis(ctx, fen, depth, onProgress)
	if err != nil {
		return xboard.Snapshot{}, err
	}

	if e.cache != nil {
		if err := e.cache.PutAnalysis(ctx, v, fen, depth, snap); err != nil {
			e.log.Warn("analysis cache write failed", zap.Error(err))
		}
	}
	move := ""
	if len(snap.PV) > 0 {
		move = snap.PV[0]
	}
	e.record(ctx, &history.Record{
		ID:        uuid.NewString(),
		Variant:   v.String(),
		FEN:       fen,
		Kind:      "analysis",
		Move:      move,
		ScoreCP:   snap.Score,
		Depth:     snap.Depth,
		Nodes:     snap.Nodes,
		ElapsedMS: time.Since(start).Milliseconds(),
		CreatedAt: time.Now(),
	})
	return snap, nil
}

func (e *Engine) Hint(ctx context.Context) (string, error) {
	start := time.Now()
	mv, err := e.sess.Hint(ctx)
	if err != nil {
		return "", err
	}
	token := mv.String()
	e.record(ctx, &history.Record{
		ID:        uuid.NewString(),
		Variant:   e.sess.Variant().String(),
		Kind:      "hint",
		Move:      token,
		ElapsedMS: time.Since(start).Milliseconds(),
		CreatedAt: time.Now(),
	})
	return token, nil
}

func (e *Engine) OpponentMove(token string) error {
	return e.sess.OpponentMove(token)
}

// ApplyMove mirrors a move onto a decoded position, for callers tracking
// board state alongside the live session.
func (e *Engine) ApplyMove(fen, token string) (string, error) {
	info, err := variant.Lookup(e.sess.Variant())
	if err != nil {
		return "", err
	}
	pos, err := board.Decode(fen, info.Files, info.Ranks, info.Alphabet)
	if err != nil {
		return "", err
	}
	mv, err := board.ParseMove(token, info.Files, info.Ranks)
	if err != nil {
		return "", err
	}
	if err := pos.Apply(mv); err != nil {
		return "", err
	}
	return pos.Encode(), nil
}

func (e *Engine) record(ctx context.Context, rec *history.Record) {
	if e.hist == nil {
		return
	}
	if err := e.hist.Insert(ctx, rec); err != nil {
		e.log.Warn("history insert failed", zap.Error(err))
	}
}

func (e *Engine) Close() error {
	err := e.sess.Quit()
	if e.cache != nil {
		if cerr := e.cache.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
