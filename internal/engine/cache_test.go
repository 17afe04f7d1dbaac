package engine

import (
	"context"
	"fmt"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/park285/fairy-xboard/internal/variant"
	"github.com/park285/fairy-xboard/internal/xboard"
)

const testFEN = "rnba1abnr/4k4/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1C5C1/4K4/RNBA1ABNR w - - 0 1"

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	c, err := NewCache(fmt.Sprintf("redis://%s/0", mr.Addr()), time.Minute)
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBestMoveCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if _, ok, err := c.GetBestMove(ctx, variant.Janggi, testFEN, time.Second); err != nil || ok {
		t.Fatalf("cold cache: move=%v err=%v", ok, err)
	}
	if err := c.PutBestMove(ctx, variant.Janggi, testFEN, time.Second, "h3e3"); err != nil {
		t.Fatalf("PutBestMove: %v", err)
	}

	move, ok, err := c.GetBestMove(ctx, variant.Janggi, testFEN, time.Second)
	if err != nil || !ok || move != "h3e3" {
		t.Fatalf("warm cache: move=%q ok=%v err=%v", move, ok, err)
	}

	// Budget is part of the key.
	if _, ok, _ := c.GetBestMove(ctx, variant.Janggi, testFEN, 2*time.Second); ok {
		t.Fatal("different budget hit the same entry")
	}
	// So is the variant.
	if _, ok, _ := c.GetBestMove(ctx, variant.Xiangqi, testFEN, time.Second); ok {
		t.Fatal("different variant hit the same entry")
	}
}

func TestAnalysisCache(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	if snap, err := c.GetAnalysis(ctx, variant.Janggi, testFEN, 12); err != nil || snap != nil {
		t.Fatalf("cold cache: snap=%v err=%v", snap, err)
	}

	in := xboard.Snapshot{Depth: 12, Score: 145, TimeMS: 12340, Nodes: 567890, NPS: 46020, PV: []string{"h3e3", "h10g8"}}
	if err := c.PutAnalysis(ctx, variant.Janggi, testFEN, 12, in); err != nil {
		t.Fatalf("PutAnalysis: %v", err)
	}

	out, err := c.GetAnalysis(ctx, variant.Janggi, testFEN, 12)
	if err != nil || out == nil {
		t.Fatalf("warm cache: snap=%v err=%v", out, err)
	}
	if out.Depth != in.Depth || out.Score != in.Score || len(out.PV) != 2 {
		t.Fatalf("cached snapshot = %+v", out)
	}
}
