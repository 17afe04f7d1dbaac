// Package history records completed engine requests for later review:
// which position was asked, what came back and how long it took.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

type Record struct {
	ID        string
	Variant   string
	FEN       string
	Kind      string // "move", "analysis" or "hint"
	Move      string
	ScoreCP   int
	Depth     int
	Nodes     int64
	ElapsedMS int64
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, rec *Record) error
	Recent(ctx context.Context, variantName string, limit int) ([]*Record, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(databaseURL string) (Repository, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &repository{db: db}, nil
}

func (r *repository) Insert(ctx context.Context, rec *Record) error {
	if rec == nil {
		return fmt.Errorf("nil history record")
	}
	const query = `
		INSERT INTO engine_requests (
			id,
			variant,
			fen,
			kind,
			move,
			score_cp,
			depth,
			nodes,
			elapsed_ms,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.Variant,
		rec.FEN,
		rec.Kind,
		rec.Move,
		rec.ScoreCP,
		rec.Depth,
		rec.Nodes,
		rec.ElapsedMS,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert engine request: %w", err)
	}
	return nil
}

func (r *repository) Recent(ctx context.Context, variantName string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	const query = `
		SELECT id, variant, fen, kind, move, score_cp, depth, nodes, elapsed_ms, created_at
		FROM engine_requests
		WHERE variant = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, variantName, limit)
	if err != nil {
		return nil, fmt.Errorf("select engine requests: %w", err)
	}
	defer rows.Close()

	records := make([]*Record, 0, limit)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID,
			&rec.Variant,
			&rec.FEN,
			&rec.Kind,
			&rec.Move,
			&rec.ScoreCP,
			&rec.Depth,
			&rec.Nodes,
			&rec.ElapsedMS,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan engine request: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
