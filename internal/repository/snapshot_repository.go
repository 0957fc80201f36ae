package repository

import (
	"context"
	"time"

	"mover-brief/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/trace"
)

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type SnapshotRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewSnapshotRepository(pool PgxPool, tracer trace.Tracer) *SnapshotRepository {
	return &SnapshotRepository{pool: pool, tracer: tracer}
}

// SaveSnapshot replaces the prediction set stored for the snapshot's date.
// Storing an empty set is valid and distinct from never having stored one.
func (r *SnapshotRepository) SaveSnapshot(ctx context.Context, snapshot domain.PredictionSnapshot) error {
	_, span := r.tracer.Start(ctx, "snapshot-repo.save-snapshot")
	defer span.End()

	asOf := snapshot.AsOfDate.UTC().Truncate(24 * time.Hour)

	if _, err := r.pool.Exec(ctx,
		`INSERT INTO prediction_snapshots (as_of_date) VALUES ($1)
		 ON CONFLICT (as_of_date) DO UPDATE SET created_at = now()`,
		asOf,
	); err != nil {
		return err
	}

	if _, err := r.pool.Exec(ctx,
		`DELETE FROM predictions WHERE as_of_date = $1`, asOf,
	); err != nil {
		return err
	}

	if len(snapshot.Predictions) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, p := range snapshot.Predictions {
		batch.Queue(
			`INSERT INTO predictions (as_of_date, ticker, direction, magnitude, category)
			 VALUES ($1, $2, $3, $4, $5)`,
			asOf, p.Ticker, string(p.PredictedDirection), p.PredictedMagnitude, string(p.Category),
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range snapshot.Predictions {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

// GetSnapshot returns the prediction set stored for the given date, or nil
// when no snapshot was ever stored for it.
func (r *SnapshotRepository) GetSnapshot(ctx context.Context, asOfDate time.Time) (*domain.PredictionSnapshot, error) {
	_, span := r.tracer.Start(ctx, "snapshot-repo.get-snapshot")
	defer span.End()

	asOf := asOfDate.UTC().Truncate(24 * time.Hour)

	var found bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM prediction_snapshots WHERE as_of_date = $1)`, asOf,
	).Scan(&found); err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT ticker, direction, magnitude, category
		 FROM predictions
		 WHERE as_of_date = $1
		 ORDER BY ticker`,
		asOf,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshot := &domain.PredictionSnapshot{AsOfDate: asOf}
	for rows.Next() {
		var p domain.Prediction
		var direction, category string
		if err := rows.Scan(&p.Ticker, &direction, &p.PredictedMagnitude, &category); err != nil {
			return nil, err
		}
		p.PredictedDirection = domain.MoveDirection(direction)
		p.Category = domain.ParseCategory(category)
		p.AsOfDate = asOf
		snapshot.Predictions = append(snapshot.Predictions, p)
	}
	return snapshot, rows.Err()
}
