package repository

import (
	"context"
	"time"

	"mover-brief/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type OutcomeRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewOutcomeRepository(pool PgxPool, tracer trace.Tracer) *OutcomeRepository {
	return &OutcomeRepository{pool: pool, tracer: tracer}
}

func (r *OutcomeRepository) UpsertOutcomes(ctx context.Context, outcomes []domain.ActualOutcome) error {
	if len(outcomes) == 0 {
		return nil
	}

	_, span := r.tracer.Start(ctx, "outcome-repo.upsert-outcomes")
	defer span.End()

	batch := &pgx.Batch{}
	for _, o := range outcomes {
		batch.Queue(
			`INSERT INTO daily_outcomes (ticker, observed_date, close, pct_change)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (ticker, observed_date) DO UPDATE SET
			     close = EXCLUDED.close,
			     pct_change = EXCLUDED.pct_change`,
			o.Ticker, o.ObservedDate.UTC().Truncate(24*time.Hour), o.Close, o.ActualPctChange,
		)
	}

	br := r.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range outcomes {
		if _, err := br.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *OutcomeRepository) GetOutcomes(ctx context.Context, observedDate time.Time) ([]domain.ActualOutcome, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.get-outcomes")
	defer span.End()

	day := observedDate.UTC().Truncate(24 * time.Hour)

	rows, err := r.pool.Query(ctx,
		`SELECT ticker, observed_date, close, pct_change
		 FROM daily_outcomes
		 WHERE observed_date = $1
		 ORDER BY ticker`,
		day,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []domain.ActualOutcome
	for rows.Next() {
		var o domain.ActualOutcome
		if err := rows.Scan(&o.Ticker, &o.ObservedDate, &o.Close, &o.ActualPctChange); err != nil {
			return nil, err
		}
		o.ObservedDate = o.ObservedDate.UTC()
		outcomes = append(outcomes, o)
	}
	return outcomes, rows.Err()
}

// LatestClose returns the most recent stored close for a ticker strictly
// before the given date, or false when the ticker has no earlier history.
func (r *OutcomeRepository) LatestClose(ctx context.Context, ticker string, before time.Time) (float64, bool, error) {
	_, span := r.tracer.Start(ctx, "outcome-repo.latest-close")
	defer span.End()

	rows, err := r.pool.Query(ctx,
		`SELECT close
		 FROM daily_outcomes
		 WHERE ticker = $1 AND observed_date < $2
		 ORDER BY observed_date DESC
		 LIMIT 1`,
		ticker, before.UTC().Truncate(24*time.Hour),
	)
	if err != nil {
		return 0, false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, false, rows.Err()
	}
	var close float64
	if err := rows.Scan(&close); err != nil {
		return 0, false, err
	}
	return close, true, rows.Err()
}
