package repository

import (
	"context"
	"errors"
	"time"

	"mover-brief/internal/domain"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/trace"
)

type BriefRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBriefRepository(pool PgxPool, tracer trace.Tracer) *BriefRepository {
	return &BriefRepository{pool: pool, tracer: tracer}
}

func (r *BriefRepository) SaveBrief(ctx context.Context, brief domain.Brief) (*domain.Brief, error) {
	_, span := r.tracer.Start(ctx, "brief-repo.save-brief")
	defer span.End()

	resultJSON := brief.ResultJSON
	if resultJSON == "" {
		resultJSON = "{}"
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO briefs (brief_date, content, model, result_json)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (brief_date) DO UPDATE SET
		     content = EXCLUDED.content,
		     model = EXCLUDED.model,
		     result_json = EXCLUDED.result_json
		 RETURNING id, brief_date, content, model, result_json, created_at`,
		brief.BriefDate.UTC().Truncate(24*time.Hour), brief.Content, brief.Model, resultJSON,
	)

	saved, err := scanBrief(row)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

// LatestBrief returns the most recently dated brief, or nil when none exist.
func (r *BriefRepository) LatestBrief(ctx context.Context) (*domain.Brief, error) {
	_, span := r.tracer.Start(ctx, "brief-repo.latest-brief")
	defer span.End()

	row := r.pool.QueryRow(ctx,
		`SELECT id, brief_date, content, model, result_json, created_at
		 FROM briefs
		 ORDER BY brief_date DESC
		 LIMIT 1`,
	)

	brief, err := scanBrief(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return brief, nil
}

func scanBrief(row pgx.Row) (*domain.Brief, error) {
	var b domain.Brief
	if err := row.Scan(&b.ID, &b.BriefDate, &b.Content, &b.Model, &b.ResultJSON, &b.CreatedAt); err != nil {
		return nil, err
	}
	b.BriefDate = b.BriefDate.UTC()
	b.CreatedAt = b.CreatedAt.UTC()
	return &b, nil
}
