package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"mover-brief/internal/domain"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const latestReportKey = "evaluation:latest"

// OutcomeProvider fetches realized daily moves from the market data source.
type OutcomeProvider interface {
	FetchOutcomes(ctx context.Context, tickers []string) ([]domain.ActualOutcome, error)
}

// SnapshotStore persists and retrieves daily prediction snapshots.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot domain.PredictionSnapshot) error
	GetSnapshot(ctx context.Context, asOfDate time.Time) (*domain.PredictionSnapshot, error)
}

// OutcomeStore persists and retrieves realized daily moves.
type OutcomeStore interface {
	UpsertOutcomes(ctx context.Context, outcomes []domain.ActualOutcome) error
	GetOutcomes(ctx context.Context, observedDate time.Time) ([]domain.ActualOutcome, error)
}

// WeightStore persists the category weight table between runs.
type WeightStore interface {
	Load(ctx context.Context) (domain.WeightTable, error)
	Save(ctx context.Context, table domain.WeightTable) error
}

// Evaluator scores a prior prediction snapshot against realized outcomes.
type Evaluator interface {
	Evaluate(
		ctx context.Context,
		prior *domain.PredictionSnapshot,
		outcomes []domain.ActualOutcome,
		universe []string,
		weights domain.WeightTable,
	) (domain.EvaluationResult, domain.WeightTable, error)
	BuildReport(result domain.EvaluationResult, weights domain.WeightTable) domain.EvaluationReport
}

// BriefGenerator produces the daily narrative brief.
type BriefGenerator interface {
	Generate(
		ctx context.Context,
		briefDate time.Time,
		report domain.EvaluationReport,
		movers domain.MoverSummary,
	) (domain.Brief, error)
}

// BriefStore persists generated briefs.
type BriefStore interface {
	SaveBrief(ctx context.Context, brief domain.Brief) (*domain.Brief, error)
	LatestBrief(ctx context.Context) (*domain.Brief, error)
}

// Notifier pushes a generated brief to subscribers.
type Notifier interface {
	SendBrief(ctx context.Context, brief domain.Brief) error
}

type RedisClient interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

type DailyConfig struct {
	Universe         []string
	MoveThresholdPct float64
}

// DailyService orchestrates the daily cycle: collect outcomes, evaluate the
// prior day's predictions, persist the adjusted weights, and generate the
// brief.
type DailyService struct {
	tracer    trace.Tracer
	provider  OutcomeProvider
	snapshots SnapshotStore
	outcomes  OutcomeStore
	weights   WeightStore
	evaluator Evaluator
	generator BriefGenerator
	briefs    BriefStore
	notifier  Notifier
	redis     RedisClient
	cfg       DailyConfig
}

func NewDailyService(
	tracer trace.Tracer,
	outcomeProvider OutcomeProvider,
	snapshots SnapshotStore,
	outcomes OutcomeStore,
	weightStore WeightStore,
	evaluator Evaluator,
	generator BriefGenerator,
	briefs BriefStore,
	notifier Notifier,
	redisClient RedisClient,
	cfg DailyConfig,
) *DailyService {
	if len(cfg.Universe) == 0 {
		cfg.Universe = append([]string(nil), domain.DefaultUniverse...)
	}
	if cfg.MoveThresholdPct <= 0 {
		cfg.MoveThresholdPct = 1.0
	}
	return &DailyService{
		tracer:    tracer,
		provider:  outcomeProvider,
		snapshots: snapshots,
		outcomes:  outcomes,
		weights:   weightStore,
		evaluator: evaluator,
		generator: generator,
		briefs:    briefs,
		notifier:  notifier,
		redis:     redisClient,
		cfg:       cfg,
	}
}

// SetNotifier installs the brief push target. The bot is started after the
// service is constructed, so this is wired late.
func (s *DailyService) SetNotifier(n Notifier) {
	s.notifier = n
}

// RunDaily executes one full cycle for the given day. Failures in outcome
// persistence, report caching, and brief generation are collected rather
// than aborting the run; failures in evaluation or weight persistence abort.
func (s *DailyService) RunDaily(ctx context.Context, now time.Time) (domain.DailyRunResult, error) {
	ctx, span := s.tracer.Start(ctx, "daily-service.run-daily")
	defer span.End()

	if s.evaluator == nil || s.weights == nil {
		return domain.DailyRunResult{}, fmt.Errorf("daily service dependencies are not initialized")
	}

	now = now.UTC()
	day := now.Truncate(24 * time.Hour)
	result := domain.DailyRunResult{RunAt: now}

	outcomes, err := s.collectOutcomes(ctx, day, &result)
	if err != nil {
		return result, err
	}
	result.OutcomesCollected = len(outcomes)
	span.SetAttributes(attribute.Int("daily.outcomes", len(outcomes)))

	var prior *domain.PredictionSnapshot
	if s.snapshots != nil {
		prior, err = s.snapshots.GetSnapshot(ctx, day.AddDate(0, 0, -1))
		if err != nil {
			return result, fmt.Errorf("load prior snapshot: %w", err)
		}
	}

	table, err := s.weights.Load(ctx)
	if err != nil {
		return result, err
	}

	evalResult, updated, err := s.evaluator.Evaluate(ctx, prior, outcomes, s.cfg.Universe, table)
	if err != nil {
		return result, err
	}

	if prior != nil {
		if err := s.weights.Save(ctx, updated); err != nil {
			return result, err
		}
	}

	result.Report = s.evaluator.BuildReport(evalResult, updated)
	result.Movers = BuildMoverSummary(day, outcomes, s.cfg.MoveThresholdPct)

	if err := s.cacheLatestReport(ctx, result.Report); err != nil {
		log.Printf("failed to cache latest report: %v", err)
		result.Errors = append(result.Errors, "cache_report: "+err.Error())
	}

	if prior != nil && s.generator != nil {
		s.generateBrief(ctx, day, &result)
	}

	log.Printf("Daily run complete: %d outcomes, %d predictions evaluated, %d correct",
		len(outcomes), result.Report.PredictionsEvaluated, result.Report.CorrectPredictions)
	return result, nil
}

func (s *DailyService) collectOutcomes(
	ctx context.Context,
	day time.Time,
	result *domain.DailyRunResult,
) ([]domain.ActualOutcome, error) {
	ctx, span := s.tracer.Start(ctx, "daily-service.collect-outcomes")
	defer span.End()

	if s.provider == nil {
		if s.outcomes == nil {
			return nil, fmt.Errorf("no outcome source configured")
		}
		return s.outcomes.GetOutcomes(ctx, day)
	}

	outcomes, err := s.provider.FetchOutcomes(ctx, s.cfg.Universe)
	if err != nil {
		// Fall back to whatever was stored earlier today.
		result.Errors = append(result.Errors, "fetch_outcomes: "+err.Error())
		if s.outcomes != nil {
			stored, storeErr := s.outcomes.GetOutcomes(ctx, day)
			if storeErr == nil && len(stored) > 0 {
				return stored, nil
			}
		}
		return nil, fmt.Errorf("collect outcomes: %w", err)
	}

	if s.outcomes != nil {
		if err := s.outcomes.UpsertOutcomes(ctx, outcomes); err != nil {
			result.Errors = append(result.Errors, "store_outcomes: "+err.Error())
		}
	}
	return outcomes, nil
}

func (s *DailyService) generateBrief(ctx context.Context, day time.Time, result *domain.DailyRunResult) {
	brief, err := s.generator.Generate(ctx, day, result.Report, result.Movers)
	if err != nil {
		result.Errors = append(result.Errors, "brief: "+err.Error())
		return
	}
	if s.briefs != nil {
		saved, err := s.briefs.SaveBrief(ctx, brief)
		if err != nil {
			result.Errors = append(result.Errors, "save_brief: "+err.Error())
		} else {
			brief = *saved
		}
	}
	result.BriefGenerated = true
	if s.notifier != nil {
		if err := s.notifier.SendBrief(ctx, brief); err != nil {
			result.Errors = append(result.Errors, "notify: "+err.Error())
		}
	}
}

// RefreshOutcomes fetches the latest daily moves and stores them, so the
// evaluation run has a fallback if the market data source is down later.
func (s *DailyService) RefreshOutcomes(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "daily-service.refresh-outcomes")
	defer span.End()

	if s.provider == nil {
		return fmt.Errorf("no outcome provider configured")
	}
	outcomes, err := s.provider.FetchOutcomes(ctx, s.cfg.Universe)
	if err != nil {
		return err
	}
	if s.outcomes != nil {
		if err := s.outcomes.UpsertOutcomes(ctx, outcomes); err != nil {
			return fmt.Errorf("store outcomes: %w", err)
		}
	}
	log.Printf("Refreshed outcomes for %d tickers", len(outcomes))
	return nil
}

// IngestSnapshot validates and stores an upstream prediction snapshot.
func (s *DailyService) IngestSnapshot(ctx context.Context, snapshot domain.PredictionSnapshot) error {
	_, span := s.tracer.Start(ctx, "daily-service.ingest-snapshot")
	defer span.End()

	if s.snapshots == nil {
		return fmt.Errorf("snapshot store not configured")
	}
	if snapshot.AsOfDate.IsZero() {
		return fmt.Errorf("snapshot as_of_date is required")
	}
	for i, p := range snapshot.Predictions {
		if p.Ticker == "" {
			return fmt.Errorf("prediction %d: ticker is required", i)
		}
		if !p.PredictedDirection.IsValid() {
			return fmt.Errorf("prediction %d: invalid direction %q", i, p.PredictedDirection)
		}
		if p.PredictedMagnitude < 0 {
			return fmt.Errorf("prediction %d: magnitude must be non-negative", i)
		}
	}
	return s.snapshots.SaveSnapshot(ctx, snapshot)
}

// LatestReport returns the cached report from the most recent run, or nil
// when no run has completed yet.
func (s *DailyService) LatestReport(ctx context.Context) (*domain.EvaluationReport, error) {
	_, span := s.tracer.Start(ctx, "daily-service.latest-report")
	defer span.End()

	if s.redis == nil {
		return nil, nil
	}
	data, err := s.redis.Get(ctx, latestReportKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest report: %w", err)
	}
	var report domain.EvaluationReport
	if err := json.Unmarshal([]byte(data), &report); err != nil {
		return nil, fmt.Errorf("parse latest report: %w", err)
	}
	return &report, nil
}

// MoversFor returns the mover summary for a stored day.
func (s *DailyService) MoversFor(ctx context.Context, day time.Time) (domain.MoverSummary, error) {
	ctx, span := s.tracer.Start(ctx, "daily-service.movers-for")
	defer span.End()

	day = day.UTC().Truncate(24 * time.Hour)
	if s.outcomes == nil {
		return domain.MoverSummary{Date: day}, nil
	}
	outcomes, err := s.outcomes.GetOutcomes(ctx, day)
	if err != nil {
		return domain.MoverSummary{}, err
	}
	return BuildMoverSummary(day, outcomes, s.cfg.MoveThresholdPct), nil
}

// LatestBrief returns the most recent stored brief, or nil when none exist.
func (s *DailyService) LatestBrief(ctx context.Context) (*domain.Brief, error) {
	_, span := s.tracer.Start(ctx, "daily-service.latest-brief")
	defer span.End()

	if s.briefs == nil {
		return nil, nil
	}
	return s.briefs.LatestBrief(ctx)
}

// CurrentWeights returns the weight table currently in force.
func (s *DailyService) CurrentWeights(ctx context.Context) (domain.WeightTable, error) {
	_, span := s.tracer.Start(ctx, "daily-service.current-weights")
	defer span.End()

	return s.weights.Load(ctx)
}

func (s *DailyService) cacheLatestReport(ctx context.Context, report domain.EvaluationReport) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, latestReportKey, data, 0).Err()
}

// BuildMoverSummary splits outcomes into significant gainers and losers,
// each ordered by magnitude, largest first.
func BuildMoverSummary(day time.Time, outcomes []domain.ActualOutcome, thresholdPct float64) domain.MoverSummary {
	summary := domain.MoverSummary{Date: day, TotalTracked: len(outcomes)}
	for _, o := range outcomes {
		mover := domain.Mover{Ticker: o.Ticker, PctChange: o.ActualPctChange, Close: o.Close}
		switch {
		case o.ActualPctChange >= thresholdPct:
			summary.Gainers = append(summary.Gainers, mover)
		case o.ActualPctChange <= -thresholdPct:
			summary.Losers = append(summary.Losers, mover)
		}
	}
	sort.Slice(summary.Gainers, func(i, j int) bool {
		return summary.Gainers[i].PctChange > summary.Gainers[j].PctChange
	})
	sort.Slice(summary.Losers, func(i, j int) bool {
		return summary.Losers[i].PctChange < summary.Losers[j].PctChange
	})
	return summary
}
