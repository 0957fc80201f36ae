package evaluation

import (
	"context"
	"fmt"
	"log"
	"time"

	"mover-brief/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// HistoryStore persists evaluation results and running averages.
type HistoryStore interface {
	Append(result domain.EvaluationResult) error
	Window() []domain.EvaluationResult
	RunningAverages() map[string]domain.RunningAverage
}

type Config struct {
	MoveThresholdPct float64
	LearningRate     float64
}

// Service coordinates one evaluation run: match, score, persist, reweight.
// It is invoked once per scheduling cycle and is not re-entered concurrently
// for the same history store.
type Service struct {
	tracer    trace.Tracer
	matcher   *Matcher
	calc      *Calculator
	optimizer *Optimizer
	history   HistoryStore
	now       func() time.Time
}

func NewService(tracer trace.Tracer, history HistoryStore, cfg Config) *Service {
	if cfg.MoveThresholdPct <= 0 {
		cfg.MoveThresholdPct = 1.0
	}
	return &Service{
		tracer:    tracer,
		matcher:   NewMatcher(cfg.MoveThresholdPct),
		calc:      NewCalculator(cfg.MoveThresholdPct),
		optimizer: NewOptimizer(cfg.LearningRate),
		history:   history,
		now:       time.Now,
	}
}

// Evaluate scores the prior day's prediction snapshot against today's
// observed moves, appends the result to the history store, and returns the
// result together with the reweighted table.
//
// A nil snapshot is the Day-1 baseline: a sentinel zero result is returned,
// nothing is appended, and the weights come back unchanged. On a non-nil
// snapshot, the history append and the weight update either both take
// effect or neither does.
func (s *Service) Evaluate(
	ctx context.Context,
	prior *domain.PredictionSnapshot,
	outcomes []domain.ActualOutcome,
	universe []string,
	weights domain.WeightTable,
) (domain.EvaluationResult, domain.WeightTable, error) {
	_, span := s.tracer.Start(ctx, "evaluation.evaluate")
	defer span.End()

	if weights == nil {
		weights = domain.DefaultWeights()
	}

	if prior == nil {
		log.Println("no prior prediction snapshot, returning baseline result")
		return domain.EvaluationResult{Timestamp: s.now().UTC(), Details: []domain.MatchDetail{}},
			weights.Clone(), nil
	}

	if err := validateInputs(prior.Predictions, outcomes); err != nil {
		return domain.EvaluationResult{}, nil, err
	}

	pairs := s.matcher.Match(prior.Predictions, outcomes)
	result := s.calc.Calculate(s.now(), prior.AsOfDate, pairs, outcomes, universe)

	span.SetAttributes(
		attribute.Int("eval.predictions", len(prior.Predictions)),
		attribute.Int("eval.true_positives", result.TruePositives),
		attribute.Int("eval.false_positives", result.FalsePositives),
		attribute.Int("eval.false_negatives", result.FalseNegatives),
	)

	// Append before reweighting: the optimizer is pure, so a failed append
	// aborts the run with both stores at their pre-run state.
	if err := s.history.Append(result); err != nil {
		span.RecordError(err)
		return domain.EvaluationResult{}, nil, fmt.Errorf("append evaluation history: %w", err)
	}

	updated := s.optimizer.Optimize(weights, result.Details)
	return result, updated, nil
}

// BuildReport assembles the externally consumed report for a result, with
// ratios rounded to 3 decimals.
func (s *Service) BuildReport(result domain.EvaluationResult, weights domain.WeightTable) domain.EvaluationReport {
	averages := s.history.RunningAverages()
	metrics := make(map[string]float64, len(domain.MetricNames))
	sampleSize := 0
	for _, name := range domain.MetricNames {
		avg := averages[name]
		metrics[name] = Round3(avg.Value)
		if name == domain.MetricAccuracy {
			sampleSize = avg.Count
		}
	}

	previousDate := ""
	if !result.PreviousDate.IsZero() {
		previousDate = result.PreviousDate.Format("2006-01-02")
	}

	return domain.EvaluationReport{
		PreviousDate: previousDate,
		CurrentMetrics: domain.CurrentMetrics{
			Accuracy:  Round3(result.Accuracy),
			Precision: Round3(result.Precision),
			Recall:    Round3(result.Recall),
			F1Score:   Round3(result.F1Score),
		},
		HistoricalPerformance: domain.HistoricalPerformance{
			Metrics:        metrics,
			SampleSize:     sampleSize,
			CurrentWeights: weights,
		},
		PredictionsEvaluated: len(result.Details),
		CorrectPredictions:   result.CorrectCount(),
	}
}

func validateInputs(predictions []domain.Prediction, outcomes []domain.ActualOutcome) error {
	for i, p := range predictions {
		if p.Ticker == "" {
			return fmt.Errorf("malformed prediction at index %d: empty ticker", i)
		}
		if !p.PredictedDirection.IsValid() {
			return fmt.Errorf("malformed prediction for %s: direction %q", p.Ticker, p.PredictedDirection)
		}
	}
	for i, o := range outcomes {
		if o.Ticker == "" {
			return fmt.Errorf("malformed outcome at index %d: empty ticker", i)
		}
	}
	return nil
}
