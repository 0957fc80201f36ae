package evaluation

import (
	"math"
	"time"

	"mover-brief/internal/domain"
)

// Calculator reduces matched pairs into confusion-matrix counts and
// derived metrics.
type Calculator struct {
	threshold float64
}

func NewCalculator(thresholdPct float64) *Calculator {
	if thresholdPct <= 0 {
		thresholdPct = 1.0
	}
	return &Calculator{threshold: thresholdPct}
}

// Calculate builds an EvaluationResult from the matched pairs plus the full
// outcome set. False negatives are unpredicted tickers in the universe whose
// actual move was significant, which is why the full outcome set is needed
// rather than just the predicted subset.
//
// Metrics are kept at full floating precision here; rounding happens only in
// the external report representation.
func (c *Calculator) Calculate(
	now time.Time,
	previousDate time.Time,
	pairs []domain.MatchedPair,
	outcomes []domain.ActualOutcome,
	universe []string,
) domain.EvaluationResult {
	result := domain.EvaluationResult{
		Timestamp:    now.UTC(),
		PreviousDate: previousDate,
		Details:      make([]domain.MatchDetail, 0, len(pairs)),
	}

	predicted := make(map[string]bool, len(pairs))
	for _, p := range pairs {
		predicted[p.Ticker] = true

		if p.PredictedCorrect {
			result.TruePositives++
		} else {
			// Wrong direction on a significant move, or a noise prediction
			// on an insignificant one: both count against precision.
			result.FalsePositives++
		}

		result.Details = append(result.Details, domain.MatchDetail{
			Ticker:           p.Ticker,
			PredictedMove:    p.Prediction.PredictedDirection.Sign() * p.Prediction.PredictedMagnitude,
			ActualMove:       p.Outcome.ActualPctChange,
			Category:         p.Prediction.Category,
			SignificantMove:  p.SignificantMove,
			CorrectDirection: p.PredictedCorrect,
		})
	}

	byTicker := make(map[string]domain.ActualOutcome, len(outcomes))
	for _, o := range outcomes {
		byTicker[o.Ticker] = o
	}
	for _, ticker := range universe {
		if predicted[ticker] {
			continue
		}
		out, ok := byTicker[ticker]
		if !ok {
			continue
		}
		if math.Abs(out.ActualPctChange) >= c.threshold {
			result.FalseNegatives++
		}
	}

	result.Accuracy = safeRatio(result.TruePositives,
		result.TruePositives+result.FalsePositives+result.FalseNegatives)
	result.Precision = safeRatio(result.TruePositives,
		result.TruePositives+result.FalsePositives)
	result.Recall = safeRatio(result.TruePositives,
		result.TruePositives+result.FalseNegatives)
	if result.Precision+result.Recall > 0 {
		result.F1Score = 2 * result.Precision * result.Recall / (result.Precision + result.Recall)
	}

	return result
}

// safeRatio divides with a defined zero-division policy: 0, never NaN.
func safeRatio(num, den int) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Round3 rounds a ratio to 3 decimal digits for output representations.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
