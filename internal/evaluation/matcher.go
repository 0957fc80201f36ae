package evaluation

import (
	"log"
	"math"

	"mover-brief/internal/domain"
)

// Matcher pairs a prior day's predictions with the day's observed moves.
type Matcher struct {
	threshold float64
}

// NewMatcher creates a matcher. thresholdPct is the minimum absolute percent
// change for a move to count as significant; non-positive falls back to 1.0.
func NewMatcher(thresholdPct float64) *Matcher {
	if thresholdPct <= 0 {
		thresholdPct = 1.0
	}
	return &Matcher{threshold: thresholdPct}
}

// Match joins predictions with outcomes keyed by ticker, preserving the
// prediction set's insertion order. A predicted ticker with no observed
// outcome is a data gap: logged and excluded, never an error.
func (m *Matcher) Match(predictions []domain.Prediction, outcomes []domain.ActualOutcome) []domain.MatchedPair {
	byTicker := make(map[string]domain.ActualOutcome, len(outcomes))
	for _, o := range outcomes {
		byTicker[o.Ticker] = o
	}

	pairs := make([]domain.MatchedPair, 0, len(predictions))
	for _, p := range predictions {
		out, ok := byTicker[p.Ticker]
		if !ok {
			log.Printf("data gap: %s predicted but no outcome observed, skipping", p.Ticker)
			continue
		}

		significant := math.Abs(out.ActualPctChange) >= m.threshold
		correct := significant && sameDirection(p.PredictedDirection, out.ActualPctChange)

		pairs = append(pairs, domain.MatchedPair{
			Ticker:           p.Ticker,
			Prediction:       p,
			Outcome:          out,
			SignificantMove:  significant,
			PredictedCorrect: correct,
		})
	}
	return pairs
}

func sameDirection(d domain.MoveDirection, actualPctChange float64) bool {
	if d == domain.DirectionUp {
		return actualPctChange > 0
	}
	return actualPctChange < 0
}
