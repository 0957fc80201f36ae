package evaluation

import (
	"mover-brief/internal/domain"
)

const defaultLearningRate = 0.1

// Optimizer derives new per-category weights from the latest evaluation.
// It holds no state across calls: Optimize is a pure function of the
// current table and the latest result's details.
type Optimizer struct {
	learningRate float64
}

func NewOptimizer(learningRate float64) *Optimizer {
	if learningRate <= 0 || learningRate >= 1 {
		learningRate = defaultLearningRate
	}
	return &Optimizer{learningRate: learningRate}
}

// Optimize applies one exponential-smoothing step per category:
//
//	w' = clamp(w + lr*(categoryAccuracy - 0.5), 0.1, 2.0)
//
// The 0.5 baseline means a category performing at chance leaves its weight
// unchanged. Categories with zero samples this round are left untouched.
func (o *Optimizer) Optimize(current domain.WeightTable, details []domain.MatchDetail) domain.WeightTable {
	next := domain.DefaultWeights()
	for cat, w := range current {
		next[cat] = w
	}

	correct := make(map[domain.Category]int)
	total := make(map[domain.Category]int)
	for _, d := range details {
		total[d.Category]++
		if d.CorrectDirection {
			correct[d.Category]++
		}
	}

	for _, cat := range domain.Categories {
		n := total[cat]
		if n == 0 {
			continue
		}
		accuracy := float64(correct[cat]) / float64(n)
		next[cat] = clampWeight(next[cat] + o.learningRate*(accuracy-0.5))
	}
	return next
}

// clampWeight silently bounds a weight to [0.1, 2.0]; out-of-range values
// are never propagated as errors.
func clampWeight(w float64) float64 {
	if w < domain.WeightMin {
		return domain.WeightMin
	}
	if w > domain.WeightMax {
		return domain.WeightMax
	}
	return w
}
