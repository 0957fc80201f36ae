package evaluation

import (
	"math"
	"testing"

	"mover-brief/internal/domain"
)

func detail(cat domain.Category, correct bool) domain.MatchDetail {
	return domain.MatchDetail{Ticker: "AAPL", Category: cat, CorrectDirection: correct}
}

func TestOptimizePerfectCategoryGainsWeight(t *testing.T) {
	o := NewOptimizer(0.1)
	next := o.Optimize(domain.DefaultWeights(), []domain.MatchDetail{
		detail(domain.CategoryEarnings, true),
	})

	// 1.0 + 0.1*(1.0-0.5) = 1.05
	if math.Abs(next[domain.CategoryEarnings]-1.05) > 1e-12 {
		t.Fatalf("expected 1.05, got %v", next[domain.CategoryEarnings])
	}
}

func TestOptimizeChancePerformanceLeavesWeightUnchanged(t *testing.T) {
	o := NewOptimizer(0.1)
	next := o.Optimize(domain.DefaultWeights(), []domain.MatchDetail{
		detail(domain.CategoryMacro, true),
		detail(domain.CategoryMacro, false),
	})

	if next[domain.CategoryMacro] != 1.0 {
		t.Fatalf("50%% accuracy should not move the weight, got %v", next[domain.CategoryMacro])
	}
}

func TestOptimizeSkipsCategoriesWithoutSamples(t *testing.T) {
	o := NewOptimizer(0.1)
	current := domain.DefaultWeights()
	current[domain.CategoryNews] = 1.3

	next := o.Optimize(current, []domain.MatchDetail{
		detail(domain.CategoryEarnings, false),
	})

	if next[domain.CategoryNews] != 1.3 {
		t.Fatalf("unsampled category weight changed: %v", next[domain.CategoryNews])
	}
	if next[domain.CategoryUnknown] != 0.5 {
		t.Fatalf("unsampled unknown weight changed: %v", next[domain.CategoryUnknown])
	}
}

func TestOptimizeClampsToBounds(t *testing.T) {
	o := NewOptimizer(0.5)

	low := domain.DefaultWeights()
	low[domain.CategoryNews] = 0.12
	next := o.Optimize(low, []domain.MatchDetail{detail(domain.CategoryNews, false)})
	if next[domain.CategoryNews] != domain.WeightMin {
		t.Fatalf("expected clamp to %v, got %v", domain.WeightMin, next[domain.CategoryNews])
	}

	high := domain.DefaultWeights()
	high[domain.CategoryEarnings] = 1.9
	next = o.Optimize(high, []domain.MatchDetail{detail(domain.CategoryEarnings, true)})
	if next[domain.CategoryEarnings] != domain.WeightMax {
		t.Fatalf("expected clamp to %v, got %v", domain.WeightMax, next[domain.CategoryEarnings])
	}
}

func TestOptimizeDoesNotMutateInput(t *testing.T) {
	o := NewOptimizer(0.1)
	current := domain.DefaultWeights()
	o.Optimize(current, []domain.MatchDetail{detail(domain.CategoryEarnings, true)})

	if current[domain.CategoryEarnings] != 1.0 {
		t.Fatalf("optimizer mutated its input table: %v", current[domain.CategoryEarnings])
	}
}

func TestOptimizeIsDeterministic(t *testing.T) {
	o := NewOptimizer(0.1)
	details := []domain.MatchDetail{
		detail(domain.CategoryEarnings, true),
		detail(domain.CategoryMacro, false),
		detail(domain.CategoryNews, true),
		detail(domain.CategoryNews, false),
	}

	a := o.Optimize(domain.DefaultWeights(), details)
	b := o.Optimize(domain.DefaultWeights(), details)
	for cat, w := range a {
		if b[cat] != w {
			t.Fatalf("non-deterministic weight for %s: %v vs %v", cat, w, b[cat])
		}
	}
}

func TestOptimizeFillsMissingCategories(t *testing.T) {
	o := NewOptimizer(0.1)
	partial := domain.WeightTable{domain.CategoryEarnings: 1.2}

	next := o.Optimize(partial, nil)
	if next[domain.CategoryUnknown] != 0.5 || next[domain.CategoryMacro] != 1.0 {
		t.Fatalf("missing categories should take defaults: %+v", next)
	}
	if next[domain.CategoryEarnings] != 1.2 {
		t.Fatalf("existing weight should survive: %v", next[domain.CategoryEarnings])
	}
}
