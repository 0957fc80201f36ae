package evaluation

import (
	"testing"
	"time"

	"mover-brief/internal/domain"
)

var (
	testNow  = time.Date(2024, 3, 15, 21, 0, 0, 0, time.UTC)
	testPrev = time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
)

func calculate(t *testing.T, preds []domain.Prediction, outs []domain.ActualOutcome, universe []string) domain.EvaluationResult {
	t.Helper()
	m := NewMatcher(1.0)
	c := NewCalculator(1.0)
	return c.Calculate(testNow, testPrev, m.Match(preds, outs), outs, universe)
}

func TestCalculateTruePositive(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{prediction("AAPL", domain.DirectionUp, 2.0, domain.CategoryEarnings)},
		[]domain.ActualOutcome{outcome("AAPL", 3.1)},
		[]string{"AAPL"},
	)

	if r.TruePositives != 1 || r.FalsePositives != 0 || r.FalseNegatives != 0 {
		t.Fatalf("unexpected counts: TP=%d FP=%d FN=%d", r.TruePositives, r.FalsePositives, r.FalseNegatives)
	}
	if r.Accuracy != 1.0 || r.Precision != 1.0 || r.Recall != 1.0 || r.F1Score != 1.0 {
		t.Fatalf("all metrics should be 1.0: %+v", r)
	}
}

func TestCalculateNoisePredictionIsFalsePositive(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{prediction("NVDA", domain.DirectionUp, 1.5, domain.CategoryNews)},
		[]domain.ActualOutcome{outcome("NVDA", -0.5)},
		[]string{"NVDA"},
	)

	if r.TruePositives != 0 || r.FalsePositives != 1 || r.FalseNegatives != 0 {
		t.Fatalf("unexpected counts: TP=%d FP=%d FN=%d", r.TruePositives, r.FalsePositives, r.FalseNegatives)
	}
	if r.Accuracy != 0.0 || r.Precision != 0.0 {
		t.Fatalf("accuracy and precision should be 0: %+v", r)
	}
}

func TestCalculateUnpredictedMoverIsFalseNegative(t *testing.T) {
	r := calculate(t,
		nil,
		[]domain.ActualOutcome{outcome("TSLA", 2.0)},
		[]string{"TSLA"},
	)

	if r.TruePositives != 0 || r.FalsePositives != 0 || r.FalseNegatives != 1 {
		t.Fatalf("unexpected counts: TP=%d FP=%d FN=%d", r.TruePositives, r.FalsePositives, r.FalseNegatives)
	}
	if r.Accuracy != 0.0 {
		t.Fatalf("accuracy should be 0, got %v", r.Accuracy)
	}
}

func TestCalculateQuietUnpredictedTickerIsNotFalseNegative(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{prediction("AAPL", domain.DirectionUp, 2.0, domain.CategoryEarnings)},
		[]domain.ActualOutcome{outcome("AAPL", 2.0), outcome("MSFT", 0.3)},
		[]string{"AAPL", "MSFT"},
	)

	if r.FalseNegatives != 0 {
		t.Fatalf("insignificant unpredicted move should not count as FN, got %d", r.FalseNegatives)
	}
}

func TestCalculateMixedCounts(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{
			prediction("AAPL", domain.DirectionUp, 2.0, domain.CategoryEarnings),
			prediction("MSFT", domain.DirectionDown, 1.0, domain.CategoryMacro),
		},
		[]domain.ActualOutcome{
			outcome("AAPL", 2.5),  // TP
			outcome("MSFT", 1.4),  // FP: wrong direction
			outcome("NVDA", -3.0), // FN: significant, unpredicted
		},
		[]string{"AAPL", "MSFT", "NVDA"},
	)

	if r.TruePositives != 1 || r.FalsePositives != 1 || r.FalseNegatives != 1 {
		t.Fatalf("unexpected counts: TP=%d FP=%d FN=%d", r.TruePositives, r.FalsePositives, r.FalseNegatives)
	}
	third := 1.0 / 3.0
	if r.Accuracy != third {
		t.Fatalf("accuracy %v, expected %v", r.Accuracy, third)
	}
	if r.Precision != 0.5 || r.Recall != 0.5 || r.F1Score != 0.5 {
		t.Fatalf("precision/recall/f1 should all be 0.5: %+v", r)
	}
}

func TestCalculateMetricsStayInUnitInterval(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{
			prediction("AAPL", domain.DirectionUp, 2.0, domain.CategoryEarnings),
			prediction("MSFT", domain.DirectionDown, 1.0, domain.CategoryMacro),
			prediction("JPM", domain.DirectionUp, 3.0, domain.CategoryNews),
		},
		[]domain.ActualOutcome{
			outcome("AAPL", -2.5),
			outcome("MSFT", 0.1),
			outcome("JPM", 5.0),
			outcome("TSLA", -4.0),
		},
		[]string{"AAPL", "MSFT", "JPM", "TSLA"},
	)

	for name, v := range map[string]float64{
		"accuracy":  r.Accuracy,
		"precision": r.Precision,
		"recall":    r.Recall,
		"f1_score":  r.F1Score,
	} {
		if v < 0 || v > 1 {
			t.Fatalf("%s out of [0,1]: %v", name, v)
		}
	}
}

func TestCalculateDetailsCarrySignedPredictedMove(t *testing.T) {
	r := calculate(t,
		[]domain.Prediction{prediction("MSFT", domain.DirectionDown, 1.5, domain.CategoryMacro)},
		[]domain.ActualOutcome{outcome("MSFT", -2.0)},
		[]string{"MSFT"},
	)

	if len(r.Details) != 1 {
		t.Fatalf("expected 1 detail, got %d", len(r.Details))
	}
	d := r.Details[0]
	if d.PredictedMove != -1.5 {
		t.Fatalf("down prediction should carry a negative move, got %v", d.PredictedMove)
	}
	if !d.CorrectDirection || d.Category != domain.CategoryMacro {
		t.Fatalf("unexpected detail: %+v", d)
	}
}

func TestRound3(t *testing.T) {
	if Round3(1.0/3.0) != 0.333 {
		t.Fatalf("Round3(1/3) = %v", Round3(1.0/3.0))
	}
	if Round3(0.6666666) != 0.667 {
		t.Fatalf("Round3(2/3) = %v", Round3(0.6666666))
	}
}
