package domain

import (
	"math"
	"testing"
)

func TestParseCategory(t *testing.T) {
	cases := map[string]Category{
		"earnings":  CategoryEarnings,
		"macro":     CategoryMacro,
		"news":      CategoryNews,
		"unknown":   CategoryUnknown,
		"sentiment": CategoryUnknown,
		"":          CategoryUnknown,
	}
	for raw, expected := range cases {
		if got := ParseCategory(raw); got != expected {
			t.Fatalf("ParseCategory(%q) = %s, expected %s", raw, got, expected)
		}
	}
}

func TestDirectionSign(t *testing.T) {
	if DirectionUp.Sign() != 1 || DirectionDown.Sign() != -1 {
		t.Fatalf("unexpected direction signs: up=%v down=%v", DirectionUp.Sign(), DirectionDown.Sign())
	}
	if DirectionUp.IsValid() != true || MoveDirection("sideways").IsValid() {
		t.Fatal("direction validity check broken")
	}
}

func TestRunningAverageMatchesArithmeticMean(t *testing.T) {
	values := []float64{0.5, 1.0, 0.0, 0.25, 0.75}

	avg := RunningAverage{}
	sum := 0.0
	for _, v := range values {
		avg = avg.Add(v)
		sum += v
	}

	expected := sum / float64(len(values))
	if math.Abs(avg.Value-expected) > 1e-12 {
		t.Fatalf("running average %v, expected %v", avg.Value, expected)
	}
	if avg.Count != len(values) {
		t.Fatalf("count %d, expected %d", avg.Count, len(values))
	}
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	if w[CategoryEarnings] != 1.0 || w[CategoryMacro] != 1.0 || w[CategoryNews] != 1.0 {
		t.Fatalf("unexpected defaults: %+v", w)
	}
	if w[CategoryUnknown] != 0.5 {
		t.Fatalf("unknown category should start at 0.5, got %v", w[CategoryUnknown])
	}
}

func TestWeightTableClone(t *testing.T) {
	w := DefaultWeights()
	c := w.Clone()
	c[CategoryNews] = 1.9
	if w[CategoryNews] != 1.0 {
		t.Fatalf("clone mutated original: %v", w[CategoryNews])
	}
}

func TestCorrectCount(t *testing.T) {
	r := EvaluationResult{Details: []MatchDetail{
		{Ticker: "AAPL", CorrectDirection: true},
		{Ticker: "MSFT", CorrectDirection: false},
		{Ticker: "NVDA", CorrectDirection: true},
	}}
	if r.CorrectCount() != 2 {
		t.Fatalf("expected 2 correct, got %d", r.CorrectCount())
	}
}
