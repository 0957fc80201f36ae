package domain

import "time"

type MoveDirection string

const (
	DirectionUp   MoveDirection = "up"
	DirectionDown MoveDirection = "down"
)

// Sign returns +1 for up and -1 for down.
func (d MoveDirection) Sign() float64 {
	if d == DirectionDown {
		return -1
	}
	return 1
}

func (d MoveDirection) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Category is the attributed cause of a predicted move. It is a closed set:
// anything the classifier emits outside the known three maps to CategoryUnknown.
type Category string

const (
	CategoryEarnings Category = "earnings"
	CategoryMacro    Category = "macro"
	CategoryNews     Category = "news"
	CategoryUnknown  Category = "unknown"
)

// Categories lists all variants in a fixed order, used wherever a
// deterministic iteration order matters.
var Categories = []Category{CategoryEarnings, CategoryMacro, CategoryNews, CategoryUnknown}

// ParseCategory normalizes a raw classifier label into a known variant.
func ParseCategory(raw string) Category {
	switch Category(raw) {
	case CategoryEarnings:
		return CategoryEarnings
	case CategoryMacro:
		return CategoryMacro
	case CategoryNews:
		return CategoryNews
	default:
		return CategoryUnknown
	}
}

// Prediction is one ticker's predicted move for a trading day, produced by the
// upstream classifier. Immutable once written; the next day's set supersedes it.
type Prediction struct {
	Ticker             string        `json:"ticker"`
	PredictedDirection MoveDirection `json:"predicted_direction"`
	PredictedMagnitude float64       `json:"predicted_magnitude"`
	Category           Category      `json:"category"`
	AsOfDate           time.Time     `json:"as_of_date"`
}

// PredictionSnapshot is one day's full prediction set. A nil snapshot means
// the classifier has not produced anything yet (the Day-1 baseline case),
// which is distinct from a snapshot with zero predictions.
type PredictionSnapshot struct {
	AsOfDate    time.Time    `json:"as_of_date"`
	Predictions []Prediction `json:"predictions"`
}

// ActualOutcome is the observed daily move for one ticker, supplied by the
// market data collaborator.
type ActualOutcome struct {
	Ticker          string    `json:"ticker"`
	Close           float64   `json:"close"`
	ActualPctChange float64   `json:"actual_pct_change"`
	ObservedDate    time.Time `json:"observed_date"`
}

// MatchedPair joins a prediction with its realized outcome. Derived and
// transient, recomputed on every evaluation run.
type MatchedPair struct {
	Ticker           string        `json:"ticker"`
	Prediction       Prediction    `json:"prediction"`
	Outcome          ActualOutcome `json:"outcome"`
	SignificantMove  bool          `json:"significant_move"`
	PredictedCorrect bool          `json:"predicted_correct"`
}

// MatchDetail is the per-ticker explanation carried inside an EvaluationResult.
type MatchDetail struct {
	Ticker           string   `json:"ticker"`
	PredictedMove    float64  `json:"predicted_move"`
	ActualMove       float64  `json:"actual_move"`
	Category         Category `json:"category"`
	SignificantMove  bool     `json:"significant_move"`
	CorrectDirection bool     `json:"correct_direction"`
}

// EvaluationResult is one evaluation run's confusion counts and derived
// metrics. Immutable after creation; appended to the history store.
type EvaluationResult struct {
	Timestamp      time.Time     `json:"timestamp"`
	PreviousDate   time.Time     `json:"previous_date"`
	TruePositives  int           `json:"true_positives"`
	FalsePositives int           `json:"false_positives"`
	FalseNegatives int           `json:"false_negatives"`
	Accuracy       float64       `json:"accuracy"`
	Precision      float64       `json:"precision"`
	Recall         float64       `json:"recall"`
	F1Score        float64       `json:"f1_score"`
	Details        []MatchDetail `json:"details"`
}

// CorrectCount returns the number of details with the correct direction call.
func (r EvaluationResult) CorrectCount() int {
	n := 0
	for _, d := range r.Details {
		if d.CorrectDirection {
			n++
		}
	}
	return n
}

// RunningAverage is an incrementally updated mean. Count is the number of
// observations ever folded in, not bounded by any display window.
type RunningAverage struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Add folds one observation into the mean.
func (a RunningAverage) Add(v float64) RunningAverage {
	return RunningAverage{
		Value: a.Value + (v-a.Value)/float64(a.Count+1),
		Count: a.Count + 1,
	}
}

// Metric names used as keys in the running-average summary.
const (
	MetricAccuracy  = "accuracy"
	MetricPrecision = "precision"
	MetricRecall    = "recall"
	MetricF1Score   = "f1_score"
)

// MetricNames lists the tracked metrics in a fixed order.
var MetricNames = []string{MetricAccuracy, MetricPrecision, MetricRecall, MetricF1Score}

// WeightTable maps a category to the confidence weight the upstream
// classifier applies to it. Every weight stays within [0.1, 2.0].
type WeightTable map[Category]float64

const (
	WeightMin = 0.1
	WeightMax = 2.0
)

// DefaultWeights returns the initial weight table.
func DefaultWeights() WeightTable {
	return WeightTable{
		CategoryEarnings: 1.0,
		CategoryMacro:    1.0,
		CategoryNews:     1.0,
		CategoryUnknown:  0.5,
	}
}

// Clone returns an independent copy.
func (w WeightTable) Clone() WeightTable {
	out := make(WeightTable, len(w))
	for k, v := range w {
		out[k] = v
	}
	return out
}
