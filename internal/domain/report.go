package domain

import "time"

// CurrentMetrics holds the single-run metric set, rounded to 3 decimals for
// external consumers.
type CurrentMetrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1Score   float64 `json:"f1_score"`
}

// HistoricalPerformance summarizes the running averages over every
// evaluation ever folded in, plus the weights currently in force.
type HistoricalPerformance struct {
	Metrics        map[string]float64 `json:"metrics"`
	SampleSize     int                `json:"sample_size"`
	CurrentWeights WeightTable        `json:"current_weights"`
}

// EvaluationReport is the externally consumed result object, exposed under
// an "evaluation" key for downstream reporting.
type EvaluationReport struct {
	PreviousDate          string                `json:"previous_date"`
	CurrentMetrics        CurrentMetrics        `json:"current_metrics"`
	HistoricalPerformance HistoricalPerformance `json:"historical_performance"`
	PredictionsEvaluated  int                   `json:"predictions_evaluated"`
	CorrectPredictions    int                   `json:"correct_predictions"`
}

// Mover is a ticker whose daily move met the significance threshold.
type Mover struct {
	Ticker    string  `json:"ticker"`
	PctChange float64 `json:"pct_change"`
	Close     float64 `json:"close"`
}

// MoverSummary splits a day's significant movers into gainers and losers,
// each sorted by magnitude, largest first.
type MoverSummary struct {
	Date         time.Time `json:"date"`
	Gainers      []Mover   `json:"gainers"`
	Losers       []Mover   `json:"losers"`
	TotalTracked int       `json:"total_tracked"`
}

// DailyRunResult summarizes one end-to-end daily cycle. Errors collects
// non-fatal failures; the run keeps going past them.
type DailyRunResult struct {
	RunAt             time.Time        `json:"run_at"`
	OutcomesCollected int              `json:"outcomes_collected"`
	Report            EvaluationReport `json:"report"`
	Movers            MoverSummary     `json:"movers"`
	BriefGenerated    bool             `json:"brief_generated"`
	Errors            []string         `json:"errors,omitempty"`
}

// Brief is a generated daily summary of the latest evaluation run.
type Brief struct {
	ID         int64     `json:"id"`
	BriefDate  time.Time `json:"brief_date"`
	Content    string    `json:"content"`
	Model      string    `json:"model"`
	ResultJSON string    `json:"-"`
	CreatedAt  time.Time `json:"created_at"`
}
