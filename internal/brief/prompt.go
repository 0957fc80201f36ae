package brief

import (
	"fmt"
	"strings"
	"time"

	"mover-brief/internal/domain"
)

const writingGuidelines = `You are a market analyst writing a short daily brief about an automated stock-prediction system. Your role is to explain how yesterday's predictions performed, NOT to give investment advice.

Rules:
- Lead with the headline number: how many predictions were correct out of how many evaluated.
- Compare today's accuracy to the historical average and say whether the system is improving.
- Name the biggest gainers and losers of the day with their percent moves.
- Mention which prediction categories are currently weighted up or down and what that implies.
- Never fabricate data. If a figure is missing from the context, leave it out.
- Keep it under 200 words. Plain prose, no bullet lists, no headers.
- Do not add disclaimers. The reader knows this is informational.`

func BuildSystemPrompt() string {
	var sb strings.Builder
	sb.WriteString(writingGuidelines)
	sb.WriteString("\n\nToday is ")
	sb.WriteString(time.Now().UTC().Format("Monday, 2 January 2006"))
	sb.WriteString(".")
	return sb.String()
}

func FormatEvaluationContext(report domain.EvaluationReport, movers domain.MoverSummary) string {
	var sb strings.Builder

	sb.WriteString("Evaluation of predictions")
	if report.PreviousDate != "" {
		sb.WriteString(" made on " + report.PreviousDate)
	}
	sb.WriteString(":\n")
	sb.WriteString(fmt.Sprintf("  Correct: %d of %d evaluated\n",
		report.CorrectPredictions, report.PredictionsEvaluated))
	sb.WriteString(fmt.Sprintf("  Accuracy: %.3f, Precision: %.3f, Recall: %.3f, F1: %.3f\n",
		report.CurrentMetrics.Accuracy, report.CurrentMetrics.Precision,
		report.CurrentMetrics.Recall, report.CurrentMetrics.F1Score))

	if report.HistoricalPerformance.SampleSize > 0 {
		sb.WriteString(fmt.Sprintf("\nHistorical averages over %d runs:\n",
			report.HistoricalPerformance.SampleSize))
		for _, name := range domain.MetricNames {
			if v, ok := report.HistoricalPerformance.Metrics[name]; ok {
				sb.WriteString(fmt.Sprintf("  %s: %.3f\n", name, v))
			}
		}
	}

	if len(report.HistoricalPerformance.CurrentWeights) > 0 {
		sb.WriteString("\nCategory weights in force:\n")
		for _, cat := range domain.Categories {
			if w, ok := report.HistoricalPerformance.CurrentWeights[cat]; ok {
				sb.WriteString(fmt.Sprintf("  %s: %.2f\n", cat, w))
			}
		}
	}

	if len(movers.Gainers) > 0 {
		sb.WriteString("\nTop gainers:\n")
		for _, m := range movers.Gainers {
			sb.WriteString(fmt.Sprintf("  %s %+.2f%% (close $%.2f)\n", m.Ticker, m.PctChange, m.Close))
		}
	}
	if len(movers.Losers) > 0 {
		sb.WriteString("\nTop losers:\n")
		for _, m := range movers.Losers {
			sb.WriteString(fmt.Sprintf("  %s %+.2f%% (close $%.2f)\n", m.Ticker, m.PctChange, m.Close))
		}
	}
	if len(movers.Gainers) == 0 && len(movers.Losers) == 0 {
		sb.WriteString("\nNo significant movers today.\n")
	}

	return sb.String()
}
