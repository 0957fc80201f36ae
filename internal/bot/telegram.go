package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"mover-brief/internal/domain"
	"mover-brief/internal/service"

	tele "gopkg.in/telebot.v3"
)

func StartTelegramBot(daily *service.DailyService) *TelegramNotifier {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/performance", func(c tele.Context) error {
		report, err := daily.LatestReport(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching performance: %v", err))
		}
		if report == nil {
			return c.Send("No evaluation has run yet.")
		}
		return c.Send(FormatReport(*report))
	})

	b.Handle("/weights", func(c tele.Context) error {
		table, err := daily.CurrentWeights(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching weights: %v", err))
		}
		return c.Send(FormatWeights(table))
	})

	b.Handle("/movers", func(c tele.Context) error {
		summary, err := daily.MoversFor(context.Background(), time.Now().UTC())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching movers: %v", err))
		}
		return c.Send(FormatMovers(summary))
	})

	b.Handle("/brief", func(c tele.Context) error {
		brief, err := daily.LatestBrief(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching brief: %v", err))
		}
		if brief == nil {
			return c.Send("No brief has been generated yet.")
		}
		return c.Send(brief.Content)
	})

	log.Println("Telegram bot started")
	go b.Start()

	return newNotifier(b)
}

// TelegramNotifier pushes generated briefs to the configured chat.
type TelegramNotifier struct {
	bot    *tele.Bot
	chatID int64
}

func newNotifier(b *tele.Bot) *TelegramNotifier {
	raw := os.Getenv("TELEGRAM_CHAT_ID")
	if raw == "" {
		log.Println("TELEGRAM_CHAT_ID not set, brief push disabled")
		return nil
	}
	chatID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("Warning: invalid TELEGRAM_CHAT_ID %q, brief push disabled", raw)
		return nil
	}
	return &TelegramNotifier{bot: b, chatID: chatID}
}

func (n *TelegramNotifier) SendBrief(ctx context.Context, brief domain.Brief) error {
	msg := fmt.Sprintf("Daily Brief (%s)\n\n%s", brief.BriefDate.Format("2006-01-02"), brief.Content)
	_, err := n.bot.Send(tele.ChatID(n.chatID), msg)
	return err
}

func FormatReport(report domain.EvaluationReport) string {
	var sb strings.Builder
	sb.WriteString("Prediction Performance\n")
	if report.PreviousDate != "" {
		sb.WriteString("Evaluated predictions from " + report.PreviousDate + "\n")
	}
	sb.WriteString(fmt.Sprintf("Correct: %d/%d\n", report.CorrectPredictions, report.PredictionsEvaluated))
	sb.WriteString(fmt.Sprintf("Accuracy: %.3f  Precision: %.3f\nRecall: %.3f  F1: %.3f\n",
		report.CurrentMetrics.Accuracy, report.CurrentMetrics.Precision,
		report.CurrentMetrics.Recall, report.CurrentMetrics.F1Score))
	if report.HistoricalPerformance.SampleSize > 0 {
		sb.WriteString(fmt.Sprintf("All-time accuracy: %.3f over %d runs",
			report.HistoricalPerformance.Metrics[domain.MetricAccuracy],
			report.HistoricalPerformance.SampleSize))
	}
	return sb.String()
}

func FormatWeights(table domain.WeightTable) string {
	var sb strings.Builder
	sb.WriteString("Category Weights\n")
	for _, cat := range domain.Categories {
		if w, ok := table[cat]; ok {
			sb.WriteString(fmt.Sprintf("%s: %.2f\n", cat, w))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func FormatMovers(summary domain.MoverSummary) string {
	if len(summary.Gainers) == 0 && len(summary.Losers) == 0 {
		return "No significant movers today."
	}
	var sb strings.Builder
	if len(summary.Gainers) > 0 {
		sb.WriteString("Gainers:\n")
		for _, m := range summary.Gainers {
			sb.WriteString(fmt.Sprintf("  %s %+.2f%% ($%.2f)\n", m.Ticker, m.PctChange, m.Close))
		}
	}
	if len(summary.Losers) > 0 {
		sb.WriteString("Losers:\n")
		for _, m := range summary.Losers {
			sb.WriteString(fmt.Sprintf("  %s %+.2f%% ($%.2f)\n", m.Ticker, m.PctChange, m.Close))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}
