package provider

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mover-brief/internal/domain"

	"go.opentelemetry.io/otel/trace"
)

const stooqBaseURL = "https://stooq.com"

// StooqProvider fetches end-of-day equity prices from the Stooq free CSV API.
type StooqProvider struct {
	client  *http.Client
	baseURL string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewStooqProvider creates a new provider with built-in rate limiting.
// Rate limited to 10 requests per minute (one token every 6 seconds).
func NewStooqProvider(tracer trace.Tracer) *StooqProvider {
	return &StooqProvider{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: stooqBaseURL,
		tracer:  tracer,
		limiter: NewRateLimiter(10, 6*time.Second),
	}
}

// dailyBar is one row of Stooq's daily history CSV.
type dailyBar struct {
	date  time.Time
	close float64
}

// FetchOutcomes fetches each ticker's two most recent daily closes and
// derives the percent change. Tickers with insufficient history are skipped
// rather than failing the whole batch.
func (p *StooqProvider) FetchOutcomes(ctx context.Context, tickers []string) ([]domain.ActualOutcome, error) {
	_, span := p.tracer.Start(ctx, "stooq.fetch-outcomes")
	defer span.End()

	var outcomes []domain.ActualOutcome
	var lastErr error
	for _, ticker := range tickers {
		bars, err := p.fetchDailyBars(ctx, ticker, 2)
		if err != nil {
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			lastErr = err
			continue
		}
		if len(bars) < 2 {
			continue
		}
		prev, last := bars[len(bars)-2], bars[len(bars)-1]
		if prev.close == 0 {
			continue
		}
		outcomes = append(outcomes, domain.ActualOutcome{
			Ticker:          ticker,
			Close:           last.close,
			ActualPctChange: (last.close - prev.close) / prev.close * 100,
			ObservedDate:    last.date,
		})
	}

	if len(outcomes) == 0 && lastErr != nil {
		return nil, fmt.Errorf("fetch outcomes: %w", lastErr)
	}
	return outcomes, nil
}

// fetchDailyBars returns the most recent n daily bars for a ticker,
// oldest first.
func (p *StooqProvider) fetchDailyBars(ctx context.Context, ticker string, n int) ([]dailyBar, error) {
	symbol, ok := domain.StooqSymbol[ticker]
	if !ok {
		symbol = strings.ToLower(ticker) + ".us"
	}

	url := fmt.Sprintf("%s/q/d/l/?s=%s&i=d", p.baseURL, symbol)

	body, err := p.doRequest(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch daily bars for %s: %w", ticker, err)
	}

	bars, err := parseDailyCSV(body)
	if err != nil {
		return nil, fmt.Errorf("parse daily bars for %s: %w", ticker, err)
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	return bars, nil
}

func (p *StooqProvider) doRequest(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stooq API error %d: %s", resp.StatusCode, string(body))
	}

	return io.ReadAll(resp.Body)
}

// parseDailyCSV parses Stooq's Date,Open,High,Low,Close,Volume history CSV.
// Rows with unparseable dates or closes are skipped.
func parseDailyCSV(body []byte) ([]dailyBar, error) {
	reader := csv.NewReader(strings.NewReader(string(body)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	var bars []dailyBar
	for _, rec := range records[1:] {
		if len(rec) < 5 {
			continue
		}
		date, err := time.Parse("2006-01-02", rec[0])
		if err != nil {
			continue
		}
		close, err := strconv.ParseFloat(rec[4], 64)
		if err != nil {
			continue
		}
		bars = append(bars, dailyBar{date: date.UTC(), close: close})
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("no parseable rows")
	}
	return bars, nil
}
