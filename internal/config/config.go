package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	DatabaseURL      string
	RedisURL         string
	TelegramBotToken string
	TelegramChatID   int64
	APIKey           string

	OpenAIAPIKey string
	OpenAIModel  string

	EvalHourUTC      int
	MoveThresholdPct float64
	LearningRate     float64
	HistoryDir       string
	HistoryWindow    int

	Tickers []string

	PricePollSecs int
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		RedisURL:         os.Getenv("REDIS_URL"),
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		APIKey:           os.Getenv("API_KEY"),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}
	if cfg.TelegramBotToken == "" {
		log.Println("Warning: TELEGRAM_BOT_TOKEN not set, Telegram delivery disabled")
	}

	if v := strings.TrimSpace(os.Getenv("TELEGRAM_CHAT_ID")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.TelegramChatID = n
		} else {
			log.Printf("Warning: invalid TELEGRAM_CHAT_ID %q, push delivery disabled", v)
		}
	}

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		log.Println("Warning: OPENAI_API_KEY not set, daily brief generation disabled")
	}

	cfg.OpenAIModel = strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = "gpt-4o-mini"
	}

	cfg.EvalHourUTC = 21
	if v := strings.TrimSpace(os.Getenv("EVAL_HOUR_UTC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			cfg.EvalHourUTC = n
		}
	}

	cfg.MoveThresholdPct = 1.0
	if v := strings.TrimSpace(os.Getenv("EVAL_MOVE_THRESHOLD")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 {
			cfg.MoveThresholdPct = n
		}
	}

	cfg.LearningRate = 0.1
	if v := strings.TrimSpace(os.Getenv("EVAL_LEARNING_RATE")); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil && n > 0 && n < 1 {
			cfg.LearningRate = n
		}
	}

	cfg.HistoryDir = strings.TrimSpace(os.Getenv("EVAL_HISTORY_DIR"))
	if cfg.HistoryDir == "" {
		cfg.HistoryDir = "data"
	}

	cfg.HistoryWindow = 100
	if v := strings.TrimSpace(os.Getenv("EVAL_HISTORY_WINDOW")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.HistoryWindow = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TICKER_UNIVERSE")); v != "" {
		for _, t := range strings.Split(v, ",") {
			t = strings.ToUpper(strings.TrimSpace(t))
			if t != "" {
				cfg.Tickers = append(cfg.Tickers, t)
			}
		}
	}

	cfg.PricePollSecs = 900
	if v := strings.TrimSpace(os.Getenv("PRICE_POLL_SECS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PricePollSecs = n
		}
	}

	return cfg
}
