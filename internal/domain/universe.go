package domain

// StooqSymbol maps internal tickers to Stooq daily-quote identifiers.
var StooqSymbol = map[string]string{
	"AAPL":  "aapl.us",
	"MSFT":  "msft.us",
	"GOOGL": "googl.us",
	"AMZN":  "amzn.us",
	"NVDA":  "nvda.us",
	"META":  "meta.us",
	"TSLA":  "tsla.us",
	"JPM":   "jpm.us",
	"V":     "v.us",
	"UNH":   "unh.us",
}

// DefaultUniverse lists the tracked tickers. False-negative detection
// runs over this full set, not just the predicted subset.
var DefaultUniverse = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "NVDA",
	"META", "TSLA", "JPM", "V", "UNH",
}
