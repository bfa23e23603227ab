// Package market provides the static quote catalog and the synthetic
// chart-series generator. There is no live feed or order book behind it:
// prices are fixed demo quotes and chart data is a random walk generated
// fresh on every call.
package market

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol is returned when a symbol is not in the catalog.
var ErrUnknownSymbol = errors.New("market: unknown symbol")

// Quote is one catalog entry.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	PercentChange decimal.Decimal `json:"percent_change"`
	Sector        string          `json:"sector"`
}

func q(symbol, name, price, change, sector string) Quote {
	return Quote{
		Symbol:        symbol,
		Name:          name,
		Price:         decimal.RequireFromString(price),
		PercentChange: decimal.RequireFromString(change),
		Sector:        sector,
	}
}

var catalog = []Quote{
	q("AAPL", "Apple Inc.", "173.50", "2.5", "Technology"),
	q("MSFT", "Microsoft Corporation", "415.30", "1.8", "Technology"),
	q("GOOGL", "Alphabet Inc.", "147.60", "1.5", "Technology"),
	q("AMZN", "Amazon.com Inc.", "178.90", "0.9", "Technology"),
	q("NVDA", "NVIDIA Corporation", "875.30", "4.1", "Technology"),
	q("META", "Meta Platforms Inc.", "485.90", "3.2", "Technology"),
	q("TSLA", "Tesla Inc.", "245.20", "-1.2", "Technology"),
	q("AMD", "Advanced Micro Devices", "178.40", "-0.8", "Technology"),
	q("INTC", "Intel Corporation", "43.75", "1.2", "Technology"),
	q("CRM", "Salesforce Inc.", "298.50", "2.1", "Technology"),
	q("ADBE", "Adobe Inc.", "572.80", "1.7", "Technology"),
	q("CSCO", "Cisco Systems Inc.", "49.85", "-0.3", "Technology"),
	q("ORCL", "Oracle Corporation", "125.90", "0.8", "Technology"),
	q("IBM", "IBM Corporation", "188.25", "1.1", "Technology"),
	q("QCOM", "Qualcomm Inc.", "167.40", "-0.5", "Technology"),

	q("NFLX", "Netflix Inc.", "605.70", "2.3", "Communication Services"),
	q("DIS", "Walt Disney Co.", "111.20", "-0.5", "Communication Services"),
	q("CMCSA", "Comcast Corporation", "42.85", "0.7", "Communication Services"),
	q("VZ", "Verizon Communications", "39.95", "-0.2", "Communication Services"),
	q("T", "AT&T Inc.", "17.25", "0.4", "Communication Services"),

	q("JPM", "JPMorgan Chase & Co.", "185.40", "1.4", "Financial Services"),
	q("BAC", "Bank of America Corp.", "35.75", "-0.6", "Financial Services"),
	q("WFC", "Wells Fargo & Co.", "57.80", "0.9", "Financial Services"),
	q("V", "Visa Inc.", "278.90", "1.6", "Financial Services"),
	q("MA", "Mastercard Inc.", "475.60", "2.1", "Financial Services"),
	q("GS", "Goldman Sachs Group", "385.70", "1.8", "Financial Services"),
	q("MS", "Morgan Stanley", "87.90", "-0.4", "Financial Services"),
	q("BLK", "BlackRock Inc.", "815.30", "2.2", "Financial Services"),
	q("C", "Citigroup Inc.", "57.85", "-0.7", "Financial Services"),
	q("AXP", "American Express Co.", "218.40", "1.5", "Financial Services"),

	q("JNJ", "Johnson & Johnson", "157.90", "0.6", "Healthcare"),
	q("UNH", "UnitedHealth Group", "492.75", "1.9", "Healthcare"),
	q("PFE", "Pfizer Inc.", "27.85", "-1.1", "Healthcare"),
	q("ABBV", "AbbVie Inc.", "178.90", "2.4", "Healthcare"),
	q("MRK", "Merck & Co.", "125.80", "1.2", "Healthcare"),
	q("LLY", "Eli Lilly and Co.", "768.90", "3.1", "Healthcare"),
	q("TMO", "Thermo Fisher Scientific", "598.40", "1.7", "Healthcare"),
	q("ABT", "Abbott Laboratories", "112.30", "-0.3", "Healthcare"),
	q("DHR", "Danaher Corporation", "248.90", "0.9", "Healthcare"),
	q("BMY", "Bristol-Myers Squibb", "52.40", "-0.8", "Healthcare"),

	q("PG", "Procter & Gamble", "158.90", "0.7", "Consumer Goods"),
	q("KO", "Coca-Cola Company", "59.85", "0.5", "Consumer Goods"),
	q("PEP", "PepsiCo Inc.", "168.75", "0.8", "Consumer Goods"),
	q("COST", "Costco Wholesale", "725.90", "2.6", "Consumer Goods"),
	q("WMT", "Walmart Inc.", "175.80", "1.3", "Consumer Goods"),
	q("NKE", "Nike Inc.", "98.90", "-0.9", "Consumer Goods"),
	q("MCD", "McDonald's Corp.", "295.40", "1.1", "Consumer Goods"),
	q("SBUX", "Starbucks Corp.", "92.75", "-0.4", "Consumer Goods"),
	q("HD", "Home Depot Inc.", "378.90", "1.8", "Consumer Goods"),
	q("TGT", "Target Corporation", "168.40", "-0.6", "Consumer Goods"),

	q("BA", "Boeing Company", "198.75", "1.4", "Industrial"),
	q("CAT", "Caterpillar Inc.", "345.90", "2.2", "Industrial"),
	q("GE", "General Electric", "175.80", "1.9", "Industrial"),
	q("HON", "Honeywell International", "198.40", "0.8", "Industrial"),
	q("UPS", "United Parcel Service", "148.90", "-0.5", "Industrial"),
	q("MMM", "3M Company", "92.40", "-1.1", "Industrial"),
	q("LMT", "Lockheed Martin", "438.90", "1.6", "Industrial"),
	q("RTX", "RTX Corporation", "92.75", "0.7", "Industrial"),
	q("DE", "Deere & Company", "385.90", "2.1", "Industrial"),
	q("FDX", "FedEx Corporation", "248.75", "1.2", "Industrial"),

	q("XOM", "Exxon Mobil Corp.", "108.90", "1.5", "Energy"),
	q("CVX", "Chevron Corporation", "152.40", "1.8", "Energy"),
	q("COP", "ConocoPhillips", "115.80", "2.1", "Energy"),
	q("SLB", "Schlumberger NV", "52.90", "1.2", "Energy"),
	q("EOG", "EOG Resources", "118.75", "1.7", "Energy"),

	q("AMT", "American Tower Corp.", "192.40", "0.9", "Real Estate"),
	q("PLD", "Prologis Inc.", "128.90", "1.1", "Real Estate"),
	q("CCI", "Crown Castle Inc.", "105.80", "-0.7", "Real Estate"),
	q("EQIX", "Equinix Inc.", "785.90", "2.3", "Real Estate"),
	q("SPG", "Simon Property Group", "148.75", "1.4", "Real Estate"),

	q("LIN", "Linde plc", "448.90", "1.9", "Materials"),
	q("APD", "Air Products", "238.75", "1.2", "Materials"),
	q("ECL", "Ecolab Inc.", "218.90", "1.5", "Materials"),
	q("SHW", "Sherwin-Williams", "328.40", "1.7", "Materials"),
	q("FCX", "Freeport-McMoRan", "42.90", "2.4", "Materials"),

	q("NEE", "NextEra Energy", "58.90", "0.6", "Utilities"),
	q("DUK", "Duke Energy", "94.75", "0.4", "Utilities"),
	q("SO", "Southern Company", "68.90", "0.5", "Utilities"),
	q("D", "Dominion Energy", "47.80", "-0.3", "Utilities"),
	q("AEP", "American Electric Power", "82.90", "0.7", "Utilities"),

	q("ZM", "Zoom Video Communications", "68.90", "-1.2", "Technology"),
	q("SNOW", "Snowflake Inc.", "188.75", "2.8", "Technology"),
	q("PLTR", "Palantir Technologies", "24.90", "3.4", "Technology"),
	q("NET", "Cloudflare Inc.", "98.40", "2.9", "Technology"),
	q("CRWD", "CrowdStrike Holdings", "318.90", "3.6", "Technology"),
	q("DDOG", "Datadog Inc.", "128.75", "2.7", "Technology"),
	q("TEAM", "Atlassian Corporation", "198.90", "1.9", "Technology"),
	q("OKTA", "Okta Inc.", "92.40", "-0.8", "Technology"),
	q("TTD", "The Trade Desk", "85.90", "2.2", "Technology"),
	q("U", "Unity Software", "32.75", "-1.4", "Technology"),

	q("SQ", "Block Inc.", "78.90", "2.8", "Technology"),
	q("SHOP", "Shopify Inc.", "78.75", "3.1", "Technology"),
	q("PYPL", "PayPal Holdings", "62.90", "-0.9", "Technology"),
	q("ABNB", "Airbnb Inc.", "158.40", "1.8", "Technology"),
	q("UBER", "Uber Technologies", "75.90", "2.4", "Technology"),

	q("AI", "C3.ai Inc.", "28.90", "4.2", "Technology"),
	q("PATH", "UiPath Inc.", "22.75", "1.8", "Technology"),
	q("GTLB", "GitLab Inc.", "68.90", "2.9", "Technology"),
	q("CFLT", "Confluent Inc.", "32.40", "1.7", "Technology"),
	q("MDB", "MongoDB Inc.", "428.90", "3.2", "Technology"),
}

// List returns all catalog quotes, optionally filtered by a
// case-insensitive substring match on symbol or name.
func List(search string) []Quote {
	if search == "" {
		out := make([]Quote, len(catalog))
		copy(out, catalog)
		return out
	}
	needle := strings.ToLower(search)
	out := make([]Quote, 0)
	for _, quote := range catalog {
		if strings.Contains(strings.ToLower(quote.Symbol), needle) ||
			strings.Contains(strings.ToLower(quote.Name), needle) {
			out = append(out, quote)
		}
	}
	return out
}

// Lookup returns the quote for symbol.
func Lookup(symbol string) (Quote, error) {
	for _, quote := range catalog {
		if quote.Symbol == symbol {
			return quote, nil
		}
	}
	return Quote{}, ErrUnknownSymbol
}
