package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/model"
)

var hundred = decimal.NewFromInt(100)

// Value returns the current market value of shares at price.
func Value(shares int64, price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares))
}

// Gain returns the unrealized gain or loss of a lot: (price - avgPrice) * shares.
func Gain(shares int64, avgPrice, price decimal.Decimal) decimal.Decimal {
	return price.Sub(avgPrice).Mul(decimal.NewFromInt(shares))
}

// GainPercent returns the unrealized gain as a percentage of cost.
// Zero when the cost basis is zero, never NaN or an error.
func GainPercent(avgPrice, price decimal.Decimal) decimal.Decimal {
	if avgPrice.IsZero() {
		return decimal.Zero
	}
	return price.Sub(avgPrice).Div(avgPrice).Mul(hundred)
}

// QuoteFunc resolves a symbol to its current market price and display
// name. Positions whose symbol cannot be resolved are valued at their
// cost basis (no gain, no loss) rather than dropped.
type QuoteFunc func(symbol string) (name string, price decimal.Decimal, ok bool)

// Summarize values every position against current quotes and aggregates
// totals. The aggregate gain percentage is defined as zero when the
// aggregate cost basis is zero.
func Summarize(userID string, positions []model.Position, quote QuoteFunc) model.PortfolioSummary {
	s := model.PortfolioSummary{
		UserID:    userID,
		Positions: make([]model.PositionView, 0, len(positions)),
	}

	for _, p := range positions {
		name, price, ok := quote(p.Symbol)
		if !ok {
			name, price = p.Symbol, p.AvgPrice
		}
		v := model.PositionView{
			Position:     p,
			Name:         name,
			Price:        price,
			CurrentValue: Value(p.Shares, price),
			GainLoss:     Gain(p.Shares, p.AvgPrice, price),
			GainLossPct:  GainPercent(p.AvgPrice, price),
		}
		s.Positions = append(s.Positions, v)
		s.TotalValue = s.TotalValue.Add(v.CurrentValue)
		s.TotalCost = s.TotalCost.Add(Value(p.Shares, p.AvgPrice))
		s.TotalGainLoss = s.TotalGainLoss.Add(v.GainLoss)
	}

	if s.TotalCost.IsPositive() {
		s.TotalGainPct = s.TotalGainLoss.Div(s.TotalCost).Mul(hundred)
	}
	return s
}
