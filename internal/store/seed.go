package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/model"
)

// Demo dataset seeded into every new account: a nine-stock portfolio, a
// funded cash account, two linked payment methods, and starter
// notifications.

func seedFunds() model.FundsAccount {
	return model.FundsAccount{
		TotalCash:          decimal.NewFromInt(10000),
		AvailableToTrade:   decimal.NewFromInt(8500),
		MarginUsed:         decimal.NewFromInt(1000),
		UnavailableToTrade: decimal.NewFromInt(500),
	}
}

func seedPositions() []model.Position {
	p := func(symbol string, shares int64, avgPrice string) model.Position {
		return model.Position{Symbol: symbol, Shares: shares, AvgPrice: decimal.RequireFromString(avgPrice)}
	}
	return []model.Position{
		p("AAPL", 15, "160.75"),
		p("MSFT", 10, "420.50"),
		p("GOOGL", 12, "140.25"),
		p("NVDA", 8, "850.30"),
		p("JPM", 20, "190.25"),
		p("TSLA", 25, "265.40"),
		p("AMZN", 18, "170.25"),
		p("META", 15, "460.30"),
		p("NFLX", 12, "620.40"),
	}
}

func seedPaymentMethods() []model.PaymentMethod {
	return []model.PaymentMethod{
		{ID: uuid.New().String(), Type: "bank", Name: "Chase Bank", LastFour: "4567", IsDefault: true},
		{ID: uuid.New().String(), Type: "card", Name: "Visa", LastFour: "8901", IsDefault: false, ExpiryDate: "12/25"},
	}
}

func seedNotifications() []model.Notification {
	now := time.Now().UTC()
	return []model.Notification{
		{
			ID:      uuid.New().String(),
			Title:   "Welcome to TradePro",
			Message: "Your demo account is funded and ready to trade.",
			Date:    now,
		},
		{
			ID:      uuid.New().String(),
			Title:   "Portfolio seeded",
			Message: "A starter portfolio of 9 stocks was added to your account.",
			Date:    now,
		},
	}
}
