// Package model defines the core domain types shared across the trading
// engine. All monetary values use shopspring/decimal — never float64 for
// money.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction types.
const (
	TxStockBuy   = "stock_buy"
	TxStockSell  = "stock_sell"
	TxDeposit    = "deposit"
	TxWithdrawal = "withdrawal"
)

// Transaction statuses.
const (
	TxPending   = "pending"
	TxCompleted = "completed"
	TxFailed    = "failed"
)

// Position is one holding in a user's portfolio: a symbol, a share count,
// and the volume-weighted average price paid per currently-held share.
// A position with zero shares is never stored — it is removed instead.
type Position struct {
	Symbol   string          `json:"symbol" db:"symbol"`
	Shares   int64           `json:"shares" db:"shares"`
	AvgPrice decimal.Decimal `json:"avg_price" db:"avg_price"`
}

// FundsAccount is the cash side of an account, split into the segments the
// funds view shows. A buy moves its cost out of TotalCash and
// AvailableToTrade and into MarginUsed; a sell is the exact inverse.
// Settlement never touches UnavailableToTrade (funds reserved for pending
// orders).
type FundsAccount struct {
	TotalCash          decimal.Decimal `json:"total_cash" db:"total_cash"`
	AvailableToTrade   decimal.Decimal `json:"available_to_trade" db:"available_to_trade"`
	MarginUsed         decimal.Decimal `json:"margin_used" db:"margin_used"`
	UnavailableToTrade decimal.Decimal `json:"unavailable_to_trade" db:"unavailable_to_trade"`
}

// Transaction is an immutable record of a cash or trade movement. Once
// created these are never modified; the transaction log is kept
// most-recent-first.
type Transaction struct {
	ID          string          `json:"id" db:"id"`
	UserID      string          `json:"user_id" db:"user_id"`
	Type        string          `json:"type" db:"type"`
	Amount      decimal.Decimal `json:"amount" db:"amount"`
	Status      string          `json:"status" db:"status"`
	Date        time.Time       `json:"date" db:"date"`
	Description string          `json:"description" db:"description"`
	StockSymbol string          `json:"stock_symbol,omitempty" db:"stock_symbol"`
	Quantity    int64           `json:"quantity,omitempty" db:"quantity"`
	Price       decimal.Decimal `json:"price,omitempty" db:"price"`
}

// PaymentMethod is a linked bank account or card. Exactly one method is
// the default whenever any methods exist.
type PaymentMethod struct {
	ID         string `json:"id" db:"id"`
	Type       string `json:"type" db:"type"` // "bank" or "card"
	Name       string `json:"name" db:"name"`
	LastFour   string `json:"last_four" db:"last_four"`
	IsDefault  bool   `json:"is_default" db:"is_default"`
	ExpiryDate string `json:"expiry_date,omitempty" db:"expiry_date"`
}

// Notification is a user-facing event message shown in the navbar bell.
type Notification struct {
	ID      string    `json:"id" db:"id"`
	Title   string    `json:"title" db:"title"`
	Message string    `json:"message" db:"message"`
	Read    bool      `json:"read" db:"read"`
	Date    time.Time `json:"date" db:"date"`
}

// Profile holds the display-only account fields. Distinct from the
// identity provider's own user record.
type Profile struct {
	UserID   string `json:"user_id" db:"user_id"`
	FullName string `json:"full_name" db:"full_name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone,omitempty" db:"phone"`
}

// PositionView is a portfolio position valued against the current quote.
type PositionView struct {
	Position
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	CurrentValue decimal.Decimal `json:"current_value"`
	GainLoss     decimal.Decimal `json:"gain_loss"`
	GainLossPct  decimal.Decimal `json:"gain_loss_pct"`
}

// PortfolioSummary aggregates a user's valued positions.
type PortfolioSummary struct {
	UserID        string          `json:"user_id"`
	Positions     []PositionView  `json:"positions"`
	TotalValue    decimal.Decimal `json:"total_value"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	TotalGainLoss decimal.Decimal `json:"total_gain_loss"`
	TotalGainPct  decimal.Decimal `json:"total_gain_pct"`
}
