// Package ledger implements trade settlement and portfolio accounting as
// pure functions over snapshots: given a request and the current funds and
// position set, it returns the records as they should be after the
// operation, or a validation error with nothing changed. Persistence is
// the caller's concern; the store commits all returned records as a unit.
//
// All monetary values use shopspring/decimal — never float64 for money.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/model"
)

var (
	// ErrInsufficientFunds is returned when a buy's total cost exceeds the
	// available-to-trade balance, or a withdrawal exceeds it.
	ErrInsufficientFunds = errors.New("ledger: insufficient funds available for trading")

	// ErrInsufficientShares is returned when a sell asks for more shares
	// than the position holds, or the position does not exist.
	ErrInsufficientShares = errors.New("ledger: insufficient shares available to sell")

	// ErrInvalidQuantity is returned for a non-positive share quantity.
	ErrInvalidQuantity = errors.New("ledger: quantity must be a positive integer")

	// ErrInvalidAmount is returned for a non-positive cash transfer amount.
	ErrInvalidAmount = errors.New("ledger: amount must be positive")
)

// Side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Valid reports whether s is a known trade side.
func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// Settlement is the result of applying one trade to an account: the funds,
// the full position set, and the transaction to append. The three change
// together or not at all.
type Settlement struct {
	Funds       model.FundsAccount
	Positions   []model.Position
	Transaction model.Transaction
}

// Settle applies a buy or sell of quantity shares at the given market
// price to the funds and position snapshots. Inputs are not mutated.
//
// Buy: total cost must not exceed funds.AvailableToTrade. The position's
// average price becomes the volume-weighted average of the old lot and the
// new one; a first buy inserts the position at the market price. Cost
// moves out of TotalCash and AvailableToTrade and into MarginUsed.
//
// Sell: the position must hold at least quantity shares. A partial sale
// keeps the average price unchanged; selling the full position removes it.
// Funds move the inverse of a buy. UnavailableToTrade is never touched.
func Settle(userID, symbol string, side Side, quantity int64, price decimal.Decimal, funds model.FundsAccount, positions []model.Position) (Settlement, error) {
	if quantity <= 0 {
		return Settlement{}, ErrInvalidQuantity
	}

	totalCost := price.Mul(decimal.NewFromInt(quantity))

	switch side {
	case SideBuy:
		if totalCost.GreaterThan(funds.AvailableToTrade) {
			return Settlement{}, ErrInsufficientFunds
		}
	case SideSell:
		held := findPosition(positions, symbol)
		if held == nil || held.Shares < quantity {
			return Settlement{}, ErrInsufficientShares
		}
	default:
		return Settlement{}, fmt.Errorf("ledger: unknown side %q", side)
	}

	out := Settlement{
		Positions: applyPosition(positions, symbol, side, quantity, price),
	}

	if side == SideBuy {
		out.Funds = model.FundsAccount{
			TotalCash:          funds.TotalCash.Sub(totalCost),
			AvailableToTrade:   funds.AvailableToTrade.Sub(totalCost),
			MarginUsed:         funds.MarginUsed.Add(totalCost),
			UnavailableToTrade: funds.UnavailableToTrade,
		}
	} else {
		out.Funds = model.FundsAccount{
			TotalCash:          funds.TotalCash.Add(totalCost),
			AvailableToTrade:   funds.AvailableToTrade.Add(totalCost),
			MarginUsed:         funds.MarginUsed.Sub(totalCost),
			UnavailableToTrade: funds.UnavailableToTrade,
		}
	}

	txType := model.TxStockBuy
	verb := "Bought"
	if side == SideSell {
		txType = model.TxStockSell
		verb = "Sold"
	}
	out.Transaction = model.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		Amount:      totalCost,
		Status:      model.TxCompleted,
		Date:        time.Now().UTC(),
		Description: fmt.Sprintf("%s %d shares of %s at $%s", verb, quantity, symbol, price.StringFixed(2)),
		StockSymbol: symbol,
		Quantity:    quantity,
		Price:       price,
	}

	return out, nil
}

// Transfer is the result of a deposit or withdrawal: new funds plus the
// transaction to append.
type Transfer struct {
	Funds       model.FundsAccount
	Transaction model.Transaction
}

// Deposit adds amount to TotalCash and AvailableToTrade.
func Deposit(userID string, amount decimal.Decimal, funds model.FundsAccount) (Transfer, error) {
	if !amount.IsPositive() {
		return Transfer{}, ErrInvalidAmount
	}
	funds.TotalCash = funds.TotalCash.Add(amount)
	funds.AvailableToTrade = funds.AvailableToTrade.Add(amount)
	return Transfer{
		Funds:       funds,
		Transaction: cashTransaction(userID, model.TxDeposit, "Deposited", amount),
	}, nil
}

// Withdraw removes amount from TotalCash and AvailableToTrade. A
// withdrawal may not exceed the available-to-trade balance; margin and
// reserved segments are untouchable.
func Withdraw(userID string, amount decimal.Decimal, funds model.FundsAccount) (Transfer, error) {
	if !amount.IsPositive() {
		return Transfer{}, ErrInvalidAmount
	}
	if amount.GreaterThan(funds.AvailableToTrade) {
		return Transfer{}, ErrInsufficientFunds
	}
	funds.TotalCash = funds.TotalCash.Sub(amount)
	funds.AvailableToTrade = funds.AvailableToTrade.Sub(amount)
	return Transfer{
		Funds:       funds,
		Transaction: cashTransaction(userID, model.TxWithdrawal, "Withdrew", amount),
	}, nil
}

func cashTransaction(userID, txType, verb string, amount decimal.Decimal) model.Transaction {
	return model.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        txType,
		Amount:      amount,
		Status:      model.TxCompleted,
		Date:        time.Now().UTC(),
		Description: fmt.Sprintf("%s $%s", verb, amount.StringFixed(2)),
	}
}

// applyPosition returns a new position slice with the trade applied.
// Insertion order is preserved; a position sold down to zero shares is
// removed, never retained.
func applyPosition(positions []model.Position, symbol string, side Side, quantity int64, price decimal.Decimal) []model.Position {
	out := make([]model.Position, 0, len(positions)+1)

	if side == SideBuy {
		merged := false
		for _, p := range positions {
			if p.Symbol == symbol {
				newShares := p.Shares + quantity
				// Volume-weighted average cost across the two lots.
				oldCost := p.AvgPrice.Mul(decimal.NewFromInt(p.Shares))
				newCost := price.Mul(decimal.NewFromInt(quantity))
				p.AvgPrice = oldCost.Add(newCost).Div(decimal.NewFromInt(newShares))
				p.Shares = newShares
				merged = true
			}
			out = append(out, p)
		}
		if !merged {
			out = append(out, model.Position{Symbol: symbol, Shares: quantity, AvgPrice: price})
		}
		return out
	}

	for _, p := range positions {
		if p.Symbol == symbol {
			remaining := p.Shares - quantity
			if remaining == 0 {
				continue
			}
			// Cost basis is not recomputed on a partial sale.
			p.Shares = remaining
		}
		out = append(out, p)
	}
	return out
}

func findPosition(positions []model.Position, symbol string) *model.Position {
	for i := range positions {
		if positions[i].Symbol == symbol {
			return &positions[i]
		}
	}
	return nil
}
