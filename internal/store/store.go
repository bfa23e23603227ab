// Package store defines the persistence interface for account state.
// Implementations include PostgreSQL (source of truth), Redis (read-through
// cache), and in-memory (for testing and dev mode).
package store

import (
	"context"
	"errors"

	"github.com/tradepro/trading-engine/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("store: not found")

// Store is the persistence interface. Each user owns one funds account,
// one position set, an append-only transaction log (most-recent-first),
// payment methods, notifications, and a profile.
//
// CommitSettlement and CommitTransfer are the only write paths for funds,
// positions, and transactions, and each applies its records atomically:
// either every record in the call is persisted or none is.
type Store interface {
	// EnsureAccount seeds the demo dataset for a user on first touch.
	// Subsequent calls are no-ops.
	EnsureAccount(ctx context.Context, userID string) error

	// --- Ledger records ---

	GetFunds(ctx context.Context, userID string) (model.FundsAccount, error)
	GetPositions(ctx context.Context, userID string) ([]model.Position, error)

	// ListTransactions returns up to limit transactions, newest first.
	// limit <= 0 means no limit.
	ListTransactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error)

	// DeleteTransaction removes one log entry. This serves the account
	// settings surface only; settlement itself never deletes.
	DeleteTransaction(ctx context.Context, userID, id string) error

	// CommitSettlement atomically replaces the funds account and position
	// set and prepends the trade transaction.
	CommitSettlement(ctx context.Context, userID string, funds model.FundsAccount, positions []model.Position, txn model.Transaction) error

	// CommitTransfer atomically replaces the funds account and prepends
	// the deposit/withdrawal transaction.
	CommitTransfer(ctx context.Context, userID string, funds model.FundsAccount, txn model.Transaction) error

	// --- Payment methods ---

	ListPaymentMethods(ctx context.Context, userID string) ([]model.PaymentMethod, error)

	// AddPaymentMethod appends a method. The first method a user adds
	// becomes the default.
	AddPaymentMethod(ctx context.Context, userID string, m model.PaymentMethod) error

	// DeletePaymentMethod removes a method. If it was the default, the
	// first remaining method is promoted.
	DeletePaymentMethod(ctx context.Context, userID, id string) error

	// SetDefaultPaymentMethod makes the given method the single default.
	SetDefaultPaymentMethod(ctx context.Context, userID, id string) error

	// --- Notifications ---

	ListNotifications(ctx context.Context, userID string) ([]model.Notification, error)
	AddNotification(ctx context.Context, userID string, n model.Notification) error
	MarkNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, userID, id string) error

	// --- Profile ---

	GetProfile(ctx context.Context, userID string) (model.Profile, error)
	SaveProfile(ctx context.Context, userID string, p model.Profile) error
}
