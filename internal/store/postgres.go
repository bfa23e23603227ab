package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of truth.
// All monetary values are stored as NUMERIC for exact decimal precision.
// Settlement and transfer commits run inside a single transaction so the
// funds, position, and transaction records change together or not at all.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const schema = `
CREATE TABLE IF NOT EXISTS funds (
	user_id              TEXT PRIMARY KEY,
	total_cash           NUMERIC NOT NULL,
	available_to_trade   NUMERIC NOT NULL,
	margin_used          NUMERIC NOT NULL,
	unavailable_to_trade NUMERIC NOT NULL
);
CREATE TABLE IF NOT EXISTS positions (
	user_id   TEXT NOT NULL,
	idx       INT NOT NULL,
	symbol    TEXT NOT NULL,
	shares    BIGINT NOT NULL,
	avg_price NUMERIC NOT NULL,
	PRIMARY KEY (user_id, symbol)
);
CREATE TABLE IF NOT EXISTS transactions (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	type         TEXT NOT NULL,
	amount       NUMERIC NOT NULL,
	status       TEXT NOT NULL,
	date         TIMESTAMPTZ NOT NULL,
	description  TEXT NOT NULL,
	stock_symbol TEXT NOT NULL DEFAULT '',
	quantity     BIGINT NOT NULL DEFAULT 0,
	price        NUMERIC NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS transactions_user_date ON transactions (user_id, date DESC);
CREATE TABLE IF NOT EXISTS payment_methods (
	id          TEXT PRIMARY KEY,
	seq         BIGSERIAL,
	user_id     TEXT NOT NULL,
	type        TEXT NOT NULL,
	name        TEXT NOT NULL,
	last_four   TEXT NOT NULL,
	is_default  BOOLEAN NOT NULL DEFAULT FALSE,
	expiry_date TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS notifications (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title   TEXT NOT NULL,
	message TEXT NOT NULL,
	read    BOOLEAN NOT NULL DEFAULT FALSE,
	date    TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS profiles (
	user_id   TEXT PRIMARY KEY,
	full_name TEXT NOT NULL DEFAULT '',
	email     TEXT NOT NULL DEFAULT '',
	phone     TEXT NOT NULL DEFAULT ''
);
`

// Init applies the schema. Idempotent.
func (s *PostgresStore) Init(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PostgresStore) EnsureAccount(ctx context.Context, userID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	funds := seedFunds()
	tag, err := tx.Exec(ctx,
		`INSERT INTO funds (user_id, total_cash, available_to_trade, margin_used, unavailable_to_trade)
		 VALUES ($1, $2::NUMERIC, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC)
		 ON CONFLICT (user_id) DO NOTHING`,
		userID, funds.TotalCash.String(), funds.AvailableToTrade.String(),
		funds.MarginUsed.String(), funds.UnavailableToTrade.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Already seeded.
		return tx.Commit(ctx)
	}

	for i, p := range seedPositions() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO positions (user_id, idx, symbol, shares, avg_price)
			 VALUES ($1, $2, $3, $4, $5::NUMERIC)`,
			userID, i, p.Symbol, p.Shares, p.AvgPrice.String()); err != nil {
			return err
		}
	}
	for _, m := range seedPaymentMethods() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO payment_methods (id, user_id, type, name, last_four, is_default, expiry_date)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, userID, m.Type, m.Name, m.LastFour, m.IsDefault, m.ExpiryDate); err != nil {
			return err
		}
	}
	for _, n := range seedNotifications() {
		if _, err := tx.Exec(ctx,
			`INSERT INTO notifications (id, user_id, title, message, read, date)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			n.ID, userID, n.Title, n.Message, n.Read, n.Date); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO profiles (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`,
		userID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) GetFunds(ctx context.Context, userID string) (model.FundsAccount, error) {
	var totalCash, available, margin, unavailable string
	err := s.pool.QueryRow(ctx,
		`SELECT total_cash::TEXT, available_to_trade::TEXT, margin_used::TEXT, unavailable_to_trade::TEXT
		 FROM funds WHERE user_id = $1`, userID).
		Scan(&totalCash, &available, &margin, &unavailable)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.FundsAccount{}, ErrNotFound
	}
	if err != nil {
		return model.FundsAccount{}, fmt.Errorf("get funds for %s: %w", userID, err)
	}

	var f model.FundsAccount
	f.TotalCash, _ = decimal.NewFromString(totalCash)
	f.AvailableToTrade, _ = decimal.NewFromString(available)
	f.MarginUsed, _ = decimal.NewFromString(margin)
	f.UnavailableToTrade, _ = decimal.NewFromString(unavailable)
	return f, nil
}

func (s *PostgresStore) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT symbol, shares, avg_price::TEXT
		 FROM positions WHERE user_id = $1 ORDER BY idx`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []model.Position
	for rows.Next() {
		var p model.Position
		var avgPrice string
		if err := rows.Scan(&p.Symbol, &p.Shares, &avgPrice); err != nil {
			return nil, err
		}
		p.AvgPrice, _ = decimal.NewFromString(avgPrice)
		positions = append(positions, p)
	}
	return positions, rows.Err()
}

func (s *PostgresStore) ListTransactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	query := `SELECT id, user_id, type, amount::TEXT, status, date, description, stock_symbol, quantity, price::TEXT
	          FROM transactions WHERE user_id = $1 ORDER BY date DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var txns []model.Transaction
	for rows.Next() {
		var t model.Transaction
		var amount, price string
		if err := rows.Scan(&t.ID, &t.UserID, &t.Type, &amount, &t.Status,
			&t.Date, &t.Description, &t.StockSymbol, &t.Quantity, &price); err != nil {
			return nil, err
		}
		t.Amount, _ = decimal.NewFromString(amount)
		t.Price, _ = decimal.NewFromString(price)
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

func (s *PostgresStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CommitSettlement(ctx context.Context, userID string, funds model.FundsAccount, positions []model.Position, txn model.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateFunds(ctx, tx, userID, funds); err != nil {
		return err
	}

	// Replace the position set wholesale, preserving insertion order.
	if _, err := tx.Exec(ctx, `DELETE FROM positions WHERE user_id = $1`, userID); err != nil {
		return err
	}
	for i, p := range positions {
		if _, err := tx.Exec(ctx,
			`INSERT INTO positions (user_id, idx, symbol, shares, avg_price)
			 VALUES ($1, $2, $3, $4, $5::NUMERIC)`,
			userID, i, p.Symbol, p.Shares, p.AvgPrice.String()); err != nil {
			return err
		}
	}

	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) CommitTransfer(ctx context.Context, userID string, funds model.FundsAccount, txn model.Transaction) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateFunds(ctx, tx, userID, funds); err != nil {
		return err
	}
	if err := insertTransaction(ctx, tx, txn); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func updateFunds(ctx context.Context, tx pgx.Tx, userID string, f model.FundsAccount) error {
	tag, err := tx.Exec(ctx,
		`UPDATE funds
		 SET total_cash = $2::NUMERIC, available_to_trade = $3::NUMERIC,
		     margin_used = $4::NUMERIC, unavailable_to_trade = $5::NUMERIC
		 WHERE user_id = $1`,
		userID, f.TotalCash.String(), f.AvailableToTrade.String(),
		f.MarginUsed.String(), f.UnavailableToTrade.String())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, t model.Transaction) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO transactions (id, user_id, type, amount, status, date, description, stock_symbol, quantity, price)
		 VALUES ($1, $2, $3, $4::NUMERIC, $5, $6, $7, $8, $9, $10::NUMERIC)`,
		t.ID, t.UserID, t.Type, t.Amount.String(), t.Status, t.Date,
		t.Description, t.StockSymbol, t.Quantity, t.Price.String())
	return err
}

func (s *PostgresStore) ListPaymentMethods(ctx context.Context, userID string) ([]model.PaymentMethod, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, type, name, last_four, is_default, expiry_date
		 FROM payment_methods WHERE user_id = $1 ORDER BY seq`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var methods []model.PaymentMethod
	for rows.Next() {
		var m model.PaymentMethod
		if err := rows.Scan(&m.ID, &m.Type, &m.Name, &m.LastFour, &m.IsDefault, &m.ExpiryDate); err != nil {
			return nil, err
		}
		methods = append(methods, m)
	}
	return methods, rows.Err()
}

func (s *PostgresStore) AddPaymentMethod(ctx context.Context, userID string, m model.PaymentMethod) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_methods WHERE user_id = $1`, userID).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		m.IsDefault = true
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO payment_methods (id, user_id, type, name, last_four, is_default, expiry_date)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, userID, m.Type, m.Name, m.LastFour, m.IsDefault, m.ExpiryDate); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var wasDefault bool
	err = tx.QueryRow(ctx,
		`DELETE FROM payment_methods WHERE user_id = $1 AND id = $2 RETURNING is_default`,
		userID, id).Scan(&wasDefault)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}

	if wasDefault {
		// Promote the oldest remaining method, if any.
		if _, err := tx.Exec(ctx,
			`UPDATE payment_methods SET is_default = TRUE
			 WHERE id = (SELECT id FROM payment_methods WHERE user_id = $1 ORDER BY seq LIMIT 1)`,
			userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) SetDefaultPaymentMethod(ctx context.Context, userID, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE payment_methods SET is_default = (id = $2) WHERE user_id = $1`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	var exists bool
	if err := tx.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM payment_methods WHERE user_id = $1 AND id = $2)`,
		userID, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, title, message, read, date
		 FROM notifications WHERE user_id = $1 ORDER BY date DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []model.Notification
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.Read, &n.Date); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (s *PostgresStore) AddNotification(ctx context.Context, userID string, n model.Notification) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notifications (id, user_id, title, message, read, date)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		n.ID, userID, n.Title, n.Message, n.Read, n.Date)
	return err
}

func (s *PostgresStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresStore) DeleteNotification(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, full_name, email, phone FROM profiles WHERE user_id = $1`, userID).
		Scan(&p.UserID, &p.FullName, &p.Email, &p.Phone)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	return p, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, userID string, p model.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (user_id, full_name, email, phone)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE
		 SET full_name = EXCLUDED.full_name, email = EXCLUDED.email, phone = EXCLUDED.phone`,
		userID, p.FullName, p.Email, p.Phone)
	return err
}
