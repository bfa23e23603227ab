package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tradepro/trading-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis read-through
// cache over the hot read paths: funds and positions. Writes go to the
// primary store and invalidate the cache; everything else passes through.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetFunds(ctx context.Context, userID string) (model.FundsAccount, error) {
	data, err := s.rdb.Get(ctx, fundsKey(userID)).Bytes()
	if err == nil {
		var f model.FundsAccount
		if json.Unmarshal(data, &f) == nil {
			return f, nil
		}
	}

	f, err := s.primary.GetFunds(ctx, userID)
	if err != nil {
		return model.FundsAccount{}, err
	}
	if data, err := json.Marshal(f); err == nil {
		s.rdb.Set(ctx, fundsKey(userID), data, s.ttl)
	}
	return f, nil
}

func (s *CachedStore) GetPositions(ctx context.Context, userID string) ([]model.Position, error) {
	data, err := s.rdb.Get(ctx, positionsKey(userID)).Bytes()
	if err == nil {
		var positions []model.Position
		if json.Unmarshal(data, &positions) == nil {
			return positions, nil
		}
	}

	positions, err := s.primary.GetPositions(ctx, userID)
	if err != nil {
		return nil, err
	}
	if data, err := json.Marshal(positions); err == nil {
		s.rdb.Set(ctx, positionsKey(userID), data, s.ttl)
	}
	return positions, nil
}

// --- Write-through (write to primary, invalidate cache) ---

func (s *CachedStore) CommitSettlement(ctx context.Context, userID string, funds model.FundsAccount, positions []model.Position, txn model.Transaction) error {
	if err := s.primary.CommitSettlement(ctx, userID, funds, positions, txn); err != nil {
		return err
	}
	s.rdb.Del(ctx, fundsKey(userID), positionsKey(userID))
	return nil
}

func (s *CachedStore) CommitTransfer(ctx context.Context, userID string, funds model.FundsAccount, txn model.Transaction) error {
	if err := s.primary.CommitTransfer(ctx, userID, funds, txn); err != nil {
		return err
	}
	s.rdb.Del(ctx, fundsKey(userID))
	return nil
}

func (s *CachedStore) EnsureAccount(ctx context.Context, userID string) error {
	return s.primary.EnsureAccount(ctx, userID)
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListTransactions(ctx context.Context, userID string, limit int) ([]model.Transaction, error) {
	return s.primary.ListTransactions(ctx, userID, limit)
}

func (s *CachedStore) DeleteTransaction(ctx context.Context, userID, id string) error {
	return s.primary.DeleteTransaction(ctx, userID, id)
}

func (s *CachedStore) ListPaymentMethods(ctx context.Context, userID string) ([]model.PaymentMethod, error) {
	return s.primary.ListPaymentMethods(ctx, userID)
}

func (s *CachedStore) AddPaymentMethod(ctx context.Context, userID string, m model.PaymentMethod) error {
	return s.primary.AddPaymentMethod(ctx, userID, m)
}

func (s *CachedStore) DeletePaymentMethod(ctx context.Context, userID, id string) error {
	return s.primary.DeletePaymentMethod(ctx, userID, id)
}

func (s *CachedStore) SetDefaultPaymentMethod(ctx context.Context, userID, id string) error {
	return s.primary.SetDefaultPaymentMethod(ctx, userID, id)
}

func (s *CachedStore) ListNotifications(ctx context.Context, userID string) ([]model.Notification, error) {
	return s.primary.ListNotifications(ctx, userID)
}

func (s *CachedStore) AddNotification(ctx context.Context, userID string, n model.Notification) error {
	return s.primary.AddNotification(ctx, userID, n)
}

func (s *CachedStore) MarkNotificationsRead(ctx context.Context, userID string) error {
	return s.primary.MarkNotificationsRead(ctx, userID)
}

func (s *CachedStore) DeleteNotification(ctx context.Context, userID, id string) error {
	return s.primary.DeleteNotification(ctx, userID, id)
}

func (s *CachedStore) GetProfile(ctx context.Context, userID string) (model.Profile, error) {
	return s.primary.GetProfile(ctx, userID)
}

func (s *CachedStore) SaveProfile(ctx context.Context, userID string, p model.Profile) error {
	return s.primary.SaveProfile(ctx, userID, p)
}

func fundsKey(uid string) string     { return fmt.Sprintf("funds:%s", uid) }
func positionsKey(uid string) string { return fmt.Sprintf("positions:%s", uid) }
