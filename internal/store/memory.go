package store

import (
	"context"
	"sync"

	"github.com/tradepro/trading-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing and
// dev mode. Not suitable for production (no persistence). Commits hold a
// single lock across all records, so a settlement is applied atomically.
type MemoryStore struct {
	mu       sync.RWMutex
	accounts map[string]*memAccount
}

type memAccount struct {
	funds          model.FundsAccount
	positions      []model.Position
	transactions   []model.Transaction // newest first
	paymentMethods []model.PaymentMethod
	notifications  []model.Notification
	profile        model.Profile
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{accounts: make(map[string]*memAccount)}
}

func (s *MemoryStore) EnsureAccount(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[userID]; ok {
		return nil
	}
	s.accounts[userID] = &memAccount{
		funds:          seedFunds(),
		positions:      seedPositions(),
		paymentMethods: seedPaymentMethods(),
		notifications:  seedNotifications(),
		profile:        model.Profile{UserID: userID},
	}
	return nil
}

// account returns the user's record, which must have been seeded.
func (s *MemoryStore) account(userID string) (*memAccount, error) {
	a, ok := s.accounts[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}

func (s *MemoryStore) GetFunds(_ context.Context, userID string) (model.FundsAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return model.FundsAccount{}, err
	}
	return a.funds, nil
}

func (s *MemoryStore) GetPositions(_ context.Context, userID string) ([]model.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Position, len(a.positions))
	copy(out, a.positions)
	return out, nil
}

func (s *MemoryStore) ListTransactions(_ context.Context, userID string, limit int) ([]model.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	n := len(a.transactions)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.Transaction, n)
	copy(out, a.transactions[:n])
	return out, nil
}

func (s *MemoryStore) DeleteTransaction(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	for i, txn := range a.transactions {
		if txn.ID == id {
			a.transactions = append(a.transactions[:i], a.transactions[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) CommitSettlement(_ context.Context, userID string, funds model.FundsAccount, positions []model.Position, txn model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	a.funds = funds
	a.positions = make([]model.Position, len(positions))
	copy(a.positions, positions)
	a.transactions = append([]model.Transaction{txn}, a.transactions...)
	return nil
}

func (s *MemoryStore) CommitTransfer(_ context.Context, userID string, funds model.FundsAccount, txn model.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	a.funds = funds
	a.transactions = append([]model.Transaction{txn}, a.transactions...)
	return nil
}

func (s *MemoryStore) ListPaymentMethods(_ context.Context, userID string) ([]model.PaymentMethod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.PaymentMethod, len(a.paymentMethods))
	copy(out, a.paymentMethods)
	return out, nil
}

func (s *MemoryStore) AddPaymentMethod(_ context.Context, userID string, m model.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	if len(a.paymentMethods) == 0 {
		m.IsDefault = true
	}
	a.paymentMethods = append(a.paymentMethods, m)
	return nil
}

func (s *MemoryStore) DeletePaymentMethod(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	for i, m := range a.paymentMethods {
		if m.ID == id {
			wasDefault := m.IsDefault
			a.paymentMethods = append(a.paymentMethods[:i], a.paymentMethods[i+1:]...)
			if wasDefault && len(a.paymentMethods) > 0 {
				a.paymentMethods[0].IsDefault = true
			}
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) SetDefaultPaymentMethod(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	found := false
	for i := range a.paymentMethods {
		isTarget := a.paymentMethods[i].ID == id
		a.paymentMethods[i].IsDefault = isTarget
		found = found || isTarget
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (s *MemoryStore) ListNotifications(_ context.Context, userID string) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return nil, err
	}
	out := make([]model.Notification, len(a.notifications))
	copy(out, a.notifications)
	return out, nil
}

func (s *MemoryStore) AddNotification(_ context.Context, userID string, n model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	a.notifications = append([]model.Notification{n}, a.notifications...)
	return nil
}

func (s *MemoryStore) MarkNotificationsRead(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	for i := range a.notifications {
		a.notifications[i].Read = true
	}
	return nil
}

func (s *MemoryStore) DeleteNotification(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	for i, n := range a.notifications {
		if n.ID == id {
			a.notifications = append(a.notifications[:i], a.notifications[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (s *MemoryStore) GetProfile(_ context.Context, userID string) (model.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, err := s.account(userID)
	if err != nil {
		return model.Profile{}, err
	}
	return a.profile, nil
}

func (s *MemoryStore) SaveProfile(_ context.Context, userID string, p model.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.account(userID)
	if err != nil {
		return err
	}
	p.UserID = userID
	a.profile = p
	return nil
}
