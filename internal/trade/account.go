package trade

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tradepro/trading-engine/internal/model"
	"github.com/tradepro/trading-engine/internal/store"
)

// Handlers for the account surfaces around the ledger: the transaction
// log, payment methods, notifications, and the display profile.

// ListTransactions handles GET /api/v1/transactions?limit=N.
func (s *Service) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = n
	}

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	txns, err := s.store.ListTransactions(ctx, userID, limit)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}
	if txns == nil {
		txns = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, txns)
}

// DeleteTransaction handles DELETE /api/v1/transactions/{id}. This is the
// account-settings escape hatch; settlement itself never removes entries.
func (s *Service) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	err := s.store.DeleteTransaction(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "transaction not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to delete transaction", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Payment methods ---

// AddPaymentMethodRequest is the JSON body for POST /payment-methods.
type AddPaymentMethodRequest struct {
	Type       string `json:"type"` // "bank" or "card"
	Name       string `json:"name"`
	Number     string `json:"number"`
	ExpiryDate string `json:"expiry_date"`
}

// ListPaymentMethods handles GET /api/v1/payment-methods.
func (s *Service) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	methods, err := s.store.ListPaymentMethods(ctx, userID)
	if err != nil {
		writeError(w, "failed to load payment methods", http.StatusInternalServerError)
		return
	}
	if methods == nil {
		methods = []model.PaymentMethod{}
	}
	writeJSON(w, http.StatusOK, methods)
}

// AddPaymentMethod handles POST /api/v1/payment-methods.
func (s *Service) AddPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req AddPaymentMethodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Type != "bank" && req.Type != "card" {
		writeError(w, "type must be bank or card", http.StatusBadRequest)
		return
	}
	if req.Name == "" || len(req.Number) < 4 {
		writeError(w, "please fill in all required fields", http.StatusBadRequest)
		return
	}
	if req.Type == "card" && req.ExpiryDate == "" {
		writeError(w, "please fill in all card details", http.StatusBadRequest)
		return
	}

	method := model.PaymentMethod{
		ID:         uuid.New().String(),
		Type:       req.Type,
		Name:       req.Name,
		LastFour:   req.Number[len(req.Number)-4:],
		ExpiryDate: req.ExpiryDate,
	}

	ctx := r.Context()
	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	if err := s.store.AddPaymentMethod(ctx, userID, method); err != nil {
		writeError(w, "failed to add payment method", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, method)
}

// DeletePaymentMethod handles DELETE /api/v1/payment-methods/{id}.
func (s *Service) DeletePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	err := s.store.DeletePaymentMethod(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "payment method not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to delete payment method", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefaultPaymentMethod handles PUT /api/v1/payment-methods/{id}/default.
func (s *Service) SetDefaultPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	err := s.store.SetDefaultPaymentMethod(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "payment method not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to update payment method", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Notifications ---

// ListNotifications handles GET /api/v1/notifications.
func (s *Service) ListNotifications(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	notes, err := s.store.ListNotifications(ctx, userID)
	if err != nil {
		writeError(w, "failed to load notifications", http.StatusInternalServerError)
		return
	}
	if notes == nil {
		notes = []model.Notification{}
	}

	unread := 0
	for _, n := range notes {
		if !n.Read {
			unread++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notifications": notes,
		"unread_count":  unread,
	})
}

// MarkNotificationsRead handles POST /api/v1/notifications/read-all.
func (s *Service) MarkNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.store.MarkNotificationsRead(r.Context(), userID); err != nil {
		writeError(w, "failed to update notifications", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteNotification handles DELETE /api/v1/notifications/{id}.
func (s *Service) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	err := s.store.DeleteNotification(r.Context(), userID, chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, "notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, "failed to delete notification", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- Profile ---

// GetProfile handles GET /api/v1/profile.
func (s *Service) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	profile, err := s.store.GetProfile(ctx, userID)
	if err != nil {
		writeError(w, "failed to load profile", http.StatusInternalServerError)
		return
	}

	// A freshly seeded profile has no display fields yet; fill them from
	// the identity provider when one is configured. Best effort.
	if profile.Email == "" && s.provider != nil {
		if pp, err := s.provider.Profile(ctx, userID); err == nil {
			profile.Email = pp.Email
			profile.FullName = pp.FullName
		}
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/v1/profile.
func (s *Service) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var profile model.Profile
	if err := json.NewDecoder(r.Body).Decode(&profile); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	profile.UserID = userID

	ctx := r.Context()
	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	if err := s.store.SaveProfile(ctx, userID, profile); err != nil {
		writeError(w, "failed to save profile", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
