// Package trade provides the HTTP handlers and business logic for the
// brokerage surface: quotes, charts, trade settlement, portfolio and
// funds views, and cash transfers.
//
// All monetary values use shopspring/decimal — never float64 for money.
package trade

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/auth"
	"github.com/tradepro/trading-engine/internal/ledger"
	"github.com/tradepro/trading-engine/internal/market"
	"github.com/tradepro/trading-engine/internal/metrics"
	"github.com/tradepro/trading-engine/internal/model"
	"github.com/tradepro/trading-engine/internal/store"
)

// Service handles account operations. Settlement and transfers are
// serialized through a mutex so concurrent requests cannot lose updates
// (single-instance). For horizontal scaling, replace with distributed
// locking or per-record optimistic concurrency.
type Service struct {
	store    store.Store
	provider *auth.Client // nil when auth proxying is disabled
	mu       sync.Mutex
	wsHub    *WSHub // optional WebSocket hub for real-time broadcasts
}

// NewService creates a new trade service. Pass nil for provider or hub
// if identity proxying or WebSocket broadcasting is not needed.
func NewService(st store.Store, provider *auth.Client, hub *WSHub) *Service {
	return &Service{
		store:    st,
		provider: provider,
		wsHub:    hub,
	}
}

// --- Request/Response types ---

// TradeRequest is the JSON body for POST /trade.
type TradeRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`     // "buy" or "sell"
	Quantity int64  `json:"quantity"` // whole shares, must be positive
}

// TradeResponse is the JSON body returned from POST /trade.
type TradeResponse struct {
	Transaction model.Transaction   `json:"transaction"`
	Funds       model.FundsAccount  `json:"funds"`
	Position    *model.PositionView `json:"position"` // nil after a full sale
}

// TransferRequest is the JSON body for deposits and withdrawals.
type TransferRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// TransferResponse is returned from deposit and withdrawal requests.
type TransferResponse struct {
	Transaction model.Transaction  `json:"transaction"`
	Funds       model.FundsAccount `json:"funds"`
}

// FundsResponse is the funds view with recent activity.
type FundsResponse struct {
	Funds              model.FundsAccount  `json:"funds"`
	RecentTransactions []model.Transaction `json:"recent_transactions"`
}

// --- Market handlers ---

// ListQuotes handles GET /api/v1/stocks, optionally filtered by ?search=.
func (s *Service) ListQuotes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, market.List(r.URL.Query().Get("search")))
}

// GetQuote handles GET /api/v1/stocks/{symbol}.
func (s *Service) GetQuote(w http.ResponseWriter, r *http.Request) {
	quote, err := market.Lookup(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, "stock not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

// GetChart handles GET /api/v1/stocks/{symbol}/chart?range=1M.
// The series is synthetic and regenerated on every call.
func (s *Service) GetChart(w http.ResponseWriter, r *http.Request) {
	quote, err := market.Lookup(chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, "stock not found", http.StatusNotFound)
		return
	}
	rng, err := market.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, "range must be one of 1D, 1W, 1M, 3M, 1Y, ALL", http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"symbol": quote.Symbol,
		"range":  rng,
		"points": market.Series(rng, quote.Price),
	})
}

// --- Trade execution ---

// ExecuteTrade handles POST /api/v1/trade. Validates the request, settles
// it against the account snapshot, and commits funds, positions, and the
// transaction log as a unit.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	side := ledger.Side(req.Side)
	if !side.Valid() {
		writeError(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	if req.Quantity <= 0 {
		metrics.TradeRejections.WithLabelValues("invalid_quantity").Inc()
		writeError(w, "quantity must be a positive integer", http.StatusBadRequest)
		return
	}

	quote, err := market.Lookup(req.Symbol)
	if err != nil {
		writeError(w, "stock not found: "+req.Symbol, http.StatusNotFound)
		return
	}

	ctx := r.Context()
	start := time.Now()

	// Serialize settlement: one writer at a time.
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	funds, err := s.store.GetFunds(ctx, userID)
	if err != nil {
		writeError(w, "failed to load funds", http.StatusInternalServerError)
		return
	}
	positions, err := s.store.GetPositions(ctx, userID)
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}

	out, err := ledger.Settle(userID, quote.Symbol, side, req.Quantity, quote.Price, funds, positions)
	switch {
	case errors.Is(err, ledger.ErrInsufficientFunds):
		metrics.TradeRejections.WithLabelValues("insufficient_funds").Inc()
		writeError(w, "insufficient funds available for trading", http.StatusConflict)
		return
	case errors.Is(err, ledger.ErrInsufficientShares):
		metrics.TradeRejections.WithLabelValues("insufficient_shares").Inc()
		writeError(w, "insufficient shares available to sell", http.StatusConflict)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.CommitSettlement(ctx, userID, out.Funds, out.Positions, out.Transaction); err != nil {
		slog.Error("settlement commit failed", "user", userID, "symbol", quote.Symbol, "err", err)
		writeError(w, "failed to record trade", http.StatusInternalServerError)
		return
	}

	metrics.TradesTotal.WithLabelValues(string(side)).Inc()
	metrics.TradeLatency.WithLabelValues(string(side)).Observe(time.Since(start).Seconds())

	// Best effort; a failed notification does not fail the trade.
	note := model.Notification{
		ID:      uuid.New().String(),
		Title:   "Trade executed",
		Message: out.Transaction.Description,
		Date:    out.Transaction.Date,
	}
	if err := s.store.AddNotification(ctx, userID, note); err != nil {
		slog.Warn("trade notification failed", "user", userID, "err", err)
	}

	slog.Info("trade settled",
		"transaction_id", out.Transaction.ID,
		"user", userID,
		"symbol", quote.Symbol,
		"side", side,
		"qty", req.Quantity,
		"price", quote.Price.String(),
		"amount", out.Transaction.Amount.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:     "trade_executed",
			Symbol:   quote.Symbol,
			Side:     string(side),
			Quantity: req.Quantity,
			Price:    quote.Price.String(),
			Amount:   out.Transaction.Amount.String(),
		})
	}

	resp := TradeResponse{
		Transaction: out.Transaction,
		Funds:       out.Funds,
	}
	for _, p := range out.Positions {
		if p.Symbol == quote.Symbol {
			v := model.PositionView{
				Position:     p,
				Name:         quote.Name,
				Price:        quote.Price,
				CurrentValue: ledger.Value(p.Shares, quote.Price),
				GainLoss:     ledger.Gain(p.Shares, p.AvgPrice, quote.Price),
				GainLossPct:  ledger.GainPercent(p.AvgPrice, quote.Price),
			}
			resp.Position = &v
			break
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- Portfolio and funds ---

// GetPortfolio handles GET /api/v1/portfolio.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	positions, err := s.store.GetPositions(ctx, userID)
	if err != nil {
		writeError(w, "failed to load positions", http.StatusInternalServerError)
		return
	}

	summary := ledger.Summarize(userID, positions, func(symbol string) (string, decimal.Decimal, bool) {
		quote, err := market.Lookup(symbol)
		if err != nil {
			return "", decimal.Zero, false
		}
		return quote.Name, quote.Price, true
	})

	writeJSON(w, http.StatusOK, summary)
}

// GetFunds handles GET /api/v1/funds. Returns the funds account and the
// five most recent transactions, matching the funds view.
func (s *Service) GetFunds(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	funds, err := s.store.GetFunds(ctx, userID)
	if err != nil {
		writeError(w, "failed to load funds", http.StatusInternalServerError)
		return
	}
	recent, err := s.store.ListTransactions(ctx, userID, 5)
	if err != nil {
		writeError(w, "failed to load transactions", http.StatusInternalServerError)
		return
	}
	if recent == nil {
		recent = []model.Transaction{}
	}

	writeJSON(w, http.StatusOK, FundsResponse{Funds: funds, RecentTransactions: recent})
}

// Deposit handles POST /api/v1/funds/deposit.
func (s *Service) Deposit(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, model.TxDeposit, ledger.Deposit)
}

// Withdraw handles POST /api/v1/funds/withdraw.
func (s *Service) Withdraw(w http.ResponseWriter, r *http.Request) {
	s.transfer(w, r, model.TxWithdrawal, ledger.Withdraw)
}

func (s *Service) transfer(w http.ResponseWriter, r *http.Request, txType string, apply func(string, decimal.Decimal, model.FundsAccount) (ledger.Transfer, error)) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.EnsureAccount(ctx, userID); err != nil {
		writeError(w, "failed to load account", http.StatusInternalServerError)
		return
	}
	funds, err := s.store.GetFunds(ctx, userID)
	if err != nil {
		writeError(w, "failed to load funds", http.StatusInternalServerError)
		return
	}

	out, err := apply(userID, req.Amount, funds)
	switch {
	case errors.Is(err, ledger.ErrInvalidAmount):
		writeError(w, "amount must be positive", http.StatusBadRequest)
		return
	case errors.Is(err, ledger.ErrInsufficientFunds):
		writeError(w, "insufficient funds available to withdraw", http.StatusConflict)
		return
	case err != nil:
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.store.CommitTransfer(ctx, userID, out.Funds, out.Transaction); err != nil {
		slog.Error("transfer commit failed", "user", userID, "type", txType, "err", err)
		writeError(w, "failed to record transfer", http.StatusInternalServerError)
		return
	}

	metrics.TransfersTotal.WithLabelValues(txType).Inc()
	slog.Info("transfer settled",
		"transaction_id", out.Transaction.ID,
		"user", userID,
		"type", txType,
		"amount", out.Transaction.Amount.String(),
	)

	writeJSON(w, http.StatusOK, TransferResponse{Transaction: out.Transaction, Funds: out.Funds})
}

// --- Helpers ---

// userID pulls the authenticated user from the request context, writing
// 401 if the auth middleware did not run.
func (s *Service) userID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, "authentication required", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
