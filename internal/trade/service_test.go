package trade_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/tradepro/trading-engine/internal/auth"
	"github.com/tradepro/trading-engine/internal/model"
	"github.com/tradepro/trading-engine/internal/store"
	"github.com/tradepro/trading-engine/internal/trade"
)

const testUser = "user-1"

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// newTestEnv creates a test Service with an in-memory store and a chi
// router with the user already injected, as the auth middleware would.
func newTestEnv(t *testing.T) (*store.MemoryStore, chi.Router) {
	t.Helper()
	ms := store.NewMemoryStore()
	svc := trade.NewService(ms, nil, nil)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), testUser)))
		})
	})
	mountRoutes(r, svc)

	return ms, r
}

func mountRoutes(r chi.Router, svc *trade.Service) {
	r.Get("/api/v1/stocks", svc.ListQuotes)
	r.Get("/api/v1/stocks/{symbol}", svc.GetQuote)
	r.Get("/api/v1/stocks/{symbol}/chart", svc.GetChart)
	r.Post("/api/v1/trade", svc.ExecuteTrade)
	r.Get("/api/v1/portfolio", svc.GetPortfolio)
	r.Get("/api/v1/funds", svc.GetFunds)
	r.Post("/api/v1/funds/deposit", svc.Deposit)
	r.Post("/api/v1/funds/withdraw", svc.Withdraw)
	r.Get("/api/v1/transactions", svc.ListTransactions)
	r.Delete("/api/v1/transactions/{id}", svc.DeleteTransaction)
	r.Get("/api/v1/payment-methods", svc.ListPaymentMethods)
	r.Post("/api/v1/payment-methods", svc.AddPaymentMethod)
	r.Delete("/api/v1/payment-methods/{id}", svc.DeletePaymentMethod)
	r.Put("/api/v1/payment-methods/{id}/default", svc.SetDefaultPaymentMethod)
	r.Get("/api/v1/notifications", svc.ListNotifications)
	r.Post("/api/v1/notifications/read-all", svc.MarkNotificationsRead)
	r.Delete("/api/v1/notifications/{id}", svc.DeleteNotification)
	r.Get("/api/v1/profile", svc.GetProfile)
	r.Put("/api/v1/profile", svc.UpdateProfile)
}

func do(t *testing.T, router chi.Router, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doTrade(t *testing.T, router chi.Router, req trade.TradeRequest) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, router, "POST", "/api/v1/trade", req)
}

// --- Market handlers ---

func TestListQuotes(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/stocks", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var all []map[string]any
	json.Unmarshal(w.Body.Bytes(), &all)
	if len(all) < 50 {
		t.Errorf("expected a full catalog, got %d quotes", len(all))
	}

	w = do(t, router, "GET", "/api/v1/stocks?search=apple", nil)
	var filtered []map[string]any
	json.Unmarshal(w.Body.Bytes(), &filtered)
	if len(filtered) == 0 || len(filtered) >= len(all) {
		t.Errorf("search should narrow the catalog, got %d of %d", len(filtered), len(all))
	}
}

func TestGetQuote(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/stocks/AAPL", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var quote struct {
		Symbol string          `json:"symbol"`
		Price  decimal.Decimal `json:"price"`
	}
	json.Unmarshal(w.Body.Bytes(), &quote)
	if quote.Symbol != "AAPL" || !quote.Price.Equal(d("173.50")) {
		t.Errorf("unexpected quote: %+v", quote)
	}

	w = do(t, router, "GET", "/api/v1/stocks/NOPE", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown symbol, got %d", w.Code)
	}
}

func TestGetChart(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/stocks/AAPL/chart?range=1W", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Symbol string `json:"symbol"`
		Range  string `json:"range"`
		Points []struct {
			Label string          `json:"label"`
			Price decimal.Decimal `json:"price"`
		} `json:"points"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Range != "1W" || len(resp.Points) != 8 {
		t.Errorf("expected 8 points for 1W, got %d (range %s)", len(resp.Points), resp.Range)
	}

	w = do(t, router, "GET", "/api/v1/stocks/AAPL/chart?range=2X", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad range, got %d", w.Code)
	}
}

// --- Trade execution ---

func TestExecuteTrade_Buy(t *testing.T) {
	_, router := newTestEnv(t)

	// AAPL quotes at 173.50; the account starts with 8500 available and
	// 15 AAPL shares at 160.75.
	w := doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 10})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp trade.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Transaction.Type != model.TxStockBuy {
		t.Errorf("expected %s, got %s", model.TxStockBuy, resp.Transaction.Type)
	}
	if !resp.Transaction.Amount.Equal(d("1735")) {
		t.Errorf("expected amount 1735, got %s", resp.Transaction.Amount)
	}
	if resp.Transaction.Status != model.TxCompleted {
		t.Errorf("expected completed status, got %s", resp.Transaction.Status)
	}

	if !resp.Funds.TotalCash.Equal(d("8265")) ||
		!resp.Funds.AvailableToTrade.Equal(d("6765")) ||
		!resp.Funds.MarginUsed.Equal(d("2735")) ||
		!resp.Funds.UnavailableToTrade.Equal(d("500")) {
		t.Errorf("unexpected funds after buy: %+v", resp.Funds)
	}

	if resp.Position == nil {
		t.Fatal("expected a position in the response")
	}
	if resp.Position.Shares != 25 {
		t.Errorf("expected 25 shares, got %d", resp.Position.Shares)
	}
	// VWAP of 15 @ 160.75 and 10 @ 173.50.
	if !resp.Position.AvgPrice.Equal(d("165.85")) {
		t.Errorf("expected avg price 165.85, got %s", resp.Position.AvgPrice)
	}
}

func TestExecuteTrade_SellPartial(t *testing.T) {
	_, router := newTestEnv(t)

	w := doTrade(t, router, trade.TradeRequest{Symbol: "MSFT", Side: "sell", Quantity: 4})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp trade.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)

	if resp.Position == nil {
		t.Fatal("partial sale should keep the position")
	}
	if resp.Position.Shares != 6 {
		t.Errorf("expected 6 shares left, got %d", resp.Position.Shares)
	}
	// A partial sale never reprices the remaining lot.
	if !resp.Position.AvgPrice.Equal(d("420.50")) {
		t.Errorf("expected avg price unchanged at 420.50, got %s", resp.Position.AvgPrice)
	}
	// 4 shares at the 415.30 quote return to cash.
	if !resp.Funds.TotalCash.Equal(d("11661.2")) {
		t.Errorf("expected total cash 11661.2, got %s", resp.Funds.TotalCash)
	}
}

func TestExecuteTrade_SellFull(t *testing.T) {
	ms, router := newTestEnv(t)

	w := doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "sell", Quantity: 15})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp trade.TradeResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Position != nil {
		t.Errorf("full sale should remove the position, got %+v", resp.Position)
	}

	positions, err := ms.GetPositions(context.Background(), testUser)
	if err != nil {
		t.Fatalf("get positions: %v", err)
	}
	for _, p := range positions {
		if p.Symbol == "AAPL" {
			t.Error("AAPL should no longer be held")
		}
	}
}

func TestExecuteTrade_InsufficientFunds(t *testing.T) {
	ms, router := newTestEnv(t)

	// 100 AAPL at 173.50 is 17350, well past the 8500 available.
	w := doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 100})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// Rejection must not touch the account.
	funds, err := ms.GetFunds(context.Background(), testUser)
	if err != nil {
		t.Fatalf("get funds: %v", err)
	}
	if !funds.AvailableToTrade.Equal(d("8500")) {
		t.Errorf("funds changed on rejected trade: %s", funds.AvailableToTrade)
	}
	txns, _ := ms.ListTransactions(context.Background(), testUser, 0)
	if len(txns) != 0 {
		t.Errorf("rejected trade should not be recorded, got %d transactions", len(txns))
	}
}

func TestExecuteTrade_InsufficientShares(t *testing.T) {
	_, router := newTestEnv(t)

	w := doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "sell", Quantity: 100})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	// KO is in the catalog but not in the seeded portfolio.
	w = doTrade(t, router, trade.TradeRequest{Symbol: "KO", Side: "sell", Quantity: 1})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 selling an unheld symbol, got %d", w.Code)
	}
}

func TestExecuteTrade_BadRequests(t *testing.T) {
	_, router := newTestEnv(t)

	cases := []struct {
		name string
		req  trade.TradeRequest
		want int
	}{
		{"invalid side", trade.TradeRequest{Symbol: "AAPL", Side: "short", Quantity: 1}, http.StatusBadRequest},
		{"zero quantity", trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 0}, http.StatusBadRequest},
		{"negative quantity", trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: -5}, http.StatusBadRequest},
		{"unknown symbol", trade.TradeRequest{Symbol: "NOPE", Side: "buy", Quantity: 1}, http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doTrade(t, router, tc.req)
			if w.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestExecuteTrade_Unauthenticated(t *testing.T) {
	ms := store.NewMemoryStore()
	svc := trade.NewService(ms, nil, nil)
	r := chi.NewRouter()
	mountRoutes(r, svc) // no user injection

	w := doTrade(t, r, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 1})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

// --- Portfolio and funds ---

func TestGetPortfolio(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/portfolio", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var summary model.PortfolioSummary
	json.Unmarshal(w.Body.Bytes(), &summary)

	if summary.UserID != testUser {
		t.Errorf("expected user %s, got %s", testUser, summary.UserID)
	}
	if len(summary.Positions) != 9 {
		t.Fatalf("expected 9 seeded positions, got %d", len(summary.Positions))
	}
	if !summary.TotalValue.IsPositive() || !summary.TotalCost.IsPositive() {
		t.Errorf("expected positive totals, got value=%s cost=%s", summary.TotalValue, summary.TotalCost)
	}
	for _, p := range summary.Positions {
		if p.Symbol == "AAPL" {
			if p.Name == "" || !p.Price.Equal(d("173.50")) {
				t.Errorf("AAPL view not priced from quote: %+v", p)
			}
			// 15 shares bought at 160.75, quoted at 173.50.
			if !p.GainLoss.Equal(d("191.25")) {
				t.Errorf("expected AAPL gain 191.25, got %s", p.GainLoss)
			}
		}
	}
}

func TestGetFunds(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/funds", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp trade.FundsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Funds.TotalCash.Equal(d("10000")) {
		t.Errorf("expected seeded total cash 10000, got %s", resp.Funds.TotalCash)
	}
	if len(resp.RecentTransactions) != 0 {
		t.Errorf("expected no transactions yet, got %d", len(resp.RecentTransactions))
	}

	doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 1})

	w = do(t, router, "GET", "/api/v1/funds", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.RecentTransactions) != 1 {
		t.Errorf("expected 1 recent transaction, got %d", len(resp.RecentTransactions))
	}
}

func TestDepositAndWithdraw(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "POST", "/api/v1/funds/deposit", trade.TransferRequest{Amount: d("500")})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp trade.TransferResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Funds.TotalCash.Equal(d("10500")) || !resp.Funds.AvailableToTrade.Equal(d("9000")) {
		t.Errorf("unexpected funds after deposit: %+v", resp.Funds)
	}
	if resp.Transaction.Type != model.TxDeposit {
		t.Errorf("expected deposit transaction, got %s", resp.Transaction.Type)
	}

	w = do(t, router, "POST", "/api/v1/funds/withdraw", trade.TransferRequest{Amount: d("1000")})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Funds.TotalCash.Equal(d("9500")) || !resp.Funds.AvailableToTrade.Equal(d("8000")) {
		t.Errorf("unexpected funds after withdrawal: %+v", resp.Funds)
	}
}

func TestWithdraw_Rejections(t *testing.T) {
	_, router := newTestEnv(t)

	// More than the 8500 available, even though total cash is 10000.
	w := do(t, router, "POST", "/api/v1/funds/withdraw", trade.TransferRequest{Amount: d("9000")})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 over-withdrawal, got %d", w.Code)
	}

	w = do(t, router, "POST", "/api/v1/funds/withdraw", trade.TransferRequest{Amount: d("-10")})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative amount, got %d", w.Code)
	}

	w = do(t, router, "POST", "/api/v1/funds/deposit", trade.TransferRequest{Amount: d("0")})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero deposit, got %d", w.Code)
	}
}

// --- Transaction log ---

func TestTransactions(t *testing.T) {
	_, router := newTestEnv(t)

	doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 1})
	do(t, router, "POST", "/api/v1/funds/deposit", trade.TransferRequest{Amount: d("100")})

	w := do(t, router, "GET", "/api/v1/transactions", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var txns []model.Transaction
	json.Unmarshal(w.Body.Bytes(), &txns)
	if len(txns) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(txns))
	}
	// Most recent first.
	if txns[0].Type != model.TxDeposit || txns[1].Type != model.TxStockBuy {
		t.Errorf("unexpected ordering: %s then %s", txns[0].Type, txns[1].Type)
	}

	w = do(t, router, "GET", "/api/v1/transactions?limit=1", nil)
	json.Unmarshal(w.Body.Bytes(), &txns)
	if len(txns) != 1 {
		t.Errorf("expected limit to apply, got %d", len(txns))
	}

	w = do(t, router, "GET", "/api/v1/transactions?limit=-1", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative limit, got %d", w.Code)
	}

	w = do(t, router, "DELETE", "/api/v1/transactions/"+txns[0].ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
	w = do(t, router, "DELETE", "/api/v1/transactions/"+txns[0].ID, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 deleting twice, got %d", w.Code)
	}
}

// --- Payment methods ---

func TestPaymentMethods(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/payment-methods", nil)
	var methods []model.PaymentMethod
	json.Unmarshal(w.Body.Bytes(), &methods)
	if len(methods) != 2 {
		t.Fatalf("expected 2 seeded methods, got %d", len(methods))
	}
	if !methods[0].IsDefault {
		t.Error("first seeded method should be the default")
	}

	w = do(t, router, "POST", "/api/v1/payment-methods", trade.AddPaymentMethodRequest{
		Type: "card", Name: "Amex", Number: "371234567891004",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for card without expiry, got %d", w.Code)
	}

	w = do(t, router, "POST", "/api/v1/payment-methods", trade.AddPaymentMethodRequest{
		Type: "bank", Name: "Savings", Number: "000111222333",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var added model.PaymentMethod
	json.Unmarshal(w.Body.Bytes(), &added)
	if added.LastFour != "2333" {
		t.Errorf("expected last four 2333, got %s", added.LastFour)
	}
	if added.IsDefault {
		t.Error("a method added alongside existing ones should not be default")
	}

	w = do(t, router, "PUT", "/api/v1/payment-methods/"+added.ID+"/default", nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = do(t, router, "GET", "/api/v1/payment-methods", nil)
	json.Unmarshal(w.Body.Bytes(), &methods)
	for _, m := range methods {
		if m.IsDefault != (m.ID == added.ID) {
			t.Errorf("default flag wrong on %s (%s): %v", m.Name, m.ID, m.IsDefault)
		}
	}

	// Deleting the default promotes another method.
	w = do(t, router, "DELETE", "/api/v1/payment-methods/"+added.ID, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = do(t, router, "GET", "/api/v1/payment-methods", nil)
	json.Unmarshal(w.Body.Bytes(), &methods)
	if len(methods) != 2 {
		t.Fatalf("expected 2 methods after delete, got %d", len(methods))
	}
	if !methods[0].IsDefault {
		t.Error("deleting the default should promote the first remaining method")
	}

	w = do(t, router, "DELETE", "/api/v1/payment-methods/missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown method, got %d", w.Code)
	}
}

// --- Notifications ---

func TestNotifications(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/notifications", nil)
	var resp struct {
		Notifications []model.Notification `json:"notifications"`
		UnreadCount   int                  `json:"unread_count"`
	}
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notifications) != 2 || resp.UnreadCount != 2 {
		t.Fatalf("expected 2 unread seeded notifications, got %d/%d", len(resp.Notifications), resp.UnreadCount)
	}

	// A settled trade raises a notification.
	doTrade(t, router, trade.TradeRequest{Symbol: "AAPL", Side: "buy", Quantity: 1})
	w = do(t, router, "GET", "/api/v1/notifications", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Notifications) != 3 {
		t.Errorf("expected 3 notifications after a trade, got %d", len(resp.Notifications))
	}

	if w := do(t, router, "POST", "/api/v1/notifications/read-all", nil); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	w = do(t, router, "GET", "/api/v1/notifications", nil)
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.UnreadCount != 0 {
		t.Errorf("expected 0 unread after read-all, got %d", resp.UnreadCount)
	}

	w = do(t, router, "DELETE", "/api/v1/notifications/"+resp.Notifications[0].ID, nil)
	if w.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", w.Code)
	}
}

// --- Profile ---

func TestProfile(t *testing.T) {
	_, router := newTestEnv(t)

	w := do(t, router, "GET", "/api/v1/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	update := model.Profile{FullName: "Jordan Doe", Email: "jordan@example.com", Phone: "+1-555-0101"}
	w = do(t, router, "PUT", "/api/v1/profile", update)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, router, "GET", "/api/v1/profile", nil)
	var got model.Profile
	json.Unmarshal(w.Body.Bytes(), &got)
	if got.UserID != testUser || got.FullName != "Jordan Doe" || got.Email != "jordan@example.com" {
		t.Errorf("profile not saved: %+v", got)
	}
}
