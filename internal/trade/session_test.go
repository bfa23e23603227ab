package trade_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/tradepro/trading-engine/internal/auth"
	"github.com/tradepro/trading-engine/internal/store"
	"github.com/tradepro/trading-engine/internal/trade"
)

// fakeProvider stands in for the identity provider during session tests.
func fakeProvider(t *testing.T) *auth.Client {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-123","token_type":"bearer","expires_in":3600,"user":{"id":"user-1","email":"a@b.com"}}`))
	})
	mux.HandleFunc("POST /signup", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"tok-456","token_type":"bearer","expires_in":3600,"user":{"id":"user-2","email":"c@d.com"}}`))
	})
	mux.HandleFunc("POST /logout", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /profiles/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"user-1","email":"a@b.com","full_name":"Alex Brown"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return auth.NewClient(srv.URL)
}

func sessionRouter(provider *auth.Client) chi.Router {
	svc := trade.NewService(store.NewMemoryStore(), provider, nil)
	r := chi.NewRouter()
	r.Post("/api/v1/auth/signin", svc.SignIn)
	r.Post("/api/v1/auth/signup", svc.SignUp)
	r.Post("/api/v1/auth/signout", svc.SignOut)
	return r
}

func TestSignIn(t *testing.T) {
	router := sessionRouter(fakeProvider(t))

	w := do(t, router, "POST", "/api/v1/auth/signin", trade.CredentialsRequest{
		Email: "a@b.com", Password: "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var session auth.Session
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.AccessToken != "tok-123" || session.User.ID != "user-1" {
		t.Errorf("unexpected session: %+v", session)
	}
}

func TestSignIn_MissingFields(t *testing.T) {
	router := sessionRouter(fakeProvider(t))

	w := do(t, router, "POST", "/api/v1/auth/signin", trade.CredentialsRequest{Email: "a@b.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without password, got %d", w.Code)
	}
}

func TestSignUp(t *testing.T) {
	router := sessionRouter(fakeProvider(t))

	w := do(t, router, "POST", "/api/v1/auth/signup", trade.CredentialsRequest{
		Email: "c@d.com", Password: "hunter22",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignOut(t *testing.T) {
	router := sessionRouter(fakeProvider(t))

	req := httptest.NewRequest("POST", "/api/v1/auth/signout", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d: %s", w.Code, w.Body.String())
	}

	// No token, no provider round trip.
	w = do(t, router, "POST", "/api/v1/auth/signout", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func TestGetProfile_FillsFromProvider(t *testing.T) {
	svc := trade.NewService(store.NewMemoryStore(), fakeProvider(t), nil)
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(auth.WithUser(req.Context(), testUser)))
		})
	})
	r.Get("/api/v1/profile", svc.GetProfile)

	w := do(t, r, "GET", "/api/v1/profile", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var profile struct {
		Email    string `json:"email"`
		FullName string `json:"full_name"`
	}
	json.Unmarshal(w.Body.Bytes(), &profile)
	if profile.Email != "a@b.com" || profile.FullName != "Alex Brown" {
		t.Errorf("profile not filled from provider: %+v", profile)
	}
}

func TestSession_ProviderNotConfigured(t *testing.T) {
	router := sessionRouter(nil)

	w := do(t, router, "POST", "/api/v1/auth/signin", trade.CredentialsRequest{
		Email: "a@b.com", Password: "hunter22",
	})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a provider, got %d", w.Code)
	}
}
