package trade

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tradepro/trading-engine/internal/auth"
)

// Session handlers proxy the external identity provider so the client
// talks to a single origin. They are the only unauthenticated routes
// besides health and metrics.

// CredentialsRequest is the JSON body for sign-in and sign-up.
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /api/v1/auth/signin.
func (s *Service) SignIn(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, "identity provider not configured", http.StatusServiceUnavailable)
		return
	}
	session, ok := s.authenticate(w, r, s.provider.SignIn)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// SignUp handles POST /api/v1/auth/signup.
func (s *Service) SignUp(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, "identity provider not configured", http.StatusServiceUnavailable)
		return
	}
	session, ok := s.authenticate(w, r, s.provider.SignUp)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// SignOut handles POST /api/v1/auth/signout.
func (s *Service) SignOut(w http.ResponseWriter, r *http.Request) {
	if s.provider == nil {
		writeError(w, "identity provider not configured", http.StatusServiceUnavailable)
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		writeError(w, "authorization header required", http.StatusUnauthorized)
		return
	}
	if err := s.provider.SignOut(r.Context(), token); err != nil {
		slog.Warn("sign out failed", "err", err)
		writeError(w, "sign out failed", http.StatusBadGateway)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authenticate decodes credentials, runs the provider call, and maps its
// coarse error categories onto HTTP statuses.
func (s *Service) authenticate(w http.ResponseWriter, r *http.Request, call func(context.Context, string, string) (*auth.Session, error)) (*auth.Session, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return nil, false
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, "email and password are required", http.StatusBadRequest)
		return nil, false
	}

	session, err := call(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, "invalid email or password", http.StatusUnauthorized)
		return nil, false
	case errors.Is(err, auth.ErrRateLimited):
		writeError(w, "too many attempts, please try again later", http.StatusTooManyRequests)
		return nil, false
	case err != nil:
		slog.Error("identity provider error", "err", err)
		writeError(w, "an error occurred while signing in, please try again", http.StatusBadGateway)
		return nil, false
	}
	return session, true
}
