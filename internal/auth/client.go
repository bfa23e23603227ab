// Package auth integrates the external identity provider: a REST client
// for the sign-in/sign-up/sign-out flows and HTTP middleware that guards
// API routes by validating the access tokens the provider issues.
//
// The provider itself is an opaque external service; only its coarse
// error categories surface here.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	// ErrInvalidCredentials is returned for a rejected email/password pair.
	ErrInvalidCredentials = errors.New("auth: invalid email or password")

	// ErrRateLimited is returned when the provider throttles the request.
	ErrRateLimited = errors.New("auth: too many attempts, try again later")
)

// Session is an authenticated provider session.
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

// User is the provider's user record.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// ProviderProfile is the provider-side profile row for a user.
type ProviderProfile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// Client talks to the identity provider.
type Client struct {
	http *resty.Client
}

// NewClient creates a provider client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(10 * time.Second).
			SetHeader("Accept", "application/json"),
	}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn exchanges an email/password pair for a session.
func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&session).
		Post("/token?grant_type=password")
	if err != nil {
		return nil, fmt.Errorf("auth: sign in: %w", err)
	}
	if err := categorize(resp); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignUp registers a new user and returns the initial session.
func (c *Client) SignUp(ctx context.Context, email, password string) (*Session, error) {
	var session Session
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(credentials{Email: email, Password: password}).
		SetResult(&session).
		Post("/signup")
	if err != nil {
		return nil, fmt.Errorf("auth: sign up: %w", err)
	}
	if err := categorize(resp); err != nil {
		return nil, err
	}
	return &session, nil
}

// SignOut revokes the session behind the given access token.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		Post("/logout")
	if err != nil {
		return fmt.Errorf("auth: sign out: %w", err)
	}
	return categorize(resp)
}

// Profile fetches the provider-side profile for a user id.
func (c *Client) Profile(ctx context.Context, userID string) (*ProviderProfile, error) {
	var profile ProviderProfile
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&profile).
		Get("/profiles/" + userID)
	if err != nil {
		return nil, fmt.Errorf("auth: fetch profile: %w", err)
	}
	if err := categorize(resp); err != nil {
		return nil, err
	}
	return &profile, nil
}

// categorize maps provider status codes onto the coarse error taxonomy.
func categorize(resp *resty.Response) error {
	switch {
	case resp.IsSuccess():
		return nil
	case resp.StatusCode() == http.StatusBadRequest, resp.StatusCode() == http.StatusUnauthorized:
		return ErrInvalidCredentials
	case resp.StatusCode() == http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return fmt.Errorf("auth: provider returned %d", resp.StatusCode())
	}
}
