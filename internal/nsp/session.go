package nsp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// expiryBuffer is subtracted from the advertised token lifetime so a
// token never expires mid-flight.
const expiryBuffer = 5 * time.Minute

// SessionConfig holds credentials and endpoints for the token lifecycle.
type SessionConfig struct {
	AuthURL       string
	RevocationURL string
	Username      string
	Password      string
}

// tokenResponse is the REST gateway's token grant payload.
type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// SessionManager owns the NSP access token. It authenticates with
// client credentials on construction, refreshes ahead of expiry, and
// revokes the token on shutdown. Safe for concurrent use.
type SessionManager struct {
	client *Client
	cfg    SessionConfig
	logger *slog.Logger

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	expiry       time.Time

	now func() time.Time
}

// NewSessionManager authenticates immediately and returns a manager
// holding a valid token.
func NewSessionManager(ctx context.Context, client *Client, cfg SessionConfig, logger *slog.Logger) (*SessionManager, error) {
	m := &SessionManager{
		client: client,
		cfg:    cfg,
		logger: logger.With("component", "session"),
		now:    time.Now,
	}
	if err := m.authenticate(ctx); err != nil {
		return nil, fmt.Errorf("initial authentication: %w", err)
	}
	return m, nil
}

// AccessToken returns a token valid for at least the expiry buffer,
// refreshing first when needed. A refresh failure falls back to a full
// re-authentication before giving up.
func (m *SessionManager) AccessToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.now().Before(m.expiry) {
		return m.accessToken, nil
	}

	m.logger.Info("access token expiring, refreshing")
	if err := m.refreshLocked(ctx); err != nil {
		m.logger.Warn("token refresh failed, re-authenticating", "error", err)
		if err := m.authenticateLocked(ctx); err != nil {
			return "", err
		}
	}
	return m.accessToken, nil
}

// Revoke invalidates the current access token at the gateway. NSP
// treats revocation as a mandatory part of clean logout.
func (m *SessionManager) Revoke(ctx context.Context) error {
	m.mu.Lock()
	token := m.accessToken
	m.mu.Unlock()

	if token == "" {
		return nil
	}

	form := url.Values{
		"token":           {token},
		"token_type_hint": {"token"},
	}
	req, err := m.client.newFormRequest(ctx, m.cfg.RevocationURL, form)
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.cfg.Username, m.cfg.Password)

	resp, err := m.client.do(req)
	if err != nil {
		return fmt.Errorf("revocation request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return m.client.readError(resp)
	}

	m.logger.Info("access token revoked")
	return nil
}

func (m *SessionManager) authenticate(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticateLocked(ctx)
}

func (m *SessionManager) authenticateLocked(ctx context.Context) error {
	return m.requestTokenLocked(ctx, map[string]string{
		"grant_type": "client_credentials",
	})
}

func (m *SessionManager) refreshLocked(ctx context.Context) error {
	if m.refreshToken == "" {
		m.logger.Info("no refresh token held, re-authenticating")
		return m.authenticateLocked(ctx)
	}
	return m.requestTokenLocked(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": m.refreshToken,
	})
}

func (m *SessionManager) requestTokenLocked(ctx context.Context, grant map[string]string) error {
	req, err := m.client.newRequest(ctx, http.MethodPost, m.cfg.AuthURL, grant)
	if err != nil {
		return err
	}
	req.SetBasicAuth(m.cfg.Username, m.cfg.Password)

	resp, err := m.client.do(req)
	if err != nil {
		return fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return m.client.readError(resp)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return fmt.Errorf("token response carried no access token")
	}

	expiresIn := tr.ExpiresIn
	if expiresIn == 0 {
		expiresIn = 3600
	}

	m.accessToken = tr.AccessToken
	m.refreshToken = tr.RefreshToken
	m.expiry = m.now().Add(time.Duration(expiresIn)*time.Second - expiryBuffer)
	return nil
}
