package yosmart

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"store-monitor-backend/internal/metrics"
)

// tokenSafetyMargin is subtracted from the vendor-reported lifetime so a token
// is never used while close to expiry.
const tokenSafetyMargin = 5 * time.Minute

// minTokenTTL floors the effective cache lifetime when the vendor returns a
// short-lived token, so the TTL cannot go negative or near-zero.
const minTokenTTL = 5 * time.Minute

// AuthError indicates that a token grant request failed or returned no token.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("yosmart auth: %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TokenManager owns the process-wide access token cache. No other component
// may cache tokens independently.
type TokenManager struct {
	client       *http.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// NewTokenManager creates a token manager performing client-credentials grants
// against tokenURL with the given UAC pair.
func NewTokenManager(client *http.Client, tokenURL, clientID, clientSecret string) *TokenManager {
	return &TokenManager{
		client:       client,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// GetToken returns the cached token while its remaining lifetime exceeds the
// safety margin, otherwise performs a fresh grant.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && m.now().Before(m.expiresAt) {
		return m.token, nil
	}
	return m.grantLocked(ctx)
}

// ForceRefresh unconditionally discards any cached token and repeats the
// grant flow.
func (m *TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.token = ""
	return m.grantLocked(ctx)
}

// grantLocked performs the client-credentials grant. Callers must hold m.mu.
func (m *TokenManager) grantLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {m.clientID},
		"client_secret": {m.clientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Op: "build grant request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	metrics.TokenGrants.Inc()
	resp, err := m.client.Do(req)
	if err != nil {
		return "", &AuthError{Op: "grant request", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Op: "grant request", Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Op: "read grant response", Err: err}
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", &AuthError{Op: "decode grant response", Err: err}
	}
	if tok.AccessToken == "" {
		return "", &AuthError{Op: "grant response", Err: fmt.Errorf("no access token returned")}
	}

	ttl := time.Duration(tok.ExpiresIn)*time.Second - tokenSafetyMargin
	if ttl < minTokenTTL {
		ttl = minTokenTTL
	}

	m.token = tok.AccessToken
	m.expiresAt = m.now().Add(ttl)
	return m.token, nil
}
