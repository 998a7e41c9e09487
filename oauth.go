package qivivo

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
	"k8s.io/utils/clock"
)

const (
	// DefaultOAuthURL is the Qivivo token endpoint.
	DefaultOAuthURL = "https://account.qivivo.com/oauth/token"

	// TokenValidityWindow is how long an access token is trusted after it was issued.
	// Qivivo tokens live 30 minutes and the responses carry no expiry.
	TokenValidityWindow = 30 * time.Minute
)

// Credential identifies the API client to the token endpoint.
type Credential struct {
	ClientID     string
	ClientSecret string
}

// Token is a bearer token and the time it was obtained.
type Token struct {
	Value    string
	IssuedAt time.Time
}

// ValidAt reports whether the token may still be used at now.
func (t Token) ValidAt(now time.Time) bool {
	if t.Value == "" {
		return false
	}
	return now.Before(t.IssuedAt.Add(TokenValidityWindow))
}

// TokenManager owns the single live token of a client and renews it
// before it expires. It is safe for concurrent use; concurrent callers that
// find the token expired share one exchange.
type TokenManager struct {
	credential Credential
	tokenURL   string
	httpClient *http.Client
	clock      clock.PassiveClock
	logger     *slog.Logger
	metrics    *Metrics

	mu    sync.RWMutex
	token Token

	flight singleflight.Group
}

// NewTokenManager creates a TokenManager that exchanges cred at tokenURL.
// A nil httpClient uses http.DefaultClient and a nil clk uses the wall clock.
func NewTokenManager(cred Credential, tokenURL string, httpClient *http.Client, clk clock.PassiveClock) *TokenManager {
	if tokenURL == "" {
		tokenURL = DefaultOAuthURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &TokenManager{
		credential: cred,
		tokenURL:   tokenURL,
		httpClient: httpClient,
		clock:      clk,
	}
}

// EnsureValidToken returns a token that is valid now, acquiring a new one first
// when there is none or the current one is past its validity window.
func (m *TokenManager) EnsureValidToken(ctx context.Context) (string, error) {
	if tok, ok := m.current(); ok {
		return tok.Value, nil
	}

	ch := m.flight.DoChan("token", func() (any, error) {
		// Another caller may have stored a token while we waited for the flight.
		if tok, ok := m.current(); ok {
			return tok, nil
		}
		renewal := !m.Token().IssuedAt.IsZero()
		if renewal {
			m.log(ctx, slog.LevelDebug, "token_renewal", slog.Time("issued_at", m.Token().IssuedAt))
		}

		// Shared by every waiting caller; only the HTTP client timeout bounds it.
		tok, err := m.Acquire(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.token = tok
		m.mu.Unlock()

		m.log(ctx, slog.LevelInfo, "token_acquired",
			slog.Bool("renewal", renewal),
			slog.Time("issued_at", tok.IssuedAt),
		)
		return tok, nil
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(Token).Value, nil
	}
}

// Acquire performs the client-credentials exchange and returns the new token.
// It does not store the result; EnsureValidToken does.
func (m *TokenManager) Acquire(ctx context.Context) (Token, error) {
	cfg := clientcredentials.Config{
		ClientID:     m.credential.ClientID,
		ClientSecret: m.credential.ClientSecret,
		TokenURL:     m.tokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	tok, err := cfg.Token(context.WithValue(ctx, oauth2.HTTPClient, m.httpClient))
	if err != nil {
		m.metrics.observeTokenAcquisition("error")
		return Token{}, m.classify(err)
	}

	m.metrics.observeTokenAcquisition("success")
	return Token{Value: tok.AccessToken, IssuedAt: m.clock.Now()}, nil
}

// classify maps oauth2 failures onto the client's error types.
func (m *TokenManager) classify(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		authErr := &AuthenticationError{Err: err}
		if retrieveErr.Response != nil {
			authErr.StatusCode = retrieveErr.Response.StatusCode
		}
		return authErr
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return &TransportError{Method: http.MethodPost, URL: m.tokenURL, Err: urlErr.Err}
	}

	return &AuthenticationError{Err: err}
}

// Token returns a copy of the current token, which may be empty or expired.
func (m *TokenManager) Token() Token {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.token
}

// Valid reports whether the stored token can be used right now.
func (m *TokenManager) Valid() bool {
	_, ok := m.current()
	return ok
}

// Invalidate drops the stored token so the next request acquires a new one.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = Token{}
	m.mu.Unlock()
}

func (m *TokenManager) current() (Token, bool) {
	m.mu.RLock()
	tok := m.token
	m.mu.RUnlock()
	return tok, tok.ValidAt(m.clock.Now())
}

func (m *TokenManager) log(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	if m.logger == nil {
		return
	}
	m.logger.LogAttrs(ctx, level, msg, attrs...)
}
