// package auth manages the OAuth2 credential used for every outbound API call.
//
// One long-lived refresh token is held for the life of the process; short-lived
// access tokens are minted from it on demand. Concurrent refreshes are coalesced
// so at most one token request is in flight at a time.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/livesync/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"

	// Tokens are treated as expired this long before their real expiry.
	refreshBuffer = 5 * time.Minute
)

// Scopes required for playlist reads and mutations.
var Scopes = []string{"https://www.googleapis.com/auth/youtube"}

// NewConfig builds the [oauth2.Config] for the YouTube Data API from stored credentials.
func NewConfig(creds shared.YouTubeConfig) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		RedirectURL:  creds.RedirectURI,
		Scopes:       Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  googleAuthURL,
			TokenURL: googleTokenURL,
		},
	}
}

// Manager owns the refresh token and hands out valid access tokens.
//
// Safe for concurrent use: callers arriving while a refresh is in flight await
// the same outstanding request instead of issuing duplicates.
type Manager struct {
	conf         *oauth2.Config
	refreshToken string
	client       *http.Client
	logger       *log.Logger
	now          func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
	group singleflight.Group
}

// ManagerOpts contains configuration options for creating a Manager.
type ManagerOpts struct {
	Credentials shared.YouTubeConfig
	Client      *http.Client
	Logger      *log.Logger
}

// NewManager creates a Manager for the given credentials.
func NewManager(opts ManagerOpts) *Manager {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	return &Manager{
		conf:         NewConfig(opts.Credentials),
		refreshToken: opts.Credentials.RefreshToken,
		client:       opts.Client,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// Token returns a valid access token, refreshing it first if the cached one
// is missing or within the refresh buffer of its expiry.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(); ok {
		return tok, nil
	}

	v, err, _ := m.group.Do("refresh", func() (any, error) {
		// A refresh may have completed between the cache miss and joining the flight.
		if tok, ok := m.cached(); ok {
			return tok, nil
		}

		token, err := m.refresh(ctx)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.token = token
		m.mu.Unlock()

		m.logger.Debug("access token refreshed", "expires_at", token.Expiry)
		return token.AccessToken, nil
	})
	if err != nil {
		return "", err
	}

	return v.(string), nil
}

// cached returns the stored access token if it is still outside the refresh buffer.
func (m *Manager) cached() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token == nil || m.token.AccessToken == "" {
		return "", false
	}
	if !m.now().Before(m.token.Expiry.Add(-refreshBuffer)) {
		return "", false
	}
	return m.token.AccessToken, true
}

// refresh exchanges the refresh token for a new access token.
//
// Never retried here: transient refresh failures surface to the caller, and a
// rejected refresh token yields an error telling the operator to re-authorize.
func (m *Manager) refresh(ctx context.Context) (*oauth2.Token, error) {
	if m.refreshToken == "" {
		return nil, shared.ErrNoRefreshToken
	}

	form := url.Values{
		"client_id":     {m.conf.ClientID},
		"client_secret": {m.conf.ClientSecret},
		"refresh_token": {m.refreshToken},
		"grant_type":    {"refresh_token"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.conf.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create refresh request: %v", shared.ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	var payload struct {
		AccessToken      string `json:"access_token"`
		TokenType        string `json:"token_type"`
		ExpiresIn        int    `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode refresh response: %v", shared.ErrRefreshFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if payload.Error == "invalid_grant" {
			return nil, fmt.Errorf("%w: %s: run 'livesync auth login' to obtain a new refresh token",
				shared.ErrReauthorizationRequired, payload.ErrorDescription)
		}
		return nil, fmt.Errorf("%w: status %d: %s", shared.ErrRefreshFailed, resp.StatusCode, payload.Error)
	}

	if payload.AccessToken == "" {
		return nil, fmt.Errorf("%w: response contained no access token", shared.ErrRefreshFailed)
	}

	return &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      m.now().Add(time.Duration(payload.ExpiresIn) * time.Second),
	}, nil
}
