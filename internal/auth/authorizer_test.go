package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/drewfead/meetlink/internal/meeting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// oauthServer fakes Google's token endpoint.
type oauthServer struct {
	*httptest.Server
	mu          sync.Mutex
	grants      []url.Values
	rejectGrant bool
	// failStatus, when set, answers every grant with a server error
	failStatus  int
	accessToken string
}

func newOAuthServer(t *testing.T) *oauthServer {
	t.Helper()

	s := &oauthServer{accessToken: "fresh-access-token"}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		require.NoError(t, r.ParseForm())

		s.mu.Lock()
		s.grants = append(s.grants, r.PostForm)
		reject := s.rejectGrant
		failStatus := s.failStatus
		s.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if failStatus != 0 {
			w.WriteHeader(failStatus)
			fmt.Fprint(w, `{"error":"backend_error"}`)
			return
		}
		if reject {
			w.WriteHeader(http.StatusBadRequest)
			fmt.Fprint(w, `{"error":"invalid_grant"}`)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  s.accessToken,
			"token_type":    "Bearer",
			"refresh_token": "refresh-token",
			"expires_in":    3600,
		})
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *oauthServer) grantTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var types []string
	for _, g := range s.grants {
		types = append(types, g.Get("grant_type"))
	}
	return types
}

func (s *oauthServer) lastGrant() url.Values {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grants[len(s.grants)-1]
}

// writeCredentials writes an installed-app client secret pointing at s.
func writeCredentials(t *testing.T, dir string, s *oauthServer) string {
	t.Helper()

	path := filepath.Join(dir, "credentials.json")
	data := fmt.Sprintf(`{"installed":{"client_id":"client-id","client_secret":"client-secret","auth_uri":"%[1]s/auth","token_uri":"%[1]s/token","redirect_uris":["http://localhost"]}}`, s.URL)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	return path
}

// fakeBrowser answers the consent page by calling the redirect URI.
type fakeBrowser struct {
	t      *testing.T
	mu     sync.Mutex
	opened []string
	// respond builds the callback query from the consent URL query
	respond func(q url.Values) url.Values
}

func (b *fakeBrowser) OpenURL(authURL string) error {
	b.mu.Lock()
	b.opened = append(b.opened, authURL)
	b.mu.Unlock()

	if b.respond == nil {
		return nil
	}

	u, err := url.Parse(authURL)
	require.NoError(b.t, err)
	q := u.Query()

	callback := q.Get("redirect_uri") + "?" + b.respond(q).Encode()
	go func() {
		resp, err := http.Get(callback)
		if err == nil {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}
	}()
	return nil
}

func (b *fakeBrowser) openedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.opened)
}

func approve(q url.Values) url.Values {
	return url.Values{"code": {"auth-code"}, "state": {q.Get("state")}}
}

func newTestAuthorizer(t *testing.T, s *oauthServer, b *fakeBrowser) (*Authorizer, string) {
	t.Helper()

	dir := t.TempDir()
	creds := writeCredentials(t, dir, s)
	cache := filepath.Join(dir, "tokencache.json")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	a := NewAuthorizer(creds, cache, logger, WithFlowOptions(FlowOptions{
		OpenURL: b.OpenURL,
		Timeout: 5 * time.Second,
	}))
	return a, cache
}

func TestAuthorize_InteractiveFlow(t *testing.T) {
	s := newOAuthServer(t)
	b := &fakeBrowser{t: t, respond: approve}
	a, cache := newTestAuthorizer(t, s, b)

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fresh-access-token", tok.AccessToken)
	assert.Equal(t, 1, b.openedCount())
	assert.Equal(t, []string{"authorization_code"}, s.grantTypes())

	grant := s.lastGrant()
	assert.Equal(t, "auth-code", grant.Get("code"))
	assert.NotEmpty(t, grant.Get("code_verifier"))

	cached, err := LoadToken(cache)
	require.NoError(t, err)
	assert.Equal(t, "fresh-access-token", cached.AccessToken)
	assert.Equal(t, "refresh-token", cached.RefreshToken)
}

func TestAuthorize_ConsentURL(t *testing.T) {
	s := newOAuthServer(t)
	b := &fakeBrowser{t: t, respond: approve}
	a, _ := newTestAuthorizer(t, s, b)

	_, err := a.Authorize(context.Background())
	require.NoError(t, err)

	u, err := url.Parse(b.opened[0])
	require.NoError(t, err)
	q := u.Query()

	assert.Equal(t, s.URL+"/auth", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "https://www.googleapis.com/auth/calendar", q.Get("scope"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("state"))
	assert.Regexp(t, `^http://127\.0\.0\.1:\d+/oauth2callback$`, q.Get("redirect_uri"))
}

func TestAuthorize_UsesValidCachedToken(t *testing.T) {
	s := newOAuthServer(t)
	b := &fakeBrowser{t: t}
	a, cache := newTestAuthorizer(t, s, b)

	require.NoError(t, SaveToken(cache, &oauth2.Token{
		AccessToken:  "cached-access-token",
		TokenType:    "Bearer",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(time.Hour),
	}))

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "cached-access-token", tok.AccessToken)
	assert.Zero(t, b.openedCount())
	assert.Empty(t, s.grantTypes())
}

func TestAuthorize_RefreshesExpiredToken(t *testing.T) {
	s := newOAuthServer(t)
	s.accessToken = "refreshed-access-token"
	b := &fakeBrowser{t: t}
	a, cache := newTestAuthorizer(t, s, b)

	require.NoError(t, SaveToken(cache, &oauth2.Token{
		AccessToken:  "stale-access-token",
		TokenType:    "Bearer",
		RefreshToken: "refresh-token",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "refreshed-access-token", tok.AccessToken)
	assert.Equal(t, []string{"refresh_token"}, s.grantTypes())
	assert.Zero(t, b.openedCount())

	cached, err := LoadToken(cache)
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access-token", cached.AccessToken)
}

func TestAuthorize_RevokedRefreshTokenFallsBackToConsent(t *testing.T) {
	s := newOAuthServer(t)
	s.rejectGrant = true
	b := &fakeBrowser{t: t, respond: func(q url.Values) url.Values {
		s.mu.Lock()
		s.rejectGrant = false
		s.mu.Unlock()
		return approve(q)
	}}
	a, cache := newTestAuthorizer(t, s, b)

	require.NoError(t, SaveToken(cache, &oauth2.Token{
		AccessToken:  "stale-access-token",
		RefreshToken: "revoked",
		Expiry:       time.Now().Add(-time.Hour),
	}))

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fresh-access-token", tok.AccessToken)
	assert.Equal(t, 1, b.openedCount())

	// the client may retry the rejected refresh with a different auth style
	grants := s.grantTypes()
	require.GreaterOrEqual(t, len(grants), 2)
	assert.Equal(t, "refresh_token", grants[0])
	assert.Equal(t, "authorization_code", grants[len(grants)-1])
}

func TestAuthorize_RefreshFailureDoesNotPrompt(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *oauthServer)
	}{
		{name: "token endpoint unreachable", setup: func(s *oauthServer) { s.Close() }},
		{name: "token endpoint unavailable", setup: func(s *oauthServer) { s.failStatus = http.StatusServiceUnavailable }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOAuthServer(t)
			b := &fakeBrowser{t: t, respond: approve}
			a, cache := newTestAuthorizer(t, s, b)

			require.NoError(t, SaveToken(cache, &oauth2.Token{
				AccessToken:  "stale-access-token",
				RefreshToken: "refresh-token",
				Expiry:       time.Now().Add(-time.Hour),
			}))
			tt.setup(s)

			start := time.Now()
			_, err := a.Authorize(context.Background())
			require.ErrorIs(t, err, meeting.ErrAuth)

			assert.Zero(t, b.openedCount())
			assert.Less(t, time.Since(start), a.flow.Timeout)

			cached, err := LoadToken(cache)
			require.NoError(t, err)
			assert.Equal(t, "refresh-token", cached.RefreshToken)
		})
	}
}

func TestAuthorize_ExpiredTokenWithoutRefreshTokenPrompts(t *testing.T) {
	s := newOAuthServer(t)
	b := &fakeBrowser{t: t, respond: approve}
	a, cache := newTestAuthorizer(t, s, b)

	require.NoError(t, SaveToken(cache, &oauth2.Token{
		AccessToken: "stale-access-token",
		Expiry:      time.Now().Add(-time.Hour),
	}))

	tok, err := a.Authorize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "fresh-access-token", tok.AccessToken)
	assert.Equal(t, 1, b.openedCount())
	assert.Equal(t, []string{"authorization_code"}, s.grantTypes())
}

func TestAuthorize_Failures(t *testing.T) {
	tests := []struct {
		name    string
		respond func(q url.Values) url.Values
		reject  bool
		timeout time.Duration
	}{
		{
			name: "consent denied",
			respond: func(q url.Values) url.Values {
				return url.Values{"error": {"access_denied"}, "state": {q.Get("state")}}
			},
		},
		{
			name: "state mismatch",
			respond: func(url.Values) url.Values {
				return url.Values{"code": {"auth-code"}, "state": {"forged"}}
			},
		},
		{
			name: "missing code",
			respond: func(q url.Values) url.Values {
				return url.Values{"state": {q.Get("state")}}
			},
		},
		{
			name:    "token exchange rejected",
			respond: approve,
			reject:  true,
		},
		{
			name:    "user never completes consent",
			timeout: 100 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newOAuthServer(t)
			s.rejectGrant = tt.reject
			b := &fakeBrowser{t: t, respond: tt.respond}
			a, cache := newTestAuthorizer(t, s, b)
			if tt.timeout > 0 {
				a.flow.Timeout = tt.timeout
			}

			_, err := a.Authorize(context.Background())
			require.ErrorIs(t, err, meeting.ErrAuth)

			_, statErr := os.Stat(cache)
			assert.True(t, os.IsNotExist(statErr), "no token should be cached")
		})
	}
}

func TestAuthorize_ContextCancelled(t *testing.T) {
	s := newOAuthServer(t)
	b := &fakeBrowser{t: t}
	a, _ := newTestAuthorizer(t, s, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Authorize(ctx)
	require.ErrorIs(t, err, meeting.ErrAuth)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAuthorize_BadCredentials(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{name: "missing file"},
		{name: "malformed json", contents: "{not json"},
		{name: "service account", contents: `{"type":"service_account","client_email":"svc@example.iam.gserviceaccount.com"}`},
		{name: "unknown shape", contents: `{"foo":"bar"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			creds := filepath.Join(dir, "credentials.json")
			if tt.contents != "" {
				require.NoError(t, os.WriteFile(creds, []byte(tt.contents), 0o600))
			}
			b := &fakeBrowser{t: t}
			a := NewAuthorizer(creds, filepath.Join(dir, "tokencache.json"), nil,
				WithFlowOptions(FlowOptions{OpenURL: b.OpenURL}))

			_, err := a.Authorize(context.Background())
			require.ErrorIs(t, err, meeting.ErrAuth)
			assert.Zero(t, b.openedCount())
		})
	}
}
