package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"log/slog"

	"github.com/cli/browser"
	"github.com/drewfead/meetlink/internal/logging"
	"github.com/drewfead/meetlink/internal/meeting"
	"golang.org/x/oauth2"
)

// errReauthorize marks cache states that only a fresh consent can repair.
var errReauthorize = errors.New("cached token cannot be used")

// Authorizer obtains a bearer token for the calendar API, reusing the on-disk
// token cache when it still works and falling back to the interactive flow.
type Authorizer struct {
	credentialsPath string
	tokenCachePath  string
	scopes          []string
	flow            FlowOptions
	logger          *slog.Logger
}

// Option configures an Authorizer
type Option func(*Authorizer)

// WithScopes overrides DefaultScopes
func WithScopes(scopes ...string) Option {
	return func(a *Authorizer) { a.scopes = scopes }
}

// WithFlowOptions overrides the interactive flow settings
func WithFlowOptions(opts FlowOptions) Option {
	return func(a *Authorizer) { a.flow = opts }
}

// NewAuthorizer creates an Authorizer reading the client secret from
// credentialsPath and caching tokens at tokenCachePath.
func NewAuthorizer(credentialsPath, tokenCachePath string, logger *slog.Logger, opts ...Option) *Authorizer {
	if logger == nil {
		logger = slog.Default()
	}

	a := &Authorizer{
		credentialsPath: credentialsPath,
		tokenCachePath:  tokenCachePath,
		scopes:          DefaultScopes,
		flow:            FlowOptions{OpenURL: browser.OpenURL},
		logger:          logging.WithComponent(logger, "auth"),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.flow.Logger == nil {
		a.flow.Logger = a.logger
	}

	return a
}

// Authorize returns a valid access token. It blocks on user consent when the
// cache is missing or unreadable, or when the provider rejects the refresh
// token. Any other refresh failure, such as the token endpoint being
// unreachable, is returned without prompting.
func (a *Authorizer) Authorize(ctx context.Context) (*oauth2.Token, error) {
	config, err := LoadConfig(a.credentialsPath, a.scopes...)
	if err != nil {
		return nil, err
	}

	tok, err := a.cachedToken(ctx, config)
	switch {
	case err == nil:
		return tok, nil
	case !errors.Is(err, errReauthorize):
		return nil, err
	}
	a.logger.Debug("no usable cached token, starting interactive authorization", logging.Err(err))

	tok, err = GetTokenFromWeb(ctx, config, a.flow)
	if err != nil {
		return nil, err
	}

	a.persist(tok)
	return tok, nil
}

// cachedToken loads the cached token and refreshes it if it has expired.
func (a *Authorizer) cachedToken(ctx context.Context, config *oauth2.Config) (*oauth2.Token, error) {
	cached, err := LoadToken(a.tokenCachePath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errReauthorize, err)
	}
	if !cached.Valid() && cached.RefreshToken == "" {
		return nil, fmt.Errorf("%w: cached token expired and has no refresh token", errReauthorize)
	}

	tok, err := config.TokenSource(ctx, cached).Token()
	if err != nil {
		if grantRejected(err) {
			return nil, fmt.Errorf("%w: refresh token rejected: %w", errReauthorize, err)
		}
		return nil, fmt.Errorf("%w: unable to refresh cached token: %w", meeting.ErrAuth, err)
	}

	if tok.AccessToken != cached.AccessToken {
		a.logger.Debug("refreshed cached token", logging.Token(tok.AccessToken))
		a.persist(tok)
	}

	return tok, nil
}

// grantRejected reports whether the token endpoint refused the refresh token
// itself, as opposed to failing to answer.
func grantRejected(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	if re.ErrorCode == "invalid_grant" {
		return true
	}
	return re.Response != nil &&
		(re.Response.StatusCode == http.StatusBadRequest || re.Response.StatusCode == http.StatusUnauthorized)
}

// persist saves the token for future runs. Failure only costs a re-consent later.
func (a *Authorizer) persist(tok *oauth2.Token) {
	if err := SaveToken(a.tokenCachePath, tok); err != nil {
		a.logger.Warn("unable to save token cache", "path", a.tokenCachePath, logging.Err(err))
	}
}
