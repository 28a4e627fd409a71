package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/drewfead/meetlink/internal/meeting"
	"github.com/google/renameio/v2"
	"golang.org/x/oauth2"
)

const tokenFilePermMode = 0600

// ErrNoCachedToken is returned by LoadToken when the cache file does not exist
var ErrNoCachedToken = errors.New("no cached token")

// LoadToken reads the token cache. A file holding neither an access token nor
// a refresh token is rejected, since nothing in it can authorize a request.
func LoadToken(tokenPath string) (*oauth2.Token, error) {
	b, err := os.ReadFile(tokenPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w at %s", meeting.ErrAuth, ErrNoCachedToken, tokenPath)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read token cache: %w", meeting.ErrAuth, err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, fmt.Errorf("%w: token cache %s is malformed: %w", meeting.ErrAuth, tokenPath, err)
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("%w: token cache %s holds no usable token", meeting.ErrAuth, tokenPath)
	}

	return &tok, nil
}

// SaveToken replaces the token file atomically with restricted permissions
func SaveToken(tokenPath string, token *oauth2.Token) error {
	b, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("unable to encode token: %w", err)
	}

	if err := renameio.WriteFile(tokenPath, b, tokenFilePermMode); err != nil {
		return fmt.Errorf("unable to write token file: %w", err)
	}

	return nil
}
