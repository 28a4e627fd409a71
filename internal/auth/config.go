package auth

import (
	"fmt"
	"os"

	"github.com/drewfead/meetlink/internal/meeting"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

// DefaultScopes are requested when no scopes are configured
var DefaultScopes = []string{calendar.CalendarScope}

// LoadConfig loads OAuth client credentials from the specified file path
func LoadConfig(credentialsPath string, scopes ...string) (*oauth2.Config, error) {
	if len(scopes) == 0 {
		scopes = DefaultScopes
	}

	b, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to read credentials file: %w", meeting.ErrAuth, err)
	}

	credType, err := DetectCredentialType(b)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", meeting.ErrAuth, credentialsPath, err)
	}
	if credType != CredentialTypeOAuthClient {
		return nil, fmt.Errorf("%w: expected OAuth client credentials in %s, got %s", meeting.ErrAuth, credentialsPath, credType)
	}

	// Parse the credentials file and create OAuth config
	config, err := google.ConfigFromJSON(b, scopes...)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse client secret file to config: %w", meeting.ErrAuth, err)
	}

	return config, nil
}
