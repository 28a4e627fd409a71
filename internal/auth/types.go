package auth

import (
	"encoding/json"
	"errors"
	"fmt"
)

// CredentialType represents the kind of JSON key file found in the data directory
type CredentialType int

const (
	CredentialTypeUnknown CredentialType = iota
	CredentialTypeOAuthClient
	CredentialTypeServiceAccount
)

// errUnknownCredentialType is returned for JSON that is neither an OAuth client
// nor a service account key.
var errUnknownCredentialType = errors.New("unknown credential type")

// DetectCredentialType examines the JSON structure to determine credential type.
// Only OAuth clients can run the installed-app flow; service account keys are
// recognised so the error message can say so.
func DetectCredentialType(data []byte) (CredentialType, error) {
	var check map[string]json.RawMessage
	if err := json.Unmarshal(data, &check); err != nil {
		return CredentialTypeUnknown, fmt.Errorf("failed to parse credential file: %w", err)
	}

	if raw, ok := check["type"]; ok {
		var typ string
		if json.Unmarshal(raw, &typ) == nil && typ == "service_account" {
			return CredentialTypeServiceAccount, nil
		}
	}

	for _, key := range []string{"installed", "web"} {
		if _, ok := check[key]; ok {
			return CredentialTypeOAuthClient, nil
		}
	}

	return CredentialTypeUnknown, errUnknownCredentialType
}

func (t CredentialType) String() string {
	switch t {
	case CredentialTypeOAuthClient:
		return "OAuth Client"
	case CredentialTypeServiceAccount:
		return "Service Account"
	default:
		return "Unknown"
	}
}
