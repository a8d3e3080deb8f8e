package validation

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCredentialsMissing rejects a connect attempt before any network call.
var ErrCredentialsMissing = errors.New("credentials missing")

// ValidateExchangeCredentials checks the exchange app key and session token
// are present. Called before the adapter touches the network.
func ValidateExchangeCredentials(appKey, sessionToken string) error {
	if strings.TrimSpace(appKey) == "" {
		return fmt.Errorf("%w: exchange app key", ErrCredentialsMissing)
	}
	if strings.TrimSpace(sessionToken) == "" {
		return fmt.Errorf("%w: exchange session token", ErrCredentialsMissing)
	}
	return nil
}

// ValidateBookmakerCredentials checks the scraped-bookmaker username and
// sanitized session cookie. A token shorter than 5 characters is treated as
// a paste accident, not a credential.
func ValidateBookmakerCredentials(username, sessionToken string) error {
	if strings.TrimSpace(username) == "" {
		return fmt.Errorf("%w: bookmaker username", ErrCredentialsMissing)
	}
	if len(SanitizeSessionToken(sessionToken)) < 5 {
		return fmt.Errorf("%w: bookmaker session cookie", ErrCredentialsMissing)
	}
	return nil
}
