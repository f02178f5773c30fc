package google

import (
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// ErrNoCredentials indicates the OAuth client file is missing.
var ErrNoCredentials = errors.New("google: OAuth client credentials not found")

// LoadClientConfig reads an OAuth client file (the "Desktop app" JSON
// downloaded from the Cloud console) and returns a config for the Drive
// read-only scope. The redirect URL is left for the caller to set.
func LoadClientConfig(path string) (*oauth2.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCredentials, path)
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	cfg, err := googleoauth.ConfigFromJSON(data, DriveReadOnlyScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToken writes tok as an authorised-user token file readable by
// NewFileTokenSource.
func SaveToken(path string, cfg *oauth2.Config, tok *oauth2.Token) error {
	if tok == nil || (tok.AccessToken == "" && tok.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", ErrNoToken)
	}

	user := authorizedUser{
		Token:        tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenURI:     cfg.Endpoint.TokenURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
	}
	if !tok.Expiry.IsZero() {
		user.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	return writeAuthorizedUser(path, user)
}
