package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
)

// DriveReadOnlyScope is the only scope the Drive connector needs.
const DriveReadOnlyScope = "https://www.googleapis.com/auth/drive.readonly"

// ErrNoToken indicates the token file is missing or holds no usable credentials.
var ErrNoToken = errors.New("google: no valid Drive OAuth token found")

// authorizedUser mirrors the authorised-user token file written by the
// OAuth setup step.
type authorizedUser struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refresh_token"`
	TokenURI     string   `json:"token_uri"`
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	Scopes       []string `json:"scopes,omitempty"`
	Expiry       string   `json:"expiry,omitempty"`
}

// FileTokenSource serves tokens from an authorised-user token file and
// writes refreshed tokens back to it.
type FileTokenSource struct {
	mu   sync.Mutex
	path string
	user authorizedUser
	base oauth2.TokenSource
	last string
}

// NewFileTokenSource loads the token file at path. A missing file, or one
// without a refresh token and a valid access token, returns ErrNoToken.
func NewFileTokenSource(ctx context.Context, path string) (*FileTokenSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: expected token file %s", ErrNoToken, path)
		}
		return nil, fmt.Errorf("read token file: %w", err)
	}

	var user authorizedUser
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrNoToken, path, err)
	}

	tok := &oauth2.Token{
		AccessToken:  user.Token,
		RefreshToken: user.RefreshToken,
		TokenType:    "Bearer",
	}
	if user.Expiry != "" {
		if expiry, err := time.Parse(time.RFC3339Nano, user.Expiry); err == nil {
			tok.Expiry = expiry
		}
	}
	if tok.RefreshToken == "" && !tok.Valid() {
		return nil, fmt.Errorf("%w: %s has no refresh token and the access token is expired", ErrNoToken, path)
	}

	endpoint := googleoauth.Endpoint
	if user.TokenURI != "" {
		endpoint.TokenURL = user.TokenURI
	}
	scopes := user.Scopes
	if len(scopes) == 0 {
		scopes = []string{DriveReadOnlyScope}
	}
	cfg := &oauth2.Config{
		ClientID:     user.ClientID,
		ClientSecret: user.ClientSecret,
		Endpoint:     endpoint,
		Scopes:       scopes,
	}

	return &FileTokenSource{
		path: path,
		user: user,
		base: cfg.TokenSource(ctx, tok),
		last: tok.AccessToken,
	}, nil
}

// Token implements oauth2.TokenSource. When the underlying source
// refreshed the access token, the token file is rewritten.
func (s *FileTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.save(tok); err != nil {
			return nil, err
		}
	}
	return tok, nil
}

// save persists tok using the same file format it was read from.
func (s *FileTokenSource) save(tok *oauth2.Token) error {
	s.user.Token = tok.AccessToken
	if tok.RefreshToken != "" {
		s.user.RefreshToken = tok.RefreshToken
	}
	if !tok.Expiry.IsZero() {
		s.user.Expiry = tok.Expiry.UTC().Format(time.RFC3339)
	}
	return writeAuthorizedUser(s.path, s.user)
}

// writeAuthorizedUser writes the token file through a temp file in the
// same directory so readers never see a partial file.
func writeAuthorizedUser(path string, user authorizedUser) error {
	data, err := json.MarshalIndent(user, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal token: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".token-*.json")
	if err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save token: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save token: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save token: %w", err)
	}
	return nil
}
