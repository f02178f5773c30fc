package google

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const installedClient = `{
  "installed": {
    "client_id": "client-123.apps.googleusercontent.com",
    "client_secret": "shh",
    "auth_uri": "https://accounts.google.com/o/oauth2/auth",
    "token_uri": "https://oauth2.googleapis.com/token",
    "redirect_uris": ["http://localhost"]
  }
}`

func TestLoadClientConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	require.NoError(t, os.WriteFile(path, []byte(installedClient), 0o600))

	cfg, err := LoadClientConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "client-123.apps.googleusercontent.com", cfg.ClientID)
	assert.Equal(t, "shh", cfg.ClientSecret)
	assert.Equal(t, []string{DriveReadOnlyScope}, cfg.Scopes)
	assert.Equal(t, "https://oauth2.googleapis.com/token", cfg.Endpoint.TokenURL)
}

func TestLoadClientConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadClientConfig(filepath.Join(dir, "absent.json"))
	assert.ErrorIs(t, err, ErrNoCredentials)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"web": 1}`), 0o600))
	_, err = LoadClientConfig(bad)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoCredentials)
}

func TestSaveToken_RoundTrip(t *testing.T) {
	cfg := &oauth2.Config{
		ClientID:     "id",
		ClientSecret: "secret",
		Endpoint:     oauth2.Endpoint{TokenURL: "https://example.com/token"},
		Scopes:       []string{DriveReadOnlyScope},
	}
	expiry := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	path := filepath.Join(t.TempDir(), "token_drive.json")

	require.NoError(t, SaveToken(path, cfg, &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       expiry,
	}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var user authorizedUser
	require.NoError(t, json.Unmarshal(data, &user))
	assert.Equal(t, "refresh", user.RefreshToken)
	assert.Equal(t, "https://example.com/token", user.TokenURI)
	assert.Equal(t, "id", user.ClientID)

	ts, err := NewFileTokenSource(context.Background(), path)
	require.NoError(t, err)
	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
	assert.True(t, tok.Expiry.Equal(expiry))
}

func TestSaveToken_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	err := SaveToken(path, &oauth2.Config{}, &oauth2.Token{})
	assert.ErrorIs(t, err, ErrNoToken)
	assert.NoFileExists(t, path)
}
