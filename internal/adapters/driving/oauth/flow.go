package oauth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// BrowserOpener opens a URL for the user.
type BrowserOpener func(url string) error

// Flow runs the authorization code flow with PKCE against a loopback
// redirect.
type Flow struct {
	// Config is the OAuth client. Its RedirectURL is overwritten.
	Config *oauth2.Config

	// Open launches the consent page. Defaults to OpenBrowser.
	Open BrowserOpener

	// Prompt is told the consent URL before Open runs, so the user can
	// copy it when no browser is available.
	Prompt func(url string)

	// Port is the callback port; 0 picks a free one.
	Port int
}

// Authorize sends the user through consent and exchanges the returned
// code for a token. It blocks until the callback arrives or ctx ends.
func (f *Flow) Authorize(ctx context.Context) (*oauth2.Token, error) {
	if f.Config == nil {
		return nil, errors.New("oauth: client config is required")
	}

	state, err := RandomString(24)
	if err != nil {
		return nil, err
	}
	verifier := oauth2.GenerateVerifier()

	server := NewCallbackServer(f.Port, state)
	if err := server.Start(); err != nil {
		return nil, err
	}
	defer func() { _ = server.Stop() }()

	cfg := *f.Config
	cfg.RedirectURL = server.RedirectURI()

	authURL := cfg.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
		oauth2.S256ChallengeOption(verifier),
	)

	if f.Prompt != nil {
		f.Prompt(authURL)
	}
	open := f.Open
	if open == nil {
		open = OpenBrowser
	}
	// A failed launch is not fatal; the URL was already shown.
	_ = open(authURL)

	code, err := server.WaitForCode(ctx)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}
