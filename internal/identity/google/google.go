// Package google runs the interactive Google consent flow and returns a credential
// the identity provider accepts for federated sign-in.
package google

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofrs/uuid/v5"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"github.com/and161185/labrat/internal/identity"
)

// ProviderID is the identity provider id for Google accounts.
const ProviderID = "google.com"

var (
	ErrNotValid      = errors.New("google: not valid")
	ErrStateMismatch = errors.New("google: state mismatch")
)

// Callback is what the user brings back from the consent page.
type Callback struct {
	Code  string
	State string
}

// Consenter presents the consent URL and returns the callback.
type Consenter interface {
	Consent(ctx context.Context, authURL string) (Callback, error)
}

// Flow is an authorization-code flow with PKCE against Google.
type Flow struct {
	config  *oauth2.Config
	consent Consenter
	apiOpts []option.ClientOption
}

// Option customizes a Flow.
type Option func(*Flow)

// WithEndpoint overrides the Google OAuth endpoint.
func WithEndpoint(ep oauth2.Endpoint) Option { return func(f *Flow) { f.config.Endpoint = ep } }

// WithAPIOptions passes options to the userinfo API client.
func WithAPIOptions(opts ...option.ClientOption) Option {
	return func(f *Flow) { f.apiOpts = append(f.apiOpts, opts...) }
}

// NewFlow builds a consent flow for an OAuth client.
func NewFlow(clientID, clientSecret, redirectURL string, consent Consenter, opts ...Option) (*Flow, error) {
	if clientID == "" || redirectURL == "" || consent == nil {
		return nil, fmt.Errorf(`%w: client id, redirect url and consenter are required`, ErrNotValid)
	}
	f := &Flow{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", goauth2.UserinfoEmailScope, goauth2.UserinfoProfileScope},
			Endpoint:     googleoauth.Endpoint,
		},
		consent: consent,
	}
	for _, o := range opts {
		o(f)
	}
	return f, nil
}

// Authorize runs consent, exchanges the code and fetches the Google profile.
func (f *Flow) Authorize(ctx context.Context) (identity.IdpCredential, error) {
	verifier := oauth2.GenerateVerifier()
	state, err := uuid.NewV4()
	if err != nil {
		return identity.IdpCredential{}, err
	}

	authURL := f.config.AuthCodeURL(state.String(), oauth2.AccessTypeOnline, oauth2.S256ChallengeOption(verifier))
	cb, err := f.consent.Consent(ctx, authURL)
	if err != nil {
		return identity.IdpCredential{}, fmt.Errorf("google consent: %w", err)
	}
	if cb.Code == "" {
		return identity.IdpCredential{}, fmt.Errorf("%w: empty authorization code", ErrNotValid)
	}
	if cb.State != state.String() {
		return identity.IdpCredential{}, ErrStateMismatch
	}

	tok, err := f.config.Exchange(ctx, cb.Code, oauth2.VerifierOption(verifier))
	if err != nil {
		return identity.IdpCredential{}, fmt.Errorf("google exchange: %w", err)
	}

	user, err := f.FetchUser(ctx, tok)
	if err != nil {
		return identity.IdpCredential{}, fmt.Errorf("google userinfo: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	return identity.IdpCredential{
		ProviderID:  ProviderID,
		AccessToken: tok.AccessToken,
		IDToken:     idToken,
		Name:        user.Name,
		Email:       user.Email,
	}, nil
}

// FetchUser loads the Google profile behind token.
func (f *Flow) FetchUser(ctx context.Context, token *oauth2.Token) (*goauth2.Userinfo, error) {
	opts := append([]option.ClientOption{option.WithTokenSource(f.config.TokenSource(ctx, token))}, f.apiOpts...)
	service, err := goauth2.NewService(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return service.Userinfo.Get().Context(ctx).Do()
}

// ParseCallback parses the full redirect URL. A bare code is rejected:
// without the state parameter the callback cannot be tied to this flow.
func ParseCallback(raw string) (Callback, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Callback{}, fmt.Errorf("%w: empty callback", ErrNotValid)
	}
	if !strings.Contains(raw, "?") {
		return Callback{}, fmt.Errorf("%w: paste the full redirect URL, not just the code", ErrNotValid)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Callback{}, fmt.Errorf("%w: %v", ErrNotValid, err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return Callback{}, fmt.Errorf("google consent denied: %s", e)
	}
	if q.Get("code") == "" {
		return Callback{}, fmt.Errorf("%w: no code in callback", ErrNotValid)
	}
	if q.Get("state") == "" {
		return Callback{}, fmt.Errorf("%w: no state in callback", ErrNotValid)
	}
	return Callback{Code: q.Get("code"), State: q.Get("state")}, nil
}
