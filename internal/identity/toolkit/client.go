// Package toolkit implements identity.Provider over the Identity Toolkit REST API.
package toolkit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/and161185/labrat/internal/identity"
	"github.com/and161185/labrat/internal/model"
)

const (
	DefaultBaseURL    = "https://identitytoolkit.googleapis.com/v1"
	DefaultTokenURL   = "https://securetoken.googleapis.com/v1/token"
	DefaultRequestURI = "http://localhost"

	defaultTTL = time.Hour
)

// Client talks to the Identity Toolkit and Secure Token endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	tokenURL   string
	requestURI string
	http       *http.Client
	now        func() time.Time
}

var _ identity.Provider = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for every call.
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithBaseURL overrides the Identity Toolkit base URL.
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = strings.TrimSuffix(u, "/") } }

// WithTokenURL overrides the Secure Token refresh URL.
func WithTokenURL(u string) Option { return func(c *Client) { c.tokenURL = u } }

// WithRequestURI sets the continue URI reported on federated sign-in.
func WithRequestURI(u string) Option { return func(c *Client) { c.requestURI = u } }

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// New constructs a client for the given web API key.
func New(apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("toolkit: empty api key")
	}
	c := &Client{
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		tokenURL:   DefaultTokenURL,
		requestURI: DefaultRequestURI,
		http:       http.DefaultClient,
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// ---- wire types ----

type authResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	FullName      string `json:"fullName"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
	ExpiresIn     string `json:"expiresIn"`
	EmailVerified bool   `json:"emailVerified"`
}

type errorEnvelope struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ---- identity.Provider ----

// SignInWithPassword calls accounts:signInWithPassword.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error) {
	req := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	var resp authResponse
	if err := c.call(ctx, "accounts:signInWithPassword", req, &resp); err != nil {
		return nil, err
	}
	return c.session(resp), nil
}

// SignUp calls accounts:signUp.
func (c *Client) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	req := map[string]any{"email": email, "password": password, "returnSecureToken": true}
	var resp authResponse
	if err := c.call(ctx, "accounts:signUp", req, &resp); err != nil {
		return nil, err
	}
	return c.session(resp), nil
}

// UpdateDisplayName calls accounts:update.
func (c *Client) UpdateDisplayName(ctx context.Context, sess *model.Session, name string) error {
	req := map[string]any{"idToken": sess.IDToken, "displayName": name, "returnSecureToken": false}
	var resp authResponse
	if err := c.call(ctx, "accounts:update", req, &resp); err != nil {
		return err
	}
	sess.DisplayName = name
	return nil
}

// SendEmailVerification calls accounts:sendOobCode with VERIFY_EMAIL.
func (c *Client) SendEmailVerification(ctx context.Context, sess *model.Session) error {
	req := map[string]any{"requestType": "VERIFY_EMAIL", "idToken": sess.IDToken}
	return c.call(ctx, "accounts:sendOobCode", req, nil)
}

// SendPasswordReset calls accounts:sendOobCode with PASSWORD_RESET.
func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	req := map[string]any{"requestType": "PASSWORD_RESET", "email": email}
	return c.call(ctx, "accounts:sendOobCode", req, nil)
}

// SignInWithIdp calls accounts:signInWithIdp with an OAuth access or ID token.
func (c *Client) SignInWithIdp(ctx context.Context, cred identity.IdpCredential) (*model.Session, error) {
	if cred.AccessToken == "" && cred.IDToken == "" {
		return nil, errors.New("toolkit: empty idp credential")
	}
	body := url.Values{"providerId": {cred.ProviderID}}
	if cred.IDToken != "" {
		body.Set("id_token", cred.IDToken)
	}
	if cred.AccessToken != "" {
		body.Set("access_token", cred.AccessToken)
	}
	req := map[string]any{
		"postBody":            body.Encode(),
		"requestUri":          c.requestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}
	var resp authResponse
	if err := c.call(ctx, "accounts:signInWithIdp", req, &resp); err != nil {
		return nil, err
	}
	sess := c.session(resp)
	if sess.DisplayName == "" {
		sess.DisplayName = cred.Name
	}
	if sess.Email == "" {
		sess.Email = cred.Email
	}
	return sess, nil
}

// DeleteAccount calls accounts:delete.
func (c *Client) DeleteAccount(ctx context.Context, sess *model.Session) error {
	return c.call(ctx, "accounts:delete", map[string]any{"idToken": sess.IDToken}, nil)
}

// Refresh exchanges the refresh token at the Secure Token endpoint.
func (c *Client) Refresh(ctx context.Context, sess *model.Session) error {
	if sess.RefreshToken == "" {
		return errors.New("toolkit: no refresh token")
	}
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  c.tokenURL + "?key=" + url.QueryEscape(c.apiKey),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.http)
	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: sess.RefreshToken}).Token()
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return decodeError(re.Response.StatusCode, re.Body)
		}
		return fmt.Errorf("identity token refresh: %w", err)
	}

	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		idToken = tok.AccessToken
	}
	sess.IDToken = idToken
	if tok.RefreshToken != "" {
		sess.RefreshToken = tok.RefreshToken
	}
	ttl := defaultTTL
	if !tok.Expiry.IsZero() {
		ttl = tok.Expiry.Sub(c.now())
	}
	identity.ApplyClaims(sess, ttl, c.now())
	return nil
}

// ---- helpers ----

func (c *Client) session(r authResponse) *model.Session {
	sess := &model.Session{
		UserID:        r.LocalID,
		DisplayName:   r.DisplayName,
		Email:         r.Email,
		EmailVerified: r.EmailVerified,
		IDToken:       r.IDToken,
		RefreshToken:  r.RefreshToken,
	}
	if sess.DisplayName == "" {
		sess.DisplayName = r.FullName
	}
	ttl := defaultTTL
	if secs, err := strconv.Atoi(r.ExpiresIn); err == nil && secs > 0 {
		ttl = time.Duration(secs) * time.Second
	}
	identity.ApplyClaims(sess, ttl, c.now())
	return sess
}

// call POSTs a JSON request to {base}/{method}?key=... and decodes the reply into out (if non-nil).
func (c *Client) call(ctx context.Context, method string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("identity %s: marshal: %w", method, err)
	}
	u := c.baseURL + "/" + method + "?key=" + url.QueryEscape(c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("identity %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("identity %s: %w", method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("identity %s: read: %w", method, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("identity %s: decode: %w", method, err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error.Message == "" {
		return &identity.Error{Status: status, Code: http.StatusText(status), Message: strings.TrimSpace(string(raw))}
	}
	return identity.ParseError(status, env.Error.Message)
}
