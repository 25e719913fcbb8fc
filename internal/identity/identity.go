// Package identity describes the hosted identity provider consumed by the gateway.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/labrat/internal/model"
)

// Provider error codes as reported by the Identity Toolkit API.
const (
	CodeEmailNotFound   = "EMAIL_NOT_FOUND"
	CodeInvalidPassword = "INVALID_PASSWORD"
	CodeEmailExists     = "EMAIL_EXISTS"
	CodeWeakPassword    = "WEAK_PASSWORD"
	CodeTokenExpired    = "TOKEN_EXPIRED"

	// Returned instead of the two codes above when email enumeration
	// protection is enabled on the project.
	CodeInvalidCredentials = "INVALID_LOGIN_CREDENTIALS"
)

// Provider is the set of identity capabilities the gateway depends on.
type Provider interface {
	// SignInWithPassword verifies email/password credentials.
	SignInWithPassword(ctx context.Context, email, password string) (*model.Session, error)
	// SignUp creates an email/password account and signs it in.
	SignUp(ctx context.Context, email, password string) (*model.Session, error)
	// UpdateDisplayName sets the account display name and updates sess.
	UpdateDisplayName(ctx context.Context, sess *model.Session, name string) error
	// SendEmailVerification dispatches a verification email for the session's account.
	SendEmailVerification(ctx context.Context, sess *model.Session) error
	// SendPasswordReset dispatches a password reset email.
	SendPasswordReset(ctx context.Context, email string) error
	// SignInWithIdp exchanges a federated credential for a session.
	SignInWithIdp(ctx context.Context, cred IdpCredential) (*model.Session, error)
	// Refresh obtains a fresh bearer credential and updates sess in place.
	Refresh(ctx context.Context, sess *model.Session) error
	// DeleteAccount removes the session's account.
	DeleteAccount(ctx context.Context, sess *model.Session) error
}

// IdpCredential is the outcome of a federated consent flow.
type IdpCredential struct {
	ProviderID  string // e.g. "google.com"
	AccessToken string
	IDToken     string
	Name        string // display name reported by the IdP, may be empty
	Email       string
}

// Error is a provider rejection carrying the provider's error code.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" && e.Message != e.Code {
		return fmt.Sprintf("identity: %s (%s)", e.Code, e.Message)
	}
	return "identity: " + e.Code
}

// ParseError splits an Identity Toolkit message such as
// "WEAK_PASSWORD : Password should be at least 6 characters".
func ParseError(status int, message string) *Error {
	code, detail, found := strings.Cut(message, ":")
	code = strings.TrimSpace(code)
	if !found {
		return &Error{Status: status, Code: code, Message: code}
	}
	return &Error{Status: status, Code: code, Message: strings.TrimSpace(detail)}
}

// Claims are the ID token claims the client reads.
type Claims struct {
	jwt.RegisteredClaims
	UserID        string `json:"user_id"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
}

// ParseIDToken decodes ID token claims without verifying the signature.
// Verification is the job of whoever consumes the bearer token.
func ParseIDToken(token string) (Claims, error) {
	var c Claims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &c); err != nil {
		return Claims{}, fmt.Errorf("parse id token: %w", err)
	}
	return c, nil
}

// ApplyClaims fills session fields from the ID token when they are known.
// fallbackTTL is used when the token carries no exp.
func ApplyClaims(sess *model.Session, fallbackTTL time.Duration, now time.Time) {
	sess.ExpiresAt = now.Add(fallbackTTL)
	c, err := ParseIDToken(sess.IDToken)
	if err != nil {
		return
	}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	if sess.UserID == "" {
		sess.UserID = firstNonEmpty(c.UserID, c.Subject)
	}
	if sess.Email == "" {
		sess.Email = c.Email
	}
	if sess.DisplayName == "" {
		sess.DisplayName = c.Name
	}
	sess.EmailVerified = sess.EmailVerified || c.EmailVerified
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
