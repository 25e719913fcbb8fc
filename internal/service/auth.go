// Package service contains the authentication and profile workflows.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/identity"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/validate"
)

// AuthService is the session/credential gateway.
type AuthService interface {
	// Login validates input and signs in with email and password.
	Login(ctx context.Context, email, password string, remember bool) (*model.Session, error)
	// Register creates an account, sends the verification email and writes the profile.
	Register(ctx context.Context, username, email, password, confirm string) (*model.Session, error)
	// ForgotPassword dispatches a reset email.
	ForgotPassword(ctx context.Context, email string) error
	// SignInWithGoogle runs the federated consent flow and syncs the profile.
	SignInWithGoogle(ctx context.Context) (*model.Session, error)
	// BearerToken returns a usable bearer credential for sess.
	BearerToken(ctx context.Context, sess *model.Session, forceRefresh bool) (string, error)
	// SignOut drops the credentials held by sess.
	SignOut(sess *model.Session)
}

// FederatedAuthorizer runs an interactive consent flow with a third-party IdP.
type FederatedAuthorizer interface {
	Authorize(ctx context.Context) (identity.IdpCredential, error)
}

// EmailMemory persists the remembered login email.
type EmailMemory interface {
	Remember(email string) error
	Forget() error
}

// tokenSkew refreshes credentials slightly before they expire.
const tokenSkew = 30 * time.Second

type AuthServiceImpl struct {
	idp       identity.Provider
	profiles  ProfileService
	federated FederatedAuthorizer
	emails    EmailMemory
	log       *zap.Logger
	now       func() time.Time
}

// AuthOption customizes AuthServiceImpl.
type AuthOption func(*AuthServiceImpl)

// WithFederated enables SignInWithGoogle.
func WithFederated(f FederatedAuthorizer) AuthOption {
	return func(s *AuthServiceImpl) { s.federated = f }
}

// WithEmailMemory enables remembering the login email.
func WithEmailMemory(m EmailMemory) AuthOption {
	return func(s *AuthServiceImpl) { s.emails = m }
}

// WithNow overrides the clock used for expiry checks.
func WithNow(now func() time.Time) AuthOption {
	return func(s *AuthServiceImpl) { s.now = now }
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(idp identity.Provider, profiles ProfileService, log *zap.Logger, opts ...AuthOption) *AuthServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	s := &AuthServiceImpl{idp: idp, profiles: profiles, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Login fails fast on malformed input, then asks the provider.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string, remember bool) (*model.Session, error) {
	email = validate.Sanitize(email)
	if !validate.Email(email) {
		return nil, errs.ErrInvalidEmail
	}
	if !validate.Password(password) {
		return nil, errs.ErrWeakPassword
	}

	sess, err := s.idp.SignInWithPassword(ctx, email, password)
	if err != nil {
		s.log.Info("login rejected", zap.String("email", email), zap.Error(err))
		return nil, mapAuthError(err)
	}

	s.rememberEmail(email, remember)
	s.log.Info("login ok", zap.String("user_id", sess.UserID))
	return sess, nil
}

// Local storage trouble must not fail an otherwise successful login.
func (s *AuthServiceImpl) rememberEmail(email string, remember bool) {
	if s.emails == nil {
		return
	}
	var err error
	if remember {
		err = s.emails.Remember(email)
	} else {
		err = s.emails.Forget()
	}
	if err != nil {
		s.log.Warn("remembered email not updated", zap.Bool("remember", remember), zap.Error(err))
	}
}

// Register runs create -> display name -> verification -> profile.
// Once the account exists any failing step deletes it again so no
// account is left without a profile.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password, confirm string) (*model.Session, error) {
	username = validate.Sanitize(username)
	email = validate.Sanitize(email)
	if username == "" || email == "" || password == "" || confirm == "" {
		return nil, errs.ErrMissingFields
	}
	if password != confirm {
		return nil, errs.ErrPasswordMismatch
	}
	if !validate.Email(email) {
		return nil, errs.ErrInvalidEmail
	}

	sess, err := s.idp.SignUp(ctx, email, password)
	if err != nil {
		s.log.Info("sign up rejected", zap.String("email", email), zap.Error(err))
		return nil, mapAuthError(err)
	}

	steps := []struct {
		name string
		run  func() error
	}{
		{"display name", func() error { return s.idp.UpdateDisplayName(ctx, sess, username) }},
		{"verification email", func() error { return s.idp.SendEmailVerification(ctx, sess) }},
		{"profile", func() error {
			return s.profiles.UpsertProfile(ctx, sess.UserID, username, email, model.RolePlayer, false)
		}},
	}
	for _, st := range steps {
		if err := st.run(); err != nil {
			s.compensate(sess, st.name, err)
			return nil, fmt.Errorf("%w: %s: %w", errs.ErrRegistrationIncomplete, st.name, err)
		}
	}

	s.log.Info("registered", zap.String("user_id", sess.UserID))
	return sess, nil
}

// compensate deletes a half-registered account. It runs on a fresh
// context so a cancelled request still cleans up.
func (s *AuthServiceImpl) compensate(sess *model.Session, step string, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	log := s.log.With(zap.String("user_id", sess.UserID), zap.String("step", step))
	log.Warn("registration step failed, deleting account", zap.Error(cause))
	if err := s.idp.DeleteAccount(ctx, sess); err != nil {
		log.Error("orphaned account: delete failed", zap.Error(err))
	}
}

// ForgotPassword validates the email and asks the provider for a reset mail.
func (s *AuthServiceImpl) ForgotPassword(ctx context.Context, email string) error {
	email = validate.Sanitize(email)
	if !validate.Email(email) {
		return errs.ErrInvalidEmail
	}
	if err := s.idp.SendPasswordReset(ctx, email); err != nil {
		s.log.Info("password reset failed", zap.String("email", email), zap.Error(err))
		return fmt.Errorf("%w: %w", errs.ErrUnknownAuth, err)
	}
	return nil
}

// SignInWithGoogle merges the profile without a role so a returning
// user's stored role is kept.
func (s *AuthServiceImpl) SignInWithGoogle(ctx context.Context) (*model.Session, error) {
	if s.federated == nil {
		return nil, fmt.Errorf("%w: federated sign-in not configured", errs.ErrUnknownAuth)
	}
	cred, err := s.federated.Authorize(ctx)
	if err != nil {
		s.log.Info("federated consent failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %w", errs.ErrUnknownAuth, err)
	}

	sess, err := s.idp.SignInWithIdp(ctx, cred)
	if err != nil {
		s.log.Info("federated sign-in rejected", zap.String("provider", cred.ProviderID), zap.Error(err))
		return nil, mapAuthError(err)
	}

	if err := s.profiles.UpsertProfile(ctx, sess.UserID, sess.DisplayName, sess.Email, "", true); err != nil {
		return nil, err
	}
	s.log.Info("federated sign-in ok", zap.String("user_id", sess.UserID), zap.String("provider", cred.ProviderID))
	return sess, nil
}

// BearerToken refreshes the credential when forced or expired and a
// refresh token is available.
func (s *AuthServiceImpl) BearerToken(ctx context.Context, sess *model.Session, forceRefresh bool) (string, error) {
	if !sess.Active() {
		return "", errs.ErrNotAuthenticated
	}
	if !forceRefresh && !sess.Expired(s.now(), tokenSkew) {
		return sess.IDToken, nil
	}
	if sess.RefreshToken == "" {
		if forceRefresh {
			return "", fmt.Errorf("%w: no refresh token", errs.ErrNotAuthenticated)
		}
		return "", fmt.Errorf("%w: token expired", errs.ErrNotAuthenticated)
	}
	if err := s.idp.Refresh(ctx, sess); err != nil {
		s.log.Info("token refresh failed", zap.String("user_id", sess.UserID), zap.Error(err))
		var ie *identity.Error
		if errors.As(err, &ie) {
			return "", fmt.Errorf("%w: %w", errs.ErrNotAuthenticated, err)
		}
		return "", fmt.Errorf("%w: %w", errs.ErrUnknownAuth, err)
	}
	return sess.IDToken, nil
}

// SignOut clears the credentials. The caller owns the session value.
func (s *AuthServiceImpl) SignOut(sess *model.Session) {
	if sess == nil {
		return
	}
	sess.IDToken = ""
	sess.RefreshToken = ""
	sess.ExpiresAt = time.Time{}
}

// mapAuthError turns provider codes into the gateway's categories.
func mapAuthError(err error) error {
	var ie *identity.Error
	if !errors.As(err, &ie) {
		return fmt.Errorf("%w: %w", errs.ErrUnknownAuth, err)
	}
	switch ie.Code {
	case identity.CodeEmailNotFound:
		return fmt.Errorf("%w: %w", errs.ErrUserNotFound, err)
	case identity.CodeInvalidPassword, identity.CodeInvalidCredentials:
		return fmt.Errorf("%w: %w", errs.ErrWrongPassword, err)
	case identity.CodeEmailExists:
		return fmt.Errorf("%w: %w", errs.ErrEmailExists, err)
	case identity.CodeWeakPassword:
		return fmt.Errorf("%w: %w", errs.ErrWeakPassword, err)
	default:
		return fmt.Errorf("%w: %w", errs.ErrUnknownAuth, err)
	}
}
