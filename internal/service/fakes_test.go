package service

import (
	"context"
	"errors"

	"github.com/and161185/labrat/internal/identity"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/repository/memory"
)

type fakeProvider struct {
	signInCalls, signUpCalls, displayCalls, verifyCalls int
	resetCalls, idpCalls, refreshCalls, deleteCalls     int

	signInErr, signUpErr, displayErr, verifyErr error
	resetErr, idpErr, refreshErr, deleteErr     error

	lastPassword string
	lastEmail    string
	displayName  string
	idpSession   *model.Session
	refreshed    string
}

var _ identity.Provider = (*fakeProvider)(nil)

func (f *fakeProvider) SignInWithPassword(_ context.Context, email, password string) (*model.Session, error) {
	f.signInCalls++
	f.lastEmail, f.lastPassword = email, password
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &model.Session{UserID: "uid-" + email, Email: email, IDToken: "tok", RefreshToken: "rt"}, nil
}

func (f *fakeProvider) SignUp(_ context.Context, email, password string) (*model.Session, error) {
	f.signUpCalls++
	f.lastEmail, f.lastPassword = email, password
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return &model.Session{UserID: "uid-new", Email: email, IDToken: "tok", RefreshToken: "rt"}, nil
}

func (f *fakeProvider) UpdateDisplayName(_ context.Context, sess *model.Session, name string) error {
	f.displayCalls++
	if f.displayErr != nil {
		return f.displayErr
	}
	f.displayName = name
	sess.DisplayName = name
	return nil
}

func (f *fakeProvider) SendEmailVerification(context.Context, *model.Session) error {
	f.verifyCalls++
	return f.verifyErr
}

func (f *fakeProvider) SendPasswordReset(_ context.Context, email string) error {
	f.resetCalls++
	f.lastEmail = email
	return f.resetErr
}

func (f *fakeProvider) SignInWithIdp(context.Context, identity.IdpCredential) (*model.Session, error) {
	f.idpCalls++
	if f.idpErr != nil {
		return nil, f.idpErr
	}
	return f.idpSession, nil
}

func (f *fakeProvider) Refresh(_ context.Context, sess *model.Session) error {
	f.refreshCalls++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	sess.IDToken = f.refreshed
	return nil
}

func (f *fakeProvider) DeleteAccount(context.Context, *model.Session) error {
	f.deleteCalls++
	return f.deleteErr
}

type fakeAuthorizer struct {
	cred  identity.IdpCredential
	err   error
	calls int
}

func (f *fakeAuthorizer) Authorize(context.Context) (identity.IdpCredential, error) {
	f.calls++
	return f.cred, f.err
}

type fakeMemory struct {
	email    string
	err      error
	forgets  int
	remember int
}

func (f *fakeMemory) Remember(email string) error {
	f.remember++
	if f.err != nil {
		return f.err
	}
	f.email = email
	return nil
}

func (f *fakeMemory) Forget() error {
	f.forgets++
	if f.err != nil {
		return f.err
	}
	f.email = ""
	return nil
}

// recordingRepo wraps the memory store and records writes.
type recordingRepo struct {
	*memory.ProfileRepo
	upserts []upsertCall
	err     error
}

type upsertCall struct {
	profile model.Profile
	merge   bool
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{ProfileRepo: memory.NewProfileRepo()}
}

func (r *recordingRepo) Upsert(ctx context.Context, p *model.Profile, merge bool) error {
	r.upserts = append(r.upserts, upsertCall{profile: *p, merge: merge})
	if r.err != nil {
		return r.err
	}
	return r.ProfileRepo.Upsert(ctx, p, merge)
}

var errBoom = errors.New("boom")
