// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Validation sentinels. These are detected locally and never reach a remote service.
var (
	// ErrInvalidEmail indicates the email does not look like local@domain.tld.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrWeakPassword indicates the password fails the strength rules.
	ErrWeakPassword = errors.New("weak password")

	// ErrMissingFields indicates a required form field is empty.
	ErrMissingFields = errors.New("missing fields")

	// ErrPasswordMismatch indicates password and confirmation differ.
	ErrPasswordMismatch = errors.New("password mismatch")

	// ErrInvalidScore indicates a malformed score submission (negative values, empty player).
	ErrInvalidScore = errors.New("invalid score submission")
)

// Identity provider sentinels.
var (
	// ErrUserNotFound indicates no account matches the email.
	ErrUserNotFound = errors.New("user not found")

	// ErrWrongPassword indicates the password was rejected by the provider.
	ErrWrongPassword = errors.New("wrong password")

	// ErrEmailExists indicates the email is already registered.
	ErrEmailExists = errors.New("email already exists")

	// ErrNotAuthenticated indicates there is no active session.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrUnknownAuth collapses every unmapped provider failure.
	ErrUnknownAuth = errors.New("authentication failed")

	// ErrRegistrationIncomplete indicates a registration step failed after the account was created.
	ErrRegistrationIncomplete = errors.New("registration incomplete")
)

// Storage and transport sentinels.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrStorage indicates the document store rejected or failed a write.
	ErrStorage = errors.New("storage failure")

	// ErrNetworkFailure indicates the request never produced an HTTP response.
	ErrNetworkFailure = errors.New("network failure")

	// ErrServerRejected indicates a non-2xx response from the scoring endpoint.
	ErrServerRejected = errors.New("server rejected request")
)

// IsValidation reports whether err was produced by local input validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrWeakPassword) ||
		errors.Is(err, ErrMissingFields) ||
		errors.Is(err, ErrPasswordMismatch) ||
		errors.Is(err, ErrInvalidScore)
}
