// Package presenter turns operation outcomes into user-facing messages.
// The core never prints; callers pick what to do with the text.
package presenter

import (
	"errors"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/scoring"
)

// Op identifies the user action a message is for.
type Op int

const (
	OpLogin Op = iota
	OpRegister
	OpForgotPassword
	OpGoogle
	OpSubmitScore
	OpProfile
)

const (
	msgWeakPassword  = "Password must be at least 8 characters long and include uppercase, lowercase letters, and a digit."
	msgNotLoggedIn   = "You must be logged in to do that."
	msgLoginGeneric  = "An error occurred during login. Please try again."
	msgStorageFailed = "Your profile could not be saved. Please try again."
)

// Success returns the confirmation shown after op completes.
func Success(op Op) string {
	switch op {
	case OpLogin:
		return "Login successful!"
	case OpRegister:
		return "Registration successful! A verification email has been sent to your address. Please verify your email before logging in."
	case OpForgotPassword:
		return "Password reset email sent! Please check your inbox for further instructions."
	case OpGoogle:
		return "Google sign-in successful!"
	case OpSubmitScore:
		return "Leaderboard score submitted!"
	default:
		return "Done."
	}
}

// Failure returns the message for err raised by op.
func Failure(op Op, err error) string {
	if err == nil {
		return Success(op)
	}
	if errors.Is(err, errs.ErrNotAuthenticated) {
		return msgNotLoggedIn
	}

	switch op {
	case OpLogin:
		return loginFailure(err)
	case OpRegister:
		return registerFailure(err)
	case OpForgotPassword:
		if errors.Is(err, errs.ErrInvalidEmail) {
			return "Please enter a valid email address to reset your password."
		}
		return "Error sending password reset email. Please try again later."
	case OpGoogle:
		return "Failed to sign in with Google: " + googleReason(err)
	case OpSubmitScore:
		return submitFailure(err)
	case OpProfile:
		if errors.Is(err, errs.ErrNotFound) {
			return "No profile found for this account."
		}
		return msgStorageFailed
	default:
		return "Something went wrong. Please try again."
	}
}

func loginFailure(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidEmail):
		return "The email address is invalid. Please check your email and try again."
	case errors.Is(err, errs.ErrWeakPassword):
		return msgWeakPassword
	case errors.Is(err, errs.ErrUserNotFound):
		return "The email address does not match any account."
	case errors.Is(err, errs.ErrWrongPassword):
		return "The password entered is incorrect."
	default:
		return msgLoginGeneric
	}
}

func registerFailure(err error) string {
	switch {
	case errors.Is(err, errs.ErrMissingFields):
		return "All fields are required."
	case errors.Is(err, errs.ErrPasswordMismatch):
		return "Passwords do not match. Please retype your password."
	case errors.Is(err, errs.ErrInvalidEmail):
		return "Invalid email format."
	case errors.Is(err, errs.ErrEmailExists):
		return "Registration failed: The email address is already in use by another account."
	case errors.Is(err, errs.ErrWeakPassword):
		return "Registration failed: " + msgWeakPassword
	case errors.Is(err, errs.ErrRegistrationIncomplete):
		return "Registration failed: your account could not be set up. Please try again."
	default:
		return "Registration failed: an unexpected error occurred. Please try again."
	}
}

func googleReason(err error) string {
	switch {
	case errors.Is(err, errs.ErrStorage):
		return "your profile could not be saved."
	default:
		return "the sign-in was not completed."
	}
}

func submitFailure(err error) string {
	var rej *scoring.RejectedError
	switch {
	case errors.As(err, &rej):
		return rej.Message
	case errors.Is(err, errs.ErrInvalidScore):
		return "A player name is required and score and level cannot be negative."
	case errors.Is(err, errs.ErrNetworkFailure):
		return "Could not reach the scoring server. Please check your connection and try again."
	default:
		return scoring.DefaultRejectMessage
	}
}
