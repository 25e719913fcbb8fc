// Package validate holds pure input checks applied before any remote call.
package validate

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
)

const minPasswordLen = 8

var reEmail = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email reports whether s has the local@domain.tld shape. Not RFC 5322.
func Email(s string) bool { return reEmail.MatchString(s) }

// Password reports whether s is at least 8 characters long and has an
// ASCII uppercase letter, an ASCII lowercase letter and an ASCII digit.
// Length counts characters, not bytes.
func Password(s string) bool {
	var upper, lower, digit bool
	for _, r := range s {
		switch {
		case 'A' <= r && r <= 'Z':
			upper = true
		case 'a' <= r && r <= 'z':
			lower = true
		case '0' <= r && r <= '9':
			digit = true
		}
	}
	return utf8.RuneCountInString(s) >= minPasswordLen && upper && lower && digit
}

// Sanitize trims surrounding whitespace. Never call it on passwords.
func Sanitize(s string) string { return strings.TrimSpace(s) }

// Score checks a submission before it is sent.
func Score(sub model.ScoreSubmission) error {
	if Sanitize(sub.PlayerName) == "" || sub.Score < 0 || sub.Level < 0 {
		return errs.ErrInvalidScore
	}
	return nil
}
