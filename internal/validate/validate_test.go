package validate

import (
	"errors"
	"testing"

	"github.com/and161185/labrat/internal/errs"
	"github.com/and161185/labrat/internal/model"
)

func TestEmail(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"a@b.co", "alice@x.com", "first.last@sub.domain.org"} {
		if !Email(s) {
			t.Fatalf("expected valid: %q", s)
		}
	}
	for _, s := range []string{"", "not-an-email", "a@b", "@b.co", "a@.co ", "a b@c.de", "a@@b.co"} {
		if Email(s) {
			t.Fatalf("expected invalid: %q", s)
		}
	}
}

func TestPassword(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"abc":         false, // too short
		"abcdefgh":    false, // no uppercase/digit
		"ABCDEFG1":    false, // no lowercase
		"Abcdefgh":    false, // no digit
		"Abcdefg1":    true,
		"  Pass123x  ": true,
		"Ab1ééé":       false, // 6 characters, 9 bytes
		"Ab1éééé":      false, // 7 characters
		"Ab1ééééé":     true,
		"abcdefgÉ1":    false, // uppercase only outside ASCII
		"ABCDEFGé1":    false, // lowercase only outside ASCII
		"Abcdefg٣":     false, // Arabic-Indic digit
	}
	for in, want := range cases {
		if got := Password(in); got != want {
			t.Fatalf("Password(%q)=%v, want %v", in, got, want)
		}
	}
}

func TestSanitize(t *testing.T) {
	t.Parallel()

	if got := Sanitize("  a@b.com  "); got != "a@b.com" {
		t.Fatalf("Sanitize: %q", got)
	}
	if got := Sanitize("\tname\n"); got != "name" {
		t.Fatalf("Sanitize: %q", got)
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	if err := Score(model.ScoreSubmission{PlayerName: "p", Score: 0, Level: 0}); err != nil {
		t.Fatalf("zero score is valid: %v", err)
	}
	bad := []model.ScoreSubmission{
		{PlayerName: "", Score: 1, Level: 1},
		{PlayerName: "  ", Score: 1, Level: 1},
		{PlayerName: "p", Score: -1, Level: 1},
		{PlayerName: "p", Score: 1, Level: -1},
	}
	for _, sub := range bad {
		if err := Score(sub); !errors.Is(err, errs.ErrInvalidScore) {
			t.Fatalf("want ErrInvalidScore for %+v, got %v", sub, err)
		}
	}
}
