package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/and161185/labrat/internal/model"
)

func signed(t *testing.T, c Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("SignedString: %v", err)
	}
	return s
}

func TestParseError(t *testing.T) {
	t.Parallel()

	e := ParseError(400, "WEAK_PASSWORD : Password should be at least 6 characters")
	if e.Code != CodeWeakPassword || e.Message != "Password should be at least 6 characters" || e.Status != 400 {
		t.Fatalf("unexpected: %+v", e)
	}
	e = ParseError(400, "EMAIL_NOT_FOUND")
	if e.Code != CodeEmailNotFound || e.Message != CodeEmailNotFound {
		t.Fatalf("unexpected: %+v", e)
	}
	if e.Error() != "identity: EMAIL_NOT_FOUND" {
		t.Fatalf("Error(): %q", e.Error())
	}
}

func TestParseIDToken(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	tok := signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "uid", ExpiresAt: jwt.NewNumericDate(exp)},
		Email:            "a@b.co",
		EmailVerified:    true,
		Name:             "alice",
	})
	c, err := ParseIDToken(tok)
	if err != nil {
		t.Fatalf("ParseIDToken: %v", err)
	}
	if c.Subject != "uid" || c.Email != "a@b.co" || !c.EmailVerified || c.Name != "alice" {
		t.Fatalf("claims mismatch: %+v", c)
	}
	if !c.ExpiresAt.Time.Equal(exp) {
		t.Fatalf("exp mismatch: %v vs %v", c.ExpiresAt.Time, exp)
	}

	if _, err := ParseIDToken("opaque"); err == nil {
		t.Fatalf("want error for non-JWT token")
	}
}

func TestApplyClaims(t *testing.T) {
	t.Parallel()

	now := time.Now()

	// opaque token: fallback TTL only
	s := &model.Session{IDToken: "opaque"}
	ApplyClaims(s, time.Hour, now)
	if !s.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("fallback expiry not applied: %v", s.ExpiresAt)
	}

	exp := now.Add(30 * time.Minute).Truncate(time.Second)
	s = &model.Session{DisplayName: "kept", IDToken: signed(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "sub", ExpiresAt: jwt.NewNumericDate(exp)},
		UserID:           "uid",
		Email:            "c@d.ef",
		EmailVerified:    true,
		Name:             "ignored",
	})}
	ApplyClaims(s, time.Hour, now)
	if s.UserID != "uid" || s.Email != "c@d.ef" || s.DisplayName != "kept" || !s.EmailVerified {
		t.Fatalf("session not filled from claims: %+v", s)
	}
	if !s.ExpiresAt.Equal(exp) {
		t.Fatalf("expiry from claims: %v", s.ExpiresAt)
	}
}
