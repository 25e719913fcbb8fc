// Package model defines domain entities shared by services, repositories and clients.
package model

import "time"

// Role is the user type recorded in a profile.
type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
)

// Session is the authenticated principal returned by the identity provider.
// It is passed explicitly to every operation that needs credentials.
type Session struct {
	UserID        string
	DisplayName   string
	Email         string
	EmailVerified bool
	IDToken       string    // short-lived bearer credential
	RefreshToken  string    // provider refresh token (may be empty)
	ExpiresAt     time.Time // IDToken expiry
}

// Active reports whether the session carries a bearer credential.
func (s *Session) Active() bool {
	return s != nil && s.IDToken != ""
}

// Expired reports whether the bearer credential is past its expiry, allowing for skew.
func (s *Session) Expired(now time.Time, skew time.Duration) bool {
	if s.ExpiresAt.IsZero() {
		return false
	}
	return !now.Add(skew).Before(s.ExpiresAt)
}

// Profile is the denormalized user record kept in the document store.
type Profile struct {
	UserID    string    `json:"-"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"user_type"`
	CreatedAt time.Time `json:"createdAt"`
}

// ScoreSubmission is the request body sent to the scoring endpoint.
type ScoreSubmission struct {
	PlayerName string `json:"playerName"`
	Score      int64  `json:"score"`
	Level      int64  `json:"level"`
}

// SubmitResult is the decoded JSON body of a successful submission.
type SubmitResult map[string]any
