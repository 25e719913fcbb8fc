package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// fakeBackend stands in for the identity toolkit and the scoring endpoint.
type fakeBackend struct {
	mu   sync.Mutex
	hits map[string]int

	identity *httptest.Server
	scoring  *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{hits: map[string]int{}}

	b.identity = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hit(r.URL.Path)
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/accounts:signInWithPassword":
			if req["password"] != "Abcdefg1" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":{"code":400,"message":"INVALID_PASSWORD"}}`))
				return
			}
			_, _ = w.Write([]byte(`{"localId":"uid-1","email":"alice@x.com","displayName":"alice","idToken":"tok-1","refreshToken":"rt-1","expiresIn":"3600"}`))
		case "/accounts:signUp":
			_, _ = w.Write([]byte(`{"localId":"uid-new","email":"alice@x.com","idToken":"tok-new","refreshToken":"rt","expiresIn":"3600"}`))
		case "/accounts:update", "/accounts:sendOobCode":
			_, _ = w.Write([]byte(`{}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(b.identity.Close)

	b.scoring = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.hit("score")
		if r.Header.Get("Authorization") != "Bearer tok-1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"rank":1}`))
	}))
	t.Cleanup(b.scoring.Close)
	return b
}

func (b *fakeBackend) hit(k string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hits[k]++
}

func (b *fakeBackend) count(k string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[k]
}

func (b *fakeBackend) flags(stateDir string) []string {
	return []string{
		"--api-key", "test-key",
		"--identity-url", b.identity.URL,
		"--scoring-url", b.scoring.URL,
		"--state-dir", stateDir,
		"--insecure",
	}
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LABRAT_API_KEY", "LABRAT_IDENTITY_URL", "LABRAT_TOKEN_URL", "LABRAT_SCORING_URL",
		"LABRAT_PROFILE_STORE", "LABRAT_DATABASE_DSN", "LABRAT_REDIS_URL", "LABRAT_STATE_DIR",
		"LABRAT_HTTP_TIMEOUT", "LABRAT_INSECURE", "LABRAT_DEBUG", "LABRAT_ID_TOKEN", "LABRAT_REFRESH_TOKEN",
	} {
		t.Setenv(k, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	a := newApp(strings.NewReader(stdin), &out, &errOut)
	a.log = zaptest.NewLogger(t)

	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	isolateEnv(t)
	out, err := run(t, "", "version")
	require.NoError(t, err)
	require.Contains(t, out, "labrat dev")
}

func TestLogin_InvalidEmailNeverContactsProvider(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"login", "--email", "not-an-email", "--password", "Abcdefg1"}, b.flags(t.TempDir())...)
	_, err := run(t, "", args...)
	require.EqualError(t, err, "The email address is invalid. Please check your email and try again.")
	require.Zero(t, b.count("/accounts:signInWithPassword"))
}

func TestLogin_RememberAndPrompt(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)
	state := t.TempDir()

	args := append([]string{"login", "--email", " alice@x.com ", "--remember"}, b.flags(state)...)
	out, err := run(t, "Abcdefg1\n", args...)
	require.NoError(t, err)
	require.Contains(t, out, "Login successful!")
	require.Contains(t, out, "user: uid-1")

	// remembered email is reused; only the password is read
	out, err = run(t, "wrong-Pass1\n", append([]string{"login"}, b.flags(state)...)...)
	require.EqualError(t, err, "The password entered is incorrect.")
	require.Contains(t, out, "Email: alice@x.com")
	require.Equal(t, 2, b.count("/accounts:signInWithPassword"))
}

func TestRegister_EndToEnd(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"register",
		"--username", "alice", "--email", "alice@x.com",
		"--password", "Abcdefg1", "--confirm", "Abcdefg1",
	}, b.flags(t.TempDir())...)
	out, err := run(t, "", args...)
	require.NoError(t, err)
	require.Contains(t, out, "Registration successful!")
	require.Contains(t, out, "profile store is in-memory")
	require.Equal(t, 1, b.count("/accounts:signUp"))
	require.Equal(t, 1, b.count("/accounts:update"))
	require.Equal(t, 1, b.count("/accounts:sendOobCode"))
}

func TestLogin_DoesNotNeedProfileStore(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	// nothing listens on port 1; login must not dial the store
	unreachable := []string{"--store", "redis", "--redis-url", "redis://127.0.0.1:1"}
	args := append([]string{"login", "--email", "alice@x.com", "--password", "Abcdefg1"}, b.flags(t.TempDir())...)
	out, err := run(t, "", append(args, unreachable...)...)
	require.NoError(t, err)
	require.Contains(t, out, "Login successful!")
	require.NotContains(t, out, "in-memory")
	require.Equal(t, 1, b.count("/accounts:signInWithPassword"))

	args = append([]string{"forgot-password", "--email", "alice@x.com"}, b.flags(t.TempDir())...)
	_, err = run(t, "", append(args, unreachable...)...)
	require.NoError(t, err)
	require.Equal(t, 1, b.count("/accounts:sendOobCode"))
}

func TestRegister_MismatchCreatesNothing(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"register",
		"--username", "alice", "--email", "alice@x.com",
		"--password", "Abcdefg1", "--confirm", "Abcdefg2",
	}, b.flags(t.TempDir())...)
	_, err := run(t, "", args...)
	require.EqualError(t, err, "Passwords do not match. Please retype your password.")
	require.Zero(t, b.count("/accounts:signUp"))
}

func TestSubmitScore_WithoutSession(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"submit-score", "--player", "alice", "--score", "10", "--level", "1"}, b.flags(t.TempDir())...)
	_, err := run(t, "", args...)
	require.EqualError(t, err, "You must be logged in to do that.")
	require.Zero(t, b.count("score"))
}

func TestSubmitScore_InlineLogin(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"submit-score", "--score", "10", "--level", "1",
		"--email", "alice@x.com", "--password", "Abcdefg1",
	}, b.flags(t.TempDir())...)
	out, err := run(t, "", args...)
	require.NoError(t, err)
	require.Contains(t, out, "Leaderboard score submitted!")
	require.Contains(t, out, `"rank": 1`)
	require.Equal(t, 1, b.count("score"))
}

func TestSubmitScore_TokenFlag(t *testing.T) {
	isolateEnv(t)
	b := newFakeBackend(t)

	args := append([]string{"submit-score", "--player", "alice", "--score", "5", "--token", "tok-1"}, b.flags(t.TempDir())...)
	_, err := run(t, "", args...)
	require.NoError(t, err)

	args = append([]string{"submit-score", "--player", "alice", "--score", "5", "--token", "stale"}, b.flags(t.TempDir())...)
	_, err = run(t, "", args...)
	require.EqualError(t, err, "Unauthorized")
}

func TestConfig_RejectsPlainHTTPWithoutInsecure(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "", "forgot-password", "--email", "a@b.co", "--api-key", "k", "--scoring-url", "http://scores.local")
	require.Error(t, err)
	require.Contains(t, err.Error(), "https")
}

func TestProfile_SetGetInMemory(t *testing.T) {
	isolateEnv(t)
	_, err := run(t, "", "profile", "set", "u1", "--username", "alice", "--role", "root")
	require.ErrorContains(t, err, "unknown role")

	// each run opens a fresh in-memory store
	_, err = run(t, "", "profile", "get", "u1")
	require.EqualError(t, err, "No profile found for this account.")
}
