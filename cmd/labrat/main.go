// Command labrat is the command-line client for the Lab Rat game backend:
// account sign-in, registration, Google sign-in and leaderboard scores.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/and161185/labrat/internal/config"
	"github.com/and161185/labrat/internal/identity/toolkit"
	"github.com/and161185/labrat/internal/localstate"
	"github.com/and161185/labrat/internal/presenter"
	"github.com/and161185/labrat/internal/repository"
	"github.com/and161185/labrat/internal/repository/memory"
	"github.com/and161185/labrat/internal/repository/postgres"
	redisrepo "github.com/and161185/labrat/internal/repository/redis"
	"github.com/and161185/labrat/internal/service"
	"github.com/and161185/labrat/internal/transport"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// app carries configuration and lazily built collaborators for one run.
type app struct {
	in  io.Reader
	out io.Writer
	err io.Writer

	envFile string
	flags   flagValues

	cfg *config.Config
	log *zap.Logger

	lines *bufio.Reader

	closers []func()
}

// flagValues mirrors the persistent flags; only flags the user set
// override the environment.
type flagValues struct {
	apiKey      string
	identityURL string
	tokenURL    string
	scoringURL  string
	store       string
	dsn         string
	redisURL    string
	stateDir    string
	timeout     time.Duration
	insecure    bool
	debug       bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, err: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "labrat",
		Short: "Command-line client for the Lab Rat game backend",
		Long: `labrat signs players in against the hosted identity provider, keeps
their profile in sync and submits leaderboard scores.

Settings come from LABRAT_* environment variables, an optional .env file
and the flags below, in increasing priority.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.envFile, "env-file", "", "dotenv file to load (default .env if present)")
	pf.StringVar(&a.flags.apiKey, "api-key", "", "identity provider web API key (env: LABRAT_API_KEY)")
	pf.StringVar(&a.flags.identityURL, "identity-url", "", "identity toolkit base URL (env: LABRAT_IDENTITY_URL)")
	pf.StringVar(&a.flags.tokenURL, "token-url", "", "secure token URL (env: LABRAT_TOKEN_URL)")
	pf.StringVar(&a.flags.scoringURL, "scoring-url", "", "scoring endpoint base URL (env: LABRAT_SCORING_URL)")
	pf.StringVar(&a.flags.store, "store", "", "profile store: memory, postgres, redis (env: LABRAT_PROFILE_STORE)")
	pf.StringVar(&a.flags.dsn, "dsn", "", "PostgreSQL DSN (env: LABRAT_DATABASE_DSN)")
	pf.StringVar(&a.flags.redisURL, "redis-url", "", "Redis URL (env: LABRAT_REDIS_URL)")
	pf.StringVar(&a.flags.stateDir, "state-dir", "", "local state directory (env: LABRAT_STATE_DIR)")
	pf.DurationVar(&a.flags.timeout, "timeout", 30*time.Second, "HTTP timeout (env: LABRAT_HTTP_TIMEOUT)")
	pf.BoolVar(&a.flags.insecure, "insecure", false, "allow plain http endpoints (env: LABRAT_INSECURE)")
	pf.BoolVarP(&a.flags.debug, "verbose", "v", false, "debug logging (env: LABRAT_DEBUG)")

	root.AddCommand(
		newLoginCmd(a),
		newRegisterCmd(a),
		newForgotPasswordCmd(a),
		newGoogleCmd(a),
		newSubmitScoreCmd(a),
		newProfileCmd(a),
		newMigrateCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads configuration, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}

	f := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if f.Changed(name) {
			*dst = v
		}
	}
	set("api-key", &cfg.APIKey, a.flags.apiKey)
	set("identity-url", &cfg.IdentityURL, a.flags.identityURL)
	set("token-url", &cfg.TokenURL, a.flags.tokenURL)
	set("scoring-url", &cfg.ScoringURL, a.flags.scoringURL)
	set("store", &cfg.ProfileStore, a.flags.store)
	set("dsn", &cfg.DatabaseDSN, a.flags.dsn)
	set("redis-url", &cfg.RedisURL, a.flags.redisURL)
	set("state-dir", &cfg.StateDir, a.flags.stateDir)
	if f.Changed("timeout") {
		cfg.HTTPTimeout = a.flags.timeout
	}
	if f.Changed("insecure") {
		cfg.Insecure = a.flags.insecure
	}
	if f.Changed("verbose") {
		cfg.Debug = a.flags.debug
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	if a.log == nil {
		if a.log, err = newLogger(cfg.Debug); err != nil {
			return err
		}
		a.closers = append(a.closers, func() { _ = a.log.Sync() })
	}
	return nil
}

// newLogger logs to stderr so command output stays clean.
func newLogger(debug bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if debug {
		zc = zap.NewDevelopmentConfig()
	}
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}

// close releases stores and flushes the logger.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// httpContext makes x/oauth2 use the logging client as well.
func (a *app) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, transport.NewClient(a.cfg.HTTPTimeout, a.log))
}

// profileRepo opens the configured profile store.
func (a *app) profileRepo(ctx context.Context) (repository.ProfileRepository, error) {
	switch a.cfg.ProfileStore {
	case config.StorePostgres:
		db, err := postgres.New(ctx, a.cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewProfileRepo(db), nil
	case config.StoreRedis:
		cfg := redisrepo.DefaultConfig()
		cfg.URL = a.cfg.RedisURL
		r, err := redisrepo.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = r.Close() })
		return r, nil
	default:
		a.log.Warn("using in-memory profile store; profiles are not persisted")
		return memory.NewProfileRepo(), nil
	}
}

func (a *app) identity() (*toolkit.Client, error) {
	if err := a.cfg.RequireIdentity(); err != nil {
		return nil, err
	}
	return toolkit.New(a.cfg.APIKey,
		toolkit.WithHTTPClient(transport.NewClient(a.cfg.HTTPTimeout, a.log)),
		toolkit.WithBaseURL(a.cfg.IdentityURL),
		toolkit.WithTokenURL(a.cfg.TokenURL),
		toolkit.WithRequestURI(a.cfg.GoogleRedirectURL),
	)
}

func (a *app) profileService(ctx context.Context) (*service.ProfileServiceImpl, error) {
	repo, err := a.profileRepo(ctx)
	if err != nil {
		return nil, err
	}
	return service.NewProfileService(repo, a.log), nil
}

// authService wires the gateway; extra options enable federated sign-in.
// The profile store is only dialled when a flow writes a profile.
func (a *app) authService(opts ...service.AuthOption) (*service.AuthServiceImpl, error) {
	idp, err := a.identity()
	if err != nil {
		return nil, err
	}
	profiles := service.NewProfileService(repository.NewLazy(a.profileRepo), a.log)
	opts = append([]service.AuthOption{service.WithEmailMemory(a.state())}, opts...)
	return service.NewAuthService(idp, profiles, a.log, opts...), nil
}

// noteEphemeralStore tells the user when profile writes will not outlive
// the process.
func (a *app) noteEphemeralStore() {
	if a.cfg.ProfileStore == config.StoreMemory {
		a.println("Note: the profile store is in-memory; the profile is not kept after exit (see --store).")
	}
}

func (a *app) state() *localstate.Store { return localstate.New(a.cfg.StateDir) }

// fail prints nothing itself: the returned error carries the user-facing
// message and main prints it.
func (a *app) fail(op presenter.Op, err error) error {
	a.log.Debug("operation failed", zap.Error(err))
	return errors.New(presenter.Failure(op, err))
}

func (a *app) println(args ...any) { _, _ = fmt.Fprintln(a.out, args...) }

// prompt asks for one line on the input stream. Passwords are read
// verbatim; everything else is left to the validators.
func (a *app) prompt(label string) (string, error) {
	if a.lines == nil {
		a.lines = bufio.NewReader(a.in)
	}
	_, _ = fmt.Fprint(a.out, label)
	line, err := a.lines.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptIfEmpty fills *v from the input stream when the flag was not given.
func (a *app) promptIfEmpty(v *string, label string) error {
	if *v != "" {
		return nil
	}
	s, err := a.prompt(label)
	if err != nil {
		return err
	}
	*v = s
	return nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		Run: func(*cobra.Command, []string) {
			a.println("labrat", version, "built", buildDate)
		},
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
