package main

import (
	"encoding/json"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/labrat/internal/identity"
	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/presenter"
	"github.com/and161185/labrat/internal/scoring"
	"github.com/and161185/labrat/internal/transport"
)

// Opaque tokens without an exp claim are assumed valid for this long.
const assumedTokenTTL = time.Hour

func newSubmitScoreCmd(a *app) *cobra.Command {
	var (
		sub             model.ScoreSubmission
		token, refresh  string
		email, password string
	)
	cmd := &cobra.Command{
		Use:   "submit-score",
		Short: "Submit a leaderboard score",
		Long: `submit-score posts one score authorized by a session. The session comes
from --token (and optionally --refresh-token) or from signing in inline with
--email/--password. Sessions are never stored on disk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := a.cfg.RequireScoring(); err != nil {
				return err
			}
			svc, err := a.authService()
			if err != nil {
				return err
			}

			if token == "" {
				token = os.Getenv("LABRAT_ID_TOKEN")
			}
			if refresh == "" {
				refresh = os.Getenv("LABRAT_REFRESH_TOKEN")
			}

			var sess *model.Session
			switch {
			case token != "":
				sess = &model.Session{IDToken: token, RefreshToken: refresh}
				identity.ApplyClaims(sess, assumedTokenTTL, time.Now())
			case email != "":
				if err := a.promptIfEmpty(&password, "Password: "); err != nil {
					return err
				}
				remembered, _ := a.state().RememberedEmail()
				if sess, err = svc.Login(ctx, email, password, remembered != "" && remembered == email); err != nil {
					return a.fail(presenter.OpLogin, err)
				}
			}

			if sub.PlayerName == "" && sess != nil {
				sub.PlayerName = sess.DisplayName
			}

			client, err := scoring.NewClient(a.cfg.ScoringURL, svc,
				scoring.WithHTTPClient(transport.NewClient(a.cfg.HTTPTimeout, a.log)),
				scoring.WithLogger(a.log),
			)
			if err != nil {
				return err
			}
			res, err := client.SubmitScore(ctx, sess, sub)
			if err != nil {
				return a.fail(presenter.OpSubmitScore, err)
			}

			a.println(presenter.Success(presenter.OpSubmitScore))
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
	f := cmd.Flags()
	f.StringVar(&sub.PlayerName, "player", "", "player name (default: session display name)")
	f.Int64Var(&sub.Score, "score", 0, "score")
	f.Int64Var(&sub.Level, "level", 0, "level reached")
	f.StringVar(&token, "token", "", "ID token (env: LABRAT_ID_TOKEN)")
	f.StringVar(&refresh, "refresh-token", "", "refresh token (env: LABRAT_REFRESH_TOKEN)")
	f.StringVar(&email, "email", "", "sign in inline with this email")
	f.StringVar(&password, "password", "", "password for --email (prompted when empty)")
	return cmd
}
