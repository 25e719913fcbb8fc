package main

import (
	"github.com/spf13/cobra"

	"github.com/and161185/labrat/internal/identity/google"
	"github.com/and161185/labrat/internal/presenter"
	"github.com/and161185/labrat/internal/service"
)

func newLoginCmd(a *app) *cobra.Command {
	var (
		email, password string
		remember, token bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if email == "" {
				if remembered, err := a.state().RememberedEmail(); err == nil && remembered != "" {
					email = remembered
					a.println("Email:", email)
				}
			}
			if err := a.promptIfEmpty(&email, "Email: "); err != nil {
				return err
			}
			if err := a.promptIfEmpty(&password, "Password: "); err != nil {
				return err
			}

			svc, err := a.authService()
			if err != nil {
				return err
			}
			sess, err := svc.Login(cmd.Context(), email, password, remember)
			if err != nil {
				return a.fail(presenter.OpLogin, err)
			}

			a.println(presenter.Success(presenter.OpLogin))
			a.println("user:", sess.UserID)
			if token {
				a.println("id-token:", sess.IDToken)
				a.println("refresh-token:", sess.RefreshToken)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email (default: remembered email)")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when empty)")
	cmd.Flags().BoolVar(&remember, "remember", false, "remember the email for the next login")
	cmd.Flags().BoolVar(&token, "print-token", false, "print the session tokens for use with submit-score")
	return cmd
}

func newRegisterCmd(a *app) *cobra.Command {
	var username, email, password, confirm string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and send the verification email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, p := range []struct {
				v     *string
				label string
			}{
				{&username, "Username: "},
				{&email, "Email: "},
				{&password, "Password: "},
				{&confirm, "Confirm password: "},
			} {
				if err := a.promptIfEmpty(p.v, p.label); err != nil {
					return err
				}
			}

			svc, err := a.authService()
			if err != nil {
				return err
			}
			a.noteEphemeralStore()
			sess, err := svc.Register(cmd.Context(), username, email, password, confirm)
			if err != nil {
				return a.fail(presenter.OpRegister, err)
			}
			a.println(presenter.Success(presenter.OpRegister))
			a.println("user:", sess.UserID)
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted when empty)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "password confirmation (prompted when empty)")
	return cmd
}

func newForgotPasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "forgot-password",
		Short: "Send a password reset email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.promptIfEmpty(&email, "Email: "); err != nil {
				return err
			}
			svc, err := a.authService()
			if err != nil {
				return err
			}
			if err := svc.ForgotPassword(cmd.Context(), email); err != nil {
				return a.fail(presenter.OpForgotPassword, err)
			}
			a.println(presenter.Success(presenter.OpForgotPassword))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newGoogleCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "google",
		Short: "Sign in with a Google account",
		Long: `google prints a consent URL. Approve access in a browser, then paste
the full URL the browser was redirected to.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.cfg.RequireGoogle(); err != nil {
				return err
			}
			flow, err := google.NewFlow(a.cfg.GoogleClientID, a.cfg.GoogleClientSecret, a.cfg.GoogleRedirectURL, promptConsenter{a: a})
			if err != nil {
				return err
			}
			ctx := a.httpContext(cmd.Context())
			svc, err := a.authService(service.WithFederated(flow))
			if err != nil {
				return err
			}
			a.noteEphemeralStore()
			sess, err := svc.SignInWithGoogle(ctx)
			if err != nil {
				return a.fail(presenter.OpGoogle, err)
			}
			a.println(presenter.Success(presenter.OpGoogle))
			a.println("user:", sess.UserID)
			return nil
		},
	}
}
