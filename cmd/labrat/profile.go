package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/and161185/labrat/internal/model"
	"github.com/and161185/labrat/internal/presenter"
)

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Read or write profiles in the profile store",
	}
	cmd.AddCommand(newProfileGetCmd(a), newProfileSetCmd(a))
	return cmd
}

func newProfileGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Print a stored profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.profileService(cmd.Context())
			if err != nil {
				return err
			}
			p, err := svc.GetProfile(cmd.Context(), args[0])
			if err != nil {
				return a.fail(presenter.OpProfile, err)
			}
			enc := json.NewEncoder(a.out)
			enc.SetIndent("", "  ")
			return enc.Encode(p)
		},
	}
}

func newProfileSetCmd(a *app) *cobra.Command {
	var (
		username, email, role string
		merge                 bool
	)
	cmd := &cobra.Command{
		Use:   "set <user-id>",
		Short: "Write a profile (full overwrite unless --merge)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := model.Role(role)
			switch r {
			case "", model.RolePlayer, model.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q (want %s or %s)", role, model.RolePlayer, model.RoleAdmin)
			}
			svc, err := a.profileService(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.UpsertProfile(cmd.Context(), args[0], username, email, r, merge); err != nil {
				return a.fail(presenter.OpProfile, err)
			}
			a.println("profile saved:", args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&username, "username", "", "username")
	cmd.Flags().StringVar(&email, "email", "", "email")
	cmd.Flags().StringVar(&role, "role", "", "player or admin (overwrite default: player)")
	cmd.Flags().BoolVar(&merge, "merge", false, "only update the fields given")
	return cmd
}
