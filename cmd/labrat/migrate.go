package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/and161185/labrat/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL profile store schema",
	}
	for _, sub := range []struct {
		use, short string
		run        func(*cobra.Command, string) error
	}{
		{"up", "Apply pending migrations", func(c *cobra.Command, dsn string) error { return migrate.Up(c.Context(), dsn) }},
		{"down", "Roll back the last migration", func(c *cobra.Command, dsn string) error { return migrate.Down(c.Context(), dsn) }},
		{"status", "Show migration status", func(c *cobra.Command, dsn string) error { return migrate.Status(c.Context(), dsn) }},
	} {
		cmd.AddCommand(&cobra.Command{
			Use:   sub.use,
			Short: sub.short,
			Args:  cobra.NoArgs,
			RunE: func(c *cobra.Command, _ []string) error {
				if a.cfg.DatabaseDSN == "" {
					return errors.New("migrate: --dsn or LABRAT_DATABASE_DSN is required")
				}
				if err := sub.run(c, a.cfg.DatabaseDSN); err != nil {
					return err
				}
				a.println("migrate", sub.use, "done")
				return nil
			},
		})
	}
	return cmd
}
