package ctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/server/repositories/repomanager"
)

func newMigrateCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := dbx.Open(cmd.Context(), "pgx", o.cfg.DatabaseDSN, o.cfg.StoreTimeout)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := repomanager.NewPostgresRepositoryManager().RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("migration error: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}
