// Package ctl implements ecopointsctl, the operator tool for the ecopoints
// server: schema migrations, terminal tokens, history export and test
// deposits.
package ctl

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ecopoints/internal/logging"
	"github.com/dmitrijs2005/ecopoints/internal/server/config"
)

type options struct {
	cfg     *config.Config
	verbose bool
}

func (o *options) logger(w io.Writer) logging.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	return logging.NewJSONLogger(w, level)
}

// NewRootCmd builds the command tree. Defaults come from the server's
// ECOPOINTS_* environment.
func NewRootCmd() *cobra.Command {
	o := &options{cfg: config.LoadEnvConfig()}

	root := &cobra.Command{
		Use:          "ecopointsctl",
		Short:        "Operator tool for the ecopoints server",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&o.cfg.DatabaseDSN, "dsn", o.cfg.DatabaseDSN, "PostgreSQL DSN (env: ECOPOINTS_DATABASE_DSN)")
	root.PersistentFlags().DurationVar(&o.cfg.StoreTimeout, "timeout", o.cfg.StoreTimeout, "store call timeout (env: ECOPOINTS_STORE_TIMEOUT)")
	root.PersistentFlags().BoolVarP(&o.verbose, "verbose", "v", false, "verbose logging to stderr")

	root.AddCommand(newMigrateCmd(o))
	root.AddCommand(newTerminalTokenCmd(o))
	root.AddCommand(newExportHistoryCmd(o))
	root.AddCommand(newDepositCmd())

	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
