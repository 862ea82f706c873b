package ctl

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ecopoints/internal/server"
	"github.com/dmitrijs2005/ecopoints/internal/server/config"
	"github.com/dmitrijs2005/ecopoints/internal/server/services"
)

func newExportHistoryCmd(o *options) *cobra.Command {
	var phone string

	cmd := &cobra.Command{
		Use:   "export-history",
		Short: "Upload a member's deposit history to object storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.cfg.StorageBackend != config.BackendPostgres {
				return errors.New("export-history needs the postgres storage backend")
			}
			cfg := *o.cfg
			cfg.SessionBackend = config.BackendMemory

			st, err := server.OpenStores(cmd.Context(), &cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			log := o.logger(cmd.ErrOrStderr())
			ledger := services.NewLedgerService(st.LedgerDB(&cfg), st.Runner, st.Manager, &cfg, log)
			res, err := services.NewHistoryArchiver(ledger, &cfg, log).Export(cmd.Context(), phone)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d deposits to s3://%s/%s\n", res.Events, res.Bucket, res.Key)
			return nil
		},
	}

	cmd.Flags().StringVar(&phone, "phone", "", "member phone number")
	cmd.Flags().StringVar(&o.cfg.S3Bucket, "bucket", o.cfg.S3Bucket, "target bucket (env: ECOPOINTS_S3_BUCKET)")
	cmd.Flags().StringVar(&o.cfg.S3BaseEndpoint, "endpoint", o.cfg.S3BaseEndpoint, "S3 endpoint (env: ECOPOINTS_S3_ENDPOINT)")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}
