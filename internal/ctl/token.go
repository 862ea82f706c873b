package ctl

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/server/auth"
)

func newTerminalTokenCmd(o *options) *cobra.Command {
	var (
		terminalID string
		validity   time.Duration
		prompt     bool
	)

	cmd := &cobra.Command{
		Use:   "terminal-token",
		Short: "Issue a bearer token for a deposit terminal",
		Long: `Issues a signed token that a deposit terminal sends as
"Authorization: Bearer <token>". The signing secret is taken from
ECOPOINTS_TERMINAL_SECRET, or read from the terminal with --prompt.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := []byte(o.cfg.TerminalSecret)
			if prompt {
				s, err := promptSecret(cmd.ErrOrStderr(), "Terminal secret: ")
				if err != nil {
					return err
				}
				secret = s
				defer common.WipeByteArray(secret)
			}
			if len(secret) == 0 {
				return errors.New("terminal secret is not set")
			}

			token, err := auth.GenerateTerminalToken(terminalID, secret, validity)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&terminalID, "id", "", "terminal identifier")
	cmd.Flags().DurationVar(&validity, "validity", 365*24*time.Hour, "token lifetime, 0 for no expiry")
	cmd.Flags().BoolVar(&prompt, "prompt", false, "read the secret from the terminal")
	_ = cmd.MarkFlagRequired("id")

	return cmd
}
