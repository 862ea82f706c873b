package ctl

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/ecopoints/internal/netx"
)

type depositPayload struct {
	Phone       string      `json:"phone"`
	TrashAmount json.Number `json:"trash_amount"`
}

func newDepositCmd() *cobra.Command {
	var (
		serverURL string
		token     string
		phone     string
		amount    string
	)

	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Submit a deposit as a terminal would",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := &http.Client{Timeout: 10 * time.Second}
			url := strings.TrimRight(serverURL, "/") + "/api/v1/deposits"

			var out map[string]any
			err := netx.PostJSON(cmd.Context(), client, url, token, depositPayload{
				Phone:       phone,
				TrashAmount: json.Number(amount),
			}, &out)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:3000", "server base URL")
	cmd.Flags().StringVar(&token, "token", "", "terminal bearer token")
	cmd.Flags().StringVar(&phone, "phone", "", "member phone number")
	cmd.Flags().StringVar(&amount, "amount", "", "deposited amount, e.g. 2.5")
	_ = cmd.MarkFlagRequired("phone")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}
