package cli

import (
	"github.com/spf13/cobra"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
	"options-scanner/pkg/utils"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain <symbol>",
		Short: "Fetch and display the option chain for a symbol",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				app.Service.InvalidateChain(symbol)
			}

			var chain *models.OptionChain
			retryCfg := utils.DefaultRetryConfig()
			retryCfg.RetryOn = []error{apperrors.ErrGatewayUnavailable}
			err := utils.Retry(cmd.Context(), retryCfg, func() error {
				var fetchErr error
				chain, fetchErr = app.Service.GetOptionChain(cmd.Context(), symbol)
				return fetchErr
			})
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chain)
			}
			renderChain(output, chain)
			return nil
		},
	}
	cmd.Flags().Bool("refresh", false, "bypass the chain cache and fetch fresh data")
	return cmd
}

func renderChain(output *Output, chain *models.OptionChain) {
	output.Header("%s  spot %s  (%d contracts, fetched %s)",
		chain.Symbol,
		utils.FormatUSD(chain.UnderlyingPrice),
		len(chain.Contracts),
		chain.FetchedAt.Format("15:04:05"))

	for _, exp := range chain.Expirations {
		output.Println()
		output.Header("Expiration %s", exp.Format("2006-01-02"))
		output.Printf("  %-8s %10s %10s %10s %10s %8s\n", "", "Strike", "Bid", "Ask", "Last", "Delta")

		for _, right := range []models.Right{models.RightCall, models.RightPut} {
			label := "Calls"
			if right == models.RightPut {
				label = "Puts"
			}
			output.Dim("  %s", label)
			for _, c := range chain.ContractsFor(exp, right) {
				delta := "-"
				if c.Quote.Greeks != nil {
					delta = utils.FormatRatio(c.Quote.Greeks.Delta)
				}
				output.Printf("  %-8s %10s %10.2f %10.2f %10.2f %8s\n",
					"", utils.FormatStrike(c.Instrument.Strike), c.Quote.Bid, c.Quote.Ask, c.Quote.Last, delta)
			}
		}
	}
}
