package cli

import (
	"time"

	"github.com/spf13/cobra"

	"options-scanner/pkg/utils"
)

func newStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show gateway session and market status",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			now := time.Now()

			state := app.Service.SessionState()
			marketOpen := utils.IsMarketOpen(now)

			if output.IsJSON() {
				return output.JSON(map[string]interface{}{
					"session_state":    string(state),
					"market_open":      marketOpen,
					"next_market_open": utils.NextMarketOpen(now),
				})
			}

			output.Header("Gateway")
			output.Printf("  Session: %s\n", state)

			output.Header("Market")
			if marketOpen {
				output.Success("  US equity session is open")
			} else {
				output.Warn("  US equity session is closed")
				output.Dim("  Next open: %s", utils.NextMarketOpen(now).Format("Mon Jan 2 15:04 MST"))
			}
			return nil
		},
	}
}
