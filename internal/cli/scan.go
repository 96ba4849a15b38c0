package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	apperrors "options-scanner/internal/errors"
	"options-scanner/internal/models"
	"options-scanner/pkg/utils"
)

func newScanCmd(app *App) *cobra.Command {
	var (
		strategyName   string
		minProfit      float64
		minRiskReward  float64
		minProbability float64
		maxLoss        float64
		minPremium     float64
		maxBERange     float64
		rankBy         string
		limit          int
	)

	cmd := &cobra.Command{
		Use:   "scan <symbol>",
		Short: "Scan a symbol's chain for ranked strategy opportunities",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			symbol := args[0]

			typ := models.StrategyType(strategyName)
			switch typ {
			case models.StrategyCoveredCall, models.StrategyIronCondor:
			default:
				return fmt.Errorf("unknown strategy %q: use covered_call or iron_condor", strategyName)
			}

			criteria := models.FilterCriteria{
				RankBy: models.RankKey(rankBy),
				Limit:  limit,
			}
			if cmd.Flags().Changed("min-profit") {
				criteria.MinProfit = models.Float64Ptr(minProfit)
			}
			if cmd.Flags().Changed("min-risk-reward") {
				criteria.MinRiskReward = models.Float64Ptr(minRiskReward)
			}
			if cmd.Flags().Changed("min-probability") {
				criteria.MinProbability = models.Float64Ptr(minProbability)
			}
			if cmd.Flags().Changed("max-loss") {
				criteria.MaxLoss = models.Float64Ptr(maxLoss)
			}
			if cmd.Flags().Changed("min-premium") {
				criteria.MinPremiumCollected = models.Float64Ptr(minPremium)
			}
			if cmd.Flags().Changed("max-breakeven-range") {
				criteria.MaxBreakevenRange = models.Float64Ptr(maxBERange)
			}

			var rankings []models.Ranking
			retryCfg := utils.DefaultRetryConfig()
			retryCfg.RetryOn = []error{apperrors.ErrGatewayUnavailable}
			err := utils.Retry(cmd.Context(), retryCfg, func() error {
				var scanErr error
				rankings, scanErr = app.Service.FindOpportunities(cmd.Context(), typ, symbol, criteria)
				return scanErr
			})
			if err != nil {
				output.Error("Scan failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(rankings)
			}
			renderRankings(output, symbol, typ, rankings)
			return nil
		},
	}

	cmd.Flags().StringVar(&strategyName, "strategy", string(models.StrategyCoveredCall), "strategy type (covered_call, iron_condor)")
	cmd.Flags().Float64Var(&minProfit, "min-profit", 0, "minimum max-profit in dollars")
	cmd.Flags().Float64Var(&minRiskReward, "min-risk-reward", 0, "minimum risk/reward ratio")
	cmd.Flags().Float64Var(&minProbability, "min-probability", 0, "minimum probability of profit (0-1)")
	cmd.Flags().Float64Var(&maxLoss, "max-loss", 0, "maximum acceptable loss in dollars")
	cmd.Flags().Float64Var(&minPremium, "min-premium", 0, "minimum premium collected in dollars")
	cmd.Flags().Float64Var(&maxBERange, "max-breakeven-range", 0, "maximum spread between breakevens")
	cmd.Flags().StringVar(&rankBy, "rank-by", string(models.RankByMaxProfit), "rank key (max_profit, risk_reward, probability, score)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum results (0 = configured default)")
	return cmd
}

func renderRankings(output *Output, symbol string, typ models.StrategyType, rankings []models.Ranking) {
	if len(rankings) == 0 {
		output.Warn("No %s opportunities matched the filters for %s", typ, symbol)
		return
	}

	output.Header("%s %s opportunities", symbol, typ)
	output.Printf("  %-4s %12s %12s %8s %8s %s\n", "#", "Max profit", "Max loss", "R/R", "PoP", "Breakevens")

	for i, r := range rankings {
		bes := ""
		for j, be := range r.Profile.Breakevens {
			if j > 0 {
				bes += " / "
			}
			bes += utils.FormatUSD(be.Price)
		}
		output.Printf("  %-4d %12s %12s %8s %8s %s\n",
			i+1,
			utils.FormatUSD(r.Profile.MaxProfit),
			utils.FormatUSD(r.Profile.MaxLoss),
			utils.FormatRatio(r.Profile.RiskReward),
			utils.FormatPercent(r.Profile.ProbabilityOfProfit),
			bes)
	}
}
