package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"options-scanner/internal/models"
	"options-scanner/pkg/utils"
)

func newEvaluateCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate one explicit strategy instance",
		Long: `Evaluate a strategy from explicitly quoted legs, without touching the
gateway. Prices are supplied on the command line; the output is the full
payoff profile.`,
	}

	cmd.AddCommand(newEvaluateCoveredCallCmd(app))
	cmd.AddCommand(newEvaluateIronCondorCmd(app))
	return cmd
}

func newEvaluateCoveredCallCmd(app *App) *cobra.Command {
	var (
		symbol     string
		stockPrice float64
		strike     float64
		premium    float64
		expiration string
	)

	cmd := &cobra.Command{
		Use:   "covered-call",
		Short: "Evaluate a covered call (100 shares + 1 short call)",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			exp, err := parseExpiration(expiration)
			if err != nil {
				return err
			}

			inst := models.StrategyInstance{
				Symbol: symbol,
				Legs: []models.StrategyLeg{
					{
						Instrument: models.Instrument{Symbol: symbol, SecType: models.SecurityStock, Exchange: models.ExchangeSmart, Currency: "USD"},
						Quantity:   100,
						Multiplier: 1,
						Entry:      models.Quote{Bid: stockPrice, Ask: stockPrice},
					},
					{
						Instrument: models.Instrument{
							Symbol: symbol, SecType: models.SecurityOption, Exchange: models.ExchangeOPRA,
							Currency: "USD", Strike: strike, Expiration: exp, Right: models.RightCall,
						},
						Quantity:   -1,
						Multiplier: 100,
						Entry:      models.Quote{Bid: premium, Ask: premium},
					},
				},
			}

			profile, err := app.Service.EvaluateStrategy(cmd.Context(), models.StrategyCoveredCall, inst)
			if err != nil {
				output.Error("Evaluation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(profile)
			}
			renderProfile(output, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "underlying symbol")
	cmd.Flags().Float64Var(&stockPrice, "stock-price", 0, "stock entry price per share")
	cmd.Flags().Float64Var(&strike, "strike", 0, "short call strike")
	cmd.Flags().Float64Var(&premium, "premium", 0, "short call premium per share")
	cmd.Flags().StringVar(&expiration, "expiration", "", "expiration date (YYYY-MM-DD)")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("stock-price")
	cmd.MarkFlagRequired("strike")
	cmd.MarkFlagRequired("premium")
	cmd.MarkFlagRequired("expiration")
	return cmd
}

func newEvaluateIronCondorCmd(app *App) *cobra.Command {
	var (
		symbol     string
		expiration string
		strikes    []float64
		prices     []float64
	)

	cmd := &cobra.Command{
		Use:   "iron-condor",
		Short: "Evaluate an iron condor (long put, short put, short call, long call)",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if len(strikes) != 4 || len(prices) != 4 {
				return fmt.Errorf("need exactly 4 strikes and 4 prices in put-buy, put-sell, call-sell, call-buy order")
			}

			exp, err := parseExpiration(expiration)
			if err != nil {
				return err
			}

			rights := []models.Right{models.RightPut, models.RightPut, models.RightCall, models.RightCall}
			quantities := []int{1, -1, -1, 1}
			legs := make([]models.StrategyLeg, 4)
			for i := range legs {
				legs[i] = models.StrategyLeg{
					Instrument: models.Instrument{
						Symbol: symbol, SecType: models.SecurityOption, Exchange: models.ExchangeOPRA,
						Currency: "USD", Strike: strikes[i], Expiration: exp, Right: rights[i],
					},
					Quantity:   quantities[i],
					Multiplier: 100,
					Entry:      models.Quote{Bid: prices[i], Ask: prices[i]},
				}
			}

			profile, err := app.Service.EvaluateStrategy(cmd.Context(), models.StrategyIronCondor,
				models.StrategyInstance{Symbol: symbol, Legs: legs})
			if err != nil {
				output.Error("Evaluation failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(profile)
			}
			renderProfile(output, profile)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "underlying symbol")
	cmd.Flags().StringVar(&expiration, "expiration", "", "expiration date (YYYY-MM-DD)")
	cmd.Flags().Float64SliceVar(&strikes, "strikes", nil, "four strikes: put-buy,put-sell,call-sell,call-buy")
	cmd.Flags().Float64SliceVar(&prices, "prices", nil, "four per-share prices in the same order")
	cmd.MarkFlagRequired("symbol")
	cmd.MarkFlagRequired("expiration")
	cmd.MarkFlagRequired("strikes")
	cmd.MarkFlagRequired("prices")
	return cmd
}

func parseExpiration(s string) (time.Time, error) {
	exp, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid expiration %q: use YYYY-MM-DD", s)
	}
	return exp, nil
}

func renderProfile(output *Output, p *models.PayoffProfile) {
	output.Header("%s %s", p.Symbol, p.Type)

	if p.EntryCost >= 0 {
		output.Printf("  Entry cost:     %s\n", utils.FormatUSD(p.EntryCost))
	} else {
		output.Printf("  Net credit:     %s\n", utils.FormatUSD(p.NetCredit()))
	}
	output.Printf("  Max profit:     %s\n", utils.FormatUSD(p.MaxProfit))
	output.Printf("  Max loss:       %s\n", utils.FormatUSD(p.MaxLoss))
	output.Printf("  Risk/reward:    %s\n", utils.FormatRatio(p.RiskReward))
	if p.ProbabilityOfProfit > 0 {
		output.Printf("  Prob. profit:   %s (delta heuristic)\n", utils.FormatPercent(p.ProbabilityOfProfit))
	}

	for _, be := range p.Breakevens {
		output.Printf("  Breakeven:      %s (profit %s)\n", utils.FormatUSD(be.Price), be.Direction)
	}

	if p.Greeks != nil {
		output.Dim("  Net delta %.2f  gamma %.3f  theta %.3f  vega %.3f",
			p.Greeks.Delta, p.Greeks.Gamma, p.Greeks.Theta, p.Greeks.Vega)
	}
}
