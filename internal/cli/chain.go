package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

// newChainCmd fetches and prints the option chain once.
func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chain",
		Short: "Show the option chain around the money",
		Example: `  desk chain
  desk chain --strikes 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			strikes, _ := cmd.Flags().GetInt("strikes")

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			expiry := app.Config.ExpiryTime(time.Now())
			chain, err := app.Source.GetOptionChain(ctx, app.Config.Desk.Symbol, expiry, strikes)
			if err != nil {
				output.Error("Chain fetch failed: %v", err)
				return err
			}

			if output.IsJSON() {
				return output.JSON(chain)
			}

			output.Bold("%s %s  spot %s  lot %d", chain.Symbol, FormatDate(chain.Expiry),
				FormatPrice(chain.SpotPrice), chain.LotSize)
			output.Println()
			output.Printf("  %10s %12s | %8s | %12s %10s\n", "CE OI", "CE LTP", "STRIKE", "PE LTP", "PE OI")
			for _, row := range chain.Rows {
				marker := " "
				if row.Strike <= chain.SpotPrice &&
					row.Strike+50 > chain.SpotPrice {
					marker = "*"
				}
				output.Printf("  %10s %12s |%s%7s | %12s %10s\n",
					FormatOI(row.CEOI), FormatPrice(row.CELTP),
					marker, FormatPrice(row.Strike),
					FormatPrice(row.PELTP), FormatOI(row.PEOI))
			}
			return nil
		},
	}

	cmd.Flags().Int("strikes", 10, "number of strikes around the money")
	return cmd
}
