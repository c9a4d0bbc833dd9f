package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"options-desk/internal/legstore"
	"options-desk/internal/payoff"
	"options-desk/internal/store"
)

// newPositionsCmd manages the persisted leg array outside a running
// dashboard.
func newPositionsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "positions",
		Short: "Manage saved positions",
		Long:  "Show, export, import or clear the persisted position legs.",
	}

	cmd.AddCommand(newPositionsShowCmd(app))
	cmd.AddCommand(newPositionsExportCmd(app))
	cmd.AddCommand(newPositionsImportCmd(app))
	cmd.AddCommand(newPositionsClearCmd(app))
	return cmd
}

// loadLegs reads the persisted leg array into a fresh store. A missing key
// yields an empty store.
func loadLegs(ctx context.Context, kv store.KVStore) (*legstore.Store, error) {
	legs := legstore.New()
	value, ok, err := kv.Get(ctx, store.KeyPositions)
	if err != nil {
		return nil, err
	}
	if !ok {
		return legs, nil
	}
	if err := legs.ImportJSON([]byte(value)); err != nil {
		return nil, err
	}
	return legs, nil
}

func newPositionsShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show saved positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			legs, err := loadLegs(ctx, app.KV)
			if err != nil {
				return err
			}
			snapshot := legs.Snapshot()
			if output.IsJSON() {
				return output.JSON(snapshot)
			}
			if len(snapshot) == 0 {
				output.Dim("No positions")
				return nil
			}

			output.Bold("Positions")
			for _, leg := range snapshot {
				output.Printf("  %-16s qty %-3d entry %s\n",
					leg.Key.String(), leg.Quantity, FormatPrice(leg.EntryPremium))
			}
			res := payoff.Compute(snapshot, app.Config.Desk.LotSize)
			output.Println()
			output.Printf("  Max Profit: %s\n", formatExtreme(res.MaxProfit, res.MaxProfitUnbounded))
			output.Printf("  Max Loss:   %s\n", formatExtreme(res.MaxLoss, res.MaxLossUnbounded))
			if len(res.Breakevens) > 0 {
				output.Printf("  Breakevens:")
				for _, be := range res.Breakevens {
					output.Printf(" %s", FormatPrice(be))
				}
				output.Println()
			}
			return nil
		},
	}
}

func formatExtreme(v float64, unbounded bool) string {
	if unbounded {
		return "unbounded"
	}
	return FormatPnL(v)
}

func newPositionsExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export positions as a JSON leg array",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			legs, err := loadLegs(ctx, app.KV)
			if err != nil {
				return err
			}
			data, err := legs.ExportJSON()
			if err != nil {
				return err
			}
			if len(args) == 0 {
				output.Println(string(data))
				return nil
			}
			if err := os.WriteFile(args[0], data, 0644); err != nil {
				return fmt.Errorf("writing %s: %w", args[0], err)
			}
			output.Success("✓ Exported %d legs to %s", legs.Len(), args[0])
			return nil
		},
	}
	return cmd
}

func newPositionsImportCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import positions from a JSON leg array",
		Long: `Import positions from a JSON leg array.

The import is atomic: a malformed file leaves saved positions untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			// Validate through the store before persisting.
			legs := legstore.New()
			if err := legs.ImportJSON(data); err != nil {
				output.Error("Import rejected: %v", err)
				return err
			}
			canonical, err := legs.ExportJSON()
			if err != nil {
				return err
			}
			if err := app.KV.Put(ctx, store.KeyPositions, string(canonical)); err != nil {
				return err
			}
			output.Success("✓ Imported %d legs", legs.Len())
			return nil
		},
	}
}

func newPositionsClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all saved positions",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()

			if err := app.KV.Delete(ctx, store.KeyPositions); err != nil {
				return err
			}
			output.Success("✓ Positions cleared")
			return nil
		},
	}
}
