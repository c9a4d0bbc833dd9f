package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"options-desk/internal/engine"
	"options-desk/internal/feed"
	"options-desk/internal/server"
	"options-desk/internal/syncbus"
)

// newDashboardCmd runs the full desk: feed, engine and dashboard server,
// until interrupted.
func newDashboardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Run the live payoff dashboard",
		Long: `Run the price feed, compute engine and dashboard server.

The dashboard pushes the payoff curve, breakevens and position summary to
connected browsers over WebSocket. Press Ctrl+C to stop.`,
		Example: `  desk dashboard
  desk dashboard --addr 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			if addr == "" {
				addr = app.Config.Server.Addr
			}

			now := time.Now()
			expiry := app.Config.ExpiryTime(now)

			bus := syncbus.New(app.Logger)
			eng := engine.New(engine.Config{
				Symbol:   app.Config.Desk.Symbol,
				Expiry:   expiry,
				LotSize:  app.Config.Desk.LotSize,
				Autosave: app.Config.Desk.Autosave,
			}, bus, nil, app.KV, app.Logger)
			defer eng.Close()

			feedCfg := feed.DefaultConfig(app.Config.Desk.Symbol, expiry)
			if app.Config.Feed.Interval > 0 {
				feedCfg.Interval = app.Config.Feed.Interval
			}
			if app.Config.Feed.StrikeCount > 0 {
				feedCfg.StrikeCount = app.Config.Feed.StrikeCount
			}
			priceFeed := feed.New(feedCfg, app.Source, bus, app.Logger)
			defer priceFeed.Close()
			eng.AttachFeed(priceFeed)

			srv := server.New(server.Config{Addr: addr}, eng, app.Logger)
			eng.AttachChart(srv)
			eng.AttachSummarySink(srv)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := eng.Restore(ctx); err != nil {
				app.Logger.Warn().Err(err).Msg("Failed to restore saved positions")
			}

			priceFeed.Start(ctx)
			defer priceFeed.Stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			app.Logger.Info().
				Str("symbol", app.Config.Desk.Symbol).
				Str("addr", addr).
				Time("expiry", expiry).
				Msg("Dashboard running")

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-sigCh:
			case <-ctx.Done():
			}

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}
