package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/capture"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/source"
	"yearcal/internal/web"
)

// refreshTimeout bounds one scheduled refresh, capture included.
const refreshTimeout = 2 * time.Minute

func newServeCmd(g *globalOpts) *cobra.Command {
	var (
		listen      string
		withCapture bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the year page and API, refreshing calendars on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			ctx := cmd.Context()

			appLog.Info("yearcal starting",
				"version", version,
				"listen", cfg.Listen,
				"timezone", cfg.Timezone,
				"week_start", cfg.WeekStart,
				"layout", cfg.Layout,
				"refresh", cfg.RefreshCron,
				"ics_count", len(cfg.ICS),
			)

			store := source.NewStore(cfg, ics.NewFetcher(g.cacheDir(cfg, "ics-cache")))
			previewPath := g.cacheDir(cfg, "preview.png")
			selfURL := fmt.Sprintf("http://%s/year", cfg.Listen)

			refresh := func(ctx context.Context) error {
				if err := store.Refresh(ctx); err != nil {
					return err
				}
				if !withCapture {
					return nil
				}
				return capture.CaptureYearPNG(ctx, capture.Options{URL: selfURL, OutputPath: previewPath})
			}

			sched, err := source.NewScheduler(cfg.RefreshCron, refreshTimeout, refresh)
			if err != nil {
				return err
			}

			// The first refresh runs in the background so the server is
			// reachable immediately; its capture needs the server anyway.
			go func() {
				rctx, cancel := context.WithTimeout(ctx, refreshTimeout)
				defer cancel()
				if err := refresh(rctx); err != nil {
					appLog.Error("initial refresh failed", err)
				}
			}()

			sched.Start()
			appLog.Info("refresh scheduled", "next", sched.Next())
			defer func() {
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				sched.Stop(stopCtx)
				appLog.Info("yearcal exiting")
			}()

			srv := web.NewServer(cfg, store, web.Options{PreviewPath: previewPath, Location: store.Location()})
			return srv.Run(ctx, cfg.Listen)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "HTTP listen address (overrides config)")
	cmd.Flags().BoolVar(&withCapture, "capture", false, "capture /year to preview.png after every refresh")
	return cmd
}
