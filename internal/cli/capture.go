package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/capture"
	appLog "yearcal/internal/log"
)

func newCaptureCmd(g *globalOpts) *cobra.Command {
	var opts capture.Options

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Screenshot the year page of a running server to PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if opts.URL == "" {
				opts.URL = fmt.Sprintf("http://%s/year", cfg.Listen)
			}
			if opts.OutputPath == "" {
				opts.OutputPath = g.cacheDir(cfg, "preview.png")
			}

			started := time.Now()
			if err := capture.CaptureYearPNG(cmd.Context(), opts); err != nil {
				return err
			}
			appLog.Info("capture written", "url", opts.URL, "out", opts.OutputPath, "took", time.Since(started).Round(time.Millisecond))
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.URL, "url", "", "page to capture (default: http://<listen>/year)")
	cmd.Flags().StringVarP(&opts.OutputPath, "out", "o", "", "output PNG path (default: <cache_dir>/preview.png)")
	cmd.Flags().IntVar(&opts.Width, "width", capture.DefaultWidth, "viewport width in pixels")
	cmd.Flags().IntVar(&opts.Height, "height", capture.DefaultHeight, "viewport height in pixels")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", capture.DefaultTimeoutSec*time.Second, "overall capture timeout")
	return cmd
}
