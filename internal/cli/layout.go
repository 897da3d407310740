package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"yearcal/internal/config"
	"yearcal/internal/ics"
	"yearcal/internal/layout"
	appLog "yearcal/internal/log"
	"yearcal/internal/source"
	"yearcal/internal/textview"
	"yearcal/internal/view"
)

const (
	formatText = "text"
	formatJSON = "json"
)

// layoutOpts holds the flags of the layout command.
type layoutOpts struct {
	year     int
	style    string
	format   string
	maxRows  int
	featured bool
	icsFiles []string
}

func newLayoutCmd(g *globalOpts) *cobra.Command {
	opts := layoutOpts{format: formatText}

	cmd := &cobra.Command{
		Use:   "layout",
		Short: "Fetch events once and print a year layout",
		Example: `  yearcal layout --year 2026 --style months
  yearcal layout --ics holidays.ics --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("max-rows") {
				opts.maxRows = cfg.MaxRows
			}
			if opts.style == "" {
				opts.style = cfg.Layout
			}
			return runLayout(cmd, g, cfg, opts)
		},
	}

	cmd.Flags().IntVar(&opts.year, "year", 0, "year to lay out (default: current year)")
	cmd.Flags().StringVar(&opts.style, "style", "", "layout style: year, months or grid (default: config layout)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", formatText, "output format: text or json")
	cmd.Flags().IntVar(&opts.maxRows, "max-rows", 0, "rows per grid instance, negative for unbounded (default: config max_rows)")
	cmd.Flags().BoolVar(&opts.featured, "featured", false, "include the featured event per day (json)")
	cmd.Flags().StringSliceVar(&opts.icsFiles, "ics", nil, "read events from local ICS files instead of the configured sources")
	return cmd
}

func runLayout(cmd *cobra.Command, g *globalOpts, cfg *config.Config, opts layoutOpts) error {
	ctx := cmd.Context()
	loc := source.ResolveLocation(cfg.Timezone)

	style, err := view.ParseStyle(opts.style)
	if err != nil {
		return err
	}
	format := strings.ToLower(opts.format)
	if format != formatText && format != formatJSON {
		return fmt.Errorf("unknown format %q (want text or json)", opts.format)
	}
	year := opts.year
	if year == 0 {
		year = time.Now().In(loc).Year()
	}

	provider, err := layoutProvider(ctx, g, cfg, opts.icsFiles, year, loc)
	if err != nil {
		return err
	}
	from, to := source.YearRange(year, loc)
	events, err := provider.Events(ctx, layout.AddDays(from, -7), layout.AddDays(to, 7))
	if err != nil {
		return err
	}
	appLog.Debug("layout events loaded", "year", year, "events", len(events))

	y, err := view.Build(ctx, events, view.Request{
		Year:     year,
		Style:    style,
		Calendar: cfg.CalendarConfig(),
		MaxRows:  opts.maxRows,
		Featured: opts.featured,
		Location: loc,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(y)
	}
	textview.Fprint(out, y)
	return nil
}

// layoutProvider reads local ICS files when given, otherwise refreshes the
// configured subscriptions once.
func layoutProvider(ctx context.Context, g *globalOpts, cfg *config.Config, files []string, year int, loc *time.Location) (source.Provider, error) {
	if len(files) == 0 {
		store := source.NewStore(cfg, ics.NewFetcher(g.cacheDir(cfg, "ics-cache")))
		if err := store.Refresh(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}

	var parsed []ics.ParsedEvent
	for _, path := range files {
		body, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		evs, err := ics.ParseICS(ics.Source{ID: id, Name: id, URL: "file://" + path}, body)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		parsed = append(parsed, evs...)
	}

	from, to := source.YearRange(year, loc)
	res, err := ics.ExpandOccurrences(parsed, ics.ExpandConfig{
		DisplayLocation: loc,
		RangeStart:      layout.AddDays(from, -7),
		RangeEnd:        layout.AddDays(to, 7),
	})
	if err != nil {
		return nil, err
	}
	filter := source.FilterFromConfig(cfg)
	// Local files are not configured calendars.
	filter.Calendars = nil
	return source.Static(filter.Apply(res.Events)), nil
}
