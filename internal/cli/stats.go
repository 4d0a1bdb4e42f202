package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/docdal/internal/stats"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	Database string
	Reset    bool
}

// StatRow is one entity/operation line of the stats output.
type StatRow struct {
	Entity    string  `json:"entity"`
	Operation string  `json:"operation"`
	Calls     int64   `json:"calls"`
	TotalMS   float64 `json:"total_ms"`
	MeanMS    float64 `json:"mean_ms"`
	MaxMS     float64 `json:"max_ms"`
}

// StatsResult holds the persisted statistics.
type StatsResult struct {
	Reset bool      `json:"reset,omitempty"`
	Stats []StatRow `json:"stats"`
}

// Text renders the statistics as a table.
func (r StatsResult) Text() string {
	if r.Reset {
		return "statistics cleared\n"
	}
	if len(r.Stats) == 0 {
		return "no statistics recorded\n"
	}
	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ENTITY\tOPERATION\tCALLS\tTOTAL ms\tMEAN ms\tMAX ms\t")
	for _, s := range r.Stats {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.3f\t%.3f\t%.3f\t\n", s.Entity, s.Operation, s.Calls, s.TotalMS, s.MeanMS, s.MaxMS)
	}
	tw.Flush()
	return sb.String()
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show persisted operation statistics",
		Long: `Show the per-entity operation statistics recorded by find, count and
update when a statistics database is configured.

Examples:
  docdal stats --db ./stats.db
  docdal stats --db ./stats.db --reset`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite statistics database (default: stats.path from config)")
	cmd.Flags().BoolVar(&opts.Reset, "reset", false, "clear the statistics")

	return cmd
}

func runStats(opts *StatsOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	path := opts.Database
	if path == "" {
		path = s.cfg.Stats.Path
	}
	if path == "" {
		return s.fail(ErrCodeConfig, ExitCommandError, "no statistics database",
			errors.New("pass --db or set stats.path"))
	}

	st, err := stats.Open(path, stats.WithLogger(s.logger))
	if err != nil {
		return s.fail(ErrCodeStatsFailed, ExitCommandError, "failed to open statistics", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			s.logger.Error("error closing statistics", "error", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Reset {
		if err := st.Reset(ctx); err != nil {
			return s.fail(ErrCodeStatsFailed, ExitCommandError, "failed to reset statistics", err)
		}
		return s.formatter.Success(StatsResult{Reset: true, Stats: []StatRow{}})
	}

	list, err := st.List(ctx)
	if err != nil {
		return s.fail(ErrCodeStatsFailed, ExitCommandError, "failed to read statistics", err)
	}

	result := StatsResult{Stats: []StatRow{}}
	for _, op := range list {
		result.Stats = append(result.Stats, StatRow{
			Entity:    op.Entity,
			Operation: op.Operation,
			Calls:     op.Calls,
			TotalMS:   ms(op.Total),
			MeanMS:    ms(op.Mean()),
			MaxMS:     ms(op.Max),
		})
	}
	return s.formatter.Success(result)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
