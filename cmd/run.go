package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/sells-group/mrio-cli/internal/config"
	"github.com/sells-group/mrio-cli/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the configured stages for every year and country",
	Long: "Runs the feed, area and provenance stages in order for each configured year. " +
		"Country tasks run in parallel; a failed country is recorded in the run log and the year report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc, err := runConfig(cmd, "run")
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		quiet, _ := cmd.Flags().GetBool("quiet")

		eng, closeEngine, err := newEngine(ctx, rc, true)
		if err != nil {
			return err
		}
		defer closeEngine()

		return runEngine(ctx, eng, pipeline.RunOpts{Force: force}, quiet)
	},
}

func init() {
	addRunFlags(runCmd, true)
	runCmd.Flags().StringSlice("stages", nil, fmt.Sprintf("stages to run: %s, %s, %s or all (default from config)",
		config.StageFeed, config.StageArea, config.StageProvenance))
	runCmd.Flags().Bool("force", false, "recompute the feed matrix even when a checkpoint exists")
	runCmd.Flags().BoolP("quiet", "q", false, "disable the progress bar")
	rootCmd.AddCommand(runCmd)
}

// runEngine runs eng with a progress bar on stderr and prints the year summaries.
func runEngine(ctx context.Context, eng *pipeline.Engine, opts pipeline.RunOpts, quiet bool) error {
	if tasks := eng.Tasks(opts); tasks > 0 && !quiet {
		bar := newProgressBar(os.Stderr, tasks, fmt.Sprintf("tracing countries (%s)", eng.Config().Metric))
		opts.Progress = func(int, pipeline.CountryReport) { _ = bar.Add(1) }
	}

	reports, err := eng.Run(ctx, opts)
	formatYearReports(os.Stdout, reports)
	return err
}

func newProgressBar(w io.Writer, total int, desc string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription(desc),
		progressbar.OptionOnCompletion(func() { _, _ = fmt.Fprintln(w) }),
	)
}

// formatYearReports writes one row per country task, preceded by each year's stage summary.
func formatYearReports(out io.Writer, reports []*pipeline.YearReport) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, rep := range reports {
		_, _ = fmt.Fprintf(w, "Year %d (%s, %s)\n", rep.Year, rep.Metric, rep.Prefer)
		if rep.Feed != nil {
			if rep.Feed.Checkpoint {
				_, _ = fmt.Fprintln(w, "  feed:\tcheckpoint reused")
			} else {
				_, _ = fmt.Fprintf(w, "  feed:\t%d flows, %d requirements, %d shares\n",
					rep.Feed.Flows, rep.Feed.Requirements, rep.Feed.Shares)
			}
		}
		if rep.Area != nil {
			_, _ = fmt.Fprintf(w, "  area:\t%d of %d flows, %.1f ha\n", rep.Area.WithArea, rep.Area.Flows, rep.Area.Hectares)
		}
		if rep.Error != "" {
			_, _ = fmt.Fprintf(w, "  error:\t%s\n", rep.Error)
		}
		if len(rep.Countries) > 0 {
			_, _ = fmt.Fprintln(w, "  COUNTRY\tSTATUS\tHUMAN\tFEED\tIMPACTS\tMISSING\tERROR")
			for _, c := range rep.Countries {
				_, _ = fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%d\t%d\t%s\n",
					c.Country, c.Status, c.HumanRows, c.FeedRows, c.ImpactRows, c.MissingItems, c.Error)
			}
			_, _ = fmt.Fprintf(w, "  missing items:\t%d\n", rep.MissingItems)
		}
	}
	_ = w.Flush()
}
