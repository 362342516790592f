package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/mrio-cli/internal/config"
	"github.com/sells-group/mrio-cli/internal/dataset"
	"github.com/sells-group/mrio-cli/internal/pipeline"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Report which input files each stage is missing",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rc, err := runConfig(cmd, "check")
		if err != nil {
			return err
		}
		if missing := checkInputs(os.Stdout, rc); missing > 0 {
			return eris.Errorf("check: %d input files missing", missing)
		}
		return nil
	},
}

func init() {
	addRunFlags(checkCmd, false)
	checkCmd.Flags().StringSlice("stages", nil, "stages to check (default from config)")
	rootCmd.AddCommand(checkCmd)
}

// checkInputs lists the input files of every configured year and stage, marking
// missing ones, and returns how many are missing. Files produced by an earlier
// selected stage are not counted.
func checkInputs(out io.Writer, rc pipeline.RunConfig) int {
	l := rc.Layout
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	missing := 0
	for _, year := range rc.Years {
		produced := map[string]bool{}
		for _, stage := range rc.Stages {
			var paths []string
			switch stage {
			case config.StageFeed:
				paths = l.FeedInputs(year)
			case config.StageArea:
				paths = []string{l.TradeMatrixFeed(year), l.FAOSTAT(dataset.FileYields, year)}
			case config.StageProvenance:
				paths = l.ProvenanceInputs(year)
			}
			for _, p := range paths {
				state := "ok"
				switch {
				case dataset.Exists(p):
				case produced[p]:
					state = "produced by feed"
				default:
					state = "MISSING"
					missing++
				}
				_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", year, stage, state, p)
			}
			if stage == config.StageFeed {
				produced[l.TradeMatrixFeed(year)] = true
			}
		}
	}
	_ = w.Flush()
	return missing
}
