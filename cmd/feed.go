package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/mrio-cli/internal/pipeline"
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Build the feed-inclusive trade matrix",
	Long: "Allocates the crop feed embodied in traded animal products and writes " +
		"TradeMatrixFeed_{prefer}_{metric}.csv for each year. Existing matrices are kept unless --force is set.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc, err := runConfig(cmd, "feed")
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")

		eng := pipeline.New(rc)
		var failed int
		for _, year := range rc.Years {
			st, err := eng.RunFeed(ctx, year, force)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed++
				zap.L().Error("feed stage failed", zap.Int("year", year), zap.Error(err))
				fmt.Fprintf(os.Stdout, "%d\tfailed: %v\n", year, err)
				continue
			}
			if st.Checkpoint {
				fmt.Fprintf(os.Stdout, "%d\tcheckpoint reused: %s\n", year, rc.Layout.TradeMatrixFeed(year))
				continue
			}
			fmt.Fprintf(os.Stdout, "%d\t%d flows written to %s\n", year, st.Flows, rc.Layout.TradeMatrixFeed(year))
		}
		if failed > 0 {
			return eris.Errorf("feed: %d of %d years failed", failed, len(rc.Years))
		}
		return nil
	},
}

func init() {
	addRunFlags(feedCmd, false)
	feedCmd.Flags().Bool("force", false, "recompute matrices that already exist")
	rootCmd.AddCommand(feedCmd)
}
