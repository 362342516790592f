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

var areaCmd = &cobra.Command{
	Use:   "area",
	Short: "Attach harvested area to the feed-inclusive trade matrix",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc, err := runConfig(cmd, "area")
		if err != nil {
			return err
		}

		eng := pipeline.New(rc)
		var failed int
		for _, year := range rc.Years {
			st, err := eng.RunArea(ctx, year)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				failed++
				zap.L().Error("area stage failed", zap.Int("year", year), zap.Error(err))
				fmt.Fprintf(os.Stdout, "%d\tfailed: %v\n", year, err)
				continue
			}
			fmt.Fprintf(os.Stdout, "%d\t%d of %d flows with area, %.1f ha\n", year, st.WithArea, st.Flows, st.Hectares)
		}
		if failed > 0 {
			return eris.Errorf("area: %d of %d years failed", failed, len(rc.Years))
		}
		return nil
	},
}

func init() {
	addRunFlags(areaCmd, false)
	rootCmd.AddCommand(areaCmd)
}
