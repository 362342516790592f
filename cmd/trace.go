package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/mrio-cli/internal/config"
	"github.com/sells-group/mrio-cli/internal/pipeline"
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace provenance and impacts for the configured countries",
	Long: "Runs only the provenance stage. The feed-inclusive trade matrix of each year must already exist " +
		"(see \"mrio feed\").",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rc, err := runConfig(cmd, "trace")
		if err != nil {
			return err
		}
		quiet, _ := cmd.Flags().GetBool("quiet")
		noLog, _ := cmd.Flags().GetBool("no-log")

		eng, closeEngine, err := newEngine(ctx, rc, !noLog)
		if err != nil {
			return err
		}
		defer closeEngine()

		return runEngine(ctx, eng, pipeline.RunOpts{Stages: []string{config.StageProvenance}}, quiet)
	},
}

func init() {
	addRunFlags(traceCmd, true)
	traceCmd.Flags().BoolP("quiet", "q", false, "disable the progress bar")
	traceCmd.Flags().Bool("no-log", false, "do not record tasks in the run log")
	rootCmd.AddCommand(traceCmd)
}
