package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/leadio"
	"github.com/sells-group/lead-intel/internal/pipeline"
)

var (
	runIndustry string
	runLocation string
	runSize     string
	runDedupe   bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Research, de-duplicate and rank leads for one request",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initCore(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		if runIndustry == "" || runLocation == "" {
			return eris.New("--industry and --location are required")
		}
		result := env.Pipeline.Run(ctx, pipeline.Request{
			Industry:    runIndustry,
			Location:    runLocation,
			CompanySize: runSize,
			Dedupe:      runDedupe,
		})

		zap.L().Info("run complete",
			zap.String("run_id", result.RunID),
			zap.Bool("fallback", result.Fallback),
			zap.Int("leads", len(result.Leads)),
		)
		return leadio.WriteJSON(cmd.OutOrStdout(), result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runIndustry, "industry", "", "target industry (required)")
	runCmd.Flags().StringVar(&runLocation, "location", "", "target location (required)")
	runCmd.Flags().StringVar(&runSize, "size", "", "company size focus (default medium)")
	runCmd.Flags().BoolVar(&runDedupe, "dedupe", false, "remove duplicate leads before ranking")
	_ = runCmd.MarkFlagRequired("industry")
	_ = runCmd.MarkFlagRequired("location")
	rootCmd.AddCommand(runCmd)
}
