package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/leadio"
)

var (
	dedupeIn        string
	dedupeThreshold float64
	dedupeFormat    string
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Remove duplicate leads, keeping the first of each group",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initCore(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		labeled, err := leadio.ReadFile(dedupeIn)
		if err != nil {
			return err
		}
		leads := leadio.Leads(labeled)

		threshold := env.Dedup.Threshold()
		if cmd.Flags().Changed("threshold") {
			if dedupeThreshold <= 0 || dedupeThreshold > 100 {
				return eris.Errorf("--threshold must be in (0, 100], got %v", dedupeThreshold)
			}
			threshold = dedupeThreshold
		}

		unique := env.Dedup.DedupeAt(leads, threshold)
		zap.L().Info("dedupe complete",
			zap.Int("input", len(leads)),
			zap.Int("unique", len(unique)),
			zap.Float64("threshold", threshold),
		)

		if dedupeFormat == "csv" {
			return leadio.WriteLeadsCSV(cmd.OutOrStdout(), unique)
		}
		return leadio.WriteJSON(cmd.OutOrStdout(), unique)
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeIn, "in", "", "lead file (.json, .yaml, .csv or .xlsx)")
	dedupeCmd.Flags().Float64Var(&dedupeThreshold, "threshold", 0, "override the persisted threshold for this run")
	dedupeCmd.Flags().StringVar(&dedupeFormat, "format", "json", "output format: json or csv")
	_ = dedupeCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(dedupeCmd)
}
