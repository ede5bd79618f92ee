package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/leadio"
)

var (
	trainIn             string
	trainDedupThreshold float64
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Fit the scoring bundle on labelled leads",
	Long:  "Fits the encoders and classifier on a labelled lead file and persists them. With --dedup-threshold it also replaces the persisted duplicate threshold.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initCore(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()
		if err := env.requireStore(); err != nil {
			return eris.Wrap(err, "train")
		}

		labeled, err := leadio.ReadFile(trainIn)
		if err != nil {
			return err
		}
		if err := env.Scorer.Fit(ctx, leadio.Leads(labeled), leadio.Labels(labeled)); err != nil {
			return eris.Wrap(err, "train scorer")
		}

		if cmd.Flags().Changed("dedup-threshold") {
			if err := env.Dedup.Retrain(ctx, trainDedupThreshold); err != nil {
				return eris.Wrap(err, "retrain dedup")
			}
		}

		b := env.Scorer.Bundle()
		zap.L().Info("training complete",
			zap.String("version", b.Version),
			zap.Int("examples", len(labeled)),
			zap.Float64("dedup_threshold", env.Dedup.Threshold()),
		)
		return leadio.WriteJSON(cmd.OutOrStdout(), map[string]any{
			"version":         b.Version,
			"trained_at":      b.TrainedAt,
			"examples":        len(labeled),
			"dedup_threshold": env.Dedup.Threshold(),
		})
	},
}

func init() {
	trainCmd.Flags().StringVar(&trainIn, "in", "", "labelled lead file (.json, .yaml, .csv or .xlsx)")
	trainCmd.Flags().Float64Var(&trainDedupThreshold, "dedup-threshold", 0, "also persist a new duplicate threshold in (0, 100]")
	_ = trainCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(trainCmd)
}
