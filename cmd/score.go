package main

import (
	"github.com/spf13/cobra"

	"github.com/sells-group/lead-intel/internal/leadio"
	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/scorer"
)

var (
	scoreIn     string
	scoreRank   bool
	scoreFormat string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score leads with the persisted scoring bundle",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initCore(ctx, cfg)
		if err != nil {
			return err
		}
		defer env.Close()

		labeled, err := leadio.ReadFile(scoreIn)
		if err != nil {
			return err
		}
		results := scoreLeads(env.Scorer, leadio.Leads(labeled), scoreRank)

		if scoreFormat == "csv" {
			return leadio.WriteRankedCSV(cmd.OutOrStdout(), results)
		}
		return leadio.WriteJSON(cmd.OutOrStdout(), results)
	},
}

// scoreLeads scores leads in input order, or ranks them when rank is set.
func scoreLeads(s *scorer.Scorer, leads []model.Lead, rank bool) []scorer.Ranked {
	if rank {
		return s.Rank(leads)
	}
	out := make([]scorer.Ranked, len(leads))
	for i, l := range leads {
		out[i] = scorer.Ranked{Lead: l}
		score, err := s.Score(l)
		if err != nil {
			out[i].Error = err.Error()
			continue
		}
		out[i].Score, out[i].Scored = score, true
	}
	return out
}

func init() {
	scoreCmd.Flags().StringVar(&scoreIn, "in", "", "lead file (.json, .yaml, .csv or .xlsx)")
	scoreCmd.Flags().BoolVar(&scoreRank, "rank", false, "sort leads by descending score")
	scoreCmd.Flags().StringVar(&scoreFormat, "format", "json", "output format: json or csv")
	_ = scoreCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(scoreCmd)
}
