package main

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-intel/internal/leadio"
	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/pipeline"
	"github.com/sells-group/lead-intel/internal/research"
)

var (
	researchIndustry string
	researchLocation string
	researchSize     string
	researchBatch    string
)

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research candidate companies for an industry and location",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if err := cfg.Validate("research"); err != nil {
			zap.L().Warn("research config incomplete, requests will fall back", zap.Error(err))
		}
		rc, err := research.NewFromConfig(cfg)
		if err != nil {
			return err
		}

		if researchBatch != "" {
			reqs, err := readResearchRequests(researchBatch)
			if err != nil {
				return err
			}
			results, err := runResearchBatch(ctx, rc, reqs, cfg.Batch.MaxConcurrentRequests)
			if err != nil {
				return err
			}
			return leadio.WriteJSON(cmd.OutOrStdout(), results)
		}

		if researchIndustry == "" || researchLocation == "" {
			return eris.New("--industry and --location are required without --batch")
		}
		cands := rc.ResearchCompanies(ctx, researchIndustry, researchLocation, researchSize)
		return leadio.WriteJSON(cmd.OutOrStdout(), cands)
	},
}

// researchResult is one batch entry in the command output.
type researchResult struct {
	Request    research.Request         `json:"request"`
	Outcome    research.Outcome         `json:"outcome"`
	Fallback   bool                     `json:"fallback"`
	Candidates []model.CompanyCandidate `json:"candidates"`
}

type batchRequest struct {
	Industry    string `yaml:"industry"`
	Location    string `yaml:"location"`
	CompanySize string `yaml:"company_size"`
}

// readResearchRequests reads a JSON or YAML list of research requests.
func readResearchRequests(path string) ([]research.Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read batch file %s", path)
	}
	var items []batchRequest
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, eris.Wrapf(err, "parse batch file %s", path)
	}
	reqs := make([]research.Request, 0, len(items))
	for i, it := range items {
		if it.Industry == "" || it.Location == "" {
			return nil, eris.Errorf("batch entry %d: industry and location are required", i+1)
		}
		reqs = append(reqs, research.Request{Industry: it.Industry, Location: it.Location, CompanySize: it.CompanySize})
	}
	return reqs, nil
}

// runResearchBatch researches every request with at most concurrency calls in
// flight. Results keep request order.
func runResearchBatch(ctx context.Context, r pipeline.Researcher, reqs []research.Request, concurrency int) ([]researchResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}
	zap.L().Info("processing research batch",
		zap.Int("requests", len(reqs)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]researchResult, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, req := range reqs {
		g.Go(func() error {
			cands, out := r.Research(gctx, req)
			results[i] = researchResult{Request: req, Outcome: out, Fallback: !out.OK(), Candidates: cands}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "research batch")
	}
	return results, nil
}

func init() {
	researchCmd.Flags().StringVar(&researchIndustry, "industry", "", "target industry")
	researchCmd.Flags().StringVar(&researchLocation, "location", "", "target location")
	researchCmd.Flags().StringVar(&researchSize, "size", "", "company size focus (default medium)")
	researchCmd.Flags().StringVar(&researchBatch, "batch", "", "JSON or YAML file with a list of {industry, location, company_size}")
	rootCmd.AddCommand(researchCmd)
}
