// Package pipeline runs research, validation, optional de-duplication and
// scoring for one lead request.
package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/research"
	"github.com/sells-group/lead-intel/internal/scorer"
)

// Researcher finds candidate companies. It must always return at least one
// candidate.
type Researcher interface {
	Research(ctx context.Context, req research.Request) ([]model.CompanyCandidate, research.Outcome)
}

// Deduper removes duplicate leads, keeping the first of each group.
type Deduper interface {
	Dedupe(leads []model.Lead) []model.Lead
}

// Ranker scores leads and sorts them by descending score.
type Ranker interface {
	Rank(leads []model.Lead) []scorer.Ranked
}

// Request is one pipeline invocation.
type Request struct {
	Industry    string `json:"industry"`
	Location    string `json:"location"`
	CompanySize string `json:"company_size,omitempty"`
	Dedupe      bool   `json:"dedupe,omitempty"`
}

// Phase status values.
const (
	PhaseComplete = "complete"
	PhaseSkipped  = "skipped"
	PhaseFallback = "fallback"
	PhasePartial  = "partial"
)

// PhaseResult records how one pipeline phase went.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   string         `json:"status"`
	Duration int64          `json:"duration_ms"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Result is the output of Run.
type Result struct {
	RunID      string                   `json:"run_id"`
	Request    Request                  `json:"request"`
	Outcome    research.Outcome         `json:"outcome"`
	Fallback   bool                     `json:"fallback"`
	Candidates []model.CompanyCandidate `json:"candidates"`
	Leads      []scorer.Ranked          `json:"leads"`
	Phases     []PhaseResult            `json:"phases"`
}

// Pipeline wires the research client, duplicate detector and scorer.
type Pipeline struct {
	research Researcher
	dedup    Deduper
	scorer   Ranker
}

// New creates a Pipeline.
func New(r Researcher, d Deduper, s Ranker) *Pipeline {
	return &Pipeline{research: r, dedup: d, scorer: s}
}

// Run researches companies for req, converts them to leads, optionally
// removes duplicates and ranks the rest. Upstream failures surface only as a
// fallback outcome, never as an error.
func (p *Pipeline) Run(ctx context.Context, req Request) Result {
	result := Result{RunID: uuid.NewString(), Request: req}
	log := zap.L().With(
		zap.String("component", "pipeline"),
		zap.String("run_id", result.RunID),
	)
	log.Info("pipeline: starting run",
		zap.String("industry", req.Industry),
		zap.String("location", req.Location),
	)

	trackPhase := func(name string, fn func() PhaseResult) {
		start := time.Now()
		phase := fn()
		phase.Name = name
		phase.Duration = time.Since(start).Milliseconds()
		log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.String("status", phase.Status),
			zap.Int64("duration_ms", phase.Duration),
		)
		result.Phases = append(result.Phases, phase)
	}

	trackPhase("research", func() PhaseResult {
		result.Candidates, result.Outcome = p.research.Research(ctx, research.Request{
			Industry:    req.Industry,
			Location:    req.Location,
			CompanySize: req.CompanySize,
		})
		result.Fallback = !result.Outcome.OK()
		status := PhaseComplete
		if result.Fallback {
			status = PhaseFallback
		}
		return PhaseResult{Status: status, Metadata: map[string]any{
			"outcome":    string(result.Outcome.Kind),
			"candidates": len(result.Candidates),
		}}
	})

	leads := make([]model.Lead, len(result.Candidates))
	for i, c := range result.Candidates {
		leads[i] = LeadFromCandidate(c)
	}

	trackPhase("dedupe", func() PhaseResult {
		if !req.Dedupe || p.dedup == nil {
			return PhaseResult{Status: PhaseSkipped}
		}
		before := len(leads)
		leads = p.dedup.Dedupe(leads)
		return PhaseResult{Status: PhaseComplete, Metadata: map[string]any{
			"input":  before,
			"unique": len(leads),
		}}
	})

	trackPhase("score", func() PhaseResult {
		result.Leads = p.scorer.Rank(leads)
		unscored := 0
		for _, r := range result.Leads {
			if !r.Scored {
				unscored++
			}
		}
		status := PhaseComplete
		if unscored > 0 {
			status = PhasePartial
		}
		return PhaseResult{Status: status, Metadata: map[string]any{
			"leads":    len(result.Leads),
			"unscored": unscored,
		}}
	})

	log.Info("pipeline: run complete",
		zap.Bool("fallback", result.Fallback),
		zap.Int("leads", len(result.Leads)),
	)
	return result
}

var sizeNumber = regexp.MustCompile(`\d[\d,]*`)

// LeadFromCandidate maps a research candidate onto a lead: the first decision
// maker becomes the key person, the reasoning becomes the free text, the
// first integer in the size becomes the company size and the confidence
// becomes the intent score.
func LeadFromCandidate(c model.CompanyCandidate) model.Lead {
	lead := model.Lead{
		CompanyName: c.Name,
		IntentScore: model.Float(c.Confidence),
	}
	if len(c.DecisionMakers) > 0 {
		lead.KeyPerson = c.DecisionMakers[0]
	}
	if c.Reasoning != "" {
		lead.About = model.String(c.Reasoning)
	}
	if c.Industry != "" && c.Industry != model.Unknown {
		lead.Industry = model.String(c.Industry)
	}
	if m := sizeNumber.FindString(c.Size); m != "" {
		if n, err := strconv.ParseFloat(strings.ReplaceAll(m, ",", ""), 64); err == nil {
			lead.CompanySize = model.Float(n)
		}
	}
	return lead
}
