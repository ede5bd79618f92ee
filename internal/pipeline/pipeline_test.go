package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sells-group/lead-intel/internal/dedup"
	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/research"
	"github.com/sells-group/lead-intel/internal/scorer"
	"github.com/sells-group/lead-intel/internal/validate"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type mockResearcher struct {
	mock.Mock
}

func (m *mockResearcher) Research(ctx context.Context, req research.Request) ([]model.CompanyCandidate, research.Outcome) {
	args := m.Called(ctx, req)
	return args.Get(0).([]model.CompanyCandidate), args.Get(1).(research.Outcome)
}

func acmeCandidates() []model.CompanyCandidate {
	return []model.CompanyCandidate{
		{Name: "Acme Inc", Industry: "SaaS", Size: "120 employees", DecisionMakers: []string{"Jane Doe"}, Reasoning: "Expanding", Confidence: 0.9},
		{Name: "Globex Corporation", Industry: "SaaS", Size: "5,000", DecisionMakers: []string{"Hank Scorpio"}, Confidence: 0.6},
		{Name: "ACME, Inc.", Industry: "SaaS", Size: "medium", DecisionMakers: []string{"J. Doe"}, Reasoning: "Expanding", Confidence: 0.8},
	}
}

func TestRun_WithDedupe(t *testing.T) {
	r := &mockResearcher{}
	req := research.Request{Industry: "SaaS", Location: "Austin", CompanySize: "small"}
	r.On("Research", mock.Anything, req).Return(acmeCandidates(), research.Outcome{Kind: research.KindOK, Status: 200})

	p := New(r, dedup.New(), scorer.New())
	res := p.Run(context.Background(), Request{Industry: "SaaS", Location: "Austin", CompanySize: "small", Dedupe: true})

	assert.NotEmpty(t, res.RunID)
	assert.False(t, res.Fallback)
	assert.Len(t, res.Candidates, 3)
	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Acme Inc", res.Leads[0].Lead.CompanyName)
	assert.Equal(t, "Globex Corporation", res.Leads[1].Lead.CompanyName)
	for _, l := range res.Leads {
		assert.True(t, l.Scored)
		assert.Equal(t, 0.5, l.Score)
	}

	require.Len(t, res.Phases, 3)
	assert.Equal(t, "research", res.Phases[0].Name)
	assert.Equal(t, PhaseComplete, res.Phases[0].Status)
	assert.Equal(t, "dedupe", res.Phases[1].Name)
	assert.Equal(t, 2, res.Phases[1].Metadata["unique"])
	assert.Equal(t, "score", res.Phases[2].Name)
	assert.Equal(t, PhaseComplete, res.Phases[2].Status)
	assert.Equal(t, 0, res.Phases[2].Metadata["unscored"])
	r.AssertExpectations(t)
}

func TestRun_WithoutDedupe(t *testing.T) {
	r := &mockResearcher{}
	r.On("Research", mock.Anything, mock.Anything).Return(acmeCandidates(), research.Outcome{Kind: research.KindOK})

	res := New(r, dedup.New(), scorer.New()).Run(context.Background(), Request{Industry: "SaaS", Location: "Austin"})
	assert.Len(t, res.Leads, 3)
	assert.Equal(t, PhaseSkipped, res.Phases[1].Status)
}

func TestRun_Fallback(t *testing.T) {
	fallback := validate.FallbackCandidates("fintech", "Berlin", "medium")
	r := &mockResearcher{}
	r.On("Research", mock.Anything, mock.Anything).Return(fallback, research.Outcome{Kind: research.KindRateLimited, Status: 429})

	res := New(r, nil, scorer.New()).Run(context.Background(), Request{Industry: "fintech", Location: "Berlin", Dedupe: true})

	assert.True(t, res.Fallback)
	assert.Equal(t, research.KindRateLimited, res.Outcome.Kind)
	assert.Equal(t, PhaseFallback, res.Phases[0].Status)
	assert.Equal(t, PhaseSkipped, res.Phases[1].Status)
	require.Len(t, res.Leads, 1)
	assert.Equal(t, "Real fintech Company Inc.", res.Leads[0].Lead.CompanyName)
	assert.Equal(t, "CEO", res.Leads[0].Lead.KeyPerson)
}

func TestRun_RanksWithTrainedScorer(t *testing.T) {
	s := scorer.New()
	train := []model.Lead{
		LeadFromCandidate(model.CompanyCandidate{Name: "a", Industry: "SaaS", Confidence: 0.95}),
		LeadFromCandidate(model.CompanyCandidate{Name: "b", Industry: "SaaS", Confidence: 0.9}),
		LeadFromCandidate(model.CompanyCandidate{Name: "c", Industry: "SaaS", Confidence: 0.2}),
		LeadFromCandidate(model.CompanyCandidate{Name: "d", Industry: "SaaS", Confidence: 0.1}),
	}
	require.NoError(t, s.Fit(context.Background(), train, []bool{true, true, false, false}))

	r := &mockResearcher{}
	r.On("Research", mock.Anything, mock.Anything).Return([]model.CompanyCandidate{
		{Name: "Low", Industry: "SaaS", Confidence: 0.3},
		{Name: "High", Industry: "SaaS", Confidence: 0.9},
	}, research.Outcome{Kind: research.KindOK})

	res := New(r, nil, s).Run(context.Background(), Request{Industry: "SaaS", Location: "Austin"})
	require.Len(t, res.Leads, 2)
	assert.Equal(t, "High", res.Leads[0].Lead.CompanyName)
	assert.Greater(t, res.Leads[0].Score, res.Leads[1].Score)
}

func TestRun_ScorePhasePartialWhenLeadsUnscored(t *testing.T) {
	s := scorer.New()
	train := []model.Lead{
		LeadFromCandidate(model.CompanyCandidate{Name: "a", Industry: "SaaS", Confidence: 0.9}),
		LeadFromCandidate(model.CompanyCandidate{Name: "b", Industry: "SaaS", Confidence: 0.1}),
		LeadFromCandidate(model.CompanyCandidate{Name: "c", Industry: "Retail", Confidence: 0.8}),
		LeadFromCandidate(model.CompanyCandidate{Name: "d", Industry: "Retail", Confidence: 0.2}),
	}
	require.NoError(t, s.Fit(context.Background(), train, []bool{true, false, true, false}))

	r := &mockResearcher{}
	r.On("Research", mock.Anything, mock.Anything).Return([]model.CompanyCandidate{
		{Name: "Known", Industry: "SaaS", Confidence: 0.7},
		{Name: "Unseen", Industry: "Fintech", Confidence: 0.9},
	}, research.Outcome{Kind: research.KindOK})

	res := New(r, nil, s).Run(context.Background(), Request{Industry: "SaaS", Location: "Austin"})

	require.Len(t, res.Leads, 2)
	assert.Equal(t, "Known", res.Leads[0].Lead.CompanyName)
	assert.False(t, res.Leads[1].Scored)
	score := res.Phases[2]
	assert.Equal(t, "score", score.Name)
	assert.Equal(t, PhasePartial, score.Status)
	assert.Equal(t, 1, score.Metadata["unscored"])
	assert.Equal(t, 2, score.Metadata["leads"])
}

func TestLeadFromCandidate(t *testing.T) {
	tests := []struct {
		name     string
		size     string
		wantSize *float64
	}{
		{"plain number", "250", model.Float(250)},
		{"with words", "about 120 employees", model.Float(120)},
		{"thousands separator", "1,500", model.Float(1500)},
		{"range", "50-200", model.Float(50)},
		{"no number", "medium", nil},
		{"empty", "", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := LeadFromCandidate(model.CompanyCandidate{Name: "Acme", Size: tt.size})
			assert.Equal(t, tt.wantSize, l.CompanySize)
		})
	}
}

func TestLeadFromCandidate_Fields(t *testing.T) {
	l := LeadFromCandidate(model.CompanyCandidate{
		Name:           "Acme",
		Industry:       "Fintech",
		DecisionMakers: []string{"CFO", "CEO"},
		Reasoning:      "Hiring",
		Confidence:     0.75,
	})
	assert.Equal(t, "Acme", l.CompanyName)
	assert.Equal(t, "CFO", l.KeyPerson)
	assert.Equal(t, model.String("Hiring"), l.About)
	assert.Equal(t, model.String("Fintech"), l.Industry)
	assert.Equal(t, model.Float(0.75), l.IntentScore)
	assert.Nil(t, l.Notes)

	bare := LeadFromCandidate(model.CompanyCandidate{Name: "Bare", Industry: model.Unknown})
	assert.Empty(t, bare.KeyPerson)
	assert.Nil(t, bare.About)
	assert.Nil(t, bare.Industry)
}
