package research

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-intel/internal/model"
	"github.com/sells-group/lead-intel/internal/resilience"
	"github.com/sells-group/lead-intel/internal/validate"
)

// Request defaults.
const (
	DefaultModel       = "anthropic/claude-3.5-sonnet"
	DefaultMaxTokens   = 1500
	DefaultTemperature = 0.3
	DefaultTimeout     = 30 * time.Second
)

// Request names the companies to research.
type Request struct {
	Industry    string `json:"industry"`
	Location    string `json:"location"`
	CompanySize string `json:"company_size,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithModel overrides DefaultModel.
func WithModel(m string) Option {
	return func(c *Client) {
		if m != "" {
			c.model = m
		}
	}
}

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTokens = n
		}
	}
}

// WithTemperature overrides DefaultTemperature.
func WithTemperature(t float64) Option {
	return func(c *Client) { c.temperature = t }
}

// WithTimeout bounds each upstream call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimiter paces upstream calls. Waiting honours the request context.
func WithRateLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// Client researches companies through a Transport.
type Client struct {
	transport   Transport
	model       string
	maxTokens   int
	temperature float64
	timeout     time.Duration
	limiter     *rate.Limiter
	log         *zap.Logger
}

// NewClient returns a Client using t.
func NewClient(t Transport, opts ...Option) *Client {
	c := &Client{
		transport:   t,
		model:       DefaultModel,
		maxTokens:   DefaultMaxTokens,
		temperature: DefaultTemperature,
		timeout:     DefaultTimeout,
		log:         zap.L().With(zap.String("component", "research")),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ResearchCompanies returns the researched candidates, or the deterministic
// fallback candidate when research fails. It never returns an empty slice.
func (c *Client) ResearchCompanies(ctx context.Context, industry, location, companySize string) []model.CompanyCandidate {
	candidates, _ := c.Research(ctx, Request{Industry: industry, Location: location, CompanySize: companySize})
	return candidates
}

// Research is ResearchCompanies that also reports how the upstream call went.
// Any outcome other than KindOK means the candidates are the fallback.
func (c *Client) Research(ctx context.Context, req Request) ([]model.CompanyCandidate, Outcome) {
	if req.CompanySize == "" {
		req.CompanySize = validate.DefaultCompanySize
	}

	out := c.call(ctx, req)
	if out.OK() {
		candidates, bad := parseCandidates(out.Content)
		if bad == nil {
			c.log.Info("research: candidates found",
				zap.String("industry", req.Industry),
				zap.String("location", req.Location),
				zap.Int("count", len(candidates)),
			)
			return candidates, out
		}
		bad.Status = out.Status
		out = *bad
	}

	c.log.Warn("research: using fallback candidate",
		zap.String("industry", req.Industry),
		zap.String("location", req.Location),
		zap.String("kind", string(out.Kind)),
		zap.Int("status", out.Status),
		zap.Bool("timeout", out.Timeout),
		zap.Bool("transient", out.Timeout || resilience.IsTransientHTTPStatus(out.Status) || resilience.IsTransient(out.Err)),
		zap.Error(out.Err),
	)
	return validate.FallbackCandidates(req.Industry, req.Location, req.CompanySize), out
}

func (c *Client) call(ctx context.Context, req Request) Outcome {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return requestFailed(err)
		}
	}

	return c.transport.Chat(ctx, ChatRequest{
		Model:       c.model,
		System:      SystemPrompt,
		Prompt:      BuildPrompt(req.Industry, req.Location, req.CompanySize),
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
}

// parseCandidates extracts and validates the candidate array in content. An
// array without a single valid candidate counts as malformed.
func parseCandidates(content string) ([]model.CompanyCandidate, *Outcome) {
	arr, err := ExtractJSONArray(content)
	if err != nil {
		out := Outcome{Kind: KindMalformedResponse, Err: err}
		return nil, &out
	}
	candidates := validate.NormalizeCandidates(arr)
	if len(candidates) == 0 {
		out := malformed("no valid candidates", nil)
		return nil, &out
	}
	return candidates, nil
}
