package research

import (
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-intel/internal/config"
	"github.com/sells-group/lead-intel/pkg/anthropic"
	"github.com/sells-group/lead-intel/pkg/openrouter"
)

// NewFromConfig builds a Client for the configured provider.
func NewFromConfig(cfg *config.Config) (*Client, error) {
	rc := cfg.Research
	timeout := time.Duration(rc.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	var (
		t         Transport
		modelName = rc.Model
	)
	switch rc.Provider {
	case "openrouter", "":
		opts := []openrouter.Option{
			openrouter.WithTimeout(timeout),
			openrouter.WithReferer(rc.Referer),
			openrouter.WithTitle(rc.Title),
		}
		if rc.BaseURL != "" {
			opts = append(opts, openrouter.WithBaseURL(rc.BaseURL))
		}
		if rc.Model != "" {
			opts = append(opts, openrouter.WithModel(rc.Model))
		}
		t = NewOpenRouterTransport(openrouter.NewClient(rc.Key, opts...))
	case "anthropic":
		t = NewAnthropicTransport(anthropic.NewClient(cfg.Anthropic.Key, anthropic.WithTimeout(timeout)))
		modelName = cfg.Anthropic.Model
	default:
		return nil, eris.Errorf("research: unknown provider %q", rc.Provider)
	}

	opts := []Option{
		WithModel(modelName),
		WithMaxTokens(rc.MaxTokens),
		WithTemperature(rc.Temperature),
		WithTimeout(timeout),
	}
	if rc.RatePerMinute > 0 {
		opts = append(opts, WithRateLimiter(rate.NewLimiter(rate.Every(time.Minute/time.Duration(rc.RatePerMinute)), 1)))
	}
	return NewClient(t, opts...), nil
}
