package research

import (
	"context"
	"errors"
	"strings"

	"github.com/sells-group/lead-intel/internal/resilience"
	"github.com/sells-group/lead-intel/pkg/anthropic"
	"github.com/sells-group/lead-intel/pkg/openrouter"
)

// ChatRequest is a single-turn completion request.
type ChatRequest struct {
	Model       string
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Transport performs one chat completion and classifies the result. It never
// retries.
type Transport interface {
	Chat(ctx context.Context, req ChatRequest) Outcome
}

// OpenRouterTransport sends requests through the OpenRouter chat completions
// API.
type OpenRouterTransport struct {
	client openrouter.Client
}

// NewOpenRouterTransport wraps client.
func NewOpenRouterTransport(client openrouter.Client) *OpenRouterTransport {
	return &OpenRouterTransport{client: client}
}

// Chat implements Transport.
func (t *OpenRouterTransport) Chat(ctx context.Context, req ChatRequest) Outcome {
	maxTokens := req.MaxTokens
	temperature := req.Temperature
	resp, err := t.client.ChatCompletion(ctx, openrouter.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openrouter.Message{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.Prompt},
		},
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		var se *openrouter.StatusError
		if errors.As(err, &se) {
			return statusOutcome(se.StatusCode, err)
		}
		var de *openrouter.DecodeError
		if errors.As(err, &de) {
			return malformed("undecodable completion", err)
		}
		return requestFailed(err)
	}
	if len(resp.Choices) == 0 {
		return malformed("no choices", nil)
	}
	return Outcome{Kind: KindOK, Status: 200, Content: resp.Choices[0].Message.Content}
}

// AnthropicTransport sends requests through the Anthropic Messages API.
type AnthropicTransport struct {
	client anthropic.Client
}

// NewAnthropicTransport wraps client.
func NewAnthropicTransport(client anthropic.Client) *AnthropicTransport {
	return &AnthropicTransport{client: client}
}

// Chat implements Transport.
func (t *AnthropicTransport) Chat(ctx context.Context, req ChatRequest) Outcome {
	temperature := req.Temperature
	resp, err := t.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       req.Model,
		MaxTokens:   int64(req.MaxTokens),
		System:      req.System,
		Messages:    []anthropic.Message{{Role: "user", Content: req.Prompt}},
		Temperature: &temperature,
	})
	if err != nil {
		var se *anthropic.StatusError
		if errors.As(err, &se) {
			return statusOutcome(se.StatusCode, err)
		}
		return requestFailed(err)
	}
	resp.Usage.LogCost(req.Model, "research")

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return malformed("empty content", nil)
	}
	return Outcome{Kind: KindOK, Status: 200, Content: text}
}

func requestFailed(err error) Outcome {
	return Outcome{Kind: KindRequestFailed, Err: err, Timeout: resilience.IsTimeout(err)}
}
