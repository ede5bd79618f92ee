package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatCompletion(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantDecode bool
		wantID     string
		wantTokens int
	}{
		{
			name:   "success",
			status: http.StatusOK,
			body: `{
				"id": "gen-123",
				"model": "anthropic/claude-3.5-sonnet",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "[]"}}],
				"usage": {"prompt_tokens": 10, "completion_tokens": 5}
			}`,
			wantID:     "gen-123",
			wantTokens: 5,
		},
		{name: "unauthorized", status: http.StatusUnauthorized, body: `{"error":"bad key"}`, wantStatus: 401},
		{name: "payment_required", status: http.StatusPaymentRequired, body: `{"error":"no credits"}`, wantStatus: 402},
		{name: "rate_limit", status: http.StatusTooManyRequests, body: `{"error":"slow down"}`, wantStatus: 429},
		{name: "server_error", status: http.StatusInternalServerError, body: `oops`, wantStatus: 500},
		{name: "malformed_response", status: http.StatusOK, body: `{invalid json`, wantDecode: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/chat/completions", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewClient("test-key", WithBaseURL(srv.URL))

			resp, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
				Messages: []Message{{Role: "user", Content: "Hi"}},
			})

			switch {
			case tt.wantStatus != 0:
				var se *StatusError
				require.True(t, errors.As(err, &se))
				assert.Equal(t, tt.wantStatus, se.StatusCode)
				assert.Contains(t, err.Error(), "unexpected status")
				assert.Nil(t, resp)
			case tt.wantDecode:
				var de *DecodeError
				require.True(t, errors.As(err, &de))
				assert.Contains(t, err.Error(), "unmarshal response")
				assert.Nil(t, resp)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, resp.ID)
				assert.Equal(t, tt.wantTokens, resp.Usage.CompletionTokens)
				require.Len(t, resp.Choices, 1)
				assert.Equal(t, "[]", resp.Choices[0].Message.Content)
			}
		})
	}
}

func TestChatCompletion_RequestBody(t *testing.T) {
	var got ChatCompletionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
		assert.Equal(t, "https://leads.example.com", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Lead Intelligence Research", r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	}))
	defer srv.Close()

	temp := 0.3
	maxTokens := 1500
	client := NewClient("test-key",
		WithBaseURL(srv.URL),
		WithModel("openai/gpt-4o"),
		WithReferer("https://leads.example.com"),
		WithTitle("Lead Intelligence Research"),
	)
	_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{
		Messages:    []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "Hi"}},
		Temperature: &temp,
		MaxTokens:   &maxTokens,
	})
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	require.NotNil(t, got.Temperature)
	assert.Equal(t, 0.3, *got.Temperature)
	require.NotNil(t, got.MaxTokens)
	assert.Equal(t, 1500, *got.MaxTokens)
}

func TestChatCompletion_OmitsAttributionHeadersByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("HTTP-Referer"))
		assert.Empty(t, r.Header.Get("X-Title"))
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.NoError(t, err)
}

func TestChatCompletion_ErrorBodyTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Len(t, se.Body, maxErrorBody)
}

func TestChatCompletion_OversizedBodyRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"content":"`))
		_, _ = w.Write([]byte(strings.Repeat("[", maxResponseBody)))
		_, _ = w.Write([]byte(`"}}]}`))
	}))
	defer srv.Close()

	_, err := NewClient("k", WithBaseURL(srv.URL)).ChatCompletion(context.Background(), ChatCompletionRequest{})
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Contains(t, err.Error(), "exceeds")
}

func TestChatCompletion_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithTimeout(50*time.Millisecond))
	_, err := client.ChatCompletion(context.Background(), ChatCompletionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "send request")
}

func TestChatCompletion_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient("k", WithBaseURL("http://127.0.0.1:1")).ChatCompletion(ctx, ChatCompletionRequest{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
