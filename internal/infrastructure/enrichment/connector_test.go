package enrichment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/erp/aftersales/internal/domain/shared"
	"github.com/erp/aftersales/internal/domain/shared/strategy"
	"github.com/erp/aftersales/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

var testRequest = strategy.EnrichmentRequest{SystemPrompt: "system", UserPrompt: "summary"}

func TestConnectors_OnlyConfiguredProviderIsAvailable(t *testing.T) {
	list, err := Connectors(context.Background(), config.EnrichmentConfig{
		Provider: config.ProviderClaude,
		APIKey:   "key",
		Model:    "claude-sonnet-4-5",
	})
	require.NoError(t, err)
	require.Len(t, list, 2)

	avail := map[string]bool{}
	for _, c := range list {
		avail[c.Name()] = c.Available()
	}
	assert.Equal(t, map[string]bool{ProviderGemini: false, ProviderClaude: true}, avail)
}

func TestConnectors_UnavailableWithoutKey(t *testing.T) {
	ctx := context.Background()

	g, err := NewGeminiConnector(ctx, Options{})
	require.NoError(t, err)
	_, err = g.Enrich(ctx, testRequest)
	assert.ErrorIs(t, err, shared.ErrUnavailable)

	c := NewClaudeConnector(Options{})
	_, err = c.Enrich(ctx, testRequest)
	assert.ErrorIs(t, err, shared.ErrUnavailable)
}

func TestClaudeConnector_Enrich(t *testing.T) {
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-sonnet-4-5",
			"content": [{"type": "text", "text": "{\"trends\":[\"ok\"]}"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 10, "output_tokens": 5}
		}`)
	}))
	defer srv.Close()

	c := NewClaudeConnector(Options{APIKey: "key", Model: "claude-sonnet-4-5", Temperature: 0.3, BaseURL: srv.URL},
		option.WithMaxRetries(0))

	out, err := c.Enrich(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, `{"trends":["ok"]}`, out)
	assert.Equal(t, "claude-sonnet-4-5", body["model"])
	assert.EqualValues(t, defaultClaudeMaxTokens, body["max_tokens"])
	assert.NotNil(t, body["system"])
}

func TestClaudeConnector_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClaudeConnector(Options{APIKey: "key", Model: "m", BaseURL: srv.URL}, option.WithMaxRetries(0))

	_, err := c.Enrich(context.Background(), testRequest)
	assert.Error(t, err)
}

func TestGeminiText(t *testing.T) {
	assert.Equal(t, "", geminiText(nil))

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: nil},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: `{"risks":`}, {Text: `[]}`}}}},
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "ignored"}}}},
		},
	}
	assert.Equal(t, `{"risks":[]}`, geminiText(resp))
}
