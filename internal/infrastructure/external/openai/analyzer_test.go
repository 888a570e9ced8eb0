package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chatResponse(content string) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   DefaultModel,
		"choices": []map[string]interface{}{
			{
				"index":         0,
				"finish_reason": "stop",
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
			},
		},
	}
}

func newTestAnalyzer(t *testing.T, handler http.HandlerFunc) *Analyzer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a, err := NewAnalyzer(AnalyzerConfig{BaseURL: srv.URL + "/v1"}, zap.NewNop())
	require.NoError(t, err)
	a.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }
	return a
}

func TestAnalyzer_Analyze(t *testing.T) {
	var captured map[string]interface{}
	a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse(`{"vendor":"Starbucks","amount":42.5,"date":"2024-02-29"}`))
	})

	result, err := a.Analyze(context.Background(), []byte{0xff, 0xd8}, "image/jpeg")
	require.NoError(t, err)
	require.NotNil(t, result.Vendor)
	require.NotNil(t, result.Amount)
	require.NotNil(t, result.Date)
	assert.Equal(t, "Starbucks", *result.Vendor)
	assert.Equal(t, 42.5, *result.Amount)
	assert.Equal(t, "2024-02-29", *result.Date)

	assert.Equal(t, DefaultModel, captured["model"])
	assert.Equal(t, "json_object", captured["response_format"].(map[string]interface{})["type"])

	messages := captured["messages"].([]interface{})
	require.Len(t, messages, 2)
	parts := messages[1].(map[string]interface{})["content"].([]interface{})
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].(map[string]interface{})["text"], "Today is 2024-03-01")
	imageURL := parts[1].(map[string]interface{})["image_url"].(map[string]interface{})["url"].(string)
	assert.True(t, strings.HasPrefix(imageURL, "data:image/jpeg;base64,"))
}

func TestAnalyzer_AnalyzeErrors(t *testing.T) {
	t.Run("server error", func(t *testing.T) {
		a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"error":{"message":"model not loaded"}}`))
		})
		_, err := a.Analyze(context.Background(), []byte("x"), "image/png")
		assert.Error(t, err)
	})

	t.Run("no choices", func(t *testing.T) {
		a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
			resp := chatResponse("")
			resp["choices"] = []interface{}{}
			_ = json.NewEncoder(w).Encode(resp)
		})
		_, err := a.Analyze(context.Background(), []byte("x"), "image/png")
		assert.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("unparseable content", func(t *testing.T) {
		a := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(chatResponse("I cannot read this receipt"))
		})
		_, err := a.Analyze(context.Background(), []byte("x"), "image/png")
		assert.Error(t, err)
	})
}

func TestAnalyzer_HealthCheck(t *testing.T) {
	healthy := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"object": "list", "data": []interface{}{}})
	})
	assert.True(t, healthy.HealthCheck(context.Background()))

	down := newTestAnalyzer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	assert.False(t, down.HealthCheck(context.Background()))
}

func TestParseExtraction(t *testing.T) {
	tests := []struct {
		name    string
		content string
		vendor  *string
		amount  *float64
		date    *string
		wantErr bool
	}{
		{
			name:    "plain json",
			content: `{"vendor":"Uber","amount":15,"date":"2024-01-02"}`,
			vendor:  strPtr("Uber"),
			amount:  floatPtr(15),
			date:    strPtr("2024-01-02"),
		},
		{
			name:    "fenced json",
			content: "```json\n{\"vendor\":\"Amazon\",\"amount\":120.99,\"date\":null}\n```",
			vendor:  strPtr("Amazon"),
			amount:  floatPtr(120.99),
		},
		{
			name:    "string amount with symbol",
			content: `{"vendor":null,"amount":"$1,234.50","date":"15/03/2024"}`,
			amount:  floatPtr(1234.50),
			date:    strPtr("15/03/2024"),
		},
		{
			name:    "blank fields become nil",
			content: `{"vendor":"  ","amount":"n/a","date":"null"}`,
		},
		{
			name:    "braces inside strings",
			content: `note: {"vendor":"Cafe {Central}","amount":3,"date":null} done`,
			vendor:  strPtr("Cafe {Central}"),
			amount:  floatPtr(3),
		},
		{
			name:    "european decimal comma",
			content: `{"vendor":"Boulangerie","amount":"12,50 €","date":"05/02/2024"}`,
			vendor:  strPtr("Boulangerie"),
			amount:  floatPtr(12.5),
			date:    strPtr("05/02/2024"),
		},
		{
			name:    "no json",
			content: "sorry",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseExtraction(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.vendor, got.Vendor)
			assert.Equal(t, tt.amount, got.Amount)
			assert.Equal(t, tt.date, got.Date)
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		raw  string
		want *float64
	}{
		{`42.5`, floatPtr(42.5)},
		{`"12.50"`, floatPtr(12.5)},
		{`"$1,234.50"`, floatPtr(1234.5)},
		{`"12,50"`, floatPtr(12.5)},
		{`"12,5"`, floatPtr(12.5)},
		{`"1.234,56"`, floatPtr(1234.56)},
		{`"1,234.56"`, floatPtr(1234.56)},
		{`"1 234,56 €"`, floatPtr(1234.56)},
		{`"12,50 €"`, floatPtr(12.5)},
		{`"€ 8,90"`, floatPtr(8.9)},
		{`"1,234"`, floatPtr(1234)},
		{`"1,234,567"`, floatPtr(1234567)},
		{`"NaN"`, nil},
		{`"Inf"`, nil},
		{`"-Infinity"`, nil},
		{`"0"`, nil},
		{`"-5.00"`, nil},
		{`-3`, nil},
		{`0`, nil},
		{`"€"`, nil},
		{`"n/a"`, nil},
		{`null`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			raw := json.RawMessage(tt.raw)
			assert.Equal(t, tt.want, parseAmount(&raw))
		})
	}
}

func TestParseExtraction_AmountIsJSONSafe(t *testing.T) {
	got, err := parseExtraction(`{"vendor":"Cafe","amount":"NaN","date":null}`)
	require.NoError(t, err)
	assert.Nil(t, got.Amount)

	_, err = json.Marshal(got)
	assert.NoError(t, err)
}

func TestLoadPrompts(t *testing.T) {
	t.Run("built-in", func(t *testing.T) {
		p, err := LoadPrompts("")
		require.NoError(t, err)
		assert.Equal(t, 512, p.ReceiptExtraction.MaxTokens)
		assert.Contains(t, p.ReceiptExtraction.UserTemplate, "{{.Today}}")
	})

	t.Run("override file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("receipt_extraction:\n  system: s\n  user_template: read it\n"), 0o644))

		p, err := LoadPrompts(path)
		require.NoError(t, err)
		assert.Equal(t, "read it", p.ReceiptExtraction.UserTemplate)
	})

	t.Run("missing template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompts.yaml")
		require.NoError(t, os.WriteFile(path, []byte("receipt_extraction:\n  system: s\n"), 0o644))

		_, err := LoadPrompts(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPrompts(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }
