package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/garyjia/expense-desk/internal/application/port"
)

const (
	// DefaultBaseURL is the OpenAI-compatible endpoint of a local Ollama server
	DefaultBaseURL = "http://localhost:11434/v1"
	// DefaultModel is a small vision model that reads receipts well enough for pre-fill
	DefaultModel = "qwen2.5vl:3b"
)

// ErrEmptyResponse is returned when the model answers without any choices
var ErrEmptyResponse = errors.New("no response from vision model")

// AnalyzerConfig configures the receipt analyzer
type AnalyzerConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Prompts *PromptConfig
	// HTTPClient overrides the transport, mainly for tests
	HTTPClient *http.Client
}

// Analyzer implements port.ReceiptAnalyzer against an OpenAI-compatible chat completion API
type Analyzer struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	now     func() time.Time
	logger  *zap.Logger
}

// NewAnalyzer creates a receipt analyzer. Missing prompts fall back to the built-in set.
func NewAnalyzer(cfg AnalyzerConfig, logger *zap.Logger) (*Analyzer, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Prompts == nil {
		prompts, err := LoadPrompts("")
		if err != nil {
			return nil, err
		}
		cfg.Prompts = prompts
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &Analyzer{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		prompts: cfg.Prompts,
		now:     time.Now,
		logger:  logger,
	}, nil
}

// Analyze asks the model for vendor, amount and date of the receipt image
func (a *Analyzer) Analyze(ctx context.Context, image []byte, mimeType string) (*port.ReceiptExtraction, error) {
	p := a.prompts.ReceiptExtraction
	prompt, err := renderTemplate(p.UserTemplate, promptData{Today: a.now().Format("2006-01-02")})
	if err != nil {
		return nil, err
	}

	a.logger.Info("Analyzing receipt",
		zap.String("model", a.model),
		zap.String("mime_type", mimeType),
		zap.Int("size", len(image)))

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: p.System,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: prompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(image)),
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("Vision API call failed", zap.Error(err))
		return nil, fmt.Errorf("vision API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	content := resp.Choices[0].Message.Content
	result, err := parseExtraction(content)
	if err != nil {
		a.logger.Error("Failed to parse vision response",
			zap.Error(err),
			zap.String("content", content))
		return nil, err
	}

	a.logger.Debug("Receipt fields extracted",
		zap.Bool("vendor", result.Vendor != nil),
		zap.Bool("amount", result.Amount != nil),
		zap.Bool("date", result.Date != nil))
	return result, nil
}

// HealthCheck reports whether the endpoint answers a model listing
func (a *Analyzer) HealthCheck(ctx context.Context) bool {
	if _, err := a.client.ListModels(ctx); err != nil {
		a.logger.Warn("Vision endpoint health check failed", zap.Error(err))
		return false
	}
	return true
}

// rawExtraction accepts the loose shapes small models produce, e.g. "12.50" for amount
type rawExtraction struct {
	Vendor *string          `json:"vendor"`
	Amount *json.RawMessage `json:"amount"`
	Date   *string          `json:"date"`
}

func parseExtraction(content string) (*port.ReceiptExtraction, error) {
	var raw rawExtraction
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		jsonStr := extractJSON(content)
		if jsonStr == "" {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
		if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return &port.ReceiptExtraction{
		Vendor: nonBlank(raw.Vendor),
		Amount: parseAmount(raw.Amount),
		Date:   nonBlank(raw.Date),
	}, nil
}

// currencyCutset is trimmed from both ends of a string amount
const currencyCutset = " \t\u00a0$€£¥"

// parseAmount reads a positive finite amount from a JSON number or a string
// such as "$1,234.50", "12,50 €" or "1.234,56". Anything else yields nil.
func parseAmount(raw *json.RawMessage) *float64 {
	if raw == nil {
		return nil
	}
	var n float64
	if err := json.Unmarshal(*raw, &n); err == nil {
		return positiveAmount(n)
	}
	var s string
	if err := json.Unmarshal(*raw, &s); err != nil {
		return nil
	}

	s = normalizeDecimal(strings.Trim(s, currencyCutset))
	if s == "" {
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return positiveAmount(n)
}

// normalizeDecimal rewrites grouping and decimal separators so ParseFloat sees "1234.56".
// With both '.' and ',' present the last one is the decimal separator; a lone ','
// followed by one or two digits is a decimal comma, otherwise commas group thousands.
func normalizeDecimal(s string) string {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "'", "").Replace(s)

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			return strings.Replace(strings.ReplaceAll(s, ".", ""), ",", ".", 1)
		}
		return strings.ReplaceAll(s, ",", "")
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			if decimals := len(s) - lastComma - 1; decimals == 1 || decimals == 2 {
				return strings.Replace(s, ",", ".", 1)
			}
		}
		return strings.ReplaceAll(s, ",", "")
	}
	return s
}

func positiveAmount(n float64) *float64 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n <= 0 {
		return nil
	}
	return &n
}

func nonBlank(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	return &v
}

// extractJSON returns the first balanced JSON object in content, e.g. inside a markdown fence
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}

var _ port.ReceiptAnalyzer = (*Analyzer)(nil)
