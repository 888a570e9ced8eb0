package openai

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// PromptConfig holds the prompts and model parameters used by the receipt analyzer
type PromptConfig struct {
	ReceiptExtraction struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"receipt_extraction"`
}

// promptData is what user_template may reference
type promptData struct {
	Today string
}

// LoadPrompts parses the prompt file at promptsPath, or the built-in prompts when the path is empty
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data := defaultPrompts
	if promptsPath != "" {
		var err error
		data, err = os.ReadFile(promptsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read prompts file: %w", err)
		}
	}

	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}
	if prompts.ReceiptExtraction.UserTemplate == "" {
		return nil, fmt.Errorf("prompts file %q has no receipt_extraction.user_template", promptsPath)
	}
	if _, err := template.New("prompt").Parse(prompts.ReceiptExtraction.UserTemplate); err != nil {
		return nil, fmt.Errorf("invalid receipt_extraction.user_template: %w", err)
	}

	return &prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
