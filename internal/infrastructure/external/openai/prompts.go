package openai

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the prompt text and model parameters for risk scoring
type PromptConfig struct {
	RiskAssessment struct {
		Temperature  float32 `yaml:"temperature"`
		MaxTokens    int     `yaml:"max_tokens"`
		System       string  `yaml:"system"`
		UserTemplate string  `yaml:"user_template"`
	} `yaml:"risk_assessment"`
}

// LoadPrompts loads prompt configuration from YAML file
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts PromptConfig
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return &prompts, nil
}

// DefaultPrompts returns the built-in prompt set used when no prompts
// file is configured.
func DefaultPrompts() *PromptConfig {
	var p PromptConfig
	p.RiskAssessment.Temperature = 0.2
	p.RiskAssessment.MaxTokens = 400
	p.RiskAssessment.System = "You are a fraud-risk analyst for an accounts payable team. " +
		"Score incoming vendor invoices for fraud indicators such as round-dollar amounts, " +
		"unusual vendors, vague descriptions, and duplicate-looking numbering. " +
		"Always respond with valid JSON: {\"risk_level\": \"low|medium|high\", \"risk_score\": 0-100, \"reason\": \"...\"}."
	p.RiskAssessment.UserTemplate = "Invoice {{.InvoiceNumber}} from vendor {{.VendorName}}\n" +
		"Title: {{.Title}}\n" +
		"Amount: {{.Amount}} {{.Currency}}\n" +
		"Description: {{.Description}}\n" +
		"Attached file: {{.FileName}}\n"
	return &p
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
