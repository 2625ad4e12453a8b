package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

// Assessor implements port.RiskAssessor using the OpenAI chat API.
type Assessor struct {
	client  *openai.Client
	model   string
	prompts *PromptConfig
	logger  *zap.Logger
}

// NewAssessor creates a new OpenAI risk assessor
func NewAssessor(apiKey, model string, prompts *PromptConfig, logger *zap.Logger) *Assessor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Assessor{
		client:  openai.NewClient(apiKey),
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

// NewAssessorWithClient is used by tests to inject a client pointed at a
// stub server.
func NewAssessorWithClient(client *openai.Client, model string, prompts *PromptConfig, logger *zap.Logger) *Assessor {
	if prompts == nil {
		prompts = DefaultPrompts()
	}
	return &Assessor{
		client:  client,
		model:   model,
		prompts: prompts,
		logger:  logger,
	}
}

var thousand = decimal.NewFromInt(1000)

type riskVerdict struct {
	RiskLevel string  `json:"risk_level"`
	RiskScore float64 `json:"risk_score"`
	Reason    string  `json:"reason"`
}

// Assess scores one invoice summary for fraud indicators. Transport and
// quota failures map to the port sentinels; an unparseable model answer
// degrades to a local heuristic verdict rather than failing the caller.
func (a *Assessor) Assess(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
	prompt, err := renderTemplate(a.prompts.RiskAssessment.UserTemplate, summary)
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.model,
		Temperature: a.prompts.RiskAssessment.Temperature,
		MaxTokens:   a.prompts.RiskAssessment.MaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: a.prompts.RiskAssessment.System,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		a.logger.Error("OpenAI API call failed", zap.Error(err))
		return nil, classifyAPIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty completion", port.ErrGatewayUnavailable)
	}

	content := resp.Choices[0].Message.Content
	var verdict riskVerdict
	if err := json.Unmarshal([]byte(content), &verdict); err != nil {
		if jsonStr := extractJSON(content); jsonStr != "" {
			err = json.Unmarshal([]byte(jsonStr), &verdict)
		}
		if err != nil {
			a.logger.Warn("Unparseable model answer, using heuristic verdict",
				zap.String("content", content))
			return heuristicVerdict(summary), nil
		}
	}

	tier := entity.RiskTier(strings.ToLower(verdict.RiskLevel))
	if !tier.IsValid() || verdict.RiskScore < 0 || verdict.RiskScore > 100 {
		a.logger.Warn("Model answer out of range, using heuristic verdict",
			zap.String("risk_level", verdict.RiskLevel),
			zap.Float64("risk_score", verdict.RiskScore))
		return heuristicVerdict(summary), nil
	}

	a.logger.Info("Risk assessment completed",
		zap.String("invoice_number", summary.InvoiceNumber),
		zap.String("risk_level", string(tier)),
		zap.Float64("risk_score", verdict.RiskScore))

	return &entity.RiskAssessment{
		Tier:   tier,
		Score:  verdict.RiskScore,
		Reason: verdict.Reason,
	}, nil
}

// classifyAPIError maps OpenAI transport errors onto the gateway sentinels.
func classifyAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusPaymentRequired,
			apiErr.Code == "insufficient_quota":
			return fmt.Errorf("%w: %v", port.ErrQuotaExhausted, err)
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", port.ErrRateLimited, err)
		}
	}
	return fmt.Errorf("%w: %v", port.ErrGatewayUnavailable, err)
}

// heuristicVerdict is the local fallback when the model answers garbage.
// It is always flagged Degraded so callers never mistake it for a real
// assessment.
func heuristicVerdict(summary entity.InvoiceSummary) *entity.RiskAssessment {
	score := 10.0
	var signals []string

	if summary.Amount.IsInteger() && summary.Amount.Mod(thousand).IsZero() {
		score += 30
		signals = append(signals, "round-dollar amount")
	}
	if summary.VendorName == "" {
		score += 20
		signals = append(signals, "unknown vendor")
	}
	if strings.TrimSpace(summary.Description) == "" {
		score += 15
		signals = append(signals, "no description")
	}

	tier := entity.RiskTierLow
	switch {
	case score >= 60:
		tier = entity.RiskTierHigh
	case score >= 30:
		tier = entity.RiskTierMedium
	}

	reason := "heuristic fallback"
	if len(signals) > 0 {
		reason = "heuristic fallback: " + strings.Join(signals, ", ")
	}
	return &entity.RiskAssessment{
		Tier:     tier,
		Score:    score,
		Reason:   reason,
		Degraded: true,
	}
}

// extractJSON extracts JSON from markdown code blocks
func extractJSON(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}
	end := strings.LastIndexByte(content, '}')
	if end <= start {
		return ""
	}
	return content[start : end+1]
}

// Verify interface compliance
var _ port.RiskAssessor = (*Assessor)(nil)
