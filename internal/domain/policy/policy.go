// Package policy maps a three-way match result and an optional risk
// assessment to a recommended reviewer action. The mapping is pure and
// deterministic; its thresholds come from configuration.
package policy

import (
	"github.com/shopspring/decimal"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/match"
)

// Recommendation is the suggested reviewer action for an invoice.
type Recommendation string

const (
	Approve         Recommendation = "approve"
	ApproveWithNote Recommendation = "approve_with_note"
	Review          Recommendation = "review"
	Escalate        Recommendation = "escalate"
)

// String returns the string representation of the recommendation.
func (r Recommendation) String() string {
	return string(r)
}

// Thresholds holds the decision boundaries for recommendation routing.
type Thresholds struct {
	// ApproveScore is the minimum match score for automatic approval.
	ApproveScore float64

	// ReviewScore is the score below which an invoice needs review
	// (unless partial shipment is the only finding).
	ReviewScore float64

	// EscalateOvercharge is the total overcharge amount above which an
	// invoice is escalated regardless of its score.
	EscalateOvercharge decimal.Decimal
}

// DefaultThresholds returns the default recommendation thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ApproveScore:       95,
		ReviewScore:        70,
		EscalateOvercharge: decimal.NewFromInt(100),
	}
}

// Recommend routes a match result to a recommendation. A nil or degraded
// risk assessment counts as unset, never as low: an unavailable oracle
// must not look like a clean bill of health.
func Recommend(res *match.Result, risk *entity.RiskAssessment, th Thresholds) Recommendation {
	assessed := risk != nil && !risk.Degraded && risk.Tier.IsValid()

	// Risk overrides the match score.
	if assessed && risk.Tier == entity.RiskTierHigh {
		return Escalate
	}

	// A material overcharge is escalated even when the aggregate score
	// would otherwise pass.
	if res.TotalOvercharge.GreaterThan(th.EscalateOvercharge) {
		return Escalate
	}

	if res.Score >= th.ApproveScore {
		if res.PartialShipment {
			return ApproveWithNote
		}
		if assessed && risk.Tier == entity.RiskTierMedium {
			return ApproveWithNote
		}
		return Approve
	}

	if res.Score >= th.ReviewScore {
		return Review
	}

	// Below the review floor the invoice still auto-clears when a partial
	// shipment is the only finding: it bills exactly what was received.
	if res.PartialShipmentOnly() {
		return ApproveWithNote
	}
	return Review
}
