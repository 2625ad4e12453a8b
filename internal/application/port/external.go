package port

import (
	"context"
	"errors"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

// Gateway failure sentinels. Rate-limit and quota exhaustion are
// distinguished from generic unavailability for operator visibility, but
// all three mean "skip risk scoring, continue".
var (
	ErrRateLimited        = errors.New("risk gateway rate limited")
	ErrQuotaExhausted     = errors.New("risk gateway quota exhausted")
	ErrGatewayUnavailable = errors.New("risk gateway unavailable")
)

// RiskAssessor is the external fraud-risk scoring oracle. It is
// non-deterministic, possibly slow, and possibly unavailable; callers
// must never block the approval workflow on it.
type RiskAssessor interface {
	Assess(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error)
}

// IsGatewayError reports whether err is any of the gateway failure
// sentinels.
func IsGatewayError(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrQuotaExhausted) ||
		errors.Is(err, ErrGatewayUnavailable)
}
