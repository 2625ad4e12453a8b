package lifecycle

import "github.com/procureflow/invoiceflow/internal/domain/entity"

// Trigger represents a reviewer action that can cause a status transition.
type Trigger string

const (
	TriggerStartReview Trigger = "START_REVIEW"
	TriggerApprove     Trigger = "APPROVE"
	TriggerReject      Trigger = "REJECT"
	TriggerMarkPaid    Trigger = "MARK_PAID"
)

// String returns the string representation of the trigger.
func (t Trigger) String() string {
	return string(t)
}

// Target returns the status this trigger moves an invoice to.
func (t Trigger) Target() entity.Status {
	switch t {
	case TriggerStartReview:
		return entity.StatusUnderReview
	case TriggerApprove:
		return entity.StatusApproved
	case TriggerReject:
		return entity.StatusRejected
	case TriggerMarkPaid:
		return entity.StatusPaid
	default:
		return ""
	}
}

// TriggerFor maps a target status to the trigger that reaches it.
// Returns false for statuses that are never a transition target (uploaded).
func TriggerFor(target entity.Status) (Trigger, bool) {
	switch target {
	case entity.StatusUnderReview:
		return TriggerStartReview, true
	case entity.StatusApproved:
		return TriggerApprove, true
	case entity.StatusRejected:
		return TriggerReject, true
	case entity.StatusPaid:
		return TriggerMarkPaid, true
	default:
		return "", false
	}
}
