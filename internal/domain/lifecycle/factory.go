package lifecycle

import "github.com/procureflow/invoiceflow/internal/domain/entity"

func isReviewer(actor entity.Actor) bool { return actor.Reviewer || actor.Admin }
func isAdmin(actor entity.Actor) bool    { return actor.Admin }

// BuildInvoiceStateMachine creates a state machine configured for the
// invoice approval workflow. The review step is advisory: an invoice may
// go straight from uploaded to approved or rejected. Only admins may mark
// an approved invoice paid.
func BuildInvoiceStateMachine(initial entity.Status) StateMachine {
	b := NewBuilder()

	b.Configure(entity.StatusUploaded).
		PermitIf(TriggerStartReview, entity.StatusUnderReview, isReviewer).
		PermitIf(TriggerApprove, entity.StatusApproved, isReviewer).
		PermitIf(TriggerReject, entity.StatusRejected, isReviewer)

	b.Configure(entity.StatusUnderReview).
		PermitIf(TriggerApprove, entity.StatusApproved, isReviewer).
		PermitIf(TriggerReject, entity.StatusRejected, isReviewer)

	b.Configure(entity.StatusApproved).
		PermitIf(TriggerMarkPaid, entity.StatusPaid, isAdmin)

	// rejected and paid are terminal, no outgoing edges

	return b.Build(initial)
}
