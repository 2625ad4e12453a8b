package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/event"
	"github.com/procureflow/invoiceflow/internal/domain/lifecycle"
)

func storedInvoice(status entity.Status) *entity.Invoice {
	now := time.Now()
	return &entity.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: "INV-2024-001",
		Title:         "Office chairs",
		Status:        status,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func newReviewFixture(inv *entity.Invoice) (ReviewService, *mockInvoiceRepo, *mockAuditRepo, *mockDispatcher) {
	repo := &mockInvoiceRepo{
		getByIDFunc: func(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
			if inv != nil && id == inv.ID {
				return inv, nil
			}
			return nil, entity.ErrNotFound
		},
	}
	audit := &mockAuditRepo{}
	events := &mockDispatcher{}
	svc := NewReviewService(repo, audit, &mockTxManager{}, events, noopLogger{})
	return svc, repo, audit, events
}

func TestReviewService_Transition_Approve(t *testing.T) {
	inv := storedInvoice(entity.StatusUnderReview)
	svc, repo, audit, events := newReviewFixture(inv)
	actor := entity.Actor{ID: "reviewer-1", Reviewer: true}

	got, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusApproved,
		Notes:     "matches PO-2024-001",
	}, actor)
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.Equal(t, "reviewer-1", got.ReviewerID)
	assert.Equal(t, "reviewer-1", got.ApprovedBy)
	require.NotNil(t, got.ApprovedAt)
	assert.Equal(t, 1, repo.transitionCalls)

	require.Equal(t, 1, audit.count())
	entry := audit.entries[0]
	assert.Equal(t, "manual_approved", entry.Action)
	assert.Equal(t, "under_review", entry.Details["old_status"])
	assert.Equal(t, "approved", entry.Details["new_status"])
	assert.Equal(t, "matches PO-2024-001", entry.Details["reviewer_notes"])
	assert.Equal(t, "reviewer-1", entry.PerformedBy)

	require.Len(t, events.types(), 1)
	assert.Equal(t, event.TypeInvoiceTransitioned, events.types()[0])
}

func TestReviewService_Transition_DirectRejectFromUploaded(t *testing.T) {
	inv := storedInvoice(entity.StatusUploaded)
	svc, _, audit, _ := newReviewFixture(inv)

	got, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusRejected,
		Notes:     "duplicate submission",
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Equal(t, 1, audit.count())
}

func TestReviewService_Transition_InvalidLeavesNoTrace(t *testing.T) {
	inv := storedInvoice(entity.StatusRejected)
	svc, repo, audit, events := newReviewFixture(inv)

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusApproved,
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrInvalidTransition))

	assert.Equal(t, entity.StatusRejected, inv.Status)
	assert.Equal(t, 0, repo.transitionCalls)
	assert.Equal(t, 0, audit.count())
	assert.Empty(t, events.types())
}

func TestReviewService_Transition_MarkPaidRequiresAdmin(t *testing.T) {
	inv := storedInvoice(entity.StatusApproved)
	svc, repo, audit, _ := newReviewFixture(inv)

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusPaid,
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrPermissionDenied))
	assert.Equal(t, 0, repo.transitionCalls)
	assert.Equal(t, 0, audit.count())

	got, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusPaid,
	}, entity.Actor{ID: "admin-1", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPaid, got.Status)
	require.NotNil(t, got.PaidAt)
}

func TestReviewService_Transition_ConcurrentConflict(t *testing.T) {
	inv := storedInvoice(entity.StatusUnderReview)
	svc, repo, audit, _ := newReviewFixture(inv)
	repo.transitionFunc = func(ctx context.Context, inv *entity.Invoice, expectedFrom entity.Status) error {
		return entity.ErrConcurrentModification
	}

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusApproved,
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrConcurrentModification))
	// Conditional update failed inside the transaction, so the audit
	// append rolls back with it.
	assert.Equal(t, 0, audit.count())
}

func TestReviewService_Transition_UploadedNeverATarget(t *testing.T) {
	inv := storedInvoice(entity.StatusUnderReview)
	svc, _, _, _ := newReviewFixture(inv)

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.StatusUploaded,
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrInvalidTransition))
}

func TestReviewService_Transition_UnknownStatus(t *testing.T) {
	inv := storedInvoice(entity.StatusUnderReview)
	svc, _, _, _ := newReviewFixture(inv)

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: inv.ID,
		Target:    entity.Status("archived"),
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, lifecycle.ErrInvalidStatus))
}

func TestReviewService_Transition_NotFound(t *testing.T) {
	svc, _, _, _ := newReviewFixture(nil)

	_, err := svc.Transition(context.Background(), TransitionInput{
		InvoiceID: uuid.New(),
		Target:    entity.StatusApproved,
	}, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, entity.ErrNotFound))
}

func TestReviewService_PermittedTargets(t *testing.T) {
	inv := storedInvoice(entity.StatusApproved)
	svc, _, _, _ := newReviewFixture(inv)

	targets, err := svc.PermittedTargets(context.Background(), inv.ID, entity.Actor{ID: "reviewer-1", Reviewer: true})
	require.NoError(t, err)
	assert.Empty(t, targets)

	targets, err = svc.PermittedTargets(context.Background(), inv.ID, entity.Actor{ID: "admin-1", Admin: true})
	require.NoError(t, err)
	assert.Equal(t, []entity.Status{entity.StatusPaid}, targets)
}
