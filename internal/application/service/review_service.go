package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/procureflow/invoiceflow/internal/application/dispatcher"
	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/event"
	"github.com/procureflow/invoiceflow/internal/domain/lifecycle"
)

// TransitionInput carries a manual status decision made by a reviewer.
type TransitionInput struct {
	InvoiceID uuid.UUID
	Target    entity.Status
	Notes     string
}

// ReviewService drives invoices through their lifecycle. Every accepted
// transition leaves exactly one audit trail entry; a rejected one leaves
// none and does not touch the invoice.
type ReviewService interface {
	Transition(ctx context.Context, input TransitionInput, actor entity.Actor) (*entity.Invoice, error)
	PermittedTargets(ctx context.Context, id uuid.UUID, actor entity.Actor) ([]entity.Status, error)
}

type reviewServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	auditRepo   port.AuditRepository
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(
	invoiceRepo port.InvoiceRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) ReviewService {
	return &reviewServiceImpl{
		invoiceRepo: invoiceRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
		events:      events,
		logger:      logger,
	}
}

func (s *reviewServiceImpl) Transition(ctx context.Context, input TransitionInput, actor entity.Actor) (*entity.Invoice, error) {
	if !input.Target.IsValid() {
		return nil, fmt.Errorf("%w: %q", lifecycle.ErrInvalidStatus, input.Target)
	}
	trigger, ok := lifecycle.TriggerFor(input.Target)
	if !ok {
		return nil, fmt.Errorf("%w: no trigger reaches %q", lifecycle.ErrInvalidTransition, input.Target)
	}

	inv, err := s.invoiceRepo.GetByID(ctx, input.InvoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	machine := lifecycle.BuildInvoiceStateMachine(inv.Status)
	if err := machine.Fire(actor, trigger); err != nil {
		return nil, err
	}

	oldStatus := inv.Status
	now := time.Now()
	inv.Status = input.Target
	inv.ReviewerID = actor.ID
	inv.ReviewerNotes = input.Notes
	inv.ReviewedAt = &now
	inv.UpdatedAt = now
	switch input.Target {
	case entity.StatusApproved:
		inv.ApprovedBy = actor.ID
		inv.ApprovedAt = &now
	case entity.StatusPaid:
		inv.PaidAt = &now
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.TransitionStatus(txCtx, inv, oldStatus); err != nil {
			return err
		}
		entry := &entity.AuditEntry{
			EntityType: entity.EntityTypeInvoice,
			EntityID:   inv.ID.String(),
			Action:     entity.AuditActionForStatus(input.Target),
			Details: map[string]interface{}{
				"old_status":     string(oldStatus),
				"new_status":     string(input.Target),
				"reviewer_notes": input.Notes,
			},
			PerformedBy: actor.ID,
			PerformedAt: now,
		}
		if err := s.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		s.logger.Error("Failed to transition invoice",
			"invoice_id", inv.ID, "from", oldStatus, "to", input.Target, "error", err)
		return nil, err
	}

	s.logger.Info("Invoice transitioned",
		"invoice_id", inv.ID, "from", oldStatus, "to", input.Target, "actor", actor.ID)
	s.events.DispatchAsync(ctx, event.New(event.TypeInvoiceTransitioned, inv.ID.String(), map[string]interface{}{
		"old_status": string(oldStatus),
		"new_status": string(input.Target),
		"actor":      actor.ID,
	}))
	return inv, nil
}

// PermittedTargets lists the statuses the actor may move the invoice to
// from its current position.
func (s *reviewServiceImpl) PermittedTargets(ctx context.Context, id uuid.UUID, actor entity.Actor) ([]entity.Status, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	machine := lifecycle.BuildInvoiceStateMachine(inv.Status)
	triggers := machine.PermittedTriggers(actor)
	targets := make([]entity.Status, 0, len(triggers))
	for _, t := range triggers {
		targets = append(targets, t.Target())
	}
	return targets, nil
}
