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
)

// CreateVendorInput carries the fields of a new supplier record.
type CreateVendorInput struct {
	Name    string
	Code    string
	Contact string
}

// VendorService manages supplier reference records.
type VendorService interface {
	Create(ctx context.Context, input CreateVendorInput, actor entity.Actor) (*entity.Vendor, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
	List(ctx context.Context) ([]*entity.Vendor, error)
}

type vendorServiceImpl struct {
	vendorRepo port.VendorRepository
	auditRepo  port.AuditRepository
	txManager  port.TransactionManager
	events     dispatcher.Dispatcher
	logger     Logger
}

// NewVendorService creates a new VendorService.
func NewVendorService(
	vendorRepo port.VendorRepository,
	auditRepo port.AuditRepository,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	logger Logger,
) VendorService {
	return &vendorServiceImpl{
		vendorRepo: vendorRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		events:     events,
		logger:     logger,
	}
}

func (s *vendorServiceImpl) Create(ctx context.Context, input CreateVendorInput, actor entity.Actor) (*entity.Vendor, error) {
	if input.Name == "" {
		return nil, entity.NewValidationError("name", "required")
	}
	if input.Code == "" {
		return nil, entity.NewValidationError("code", "required")
	}

	now := time.Now()
	vendor := &entity.Vendor{
		ID:         uuid.New(),
		Name:       input.Name,
		Code:       input.Code,
		Contact:    input.Contact,
		RiskStatus: entity.VendorRiskNormal,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.vendorRepo.Create(txCtx, vendor); err != nil {
			return fmt.Errorf("create vendor: %w", err)
		}
		entry := &entity.AuditEntry{
			EntityType: entity.EntityTypeVendor,
			EntityID:   vendor.ID.String(),
			Action:     entity.AuditActionVendorCreated,
			Details: map[string]interface{}{
				"name": vendor.Name,
				"code": vendor.Code,
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
		s.logger.Error("Failed to create vendor", "name", input.Name, "error", err)
		return nil, err
	}

	s.logger.Info("Vendor created", "id", vendor.ID, "name", vendor.Name)
	s.events.DispatchAsync(ctx, event.New(event.TypeVendorCreated, vendor.ID.String(), map[string]interface{}{
		"name": vendor.Name,
	}))
	return vendor, nil
}

func (s *vendorServiceImpl) Get(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	return s.vendorRepo.GetByID(ctx, id)
}

func (s *vendorServiceImpl) List(ctx context.Context) ([]*entity.Vendor, error) {
	return s.vendorRepo.List(ctx, 200, 0)
}
