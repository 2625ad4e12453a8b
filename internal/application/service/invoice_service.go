package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/procureflow/invoiceflow/internal/application/dispatcher"
	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// CreateInvoiceInput carries the fields of a new invoice upload. The file
// reference is resolved by the storage collaborator before the core sees it.
type CreateInvoiceInput struct {
	Title         string
	Description   string
	InvoiceNumber string
	PONumber      string
	VendorID      uuid.UUID
	Amount        decimal.Decimal
	Currency      string
	DueDate       *time.Time
	Items         []entity.LineItem
	FileURL       string
	FileName      string
	FileType      string
}

// InvoiceService manages invoice creation and queries.
type InvoiceService interface {
	Create(ctx context.Context, input CreateInvoiceInput, actor entity.Actor) (*entity.Invoice, error)
	Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	StatusCounts(ctx context.Context) (map[entity.Status]int, error)

	// AssessRisk runs the external risk scoring for an invoice. Create
	// launches it in the background; it is exported so callers can
	// trigger it synchronously.
	AssessRisk(ctx context.Context, id uuid.UUID) error

	// Close waits for background risk assessments to finish.
	Close()
}

type invoiceServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	vendorRepo  port.VendorRepository
	auditRepo   port.AuditRepository
	assessor    port.RiskAssessor
	txManager   port.TransactionManager
	events      dispatcher.Dispatcher
	logger      Logger

	riskTimeout time.Duration
	wg          sync.WaitGroup
}

// NewInvoiceService creates a new InvoiceService.
func NewInvoiceService(
	invoiceRepo port.InvoiceRepository,
	vendorRepo port.VendorRepository,
	auditRepo port.AuditRepository,
	assessor port.RiskAssessor,
	txManager port.TransactionManager,
	events dispatcher.Dispatcher,
	riskTimeout time.Duration,
	logger Logger,
) InvoiceService {
	if riskTimeout <= 0 {
		riskTimeout = 30 * time.Second
	}
	return &invoiceServiceImpl{
		invoiceRepo: invoiceRepo,
		vendorRepo:  vendorRepo,
		auditRepo:   auditRepo,
		assessor:    assessor,
		txManager:   txManager,
		events:      events,
		riskTimeout: riskTimeout,
		logger:      logger,
	}
}

// Create validates and persists a new invoice in uploaded status, then
// kicks off risk scoring in the background. Risk scoring never blocks or
// fails the upload.
func (s *invoiceServiceImpl) Create(ctx context.Context, input CreateInvoiceInput, actor entity.Actor) (*entity.Invoice, error) {
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	now := time.Now()
	inv := &entity.Invoice{
		ID:            uuid.New(),
		InvoiceNumber: input.InvoiceNumber,
		VendorID:      input.VendorID,
		Title:         input.Title,
		Description:   input.Description,
		PONumber:      input.PONumber,
		Amount:        input.Amount,
		Currency:      input.Currency,
		DueDate:       input.DueDate,
		Status:        entity.StatusUploaded,
		Items:         input.Items,
		FileURL:       input.FileURL,
		FileName:      input.FileName,
		FileType:      input.FileType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.Create(txCtx, inv); err != nil {
			return fmt.Errorf("create invoice: %w", err)
		}
		entry := &entity.AuditEntry{
			EntityType: entity.EntityTypeInvoice,
			EntityID:   inv.ID.String(),
			Action:     entity.AuditActionInvoiceCreated,
			Details: map[string]interface{}{
				"title":          inv.Title,
				"invoice_number": inv.InvoiceNumber,
				"amount":         inv.Amount.String(),
				"currency":       inv.Currency,
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
		s.logger.Error("Failed to create invoice", "error", err, "title", input.Title)
		return nil, err
	}

	s.logger.Info("Invoice created", "id", inv.ID, "status", inv.Status)
	s.events.DispatchAsync(ctx, event.New(event.TypeInvoiceCreated, inv.ID.String(), map[string]interface{}{
		"status": string(inv.Status),
	}))

	// Fire-and-forget: the upload is already durable, scoring fills in
	// risk fields when and if the oracle answers.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		riskCtx, cancel := context.WithTimeout(context.Background(), s.riskTimeout)
		defer cancel()
		if err := s.AssessRisk(riskCtx, inv.ID); err != nil {
			s.logger.Warn("Risk assessment skipped", "invoice_id", inv.ID, "error", err)
		}
	}()

	return inv, nil
}

// AssessRisk calls the scoring oracle once and stores the verdict. Any
// gateway failure, including a degraded answer, leaves the risk fields
// unset so absence of assessment is never misread as low risk.
func (s *invoiceServiceImpl) AssessRisk(ctx context.Context, id uuid.UUID) error {
	inv, err := s.invoiceRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get invoice: %w", err)
	}
	if inv.HasRiskAssessment() {
		// Scored once at creation; never re-scored.
		return nil
	}

	summary := entity.InvoiceSummary{
		Title:         inv.Title,
		InvoiceNumber: inv.InvoiceNumber,
		Amount:        inv.Amount,
		Currency:      inv.Currency,
		Description:   inv.Description,
		FileName:      inv.FileName,
	}
	if inv.VendorID != uuid.Nil {
		if vendor, err := s.vendorRepo.GetByID(ctx, inv.VendorID); err == nil {
			summary.VendorName = vendor.Name
		}
	}

	assessment, err := s.assessor.Assess(ctx, summary)
	if err != nil {
		if port.IsGatewayError(err) {
			return err
		}
		return fmt.Errorf("%w: %v", port.ErrGatewayUnavailable, err)
	}
	if assessment.Degraded {
		s.logger.Warn("Risk gateway returned degraded verdict, leaving risk unset",
			"invoice_id", inv.ID, "reason", assessment.Reason)
		return nil
	}
	if !assessment.Tier.IsValid() || assessment.Score < 0 || assessment.Score > 100 {
		return fmt.Errorf("%w: malformed assessment", port.ErrGatewayUnavailable)
	}

	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.invoiceRepo.UpdateRisk(txCtx, inv.ID, assessment); err != nil {
			return fmt.Errorf("update risk fields: %w", err)
		}
		entry := &entity.AuditEntry{
			EntityType: entity.EntityTypeInvoice,
			EntityID:   inv.ID.String(),
			Action:     entity.AuditActionRiskAssessed,
			Details: map[string]interface{}{
				"risk_level": string(assessment.Tier),
				"risk_score": assessment.Score,
				"reason":     assessment.Reason,
			},
			PerformedBy: "system",
			PerformedAt: time.Now(),
		}
		if err := s.auditRepo.Append(txCtx, entry); err != nil {
			return fmt.Errorf("append audit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Risk assessment stored",
		"invoice_id", inv.ID, "risk_level", assessment.Tier, "risk_score", assessment.Score)
	s.events.DispatchAsync(ctx, event.New(event.TypeRiskAssessed, inv.ID.String(), map[string]interface{}{
		"risk_level": string(assessment.Tier),
		"risk_score": assessment.Score,
	}))
	return nil
}

func (s *invoiceServiceImpl) Get(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	return s.invoiceRepo.GetByID(ctx, id)
}

func (s *invoiceServiceImpl) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	return s.invoiceRepo.List(ctx, filter)
}

func (s *invoiceServiceImpl) StatusCounts(ctx context.Context) (map[entity.Status]int, error) {
	return s.invoiceRepo.CountByStatus(ctx)
}

func (s *invoiceServiceImpl) Close() {
	s.wg.Wait()
}

func validateCreateInput(input *CreateInvoiceInput) error {
	if input.Title == "" {
		return entity.NewValidationError("title", "required")
	}
	if !input.Amount.IsPositive() {
		return entity.NewValidationError("amount", "must be positive")
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}
	if len(input.Currency) != 3 {
		return entity.NewValidationError("currency", "must be a 3-letter code")
	}
	for _, li := range input.Items {
		if li.Quantity < 0 {
			return entity.NewValidationError("items.quantity", "must not be negative")
		}
		if li.UnitPrice.IsNegative() {
			return entity.NewValidationError("items.unit_price", "must not be negative")
		}
	}
	return nil
}
