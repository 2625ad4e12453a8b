package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/procureflow/invoiceflow/internal/application/dispatcher"
	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/event"
)

type mockInvoiceRepo struct {
	createFunc     func(ctx context.Context, inv *entity.Invoice) error
	getByIDFunc    func(ctx context.Context, id uuid.UUID) (*entity.Invoice, error)
	listFunc       func(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error)
	countFunc      func(ctx context.Context) (map[entity.Status]int, error)
	updateRiskFunc func(ctx context.Context, id uuid.UUID, a *entity.RiskAssessment) error
	transitionFunc func(ctx context.Context, inv *entity.Invoice, expectedFrom entity.Status) error

	mu              sync.Mutex
	transitionCalls int
	updateRiskCalls int
}

func (m *mockInvoiceRepo) Create(ctx context.Context, inv *entity.Invoice) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, inv)
	}
	return nil
}

func (m *mockInvoiceRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, entity.ErrNotFound
}

func (m *mockInvoiceRepo) List(ctx context.Context, filter port.InvoiceFilter) ([]*entity.Invoice, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return nil, nil
}

func (m *mockInvoiceRepo) UpdateRisk(ctx context.Context, id uuid.UUID, a *entity.RiskAssessment) error {
	m.mu.Lock()
	m.updateRiskCalls++
	m.mu.Unlock()
	if m.updateRiskFunc != nil {
		return m.updateRiskFunc(ctx, id, a)
	}
	return nil
}

func (m *mockInvoiceRepo) TransitionStatus(ctx context.Context, inv *entity.Invoice, expectedFrom entity.Status) error {
	m.mu.Lock()
	m.transitionCalls++
	m.mu.Unlock()
	if m.transitionFunc != nil {
		return m.transitionFunc(ctx, inv, expectedFrom)
	}
	return nil
}

type mockPORepo struct {
	getByNumberFunc func(ctx context.Context, number string) (*entity.PurchaseOrder, error)
}

func (m *mockPORepo) GetByNumber(ctx context.Context, number string) (*entity.PurchaseOrder, error) {
	if m.getByNumberFunc != nil {
		return m.getByNumberFunc(ctx, number)
	}
	return nil, entity.ErrNotFound
}

type mockGRRepo struct {
	listByPOFunc func(ctx context.Context, poNumber string) ([]*entity.GoodsReceipt, error)
}

func (m *mockGRRepo) ListByPONumber(ctx context.Context, poNumber string) ([]*entity.GoodsReceipt, error) {
	if m.listByPOFunc != nil {
		return m.listByPOFunc(ctx, poNumber)
	}
	return nil, nil
}

type mockVendorRepo struct {
	createFunc  func(ctx context.Context, v *entity.Vendor) error
	getByIDFunc func(ctx context.Context, id uuid.UUID) (*entity.Vendor, error)
	listFunc    func(ctx context.Context, limit, offset int) ([]*entity.Vendor, error)
}

func (m *mockVendorRepo) Create(ctx context.Context, v *entity.Vendor) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, v)
	}
	return nil
}

func (m *mockVendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Vendor, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, entity.ErrNotFound
}

func (m *mockVendorRepo) List(ctx context.Context, limit, offset int) ([]*entity.Vendor, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, limit, offset)
	}
	return nil, nil
}

type mockAuditRepo struct {
	mu         sync.Mutex
	entries    []*entity.AuditEntry
	appendFunc func(ctx context.Context, e *entity.AuditEntry) error
}

func (m *mockAuditRepo) Append(ctx context.Context, e *entity.AuditEntry) error {
	if m.appendFunc != nil {
		if err := m.appendFunc(ctx, e); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.entries = append(m.entries, e)
	m.mu.Unlock()
	return nil
}

func (m *mockAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.AuditEntry
	for _, e := range m.entries {
		if e.EntityType == entityType && e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockAuditRepo) ListRecent(ctx context.Context, limit int) ([]*entity.AuditEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.AuditEntry, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *mockAuditRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// mockTxManager runs the function directly; rollback is simulated by the
// caller checking the returned error.
type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}

func (m *mockDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.record(evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.record(evt)
}

func (m *mockDispatcher) Close() error { return nil }

func (m *mockDispatcher) record(evt *event.Event) {
	m.mu.Lock()
	m.events = append(m.events, evt)
	m.mu.Unlock()
}

func (m *mockDispatcher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

type mockAssessor struct {
	assessFunc func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error)
	mu         sync.Mutex
	calls      int
}

func (m *mockAssessor) Assess(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.assessFunc != nil {
		return m.assessFunc(ctx, summary)
	}
	return &entity.RiskAssessment{Tier: entity.RiskTierLow, Score: 5, Reason: "nothing unusual"}, nil
}

type noopLogger struct{}

func (noopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Warn(msg string, keysAndValues ...interface{})  {}
func (noopLogger) Error(msg string, keysAndValues ...interface{}) {}
