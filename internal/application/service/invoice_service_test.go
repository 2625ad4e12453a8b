package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/event"
)

type invoiceFixture struct {
	svc      InvoiceService
	repo     *mockInvoiceRepo
	audit    *mockAuditRepo
	events   *mockDispatcher
	assessor *mockAssessor
}

func newInvoiceFixture(assessor *mockAssessor) *invoiceFixture {
	store := make(map[uuid.UUID]*entity.Invoice)
	var mu sync.Mutex
	repo := &mockInvoiceRepo{}
	repo.createFunc = func(ctx context.Context, inv *entity.Invoice) error {
		mu.Lock()
		defer mu.Unlock()
		store[inv.ID] = inv
		return nil
	}
	repo.getByIDFunc = func(ctx context.Context, id uuid.UUID) (*entity.Invoice, error) {
		mu.Lock()
		defer mu.Unlock()
		if inv, ok := store[id]; ok {
			copied := *inv
			return &copied, nil
		}
		return nil, entity.ErrNotFound
	}
	repo.updateRiskFunc = func(ctx context.Context, id uuid.UUID, a *entity.RiskAssessment) error {
		mu.Lock()
		defer mu.Unlock()
		inv, ok := store[id]
		if !ok {
			return entity.ErrNotFound
		}
		inv.ApplyRiskAssessment(a)
		return nil
	}
	audit := &mockAuditRepo{}
	events := &mockDispatcher{}
	svc := NewInvoiceService(repo, &mockVendorRepo{}, audit, assessor, &mockTxManager{}, events, 5*time.Second, noopLogger{})
	return &invoiceFixture{svc: svc, repo: repo, audit: audit, events: events, assessor: assessor}
}

func validCreateInput() CreateInvoiceInput {
	return CreateInvoiceInput{
		Title:         "Office chairs",
		InvoiceNumber: "INV-2024-001",
		PONumber:      "PO-2024-001",
		Amount:        decimal.NewFromInt(6250),
		Currency:      "USD",
		Items: []entity.LineItem{
			{Description: "Office chairs", Quantity: 25, UnitPrice: decimal.NewFromInt(250), Total: decimal.NewFromInt(6250)},
		},
	}
}

func TestInvoiceService_Create_StoresAndScores(t *testing.T) {
	f := newInvoiceFixture(&mockAssessor{
		assessFunc: func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
			return &entity.RiskAssessment{Tier: entity.RiskTierMedium, Score: 45, Reason: "new vendor"}, nil
		},
	})

	inv, err := f.svc.Create(context.Background(), validCreateInput(), entity.Actor{ID: "uploader-1"})
	require.NoError(t, err)
	assert.Equal(t, entity.StatusUploaded, inv.Status)
	assert.NotEqual(t, uuid.Nil, inv.ID)

	f.svc.Close()

	stored, err := f.repo.getByIDFunc(context.Background(), inv.ID)
	require.NoError(t, err)
	require.True(t, stored.HasRiskAssessment())
	assert.Equal(t, entity.RiskTierMedium, stored.RiskTier)
	assert.Equal(t, 45.0, *stored.RiskScore)

	require.Equal(t, 2, f.audit.count())
	assert.Equal(t, "invoice_created", f.audit.entries[0].Action)
	assert.Equal(t, "ai_risk_assessment", f.audit.entries[1].Action)
	assert.Equal(t, "system", f.audit.entries[1].PerformedBy)

	types := f.events.types()
	require.Len(t, types, 2)
	assert.Equal(t, event.TypeInvoiceCreated, types[0])
	assert.Equal(t, event.TypeRiskAssessed, types[1])
}

func TestInvoiceService_Create_GatewayFailureIsNotFatal(t *testing.T) {
	for _, gatewayErr := range []error{port.ErrRateLimited, port.ErrQuotaExhausted, port.ErrGatewayUnavailable} {
		f := newInvoiceFixture(&mockAssessor{
			assessFunc: func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
				return nil, gatewayErr
			},
		})

		inv, err := f.svc.Create(context.Background(), validCreateInput(), entity.Actor{ID: "uploader-1"})
		require.NoError(t, err, "upload must survive %v", gatewayErr)
		f.svc.Close()

		stored, err := f.repo.getByIDFunc(context.Background(), inv.ID)
		require.NoError(t, err)
		assert.False(t, stored.HasRiskAssessment())
		assert.Equal(t, 1, f.audit.count(), "only the creation entry")
	}
}

func TestInvoiceService_Create_DegradedVerdictLeavesRiskUnset(t *testing.T) {
	f := newInvoiceFixture(&mockAssessor{
		assessFunc: func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
			return &entity.RiskAssessment{Tier: entity.RiskTierMedium, Score: 50, Reason: "model unavailable", Degraded: true}, nil
		},
	})

	inv, err := f.svc.Create(context.Background(), validCreateInput(), entity.Actor{ID: "uploader-1"})
	require.NoError(t, err)
	f.svc.Close()

	stored, err := f.repo.getByIDFunc(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasRiskAssessment(), "degraded answers are never persisted as real verdicts")
	assert.Equal(t, 0, f.repo.updateRiskCalls)
}

func TestInvoiceService_Create_SummaryExcludesIdentifiers(t *testing.T) {
	var got entity.InvoiceSummary
	var mu sync.Mutex
	f := newInvoiceFixture(&mockAssessor{
		assessFunc: func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
			mu.Lock()
			got = summary
			mu.Unlock()
			return &entity.RiskAssessment{Tier: entity.RiskTierLow, Score: 5}, nil
		},
	})

	input := validCreateInput()
	input.Description = "Q3 furniture refresh"
	_, err := f.svc.Create(context.Background(), input, entity.Actor{ID: "uploader-1"})
	require.NoError(t, err)
	f.svc.Close()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Office chairs", got.Title)
	assert.Equal(t, "INV-2024-001", got.InvoiceNumber)
	assert.Equal(t, "Q3 furniture refresh", got.Description)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(6250)))
}

func TestInvoiceService_Create_Validation(t *testing.T) {
	f := newInvoiceFixture(&mockAssessor{})

	tests := []struct {
		name   string
		mutate func(*CreateInvoiceInput)
	}{
		{"missing title", func(in *CreateInvoiceInput) { in.Title = "" }},
		{"zero amount", func(in *CreateInvoiceInput) { in.Amount = decimal.Zero }},
		{"negative amount", func(in *CreateInvoiceInput) { in.Amount = decimal.NewFromInt(-10) }},
		{"bad currency", func(in *CreateInvoiceInput) { in.Currency = "DOLLARS" }},
		{"negative quantity", func(in *CreateInvoiceInput) { in.Items[0].Quantity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validCreateInput()
			tt.mutate(&input)
			_, err := f.svc.Create(context.Background(), input, entity.Actor{ID: "uploader-1"})
			require.Error(t, err)
			assert.True(t, entity.IsValidation(err))
		})
	}
	assert.Equal(t, 0, f.audit.count())
}

func TestInvoiceService_AssessRisk_ScoredOnlyOnce(t *testing.T) {
	assessor := &mockAssessor{}
	f := newInvoiceFixture(assessor)

	inv, err := f.svc.Create(context.Background(), validCreateInput(), entity.Actor{ID: "uploader-1"})
	require.NoError(t, err)
	f.svc.Close()
	require.Equal(t, 1, assessor.calls)

	// A second pass sees the stored verdict and does not call out again.
	require.NoError(t, f.svc.AssessRisk(context.Background(), inv.ID))
	assert.Equal(t, 1, assessor.calls)
	assert.Equal(t, 1, f.repo.updateRiskCalls)
}

func TestInvoiceService_AssessRisk_MalformedVerdict(t *testing.T) {
	f := newInvoiceFixture(&mockAssessor{
		assessFunc: func(ctx context.Context, summary entity.InvoiceSummary) (*entity.RiskAssessment, error) {
			return &entity.RiskAssessment{Tier: "catastrophic", Score: 250}, nil
		},
	})

	inv, err := f.svc.Create(context.Background(), validCreateInput(), entity.Actor{ID: "uploader-1"})
	require.NoError(t, err)
	f.svc.Close()

	err = f.svc.AssessRisk(context.Background(), inv.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, port.ErrGatewayUnavailable))
	assert.Equal(t, 0, f.repo.updateRiskCalls)
}
