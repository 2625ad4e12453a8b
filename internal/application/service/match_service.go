package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/procureflow/invoiceflow/internal/application/port"
	"github.com/procureflow/invoiceflow/internal/domain/entity"
	"github.com/procureflow/invoiceflow/internal/domain/match"
	"github.com/procureflow/invoiceflow/internal/domain/policy"
)

// MatchReport is the outcome of running the three-way match and the
// recommendation policy for a single invoice.
type MatchReport struct {
	InvoiceID      uuid.UUID              `json:"invoice_id"`
	PONumber       string                 `json:"po_number,omitempty"`
	Result         *match.Result          `json:"result"`
	Recommendation policy.Recommendation  `json:"recommendation"`
	Risk           *entity.RiskAssessment `json:"risk,omitempty"`
}

// MatchService resolves invoice documents against their purchase order
// and goods receipt and produces a recommendation.
type MatchService interface {
	Report(ctx context.Context, invoiceID uuid.UUID) (*MatchReport, error)
}

type matchServiceImpl struct {
	invoiceRepo port.InvoiceRepository
	poRepo      port.PurchaseOrderRepository
	grRepo      port.GoodsReceiptRepository
	matchCfg    match.Config
	thresholds  policy.Thresholds
	logger      Logger
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	invoiceRepo port.InvoiceRepository,
	poRepo port.PurchaseOrderRepository,
	grRepo port.GoodsReceiptRepository,
	matchCfg match.Config,
	thresholds policy.Thresholds,
	logger Logger,
) MatchService {
	return &matchServiceImpl{
		invoiceRepo: invoiceRepo,
		poRepo:      poRepo,
		grRepo:      grRepo,
		matchCfg:    matchCfg,
		thresholds:  thresholds,
		logger:      logger,
	}
}

// Report loads the invoice's referenced documents and runs the match.
// A PO reference that resolves to nothing is treated the same as a
// missing reference: the match itself reports it, not the lookup.
func (s *matchServiceImpl) Report(ctx context.Context, invoiceID uuid.UUID) (*MatchReport, error) {
	inv, err := s.invoiceRepo.GetByID(ctx, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	var po *entity.PurchaseOrder
	var gr *entity.GoodsReceipt
	if inv.PONumber != "" {
		po, err = s.poRepo.GetByNumber(ctx, inv.PONumber)
		if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return nil, fmt.Errorf("get purchase order %q: %w", inv.PONumber, err)
		}
		if po != nil {
			gr, err = s.resolveReceipt(ctx, inv.PONumber)
			if err != nil {
				return nil, err
			}
		}
	}

	result, err := match.Match(inv, po, gr, s.matchCfg)
	if err != nil {
		return nil, err
	}

	var risk *entity.RiskAssessment
	if inv.HasRiskAssessment() {
		risk = &entity.RiskAssessment{
			Tier:   inv.RiskTier,
			Score:  *inv.RiskScore,
			Reason: inv.RiskReason,
		}
	}

	rec := policy.Recommend(result, risk, s.thresholds)
	s.logger.Info("Match report computed",
		"invoice_id", inv.ID, "score", result.Score, "recommendation", rec)

	return &MatchReport{
		InvoiceID:      inv.ID,
		PONumber:       inv.PONumber,
		Result:         result,
		Recommendation: rec,
		Risk:           risk,
	}, nil
}

// resolveReceipt picks the goods receipt for a PO. When several receipts
// exist the latest one by received date wins.
func (s *matchServiceImpl) resolveReceipt(ctx context.Context, poNumber string) (*entity.GoodsReceipt, error) {
	receipts, err := s.grRepo.ListByPONumber(ctx, poNumber)
	if err != nil {
		return nil, fmt.Errorf("list goods receipts for %q: %w", poNumber, err)
	}
	if len(receipts) == 0 {
		return nil, nil
	}
	if len(receipts) > 1 {
		sort.SliceStable(receipts, func(i, j int) bool {
			return receipts[i].Date.After(receipts[j].Date)
		})
		s.logger.Warn("Multiple goods receipts for purchase order, using latest",
			"po_number", poNumber, "count", len(receipts))
	}
	return receipts[0], nil
}
