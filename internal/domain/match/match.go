// Package match implements the three-way match between an invoice, its
// purchase order, and the goods receipt for that order. Matching is a pure
// computation: identical inputs always produce identical results.
package match

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/procureflow/invoiceflow/internal/domain/entity"
)

var hundred = decimal.NewFromInt(100)

// Match computes the three-way match result for an invoice. The purchase
// order and goods receipt may be nil when no reference resolves; a nil PO
// yields a zero score outright. Currency disagreement also yields a zero
// score rather than a comparison of mismatched currencies.
func Match(inv *entity.Invoice, po *entity.PurchaseOrder, gr *entity.GoodsReceipt, cfg Config) (*Result, error) {
	if err := validateInputs(inv, po, gr); err != nil {
		return nil, err
	}

	if po == nil {
		return &Result{
			Score: 0,
			Discrepancies: []Discrepancy{{
				Kind:   KindNoPurchaseOrder,
				Detail: "no purchase order reference resolves for this invoice",
				Impact: inv.Amount,
			}},
			TotalOvercharge: decimal.Zero,
		}, nil
	}

	if mismatched, detail := currencyMismatch(inv, po, gr); mismatched {
		return &Result{
			Score: 0,
			Discrepancies: []Discrepancy{{
				Kind:   KindCurrencyMismatch,
				Detail: detail,
				Impact: inv.Amount,
			}},
			TotalOvercharge: decimal.Zero,
		}, nil
	}

	res := &Result{TotalOvercharge: decimal.Zero}
	penalty := decimal.Zero

	invLines := make(map[string]*entity.LineItem, len(inv.Items))
	matched := make(map[string]bool, len(inv.Items))
	for i := range inv.Items {
		invLines[normalize(inv.Items[i].Description)] = &inv.Items[i]
	}

	received := make(map[string]*entity.ReceiptLineItem)
	if gr != nil {
		for i := range gr.Items {
			received[normalize(gr.Items[i].Description)] = &gr.Items[i]
		}
	}

	for i := range po.Items {
		poLine := &po.Items[i]
		key := normalize(poLine.Description)

		invLine, ok := invLines[key]
		if !ok {
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Kind:   KindMissingLine,
				Line:   poLine.Description,
				Detail: "ordered line is not billed on the invoice",
				Impact: poLine.Total,
			})
			continue
		}
		matched[key] = true

		recvQty := poLine.Quantity
		if rl, ok := received[key]; ok {
			recvQty = rl.QuantityReceived
		}

		priceOK := priceWithinTolerance(invLine.UnitPrice, poLine.UnitPrice, cfg.PriceTolerancePct)

		// An invoice that bills exactly the received quantity of a short
		// delivery is a partial-shipment invoice, not a discrepancy.
		if recvQty < poLine.Quantity && invLine.Quantity == recvQty && priceOK {
			res.PartialShipment = true
			res.Notes = append(res.Notes, Note{
				Line: poLine.Description,
				Detail: fmt.Sprintf("partial shipment: invoice bills the %d units received of %d ordered",
					recvQty, poLine.Quantity),
			})
			continue
		}

		if invLine.Quantity > poLine.Quantity {
			overQty := invLine.Quantity - poLine.Quantity
			impact := poLine.UnitPrice.Mul(decimal.NewFromInt(overQty))
			p := valueShare(impact, inv.Amount).Mul(cfg.QuantityWeight)
			penalty = penalty.Add(p)
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Kind:    KindQuantityOver,
				Line:    poLine.Description,
				Detail:  fmt.Sprintf("invoice bills %d units, purchase order authorizes %d", invLine.Quantity, poLine.Quantity),
				Impact:  impact,
				Penalty: p,
			})
		}

		if recvQty < poLine.Quantity && invLine.Quantity > recvQty {
			shortQty := min64(invLine.Quantity, poLine.Quantity) - recvQty
			impact := poLine.UnitPrice.Mul(decimal.NewFromInt(shortQty))
			p := valueShare(impact, inv.Amount).Mul(cfg.QuantityWeight)
			penalty = penalty.Add(p)
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Kind:    KindQuantityShort,
				Line:    poLine.Description,
				Detail:  fmt.Sprintf("invoice bills %d units but only %d of %d were received", invLine.Quantity, recvQty, poLine.Quantity),
				Impact:  impact,
				Penalty: p,
			})
		}

		if !priceOK {
			diff := invLine.UnitPrice.Sub(poLine.UnitPrice)
			impact := diff.Abs().Mul(decimal.NewFromInt(invLine.Quantity))
			p := decimal.Zero
			if diff.IsPositive() {
				// Only overcharges are penalized; an undercharge is
				// reported but costs nothing.
				res.TotalOvercharge = res.TotalOvercharge.Add(impact)
				p = valueShare(impact, inv.Amount).Mul(cfg.PriceWeight)
				penalty = penalty.Add(p)
			}
			res.Discrepancies = append(res.Discrepancies, Discrepancy{
				Kind: KindPriceVariance,
				Line: poLine.Description,
				Detail: fmt.Sprintf("unit price %s differs from purchase order price %s",
					invLine.UnitPrice.StringFixed(2), poLine.UnitPrice.StringFixed(2)),
				Impact:  impact,
				Penalty: p,
			})
		} else if !invLine.UnitPrice.Equal(poLine.UnitPrice) {
			res.Notes = append(res.Notes, Note{
				Line: poLine.Description,
				Detail: fmt.Sprintf("unit price %s within tolerance of purchase order price %s",
					invLine.UnitPrice.StringFixed(2), poLine.UnitPrice.StringFixed(2)),
			})
		}
	}

	// Invoice lines with no purchase order counterpart are billed but
	// never ordered: quantity-over against an ordered quantity of zero.
	for i := range inv.Items {
		line := &inv.Items[i]
		if matched[normalize(line.Description)] {
			continue
		}
		p := valueShare(line.Total, inv.Amount).Mul(cfg.QuantityWeight)
		penalty = penalty.Add(p)
		res.Discrepancies = append(res.Discrepancies, Discrepancy{
			Kind:    KindQuantityOver,
			Line:    line.Description,
			Detail:  "billed line does not appear on the purchase order",
			Impact:  line.Total,
			Penalty: p,
		})
	}

	sort.SliceStable(res.Discrepancies, func(a, b int) bool {
		return res.Discrepancies[a].Impact.GreaterThan(res.Discrepancies[b].Impact)
	})

	score := hundred.Sub(penalty)
	if score.IsNegative() {
		score = decimal.Zero
	}
	if score.GreaterThan(hundred) {
		score = hundred
	}
	res.Score = score.Round(2).InexactFloat64()

	return res, nil
}

func validateInputs(inv *entity.Invoice, po *entity.PurchaseOrder, gr *entity.GoodsReceipt) error {
	if inv == nil {
		return entity.NewValidationError("invoice", "required")
	}
	if len(inv.Items) == 0 {
		return entity.NewValidationError("invoice.items", "at least one line item required")
	}
	if !inv.Amount.IsPositive() {
		return entity.NewValidationError("invoice.amount", "must be positive")
	}
	for _, li := range inv.Items {
		if li.Quantity < 0 {
			return entity.NewValidationError("invoice.items.quantity", "must not be negative")
		}
		if li.UnitPrice.IsNegative() {
			return entity.NewValidationError("invoice.items.unit_price", "must not be negative")
		}
	}
	if po != nil {
		for _, li := range po.Items {
			if li.Quantity < 0 || li.UnitPrice.IsNegative() {
				return entity.NewValidationError("purchase_order.items", "negative quantity or price")
			}
		}
	}
	if gr != nil {
		for _, li := range gr.Items {
			if li.QuantityReceived < 0 || li.QuantityOrdered < 0 {
				return entity.NewValidationError("goods_receipt.items", "negative quantity")
			}
		}
	}
	return nil
}

func currencyMismatch(inv *entity.Invoice, po *entity.PurchaseOrder, gr *entity.GoodsReceipt) (bool, string) {
	if po.Currency != "" && po.Currency != inv.Currency {
		return true, fmt.Sprintf("invoice currency %s does not match purchase order currency %s", inv.Currency, po.Currency)
	}
	if gr != nil && gr.Currency != "" && gr.Currency != inv.Currency {
		return true, fmt.Sprintf("invoice currency %s does not match goods receipt currency %s", inv.Currency, gr.Currency)
	}
	return false, ""
}

// priceWithinTolerance reports whether the invoice price is within the
// configured percentage tolerance of the PO price.
func priceWithinTolerance(invPrice, poPrice, tolerancePct decimal.Decimal) bool {
	if invPrice.Equal(poPrice) {
		return true
	}
	if poPrice.IsZero() {
		return false
	}
	variancePct := invPrice.Sub(poPrice).Abs().Div(poPrice).Mul(hundred)
	return variancePct.LessThanOrEqual(tolerancePct)
}

// valueShare returns value as a percentage of total.
func valueShare(value, total decimal.Decimal) decimal.Decimal {
	return value.Div(total).Mul(hundred)
}

// normalize canonicalizes a line description for pairing: case folded,
// whitespace collapsed.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
