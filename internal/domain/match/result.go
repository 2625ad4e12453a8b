package match

import "github.com/shopspring/decimal"

// Kind tags a line-level discrepancy found by the matching engine.
type Kind string

const (
	KindNoPurchaseOrder  Kind = "no-purchase-order"
	KindCurrencyMismatch Kind = "currency-mismatch"
	KindQuantityShort    Kind = "quantity-short"
	KindQuantityOver     Kind = "quantity-over"
	KindPriceVariance    Kind = "price-variance"
	KindMissingLine      Kind = "missing-line"
)

// Discrepancy is a single finding against an invoice line.
type Discrepancy struct {
	Kind    Kind            `json:"kind"`
	Line    string          `json:"line"`
	Detail  string          `json:"detail"`
	Impact  decimal.Decimal `json:"impact"`  // monetary impact
	Penalty decimal.Decimal `json:"penalty"` // score points subtracted
}

// Note is an informational finding that carries no penalty.
type Note struct {
	Line   string `json:"line"`
	Detail string `json:"detail"`
}

// Result is the outcome of a three-way match. It is derived data:
// recomputed deterministically from its inputs, never mutated.
type Result struct {
	Score           float64         `json:"score"` // 0-100
	Discrepancies   []Discrepancy   `json:"discrepancies"`
	Notes           []Note          `json:"notes"`
	PartialShipment bool            `json:"partial_shipment"`
	TotalOvercharge decimal.Decimal `json:"total_overcharge"`
}

// HasDiscrepancy reports whether the result contains a discrepancy of the kind.
func (r *Result) HasDiscrepancy(kind Kind) bool {
	for _, d := range r.Discrepancies {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// PartialShipmentOnly reports whether the partial-shipment note is the only
// finding, i.e. the invoice bills exactly what was received.
func (r *Result) PartialShipmentOnly() bool {
	return r.PartialShipment && len(r.Discrepancies) == 0
}
