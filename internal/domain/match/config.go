package match

import "github.com/shopspring/decimal"

// Config holds the matching tolerances and penalty weights. The observed
// production numbers are defaults, not constants: deployments tune them.
type Config struct {
	// PriceTolerancePct is the unit-price variance (percent of PO price)
	// above which a price variance becomes a penalized discrepancy.
	// Variances at or below the tolerance are reported without penalty.
	PriceTolerancePct decimal.Decimal

	// QuantityWeight multiplies the affected-value share (percent of the
	// invoice total) for quantity-short and quantity-over penalties.
	QuantityWeight decimal.Decimal

	// PriceWeight multiplies the overcharge share (percent of the invoice
	// total) for price-variance penalties.
	PriceWeight decimal.Decimal
}

// DefaultConfig returns the default matching configuration.
func DefaultConfig() Config {
	return Config{
		PriceTolerancePct: decimal.Zero,
		QuantityWeight:    decimal.NewFromInt(30),
		PriceWeight:       decimal.NewFromInt(6),
	}
}
