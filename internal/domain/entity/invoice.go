package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice represents a vendor bill submitted for payment.
type Invoice struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceNumber string          `json:"invoice_number"` // vendor-supplied, not guaranteed unique
	VendorID      uuid.UUID       `json:"vendor_id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	PONumber      string          `json:"po_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	DueDate       *time.Time      `json:"due_date"`
	Status        Status          `json:"status"`
	Items         []LineItem      `json:"items"`

	// Risk fields are set together by the risk gateway, or not at all.
	RiskTier   RiskTier `json:"risk_tier"`
	RiskScore  *float64 `json:"risk_score"`
	RiskReason string   `json:"risk_reason"`

	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type"`

	ReviewerID    string     `json:"reviewer_id"`
	ReviewerNotes string     `json:"reviewer_notes"`
	ReviewedAt    *time.Time `json:"reviewed_at"`
	ApprovedBy    string     `json:"approved_by"`
	ApprovedAt    *time.Time `json:"approved_at"`
	PaidAt        *time.Time `json:"paid_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItem is a single billed line on an invoice.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// HasRiskAssessment reports whether the risk gateway has populated the
// risk fields. Unset risk is distinguishable from an assessed low tier.
func (i *Invoice) HasRiskAssessment() bool {
	return i.RiskTier != "" && i.RiskScore != nil
}

// ApplyRiskAssessment writes the assessment into the invoice. Tier and
// score are always set together.
func (i *Invoice) ApplyRiskAssessment(a *RiskAssessment) {
	score := a.Score
	i.RiskTier = a.Tier
	i.RiskScore = &score
	i.RiskReason = a.Reason
}

// RiskAssessment is the verdict of the external scoring oracle.
type RiskAssessment struct {
	Tier   RiskTier `json:"risk_level"`
	Score  float64  `json:"risk_score"`
	Reason string   `json:"reason"`
	// Degraded marks a defaulted/low-confidence oracle answer so it is
	// never mistaken for a genuine verdict.
	Degraded bool `json:"degraded,omitempty"`
}

// InvoiceSummary is the PII-minimized view sent to the risk gateway.
// No file contents, only the resolved file name.
type InvoiceSummary struct {
	Title         string          `json:"title"`
	InvoiceNumber string          `json:"invoice_number"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	VendorName    string          `json:"vendor_name"`
	Description   string          `json:"description"`
	FileName      string          `json:"file_name"`
}

// Actor is the authenticated identity performing an operation, with the
// capability set supplied by the auth collaborator.
type Actor struct {
	ID       string `json:"id"`
	Reviewer bool   `json:"reviewer"`
	Admin    bool   `json:"admin"`
}
