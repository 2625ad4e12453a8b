package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseOrder is the authorized order an invoice reconciles against.
// Owned by the ERP collaborator; read-only here.
type PurchaseOrder struct {
	ID          uuid.UUID       `json:"id"`
	Number      string          `json:"number"`
	VendorID    uuid.UUID       `json:"vendor_id"`
	VendorName  string          `json:"vendor_name"`
	Date        time.Time       `json:"date"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"` // pending, partial, received
	Items       []POLineItem    `json:"items"`
}

// POLineItem is an ordered line on a purchase order.
type POLineItem struct {
	Description string          `json:"description"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// GoodsReceipt records goods received against a purchase order.
// Owned by the ERP collaborator; read-only here.
type GoodsReceipt struct {
	ID         uuid.UUID         `json:"id"`
	Number     string            `json:"number"`
	PONumber   string            `json:"po_number"`
	POID       uuid.UUID         `json:"po_id"`
	Date       time.Time         `json:"date"`
	ReceivedBy string            `json:"received_by"`
	Currency   string            `json:"currency"`
	Items      []ReceiptLineItem `json:"items"`
}

// ReceiptLineItem is a received line on a goods receipt.
type ReceiptLineItem struct {
	Description      string `json:"description"`
	QuantityOrdered  int64  `json:"quantity_ordered"`
	QuantityReceived int64  `json:"quantity_received"`
	Status           string `json:"status"` // complete, partial, short
}

// Vendor is a supplier reference entity.
type Vendor struct {
	ID         uuid.UUID       `json:"id"`
	Name       string          `json:"name"`
	Code       string          `json:"code"`
	Contact    string          `json:"contact"`
	RiskStatus string          `json:"risk_status"`
	TotalSpend decimal.Decimal `json:"total_spend"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
