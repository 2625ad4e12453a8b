package event

// Type identifies the type of domain event
type Type string

const (
	TypeInvoiceCreated      Type = "invoice.created"
	TypeInvoiceTransitioned Type = "invoice.transitioned"
	TypeRiskAssessed        Type = "invoice.risk_assessed"
	TypeVendorCreated       Type = "vendor.created"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeInvoiceCreated,
		TypeInvoiceTransitioned,
		TypeRiskAssessed,
		TypeVendorCreated:
		return true
	default:
		return false
	}
}
