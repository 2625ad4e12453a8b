package lifecycle

import "github.com/procureflow/invoiceflow/internal/domain/entity"

var terminalStatuses = map[entity.Status]bool{
	entity.StatusRejected: true,
	entity.StatusPaid:     true,
}

// IsTerminal returns true if no further transitions are allowed from the status.
func IsTerminal(s entity.Status) bool {
	return terminalStatuses[s]
}
