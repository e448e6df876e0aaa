package billing

import (
	"fmt"

	"github.com/diewo77/ecotrim/internal/apperr"
)

// Status is the lifecycle state of a document.
type Status string

const (
	StatusPending Status = "Pending"
	StatusUnpaid  Status = "Unpaid"
	StatusPaid    Status = "Paid"
)

// InitialStatus is the status a new document of kind starts in.
func InitialStatus(kind Kind) Status {
	if kind == KindInvoice {
		return StatusUnpaid
	}
	return StatusPending
}

// ToggleStatus flips an invoice between Unpaid and Paid.
func ToggleStatus(s Status) (Status, error) {
	switch s {
	case StatusUnpaid:
		return StatusPaid, nil
	case StatusPaid:
		return StatusUnpaid, nil
	default:
		return s, fmt.Errorf("toggle %q: %w", s, apperr.ErrInvalidTransition)
	}
}
