package pipeline

import (
	"errors"
	"fmt"
)

// Run-fatal preconditions. Neither is retried automatically; the next
// trigger tries again once the operator fixed the cause.
var (
	ErrUnauthorized       = errors.New("no valid license")
	ErrMissingCredentials = errors.New("sync credentials incomplete")
)

// TransportError is a network or HTTP level failure against the
// marketplace. It aborts the run; retry is left to the next scheduled tick.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IntegrityError marks a local data defect the pipelines must never repair
// on their own, e.g. an order carrying a marketplace ID without the
// ownership flag. The reconciliation job is the only writer allowed to fix
// these.
type IntegrityError struct {
	MarketplaceOrderID string
	Reason             string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity defect on marketplace order %s: %s", e.MarketplaceOrderID, e.Reason)
}
