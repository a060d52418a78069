package apperrors

import "errors"

// Error taxonomy shared by the ledger, the reconciliation engine and the HTTP layer.
// Callers wrap these with fmt.Errorf("...: %w", err) and match with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("transaction is not in pending status")
	ErrInsufficientFunds  = errors.New("insufficient available balance")
	ErrInvariantViolation = errors.New("wallet invariant violation")
	ErrGateway            = errors.New("payment gateway error")
	ErrRateUnavailable    = errors.New("exchange rate unavailable")
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
)
