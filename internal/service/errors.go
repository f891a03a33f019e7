package service

import "errors"

// Client-facing ledger errors. The messages are returned verbatim in the
// {"error": ...} body of a 400 response.
var (
	ErrCustomerNotFound  = errors.New("Customer not found!")
	ErrDuplicateCustomer = errors.New("Customer already exists!")
	ErrInsufficientFunds = errors.New("Insufficient funds!")
	ErrInvalidAmount     = errors.New("Invalid amount!")
	ErrInvalidDate       = errors.New("Invalid date!")
)

// IsClientError reports whether err is one of the ledger errors above.
func IsClientError(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrDuplicateCustomer) ||
		errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDate)
}
