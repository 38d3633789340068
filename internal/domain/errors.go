package domain

import "errors"

var (
	ErrNotFound = errors.New("not found")

	// Editor validation errors. These are warnings to the operator and never
	// mutate editor state.
	ErrIndexOutOfRange   = errors.New("invalid line item index")
	ErrStockExceeded     = errors.New("quantity exceeds available stock")
	ErrQuantityFloor     = errors.New("quantity cannot drop to zero or below")
	ErrDuplicateLineItem = errors.New("product already added")
	ErrProductUnknown    = errors.New("product not found")
	ErrOrderLocked       = errors.New("order is not editable")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrNoOrder           = errors.New("no order loaded")

	ErrNoSession = errors.New("no active session")
)
