package pos

import "errors"

var (
	ErrEmptySale = errors.New("sale has no lines")

	// ErrSalePersistence means the stock decrement was rolled back because
	// the transaction record could not be written.
	ErrSalePersistence = errors.New("sale persistence failed")
)
