package order

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart        = errors.New("cart has no lines")
	ErrOrderNotFound    = errors.New("order not found")
	ErrAlreadyCancelled = errors.New("order already cancelled")

	// ErrOrderPersistence means the stock decrement was rolled back because
	// the order row could not be written. The underlying storage error rides
	// along in the chain.
	ErrOrderPersistence = errors.New("order persistence failed")

	ErrInvalidTransition = errors.New("invalid status transition")
)

// OutOfStockError is the checkout-facing form of an insufficient-stock
// failure, naming the offending line so the customer can adjust quantities.
type OutOfStockError struct {
	ProductID string
	Color     string
	Size      string
	Requested int64
	Available int64
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("out of stock: product %s (%s/%s) requested %d, available %d",
		e.ProductID, e.Color, e.Size, e.Requested, e.Available)
}
