package stock

import (
	"errors"
	"fmt"
)

// ErrStockBusy is returned when the per-variant locks could not be acquired
// within the configured bound. Transient; callers may retry with backoff.
var ErrStockBusy = errors.New("stock service busy")

// InsufficientStockError names the first line of a request that would drive a
// variant quantity below zero. No partial mutation has occurred.
type InsufficientStockError struct {
	ProductID string
	Color     string
	Size      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s (%s/%s): requested %d, available %d",
		e.ProductID, e.Color, e.Size, e.Requested, e.Available)
}

// UnknownVariantError means the (color, size) combination was never declared
// for the product. Distinct from a declared combination with zero stock.
type UnknownVariantError struct {
	ProductID string
	Color     string
	Size      string
}

func (e *UnknownVariantError) Error() string {
	return fmt.Sprintf("unknown variant for product %s: no declared combination (%s/%s)",
		e.ProductID, e.Color, e.Size)
}
