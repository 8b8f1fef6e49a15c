package catalog

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSKUExists       = errors.New("SKU already exists")

	// ErrNoDeclaredVariants rejects a declaration with an empty colors or
	// sizes list. A product must carry a validated (colors x sizes) grid
	// before it can accept orders; there are no guessed defaults.
	ErrNoDeclaredVariants = errors.New("colors and sizes must be declared")
)
