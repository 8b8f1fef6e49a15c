package model

import "time"

// Variant is the unit at which stock is tracked: one (color, size)
// combination of a product. Quantity never goes below zero.
type Variant struct {
	ID        string    `db:"id" json:"id"`
	ProductID string    `db:"product_id" json:"product_id"`
	Color     string    `db:"color" json:"color"`
	Size      string    `db:"size" json:"size"`
	Quantity  int64     `db:"quantity" json:"quantity"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// StockLine is one requested quantity against a variant, as submitted by the
// checkout and POS pipelines.
type StockLine struct {
	ProductID string `json:"product_id"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Quantity  int64  `json:"quantity"`
}

type StockMovement struct {
	ID             string    `db:"id" json:"id"`
	ProductID      string    `db:"product_id" json:"product_id"`
	Color          string    `db:"color" json:"color"`
	Size           string    `db:"size" json:"size"`
	MovementType   string    `db:"movement_type" json:"movement_type"`
	QuantityChange int64     `db:"quantity_change" json:"quantity_change"`
	QuantityBefore int64     `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  int64     `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string   `db:"reference_type" json:"reference_type"`
	ReferenceID    *string   `db:"reference_id" json:"reference_id"`
	Notes          string    `db:"notes" json:"notes"`
	CreatedBy      *string   `db:"created_by" json:"created_by"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}
