package model

type Product struct {
	BaseModel
	SKU         string  `db:"sku" json:"sku"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
	Price       float64 `db:"price" json:"price"`
	ImageURL    *string `db:"image_url" json:"image_url"`
	// StockQuantity is a derived projection of the variant rows; it is only
	// ever written inside the same transaction that moves variant quantities.
	StockQuantity     int64     `db:"stock_quantity" json:"stock_quantity"`
	LowStockThreshold int64     `db:"low_stock_threshold" json:"low_stock_threshold"`
	IsActive          bool      `db:"is_active" json:"is_active"`
	Variants          []Variant `db:"-" json:"variants,omitempty"`
}
