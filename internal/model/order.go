package model

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Order struct {
	BaseModel
	Number          string      `db:"number" json:"number"`
	Status          OrderStatus `db:"status" json:"status"`
	CustomerName    string      `db:"customer_name" json:"customer_name"`
	CustomerEmail   string      `db:"customer_email" json:"customer_email"`
	CustomerPhone   *string     `db:"customer_phone" json:"customer_phone"`
	ShippingAddress string      `db:"shipping_address" json:"shipping_address"`
	PaymentMethod   string      `db:"payment_method" json:"payment_method"`
	PaymentProofURL *string     `db:"payment_proof_url" json:"payment_proof_url"`
	Total           float64     `db:"total" json:"total"`
	// StockRestored guards the cancellation path: the restore deltas and this
	// flag commit together, so a second cancel can never restore twice.
	StockRestored bool        `db:"stock_restored" json:"stock_restored"`
	Items         []OrderItem `db:"-" json:"items"`
}

// OrderItem snapshots the unit price at order time and references its variant
// by key, not by row id; the variant may be restocked or deleted later.
type OrderItem struct {
	ID        string  `db:"id" json:"id"`
	OrderID   string  `db:"order_id" json:"order_id"`
	ProductID string  `db:"product_id" json:"product_id"`
	Color     string  `db:"color" json:"color"`
	Size      string  `db:"size" json:"size"`
	Quantity  int64   `db:"quantity" json:"quantity"`
	UnitPrice float64 `db:"unit_price" json:"unit_price"`
}
