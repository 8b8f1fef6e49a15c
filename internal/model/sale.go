package model

import "time"

// Transaction is a completed POS sale. It has no pending state: once the row
// exists the sale is final.
type Transaction struct {
	ID            string            `db:"id" json:"id"`
	Number        string            `db:"number" json:"number"`
	CashierID     *string           `db:"cashier_id" json:"cashier_id"`
	TerminalID    *string           `db:"terminal_id" json:"terminal_id"`
	CustomerName  *string           `db:"customer_name" json:"customer_name"`
	PaymentMethod string            `db:"payment_method" json:"payment_method"`
	Total         float64           `db:"total" json:"total"`
	CreatedAt     time.Time         `db:"created_at" json:"created_at"`
	Items         []TransactionItem `db:"-" json:"items"`
}

type TransactionItem struct {
	ID            string  `db:"id" json:"id"`
	TransactionID string  `db:"transaction_id" json:"transaction_id"`
	ProductID     string  `db:"product_id" json:"product_id"`
	Color         string  `db:"color" json:"color"`
	Size          string  `db:"size" json:"size"`
	Quantity      int64   `db:"quantity" json:"quantity"`
	UnitPrice     float64 `db:"unit_price" json:"unit_price"`
}

// DailySales is the running total of completed POS sales for one business
// day, read by dashboards.
type DailySales struct {
	BusinessDate     string    `db:"business_date" json:"business_date"`
	Total            float64   `db:"total" json:"total"`
	TransactionCount int64     `db:"transaction_count" json:"transaction_count"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
