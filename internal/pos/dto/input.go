package dto

import "github.com/avelora/storefront-service/internal/model"

type RecordSaleInput struct {
	Lines         []model.StockLine
	PaymentMethod string
	CustomerName  string
	CashierID     string
	TerminalID    string
}

type TransactionFilters struct {
	BusinessDate string
	Page         int
	PageSize     int
}
