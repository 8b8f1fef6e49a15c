package dto

import "github.com/avelora/storefront-service/internal/model"

type PlaceOrderInput struct {
	Lines           []model.StockLine
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	ShippingAddress string
	PaymentMethod   string
}

type OrderFilters struct {
	Status   string
	Page     int
	PageSize int
}
