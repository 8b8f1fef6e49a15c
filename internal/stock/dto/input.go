package dto

type AdjustStockInput struct {
	ProductID string
	Color     string
	Size      string
	Change    int64
	Reason    string
	UserID    string
}
