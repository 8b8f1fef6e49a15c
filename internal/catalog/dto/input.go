package dto

type CreateProductInput struct {
	SKU               string
	Name              string
	Description       string
	Price             float64
	ImageURL          string
	LowStockThreshold int64
}

type DeclareVariantsInput struct {
	Colors []string `json:"colors"`
	Sizes  []string `json:"sizes"`
}
