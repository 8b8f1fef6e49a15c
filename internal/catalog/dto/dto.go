package dto

type ProductFilters struct {
	SearchQuery string
	ActiveOnly  bool
	Page        int
	PageSize    int
}
