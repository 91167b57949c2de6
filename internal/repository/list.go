package repository

type SortOrder string

const (
	SortNewest       SortOrder = "newest"
	SortOldest       SortOrder = "oldest"
	SortPriceLowest  SortOrder = "priceLowest"
	SortPriceHighest SortOrder = "priceHighest"
)

// ListOptions narrows a list query. A zero Limit means no limit. Category
// applies to products only, UserID to orders only.
type ListOptions struct {
	Offset   int
	Limit    int
	Sort     SortOrder
	Category string
	UserID   string
}
