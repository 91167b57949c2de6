package http

import (
	"comazon/internal/domain"
	"comazon/internal/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type listQuery struct {
	Offset   int    `form:"offset" binding:"min=0"`
	Limit    *int   `form:"limit" binding:"omitempty,min=1,max=100"`
	Order    string `form:"order" binding:"omitempty,sortorder"`
	Category string `form:"category" binding:"omitempty,max=50"`
	UserID   string `form:"userId"`
}

// options converts the query into repository options. A defaultLimit of 0
// leaves the list unpaginated unless the caller asks for a limit.
func (q listQuery) options(defaultLimit int, priceSorts bool) (repository.ListOptions, error) {
	sort := repository.SortOrder(q.Order)
	if !priceSorts && (sort == repository.SortPriceLowest || sort == repository.SortPriceHighest) {
		return repository.ListOptions{}, &domain.ValidationError{Field: "order", Message: "must be one of newest, oldest"}
	}

	limit := defaultLimit
	if q.Limit != nil {
		limit = *q.Limit
	}
	if q.Offset > 0 && limit == 0 {
		limit = maxPageSize
	}

	return repository.ListOptions{
		Offset:   q.Offset,
		Limit:    limit,
		Sort:     sort,
		Category: q.Category,
		UserID:   q.UserID,
	}, nil
}
