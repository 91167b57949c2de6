package gormrepo

import (
	"comazon/internal/repository"

	"gorm.io/gorm"
)

// orderClause always ends in the primary key so pages are stable when
// timestamps or prices tie.
func orderClause(sort repository.SortOrder, table string) string {
	switch sort {
	case repository.SortOldest:
		return table + ".created_at ASC, " + table + ".id ASC"
	case repository.SortPriceLowest:
		return table + ".price ASC, " + table + ".id ASC"
	case repository.SortPriceHighest:
		return table + ".price DESC, " + table + ".id ASC"
	default:
		return table + ".created_at DESC, " + table + ".id DESC"
	}
}

func paginate(db *gorm.DB, opts repository.ListOptions) *gorm.DB {
	if opts.Limit <= 0 {
		return db
	}
	db = db.Limit(opts.Limit)
	if opts.Offset > 0 {
		db = db.Offset(opts.Offset)
	}
	return db
}
