// Package store is the persistence gateway for intake collections. Every
// collection shares the same shape: a store-assigned id, a created_at
// timestamp and a flat set of columns.
package store

import (
	"context"
	"time"
)

// Row is a single record keyed by column name. A nil value is an explicit SQL NULL.
type Row map[string]any

// Inserted is what the store hands back after a successful insert.
type Inserted struct {
	ID        string
	CreatedAt time.Time
}

// Query describes a filtered, paginated read.
type Query struct {
	// Filters are equality matches keyed by column.
	Filters map[string]string
	Limit   int
	Offset  int
	// OrderBy is sorted descending. Defaults to created_at.
	OrderBy string
}

// Page is one window of a select together with the total number of matching rows.
type Page struct {
	Rows  []Row
	Count int64
}

// Gateway performs single-row writes and paged reads against named collections.
type Gateway interface {
	Insert(ctx context.Context, collection string, row Row) (Inserted, error)
	Select(ctx context.Context, collection string, q Query) (Page, error)
	Get(ctx context.Context, collection, id string) (Row, error)
	Update(ctx context.Context, collection, id string, patch Row) (Row, error)
}

const defaultOrderColumn = "created_at"

func (q Query) orderColumn() string {
	if q.OrderBy == "" {
		return defaultOrderColumn
	}
	return q.OrderBy
}
