package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryGateway is an in-process Gateway used by tests and local runs without Postgres.
// Only collections named at construction exist; writes to any other collection
// fail the same way a missing table does.
type MemoryGateway struct {
	mu          sync.RWMutex
	collections map[string][]Row
	now         func() time.Time
}

// NewMemoryGateway creates a gateway with the given collections.
func NewMemoryGateway(collections ...string) *MemoryGateway {
	g := &MemoryGateway{
		collections: make(map[string][]Row, len(collections)),
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, c := range collections {
		g.collections[c] = nil
	}
	return g
}

// WithClock overrides the clock used for created_at.
func (g *MemoryGateway) WithClock(now func() time.Time) *MemoryGateway {
	if now != nil {
		g.now = now
	}
	return g
}

func (g *MemoryGateway) Insert(ctx context.Context, collection string, row Row) (Inserted, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	rows, ok := g.collections[collection]
	if !ok {
		return Inserted{}, &CollectionMissingError{Collection: collection}
	}
	stored := copyRow(row)
	out := Inserted{ID: uuid.New().String(), CreatedAt: g.now()}
	stored["id"] = out.ID
	stored["created_at"] = out.CreatedAt
	g.collections[collection] = append(rows, stored)
	return out, nil
}

func (g *MemoryGateway) Select(ctx context.Context, collection string, q Query) (Page, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rows, ok := g.collections[collection]
	if !ok {
		return Page{}, &CollectionMissingError{Collection: collection}
	}

	matched := make([]Row, 0, len(rows))
	// Walk newest-first so equal timestamps keep reverse insertion order.
	for i := len(rows) - 1; i >= 0; i-- {
		if matches(rows[i], q.Filters) {
			matched = append(matched, rows[i])
		}
	}
	order := q.orderColumn()
	sort.SliceStable(matched, func(i, j int) bool {
		return after(matched[i][order], matched[j][order])
	})

	page := Page{Count: int64(len(matched)), Rows: []Row{}}
	start := q.Offset
	if start > len(matched) {
		start = len(matched)
	}
	end := len(matched)
	if q.Limit > 0 && start+q.Limit < end {
		end = start + q.Limit
	}
	for _, r := range matched[start:end] {
		page.Rows = append(page.Rows, copyRow(r))
	}
	return page, nil
}

func (g *MemoryGateway) Get(ctx context.Context, collection, id string) (Row, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rows, ok := g.collections[collection]
	if !ok {
		return nil, &CollectionMissingError{Collection: collection}
	}
	for _, r := range rows {
		if r["id"] == id {
			return copyRow(r), nil
		}
	}
	return nil, ErrNotFound
}

func (g *MemoryGateway) Update(ctx context.Context, collection, id string, patch Row) (Row, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	rows, ok := g.collections[collection]
	if !ok {
		return nil, &CollectionMissingError{Collection: collection}
	}
	for _, r := range rows {
		if r["id"] != id {
			continue
		}
		for k, v := range patch {
			r[k] = v
		}
		return copyRow(r), nil
	}
	return nil, ErrNotFound
}

func matches(row Row, filters map[string]string) bool {
	for col, want := range filters {
		v, ok := row[col]
		if !ok || v == nil || fmt.Sprint(v) != want {
			return false
		}
	}
	return true
}

func after(a, b any) bool {
	ta, okA := a.(time.Time)
	tb, okB := b.(time.Time)
	if okA && okB {
		return ta.After(tb)
	}
	return fmt.Sprint(a) > fmt.Sprint(b)
}

func copyRow(row Row) Row {
	out := make(Row, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out
}
