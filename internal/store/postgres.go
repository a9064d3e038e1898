package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIface interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresGateway stores intake collections as Postgres tables.
type PostgresGateway struct {
	db pgxIface
}

// NewPostgresGateway initializes a gateway backed by pgxpool. The pool is
// expected to connect with the service-role credentials.
func NewPostgresGateway(pool *pgxpool.Pool) *PostgresGateway {
	if pool == nil {
		panic("store: pgx pool required")
	}
	return &PostgresGateway{db: pool}
}

func newPostgresGatewayWithDB(db pgxIface) *PostgresGateway {
	return &PostgresGateway{db: db}
}

// Insert writes one row and returns the store-assigned id and created_at.
func (g *PostgresGateway) Insert(ctx context.Context, collection string, row Row) (Inserted, error) {
	if len(row) == 0 {
		return Inserted{}, fmt.Errorf("store: insert into %s: empty row", collection)
	}
	cols := sortedColumns(row)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		quoted[i] = ident(col)
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = row[col]
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id::text, created_at",
		ident(collection), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)

	var out Inserted
	if err := g.db.QueryRow(ctx, query, args...).Scan(&out.ID, &out.CreatedAt); err != nil {
		return Inserted{}, fmt.Errorf("store: insert into %s: %w", collection, translate(collection, err))
	}
	return out, nil
}

// Select returns one page of rows plus the total count of rows matching the filters.
func (g *PostgresGateway) Select(ctx context.Context, collection string, q Query) (Page, error) {
	where, args := whereClause(q.Filters)

	listQuery := fmt.Sprintf(
		"SELECT * FROM %s%s ORDER BY %s DESC LIMIT $%d OFFSET $%d",
		ident(collection), where, ident(q.orderColumn()), len(args)+1, len(args)+2,
	)
	rows, err := g.db.Query(ctx, listQuery, append(append([]any{}, args...), q.Limit, q.Offset)...)
	if err != nil {
		return Page{}, fmt.Errorf("store: select from %s: %w", collection, translate(collection, err))
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return Page{}, fmt.Errorf("store: select from %s: %w", collection, translate(collection, err))
	}

	var count int64
	countQuery := fmt.Sprintf("SELECT count(*) FROM %s%s", ident(collection), where)
	if err := g.db.QueryRow(ctx, countQuery, args...).Scan(&count); err != nil {
		return Page{}, fmt.Errorf("store: count %s: %w", collection, translate(collection, err))
	}

	page := Page{Rows: make([]Row, 0, len(maps)), Count: count}
	for _, m := range maps {
		page.Rows = append(page.Rows, normalize(m))
	}
	return page, nil
}

// Get fetches a single row by id.
func (g *PostgresGateway) Get(ctx context.Context, collection, id string) (Row, error) {
	// ids are uuid columns; anything else cannot match a row.
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1", ident(collection))
	rows, err := g.db.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("store: get %s: %w", collection, translate(collection, err))
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get %s: %w", collection, translate(collection, err))
	}
	return normalize(m), nil
}

// Update applies a partial update by id and returns the full updated row.
func (g *PostgresGateway) Update(ctx context.Context, collection, id string, patch Row) (Row, error) {
	if len(patch) == 0 {
		return nil, ErrEmptyPatch
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	cols := sortedColumns(patch)
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, col := range cols {
		sets[i] = fmt.Sprintf("%s = $%d", ident(col), i+1)
		args = append(args, patch[col])
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING *",
		ident(collection), strings.Join(sets, ", "), len(args),
	)
	rows, err := g.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: update %s: %w", collection, translate(collection, err))
	}
	m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: update %s: %w", collection, translate(collection, err))
	}
	return normalize(m), nil
}

func whereClause(filters map[string]string) (string, []any) {
	if len(filters) == 0 {
		return "", nil
	}
	cols := make([]string, 0, len(filters))
	for col := range filters {
		cols = append(cols, col)
	}
	sort.Strings(cols)

	conds := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		conds[i] = fmt.Sprintf("%s = $%d", ident(col), i+1)
		args[i] = filters[col]
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func sortedColumns(row Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func ident(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// normalize converts driver-level values into JSON-friendly ones.
func normalize(m map[string]any) Row {
	row := make(Row, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case [16]byte:
			row[k] = uuid.UUID(t).String()
		case pgtype.Numeric:
			f, err := t.Float64Value()
			if err != nil || !f.Valid {
				row[k] = nil
				continue
			}
			row[k] = f.Float64
		case time.Time:
			row[k] = t.UTC()
		default:
			row[k] = v
		}
	}
	return row
}
