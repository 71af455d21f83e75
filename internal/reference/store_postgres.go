package reference

import (
	"context"
	"database/sql"
	"fmt"

	dErrors "fidelis/pkg/domain-errors"
)

// PostgresStore reads the lookup tables. Each kind maps to its own table;
// the kind is validated against the fixed catalog before it reaches SQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) List(ctx context.Context, kind Kind) ([]Item, error) {
	if !validKind(kind) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown reference table %q", kind)
	}
	// kind is one of the fixed catalog values, never caller text.
	query := fmt.Sprintf(`SELECT id, name FROM %s ORDER BY name`, string(kind))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", kind, err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var item Item
		if err := rows.Scan(&item.ID, &item.Name); err != nil {
			return nil, fmt.Errorf("scan %s: %w", kind, err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}
