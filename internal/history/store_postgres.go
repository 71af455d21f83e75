package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"fidelis/pkg/domain"
	txcontext "fidelis/pkg/platform/tx"
)

// PostgresStore persists history entries in the bond_history table. Rows are
// only ever inserted; there is no update or delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	fields, err := json.Marshal(entry.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	changed, err := json.Marshal(entry.ChangedFields)
	if err != nil {
		return fmt.Errorf("marshal changed fields: %w", err)
	}
	oldValues, err := json.Marshal(entry.OldValues)
	if err != nil {
		return fmt.Errorf("marshal old values: %w", err)
	}
	newValues, err := json.Marshal(entry.NewValues)
	if err != nil {
		return fmt.Errorf("marshal new values: %w", err)
	}

	query := `
		INSERT INTO bond_history (id, bond_id, change_type, fields, changed_fields, old_values, new_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.BondID.String(),
		string(entry.ChangeType),
		fields,
		changed,
		oldValues,
		newValues,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bond history: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByBond(ctx context.Context, bondID domain.BondID) ([]Entry, error) {
	query := `
		SELECT id, bond_id, change_type, fields, changed_fields, old_values, new_values, created_at
		FROM bond_history
		WHERE bond_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, bondID.String())
	if err != nil {
		return nil, fmt.Errorf("list bond history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry     Entry
			rawBondID string
			fields    []byte
			changed   []byte
			oldValues []byte
			newValues []byte
		)
		if err := rows.Scan(&entry.ID, &rawBondID, &entry.ChangeType, &fields, &changed, &oldValues, &newValues, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan bond history: %w", err)
		}
		bid, err := domain.ParseBondID(rawBondID)
		if err != nil {
			return nil, fmt.Errorf("bond history %s: %w", entry.ID, err)
		}
		entry.BondID = bid
		if err := json.Unmarshal(fields, &entry.Fields); err != nil {
			return nil, fmt.Errorf("unmarshal fields: %w", err)
		}
		if err := json.Unmarshal(changed, &entry.ChangedFields); err != nil {
			return nil, fmt.Errorf("unmarshal changed fields: %w", err)
		}
		if err := json.Unmarshal(oldValues, &entry.OldValues); err != nil {
			return nil, fmt.Errorf("unmarshal old values: %w", err)
		}
		if err := json.Unmarshal(newValues, &entry.NewValues); err != nil {
			return nil, fmt.Errorf("unmarshal new values: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
