package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fidelis/internal/bond/models"
	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
	txcontext "fidelis/pkg/platform/tx"
)

// PostgresStore persists bonds in the bonds table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const bondColumns = `id, last_name, first_name, middle_name, rank, designation, unit_office,
	mca, amount_of_bond, bond_premium, risk_no, effective_date, date_of_cancellation,
	contact_no, remark, is_archived, created_at, updated_at`

func scanBond(row interface{ Scan(...any) error }) (*models.Bond, error) {
	var (
		bond  models.Bond
		rawID string
	)
	err := row.Scan(&rawID, &bond.LastName, &bond.FirstName, &bond.MiddleName,
		&bond.Rank, &bond.Designation, &bond.UnitOffice,
		&bond.MCA, &bond.AmountOfBond, &bond.BondPremium,
		&bond.RiskNo, &bond.EffectiveDate, &bond.DateOfCancellation,
		&bond.ContactNo, &bond.Remark, &bond.IsArchived,
		&bond.CreatedAt, &bond.UpdatedAt)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseBondID(rawID)
	if err != nil {
		return nil, err
	}
	bond.ID = id
	return &bond, nil
}

// Create inserts the bond, deduplicating on the caller's idempotency key:
// a retried insert with the same key returns the originally inserted row.
func (s *PostgresStore) Create(ctx context.Context, bond *models.Bond, idempotencyKey string) (*models.Bond, error) {
	var key sql.NullString
	if idempotencyKey != "" {
		key = sql.NullString{String: idempotencyKey, Valid: true}
	}
	query := `
		INSERT INTO bonds (` + bondColumns + `, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		ON CONFLICT (idempotency_key) DO NOTHING
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		bond.ID.String(), bond.LastName, bond.FirstName, bond.MiddleName,
		bond.Rank, bond.Designation, bond.UnitOffice,
		bond.MCA, bond.AmountOfBond, bond.BondPremium,
		bond.RiskNo, bond.EffectiveDate, bond.DateOfCancellation,
		bond.ContactNo, bond.Remark, bond.IsArchived,
		bond.CreatedAt, bond.UpdatedAt, key,
	)
	if err != nil {
		return nil, fmt.Errorf("insert bond: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 && key.Valid {
		// Duplicate delivery; hand back the row the first attempt created.
		row := s.execer(ctx).QueryRowContext(ctx,
			`SELECT `+bondColumns+` FROM bonds WHERE idempotency_key = $1`, key.String)
		existing, err := scanBond(row)
		if err != nil {
			return nil, fmt.Errorf("fetch bond by idempotency key: %w", err)
		}
		return existing, nil
	}
	out := *bond
	return &out, nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.BondID) (*models.Bond, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+bondColumns+` FROM bonds WHERE id = $1`, id.String())
	bond, err := scanBond(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get bond: %w", err)
	}
	return bond, nil
}

// Update overwrites the row with the full post-image. Last write wins.
func (s *PostgresStore) Update(ctx context.Context, bond *models.Bond) error {
	query := `
		UPDATE bonds SET
			last_name = $2, first_name = $3, middle_name = $4, rank = $5,
			designation = $6, unit_office = $7, mca = $8, amount_of_bond = $9,
			bond_premium = $10, risk_no = $11, effective_date = $12,
			date_of_cancellation = $13, contact_no = $14, remark = $15,
			is_archived = $16, updated_at = $17
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		bond.ID.String(), bond.LastName, bond.FirstName, bond.MiddleName, bond.Rank,
		bond.Designation, bond.UnitOffice, bond.MCA, bond.AmountOfBond,
		bond.BondPremium, bond.RiskNo, bond.EffectiveDate,
		bond.DateOfCancellation, bond.ContactNo, bond.Remark,
		bond.IsArchived, bond.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update bond: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetArchived(ctx context.Context, id domain.BondID, archived bool, now time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE bonds SET is_archived = $2, updated_at = $3 WHERE id = $1`,
		id.String(), archived, now)
	if err != nil {
		return fmt.Errorf("set bond archived: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, id domain.BondID) error {
	res, err := s.execer(ctx).ExecContext(ctx, `DELETE FROM bonds WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("delete bond: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context, filter Filter) ([]models.Bond, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Archived != nil {
		args = append(args, *filter.Archived)
		conds = append(conds, fmt.Sprintf("is_archived = $%d", len(args)))
	}
	if filter.Query != "" {
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(lower(last_name) LIKE $%d OR lower(first_name) LIKE $%d OR lower(middle_name) LIKE $%d OR lower(rank) LIKE $%d OR lower(unit_office) LIKE $%d)",
			n, n, n, n, n))
	}
	query := `SELECT ` + bondColumns + ` FROM bonds`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bonds: %w", err)
	}
	defer rows.Close()

	var out []models.Bond
	for rows.Next() {
		bond, err := scanBond(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bond: %w", err)
		}
		out = append(out, *bond)
	}
	return out, rows.Err()
}
