package document

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fidelis/pkg/domain"
	"fidelis/pkg/platform/sentinel"
	txcontext "fidelis/pkg/platform/tx"
)

// PostgresMetadataStore persists document rows in documents_metadata.
// Soft deletion is a nullable deleted_at; listings always filter it.
type PostgresMetadataStore struct {
	db *sql.DB
}

func NewPostgresMetadataStore(db *sql.DB) *PostgresMetadataStore {
	return &PostgresMetadataStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresMetadataStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const docColumns = `id, bond_id, document_type, file_name, url, size, content_type, created_at, updated_at, deleted_at`

func scanDocument(row interface{ Scan(...any) error }) (*Document, error) {
	var (
		doc       Document
		rawID     string
		rawBondID string
		rawType   string
		deletedAt sql.NullTime
	)
	err := row.Scan(&rawID, &rawBondID, &rawType, &doc.FileName, &doc.URL,
		&doc.Size, &doc.ContentType, &doc.CreatedAt, &doc.UpdatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}
	id, err := domain.ParseDocumentID(rawID)
	if err != nil {
		return nil, err
	}
	bondID, err := domain.ParseBondID(rawBondID)
	if err != nil {
		return nil, err
	}
	docType, err := domain.ParseDocumentType(rawType)
	if err != nil {
		return nil, err
	}
	doc.ID = id
	doc.BondID = bondID
	doc.Type = docType
	if deletedAt.Valid {
		doc.DeletedAt = &deletedAt.Time
	}
	return &doc, nil
}

func (s *PostgresMetadataStore) Insert(ctx context.Context, doc *Document) error {
	query := `
		INSERT INTO documents_metadata (` + docColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		doc.ID.String(), doc.BondID.String(), string(doc.Type),
		doc.FileName, doc.URL, doc.Size, doc.ContentType,
		doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document metadata: %w", err)
	}
	return nil
}

func (s *PostgresMetadataStore) Get(ctx context.Context, id domain.DocumentID) (*Document, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+docColumns+` FROM documents_metadata WHERE id = $1`, id.String())
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *PostgresMetadataStore) ListByBond(ctx context.Context, bondID domain.BondID) ([]Document, error) {
	query := `
		SELECT ` + docColumns + ` FROM documents_metadata
		WHERE bond_id = $1 AND deleted_at IS NULL
		ORDER BY created_at DESC, id DESC
	`
	return s.queryDocuments(ctx, query, bondID.String())
}

func (s *PostgresMetadataStore) ListByType(ctx context.Context, bondID domain.BondID, docType domain.DocumentType) ([]Document, error) {
	query := `
		SELECT ` + docColumns + ` FROM documents_metadata
		WHERE bond_id = $1 AND document_type = $2 AND deleted_at IS NULL
		ORDER BY updated_at DESC, id DESC
	`
	return s.queryDocuments(ctx, query, bondID.String(), string(docType))
}

func (s *PostgresMetadataStore) queryDocuments(ctx context.Context, query string, args ...any) ([]Document, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, *doc)
	}
	return out, rows.Err()
}

func (s *PostgresMetadataStore) SoftDelete(ctx context.Context, id domain.DocumentID, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE documents_metadata SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`,
		id.String(), at)
	if err != nil {
		return fmt.Errorf("soft delete document: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresMetadataStore) HardDeleteByBond(ctx context.Context, bondID domain.BondID) ([]Document, error) {
	query := `
		DELETE FROM documents_metadata WHERE bond_id = $1
		RETURNING ` + docColumns + `
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, bondID.String())
	if err != nil {
		return nil, fmt.Errorf("hard delete documents: %w", err)
	}
	defer rows.Close()

	var removed []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan removed document: %w", err)
		}
		removed = append(removed, *doc)
	}
	return removed, rows.Err()
}
