package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/pesio-ai/be-gl-eboekhouden/internal/database"
	"github.com/pesio-ai/be-gl-eboekhouden/internal/errors"
)

const schema = `
	CREATE TABLE IF NOT EXISTS eboekhouden_relation_links (
		code       TEXT PRIMARY KEY,
		remote_id  BIGINT NOT NULL,
		synced_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS eboekhouden_invoice_exports (
		invoice_number        TEXT PRIMARY KEY,
		relation_code         TEXT NOT NULL,
		remote_invoice_number TEXT NOT NULL,
		line_count            INTEGER NOT NULL,
		exported_at           TIMESTAMPTZ NOT NULL DEFAULT now()
	);
`

// SyncLogRepository persists what has been pushed to the remote bookkeeping
type SyncLogRepository struct {
	db *database.DB
}

// NewSyncLogRepository creates a new sync log repository
func NewSyncLogRepository(db *database.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// EnsureSchema creates the sync log tables if they do not exist
func (r *SyncLogRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to create sync log schema")
	}
	return nil
}

// UpsertRelationLink stores or refreshes the remote identifier for a relation code
func (r *SyncLogRepository) UpsertRelationLink(ctx context.Context, link *RelationLink) error {
	query := `
		INSERT INTO eboekhouden_relation_links (code, remote_id, synced_at)
		VALUES ($1, $2, now())
		ON CONFLICT (code) DO UPDATE
		    SET remote_id = EXCLUDED.remote_id,
		        synced_at = EXCLUDED.synced_at
		RETURNING synced_at
	`

	err := r.db.QueryRow(ctx, query, link.Code, link.RemoteID).Scan(&link.SyncedAt)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to store relation link")
	}
	return nil
}

// GetRelationLink returns the stored link for a relation code
func (r *SyncLogRepository) GetRelationLink(ctx context.Context, code string) (*RelationLink, error) {
	query := `
		SELECT code, remote_id, synced_at
		FROM eboekhouden_relation_links
		WHERE code = $1
	`

	link := &RelationLink{}
	err := r.db.QueryRow(ctx, query, code).Scan(&link.Code, &link.RemoteID, &link.SyncedAt)
	if err == pgx.ErrNoRows {
		return nil, errors.NotFound("relation_link", code)
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to get relation link")
	}
	return link, nil
}

// RecordInvoiceExport appends an invoice export. Exporting the same invoice number twice is a conflict.
func (r *SyncLogRepository) RecordInvoiceExport(ctx context.Context, export *InvoiceExport) error {
	query := `
		INSERT INTO eboekhouden_invoice_exports
		    (invoice_number, relation_code, remote_invoice_number, line_count)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (invoice_number) DO NOTHING
		RETURNING exported_at
	`

	err := r.db.QueryRow(ctx, query,
		export.InvoiceNumber,
		export.RelationCode,
		export.RemoteInvoiceNumber,
		export.LineCount,
	).Scan(&export.ExportedAt)
	if err == pgx.ErrNoRows {
		return errors.New(errors.ErrCodeConflict, "invoice already exported: "+export.InvoiceNumber)
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to record invoice export")
	}
	return nil
}

// ListInvoiceExports returns exports for a relation, newest first. An empty code lists all.
func (r *SyncLogRepository) ListInvoiceExports(ctx context.Context, relationCode string, limit int) ([]*InvoiceExport, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT invoice_number, relation_code, remote_invoice_number, line_count, exported_at
		FROM eboekhouden_invoice_exports
		WHERE ($1 = '' OR relation_code = $1)
		ORDER BY exported_at DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, relationCode, limit)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to list invoice exports")
	}
	defer rows.Close()

	exports := make([]*InvoiceExport, 0)
	for rows.Next() {
		e := &InvoiceExport{}
		if err := rows.Scan(&e.InvoiceNumber, &e.RelationCode, &e.RemoteInvoiceNumber, &e.LineCount, &e.ExportedAt); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to scan invoice export")
		}
		exports = append(exports, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to iterate invoice exports")
	}

	return exports, nil
}
