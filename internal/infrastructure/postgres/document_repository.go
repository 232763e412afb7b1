package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*DocumentRepo)(nil)

// DocumentRepo implementación del puerto DocumentRepository sobre PostgreSQL (usable con pool o tx).
type DocumentRepo struct {
	q Querier
}

// NewDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDocumentRepository(q Querier) *DocumentRepo {
	return &DocumentRepo{q: q}
}

const documentColumns = `id, tenant_id, kind, document_number, COALESCE(party_id, ''), party_name, doc_date,
	grand_total, amount_paid, status, payment_status, notes, created_by, created_at, updated_at`

func scanDocument(row pgx.Row) (*entity.Document, error) {
	var d entity.Document
	err := row.Scan(&d.ID, &d.TenantID, &d.Kind, &d.DocumentNumber, &d.PartyID, &d.PartyName, &d.Date,
		&d.GrandTotal, &d.AmountPaid, &d.Status, &d.PaymentStatus, &d.Notes, &d.CreatedBy, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// Create inserta el encabezado. Número repetido en el tenant y tipo -> ErrDuplicate.
func (r *DocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	query := `
		INSERT INTO documents (id, tenant_id, kind, document_number, party_id, party_name, doc_date,
			grand_total, amount_paid, status, payment_status, notes, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, query,
		doc.ID, doc.TenantID, doc.Kind, doc.DocumentNumber, nullString(doc.PartyID), doc.PartyName, doc.Date,
		doc.GrandTotal, doc.AmountPaid, doc.Status, doc.PaymentStatus, doc.Notes, doc.CreatedBy, doc.CreatedAt, doc.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.PartyNotFound(doc.PartyID)
		}
		return classify("documents.create", err)
	}
	return nil
}

// CreateItems inserta las líneas en un solo batch.
func (r *DocumentRepo) CreateItems(ctx context.Context, tenantID string, items []*entity.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	query := `
		INSERT INTO document_items (id, tenant_id, document_id, position, product_id, description, quantity, unit_price, line_total)
		SELECT $1, $2, d.id, $4, $5, $6, $7, $8, $9
		FROM documents d WHERE d.id = $3 AND d.tenant_id = $2`
	batch := &pgx.Batch{}
	for _, it := range items {
		batch.Queue(query, it.ID, tenantID, it.DocumentID, it.Position, nullString(it.ProductID),
			it.Description, it.Quantity, it.UnitPrice, it.LineTotal)
	}
	br := r.q.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()
	for _, it := range items {
		tag, err := br.Exec()
		if err != nil {
			if isForeignKeyViolation(err) {
				return domain.ProductNotFound(it.ProductID)
			}
			return classify("documents.create_items", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.DocumentNotFound(it.DocumentID)
		}
	}
	return nil
}

// GetByID devuelve (nil, nil) si no existe dentro del tenant.
func (r *DocumentRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE tenant_id = $1 AND id = $2`
	d, err := scanDocument(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("documents.get", err)
	}
	return d, nil
}

// GetItems líneas ordenadas por posición.
func (r *DocumentRepo) GetItems(ctx context.Context, tenantID, documentID string) ([]*entity.LineItem, error) {
	query := `
		SELECT id, document_id, position, COALESCE(product_id, ''), description, quantity, unit_price, line_total
		FROM document_items WHERE tenant_id = $1 AND document_id = $2 ORDER BY position`
	rows, err := r.q.Query(ctx, query, tenantID, documentID)
	if err != nil {
		return nil, classify("documents.items", err)
	}
	defer rows.Close()
	var out []*entity.LineItem
	for rows.Next() {
		var it entity.LineItem
		if err := rows.Scan(&it.ID, &it.DocumentID, &it.Position, &it.ProductID, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, &it)
	}
	return out, classify("documents.items", rows.Err())
}

// UpdateStatus compare-and-set del estado. Si el estado actual no es `from` -> ErrConflict.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, tenantID, id string, from, to entity.DocumentStatus, at time.Time) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("transición %s -> %s: %w", from, to, domain.ErrConflict)
	}
	tag, err := r.q.Exec(ctx,
		`UPDATE documents SET status = $4, updated_at = $5 WHERE tenant_id = $1 AND id = $2 AND status = $3`,
		tenantID, id, from, to, at)
	if err != nil {
		return classify("documents.update_status", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	d, err := r.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if d == nil {
		return domain.DocumentNotFound(id)
	}
	return fmt.Errorf("documento %s en estado %s, se esperaba %s: %w", id, d.Status, from, domain.ErrConflict)
}

// Discard borra en una sola sentencia un borrador sin efectos aplicados junto con sus líneas,
// sus filas pendientes en los libros y su bitácora de pasos.
func (r *DocumentRepo) Discard(ctx context.Context, tenantID, id string) (bool, error) {
	query := `
		WITH target AS (
			SELECT d.id FROM documents d
			WHERE d.tenant_id = $1 AND d.id = $2 AND d.status = 'draft'
			  AND NOT EXISTS (SELECT 1 FROM stock_movements m
			                  WHERE m.tenant_id = $1 AND m.reference_document_id = $2 AND m.applied_at IS NOT NULL)
			  AND NOT EXISTS (SELECT 1 FROM ledger_entries e
			                  WHERE e.tenant_id = $1 AND e.document_id = $2 AND e.applied_at IS NOT NULL)
			FOR UPDATE
		), movements AS (
			DELETE FROM stock_movements m USING target t
			WHERE m.tenant_id = $1 AND m.reference_document_id = t.id AND m.applied_at IS NULL
		), entries AS (
			DELETE FROM ledger_entries e USING target t
			WHERE e.tenant_id = $1 AND e.document_id = t.id AND e.applied_at IS NULL
		), steps AS (
			DELETE FROM operation_steps s USING target t
			WHERE s.tenant_id = $1 AND s.document_id = t.id
		), items AS (
			DELETE FROM document_items i USING target t
			WHERE i.tenant_id = $1 AND i.document_id = t.id
		)
		DELETE FROM documents d USING target t WHERE d.id = t.id`
	tag, err := r.q.Exec(ctx, query, tenantID, id)
	if err != nil {
		return false, classify("documents.discard", err)
	}
	return tag.RowsAffected() == 1, nil
}

// List documentos del tenant con filtros opcionales, por fecha.
func (r *DocumentRepo) List(ctx context.Context, tenantID string, f repository.DocumentFilter) ([]*entity.Document, error) {
	where := []string{"tenant_id = $1"}
	args := []any{tenantID}
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.PartyID != "" {
		add("party_id = $%d", f.PartyID)
	}
	if f.From != nil {
		add("doc_date >= $%d", *f.From)
	}
	if f.To != nil {
		add("doc_date <= $%d", *f.To)
	}
	args = append(args, limitOrAll(f.Limit), f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY doc_date, created_at LIMIT $%d OFFSET $%d`,
		documentColumns, strings.Join(where, " AND "), len(args)-1, len(args))
	return r.queryDocuments(ctx, "documents.list", query, args...)
}

// ListStale documentos en estados intermedios sin cambios desde updatedBefore, de cualquier tenant.
func (r *DocumentRepo) ListStale(ctx context.Context, statuses []entity.DocumentStatus, updatedBefore time.Time, limit int) ([]*entity.Document, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	query := `SELECT ` + documentColumns + ` FROM documents
		WHERE status = ANY($1) AND updated_at < $2 ORDER BY updated_at LIMIT $3`
	return r.queryDocuments(ctx, "documents.list_stale", query, names, updatedBefore, limit)
}

func (r *DocumentRepo) queryDocuments(ctx context.Context, op, query string, args ...any) ([]*entity.Document, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(op, err)
	}
	defer rows.Close()
	var out []*entity.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, d)
	}
	return out, classify(op, rows.Err())
}
