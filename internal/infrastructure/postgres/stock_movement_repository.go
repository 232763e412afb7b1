package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.StockMovementRepository = (*StockMovementRepo)(nil)

// StockMovementRepo libro de movimientos de inventario (append-only).
type StockMovementRepo struct {
	q Querier
}

// NewStockMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewStockMovementRepository(q Querier) *StockMovementRepo {
	return &StockMovementRepo{q: q}
}

const movementColumns = `id, tenant_id, product_id, reference_document_id, movement_type, delta_quantity,
	COALESCE(reverses_movement_id, ''), applied_at, created_at, created_by`

func scanMovement(row pgx.Row) (*entity.StockMovement, error) {
	var m entity.StockMovement
	if err := row.Scan(&m.ID, &m.TenantID, &m.ProductID, &m.ReferenceDocumentID, &m.Type, &m.DeltaQuantity,
		&m.ReversesMovementID, &m.AppliedAt, &m.CreatedAt, &m.CreatedBy); err != nil {
		return nil, err
	}
	return &m, nil
}

// Append inserta el movimiento; si ya existe uno con la misma clave (tenant, documento,
// producto, tipo) devuelve el registrado con created=false.
func (r *StockMovementRepo) Append(ctx context.Context, m *entity.StockMovement) (*entity.StockMovement, bool, error) {
	tag, err := r.q.Exec(ctx, `
		INSERT INTO stock_movements (id, tenant_id, product_id, reference_document_id, movement_type,
			delta_quantity, reverses_movement_id, created_at, created_by)
		SELECT $1, $2, p.id, $4, $5, $6, $7, $8, $9
		FROM products p WHERE p.tenant_id = $2 AND p.id = $3
		ON CONFLICT (tenant_id, reference_document_id, product_id, movement_type) DO NOTHING`,
		m.ID, m.TenantID, m.ProductID, m.ReferenceDocumentID, m.Type,
		m.DeltaQuantity, nullString(m.ReversesMovementID), m.CreatedAt, m.CreatedBy)
	if err != nil {
		return nil, false, classify("movements.append", err)
	}

	stored, err := scanMovement(r.q.QueryRow(ctx, `
		SELECT `+movementColumns+` FROM stock_movements
		WHERE tenant_id = $1 AND reference_document_id = $2 AND product_id = $3 AND movement_type = $4`,
		m.TenantID, m.ReferenceDocumentID, m.ProductID, m.Type))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// el INSERT ... SELECT no encontró el producto en el tenant
			return nil, false, domain.ProductNotFound(m.ProductID)
		}
		return nil, false, classify("movements.append", err)
	}
	return stored, tag.RowsAffected() == 1, nil
}

// Apply marca el movimiento aplicado y suma su delta a stock_quantity en una sola sentencia.
// Un movimiento ya aplicado no vuelve a sumarse.
func (r *StockMovementRepo) Apply(ctx context.Context, tenantID, movementID string) (decimal.Decimal, bool, error) {
	var qty decimal.Decimal
	err := r.q.QueryRow(ctx, `
		WITH mv AS (
			UPDATE stock_movements SET applied_at = now()
			WHERE tenant_id = $1 AND id = $2 AND applied_at IS NULL
			RETURNING product_id, delta_quantity
		)
		UPDATE products p
		SET stock_quantity = p.stock_quantity + mv.delta_quantity, updated_at = now()
		FROM mv
		WHERE p.tenant_id = $1 AND p.id = mv.product_id
		RETURNING p.stock_quantity`, tenantID, movementID).Scan(&qty)
	if err == nil {
		return qty, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return decimal.Zero, false, classify("movements.apply", err)
	}

	// Ya aplicado (o inexistente): devolver la cantidad vigente.
	err = r.q.QueryRow(ctx, `
		SELECT p.stock_quantity FROM stock_movements m
		JOIN products p ON p.id = m.product_id AND p.tenant_id = m.tenant_id
		WHERE m.tenant_id = $1 AND m.id = $2`, tenantID, movementID).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return decimal.Zero, false, fmt.Errorf("movement %s: %w", movementID, domain.ErrNotFound)
		}
		return decimal.Zero, false, classify("movements.apply", err)
	}
	return qty, false, nil
}

func (r *StockMovementRepo) ListByDocument(ctx context.Context, tenantID, documentID string) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE tenant_id = $1 AND reference_document_id = $2 ORDER BY created_at, product_id`, tenantID, documentID)
}

// ListByProduct kardex del producto en orden cronológico.
func (r *StockMovementRepo) ListByProduct(ctx context.Context, tenantID, productID string, from, to *time.Time, limit, offset int) ([]*entity.StockMovement, error) {
	return r.query(ctx, `SELECT `+movementColumns+` FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2
		  AND ($3::timestamptz IS NULL OR created_at >= $3)
		  AND ($4::timestamptz IS NULL OR created_at <= $4)
		ORDER BY created_at, id LIMIT $5 OFFSET $6`,
		tenantID, productID, from, to, limitOrAll(limit), offset)
}

func (r *StockMovementRepo) query(ctx context.Context, sql string, args ...any) ([]*entity.StockMovement, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, classify("movements.list", err)
	}
	defer rows.Close()
	var out []*entity.StockMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		out = append(out, m)
	}
	return out, classify("movements.list", rows.Err())
}
