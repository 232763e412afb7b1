package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/shopspring/decimal"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

const productColumns = `id, tenant_id, sku, name, unit, price, stock_quantity, reorder_point, created_at, updated_at`

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.TenantID, &p.SKU, &p.Name, &p.Unit, &p.Price,
		&p.StockQuantity, &p.ReorderPoint, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Create persiste un nuevo producto. stock_quantity inicia en 0; solo cambia por movimientos.
func (r *ProductRepo) Create(ctx context.Context, product *entity.Product) error {
	query := `
		INSERT INTO products (id, tenant_id, sku, name, unit, price, stock_quantity, reorder_point, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query,
		product.ID, product.TenantID, product.SKU, product.Name, product.Unit,
		product.Price, product.ReorderPoint, product.CreatedAt, product.UpdatedAt,
	)
	if err != nil {
		return classify("products.create", err)
	}
	return nil
}

// GetByID obtiene un producto del tenant; (nil, nil) si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, tenantID, id string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND id = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, tenantID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("products.get", err)
	}
	return p, nil
}

// GetBySKU obtiene un producto por tenant y SKU.
func (r *ProductRepo) GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND sku = $2`
	p, err := scanProduct(r.q.QueryRow(ctx, query, tenantID, sku))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("products.get_by_sku", err)
	}
	return p, nil
}

// Update modifica datos de catálogo; stock_quantity no se toca.
func (r *ProductRepo) Update(ctx context.Context, product *entity.Product) error {
	query := `
		UPDATE products SET sku = $3, name = $4, unit = $5, price = $6, reorder_point = $7, updated_at = $8
		WHERE tenant_id = $1 AND id = $2`
	tag, err := r.q.Exec(ctx, query,
		product.TenantID, product.ID, product.SKU, product.Name, product.Unit,
		product.Price, product.ReorderPoint, product.UpdatedAt,
	)
	if err != nil {
		return classify("products.update", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ProductNotFound(product.ID)
	}
	return nil
}

// List productos del tenant por nombre.
func (r *ProductRepo) List(ctx context.Context, tenantID string, limit, offset int) ([]*entity.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 ORDER BY name LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, tenantID, limit, offset)
	if err != nil {
		return nil, classify("products.list", err)
	}
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, classify("products.list", rows.Err())
}

// LedgerQuantity suma de movimientos aplicados; debe coincidir con stock_quantity.
func (r *ProductRepo) LedgerQuantity(ctx context.Context, tenantID, productID string) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRow(ctx, `
		SELECT COALESCE(SUM(delta_quantity), 0) FROM stock_movements
		WHERE tenant_id = $1 AND product_id = $2 AND applied_at IS NOT NULL`,
		tenantID, productID).Scan(&total)
	if err != nil {
		return decimal.Zero, classify("products.ledger_quantity", err)
	}
	return total, nil
}
