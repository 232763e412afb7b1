package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// StockDelta cambio de cantidad solicitado para un producto.
type StockDelta struct {
	ProductID          string
	DocumentID         string
	Delta              decimal.Decimal
	Type               entity.MovementType
	ReversesMovementID string
}

// StockResult resultado de aplicar un delta de stock.
type StockResult struct {
	Movement *entity.StockMovement
	Quantity decimal.Decimal
	Applied  bool // false si el movimiento ya estaba aplicado (reintento)
	Warning  *domain.LowStockWarning
}

// StockMutator registra el movimiento y suma el delta a la cantidad del producto.
// Nunca lee y reescribe la cantidad: el incremento lo resuelve el almacén.
type StockMutator struct {
	log     zerolog.Logger
	metrics Metrics
	newID   func() string
	now     func() time.Time
}

// NewStockMutator construye el mutador.
func NewStockMutator(log zerolog.Logger, metrics Metrics, newID func() string, now func() time.Time) *StockMutator {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	return &StockMutator{log: log, metrics: metrics, newID: newID, now: now}
}

// Apply agrega el movimiento (idempotente por documento, producto y tipo) y lo aplica.
func (m *StockMutator) Apply(ctx context.Context, s repository.Stores, tc domain.TenantContext, d StockDelta) (*StockResult, error) {
	mv := &entity.StockMovement{
		ID:                  m.newID(),
		TenantID:            tc.TenantID,
		ProductID:           d.ProductID,
		ReferenceDocumentID: d.DocumentID,
		Type:                d.Type,
		DeltaQuantity:       d.Delta,
		ReversesMovementID:  d.ReversesMovementID,
		CreatedAt:           m.now().UTC(),
		CreatedBy:           tc.UserID,
	}
	stored, created, err := s.Movements.Append(ctx, mv)
	if err != nil {
		return nil, fmt.Errorf("append stock movement: %w", err)
	}
	if !created && !stored.DeltaQuantity.Equal(d.Delta) {
		m.log.Warn().
			Str("tenant_id", tc.TenantID).
			Str("document_id", d.DocumentID).
			Str("product_id", d.ProductID).
			Str("stored_delta", stored.DeltaQuantity.String()).
			Str("requested_delta", d.Delta.String()).
			Msg("movimiento existente con delta distinto; se conserva el registrado")
	}

	qty, applied, err := s.Movements.Apply(ctx, tc.TenantID, stored.ID)
	if err != nil {
		return nil, fmt.Errorf("apply stock movement: %w", err)
	}
	if applied {
		now := m.now().UTC()
		stored.AppliedAt = &now
	}

	res := &StockResult{Movement: stored, Quantity: qty, Applied: applied}
	if qty.IsNegative() {
		res.Warning = &domain.LowStockWarning{ProductID: d.ProductID, Quantity: qty}
		if applied {
			m.metrics.LowStock()
		}
		m.log.Warn().
			Str("tenant_id", tc.TenantID).
			Str("product_id", d.ProductID).
			Str("quantity", qty.String()).
			Msg("stock negativo")
	}
	return res, nil
}
