package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// DocumentFilter filtros de listado de documentos.
type DocumentFilter struct {
	Kind    entity.DocumentKind
	Status  entity.DocumentStatus
	PartyID string
	From    *time.Time
	To      *time.Time
	Limit   int
	Offset  int
}

// DocumentRepository define el puerto de persistencia para documentos y sus líneas (DIP).
// GetByID devuelve (nil, nil) si no existe dentro del tenant.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	CreateItems(ctx context.Context, tenantID string, items []*entity.LineItem) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Document, error)
	GetItems(ctx context.Context, tenantID, documentID string) ([]*entity.LineItem, error)
	// UpdateStatus cambia el estado solo si el actual es `from`; si no, ErrConflict.
	UpdateStatus(ctx context.Context, tenantID, id string, from, to entity.DocumentStatus, at time.Time) error
	// Discard borra un borrador con sus líneas, sus movimientos y asientos no aplicados y su
	// bitácora de pasos, liberando el número. No borra nada si el documento no está en
	// borrador o ya tiene efectos aplicados; en ese caso devuelve false.
	Discard(ctx context.Context, tenantID, id string) (bool, error)
	List(ctx context.Context, tenantID string, f DocumentFilter) ([]*entity.Document, error)
	// ListStale recorre todos los tenants; lo usa el reconciliador.
	ListStale(ctx context.Context, statuses []entity.DocumentStatus, updatedBefore time.Time, limit int) ([]*entity.Document, error)
}
