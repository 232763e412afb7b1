package ledger

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// UnitOfWork ejecuta fn con repositorios ligados a una misma unidad de trabajo.
// Atomic() indica si un error en fn revierte todos los efectos (transacción).
// Si no es atómica, cada paso del coordinador debe ser idempotente.
type UnitOfWork interface {
	Run(ctx context.Context, tc domain.TenantContext, fn func(s repository.Stores) error) error
	Atomic() bool
}

// EventPublisher publica eventos de documento tras confirmar la operación.
type EventPublisher interface {
	Publish(ctx context.Context, evt entity.DocumentEvent) error
}

// ReconciliationQueue cola operativa de documentos que requieren reconciliación.
type ReconciliationQueue interface {
	Enqueue(ctx context.Context, item entity.ReconciliationItem) error
	List(ctx context.Context, limit int) ([]entity.ReconciliationItem, error)
}

// Metrics contadores del núcleo.
type Metrics interface {
	DocumentProcessed(kind, operation, outcome string)
	StoreRetry(operation string)
	LowStock()
	ReconciliationEnqueued(operation string)
}

// PassLock exclusión entre instancias para las pasadas del reconciliador.
type PassLock interface {
	TryLock(ctx context.Context) (unlock func(), ok bool, err error)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, entity.DocumentEvent) error { return nil }

type nopQueue struct{}

func (nopQueue) Enqueue(context.Context, entity.ReconciliationItem) error { return nil }
func (nopQueue) List(context.Context, int) ([]entity.ReconciliationItem, error) {
	return nil, nil
}

type nopMetrics struct{}

func (nopMetrics) DocumentProcessed(string, string, string) {}
func (nopMetrics) StoreRetry(string)                        {}
func (nopMetrics) LowStock()                                {}
func (nopMetrics) ReconciliationEnqueued(string)            {}
