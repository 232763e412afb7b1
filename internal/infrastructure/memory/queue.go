package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// Queue cola de reconciliación en memoria (más recientes primero al listar).
type Queue struct {
	mu    sync.Mutex
	items []entity.ReconciliationItem
}

// NewQueue construye la cola vacía.
func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Enqueue(_ context.Context, item entity.ReconciliationItem) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items = append(q.items, item)
	return nil
}

func (q *Queue) List(_ context.Context, limit int) ([]entity.ReconciliationItem, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.ReconciliationItem, 0, len(q.items))
	for i := len(q.items) - 1; i >= 0; i-- {
		out = append(out, q.items[i])
	}
	return paginate(out, limit, 0), nil
}

// Publisher acumula los eventos publicados.
type Publisher struct {
	mu     sync.Mutex
	events []entity.DocumentEvent
}

// NewPublisher construye el publicador en memoria.
func NewPublisher() *Publisher { return &Publisher{} }

func (p *Publisher) Publish(_ context.Context, evt entity.DocumentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, evt)
	return nil
}

// Events copia de los eventos publicados.
func (p *Publisher) Events() []entity.DocumentEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.DocumentEvent(nil), p.events...)
}
