// Package memory implementa el almacén del núcleo en memoria (tests y modo dev).
//
// En modo atómico cada unidad de trabajo toma el candado global y restaura una
// instantánea si falla, como una transacción. En modo saga cada operación del
// repositorio es independiente y las fallas dejan los efectos ya aplicados.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Operaciones con inyección de fallas.
const (
	OpDocumentsCreate       = "documents.create"
	OpDocumentsCreateItems  = "documents.create_items"
	OpDocumentsUpdateStatus = "documents.update_status"
	OpDocumentsDiscard      = "documents.discard"
	OpMovementsAppend       = "movements.append"
	OpMovementsApply        = "movements.apply"
	OpEntriesAppend         = "entries.append"
	OpEntriesApply          = "entries.apply"
	OpStepsMark             = "steps.mark"
)

// Store almacén en memoria; implementa la unidad de trabajo del núcleo.
type Store struct {
	mu     sync.Mutex
	st     *state
	atomic bool

	faults map[string]*fault
	calls  map[string]int
	now    func() time.Time
}

type fault struct {
	at         int
	persistent bool
}

// Option configura el Store.
type Option func(*Store)

// WithAtomic activa el modo transaccional (instantánea + restauración).
func WithAtomic(atomic bool) Option {
	return func(s *Store) { s.atomic = atomic }
}

// WithClock reemplaza el reloj.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New construye un almacén vacío; por defecto en modo saga (no atómico).
func New(opts ...Option) *Store {
	s := &Store{
		st:     newState(),
		faults: make(map[string]*fault),
		calls:  make(map[string]int),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Atomic indica si Run revierte los efectos ante error.
func (s *Store) Atomic() bool { return s.atomic }

// Run ejecuta fn con repositorios de la unidad de trabajo.
func (s *Store) Run(ctx context.Context, tc domain.TenantContext, fn func(repository.Stores) error) error {
	if err := tc.Validate(); err != nil {
		return err
	}
	if !s.atomic {
		return fn(s.stores(false))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.st.clone()
	if err := fn(s.stores(true)); err != nil {
		s.st = snap
		return err
	}
	return nil
}

// Stores repositorios fuera de unidad de trabajo (lecturas, catálogo, reportes).
func (s *Store) Stores() repository.Stores { return s.stores(false) }

func (s *Store) stores(inTx bool) repository.Stores {
	v := &view{s: s, inTx: inTx}
	return repository.Stores{
		Documents:  &documentRepo{v},
		Products:   &productRepo{v},
		Parties:    &partyRepo{v},
		Movements:  &movementRepo{v},
		Entries:    &entryRepo{v},
		Operations: &operationRepo{v},
	}
}

// FailOnCall hace fallar de forma transitoria la n-ésima llamada siguiente a op.
func (s *Store) FailOnCall(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{at: s.calls[op] + n}
}

// FailFromCall hace fallar la n-ésima llamada siguiente a op y todas las posteriores.
func (s *Store) FailFromCall(op string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = &fault{at: s.calls[op] + n, persistent: true}
}

// ClearFaults elimina las fallas programadas.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[string]*fault)
}

// Calls número de invocaciones registradas de op.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) injectLocked(op string) error {
	s.calls[op]++
	f, ok := s.faults[op]
	if !ok {
		return nil
	}
	n := s.calls[op]
	if n == f.at || (f.persistent && n > f.at) {
		if !f.persistent {
			delete(s.faults, op)
		}
		return domain.TransientStoreError(op, fmt.Errorf("falla inyectada en llamada %d", n))
	}
	return nil
}

// view acceso compartido de los repositorios al estado.
type view struct {
	s    *Store
	inTx bool
}

func (v *view) read(fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	return fn(v.s.st)
}

func (v *view) write(op string, fn func(st *state) error) error {
	if !v.inTx {
		v.s.mu.Lock()
		defer v.s.mu.Unlock()
	}
	if err := v.s.injectLocked(op); err != nil {
		return err
	}
	return fn(v.s.st)
}

func (v *view) now() time.Time { return v.s.now().UTC() }
