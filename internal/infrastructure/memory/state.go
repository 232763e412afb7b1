package memory

import (
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

type docNumberKey struct {
	tenantID string
	kind     entity.DocumentKind
	number   string
}

type movementKey struct {
	tenantID   string
	documentID string
	productID  string
	typ        entity.MovementType
}

type entryKey struct {
	tenantID   string
	documentID string
	partyID    string
	typ        entity.LedgerEntryType
}

type stepKey struct {
	tenantID   string
	documentID string
	operation  string
}

type state struct {
	documents  map[string]*entity.Document
	docNumbers map[docNumberKey]string
	items      map[string][]*entity.LineItem
	products   map[string]*entity.Product
	parties    map[string]*entity.Party

	movements    []*entity.StockMovement
	movementKeys map[movementKey]int
	entries      []*entity.LedgerEntry
	entryKeys    map[entryKey]int

	steps map[stepKey]map[string]time.Time
}

func newState() *state {
	return &state{
		documents:    make(map[string]*entity.Document),
		docNumbers:   make(map[docNumberKey]string),
		items:        make(map[string][]*entity.LineItem),
		products:     make(map[string]*entity.Product),
		parties:      make(map[string]*entity.Party),
		movementKeys: make(map[movementKey]int),
		entryKeys:    make(map[entryKey]int),
		steps:        make(map[stepKey]map[string]time.Time),
	}
}

// clone copia profunda usada como instantánea de una unidad de trabajo atómica.
func (s *state) clone() *state {
	c := newState()
	for k, v := range s.documents {
		c.documents[k] = copyDocument(v)
	}
	for k, v := range s.docNumbers {
		c.docNumbers[k] = v
	}
	for k, v := range s.items {
		list := make([]*entity.LineItem, len(v))
		for i, it := range v {
			list[i] = copyItem(it)
		}
		c.items[k] = list
	}
	for k, v := range s.products {
		c.products[k] = copyProduct(v)
	}
	for k, v := range s.parties {
		c.parties[k] = copyParty(v)
	}
	c.movements = make([]*entity.StockMovement, len(s.movements))
	for i, m := range s.movements {
		c.movements[i] = copyMovement(m)
	}
	for k, v := range s.movementKeys {
		c.movementKeys[k] = v
	}
	c.entries = make([]*entity.LedgerEntry, len(s.entries))
	for i, e := range s.entries {
		c.entries[i] = copyEntry(e)
	}
	for k, v := range s.entryKeys {
		c.entryKeys[k] = v
	}
	for k, v := range s.steps {
		m := make(map[string]time.Time, len(v))
		for step, at := range v {
			m[step] = at
		}
		c.steps[k] = m
	}
	return c
}

// dropDocument quita el documento y todo lo que cuelga de él, reindexando las claves
// de idempotencia de movimientos y asientos.
func (s *state) dropDocument(d *entity.Document) {
	delete(s.documents, d.ID)
	delete(s.docNumbers, docNumberKey{d.TenantID, d.Kind, d.DocumentNumber})
	delete(s.items, d.ID)
	for k := range s.steps {
		if k.tenantID == d.TenantID && k.documentID == d.ID {
			delete(s.steps, k)
		}
	}

	movements := s.movements[:0]
	for _, m := range s.movements {
		if m.TenantID != d.TenantID || m.ReferenceDocumentID != d.ID {
			movements = append(movements, m)
		}
	}
	s.movements = movements
	s.movementKeys = make(map[movementKey]int, len(movements))
	for i, m := range movements {
		s.movementKeys[movementKey{m.TenantID, m.ReferenceDocumentID, m.ProductID, m.Type}] = i
	}

	entries := s.entries[:0]
	for _, e := range s.entries {
		if e.TenantID != d.TenantID || e.DocumentID != d.ID {
			entries = append(entries, e)
		}
	}
	s.entries = entries
	s.entryKeys = make(map[entryKey]int, len(entries))
	for i, e := range entries {
		s.entryKeys[entryKey{e.TenantID, e.DocumentID, e.PartyID, e.EntryType}] = i
	}
}

func copyDocument(d *entity.Document) *entity.Document { c := *d; return &c }
func copyItem(i *entity.LineItem) *entity.LineItem     { c := *i; return &c }
func copyProduct(p *entity.Product) *entity.Product    { c := *p; return &c }
func copyParty(p *entity.Party) *entity.Party          { c := *p; return &c }

func copyMovement(m *entity.StockMovement) *entity.StockMovement {
	c := *m
	if m.AppliedAt != nil {
		at := *m.AppliedAt
		c.AppliedAt = &at
	}
	return &c
}

func copyEntry(e *entity.LedgerEntry) *entity.LedgerEntry {
	c := *e
	if e.AppliedAt != nil {
		at := *e.AppliedAt
		c.AppliedAt = &at
	}
	return &c
}

func inRange(t time.Time, from, to *time.Time) bool {
	if from != nil && t.Before(*from) {
		return false
	}
	if to != nil && t.After(*to) {
		return false
	}
	return true
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
