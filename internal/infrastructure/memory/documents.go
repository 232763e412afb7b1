package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.DocumentRepository = (*documentRepo)(nil)

type documentRepo struct{ *view }

func (r *documentRepo) Create(_ context.Context, doc *entity.Document) error {
	return r.write(OpDocumentsCreate, func(st *state) error {
		if _, ok := st.documents[doc.ID]; ok {
			return domain.ErrDuplicate
		}
		k := docNumberKey{doc.TenantID, doc.Kind, doc.DocumentNumber}
		if _, ok := st.docNumbers[k]; ok {
			return domain.ErrDuplicate
		}
		st.documents[doc.ID] = copyDocument(doc)
		st.docNumbers[k] = doc.ID
		return nil
	})
}

func (r *documentRepo) CreateItems(_ context.Context, tenantID string, items []*entity.LineItem) error {
	return r.write(OpDocumentsCreateItems, func(st *state) error {
		for _, it := range items {
			d, ok := st.documents[it.DocumentID]
			if !ok || d.TenantID != tenantID {
				return domain.DocumentNotFound(it.DocumentID)
			}
		}
		for _, it := range items {
			st.items[it.DocumentID] = append(st.items[it.DocumentID], copyItem(it))
		}
		return nil
	})
}

func (r *documentRepo) GetByID(_ context.Context, tenantID, id string) (*entity.Document, error) {
	var out *entity.Document
	err := r.read(func(st *state) error {
		if d, ok := st.documents[id]; ok && d.TenantID == tenantID {
			out = copyDocument(d)
		}
		return nil
	})
	return out, err
}

func (r *documentRepo) GetItems(_ context.Context, tenantID, documentID string) ([]*entity.LineItem, error) {
	var out []*entity.LineItem
	err := r.read(func(st *state) error {
		d, ok := st.documents[documentID]
		if !ok || d.TenantID != tenantID {
			return nil
		}
		for _, it := range st.items[documentID] {
			out = append(out, copyItem(it))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, err
}

func (r *documentRepo) UpdateStatus(_ context.Context, tenantID, id string, from, to entity.DocumentStatus, at time.Time) error {
	return r.write(OpDocumentsUpdateStatus, func(st *state) error {
		d, ok := st.documents[id]
		if !ok || d.TenantID != tenantID {
			return domain.DocumentNotFound(id)
		}
		if d.Status != from || !from.CanTransition(to) {
			return domain.ErrConflict
		}
		d.Status = to
		d.UpdatedAt = at
		return nil
	})
}

func (r *documentRepo) Discard(_ context.Context, tenantID, id string) (bool, error) {
	var discarded bool
	err := r.write(OpDocumentsDiscard, func(st *state) error {
		d, ok := st.documents[id]
		if !ok || d.TenantID != tenantID || d.Status != entity.StatusDraft {
			return nil
		}
		for _, m := range st.movements {
			if m.TenantID == tenantID && m.ReferenceDocumentID == id && m.Applied() {
				return nil
			}
		}
		for _, e := range st.entries {
			if e.TenantID == tenantID && e.DocumentID == id && e.Applied() {
				return nil
			}
		}
		st.dropDocument(d)
		discarded = true
		return nil
	})
	return discarded, err
}

func (r *documentRepo) List(_ context.Context, tenantID string, f repository.DocumentFilter) ([]*entity.Document, error) {
	var out []*entity.Document
	err := r.read(func(st *state) error {
		for _, d := range st.documents {
			if d.TenantID != tenantID {
				continue
			}
			if f.Kind != "" && d.Kind != f.Kind {
				continue
			}
			if f.Status != "" && d.Status != f.Status {
				continue
			}
			if f.PartyID != "" && d.PartyID != f.PartyID {
				continue
			}
			if !inRange(d.Date, f.From, f.To) {
				continue
			}
			out = append(out, copyDocument(d))
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Date.Before(out[j].Date)
	})
	return paginate(out, f.Limit, f.Offset), err
}

func (r *documentRepo) ListStale(_ context.Context, statuses []entity.DocumentStatus, updatedBefore time.Time, limit int) ([]*entity.Document, error) {
	want := make(map[entity.DocumentStatus]bool, len(statuses))
	for _, s := range statuses {
		want[s] = true
	}
	var out []*entity.Document
	err := r.read(func(st *state) error {
		for _, d := range st.documents {
			if want[d.Status] && d.UpdatedAt.Before(updatedBefore) {
				out = append(out, copyDocument(d))
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	return paginate(out, limit, 0), err
}
