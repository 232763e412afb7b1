package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/posting"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// stepResolve paso previo a cualquier escritura (resolución de referencias).
const stepResolve = "resolve"

// DocumentResult resultado de una operación del coordinador.
type DocumentResult struct {
	Document  *entity.Document
	Items     []*entity.LineItem
	Movements []*entity.StockMovement
	Entries   []*entity.LedgerEntry
	Warnings  []domain.LowStockWarning
}

// Coordinator ejecuta escritor, mutadores de stock y saldo como una sola operación lógica.
// Con unidad de trabajo atómica todo ocurre en una transacción; si no, cada paso es
// idempotente y queda registrado en el log de operaciones para reanudar.
type Coordinator struct {
	uow     UnitOfWork
	writer  *DocumentWriter
	stock   *StockMutator
	balance *BalanceMutator
	events  EventPublisher
	queue   ReconciliationQueue
	metrics Metrics
	retry   RetryPolicy
	log     zerolog.Logger

	staleAfter time.Duration
	newID      func() string
	now        func() time.Time
}

// Option configura el Coordinator.
type Option func(*Coordinator)

func WithEvents(p EventPublisher) Option     { return func(c *Coordinator) { c.events = p } }
func WithQueue(q ReconciliationQueue) Option { return func(c *Coordinator) { c.queue = q } }
func WithMetrics(m Metrics) Option           { return func(c *Coordinator) { c.metrics = m } }
func WithRetryPolicy(p RetryPolicy) Option   { return func(c *Coordinator) { c.retry = p } }
func WithClock(now func() time.Time) Option  { return func(c *Coordinator) { c.now = now } }
func WithIDGenerator(f func() string) Option { return func(c *Coordinator) { c.newID = f } }
func WithStaleAfter(d time.Duration) Option  { return func(c *Coordinator) { c.staleAfter = d } }

// NewCoordinator construye el coordinador sobre una unidad de trabajo.
func NewCoordinator(uow UnitOfWork, log zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		uow:        uow,
		events:     nopPublisher{},
		queue:      nopQueue{},
		metrics:    nopMetrics{},
		retry:      DefaultRetryPolicy(),
		log:        log,
		staleAfter: 5 * time.Minute,
		newID:      func() string { return uuid.New().String() },
		now:        time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	c.writer = NewDocumentWriter(c.newID, c.now)
	c.stock = NewStockMutator(log, c.metrics, c.newID, c.now)
	c.balance = NewBalanceMutator(log, c.newID, c.now)
	return c
}

// CreatePurchaseDocument registra una factura de proveedor con sus efectos de stock y saldo.
func (c *Coordinator) CreatePurchaseDocument(ctx context.Context, tc domain.TenantContext, in dto.CreateDocumentRequest) (*DocumentResult, error) {
	return c.CreateDocument(ctx, tc, entity.DocumentPurchase, in)
}

// CreateSaleDocument registra una factura de venta.
func (c *Coordinator) CreateSaleDocument(ctx context.Context, tc domain.TenantContext, in dto.CreateDocumentRequest) (*DocumentResult, error) {
	return c.CreateDocument(ctx, tc, entity.DocumentSale, in)
}

// CreatePayment registra un pago a proveedor o un cobro a cliente.
func (c *Coordinator) CreatePayment(ctx context.Context, tc domain.TenantContext, in dto.CreatePaymentRequest) (*DocumentResult, error) {
	if err := c.writer.validate.Struct(in); err != nil {
		return nil, toValidationError(err)
	}
	if !in.Amount.IsPositive() {
		return nil, domain.NewValidationError("amount", "debe ser mayor que cero")
	}
	kind := entity.DocumentPaymentIn
	if in.Direction == "out" {
		kind = entity.DocumentPaymentOut
	}
	return c.CreateDocument(ctx, tc, kind, dto.CreateDocumentRequest{
		DocumentNumber: in.DocumentNumber,
		PartyID:        in.PartyID,
		Date:           in.Date,
		GrandTotal:     in.Amount,
		AmountPaid:     in.Amount,
		PaymentStatus:  string(entity.PaymentPaid),
		Notes:          in.Notes,
	})
}

// CreateDocument valida, escribe y aplica los efectos de un documento de cualquier tipo.
func (c *Coordinator) CreateDocument(ctx context.Context, tc domain.TenantContext, kind entity.DocumentKind, in dto.CreateDocumentRequest) (*DocumentResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	doc, items, err := c.writer.Prepare(tc, kind, in)
	if err != nil {
		c.metrics.DocumentProcessed(string(kind), entity.OperationCreate, "rejected")
		return nil, err
	}
	return c.create(ctx, tc, doc, items, true)
}

func (c *Coordinator) create(ctx context.Context, tc domain.TenantContext, doc *entity.Document, items []*entity.LineItem, resolve bool) (*DocumentResult, error) {
	var res *DocumentResult
	err := c.withRetry(ctx, entity.OperationCreate, func(ctx context.Context) error {
		return c.uow.Run(ctx, tc, func(s repository.Stores) error {
			r, err := c.runCreate(ctx, s, tc, doc, items, resolve)
			res = r
			return err
		})
	})
	if err != nil {
		outcome := "failed"
		err = c.failCreate(ctx, tc, doc, items, err)
		if errors.Is(err, domain.ErrIncompleteDocument) {
			outcome = "incomplete"
		}
		c.metrics.DocumentProcessed(string(doc.Kind), entity.OperationCreate, outcome)
		return nil, err
	}

	c.metrics.DocumentProcessed(string(doc.Kind), entity.OperationCreate, "finalized")
	c.log.Info().
		Str("tenant_id", tc.TenantID).
		Str("document_id", res.Document.ID).
		Str("kind", string(res.Document.Kind)).
		Int("warnings", len(res.Warnings)).
		Msg("documento finalizado")
	c.publish(ctx, entity.EventDocumentFinalized, res.Document)
	return res, nil
}

// runCreate ejecuta los pasos pendientes de la creación. Reejecutable.
func (c *Coordinator) runCreate(ctx context.Context, s repository.Stores, tc domain.TenantContext, doc *entity.Document, items []*entity.LineItem, resolve bool) (*DocumentResult, error) {
	header := *doc
	if resolve {
		if err := c.writer.Resolve(ctx, s, &header, items); err != nil {
			return nil, atStep(stepResolve, err)
		}
	}
	stored, err := c.writer.Write(ctx, s, &header, items)
	if err != nil {
		return nil, atStep(entity.StepDocumentWritten, err)
	}
	switch stored.Status {
	case entity.StatusFinalized:
		return c.loadResult(ctx, s, tc, stored)
	case entity.StatusCancelled, entity.StatusReversalPending:
		return nil, atStep(entity.StepFinalized, fmt.Errorf("documento %s en estado %s: %w", stored.ID, stored.Status, domain.ErrConflict))
	}

	completed, err := s.Operations.CompletedSteps(ctx, tc.TenantID, stored.ID, entity.OperationCreate)
	if err != nil {
		return nil, atStep(entity.StepDocumentWritten, err)
	}
	if !completed[entity.StepDocumentWritten] {
		if err := c.mark(ctx, s, tc, stored.ID, entity.OperationCreate, entity.StepDocumentWritten); err != nil {
			return nil, atStep(entity.StepDocumentWritten, err)
		}
	}

	res := &DocumentResult{Document: stored, Items: items}
	movementType := posting.MovementTypeFor(stored.Kind)
	for _, pd := range posting.StockDeltas(stored.Kind, items) {
		step := entity.StockStep(pd.ProductID)
		if completed[step] {
			continue
		}
		r, err := c.stock.Apply(ctx, s, tc, StockDelta{
			ProductID:  pd.ProductID,
			DocumentID: stored.ID,
			Delta:      pd.Delta,
			Type:       movementType,
		})
		if err != nil {
			return nil, atStep(step, err)
		}
		if r.Warning != nil {
			res.Warnings = append(res.Warnings, *r.Warning)
		}
		if err := c.mark(ctx, s, tc, stored.ID, entity.OperationCreate, step); err != nil {
			return nil, atStep(step, err)
		}
	}

	if stored.PartyID != "" {
		step := entity.BalanceStep(stored.PartyID)
		if !completed[step] {
			if _, err := c.balance.Apply(ctx, s, tc, BalanceDelta{
				PartyID:    stored.PartyID,
				DocumentID: stored.ID,
				Amount:     posting.BalanceDelta(stored),
				EntryType:  entity.LedgerEntryDocument,
			}); err != nil {
				return nil, atStep(step, err)
			}
			if err := c.mark(ctx, s, tc, stored.ID, entity.OperationCreate, step); err != nil {
				return nil, atStep(step, err)
			}
		}
	}

	now := c.now().UTC()
	if err := s.Documents.UpdateStatus(ctx, tc.TenantID, stored.ID, stored.Status, entity.StatusFinalized, now); err != nil {
		return nil, atStep(entity.StepFinalized, err)
	}
	stored.Status = entity.StatusFinalized
	stored.UpdatedAt = now
	if err := c.mark(ctx, s, tc, stored.ID, entity.OperationCreate, entity.StepFinalized); err != nil {
		c.log.Warn().Err(err).Str("document_id", stored.ID).Msg("no se registró el paso finalized")
	}
	if mv, err := s.Movements.ListByDocument(ctx, tc.TenantID, stored.ID); err == nil {
		res.Movements = mv
	}
	return res, nil
}

// failCreate decide el estado final del documento tras agotar reintentos o ante un error terminal.
func (c *Coordinator) failCreate(ctx context.Context, tc domain.TenantContext, doc *entity.Document, items []*entity.LineItem, cause error) error {
	step, inner := splitStep(cause)
	if c.uow.Atomic() {
		if step == stepResolve {
			return inner
		}
		return &domain.DocumentError{DocumentID: doc.ID, Step: step, Discardable: true, Err: inner}
	}

	st, err := c.inspect(ctx, tc, doc.ID, entity.OperationCreate)
	if err != nil {
		pending := createPlan(doc, items)
		c.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo inspeccionar el documento fallido")
		c.enqueue(ctx, tc, doc.ID, entity.OperationCreate, pending, inner)
		return &domain.IncompleteDocumentError{DocumentID: doc.ID, PendingSteps: pending, Err: inner}
	}
	if st.doc == nil {
		if step == stepResolve {
			return inner
		}
		return &domain.DocumentError{DocumentID: doc.ID, Step: step, Discardable: true, Err: inner}
	}
	if !st.hasEffects {
		c.discard(ctx, tc, st.doc)
		return &domain.DocumentError{DocumentID: doc.ID, Step: step, Discardable: true, Err: inner}
	}

	pending := remaining(createPlan(st.doc, items), st.completed)
	if st.doc.Status == entity.StatusDraft {
		err := c.uow.Run(ctx, tc, func(s repository.Stores) error {
			return s.Documents.UpdateStatus(ctx, tc.TenantID, doc.ID, entity.StatusDraft, entity.StatusPendingReconciliation, c.now().UTC())
		})
		if err != nil {
			c.log.Error().Err(err).Str("document_id", doc.ID).Msg("no se pudo marcar pendiente de reconciliación")
		}
	}
	c.enqueue(ctx, tc, doc.ID, entity.OperationCreate, pending, inner)
	c.log.Error().Err(inner).
		Str("tenant_id", tc.TenantID).
		Str("document_id", doc.ID).
		Str("step", step).
		Strs("pending_steps", pending).
		Msg("documento incompleto")
	return &domain.IncompleteDocumentError{DocumentID: doc.ID, PendingSteps: pending, Err: inner}
}

// discard borra un borrador sin efectos aplicados junto con sus filas pendientes, de modo
// que el mismo número pueda volver a enviarse.
func (c *Coordinator) discard(ctx context.Context, tc domain.TenantContext, doc *entity.Document) {
	if doc.Status != entity.StatusDraft {
		return
	}
	var discarded bool
	err := c.withRetry(ctx, "discard", func(ctx context.Context) error {
		return c.uow.Run(ctx, tc, func(s repository.Stores) error {
			var err error
			discarded, err = s.Documents.Discard(ctx, tc.TenantID, doc.ID)
			return err
		})
	})
	switch {
	case err != nil:
		c.log.Warn().Err(err).Str("document_id", doc.ID).Msg("borrador sin efectos queda para el reconciliador")
	case !discarded:
		c.log.Warn().Str("document_id", doc.ID).Msg("borrador no descartado: cambió de estado o tiene efectos")
	default:
		c.log.Info().Str("tenant_id", tc.TenantID).Str("document_id", doc.ID).Msg("borrador descartado")
	}
}

// ReverseDocument anula un documento. Un borrador se anula directamente; uno finalizado
// recibe movimientos y asientos compensatorios. Los registros originales no se modifican.
func (c *Coordinator) ReverseDocument(ctx context.Context, tc domain.TenantContext, id string) (*DocumentResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	var res *DocumentResult
	err := c.withRetry(ctx, entity.OperationReverse, func(ctx context.Context) error {
		return c.uow.Run(ctx, tc, func(s repository.Stores) error {
			r, err := c.runReverse(ctx, s, tc, id)
			res = r
			return err
		})
	})
	if err != nil {
		return nil, c.failReverse(ctx, tc, id, err)
	}

	c.metrics.DocumentProcessed(string(res.Document.Kind), entity.OperationReverse, "cancelled")
	c.log.Info().
		Str("tenant_id", tc.TenantID).
		Str("document_id", id).
		Int("compensations", len(res.Movements)+len(res.Entries)).
		Msg("documento anulado")
	c.publish(ctx, entity.EventDocumentReversed, res.Document)
	return res, nil
}

func (c *Coordinator) runReverse(ctx context.Context, s repository.Stores, tc domain.TenantContext, id string) (*DocumentResult, error) {
	doc, err := s.Documents.GetByID(ctx, tc.TenantID, id)
	if err != nil {
		return nil, atStep(stepResolve, err)
	}
	if doc == nil {
		return nil, atStep(stepResolve, domain.DocumentNotFound(id))
	}

	now := c.now().UTC()
	switch doc.Status {
	case entity.StatusCancelled:
		return &DocumentResult{Document: doc}, nil
	case entity.StatusDraft:
		if err := s.Documents.UpdateStatus(ctx, tc.TenantID, id, entity.StatusDraft, entity.StatusCancelled, now); err != nil {
			return nil, atStep(entity.StepCancelled, err)
		}
		doc.Status, doc.UpdatedAt = entity.StatusCancelled, now
		return &DocumentResult{Document: doc}, nil
	case entity.StatusPendingReconciliation:
		return nil, atStep(stepResolve, fmt.Errorf("documento %s pendiente de reconciliación: %w", id, domain.ErrConflict))
	case entity.StatusFinalized:
		if err := s.Documents.UpdateStatus(ctx, tc.TenantID, id, entity.StatusFinalized, entity.StatusReversalPending, now); err != nil {
			return nil, atStep(entity.StepReversalStarted, err)
		}
		doc.Status = entity.StatusReversalPending
		if err := c.mark(ctx, s, tc, id, entity.OperationReverse, entity.StepReversalStarted); err != nil {
			return nil, atStep(entity.StepReversalStarted, err)
		}
	}

	completed, err := s.Operations.CompletedSteps(ctx, tc.TenantID, id, entity.OperationReverse)
	if err != nil {
		return nil, atStep(entity.StepReversalStarted, err)
	}
	originals, entries, err := reversible(ctx, s, tc, id)
	if err != nil {
		return nil, atStep(entity.StepReversalStarted, err)
	}

	res := &DocumentResult{Document: doc}
	for _, m := range originals {
		step := entity.StockStep(m.ProductID)
		if completed[step] {
			continue
		}
		r, err := c.stock.Apply(ctx, s, tc, StockDelta{
			ProductID:          m.ProductID,
			DocumentID:         id,
			Delta:              m.DeltaQuantity.Neg(),
			Type:               entity.MovementAdjustment,
			ReversesMovementID: m.ID,
		})
		if err != nil {
			return nil, atStep(step, err)
		}
		res.Movements = append(res.Movements, r.Movement)
		if r.Warning != nil {
			res.Warnings = append(res.Warnings, *r.Warning)
		}
		if err := c.mark(ctx, s, tc, id, entity.OperationReverse, step); err != nil {
			return nil, atStep(step, err)
		}
	}
	for _, e := range entries {
		step := entity.BalanceStep(e.PartyID)
		if completed[step] {
			continue
		}
		r, err := c.balance.Apply(ctx, s, tc, BalanceDelta{
			PartyID:         e.PartyID,
			DocumentID:      id,
			Amount:          e.Amount.Neg(),
			EntryType:       entity.LedgerEntryReversal,
			ReversesEntryID: e.ID,
		})
		if err != nil {
			return nil, atStep(step, err)
		}
		res.Entries = append(res.Entries, r.Entry)
		if err := c.mark(ctx, s, tc, id, entity.OperationReverse, step); err != nil {
			return nil, atStep(step, err)
		}
	}

	now = c.now().UTC()
	if err := s.Documents.UpdateStatus(ctx, tc.TenantID, id, entity.StatusReversalPending, entity.StatusCancelled, now); err != nil {
		return nil, atStep(entity.StepCancelled, err)
	}
	doc.Status, doc.UpdatedAt = entity.StatusCancelled, now
	if err := c.mark(ctx, s, tc, id, entity.OperationReverse, entity.StepCancelled); err != nil {
		c.log.Warn().Err(err).Str("document_id", id).Msg("no se registró el paso cancelled")
	}
	return res, nil
}

// reversible movimientos y asientos originales (aplicados) de un documento, ordenados.
func reversible(ctx context.Context, s repository.Stores, tc domain.TenantContext, id string) ([]*entity.StockMovement, []*entity.LedgerEntry, error) {
	movements, err := s.Movements.ListByDocument(ctx, tc.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	var originals []*entity.StockMovement
	for _, m := range movements {
		if m.ReversesMovementID == "" && m.Type != entity.MovementAdjustment && m.Applied() {
			originals = append(originals, m)
		}
	}
	sort.Slice(originals, func(i, j int) bool { return originals[i].ProductID < originals[j].ProductID })

	all, err := s.Entries.ListByDocument(ctx, tc.TenantID, id)
	if err != nil {
		return nil, nil, err
	}
	var entries []*entity.LedgerEntry
	for _, e := range all {
		if e.EntryType == entity.LedgerEntryDocument && e.Applied() {
			entries = append(entries, e)
		}
	}
	return originals, entries, nil
}

func (c *Coordinator) failReverse(ctx context.Context, tc domain.TenantContext, id string, cause error) error {
	step, inner := splitStep(cause)
	if step == stepResolve {
		return inner
	}
	c.metrics.DocumentProcessed("", entity.OperationReverse, "failed")
	if c.uow.Atomic() {
		return &domain.DocumentError{DocumentID: id, Step: step, Discardable: true, Err: inner}
	}

	st, err := c.inspect(ctx, tc, id, entity.OperationReverse)
	if err != nil || st.doc == nil || st.doc.Status != entity.StatusReversalPending {
		return &domain.DocumentError{DocumentID: id, Step: step, Discardable: true, Err: inner}
	}
	var pending []string
	_ = c.uow.Run(ctx, tc, func(s repository.Stores) error {
		originals, entries, err := reversible(ctx, s, tc, id)
		if err != nil {
			return err
		}
		pending = remaining(reversePlan(originals, entries), st.completed)
		return nil
	})
	c.enqueue(ctx, tc, id, entity.OperationReverse, pending, inner)
	c.metrics.DocumentProcessed(string(st.doc.Kind), entity.OperationReverse, "incomplete")
	return &domain.IncompleteDocumentError{DocumentID: id, PendingSteps: pending, Err: inner}
}

// Resume completa la operación pendiente de un documento (creación o anulación).
func (c *Coordinator) Resume(ctx context.Context, tc domain.TenantContext, id string) (*DocumentResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	var (
		doc       *entity.Document
		items     []*entity.LineItem
		completed map[string]bool
	)
	err := c.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		if doc, err = s.Documents.GetByID(ctx, tc.TenantID, id); err != nil || doc == nil {
			return err
		}
		if items, err = s.Documents.GetItems(ctx, tc.TenantID, id); err != nil {
			return err
		}
		completed, err = s.Operations.CompletedSteps(ctx, tc.TenantID, id, entity.OperationCreate)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	if doc == nil {
		return nil, domain.DocumentNotFound(id)
	}

	switch doc.Status {
	case entity.StatusFinalized, entity.StatusCancelled:
		return c.GetDocument(ctx, tc, id)
	case entity.StatusReversalPending:
		return c.ReverseDocument(ctx, tc, id)
	case entity.StatusDraft:
		if !completed[entity.StepDocumentWritten] {
			return c.cancelOrphan(ctx, tc, doc)
		}
	}
	c.log.Info().Str("tenant_id", tc.TenantID).Str("document_id", id).Str("status", string(doc.Status)).Msg("reanudando documento")
	return c.create(ctx, tc, doc, items, false)
}

// cancelOrphan anula un encabezado cuyas líneas nunca quedaron registradas.
func (c *Coordinator) cancelOrphan(ctx context.Context, tc domain.TenantContext, doc *entity.Document) (*DocumentResult, error) {
	if c.now().Sub(doc.UpdatedAt) < c.staleAfter {
		return nil, fmt.Errorf("documento %s aún en proceso: %w", doc.ID, domain.ErrConflict)
	}
	now := c.now().UTC()
	err := c.withRetry(ctx, entity.OperationCreate, func(ctx context.Context) error {
		return c.uow.Run(ctx, tc, func(s repository.Stores) error {
			return s.Documents.UpdateStatus(ctx, tc.TenantID, doc.ID, entity.StatusDraft, entity.StatusCancelled, now)
		})
	})
	if err != nil {
		return nil, err
	}
	doc.Status, doc.UpdatedAt = entity.StatusCancelled, now
	c.log.Warn().Str("tenant_id", tc.TenantID).Str("document_id", doc.ID).Msg("encabezado huérfano anulado")
	return &DocumentResult{Document: doc}, nil
}

// GetDocument devuelve el documento con líneas, movimientos y asientos.
func (c *Coordinator) GetDocument(ctx context.Context, tc domain.TenantContext, id string) (*DocumentResult, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	var res *DocumentResult
	err := c.uow.Run(ctx, tc, func(s repository.Stores) error {
		doc, err := s.Documents.GetByID(ctx, tc.TenantID, id)
		if err != nil {
			return err
		}
		if doc == nil {
			return domain.DocumentNotFound(id)
		}
		res, err = c.loadResult(ctx, s, tc, doc)
		return err
	})
	return res, err
}

// ListDocuments lista documentos del tenant.
func (c *Coordinator) ListDocuments(ctx context.Context, tc domain.TenantContext, f repository.DocumentFilter) ([]*entity.Document, error) {
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	var list []*entity.Document
	err := c.uow.Run(ctx, tc, func(s repository.Stores) error {
		var err error
		list, err = s.Documents.List(ctx, tc.TenantID, f)
		return err
	})
	return list, err
}

// PendingReconciliation lista la cola operativa de reconciliación.
func (c *Coordinator) PendingReconciliation(ctx context.Context, limit int) ([]entity.ReconciliationItem, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return c.queue.List(ctx, limit)
}

func (c *Coordinator) loadResult(ctx context.Context, s repository.Stores, tc domain.TenantContext, doc *entity.Document) (*DocumentResult, error) {
	items, err := s.Documents.GetItems(ctx, tc.TenantID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}
	movements, err := s.Movements.ListByDocument(ctx, tc.TenantID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list movements: %w", err)
	}
	entries, err := s.Entries.ListByDocument(ctx, tc.TenantID, doc.ID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return &DocumentResult{Document: doc, Items: items, Movements: movements, Entries: entries}, nil
}

func (c *Coordinator) mark(ctx context.Context, s repository.Stores, tc domain.TenantContext, docID, operation, step string) error {
	return s.Operations.MarkStep(ctx, &entity.OperationStep{
		TenantID:    tc.TenantID,
		DocumentID:  docID,
		Operation:   operation,
		Step:        step,
		CompletedAt: c.now().UTC(),
	})
}

type inspection struct {
	doc        *entity.Document
	completed  map[string]bool
	hasEffects bool
}

// inspect lee el estado real de un documento tras una falla en modo no atómico.
func (c *Coordinator) inspect(ctx context.Context, tc domain.TenantContext, id, operation string) (*inspection, error) {
	out := &inspection{}
	err := c.withRetry(ctx, "inspect", func(ctx context.Context) error {
		return c.uow.Run(ctx, tc, func(s repository.Stores) error {
			doc, err := s.Documents.GetByID(ctx, tc.TenantID, id)
			if err != nil || doc == nil {
				return err
			}
			out.doc = doc
			if out.completed, err = s.Operations.CompletedSteps(ctx, tc.TenantID, id, operation); err != nil {
				return err
			}
			movements, err := s.Movements.ListByDocument(ctx, tc.TenantID, id)
			if err != nil {
				return err
			}
			entries, err := s.Entries.ListByDocument(ctx, tc.TenantID, id)
			if err != nil {
				return err
			}
			for _, m := range movements {
				out.hasEffects = out.hasEffects || m.Applied()
			}
			for _, e := range entries {
				out.hasEffects = out.hasEffects || e.Applied()
			}
			return nil
		})
	})
	return out, err
}

func (c *Coordinator) enqueue(ctx context.Context, tc domain.TenantContext, docID, operation string, pending []string, cause error) {
	item := entity.ReconciliationItem{
		ID:           c.newID(),
		TenantID:     tc.TenantID,
		DocumentID:   docID,
		Operation:    operation,
		PendingSteps: pending,
		Reason:       cause.Error(),
		EnqueuedAt:   c.now().UTC(),
	}
	if err := c.queue.Enqueue(ctx, item); err != nil {
		c.log.Error().Err(err).Str("document_id", docID).Msg("no se pudo encolar la reconciliación")
		return
	}
	c.metrics.ReconciliationEnqueued(operation)
}

func (c *Coordinator) publish(ctx context.Context, typ string, doc *entity.Document) {
	evt := entity.DocumentEvent{
		Type:           typ,
		TenantID:       doc.TenantID,
		DocumentID:     doc.ID,
		Kind:           string(doc.Kind),
		DocumentNumber: doc.DocumentNumber,
		PartyID:        doc.PartyID,
		GrandTotal:     doc.GrandTotal.String(),
		Status:         string(doc.Status),
		OccurredAt:     c.now().UTC(),
	}
	if err := c.events.Publish(ctx, evt); err != nil {
		c.log.Warn().Err(err).Str("document_id", doc.ID).Str("event", typ).Msg("publicar evento")
	}
}

func createPlan(doc *entity.Document, items []*entity.LineItem) []string {
	steps := []string{entity.StepDocumentWritten}
	for _, pd := range posting.StockDeltas(doc.Kind, items) {
		steps = append(steps, entity.StockStep(pd.ProductID))
	}
	if doc.PartyID != "" {
		steps = append(steps, entity.BalanceStep(doc.PartyID))
	}
	return append(steps, entity.StepFinalized)
}

func reversePlan(movements []*entity.StockMovement, entries []*entity.LedgerEntry) []string {
	steps := []string{entity.StepReversalStarted}
	for _, m := range movements {
		steps = append(steps, entity.StockStep(m.ProductID))
	}
	for _, e := range entries {
		steps = append(steps, entity.BalanceStep(e.PartyID))
	}
	return append(steps, entity.StepCancelled)
}

func remaining(plan []string, completed map[string]bool) []string {
	out := make([]string, 0, len(plan))
	for _, step := range plan {
		if !completed[step] {
			out = append(out, step)
		}
	}
	return out
}

// stepError anota el paso en que falló una operación.
type stepError struct {
	step string
	err  error
}

func (e *stepError) Error() string { return e.step + ": " + e.err.Error() }
func (e *stepError) Unwrap() error { return e.err }

func atStep(step string, err error) error {
	var se *stepError
	if errors.As(err, &se) {
		return err
	}
	return &stepError{step: step, err: err}
}

func splitStep(err error) (string, error) {
	var se *stepError
	if errors.As(err, &se) {
		return se.step, se.err
	}
	return "", err
}
