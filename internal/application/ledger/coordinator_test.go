package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	tenantID = "tenant-1"
	prodA    = "prod-a"
	prodB    = "prod-b"
	partyP1  = "P1"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	store  *memory.Store
	queue  *memory.Queue
	events *memory.Publisher
	clock  *fakeClock
	coord  *ledger.Coordinator
	tc     domain.TenantContext
}

func newFixture(t *testing.T, atomic bool) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := memory.New(memory.WithAtomic(atomic), memory.WithClock(clock.Now))
	f := &fixture{
		store:  store,
		queue:  memory.NewQueue(),
		events: memory.NewPublisher(),
		clock:  clock,
		tc:     domain.TenantContext{TenantID: tenantID, UserID: "user-1", Role: domain.RoleOperator},
	}
	f.coord = ledger.NewCoordinator(store, zerolog.Nop(),
		ledger.WithQueue(f.queue),
		ledger.WithEvents(f.events),
		ledger.WithClock(clock.Now),
		ledger.WithRetryPolicy(ledger.RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}),
	)

	ctx := context.Background()
	s := store.Stores()
	for _, id := range []string{prodA, prodB} {
		require.NoError(t, s.Products.Create(ctx, &entity.Product{ID: id, TenantID: tenantID, SKU: "SKU-" + id, Name: "Producto " + id}))
	}
	require.NoError(t, s.Parties.Create(ctx, &entity.Party{ID: partyP1, TenantID: tenantID, Name: "Proveedor Uno", Kind: entity.PartySupplier}))
	return f
}

// modes ejecuta el caso con almacén transaccional y con almacén no transaccional (saga).
func modes(t *testing.T, fn func(t *testing.T, atomic bool)) {
	t.Run("atomic", func(t *testing.T) { fn(t, true) })
	t.Run("saga", func(t *testing.T) { fn(t, false) })
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDec(t *testing.T, want string, got decimal.Decimal, msg ...string) {
	t.Helper()
	text := fmt.Sprintf("esperado %s, obtenido %s", want, got)
	if len(msg) > 0 {
		text = msg[0] + ": " + text
	}
	assert.True(t, dec(want).Equal(got), text)
}

func twoItemPurchase(number string) dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		DocumentNumber: number,
		PartyID:        partyP1,
		Date:           "2026-03-01",
		GrandTotal:     dec("110"),
		Items: []dto.DocumentItemRequest{
			{ProductID: prodA, Quantity: dec("5"), UnitPrice: dec("10")},
			{ProductID: prodB, Quantity: dec("3"), UnitPrice: dec("20")},
		},
	}
}

func (f *fixture) stock(t *testing.T, productID string) decimal.Decimal {
	t.Helper()
	p, err := f.store.Stores().Products.GetByID(context.Background(), tenantID, productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.StockQuantity
}

func (f *fixture) balance(t *testing.T, partyID string) decimal.Decimal {
	t.Helper()
	p, err := f.store.Stores().Parties.GetByID(context.Background(), tenantID, partyID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.CurrentBalance
}

// ── Escenario base ──────────────────────────────────────────────────────────

func TestCreatePurchaseDocument_TwoItems(t *testing.T) {
	modes(t, func(t *testing.T, atomic bool) {
		f := newFixture(t, atomic)

		res, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, twoItemPurchase("FC-001"))
		require.NoError(t, err)

		assert.Equal(t, entity.StatusFinalized, res.Document.Status)
		assert.Equal(t, entity.PaymentUnpaid, res.Document.PaymentStatus)
		assert.Empty(t, res.Warnings)
		require.Len(t, res.Movements, 2)
		for _, m := range res.Movements {
			assert.True(t, m.Applied())
			assert.Equal(t, entity.MovementPurchaseReceived, m.Type)
		}
		assertDec(t, "5", f.stock(t, prodA))
		assertDec(t, "3", f.stock(t, prodB))
		assertDec(t, "-110", f.balance(t, partyP1))

		evts := f.events.Events()
		require.Len(t, evts, 1)
		assert.Equal(t, entity.EventDocumentFinalized, evts[0].Type)
		assert.Equal(t, res.Document.ID, evts[0].DocumentID)
	})
}

func TestCreatePurchaseDocument_PaidProducesSingleNetZeroEntry(t *testing.T) {
	f := newFixture(t, false)
	req := twoItemPurchase("FC-002")
	req.PaymentStatus = "paid"

	res, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, req)
	require.NoError(t, err)
	assertDec(t, "110", res.Document.AmountPaid)

	entries, err := f.store.Stores().Entries.ListByDocument(context.Background(), tenantID, res.Document.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assertDec(t, "0", entries[0].Amount)
	assertDec(t, "0", f.balance(t, partyP1))
}

func TestCreatePurchaseDocument_CashPurchaseWithoutParty(t *testing.T) {
	f := newFixture(t, true)
	req := twoItemPurchase("FC-003")
	req.PartyID = ""
	req.PartyName = "Mercado central"
	req.PaymentStatus = "paid"

	res, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, req)
	require.NoError(t, err)
	assert.Empty(t, res.Entries)
	assertDec(t, "5", f.stock(t, prodA))
}

// ── Fallas transitorias y reintentos ────────────────────────────────────────

func TestCreatePurchaseDocument_TransientFailureBeforeSecondProduct(t *testing.T) {
	modes(t, func(t *testing.T, atomic bool) {
		f := newFixture(t, atomic)
		// la segunda aplicación de stock corresponde a prod-b (orden por ID)
		f.store.FailOnCall(memory.OpMovementsApply, 2)

		res, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, twoItemPurchase("FC-010"))
		require.NoError(t, err)

		assert.Equal(t, entity.StatusFinalized, res.Document.Status)
		assertDec(t, "5", f.stock(t, prodA), "prod-a no debe recibir un segundo +5")
		assertDec(t, "3", f.stock(t, prodB))
		assertDec(t, "-110", f.balance(t, partyP1))

		movements, err := f.store.Stores().Movements.ListByDocument(context.Background(), tenantID, res.Document.ID)
		require.NoError(t, err)
		assert.Len(t, movements, 2)
	})
}

func TestCreatePurchaseDocument_FailureAfterApplyBeforeStepIsRecorded(t *testing.T) {
	f := newFixture(t, false)
	// marca 1 = document_written, marca 2 = stock:prod-a (ya aplicado)
	f.store.FailOnCall(memory.OpStepsMark, 2)

	_, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, twoItemPurchase("FC-011"))
	require.NoError(t, err)

	assertDec(t, "5", f.stock(t, prodA))
	assertDec(t, "3", f.stock(t, prodB))
	assertDec(t, "-110", f.balance(t, partyP1))
}

func TestCreatePurchaseDocument_TerminalFailure_Saga(t *testing.T) {
	f := newFixture(t, false)
	f.store.FailFromCall(memory.OpEntriesApply, 1)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-020"))
	require.Error(t, err)

	var incomplete *domain.IncompleteDocumentError
	require.True(t, errors.As(err, &incomplete))
	assert.Equal(t, []string{entity.BalanceStep(partyP1), entity.StepFinalized}, incomplete.PendingSteps)
	assert.True(t, domain.IsTransient(err))

	doc, err := f.store.Stores().Documents.GetByID(ctx, tenantID, incomplete.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPendingReconciliation, doc.Status)

	items, err := f.queue.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, incomplete.DocumentID, items[0].DocumentID)

	// ── reanudación ──
	f.store.ClearFaults()
	res, err := f.coord.Resume(ctx, f.tc, incomplete.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinalized, res.Document.Status)
	assertDec(t, "5", f.stock(t, prodA))
	assertDec(t, "3", f.stock(t, prodB))
	assertDec(t, "-110", f.balance(t, partyP1))
}

func TestCreatePurchaseDocument_TerminalFailure_Atomic(t *testing.T) {
	f := newFixture(t, true)
	f.store.FailFromCall(memory.OpEntriesApply, 1)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-021"))
	require.Error(t, err)

	var docErr *domain.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.True(t, docErr.Discardable)
	assert.Equal(t, entity.BalanceStep(partyP1), docErr.Step)

	_, err = f.coord.GetDocument(ctx, f.tc, docErr.DocumentID)
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	assertDec(t, "0", f.stock(t, prodA))
	assertDec(t, "0", f.balance(t, partyP1))
}

func TestCreatePurchaseDocument_PartialWrite_Saga(t *testing.T) {
	f := newFixture(t, false)
	f.store.FailFromCall(memory.OpDocumentsCreateItems, 1)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-030"))
	require.Error(t, err)

	var partial *domain.PartialWriteError
	require.True(t, errors.As(err, &partial))
	var docErr *domain.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.True(t, docErr.Discardable)

	doc, err := f.store.Stores().Documents.GetByID(ctx, tenantID, partial.DocumentID)
	require.NoError(t, err)
	assert.Nil(t, doc, "el encabezado sin líneas se descarta")
	assertDec(t, "0", f.stock(t, prodA))
}

func TestCreatePurchaseDocument_DiscardedNumberCanBeResubmitted(t *testing.T) {
	f := newFixture(t, false)
	f.store.FailFromCall(memory.OpMovementsAppend, 1)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-900"))
	var docErr *domain.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.True(t, docErr.Discardable)
	assert.True(t, domain.IsTransient(err))

	f.store.ClearFaults()
	res, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-900"))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFinalized, res.Document.Status)
	assert.NotEqual(t, docErr.DocumentID, res.Document.ID)
	assertDec(t, "5", f.stock(t, prodA))
	assertDec(t, "-110", f.balance(t, partyP1))
}

func TestCreatePurchaseDocument_DiscardRemovesUnappliedMovements(t *testing.T) {
	f := newFixture(t, false)
	f.store.FailFromCall(memory.OpMovementsApply, 1)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-901"))
	var docErr *domain.DocumentError
	require.True(t, errors.As(err, &docErr))
	assert.True(t, docErr.Discardable)

	s := f.store.Stores()
	movements, err := s.Movements.ListByDocument(ctx, tenantID, docErr.DocumentID)
	require.NoError(t, err)
	assert.Empty(t, movements, "no quedan movimientos de un documento inexistente")
	steps, err := s.Operations.CompletedSteps(ctx, tenantID, docErr.DocumentID, entity.OperationCreate)
	require.NoError(t, err)
	assert.Empty(t, steps)
	doc, err := s.Documents.GetByID(ctx, tenantID, docErr.DocumentID)
	require.NoError(t, err)
	assert.Nil(t, doc)

	f.store.ClearFaults()
	_, err = f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-901"))
	require.NoError(t, err)
	assertDec(t, "5", f.stock(t, prodA))
}

// ── Validación y referencias ────────────────────────────────────────────────

func TestCreatePurchaseDocument_Validation(t *testing.T) {
	f := newFixture(t, true)
	tests := []struct {
		name   string
		mutate func(r *dto.CreateDocumentRequest)
	}{
		{"sin líneas", func(r *dto.CreateDocumentRequest) { r.Items = nil }},
		{"total no cuadra", func(r *dto.CreateDocumentRequest) { r.GrandTotal = dec("120") }},
		{"cantidad negativa", func(r *dto.CreateDocumentRequest) { r.Items[0].Quantity = dec("-5") }},
		{"precio negativo", func(r *dto.CreateDocumentRequest) { r.Items[1].UnitPrice = dec("-1") }},
		{"line_total inconsistente", func(r *dto.CreateDocumentRequest) { lt := dec("51"); r.Items[0].LineTotal = &lt }},
		{"sin número", func(r *dto.CreateDocumentRequest) { r.DocumentNumber = "" }},
		{"fecha inválida", func(r *dto.CreateDocumentRequest) { r.Date = "01/03/2026" }},
		{"sin tercero y sin pagar", func(r *dto.CreateDocumentRequest) { r.PartyID = "" }},
		{"pagado con monto distinto", func(r *dto.CreateDocumentRequest) { r.PaymentStatus = "paid"; r.AmountPaid = dec("100") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := twoItemPurchase("FC-V")
			tt.mutate(&req)
			_, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, req)
			require.Error(t, err)
			var verr *domain.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
	assertDec(t, "0", f.stock(t, prodA))
}

func TestCreatePurchaseDocument_ToleranceAccepted(t *testing.T) {
	f := newFixture(t, true)
	req := twoItemPurchase("FC-T")
	req.GrandTotal = dec("110.01")

	_, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, req)
	require.NoError(t, err)
}

func TestCreatePurchaseDocument_UnknownReferences(t *testing.T) {
	modes(t, func(t *testing.T, atomic bool) {
		f := newFixture(t, atomic)
		ctx := context.Background()

		req := twoItemPurchase("FC-040")
		req.Items[1].ProductID = "prod-x"
		_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, req)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)

		req = twoItemPurchase("FC-041")
		req.PartyID = "P404"
		_, err = f.coord.CreatePurchaseDocument(ctx, f.tc, req)
		assert.ErrorIs(t, err, domain.ErrPartyNotFound)

		docs, err := f.coord.ListDocuments(ctx, f.tc, repositoryFilter())
		require.NoError(t, err)
		assert.Empty(t, docs)
		assertDec(t, "0", f.stock(t, prodA))
	})
}

func TestCreatePurchaseDocument_ForeignTenantProduct(t *testing.T) {
	f := newFixture(t, true)
	other := domain.TenantContext{TenantID: "tenant-2", UserID: "user-9"}
	ctx := context.Background()
	require.NoError(t, f.store.Stores().Parties.Create(ctx, &entity.Party{ID: "P2", TenantID: "tenant-2", Name: "Otro"}))

	req := twoItemPurchase("FC-050")
	req.PartyID = "P2"
	_, err := f.coord.CreatePurchaseDocument(ctx, other, req)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
	assertDec(t, "0", f.stock(t, prodA))
}

func TestCreatePurchaseDocument_DuplicateNumber(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-060"))
	require.NoError(t, err)
	_, err = f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-060"))
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	assertDec(t, "5", f.stock(t, prodA))
}

func TestCreateDocument_RequiresTenant(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.coord.CreatePurchaseDocument(context.Background(), domain.TenantContext{}, twoItemPurchase("FC-070"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

// ── Ventas, pagos y avisos ──────────────────────────────────────────────────

func TestCreateSaleDocument_NegativeStockWarns(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	require.NoError(t, f.store.Stores().Parties.Create(ctx, &entity.Party{ID: "C1", TenantID: tenantID, Name: "Cliente", Kind: entity.PartyCustomer}))

	res, err := f.coord.CreateSaleDocument(ctx, f.tc, dto.CreateDocumentRequest{
		DocumentNumber: "FV-001",
		PartyID:        "C1",
		Date:           "2026-03-02",
		GrandTotal:     dec("30"),
		AmountPaid:     dec("10"),
		Items:          []dto.DocumentItemRequest{{ProductID: prodA, Quantity: dec("2"), UnitPrice: dec("15")}},
	})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, prodA, res.Warnings[0].ProductID)
	assertDec(t, "-2", res.Warnings[0].Quantity)
	assertDec(t, "-2", f.stock(t, prodA))
	assert.Equal(t, entity.PaymentPartial, res.Document.PaymentStatus)
	assertDec(t, "20", f.balance(t, "C1"))
}

func TestCreatePayment_MovesBalanceTowardZero(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-080"))
	require.NoError(t, err)

	res, err := f.coord.CreatePayment(ctx, f.tc, dto.CreatePaymentRequest{
		Direction: "out", DocumentNumber: "PG-001", PartyID: partyP1, Date: "2026-03-03", Amount: dec("60"),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DocumentPaymentOut, res.Document.Kind)
	assert.Empty(t, res.Movements)
	assertDec(t, "-50", f.balance(t, partyP1))

	_, err = f.coord.CreatePayment(ctx, f.tc, dto.CreatePaymentRequest{
		Direction: "sideways", DocumentNumber: "PG-002", PartyID: partyP1, Date: "2026-03-03", Amount: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Anulación ───────────────────────────────────────────────────────────────

func TestReverseDocument_Finalized(t *testing.T) {
	modes(t, func(t *testing.T, atomic bool) {
		f := newFixture(t, atomic)
		ctx := context.Background()

		created, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-100"))
		require.NoError(t, err)
		id := created.Document.ID

		res, err := f.coord.ReverseDocument(ctx, f.tc, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, res.Document.Status)
		assert.Len(t, res.Movements, 2)
		assert.Len(t, res.Entries, 1)

		assertDec(t, "0", f.stock(t, prodA))
		assertDec(t, "0", f.stock(t, prodB))
		assertDec(t, "0", f.balance(t, partyP1))

		movements, err := f.store.Stores().Movements.ListByDocument(ctx, tenantID, id)
		require.NoError(t, err)
		require.Len(t, movements, 4, "originales + compensatorios")
		originals := map[string]*entity.StockMovement{}
		for _, m := range movements {
			if m.ReversesMovementID == "" {
				originals[m.ID] = m
			}
		}
		for _, m := range movements {
			if m.ReversesMovementID != "" {
				orig := originals[m.ReversesMovementID]
				require.NotNil(t, orig)
				assert.Equal(t, entity.MovementAdjustment, m.Type)
				assert.True(t, orig.DeltaQuantity.Neg().Equal(m.DeltaQuantity))
			}
		}

		// reintento de la anulación: sin efectos nuevos
		again, err := f.coord.ReverseDocument(ctx, f.tc, id)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCancelled, again.Document.Status)
		assertDec(t, "0", f.stock(t, prodA))

		evts := f.events.Events()
		assert.Equal(t, entity.EventDocumentReversed, evts[len(evts)-1].Type)
	})
}

func TestReverseDocument_Draft(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	now := f.clock.Now()
	require.NoError(t, f.store.Stores().Documents.Create(ctx, &entity.Document{
		ID: "doc-draft", TenantID: tenantID, Kind: entity.DocumentPurchase, DocumentNumber: "FC-D",
		PartyID: partyP1, Date: now, GrandTotal: dec("10"), Status: entity.StatusDraft,
		PaymentStatus: entity.PaymentUnpaid, CreatedAt: now, UpdatedAt: now,
	}))

	res, err := f.coord.ReverseDocument(ctx, f.tc, "doc-draft")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, res.Document.Status)
	assert.Empty(t, res.Movements)
}

func TestReverseDocument_PendingReconciliationConflicts(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.FailFromCall(memory.OpEntriesApply, 1)
	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-110"))
	var incomplete *domain.IncompleteDocumentError
	require.True(t, errors.As(err, &incomplete))
	f.store.ClearFaults()

	_, err = f.coord.ReverseDocument(ctx, f.tc, incomplete.DocumentID)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestReverseDocument_NotFound(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.coord.ReverseDocument(context.Background(), f.tc, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
}

func TestReverseDocument_TerminalFailureThenResume(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	created, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-120"))
	require.NoError(t, err)

	f.store.FailFromCall(memory.OpEntriesApply, 1)
	_, err = f.coord.ReverseDocument(ctx, f.tc, created.Document.ID)
	var incomplete *domain.IncompleteDocumentError
	require.True(t, errors.As(err, &incomplete))
	assert.Contains(t, incomplete.PendingSteps, entity.BalanceStep(partyP1))
	assertDec(t, "0", f.stock(t, prodA), "compensaciones de stock ya aplicadas")
	assertDec(t, "-110", f.balance(t, partyP1))

	f.store.ClearFaults()
	res, err := f.coord.Resume(ctx, f.tc, created.Document.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, res.Document.Status)
	assertDec(t, "0", f.balance(t, partyP1))
	assertDec(t, "0", f.stock(t, prodA))
}

// ── Concurrencia ────────────────────────────────────────────────────────────

func TestConcurrentPurchases_NoLostUpdates(t *testing.T) {
	modes(t, func(t *testing.T, atomic bool) {
		f := newFixture(t, atomic)
		const n = 25
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := f.coord.CreatePurchaseDocument(context.Background(), f.tc, dto.CreateDocumentRequest{
					DocumentNumber: fmt.Sprintf("FC-C%03d", i),
					PartyID:        partyP1,
					Date:           "2026-03-05",
					GrandTotal:     dec("10"),
					Items:          []dto.DocumentItemRequest{{ProductID: prodA, Quantity: dec("1"), UnitPrice: dec("10")}},
				})
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}
		assertDec(t, "25", f.stock(t, prodA))
		assertDec(t, "-250", f.balance(t, partyP1))

		ledgerQty, err := f.store.Stores().Products.LedgerQuantity(context.Background(), tenantID, prodA)
		require.NoError(t, err)
		assertDec(t, "25", ledgerQty)
	})
}

// ── Reconciliador ───────────────────────────────────────────────────────────

func TestReconciler_ResumesStuckDocuments(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.FailFromCall(memory.OpEntriesApply, 1)
	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-200"))
	require.ErrorIs(t, err, domain.ErrIncompleteDocument)
	f.store.ClearFaults()

	rec := ledger.NewReconciler(f.coord, f.store.Stores().Documents, zerolog.Nop())
	rec.StaleAfter = time.Minute

	report, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned, "todavía no es viejo")

	f.clock.Advance(2 * time.Minute)
	report, err = rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Scanned)
	assert.Equal(t, 1, report.Finalized)
	assertDec(t, "-110", f.balance(t, partyP1))
}

type passLock struct {
	held     bool
	released int
}

func (l *passLock) TryLock(context.Context) (func(), bool, error) {
	if l.held {
		return nil, false, nil
	}
	l.held = true
	return func() { l.held = false; l.released++ }, true, nil
}

func TestReconciler_SkipsPassWhenLockHeld(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	f.store.FailFromCall(memory.OpEntriesApply, 1)
	_, err := f.coord.CreatePurchaseDocument(ctx, f.tc, twoItemPurchase("FC-201"))
	require.ErrorIs(t, err, domain.ErrIncompleteDocument)
	f.store.ClearFaults()
	f.clock.Advance(10 * time.Minute)

	lock := &passLock{held: true}
	rec := ledger.NewReconciler(f.coord, f.store.Stores().Documents, zerolog.Nop())
	rec.Lock = lock

	report, err := rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Scanned, "otra instancia tiene el lock")

	lock.held = false
	report, err = rec.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Finalized)
	assert.Equal(t, 1, lock.released)
	assert.False(t, lock.held)
}

func TestResume_CancelsOrphanHeader(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	now := f.clock.Now()
	require.NoError(t, f.store.Stores().Documents.Create(ctx, &entity.Document{
		ID: "doc-orphan", TenantID: tenantID, Kind: entity.DocumentPurchase, DocumentNumber: "FC-O",
		PartyID: partyP1, Date: now, GrandTotal: dec("10"), Status: entity.StatusDraft,
		PaymentStatus: entity.PaymentUnpaid, CreatedAt: now, UpdatedAt: now,
	}))

	_, err := f.coord.Resume(ctx, f.tc, "doc-orphan")
	assert.ErrorIs(t, err, domain.ErrConflict, "reciente: puede estar en proceso")

	f.clock.Advance(10 * time.Minute)
	res, err := f.coord.Resume(ctx, f.tc, "doc-orphan")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, res.Document.Status)
}

func repositoryFilter() repository.DocumentFilter {
	return repository.DocumentFilter{Limit: 50}
}
