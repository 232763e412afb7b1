package reports_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeRenderer struct{ sheet reports.DocumentSheet }

func (r *fakeRenderer) RenderDocument(_ context.Context, sheet reports.DocumentSheet) ([]byte, error) {
	r.sheet = sheet
	return []byte("%PDF-fake"), nil
}

type fakeExporter struct{ st *dto.PartyStatementResponse }

func (e *fakeExporter) ExportStatement(_ context.Context, st *dto.PartyStatementResponse) ([]byte, error) {
	e.st = st
	return []byte("xlsx"), nil
}

var tc = domain.TenantContext{TenantID: "tenant-1", UserID: "u1", Role: domain.RoleOperator}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fixture struct {
	uc       *reports.UseCase
	renderer *fakeRenderer
	exporter *fakeExporter
	// instante en que se registró el pago
	paymentAt time.Time
}

// newFixture compra 5 A + 3 B a crédito (110), paga 60 una hora después y vende 2 A de contado.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	clk := &clock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	store := memory.New(memory.WithAtomic(true), memory.WithClock(clk.Now))
	s := store.Stores()
	require.NoError(t, s.Products.Create(ctx, &entity.Product{ID: "A", TenantID: tc.TenantID, SKU: "A", Name: "Arroz"}))
	require.NoError(t, s.Products.Create(ctx, &entity.Product{ID: "B", TenantID: tc.TenantID, SKU: "B", Name: "Frijol"}))
	require.NoError(t, s.Parties.Create(ctx, &entity.Party{ID: "P1", TenantID: tc.TenantID, Name: "Proveedor Uno", Kind: entity.PartySupplier}))

	coord := ledger.NewCoordinator(store, zerolog.Nop(), ledger.WithClock(clk.Now))
	_, err := coord.CreatePurchaseDocument(ctx, tc, dto.CreateDocumentRequest{
		DocumentNumber: "FC-1", PartyID: "P1", Date: "2026-03-01", GrandTotal: dec("110"),
		Items: []dto.DocumentItemRequest{
			{ProductID: "A", Quantity: dec("5"), UnitPrice: dec("10")},
			{ProductID: "B", Quantity: dec("3"), UnitPrice: dec("20")},
		},
	})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	f := &fixture{renderer: &fakeRenderer{}, exporter: &fakeExporter{}, paymentAt: clk.Now()}
	_, err = coord.CreatePayment(ctx, tc, dto.CreatePaymentRequest{
		Direction: "out", DocumentNumber: "PG-1", PartyID: "P1", Date: "2026-03-02", Amount: dec("60"),
	})
	require.NoError(t, err)

	clk.Advance(time.Hour)
	_, err = coord.CreateSaleDocument(ctx, tc, dto.CreateDocumentRequest{
		DocumentNumber: "V-1", PartyName: "Mostrador", Date: "2026-03-03", GrandTotal: dec("30"),
		PaymentStatus: "paid",
		Items:         []dto.DocumentItemRequest{{ProductID: "A", Quantity: dec("2"), UnitPrice: dec("15")}},
	})
	require.NoError(t, err)

	f.uc = reports.NewUseCase(store, f.renderer, f.exporter, zerolog.Nop())
	return f
}

func TestPartyStatement_RunningBalance(t *testing.T) {
	f := newFixture(t)

	st, err := f.uc.PartyStatement(context.Background(), tc, "P1", nil, nil)
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, "FC-1", st.Lines[0].DocumentNumber)
	assert.True(t, dec("-110").Equal(st.Lines[0].Balance))
	assert.Equal(t, "PG-1", st.Lines[1].DocumentNumber)
	assert.True(t, dec("-50").Equal(st.Lines[1].Balance))
	assert.True(t, st.OpeningBalance.IsZero())
	assert.True(t, dec("-50").Equal(st.ClosingBalance))
	assert.True(t, st.ClosingBalance.Equal(st.Party.CurrentBalance), "el saldo final coincide con el saldo del tercero")
}

func TestPartyStatement_FromCarriesOpeningBalance(t *testing.T) {
	f := newFixture(t)
	from := f.paymentAt

	st, err := f.uc.PartyStatement(context.Background(), tc, "P1", &from, nil)
	require.NoError(t, err)
	assert.True(t, dec("-110").Equal(st.OpeningBalance))
	require.Len(t, st.Lines, 1)
	assert.True(t, dec("-50").Equal(st.ClosingBalance))
}

func TestPartyStatement_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.PartyStatement(context.Background(), tc, "missing", nil, nil)
	assert.ErrorIs(t, err, domain.ErrPartyNotFound)

	other := domain.TenantContext{TenantID: "tenant-2"}
	_, err = f.uc.PartyStatement(context.Background(), other, "P1", nil, nil)
	assert.ErrorIs(t, err, domain.ErrPartyNotFound)
}

func TestStockCardAndAudit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	card, err := f.uc.StockCard(ctx, tc, "A", nil, nil)
	require.NoError(t, err)
	require.Len(t, card.Lines, 2)
	assert.True(t, dec("5").Equal(card.Lines[0].Quantity))
	assert.True(t, dec("-2").Equal(card.Lines[1].Delta))
	assert.True(t, dec("3").Equal(card.Lines[1].Quantity))
	assert.True(t, dec("3").Equal(card.Product.StockQuantity))

	audit, err := f.uc.StockAudit(ctx, tc, "A")
	require.NoError(t, err)
	assert.True(t, audit.Consistent)
	assert.True(t, dec("3").Equal(audit.LedgerQuantity))

	_, err = f.uc.StockAudit(ctx, tc, "Z")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestCashbook(t *testing.T) {
	f := newFixture(t)

	book, err := f.uc.Cashbook(context.Background(), tc, nil, nil)
	require.NoError(t, err)
	require.Len(t, book.Lines, 2, "la compra a crédito no mueve caja")
	assert.Equal(t, "PG-1", book.Lines[0].DocumentNumber)
	assert.True(t, dec("60").Equal(book.Lines[0].CashOut))
	assert.Equal(t, "V-1", book.Lines[1].DocumentNumber)
	assert.True(t, dec("30").Equal(book.Lines[1].CashIn))
	assert.True(t, dec("30").Equal(book.TotalIn))
	assert.True(t, dec("60").Equal(book.TotalOut))
	assert.True(t, dec("-30").Equal(book.Net))
}

func TestDocumentPDFAndStatementXLSX(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	book, err := f.uc.Cashbook(ctx, tc, nil, nil)
	require.NoError(t, err)
	paymentID := book.Lines[0].DocumentID

	out, err := f.uc.DocumentPDF(ctx, tc, paymentID)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-fake", string(out))
	require.NotNil(t, f.renderer.sheet.Party)
	assert.Equal(t, "Proveedor Uno", f.renderer.sheet.Party.Name)

	_, err = f.uc.DocumentPDF(ctx, tc, "missing")
	assert.ErrorIs(t, err, domain.ErrDocumentNotFound)

	xlsx, err := f.uc.StatementXLSX(ctx, tc, "P1", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", string(xlsx))
	assert.Len(t, f.exporter.st.Lines, 2)

	bare := reports.NewUseCase(memory.New(), nil, nil, zerolog.Nop())
	_, err = bare.DocumentPDF(ctx, tc, paymentID)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
