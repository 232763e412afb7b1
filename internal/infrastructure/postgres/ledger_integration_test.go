//go:build integration

package postgres

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/pkg/config"
)

// Se ejecuta con:
//
//	LEDGER_TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infrastructure/postgres/
func integrationPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL no definido")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := NewPool(ctx, config.DBConfig{DatabaseURL: dsn, MaxConns: 10})
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, Migrate(ctx, pool))
	return pool
}

type seeded struct {
	tenant  string
	product string
	party   string
}

// seed crea un tenant aislado por prueba con un producto y un tercero en cero.
func seed(t *testing.T, pool *pgxpool.Pool) seeded {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()
	s := seeded{tenant: "it-" + uuid.NewString(), product: uuid.NewString(), party: uuid.NewString()}
	stores := NewStores(pool)
	require.NoError(t, stores.Products.Create(ctx, &entity.Product{
		ID: s.product, TenantID: s.tenant, SKU: "IT-" + s.product[:8], Name: "Arroz", Unit: "und",
		CreatedAt: now, UpdatedAt: now,
	}))
	require.NoError(t, stores.Parties.Create(ctx, &entity.Party{
		ID: s.party, TenantID: s.tenant, Name: "Proveedor", Kind: entity.PartySupplier,
		CreatedAt: now, UpdatedAt: now,
	}))
	return s
}

func movement(s seeded, documentID string, delta int64) *entity.StockMovement {
	return &entity.StockMovement{
		ID: uuid.NewString(), TenantID: s.tenant, ProductID: s.product, ReferenceDocumentID: documentID,
		Type: entity.MovementPurchaseReceived, DeltaQuantity: decimal.NewFromInt(delta),
		CreatedAt: time.Now().UTC(), CreatedBy: "it",
	}
}

func TestStockMovements_ConcurrentApplyIsAtomic(t *testing.T) {
	pool := integrationPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewStockMovementRepository(pool)

	const workers = 20
	ids := make([]string, workers)
	for i := range ids {
		m, created, err := repo.Append(ctx, movement(s, uuid.NewString(), 3))
		require.NoError(t, err)
		require.True(t, created)
		ids[i] = m.ID
	}

	var wg sync.WaitGroup
	errs := make(chan error, workers*2)
	applied := make(chan bool, workers*2)
	// cada movimiento se aplica dos veces en paralelo; solo una suma
	for _, id := range ids {
		for range 2 {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, ok, err := repo.Apply(ctx, s.tenant, id)
				errs <- err
				applied <- ok
			}(id)
		}
	}
	wg.Wait()
	close(errs)
	close(applied)

	for err := range errs {
		assert.NoError(t, err)
	}
	n := 0
	for ok := range applied {
		if ok {
			n++
		}
	}
	assert.Equal(t, workers, n)

	p, err := NewProductRepository(pool).GetByID(ctx, s.tenant, s.product)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(3*workers).Equal(p.StockQuantity), "stock=%s", p.StockQuantity)
}

func TestStockMovements_AppendOnConflictReturnsExisting(t *testing.T) {
	pool := integrationPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewStockMovementRepository(pool)
	doc := uuid.NewString()

	first, created, err := repo.Append(ctx, movement(s, doc, 5))
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := repo.Append(ctx, movement(s, doc, 5))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)

	list, err := repo.ListByDocument(ctx, s.tenant, doc)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestLedgerEntries_ConcurrentAppendAndApply(t *testing.T) {
	pool := integrationPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	repo := NewLedgerEntryRepository(pool)
	doc := uuid.NewString()

	const workers = 10
	var wg sync.WaitGroup
	ids := make(chan string, workers)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e, _, err := repo.Append(ctx, &entity.LedgerEntry{
				ID: uuid.NewString(), TenantID: s.tenant, PartyID: s.party, DocumentID: doc,
				EntryType: entity.LedgerEntryDocument, Amount: decimal.NewFromInt(-110), CreatedAt: time.Now().UTC(),
			})
			if assert.NoError(t, err) {
				ids <- e.ID
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	require.Len(t, seen, 1, "todas las llamadas devuelven el mismo asiento")

	var entryID string
	for id := range seen {
		entryID = id
	}
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := repo.Apply(ctx, s.tenant, entryID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	party, err := NewPartyRepository(pool).GetByID(ctx, s.tenant, s.party)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(-110).Equal(party.CurrentBalance), "saldo=%s", party.CurrentBalance)
}

func TestDocuments_DiscardReleasesNumber(t *testing.T) {
	pool := integrationPool(t)
	s := seed(t, pool)
	ctx := context.Background()
	stores := NewStores(pool)
	now := time.Now().UTC()

	newDoc := func() *entity.Document {
		return &entity.Document{
			ID: uuid.NewString(), TenantID: s.tenant, Kind: entity.DocumentPurchase, DocumentNumber: "FC-IT-1",
			PartyID: s.party, Date: now, GrandTotal: decimal.NewFromInt(15), Status: entity.StatusDraft,
			PaymentStatus: entity.PaymentUnpaid, CreatedBy: "it", CreatedAt: now, UpdatedAt: now,
		}
	}
	doc := newDoc()
	require.NoError(t, stores.Documents.Create(ctx, doc))
	require.NoError(t, stores.Documents.CreateItems(ctx, s.tenant, []*entity.LineItem{{
		ID: uuid.NewString(), DocumentID: doc.ID, Position: 1, ProductID: s.product,
		Quantity: decimal.NewFromInt(5), UnitPrice: decimal.NewFromInt(3), LineTotal: decimal.NewFromInt(15),
	}}))
	_, _, err := stores.Movements.Append(ctx, movement(s, doc.ID, 5))
	require.NoError(t, err)
	require.NoError(t, stores.Operations.MarkStep(ctx, &entity.OperationStep{
		TenantID: s.tenant, DocumentID: doc.ID, Operation: entity.OperationCreate, Step: entity.StepDocumentWritten, CompletedAt: now,
	}))

	ok, err := stores.Documents.Discard(ctx, "otro-tenant", doc.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = stores.Documents.Discard(ctx, s.tenant, doc.ID)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := stores.Documents.GetByID(ctx, s.tenant, doc.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	list, err := stores.Movements.ListByDocument(ctx, s.tenant, doc.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	steps, err := stores.Operations.CompletedSteps(ctx, s.tenant, doc.ID, entity.OperationCreate)
	require.NoError(t, err)
	assert.Empty(t, steps)

	// el número queda libre para el reenvío
	again := newDoc()
	require.NoError(t, stores.Documents.Create(ctx, again))

	// con un movimiento aplicado ya no se descarta
	m, _, err := stores.Movements.Append(ctx, movement(s, again.ID, 1))
	require.NoError(t, err)
	_, _, err = stores.Movements.Apply(ctx, s.tenant, m.ID)
	require.NoError(t, err)
	ok, err = stores.Documents.Discard(ctx, s.tenant, again.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}
