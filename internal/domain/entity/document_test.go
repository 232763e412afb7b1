package entity_test

import (
	"testing"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestDocumentStatus_CanTransition(t *testing.T) {
	// ── transiciones hacia adelante ──
	assert.True(t, entity.StatusDraft.CanTransition(entity.StatusFinalized))
	assert.True(t, entity.StatusDraft.CanTransition(entity.StatusPendingReconciliation))
	assert.True(t, entity.StatusDraft.CanTransition(entity.StatusCancelled))
	assert.True(t, entity.StatusPendingReconciliation.CanTransition(entity.StatusFinalized))
	assert.True(t, entity.StatusFinalized.CanTransition(entity.StatusReversalPending))
	assert.True(t, entity.StatusReversalPending.CanTransition(entity.StatusCancelled))

	// ── nunca se reabre ni se retrocede ──
	assert.False(t, entity.StatusCancelled.CanTransition(entity.StatusDraft))
	assert.False(t, entity.StatusCancelled.CanTransition(entity.StatusFinalized))
	assert.False(t, entity.StatusFinalized.CanTransition(entity.StatusDraft))
	assert.False(t, entity.StatusPendingReconciliation.CanTransition(entity.StatusCancelled))
}

func TestDocumentKind(t *testing.T) {
	assert.True(t, entity.DocumentPurchase.CarriesItems())
	assert.True(t, entity.DocumentSale.CarriesItems())
	assert.False(t, entity.DocumentPaymentIn.CarriesItems())
	assert.False(t, entity.DocumentKind("refund").Valid())
}
