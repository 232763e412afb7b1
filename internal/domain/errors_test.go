package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotFoundError_Taxonomy(t *testing.T) {
	err := fmt.Errorf("aplicar stock: %w", domain.ProductNotFound("p-1"))

	assert.True(t, errors.Is(err, domain.ErrProductNotFound))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrPartyNotFound))

	var nf *domain.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "p-1", nf.ID)
}

func TestStoreError_Transient(t *testing.T) {
	transient := domain.TransientStoreError("movements.apply", errors.New("timeout"))
	permanent := domain.PermanentStoreError("movements.apply", errors.New("syntax"))

	assert.True(t, domain.IsTransient(fmt.Errorf("wrap: %w", transient)))
	assert.False(t, domain.IsTransient(permanent))
	assert.False(t, domain.IsTransient(domain.ErrConflict))
}

func TestIncompleteDocumentError(t *testing.T) {
	cause := domain.TransientStoreError("entries.apply", errors.New("reset"))
	err := &domain.IncompleteDocumentError{DocumentID: "doc-1", PendingSteps: []string{"balance:p1"}, Err: cause}

	assert.True(t, errors.Is(err, domain.ErrIncompleteDocument))
	assert.True(t, errors.Is(err, domain.ErrTransient))
	assert.Contains(t, err.Error(), "balance:p1")
}

func TestValidationError(t *testing.T) {
	err := domain.NewValidationError("items", "requerido")
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.Equal(t, "validación: items: requerido", err.Error())
}

func TestTenantContext_Validate(t *testing.T) {
	assert.ErrorIs(t, domain.TenantContext{}.Validate(), domain.ErrUnauthorized)
	assert.NoError(t, domain.SystemContext("t1").Validate())
}
