package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// OperationLogRepository registro de pasos completados por documento y operación.
type OperationLogRepository interface {
	// MarkStep es idempotente: repetir un paso ya registrado no falla.
	MarkStep(ctx context.Context, step *entity.OperationStep) error
	CompletedSteps(ctx context.Context, tenantID, documentID, operation string) (map[string]bool, error)
}
