package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.OperationLogRepository = (*OperationLogRepo)(nil)

// OperationLogRepo pasos completados de creación y anulación.
type OperationLogRepo struct {
	q Querier
}

// NewOperationLogRepository construye el adaptador. Pasar pool o tx (Querier).
func NewOperationLogRepository(q Querier) *OperationLogRepo {
	return &OperationLogRepo{q: q}
}

func (r *OperationLogRepo) MarkStep(ctx context.Context, step *entity.OperationStep) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO operation_steps (tenant_id, document_id, operation, step, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING`,
		step.TenantID, step.DocumentID, step.Operation, step.Step, step.CompletedAt)
	return classify("steps.mark", err)
}

func (r *OperationLogRepo) CompletedSteps(ctx context.Context, tenantID, documentID, operation string) (map[string]bool, error) {
	rows, err := r.q.Query(ctx, `
		SELECT step FROM operation_steps WHERE tenant_id = $1 AND document_id = $2 AND operation = $3`,
		tenantID, documentID, operation)
	if err != nil {
		return nil, classify("steps.list", err)
	}
	defer rows.Close()
	out := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		out[s] = true
	}
	return out, classify("steps.list", rows.Err())
}
