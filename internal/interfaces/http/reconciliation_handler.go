package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/rs/zerolog"
)

// ReconciliationHandler operación de la cola de reconciliación (solo admin).
type ReconciliationHandler struct {
	coord      *ledger.Coordinator
	reconciler *ledger.Reconciler
	log        zerolog.Logger
}

func NewReconciliationHandler(coord *ledger.Coordinator, reconciler *ledger.Reconciler, log zerolog.Logger) *ReconciliationHandler {
	return &ReconciliationHandler{coord: coord, reconciler: reconciler, log: log}
}

// ListQueue godoc
// @Summary      Documentos encolados para reconciliación
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "Límite"  default(50)
// @Success      200    {array}  dto.ReconciliationItemResponse
// @Router       /api/admin/reconciliation [get]
func (h *ReconciliationHandler) ListQueue(c *fiber.Ctx) error {
	items, err := h.coord.PendingReconciliation(c.UserContext(), c.QueryInt("limit", 50))
	if err != nil {
		return writeError(c, h.log, err)
	}
	tenantID := GetTenantID(c)
	out := make([]dto.ReconciliationItemResponse, 0, len(items))
	for _, it := range items {
		// la cola es global; cada admin ve solo su tenant
		if it.TenantID != tenantID {
			continue
		}
		out = append(out, dto.ReconciliationItemResponse{
			ID:           it.ID,
			TenantID:     it.TenantID,
			DocumentID:   it.DocumentID,
			Operation:    it.Operation,
			PendingSteps: it.PendingSteps,
			Reason:       it.Reason,
			EnqueuedAt:   it.EnqueuedAt,
		})
	}
	return c.JSON(out)
}

// RunOnce godoc
// @Summary      Ejecutar una pasada del reconciliador
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  ledger.ReconcileReport
// @Router       /api/admin/reconciliation/run [post]
func (h *ReconciliationHandler) RunOnce(c *fiber.Ctx) error {
	if h.reconciler == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "RECONCILER_DISABLED", Message: "reconciliador no configurado"})
	}
	report, err := h.reconciler.RunOnce(c.UserContext())
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(fiber.Map{
		"scanned":   report.Scanned,
		"finalized": report.Finalized,
		"cancelled": report.Cancelled,
		"failed":    report.Failed,
	})
}
