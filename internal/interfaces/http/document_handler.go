package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// DocumentHandler compras, ventas, pagos y anulaciones (protegido).
type DocumentHandler struct {
	coord *ledger.Coordinator
	log   zerolog.Logger
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(coord *ledger.Coordinator, log zerolog.Logger) *DocumentHandler {
	return &DocumentHandler{coord: coord, log: log}
}

// CreatePurchase godoc
// @Summary      Registrar factura de compra
// @Description  Escribe el documento, suma stock por producto y ajusta el saldo del proveedor.
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Documento"
// @Success      201   {object}  dto.DocumentResponse
// @Success      202   {object}  dto.IncompleteDocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/documents/purchases [post]
func (h *DocumentHandler) CreatePurchase(c *fiber.Ctx) error {
	return h.createWithItems(c, entity.DocumentPurchase)
}

// CreateSale godoc
// @Summary      Registrar factura de venta
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateDocumentRequest  true  "Documento"
// @Success      201   {object}  dto.DocumentResponse
// @Success      202   {object}  dto.IncompleteDocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents/sales [post]
func (h *DocumentHandler) CreateSale(c *fiber.Ctx) error {
	return h.createWithItems(c, entity.DocumentSale)
}

func (h *DocumentHandler) createWithItems(c *fiber.Ctx, kind entity.DocumentKind) error {
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.coord.CreateDocument(c.UserContext(), GetTenant(c), kind, in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(res))
}

// CreatePayment godoc
// @Summary      Registrar pago a proveedor o cobro a cliente
// @Tags         documents
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePaymentRequest  true  "Pago"
// @Success      201   {object}  dto.DocumentResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/documents/payments [post]
func (h *DocumentHandler) CreatePayment(c *fiber.Ctx) error {
	var in dto.CreatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	res, err := h.coord.CreatePayment(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(toDocumentResponse(res))
}

// GetByID godoc
// @Summary      Obtener documento con líneas y movimientos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/documents/{id} [get]
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	res, err := h.coord.GetDocument(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDocumentResponse(res))
}

// List godoc
// @Summary      Listar documentos
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        kind      query  string  false  "purchase|sale|payment_out|payment_in"
// @Param        status    query  string  false  "Estado"
// @Param        party_id  query  string  false  "Tercero"
// @Param        from      query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to        query  string  false  "Hasta (YYYY-MM-DD)"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200  {object}  dto.DocumentListResponse
// @Router       /api/documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	p := page(c)
	list, err := h.coord.ListDocuments(c.UserContext(), GetTenant(c), repository.DocumentFilter{
		Kind:    entity.DocumentKind(c.Query("kind")),
		Status:  entity.DocumentStatus(c.Query("status")),
		PartyID: c.Query("party_id"),
		From:    from,
		To:      to,
		Limit:   p.Limit,
		Offset:  p.Offset,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	items := make([]dto.DocumentResponse, 0, len(list))
	for _, d := range list {
		items = append(items, *toDocumentResponse(&ledger.DocumentResult{Document: d}))
	}
	return c.JSON(dto.DocumentListResponse{Items: items, Page: dto.PageResponse{Limit: p.Limit, Offset: p.Offset, Count: len(items)}})
}

// Reverse godoc
// @Summary      Anular documento
// @Description  Registra movimientos y asientos compensatorios y deja el documento anulado. Idempotente.
// @Tags         documents
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Success      202  {object}  dto.IncompleteDocumentResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/documents/{id}/reverse [post]
func (h *DocumentHandler) Reverse(c *fiber.Ctx) error {
	res, err := h.coord.ReverseDocument(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDocumentResponse(res))
}

// Resume godoc
// @Summary      Reanudar documento pendiente de reconciliación (admin)
// @Tags         reconciliation
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del documento"
// @Success      200  {object}  dto.DocumentResponse
// @Router       /api/documents/{id}/resume [post]
func (h *DocumentHandler) Resume(c *fiber.Ctx) error {
	res, err := h.coord.Resume(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(toDocumentResponse(res))
}

func toDocumentResponse(res *ledger.DocumentResult) *dto.DocumentResponse {
	d := res.Document
	out := &dto.DocumentResponse{
		ID:             d.ID,
		TenantID:       d.TenantID,
		Kind:           string(d.Kind),
		DocumentNumber: d.DocumentNumber,
		PartyID:        d.PartyID,
		PartyName:      d.PartyName,
		Date:           d.Date.Format("2006-01-02"),
		GrandTotal:     d.GrandTotal,
		AmountPaid:     d.AmountPaid,
		Status:         string(d.Status),
		PaymentStatus:  string(d.PaymentStatus),
		Notes:          d.Notes,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	for _, it := range res.Items {
		out.Items = append(out.Items, dto.DocumentItemResponse{
			ID:          it.ID,
			ProductID:   it.ProductID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			LineTotal:   it.LineTotal,
		})
	}
	for _, m := range res.Movements {
		out.Movements = append(out.Movements, dto.MovementResponse{
			ID:                  m.ID,
			ProductID:           m.ProductID,
			ReferenceDocumentID: m.ReferenceDocumentID,
			Type:                string(m.Type),
			DeltaQuantity:       m.DeltaQuantity,
			ReversesMovementID:  m.ReversesMovementID,
			CreatedAt:           m.CreatedAt,
		})
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, dto.StockWarning{ProductID: w.ProductID, Quantity: w.Quantity})
	}
	return out
}
