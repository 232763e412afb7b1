package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/rs/zerolog"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler reportes de lectura y descargas (protegido).
type ReportHandler struct {
	uc  *reports.UseCase
	log zerolog.Logger
}

func NewReportHandler(uc *reports.UseCase, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{uc: uc, log: log}
}

// PartyStatement godoc
// @Summary      Estado de cuenta del tercero
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id    path   string  true   "ID del tercero"
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200   {object}  dto.PartyStatementResponse
// @Router       /api/parties/{id}/statement [get]
func (h *ReportHandler) PartyStatement(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.PartyStatement(c.UserContext(), GetTenant(c), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// PartyStatementXLSX godoc
// @Summary      Estado de cuenta en Excel
// @Tags         reports
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        id  path  string  true  "ID del tercero"
// @Router       /api/parties/{id}/statement.xlsx [get]
func (h *ReportHandler) PartyStatementXLSX(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	id := c.Params("id")
	out, err := h.uc.StatementXLSX(c.UserContext(), GetTenant(c), id, from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=estado_%s.xlsx", id))
	return c.Send(out)
}

// StockCard godoc
// @Summary      Kardex del producto
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200 {object}  dto.StockCardResponse
// @Router       /api/products/{id}/movements [get]
func (h *ReportHandler) StockCard(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.StockCard(c.UserContext(), GetTenant(c), c.Params("id"), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// StockAudit godoc
// @Summary      Verificar la cantidad en caché contra el libro de movimientos
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del producto"
// @Success      200 {object}  dto.StockAuditResponse
// @Router       /api/products/{id}/audit [get]
func (h *ReportHandler) StockAudit(c *fiber.Ctx) error {
	out, err := h.uc.StockAudit(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// Cashbook godoc
// @Summary      Libro de caja
// @Tags         reports
// @Security     Bearer
// @Produce      json
// @Param        from  query  string  false  "Desde (YYYY-MM-DD)"
// @Param        to    query  string  false  "Hasta (YYYY-MM-DD)"
// @Success      200   {object}  dto.CashbookResponse
// @Router       /api/reports/cashbook [get]
func (h *ReportHandler) Cashbook(c *fiber.Ctx) error {
	from, to, err := dateRange(c)
	if err != nil {
		return writeError(c, h.log, err)
	}
	out, err := h.uc.Cashbook(c.UserContext(), GetTenant(c), from, to)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// DocumentPDF godoc
// @Summary      Representación impresa del documento
// @Tags         documents
// @Security     Bearer
// @Produce      application/pdf
// @Param        id  path  string  true  "ID del documento"
// @Router       /api/documents/{id}/pdf [get]
func (h *ReportHandler) DocumentPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	out, err := h.uc.DocumentPDF(c.UserContext(), GetTenant(c), id)
	if err != nil {
		return writeError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("inline; filename=documento_%s.pdf", id))
	return c.Send(out)
}
