package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/catalog"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/rs/zerolog"
)

// PartyHandler proveedores y clientes (protegido).
type PartyHandler struct {
	uc  *catalog.PartyUseCase
	log zerolog.Logger
}

func NewPartyHandler(uc *catalog.PartyUseCase, log zerolog.Logger) *PartyHandler {
	return &PartyHandler{uc: uc, log: log}
}

// Create godoc
// @Summary      Crear tercero
// @Tags         parties
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreatePartyRequest  true  "Tercero"
// @Success      201   {object}  dto.PartyResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/parties [post]
func (h *PartyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreatePartyRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Create(c.UserContext(), GetTenant(c), in)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener tercero con saldo vigente
// @Tags         parties
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del tercero"
// @Success      200  {object}  dto.PartyResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/parties/{id} [get]
func (h *PartyHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), GetTenant(c), c.Params("id"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar terceros
// @Tags         parties
// @Security     Bearer
// @Produce      json
// @Param        kind    query  string  false  "supplier|customer"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {array}  dto.PartyResponse
// @Router       /api/parties [get]
func (h *PartyHandler) List(c *fiber.Ctx) error {
	out, err := h.uc.List(c.UserContext(), GetTenant(c), c.Query("kind"), page(c))
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(out)
}
