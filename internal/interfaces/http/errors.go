package http

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ledger-api/internal/application/dto"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/rs/zerolog"
)

// writeError traduce la taxonomía de errores del dominio a respuestas HTTP.
//
//	IncompleteDocument → 202 (el documento existe y queda en reconciliación)
//	Validation         → 400
//	NotFound           → 404
//	Duplicate/Conflict → 409
//	Transient          → 503 (el cliente puede reintentar)
//	resto              → 500
//
// Las fallas de una operación sobre un documento conservan el código de su causa pero
// responden con DocumentErrorResponse: documento, paso fallido y si es descartable.
func writeError(c *fiber.Ctx, log zerolog.Logger, err error) error {
	var incomplete *domain.IncompleteDocumentError
	if errors.As(err, &incomplete) {
		return c.Status(fiber.StatusAccepted).JSON(dto.IncompleteDocumentResponse{
			Code:         "INCOMPLETE_DOCUMENT",
			Message:      "el documento quedó pendiente de reconciliación",
			DocumentID:   incomplete.DocumentID,
			PendingSteps: incomplete.PendingSteps,
		})
	}

	status, body := classify(err)
	if status == fiber.StatusServiceUnavailable {
		c.Set(fiber.HeaderRetryAfter, "1")
	}

	var docErr *domain.DocumentError
	var partial *domain.PartialWriteError
	switch {
	case errors.As(err, &docErr):
		if status == fiber.StatusInternalServerError {
			body.Code = "DOCUMENT_FAILED"
			if errors.As(err, &partial) {
				body.Code = "PARTIAL_WRITE"
			}
			log.Error().Err(err).Str("document_id", docErr.DocumentID).Str("step", docErr.Step).Msg("operación de documento fallida")
		}
		return c.Status(status).JSON(dto.DocumentErrorResponse{
			ErrorResponse: body,
			DocumentID:    docErr.DocumentID,
			Step:          docErr.Step,
			Discardable:   docErr.Discardable,
		})
	case errors.As(err, &partial):
		if status == fiber.StatusInternalServerError {
			body.Code = "PARTIAL_WRITE"
			log.Error().Err(err).Str("document_id", partial.DocumentID).Msg("escritura parcial")
		}
		return c.Status(status).JSON(dto.DocumentErrorResponse{
			ErrorResponse: body,
			DocumentID:    partial.DocumentID,
			Step:          entity.StepDocumentWritten,
			Discardable:   true,
		})
	}

	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("error interno")
	}
	return c.Status(status).JSON(body)
}

// classify código HTTP y cuerpo según la causa. Recorre la cadena de errores envueltos.
func classify(err error) (int, dto.ErrorResponse) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: validation.Error(), Field: validation.Field}
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()}
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "tenant requerido"}
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"}
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()}
	case domain.IsTransient(err):
		return fiber.StatusServiceUnavailable, dto.ErrorResponse{Code: "TRANSIENT", Message: "almacén no disponible, reintente"}
	}
	return fiber.StatusInternalServerError, dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"}
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// dateRange lee ?from=YYYY-MM-DD&to=YYYY-MM-DD. `to` incluye el día completo.
func dateRange(c *fiber.Ctx) (from, to *time.Time, err error) {
	if s := c.Query("from"); s != "" {
		t, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			return nil, nil, domain.NewValidationError("from", "formato esperado YYYY-MM-DD")
		}
		from = &t
	}
	if s := c.Query("to"); s != "" {
		t, perr := time.Parse("2006-01-02", s)
		if perr != nil {
			return nil, nil, domain.NewValidationError("to", "formato esperado YYYY-MM-DD")
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		to = &end
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.NewValidationError("to", "debe ser posterior a from")
	}
	return from, to, nil
}

func page(c *fiber.Ctx) dto.PageRequest {
	p := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultPageLimit), Offset: c.QueryInt("offset", 0)}
	p.Normalize()
	return p
}
