package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/gestionpos/facturacion-api/internal/application/dto"
	"github.com/gestionpos/facturacion-api/internal/domain"
)

// respondError traduce errores de dominio a respuestas HTTP. Los rechazos
// fiscales de AFIP devuelven 422 con las observaciones estructuradas; todo lo
// demás sigue la tabla de sentinelas.
func respondError(c *fiber.Ctx, err error) error {
	if rejection, ok := domain.IsFiscalRejection(err); ok {
		observations := make([]dto.ObservationDTO, 0, len(rejection.Observations)+len(rejection.Errors))
		for _, o := range rejection.Observations {
			observations = append(observations, dto.ObservationDTO{Code: o.Code, Message: o.Message})
		}
		for _, o := range rejection.Errors {
			observations = append(observations, dto.ObservationDTO{Code: o.Code, Message: o.Message})
		}
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{
			Code:         "FISCAL_REJECTION",
			Message:      rejection.Error(),
			Observations: observations,
		})
	}

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTicketNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_TRANSITION", Message: err.Error()})
	case errors.Is(err, domain.ErrInsufficientStock):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: err.Error()})
	case errors.Is(err, domain.ErrSequenceConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SEQUENCE_CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrAuthorityUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "AFIP_UNAVAILABLE", Message: err.Error()})
	case errors.Is(err, domain.ErrAuthorityRejected), errors.Is(err, domain.ErrCredential), errors.Is(err, domain.ErrSignature):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_AUTH", Message: err.Error()})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
