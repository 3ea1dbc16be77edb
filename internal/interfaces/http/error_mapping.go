package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/kmbaye/gestock-api/internal/application/dto"
	"github.com/kmbaye/gestock-api/internal/domain"
)

// mapDomainError traduce los errores de dominio a respuestas HTTP.
// El orden importa: los tipos específicos van antes que los centinelas.
func mapDomainError(c *fiber.Ctx, err error) error {
	var insufficient *domain.InsufficientStockError
	if errors.As(err, &insufficient) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: insufficient.Error()})
	}
	var invalidState *domain.InvalidStateError
	if errors.As(err, &invalidState) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INVALID_STATE", Message: invalidState.Error()})
	}
	var exhausted *domain.SequenceExhaustedError
	if errors.As(err, &exhausted) {
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "SEQUENCE_EXHAUSTED", Message: exhausted.Error()})
	}
	var denied *domain.AccessDeniedError
	if errors.As(err, &denied) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "ACCESS_DENIED", Message: denied.Error()})
	}
	var lineErr *domain.SaleLineError
	if errors.As(err, &lineErr) {
		// El error de la línea puede ser a su vez un not found o forbidden.
		if errors.Is(err, domain.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: lineErr.Error()})
		}
		if errors.Is(err, domain.ErrForbidden) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: lineErr.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_LINE", Message: lineErr.Error()})
	}
	var invalidQty *domain.InvalidQuantityError
	if errors.As(err, &invalidQty) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUANTITY", Message: invalidQty.Error()})
	}
	var invalidDiscount *domain.InvalidDiscountError
	if errors.As(err, &invalidDiscount) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_DISCOUNT", Message: invalidDiscount.Error()})
	}
	var invalidTax *domain.InvalidTaxRateError
	if errors.As(err, &invalidTax) {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_TAX_RATE", Message: invalidTax.Error()})
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "operación no permitida"})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "estado de la venta no permite esta transición"})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "recurso duplicado"})
	case errors.Is(err, domain.ErrLockTimeout):
		// 503 + Retry-After: la fila estaba bloqueada, reintentable.
		c.Set("Retry-After", "1")
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "LOCK_TIMEOUT", Message: "recurso ocupado, reintente"})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "no autorizado"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
}
