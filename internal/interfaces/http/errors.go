package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-pro/internal/application/dto"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
)

// errorJSON traduce la taxonomía de errores de dominio a status HTTP. El
// contrato para el frontend: 409 con codigo NUMERO_DUPLICADO es retryable,
// 502 es AFIP caído (reintentar más tarde), 422 es rechazo de negocio con
// las observaciones de AFIP adjuntas.
func errorJSON(c *fiber.Ctx, err error) error {
	var rechazo *domain.RechazoError
	if errors.As(err, &rechazo) {
		resp := dto.ErrorResponse{Message: err.Error()}
		for _, o := range rechazo.Observaciones {
			resp.Observaciones = append(resp.Observaciones, dto.ObservacionDTO{Code: o.Code, Msg: o.Msg})
		}
		if errors.Is(err, domain.ErrNumeroDuplicado) {
			resp.Code = "NUMERO_DUPLICADO"
			return c.Status(fiber.StatusConflict).JSON(resp)
		}
		resp.Code = "RECHAZO_AFIP"
		return c.Status(fiber.StatusUnprocessableEntity).JSON(resp)
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	case errors.Is(err, domain.ErrCredencialesInvalidas):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "CREDENCIALES_INVALIDAS", Message: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrPerfilNoConfigurado):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "PERFIL_NO_CONFIGURADO", Message: err.Error()})
	case errors.Is(err, domain.ErrPerfilNoVerificado):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "PERFIL_NO_VERIFICADO", Message: err.Error()})
	case errors.Is(err, domain.ErrPuntoVentaNoDisponible):
		return c.Status(fiber.StatusPreconditionFailed).JSON(dto.ErrorResponse{Code: "PUNTO_VENTA_NO_DISPONIBLE", Message: err.Error()})
	case errors.Is(err, domain.ErrAutenticacion):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AUTENTICACION_AFIP", Message: err.Error()})
	case errors.Is(err, domain.ErrComprobanteAnulado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "COMPROBANTE_ANULADO", Message: err.Error()})
	case errors.Is(err, domain.ErrTransporte):
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{Code: "AFIP_NO_DISPONIBLE", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}
