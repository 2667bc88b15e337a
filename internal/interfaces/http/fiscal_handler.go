package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-pro/internal/application/dto"
	"github.com/tu-usuario/facturacion-pro/internal/application/facturacion"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
)

// FiscalHandler maneja la configuración fiscal del tenant: credenciales,
// test de conexión, puntos de venta y consulta de padrón.
type FiscalHandler struct {
	factory *facturacion.SessionFactory
	padron  facturacion.PadronLookup
}

// NewFiscalHandler construye el handler.
func NewFiscalHandler(factory *facturacion.SessionFactory, padron facturacion.PadronLookup) *FiscalHandler {
	return &FiscalHandler{factory: factory, padron: padron}
}

// GetConfiguracion devuelve el estado del perfil fiscal (sin material de firma).
// GET /api/fiscal/configuracion
func (h *FiscalHandler) GetConfiguracion(c *fiber.Ctx) error {
	profile, err := h.factory.Perfil(c.Context(), GetTenantID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(dto.FiscalProfileToResponse(profile))
}

// SaveConfiguracion crea o actualiza la configuración fiscal. El material de
// firma se encripta antes de persistir y no vuelve en la respuesta.
// PUT /api/fiscal/configuracion
func (h *FiscalHandler) SaveConfiguracion(c *fiber.Ctx) error {
	var in dto.ConfiguracionFiscalRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	profile, err := h.factory.GuardarConfiguracion(c.Context(), GetTenantID(c), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(dto.FiscalProfileToResponse(profile))
}

// TestConexion ejecuta el intercambio WSAA completo y persiste el resultado.
// POST /api/fiscal/test
func (h *FiscalHandler) TestConexion(c *fiber.Ctx) error {
	result, err := h.factory.TestConnection(c.Context(), GetTenantID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	resp := dto.TestConexionResponse{OK: result.OK, Mensaje: result.Mensaje}
	if !result.ExpiresAt.IsZero() {
		t := result.ExpiresAt
		resp.ExpiresAt = &t
	}
	return c.JSON(resp)
}

// Desconectar aplica el soft-disconnect del perfil fiscal.
// DELETE /api/fiscal/configuracion
func (h *FiscalHandler) Desconectar(c *fiber.Ctx) error {
	if err := h.factory.Desconectar(c.Context(), GetTenantID(c)); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// InvalidarCache purga los tokens WSAA cacheados del tenant.
// DELETE /api/fiscal/cache
func (h *FiscalHandler) InvalidarCache(c *fiber.Ctx) error {
	if err := h.factory.InvalidarCache(c.Context(), GetTenantID(c)); err != nil {
		return errorJSON(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListPuntosVenta lista los puntos de venta del perfil.
// GET /api/fiscal/puntos-venta
func (h *FiscalHandler) ListPuntosVenta(c *fiber.Ctx) error {
	sps, err := h.factory.PuntosVenta(c.Context(), GetTenantID(c))
	if err != nil {
		return errorJSON(c, err)
	}
	out := make([]*dto.PuntoVentaResponse, 0, len(sps))
	for _, sp := range sps {
		out = append(out, dto.SalesPointToResponse(sp))
	}
	return c.JSON(out)
}

// SavePuntoVenta crea o actualiza un punto de venta (upsert por número).
// POST /api/fiscal/puntos-venta
func (h *FiscalHandler) SavePuntoVenta(c *fiber.Ctx) error {
	var in dto.PuntoVentaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	sp, err := h.factory.GuardarPuntoVenta(c.Context(), GetTenantID(c), in)
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.SalesPointToResponse(sp))
}

// ConsultarPadron devuelve los datos públicos de un contribuyente.
// GET /api/fiscal/padron/:cuit
func (h *FiscalHandler) ConsultarPadron(c *fiber.Ctx) error {
	info, err := h.padron.Consultar(c.Context(), c.Params("cuit"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return errorJSON(c, err)
		}
		// El padrón es best-effort: cualquier fallo remoto se reporta como
		// dato no disponible, no como error del sistema.
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "PADRON_NO_DISPONIBLE", Message: "contribuyente no encontrado o padrón no disponible"})
	}
	return c.JSON(dto.ContribuyenteResponse{
		CUIT:         info.CUIT,
		RazonSocial:  info.RazonSocial,
		CondicionIVA: info.CondicionIVA,
	})
}
