package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-pro/internal/application/dto"
	"github.com/tu-usuario/facturacion-pro/internal/application/facturacion"
	domafip "github.com/tu-usuario/facturacion-pro/internal/domain/afip"
)

// ComprobanteHandler maneja la emisión y consulta de comprobantes.
type ComprobanteHandler struct {
	factory *facturacion.SessionFactory
}

// NewComprobanteHandler construye el handler.
func NewComprobanteHandler(factory *facturacion.SessionFactory) *ComprobanteHandler {
	return &ComprobanteHandler{factory: factory}
}

// Emitir emite una factura con CAE.
// POST /api/comprobantes
func (h *ComprobanteHandler) Emitir(c *fiber.Ctx) error {
	var in dto.EmitirFacturaRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}

	session, err := h.factory.ForTenant(c.Context(), GetTenantID(c), in.PtoVta)
	if err != nil {
		return errorJSON(c, err)
	}
	cmp, err := session.EmitirFactura(c.Context(), facturacion.FacturaInput{
		Items:           itemsFromDTO(in.Items),
		Total:           in.Total,
		DocTipo:         in.DocTipo,
		DocNro:          in.DocNro,
		CondIVAReceptor: in.CondIVAReceptor,
		OrderRef:        in.OrderRef,
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ComprobanteToResponse(cmp))
}

// NotaCredito emite una nota de crédito contra un comprobante ya autorizado.
// POST /api/comprobantes/:id/nota-credito
func (h *ComprobanteHandler) NotaCredito(c *fiber.Ctx) error {
	var in dto.EmitirNotaCreditoRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	tenantID := GetTenantID(c)
	originalID := c.Params("id")

	// La NC se emite por el mismo punto de venta del comprobante original.
	original, err := h.factory.Comprobante(c.Context(), tenantID, originalID)
	if err != nil {
		return errorJSON(c, err)
	}
	session, err := h.factory.ForTenant(c.Context(), tenantID, original.PtoVta)
	if err != nil {
		return errorJSON(c, err)
	}

	total := in.Total
	if total.IsZero() {
		// Sin total explícito se acredita el comprobante completo.
		total = original.ImporteTotal
	}
	nc, err := session.EmitirNotaCredito(c.Context(), facturacion.NotaCreditoInput{
		OriginalID: originalID,
		Total:      total,
		Motivo:     in.Motivo,
		Items:      itemsFromDTO(in.Items),
	})
	if err != nil {
		return errorJSON(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ComprobanteToResponse(nc))
}

// List lista los comprobantes del tenant, más recientes primero.
// GET /api/comprobantes
func (h *ComprobanteHandler) List(c *fiber.Ctx) error {
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()

	cmps, err := h.factory.Comprobantes(c.Context(), GetTenantID(c), page.Limit, page.Offset)
	if err != nil {
		return errorJSON(c, err)
	}
	out := make([]*dto.ComprobanteResponse, 0, len(cmps))
	for _, cmp := range cmps {
		out = append(out, dto.ComprobanteToResponse(cmp))
	}
	return c.JSON(out)
}

// GetByID obtiene un comprobante con su detalle.
// GET /api/comprobantes/:id
func (h *ComprobanteHandler) GetByID(c *fiber.Ctx) error {
	cmp, err := h.factory.Comprobante(c.Context(), GetTenantID(c), c.Params("id"))
	if err != nil {
		return errorJSON(c, err)
	}
	return c.JSON(dto.ComprobanteToResponse(cmp))
}

func itemsFromDTO(items []dto.ItemRequest) []domafip.ItemInput {
	out := make([]domafip.ItemInput, 0, len(items))
	for _, it := range items {
		out = append(out, domafip.ItemInput{
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
		})
	}
	return out
}
