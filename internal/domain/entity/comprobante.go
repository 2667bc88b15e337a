package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un comprobante autorizado. Una vez ANULADO nunca vuelve a EMITIDO.
const (
	EstadoEmitido = "EMITIDO"
	EstadoAnulado = "ANULADO"
)

// Comprobante es un documento fiscal autorizado por AFIP (factura o nota de
// crédito). Inmutable una vez creado: la única transición permitida es
// EMITIDO -> ANULADO vía una nota de crédito por el total.
//
// Invariante: la tupla (perfil, tipo, punto de venta, número) es única.
type Comprobante struct {
	ID           string
	TenantID     string
	ProfileID    string
	SalesPointID string

	TipoCbte int   // afip.CbteFactura*/CbteNotaCredito*
	PtoVta   int   // número del punto de venta
	Numero   int64 // secuencial asignado en la emisión

	CAE            string    // Código de Autorización Electrónico
	CAEVencimiento time.Time // vigencia fija desde la emisión (10 días)
	FechaEmision   time.Time

	ImporteNeto  decimal.Decimal
	ImporteIVA   decimal.Decimal
	ImporteTotal decimal.Decimal

	// Identidad del receptor.
	DocTipo         int   // afip.DocTipo*
	DocNro          int64 // 0 si consumidor final
	CondIVAReceptor int   // afip.CondIVA*

	Items []ComprobanteItem // ordenados, inmutables

	// Vínculos opcionales.
	OrderRef      string  // referencia a una orden/reserva externa
	CbteAsocID    *string // notas de crédito: ID del comprobante original
	Motivo        string  // notas de crédito: razón del ajuste
	Estado        string  // EstadoEmitido | EstadoAnulado
	AnuladoPorID  *string // ID de la nota de crédito que lo anuló
	RawResponse   string  // respuesta cruda de AFIP, retenida para auditoría
	CreatedAt     time.Time
}

// EsNotaCredito indica si el comprobante es una nota de crédito.
func (c *Comprobante) EsNotaCredito() bool {
	return c.CbteAsocID != nil
}

// ComprobanteItem línea de detalle de un comprobante.
type ComprobanteItem struct {
	ID             string
	ComprobanteID  string
	Orden          int
	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
	Subtotal       decimal.Decimal
}
