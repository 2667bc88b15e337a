package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	"github.com/tu-usuario/facturacion-pro/pkg/afip"
)

// ConfiguracionFiscalRequest body para PUT /api/fiscal/configuracion.
// Certificado y LlavePrivada viajan en PEM y solo se aceptan en este request:
// nunca vuelven en ninguna respuesta.
type ConfiguracionFiscalRequest struct {
	CUIT              string    `json:"cuit"`
	RazonSocial       string    `json:"razon_social"`
	DomicilioFiscal   string    `json:"domicilio_fiscal,omitempty"`
	Regimen           string    `json:"regimen"` // responsable_inscripto | monotributo
	InicioActividades time.Time `json:"inicio_actividades,omitempty"`
	Certificado       string    `json:"certificado,omitempty"`
	LlavePrivada      string    `json:"llave_privada,omitempty"`
}

// ConfiguracionFiscalResponse estado del perfil fiscal, sin material de firma.
type ConfiguracionFiscalResponse struct {
	ID                string     `json:"id"`
	CUIT              string     `json:"cuit"`
	RazonSocial       string     `json:"razon_social"`
	DomicilioFiscal   string     `json:"domicilio_fiscal,omitempty"`
	Regimen           string     `json:"regimen"`
	InicioActividades *time.Time `json:"inicio_actividades,omitempty"`
	CertConfigurado   bool       `json:"cert_configurado"`
	CertExpiry        *time.Time `json:"cert_expiry,omitempty"`
	Verificado        bool       `json:"verificado"`
	LastTestAt        *time.Time `json:"last_test_at,omitempty"`
	LastTestOK        bool       `json:"last_test_ok"`
	LastTestMsg       string     `json:"last_test_msg,omitempty"`
	Activo            bool       `json:"activo"`
}

// FiscalProfileToResponse mapea el perfil a su DTO público. El material de
// firma encriptado se omite deliberadamente.
func FiscalProfileToResponse(p *entity.FiscalProfile) *ConfiguracionFiscalResponse {
	r := &ConfiguracionFiscalResponse{
		ID:              p.ID,
		CUIT:            p.CUIT,
		RazonSocial:     p.RazonSocial,
		DomicilioFiscal: p.DomicilioFiscal,
		Regimen:         p.Regimen,
		CertConfigurado: p.CertEncrypted != "",
		CertExpiry:      p.CertExpiry,
		Verificado:      p.Verificado,
		LastTestAt:      p.LastTestAt,
		LastTestOK:      p.LastTestOK,
		LastTestMsg:     p.LastTestMsg,
		Activo:          p.Activo,
	}
	if !p.InicioActividades.IsZero() {
		t := p.InicioActividades
		r.InicioActividades = &t
	}
	return r
}

// TestConexionResponse resultado de POST /api/fiscal/test.
type TestConexionResponse struct {
	OK        bool       `json:"ok"`
	Mensaje   string     `json:"mensaje"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// PuntoVentaRequest body para POST /api/fiscal/puntos-venta.
type PuntoVentaRequest struct {
	Numero      int    `json:"numero"`
	Descripcion string `json:"descripcion,omitempty"`
	EsDefault   bool   `json:"es_default"`
	Activo      *bool  `json:"activo,omitempty"`
}

// PuntoVentaResponse punto de venta en respuestas.
type PuntoVentaResponse struct {
	ID          string `json:"id"`
	Numero      int    `json:"numero"`
	Descripcion string `json:"descripcion,omitempty"`
	EsDefault   bool   `json:"es_default"`
	Activo      bool   `json:"activo"`
}

// SalesPointToResponse mapea un punto de venta a su DTO.
func SalesPointToResponse(sp *entity.SalesPoint) *PuntoVentaResponse {
	return &PuntoVentaResponse{
		ID:          sp.ID,
		Numero:      sp.Numero,
		Descripcion: sp.Descripcion,
		EsDefault:   sp.EsDefault,
		Activo:      sp.Activo,
	}
}

// EmitirFacturaRequest body para POST /api/comprobantes.
type EmitirFacturaRequest struct {
	PtoVta          int                `json:"pto_vta,omitempty"` // 0 = resolver default
	Items           []ItemRequest      `json:"items"`
	Total           decimal.Decimal    `json:"total"`
	DocTipo         int                `json:"doc_tipo"`
	DocNro          int64              `json:"doc_nro,omitempty"`
	CondIVAReceptor int                `json:"cond_iva_receptor"`
	OrderRef        string             `json:"order_ref,omitempty"`
}

// ItemRequest línea de un comprobante a emitir.
type ItemRequest struct {
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

// EmitirNotaCreditoRequest body para POST /api/comprobantes/:id/nota-credito.
// Total vacío o igual al del original anula el comprobante; un total menor
// emite una nota parcial.
type EmitirNotaCreditoRequest struct {
	Total  decimal.Decimal `json:"total,omitempty"`
	Motivo string          `json:"motivo"`
	Items  []ItemRequest   `json:"items,omitempty"`
}

// ComprobanteResponse comprobante autorizado en respuestas.
type ComprobanteResponse struct {
	ID             string          `json:"id"`
	Tipo           int             `json:"tipo"`
	TipoNombre     string          `json:"tipo_nombre"`
	PtoVta         int             `json:"pto_vta"`
	Numero         int64           `json:"numero"`
	CAE            string          `json:"cae"`
	CAEVencimiento string          `json:"cae_vencimiento"` // AAAAMMDD
	FechaEmision   time.Time       `json:"fecha_emision"`
	ImporteNeto    decimal.Decimal `json:"importe_neto"`
	ImporteIVA     decimal.Decimal `json:"importe_iva"`
	ImporteTotal   decimal.Decimal `json:"importe_total"`
	DocTipo        int             `json:"doc_tipo"`
	DocNro         int64           `json:"doc_nro"`
	CondIVAReceptor int            `json:"cond_iva_receptor"`
	Estado         string          `json:"estado"`
	OrderRef       string          `json:"order_ref,omitempty"`
	CbteAsocID     *string         `json:"cbte_asoc_id,omitempty"`
	Motivo         string          `json:"motivo,omitempty"`
	AnuladoPorID   *string         `json:"anulado_por_id,omitempty"`
	Items          []ItemResponse  `json:"items,omitempty"`
}

// ItemResponse línea de detalle en la respuesta.
type ItemResponse struct {
	Orden          int             `json:"orden"`
	Descripcion    string          `json:"descripcion"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

// ComprobanteToResponse mapea un comprobante a su DTO.
func ComprobanteToResponse(c *entity.Comprobante) *ComprobanteResponse {
	r := &ComprobanteResponse{
		ID:              c.ID,
		Tipo:            c.TipoCbte,
		TipoNombre:      afip.NombreCbte[c.TipoCbte],
		PtoVta:          c.PtoVta,
		Numero:          c.Numero,
		CAE:             c.CAE,
		CAEVencimiento:  afip.FormatFecha(c.CAEVencimiento),
		FechaEmision:    c.FechaEmision,
		ImporteNeto:     c.ImporteNeto,
		ImporteIVA:      c.ImporteIVA,
		ImporteTotal:    c.ImporteTotal,
		DocTipo:         c.DocTipo,
		DocNro:          c.DocNro,
		CondIVAReceptor: c.CondIVAReceptor,
		Estado:          c.Estado,
		OrderRef:        c.OrderRef,
		CbteAsocID:      c.CbteAsocID,
		Motivo:          c.Motivo,
		AnuladoPorID:    c.AnuladoPorID,
	}
	for _, it := range c.Items {
		r.Items = append(r.Items, ItemResponse{
			Orden:          it.Orden,
			Descripcion:    it.Descripcion,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	return r
}

// ContribuyenteResponse datos de padrón para GET /api/fiscal/padron/:cuit.
type ContribuyenteResponse struct {
	CUIT         string `json:"cuit"`
	RazonSocial  string `json:"razon_social"`
	CondicionIVA int    `json:"condicion_iva"`
}
