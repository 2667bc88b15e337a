// Package afip contiene catálogos, constantes y validaciones alineados a los
// web services de factura electrónica de AFIP/ARCA (Argentina): WSAA (auth),
// WSFEv1 (emisión) y el padrón de contribuyentes.
package afip

// =============================================================================
// Tipos de comprobante (WSFEv1, tabla FEParamGetTiposCbte)
// Tres variantes de factura y sus tres notas de crédito espejo; el tipo lo
// determina la combinación régimen del emisor x condición IVA del receptor.
// =============================================================================

const (
	CbteFacturaA     = 1  // Factura A (RI -> RI, discrimina IVA)
	CbteNotaCreditoA = 3  // Nota de Crédito A
	CbteFacturaB     = 6  // Factura B (RI -> no RI, IVA incluido discriminado)
	CbteNotaCreditoB = 8  // Nota de Crédito B
	CbteFacturaC     = 11 // Factura C (monotributo, sin discriminación de IVA)
	CbteNotaCreditoC = 13 // Nota de Crédito C
)

// NombreCbte descripción corta del tipo de comprobante, para logs y respuestas.
var NombreCbte = map[int]string{
	CbteFacturaA:     "Factura A",
	CbteNotaCreditoA: "Nota de Crédito A",
	CbteFacturaB:     "Factura B",
	CbteNotaCreditoB: "Nota de Crédito B",
	CbteFacturaC:     "Factura C",
	CbteNotaCreditoC: "Nota de Crédito C",
}

// =============================================================================
// Tipos de documento del receptor (tabla FEParamGetTiposDoc)
// =============================================================================

const (
	DocTipoCUIT            = 80 // Clave Única de Identificación Tributaria
	DocTipoCUIL            = 86 // Clave Única de Identificación Laboral
	DocTipoDNI             = 96 // Documento Nacional de Identidad
	DocTipoConsumidorFinal = 99 // Consumidor final sin identificar (doc nro 0)
)

// ValidDocTipos tipos de documento de receptor aceptados por el motor.
var ValidDocTipos = map[int]bool{
	DocTipoCUIT: true, DocTipoCUIL: true, DocTipoDNI: true, DocTipoConsumidorFinal: true,
}

// =============================================================================
// Condición frente al IVA del receptor (RG 5616, campo CondicionIVAReceptorId)
// =============================================================================

const (
	CondIVAResponsableInscripto = 1
	CondIVAExento               = 4
	CondIVAConsumidorFinal      = 5
	CondIVAMonotributo          = 6
	CondIVANoCategorizado       = 7
)

// ValidCondicionesIVA condiciones de IVA del receptor aceptadas.
var ValidCondicionesIVA = map[int]bool{
	CondIVAResponsableInscripto: true,
	CondIVAExento:               true,
	CondIVAConsumidorFinal:      true,
	CondIVAMonotributo:          true,
	CondIVANoCategorizado:       true,
}

// =============================================================================
// Régimen fiscal del emisor (mutuamente excluyentes; determinan qué tipos de
// comprobante puede emitir el tenant)
// =============================================================================

const (
	RegimenResponsableInscripto = "responsable_inscripto"
	RegimenMonotributo          = "monotributo"
)

// ValidRegimenes regímenes de emisor soportados.
var ValidRegimenes = map[string]bool{
	RegimenResponsableInscripto: true,
	RegimenMonotributo:          true,
}

// =============================================================================
// IVA y otros parámetros de emisión
// =============================================================================

const (
	// AlicIVA21ID código de la alícuota 21% en la tabla FEParamGetTiposIva.
	AlicIVA21ID = 5

	// ConceptoProductos concepto del comprobante (1=Productos, 2=Servicios, 3=Ambos).
	ConceptoProductos = 1

	// MonedaPesos código de moneda peso argentino en WSFE.
	MonedaPesos = "PES"

	// CAEVigenciaDias vigencia convencional del CAE desde la fecha de emisión.
	CAEVigenciaDias = 10

	// PtoVtaMin y PtoVtaMax rango válido de puntos de venta habilitados por AFIP.
	PtoVtaMin = 1
	PtoVtaMax = 99999
)

// Servicios WSAA: nombre del servicio destino que viaja en el TRA y en la
// clave del cache de sesiones.
const (
	ServicioWSFE   = "wsfe"
	ServicioPadron = "ws_sr_padron_a13"
)
