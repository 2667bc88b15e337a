// Package afip contiene las reglas fiscales de dominio del motor de emisión:
// matriz de decisión de tipo de comprobante, reglas de identidad del receptor
// y derivación de notas de crédito. Usa los catálogos de pkg/afip.
package afip

import (
	"fmt"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

// ResolverTipoComprobante aplica la matriz régimen del emisor x condición IVA
// del receptor:
//
//	monotributo            -> Factura C (siempre)
//	responsable inscripto  -> Factura A si el receptor es RI, Factura B si no
func ResolverTipoComprobante(regimenEmisor string, condIVAReceptor int) (int, error) {
	if !pkgafip.ValidCondicionesIVA[condIVAReceptor] {
		return 0, fmt.Errorf("%w: condición IVA del receptor desconocida (%d)", domain.ErrInvalidInput, condIVAReceptor)
	}
	switch regimenEmisor {
	case pkgafip.RegimenMonotributo:
		return pkgafip.CbteFacturaC, nil
	case pkgafip.RegimenResponsableInscripto:
		if condIVAReceptor == pkgafip.CondIVAResponsableInscripto {
			return pkgafip.CbteFacturaA, nil
		}
		return pkgafip.CbteFacturaB, nil
	default:
		return 0, fmt.Errorf("%w: régimen del emisor desconocido (%q)", domain.ErrInvalidInput, regimenEmisor)
	}
}

// TipoNotaCredito deriva el tipo de nota de crédito que corresponde
// estructuralmente al comprobante original (A->A, B->B, C->C).
func TipoNotaCredito(tipoCbteOriginal int) (int, error) {
	switch tipoCbteOriginal {
	case pkgafip.CbteFacturaA:
		return pkgafip.CbteNotaCreditoA, nil
	case pkgafip.CbteFacturaB:
		return pkgafip.CbteNotaCreditoB, nil
	case pkgafip.CbteFacturaC:
		return pkgafip.CbteNotaCreditoC, nil
	default:
		return 0, fmt.Errorf("%w: el comprobante original no es una factura (tipo %d)", domain.ErrInvalidInput, tipoCbteOriginal)
	}
}

// DiscriminaIVA indica si el tipo de comprobante lleva desglose de IVA.
// Las C (monotributo) no discriminan: neto = total, IVA = 0.
func DiscriminaIVA(tipoCbte int) bool {
	switch tipoCbte {
	case pkgafip.CbteFacturaC, pkgafip.CbteNotaCreditoC:
		return false
	default:
		return true
	}
}

// ValidarReceptor aplica las reglas de identidad del comprador y devuelve el
// número de documento a usar en el request:
//
//   - consumidor final: el número se fuerza a 0, venga lo que venga
//   - tipo A: el receptor debe identificarse con CUIT válido (falla antes de
//     cualquier llamada remota si no)
func ValidarReceptor(tipoCbte, docTipo int, docNro int64) (int64, error) {
	if !pkgafip.ValidDocTipos[docTipo] {
		return 0, fmt.Errorf("%w: tipo de documento del receptor desconocido (%d)", domain.ErrInvalidInput, docTipo)
	}
	if docTipo == pkgafip.DocTipoConsumidorFinal {
		return 0, nil
	}
	if docNro <= 0 {
		return 0, fmt.Errorf("%w: número de documento del receptor requerido", domain.ErrInvalidInput)
	}
	if tipoCbte == pkgafip.CbteFacturaA || tipoCbte == pkgafip.CbteNotaCreditoA {
		if docTipo != pkgafip.DocTipoCUIT {
			return 0, fmt.Errorf("%w: los comprobantes tipo A exigen CUIT del receptor", domain.ErrInvalidInput)
		}
		if err := pkgafip.ValidateCUIT(fmt.Sprintf("%011d", docNro)); err != nil {
			return 0, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}
	}
	return docNro, nil
}
