package afip

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
)

// alícuota general de IVA: 21%. El divisor para extraer el neto de un total
// con IVA incluido es 1.21.
var (
	ivaDivisor = decimal.NewFromFloat(1.21)
)

// Importes desglose fiscal de un comprobante.
type Importes struct {
	Neto  decimal.Decimal
	IVA   decimal.Decimal
	Total decimal.Decimal
}

// CalcularImportes computa el desglose neto/IVA de un total:
//
//	sin discriminación (tipo C): neto = total, IVA = 0
//	con discriminación (A/B):    neto = total / 1.21, IVA = total - neto
//
// Ambos redondeados a 2 decimales.
func CalcularImportes(total decimal.Decimal, discriminaIVA bool) (Importes, error) {
	if !total.GreaterThan(decimal.Zero) {
		return Importes{}, fmt.Errorf("%w: el total debe ser mayor a cero", domain.ErrInvalidInput)
	}
	total = total.Round(2)
	if !discriminaIVA {
		return Importes{Neto: total, IVA: decimal.Zero.Round(2), Total: total}, nil
	}
	neto := total.Div(ivaDivisor).Round(2)
	iva := total.Sub(neto)
	return Importes{Neto: neto, IVA: iva, Total: total}, nil
}

// ItemInput línea de detalle recibida por el motor de emisión.
type ItemInput struct {
	Descripcion    string
	Cantidad       decimal.Decimal
	PrecioUnitario decimal.Decimal
}

// ValidarItems chequea la estructura de las líneas antes de cualquier llamada
// remota: al menos un ítem, cantidades positivas, precios no negativos.
func ValidarItems(items []ItemInput) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: el comprobante debe tener al menos un ítem", domain.ErrInvalidInput)
	}
	for i, it := range items {
		if !it.Cantidad.GreaterThan(decimal.Zero) {
			return fmt.Errorf("%w: ítem %d con cantidad no positiva", domain.ErrInvalidInput, i+1)
		}
		if it.PrecioUnitario.LessThan(decimal.Zero) {
			return fmt.Errorf("%w: ítem %d con precio negativo", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// ValidarNotaCredito aplica las precondiciones de una nota de crédito contra
// su comprobante original, todas verificables sin llamada remota.
//
// Nota: una NC parcial no anula el original y hoy no se acumulan parciales
// entre sí; el tracking del total acreditado acumulado queda como invariante
// futura.
func ValidarNotaCredito(original *entity.Comprobante, total decimal.Decimal, motivo string) error {
	if original == nil {
		return fmt.Errorf("%w: comprobante original", domain.ErrNotFound)
	}
	if original.CAE == "" {
		return fmt.Errorf("%w: el comprobante original no tiene CAE", domain.ErrInvalidInput)
	}
	if original.Estado == entity.EstadoAnulado {
		return domain.ErrComprobanteAnulado
	}
	if !total.GreaterThan(decimal.Zero) {
		return fmt.Errorf("%w: el total de la nota de crédito debe ser mayor a cero", domain.ErrInvalidInput)
	}
	if total.GreaterThan(original.ImporteTotal) {
		return fmt.Errorf("%w: el total de la nota de crédito (%s) supera el del original (%s)",
			domain.ErrInvalidInput, total.StringFixed(2), original.ImporteTotal.StringFixed(2))
	}
	if motivo == "" {
		return fmt.Errorf("%w: el motivo de la nota de crédito es obligatorio", domain.ErrInvalidInput)
	}
	return nil
}
