package afip_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	domafip "github.com/tu-usuario/facturacion-pro/internal/domain/afip"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

func TestResolverTipoComprobante(t *testing.T) {
	casos := []struct {
		nombre   string
		regimen  string
		condIVA  int
		esperado int
	}{
		{"monotributo siempre emite C", pkgafip.RegimenMonotributo, pkgafip.CondIVAConsumidorFinal, pkgafip.CbteFacturaC},
		{"monotributo a RI también C", pkgafip.RegimenMonotributo, pkgafip.CondIVAResponsableInscripto, pkgafip.CbteFacturaC},
		{"RI a RI emite A", pkgafip.RegimenResponsableInscripto, pkgafip.CondIVAResponsableInscripto, pkgafip.CbteFacturaA},
		{"RI a consumidor final emite B", pkgafip.RegimenResponsableInscripto, pkgafip.CondIVAConsumidorFinal, pkgafip.CbteFacturaB},
		{"RI a monotributista emite B", pkgafip.RegimenResponsableInscripto, pkgafip.CondIVAMonotributo, pkgafip.CbteFacturaB},
		{"RI a exento emite B", pkgafip.RegimenResponsableInscripto, pkgafip.CondIVAExento, pkgafip.CbteFacturaB},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			tipo, err := domafip.ResolverTipoComprobante(c.regimen, c.condIVA)
			require.NoError(t, err)
			assert.Equal(t, c.esperado, tipo)
		})
	}

	t.Run("régimen desconocido", func(t *testing.T) {
		_, err := domafip.ResolverTipoComprobante("autonomo", pkgafip.CondIVAConsumidorFinal)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("condición IVA desconocida", func(t *testing.T) {
		_, err := domafip.ResolverTipoComprobante(pkgafip.RegimenMonotributo, 42)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestTipoNotaCredito(t *testing.T) {
	casos := map[int]int{
		pkgafip.CbteFacturaA: pkgafip.CbteNotaCreditoA,
		pkgafip.CbteFacturaB: pkgafip.CbteNotaCreditoB,
		pkgafip.CbteFacturaC: pkgafip.CbteNotaCreditoC,
	}
	for original, esperado := range casos {
		nc, err := domafip.TipoNotaCredito(original)
		require.NoError(t, err)
		assert.Equal(t, esperado, nc)
	}

	// Una nota de crédito no puede ser el original de otra.
	_, err := domafip.TipoNotaCredito(pkgafip.CbteNotaCreditoA)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDiscriminaIVA(t *testing.T) {
	assert.True(t, domafip.DiscriminaIVA(pkgafip.CbteFacturaA))
	assert.True(t, domafip.DiscriminaIVA(pkgafip.CbteFacturaB))
	assert.True(t, domafip.DiscriminaIVA(pkgafip.CbteNotaCreditoB))
	assert.False(t, domafip.DiscriminaIVA(pkgafip.CbteFacturaC))
	assert.False(t, domafip.DiscriminaIVA(pkgafip.CbteNotaCreditoC))
}

func TestValidarReceptor(t *testing.T) {
	t.Run("consumidor final fuerza doc 0", func(t *testing.T) {
		// Venga lo que venga en docNro, consumidor final viaja con 0.
		nro, err := domafip.ValidarReceptor(pkgafip.CbteFacturaB, pkgafip.DocTipoConsumidorFinal, 99887766)
		require.NoError(t, err)
		assert.Equal(t, int64(0), nro)
	})

	t.Run("DNI identificado", func(t *testing.T) {
		nro, err := domafip.ValidarReceptor(pkgafip.CbteFacturaB, pkgafip.DocTipoDNI, 30123456)
		require.NoError(t, err)
		assert.Equal(t, int64(30123456), nro)
	})

	t.Run("identificado sin número falla", func(t *testing.T) {
		_, err := domafip.ValidarReceptor(pkgafip.CbteFacturaB, pkgafip.DocTipoDNI, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("tipo A exige CUIT", func(t *testing.T) {
		_, err := domafip.ValidarReceptor(pkgafip.CbteFacturaA, pkgafip.DocTipoDNI, 30123456)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("tipo A con CUIT válido", func(t *testing.T) {
		nro, err := domafip.ValidarReceptor(pkgafip.CbteFacturaA, pkgafip.DocTipoCUIT, 20123456786)
		require.NoError(t, err)
		assert.Equal(t, int64(20123456786), nro)
	})

	t.Run("tipo A con CUIT de verificador inválido", func(t *testing.T) {
		_, err := domafip.ValidarReceptor(pkgafip.CbteFacturaA, pkgafip.DocTipoCUIT, 20123456785)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("tipo de documento desconocido", func(t *testing.T) {
		_, err := domafip.ValidarReceptor(pkgafip.CbteFacturaB, 12, 123)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
