package afip_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	domafip "github.com/tu-usuario/facturacion-pro/internal/domain/afip"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalcularImportes(t *testing.T) {
	t.Run("tipo C no discrimina: neto = total", func(t *testing.T) {
		// Monotributista vende por 5000: todo es neto, IVA 0.
		imp, err := domafip.CalcularImportes(dec("5000"), false)
		require.NoError(t, err)
		assert.True(t, imp.Neto.Equal(dec("5000")), "neto %s", imp.Neto)
		assert.True(t, imp.IVA.IsZero(), "iva %s", imp.IVA)
		assert.True(t, imp.Total.Equal(dec("5000")))
	})

	t.Run("tipo B discrimina 21 por ciento", func(t *testing.T) {
		// 1210 con IVA incluido -> 1000 neto + 210 de IVA.
		imp, err := domafip.CalcularImportes(dec("1210"), true)
		require.NoError(t, err)
		assert.True(t, imp.Neto.Equal(dec("1000")), "neto %s", imp.Neto)
		assert.True(t, imp.IVA.Equal(dec("210")), "iva %s", imp.IVA)
		assert.True(t, imp.Total.Equal(dec("1210")))
	})

	t.Run("redondeo a dos decimales cierra la suma", func(t *testing.T) {
		// 100 / 1.21 = 82.6446... -> 82.64; el IVA absorbe el redondeo para
		// que neto + IVA = total exacto.
		imp, err := domafip.CalcularImportes(dec("100"), true)
		require.NoError(t, err)
		assert.True(t, imp.Neto.Equal(dec("82.64")), "neto %s", imp.Neto)
		assert.True(t, imp.IVA.Equal(dec("17.36")), "iva %s", imp.IVA)
		assert.True(t, imp.Neto.Add(imp.IVA).Equal(imp.Total))
	})

	t.Run("total no positivo falla", func(t *testing.T) {
		_, err := domafip.CalcularImportes(decimal.Zero, true)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		_, err = domafip.CalcularImportes(dec("-10"), false)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestValidarItems(t *testing.T) {
	ok := []domafip.ItemInput{
		{Descripcion: "Café", Cantidad: dec("2"), PrecioUnitario: dec("1500")},
		{Descripcion: "Descuento", Cantidad: dec("1"), PrecioUnitario: decimal.Zero},
	}
	assert.NoError(t, domafip.ValidarItems(ok))

	assert.ErrorIs(t, domafip.ValidarItems(nil), domain.ErrInvalidInput)
	assert.ErrorIs(t, domafip.ValidarItems([]domafip.ItemInput{
		{Cantidad: decimal.Zero, PrecioUnitario: dec("10")},
	}), domain.ErrInvalidInput)
	assert.ErrorIs(t, domafip.ValidarItems([]domafip.ItemInput{
		{Cantidad: dec("1"), PrecioUnitario: dec("-5")},
	}), domain.ErrInvalidInput)
}

func TestValidarNotaCredito(t *testing.T) {
	original := &entity.Comprobante{
		ID:           "cmp-1",
		CAE:          "71234567890123",
		Estado:       entity.EstadoEmitido,
		ImporteTotal: dec("1210"),
		FechaEmision: time.Now(),
	}

	t.Run("nota válida por el total", func(t *testing.T) {
		assert.NoError(t, domafip.ValidarNotaCredito(original, dec("1210"), "devolución"))
	})

	t.Run("nota parcial válida", func(t *testing.T) {
		assert.NoError(t, domafip.ValidarNotaCredito(original, dec("500"), "ajuste parcial"))
	})

	t.Run("supera el total del original", func(t *testing.T) {
		err := domafip.ValidarNotaCredito(original, dec("1210.01"), "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("motivo obligatorio", func(t *testing.T) {
		err := domafip.ValidarNotaCredito(original, dec("100"), "")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("original ya anulado", func(t *testing.T) {
		anulado := *original
		anulado.Estado = entity.EstadoAnulado
		err := domafip.ValidarNotaCredito(&anulado, dec("100"), "x")
		assert.ErrorIs(t, err, domain.ErrComprobanteAnulado)
	})

	t.Run("original sin CAE", func(t *testing.T) {
		sinCAE := *original
		sinCAE.CAE = ""
		err := domafip.ValidarNotaCredito(&sinCAE, dec("100"), "x")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("original inexistente", func(t *testing.T) {
		err := domafip.ValidarNotaCredito(nil, dec("100"), "x")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}
