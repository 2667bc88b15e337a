package afip_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/pkg/afip"
)

func TestFormatParseFecha(t *testing.T) {
	fecha := time.Date(2026, 3, 15, 17, 45, 0, 0, time.UTC)
	assert.Equal(t, "20260315", afip.FormatFecha(fecha))

	parsed, err := afip.ParseFecha("20260315")
	require.NoError(t, err)
	assert.Equal(t, 2026, parsed.Year())
	assert.Equal(t, time.March, parsed.Month())
	assert.Equal(t, 15, parsed.Day())

	_, err = afip.ParseFecha("15/03/2026")
	assert.Error(t, err)
	_, err = afip.ParseFecha("")
	assert.Error(t, err)
}

func TestNormalizeTexto(t *testing.T) {
	casos := map[string]string{
		"Peña & Cía. S.R.L.":   "Pena & Cia. S.R.L.",
		"  Almacén Güemes  ":   "Almacen Guemes",
		"sin acentos":          "sin acentos",
		"":                     "",
		"Ñandú á é í ó ú":      "Nandu a e i o u",
	}
	for in, want := range casos {
		assert.Equal(t, want, afip.NormalizeTexto(in))
	}
}
