package afip

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fechaCompacta es el formato AAAAMMDD que exigen los campos de fecha de WSFE.
const fechaCompacta = "20060102"

// FormatFecha formatea una fecha al formato compacto de 8 dígitos de WSFE.
func FormatFecha(t time.Time) string {
	return t.Format(fechaCompacta)
}

// ParseFecha parsea una fecha compacta AAAAMMDD (ej. el vencimiento del CAE).
func ParseFecha(s string) (time.Time, error) {
	t, err := time.Parse(fechaCompacta, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("afip: fecha %q no tiene formato AAAAMMDD: %w", s, err)
	}
	return t, nil
}

// asciiTransformer descompone acentos (NFD), descarta las marcas diacríticas y
// recompone (NFC): "Peña & Cía." -> "Pena & Cia.".
var asciiTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeTexto normaliza un texto libre (razón social, descripción de ítem)
// al subconjunto ASCII que los web services de AFIP aceptan sin observaciones.
func NormalizeTexto(s string) string {
	out, _, err := transform.String(asciiTransformer, s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}
