package afip

import (
	"fmt"
	"strconv"
	"unicode"
)

// pesos para el cálculo del dígito verificador del CUIT (módulo 11, AFIP).
// Se aplican a los 10 primeros dígitos, de izquierda a derecha.
var cuitWeights = [10]int{5, 4, 3, 2, 7, 6, 5, 4, 3, 2}

// NormalizeCUIT deja solo los dígitos del CUIT ("20-12345678-6" -> "20123456786").
func NormalizeCUIT(cuit string) string {
	var out []byte
	for _, r := range cuit {
		if unicode.IsDigit(r) {
			out = append(out, byte(r))
		}
	}
	return string(out)
}

// ValidateCUIT valida que el CUIT (con o sin guiones) tenga 11 dígitos y un
// dígito verificador correcto según el algoritmo módulo 11 de AFIP.
func ValidateCUIT(cuit string) error {
	digits := NormalizeCUIT(cuit)
	if len(digits) != 11 {
		return fmt.Errorf("afip: CUIT debe tener 11 dígitos, se encontraron %d", len(digits))
	}
	var sum int
	for i := 0; i < 10; i++ {
		sum += int(digits[i]-'0') * cuitWeights[i]
	}
	remainder := sum % 11
	var expected byte
	switch remainder {
	case 0:
		expected = '0'
	case 1:
		// resto 1 produce verificador 10, que no existe: el CUIT es inválido
		// (AFIP reasigna el prefijo en esos casos).
		return fmt.Errorf("afip: CUIT sin dígito verificador posible (resto 1)")
	default:
		expected = byte('0' + (11 - remainder))
	}
	if digits[10] != expected {
		return fmt.Errorf("afip: dígito verificador del CUIT inválido: esperado %c, recibido %c", expected, digits[10])
	}
	return nil
}

// CUITToInt convierte el CUIT normalizado a int64, formato que exige el bloque
// Auth de WSFE. Falla si el CUIT no valida.
func CUITToInt(cuit string) (int64, error) {
	if err := ValidateCUIT(cuit); err != nil {
		return 0, err
	}
	n, err := strconv.ParseInt(NormalizeCUIT(cuit), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("afip: CUIT no numérico: %w", err)
	}
	return n, nil
}
