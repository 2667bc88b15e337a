package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas). Cubren las cinco categorías
// que la capa HTTP debe poder distinguir: configuración, autenticación,
// validación, rechazo de negocio de AFIP y transporte.
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Configuración: se detectan antes de cualquier llamada remota.
	ErrPerfilNoConfigurado    = errors.New("perfil fiscal no configurado o inactivo")
	ErrPerfilNoVerificado     = errors.New("perfil fiscal no verificado: ejecutar el test de conexión")
	ErrPuntoVentaNoDisponible = errors.New("punto de venta no disponible para el perfil")
	ErrCredencialesInvalidas  = errors.New("certificado o llave privada con formato inválido")

	// Autenticación: WSAA rechazó el acceso o el material de firma no sirve.
	ErrAutenticacion = errors.New("autenticación contra AFIP fallida")

	// Negocio: AFIP atendió la llamada pero rechazó el comprobante.
	ErrRechazoAFIP = errors.New("comprobante rechazado por AFIP")
	// ErrNumeroDuplicado caso particular retryable: otro proceso usó el número
	// candidato entre la lectura del último autorizado y el envío.
	ErrNumeroDuplicado = errors.New("número de comprobante ya autorizado: reintentar la secuencia completa")

	// Estado de comprobantes.
	ErrComprobanteAnulado = errors.New("el comprobante ya fue anulado")

	// Transporte: AFIP inalcanzable o timeout; distinguible del rechazo de
	// negocio para que el caller decida si reintenta.
	ErrTransporte = errors.New("servicio de AFIP inalcanzable")
)

// Observacion código y mensaje devueltos por AFIP al rechazar un comprobante.
type Observacion struct {
	Code int
	Msg  string
}

// RechazoError transporta las observaciones de AFIP verbatim. Envuelve
// ErrRechazoAFIP (o ErrNumeroDuplicado si la observación es de duplicado)
// para que errors.Is siga funcionando.
type RechazoError struct {
	Observaciones []Observacion
	sentinel      error
}

// obsNumeroDuplicado código de observación de WSFE para número ya autorizado.
const obsNumeroDuplicado = 10016

// NewRechazoError clasifica las observaciones y construye el error de rechazo.
func NewRechazoError(obs []Observacion) *RechazoError {
	sentinel := ErrRechazoAFIP
	for _, o := range obs {
		if o.Code == obsNumeroDuplicado {
			sentinel = ErrNumeroDuplicado
			break
		}
	}
	return &RechazoError{Observaciones: obs, sentinel: sentinel}
}

func (e *RechazoError) Error() string {
	if len(e.Observaciones) == 0 {
		return e.sentinel.Error()
	}
	parts := make([]string, 0, len(e.Observaciones))
	for _, o := range e.Observaciones {
		parts = append(parts, fmt.Sprintf("[%d] %s", o.Code, o.Msg))
	}
	return e.sentinel.Error() + ": " + strings.Join(parts, "; ")
}

func (e *RechazoError) Unwrap() error { return e.sentinel }
