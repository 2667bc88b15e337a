package entity

import "time"

// FiscalProfile representa la identidad fiscal de un tenant ante AFIP: CUIT,
// régimen y material de firma encriptado. Un tenant tiene a lo sumo un perfil
// activo; el CUIT es único entre tenants.
//
// El perfil nunca se borra: los comprobantes emitidos lo referencian. La baja
// es un soft-disconnect (Desconectar) que vacía credenciales y flags pero
// retiene el registro para historia.
type FiscalProfile struct {
	ID                string
	TenantID          string
	CUIT              string // 11 dígitos normalizados, único global
	RazonSocial       string
	DomicilioFiscal   string
	Regimen           string // afip.RegimenResponsableInscripto | afip.RegimenMonotributo
	InicioActividades time.Time

	// Material de firma: envelopes del vault, nunca en claro en la DB ni en logs.
	CertEncrypted string
	KeyEncrypted  string
	CertExpiry    *time.Time

	// Verificado pasa a true solo tras un test de conexión WSAA exitoso y se
	// resetea a false ante cualquier cambio de credenciales. Un perfil sin
	// verificar no puede emitir.
	Verificado  bool
	LastTestAt  *time.Time
	LastTestOK  bool
	LastTestMsg string

	Activo    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Desconectar aplica el soft-disconnect: vacía credenciales y desactiva el
// perfil sin eliminarlo.
func (p *FiscalProfile) Desconectar(now time.Time) {
	p.CertEncrypted = ""
	p.KeyEncrypted = ""
	p.CertExpiry = nil
	p.Verificado = false
	p.LastTestAt = nil
	p.LastTestOK = false
	p.LastTestMsg = ""
	p.Activo = false
	p.UpdatedAt = now
}
