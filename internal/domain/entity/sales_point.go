package entity

import "time"

// SalesPoint es un punto de venta habilitado ante AFIP para un perfil fiscal.
// La numeración de comprobantes es independiente por (punto de venta, tipo).
// Único por (perfil, número); a lo sumo uno default por perfil.
type SalesPoint struct {
	ID          string
	ProfileID   string
	Numero      int // 1..99999, registrado ante AFIP
	Descripcion string
	EsDefault   bool
	Activo      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
