package facturacion

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/facturacion-pro/internal/domain"
	domafip "github.com/tu-usuario/facturacion-pro/internal/domain/afip"
	"github.com/tu-usuario/facturacion-pro/internal/domain/entity"
	"github.com/tu-usuario/facturacion-pro/internal/domain/repository"
	infrafip "github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
	"github.com/tu-usuario/facturacion-pro/pkg/logger"
)

const serviceWSFE = pkgafip.ServicioWSFE

// numeracionLocks serializa dentro del proceso la secuencia
// leer-último -> +1 -> enviar por clave (CUIT, punto de venta, tipo). AFIP no
// ofrece compare-and-swap: sin este candado dos emisiones concurrentes del
// mismo tipo leerían el mismo último número y una sería rechazada por
// duplicado. Si conviven varias instancias el duplicado remoto igual se
// mapea a domain.ErrNumeroDuplicado (retryable).
type numeracionLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newNumeracionLocks() *numeracionLocks {
	return &numeracionLocks{locks: make(map[string]*sync.Mutex)}
}

func (n *numeracionLocks) lock(cuit string, ptoVta, tipo int) *sync.Mutex {
	key := fmt.Sprintf("%s|%d|%d", cuit, ptoVta, tipo)
	n.mu.Lock()
	l, ok := n.locks[key]
	if !ok {
		l = &sync.Mutex{}
		n.locks[key] = l
	}
	n.mu.Unlock()
	l.Lock()
	return l
}

// Session es el motor de emisión ligado a un (tenant, punto de venta) ya
// resueltos y verificados por la fábrica.
type Session struct {
	profile    *entity.FiscalProfile
	salesPoint *entity.SalesPoint

	sessions     *SessionManager
	wsfe         WSFEPort
	comprobantes repository.ComprobanteRepository
	locks        *numeracionLocks
	log          *logger.Logger
}

// Profile devuelve el perfil fiscal de la sesión.
func (s *Session) Profile() *entity.FiscalProfile { return s.profile }

// SalesPoint devuelve el punto de venta resuelto.
func (s *Session) SalesPoint() *entity.SalesPoint { return s.salesPoint }

// FacturaInput parámetros de emisión de una factura.
type FacturaInput struct {
	Items           []domafip.ItemInput
	Total           decimal.Decimal
	DocTipo         int
	DocNro          int64
	CondIVAReceptor int
	OrderRef        string // referencia opcional a una orden/reserva externa
}

// EmitirFactura valida, resuelve el tipo por la matriz fiscal, pide el número
// siguiente, solicita el CAE y persiste el comprobante inmutable.
//
// Ante rechazo de AFIP no se persiste nada y el error lleva las observaciones
// verbatim. No hay reintentos automáticos: reintentar acá con número
// incrementado arriesga huecos de numeración, que son en sí una falta fiscal.
func (s *Session) EmitirFactura(ctx context.Context, in FacturaInput) (*entity.Comprobante, error) {
	if err := domafip.ValidarItems(in.Items); err != nil {
		return nil, err
	}
	tipo, err := domafip.ResolverTipoComprobante(s.profile.Regimen, in.CondIVAReceptor)
	if err != nil {
		return nil, err
	}
	docNro, err := domafip.ValidarReceptor(tipo, in.DocTipo, in.DocNro)
	if err != nil {
		return nil, err
	}
	importes, err := domafip.CalcularImportes(in.Total, domafip.DiscriminaIVA(tipo))
	if err != nil {
		return nil, err
	}

	return s.autorizar(ctx, autorizacion{
		tipo:     tipo,
		docTipo:  in.DocTipo,
		docNro:   docNro,
		condIVA:  in.CondIVAReceptor,
		importes: importes,
		items:    in.Items,
		orderRef: in.OrderRef,
	})
}

// NotaCreditoInput parámetros de emisión de una nota de crédito.
type NotaCreditoInput struct {
	OriginalID string
	Total      decimal.Decimal
	Motivo     string
	Items      []domafip.ItemInput
}

// EmitirNotaCredito emite la nota de crédito espejo del comprobante original,
// con la referencia obligatoria CbtesAsoc. Si el total acreditado iguala el
// del original, el original pasa a ANULADO vinculado a la nueva nota; una
// nota parcial no toca el estado del original.
func (s *Session) EmitirNotaCredito(ctx context.Context, in NotaCreditoInput) (*entity.Comprobante, error) {
	original, err := s.comprobantes.GetByID(ctx, in.OriginalID)
	if err != nil {
		return nil, err
	}
	if original == nil || original.ProfileID != s.profile.ID {
		return nil, fmt.Errorf("%w: comprobante original", domain.ErrNotFound)
	}
	if err := domafip.ValidarNotaCredito(original, in.Total, in.Motivo); err != nil {
		return nil, err
	}
	tipoNC, err := domafip.TipoNotaCredito(original.TipoCbte)
	if err != nil {
		return nil, err
	}
	items := in.Items
	if len(items) == 0 {
		items = []domafip.ItemInput{{
			Descripcion:    in.Motivo,
			Cantidad:       decimal.NewFromInt(1),
			PrecioUnitario: in.Total,
		}}
	}
	if err := domafip.ValidarItems(items); err != nil {
		return nil, err
	}
	// El split impositivo sigue el tipo del original (A/B discriminan, C no).
	importes, err := domafip.CalcularImportes(in.Total, domafip.DiscriminaIVA(original.TipoCbte))
	if err != nil {
		return nil, err
	}

	nc, err := s.autorizar(ctx, autorizacion{
		tipo:     tipoNC,
		docTipo:  original.DocTipo,
		docNro:   original.DocNro,
		condIVA:  original.CondIVAReceptor,
		importes: importes,
		items:    items,
		motivo:   in.Motivo,
		asociado: original,
	})
	if err != nil {
		return nil, err
	}

	if in.Total.Equal(original.ImporteTotal) {
		if err := s.comprobantes.MarcarAnulado(ctx, original.ID, nc.ID); err != nil {
			// La NC ya está autorizada y persistida; el vínculo de anulación
			// quedó pendiente y se reporta.
			return nc, fmt.Errorf("nota de crédito %s emitida pero no se pudo anular el original: %w", nc.ID, err)
		}
	}
	return nc, nil
}

// autorizacion parámetros internos comunes a factura y nota de crédito.
type autorizacion struct {
	tipo     int
	docTipo  int
	docNro   int64
	condIVA  int
	importes domafip.Importes
	items    []domafip.ItemInput
	orderRef string
	motivo   string
	asociado *entity.Comprobante
}

// autorizar ejecuta la secuencia común: candado de numeración -> credencial ->
// último autorizado -> FECAESolicitar -> persistencia del aceptado.
func (s *Session) autorizar(ctx context.Context, a autorizacion) (*entity.Comprobante, error) {
	lock := s.locks.lock(s.profile.CUIT, s.salesPoint.Numero, a.tipo)
	defer lock.Unlock()

	cred, err := s.sessions.Credencial(ctx, s.profile, serviceWSFE)
	if err != nil {
		return nil, err
	}
	cuitInt, err := pkgafip.CUITToInt(s.profile.CUIT)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPerfilNoConfigurado, err)
	}
	auth := infrafip.FEAuth{Token: cred.Token, Sign: cred.Sign, CUIT: cuitInt}

	ultimo, err := s.wsfe.UltimoAutorizado(ctx, auth, s.salesPoint.Numero, a.tipo)
	if err != nil {
		return nil, err
	}
	numero := ultimo + 1
	fecha := time.Now()

	req := &infrafip.CAERequest{
		PtoVta:          s.salesPoint.Numero,
		CbteTipo:        a.tipo,
		CbteNro:         numero,
		Fecha:           fecha,
		DocTipo:         a.docTipo,
		DocNro:          a.docNro,
		CondIVAReceptor: a.condIVA,
		ImpNeto:         a.importes.Neto,
		ImpIVA:          a.importes.IVA,
		ImpTotal:        a.importes.Total,
	}
	if a.importes.IVA.GreaterThan(decimal.Zero) {
		req.AlicIVAID = pkgafip.AlicIVA21ID
	}
	if a.asociado != nil {
		req.CbteAsoc = &infrafip.CbteAsoc{
			Tipo:   a.asociado.TipoCbte,
			PtoVta: a.asociado.PtoVta,
			Nro:    a.asociado.Numero,
			CUIT:   s.profile.CUIT,
			Fecha:  a.asociado.FechaEmision,
		}
	}

	result, err := s.wsfe.SolicitarCAE(ctx, auth, req)
	if err != nil {
		return nil, err
	}
	if !result.Aprobado() {
		s.log.Warn().
			Str("cuit", s.profile.CUIT).
			Int("tipo", a.tipo).
			Int64("numero", numero).
			Msg("comprobante rechazado por AFIP")
		return nil, domain.NewRechazoError(result.Observaciones)
	}

	vencimiento := result.CAEVencimiento
	if vencimiento.IsZero() {
		vencimiento = fecha.AddDate(0, 0, pkgafip.CAEVigenciaDias)
	}

	cmp := &entity.Comprobante{
		ID:             uuid.New().String(),
		TenantID:       s.profile.TenantID,
		ProfileID:      s.profile.ID,
		SalesPointID:   s.salesPoint.ID,
		TipoCbte:       a.tipo,
		PtoVta:         s.salesPoint.Numero,
		Numero:         numero,
		CAE:            result.CAE,
		CAEVencimiento: vencimiento,
		FechaEmision:   fecha,
		ImporteNeto:    a.importes.Neto,
		ImporteIVA:     a.importes.IVA,
		ImporteTotal:   a.importes.Total,
		DocTipo:        a.docTipo,
		DocNro:         a.docNro,
		CondIVAReceptor: a.condIVA,
		OrderRef:       a.orderRef,
		Motivo:         a.motivo,
		Estado:         entity.EstadoEmitido,
		RawResponse:    result.RawResponse,
		CreatedAt:      fecha,
	}
	if a.asociado != nil {
		asocID := a.asociado.ID
		cmp.CbteAsocID = &asocID
	}
	for i, it := range a.items {
		cmp.Items = append(cmp.Items, entity.ComprobanteItem{
			ID:             uuid.New().String(),
			ComprobanteID:  cmp.ID,
			Orden:          i + 1,
			Descripcion:    pkgafip.NormalizeTexto(it.Descripcion),
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Cantidad.Mul(it.PrecioUnitario).Round(2),
		})
	}

	if err := s.comprobantes.Create(ctx, cmp); err != nil {
		return nil, fmt.Errorf("persistir comprobante autorizado (CAE %s): %w", result.CAE, err)
	}

	s.log.Info().
		Str("cuit", s.profile.CUIT).
		Str("tipo", pkgafip.NombreCbte[a.tipo]).
		Int("pto_vta", s.salesPoint.Numero).
		Int64("numero", numero).
		Str("cae", result.CAE).
		Msg("comprobante autorizado")
	return cmp, nil
}
