package afip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

// Consulta de padrón de contribuyentes: enriquecimiento best-effort de los
// datos del receptor (razón social, condición IVA). Nunca bloquea la emisión:
// un fallo acá es no-fatal para el caller.

const (
	padronURLDefault = "https://soa.afip.gob.ar/sr-padron"

	// padronTTL vigencia del cache propio del padrón, independiente del cache
	// de tokens WSAA.
	padronTTL = 24 * time.Hour
)

// padronStrategy una fuente de datos del padrón; se intentan en orden hasta
// que una responda.
type padronStrategy interface {
	nombre() string
	consultar(ctx context.Context, cuit string) (*ContribuyenteInfo, error)
}

// PadronClient resuelve datos de contribuyentes con estrategias en cadena y
// cache propio.
type PadronClient struct {
	estrategias []padronStrategy

	mu    sync.RWMutex
	cache map[string]padronEntry
}

type padronEntry struct {
	info     *ContribuyenteInfo
	deadline time.Time
}

// NewPadronClient construye el cliente con las estrategias por defecto
// (padrón v2, luego v1). baseURL vacío usa el servicio público de AFIP.
func NewPadronClient(baseURL string, timeout time.Duration) *PadronClient {
	if baseURL == "" {
		baseURL = padronURLDefault
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	hc := &http.Client{Timeout: timeout}
	return &PadronClient{
		estrategias: []padronStrategy{
			&padronREST{version: "v2", baseURL: baseURL, httpClient: hc},
			&padronREST{version: "v1", baseURL: baseURL, httpClient: hc},
		},
		cache: make(map[string]padronEntry),
	}
}

// Consultar devuelve los datos del contribuyente, del cache si están frescos.
// Si todas las estrategias fallan retorna el último error; el caller trata
// cualquier error como dato faltante, nunca como falla de la emisión.
func (c *PadronClient) Consultar(ctx context.Context, cuit string) (*ContribuyenteInfo, error) {
	cuit = pkgafip.NormalizeCUIT(cuit)
	if err := pkgafip.ValidateCUIT(cuit); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	c.mu.RLock()
	entry, ok := c.cache[cuit]
	c.mu.RUnlock()
	if ok && time.Now().Before(entry.deadline) {
		return entry.info, nil
	}

	var lastErr error
	for _, e := range c.estrategias {
		info, err := e.consultar(ctx, cuit)
		if err != nil {
			lastErr = fmt.Errorf("padron %s: %w", e.nombre(), err)
			continue
		}
		c.mu.Lock()
		c.cache[cuit] = padronEntry{info: info, deadline: time.Now().Add(padronTTL)}
		c.mu.Unlock()
		return info, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("padron: sin estrategias configuradas")
	}
	return nil, lastErr
}

// ── Estrategia REST (sr-padron v2 / v1) ───────────────────────────────────────

type padronREST struct {
	version    string
	baseURL    string
	httpClient *http.Client
}

func (p *padronREST) nombre() string { return p.version }

// personaResponse subset de la respuesta del padrón público.
type personaResponse struct {
	Success bool `json:"success"`
	Data    struct {
		RazonSocial string   `json:"razonSocial"`
		Nombre      string   `json:"nombre"`
		Apellido    string   `json:"apellido"`
		Impuestos   []int    `json:"impuestos"`
		CategoriasMonotributo []struct {
			Id int `json:"idCategoria"`
		} `json:"categoriasMonotributo"`
	} `json:"data"`
}

func (p *padronREST) consultar(ctx context.Context, cuit string) (*ContribuyenteInfo, error) {
	url := fmt.Sprintf("%s/%s/persona/%s", strings.TrimRight(p.baseURL, "/"), p.version, cuit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	var parsed personaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("respuesta no parseable: %w", err)
	}
	if !parsed.Success {
		return nil, fmt.Errorf("contribuyente no encontrado")
	}

	razon := parsed.Data.RazonSocial
	if razon == "" {
		razon = strings.TrimSpace(parsed.Data.Apellido + " " + parsed.Data.Nombre)
	}
	return &ContribuyenteInfo{
		CUIT:         cuit,
		RazonSocial:  pkgafip.NormalizeTexto(razon),
		CondicionIVA: inferirCondicionIVA(parsed),
	}, nil
}

// inferirCondicionIVA deduce la condición frente al IVA desde los impuestos
// inscriptos: 30 = IVA (responsable inscripto), 20 = monotributo. El dato es
// orientativo; si no se puede inferir queda como no categorizado.
func inferirCondicionIVA(p personaResponse) int {
	if len(p.Data.CategoriasMonotributo) > 0 {
		return pkgafip.CondIVAMonotributo
	}
	for _, imp := range p.Data.Impuestos {
		switch imp {
		case 30:
			return pkgafip.CondIVAResponsableInscripto
		case 20:
			return pkgafip.CondIVAMonotributo
		case 32:
			return pkgafip.CondIVAExento
		}
	}
	return pkgafip.CondIVANoCategorizado
}
