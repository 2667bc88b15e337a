package afip

import (
	"sync"
	"time"
)

// cacheKey identifica una credencial por tenant y servicio destino.
type cacheKey struct {
	cuit    string
	service string
}

type cacheEntry struct {
	cred     *SessionCredential
	deadline time.Time // momento a partir del cual la entrada no se reutiliza
}

// MemTokenCache es el cache de credenciales WSAA de proceso: un único mapa
// protegido por RWMutex, compartido por todos los caminos de emisión. Las
// entradas son inmutables una vez escritas y se reemplazan atómicamente.
type MemTokenCache struct {
	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

// NewMemTokenCache construye el cache vacío.
func NewMemTokenCache() *MemTokenCache {
	return &MemTokenCache{entries: make(map[cacheKey]cacheEntry)}
}

// Get devuelve la credencial vigente para (cuit, service), o false si no hay
// o ya venció su ventana de reutilización.
func (c *MemTokenCache) Get(cuit, service string) (*SessionCredential, bool) {
	c.mu.RLock()
	entry, ok := c.entries[cacheKey{cuit, service}]
	c.mu.RUnlock()
	if !ok || time.Now().After(entry.deadline) {
		return nil, false
	}
	return entry.cred, true
}

// Put guarda la credencial con la ventana de reutilización ttl. El ttl lo fija
// el caller con margen respecto de la expiración real del token, para no usar
// una credencial que venza en pleno vuelo.
func (c *MemTokenCache) Put(cred *SessionCredential, ttl time.Duration) {
	if cred == nil || ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.entries[cacheKey{cred.CUIT, cred.Service}] = cacheEntry{
		cred:     cred,
		deadline: time.Now().Add(ttl),
	}
	c.mu.Unlock()
}

// Invalidate purga las credenciales del CUIT. Sin servicios explícitos purga
// todas las del tenant; con servicios, solo esas. Se invoca cuando cambian las
// credenciales del perfil.
func (c *MemTokenCache) Invalidate(cuit string, services ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(services) == 0 {
		for k := range c.entries {
			if k.cuit == cuit {
				delete(c.entries, k)
			}
		}
		return
	}
	for _, s := range services {
		delete(c.entries, cacheKey{cuit, s})
	}
}

// InvalidateAll vacía el cache completo.
func (c *MemTokenCache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]cacheEntry)
	c.mu.Unlock()
}
