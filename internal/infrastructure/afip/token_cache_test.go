package afip_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
)

func nuevaCred(cuit, service string) *afip.SessionCredential {
	return &afip.SessionCredential{
		CUIT:      cuit,
		Service:   service,
		Token:     "token-" + cuit,
		Sign:      "sign-" + cuit,
		ExpiresAt: time.Now().Add(12 * time.Hour),
	}
}

func TestMemTokenCache_GetPut(t *testing.T) {
	cache := afip.NewMemTokenCache()

	_, ok := cache.Get("20123456786", "wsfe")
	assert.False(t, ok, "cache vacío no devuelve nada")

	cache.Put(nuevaCred("20123456786", "wsfe"), time.Minute)
	cred, ok := cache.Get("20123456786", "wsfe")
	require.True(t, ok)
	assert.Equal(t, "token-20123456786", cred.Token)

	// Mismo CUIT, otro servicio: entrada independiente.
	_, ok = cache.Get("20123456786", "ws_sr_padron_a13")
	assert.False(t, ok)
}

func TestMemTokenCache_TTLVencido(t *testing.T) {
	cache := afip.NewMemTokenCache()
	cache.Put(nuevaCred("20123456786", "wsfe"), time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := cache.Get("20123456786", "wsfe")
	assert.False(t, ok, "una entrada vencida no se reutiliza")
}

func TestMemTokenCache_PutDescartaTTLInvalido(t *testing.T) {
	cache := afip.NewMemTokenCache()
	cache.Put(nuevaCred("20123456786", "wsfe"), 0)
	cache.Put(nil, time.Minute)

	_, ok := cache.Get("20123456786", "wsfe")
	assert.False(t, ok)
}

func TestMemTokenCache_Invalidate(t *testing.T) {
	cache := afip.NewMemTokenCache()
	cache.Put(nuevaCred("20123456786", "wsfe"), time.Minute)
	cache.Put(nuevaCred("20123456786", "ws_sr_padron_a13"), time.Minute)
	cache.Put(nuevaCred("30710000006", "wsfe"), time.Minute)

	t.Run("servicio puntual", func(t *testing.T) {
		cache.Invalidate("20123456786", "wsfe")
		_, ok := cache.Get("20123456786", "wsfe")
		assert.False(t, ok)
		_, ok = cache.Get("20123456786", "ws_sr_padron_a13")
		assert.True(t, ok, "los otros servicios del CUIT sobreviven")
	})

	t.Run("todos los servicios del CUIT", func(t *testing.T) {
		cache.Invalidate("20123456786")
		_, ok := cache.Get("20123456786", "ws_sr_padron_a13")
		assert.False(t, ok)
		_, ok = cache.Get("30710000006", "wsfe")
		assert.True(t, ok, "otros tenants no se ven afectados")
	})

	t.Run("todo el cache", func(t *testing.T) {
		cache.InvalidateAll()
		_, ok := cache.Get("30710000006", "wsfe")
		assert.False(t, ok)
	})
}

// El cache es estado compartido entre todos los caminos de emisión: lecturas,
// escrituras e invalidaciones concurrentes no deben romperlo (correr con -race).
func TestMemTokenCache_Concurrencia(t *testing.T) {
	cache := afip.NewMemTokenCache()
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			cuit := fmt.Sprintf("2012345678%d", n%4)
			for j := 0; j < 200; j++ {
				cache.Put(nuevaCred(cuit, "wsfe"), time.Minute)
				cache.Get(cuit, "wsfe")
				if j%50 == 0 {
					cache.Invalidate(cuit)
				}
			}
		}(i)
	}
	wg.Wait()
}
