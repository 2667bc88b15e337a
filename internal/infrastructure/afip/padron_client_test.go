package afip_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	"github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

const personaRI = `{"success":true,"data":{"razonSocial":"Almacén Güemes S.A.","impuestos":[30,10]}}`

func TestPadronConsultar(t *testing.T) {
	t.Run("v2 responde y se infiere la condición IVA", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.True(t, strings.HasPrefix(r.URL.Path, "/v2/persona/"))
			fmt.Fprint(w, personaRI)
		}))
		defer srv.Close()

		client := afip.NewPadronClient(srv.URL, 5*time.Second)
		info, err := client.Consultar(context.Background(), "20-12345678-6")
		require.NoError(t, err)
		assert.Equal(t, "20123456786", info.CUIT)
		// La razón social se normaliza a ASCII.
		assert.Equal(t, "Almacen Guemes S.A.", info.RazonSocial)
		assert.Equal(t, pkgafip.CondIVAResponsableInscripto, info.CondicionIVA)
	})

	t.Run("v2 caído cae a v1", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/v2/") {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			fmt.Fprint(w, `{"success":true,"data":{"nombre":"Juan","apellido":"Pérez","categoriasMonotributo":[{"idCategoria":3}]}}`)
		}))
		defer srv.Close()

		client := afip.NewPadronClient(srv.URL, 5*time.Second)
		info, err := client.Consultar(context.Background(), "20123456786")
		require.NoError(t, err)
		assert.Equal(t, "Perez Juan", info.RazonSocial)
		assert.Equal(t, pkgafip.CondIVAMonotributo, info.CondicionIVA)
	})

	t.Run("cache evita la segunda llamada", func(t *testing.T) {
		var llamadas int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&llamadas, 1)
			fmt.Fprint(w, personaRI)
		}))
		defer srv.Close()

		client := afip.NewPadronClient(srv.URL, 5*time.Second)
		_, err := client.Consultar(context.Background(), "20123456786")
		require.NoError(t, err)
		_, err = client.Consultar(context.Background(), "20123456786")
		require.NoError(t, err)
		assert.Equal(t, int32(1), atomic.LoadInt32(&llamadas))
	})

	t.Run("todas las fuentes fallan", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		client := afip.NewPadronClient(srv.URL, 5*time.Second)
		_, err := client.Consultar(context.Background(), "20123456786")
		assert.Error(t, err)
	})

	t.Run("contribuyente inexistente", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success":false}`)
		}))
		defer srv.Close()

		client := afip.NewPadronClient(srv.URL, 5*time.Second)
		_, err := client.Consultar(context.Background(), "20123456786")
		assert.Error(t, err)
	})

	t.Run("CUIT inválido falla sin llamada remota", func(t *testing.T) {
		client := afip.NewPadronClient("http://127.0.0.1:1", time.Second)
		_, err := client.Consultar(context.Background(), "123")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
