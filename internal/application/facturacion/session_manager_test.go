package facturacion_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tu-usuario/facturacion-pro/internal/domain"
	pkgafip "github.com/tu-usuario/facturacion-pro/pkg/afip"
)

func TestSessionManagerCredencial(t *testing.T) {
	ctx := context.Background()

	t.Run("reutiliza la credencial cacheada", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)

		cred1, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		cred2, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)

		// Un solo intercambio WSAA para las dos llamadas.
		assert.Equal(t, 1, e.wsaa.count())
		assert.Equal(t, cred1.Token, cred2.Token)
	})

	t.Run("token corto igual se cachea con su vigencia cruda", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)
		// Vigencia menor que el margen de renovación de una hora.
		e.wsaa.expiresIn = 30 * time.Minute

		_, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		_, err = e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		assert.Equal(t, 1, e.wsaa.count())
	})

	t.Run("expiración fuerza un login nuevo", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)
		e.wsaa.expiresIn = time.Millisecond

		_, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
		_, err = e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		assert.Equal(t, 2, e.wsaa.count())
	})

	t.Run("material indesencriptable no llega a la red", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)
		profile.CertEncrypted = `{"n":"AAAA","t":"AAAA","c":"AAAA"}`
		require.NoError(t, e.profiles.Update(ctx, profile))

		_, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		assert.ErrorIs(t, err, domain.ErrCredencialesInvalidas)
		assert.Equal(t, 0, e.wsaa.count())
	})

	t.Run("fallo de login no ensucia el cache", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)
		e.wsaa.err = domain.ErrAutenticacion

		_, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.ErrorIs(t, err, domain.ErrAutenticacion)

		_, ok := e.cache.Get(profile.CUIT, pkgafip.ServicioWSFE)
		assert.False(t, ok)
	})
}

func TestSessionManagerTestConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("purga el cache y ejecuta el intercambio real", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)

		// Credencial ya cacheada: el test igual debe hacer login de nuevo.
		_, err := e.manager.Credencial(ctx, profile, pkgafip.ServicioWSFE)
		require.NoError(t, err)
		require.Equal(t, 1, e.wsaa.count())

		result := e.manager.TestConnection(ctx, profile)
		assert.True(t, result.OK)
		assert.False(t, result.ExpiresAt.IsZero())
		assert.Equal(t, 2, e.wsaa.count())
	})

	t.Run("fallo de autenticación se reporta sin error", func(t *testing.T) {
		e := nuevoEntorno(t)
		profile := e.seedPerfil(t, testCUITMono, pkgafip.RegimenMonotributo)
		e.wsaa.err = domain.ErrAutenticacion

		result := e.manager.TestConnection(ctx, profile)
		assert.False(t, result.OK)
		assert.NotEmpty(t, result.Mensaje)
	})
}
