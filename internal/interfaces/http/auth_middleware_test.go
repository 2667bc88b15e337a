package http_test

import (
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apihttp "github.com/tu-usuario/facturacion-pro/internal/interfaces/http"
	"github.com/tu-usuario/facturacion-pro/pkg/jwt"
)

const testSecret = "secreto-de-test"

// appConAuth app mínima con el middleware y una ruta que expone los locals.
func appConAuth(secret string) *fiber.App {
	app := fiber.New()
	app.Get("/protegida", apihttp.AuthMiddleware(secret), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":   apihttp.GetUserID(c),
			"tenant_id": apihttp.GetTenantID(c),
		})
	})
	return app
}

func TestAuthMiddleware(t *testing.T) {
	t.Run("token válido propaga user y tenant", func(t *testing.T) {
		app := appConAuth(testSecret)
		token, err := jwt.Generate(testSecret, "user-1", "tenant-1", "facturacion-pro", 15)
		require.NoError(t, err)

		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)

		body, _ := io.ReadAll(resp.Body)
		var out map[string]string
		require.NoError(t, json.Unmarshal(body, &out))
		assert.Equal(t, "user-1", out["user_id"])
		assert.Equal(t, "tenant-1", out["tenant_id"])
	})

	t.Run("sin header", func(t *testing.T) {
		app := appConAuth(testSecret)
		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("esquema distinto de Bearer", func(t *testing.T) {
		app := appConAuth(testSecret)
		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("firma de otro secreto", func(t *testing.T) {
		app := appConAuth(testSecret)
		token, err := jwt.Generate("otro-secreto", "user-1", "tenant-1", "facturacion-pro", 15)
		require.NoError(t, err)

		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token expirado", func(t *testing.T) {
		app := appConAuth(testSecret)
		token, err := jwt.Generate(testSecret, "user-1", "tenant-1", "facturacion-pro", -5)
		require.NoError(t, err)

		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("token sin tenant", func(t *testing.T) {
		app := appConAuth(testSecret)
		token, err := jwt.Generate(testSecret, "user-1", "", "facturacion-pro", 15)
		require.NoError(t, err)

		// Un token válido pero sin tenant no sirve para facturar.
		req := httptest.NewRequest(nethttp.MethodGet, "/protegida", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	})
}
