package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/tu-usuario/facturacion-pro/internal/application/facturacion"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Factory   *facturacion.SessionFactory
	Padron    facturacion.PadronLookup
	JWTSecret string
}

// Router registra las rutas de la API. Todo el API fiscal es por-tenant y
// requiere Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	// Configuración fiscal del tenant
	fiscal := api.Group("/fiscal")
	fiscalHandler := NewFiscalHandler(deps.Factory, deps.Padron)
	fiscal.Get("/configuracion", fiscalHandler.GetConfiguracion)
	fiscal.Put("/configuracion", fiscalHandler.SaveConfiguracion)
	fiscal.Delete("/configuracion", fiscalHandler.Desconectar)
	fiscal.Post("/test", fiscalHandler.TestConexion)
	fiscal.Delete("/cache", fiscalHandler.InvalidarCache)
	fiscal.Get("/puntos-venta", fiscalHandler.ListPuntosVenta)
	fiscal.Post("/puntos-venta", fiscalHandler.SavePuntoVenta)
	fiscal.Get("/padron/:cuit", fiscalHandler.ConsultarPadron)

	// Emisión y consulta de comprobantes
	comprobantes := api.Group("/comprobantes")
	comprobanteHandler := NewComprobanteHandler(deps.Factory)
	comprobantes.Post("/", comprobanteHandler.Emitir)
	comprobantes.Get("/", comprobanteHandler.List)
	comprobantes.Get("/:id", comprobanteHandler.GetByID)
	comprobantes.Post("/:id/nota-credito", comprobanteHandler.NotaCredito)
}
