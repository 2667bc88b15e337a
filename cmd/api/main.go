package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/tu-usuario/facturacion-pro/internal/application/facturacion"
	infrafip "github.com/tu-usuario/facturacion-pro/internal/infrastructure/afip"
	"github.com/tu-usuario/facturacion-pro/internal/infrastructure/postgres"
	httpRouter "github.com/tu-usuario/facturacion-pro/internal/interfaces/http"
	"github.com/tu-usuario/facturacion-pro/pkg/config"
	"github.com/tu-usuario/facturacion-pro/pkg/logger"
	"github.com/tu-usuario/facturacion-pro/pkg/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	// El vault se valida en el arranque: sin llave correcta no hay servicio.
	credVault, err := vault.New(cfg.Vault.Key)
	if err != nil {
		log.Fatal().Err(err).Msg("llave del vault")
	}

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	profileRepo := postgres.NewFiscalProfileRepository(pool)
	salesPointRepo := postgres.NewSalesPointRepository(pool)
	comprobanteRepo := postgres.NewComprobanteRepository(pool)

	timeout := time.Duration(cfg.AFIP.TimeoutSeconds) * time.Second
	wsaaClient := infrafip.NewWSAAClient(cfg.AFIP.WSAAURL, nil, timeout)
	wsfeClient := infrafip.NewWSFEClient(cfg.AFIP.WSFEURL, timeout)
	padronClient := infrafip.NewPadronClient(cfg.AFIP.PadronURL, timeout)
	tokenCache := infrafip.NewMemTokenCache()

	sessionManager := facturacion.NewSessionManager(tokenCache, wsaaClient, credVault, log)
	factory := facturacion.NewSessionFactory(
		profileRepo, salesPointRepo, comprobanteRepo,
		sessionManager, wsfeClient, tokenCache, credVault, log,
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // la emisión espera dos llamadas a AFIP
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Factory:   factory,
		Padron:    padronClient,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
