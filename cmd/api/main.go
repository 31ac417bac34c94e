package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/nominamx/timbrado-api/internal/application/stamping"
	"github.com/nominamx/timbrado-api/internal/infrastructure/cfdi40"
	"github.com/nominamx/timbrado-api/internal/infrastructure/pac"
	"github.com/nominamx/timbrado-api/internal/infrastructure/postgres"
	httpRouter "github.com/nominamx/timbrado-api/internal/interfaces/http"
	"github.com/nominamx/timbrado-api/pkg/config"
	"github.com/nominamx/timbrado-api/pkg/logger"
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

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	recordRepo := postgres.NewStampRecordRepository(pool)
	pacConfigRepo := postgres.NewPACConfigRepository(pool)

	// Registro de adaptadores PAC: conjunto cerrado, resuelto por proveedor.
	builder := cfdi40.NewBuilder()
	registry := stamping.NewRegistry()
	registry.Register(pac.ProviderSolucionFactible, pac.NewSolucionFactibleClient(nil, builder))
	registry.Register(pac.ProviderFacturama, pac.NewFacturamaClient(nil))

	orchestrator := stamping.NewOrchestrator(recordRepo, pacConfigRepo, registry, log)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 60, // el timbrado espera la respuesta del PAC
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{Orchestrator: orchestrator})

	// Apagado ordenado: deja terminar los timbrados en vuelo.
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Info().Msg("señal de apagado recibida")
		_ = app.ShutdownWithTimeout(30 * time.Second)
	}()

	if err := app.Listen(cfg.HTTP.Addr()); err != nil {
		log.Fatal().Err(err).Msg("servidor HTTP")
	}
	log.Info().Msg("aplicación detenida")
}
