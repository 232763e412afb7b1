package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jhoicas/ledger-api/internal/application/catalog"
	"github.com/jhoicas/ledger-api/internal/application/reports"
	"github.com/jhoicas/ledger-api/internal/bootstrap"
	infraexcel "github.com/jhoicas/ledger-api/internal/infrastructure/excel"
	infrapdf "github.com/jhoicas/ledger-api/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/ledger-api/internal/interfaces/http"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.DB.StoreDriver).
		Msg("iniciando aplicación")

	var reg prometheus.Registerer
	if cfg.Metrics.Enabled {
		reg = prometheus.DefaultRegisterer
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	core, err := bootstrap.Build(ctx, cfg, log.Zerolog(), reg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar núcleo")
	}
	defer core.Close()

	productUC := catalog.NewProductUseCase(core.UoW)
	partyUC := catalog.NewPartyUseCase(core.UoW)
	reportsUC := reports.NewUseCase(core.UoW,
		infrapdf.NewMarotoPDFGenerator(""),
		infraexcel.NewStatementExporter(),
		log.Component("reports"),
	)

	if cfg.Ledger.ReconcileEnabled {
		go core.Reconciler.Start(ctx)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(cfg.Docs.SwaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: cfg.Docs.SwaggerFile,
			Path:     "docs",
			Title:    "Ledger API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})
	if cfg.Metrics.Enabled {
		app.Get(cfg.Metrics.Path, adaptor.HTTPHandler(promhttp.Handler()))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Coordinator: core.Coordinator,
		Reconciler:  core.Reconciler,
		ProductUC:   productUC,
		PartyUC:     partyUC,
		ReportsUC:   reportsUC,
		JWTSecret:   cfg.JWT.Secret,
		Log:         log.Component("http"),
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
