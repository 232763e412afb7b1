// Comando reconcile ejecuta una pasada del reconciliador y termina.
// Útil como cron cuando la API corre con LEDGER_RECONCILE_ENABLED=false.
//
//	go run ./cmd/reconcile -stale 10m -batch 200
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/ledger-api/internal/bootstrap"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	stale := flag.Duration("stale", cfg.Ledger.ReconcileStale, "antigüedad mínima de un documento atascado")
	batch := flag.Int("batch", cfg.Ledger.ReconcileBatch, "documentos por pasada")
	flag.Parse()

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "reconcile"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	core, err := bootstrap.Build(ctx, cfg, log.Zerolog(), nil)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar núcleo")
	}
	defer core.Close()

	core.Reconciler.StaleAfter = *stale
	core.Reconciler.BatchSize = *batch

	report, err := core.Reconciler.RunOnce(ctx)
	if err != nil {
		log.Error().Err(err).Msg("pasada de reconciliación")
		core.Close()
		os.Exit(1)
	}
	log.Info().
		Int("scanned", report.Scanned).
		Int("finalized", report.Finalized).
		Int("cancelled", report.Cancelled).
		Int("failed", report.Failed).
		Msg("reconciliación terminada")
}
