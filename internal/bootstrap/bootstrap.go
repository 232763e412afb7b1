// Package bootstrap arma el núcleo del libro a partir de la configuración.
// Lo comparten la API y el CLI de reconciliación.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	infrakafka "github.com/jhoicas/ledger-api/internal/infrastructure/kafka"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
	"github.com/jhoicas/ledger-api/internal/infrastructure/metrics"
	"github.com/jhoicas/ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ledger-api/internal/infrastructure/redisqueue"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Core componentes del núcleo listos para usar.
type Core struct {
	UoW         ledger.UnitOfWork
	Documents   repository.DocumentRepository // sin tenant, para el reconciliador
	Coordinator *ledger.Coordinator
	Reconciler  *ledger.Reconciler

	closers []func()
}

// Close libera conexiones en orden inverso.
func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// Build conecta almacén, cola, eventos y métricas según cfg.
// reg puede ser nil si no se exponen métricas.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger, reg prometheus.Registerer) (*Core, error) {
	core := &Core{}

	switch cfg.DB.StoreDriver {
	case "memory":
		store := memory.New(memory.WithAtomic(true))
		core.UoW, core.Documents = store, store.Stores().Documents
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
		}
		core.closers = append(core.closers, pool.Close)
		if cfg.DB.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool); err != nil {
				core.Close()
				return nil, fmt.Errorf("migraciones: %w", err)
			}
			log.Info().Msg("migraciones aplicadas")
		}
		core.UoW, core.Documents = postgres.NewTxRunner(pool), postgres.NewDocumentRepository(pool)
		logPool(log, pool)
	}

	opts := []ledger.Option{
		ledger.WithRetryPolicy(ledger.RetryPolicy{
			MaxAttempts:    cfg.Ledger.RetryAttempts,
			InitialBackoff: cfg.Ledger.RetryBackoff,
			MaxBackoff:     cfg.Ledger.RetryMaxBackoff,
		}),
		ledger.WithStaleAfter(cfg.Ledger.ReconcileStale),
	}

	if cfg.Kafka.Enabled() {
		pub := infrakafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		core.closers = append(core.closers, func() {
			if err := pub.Close(); err != nil {
				log.Error().Err(err).Msg("cerrar publicador kafka")
			}
		})
		opts = append(opts, ledger.WithEvents(pub))
	}

	var lock ledger.PassLock
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			core.Close()
			return nil, fmt.Errorf("conexión a Redis: %w", err)
		}
		core.closers = append(core.closers, func() { _ = rdb.Close() })
		opts = append(opts, ledger.WithQueue(redisqueue.New(rdb, cfg.Redis.Stream)))
		lock = redisqueue.NewLock(rdb, cfg.Redis.Stream+":lock", cfg.Ledger.ReconcileInterval)
	} else {
		opts = append(opts, ledger.WithQueue(memory.NewQueue()))
	}

	if reg != nil {
		opts = append(opts, ledger.WithMetrics(metrics.New(reg)))
	}

	core.Coordinator = ledger.NewCoordinator(core.UoW, log.With().Str("component", "coordinator").Logger(), opts...)
	rec := ledger.NewReconciler(core.Coordinator, core.Documents, log.With().Str("component", "reconciler").Logger())
	rec.Lock = lock
	rec.Interval = cfg.Ledger.ReconcileInterval
	rec.StaleAfter = cfg.Ledger.ReconcileStale
	rec.BatchSize = cfg.Ledger.ReconcileBatch
	rec.WorkerCount = cfg.Ledger.ReconcileWorkers
	core.Reconciler = rec
	return core, nil
}

func logPool(log zerolog.Logger, pool *pgxpool.Pool) {
	c := pool.Config()
	log.Info().Str("host", c.ConnConfig.Host).Int32("max_conns", c.MaxConns).Msg("pool PostgreSQL listo")
}
