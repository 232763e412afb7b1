package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/rs/zerolog"
)

// Reconciler reanuda documentos que quedaron a medias (borrador, pendiente de
// reconciliación o anulación en curso) más viejos que StaleAfter.
type Reconciler struct {
	coord     *Coordinator
	documents repository.DocumentRepository
	log       zerolog.Logger

	// Lock opcional; sin él cada instancia ejecuta sus pasadas.
	Lock PassLock

	Interval    time.Duration
	StaleAfter  time.Duration
	BatchSize   int
	WorkerCount int
}

// NewReconciler construye el worker. documents debe poder listar todos los tenants.
func NewReconciler(coord *Coordinator, documents repository.DocumentRepository, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		coord:       coord,
		documents:   documents,
		log:         log,
		Interval:    time.Minute,
		StaleAfter:  5 * time.Minute,
		BatchSize:   50,
		WorkerCount: 4,
	}
}

// ReconcileReport resumen de una pasada.
type ReconcileReport struct {
	Scanned   int
	Finalized int
	Cancelled int
	Failed    int
}

// Start ejecuta pasadas periódicas hasta que ctx se cancela. Bloqueante.
func (r *Reconciler) Start(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	r.log.Info().Dur("interval", r.Interval).Msg("reconciliador iniciado")
	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reconciliador detenido")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.log.Error().Err(err).Msg("pasada de reconciliación")
			}
		}
	}
}

// RunOnce procesa un lote de documentos atascados con un pool de workers.
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileReport, error) {
	if r.Lock != nil {
		unlock, ok, err := r.Lock.TryLock(ctx)
		if err != nil {
			return ReconcileReport{}, err
		}
		if !ok {
			r.log.Debug().Msg("otra instancia ejecuta la reconciliación")
			return ReconcileReport{}, nil
		}
		defer unlock()
	}
	before := r.coord.now().UTC().Add(-r.StaleAfter)
	docs, err := r.documents.ListStale(ctx, []entity.DocumentStatus{
		entity.StatusDraft,
		entity.StatusPendingReconciliation,
		entity.StatusReversalPending,
	}, before, r.BatchSize)
	if err != nil {
		return ReconcileReport{}, err
	}
	report := ReconcileReport{Scanned: len(docs)}
	if len(docs) == 0 {
		return report, nil
	}

	jobs := make(chan *entity.Document, len(docs))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	workers := r.WorkerCount
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for doc := range jobs {
				status, err := r.reconcile(ctx, doc)
				mu.Lock()
				switch {
				case err != nil:
					report.Failed++
				case status == entity.StatusFinalized:
					report.Finalized++
				case status == entity.StatusCancelled:
					report.Cancelled++
				}
				mu.Unlock()
			}
		}()
	}
	for _, d := range docs {
		jobs <- d
	}
	close(jobs)
	wg.Wait()

	r.log.Info().
		Int("scanned", report.Scanned).
		Int("finalized", report.Finalized).
		Int("cancelled", report.Cancelled).
		Int("failed", report.Failed).
		Msg("pasada de reconciliación")
	return report, nil
}

func (r *Reconciler) reconcile(ctx context.Context, doc *entity.Document) (entity.DocumentStatus, error) {
	tc := domain.SystemContext(doc.TenantID)
	res, err := r.coord.Resume(ctx, tc, doc.ID)
	if err != nil {
		r.log.Warn().Err(err).
			Str("tenant_id", doc.TenantID).
			Str("document_id", doc.ID).
			Str("status", string(doc.Status)).
			Msg("no se pudo reconciliar")
		return doc.Status, err
	}
	return res.Document.Status, nil
}
