// Package metrics contadores Prometheus del núcleo contable.
package metrics

import (
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/prometheus/client_golang/prometheus"
)

var _ ledger.Metrics = (*Collector)(nil)

// Collector implementa ledger.Metrics sobre un registro Prometheus.
type Collector struct {
	documents      *prometheus.CounterVec
	retries        *prometheus.CounterVec
	lowStock       prometheus.Counter
	reconciliation *prometheus.CounterVec
}

// New registra los contadores en reg (usar prometheus.DefaultRegisterer en producción).
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "documents_total",
			Help:      "Documentos procesados por tipo, operación y resultado.",
		}, []string{"kind", "operation", "outcome"}),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "store_retries_total",
			Help:      "Reintentos por fallas transitorias del almacén.",
		}, []string{"operation"}),
		lowStock: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "negative_stock_total",
			Help:      "Movimientos que dejaron un producto con cantidad negativa.",
		}),
		reconciliation: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ledger",
			Name:      "reconciliation_enqueued_total",
			Help:      "Documentos enviados a la cola de reconciliación.",
		}, []string{"operation"}),
	}
	reg.MustRegister(c.documents, c.retries, c.lowStock, c.reconciliation)
	return c
}

func (c *Collector) DocumentProcessed(kind, operation, outcome string) {
	c.documents.WithLabelValues(kind, operation, outcome).Inc()
}

func (c *Collector) StoreRetry(operation string) { c.retries.WithLabelValues(operation).Inc() }

func (c *Collector) LowStock() { c.lowStock.Inc() }

func (c *Collector) ReconciliationEnqueued(operation string) {
	c.reconciliation.WithLabelValues(operation).Inc()
}
