package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the Prometheus metrics of the model layer
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	RecordsConstructed   *prometheus.CounterVec
	ConstructionFailures *prometheus.CounterVec
	CollectionMutations  *prometheus.CounterVec
	ModelTypes           prometheus.Gauge
}

// NewCollector creates a new metrics collector with the given namespace. Each collector
// owns its registry so that several collectors can coexist in tests.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	recordsConstructed := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_constructed_total",
			Help:      "Total number of model records constructed",
		},
		[]string{"model"},
	)

	constructionFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "record_construction_failures_total",
			Help:      "Total number of aborted record constructions",
		},
		[]string{"model", "error_type"},
	)

	collectionMutations := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collection_mutations_total",
			Help:      "Total number of collection mutations",
		},
		[]string{"model", "property", "operation"},
	)

	modelTypes := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "model_types",
			Help:      "Number of model types in the initialized registry",
		},
	)

	registry.MustRegister(
		recordsConstructed,
		constructionFailures,
		collectionMutations,
		modelTypes,
	)

	return &Collector{
		registry:             registry,
		RecordsConstructed:   recordsConstructed,
		ConstructionFailures: constructionFailures,
		CollectionMutations:  collectionMutations,
		ModelTypes:           modelTypes,
	}
}

// Registry returns the Prometheus registry backing this collector
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordConstructed counts a successfully constructed record
func (c *Collector) RecordConstructed(model string) {
	c.RecordsConstructed.WithLabelValues(model).Inc()
}

// RecordConstructionFailure counts an aborted construction
func (c *Collector) RecordConstructionFailure(model, errorType string) {
	c.ConstructionFailures.WithLabelValues(model, errorType).Inc()
}

// RecordCollectionMutation counts an append, remove or clear on a collection
func (c *Collector) RecordCollectionMutation(model, property, operation string) {
	c.CollectionMutations.WithLabelValues(model, property, operation).Inc()
}

// SetModelTypes reports the number of registered model types
func (c *Collector) SetModelTypes(n int) {
	c.ModelTypes.Set(float64(n))
}
