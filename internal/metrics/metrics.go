// Package metrics exposes model and fetch counts as Prometheus metrics.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zjrosen/factorytown/internal/fetch"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/pubsub"
)

const namespace = "factorytown"

// Metrics owns its collectors and a private registry.
type Metrics struct {
	registry   *prometheus.Registry
	realized   prometheus.Gauge
	referenced prometheus.Gauge
	unresolved prometheus.Gauge
	byTag      *prometheus.GaugeVec
	fetched    *prometheus.CounterVec
}

var _ pubsub.Publisher[fetch.Fetched] = (*Metrics)(nil)

// New registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		realized: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "records", Name: "realized",
			Help: "Records created in the model.",
		}),
		referenced: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "records", Name: "referenced",
			Help: "Record names that were referenced or created.",
		}),
		unresolved: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "records", Name: "unresolved",
			Help: "Referenced record names never created.",
		}),
		byTag: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "records", Name: "by_tag",
			Help: "Realized records carrying each tag.",
		}, []string{"tag"}),
		fetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pages", Name: "fetched_total",
			Help: "Page reads by source.",
		}, []string{"source"}),
	}
	m.registry.MustRegister(m.realized, m.referenced, m.unresolved, m.byTag, m.fetched)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveModel sets the record gauges from a model summary.
func (m *Metrics) ObserveModel(s model.Summary) {
	m.realized.Set(float64(s.Realized))
	m.referenced.Set(float64(s.Referenced))
	m.unresolved.Set(float64(s.Unresolved))
	m.byTag.Reset()
	for tag, n := range s.ByTag {
		m.byTag.WithLabelValues(tag).Set(float64(n))
	}
}

// ObserveFetch counts one page read.
func (m *Metrics) ObserveFetch(f fetch.Fetched) {
	m.fetched.WithLabelValues(f.Source).Inc()
}

// Publish counts PageFetchedEvent payloads, so a Metrics can be handed to
// fetch.WithPublisher directly.
func (m *Metrics) Publish(eventType pubsub.EventType, f fetch.Fetched) {
	if eventType == pubsub.PageFetchedEvent {
		m.ObserveFetch(f)
	}
}

// WriteTextfile writes every metric in the node-exporter textfile format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics to %s: %w", path, err)
	}
	log.Debug(log.CatMetrics, "Wrote metrics textfile", "path", path)
	return nil
}
