package server

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics lives on a private registry so several servers (and tests) can
// coexist in one process.
type metrics struct {
	reg *prometheus.Registry

	requests   *prometheus.CounterVec   // serpdiff_http_requests_total
	latency    *prometheus.HistogramVec // serpdiff_http_request_duration_seconds
	uploads    *prometheus.CounterVec   // serpdiff_uploads_total
	records    prometheus.Gauge         // serpdiff_dataset_records
	generation prometheus.Gauge         // serpdiff_dataset_generation
	matches    prometheus.Gauge         // serpdiff_last_query_matches
}

func newMetrics() (*metrics, error) {
	m := &metrics{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serpdiff_http_requests_total",
				Help: "HTTP requests partitioned by route and status.",
			},
			[]string{"route", "status"},
		),
		latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "serpdiff_http_request_duration_seconds",
				Help:    "HTTP request latency by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "serpdiff_uploads_total",
				Help: "Dataset uploads partitioned by result (ok, schema_error, decode_error, rejected).",
			},
			[]string{"result"},
		),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serpdiff_dataset_records",
			Help: "Records in the current dataset.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serpdiff_dataset_generation",
			Help: "Generation of the current dataset.",
		}),
		matches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serpdiff_last_query_matches",
			Help: "Records matched by the last applied query.",
		}),
	}
	for name, c := range map[string]prometheus.Collector{
		"request counter":     m.requests,
		"latency histogram":   m.latency,
		"upload counter":      m.uploads,
		"records gauge":       m.records,
		"generation gauge":    m.generation,
		"query matches gauge": m.matches,
	} {
		if err := m.reg.Register(c); err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
	}
	return m, nil
}

func (m *metrics) observe(route string, status int, start time.Time) {
	m.latency.WithLabelValues(route).Observe(time.Since(start).Seconds())
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}
