package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	queueLag        *prometheus.HistogramVec
	crawlPagesTotal *prometheus.CounterVec
	crawlChunks     *prometheus.CounterVec
	crawlRunsTotal  *prometheus.CounterVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document upload and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	crawlPagesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "crawl_pages_total",
			Help:      "Total documentation pages indexed by crawl runs.",
		},
		[]string{"service"},
	)
	crawlChunks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "crawl_chunks_total",
			Help:      "Total chunks indexed by crawl runs.",
		},
		[]string{"service"},
	)
	crawlRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "worker",
			Name:      "crawl_runs_total",
			Help:      "Total crawl runs by status.",
		},
		[]string{"service", "status"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, queueLag, crawlPagesTotal, crawlChunks, crawlRunsTotal)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		crawlPagesTotal: crawlPagesTotal,
		crawlChunks:     crawlChunks,
		crawlRunsTotal:  crawlRunsTotal,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) FinishCrawl(service string, pages, chunks int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.crawlRunsTotal.WithLabelValues(service, status).Inc()
	if pages > 0 {
		m.crawlPagesTotal.WithLabelValues(service).Add(float64(pages))
	}
	if chunks > 0 {
		m.crawlChunks.WithLabelValues(service).Add(float64(chunks))
	}
}
