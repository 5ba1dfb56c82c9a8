package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	chatRequestsTotal    *prometheus.CounterVec
	chatModeTotal        *prometheus.CounterVec
	chatRetrievalHits    *prometheus.CounterVec
	chatNoContextTotal   *prometheus.CounterVec
	chatRetrievedChunks  *prometheus.HistogramVec
	chatDuration         *prometheus.HistogramVec
	authFailuresTotal    *prometheus.CounterVec
	uploadsAcceptedTotal *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nsa",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "nsa",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chatRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "requests_total",
			Help:      "Total successful chat turns.",
		},
		[]string{"service"},
	)
	chatModeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "mode_requests_total",
			Help:      "Total successful chat turns by retrieval mode.",
		},
		[]string{"service", "mode"},
	)
	chatRetrievalHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "retrieval_hit_total",
			Help:      "Total chat turns with at least one retrieved source.",
		},
		[]string{"service"},
	)
	chatNoContextTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "no_context_total",
			Help:      "Total chat turns answered without retrieved sources.",
		},
		[]string{"service"},
	)
	chatRetrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful chat turn.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	chatDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "nsa",
			Subsystem: "chat",
			Name:      "duration_seconds",
			Help:      "Chat turn duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service"},
	)
	authFailuresTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "auth",
			Name:      "failures_total",
			Help:      "Total rejected authentication attempts by reason.",
		},
		[]string{"service", "reason"},
	)
	uploadsAcceptedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "nsa",
			Subsystem: "documents",
			Name:      "uploads_accepted_total",
			Help:      "Total accepted document uploads.",
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		chatRequestsTotal,
		chatModeTotal,
		chatRetrievalHits,
		chatNoContextTotal,
		chatRetrievedChunks,
		chatDuration,
		authFailuresTotal,
		uploadsAcceptedTotal,
	)

	return &HTTPServerMetrics{
		registry:             registry,
		requestTotal:         requestTotal,
		requestDuration:      requestDuration,
		requestInFlight:      requestInFlight,
		chatRequestsTotal:    chatRequestsTotal,
		chatModeTotal:        chatModeTotal,
		chatRetrievalHits:    chatRetrievalHits,
		chatNoContextTotal:   chatNoContextTotal,
		chatRetrievedChunks:  chatRetrievedChunks,
		chatDuration:         chatDuration,
		authFailuresTotal:    authFailuresTotal,
		uploadsAcceptedTotal: uploadsAcceptedTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	case strings.HasPrefix(path, "/v1/chat/history/"):
		return "/v1/chat/history/{session_id}"
	default:
		return path
	}
}

func (m *HTTPServerMetrics) RecordChatTurn(service, mode string, sourceCount int, duration time.Duration) {
	m.chatRequestsTotal.WithLabelValues(service).Inc()
	if mode == "" {
		mode = "unknown"
	}
	m.chatModeTotal.WithLabelValues(service, mode).Inc()
	m.chatRetrievedChunks.WithLabelValues(service).Observe(float64(sourceCount))
	m.chatDuration.WithLabelValues(service).Observe(duration.Seconds())

	if sourceCount > 0 {
		m.chatRetrievalHits.WithLabelValues(service).Inc()
		return
	}
	m.chatNoContextTotal.WithLabelValues(service).Inc()
}

func (m *HTTPServerMetrics) RecordAuthFailure(service, reason string) {
	if reason == "" {
		reason = "unknown"
	}
	m.authFailuresTotal.WithLabelValues(service, reason).Inc()
}

func (m *HTTPServerMetrics) RecordUploadAccepted(service string) {
	m.uploadsAcceptedTotal.WithLabelValues(service).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
