package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/auth"
	"github.com/avoronov/netsuite-assistant/internal/core/ports"
	"github.com/avoronov/netsuite-assistant/internal/observability/metrics"
)

const serviceName = "netsuite-assistant-api"

// Options carries the traffic-control settings applied in front of the mux.
type Options struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
	MaxWait        time.Duration
	RetrievalMode  string
}

type Router struct {
	chat    ports.ChatService
	history ports.ChatHistoryService
	ingest  ports.DocumentIngestor
	catalog ports.DocumentCatalog
	admin   ports.CorpusAdmin
	auth    *auth.Service
	metrics *metrics.HTTPServerMetrics
	options Options
}

func NewRouter(
	chat ports.ChatService,
	history ports.ChatHistoryService,
	ingest ports.DocumentIngestor,
	catalog ports.DocumentCatalog,
	admin ports.CorpusAdmin,
	authService *auth.Service,
	serverMetrics *metrics.HTTPServerMetrics,
	options Options,
) *Router {
	if options.MaxWait <= 0 {
		options.MaxWait = 2 * time.Second
	}
	return &Router{
		chat:    chat,
		history: history,
		ingest:  ingest,
		catalog: catalog,
		admin:   admin,
		auth:    authService,
		metrics: serverMetrics,
		options: options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	mux.HandleFunc("/v1/auth/register", rt.register)
	mux.HandleFunc("/v1/auth/login", rt.login)
	mux.HandleFunc("/v1/auth/reset-password", rt.resetPassword)

	mux.Handle("/v1/chat", rt.requireAuth(http.HandlerFunc(rt.chatTurn)))
	mux.Handle("/v1/chat/history", rt.requireAuth(http.HandlerFunc(rt.chatHistory)))
	mux.Handle("/v1/chat/history/", rt.requireAuth(http.HandlerFunc(rt.deleteSession)))

	mux.Handle("/v1/documents", rt.requireAuth(http.HandlerFunc(rt.documents)))
	mux.Handle("/v1/documents/", rt.requireAuth(http.HandlerFunc(rt.deleteDocument)))

	mux.Handle("/v1/admin/clear-index", rt.requireAuth(http.HandlerFunc(rt.clearIndex)))
	mux.Handle("/v1/admin/reindex-docs", rt.requireAuth(http.HandlerFunc(rt.reindexDocs)))

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxConcurrent, rt.options.MaxWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type userIDContextKey struct{}

func userIDFromContext(ctx context.Context) int64 {
	userID, _ := ctx.Value(userIDContextKey{}).(int64)
	return userID
}

func (rt *Router) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			rt.recordAuthFailure("missing_token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing bearer token"})
			return
		}

		userID, err := rt.auth.VerifyToken(strings.TrimSpace(token))
		if err != nil {
			rt.recordAuthFailure("bad_token")
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), userIDContextKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (rt *Router) recordAuthFailure(reason string) {
	if rt.metrics != nil {
		rt.metrics.RecordAuthFailure(serviceName, reason)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
