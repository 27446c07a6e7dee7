package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"spendshare/internal/middleware/ratelimit"
	"spendshare/internal/middleware/security"
	"spendshare/internal/middleware/trace"
	"spendshare/internal/services"
)

// Config carries the server's own knobs; service wiring comes separately.
type Config struct {
	Addr              string
	RateLimitPerMin   int
	ReadHeaderTimeout time.Duration
}

// Server is the JSON API server. It embeds http.Server so callers drive it
// with ListenAndServe and Shutdown.
type Server struct {
	http.Server

	access   *services.AccessService
	reports  *services.ReportService
	expenses *services.ExpenseService
	layouts  *services.LayoutService

	tracer   *trace.Middleware
	limiter  *ratelimit.Limiter
	detector *security.Detector
	metrics  appMetrics

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, access *services.AccessService, reports *services.ReportService, expenses *services.ExpenseService, layouts *services.LayoutService) *Server {
	if cfg.ReadHeaderTimeout <= 0 {
		cfg.ReadHeaderTimeout = 5 * time.Second
	}

	detector := security.NewDetector()

	s := &Server{
		access:   access,
		reports:  reports,
		expenses: expenses,
		layouts:  layouts,
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimitPerMin,
		}),
		metrics: appMetrics{startedAt: time.Now()},
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/access", s.handleResolveAccess)
	mux.HandleFunc("GET /api/access/grants", s.handleListGrants)
	mux.HandleFunc("PUT /api/access/grants", s.handleSaveGrant)

	mux.HandleFunc("GET /api/reports/expenses", s.handleExpenseReport)
	mux.HandleFunc("GET /api/reports/overview", s.handleOverview)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)

	mux.HandleFunc("GET /api/layouts/{reportType}", s.handleGetLayout)
	mux.HandleFunc("PUT /api/layouts/{reportType}", s.handleSaveLayout)
	mux.HandleFunc("GET /api/layouts/{reportType}/template", s.handleLayoutTemplate)
	mux.HandleFunc("POST /api/layouts/{reportType}/toggle", s.handleToggleSection)
	mux.HandleFunc("POST /api/layouts/{reportType}/reorder", s.handleReorderSection)
	mux.HandleFunc("POST /api/layouts/{reportType}/reset", s.handleResetLayout)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	rateLimited := s.limiter.Middleware(s.clientKey, nil)

	var handler http.Handler = mux
	handler = s.rejectSuspicious(handler)
	handler = rateLimited(handler)
	handler = s.tracer.Middleware(handler)
	handler = headers.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	return s
}

// clientKey buckets rate limiting by viewer when identified, by IP otherwise.
func (s *Server) clientKey(r *http.Request) string {
	if viewer := ViewerID(r); viewer != "" {
		return "user:" + viewer
	}
	return "ip:" + s.detector.ExtractClientIP(r)
}

// rejectSuspicious drops requests matching known attack signatures before
// they reach a handler.
func (s *Server) rejectSuspicious(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.DetectSuspiciousRequest(r) {
			slog.WarnContext(r.Context(), "Rejected suspicious request",
				"method", r.Method,
				"path", r.URL.Path,
				"client_ip", s.detector.ExtractClientIP(r))
			NotFoundError("not found").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.limiter != nil {
			s.limiter.Stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
