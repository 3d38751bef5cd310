package dashboard

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"position-desk/internal/contracts"
	"position-desk/internal/interfaces"
	"position-desk/internal/logger"
	"position-desk/internal/metrics"
)

//go:embed templates/*.html
var templateFS embed.FS

// Deps are the collaborators the handlers call. Nothing is shared between
// requests beyond these.
type Deps struct {
	Loader     interfaces.TableLoader
	Reconciler interfaces.Reconciler
	// Contracts may be nil, which disables the token list pages.
	Contracts      *contracts.Service
	ContractParams func(now time.Time) contracts.Params
	Registry       *prometheus.Registry

	MaxUploadBytes int64
	ChartWidth     int
	ChartHeight    int
}

type Server struct {
	deps   Deps
	pages  *template.Template
	router *mux.Router
	now    func() time.Time

	mu     sync.Mutex
	server *http.Server
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Loader == nil || deps.Reconciler == nil {
		return nil, errors.New("dashboard needs a loader and a reconciler")
	}
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = 20 << 20
	}
	if deps.Registry == nil {
		deps.Registry = metrics.Init()
	}
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{deps: deps, pages: pages, now: time.Now}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.requestID)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/reconcile", s.handleReconcilePage).Methods(http.MethodPost)
	r.HandleFunc("/api/reconcile", s.handleReconcileAPI).Methods(http.MethodPost)
	r.HandleFunc("/contracts", s.handleContractsPage).Methods(http.MethodGet)
	r.HandleFunc("/api/contracts", s.handleContractsAPI).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler(s.deps.Registry)).Methods(http.MethodGet)
	return r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until Shutdown is called.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
	}
	s.mu.Lock()
	s.server = srv
	s.mu.Unlock()

	logger.Info(ctx, "Starting dashboard server", "address", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithErr(ctx, "Failed to shutdown dashboard server", err)
		return err
	}
	logger.Info(ctx, "Dashboard stopped")
	return nil
}
