// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/shangan/internal/domain/exam"
	"github.com/okian/shangan/internal/domain/simulation"
)

const defaultMaxBodyBytes = 64 << 10

// Simulator runs simulations on behalf of the handlers.
type Simulator interface {
	// Simulate runs req and returns the run id with its result.
	Simulate(ctx context.Context, req simulation.Request) (string, simulation.Result, error)

	// Profiles lists the supported exam types.
	Profiles() []exam.Profile
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler   *HealthHandler
	statsHandler    *StatsHandler
	simulateHandler *SimulateHandler
	examsHandler    *ExamsHandler
}

// ServerOption configures NewServer.
type ServerOption func(*serverOptions)

type serverOptions struct {
	maxBodyBytes int64
}

// WithMaxBodyBytes caps the POST /simulate body size.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(o *serverOptions) {
		if n > 0 {
			o.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(sim Simulator, statsProvider StatsProvider, opts ...ServerOption) *Server {
	o := serverOptions{maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&o)
	}
	return &Server{
		healthHandler:   NewHealthHandler(),
		statsHandler:    NewStatsHandler(statsProvider),
		simulateHandler: NewSimulateHandler(sim, o.maxBodyBytes),
		examsHandler:    NewExamsHandler(sim),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/simulate", MetricsMiddleware(s.simulateHandler.HandlePostSimulate, "simulate"))
	mux.HandleFunc("/exams", MetricsMiddleware(s.examsHandler.HandleGetExams, "exams"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
