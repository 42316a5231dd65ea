// Package httpapi serves the optional read-only status endpoints.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hamed0406/pgpinger/internal/domain"
	"github.com/hamed0406/pgpinger/internal/httpapi/middleware"
	"github.com/hamed0406/pgpinger/internal/repo"
	"github.com/hamed0406/pgpinger/internal/repo/memory"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = memory.DefaultCapacity
)

type Server struct {
	Logger   *zap.Logger
	Store    *memory.Store
	Target   domain.Target
	Keys     []string
	Origins  []string
	Gatherer prometheus.Gatherer

	// History serves /api/history when set; otherwise the in-memory ring does.
	History repo.HistoryReader
}

func NewServer(l *zap.Logger, store *memory.Store, target domain.Target, keys, origins []string, g prometheus.Gatherer) *Server {
	return &Server{Logger: l, Store: store, Target: target, Keys: keys, Origins: origins, Gatherer: g}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	if len(s.Origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.Origins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Authorization", "X-API-Key"},
			MaxAge:         300,
		}))
	} else {
		r.Use(cors.AllowAll().Handler)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	if s.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(middleware.RequireKey(s.Keys))
		api.Get("/status", s.handleStatus)
		api.Get("/history", s.handleHistory)
	})

	return r
}

type statusResponse struct {
	Target              string              `json:"target"`
	Up                  *bool               `json:"up"`
	ConsecutiveFailures int                 `json:"consecutive_failures"`
	Last                *domain.ProbeResult `json:"last,omitempty"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Store.Status()
	resp := statusResponse{
		Target:              s.Target.String(),
		ConsecutiveFailures: st.ConsecutiveFailures,
		Last:                st.Last,
	}
	if st.Last != nil {
		up := st.Last.OK()
		resp.Up = &up
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	var history repo.HistoryReader = s.Store
	if s.History != nil {
		history = s.History
	}
	rs, err := history.Recent(r.Context(), limit)
	if err != nil {
		s.Logger.Warn("history_error", zap.Error(err))
		http.Error(w, "history error", http.StatusInternalServerError)
		return
	}
	if rs == nil {
		rs = []domain.ProbeResult{}
	}
	writeJSON(w, http.StatusOK, rs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
