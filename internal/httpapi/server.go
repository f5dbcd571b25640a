package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/probekit/linkmonitor/internal/domain"
	"github.com/probekit/linkmonitor/internal/repo"
)

// Server exposes a read-only operational view: account balances and the
// retained latency windows. Account/endpoint management lives elsewhere,
// so there are no mutation routes.
type Server struct {
	Logger   *zap.Logger
	Accounts repo.AccountStore
	History  repo.HistoryStore
}

func NewServer(l *zap.Logger, accounts repo.AccountStore, history repo.HistoryStore) *Server {
	return &Server{Logger: l, Accounts: accounts, History: history}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/api/accounts", s.handleListAccounts)
	r.Get("/api/endpoints/{id}/history", s.handleEndpointHistory)

	return r
}

type accountView struct {
	ID        domain.AccountID `json:"id"`
	Email     string           `json:"email"`
	Credit    int64            `json:"credit"`
	Endpoints int              `json:"endpoints"`
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	// threshold 0 with at-least matches every account that owns endpoints
	accounts, err := s.Accounts.ListWithEndpoints(r.Context(),
		repo.CreditFilter{Op: repo.CreditAtLeast, Threshold: 0})
	if err != nil {
		s.Logger.Warn("list_accounts_error", zap.Error(err))
		http.Error(w, "list error", http.StatusInternalServerError)
		return
	}

	out := make([]accountView, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, accountView{
			ID:        a.ID,
			Email:     a.Email,
			Credit:    a.Credit,
			Endpoints: len(a.Endpoints),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleEndpointHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		http.Error(w, "missing endpoint id", http.StatusBadRequest)
		return
	}

	entries, err := s.History.List(r.Context(), domain.EndpointID(id))
	if err != nil {
		s.Logger.Warn("list_history_error", zap.String("endpoint_id", id), zap.Error(err))
		http.Error(w, "history error", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entries)
}
