package server

import (
	"context"
	"net/http"

	"github.com/palmares-dance/palmares/pkg/palmares"
	"github.com/palmares-dance/palmares/pkg/providers"
	"github.com/palmares-dance/palmares/pkg/storage"
)

// Store is what the API reads from.
type Store interface {
	storage.Store
	GetStats(ctx context.Context) ([]storage.ProviderStats, error)
}

// Updater runs updates; concurrent calls share the running one.
type Updater interface {
	Update(ctx context.Context, year int) (*palmares.Result, error)
}

type Server struct {
	Store    Store
	Updater  Updater
	Username string
	Password string
	Log      providers.Logger
}

func New(store Store, updater Updater, user, pass string, log providers.Logger) *Server {
	if log == nil {
		log = providers.NopLogger{}
	}
	return &Server{
		Store:    store,
		Updater:  updater,
		Username: user,
		Password: pass,
		Log:      log,
	}
}

// Handler routes the JSON API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stats", s.basicAuth(s.handleStats))
	mux.HandleFunc("GET /api/competitions", s.basicAuth(s.handleCompetitions))
	mux.HandleFunc("GET /api/competitions/{id}", s.basicAuth(s.handleCompetition))
	mux.HandleFunc("GET /api/rankings", s.basicAuth(s.handleRankings))
	mux.HandleFunc("POST /api/update", s.basicAuth(s.handleUpdate))

	return mux
}

func (s *Server) Start(addr string) error {
	s.Log.Infof("Starting server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}
