package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/palmares-dance/palmares/pkg/competition"
	"github.com/palmares-dance/palmares/pkg/providers"
	"github.com/palmares-dance/palmares/pkg/storage"
)

// UpdateResponse groups the competitions found by an update per provider.
type UpdateResponse struct {
	Year         int                                   `json:"year"`
	Competitions map[string][]*competition.Competition `json:"competitions"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var vErr *providers.ValidationError
	var uErr *storage.UnsupportedModelError
	switch {
	case errors.As(err, &vErr), errors.As(err, &uErr):
		status = http.StatusBadRequest
	case providers.IsNotFound(err):
		status = http.StatusNotFound
	default:
		if _, ok := providers.AsProviderError(err); ok {
			status = http.StatusBadGateway
		}
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.Store.GetStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func queryDay(r *http.Request, name string) (time.Time, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return time.Time{}, nil
	}
	day, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, &providers.ValidationError{Field: name, Reason: "must be a YYYY-MM-DD day"}
	}
	return day, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	value := r.URL.Query().Get(name)
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, &providers.ValidationError{Field: name, Reason: "must be an integer"}
	}
	return n, nil
}

func (s *Server) criteria(r *http.Request) (storage.Criteria, error) {
	q := r.URL.Query()
	criteria := storage.Criteria{Provider: q.Get("provider"), Place: q.Get("place")}
	var err error
	if criteria.Since, err = queryDay(r, "since"); err != nil {
		return criteria, err
	}
	if criteria.Until, err = queryDay(r, "until"); err != nil {
		return criteria, err
	}
	return criteria, nil
}

func (s *Server) handleCompetitions(w http.ResponseWriter, r *http.Request) {
	criteria, err := s.criteria(r)
	if err != nil {
		writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	size, err := queryInt(r, "size", 0)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.Store.Find(r.Context(), competition.Kind, criteria, nil, offset, size)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCompetition(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	c, err := s.Store.FindByID(r.Context(), competition.Kind, id, nil)
	if err != nil {
		writeError(w, err)
		return
	}
	if c == nil {
		writeError(w, &providers.NotFoundError{Kind: "competition", Name: id})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleRankings(w http.ResponseWriter, r *http.Request) {
	couple := r.URL.Query().Get("couple")
	if couple == "" {
		writeError(w, &providers.ValidationError{Field: "couple", Reason: "is required"})
		return
	}
	criteria, err := s.criteria(r)
	if err != nil {
		writeError(w, err)
		return
	}
	list, err := s.Store.Find(r.Context(), competition.Kind, criteria, nil, 0, 0)
	if err != nil {
		writeError(w, err)
		return
	}
	rankings := competition.RankingsOf(list, couple)
	if rankings == nil {
		rankings = []competition.Ranking{}
	}
	writeJSON(w, http.StatusOK, rankings)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r, "year", time.Now().Year())
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.Updater.Update(r.Context(), year)
	if err != nil {
		s.Log.Errorf("Update of %d failed: %v", year, err)
		writeError(w, err)
		return
	}
	resp := UpdateResponse{Year: result.Year, Competitions: map[string][]*competition.Competition{}}
	for _, c := range result.Competitions {
		resp.Competitions[c.Provider] = append(resp.Competitions[c.Provider], c)
	}
	writeJSON(w, http.StatusOK, resp)
}
