package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	log "github.com/go-pkgz/lgr"

	"github.com/umputun/jenkins-e2e/app/scenario"
	"github.com/umputun/jenkins-e2e/app/store"
)

// APIRun is a run summary in JSON API response
type APIRun struct {
	ID         string    `json:"id"`
	BaseURL    string    `json:"base_url"`
	Seed       uint64    `json:"seed"`
	StartedAt  time.Time `json:"started_at,omitzero"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	Total      int       `json:"total"`
	Passed     int       `json:"passed"`
	Failed     int       `json:"failed"`
	Skipped    int       `json:"skipped"`
	Summary    string    `json:"summary"`
}

// APIScenario is a registered scenario in JSON API response
type APIScenario struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func toAPIRun(r scenario.Report) APIRun {
	return APIRun{
		ID:         r.ID,
		BaseURL:    r.BaseURL,
		Seed:       r.Seed,
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Total:      len(r.Results),
		Passed:     r.Passed(),
		Failed:     r.Failed(),
		Skipped:    r.Skipped(),
		Summary:    r.Summary(),
	}
}

// handleRuns returns summaries of recent runs, newest first
func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeJSONError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	runs, err := s.reports.Runs(limit)
	if err != nil {
		log.Printf("[WARN] failed to load runs: %v", err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to load runs")
		return
	}
	resp := make([]APIRun, 0, len(runs))
	for _, run := range runs {
		resp = append(resp, toAPIRun(run))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleRun returns full report of a run
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rep, err := s.reports.Run(id)
	if errors.Is(err, store.ErrNotFound) {
		s.writeJSONError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		log.Printf("[WARN] failed to load run %s: %v", id, err)
		s.writeJSONError(w, http.StatusInternalServerError, "failed to load run")
		return
	}
	s.writeJSON(w, http.StatusOK, rep)
}

// handleScenarios lists registered scenarios
func (s *Server) handleScenarios(w http.ResponseWriter, _ *http.Request) {
	all := scenario.All()
	resp := make([]APIScenario, 0, len(all))
	for _, sc := range all {
		resp = append(resp, APIScenario{ID: sc.ID, Name: sc.Name})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleTrigger queues a manual run, rejects it if a run is already queued
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	req := TriggerRequest{}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSONError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	if _, err := scenario.Select(req.Scenarios); err != nil {
		s.writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	select {
	case s.trigger <- req:
		log.Printf("[INFO] manual run queued, scenarios: %v", req.Scenarios)
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	default:
		s.writeJSONError(w, http.StatusConflict, "run already queued")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[WARN] failed to encode JSON response: %v", err)
	}
}

// writeJSONError writes a JSON error response
func (s *Server) writeJSONError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
