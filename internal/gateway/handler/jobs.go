package handler

import (
	"net/http"
	"strings"
)

func (s *Service) HandleJobs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	runID := strings.TrimSpace(r.URL.Query().Get("run_id"))
	if runID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", []string{"run_id is required"})
		return
	}

	job, ok := s.jobs.GetJob(runID)
	if !ok {
		writeError(w, http.StatusNotFound, "not_found", []string{"unknown run_id"})
		return
	}
	events, err := s.jobs.ListEvents(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", []string{"could not load events"})
		return
	}
	artifacts, err := s.jobs.ListArtifacts(runID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", []string{"could not load artifacts"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job":       job,
		"events":    events,
		"artifacts": artifacts,
	})
}
