package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"stencil/internal/gateway/repository/artifact"
)

func (s *Service) HandleDownload(w http.ResponseWriter, r *http.Request) {
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
	archivePath := job.Slug + ".zip"

	// Prefer a presigned URL when the backend offers one.
	if url, err := s.artifacts.GetURL(r.Context(), runID, archivePath); err == nil && url != "" {
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	data, err := s.artifacts.Get(r.Context(), runID, archivePath)
	if err != nil {
		if errors.Is(err, artifact.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", []string{"archive not found for run"})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", []string{"could not load archive"})
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.zip", job.Slug))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}
