package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"stencil/internal/catalog"
	"stencil/internal/gateway/service/generate"
	"stencil/internal/spec"
)

const maxRequestBytes = 64 << 20

func (s *Service) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if !s.limiter.Allow(clientKey(r)) {
		retry := s.limiter.Retry(clientKey(r))
		w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
		writeError(w, http.StatusTooManyRequests, "rate_limited", []string{"too many requests, slow down"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", []string{"could not read request body"})
		return
	}

	res, err := s.generator.Generate(r.Context(), body)
	if err != nil {
		writeGenerateError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"run_id":      res.RunID,
		"file_count":  res.FileCount,
		"total_bytes": res.TotalBytes,
		"files":       res.Files,
	})
}

func writeGenerateError(w http.ResponseWriter, err error) {
	var schemaErr *spec.SchemaError
	if errors.As(err, &schemaErr) {
		writeError(w, http.StatusBadRequest, "schema_violation", schemaErr.Violations)
		return
	}
	var safetyErr *generate.SafetyError
	if errors.As(err, &safetyErr) {
		category := "spec_safety_violation"
		if safetyErr.Side == "output" {
			category = "output_safety_violation"
		}
		writeError(w, http.StatusBadRequest, category, safetyErr.Violations)
		return
	}
	if errors.Is(err, catalog.ErrUnsupportedStack) {
		writeError(w, http.StatusBadRequest, "unsupported_stack", []string{err.Error()})
		return
	}
	// Internal assembly errors and anything unexpected surface the same way.
	writeError(w, http.StatusInternalServerError, "internal_error", []string{"generation failed"})
}
