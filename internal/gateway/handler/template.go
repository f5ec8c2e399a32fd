package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"stencil/internal/llm"
)

type templateRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Service) HandleTemplate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	if !s.limiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, "rate_limited", []string{"too many requests, slow down"})
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", []string{"malformed JSON body"})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(w, http.StatusBadRequest, "bad_request", []string{"prompt is required"})
		return
	}

	body, err := s.drafter.DraftTemplate(r.Context(), prompt)
	if err != nil {
		if errors.Is(err, llm.ErrDisabled) {
			writeError(w, http.StatusServiceUnavailable, "template_generation_disabled", []string{err.Error()})
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", []string{"template generation failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":  true,
		"template": body,
	})
}
