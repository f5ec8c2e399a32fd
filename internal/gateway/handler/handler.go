// Package handler exposes the generation pipeline over HTTP: generate,
// download, job status, live watch, and AI template drafting.
package handler

import (
	"encoding/json"
	"log"
	"net"
	"net/http"
	"strings"

	"stencil/internal/gateway/repository/artifact"
	"stencil/internal/gateway/repository/jobstore"
	"stencil/internal/gateway/service/generate"
	"stencil/internal/llm"
	"stencil/internal/ratelimit"
)

// Service holds the handler dependencies.
type Service struct {
	generator *generate.Service
	jobs      *jobstore.Store
	artifacts artifact.Store
	limiter   *ratelimit.Limiter
	drafter   llm.TemplateDrafter
}

func NewService(generator *generate.Service, jobs *jobstore.Store, artifacts artifact.Store, limiter *ratelimit.Limiter, drafter llm.TemplateDrafter) *Service {
	if drafter == nil {
		drafter = llm.Disabled{}
	}
	return &Service{
		generator: generator,
		jobs:      jobs,
		artifacts: artifacts,
		limiter:   limiter,
		drafter:   drafter,
	}
}

// BuildMux registers all handlers on a new ServeMux.
func BuildMux(s *Service) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate", s.HandleGenerate)
	mux.HandleFunc("/api/download", s.HandleDownload)
	mux.HandleFunc("/api/jobs", s.HandleJobs)
	mux.HandleFunc("/api/watch", s.HandleWatch)
	mux.HandleFunc("/api/template", s.HandleTemplate)
	mux.HandleFunc("/healthz", s.HandleHealth)
	return mux
}

func (s *Service) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("handler: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, category string, violations []string) {
	msg := category
	if len(violations) > 0 {
		msg = violations[0]
	}
	writeJSON(w, status, map[string]any{
		"error":      msg,
		"category":   category,
		"violations": violations,
	})
}

// clientKey identifies the caller for rate limiting. Proxy headers win over
// the raw remote address.
func clientKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
