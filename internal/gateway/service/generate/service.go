// Package generate orchestrates one generation run: parse and validate the
// request, gate it, assemble the project, gate the output, archive it, and
// record the job trail.
package generate

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"stencil/internal/archive"
	"stencil/internal/assemble"
	"stencil/internal/gateway/repository/artifact"
	"stencil/internal/gateway/repository/jobstore"
	"stencil/internal/naming"
	"stencil/internal/safety"
	"stencil/internal/spec"
)

// SafetyError aggregates gate violations from one side of the safety check.
type SafetyError struct {
	Side       string // "spec" or "output"
	Violations []string
}

func (e *SafetyError) Error() string {
	return fmt.Sprintf("%s safety check failed: %s", e.Side, strings.Join(e.Violations, "; "))
}

// FileSummary is the per-file slice of a successful response.
type FileSummary struct {
	Path    string `json:"path"`
	Size    int    `json:"size"`
	Preview string `json:"preview"`
}

// Result is one completed run.
type Result struct {
	RunID       string
	Slug        string
	FileCount   int
	TotalBytes  int
	Files       []FileSummary
	ArchivePath string
}

const previewBytes = 200

type Service struct {
	assembler *assemble.Assembler
	gate      *safety.Gate
	jobs      *jobstore.Store
	artifacts artifact.Store
	hub       *Hub
}

func New(a *assemble.Assembler, gate *safety.Gate, jobs *jobstore.Store, artifacts artifact.Store, hub *Hub) *Service {
	return &Service{
		assembler: a,
		gate:      gate,
		jobs:      jobs,
		artifacts: artifacts,
		hub:       hub,
	}
}

func (s *Service) Hub() *Hub { return s.hub }

// Generate runs the full pipeline for one raw request body. Validation and
// safety failures come back as typed errors; the job record is updated either
// way so the run stays inspectable afterwards.
func (s *Service) Generate(ctx context.Context, raw []byte) (*Result, error) {
	runID := newRunID()
	defer s.hub.Close(runID)

	s.event(runID, "validate", "validating project specification")
	project, err := spec.Parse(raw)
	if err != nil {
		s.fail(runID, "", "", errViolations(err))
		return nil, err
	}
	derived := naming.Derive(project.Name)

	s.event(runID, "safety", "checking specification limits")
	if violations := s.gate.CheckSpec(project); len(violations) > 0 {
		s.fail(runID, project.Name, derived.Slug, violations)
		return nil, &SafetyError{Side: "spec", Violations: violations}
	}

	s.event(runID, "assemble", "expanding template bundle")
	res, err := s.assembler.Assemble(project)
	if err != nil {
		s.fail(runID, project.Name, derived.Slug, []string{err.Error()})
		return nil, err
	}
	for _, path := range res.RenderFailures {
		s.event(runID, "assemble", "render fell back to raw template: "+path)
	}

	s.event(runID, "safety", "checking output limits")
	if violations := s.gate.CheckOutput(res.Files); len(violations) > 0 {
		s.fail(runID, project.Name, derived.Slug, violations)
		return nil, &SafetyError{Side: "output", Violations: violations}
	}

	s.event(runID, "archive", "packaging archive")
	zipBytes, err := archive.Bytes(res.Files)
	if err != nil {
		s.fail(runID, project.Name, derived.Slug, []string{err.Error()})
		return nil, fmt.Errorf("%w: %v", assemble.ErrInternal, err)
	}
	archivePath := derived.Slug + ".zip"
	if s.artifacts != nil {
		if err := s.artifacts.Put(ctx, runID, archivePath, zipBytes); err != nil {
			s.fail(runID, project.Name, derived.Slug, []string{err.Error()})
			return nil, fmt.Errorf("%w: store archive: %v", assemble.ErrInternal, err)
		}
		_ = s.jobs.AddArtifact(jobstore.Artifact{
			RunID:     runID,
			Path:      archivePath,
			Size:      len(zipBytes),
			CreatedAt: time.Now(),
		})
	}

	files := res.Files.Files()
	summaries := make([]FileSummary, 0, len(files))
	for _, f := range files {
		summaries = append(summaries, FileSummary{
			Path:    f.Path,
			Size:    len(f.Content),
			Preview: preview(f.Content),
		})
	}

	result := &Result{
		RunID:       runID,
		Slug:        derived.Slug,
		FileCount:   res.Files.Len(),
		TotalBytes:  res.Files.TotalBytes(),
		Files:       summaries,
		ArchivePath: archivePath,
	}

	_ = s.jobs.PutJob(jobstore.Job{
		RunID:       runID,
		Status:      jobstore.StatusCompleted,
		ProjectName: project.Name,
		Slug:        derived.Slug,
		FileCount:   result.FileCount,
		TotalBytes:  result.TotalBytes,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	s.event(runID, "done", "generation completed")
	return result, nil
}

func (s *Service) event(runID, stage, message string) {
	ev := jobstore.Event{
		RunID:     runID,
		Stage:     stage,
		Message:   message,
		CreatedAt: time.Now(),
	}
	_ = s.jobs.AppendEvent(ev)
	s.hub.Publish(ev)
}

func (s *Service) fail(runID, name, slug string, violations []string) {
	_ = s.jobs.PutJob(jobstore.Job{
		RunID:       runID,
		Status:      jobstore.StatusFailed,
		ProjectName: name,
		Slug:        slug,
		Violations:  violations,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	})
	for _, v := range violations {
		s.event(runID, "failed", v)
	}
}

func errViolations(err error) []string {
	var se *spec.SchemaError
	if errors.As(err, &se) {
		return se.Violations
	}
	return []string{err.Error()}
}

func preview(content string) string {
	if len(content) <= previewBytes {
		return content
	}
	return content[:previewBytes]
}

func newRunID() string {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("run-%d-%s", time.Now().UnixMilli(), hex.EncodeToString(buf))
}
