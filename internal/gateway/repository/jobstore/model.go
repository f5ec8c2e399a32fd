package jobstore

import (
	"strings"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Job is one generation run.
type Job struct {
	RunID       string    `json:"run_id"`
	Status      Status    `json:"status"`
	ProjectName string    `json:"project_name"`
	Slug        string    `json:"slug"`
	FileCount   int       `json:"file_count"`
	TotalBytes  int       `json:"total_bytes"`
	Violations  []string  `json:"violations,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is one append-only stage record for a run.
type Event struct {
	Seq       int64     `json:"seq"`
	RunID     string    `json:"run_id"`
	Stage     string    `json:"stage"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Artifact is one stored archive for a run.
type Artifact struct {
	RunID     string    `json:"run_id"`
	Path      string    `json:"path"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

func normalizeJob(j Job) Job {
	j.RunID = strings.TrimSpace(j.RunID)
	j.ProjectName = strings.TrimSpace(j.ProjectName)
	j.Slug = strings.TrimSpace(j.Slug)
	if j.Status == "" {
		j.Status = StatusPending
	}
	return j
}
