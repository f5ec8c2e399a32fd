package jobstore

import (
	"encoding/json"
	"time"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS jobs (
  run_id TEXT PRIMARY KEY,
  status TEXT NOT NULL DEFAULT 'pending',
  project_name TEXT NOT NULL DEFAULT '',
  slug TEXT NOT NULL DEFAULT '',
  file_count INTEGER NOT NULL DEFAULT 0,
  total_bytes BIGINT NOT NULL DEFAULT 0,
  violations JSONB NOT NULL DEFAULT '[]',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS job_events (
  seq BIGSERIAL PRIMARY KEY,
  run_id TEXT NOT NULL,
  stage TEXT NOT NULL,
  message TEXT NOT NULL DEFAULT '',
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_job_events_run_id ON job_events (run_id);

CREATE TABLE IF NOT EXISTS artifacts (
  id SERIAL PRIMARY KEY,
  run_id TEXT NOT NULL,
  path TEXT NOT NULL,
  size BIGINT NOT NULL DEFAULT 0,
  created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
  UNIQUE (run_id, path)
);
CREATE INDEX IF NOT EXISTS idx_artifacts_run_id ON artifacts (run_id);
`)
	})
	return s.schemaErr
}

func (s *Store) putJobDB(job Job) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	violations, err := json.Marshal(job.Violations)
	if err != nil {
		violations = []byte("[]")
	}
	_, err = s.db.Exec(`
INSERT INTO jobs (run_id, status, project_name, slug, file_count, total_bytes, violations, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
ON CONFLICT (run_id)
DO UPDATE SET status=EXCLUDED.status,
  project_name=EXCLUDED.project_name,
  slug=EXCLUDED.slug,
  file_count=EXCLUDED.file_count,
  total_bytes=EXCLUDED.total_bytes,
  violations=EXCLUDED.violations,
  updated_at=NOW()`,
		job.RunID, string(job.Status), job.ProjectName, job.Slug,
		job.FileCount, job.TotalBytes, string(violations))
	return err
}

func (s *Store) getJobDB(runID string) (Job, bool) {
	if err := s.ensureSchema(); err != nil {
		return Job{}, false
	}
	row := s.db.QueryRow(`SELECT run_id, status, project_name, slug, file_count, total_bytes, violations, created_at, updated_at
FROM jobs WHERE run_id = $1`, runID)

	var (
		job        Job
		status     string
		violations []byte
	)
	err := row.Scan(&job.RunID, &status, &job.ProjectName, &job.Slug,
		&job.FileCount, &job.TotalBytes, &violations, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return Job{}, false
	}
	job.Status = Status(status)
	_ = json.Unmarshal(violations, &job.Violations)
	return normalizeJob(job), true
}

func (s *Store) runIDsDB() []string {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT run_id FROM jobs ORDER BY run_id`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make([]string, 0, 32)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil
		}
		out = append(out, id)
	}
	return out
}

func (s *Store) appendEventDB(ev Event) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	created := ev.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO job_events (run_id, stage, message, created_at)
VALUES ($1,$2,$3,$4)`, ev.RunID, ev.Stage, ev.Message, created)
	return err
}

func (s *Store) listEventsDB(runID string) ([]Event, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT seq, run_id, stage, message, created_at
FROM job_events WHERE run_id = $1 ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Event, 0, 16)
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Seq, &ev.RunID, &ev.Stage, &ev.Message, &ev.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

func (s *Store) addArtifactDB(a Artifact) error {
	if err := s.ensureSchema(); err != nil {
		return err
	}
	created := a.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.db.Exec(`INSERT INTO artifacts (run_id, path, size, created_at)
VALUES ($1,$2,$3,$4)
ON CONFLICT (run_id, path) DO UPDATE SET size=EXCLUDED.size`,
		a.RunID, a.Path, a.Size, created)
	return err
}

func (s *Store) listArtifactsDB(runID string) ([]Artifact, error) {
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT run_id, path, size, created_at
FROM artifacts WHERE run_id = $1 ORDER BY id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Artifact, 0, 4)
	for rows.Next() {
		var a Artifact
		if err := rows.Scan(&a.RunID, &a.Path, &a.Size, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
