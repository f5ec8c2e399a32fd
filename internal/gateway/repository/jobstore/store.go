// Package jobstore persists generation runs: one job row per run, an
// append-only event log, and the artifact records pointing at stored
// archives. Backed by Postgres when a DSN is configured, by process memory
// otherwise, behind the same Store type.
package jobstore

import (
	"database/sql"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	jobs   map[string]Job
	events map[string][]Event
	arts   map[string][]Artifact
	seq    int64

	schemaOnce sync.Once
	schemaErr  error

	eventCache *lru.Cache[string, []Event]
}

// New returns an in-memory store.
func New() *Store {
	return &Store{
		jobs:   make(map[string]Job),
		events: make(map[string][]Event),
		arts:   make(map[string][]Artifact),
	}
}

// NewPostgres connects to the given DSN and verifies the connection.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, []Event](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, eventCache: cache}, nil
}

// NewFromEnv prefers Postgres via JOB_STORE_PG_DSN and falls back to memory
// when the DSN is absent or the connection fails.
func NewFromEnv() *Store {
	dsn := strings.TrimSpace(os.Getenv("JOB_STORE_PG_DSN"))
	if dsn == "" {
		return New()
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New()
	}
	return s
}

func (s *Store) PutJob(job Job) error {
	if s == nil {
		return nil
	}
	job = normalizeJob(job)
	if job.RunID == "" {
		return nil
	}
	if s.db != nil {
		return s.putJobDB(job)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	job.Violations = append([]string(nil), job.Violations...)
	s.jobs[job.RunID] = job
	return nil
}

func (s *Store) GetJob(runID string) (Job, bool) {
	if s == nil {
		return Job{}, false
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return Job{}, false
	}
	if s.db != nil {
		return s.getJobDB(runID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[runID]
	if !ok {
		return Job{}, false
	}
	j.Violations = append([]string(nil), j.Violations...)
	return j, true
}

// RunIDs lists every recorded run.
func (s *Store) RunIDs() []string {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.runIDsDB()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.jobs))
	for id := range s.jobs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *Store) AppendEvent(ev Event) error {
	if s == nil {
		return nil
	}
	ev.RunID = strings.TrimSpace(ev.RunID)
	if ev.RunID == "" {
		return nil
	}
	if s.db != nil {
		err := s.appendEventDB(ev)
		if err == nil && s.eventCache != nil {
			s.eventCache.Remove(ev.RunID)
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	ev.Seq = s.seq
	s.events[ev.RunID] = append(s.events[ev.RunID], ev)
	return nil
}

func (s *Store) ListEvents(runID string) ([]Event, error) {
	if s == nil {
		return nil, nil
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, nil
	}
	if s.db != nil {
		if s.eventCache != nil {
			if cached, ok := s.eventCache.Get(runID); ok {
				return cached, nil
			}
		}
		events, err := s.listEventsDB(runID)
		if err != nil {
			return nil, err
		}
		if s.eventCache != nil {
			s.eventCache.Add(runID, events)
		}
		return events, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event(nil), s.events[runID]...), nil
}

func (s *Store) AddArtifact(a Artifact) error {
	if s == nil {
		return nil
	}
	a.RunID = strings.TrimSpace(a.RunID)
	a.Path = strings.TrimSpace(a.Path)
	if a.RunID == "" || a.Path == "" {
		return nil
	}
	if s.db != nil {
		return s.addArtifactDB(a)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arts[a.RunID] = append(s.arts[a.RunID], a)
	return nil
}

func (s *Store) ListArtifacts(runID string) ([]Artifact, error) {
	if s == nil {
		return nil, nil
	}
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil, nil
	}
	if s.db != nil {
		return s.listArtifactsDB(runID)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Artifact(nil), s.arts[runID]...), nil
}
