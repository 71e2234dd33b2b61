// Package jobstore is an in-memory, uuid-keyed store of compile-service
// jobs, adapted from the teacher project's program store for the
// asynchronous compile-as-a-service flow (internal/server submits a job,
// a worker compiles it, the caller polls for the result).
package jobstore

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Status is a job's lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Job is one compile request and its (possibly not-yet-ready) outcome.
type Job struct {
	ID     string
	Status Status
	Source string

	Qasm  string
	Error string
}

// Store is an in-memory job table.
type Store interface {
	// Submit records a new job in StatusQueued and returns its id.
	Submit(source string) string
	// Get returns the job with the given id.
	Get(id string) (Job, error)
	// MarkRunning transitions a queued job to running.
	MarkRunning(id string) error
	// Complete records a successful compile's QASM output.
	Complete(id string, qasm string) error
	// Fail records a failed compile's error text.
	Fail(id string, errMsg string) error
}

type store struct {
	mu   sync.RWMutex
	jobs map[string]*Job
}

// New creates an empty Store.
func New() Store {
	return &store{jobs: make(map[string]*Job)}
}

func (s *store) Submit(source string) string {
	id := uuid.New().String()
	s.mu.Lock()
	s.jobs[id] = &Job{ID: id, Status: StatusQueued, Source: source}
	s.mu.Unlock()
	return id
}

func (s *store) Get(id string) (Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return Job{}, fmt.Errorf("jobstore: job %q not found", id)
	}
	return *j, nil
}

func (s *store) MarkRunning(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("jobstore: job %q not found", id)
	}
	j.Status = StatusRunning
	return nil
}

func (s *store) Complete(id string, qasm string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("jobstore: job %q not found", id)
	}
	j.Status = StatusSucceeded
	j.Qasm = qasm
	return nil
}

func (s *store) Fail(id string, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("jobstore: job %q not found", id)
	}
	j.Status = StatusFailed
	j.Error = errMsg
	return nil
}
