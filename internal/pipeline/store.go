package pipeline

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aabdoo23/Protomatic/common/id"
	"github.com/aabdoo23/Protomatic/internal/model"
)

// TransitionHook observes job status transitions. Hooks run after the store
// lock is released, with a snapshot of the job; they must not call back into
// the store's mutating methods for the same transition.
type TransitionHook func(ctx context.Context, job *model.Job)

// Store is the in-memory job registry plus the ready queue. It is the only
// shared mutable resource in the engine; a single mutex guards both the
// id->job map and the queue. Capability calls never run under this lock.
type Store struct {
	mu    sync.Mutex
	jobs  map[string]*model.Job
	ready []string

	hooks []TransitionHook
}

func NewStore(hooks ...TransitionHook) *Store {
	return &Store{
		jobs:  make(map[string]*model.Job),
		hooks: hooks,
	}
}

// OnTransition registers an additional hook. Call during wiring, before
// jobs start flowing; registration is not synchronized against notify.
func (s *Store) OnTransition(hook TransitionHook) {
	s.hooks = append(s.hooks, hook)
}

// CreateRequest carries the optional fields of Create. A zero ID means
// "generate one"; zero title/description get placeholder defaults.
type CreateRequest struct {
	ID           string
	FunctionName model.PipelineFunction
	Parameters   map[string]any
	Title        string
	Description  string
	BlockID      *string
}

// Create registers a new pending job and returns a snapshot of it.
// Function names are not validated here: sandbox jobs arrive with
// specialized block types that the confirmation path remaps first.
func (s *Store) Create(req CreateRequest) *model.Job {
	jobID := req.ID
	if jobID == "" {
		jobID = id.NewString()
	}

	title := req.Title
	if title == "" {
		if req.FunctionName != "" {
			title = "Job " + string(req.FunctionName)
		} else {
			title = "Job " + jobID
		}
	}

	description := req.Description
	if description == "" {
		description = "Sandbox job"
	}

	params := req.Parameters
	if params == nil {
		params = make(map[string]any)
	}

	job := &model.Job{
		ID:           jobID,
		Title:        title,
		Description:  description,
		FunctionName: req.FunctionName,
		Parameters:   params,
		Status:       model.JobStatusPending,
		BlockID:      req.BlockID,
	}

	s.mu.Lock()
	s.jobs[job.ID] = job
	snapshot := job.Snapshot()
	s.mu.Unlock()

	return snapshot
}

// Get returns a snapshot of the job, or false when the id is unknown.
// Callers treat "not found" the same as "not ready".
func (s *Store) Get(jobID string) (*model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	return job.Snapshot(), true
}

// Queue admits a job into the ready queue. Admission requires the job to
// exist and, when it has a dependency, the dependency to exist and be
// completed. Re-queuing an already-queued id is a no-op. Non-admission is
// not an error: callers retry through the completion cascade.
func (s *Store) Queue(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queueLocked(jobID)
}

func (s *Store) queueLocked(jobID string) bool {
	job, ok := s.jobs[jobID]
	if !ok {
		return false
	}

	if job.DependsOn != nil {
		dep, ok := s.jobs[*job.DependsOn]
		if !ok || dep.Status != model.JobStatusCompleted {
			return false
		}
	}

	for _, queued := range s.ready {
		if queued == jobID {
			return true
		}
	}
	s.ready = append(s.ready, jobID)
	return true
}

// SetDependency wires a job's single dependency link. Used by the
// dependency linker after a planning batch is created.
func (s *Store) SetDependency(jobID, dependsOn string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return false
	}
	job.DependsOn = &dependsOn
	return true
}

// StartRun atomically transitions a pending job to running and removes it
// from the ready queue, guaranteeing at-most-once dispatch even when a
// completion cascade races with the confirmation path.
func (s *Store) StartRun(ctx context.Context, jobID string) bool {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok || job.Status != model.JobStatusPending {
		s.mu.Unlock()
		return false
	}
	job.Status = model.JobStatusRunning
	s.removeFromQueueLocked(jobID)
	snapshot := job.Snapshot()
	s.mu.Unlock()

	s.notify(ctx, snapshot)
	return true
}

// UpdateStatus records a transition. Result and error are independent:
// a nil result or empty error leaves the stored value untouched. Updates
// against a terminal job are rejected (returns false) so a finished job's
// outcome can never silently flip.
//
// Completing a job synchronously admits every job that depends on it; by
// the time UpdateStatus returns, all newly-eligible dependents are queued.
func (s *Store) UpdateStatus(ctx context.Context, jobID string, status model.JobStatus, result map[string]any, errMsg string) bool {
	s.mu.Lock()
	job, ok := s.jobs[jobID]
	if !ok {
		s.mu.Unlock()
		return false
	}
	if job.Status.Terminal() {
		s.mu.Unlock()
		slog.DebugContext(ctx, "ignoring status update on terminal job",
			"job_id", jobID, "current", job.Status, "requested", status)
		return false
	}

	job.Status = status
	if result != nil {
		job.Result = result
	}
	if errMsg != "" {
		job.Error = errMsg
	}
	if status == model.JobStatusCompleted {
		job.Progress = 100
	}

	var admitted []string
	if status == model.JobStatusCompleted {
		for _, candidate := range s.jobs {
			if candidate.DependsOn != nil && *candidate.DependsOn == jobID {
				if s.queueLocked(candidate.ID) {
					admitted = append(admitted, candidate.ID)
				}
			}
		}
	}

	snapshot := job.Snapshot()
	s.mu.Unlock()

	if len(admitted) > 0 {
		slog.InfoContext(ctx, "queued dependent jobs after completion",
			"job_id", jobID, "dependents", admitted)
	}

	s.notify(ctx, snapshot)
	return true
}

// ApplyChainedParameters merges chained parameter updates into the job and
// returns a deep copy of the full parameter set for dispatch. Chained values
// overwrite planner-supplied ones for the keys they touch.
func (s *Store) ApplyChainedParameters(jobID string, updates map[string]any) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return nil, false
	}
	for k, v := range updates {
		job.Parameters[k] = model.CopyValue(v)
	}
	return model.CopyMap(job.Parameters), true
}

// NextReady pops the next eligible job from the ready queue, discarding ids
// that no longer resolve or whose dependency precondition no longer holds.
// The re-check is a safety net: the completed-only admission rule means a
// queued job's dependency should never regress.
func (s *Store) NextReady() (*model.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for len(s.ready) > 0 {
		jobID := s.ready[0]
		s.ready = s.ready[1:]

		job, ok := s.jobs[jobID]
		if !ok {
			continue
		}
		if job.DependsOn != nil {
			dep, ok := s.jobs[*job.DependsOn]
			if !ok || dep.Status != model.JobStatusCompleted {
				continue
			}
		}
		return job.Snapshot(), true
	}
	return nil, false
}

// RemoveFromQueue drops a job id from the ready queue if present.
func (s *Store) RemoveFromQueue(jobID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeFromQueueLocked(jobID)
}

func (s *Store) removeFromQueueLocked(jobID string) {
	for i, queued := range s.ready {
		if queued == jobID {
			s.ready = append(s.ready[:i], s.ready[i+1:]...)
			return
		}
	}
}

// All returns snapshots of every job keyed by id. This is the polling
// projection; jobs are never deleted within the engine's scope.
func (s *Store) All() map[string]*model.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*model.Job, len(s.jobs))
	for jobID, job := range s.jobs {
		out[jobID] = job.Snapshot()
	}
	return out
}

func (s *Store) notify(ctx context.Context, job *model.Job) {
	for _, hook := range s.hooks {
		hook(ctx, job)
	}
}
