package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/core/config"
	"github.com/aabdoo23/Protomatic/internal/model"
)

// Runner owns background execution: confirmed jobs are admitted to the
// store's ready queue and a fixed pool of workers drains it. Dispatch is
// at most once per job; the store's StartRun gate enforces that even if
// a job id is signalled twice.
type Runner struct {
	store    *Store
	executor *Executor
	timeout  time.Duration

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func NewRunner(store *Store, executor *Executor, cfg config.ExecutorConfig) *Runner {
	r := &Runner{
		store:    store,
		executor: executor,
		timeout:  cfg.Timeout,
		wake:     make(chan struct{}, 1),
		done:     make(chan struct{}),
	}

	store.OnTransition(func(ctx context.Context, job *model.Job) {
		r.signal()
	})

	for i := 0; i < cfg.Workers; i++ {
		r.wg.Add(1)
		go r.work()
	}
	return r
}

// ConfirmRequest carries what the confirmation surface knows about a job:
// either the id of a planner-created job, or enough to create a sandbox
// job on the fly.
type ConfirmRequest struct {
	ID           string
	FunctionName string
	Parameters   map[string]any
	Title        string
	Description  string
	BlockID      *string
}

// Confirm admits a job for execution and returns immediately with its
// snapshot; callers poll for completion. Jobs the planner never created
// (sandbox blocks) are created here first, with block type aliases
// remapped onto the closed function set.
func (r *Runner) Confirm(ctx context.Context, req ConfirmRequest) (*model.Job, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	if _, ok := r.store.Get(req.ID); !ok {
		fn, aliased := model.CanonicalFunction(req.FunctionName)
		if !fn.Valid() {
			return nil, fmt.Errorf("unknown function: %s", req.FunctionName)
		}
		params := model.CopyMap(req.Parameters)
		if aliased {
			if params == nil {
				params = map[string]any{}
			}
			params["model_type"] = req.FunctionName
		}
		r.store.Create(CreateRequest{
			ID:           req.ID,
			FunctionName: fn,
			Parameters:   params,
			Title:        req.Title,
			Description:  req.Description,
			BlockID:      req.BlockID,
		})
	} else if len(req.Parameters) > 0 {
		// Re-confirmation with fresh parameters from the sandbox wins over
		// whatever the planner filled in.
		r.store.ApplyChainedParameters(req.ID, req.Parameters)
	}

	r.store.Queue(req.ID)
	r.signal()

	job, _ := r.store.Get(req.ID)
	return job, nil
}

// Close stops the workers. In-flight jobs finish; queued jobs stay
// pending in the store.
func (r *Runner) Close() {
	close(r.done)
	r.wg.Wait()
}

func (r *Runner) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Runner) work() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.wake:
		}

		for {
			job, ok := r.store.NextReady()
			if !ok {
				break
			}
			// Another worker may drain more; keep siblings awake while
			// the queue is non-empty.
			r.signal()
			r.run(job)
		}
	}
}

func (r *Runner) run(job *model.Job) {
	if !r.store.StartRun(context.Background(), job.ID) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		JobID:     logger.Ptr(job.ID),
		Function:  logger.Ptr(string(job.FunctionName)),
		Component: "protomatic.pipeline.runner",
	})

	started := time.Now()
	slog.InfoContext(ctx, "job started")

	result, err := r.executeSafe(ctx, job)
	if err != nil {
		slog.ErrorContext(ctx, "job failed", "error", err, "duration", time.Since(started))
		r.store.UpdateStatus(ctx, job.ID, model.JobStatusFailed, nil, err.Error())
		return
	}

	slog.InfoContext(ctx, "job completed", "duration", time.Since(started))
	r.store.UpdateStatus(ctx, job.ID, model.JobStatusCompleted, result, "")
}

// executeSafe converts panics in tool code into failed jobs so one bad
// dispatch cannot take a worker down.
func (r *Runner) executeSafe(ctx context.Context, job *model.Job) (result map[string]any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			slog.ErrorContext(ctx, "panic while executing job",
				"panic", rec,
				"stack", string(debug.Stack()))
			result = nil
			err = fmt.Errorf("internal error executing %s: %v", job.FunctionName, rec)
		}
	}()
	return r.executor.Execute(ctx, job)
}
