package model

// JobStatus is the lifecycle state of a pipeline job. Transitions are
// monotonic: pending -> running -> completed|failed. Terminal states are
// sticky.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a single unit of pipeline work. The store owns all mutation;
// everything handed out of the store is a deep-copied snapshot.
type Job struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	FunctionName PipelineFunction `json:"function_name"`
	Parameters   map[string]any   `json:"parameters"`
	Status       JobStatus        `json:"status"`
	Result       map[string]any   `json:"result"`
	Error        string           `json:"error,omitempty"`
	Progress     int              `json:"progress"`
	DependsOn    *string          `json:"depends_on"`
	BlockID      *string          `json:"block_id"`
}

// Snapshot returns a deep copy safe to hand to callers while the original
// keeps being mutated by the store.
func (j *Job) Snapshot() *Job {
	cp := *j
	cp.Parameters = CopyMap(j.Parameters)
	cp.Result = CopyMap(j.Result)
	if j.DependsOn != nil {
		dep := *j.DependsOn
		cp.DependsOn = &dep
	}
	if j.BlockID != nil {
		block := *j.BlockID
		cp.BlockID = &block
	}
	return &cp
}

// CopyMap deep-copies a payload map. Nested maps and slices are copied so
// a dependent job can never corrupt its predecessor's stored result through
// shared structures.
func CopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CopyValue(v)
	}
	return out
}

func CopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return CopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CopyValue(item)
		}
		return out
	default:
		return v
	}
}
