package capability

import (
	"context"
	"errors"
)

// Result is the payload an external tool returns on success. The executor
// interprets only the shape it needs for chaining; scientific content is
// opaque.
type Result map[string]any

// Capability invokes one external tool service. Implementations report
// expected tool failures through the returned error; the error string is
// surfaced verbatim as the job error.
type Capability interface {
	Invoke(ctx context.Context, params map[string]any) (Result, error)
}

// Func adapts a plain function to the Capability interface. Used by tests
// and by simple composite capabilities.
type Func func(ctx context.Context, params map[string]any) (Result, error)

func (f Func) Invoke(ctx context.Context, params map[string]any) (Result, error) {
	return f(ctx, params)
}

// ErrNotConfigured is returned when a pipeline function has no capability
// wired behind it.
var ErrNotConfigured = errors.New("capability not configured")

// Registry binds each pipeline function (and its tool variants) to a
// capability. Variant maps are keyed by the sandbox block type / model tag.
type Registry struct {
	Generator       Capability
	Predictors      map[string]Capability // esmfold_predict, alphafold2_predict, openfold_predict
	SequenceSearch  map[string]Capability // ncbi_blast_search, colabfold_search, local_blast_search
	StructureSearch Capability
	Evaluator       Capability
	BindingSites    Capability
	Docking         Capability
	Phylogeny       Capability
	Ramachandran    Capability
	DatabaseBuilder Capability
}
