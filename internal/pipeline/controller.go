package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/planner"
	"github.com/aabdoo23/Protomatic/internal/session"
)

// Controller glues the planner to the job store: a chat request becomes a
// batch of pending jobs with dependency links, nothing runs until each job
// is confirmed.
type Controller struct {
	planner *planner.Planner
	store   *Store
	memory  *session.Memory
}

func NewController(planner *planner.Planner, store *Store, memory *session.Memory) *Controller {
	return &Controller{planner: planner, store: store, memory: memory}
}

// ChatResult is what the chat surface returns: the plan explanation plus
// the created pending jobs, in planned order.
type ChatResult struct {
	Explanation string
	Jobs        []*model.Job
}

// ProcessInput plans the request and creates one pending job per planned
// function. Jobs come back linked but not queued; confirmation admits them.
func (c *Controller) ProcessInput(ctx context.Context, sessionID, text string) (*ChatResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		SessionID: logger.Ptr(sessionID),
		Component: "protomatic.pipeline.controller",
	})

	c.memory.AddMessage(sessionID, "user", text)
	slog.DebugContext(ctx, "planning user request", "input", logger.Truncate(text, 200))

	plan, err := c.planner.ProcessInput(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("processing request: %w", err)
	}

	jobs := make([]*model.Job, 0, len(plan.Functions))
	for _, call := range plan.Functions {
		fn := model.PipelineFunction(call.Name)
		job := c.store.Create(CreateRequest{
			FunctionName: fn,
			Parameters:   call.Parameters,
			Title:        fn.Description(),
			Description:  describeJob(fn, call.Parameters),
		})
		jobs = append(jobs, job)
	}

	LinkDependencies(c.store, jobs)

	c.memory.AddMessage(sessionID, "bot", plan.Explanation)

	slog.InfoContext(ctx, "created jobs from plan",
		"jobs", len(jobs),
		"input_chars", len(text))

	return &ChatResult{Explanation: plan.Explanation, Jobs: jobs}, nil
}

// describeJob renders the human-facing summary shown in the confirmation
// card for each planned job.
func describeJob(fn model.PipelineFunction, params map[string]any) string {
	switch fn {
	case model.FunctionPredictStructure:
		sequence := stringParam(params, "sequence")
		seqLength := "N/A"
		if sequence != "" {
			seqLength = fmt.Sprintf("%d", len(sequence))
		}
		modelInfo := "Model: To be selected"
		if m := stringParam(params, "model"); m != "" {
			modelInfo = "Model: " + m
		}
		return fmt.Sprintf("Sequence length: %s amino acids\n%s\nOutput: 3D structure prediction in PDB format\nAdditional analysis: Structure similarity search using FoldSeek", seqLength, modelInfo)
	case model.FunctionGenerateProtein:
		return "Target: " + stringParam(params, "prompt")
	case model.FunctionSearchStructure:
		return "Search for similar structures in the database"
	case model.FunctionEvaluateStructure:
		pdbFile1 := stringParam(params, "pdb_file1")
		if pdbFile1 == "" {
			pdbFile1 = "Structure 1"
		}
		pdbFile2 := stringParam(params, "pdb_file2")
		if pdbFile2 == "" {
			pdbFile2 = "Structure 2"
		}
		return fmt.Sprintf("Compare two protein structures using USAlign\nStructure 1: %s\nStructure 2: %s\nOutput: TM-score, RMSD, sequence identity, and structural similarity analysis", pdbFile1, pdbFile2)
	case model.FunctionSearchSimilarity:
		if stringParam(params, "search_type") == "colabfold" {
			return "Search for similar protein sequences using ColabFold MSA"
		}
		return "Run a BLAST search on NCBI server in the nr database to find similar sequences"
	default:
		return "Execute the requested operation"
	}
}

// History returns the conversation so far for a session.
func (c *Controller) History(sessionID string) []session.Message {
	return c.memory.History(sessionID)
}
