package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aabdoo23/Protomatic/common/llm"
	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/core/config"
	"github.com/aabdoo23/Protomatic/internal/model"
)

// Planner turns a natural language request into an ordered list of
// pipeline functions. It never executes anything: the caller creates
// pending jobs from the plan and waits for per-job confirmation.
type Planner struct {
	llm       llm.Client
	maxTokens int
}

// Plan is the structured output contract with the model.
type Plan struct {
	Explanation string         `json:"explanation" jsonschema_description:"Natural language explanation of what will be done"`
	Functions   []FunctionCall `json:"functions" jsonschema_description:"Functions to execute in sequence"`
}

type FunctionCall struct {
	Name       string         `json:"name" jsonschema_description:"Pipeline function name"`
	Parameters map[string]any `json:"parameters" jsonschema_description:"Parameters for the function, may be empty"`
}

var planSchema = llm.GenerateSchema[Plan]()

func New(cfg config.PlannerConfig) (*Planner, error) {
	client, err := llm.New(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("creating llm client: %w", err)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 500
	}

	return &Planner{llm: client, maxTokens: maxTokens}, nil
}

// NewWithClient wires an existing client, used by tests.
func NewWithClient(client llm.Client, maxTokens int) *Planner {
	return &Planner{llm: client, maxTokens: maxTokens}
}

// ProcessInput asks the model for a plan and validates it against the
// closed function set. Validation failures are returned as errors, not
// repaired: the user rephrases rather than getting a silently mangled
// pipeline.
func (p *Planner) ProcessInput(ctx context.Context, text string) (*Plan, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "protomatic.planner"})

	start := time.Now()
	plan := &Plan{}
	_, err := p.llm.Chat(ctx, llm.Request{
		SystemPrompt: systemPrompt,
		UserPrompt:   text,
		SchemaName:   "pipeline_plan",
		Schema:       planSchema,
		MaxTokens:    p.maxTokens,
		Temperature:  llm.Temp(0.1),
	}, plan)
	if err != nil {
		return nil, fmt.Errorf("planning request: %w", err)
	}

	if err := p.validate(plan); err != nil {
		slog.WarnContext(ctx, "rejected plan from model", "error", err)
		return nil, err
	}

	slog.InfoContext(ctx, "plan produced",
		"model", p.llm.Model(),
		"functions", len(plan.Functions),
		"duration_ms", time.Since(start).Milliseconds())

	return plan, nil
}

func (p *Planner) validate(plan *Plan) error {
	if plan.Explanation == "" {
		return fmt.Errorf("invalid output format from LLM: missing explanation")
	}

	for i := range plan.Functions {
		call := &plan.Functions[i]
		fn := model.PipelineFunction(call.Name)
		if !fn.Plannable() {
			return fmt.Errorf("invalid function name: %s", call.Name)
		}
		if call.Parameters == nil {
			return fmt.Errorf("missing parameters field for %s", call.Name)
		}

		if fn == model.FunctionPredictStructure {
			if m, ok := call.Parameters["model"]; ok {
				switch m {
				case "":
					// Models sometimes emit an empty string instead of
					// omitting the parameter.
					delete(call.Parameters, "model")
				case "esm", "alphafold2", "openfold":
				default:
					return fmt.Errorf("invalid model parameter: %v", m)
				}
			}
		}
	}

	// A chain head that consumes a sequence has nothing upstream to chain
	// from, so the sequence must be in the request itself.
	if len(plan.Functions) > 0 {
		first := plan.Functions[0]
		fn := model.PipelineFunction(first.Name)
		if fn == model.FunctionPredictStructure || fn == model.FunctionSearchSimilarity {
			if seq, _ := first.Parameters["sequence"].(string); seq == "" {
				return fmt.Errorf("Missing sequence parameter for %s", first.Name)
			}
		}
	}

	return nil
}
