package capability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/aabdoo23/Protomatic/common/logger"
	"github.com/aabdoo23/Protomatic/core/config"
)

// httpCapability posts job parameters as JSON to a tool service and decodes
// the reply. Tool replies follow the shared shape:
//
//	{"success": true, ...payload} | {"success": false, "error": "..."}
type httpCapability struct {
	client *http.Client
	url    string
	name   string
}

func newHTTPCapability(client *http.Client, url, name string) *httpCapability {
	return &httpCapability{client: client, url: url, name: name}
}

func (c *httpCapability) Invoke(ctx context.Context, params map[string]any) (Result, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "protomatic.capability." + c.name})

	body, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encoding tool request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	payload, err := decodePayload(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", c.name, err)
	}

	slog.DebugContext(ctx, "tool call completed",
		"tool", c.name,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return nil, errors.New(msg)
		}
		return nil, fmt.Errorf("%s returned status %d", c.name, resp.StatusCode)
	}

	return interpretPayload(payload)
}

// pollingCapability fronts submit-then-poll tools (FoldSeek-style). The
// submit reply carries a ticket_id; the result endpoint is polled with the
// ticket until it reports completion or attempts run out. Retry/timeout
// policy lives here, not in the engine.
type pollingCapability struct {
	submit   *httpCapability
	results  *httpCapability
	interval time.Duration
	attempts int
}

func (c *pollingCapability) Invoke(ctx context.Context, params map[string]any) (Result, error) {
	submitted, err := c.submit.Invoke(ctx, params)
	if err != nil {
		return nil, err
	}

	ticket, ok := submitted["ticket_id"].(string)
	if !ok || ticket == "" {
		// Some deployments answer synchronously.
		return submitted, nil
	}

	for attempt := 1; attempt <= c.attempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.interval):
		}

		result, err := c.results.Invoke(ctx, map[string]any{"ticket_id": ticket})
		if err != nil {
			return nil, err
		}
		if status, _ := result["status"].(string); status == "" || status == "complete" {
			return result, nil
		}
	}

	return nil, fmt.Errorf("%s search did not complete after %d polls", c.submit.name, c.attempts)
}

func decodePayload(r io.Reader) (map[string]any, error) {
	var payload map[string]any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// interpretPayload enforces the success-flag contract. Absence of a result
// without an error is treated as failure for safety.
func interpretPayload(payload map[string]any) (Result, error) {
	success, ok := payload["success"].(bool)
	if ok && !success {
		if msg, ok := payload["error"].(string); ok && msg != "" {
			return nil, errors.New(msg)
		}
		return nil, errors.New("tool reported failure without an error message")
	}
	if !ok && len(payload) == 0 {
		return nil, errors.New("tool returned an empty response")
	}

	delete(payload, "success")
	return Result(payload), nil
}

// NewRegistry wires every pipeline function to an HTTP tool client using
// the configured base URLs.
func NewRegistry(cfg config.ToolsConfig) *Registry {
	client := &http.Client{Timeout: 5 * time.Minute}

	poll := func(name, base string) Capability {
		return &pollingCapability{
			submit:   newHTTPCapability(client, base+"/ticket", name),
			results:  newHTTPCapability(client, base+"/result", name),
			interval: cfg.PollInterval,
			attempts: cfg.PollAttempts,
		}
	}

	return &Registry{
		Generator: newHTTPCapability(client, cfg.GeneratorURL, "generate_protein"),
		Predictors: map[string]Capability{
			"esmfold_predict":    newHTTPCapability(client, cfg.ESMFoldURL, "esmfold"),
			"alphafold2_predict": newHTTPCapability(client, cfg.AlphaFold2URL, "alphafold2"),
			"openfold_predict":   newHTTPCapability(client, cfg.OpenFoldURL, "openfold"),
		},
		SequenceSearch: map[string]Capability{
			"ncbi_blast_search":  newHTTPCapability(client, cfg.NCBIBlastURL, "ncbi_blast"),
			"colabfold_search":   newHTTPCapability(client, cfg.ColabFoldURL, "colabfold_msa"),
			"local_blast_search": newHTTPCapability(client, cfg.LocalBlastURL, "local_blast"),
		},
		StructureSearch: poll("foldseek", cfg.FoldSeekURL),
		Evaluator:       newHTTPCapability(client, cfg.USalignURL, "usalign"),
		BindingSites:    newHTTPCapability(client, cfg.P2RankURL, "p2rank"),
		Docking:         newHTTPCapability(client, cfg.VinaURL, "vina"),
		Phylogeny:       newHTTPCapability(client, cfg.PhylogenyURL, "phylogeny"),
		Ramachandran:    newHTTPCapability(client, cfg.RamachandranURL, "ramachandran"),
		DatabaseBuilder: newHTTPCapability(client, cfg.DBBuilderURL, "blast_db_builder"),
	}
}
