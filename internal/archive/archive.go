// Package archive persists terminal jobs to Postgres. The in-memory store
// stays authoritative for the life of the process; the archive is a
// write-behind record that survives restarts.
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aabdoo23/Protomatic/core/db"
	"github.com/aabdoo23/Protomatic/internal/model"
)

type Archive struct {
	db     *db.DB
	logger *slog.Logger
}

func New(database *db.DB, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{db: database, logger: logger}
}

const insertJobSQL = `
INSERT INTO job_archive (job_id, title, description, function_name, parameters, status, result, error, block_id, archived_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (job_id) DO NOTHING`

// Record writes a terminal job. The conflict clause makes it idempotent:
// terminal status never changes, so the first write wins.
func (a *Archive) Record(ctx context.Context, job *model.Job) error {
	if !job.Status.Terminal() {
		return fmt.Errorf("job %s is not terminal", job.ID)
	}

	params, err := json.Marshal(job.Parameters)
	if err != nil {
		return fmt.Errorf("marshal parameters: %w", err)
	}

	var result []byte
	if job.Result != nil {
		result, err = json.Marshal(job.Result)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
	}

	_, err = a.db.Pool().Exec(ctx, insertJobSQL,
		job.ID,
		job.Title,
		job.Description,
		string(job.FunctionName),
		params,
		string(job.Status),
		result,
		job.Error,
		job.BlockID,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert job archive row: %w", err)
	}

	a.logger.DebugContext(ctx, "archived job", "job_id", job.ID, "status", job.Status)
	return nil
}
