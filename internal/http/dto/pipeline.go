package dto

import "github.com/aabdoo23/Protomatic/internal/model"

type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1"`
}

type ChatResponse struct {
	Success     bool         `json:"success"`
	Explanation string       `json:"explanation"`
	Jobs        []*model.Job `json:"jobs"`
}

// ConfirmJobRequest carries the job id plus, for sandbox jobs the planner
// never saw, enough data to create the job on the fly.
type ConfirmJobRequest struct {
	JobID   string   `json:"job_id" binding:"required"`
	JobData *JobData `json:"job_data,omitempty"`
}

type JobData struct {
	FunctionName string         `json:"function_name"`
	Parameters   map[string]any `json:"parameters"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	BlockID      *string        `json:"block_id,omitempty"`
}

type ConfirmJobResponse struct {
	Success bool       `json:"success"`
	Job     *model.Job `json:"job"`
}

type JobsResponse struct {
	Success bool                  `json:"success"`
	Jobs    map[string]*model.Job `json:"jobs"`
}

type ReadFastaRequest struct {
	FilePath string `json:"file_path" binding:"required"`
}

type ReadFastaResponse struct {
	Success   bool     `json:"success"`
	Sequences []string `json:"sequences"`
}
