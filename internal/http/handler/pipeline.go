package handler

import (
	"bufio"
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aabdoo23/Protomatic/common/id"
	"github.com/aabdoo23/Protomatic/internal/http/dto"
	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/pipeline"
)

// sessionHeader identifies the conversation. New sessions get an id
// assigned and echoed back for the client to reuse.
const sessionHeader = "X-Session-ID"

type ChatService interface {
	ProcessInput(ctx context.Context, sessionID, text string) (*pipeline.ChatResult, error)
}

type ConfirmService interface {
	Confirm(ctx context.Context, req pipeline.ConfirmRequest) (*model.Job, error)
}

type JobReader interface {
	Get(jobID string) (*model.Job, bool)
	All() map[string]*model.Job
}

type PipelineHandler struct {
	chat    ChatService
	confirm ConfirmService
	jobs    JobReader
}

func NewPipelineHandler(chat ChatService, confirm ConfirmService, jobs JobReader) *PipelineHandler {
	return &PipelineHandler{chat: chat, confirm: confirm, jobs: jobs}
}

func (h *PipelineHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	if h.chat == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Pipeline service unavailable"})
		return
	}

	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid chat request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Message is required"})
		return
	}

	sessionID := c.GetHeader(sessionHeader)
	if sessionID == "" {
		sessionID = id.NewString()
	}
	c.Header(sessionHeader, sessionID)

	result, err := h.chat.ProcessInput(ctx, sessionID, req.Message)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Success:     true,
		Explanation: result.Explanation,
		Jobs:        result.Jobs,
	})
}

func (h *PipelineHandler) ConfirmJob(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ConfirmJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid confirm request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Job ID is required."})
		return
	}

	confirm := pipeline.ConfirmRequest{ID: req.JobID}
	if req.JobData != nil {
		confirm.FunctionName = req.JobData.FunctionName
		confirm.Parameters = req.JobData.Parameters
		confirm.Title = req.JobData.Title
		confirm.Description = req.JobData.Description
		confirm.BlockID = req.JobData.BlockID
	}

	job, err := h.confirm.Confirm(ctx, confirm)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "Job not found."})
		return
	}

	c.JSON(http.StatusOK, dto.ConfirmJobResponse{Success: true, Job: job})
}

func (h *PipelineHandler) JobStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, ok := h.jobs.Get(jobID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Job not found."})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (h *PipelineHandler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, dto.JobsResponse{Success: true, Jobs: h.jobs.All()})
}

func (h *PipelineHandler) ReadFastaFile(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ReadFastaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "File path is required."})
		return
	}

	sequences, err := readFasta(req.FilePath)
	if err != nil {
		slog.WarnContext(ctx, "failed to read fasta file", "path", req.FilePath, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto.ReadFastaResponse{Success: true, Sequences: sequences})
}

func readFasta(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sequences []string
	var current strings.Builder

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.HasPrefix(line, ">"):
			if current.Len() > 0 {
				sequences = append(sequences, current.String())
				current.Reset()
			}
		case line != "":
			current.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if current.Len() > 0 {
		sequences = append(sequences, current.String())
	}
	return sequences, nil
}
