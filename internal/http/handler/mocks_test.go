package handler_test

import (
	"context"

	"github.com/aabdoo23/Protomatic/internal/model"
	"github.com/aabdoo23/Protomatic/internal/pipeline"
)

type mockChatService struct {
	processFn func(ctx context.Context, sessionID, text string) (*pipeline.ChatResult, error)
}

func (m *mockChatService) ProcessInput(ctx context.Context, sessionID, text string) (*pipeline.ChatResult, error) {
	if m.processFn != nil {
		return m.processFn(ctx, sessionID, text)
	}
	return &pipeline.ChatResult{}, nil
}

type mockConfirmService struct {
	confirmFn func(ctx context.Context, req pipeline.ConfirmRequest) (*model.Job, error)
}

func (m *mockConfirmService) Confirm(ctx context.Context, req pipeline.ConfirmRequest) (*model.Job, error) {
	if m.confirmFn != nil {
		return m.confirmFn(ctx, req)
	}
	return nil, nil
}

type mockJobReader struct {
	getFn func(jobID string) (*model.Job, bool)
	allFn func() map[string]*model.Job
}

func (m *mockJobReader) Get(jobID string) (*model.Job, bool) {
	if m.getFn != nil {
		return m.getFn(jobID)
	}
	return nil, false
}

func (m *mockJobReader) All() map[string]*model.Job {
	if m.allFn != nil {
		return m.allFn()
	}
	return map[string]*model.Job{}
}
