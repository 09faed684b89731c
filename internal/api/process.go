package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/process"
)

func (s *Server) registerProcessRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-process",
		Method:      http.MethodGet,
		Path:        "/api/process",
		Summary:     "Process Status",
		Description: "Get the state of the supervised server process",
		Tags:        []string{"process"},
	}, func(_ context.Context, _ *struct{}) (*models.ProcessStatusResponse, error) {
		return &models.ProcessStatusResponse{Body: s.processStatus()}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "start-process",
		Method:      http.MethodPost,
		Path:        "/api/process/start",
		Summary:     "Start Server",
		Description: "Start the server process",
		Tags:        []string{"process"},
		Errors:      []int{409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.ActionResponse, error) {
		if err := s.supervisor.Run(); err != nil {
			return nil, mapProcessError(err)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Status: "started", Message: "Server process started"},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "stop-process",
		Method:      http.MethodPost,
		Path:        "/api/process/stop",
		Summary:     "Stop Server",
		Description: "Kill the server process",
		Tags:        []string{"process"},
		Errors:      []int{409, 500},
	}, func(_ context.Context, _ *struct{}) (*models.ActionResponse, error) {
		if err := s.supervisor.Stop(); err != nil {
			return nil, mapProcessError(err)
		}
		return &models.ActionResponse{
			Body: models.ActionData{Status: "stopped", Message: "Server process stopped"},
		}, nil
	})
}

func (s *Server) processStatus() models.ProcessStatusData {
	info := s.supervisor.Info()
	data := models.ProcessStatusData{
		State:    string(info.State),
		Running:  s.supervisor.IsRunning(),
		PID:      info.PID,
		ExitCode: info.ExitCode,
	}
	if !info.StartedAt.IsZero() {
		startedAt := info.StartedAt
		data.StartedAt = &startedAt
	}
	if info.LastError != nil {
		data.LastError = info.LastError.Error()
	}
	return data
}

// mapProcessError converts supervisor errors to HTTP errors.
func mapProcessError(err error) error {
	switch process.ErrorCode(err) {
	case process.ErrCodeAlreadyRunning:
		return huma.Error409Conflict("server is already running", err)
	case process.ErrCodeNotRunning:
		return huma.Error409Conflict("server is not running", err)
	case process.ErrCodeSpawnFailed, process.ErrCodeInvalidExecutable:
		return huma.Error500InternalServerError("failed to start server", err)
	default:
		return huma.Error500InternalServerError("internal server error", err)
	}
}
