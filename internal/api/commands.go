package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/bedrock"
)

func (s *Server) registerCommandRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "send-command",
		Method:      http.MethodPost,
		Path:        "/api/commands",
		Summary:     "Send Command",
		Description: "Write a raw command to the server console",
		Tags:        []string{"commands"},
		Errors:      []int{400, 409, 500},
	}, func(ctx context.Context, input *models.CommandRequest) (*models.ActionResponse, error) {
		command := strings.TrimSpace(input.Body.Command)
		if command == "" {
			return nil, huma.Error400BadRequest("command is required")
		}
		if err := s.send(ctx, bedrock.RawCommand{Text: command}); err != nil {
			return nil, err
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "sent"}}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "say",
		Method:      http.MethodPost,
		Path:        "/api/say",
		Summary:     "Say",
		Description: "Broadcast a chat message to every player",
		Tags:        []string{"commands"},
		Errors:      []int{400, 409, 500},
	}, func(ctx context.Context, input *models.SayRequest) (*models.ActionResponse, error) {
		message := strings.TrimSpace(input.Body.Message)
		if message == "" {
			return nil, huma.Error400BadRequest("message is required")
		}
		if err := s.send(ctx, bedrock.Say{Message: message}); err != nil {
			return nil, err
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "sent"}}, nil
	})
}

// send writes cmd to a running server. Commands are refused while it is not
// running instead of being dropped silently.
func (s *Server) send(ctx context.Context, cmd bedrock.Command) error {
	if !s.supervisor.IsRunning() {
		return huma.Error409Conflict("server is not running")
	}
	if err := s.supervisor.SendCommand(ctx, cmd); err != nil {
		s.logger.Warn("Failed to send command", "error", err)
		return huma.Error500InternalServerError("failed to send command", err)
	}
	return nil
}
