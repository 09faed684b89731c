package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/bedrock"
)

func (s *Server) registerPlayerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-players",
		Method:      http.MethodGet,
		Path:        "/api/players",
		Summary:     "List Players",
		Description: "List players currently connected to the server",
		Tags:        []string{"players"},
	}, func(_ context.Context, _ *struct{}) (*models.PlayersResponse, error) {
		players := s.roster.Snapshot()
		return &models.PlayersResponse{
			Body: models.PlayersData{
				Running: s.supervisor.IsRunning(),
				Players: players,
				Count:   len(players),
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "kill-player",
		Method:      http.MethodPost,
		Path:        "/api/players/{name}/kill",
		Summary:     "Kill Player",
		Description: "Kill a player's character",
		Tags:        []string{"players"},
		Errors:      []int{400, 409, 500},
	}, func(ctx context.Context, input *models.KillPlayerRequest) (*models.ActionResponse, error) {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return nil, huma.Error400BadRequest("player name is required")
		}
		if err := s.send(ctx, bedrock.Kill{PlayerName: name}); err != nil {
			return nil, err
		}
		return &models.ActionResponse{Body: models.ActionData{Status: "sent"}}, nil
	})
}
