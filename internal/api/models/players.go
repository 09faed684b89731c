package models

import "github.com/smazurov/bedrockd/internal/bedrock"

// PlayersData lists connected players.
type PlayersData struct {
	Running bool             `json:"running" example:"true" doc:"Whether the server is running"`
	Players []bedrock.Player `json:"players" doc:"Connected players in join order"`
	Count   int              `json:"count" example:"1" doc:"Number of connected players"`
}

type PlayersResponse struct {
	Body PlayersData
}

// KillPlayerRequest targets one player by gamertag.
type KillPlayerRequest struct {
	Name string `path:"name" maxLength:"64" example:"Bebeuz76" doc:"Player gamertag"`
}
