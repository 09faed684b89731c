package models

import (
	"time"

	"github.com/smazurov/bedrockd/internal/bedrock"
)

// EventData is one server event in the replay listing.
type EventData struct {
	Kind    string          `json:"kind" example:"log" enum:"log,player_connected,player_disconnected,player_spawned,process_stopped" doc:"Event kind"`
	Time    time.Time       `json:"time" doc:"Event timestamp"`
	Message string          `json:"message,omitempty" example:"Server started." doc:"Log message (log events)"`
	Type    string          `json:"type,omitempty" example:"INFO" doc:"Log severity tag (log events)"`
	Player  *bedrock.Player `json:"player,omitempty" doc:"Player (player events)"`
}

// NewEventData flattens an event for JSON output.
func NewEventData(ev bedrock.Event) EventData {
	data := EventData{
		Kind: string(ev.Kind()),
		Time: ev.EventTime(),
	}
	if e, ok := ev.(bedrock.LogEvent); ok {
		data.Message = e.Message
		data.Type = e.Type
	}
	if p, ok := bedrock.PlayerOf(ev); ok {
		data.Player = &p
	}
	return data
}

type MessagesData struct {
	Events []EventData `json:"events" doc:"Buffered events, oldest first"`
	Count  int         `json:"count" example:"300" doc:"Number of events"`
}

type MessagesResponse struct {
	Body MessagesData
}

// SSE payloads, one type per event name.

type LogMessage struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message" example:"Server started."`
	Type    string    `json:"type" example:"INFO"`
}

type PlayerMessage struct {
	Time   time.Time      `json:"time"`
	Player bedrock.Player `json:"player"`
}

type PlayerConnectedMessage PlayerMessage

type PlayerDisconnectedMessage PlayerMessage

type PlayerSpawnedMessage PlayerMessage

type ProcessStoppedMessage struct {
	Time time.Time `json:"time"`
}
