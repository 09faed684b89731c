package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
)

func (s *Server) registerEventRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "list-messages",
		Method:      http.MethodGet,
		Path:        "/api/messages",
		Summary:     "Recent Events",
		Description: "List the buffered server events, oldest first",
		Tags:        []string{"events"},
	}, func(_ context.Context, _ *struct{}) (*models.MessagesResponse, error) {
		snapshot := s.events.Snapshot()
		out := make([]models.EventData, 0, len(snapshot))
		for _, ev := range snapshot {
			out = append(out, models.NewEventData(ev))
		}
		return &models.MessagesResponse{
			Body: models.MessagesData{Events: out, Count: len(out)},
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events/stream",
		Summary:     "Event Stream",
		Description: "Server-Sent Events: the buffered events first, then live events as they happen",
		Tags:        []string{"events"},
	}, map[string]any{
		string(bedrock.KindLog):                models.LogMessage{},
		string(bedrock.KindPlayerConnected):    models.PlayerConnectedMessage{},
		string(bedrock.KindPlayerDisconnected): models.PlayerDisconnectedMessage{},
		string(bedrock.KindPlayerSpawned):      models.PlayerSpawnedMessage{},
		string(bedrock.KindProcessStopped):     models.ProcessStoppedMessage{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		sub := s.events.Subscribe()
		defer sub.Close()

		for _, rec := range sub.Replay() {
			if err := sendRecord(send, rec); err != nil {
				return
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case <-sub.Done():
				return
			case rec := <-sub.Events():
				if err := sendRecord(send, rec); err != nil {
					return
				}
			}
		}
	})
}

func sendRecord(send sse.Sender, rec events.Record) error {
	return send(sse.Message{ID: int(rec.Seq), Data: toMessage(rec.Event)})
}

// toMessage converts an event to its SSE payload type.
func toMessage(ev bedrock.Event) any {
	switch e := ev.(type) {
	case bedrock.LogEvent:
		return models.LogMessage{Time: e.Time, Message: e.Message, Type: e.Type}
	case bedrock.PlayerConnected:
		return models.PlayerConnectedMessage{Time: e.Time, Player: e.Player}
	case bedrock.PlayerDisconnected:
		return models.PlayerDisconnectedMessage{Time: e.Time, Player: e.Player}
	case bedrock.PlayerSpawned:
		return models.PlayerSpawnedMessage{Time: e.Time, Player: e.Player}
	default:
		return models.ProcessStoppedMessage{Time: ev.EventTime()}
	}
}
