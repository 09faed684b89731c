package nats

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/smazurov/bedrockd/internal/events"
)

// Subjects.
const (
	SubjectEventsPrefix = "bedrockd.events"
	SubjectControl      = "bedrockd.control"
)

// SubjectEvents returns the subject events of kind are published on.
func SubjectEvents(kind bedrock.Kind) string {
	return fmt.Sprintf("%s.%s", SubjectEventsPrefix, kind)
}

// Control actions.
const (
	ActionStart   = "start"
	ActionStop    = "stop"
	ActionCommand = "command"
	ActionSay     = "say"
	ActionKill    = "kill"
)

// EventMessage is a bus event sent over NATS.
type EventMessage struct {
	Seq     uint64          `json:"seq"`
	Kind    string          `json:"kind"`
	Time    time.Time       `json:"time"`
	Message string          `json:"message,omitempty"`
	Type    string          `json:"type,omitempty"`
	Player  *bedrock.Player `json:"player,omitempty"`
}

// NewEventMessage converts a bus record.
func NewEventMessage(rec events.Record) EventMessage {
	m := EventMessage{
		Seq:  rec.Seq,
		Kind: string(rec.Event.Kind()),
		Time: rec.Event.EventTime(),
	}
	if e, ok := rec.Event.(bedrock.LogEvent); ok {
		m.Message = e.Message
		m.Type = e.Type
	}
	if p, ok := bedrock.PlayerOf(rec.Event); ok {
		m.Player = &p
	}
	return m
}

// Marshal serializes the message to JSON.
func (m EventMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// ControlMessage asks bedrockd to act on the server.
type ControlMessage struct {
	Action string `json:"action"`
	Text   string `json:"text,omitempty"`   // command and say
	Player string `json:"player,omitempty"` // kill
}

// Command returns the console command for command, say and kill actions.
func (m ControlMessage) Command() (bedrock.Command, error) {
	switch m.Action {
	case ActionCommand:
		if m.Text == "" {
			return nil, fmt.Errorf("action %q needs text", m.Action)
		}
		return bedrock.RawCommand{Text: m.Text}, nil
	case ActionSay:
		if m.Text == "" {
			return nil, fmt.Errorf("action %q needs text", m.Action)
		}
		return bedrock.Say{Message: m.Text}, nil
	case ActionKill:
		if m.Player == "" {
			return nil, fmt.Errorf("action %q needs player", m.Action)
		}
		return bedrock.Kill{PlayerName: m.Player}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", m.Action)
	}
}

// ControlReply answers a ControlMessage sent as a request.
type ControlReply struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Marshal serializes the reply to JSON.
func (r ControlReply) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalControl deserializes a ControlMessage from JSON.
func UnmarshalControl(data []byte) (ControlMessage, error) {
	var m ControlMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
