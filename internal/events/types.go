package events

import "github.com/smazurov/bedrockd/internal/bedrock"

// TypeRecord is the kelindar/event type identifier for Record.
const TypeRecord uint32 = 1

// Record is a published event together with its position in the stream.
// Seq starts at 1 and increases by one per Publish on a given Bus.
type Record struct {
	Seq   uint64
	Event bedrock.Event
}

// Type returns the event type identifier for Record.
func (r Record) Type() uint32 { return TypeRecord }
