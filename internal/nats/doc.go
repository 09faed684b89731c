// Package nats publishes server events to NATS and accepts control messages
// from it, so other processes can follow and drive the Bedrock server without
// the HTTP API.
//
// # Subject Hierarchy
//
//	bedrockd.events.{kind}     # every bus event as JSON (bedrockd → subscribers)
//	bedrockd.control           # ControlMessage requests (clients → bedrockd)
//
// Event kinds are log, player_connected, player_disconnected, player_spawned
// and process_stopped. Control requests that carry a reply subject get a
// ControlReply.
//
// The bridge uses core NATS (no JetStream). An embedded server can be started
// in-process when no external one is available.
//
// # Debugging with nats CLI
//
// Follow player activity:
//
//	nats sub "bedrockd.events.player_*"
//
// Run a console command and wait for the reply:
//
//	nats req bedrockd.control '{"action":"command","text":"list"}'
//
// Say something in game:
//
//	nats req bedrockd.control '{"action":"say","text":"Restart in 5 minutes"}'
//
// # Message Formats
//
// EventMessage (bedrockd.events.player_connected):
//
//	{
//	  "seq": 42,
//	  "kind": "player_connected",
//	  "time": "2024-03-09T10:16:01Z",
//	  "player": {"username": "Steve", "xuid": "2535416413393422"}
//	}
//
// ControlMessage (bedrockd.control):
//
//	{
//	  "action": "kill",
//	  "player": "Steve"
//	}
package nats
