package bedrock

import "strings"

// Command is an instruction written to the server console.
type Command interface {
	// Line returns the console line without a terminator.
	Line() string
}

// RawCommand is sent verbatim.
type RawCommand struct {
	Text string
}

// Say broadcasts a chat message to every player.
type Say struct {
	Message string
}

// Kill kills the named player's character.
type Kill struct {
	PlayerName string
}

// Line implements Command.
func (c RawCommand) Line() string { return singleLine(c.Text) }

// Line implements Command.
func (c Say) Line() string { return "say " + singleLine(c.Message) }

// Line implements Command. Names containing spaces are quoted.
func (c Kill) Line() string {
	name := singleLine(c.PlayerName)
	if strings.ContainsAny(name, " \t") {
		name = `"` + strings.ReplaceAll(name, `"`, ``) + `"`
	}
	return "kill " + name
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// singleLine keeps a command on one console line.
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}
