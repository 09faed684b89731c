package models

// CommandRequest sends a raw console command.
type CommandRequest struct {
	Body struct {
		Command string `json:"command" maxLength:"1024" example:"time set day" doc:"Console command, without trailing newline"`
	}
}

// SayRequest broadcasts a chat message from the server.
type SayRequest struct {
	Body struct {
		Message string `json:"message" maxLength:"1024" example:"Restarting in 5 minutes" doc:"Message text"`
	}
}
