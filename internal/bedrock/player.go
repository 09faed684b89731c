package bedrock

// Player identifies a client connected to the server.
// Username is the identity key; XUID and PFID are carried along but never
// compared when deciding whether two values refer to the same player.
type Player struct {
	Username string `json:"username" example:"Bebeuz76" doc:"Gamertag"`
	XUID     string `json:"xuid" example:"2533274908113115" doc:"Xbox user identifier"`
	PFID     string `json:"pfid,omitempty" example:"2ce3b0927e996530" doc:"PlayFab identifier, present once the client has fully joined"`
}

// Key returns the identity key used by the roster.
func (p Player) Key() string {
	return p.Username
}

// HasPFID reports whether the PlayFab identifier is known.
func (p Player) HasPFID() bool {
	return p.PFID != ""
}
