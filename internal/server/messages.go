package server

import "github.com/ChristianIvicevic/sorcery/internal/game"

// CreateGameRequest is the POST /games body.
type CreateGameRequest struct {
	GameID  string              `json:"game_id,omitempty"`
	Seed    int64               `json:"seed"`
	Players []game.PlayerSetup  `json:"players"`
}

// CreateGameResponse returns the game ID and each player's join secret. The
// secret is returned exactly once; only its bcrypt hash is kept.
type CreateGameResponse struct {
	GameID  string            `json:"game_id"`
	Secrets map[string]string `json:"secrets"`
}

// clientMessage is what a connected player sends over the websocket.
type clientMessage struct {
	// Type is join, decision or concede.
	Type string `json:"type"`

	// Join fields.
	PlayerID string `json:"player_id,omitempty"`
	Secret   string `json:"secret,omitempty"`

	// Decision carries the answer to the pending decision.
	Decision *game.Decision `json:"decision,omitempty"`
}

// serverMessage is what the server pushes to connected players.
type serverMessage struct {
	// Type is joined, state, decision, error or game_over.
	Type string `json:"type"`

	Error string `json:"error,omitempty"`
	Code  string `json:"code,omitempty"`

	// State is the current game snapshot, sent after every change.
	State *game.GameSnapshot `json:"state,omitempty"`
	// Decision is the request awaiting this player, when it is theirs.
	Decision *game.DecisionRequest `json:"decision,omitempty"`
	// Winner is set with game_over.
	Winner string `json:"winner,omitempty"`
}
