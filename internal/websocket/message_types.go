package websocket

import "time"

// Message types sent to clients
const (
	// GAME_UPDATED tells subscribers that a game changed and should be refetched
	GAME_UPDATED = "GAME_UPDATED"

	// SERVER_ERROR reports a problem with the connection itself
	SERVER_ERROR = "server:error"
)

// GameEvent is pushed to every connection subscribed to a game after a change
// is committed. It carries no game state: clients refetch the snapshot over
// HTTP, so the usual visibility rules apply.
type GameEvent struct {
	Type    string    `json:"type"`
	Code    string    `json:"code"`
	Version int       `json:"version"`
	Status  string    `json:"status"`
	Action  string    `json:"action"`
	At      time.Time `json:"at"`
}
