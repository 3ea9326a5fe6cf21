package entities

import "time"

// EventType names a lifecycle event
type EventType string

const (
	EventGameCreated  EventType = "GAME_CREATED"
	EventPlayerJoined EventType = "PLAYER_JOINED"
	EventGameResolved EventType = "GAME_RESOLVED"
)

// GameEvent is an audit entry emitted after a lifecycle operation commits
type GameEvent struct {
	ID          string
	Type        EventType
	GameAddress Address
	Code        string
	GameType    GameType
	Actor       Identity // creator, joiner or resolving authority
	Amount      uint64   // stake for create/join, payout for resolve
	Winner      Identity
	Players     []Identity
	Timestamp   time.Time
}
