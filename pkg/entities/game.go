package entities

import (
	"fmt"
	"time"
)

// MaxSlots is the fixed player capacity of every game record
const MaxSlots = 4

// GameType identifies a catalog entry
type GameType uint8

const (
	GameTypeLudo             GameType = 0
	GameTypeTicTacToe        GameType = 1
	GameTypeSnakesAndLadders GameType = 2
)

// Identity is an opaque participant identifier. The empty identity marks an
// unoccupied slot.
type Identity string

// NoIdentity is the empty-slot sentinel
const NoIdentity Identity = ""

// Marker is the per-slot label used for winner-by-marker resolution
type Marker string

// Address is the derived storage location of a record or account
type Address string

// GameRecord is the persistent state of one wagered game
type GameRecord struct {
	Address       Address
	Code          string
	GameType      GameType
	Wager         uint64 // per-player stake
	MinPlayers    uint8
	MaxPlayers    uint8
	PlayersJoined uint8
	Players       [MaxSlots]Identity
	Markers       [MaxSlots]Marker
	Winner        Identity
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Creator returns the identity in slot zero
func (g *GameRecord) Creator() Identity {
	return g.Players[0]
}

// JoinedPlayers returns the occupied slots in join order
func (g *GameRecord) JoinedPlayers() []Identity {
	out := make([]Identity, 0, g.PlayersJoined)
	for i := 0; i < int(g.PlayersJoined) && i < MaxSlots; i++ {
		out = append(out, g.Players[i])
	}
	return out
}

// HasPlayer reports whether id occupies a joined slot
func (g *GameRecord) HasPlayer(id Identity) bool {
	if id == NoIdentity {
		return false
	}
	for i := 0; i < int(g.PlayersJoined) && i < MaxSlots; i++ {
		if g.Players[i] == id {
			return true
		}
	}
	return false
}

// SlotForMarker returns the first joined slot carrying marker
func (g *GameRecord) SlotForMarker(marker Marker) (int, bool) {
	if marker == "" {
		return -1, false
	}
	for i := 0; i < int(g.PlayersJoined) && i < MaxSlots; i++ {
		if g.Markers[i] == marker {
			return i, true
		}
	}
	return -1, false
}

// IsFull reports whether every allowed slot is taken
func (g *GameRecord) IsFull() bool {
	return g.PlayersJoined >= g.MaxPlayers
}

// IsResolved reports whether a winner has been recorded
func (g *GameRecord) IsResolved() bool {
	return g.Winner != NoIdentity
}

// ExpectedEscrow is wager times joined players
func (g *GameRecord) ExpectedEscrow() uint64 {
	return g.Wager * uint64(g.PlayersJoined)
}

// Validate checks the structural invariants of the record
func (g *GameRecord) Validate() error {
	if g.MaxPlayers == 0 || g.MaxPlayers > MaxSlots {
		return fmt.Errorf("max players %d out of range", g.MaxPlayers)
	}
	if g.MinPlayers > g.MaxPlayers {
		return fmt.Errorf("min players %d exceeds max players %d", g.MinPlayers, g.MaxPlayers)
	}
	if g.PlayersJoined == 0 || g.PlayersJoined > g.MaxPlayers {
		return fmt.Errorf("players joined %d out of range 1..%d", g.PlayersJoined, g.MaxPlayers)
	}
	seen := make(map[Identity]struct{}, g.PlayersJoined)
	for i := 0; i < MaxSlots; i++ {
		id := g.Players[i]
		if i < int(g.PlayersJoined) {
			if id == NoIdentity {
				return fmt.Errorf("slot %d is empty but joined", i)
			}
			if _, dup := seen[id]; dup {
				return fmt.Errorf("identity %s occupies more than one slot", id)
			}
			seen[id] = struct{}{}
			continue
		}
		if id != NoIdentity || g.Markers[i] != "" {
			return fmt.Errorf("slot %d is past players joined but not empty", i)
		}
	}
	if g.Winner != NoIdentity && !g.HasPlayer(g.Winner) {
		return fmt.Errorf("winner %s is not a joined player", g.Winner)
	}
	return nil
}
