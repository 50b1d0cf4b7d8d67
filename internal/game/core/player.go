package core

import "fmt"

// PlayerID identifies a player 1..=8. 0 is reserved "neutral" and 255 is
// reserved "fog" in wire encodings; PlayerID itself never takes those
// values for a real player, but the constants are exported so packing code
// in hostabi can name them instead of using magic numbers.
type PlayerID uint8

const (
	// NeutralOwner marks a tile with no owner.
	NeutralOwner PlayerID = 0
	// FogOwner is the wire sentinel for "not visible".
	FogOwner PlayerID = 255
	// MinPlayerID and MaxPlayerID bound the real player range.
	MinPlayerID PlayerID = 1
	MaxPlayerID PlayerID = 8
)

// Valid reports whether id is a real, in-range player id.
func (id PlayerID) Valid() bool {
	return id >= MinPlayerID && id <= MaxPlayerID
}

func (id PlayerID) String() string {
	switch id {
	case NeutralOwner:
		return "neutral"
	case FogOwner:
		return "fog"
	default:
		return fmt.Sprintf("player-%d", uint8(id))
	}
}

// Stats holds the once-per-turn cached derived statistics for a player
// (§3 Player: "Derived per-turn statistics ... computed once per turn and
// cached for the HostABI").
type Stats struct {
	Population int64
	Army       int64
	Territory  int
	Food       int64 // Population - Army, §4.5
}

// Player is one seat at the table. BotHandle is an opaque reference to the
// player's Sandbox; Engine owns the concrete type, core only needs to carry
// the pointer around without importing the sandbox package (which would be
// a cycle: sandbox -> hostabi -> core).
type Player struct {
	ID      PlayerID
	Capital Coord
	HasCapital bool // false once eliminated, mirrors "capital: optional Coord"
	Alive   bool

	Stats Stats

	// BotHandle is set by engine.New to the player's Sandbox instance, for
	// players that have one.
	// core never dereferences it; it exists here so Player can be the single
	// place ownership of "one player, one sandbox" (§3 Ownership) is recorded.
	BotHandle interface{}
}

// NewPlayer creates a fresh, alive player with no capital assigned yet.
func NewPlayer(id PlayerID) *Player {
	return &Player{ID: id, Alive: true}
}

// Eliminate marks a player as permanently out of the game. The flip from
// alive to dead is irreversible (§3 Lifecycle).
func (p *Player) Eliminate() {
	p.Alive = false
	p.HasCapital = false
}
