package events

import (
	"time"

	"github.com/ensiproject/ensi/internal/game/core"
)

// Event type constants.
const (
	TypeGameStarted      = "game.started"
	TypeGameEnded        = "game.ended"
	TypeTurnStarted      = "turn.started"
	TypeTurnEnded        = "turn.ended"
	TypeCommandRejected  = "command.rejected"
	TypeCombatResolved   = "combat.resolved"
	TypeCapitalCaptured  = "capital.captured"
	TypePlayerEliminated = "player.eliminated"
	TypeEconomyApplied   = "economy.applied"
	TypeStateTransition  = "state.transition"
)

// GameStartedEvent is published once a new game's map and players are set up.
type GameStartedEvent struct {
	BaseEvent
	NumPlayers int
	MapWidth   int
	MapHeight  int
	Seed       int64
}

func NewGameStartedEvent(gameID string, numPlayers, width, height int, seed int64) *GameStartedEvent {
	return &GameStartedEvent{
		BaseEvent: BaseEvent{EventType: TypeGameStarted, Time: time.Now(), Game: gameID},
		NumPlayers: numPlayers,
		MapWidth:   width,
		MapHeight:  height,
		Seed:       seed,
	}
}

// GameEndedEvent is published once a game reaches a termination condition.
type GameEndedEvent struct {
	BaseEvent
	Winner    core.PlayerID
	HasWinner bool
	Reason    string
	FinalTurn int
	Duration  time.Duration
}

func NewGameEndedEvent(gameID string, winner core.PlayerID, hasWinner bool, reason string, finalTurn int, duration time.Duration) *GameEndedEvent {
	return &GameEndedEvent{
		BaseEvent: BaseEvent{EventType: TypeGameEnded, Time: time.Now(), Game: gameID},
		Winner:    winner,
		HasWinner: hasWinner,
		Reason:    reason,
		FinalTurn: finalTurn,
		Duration:  duration,
	}
}

// TurnStartedEvent is published before any player's sandbox is resumed for the turn.
type TurnStartedEvent struct {
	BaseEvent
	Metadata   EventMetadata
	TurnNumber int
}

func NewTurnStartedEvent(gameID string, turn int) *TurnStartedEvent {
	return &TurnStartedEvent{
		BaseEvent:  BaseEvent{EventType: TypeTurnStarted, Time: time.Now(), Game: gameID},
		Metadata:   EventMetadata{Turn: turn},
		TurnNumber: turn,
	}
}

// TurnEndedEvent is published after the resolver, economy, and elimination
// phases have all run for the turn.
type TurnEndedEvent struct {
	BaseEvent
	Metadata      EventMetadata
	TurnNumber    int
	CommandCount  int
	ProcessedTime time.Duration
}

func NewTurnEndedEvent(gameID string, turn, commandCount int, processedTime time.Duration) *TurnEndedEvent {
	return &TurnEndedEvent{
		BaseEvent:     BaseEvent{EventType: TypeTurnEnded, Time: time.Now(), Game: gameID},
		Metadata:      EventMetadata{Turn: turn},
		TurnNumber:    turn,
		CommandCount:  commandCount,
		ProcessedTime: processedTime,
	}
}

// CommandRejectedEvent is published when the resolver refuses a command
// (illegal move, unowned tile, dead submitter, and so on).
type CommandRejectedEvent struct {
	BaseEvent
	Metadata EventMetadata
	PlayerID core.PlayerID
	Kind     string
	Reason   string
}

func NewCommandRejectedEvent(gameID string, playerID core.PlayerID, kind, reason string, turn int) *CommandRejectedEvent {
	return &CommandRejectedEvent{
		BaseEvent: BaseEvent{EventType: TypeCommandRejected, Time: time.Now(), Game: gameID},
		Metadata:  EventMetadata{PlayerID: int(playerID), Turn: turn},
		PlayerID:  playerID,
		Kind:      kind,
		Reason:    reason,
	}
}

// CombatResolvedEvent is published whenever a move command lands on a
// tile owned by a different player and armies clash.
type CombatResolvedEvent struct {
	BaseEvent
	Metadata       EventMetadata
	AttackerID     core.PlayerID
	DefenderID     core.PlayerID
	At             core.Coord
	AttackerArmy   uint32
	DefenderArmy   uint32
	ResultingArmy  uint32
	AttackerWon    bool
	Neutralized    bool
}

func NewCombatResolvedEvent(gameID string, attacker, defender core.PlayerID, at core.Coord, attackerArmy, defenderArmy, resultingArmy uint32, attackerWon, neutralized bool, turn int) *CombatResolvedEvent {
	return &CombatResolvedEvent{
		BaseEvent:     BaseEvent{EventType: TypeCombatResolved, Time: time.Now(), Game: gameID},
		Metadata:      EventMetadata{PlayerID: int(attacker), Turn: turn},
		AttackerID:    attacker,
		DefenderID:    defender,
		At:            at,
		AttackerArmy:  attackerArmy,
		DefenderArmy:  defenderArmy,
		ResultingArmy: resultingArmy,
		AttackerWon:   attackerWon,
		Neutralized:   neutralized,
	}
}

// CapitalCapturedEvent is published when a move captures another player's
// capital tile, eliminating that player and transferring their territory.
type CapitalCapturedEvent struct {
	BaseEvent
	Metadata   EventMetadata
	AttackerID core.PlayerID
	DefenderID core.PlayerID
	At         core.Coord
}

func NewCapitalCapturedEvent(gameID string, attacker, defender core.PlayerID, at core.Coord, turn int) *CapitalCapturedEvent {
	return &CapitalCapturedEvent{
		BaseEvent:  BaseEvent{EventType: TypeCapitalCaptured, Time: time.Now(), Game: gameID},
		Metadata:   EventMetadata{PlayerID: int(attacker), Turn: turn},
		AttackerID: attacker,
		DefenderID: defender,
		At:         at,
	}
}

// PlayerEliminatedEvent is published when a player's Alive flag flips to false.
type PlayerEliminatedEvent struct {
	BaseEvent
	Metadata     EventMetadata
	PlayerID     core.PlayerID
	EliminatedBy core.PlayerID
}

func NewPlayerEliminatedEvent(gameID string, playerID, eliminatedBy core.PlayerID, turn int) *PlayerEliminatedEvent {
	return &PlayerEliminatedEvent{
		BaseEvent:    BaseEvent{EventType: TypePlayerEliminated, Time: time.Now(), Game: gameID},
		Metadata:     EventMetadata{PlayerID: int(playerID), Turn: turn},
		PlayerID:     playerID,
		EliminatedBy: eliminatedBy,
	}
}

// EconomyAppliedEvent is published after per-turn population/army growth runs.
type EconomyAppliedEvent struct {
	BaseEvent
	Metadata     EventMetadata
	CitiesGrown  int
	TilesGrown   int
}

func NewEconomyAppliedEvent(gameID string, citiesGrown, tilesGrown int, turn int) *EconomyAppliedEvent {
	return &EconomyAppliedEvent{
		BaseEvent:   BaseEvent{EventType: TypeEconomyApplied, Time: time.Now(), Game: gameID},
		Metadata:    EventMetadata{Turn: turn},
		CitiesGrown: citiesGrown,
		TilesGrown:  tilesGrown,
	}
}

// StateTransitionEvent is published when the game's lifecycle phase changes.
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string
	ToPhase   string
	Reason    string
}

func NewStateTransitionEvent(gameID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: BaseEvent{EventType: TypeStateTransition, Time: time.Now(), Game: gameID},
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
