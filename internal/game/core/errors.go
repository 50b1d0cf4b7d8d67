package core

import (
	"errors"
	"fmt"
)

// Sentinel errors for the command-validation kind of the §7 error taxonomy.
// These never abort a turn; the Resolver treats them as "drop the command,
// return nonzero to the bot".
var (
	ErrOutOfBounds          = errors.New("coordinate out of bounds")
	ErrNotAdjacent          = errors.New("tiles are not adjacent")
	ErrNotOwned             = errors.New("tile not owned by submitter")
	ErrInsufficientArmy     = errors.New("insufficient army for command")
	ErrTargetIsMountain     = errors.New("destination is impassable")
	ErrZeroCount            = errors.New("count must be >= 1")
	ErrNotACity             = errors.New("tile is not a city")
	ErrInsufficientPop      = errors.New("insufficient population for conversion")
	ErrCapitalNotBetter     = errors.New("candidate capital has no more population than current")
	ErrCannotAbandonCapital = errors.New("cannot abandon capital")
	ErrInvalidPlayer        = errors.New("invalid player id")
)

// ErrGameOver is the sentinel for operating on a game that has already
// reached a terminal outcome, a caller error rather than a command error.
// Nothing in the engine returns it.
var ErrGameOver = errors.New("game is over")

// InvalidCommand wraps any of the sentinels above with the offending
// command's context, mirroring the teacher's WrapActionError helper.
type InvalidCommand struct {
	Turn     int
	PlayerID int
	Kind     string
	Err      error
}

func (e *InvalidCommand) Error() string {
	return fmt.Sprintf("turn %d: player %d: %s command rejected: %v", e.Turn, e.PlayerID, e.Kind, e.Err)
}

func (e *InvalidCommand) Unwrap() error { return e.Err }

// WrapInvalidCommand builds an InvalidCommand for logging/event purposes.
// The Resolver never surfaces this as a hard error to its caller; only the
// per-syscall nonzero return code and an event are observable to the bot.
func WrapInvalidCommand(turn, playerID int, kind string, err error) *InvalidCommand {
	return &InvalidCommand{Turn: turn, PlayerID: playerID, Kind: kind, Err: err}
}

// GuestTrapKind enumerates the sandbox trap causes from §7.
type GuestTrapKind int

const (
	TrapFuelExhausted GuestTrapKind = iota
	TrapIllegalInstruction
	TrapBadSyscall
	TrapMemoryFault
	TrapABIViolation
)

func (k GuestTrapKind) String() string {
	switch k {
	case TrapFuelExhausted:
		return "fuel_exhausted"
	case TrapIllegalInstruction:
		return "illegal_instruction"
	case TrapBadSyscall:
		return "bad_syscall"
	case TrapMemoryFault:
		return "memory_fault"
	case TrapABIViolation:
		return "abi_violation"
	default:
		return "unknown_trap"
	}
}

// GuestTrap represents a sandbox-level fault. It only ever ends the current
// bot's turn (§4.9): the bot's alive flag and retained state are untouched.
type GuestTrap struct {
	Kind   GuestTrapKind
	Detail string
	AtFuel uint64
}

func (e *GuestTrap) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("guest trap: %s", e.Kind)
	}
	return fmt.Sprintf("guest trap: %s: %s", e.Kind, e.Detail)
}

// MapGenFailure signals that a generated map failed the connectivity
// invariant; the caller (mapgen.Generate) retries with seed+1.
type MapGenFailure struct {
	Seed   uint64
	Reason string
}

func (e *MapGenFailure) Error() string {
	return fmt.Sprintf("map generation failed for seed %d: %s", e.Seed, e.Reason)
}

// InternalInvariantViolation is a programmer error: it is always fatal and
// must never be caused by bot behaviour, however malicious.
type InternalInvariantViolation struct {
	Turn    int
	Message string
}

func (e *InternalInvariantViolation) Error() string {
	return fmt.Sprintf("turn %d: internal invariant violated: %s", e.Turn, e.Message)
}

// WrapGameStateError attaches turn/phase context to an error the way the
// teacher's core.WrapGameStateError does, keeping errors.Is/As usable.
func WrapGameStateError(turn int, phase string, err error) error {
	return fmt.Errorf("turn %d: %s: %w", turn, phase, err)
}
