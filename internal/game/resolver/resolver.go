// Package resolver drains a command.Queue in the fixed global order §4.7
// requires and applies each command's validation and effect rules,
// including the Move combat arithmetic and the capital-capture cascade.
package resolver

import (
	"github.com/ensiproject/ensi/internal/game/command"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/rs/zerolog"
)

// Outcome records what happened to one drained command, for logging and
// for the engine, which publishes it on its event bus. EliminatedPlayer is
// core.NeutralOwner (0, never a valid PlayerID) unless this command's
// combat triggered a capital capture.
type Outcome struct {
	Command          command.Command
	Err              error
	EliminatedPlayer core.PlayerID
}

// Resolve drains q and applies every command in order (PlayerID ascending,
// then submission order, per Queue.Drain), mirroring the teacher's
// ActionProcessor.ProcessActions sort-then-apply loop but generalized from
// a single MoveAction type to the five §4.6 command kinds, and from a
// CaptureDetails slice to the richer Outcome the capital-capture cascade
// needs. Invalid commands never mutate state; they are reported here and
// the caller's syscall layer is responsible for the nonzero return code.
func Resolve(logger zerolog.Logger, turn int, m *core.Map, players []*core.Player, q *command.Queue) []Outcome {
	logger = logger.With().Str("component", "resolver").Logger()

	byID := make(map[core.PlayerID]*core.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	drained := q.Drain()
	outcomes := make([]Outcome, 0, len(drained))

	for _, cmd := range drained {
		submitter, ok := byID[cmd.Player]
		if !ok || !submitter.Alive {
			outcomes = append(outcomes, Outcome{Command: cmd, Err: core.WrapInvalidCommand(turn, int(cmd.Player), cmd.Kind.String(), core.ErrInvalidPlayer)})
			continue
		}

		var out Outcome
		switch cmd.Kind {
		case command.KindMove:
			out = applyMove(turn, m, byID, submitter, cmd)
		case command.KindConvert:
			out = applyConvert(turn, m, submitter, cmd)
		case command.KindMoveCapital:
			out = applyMoveCapital(turn, m, submitter, cmd)
		case command.KindAbandon:
			out = applyAbandon(turn, m, submitter, cmd)
		case command.KindYield:
			out = Outcome{Command: cmd}
		}

		if out.Err != nil {
			logger.Debug().Uint8("player", uint8(cmd.Player)).Str("kind", cmd.Kind.String()).Err(out.Err).Msg("command rejected")
		} else if out.EliminatedPlayer != core.NeutralOwner {
			logger.Info().Uint8("player", uint8(cmd.Player)).Uint8("eliminated", uint8(out.EliminatedPlayer)).Msg("capital captured")
		}
		outcomes = append(outcomes, out)
	}

	return outcomes
}

func applyMove(turn int, m *core.Map, byID map[core.PlayerID]*core.Player, submitter *core.Player, cmd command.Command) Outcome {
	reject := func(err error) Outcome {
		return Outcome{Command: cmd, Err: core.WrapInvalidCommand(turn, int(cmd.Player), "move", err)}
	}

	if cmd.Count < 1 {
		return reject(core.ErrZeroCount)
	}
	src := m.Get(cmd.From)
	if src == nil {
		return reject(core.ErrOutOfBounds)
	}
	if src.Owner != cmd.Player {
		return reject(core.ErrNotOwned)
	}
	dst := m.Get(cmd.To)
	if dst == nil {
		return reject(core.ErrOutOfBounds)
	}
	if !m.Adjacent(cmd.From, cmd.To) {
		return reject(core.ErrNotAdjacent)
	}
	if dst.IsMountain() {
		return reject(core.ErrTargetIsMountain)
	}
	if uint32(src.Army) < cmd.Count {
		return reject(core.ErrInsufficientArmy)
	}

	count := uint16(cmd.Count)
	src.Army -= count

	if dst.Owner == cmd.Player || dst.Army == 0 {
		becomesOwned := dst.Owner != cmd.Player
		dst.AddArmy(count)
		if becomesOwned {
			dst.Owner = cmd.Player
		}
		return Outcome{Command: cmd}
	}

	// Combat: dst.Owner is an enemy (or neutral) with nonzero army.
	attacker, defenderArmy := count, dst.Army
	var newArmy uint16
	if attacker >= defenderArmy {
		newArmy = attacker - defenderArmy
	} else {
		newArmy = defenderArmy - attacker
	}

	defenderID := dst.Owner
	switch {
	case attacker > defenderArmy:
		dst.Owner = cmd.Player
	case attacker == defenderArmy:
		dst.Owner = core.NeutralOwner
	}
	dst.Army = newArmy

	if attacker <= defenderArmy {
		return Outcome{Command: cmd}
	}

	defender, ok := byID[defenderID]
	if !ok || !defender.Alive || !defender.HasCapital || defender.Capital != cmd.To {
		return Outcome{Command: cmd}
	}

	defender.Eliminate()
	m.TransferOwnership(defenderID, cmd.Player)
	return Outcome{Command: cmd, EliminatedPlayer: defenderID}
}

func applyConvert(turn int, m *core.Map, submitter *core.Player, cmd command.Command) Outcome {
	reject := func(err error) Outcome {
		return Outcome{Command: cmd, Err: core.WrapInvalidCommand(turn, int(cmd.Player), "convert", err)}
	}

	if cmd.Count < 1 {
		return reject(core.ErrZeroCount)
	}
	city := m.Get(cmd.Tile)
	if city == nil {
		return reject(core.ErrOutOfBounds)
	}
	if !city.IsCity() {
		return reject(core.ErrNotACity)
	}
	if city.Owner != submitter.ID {
		return reject(core.ErrNotOwned)
	}
	if uint64(city.Population) < uint64(cmd.Count) {
		return reject(core.ErrInsufficientPop)
	}

	city.Population -= cmd.Count
	city.AddArmy(uint16(cmd.Count))
	return Outcome{Command: cmd}
}

func applyMoveCapital(turn int, m *core.Map, submitter *core.Player, cmd command.Command) Outcome {
	reject := func(err error) Outcome {
		return Outcome{Command: cmd, Err: core.WrapInvalidCommand(turn, int(cmd.Player), "move_capital", err)}
	}

	city := m.Get(cmd.To)
	if city == nil {
		return reject(core.ErrOutOfBounds)
	}
	if !city.IsCity() || city.Owner != submitter.ID {
		return reject(core.ErrNotOwned)
	}

	var currentPop uint32
	if submitter.HasCapital {
		currentPop = m.Get(submitter.Capital).Population
	}
	if city.Population <= currentPop {
		return reject(core.ErrCapitalNotBetter)
	}

	submitter.Capital = cmd.To
	submitter.HasCapital = true
	return Outcome{Command: cmd}
}

func applyAbandon(turn int, m *core.Map, submitter *core.Player, cmd command.Command) Outcome {
	reject := func(err error) Outcome {
		return Outcome{Command: cmd, Err: core.WrapInvalidCommand(turn, int(cmd.Player), "abandon", err)}
	}

	tile := m.Get(cmd.Tile)
	if tile == nil {
		return reject(core.ErrOutOfBounds)
	}
	if tile.Owner != submitter.ID {
		return reject(core.ErrNotOwned)
	}
	if submitter.HasCapital && submitter.Capital == cmd.Tile {
		return reject(core.ErrCannotAbandonCapital)
	}

	tile.Owner = core.NeutralOwner
	return Outcome{Command: cmd}
}
