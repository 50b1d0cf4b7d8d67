package replay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ensiproject/ensi/internal/engine"
	"github.com/ensiproject/ensi/internal/game/command"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/events"
	"github.com/ensiproject/ensi/internal/game/mapgen"
	"github.com/ensiproject/ensi/internal/hostabi"
	"github.com/ensiproject/ensi/internal/sandbox"
)

// Rerun reconstructs rec's starting map and players from its seed and
// generation config, replays its recorded command stream through a fresh
// engine.GameLoop with no live sandboxes involved, and returns the
// resulting engine.Result. A caller compares this against the Result the
// original game produced to confirm the recording is complete and
// deterministic (§9 "replay = rerun-from-seed if the replay is
// complete").
func Rerun(ctx context.Context, rec Record, logger zerolog.Logger) (engine.Result, error) {
	genResult, err := mapgen.Generate(rec.MapGen, rec.Seed)
	if err != nil {
		return engine.Result{}, fmt.Errorf("replay: regenerate map: %w", err)
	}

	players := make([]*core.Player, 0, len(genResult.Capitals))
	boxes := make(map[core.PlayerID]sandbox.Sandbox, len(genResult.Capitals))
	for i, capital := range genResult.Capitals {
		id := core.PlayerID(i + 1)
		p := core.NewPlayer(id)
		p.Capital = capital
		p.HasCapital = true
		players = append(players, p)
		boxes[id] = newPlaybackSandbox(id, rec.Turns)
	}

	loop := engine.New(engine.Config{
		GameID:       rec.GameID + "-rerun",
		Seed:         int64(rec.Seed),
		Map:          genResult.Map,
		Players:      players,
		Sandboxes:    boxes,
		Fuel:         ^uint64(0),
		EconomyRules: rec.Economy,
		MaxTurns:     rec.MaxTurns,
		Bus:          events.NewEventBus(),
		Logger:       logger,
	})

	return loop.Run(ctx)
}

// playbackSandbox stands in for a live guest during a rerun: instead of
// executing guest code, Resume replays this player's slice of a
// TurnRecord straight into the Handler the engine hands it, one syscall
// per recorded command, then yields. Grounded on the scriptedSandbox test
// double in internal/engine/engine_test.go, generalized from a
// hand-authored per-test script to a full recorded game.
type playbackSandbox struct {
	player  core.PlayerID
	byTurn  map[int][]command.Command
	handler sandbox.Handler
	turn    int
}

func newPlaybackSandbox(player core.PlayerID, turns []TurnRecord) *playbackSandbox {
	byTurn := make(map[int][]command.Command, len(turns))
	for _, tr := range turns {
		byTurn[tr.Turn] = tr.Commands
	}
	return &playbackSandbox{player: player, byTurn: byTurn}
}

func (s *playbackSandbox) Load([]byte) error              { return nil }
func (s *playbackSandbox) PushBuffer([]byte, uint32) error { return nil }
func (s *playbackSandbox) SetHandler(h sandbox.Handler)    { s.handler = h }

func (s *playbackSandbox) Resume(fuel uint64) (sandbox.Result, error) {
	turn := s.turn
	s.turn++

	var used uint64
	for _, cmd := range s.byTurn[turn] {
		if cmd.Player != s.player {
			continue
		}
		num, args, ok := toSyscall(cmd)
		if !ok {
			continue
		}
		if _, err := s.handler.Syscall(num, args); err != nil {
			return sandbox.Result{FuelUsed: used}, err
		}
		used++
	}

	_, _ = s.handler.Syscall(hostabi.SyscallYield, [5]uint32{})
	return sandbox.Result{FuelUsed: used, Yielded: true}, nil
}

// toSyscall packs cmd back into the syscall number and argument tuple
// that originally produced it (the inverse of hostabi.Dispatcher's
// move/convert/moveCapital/abandon decoders). Yield carries no
// arguments and needs no explicit replay: Resume always yields at the
// end of a turn regardless of whether the recorded turn had one.
func toSyscall(cmd command.Command) (uint32, [5]uint32, bool) {
	switch cmd.Kind {
	case command.KindMove:
		return hostabi.SyscallMove, [5]uint32{
			uint32(cmd.From.X), uint32(cmd.From.Y),
			uint32(cmd.To.X), uint32(cmd.To.Y),
			cmd.Count,
		}, true
	case command.KindConvert:
		return hostabi.SyscallConvert, [5]uint32{
			uint32(cmd.Tile.X), uint32(cmd.Tile.Y), cmd.Count,
		}, true
	case command.KindMoveCapital:
		return hostabi.SyscallMoveCapital, [5]uint32{
			uint32(cmd.To.X), uint32(cmd.To.Y),
		}, true
	case command.KindAbandon:
		return hostabi.SyscallAbandon, [5]uint32{
			uint32(cmd.Tile.X), uint32(cmd.Tile.Y),
		}, true
	default:
		return 0, [5]uint32{}, false
	}
}
