// Package tournament runs many independent games concurrently. Every
// game is a pure function of a seed and a set of bot images (§1); the
// pool adds nothing but bounded concurrency and leak detection on top of
// that contract. Grounded on the teacher's cmd/game_server wiring for
// how a single game gets assembled from mapgen output, and on
// internal/monitoring/goroutines.go for the leak check the tournament
// runs around each batch.
package tournament

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ensiproject/ensi/internal/engine"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/economy"
	"github.com/ensiproject/ensi/internal/game/events"
	"github.com/ensiproject/ensi/internal/game/mapgen"
	"github.com/ensiproject/ensi/internal/game/states"
	"github.com/ensiproject/ensi/internal/sandbox"
	"github.com/ensiproject/ensi/internal/sandbox/microvm"
	"github.com/ensiproject/ensi/internal/sandbox/riscv"
)

// BotSpec identifies one seat's guest image and which dialect it's
// compiled for.
type BotSpec struct {
	Image   []byte
	Backend string // "riscv" or "microvm"
}

// GameSpec is everything RunGame needs to reproduce one game deterministically.
type GameSpec struct {
	GameID   string
	Seed     uint64
	MapGen   mapgen.Config
	Economy  economy.Rules
	MaxTurns int
	Fuel     uint64
	Bots     []BotSpec
}

// GameOutcome is one game's result out of a Pool run.
type GameOutcome struct {
	GameID string
	Result engine.Result
	Err    error
}

func newSandbox(backend string) (sandbox.Sandbox, error) {
	switch backend {
	case "riscv":
		return riscv.New(), nil
	case "microvm":
		return microvm.New(), nil
	default:
		return nil, fmt.Errorf("tournament: unknown sandbox backend %q", backend)
	}
}

// RunGame generates a map from spec.Seed, seats one sandbox per bot, and
// runs the game to completion. It touches nothing outside its arguments:
// the same GameSpec always produces the same Result. A states.StateMachine
// drives it through the full lifecycle (Lobby, Setup, Running, Ending,
// Ended) around the actual turn loop, publishing a state-transition event
// at every step on the same bus the engine publishes turn events on.
func RunGame(ctx context.Context, spec GameSpec, logger zerolog.Logger) (engine.Result, error) {
	if len(spec.Bots) != spec.MapGen.NumPlayers {
		return engine.Result{}, fmt.Errorf("tournament: %d bots for %d players", len(spec.Bots), spec.MapGen.NumPlayers)
	}

	bus := events.NewEventBus()
	gameCtx := states.NewGameContext(spec.GameID, len(spec.Bots), logger)
	sm := states.NewStateMachine(gameCtx, bus)

	if err := sm.TransitionTo(states.PhaseLobby, "bots seated"); err != nil {
		return engine.Result{}, fmt.Errorf("tournament: %w", err)
	}
	gameCtx.PlayerCount = len(spec.Bots)

	if err := sm.TransitionTo(states.PhaseSetup, "generating map"); err != nil {
		return engine.Result{}, fmt.Errorf("tournament: %w", err)
	}

	genResult, err := mapgen.Generate(spec.MapGen, spec.Seed)
	if err != nil {
		return engine.Result{}, fmt.Errorf("tournament: generate map: %w", err)
	}

	players := make([]*core.Player, 0, len(genResult.Capitals))
	boxes := make(map[core.PlayerID]sandbox.Sandbox, len(genResult.Capitals))
	for i, capital := range genResult.Capitals {
		id := core.PlayerID(i + 1)

		p := core.NewPlayer(id)
		p.Capital = capital
		p.HasCapital = true
		players = append(players, p)

		box, err := newSandbox(spec.Bots[i].Backend)
		if err != nil {
			return engine.Result{}, err
		}
		if err := box.Load(spec.Bots[i].Image); err != nil {
			return engine.Result{}, fmt.Errorf("tournament: load bot %d image: %w", id, err)
		}
		boxes[id] = box
	}

	if err := sm.TransitionTo(states.PhaseRunning, "map ready, players seated"); err != nil {
		return engine.Result{}, fmt.Errorf("tournament: %w", err)
	}

	loop := engine.New(engine.Config{
		GameID:       spec.GameID,
		Seed:         int64(spec.Seed),
		Map:          genResult.Map,
		Players:      players,
		Sandboxes:    boxes,
		Fuel:         spec.Fuel,
		EconomyRules: spec.Economy,
		MaxTurns:     spec.MaxTurns,
		Bus:          bus,
		Logger:       logger,
	})

	result, err := loop.Run(ctx)
	if err != nil {
		return result, err
	}

	if result.HasWinner {
		gameCtx.Winner = int(result.Winner)
	} else {
		gameCtx.Error = fmt.Errorf("game ended with no winner: %s", result.Reason)
	}

	if err := sm.TransitionTo(states.PhaseEnding, "game finished: "+result.Reason); err != nil {
		return result, fmt.Errorf("tournament: %w", err)
	}
	if err := sm.TransitionTo(states.PhaseEnded, "result recorded"); err != nil {
		return result, fmt.Errorf("tournament: %w", err)
	}

	return result, nil
}
