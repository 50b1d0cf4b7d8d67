// Package engine drives the per-turn pipeline: recompute stats, resume
// every alive player's sandbox with a fresh push buffer, drain the
// commands they enqueued through the Resolver, apply the economy phase,
// finalize eliminations, and check for a terminal condition. Grounded on
// internal/game/turn_processor.go's TurnProcessor.ProcessTurn phase
// ordering (checkContext -> ... -> publishTurnEnded), generalized from
// that file's fixed action/production/end-of-turn split to the five-phase
// pipeline the resolver/economy/sandbox packages now implement, and from
// its single in-process ActionProcessor call to one Resume per alive
// sandbox.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/ensiproject/ensi/internal/game/command"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/economy"
	"github.com/ensiproject/ensi/internal/game/events"
	"github.com/ensiproject/ensi/internal/game/resolver"
	"github.com/ensiproject/ensi/internal/game/visibility"
	"github.com/ensiproject/ensi/internal/hostabi"
	"github.com/ensiproject/ensi/internal/sandbox"
)

// pushBufferBaseAddr is where every guest image is expected to map its
// push-buffer region in its own linear address space. The ABI leaves the
// exact address implementation-defined (§4.8); this repo's two sandbox
// backends and its guest-side conventions agree on 0.
const pushBufferBaseAddr uint32 = 0

// Config wires up one game's worth of state for the loop to drive. The
// Map and Players must already be generated (mapgen.Generate) and seated;
// GameLoop never creates players or tiles, only mutates them.
type Config struct {
	GameID  string
	Seed    int64
	Map     *core.Map
	Players []*core.Player

	// Sandboxes maps a player to the guest runtime that plays for them. A
	// player with no entry (or a nil entry) is treated as perpetually
	// yielding: their turn produces no commands.
	Sandboxes map[core.PlayerID]sandbox.Sandbox

	// Fuel is the per-player, per-turn budget handed to Sandbox.Resume.
	Fuel uint64

	EconomyRules economy.Rules
	MaxTurns     int

	// Recorder, if set, is notified of every turn's resolved commands in
	// resolver order. internal/replay implements this without the engine
	// package needing to import it.
	Recorder CommandRecorder

	Bus    *events.EventBus
	Logger zerolog.Logger
}

// CommandRecorder receives the exact, ordered command list the Resolver
// processed for a turn, whether or not each command was accepted. A nil
// Recorder on Config disables recording entirely.
type CommandRecorder interface {
	RecordTurn(turn int, cmds []command.Command)
}

// GameLoop runs one game to completion, turn by turn.
type GameLoop struct {
	logger  zerolog.Logger
	gameID  string
	seed    int64
	m       *core.Map
	players []*core.Player // sorted by PlayerID ascending
	boxes   map[core.PlayerID]sandbox.Sandbox
	fuel    uint64
	econ    economy.Rules
	maxTurn int
	rec     CommandRecorder
	bus     *events.EventBus

	turn int
}

// New builds a GameLoop from cfg. Players are sorted ascending by ID so
// every later phase can rely on that order without re-sorting (§4.7's
// "PlayerID ascending" ordering applies to more than just command
// resolution: the per-turn Resume loop walks players in the same order).
func New(cfg Config) *GameLoop {
	players := append([]*core.Player(nil), cfg.Players...)
	sort.Slice(players, func(i, j int) bool { return players[i].ID < players[j].ID })

	boxes := cfg.Sandboxes
	if boxes == nil {
		boxes = make(map[core.PlayerID]sandbox.Sandbox)
	}
	for _, p := range players {
		if box, ok := boxes[p.ID]; ok {
			p.BotHandle = box
		}
	}

	return &GameLoop{
		logger:  cfg.Logger.With().Str("component", "engine").Str("game_id", cfg.GameID).Logger(),
		gameID:  cfg.GameID,
		seed:    cfg.Seed,
		m:       cfg.Map,
		players: players,
		boxes:   boxes,
		fuel:    cfg.Fuel,
		econ:    cfg.EconomyRules,
		maxTurn: cfg.MaxTurns,
		rec:     cfg.Recorder,
		bus:     cfg.Bus,
	}
}

// Result reports how a game ended.
type Result struct {
	Winner    core.PlayerID
	HasWinner bool
	Reason    string // "domination", "territory", or "draw"
	FinalTurn int
}

// Run drives turns until a termination condition is met or ctx is
// cancelled. Grounded on TurnProcessor.ProcessTurn's per-call checkContext
// guard, generalized to the outer loop since here the loop itself, not a
// single call, owns turn advancement.
func (g *GameLoop) Run(ctx context.Context) (Result, error) {
	g.bus.Publish(events.NewGameStartedEvent(g.gameID, len(g.players), g.m.W, g.m.H, g.seed))

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		done, result, err := g.runTurn(ctx)
		if err != nil {
			return Result{}, err
		}
		if done {
			g.bus.Publish(events.NewGameEndedEvent(g.gameID, result.Winner, result.HasWinner, result.Reason, result.FinalTurn, 0))
			return result, nil
		}
	}
}

// runTurn executes one full turn (§4.10's seven steps) and reports
// whether the game is now over.
func (g *GameLoop) runTurn(ctx context.Context) (bool, Result, error) {
	start := time.Now()

	g.computeStats()
	core.Assert(g.turn, g.m, core.Players(g.players))
	g.bus.Publish(events.NewTurnStartedEvent(g.gameID, g.turn))

	master := command.NewQueue()

	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return false, Result{}, err
		}
		g.resumePlayer(p, master)
	}

	outcomes := resolver.Resolve(g.logger, g.turn, g.m, g.players, master)
	g.publishOutcomes(outcomes)

	if g.rec != nil {
		cmds := make([]command.Command, len(outcomes))
		for i, o := range outcomes {
			cmds[i] = o.Command
		}
		g.rec.RecordTurn(g.turn, cmds)
	}

	reports := economy.ApplyTurn(g.logger, g.m, g.players, g.econ)
	g.publishEconomy(reports)

	aliveCount, lastAlive := g.countAlive()

	g.bus.Publish(events.NewTurnEndedEvent(g.gameID, g.turn, len(outcomes), time.Since(start)))

	if aliveCount <= 1 {
		var winner core.PlayerID
		hasWinner := aliveCount == 1
		if hasWinner {
			winner = lastAlive.ID
		}
		return true, Result{Winner: winner, HasWinner: hasWinner, Reason: "domination", FinalTurn: g.turn}, nil
	}

	g.turn++
	if g.maxTurn > 0 && g.turn >= g.maxTurn {
		winner, hasWinner := g.territoryWinner()
		reason := "territory"
		if !hasWinner {
			reason = "draw"
		}
		return true, Result{Winner: winner, HasWinner: hasWinner, Reason: reason, FinalTurn: g.turn}, nil
	}

	return false, Result{}, nil
}

// resumePlayer projects p's visibility, writes the push buffer, and
// resumes p's sandbox for one turn. A guest trap only ends this player's
// turn (§4.9); it never marks the player dead and never aborts the loop.
func (g *GameLoop) resumePlayer(p *core.Player, master *command.Queue) {
	box := g.boxes[p.ID]
	if box == nil {
		return
	}

	buf := visibility.Project(g.m, p.ID)

	pushBuf := make([]byte, hostabi.PushBufferSize(g.m.W, g.m.H))
	hostabi.WritePushBuffer(pushBuf, g.m.W, g.m.H, g.turn, p.ID, buf)

	if err := box.PushBuffer(pushBuf, pushBufferBaseAddr); err != nil {
		g.logger.Warn().Uint8("player", uint8(p.ID)).Err(err).Msg("push buffer rejected, skipping turn")
		return
	}

	dispatcher := hostabi.NewDispatcher(g.turn, p, g.m, buf, master)
	box.SetHandler(dispatcher)

	if _, err := box.Resume(g.fuel); err != nil {
		g.logger.Warn().Uint8("player", uint8(p.ID)).Err(err).Msg("sandbox trapped")
	}
}

func (g *GameLoop) publishOutcomes(outcomes []resolver.Outcome) {
	for _, o := range outcomes {
		if o.Err != nil {
			g.bus.Publish(events.NewCommandRejectedEvent(g.gameID, o.Command.Player, o.Command.Kind.String(), o.Err.Error(), g.turn))
			continue
		}
		if o.EliminatedPlayer != core.NeutralOwner {
			g.bus.Publish(events.NewCapitalCapturedEvent(g.gameID, o.Command.Player, o.EliminatedPlayer, o.Command.To, g.turn))
			g.bus.Publish(events.NewPlayerEliminatedEvent(g.gameID, o.EliminatedPlayer, o.Command.Player, g.turn))
		}
	}
}

func (g *GameLoop) publishEconomy(reports []economy.Report) {
	growingPlayers, totalGrowth := 0, 0
	for _, r := range reports {
		if r.PopGrowth > 0 {
			growingPlayers++
			totalGrowth += int(r.PopGrowth)
		}
	}
	g.bus.Publish(events.NewEconomyAppliedEvent(g.gameID, growingPlayers, totalGrowth, g.turn))
}

func (g *GameLoop) countAlive() (int, *core.Player) {
	count := 0
	var last *core.Player
	for _, p := range g.players {
		if p.Alive {
			count++
			last = p
		}
	}
	return count, last
}

// territoryWinner picks the alive player with the most owned tiles,
// breaking ties by population and then by the lowest PlayerID (§4.10).
// PlayerIDs are always distinct, so this tiebreak always produces a
// winner; hasWinner is false only when there's no alive player at all.
func (g *GameLoop) territoryWinner() (core.PlayerID, bool) {
	var best *core.Player

	for _, p := range g.players {
		if !p.Alive {
			continue
		}
		switch {
		case best == nil:
			best = p
		case p.Stats.Territory > best.Stats.Territory:
			best = p
		case p.Stats.Territory == best.Stats.Territory:
			switch {
			case p.Stats.Population > best.Stats.Population:
				best = p
			case p.Stats.Population == best.Stats.Population:
				if p.ID < best.ID {
					best = p
				}
			}
		}
	}

	if best == nil {
		return core.NeutralOwner, false
	}
	return best.ID, true
}

// computeStats recomputes every alive player's Stats from a full scan of
// the map, grounded on the teacher's performFullStatsUpdate. Unlike the
// teacher, there is no incremental variant here: games are small enough
// (§1 size targets) that a full scan every turn is the simpler, still
// fast-enough choice, and §9 requires this computation be done exactly
// once per turn and shared across the whole pipeline, not recomputed
// per-syscall.
func (g *GameLoop) computeStats() {
	for _, p := range g.players {
		p.Stats = core.Stats{}
	}

	byID := make(map[core.PlayerID]*core.Player, len(g.players))
	for _, p := range g.players {
		byID[p.ID] = p
	}

	g.m.Enumerate(func(_ core.Coord, t *core.Tile) bool {
		p, ok := byID[t.Owner]
		if !ok {
			return true
		}
		p.Stats.Population += int64(t.Population)
		p.Stats.Army += int64(t.Army)
		p.Stats.Territory++
		return true
	})

	for _, p := range g.players {
		p.Stats.Food = p.Stats.Population - p.Stats.Army
	}
}
