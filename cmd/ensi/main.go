package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ensiproject/ensi/internal/config"
	"github.com/ensiproject/ensi/internal/engine"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/events"
	"github.com/ensiproject/ensi/internal/game/mapgen"
	"github.com/ensiproject/ensi/internal/replay"
	"github.com/ensiproject/ensi/internal/sandbox"
	"github.com/ensiproject/ensi/internal/tournament"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	logLevel := flag.String("log-level", "", "log level, overrides config (debug, info, warn, error)")
	players := flag.Int("players", 2, "number of players per game")
	games := flag.Int("games", -1, "number of games in the batch (-1 to use config default)")
	baseSeed := flag.Uint64("seed", 1, "seed for the first game; each subsequent game in the batch increments it")
	botImage := flag.String("bot-image", "", "path to a guest image loaded into every seat (empty loads a one-byte placeholder image)")
	replayOut := flag.String("replay-out", "", "if set, record the first game in the batch and write it here as a gob replay")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize config")
	}
	cfg := config.Get()

	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	logger := setupLogging(*logLevel, cfg.Logging.Format == "json")

	if *games == -1 {
		*games = cfg.Tournament.GamesPerMatch
	}
	if *games <= 0 {
		*games = 1
	}

	image, err := loadBotImage(*botImage)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *botImage).Msg("failed to load bot image")
	}

	bots := make([]tournament.BotSpec, *players)
	for i := range bots {
		bots[i] = tournament.BotSpec{Image: image, Backend: cfg.Sandbox.Backend}
	}

	specs := make([]tournament.GameSpec, *games)
	for i := range specs {
		specs[i] = tournament.GameSpec{
			GameID:   gameID(),
			Seed:     *baseSeed + uint64(i),
			MapGen:   cfg.ToMapGenConfig(*players),
			Economy:  cfg.ToEconomyRules(),
			MaxTurns: cfg.Game.MaxTurns,
			Fuel:     cfg.Sandbox.FuelPerTurn,
			Bots:     bots,
		}
	}

	if *replayOut != "" {
		runRecordedGame(specs[0], logger, *replayOut)
		specs = specs[1:]
	}

	pool := tournament.NewPool(cfg.Tournament.Workers, logger)
	outcomes := pool.RunAll(context.Background(), specs)

	for _, o := range outcomes {
		if o.Err != nil {
			logger.Error().Str("game_id", o.GameID).Err(o.Err).Msg("game failed")
			continue
		}
		logger.Info().Str("game_id", o.GameID).
			Bool("has_winner", o.Result.HasWinner).
			Uint8("winner", uint8(o.Result.Winner)).
			Str("reason", o.Result.Reason).
			Int("final_turn", o.Result.FinalTurn).
			Msg("game finished")
	}
}

func gameID() string {
	return uuid.NewString()
}

func loadBotImage(path string) ([]byte, error) {
	if path == "" {
		return []byte{0}, nil
	}
	return os.ReadFile(path)
}

// runRecordedGame runs one game outside the pool so its command stream can
// be recorded, then writes the record to out as a gob-encoded replay.
func runRecordedGame(spec tournament.GameSpec, logger zerolog.Logger, out string) {
	genResult, err := mapgen.Generate(spec.MapGen, spec.Seed)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to generate map for recorded game")
	}

	rec := replay.NewRecorder(spec.GameID, spec.Seed, spec.MapGen, spec.Economy, spec.MaxTurns)

	players := make([]*core.Player, 0, len(genResult.Capitals))
	boxes := make(map[core.PlayerID]sandbox.Sandbox, len(genResult.Capitals))
	for _, capital := range genResult.Capitals {
		id := core.PlayerID(len(players) + 1)
		p := core.NewPlayer(id)
		p.Capital, p.HasCapital = capital, true
		players = append(players, p)
		// A recorded demo game runs against idle sandboxes; the point of
		// -replay-out is to exercise the record/rerun path, not to score
		// real bots.
		boxes[id] = &idleSandbox{}
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
		Recorder:     rec,
		Bus:          events.NewEventBus(),
		Logger:       logger,
	})

	result, err := loop.Run(context.Background())
	if err != nil {
		logger.Fatal().Err(err).Msg("recorded game failed")
	}
	logger.Info().Str("game_id", spec.GameID).Str("reason", result.Reason).Msg("recorded game finished")

	f, err := os.Create(out)
	if err != nil {
		logger.Fatal().Err(err).Str("path", out).Msg("failed to create replay file")
	}
	defer f.Close()

	record := rec.Record()
	if err := record.WriteTo(f); err != nil {
		logger.Fatal().Err(err).Str("path", out).Msg("failed to write replay")
	}
}

type idleSandbox struct {
	handler sandbox.Handler
}

func (s *idleSandbox) Load([]byte) error              { return nil }
func (s *idleSandbox) PushBuffer([]byte, uint32) error { return nil }
func (s *idleSandbox) SetHandler(h sandbox.Handler)    { s.handler = h }
func (s *idleSandbox) Resume(fuel uint64) (sandbox.Result, error) {
	return sandbox.Result{Yielded: true}, nil
}

// setupLogging mirrors the teacher's cmd/grpc_server/main.go: JSON output
// when explicitly requested, pretty console output otherwise.
func setupLogging(level string, jsonOutput bool) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)

	if jsonOutput {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		log.Logger = logger
		return logger
	}

	logger := log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	log.Logger = logger
	return logger
}
