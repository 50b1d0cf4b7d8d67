package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/ensiproject/ensi/internal/game/events"
)

// LoggerSubscriber logs events to structured logs.
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // non-nil: only log these event types
	devMode         bool
}

func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

func (ls *LoggerSubscriber) ID() string { return ls.id }

// SetEventFilter sets which event types to log. Nil means log all.
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	eventLogger := ls.logger.With().
		Str("event_type", event.Type()).
		Str("game_id", event.GameID()).
		Time("timestamp", event.Timestamp()).
		Logger()

	var logEvent *zerolog.Event
	switch ls.logLevel {
	case zerolog.DebugLevel:
		logEvent = eventLogger.Debug()
	case zerolog.InfoLevel:
		logEvent = eventLogger.Info()
	case zerolog.WarnLevel:
		logEvent = eventLogger.Warn()
	case zerolog.ErrorLevel:
		logEvent = eventLogger.Error()
	default:
		logEvent = eventLogger.Info()
	}

	switch e := event.(type) {
	case *events.GameStartedEvent:
		logEvent.
			Int("num_players", e.NumPlayers).
			Int("map_width", e.MapWidth).
			Int("map_height", e.MapHeight).
			Int64("seed", e.Seed)

	case *events.GameEndedEvent:
		logEvent.
			Uint8("winner", uint8(e.Winner)).
			Bool("has_winner", e.HasWinner).
			Str("reason", e.Reason).
			Dur("duration", e.Duration).
			Int("final_turn", e.FinalTurn)

	case *events.TurnStartedEvent:
		logEvent.Int("turn", e.TurnNumber)

	case *events.TurnEndedEvent:
		logEvent.
			Int("turn", e.TurnNumber).
			Int("command_count", e.CommandCount).
			Dur("process_time", e.ProcessedTime)

	case *events.CommandRejectedEvent:
		logEvent.
			Uint8("player_id", uint8(e.PlayerID)).
			Str("kind", e.Kind).
			Str("reason", e.Reason)

	case *events.CombatResolvedEvent:
		logEvent.
			Uint8("attacker_id", uint8(e.AttackerID)).
			Uint8("defender_id", uint8(e.DefenderID)).
			Uint16("at_x", e.At.X).
			Uint16("at_y", e.At.Y).
			Uint32("attacker_army", e.AttackerArmy).
			Uint32("defender_army", e.DefenderArmy).
			Uint32("resulting_army", e.ResultingArmy).
			Bool("attacker_won", e.AttackerWon).
			Bool("neutralized", e.Neutralized)

	case *events.CapitalCapturedEvent:
		logEvent.
			Uint8("attacker_id", uint8(e.AttackerID)).
			Uint8("defender_id", uint8(e.DefenderID)).
			Uint16("at_x", e.At.X).
			Uint16("at_y", e.At.Y)

	case *events.PlayerEliminatedEvent:
		logEvent.
			Uint8("player_id", uint8(e.PlayerID)).
			Uint8("eliminated_by", uint8(e.EliminatedBy))

	case *events.EconomyAppliedEvent:
		logEvent.
			Int("cities_grown", e.CitiesGrown).
			Int("tiles_grown", e.TilesGrown)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Game event")
}
