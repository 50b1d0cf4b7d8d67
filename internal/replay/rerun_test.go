package replay

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ensiproject/ensi/internal/engine"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/economy"
	"github.com/ensiproject/ensi/internal/game/events"
	"github.com/ensiproject/ensi/internal/game/mapgen"
	"github.com/ensiproject/ensi/internal/sandbox"
)

// yieldingSandbox never issues a command; every Resume immediately yields.
type yieldingSandbox struct {
	handler sandbox.Handler
}

func (s *yieldingSandbox) Load([]byte) error              { return nil }
func (s *yieldingSandbox) PushBuffer([]byte, uint32) error { return nil }
func (s *yieldingSandbox) SetHandler(h sandbox.Handler)    { s.handler = h }
func (s *yieldingSandbox) Resume(fuel uint64) (sandbox.Result, error) {
	return sandbox.Result{Yielded: true}, nil
}

func buildGame(t *testing.T, seed uint64, mg mapgen.Config, econ economy.Rules, maxTurns int, rec *Recorder) (*engine.GameLoop, *mapgen.Result) {
	t.Helper()

	genResult, err := mapgen.Generate(mg, seed)
	require.NoError(t, err)

	players := make([]*core.Player, 0, len(genResult.Capitals))
	boxes := make(map[core.PlayerID]sandbox.Sandbox, len(genResult.Capitals))
	for i, capital := range genResult.Capitals {
		id := core.PlayerID(i + 1)
		p := core.NewPlayer(id)
		p.Capital = capital
		p.HasCapital = true
		players = append(players, p)
		boxes[id] = &yieldingSandbox{}
	}

	loop := engine.New(engine.Config{
		GameID:       "rerun-test",
		Seed:         int64(seed),
		Map:          genResult.Map,
		Players:      players,
		Sandboxes:    boxes,
		Fuel:         1000,
		EconomyRules: econ,
		MaxTurns:     maxTurns,
		Recorder:     rec,
		Bus:          events.NewEventBus(),
		Logger:       zerolog.Nop(),
	})
	return loop, genResult
}

func TestRerun_MatchesOriginalRun_NoCommands(t *testing.T) {
	seed := uint64(1234)
	mg := sampleMapGenConfig()
	econ := economy.Rules{}

	rec := NewRecorder("rerun-test", seed, mg, econ, 3)
	loop, _ := buildGame(t, seed, mg, econ, 3, rec)

	original, err := loop.Run(context.Background())
	require.NoError(t, err)

	replayed, err := Rerun(context.Background(), rec.Record(), zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, original, replayed)
}

func TestRerun_DeterministicAcrossRepeatedCalls(t *testing.T) {
	seed := uint64(99)
	mg := sampleMapGenConfig()
	econ := economy.Rules{}

	rec := NewRecorder("rerun-test-2", seed, mg, econ, 4)
	loop, _ := buildGame(t, seed, mg, econ, 4, rec)

	_, err := loop.Run(context.Background())
	require.NoError(t, err)

	record := rec.Record()

	first, err := Rerun(context.Background(), record, zerolog.Nop())
	require.NoError(t, err)
	second, err := Rerun(context.Background(), record, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
