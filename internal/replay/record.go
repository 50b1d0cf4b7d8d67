// Package replay records a game's seed, map parameters and per-turn
// command stream so it can be reconstructed later, and reruns a recorded
// game through a fresh engine.GameLoop to check it reaches the same end
// state. Grounded on hellsoul86-voxelcraft.ai's internal/persistence/snapshot
// package: gob over a plain io.Writer/io.Reader, no bespoke framing. The
// byte layout is deliberately left to encoding/gob rather than a
// hand-rolled wire format or a versioned envelope; only the in-memory
// record/rerun operation is this package's concern, not a file format.
package replay

import (
	"encoding/gob"
	"io"

	"github.com/ensiproject/ensi/internal/game/command"
	"github.com/ensiproject/ensi/internal/game/economy"
	"github.com/ensiproject/ensi/internal/game/mapgen"
)

// TurnRecord is the exact, resolver-ordered command list for one turn,
// including commands the Resolver went on to reject.
type TurnRecord struct {
	Turn     int
	Commands []command.Command
}

// Record is everything needed to reconstruct a finished game: the seed
// and generation parameters that produce its starting map and players,
// the economy variant it ran under, and the ordered command stream every
// turn actually saw.
type Record struct {
	GameID   string
	Seed     uint64
	MapGen   mapgen.Config
	Economy  economy.Rules
	MaxTurns int
	Turns    []TurnRecord
}

// WriteTo gob-encodes r to w.
func (r *Record) WriteTo(w io.Writer) error {
	return gob.NewEncoder(w).Encode(r)
}

// ReadRecord decodes a Record previously written by Record.WriteTo.
func ReadRecord(r io.Reader) (Record, error) {
	var rec Record
	err := gob.NewDecoder(r).Decode(&rec)
	return rec, err
}

// Recorder accumulates TurnRecords as a game runs and satisfies
// engine.CommandRecorder without internal/engine needing to import this
// package.
type Recorder struct {
	rec Record
}

// NewRecorder starts a recording for a game about to run with the given
// seed, map generation config, economy rules and turn cap.
func NewRecorder(gameID string, seed uint64, mg mapgen.Config, econ economy.Rules, maxTurns int) *Recorder {
	return &Recorder{rec: Record{
		GameID:   gameID,
		Seed:     seed,
		MapGen:   mg,
		Economy:  econ,
		MaxTurns: maxTurns,
	}}
}

// RecordTurn appends turn's command list. Called once per turn by
// engine.GameLoop, in resolver order, even for turns where nobody
// submitted a command.
func (r *Recorder) RecordTurn(turn int, cmds []command.Command) {
	stored := append([]command.Command(nil), cmds...)
	r.rec.Turns = append(r.rec.Turns, TurnRecord{Turn: turn, Commands: stored})
}

// Record returns the accumulated recording. Safe to call once the game
// has finished; the Recorder is not safe for concurrent use while a game
// is still running.
func (r *Recorder) Record() Record {
	return r.rec
}
