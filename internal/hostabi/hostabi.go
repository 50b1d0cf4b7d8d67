// Package hostabi implements the syscall surface a guest sandbox calls
// into (§4.8): the packed return encodings, the push-buffer header/writer,
// and the Dispatcher that turns syscall numbers into CommandQueue writes
// or read-only state queries. Both sandbox dialects (RISC-V ecall,
// microvm host-import) call through the same numeric convention; the ABI
// note that they "differ in encoding, not semantics" is satisfied here by
// giving both a single Dispatcher to call into rather than duplicating
// query/validate logic per backend.
package hostabi

import (
	"encoding/binary"

	"github.com/ensiproject/ensi/internal/game/command"
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/visibility"
)

// Syscall numbers, canonical across both guest dialects (§6).
const (
	SyscallGetTurn        = 1
	SyscallGetPlayerID    = 2
	SyscallGetMyCapital   = 3
	SyscallGetTile        = 4
	SyscallGetMyFood      = 5
	SyscallGetMyPopulation = 6
	SyscallGetMyArmy      = 7
	SyscallGetMapSize     = 8
	SyscallMove           = 100
	SyscallConvert        = 101
	SyscallMoveCapital    = 102
	SyscallYield          = 103
	SyscallAbandon        = 104
)

// noCapital is the all-ones sentinel packed capital value.
const noCapital uint32 = 0xFFFFFFFF

// PackCapital packs a capital coordinate, or the all-ones sentinel if the
// player currently has none (§4.8).
func PackCapital(c core.Coord, has bool) uint32 {
	if !has {
		return noCapital
	}
	return uint32(c.X)<<16 | uint32(c.Y)
}

// PackMapSize packs map dimensions into one 32-bit value (§4.8).
func PackMapSize(w, h int) uint32 {
	return uint32(uint16(w))<<16 | uint32(uint16(h))
}

// Dispatcher answers one player's syscalls for one turn. It holds no
// state beyond what that single turn needs; the engine constructs a fresh
// one per player per turn.
type Dispatcher struct {
	turn      uint32
	player    *core.Player
	m         *core.Map
	buf       visibility.Buffer
	queue     *command.Queue
	yielded   bool
	rejects   uint32
}

// NewDispatcher builds a Dispatcher scoped to one player's turn. buf must
// already be player p's Project()-ed visibility (§4.4); the Dispatcher
// never recomputes it.
func NewDispatcher(turn int, p *core.Player, m *core.Map, buf visibility.Buffer, queue *command.Queue) *Dispatcher {
	return &Dispatcher{turn: uint32(turn), player: p, m: m, buf: buf, queue: queue}
}

// Yielded reports whether the guest called yield this turn.
func (d *Dispatcher) Yielded() bool { return d.yielded }

// Syscall dispatches one host call by number, mirroring the RISC-V ecall
// convention (§6): up to 5 arguments in, one return value out. Unknown
// syscall numbers are a guest ABI violation, not a rejected command; the
// caller (a sandbox backend) turns that into a core.GuestTrap.
func (d *Dispatcher) Syscall(num uint32, args [5]uint32) (uint32, error) {
	switch num {
	case SyscallGetTurn:
		return d.turn, nil
	case SyscallGetPlayerID:
		return uint32(d.player.ID), nil
	case SyscallGetMyCapital:
		return PackCapital(d.player.Capital, d.player.HasCapital), nil
	case SyscallGetTile:
		c := core.NewCoord(int(args[0]), int(args[1]))
		return d.buf.At(c, d.m.W, d.m.H), nil
	case SyscallGetMyFood:
		return uint32(int32(d.player.Stats.Food)), nil
	case SyscallGetMyPopulation:
		return uint32(d.player.Stats.Population), nil
	case SyscallGetMyArmy:
		return uint32(d.player.Stats.Army), nil
	case SyscallGetMapSize:
		return PackMapSize(d.m.W, d.m.H), nil
	case SyscallMove:
		return d.move(args), nil
	case SyscallConvert:
		return d.convert(args), nil
	case SyscallMoveCapital:
		return d.moveCapital(args), nil
	case SyscallAbandon:
		return d.abandon(args), nil
	case SyscallYield:
		d.yielded = true
		return 0, nil
	default:
		return 0, &core.GuestTrap{Kind: core.TrapBadSyscall, Detail: "unknown syscall number"}
	}
}

// reject records a malformed-at-the-syscall-boundary command (out-of-range
// coordinates the sandbox couldn't have produced from a valid map). Deeper
// game-rule validation (ownership, adjacency, army counts) is the
// Resolver's job (§4.7); accepting here only means "well-formed enough to
// enqueue".
func (d *Dispatcher) reject() uint32 {
	d.rejects++
	return 1
}

func (d *Dispatcher) move(args [5]uint32) uint32 {
	from := core.NewCoord(int(args[0]), int(args[1]))
	to := core.NewCoord(int(args[2]), int(args[3]))
	count := args[4]
	if !d.m.InBounds(from) || !d.m.InBounds(to) || count == 0 {
		return d.reject()
	}
	d.queue.Enqueue(command.NewMove(d.player.ID, from, to, count))
	return 0
}

func (d *Dispatcher) convert(args [5]uint32) uint32 {
	city := core.NewCoord(int(args[0]), int(args[1]))
	count := args[2]
	if !d.m.InBounds(city) || count == 0 {
		return d.reject()
	}
	d.queue.Enqueue(command.NewConvert(d.player.ID, city, count))
	return 0
}

func (d *Dispatcher) moveCapital(args [5]uint32) uint32 {
	to := core.NewCoord(int(args[0]), int(args[1]))
	if !d.m.InBounds(to) {
		return d.reject()
	}
	d.queue.Enqueue(command.NewMoveCapital(d.player.ID, to))
	return 0
}

func (d *Dispatcher) abandon(args [5]uint32) uint32 {
	tile := core.NewCoord(int(args[0]), int(args[1]))
	if !d.m.InBounds(tile) {
		return d.reject()
	}
	d.queue.Enqueue(command.NewAbandon(d.player.ID, tile))
	return 0
}

// pushBufferMagic is the 4-byte header tag from §4.8.
var pushBufferMagic = [4]byte{'E', 'N', 'S', 'I'}

// PushBufferSize returns the exact byte length of the header+tiles region
// for a w x h map, so callers can size the sandbox memory region once.
func PushBufferSize(w, h int) int {
	return 16 + 4*w*h
}

// WritePushBuffer encodes the header and packed-tile buffer (§4.8) into
// dst, little-endian. dst must be at least PushBufferSize(w, h) bytes.
func WritePushBuffer(dst []byte, w, h, turn int, playerID core.PlayerID, buf visibility.Buffer) {
	copy(dst[0:4], pushBufferMagic[:])
	binary.LittleEndian.PutUint16(dst[4:6], uint16(w))
	binary.LittleEndian.PutUint16(dst[6:8], uint16(h))
	binary.LittleEndian.PutUint32(dst[8:12], uint32(turn))
	binary.LittleEndian.PutUint16(dst[12:14], uint16(playerID))
	binary.LittleEndian.PutUint16(dst[14:16], 0)

	for i, tile := range buf {
		binary.LittleEndian.PutUint32(dst[16+4*i:20+4*i], tile)
	}
}
