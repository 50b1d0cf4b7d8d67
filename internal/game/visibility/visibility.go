// Package visibility projects a Map into the per-player packed tile
// buffer the host ABI pushes into sandbox memory each turn.
package visibility

import "github.com/ensiproject/ensi/internal/game/core"

// FogTileType and FogOwner are the wire sentinels for "not visible"
// (spec §4.4: type=255, owner=255, army=0). core.TileType's own values
// happen to already match the packed encoding (City=0, Desert=1,
// Mountain=2), so Pack needs no translation table for real tiles.
const (
	FogTileType uint32 = 255
	FogOwner    uint32 = 255

	// Fog is the full packed value of a fogged tile.
	Fog uint32 = FogTileType | FogOwner<<8
)

// Pack encodes a tile into the wire format: bits 0..7 type, bits 8..15
// owner, bits 16..31 army (little-endian bit fields within the u32).
func Pack(t *core.Tile) uint32 {
	return uint32(t.Type) | uint32(t.Owner)<<8 | uint32(t.Army)<<16
}

// Unpack reverses Pack, used by tests.
func Unpack(v uint32) (tileType uint8, owner uint8, army uint16) {
	return uint8(v), uint8(v >> 8), uint16(v >> 16)
}

// Buffer is one player's packed visibility snapshot, row-major, length
// W*H, matching the Map it was projected from.
type Buffer []uint32

// Project builds the packed buffer for player p: a tile is visible iff p
// owns it or it is 4-adjacent to a tile p owns (§4.4); everything else is
// Fog. There is no memory of prior turns; this recomputes from scratch
// every call.
//
// Implements the mandated two-pass push algorithm (§4.4 performance
// contract): pass 1 fills every slot with Fog without touching a
// coordinate; pass 2 walks the bare tile stream once, and only for a tile
// owned by p does it derive (x, y) from the linear index to find that
// tile's in-bounds neighbours. Unowned tiles never pay that div/mod.
// Grounded on internal/game/visibility_optimized.go's push-from-owned-
// tiles shape, generalized from a 32-player owner bitfield to the single
// packed uint32 spec §4.4 requires.
func Project(m *core.Map, p core.PlayerID) Buffer {
	w, h := m.W, m.H
	buf := make(Buffer, w*h)
	for i := range buf {
		buf[i] = Fog
	}

	tiles := m.Tiles()
	for i := range tiles {
		t := &tiles[i]
		if t.Owner != p {
			continue
		}

		buf[i] = Pack(t)

		x, y := i%w, i/w
		if y > 0 {
			writeNeighbor(buf, tiles, i-w)
		}
		if x+1 < w {
			writeNeighbor(buf, tiles, i+1)
		}
		if y+1 < h {
			writeNeighbor(buf, tiles, i+w)
		}
		if x > 0 {
			writeNeighbor(buf, tiles, i-1)
		}
	}

	return buf
}

func writeNeighbor(buf Buffer, tiles []core.Tile, idx int) {
	buf[idx] = Pack(&tiles[idx])
}

// At returns the packed value for coordinate c, or Fog if c is out of
// bounds for the buffer's map dimensions w, h.
func (b Buffer) At(c core.Coord, w, h int) uint32 {
	if !c.IsValid(w, h) {
		return Fog
	}
	return b[c.ToIndex(w)]
}
