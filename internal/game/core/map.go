package core

// Map is the row-major tile grid. It is created once by mapgen and never
// structurally mutated afterward; only per-tile Owner/Army/Population
// change, and only from the Resolver and Economy phases.
type Map struct {
	W, H int
	tiles []Tile // length W*H, row-major
}

// NewMap allocates a w x h map with every tile defaulting to neutral
// Desert, mirroring the teacher's NewBoard all-neutral-normal default.
func NewMap(w, h int) *Map {
	m := &Map{W: w, H: h, tiles: make([]Tile, w*h)}
	for i := range m.tiles {
		m.tiles[i].Owner = NeutralOwner
		m.tiles[i].Type = TileDesert
	}
	return m
}

// Idx converts a coordinate to its row-major linear index.
func (m *Map) Idx(c Coord) int { return int(c.Y)*m.W + int(c.X) }

// InBounds reports whether c lies on the map.
func (m *Map) InBounds(c Coord) bool { return c.IsValid(m.W, m.H) }

// Get returns a pointer to the tile at c, or nil if c is out of bounds.
// The pointer aliases map storage; callers in Resolver/Economy mutate it
// directly rather than copying and writing back.
func (m *Map) Get(c Coord) *Tile {
	if !m.InBounds(c) {
		return nil
	}
	return &m.tiles[m.Idx(c)]
}

// Tiles returns the bare tile stream: no coordinate is computed for any
// element (§4.1 performance contract). Callers that need (x, y) alongside
// the tile should use Enumerate instead.
func (m *Map) Tiles() []Tile { return m.tiles }

// TileAt is the same bare-stream access as Tiles but by index, for callers
// that already hold a linear index from a prior pass.
func (m *Map) TileAt(idx int) *Tile { return &m.tiles[idx] }

// Enumerate walks the tile slice once, deriving (x, y) from the linear
// index on demand (x = i mod W, y = i div W) rather than maintaining a
// separate coordinate counter. fn returning false stops iteration early.
func (m *Map) Enumerate(fn func(c Coord, t *Tile) bool) {
	for i := range m.tiles {
		c := Coord{X: uint16(i % m.W), Y: uint16(i / m.W)}
		if !fn(c, &m.tiles[i]) {
			return
		}
	}
}

// Distance is the Manhattan distance between two coordinates.
func (m *Map) Distance(a, b Coord) int { return a.ManhattanDistance(b) }

// Adjacent reports 4-neighbour adjacency; no diagonals (§4.1).
func (m *Map) Adjacent(a, b Coord) bool { return a.IsAdjacent(b) }

// Neighbors returns the in-bounds 4-neighbours of c.
func (m *Map) Neighbors(c Coord) []Coord { return c.Neighbors(m.W, m.H) }

// TransferOwnership reassigns every tile owned by `from` to `to`, preserving
// army and population, used by the Resolver's capital-capture cascade
// (§4.7 "every tile owned by q is transferred to the attacker").
func (m *Map) TransferOwnership(from, to PlayerID) {
	for i := range m.tiles {
		if m.tiles[i].Owner == from {
			m.tiles[i].Owner = to
		}
	}
}
