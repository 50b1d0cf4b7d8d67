// Package mapgen builds a deterministic, connectivity-guaranteed starting
// Map from (width, height, player count, seed).
package mapgen

import (
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/ensiproject/ensi/internal/game/rng"
)

// Config holds every tunable of map generation. Every rate lives here as a
// field rather than a constant, mirroring the teacher's MapConfig.
type Config struct {
	Width, Height int
	NumPlayers    int

	CityRatio        int // 1 city per N tiles, approx
	CityStartPop     uint32
	CapitalStartArmy uint16
	CapitalStartPop  uint32

	MinCapitalSpacing int

	NumMountainVeins int
	MinVeinLength    int
	MaxVeinLength    int

	MaxRegenerateAttempts int
}

// DefaultConfig returns the canonical configuration. About 1 tile in 14
// (~7%) becomes a city. Mountains come from (w*h)/40 random-walk veins of
// 3 to max(w/4, 3) steps; since a walk can revisit a tile, they cover on
// average at most (3+max(w/4, 3))/80 of the map: under 14% up to width
// 35, about 24% at width 64.
func DefaultConfig(w, h, players int) Config {
	return Config{
		Width:                 w,
		Height:                h,
		NumPlayers:            players,
		CityRatio:             14, // ~7% of tiles become cities
		CityStartPop:          10,
		CapitalStartArmy:      1,
		CapitalStartPop:       10,
		MinCapitalSpacing:     5,
		NumMountainVeins:      (w * h) / 40,
		MinVeinLength:         3,
		MaxVeinLength:         maxInt(w/4, 3),
		MaxRegenerateAttempts: 64,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// Result is what Generate hands back: the map plus one capital Coord per
// player, indexed by player order (player 1 is Result.Capitals[0], etc).
type Result struct {
	Map      *core.Map
	Capitals []core.Coord
}

// Generate is a pure function of (config, seed): it produces a connected
// map, retrying with seed+1, seed+2, ... up to MaxRegenerateAttempts times
// if the capitals aren't mutually reachable (§4.3 "If not, regenerate").
func Generate(cfg Config, seed uint64) (*Result, error) {
	var lastErr error
	for attempt := 0; attempt < cfg.MaxRegenerateAttempts; attempt++ {
		trySeed := seed + uint64(attempt)
		result, err := generateOnce(cfg, trySeed)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func generateOnce(cfg Config, seed uint64) (*Result, error) {
	g := rng.New(seed)
	m := core.NewMap(cfg.Width, cfg.Height)

	placeMountains(g, m, cfg)
	placeCities(g, m, cfg)

	capitals, err := placeCapitals(g, m, cfg)
	if err != nil {
		return nil, &core.MapGenFailure{Seed: seed, Reason: err.Error()}
	}

	if !capitalsConnected(m, capitals) {
		return nil, &core.MapGenFailure{Seed: seed, Reason: "capitals not mutually reachable"}
	}

	return &Result{Map: m, Capitals: capitals}, nil
}

// placeMountains lays down NumMountainVeins random walks that turn the
// Desert tiles they cross into Mountain, each of random length in [MinVeinLength, MaxVeinLength]. Grounded on the
// teacher's scatter-and-place style in placeCities, generalized into a
// vein walk since a single scatter pass under-clusters mountains relative
// to the ~20-30% spec ratio.
func placeMountains(g *rng.RNG, m *core.Map, cfg Config) {
	if cfg.NumMountainVeins <= 0 {
		return
	}
	for i := 0; i < cfg.NumMountainVeins; i++ {
		length := cfg.MinVeinLength
		if cfg.MaxVeinLength > cfg.MinVeinLength {
			length += g.Intn(cfg.MaxVeinLength - cfg.MinVeinLength + 1)
		}
		cur := core.NewCoord(g.Intn(cfg.Width), g.Intn(cfg.Height))
		for step := 0; step < length; step++ {
			tile := m.Get(cur)
			if tile != nil && tile.IsDesert() {
				tile.Type = core.TileMountain
			}
			neighbors := m.Neighbors(cur)
			if len(neighbors) == 0 {
				break
			}
			cur = neighbors[g.Intn(len(neighbors))]
		}
	}
}

// placeCities scatters cities onto remaining Desert tiles, grounded on the
// teacher's placeCities retry-with-attempt-cap loop.
func placeCities(g *rng.RNG, m *core.Map, cfg Config) {
	if cfg.CityRatio <= 0 {
		return
	}
	want := (cfg.Width * cfg.Height) / cfg.CityRatio
	placed := 0
	maxAttempts := want * 10
	for attempts := 0; placed < want && attempts < maxAttempts; attempts++ {
		c := core.NewCoord(g.Intn(cfg.Width), g.Intn(cfg.Height))
		tile := m.Get(c)
		if tile != nil && tile.IsDesert() {
			tile.Type = core.TileCity
			tile.Population = cfg.CityStartPop
			placed++
		}
	}
}

// placeCapitals finds one City-worthy tile per player, pairwise at least
// MinCapitalSpacing apart, and converts it into that player's starting
// capital. Grounded on the teacher's placeGenerals (random-attempt then
// exhaustive-scan fallback), generalized to make every capital a City
// rather than a distinct General tile type.
func placeCapitals(g *rng.RNG, m *core.Map, cfg Config) ([]core.Coord, error) {
	capitals := make([]core.Coord, 0, cfg.NumPlayers)

	for p := 1; p <= cfg.NumPlayers; p++ {
		c, ok := findCapitalSpot(g, m, cfg, capitals)
		if !ok {
			return nil, errNoCapitalSpot
		}
		tile := m.Get(c)
		tile.Type = core.TileCity
		tile.Owner = core.PlayerID(p)
		tile.Army = cfg.CapitalStartArmy
		tile.Population = cfg.CapitalStartPop
		capitals = append(capitals, c)
	}

	return capitals, nil
}

func findCapitalSpot(g *rng.RNG, m *core.Map, cfg Config, existing []core.Coord) (core.Coord, bool) {
	maxAttempts := cfg.Width * cfg.Height
	for attempt := 0; attempt < maxAttempts; attempt++ {
		c := core.NewCoord(g.Intn(cfg.Width), g.Intn(cfg.Height))
		if isValidCapitalSpot(m, cfg, c, existing) {
			return c, true
		}
	}
	// Fallback: exhaustive scan, mirroring the teacher's fallback loop.
	var found core.Coord
	ok := false
	m.Enumerate(func(c core.Coord, tile *core.Tile) bool {
		if isValidCapitalSpot(m, cfg, c, existing) {
			found, ok = c, true
			return false
		}
		return true
	})
	return found, ok
}

func isValidCapitalSpot(m *core.Map, cfg Config, c core.Coord, existing []core.Coord) bool {
	tile := m.Get(c)
	if tile == nil || tile.IsMountain() || !tile.IsNeutral() {
		return false
	}
	for _, other := range existing {
		if m.Distance(c, other) < cfg.MinCapitalSpacing {
			return false
		}
	}
	return true
}

// capitalsConnected runs one BFS from the first capital over passable
// (non-Mountain) tiles and checks every other capital was reached,
// implementing spec §4.3's connectivity requirement. Absent from the
// teacher (it has no connectivity guarantee); grounded on the generic
// BFS-over-a-grid idiom, the only form a connectivity check over a Map can
// idiomatically take in Go.
func capitalsConnected(m *core.Map, capitals []core.Coord) bool {
	if len(capitals) <= 1 {
		return true
	}

	visited := make(map[core.Coord]bool, m.W*m.H)
	queue := []core.Coord{capitals[0]}
	visited[capitals[0]] = true

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range m.Neighbors(cur) {
			if visited[next] {
				continue
			}
			tile := m.Get(next)
			if tile == nil || tile.IsMountain() {
				continue
			}
			visited[next] = true
			queue = append(queue, next)
		}
	}

	for _, c := range capitals {
		if !visited[c] {
			return false
		}
	}
	return true
}

type capitalSpotError struct{}

func (capitalSpotError) Error() string { return "no valid capital location found" }

var errNoCapitalSpot = capitalSpotError{}
