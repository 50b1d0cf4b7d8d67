// Package economy applies the food-balance-driven population growth and
// army attrition rules once per turn, after action resolution.
package economy

import (
	"github.com/ensiproject/ensi/internal/game/core"
	"github.com/rs/zerolog"
)

// Rules holds the one implementation-chosen variant spec §4.5/§9 requires
// callers to pin explicitly rather than leave as a silent default.
type Rules struct {
	// CityAdjacencyBonus grants a City an extra +1 population per turn
	// when it is 4-adjacent to another City owned by the same player.
	// Disabled by default; see DESIGN.md Open Question 2.
	CityAdjacencyBonus bool
}

// Report summarizes what ApplyTurn did to one player, for logging and for
// the engine, which publishes each one on its event bus.
type Report struct {
	Player        core.PlayerID
	Food          int64
	PopGrowth     uint32
	ArmyAttrition uint16
}

type totals struct {
	population int64
	army       int64
}

// ApplyTurn runs growth/attrition for every alive player and returns one
// Report per player touched. Grounded on
// internal/game/production_manager.go's per-tile-type production loop and
// its ProcessTurnProduction/processTileProduction split, generalized from
// a fixed per-tile-type increment to the food-balance-driven variant spec
// §4.5 specifies, and rewritten as a pure function over (Map, players)
// rather than a struct method holding an event bus, so callers that don't
// need events (tests, replay) don't have to construct one.
func ApplyTurn(logger zerolog.Logger, m *core.Map, players []*core.Player, rules Rules) []Report {
	logger = logger.With().Str("component", "economy").Logger()

	sums := computeTotals(m, players)
	reports := make([]Report, 0, len(players))

	for _, p := range players {
		if !p.Alive {
			continue
		}
		t := sums[p.ID]
		food := t.population - t.army

		report := Report{Player: p.ID, Food: food}
		switch {
		case food > 0:
			report.PopGrowth = growCities(m, p.ID, rules)
		case food < 0:
			report.ArmyAttrition = applyAttrition(m, p.ID, uint32(-food))
		}
		reports = append(reports, report)

		logger.Debug().
			Uint8("player", uint8(p.ID)).
			Int64("food", food).
			Uint32("pop_growth", report.PopGrowth).
			Uint16("army_attrition", report.ArmyAttrition).
			Msg("applied economy phase")
	}

	return reports
}

func computeTotals(m *core.Map, players []*core.Player) map[core.PlayerID]totals {
	sums := make(map[core.PlayerID]totals, len(players))
	m.Enumerate(func(_ core.Coord, t *core.Tile) bool {
		if t.Owner == core.NeutralOwner {
			return true
		}
		s := sums[t.Owner]
		s.population += int64(t.Population)
		s.army += int64(t.Army)
		sums[t.Owner] = s
		return true
	})
	return sums
}

// growCities adds +1 population to each City p owns, plus another +1 if
// CityAdjacencyBonus is enabled and the city is 4-adjacent to another City
// p owns (§4.5).
func growCities(m *core.Map, p core.PlayerID, rules Rules) uint32 {
	var grown uint32
	m.Enumerate(func(c core.Coord, t *core.Tile) bool {
		if t.Owner != p || !t.IsCity() {
			return true
		}
		t.AddPopulation(1)
		grown++

		if rules.CityAdjacencyBonus {
			for _, n := range m.Neighbors(c) {
				nt := m.Get(n)
				if nt != nil && nt.Owner == p && nt.IsCity() {
					t.AddPopulation(1)
					grown++
					break
				}
			}
		}
		return true
	})
	return grown
}

// applyAttrition decrements army by 1 on p's owned tiles in index order,
// one unit per unit of deficit, looping passes if the deficit exceeds the
// number of owned tiles with remaining army (§4.5 "1 per unit of
// deficit").
func applyAttrition(m *core.Map, p core.PlayerID, deficit uint32) uint16 {
	var applied uint16
	for deficit > 0 {
		progressed := false
		m.Enumerate(func(_ core.Coord, t *core.Tile) bool {
			if deficit == 0 {
				return false
			}
			if t.Owner == p && t.Army > 0 {
				t.Army--
				deficit--
				applied++
				progressed = true
			}
			return true
		})
		if !progressed {
			break
		}
	}
	return applied
}
