package core

import "fmt"

// Sanity bounds beyond which a value could only be reached by an engine
// bug, not by legal play. Checked in addition to the §3 structural
// invariants.
const (
	SanityMaxArmyPerTile = 0xFFFF // army already saturates here, so Check has no army bound to test
	SanityMaxPopPerCity  = 1_000_000
	SanityMaxTotalPop    = 100_000_000
)

// Violation describes one broken invariant, with enough context to log and
// to fail a test assertion on.
type Violation struct {
	Coord   Coord
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Coord, v.Message)
}

// Players is the minimal view Check needs of the player set: enough to
// check invariant 4 (each alive player has exactly one capital tile) and
// invariant 7 (cached stats match recomputation) without core depending on
// a concrete roster type.
type Players []*Player

// Check walks the map once and returns every invariant violation found.
// It never mutates state and never panics; callers that want the fatal
// behaviour §7 assigns to InternalInvariantViolation call Assert instead.
func Check(m *Map, players Players) []Violation {
	var violations []Violation

	capitalOwner := make(map[Coord]PlayerID)
	totalPop := make(map[PlayerID]int64)
	totalArmy := make(map[PlayerID]int64)

	m.Enumerate(func(c Coord, t *Tile) bool {
		switch {
		case t.IsMountain():
			// invariant 1: mountains are never owned and carry nothing
			if t.Owner != NeutralOwner || t.Army != 0 || t.Population != 0 {
				violations = append(violations, Violation{c, "mountain tile has owner, army, or population"})
			}
		case !t.IsCity():
			// invariant 2: non-city tiles never carry population
			if t.Population != 0 {
				violations = append(violations, Violation{c, "non-city tile has nonzero population"})
			}
			// invariant 3: unowned non-city tiles never carry army
			if t.Owner == NeutralOwner && t.Army != 0 {
				violations = append(violations, Violation{c, "neutral non-city tile has nonzero army"})
			}
		}

		if t.IsCity() && t.Population > SanityMaxPopPerCity {
			violations = append(violations, Violation{c, fmt.Sprintf("city population %d exceeds sanity max %d", t.Population, SanityMaxPopPerCity)})
		}

		// invariant 5: a city with population must be owned
		if t.IsCity() && t.Population > 0 && t.Owner == NeutralOwner {
			violations = append(violations, Violation{c, "city has population but no owner"})
		}

		if t.Owner != NeutralOwner {
			totalPop[t.Owner] += int64(t.Population)
			totalArmy[t.Owner] += int64(t.Army)
		}
		return true
	})

	for _, p := range players {
		if !p.Alive {
			continue
		}
		if !p.HasCapital {
			violations = append(violations, Violation{Coord{}, fmt.Sprintf("player %s is alive with no capital", p.ID)})
			continue
		}
		tile := m.Get(p.Capital)
		if tile == nil || !tile.IsCity() || tile.Owner != p.ID {
			// invariant 4
			violations = append(violations, Violation{p.Capital, fmt.Sprintf("player %s capital tile is not an owned city", p.ID)})
		}
		if prev, ok := capitalOwner[p.Capital]; ok && prev != p.ID {
			violations = append(violations, Violation{p.Capital, "two alive players share one capital coordinate"})
		}
		capitalOwner[p.Capital] = p.ID

		// invariant 7: cached per-player stats equal recomputation
		if totalPop[p.ID] != p.Stats.Population {
			violations = append(violations, Violation{p.Capital, fmt.Sprintf("player %s cached population %d != recomputed %d", p.ID, p.Stats.Population, totalPop[p.ID])})
		}
		if totalArmy[p.ID] != p.Stats.Army {
			violations = append(violations, Violation{p.Capital, fmt.Sprintf("player %s cached army %d != recomputed %d", p.ID, p.Stats.Army, totalArmy[p.ID])})
		}
	}

	var grandTotal int64
	for _, v := range totalPop {
		grandTotal += v
	}
	if grandTotal > SanityMaxTotalPop {
		violations = append(violations, Violation{Coord{}, fmt.Sprintf("total population %d exceeds sanity max %d", grandTotal, SanityMaxTotalPop)})
	}

	return violations
}

// Assert panics with an InternalInvariantViolation if Check finds anything.
// §7 marks this fatal: it must never be reachable from bot behaviour, only
// from an engine bug, so a panic rather than a returned error is correct
// here.
func Assert(turn int, m *Map, players Players) {
	violations := Check(m, players)
	if len(violations) == 0 {
		return
	}
	panic(&InternalInvariantViolation{Turn: turn, Message: violations[0].String()})
}
