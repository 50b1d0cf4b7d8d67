package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newAliveCapital(id PlayerID, m *Map, c Coord) *Player {
	p := NewPlayer(id)
	p.HasCapital = true
	p.Capital = c
	tile := m.Get(c)
	tile.Type = TileCity
	tile.Owner = id
	tile.Population = 10
	p.Stats.Population = 10
	return p
}

func TestCheck_CleanState(t *testing.T) {
	m := NewMap(3, 3)
	p1 := newAliveCapital(1, m, NewCoord(0, 0))
	violations := Check(m, Players{p1})
	assert.Empty(t, violations)
}

func TestCheck_MountainWithOwner(t *testing.T) {
	m := NewMap(3, 3)
	tile := m.Get(NewCoord(1, 1))
	tile.Type = TileMountain
	tile.Owner = 1

	violations := Check(m, nil)
	assert.NotEmpty(t, violations)
}

func TestCheck_NonCityWithPopulation(t *testing.T) {
	m := NewMap(3, 3)
	tile := m.Get(NewCoord(1, 1))
	tile.Type = TileDesert
	tile.Population = 5

	violations := Check(m, nil)
	assert.NotEmpty(t, violations)
}

func TestCheck_NeutralNonCityWithArmy(t *testing.T) {
	m := NewMap(3, 3)
	tile := m.Get(NewCoord(1, 1))
	tile.Type = TileDesert
	tile.Army = 5

	violations := Check(m, nil)
	assert.NotEmpty(t, violations)
}

func TestCheck_CityPopulationWithoutOwner(t *testing.T) {
	m := NewMap(3, 3)
	tile := m.Get(NewCoord(1, 1))
	tile.Type = TileCity
	tile.Population = 5
	tile.Owner = NeutralOwner

	violations := Check(m, nil)
	assert.NotEmpty(t, violations)
}

func TestCheck_AliveWithoutCapitalTile(t *testing.T) {
	m := NewMap(3, 3)
	p := NewPlayer(1)
	p.HasCapital = true
	p.Capital = NewCoord(0, 0) // desert, not a city owned by p

	violations := Check(m, Players{p})
	assert.NotEmpty(t, violations)
}

func TestCheck_AliveWithNoCapitalFlag(t *testing.T) {
	m := NewMap(3, 3)
	p := NewPlayer(1)
	violations := Check(m, Players{p})
	assert.NotEmpty(t, violations)
}

func TestCheck_StatsCacheMismatch(t *testing.T) {
	m := NewMap(3, 3)
	p := newAliveCapital(1, m, NewCoord(0, 0))
	p.Stats.Population = 999 // stale cache

	violations := Check(m, Players{p})
	assert.NotEmpty(t, violations)
}

func TestAssert_PanicsOnViolation(t *testing.T) {
	m := NewMap(3, 3)
	tile := m.Get(NewCoord(1, 1))
	tile.Type = TileMountain
	tile.Owner = 1

	assert.Panics(t, func() {
		Assert(1, m, nil)
	})
}

func TestAssert_NoPanicOnCleanState(t *testing.T) {
	m := NewMap(3, 3)
	p1 := newAliveCapital(1, m, NewCoord(0, 0))
	assert.NotPanics(t, func() {
		Assert(1, m, Players{p1})
	})
}
