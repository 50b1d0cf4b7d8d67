package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTile_TypeChecks(t *testing.T) {
	tests := []struct {
		name       string
		tileType   TileType
		isCity     bool
		isDesert   bool
		isMountain bool
	}{
		{"city", TileCity, true, false, false},
		{"desert", TileDesert, false, true, false},
		{"mountain", TileMountain, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := Tile{Type: tt.tileType}
			assert.Equal(t, tt.isCity, tile.IsCity())
			assert.Equal(t, tt.isDesert, tile.IsDesert())
			assert.Equal(t, tt.isMountain, tile.IsMountain())
		})
	}
}

func TestTile_IsNeutral(t *testing.T) {
	tests := []struct {
		name     string
		owner    PlayerID
		expected bool
	}{
		{"neutral tile", NeutralOwner, true},
		{"player 1 tile", 1, false},
		{"player 8 tile", 8, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tile := Tile{Owner: tt.owner}
			assert.Equal(t, tt.expected, tile.IsNeutral())
		})
	}
}

func TestTile_AddArmy_Saturates(t *testing.T) {
	tile := Tile{Army: 0xFFF0}
	tile.AddArmy(100)
	assert.Equal(t, uint16(0xFFFF), tile.Army)
}

func TestTile_AddArmy_Normal(t *testing.T) {
	tile := Tile{Army: 5}
	tile.AddArmy(3)
	assert.Equal(t, uint16(8), tile.Army)
}

func TestTile_AddPopulation_Saturates(t *testing.T) {
	tile := Tile{Population: 0xFFFFFFF0}
	tile.AddPopulation(100)
	assert.Equal(t, uint32(0xFFFFFFFF), tile.Population)
}

func TestTileType_String(t *testing.T) {
	assert.Equal(t, "city", TileCity.String())
	assert.Equal(t, "desert", TileDesert.String())
	assert.Equal(t, "mountain", TileMountain.String())
}
