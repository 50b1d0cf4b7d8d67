package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoord_ToIndex(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		width    int
		expected int
	}{
		{"origin", 0, 0, 5, 0},
		{"top-right", 4, 0, 5, 4},
		{"second row", 0, 1, 5, 5},
		{"middle", 2, 2, 5, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoord(tt.x, tt.y)
			assert.Equal(t, tt.expected, c.ToIndex(tt.width))
		})
	}
}

func TestFromIndex(t *testing.T) {
	width := 5
	for idx := 0; idx < 25; idx++ {
		c := FromIndex(idx, width)
		assert.Equal(t, idx, c.ToIndex(width), "round trip for idx %d", idx)
	}
}

func TestCoord_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		x, y     int
		expected bool
	}{
		{"top-left", 0, 0, true},
		{"bottom-right", 4, 4, true},
		{"x too large", 5, 2, false},
		{"y too large", 2, 5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewCoord(tt.x, tt.y)
			assert.Equal(t, tt.expected, c.IsValid(5, 5))
		})
	}
}

func TestCoord_ManhattanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Coord
		expected int
	}{
		{"same position", NewCoord(5, 5), NewCoord(5, 5), 0},
		{"horizontal", NewCoord(0, 0), NewCoord(5, 0), 5},
		{"vertical", NewCoord(0, 0), NewCoord(0, 5), 5},
		{"diagonal", NewCoord(0, 0), NewCoord(3, 4), 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.ManhattanDistance(tt.b))
			assert.Equal(t, tt.expected, tt.b.ManhattanDistance(tt.a), "distance should be symmetric")
		})
	}
}

func TestCoord_IsAdjacent(t *testing.T) {
	center := NewCoord(5, 5)
	tests := []struct {
		name     string
		other    Coord
		expected bool
	}{
		{"north", NewCoord(5, 4), true},
		{"south", NewCoord(5, 6), true},
		{"east", NewCoord(6, 5), true},
		{"west", NewCoord(4, 5), true},
		{"diagonal not adjacent", NewCoord(6, 6), false},
		{"same tile not adjacent", NewCoord(5, 5), false},
		{"two away", NewCoord(7, 5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, center.IsAdjacent(tt.other))
		})
	}
}

func TestCoord_Neighbors(t *testing.T) {
	t.Run("interior tile has 4 neighbors", func(t *testing.T) {
		c := NewCoord(2, 2)
		got := c.Neighbors(5, 5)
		assert.Len(t, got, 4)
	})

	t.Run("corner tile has 2 neighbors", func(t *testing.T) {
		c := NewCoord(0, 0)
		got := c.Neighbors(5, 5)
		assert.Len(t, got, 2)
		assert.Contains(t, got, NewCoord(1, 0))
		assert.Contains(t, got, NewCoord(0, 1))
	})

	t.Run("1x1 map has no neighbors", func(t *testing.T) {
		c := NewCoord(0, 0)
		assert.Empty(t, c.Neighbors(1, 1))
	})
}

func TestCoord_String(t *testing.T) {
	assert.Equal(t, "(3,4)", NewCoord(3, 4).String())
}
