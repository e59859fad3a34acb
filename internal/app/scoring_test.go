package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDuelPoints(t *testing.T) {
	cases := []struct {
		elapsed int
		correct bool
		want    int
	}{
		{0, true, 150},
		{1200, true, 144},
		{5000, true, 125},
		{10_000, true, 100},
		{25_000, true, 100},
		{1200, false, 0},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, DuelPoints(c.elapsed, c.correct), "elapsed=%d correct=%v", c.elapsed, c.correct)
	}
}

func TestRacePoints(t *testing.T) {
	assert.Equal(t, 150, RacePoints(0))
	assert.Equal(t, 150, RacePoints(199))
	assert.Equal(t, 149, RacePoints(200))
	assert.Equal(t, 145, RacePoints(1000))
	assert.Equal(t, 100, RacePoints(10_000))
	assert.Equal(t, 100, RacePoints(60_000))
	assert.Equal(t, 150, RacePoints(-5))
}
