package rand

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeedIsDeterministic(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Uint64(), b.Uint64())
	}
}

func TestZeroSeedDoesNotStall(t *testing.T) {
	g := New(0)
	seen := make(map[uint64]bool)
	for i := 0; i < 10; i++ {
		v := g.Uint64()
		assert.False(t, seen[v] && i > 0 && v == 0, "generator must advance past zero state")
		seen[v] = true
	}
}

func TestFloat64InUnitRange(t *testing.T) {
	g := New(7)
	for i := 0; i < 1000; i++ {
		v := g.Float64()
		assert.GreaterOrEqual(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
}

func TestIntRangeWithinBounds(t *testing.T) {
	g := New(1234)
	for i := 0; i < 1000; i++ {
		v := g.IntRange(5, 10)
		assert.GreaterOrEqual(t, v, int32(5))
		assert.Less(t, v, int32(10))
	}
}

func TestIntRangePanicsOnEmptyRange(t *testing.T) {
	g := New(1)
	assert.Panics(t, func() { g.IntRange(5, 5) })
}
