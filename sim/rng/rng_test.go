package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPCG_Ranges(t *testing.T) {
	src := New(42)
	var sumN float32
	for i := 0; i < 10000; i++ {
		f := src.Float()
		assert.GreaterOrEqual(t, f, float32(0))
		assert.Less(t, f, float32(1))

		n := src.FloatN()
		assert.GreaterOrEqual(t, n, float32(-1))
		assert.Less(t, n, float32(1))
		sumN += n

		u := src.UnitVector()
		assert.InDelta(t, 1.0, u.Len(), 1e-4)
	}
	// symmetric deviate averages out near zero
	assert.InDelta(t, 0.0, sumN/10000, 0.05)
}

func TestPCG_Deterministic(t *testing.T) {
	a, b := New(7), New(7)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.Float(), b.Float())
		assert.Equal(t, a.UnitVector(), b.UnitVector())
	}
}

func TestSequence_Cycles(t *testing.T) {
	s := &Sequence{Values: []float32{0.25, 0.5}}
	assert.Equal(t, float32(0.25), s.Float())
	assert.Equal(t, float32(0.5), s.FloatN())
	assert.Equal(t, float32(0.25), s.Float())

	empty := &Sequence{}
	assert.Equal(t, float32(0), empty.Float())
	assert.Equal(t, float32(1), empty.UnitVector().Y())
}
