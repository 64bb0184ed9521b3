package emission

import (
	"testing"

	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestSingleValue(t *testing.T) {
	tests := []struct {
		name     string
		value    SingleValue
		seq      []float32
		expected float32
		min, max float32
	}{
		{"none", SingleValue{Value: 3, Margin: 1}, nil, 0, 0, 0},
		{"fixed", Fixed(2), nil, 2, 2, 2},
		{"range upper", Ranged(2, 0.5), []float32{1}, 2.5, 1.5, 2.5},
		{"range lower", Ranged(2, 0.5), []float32{-1}, 1.5, 1.5, 2.5},
		{"range center", Ranged(2, 0.5), []float32{0}, 2, 1.5, 2.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := &rng.Sequence{Values: tc.seq}
			assert.InDelta(t, tc.expected, tc.value.Sample(r), 1e-6)
			assert.Equal(t, tc.min, tc.value.Min())
			assert.Equal(t, tc.max, tc.value.Max())
		})
	}
}

func TestSingleValue_RangeStaysInBounds(t *testing.T) {
	v := Ranged(10, 2)
	r := rng.New(1)
	for i := 0; i < 1000; i++ {
		s := v.Sample(r)
		assert.GreaterOrEqual(t, s, v.Min())
		assert.LessOrEqual(t, s, v.Max())
	}
}

func TestVector_PerturbsOnlyNamedAxes(t *testing.T) {
	base := mgl32.Vec3{1, 2, 3}
	margin := mgl32.Vec3{10, 20, 30}

	tests := []struct {
		kind     VectorKind
		expected mgl32.Vec3
	}{
		{VectorNone, mgl32.Vec3{}},
		{VectorFixed, base},
		{VectorRangeX, mgl32.Vec3{6, 2, 3}},
		{VectorRangeY, mgl32.Vec3{1, 12, 3}},
		{VectorRangeZ, mgl32.Vec3{1, 2, 18}},
		{VectorRangeXY, mgl32.Vec3{6, 12, 3}},
		{VectorRangeXZ, mgl32.Vec3{6, 2, 18}},
		{VectorRangeYZ, mgl32.Vec3{1, 12, 18}},
		{VectorRangeXYZ, mgl32.Vec3{6, 12, 18}},
	}
	for _, tc := range tests {
		t.Run(tc.kind.String(), func(t *testing.T) {
			r := &rng.Sequence{Values: []float32{0.5}}
			v := RangedVector(tc.kind, base, margin)
			got := v.Sample(r)
			assert.True(t, tc.expected.ApproxEqual(got), "expected %v, got %v", tc.expected, got)
		})
	}
}

func TestVector_Bounds(t *testing.T) {
	v := RangedVector(VectorRangeXZ, mgl32.Vec3{1, 1, 1}, mgl32.Vec3{1, 5, 2})
	assert.Equal(t, mgl32.Vec3{0, 1, -1}, v.Min())
	assert.Equal(t, mgl32.Vec3{2, 1, 3}, v.Max())
}

func TestKind_TextRoundTrip(t *testing.T) {
	b, err := VectorRangeXZ.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "range_xz", string(b))

	var k VectorKind
	assert.NoError(t, k.UnmarshalText([]byte("RANGE_XZ")))
	assert.Equal(t, VectorRangeXZ, k)

	var s ShapeKind
	assert.Error(t, s.UnmarshalText([]byte("torus")))
	assert.Equal(t, "unknown(42)", ShapeKind(42).String())
}
