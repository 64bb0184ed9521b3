package emission

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointShape(t *testing.T) {
	p := PointShape{Point: mgl32.Vec3{1, 2, 3}}
	assert.Equal(t, mgl32.Vec3{1, 2, 3}, p.Sample(rng.New(1)))
}

func TestCircleShape_StaysInDiskPlane(t *testing.T) {
	c := CircleShape{Origin: mgl32.Vec3{1, 1, 1}, Normal: mgl32.Vec3{0, 1, 0}, Radius: 2}
	r := rng.New(3)
	inner := 0
	for i := 0; i < 2000; i++ {
		p := c.Sample(r)
		d := p.Sub(c.Origin)
		assert.InDelta(t, 0, d.Y(), 1e-5)
		assert.LessOrEqual(t, d.Len(), c.Radius+1e-4)
		if d.Len() < c.Radius/2 {
			inner++
		}
	}
	// linear radial fraction puts half the samples inside half the radius
	assert.InDelta(t, 0.5, float64(inner)/2000, 0.05)
}

func TestCircleShape_ExactSample(t *testing.T) {
	c := CircleShape{Normal: mgl32.Vec3{0, 0, 1}, Radius: 4}
	// angle 0, fraction 0.5
	p := c.Sample(&rng.Sequence{Values: []float32{0, 0.5}})
	assert.InDelta(t, 2, p.Len(), 1e-5)
	assert.InDelta(t, 0, p.Z(), 1e-6)
}

func TestRingShape_NearRim(t *testing.T) {
	ring := RingShape{Circle: CircleShape{Normal: mgl32.Vec3{0, 1, 0}, Radius: 5}, InnerRadius: 0.5}
	r := rng.New(9)
	for i := 0; i < 1000; i++ {
		p := ring.Sample(r)
		rim := math32.Sqrt(p.X()*p.X() + p.Z()*p.Z())
		assert.InDelta(t, 5, rim, 0.5+1e-4)
		assert.LessOrEqual(t, math32.Abs(p.Y()), float32(0.5+1e-4))
	}
}

func TestBoxShape_Bounds(t *testing.T) {
	b := BoxShape{Min: mgl32.Vec3{-1, 0, 2}, Max: mgl32.Vec3{1, 3, 4}}
	r := rng.New(5)
	for i := 0; i < 1000; i++ {
		p := b.Sample(r)
		for axis := 0; axis < 3; axis++ {
			assert.GreaterOrEqual(t, p[axis], b.Min[axis])
			assert.LessOrEqual(t, p[axis], b.Max[axis])
		}
	}
}

func TestSphereShape_LinearRadius(t *testing.T) {
	s := SphereShape{Origin: mgl32.Vec3{0, 10, 0}, Radius: 3}
	r := rng.New(11)
	var sum float32
	n := 4000
	for i := 0; i < n; i++ {
		d := s.Sample(r).Sub(s.Origin).Len()
		require.LessOrEqual(t, d, s.Radius+1e-4)
		sum += d
	}
	// mean of r*u is r/2 for linear sampling (3r/4 for volumetric)
	assert.InDelta(t, 1.5, sum/float32(n), 0.1)
}

func TestHollowSphereShape_AdditiveRadius(t *testing.T) {
	h := HollowSphereShape{Sphere: SphereShape{Radius: 2}, InnerRadius: 1}
	// deviate 0.5 first, then the direction
	p := h.Sample(&rng.Sequence{Values: []float32{0.5, 0, 0, 1}})
	assert.InDelta(t, 3.5, p.Z(), 1e-5)
	assert.InDelta(t, 3.5, p.Len(), 1e-5)
}

func TestShapeConfig_RoundTrip(t *testing.T) {
	shapes := []Shape{
		PointShape{Point: mgl32.Vec3{1, 2, 3}},
		CircleShape{Origin: mgl32.Vec3{1, 0, 0}, Normal: mgl32.Vec3{0, 1, 0}, Radius: 2},
		RingShape{Circle: CircleShape{Normal: mgl32.Vec3{0, 1, 0}, Radius: 2}, InnerRadius: 0.5},
		BoxShape{Min: mgl32.Vec3{-1, -1, -1}, Max: mgl32.Vec3{1, 1, 1}},
		SphereShape{Origin: mgl32.Vec3{0, 1, 0}, Radius: 4},
		HollowSphereShape{Sphere: SphereShape{Radius: 4}, InnerRadius: 1},
	}
	for _, s := range shapes {
		assert.Equal(t, s, ShapeConfigOf(s).Shape(), s.Kind().String())
	}
}
