package emission

import (
	"testing"

	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
)

func TestResolvePair_HeadOn(t *testing.T) {
	a := Particle{Position: mgl32.Vec3{0, 0, 0}, Velocity: mgl32.Vec3{1, 0, 0}, Mass: 1, CollisionRadius: 0.5, Restitution: 0.5}
	b := Particle{Position: mgl32.Vec3{0.8, 0, 0}, Velocity: mgl32.Vec3{-1, 0, 0}, Mass: 1, CollisionRadius: 0.5, Restitution: 0.5}

	assert.True(t, ResolvePair(&a, &b))
	// split the 0.2 overlap evenly
	assert.InDelta(t, -0.1, a.Position.X(), 1e-6)
	assert.InDelta(t, 0.9, b.Position.X(), 1e-6)
	// combined restitution 1: velocities swap
	assert.InDelta(t, -1, a.Velocity.X(), 1e-6)
	assert.InDelta(t, 1, b.Velocity.X(), 1e-6)
}

func TestResolvePair_Separating(t *testing.T) {
	a := Particle{Velocity: mgl32.Vec3{-1, 0, 0}, Mass: 1, CollisionRadius: 1}
	b := Particle{Position: mgl32.Vec3{1, 0, 0}, Velocity: mgl32.Vec3{1, 0, 0}, Mass: 1, CollisionRadius: 1}

	assert.True(t, ResolvePair(&a, &b))
	assert.Equal(t, mgl32.Vec3{-1, 0, 0}, a.Velocity)
	assert.Equal(t, mgl32.Vec3{1, 0, 0}, b.Velocity)
}

func TestResolvePair_ImmovableParticles(t *testing.T) {
	wall := Particle{Mass: 0, CollisionRadius: 1}
	ball := Particle{Position: mgl32.Vec3{0, 1.5, 0}, Velocity: mgl32.Vec3{0, -2, 0}, Mass: 2, CollisionRadius: 1, Restitution: 1}

	assert.True(t, ResolvePair(&wall, &ball))
	assert.Equal(t, mgl32.Vec3{}, wall.Position)
	assert.Equal(t, mgl32.Vec3{}, wall.Velocity)
	assert.InDelta(t, 2, ball.Position.Y(), 1e-6)
	assert.InDelta(t, 2, ball.Velocity.Y(), 1e-6)

	// both immovable: no division, nothing moves
	w2 := Particle{Position: mgl32.Vec3{0.5, 0, 0}, CollisionRadius: 1}
	assert.True(t, ResolvePair(&wall, &w2))
	assert.Equal(t, mgl32.Vec3{0.5, 0, 0}, w2.Position)
}

func TestResolvePair_NoContact(t *testing.T) {
	a := Particle{Mass: 1, CollisionRadius: 0.1}
	b := Particle{Position: mgl32.Vec3{1, 0, 0}, Mass: 1, CollisionRadius: 0.1}
	assert.False(t, ResolvePair(&a, &b))

}

func TestResolvePair_CoincidentSeparateAlongY(t *testing.T) {
	a := Particle{Mass: 1, CollisionRadius: 0.1}
	b := Particle{Mass: 1, CollisionRadius: 0.1}

	assert.True(t, ResolvePair(&a, &b))
	assert.InDelta(t, -0.1, a.Position.Y(), 1e-6)
	assert.InDelta(t, 0.1, b.Position.Y(), 1e-6)
	assert.Equal(t, float32(0), a.Position.X())
	assert.False(t, ResolvePair(&a, &b), "already touching, not overlapping")
}

func TestResolvePair_RestitutionIsClamped(t *testing.T) {
	a := Particle{Velocity: mgl32.Vec3{1, 0, 0}, Mass: 1, CollisionRadius: 0.5, Restitution: 0.8}
	b := Particle{Position: mgl32.Vec3{0.9, 0, 0}, Velocity: mgl32.Vec3{-1, 0, 0}, Mass: 1, CollisionRadius: 0.5, Restitution: 0.8}

	assert.True(t, ResolvePair(&a, &b))
	// elastic at most: speeds swap instead of growing by 1.6
	assert.InDelta(t, -1, a.Velocity.X(), 1e-6)
	assert.InDelta(t, 1, b.Velocity.X(), 1e-6)
}

func TestCollider_Apply(t *testing.T) {
	c := Collider{Mass: Fixed(2), Radius: Fixed(-1), Restitution: Fixed(3)}
	var p Particle
	c.Apply(&p, rng.New(1))
	assert.Equal(t, float32(2), p.Mass)
	assert.Equal(t, float32(0), p.CollisionRadius)
	assert.Equal(t, float32(1), p.Restitution)
}

func TestLight_Apply(t *testing.T) {
	l := Light{
		Kind:      LightUnique,
		Color:     RangedVector(VectorRangeXYZ, mgl32.Vec3{1, 0.5, 0}, mgl32.Vec3{1, 1, 1}),
		Intensity: Ranged(2, 1),
		Specular:  Fixed(0.4),
	}
	var p Particle
	l.Apply(&p, &rng.Sequence{Values: []float32{0.9}})
	assert.Equal(t, mgl32.Vec3{1, 0.5, 0}, p.LightColor)
	assert.Equal(t, float32(2), p.LightIntensity)

	l.Kind = LightPerParticle
	l.Apply(&p, &rng.Sequence{Values: []float32{-1}})
	assert.InDelta(t, 0, p.LightColor.X(), 1e-6)
	assert.InDelta(t, 1, p.LightIntensity, 1e-6)
	assert.InDelta(t, 0.4, p.LightSpecular, 1e-6)

	l.Kind = LightNone
	l.Apply(&p, nil)
	assert.Equal(t, float32(0), p.LightIntensity)
}

func TestExternalForces(t *testing.T) {
	wind := mgl32.Vec3{1, 2, 3}
	assert.Equal(t, mgl32.Vec3{}, ExternalForces{Gravity: -9, Wind: wind}.Acceleration())
	assert.Equal(t, mgl32.Vec3{0, -9, 0}, Gravity(-9).Acceleration())
	assert.Equal(t, wind, ExternalForces{Kind: ForceWind, Gravity: -9, Wind: wind}.Acceleration())
	assert.Equal(t, mgl32.Vec3{1, -7, 3}, ExternalForces{Kind: ForceWindGravity, Gravity: -9, Wind: wind}.Acceleration())
}
