package emission

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
)

// Collider configures how particles collide with the boundary and with each other.
// Point colliders hit the boundary as points, Sphere colliders with their radius;
// inter-particle tests always use the drawn collision radii.
type Collider struct {
	Kind            ColliderKind `json:"kind" yaml:"kind" toml:"kind"`
	InterCollisions bool         `json:"inter_collisions" yaml:"inter_collisions" toml:"inter_collisions"`
	// Broadphase prunes inter-particle pairs through a uniform grid before the exact test.
	Broadphase  bool        `json:"broadphase,omitempty" yaml:"broadphase,omitempty" toml:"broadphase,omitempty"`
	Mass        SingleValue `json:"mass" yaml:"mass" toml:"mass"`
	Radius      SingleValue `json:"radius" yaml:"radius" toml:"radius"`
	Restitution SingleValue `json:"restitution" yaml:"restitution" toml:"restitution"`
}

// Apply draws mass, radius and restitution into p, clamped to their valid ranges.
func (c Collider) Apply(p *Particle, r rng.Source) {
	p.Mass = c.Mass.Sample(r)
	p.CollisionRadius = math32.Max(c.Radius.Sample(r), 0)
	p.Restitution = clamp01(c.Restitution.Sample(r))
}

// Bounce runs the boundary test matching the collider kind.
func (c Collider) Bounce(b Boundary, p *Particle) bool {
	if c.Kind == ColliderSphere {
		return b.SphereCollision(p)
	}
	return b.PointCollision(p)
}

// ResolvePair separates two overlapping particles and exchanges an impulse along the
// contact normal when they approach each other. Particles with non-positive mass are
// immovable. Coincident particles are pushed apart along +Y. The combined restitution
// is clamped to [0,1]. It reports whether the pair overlapped.
func ResolvePair(a, b *Particle) bool {
	reach := a.CollisionRadius + b.CollisionRadius
	d := b.Position.Sub(a.Position)
	distSq := d.Dot(d)
	if distSq >= reach*reach {
		return false
	}

	invA, invB := a.InverseMass(), b.InverseMass()
	invSum := invA + invB
	if invSum == 0 {
		return true
	}

	var dist float32
	n := mgl32.Vec3{0, 1, 0}
	if distSq > 0 {
		dist = math32.Sqrt(distSq)
		n = d.Mul(1 / dist)
	}
	depth := reach - dist
	a.Position = a.Position.Sub(n.Mul(depth * invA / invSum))
	b.Position = b.Position.Add(n.Mul(depth * invB / invSum))

	vn := b.Velocity.Sub(a.Velocity).Dot(n)
	if vn < 0 {
		e := clamp01(a.Restitution + b.Restitution)
		j := -(1 + e) * vn / invSum
		a.Velocity = a.Velocity.Sub(n.Mul(j * invA))
		b.Velocity = b.Velocity.Add(n.Mul(j * invB))
	}
	return true
}

func clamp01(v float32) float32 {
	return math32.Min(math32.Max(v, 0), 1)
}
