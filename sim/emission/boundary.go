package emission

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Boundary keeps particles inside a volume, or kills the ones that leave it.
// A nil Volume disables the boundary.
type Boundary struct {
	Effect      BoundaryEffect
	Restitution float32
	Volume      Volume
}

// Volume is the allowed region of a Boundary.
type Volume interface {
	Kind() BoundaryKind
	// resolve tests p shrunk by radius and returns false when it must die.
	resolve(p *Particle, radius float32, effect BoundaryEffect, restitution float32) bool
}

// PointCollision treats p as a point. It reports whether p is still alive.
func (b Boundary) PointCollision(p *Particle) bool {
	if b.Volume == nil {
		return true
	}
	return b.Volume.resolve(p, 0, b.Effect, p.Restitution+b.Restitution)
}

// SphereCollision offsets every threshold by the particle's collision radius.
func (b Boundary) SphereCollision(p *Particle) bool {
	if b.Volume == nil {
		return true
	}
	return b.Volume.resolve(p, p.CollisionRadius, b.Effect, p.Restitution+b.Restitution)
}

// reflect flips the velocity component against inward normal n, scaled by e.
func reflect(v, n mgl32.Vec3, e float32) mgl32.Vec3 {
	return v.Sub(n.Mul((1 + e) * v.Dot(n)))
}

// PlaneVolume allows the half-space Normal·p >= Distance.
type PlaneVolume struct {
	Normal   mgl32.Vec3
	Distance float32
}

func NewPlane(normal mgl32.Vec3, distance float32) PlaneVolume {
	if normal.Dot(normal) > 0 {
		normal = normal.Normalize()
	}
	return PlaneVolume{Normal: normal, Distance: distance}
}

func (PlaneVolume) Kind() BoundaryKind { return BoundaryPlane }

func (v PlaneVolume) resolve(p *Particle, radius float32, effect BoundaryEffect, e float32) bool {
	dist := v.Normal.Dot(p.Position) - v.Distance - radius
	if dist >= 0 {
		return true
	}
	if effect == BoundaryKill {
		return false
	}
	vn := p.Velocity.Dot(v.Normal)
	if vn >= 0 {
		return true
	}
	// step back along the velocity until the surface is reached
	p.Position = p.Position.Sub(p.Velocity.Mul(dist / vn))
	p.Velocity = reflect(p.Velocity, v.Normal, e)
	return true
}

// SphereVolume allows the inside of a sphere.
type SphereVolume struct {
	Center mgl32.Vec3
	Radius float32
}

func (SphereVolume) Kind() BoundaryKind { return BoundarySphere }

func (v SphereVolume) resolve(p *Particle, radius float32, effect BoundaryEffect, e float32) bool {
	limit := v.Radius - radius
	if limit < 0 {
		limit = 0
	}
	q := p.Position.Sub(v.Center)
	d := math32.Sqrt(q.Dot(q))
	if d <= limit {
		return true
	}
	if effect == BoundaryKill {
		return false
	}
	inward := q.Mul(-1 / d)
	if p.Velocity.Dot(inward) >= 0 {
		return true
	}

	// backwards ray p - v*t against the sphere; take the nearest re-entry
	vv := p.Velocity.Dot(p.Velocity)
	qv := q.Dot(p.Velocity)
	disc := qv*qv - vv*(q.Dot(q)-limit*limit)
	if vv > 0 && disc >= 0 {
		t := (qv - math32.Sqrt(disc)) / vv
		p.Position = p.Position.Sub(p.Velocity.Mul(t))
	} else {
		p.Position = v.Center.Sub(inward.Mul(limit))
	}

	if c := v.Center.Sub(p.Position); c.Dot(c) > 1e-12 {
		inward = c.Normalize()
	}
	p.Velocity = reflect(p.Velocity, inward, e)
	return true
}

// BoxVolume allows the inside of an axis-aligned box.
type BoxVolume struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (BoxVolume) Kind() BoundaryKind { return BoundaryBox }

func (v BoxVolume) resolve(p *Particle, radius float32, effect BoundaryEffect, e float32) bool {
	var lo, hi mgl32.Vec3
	violated := false
	for i := 0; i < 3; i++ {
		lo[i], hi[i] = v.Min[i]+radius, v.Max[i]-radius
		if lo[i] > hi[i] {
			mid := (v.Min[i] + v.Max[i]) * 0.5
			lo[i], hi[i] = mid, mid
		}
		if p.Position[i] < lo[i] || p.Position[i] > hi[i] {
			violated = true
		}
	}
	if !violated {
		return true
	}
	if effect == BoundaryKill {
		return false
	}

	// only faces the particle is moving out of are corrected
	var t float32
	var outward [3]bool
	for i := 0; i < 3; i++ {
		vel := p.Velocity[i]
		switch {
		case p.Position[i] < lo[i] && vel < 0:
			outward[i] = true
			t = math32.Max(t, (p.Position[i]-lo[i])/vel)
		case p.Position[i] > hi[i] && vel > 0:
			outward[i] = true
			t = math32.Max(t, (p.Position[i]-hi[i])/vel)
		}
	}
	if t == 0 {
		return true
	}
	p.Position = p.Position.Sub(p.Velocity.Mul(t))
	for i := 0; i < 3; i++ {
		if outward[i] {
			p.Position[i] = math32.Min(math32.Max(p.Position[i], lo[i]), hi[i])
			p.Velocity[i] = -e * p.Velocity[i]
		}
	}
	return true
}
