package emission

import (
	"github.com/chewxy/math32"
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
)

// Shape samples spawn positions. Circle and Sphere scale the radius linearly, so their
// samples are denser near the center; effects authored against them rely on that look.
type Shape interface {
	Kind() ShapeKind
	Sample(r rng.Source) mgl32.Vec3
}

type PointShape struct {
	Point mgl32.Vec3
}

func (PointShape) Kind() ShapeKind                 { return ShapePoint }
func (s PointShape) Sample(rng.Source) mgl32.Vec3 { return s.Point }

type CircleShape struct {
	Origin mgl32.Vec3
	Normal mgl32.Vec3
	Radius float32
}

func (CircleShape) Kind() ShapeKind { return ShapeCircle }

// pointOnCircle returns the rim point at angle theta in the plane orthogonal to Normal.
func (s CircleShape) pointOnCircle(theta float32) mgl32.Vec3 {
	u, w := basis(s.Normal)
	dir := u.Mul(math32.Cos(theta)).Add(w.Mul(math32.Sin(theta)))
	return s.Origin.Add(dir.Mul(s.Radius))
}

func (s CircleShape) Sample(r rng.Source) mgl32.Vec3 {
	theta := r.Float() * 2 * math32.Pi
	f := r.Float()
	return s.Origin.Add(s.pointOnCircle(theta).Sub(s.Origin).Mul(f))
}

type RingShape struct {
	Circle      CircleShape
	InnerRadius float32
}

func (RingShape) Kind() ShapeKind { return ShapeRing }

func (s RingShape) Sample(r rng.Source) mgl32.Vec3 {
	rim := s.Circle.pointOnCircle(r.Float() * 2 * math32.Pi)
	return rim.Add(r.UnitVector().Mul(s.InnerRadius))
}

type BoxShape struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (BoxShape) Kind() ShapeKind { return ShapeBox }

func (s BoxShape) Sample(r rng.Source) mgl32.Vec3 {
	t := r.Vec()
	ext := s.Max.Sub(s.Min)
	return s.Min.Add(mgl32.Vec3{t[0] * ext[0], t[1] * ext[1], t[2] * ext[2]})
}

type SphereShape struct {
	Origin mgl32.Vec3
	Radius float32
}

func (SphereShape) Kind() ShapeKind { return ShapeSphere }

func (s SphereShape) Sample(r rng.Source) mgl32.Vec3 {
	dist := r.Float() * s.Radius
	return s.Origin.Add(r.UnitVector().Mul(dist))
}

// HollowSphereShape offsets the sphere radius by InnerRadius plus a symmetric deviate.
// Samples are not clamped to a shell and may land inside or past the origin.
type HollowSphereShape struct {
	Sphere      SphereShape
	InnerRadius float32
}

func (HollowSphereShape) Kind() ShapeKind { return ShapeHollowSphere }

func (s HollowSphereShape) Sample(r rng.Source) mgl32.Vec3 {
	dist := s.Sphere.Radius + (s.InnerRadius + r.FloatN())
	return s.Sphere.Origin.Add(r.UnitVector().Mul(dist))
}

// basis returns two unit vectors orthogonal to n and to each other. A zero normal is
// treated as +Y.
func basis(n mgl32.Vec3) (mgl32.Vec3, mgl32.Vec3) {
	if n.Dot(n) < 1e-12 {
		n = mgl32.Vec3{0, 1, 0}
	} else {
		n = n.Normalize()
	}
	ref := mgl32.Vec3{1, 0, 0}
	if math32.Abs(n.X()) > 0.9 {
		ref = mgl32.Vec3{0, 1, 0}
	}
	u := n.Cross(ref).Normalize()
	w := n.Cross(u)
	return u, w
}
