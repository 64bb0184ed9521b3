package emission

import "github.com/go-gl/mathgl/mgl32"

// ShapeConfig is the flat, serializable form of a Shape. Fields a kind does not use
// are ignored.
type ShapeConfig struct {
	Kind        ShapeKind  `json:"kind" yaml:"kind" toml:"kind"`
	Origin      mgl32.Vec3 `json:"origin" yaml:"origin" toml:"origin"`
	Normal      mgl32.Vec3 `json:"normal,omitempty" yaml:"normal,omitempty" toml:"normal,omitempty"`
	Radius      float32    `json:"radius,omitempty" yaml:"radius,omitempty" toml:"radius,omitempty"`
	InnerRadius float32    `json:"inner_radius,omitempty" yaml:"inner_radius,omitempty" toml:"inner_radius,omitempty"`
	Min         mgl32.Vec3 `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max         mgl32.Vec3 `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
}

func (c ShapeConfig) Shape() Shape {
	circle := CircleShape{Origin: c.Origin, Normal: c.Normal, Radius: c.Radius}
	sphere := SphereShape{Origin: c.Origin, Radius: c.Radius}
	switch c.Kind {
	case ShapeCircle:
		return circle
	case ShapeRing:
		return RingShape{Circle: circle, InnerRadius: c.InnerRadius}
	case ShapeBox:
		return BoxShape{Min: c.Min, Max: c.Max}
	case ShapeSphere:
		return sphere
	case ShapeHollowSphere:
		return HollowSphereShape{Sphere: sphere, InnerRadius: c.InnerRadius}
	default:
		return PointShape{Point: c.Origin}
	}
}

func ShapeConfigOf(s Shape) ShapeConfig {
	switch s := s.(type) {
	case CircleShape:
		return ShapeConfig{Kind: ShapeCircle, Origin: s.Origin, Normal: s.Normal, Radius: s.Radius}
	case RingShape:
		return ShapeConfig{Kind: ShapeRing, Origin: s.Circle.Origin, Normal: s.Circle.Normal, Radius: s.Circle.Radius, InnerRadius: s.InnerRadius}
	case BoxShape:
		return ShapeConfig{Kind: ShapeBox, Min: s.Min, Max: s.Max}
	case SphereShape:
		return ShapeConfig{Kind: ShapeSphere, Origin: s.Origin, Radius: s.Radius}
	case HollowSphereShape:
		return ShapeConfig{Kind: ShapeHollowSphere, Origin: s.Sphere.Origin, Radius: s.Sphere.Radius, InnerRadius: s.InnerRadius}
	case PointShape:
		return ShapeConfig{Kind: ShapePoint, Origin: s.Point}
	default:
		return ShapeConfig{Kind: ShapePoint}
	}
}

// BoundaryConfig is the flat, serializable form of a Boundary.
type BoundaryConfig struct {
	Kind        BoundaryKind   `json:"kind" yaml:"kind" toml:"kind"`
	Effect      BoundaryEffect `json:"effect" yaml:"effect" toml:"effect"`
	Restitution float32        `json:"restitution" yaml:"restitution" toml:"restitution"`
	Normal      mgl32.Vec3     `json:"normal,omitempty" yaml:"normal,omitempty" toml:"normal,omitempty"`
	Distance    float32        `json:"distance,omitempty" yaml:"distance,omitempty" toml:"distance,omitempty"`
	Center      mgl32.Vec3     `json:"center,omitempty" yaml:"center,omitempty" toml:"center,omitempty"`
	Radius      float32        `json:"radius,omitempty" yaml:"radius,omitempty" toml:"radius,omitempty"`
	Min         mgl32.Vec3     `json:"min,omitempty" yaml:"min,omitempty" toml:"min,omitempty"`
	Max         mgl32.Vec3     `json:"max,omitempty" yaml:"max,omitempty" toml:"max,omitempty"`
}

func (c BoundaryConfig) Boundary() Boundary {
	b := Boundary{Effect: c.Effect, Restitution: c.Restitution}
	switch c.Kind {
	case BoundaryPlane:
		b.Volume = NewPlane(c.Normal, c.Distance)
	case BoundarySphere:
		b.Volume = SphereVolume{Center: c.Center, Radius: c.Radius}
	case BoundaryBox:
		b.Volume = BoxVolume{Min: c.Min, Max: c.Max}
	}
	return b
}

func BoundaryConfigOf(b Boundary) BoundaryConfig {
	c := BoundaryConfig{Effect: b.Effect, Restitution: b.Restitution}
	switch v := b.Volume.(type) {
	case PlaneVolume:
		c.Kind, c.Normal, c.Distance = BoundaryPlane, v.Normal, v.Distance
	case SphereVolume:
		c.Kind, c.Center, c.Radius = BoundarySphere, v.Center, v.Radius
	case BoxVolume:
		c.Kind, c.Min, c.Max = BoundaryBox, v.Min, v.Max
	}
	return c
}
