package gekkofx

import (
	"github.com/go-gl/mathgl/mgl32"
)

// TransformComponent is the world transform. Emitters spawn from its position
// and local-space particles are carried by it.
type TransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

// LocalTransformComponent is relative to the Parent entity.
type LocalTransformComponent struct {
	Position mgl32.Vec3
	Rotation mgl32.Quat
	Scale    mgl32.Vec3
}

type Parent struct {
	Entity EntityId
}

func NewTransform(position mgl32.Vec3) TransformComponent {
	return TransformComponent{
		Position: position,
		Rotation: mgl32.QuatIdent(),
		Scale:    mgl32.Vec3{1, 1, 1},
	}
}

// Point maps a point from the transform's local space to world space.
func (t TransformComponent) Point(local mgl32.Vec3) mgl32.Vec3 {
	scaled := mulElem(local, t.Scale)
	return t.Position.Add(rotation(t.Rotation).Rotate(scaled))
}

// Compose applies a local transform on top of t.
func (t TransformComponent) Compose(local LocalTransformComponent) TransformComponent {
	return TransformComponent{
		Position: t.Point(local.Position),
		Rotation: rotation(t.Rotation).Mul(rotation(local.Rotation)).Normalize(),
		Scale:    mulElem(t.Scale, local.Scale),
	}
}

func mulElem(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a.X() * b.X(), a.Y() * b.Y(), a.Z() * b.Z()}
}

// rotation treats the zero quaternion as identity so zero-valued components work.
func rotation(q mgl32.Quat) mgl32.Quat {
	if q.W == 0 && q.V == (mgl32.Vec3{}) {
		return mgl32.QuatIdent()
	}
	return q
}
