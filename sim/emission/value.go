// Package emission holds the value generators and policies an emitter is configured
// with: spawn timing, spawn shape, per-particle attributes and the physics applied to
// live particles.
//
// Policies are plain values. The ones carrying running state (Interval, Spawn) are
// mutated through pointer methods and cleared with Reset.
package emission

import (
	"github.com/gekko3d/gekkofx/sim/rng"
	"github.com/go-gl/mathgl/mgl32"
)

// SingleValue generates a scalar: zero, a fixed value, or a value spread symmetrically
// by Margin around Value.
type SingleValue struct {
	Kind   ValueKind `json:"kind" yaml:"kind" toml:"kind"`
	Value  float32   `json:"value" yaml:"value" toml:"value"`
	Margin float32   `json:"margin,omitempty" yaml:"margin,omitempty" toml:"margin,omitempty"`
}

func Fixed(v float32) SingleValue {
	return SingleValue{Kind: ValueFixed, Value: v}
}

func Ranged(v, margin float32) SingleValue {
	return SingleValue{Kind: ValueRange, Value: v, Margin: margin}
}

// Sample draws once from r only for ValueRange.
func (s SingleValue) Sample(r rng.Source) float32 {
	switch s.Kind {
	case ValueFixed:
		return s.Value
	case ValueRange:
		return s.Value + r.FloatN()*s.Margin
	default:
		return 0
	}
}

func (s SingleValue) Min() float32 {
	switch s.Kind {
	case ValueFixed:
		return s.Value
	case ValueRange:
		return s.Value - s.Margin
	default:
		return 0
	}
}

func (s SingleValue) Max() float32 {
	switch s.Kind {
	case ValueFixed:
		return s.Value
	case ValueRange:
		return s.Value + s.Margin
	default:
		return 0
	}
}

// Vector generates a vec3; the RANGE kinds perturb only the axes they name.
type Vector struct {
	Kind   VectorKind `json:"kind" yaml:"kind" toml:"kind"`
	Value  mgl32.Vec3 `json:"value" yaml:"value" toml:"value"`
	Margin mgl32.Vec3 `json:"margin,omitempty" yaml:"margin,omitempty" toml:"margin,omitempty"`
}

func FixedVector(v mgl32.Vec3) Vector {
	return Vector{Kind: VectorFixed, Value: v}
}

func RangedVector(kind VectorKind, v, margin mgl32.Vec3) Vector {
	return Vector{Kind: kind, Value: v, Margin: margin}
}

// axes reports which components a kind perturbs.
func (k VectorKind) axes() [3]bool {
	switch k {
	case VectorRangeX:
		return [3]bool{true, false, false}
	case VectorRangeY:
		return [3]bool{false, true, false}
	case VectorRangeZ:
		return [3]bool{false, false, true}
	case VectorRangeXY:
		return [3]bool{true, true, false}
	case VectorRangeXZ:
		return [3]bool{true, false, true}
	case VectorRangeYZ:
		return [3]bool{false, true, true}
	case VectorRangeXYZ:
		return [3]bool{true, true, true}
	}
	return [3]bool{}
}

// Sample draws one deviate per perturbed axis, in x, y, z order.
func (v Vector) Sample(r rng.Source) mgl32.Vec3 {
	if v.Kind == VectorNone {
		return mgl32.Vec3{}
	}
	out := v.Value
	for i, on := range v.Kind.axes() {
		if on {
			out[i] += r.FloatN() * v.Margin[i]
		}
	}
	return out
}

func (v Vector) Min() mgl32.Vec3 {
	if v.Kind == VectorNone {
		return mgl32.Vec3{}
	}
	out := v.Value
	for i, on := range v.Kind.axes() {
		if on {
			out[i] -= v.Margin[i]
		}
	}
	return out
}

func (v Vector) Max() mgl32.Vec3 {
	if v.Kind == VectorNone {
		return mgl32.Vec3{}
	}
	out := v.Value
	for i, on := range v.Kind.axes() {
		if on {
			out[i] += v.Margin[i]
		}
	}
	return out
}
