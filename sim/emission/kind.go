package emission

import (
	"fmt"
	"strings"
)

// Kind enums marshal as their lower-case names so presets stay readable in every
// file format.

func kindName[T ~int](k T, names []string) string {
	if int(k) < 0 || int(k) >= len(names) {
		return fmt.Sprintf("unknown(%d)", int(k))
	}
	return names[k]
}

func marshalKind[T ~int](k T, names []string) ([]byte, error) {
	if int(k) < 0 || int(k) >= len(names) {
		return nil, fmt.Errorf("emission: invalid kind %d", int(k))
	}
	return []byte(names[k]), nil
}

func unmarshalKind[T ~int](text []byte, names []string, dst *T) error {
	s := strings.ToLower(strings.TrimSpace(string(text)))
	if s == "" {
		*dst = 0
		return nil
	}
	for i, n := range names {
		if n == s {
			*dst = T(i)
			return nil
		}
	}
	return fmt.Errorf("emission: unknown kind %q", s)
}

type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueFixed
	ValueRange
)

var valueKindNames = []string{"none", "fixed", "range"}

func (k ValueKind) String() string                  { return kindName(k, valueKindNames) }
func (k ValueKind) MarshalText() ([]byte, error)     { return marshalKind(k, valueKindNames) }
func (k *ValueKind) UnmarshalText(text []byte) error { return unmarshalKind(text, valueKindNames, k) }

type VectorKind int

const (
	VectorNone VectorKind = iota
	VectorFixed
	VectorRangeX
	VectorRangeY
	VectorRangeZ
	VectorRangeXY
	VectorRangeXZ
	VectorRangeYZ
	VectorRangeXYZ
)

var vectorKindNames = []string{"none", "fixed", "range_x", "range_y", "range_z", "range_xy", "range_xz", "range_yz", "range_xyz"}

func (k VectorKind) String() string                  { return kindName(k, vectorKindNames) }
func (k VectorKind) MarshalText() ([]byte, error)     { return marshalKind(k, vectorKindNames) }
func (k *VectorKind) UnmarshalText(text []byte) error { return unmarshalKind(text, vectorKindNames, k) }

type IntervalKind int

const (
	IntervalNone IntervalKind = iota
	IntervalIntermittent
	IntervalCustom
)

var intervalKindNames = []string{"none", "intermittent", "custom"}

func (k IntervalKind) String() string                  { return kindName(k, intervalKindNames) }
func (k IntervalKind) MarshalText() ([]byte, error)     { return marshalKind(k, intervalKindNames) }
func (k *IntervalKind) UnmarshalText(text []byte) error { return unmarshalKind(text, intervalKindNames, k) }

type SpawnKind int

const (
	SpawnSingle SpawnKind = iota
	SpawnBurst
	SpawnFlow
)

var spawnKindNames = []string{"single", "burst", "flow"}

func (k SpawnKind) String() string                  { return kindName(k, spawnKindNames) }
func (k SpawnKind) MarshalText() ([]byte, error)     { return marshalKind(k, spawnKindNames) }
func (k *SpawnKind) UnmarshalText(text []byte) error { return unmarshalKind(text, spawnKindNames, k) }

type ShapeKind int

const (
	ShapePoint ShapeKind = iota
	ShapeCircle
	ShapeRing
	ShapeBox
	ShapeSphere
	ShapeHollowSphere
)

var shapeKindNames = []string{"point", "circle", "ring", "box", "sphere", "hollow_sphere"}

func (k ShapeKind) String() string                  { return kindName(k, shapeKindNames) }
func (k ShapeKind) MarshalText() ([]byte, error)     { return marshalKind(k, shapeKindNames) }
func (k *ShapeKind) UnmarshalText(text []byte) error { return unmarshalKind(text, shapeKindNames, k) }

type ForceKind int

const (
	ForceNone ForceKind = iota
	ForceGravity
	ForceWind
	ForceWindGravity
)

var forceKindNames = []string{"none", "gravity", "wind", "wind_gravity"}

func (k ForceKind) String() string                  { return kindName(k, forceKindNames) }
func (k ForceKind) MarshalText() ([]byte, error)     { return marshalKind(k, forceKindNames) }
func (k *ForceKind) UnmarshalText(text []byte) error { return unmarshalKind(text, forceKindNames, k) }

type BoundaryKind int

const (
	BoundaryNone BoundaryKind = iota
	BoundaryPlane
	BoundarySphere
	BoundaryBox
)

var boundaryKindNames = []string{"none", "plane", "sphere", "box"}

func (k BoundaryKind) String() string                  { return kindName(k, boundaryKindNames) }
func (k BoundaryKind) MarshalText() ([]byte, error)     { return marshalKind(k, boundaryKindNames) }
func (k *BoundaryKind) UnmarshalText(text []byte) error { return unmarshalKind(text, boundaryKindNames, k) }

type BoundaryEffect int

const (
	BoundaryContain BoundaryEffect = iota
	BoundaryKill
)

var boundaryEffectNames = []string{"contain", "kill"}

func (k BoundaryEffect) String() string                  { return kindName(k, boundaryEffectNames) }
func (k BoundaryEffect) MarshalText() ([]byte, error)     { return marshalKind(k, boundaryEffectNames) }
func (k *BoundaryEffect) UnmarshalText(text []byte) error { return unmarshalKind(text, boundaryEffectNames, k) }

type ColliderKind int

const (
	ColliderNone ColliderKind = iota
	ColliderPoint
	ColliderSphere
)

var colliderKindNames = []string{"none", "point", "sphere"}

func (k ColliderKind) String() string                  { return kindName(k, colliderKindNames) }
func (k ColliderKind) MarshalText() ([]byte, error)     { return marshalKind(k, colliderKindNames) }
func (k *ColliderKind) UnmarshalText(text []byte) error { return unmarshalKind(text, colliderKindNames, k) }

type LightKind int

const (
	LightNone LightKind = iota
	LightUnique
	LightPerParticle
)

var lightKindNames = []string{"none", "unique", "per_particle"}

func (k LightKind) String() string                  { return kindName(k, lightKindNames) }
func (k LightKind) MarshalText() ([]byte, error)     { return marshalKind(k, lightKindNames) }
func (k *LightKind) UnmarshalText(text []byte) error { return unmarshalKind(text, lightKindNames, k) }
