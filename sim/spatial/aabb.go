// Package spatial holds the spatial indices used for culling and broad-phase queries:
// a loose quadtree over the XZ plane, a dynamic AABB tree and a uniform hash grid.
//
// None of the indices lock; callers serialize mutation against queries.
package spatial

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func BoxAround(center mgl32.Vec3, radius float32) AABB {
	r := mgl32.Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

func (b AABB) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[1] <= o.Max[1] && b.Max[1] >= o.Min[1] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

// IntersectsXZ ignores height.
func (b AABB) IntersectsXZ(o AABB) bool {
	return b.Min[0] <= o.Max[0] && b.Max[0] >= o.Min[0] &&
		b.Min[2] <= o.Max[2] && b.Max[2] >= o.Min[2]
}

func (b AABB) Contains(o AABB) bool {
	return b.Min[0] <= o.Min[0] && b.Max[0] >= o.Max[0] &&
		b.Min[1] <= o.Min[1] && b.Max[1] >= o.Max[1] &&
		b.Min[2] <= o.Min[2] && b.Max[2] >= o.Max[2]
}

func (b AABB) Union(o AABB) AABB {
	return AABB{
		Min: mgl32.Vec3{math32.Min(b.Min[0], o.Min[0]), math32.Min(b.Min[1], o.Min[1]), math32.Min(b.Min[2], o.Min[2])},
		Max: mgl32.Vec3{math32.Max(b.Max[0], o.Max[0]), math32.Max(b.Max[1], o.Max[1]), math32.Max(b.Max[2], o.Max[2])},
	}
}

func (b AABB) Expand(margin float32) AABB {
	m := mgl32.Vec3{margin, margin, margin}
	return AABB{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// SurfaceArea is the cost metric of the AABB tree.
func (b AABB) SurfaceArea() float32 {
	d := b.Max.Sub(b.Min)
	return 2 * (d[0]*d[1] + d[1]*d[2] + d[2]*d[0])
}
