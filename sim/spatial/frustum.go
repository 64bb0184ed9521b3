package spatial

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Frustum planes are Ax + By + Cz + D = 0 with normals pointing inside, in order
// Left, Right, Bottom, Top, Near, Far.
type Frustum [6]mgl32.Vec4

// FrustumFromMatrix extracts the planes of an OpenGL-style (-1..1 depth)
// view-projection matrix.
func FrustumFromMatrix(vp mgl32.Mat4) Frustum {
	var f Frustum
	for i := 0; i < 3; i++ {
		for j := 0; j < 4; j++ {
			f[2*i][j] = vp.At(3, j) + vp.At(i, j)
			f[2*i+1][j] = vp.At(3, j) - vp.At(i, j)
		}
	}
	for i := range f {
		l := math32.Sqrt(f[i][0]*f[i][0] + f[i][1]*f[i][1] + f[i][2]*f[i][2])
		if l > 0 {
			f[i] = f[i].Mul(1 / l)
		}
	}
	return f
}

// IntersectsAABB is conservative: boxes straddling a frustum corner may report true.
func (f Frustum) IntersectsAABB(b AABB) bool {
	for _, plane := range f {
		// the corner furthest along the plane normal
		var p mgl32.Vec3
		for axis := 0; axis < 3; axis++ {
			if plane[axis] > 0 {
				p[axis] = b.Max[axis]
			} else {
				p[axis] = b.Min[axis]
			}
		}
		if plane[0]*p[0]+plane[1]*p[1]+plane[2]*p[2]+plane[3] < 0 {
			return false
		}
	}
	return true
}
