package gekkofx

import (
	"github.com/gekko3d/gekkofx/sim/spatial"
	"github.com/go-gl/mathgl/mgl32"
)

// BoundsComponent is an entity's world-space extent. Empty entities are kept
// out of the scene index.
type BoundsComponent struct {
	Box   spatial.AABB
	Empty bool
}

// SceneIndex mirrors every BoundsComponent into two indices: a QuadTree over
// the ground plane for view culling and a dynamic AABB tree for 3D overlap
// queries. Entities outside the QuadTree bounds are tracked separately and
// tested one by one.
type SceneIndex struct {
	Ground  *spatial.QuadTree[EntityId]
	Dynamic *spatial.AABBTree[EntityId]

	boxes   map[EntityId]spatial.AABB
	outside map[EntityId]struct{}
	seen    map[EntityId]struct{}
	scratch []EntityId
}

func NewSceneIndex(bounds spatial.AABB, maxDepth int, margin float32) *SceneIndex {
	return &SceneIndex{
		Ground:  spatial.NewQuadTree[EntityId](bounds, maxDepth),
		Dynamic: spatial.NewAABBTree[EntityId](margin),
		boxes:   make(map[EntityId]spatial.AABB),
		outside: make(map[EntityId]struct{}),
		seen:    make(map[EntityId]struct{}),
	}
}

func (s *SceneIndex) Len() int { return len(s.boxes) }

func (s *SceneIndex) Box(eid EntityId) (spatial.AABB, bool) {
	b, ok := s.boxes[eid]
	return b, ok
}

// Put indexes or re-indexes an entity. It reports whether the entity landed
// inside the ground bounds.
func (s *SceneIndex) Put(eid EntityId, box spatial.AABB) bool {
	if old, ok := s.boxes[eid]; ok && old == box {
		_, out := s.outside[eid]
		return !out
	}
	s.boxes[eid] = box

	if _, ok := s.Dynamic.FatBox(eid); ok {
		s.Dynamic.Move(eid, box)
	} else {
		s.Dynamic.Insert(eid, box)
	}

	if s.Ground.Push(eid, box) {
		delete(s.outside, eid)
		return true
	}
	s.Ground.Pop(eid)
	s.outside[eid] = struct{}{}
	return false
}

func (s *SceneIndex) Remove(eid EntityId) bool {
	if _, ok := s.boxes[eid]; !ok {
		return false
	}
	delete(s.boxes, eid)
	delete(s.outside, eid)
	s.Ground.Pop(eid)
	s.Dynamic.Remove(eid)
	return true
}

func (s *SceneIndex) Clear() {
	clear(s.boxes)
	clear(s.outside)
	s.Ground.Clear()
	s.Dynamic.Clear()
}

// Visible appends every indexed entity whose box touches the frustum.
func (s *SceneIndex) Visible(dst []EntityId, f spatial.Frustum) []EntityId {
	s.scratch = s.Ground.FrustumIntersections(s.scratch[:0], f)
	for _, eid := range s.scratch {
		if f.IntersectsAABB(s.boxes[eid]) {
			dst = append(dst, eid)
		}
	}
	for eid := range s.outside {
		if f.IntersectsAABB(s.boxes[eid]) {
			dst = append(dst, eid)
		}
	}
	return dst
}

// QueryAABB appends every indexed entity whose exact box overlaps box.
func (s *SceneIndex) QueryAABB(dst []EntityId, box spatial.AABB) []EntityId {
	s.scratch = s.Dynamic.Query(s.scratch[:0], box)
	for _, eid := range s.scratch {
		if s.boxes[eid].Intersects(box) {
			dst = append(dst, eid)
		}
	}
	return dst
}

func (s *SceneIndex) Nearby(dst []EntityId, center mgl32.Vec3, radius float32) []EntityId {
	return s.QueryAABB(dst, spatial.BoxAround(center, radius))
}

// SpatialModule keeps a SceneIndex resource in sync with BoundsComponent in
// PostUpdate. A positive RebuildEvery rebuilds the dynamic tree from scratch
// every that many frames.
type SpatialModule struct {
	Bounds       spatial.AABB
	MaxDepth     int
	Margin       float32
	RebuildEvery int
}

func (m SpatialModule) Install(app *App, cmd *Commands) {
	bounds := m.Bounds
	if bounds == (spatial.AABB{}) {
		bounds = spatial.BoxAround(mgl32.Vec3{}, 512)
	}
	depth := m.MaxDepth
	if depth <= 0 {
		depth = spatial.DefaultQuadDepth
	}
	cmd.AddResources(NewSceneIndex(bounds, depth, m.Margin))

	frames := 0
	app.UseSystem(
		System(func(index *SceneIndex, cmd *Commands, log Logger) {
			spatialSyncSystem(index, cmd, log)
			frames++
			if m.RebuildEvery > 0 && frames%m.RebuildEvery == 0 {
				index.Dynamic.Rebuild()
				log.Debugf("spatial: rebuilt dynamic tree, %d entries, height %d", index.Dynamic.Len(), index.Dynamic.Height())
			}
		}).InStage(PostUpdate),
	)
}

func spatialSyncSystem(index *SceneIndex, cmd *Commands, log Logger) {
	clear(index.seen)
	MakeQuery1[BoundsComponent](cmd).Map(func(eid EntityId, b *BoundsComponent) bool {
		if b.Empty {
			return true
		}
		index.seen[eid] = struct{}{}
		if _, known := index.boxes[eid]; !index.Put(eid, b.Box) && !known {
			log.Debugf("spatial: entity %d at %v is outside the ground bounds", eid, b.Box.Center())
		}
		return true
	})

	for eid := range index.boxes {
		if _, ok := index.seen[eid]; !ok {
			index.Remove(eid)
		}
	}
}
