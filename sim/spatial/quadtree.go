package spatial

import (
	"github.com/chewxy/math32"
)

const (
	// A leaf holding this many items splits into four quadrants.
	QuadSplitThreshold = 4
	// DefaultQuadDepth stops identical boxes from splitting forever.
	DefaultQuadDepth = 8
)

type quadItem[K comparable] struct {
	key K
	box AABB
}

type quadNode[K comparable] struct {
	box      AABB
	depth    int
	items    []quadItem[K]
	children *[4]quadNode[K]
}

// QuadTree subdivides X and Z; height is carried in the item boxes but never split on.
// An item lives in every leaf it overlaps, or in the lowest node whose four
// quadrants it all overlaps.
type QuadTree[K comparable] struct {
	root     quadNode[K]
	maxDepth int
	boxes    map[K]AABB
	minY     float32
	maxY     float32
	seen     map[K]struct{}
}

func NewQuadTree[K comparable](bounds AABB, maxDepth int) *QuadTree[K] {
	if maxDepth <= 0 {
		maxDepth = DefaultQuadDepth
	}
	return &QuadTree[K]{
		root:     quadNode[K]{box: bounds},
		maxDepth: maxDepth,
		boxes:    make(map[K]AABB),
		minY:     bounds.Min[1],
		maxY:     bounds.Max[1],
		seen:     make(map[K]struct{}),
	}
}

func (t *QuadTree[K]) Bounds() AABB {
	return t.root.box
}

func (t *QuadTree[K]) Len() int {
	return len(t.boxes)
}

// Box returns the box key was last pushed with.
func (t *QuadTree[K]) Box(key K) (AABB, bool) {
	b, ok := t.boxes[key]
	return b, ok
}

// Push inserts key, replacing its previous box if it is already present.
// Boxes outside the tree bounds on the XZ plane are rejected.
func (t *QuadTree[K]) Push(key K, box AABB) bool {
	if !t.root.box.IntersectsXZ(box) {
		return false
	}
	if _, ok := t.boxes[key]; ok {
		t.Pop(key)
	}
	t.boxes[key] = box
	t.minY = math32.Min(t.minY, box.Min[1])
	t.maxY = math32.Max(t.maxY, box.Max[1])
	t.root.push(quadItem[K]{key: key, box: box}, t.maxDepth)
	return true
}

// Pop removes key from every node holding it. Unknown keys are a no-op.
func (t *QuadTree[K]) Pop(key K) bool {
	if _, ok := t.boxes[key]; !ok {
		return false
	}
	box := t.boxes[key]
	delete(t.boxes, key)
	t.root.pop(key, box, t.seen)
	return true
}

func (t *QuadTree[K]) Clear() {
	t.root = quadNode[K]{box: t.root.box}
	clear(t.boxes)
	t.minY, t.maxY = t.root.box.Min[1], t.root.box.Max[1]
}

// Intersections appends every key whose box overlaps box, once each.
func (t *QuadTree[K]) Intersections(dst []K, box AABB) []K {
	clear(t.seen)
	return t.root.intersections(dst, box, t.seen)
}

// FrustumIntersections appends every key whose box is at least partly inside f.
func (t *QuadTree[K]) FrustumIntersections(dst []K, f Frustum) []K {
	clear(t.seen)
	return t.root.frustumIntersections(dst, f, t.minY, t.maxY, t.seen)
}

func (n *quadNode[K]) leaf() bool {
	return n.children == nil
}

func (n *quadNode[K]) push(it quadItem[K], maxDepth int) {
	if n.leaf() {
		n.items = append(n.items, it)
		if len(n.items) >= QuadSplitThreshold && n.depth < maxDepth {
			n.split(maxDepth)
		}
		return
	}
	n.distribute(it, maxDepth)
}

// distribute keeps it here when it spans every quadrant, otherwise hands it to
// each quadrant it overlaps.
func (n *quadNode[K]) distribute(it quadItem[K], maxDepth int) {
	var hits [4]bool
	count := 0
	for i := range n.children {
		if n.children[i].box.IntersectsXZ(it.box) {
			hits[i] = true
			count++
		}
	}
	if count == 4 {
		n.items = append(n.items, it)
		return
	}
	for i := range n.children {
		if hits[i] {
			n.children[i].push(it, maxDepth)
		}
	}
}

func (n *quadNode[K]) split(maxDepth int) {
	lo, hi := n.box.Min, n.box.Max
	mid := n.box.Center()
	n.children = &[4]quadNode[K]{}
	quads := [4]AABB{
		{Min: lo, Max: [3]float32{mid[0], hi[1], mid[2]}},
		{Min: [3]float32{mid[0], lo[1], lo[2]}, Max: [3]float32{hi[0], hi[1], mid[2]}},
		{Min: [3]float32{lo[0], lo[1], mid[2]}, Max: [3]float32{mid[0], hi[1], hi[2]}},
		{Min: [3]float32{mid[0], lo[1], mid[2]}, Max: hi},
	}
	for i := range quads {
		n.children[i] = quadNode[K]{box: quads[i], depth: n.depth + 1}
	}

	items := n.items
	n.items = nil
	for _, it := range items {
		n.distribute(it, maxDepth)
	}
}

func (n *quadNode[K]) pop(key K, box AABB, seen map[K]struct{}) {
	kept := n.items[:0]
	for _, it := range n.items {
		if it.key != key {
			kept = append(kept, it)
		}
	}
	clear(n.items[len(kept):])
	n.items = kept

	if n.leaf() {
		return
	}
	for i := range n.children {
		if n.children[i].box.IntersectsXZ(box) {
			n.children[i].pop(key, box, seen)
		}
	}
	clear(seen)
	if n.countUnique(seen) <= QuadSplitThreshold {
		n.collapse()
	}
}

func (n *quadNode[K]) countUnique(seen map[K]struct{}) int {
	for _, it := range n.items {
		seen[it.key] = struct{}{}
	}
	if !n.leaf() {
		for i := range n.children {
			n.children[i].countUnique(seen)
		}
	}
	return len(seen)
}

// collapse pulls every item of the subtree into n and drops the children.
func (n *quadNode[K]) collapse() {
	var items []quadItem[K]
	have := make(map[K]struct{}, QuadSplitThreshold)
	var gather func(*quadNode[K])
	gather = func(q *quadNode[K]) {
		for _, it := range q.items {
			if _, dup := have[it.key]; dup {
				continue
			}
			have[it.key] = struct{}{}
			items = append(items, it)
		}
		if !q.leaf() {
			for i := range q.children {
				gather(&q.children[i])
			}
		}
	}
	gather(n)
	n.items = items
	n.children = nil
}

func (n *quadNode[K]) intersections(dst []K, box AABB, seen map[K]struct{}) []K {
	if !n.box.IntersectsXZ(box) {
		return dst
	}
	for _, it := range n.items {
		if _, dup := seen[it.key]; dup || !it.box.Intersects(box) {
			continue
		}
		seen[it.key] = struct{}{}
		dst = append(dst, it.key)
	}
	if !n.leaf() {
		for i := range n.children {
			dst = n.children[i].intersections(dst, box, seen)
		}
	}
	return dst
}

func (n *quadNode[K]) frustumIntersections(dst []K, f Frustum, minY, maxY float32, seen map[K]struct{}) []K {
	cell := n.box
	cell.Min[1], cell.Max[1] = minY, maxY
	if !f.IntersectsAABB(cell) {
		return dst
	}
	for _, it := range n.items {
		if _, dup := seen[it.key]; dup || !f.IntersectsAABB(it.box) {
			continue
		}
		seen[it.key] = struct{}{}
		dst = append(dst, it.key)
	}
	if !n.leaf() {
		for i := range n.children {
			dst = n.children[i].frustumIntersections(dst, f, minY, maxY, seen)
		}
	}
	return dst
}
