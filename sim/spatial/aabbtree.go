package spatial

import (
	"slices"
)

const nullNode int32 = -1

type treeNode[K comparable] struct {
	box    AABB
	parent int32 // next free slot while on the free list
	left   int32
	right  int32
	height int32
	key    K
}

func (n *treeNode[K]) leaf() bool {
	return n.left == nullNode
}

// AABBTree is a dynamic bounding volume hierarchy. Leaves store boxes fattened by
// a margin so small moves do not touch the tree. Nodes live in one slice and are
// addressed by index; removed nodes go to a free list.
type AABBTree[K comparable] struct {
	nodes  []treeNode[K]
	root   int32
	free   int32
	margin float32
	leaves map[K]int32
	stack  []int32
}

func NewAABBTree[K comparable](margin float32) *AABBTree[K] {
	return &AABBTree[K]{
		root:   nullNode,
		free:   nullNode,
		margin: margin,
		leaves: make(map[K]int32),
	}
}

func (t *AABBTree[K]) Len() int {
	return len(t.leaves)
}

// Height is 0 for an empty tree or a single leaf.
func (t *AABBTree[K]) Height() int {
	if t.root == nullNode {
		return 0
	}
	return int(t.nodes[t.root].height)
}

// FatBox returns the stored, margin-expanded box of key.
func (t *AABBTree[K]) FatBox(key K) (AABB, bool) {
	i, ok := t.leaves[key]
	if !ok {
		return AABB{}, false
	}
	return t.nodes[i].box, true
}

func (t *AABBTree[K]) Insert(key K, box AABB) {
	if _, ok := t.leaves[key]; ok {
		t.Move(key, box)
		return
	}
	leaf := t.alloc()
	t.nodes[leaf].box = box.Expand(t.margin)
	t.nodes[leaf].key = key
	t.leaves[key] = leaf
	t.insertLeaf(leaf)
}

func (t *AABBTree[K]) Remove(key K) bool {
	leaf, ok := t.leaves[key]
	if !ok {
		return false
	}
	delete(t.leaves, key)
	t.removeLeaf(leaf)
	t.release(leaf)
	return true
}

// Move reports whether the tree changed. A box still inside its fat box is ignored.
func (t *AABBTree[K]) Move(key K, box AABB) bool {
	leaf, ok := t.leaves[key]
	if !ok {
		t.Insert(key, box)
		return true
	}
	if t.nodes[leaf].box.Contains(box) {
		return false
	}
	t.removeLeaf(leaf)
	t.nodes[leaf].box = box.Expand(t.margin)
	t.insertLeaf(leaf)
	return true
}

func (t *AABBTree[K]) Clear() {
	t.nodes = t.nodes[:0]
	t.root = nullNode
	t.free = nullNode
	clear(t.leaves)
}

// Query appends every key whose fat box overlaps box.
func (t *AABBTree[K]) Query(dst []K, box AABB) []K {
	return t.walk(dst, box.Intersects)
}

func (t *AABBTree[K]) FrustumQuery(dst []K, f Frustum) []K {
	return t.walk(dst, f.IntersectsAABB)
}

func (t *AABBTree[K]) walk(dst []K, hit func(AABB) bool) []K {
	if t.root == nullNode {
		return dst
	}
	stack := append(t.stack[:0], t.root)
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]
		if !hit(n.box) {
			continue
		}
		if n.leaf() {
			dst = append(dst, n.key)
			continue
		}
		stack = append(stack, n.left, n.right)
	}
	t.stack = stack
	return dst
}

// Rebuild replaces the incrementally built hierarchy with a top-down median
// split over the leaves, splitting on the longest axis of the centroid spread.
func (t *AABBTree[K]) Rebuild() {
	if len(t.leaves) < 3 {
		return
	}
	leaves := make([]int32, 0, len(t.leaves))
	for _, i := range t.leaves {
		leaves = append(leaves, i)
	}
	// internal nodes are rebuilt from scratch
	for i := range t.nodes {
		if !t.nodes[i].leaf() && t.nodes[i].height >= 0 {
			t.release(int32(i))
		}
	}
	t.root = t.build(leaves)
	t.nodes[t.root].parent = nullNode
}

func (t *AABBTree[K]) build(leaves []int32) int32 {
	if len(leaves) == 1 {
		t.nodes[leaves[0]].height = 0
		return leaves[0]
	}

	var lo, hi [3]float32
	for k, i := range leaves {
		c := t.nodes[i].box.Center()
		for axis := 0; axis < 3; axis++ {
			if k == 0 || c[axis] < lo[axis] {
				lo[axis] = c[axis]
			}
			if k == 0 || c[axis] > hi[axis] {
				hi[axis] = c[axis]
			}
		}
	}
	axis := 0
	if hi[1]-lo[1] > hi[axis]-lo[axis] {
		axis = 1
	}
	if hi[2]-lo[2] > hi[axis]-lo[axis] {
		axis = 2
	}
	slices.SortFunc(leaves, func(a, b int32) int {
		ca, cb := t.nodes[a].box.Center()[axis], t.nodes[b].box.Center()[axis]
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		}
		return 0
	})

	mid := len(leaves) / 2
	left := t.build(leaves[:mid])
	right := t.build(leaves[mid:])
	parent := t.alloc()
	t.link(parent, left, right)
	return parent
}

func (t *AABBTree[K]) link(parent, left, right int32) {
	p := &t.nodes[parent]
	p.left, p.right = left, right
	p.box = t.nodes[left].box.Union(t.nodes[right].box)
	p.height = 1 + max(t.nodes[left].height, t.nodes[right].height)
	t.nodes[left].parent = parent
	t.nodes[right].parent = parent
}

func (t *AABBTree[K]) alloc() int32 {
	if t.free != nullNode {
		i := t.free
		t.free = t.nodes[i].parent
		t.nodes[i] = treeNode[K]{parent: nullNode, left: nullNode, right: nullNode}
		return i
	}
	t.nodes = append(t.nodes, treeNode[K]{parent: nullNode, left: nullNode, right: nullNode})
	return int32(len(t.nodes) - 1)
}

// release marks the slot free with height -1 so Rebuild can tell it apart.
func (t *AABBTree[K]) release(i int32) {
	var zero K
	t.nodes[i] = treeNode[K]{parent: t.free, left: nullNode, right: nullNode, height: -1, key: zero}
	t.free = i
}

func (t *AABBTree[K]) insertLeaf(leaf int32) {
	if t.root == nullNode {
		t.root = leaf
		t.nodes[leaf].parent = nullNode
		return
	}

	// descend towards the sibling with the cheapest surface area growth
	box := t.nodes[leaf].box
	index := t.root
	for !t.nodes[index].leaf() {
		n := &t.nodes[index]
		area := n.box.SurfaceArea()
		combined := n.box.Union(box).SurfaceArea()
		cost := 2 * combined
		inherited := 2 * (combined - area)

		costLeft := t.descendCost(n.left, box) + inherited
		costRight := t.descendCost(n.right, box) + inherited
		if cost < costLeft && cost < costRight {
			break
		}
		if costLeft < costRight {
			index = n.left
		} else {
			index = n.right
		}
	}

	sibling := index
	oldParent := t.nodes[sibling].parent
	parent := t.alloc()
	t.nodes[parent].parent = oldParent
	if oldParent == nullNode {
		t.root = parent
	} else if t.nodes[oldParent].left == sibling {
		t.nodes[oldParent].left = parent
	} else {
		t.nodes[oldParent].right = parent
	}
	t.link(parent, sibling, leaf)
	t.refit(t.nodes[leaf].parent)
}

func (t *AABBTree[K]) descendCost(child int32, box AABB) float32 {
	c := &t.nodes[child]
	grown := c.box.Union(box).SurfaceArea()
	if c.leaf() {
		return grown
	}
	return grown - c.box.SurfaceArea()
}

func (t *AABBTree[K]) removeLeaf(leaf int32) {
	if leaf == t.root {
		t.root = nullNode
		return
	}
	parent := t.nodes[leaf].parent
	grand := t.nodes[parent].parent
	sibling := t.nodes[parent].left
	if sibling == leaf {
		sibling = t.nodes[parent].right
	}

	if grand == nullNode {
		t.root = sibling
		t.nodes[sibling].parent = nullNode
	} else {
		if t.nodes[grand].left == parent {
			t.nodes[grand].left = sibling
		} else {
			t.nodes[grand].right = sibling
		}
		t.nodes[sibling].parent = grand
		t.refit(grand)
	}
	t.release(parent)
	t.nodes[leaf].parent = nullNode
}

// refit rebalances and recomputes boxes from i up to the root.
func (t *AABBTree[K]) refit(i int32) {
	for i != nullNode {
		i = t.balance(i)
		n := &t.nodes[i]
		l, r := &t.nodes[n.left], &t.nodes[n.right]
		n.height = 1 + max(l.height, r.height)
		n.box = l.box.Union(r.box)
		i = n.parent
	}
}

// balance performs a single AVL rotation at a when its subtrees differ in
// height by more than one, returning the index now at a's position.
func (t *AABBTree[K]) balance(ia int32) int32 {
	a := &t.nodes[ia]
	if a.leaf() || a.height < 2 {
		return ia
	}
	ib, ic := a.left, a.right
	b, c := &t.nodes[ib], &t.nodes[ic]
	diff := c.height - b.height

	if diff > 1 {
		t.rotateUp(ia, ic, ib, false)
		return ic
	}
	if diff < -1 {
		t.rotateUp(ia, ib, ic, true)
		return ib
	}
	return ia
}

// rotateUp lifts child u above a. keep is a's other child. When fromLeft is set,
// u was a's left child.
func (t *AABBTree[K]) rotateUp(ia, iu, ikeep int32, fromLeft bool) {
	a, u := &t.nodes[ia], &t.nodes[iu]
	iF, iG := u.left, u.right
	f, g := &t.nodes[iF], &t.nodes[iG]

	u.left = ia
	u.parent = a.parent
	a.parent = iu
	if u.parent == nullNode {
		t.root = iu
	} else if t.nodes[u.parent].left == ia {
		t.nodes[u.parent].left = iu
	} else {
		t.nodes[u.parent].right = iu
	}

	// the taller grandchild stays with u, the shorter one moves under a
	up, iUp, down, iDown := f, iF, g, iG
	if g.height > f.height {
		up, iUp, down, iDown = g, iG, f, iF
	}
	u.right = iUp
	if fromLeft {
		a.left = iDown
	} else {
		a.right = iDown
	}
	down.parent = ia

	keep := &t.nodes[ikeep]
	a.box = keep.box.Union(down.box)
	a.height = 1 + max(keep.height, down.height)
	u.box = a.box.Union(up.box)
	u.height = 1 + max(a.height, up.height)
}
