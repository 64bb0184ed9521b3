package spatial

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// HashGrid buckets keys by every cell their box overlaps. It is rebuilt each
// frame, so there is no removal.
type HashGrid[K comparable] struct {
	cellSize float32
	cells    map[uint64][]K
	seen     map[K]struct{}
}

func NewHashGrid[K comparable](cellSize float32) *HashGrid[K] {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &HashGrid[K]{
		cellSize: cellSize,
		cells:    make(map[uint64][]K),
		seen:     make(map[K]struct{}),
	}
}

func (g *HashGrid[K]) CellSize() float32 {
	return g.cellSize
}

// Clear keeps the bucket slices around for the next rebuild.
func (g *HashGrid[K]) Clear() {
	for k, bucket := range g.cells {
		g.cells[k] = bucket[:0]
	}
}

func (g *HashGrid[K]) Insert(key K, box AABB) {
	g.eachCell(box, func(cell uint64) {
		g.cells[cell] = append(g.cells[cell], key)
	})
}

// QueryAABB appends every key sharing a cell with box to dst, once each.
// Results are broad-phase candidates and may not actually overlap box.
func (g *HashGrid[K]) QueryAABB(dst []K, box AABB) []K {
	clear(g.seen)
	g.eachCell(box, func(cell uint64) {
		for _, key := range g.cells[cell] {
			if _, ok := g.seen[key]; ok {
				continue
			}
			g.seen[key] = struct{}{}
			dst = append(dst, key)
		}
	})
	return dst
}

func (g *HashGrid[K]) QueryRadius(dst []K, center mgl32.Vec3, radius float32) []K {
	return g.QueryAABB(dst, BoxAround(center, radius))
}

func (g *HashGrid[K]) eachCell(box AABB, fn func(cell uint64)) {
	minX, maxX := g.cellIndex(box.Min[0]), g.cellIndex(box.Max[0])
	minY, maxY := g.cellIndex(box.Min[1]), g.cellIndex(box.Max[1])
	minZ, maxZ := g.cellIndex(box.Min[2]), g.cellIndex(box.Max[2])
	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				fn(hashCell(x, y, z))
			}
		}
	}
}

func (g *HashGrid[K]) cellIndex(v float32) int {
	return int(math32.Floor(v / g.cellSize))
}

func hashCell(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}
