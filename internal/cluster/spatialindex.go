// Package cluster implements density-based spatial clustering (DBSCAN)
// over 3D points, backed by a uniform-grid spatial index for O(1)
// average neighbourhood queries.
package cluster

import "math"

// Point is a 3D point in grid-space coordinates.
type Point [3]float64

func squaredDistance(a, b Point) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return dx*dx + dy*dy + dz*dz
}

// zigzagEncode maps a signed integer onto the non-negative integers,
// interleaving positive and negative values so small magnitudes (in
// either direction) stay small after encoding.
func zigzagEncode(n int64) uint64 {
	return uint64((n << 1) ^ (n >> 63))
}

// szudzikPair combines two non-negative integers into one via
// Szudzik's elegant pairing function, used here to fold a cell's three
// axis coordinates into a single map key.
func szudzikPair(a, b uint64) uint64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}

func cellID(cx, cy, cz int64) uint64 {
	return szudzikPair(szudzikPair(zigzagEncode(cx), zigzagEncode(cy)), zigzagEncode(cz))
}

// SpatialIndex buckets points into cells of side cellSize so that a
// neighbourhood query within radius <= cellSize only needs to inspect
// the 27 surrounding cells, rather than every point.
type SpatialIndex struct {
	points   []Point
	cellSize float64
	cells    map[uint64][]int
}

// NewSpatialIndex builds an index over points using cellSize as the
// bucket width.
func NewSpatialIndex(points []Point, cellSize float64) *SpatialIndex {
	idx := &SpatialIndex{
		points:   points,
		cellSize: cellSize,
		cells:    make(map[uint64][]int, len(points)),
	}
	for i, p := range points {
		cx, cy, cz := idx.cellCoords(p)
		id := cellID(cx, cy, cz)
		idx.cells[id] = append(idx.cells[id], i)
	}
	return idx
}

func (idx *SpatialIndex) cellCoords(p Point) (cx, cy, cz int64) {
	return int64(math.Floor(p[0] / idx.cellSize)),
		int64(math.Floor(p[1] / idx.cellSize)),
		int64(math.Floor(p[2] / idx.cellSize))
}

// RegionQuery returns the indices of every point within eps of
// points[i] (inclusive), searching only the 3x3x3 neighbourhood of
// cells around point i's own cell.
func (idx *SpatialIndex) RegionQuery(i int, eps float64) []int {
	p := idx.points[i]
	cx, cy, cz := idx.cellCoords(p)
	epsSq := eps * eps

	var neighbors []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				id := cellID(cx+dx, cy+dy, cz+dz)
				for _, j := range idx.cells[id] {
					if squaredDistance(p, idx.points[j]) <= epsSq {
						neighbors = append(neighbors, j)
					}
				}
			}
		}
	}
	return neighbors
}
