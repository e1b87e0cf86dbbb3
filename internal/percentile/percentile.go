// Package percentile selects the grid cells whose accumulated motion
// evidence lies in the top tail of the value distribution.
package percentile

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/skyvoxel/skyvoxel/internal/voxel"
)

// Extract computes the p-th percentile (0-100) of the grid's strictly
// positive cell values and returns the 3D indices of every cell at or
// above that threshold. Returns (nil, false) if there are no positive
// cells, or if the computed threshold is non-positive.
func Extract(g *voxel.Grid, p float64) ([][3]int, bool) {
	var values []float64
	for _, v := range g.Cells {
		if v > 0 {
			values = append(values, float64(v))
		}
	}
	if len(values) == 0 {
		return nil, false
	}
	sort.Float64s(values)

	threshold := stat.Quantile(p/100, stat.LinInterp, values, nil)
	if threshold <= 0 {
		return nil, false
	}

	var indices [][3]int
	for i0 := 0; i0 < g.Resolution[0]; i0++ {
		for i1 := 0; i1 < g.Resolution[1]; i1++ {
			for i2 := 0; i2 < g.Resolution[2]; i2++ {
				if float64(g.Cells[g.Index(i0, i1, i2)]) >= threshold {
					indices = append(indices, [3]int{i0, i1, i2})
				}
			}
		}
	}
	if len(indices) == 0 {
		return nil, false
	}
	return indices, true
}

// ToPoints converts a set of voxel indices into grid-space point
// coordinates (the centre of each voxel), for downstream clustering.
func ToPoints(g *voxel.Grid, indices [][3]int) [][3]float64 {
	points := make([][3]float64, len(indices))
	for i, idx := range indices {
		for axis := 0; axis < 3; axis++ {
			points[i][axis] = g.Min[axis] + (float64(idx[axis])+0.5)*g.VoxelSize[axis]
		}
	}
	return points
}
