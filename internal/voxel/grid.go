// Package voxel implements the shared geographic voxel grid and the
// batched 3D-DDA ray traversal (Amanatides & Woo) that accumulates
// motion-ray evidence into it.
package voxel

import "fmt"

// Grid is an axis-aligned box over a mixed-unit coordinate space: axes
// 0 and 1 are latitude/longitude in degrees, axis 2 is altitude in
// metres. Cells is a flat, row-major accumulator of unsigned counts.
type Grid struct {
	Min        [3]float64
	Max        [3]float64
	Resolution [3]int
	VoxelSize  [3]float64
	Cells      []uint64
}

// NewGrid allocates a zeroed grid spanning [min, max) split into
// resolution cells per axis. Returns an error if max is not strictly
// greater than min on every axis, or any resolution component is < 1.
func NewGrid(min, max [3]float64, resolution [3]int) (*Grid, error) {
	g := &Grid{}
	if err := g.reconfigure(min, max, resolution); err != nil {
		return nil, err
	}
	return g, nil
}

func validateBounds(min, max [3]float64, resolution [3]int) error {
	for i := 0; i < 3; i++ {
		if max[i] <= min[i] {
			return fmt.Errorf("voxel grid: axis %d: max (%v) must be greater than min (%v)", i, max[i], min[i])
		}
		if resolution[i] < 1 {
			return fmt.Errorf("voxel grid: axis %d: resolution must be at least 1, got %d", i, resolution[i])
		}
	}
	return nil
}

func (g *Grid) reconfigure(min, max [3]float64, resolution [3]int) error {
	if err := validateBounds(min, max, resolution); err != nil {
		return err
	}
	g.Min = min
	g.Max = max
	g.Resolution = resolution
	for i := 0; i < 3; i++ {
		g.VoxelSize[i] = (max[i] - min[i]) / float64(resolution[i])
	}
	g.Cells = make([]uint64, resolution[0]*resolution[1]*resolution[2])
	return nil
}

// SetGridSize rebinds grid bounds, keeping the current resolution, and
// clears all cells. Rejects non-positive extents, leaving the previous
// grid untouched.
func (g *Grid) SetGridSize(min, max [3]float64) error {
	return g.reconfigure(min, max, g.Resolution)
}

// SetGridSizeKeepResolution rebinds bounds like SetGridSize but first
// recomputes a resolution that preserves the current voxel size as
// closely as possible (rounded to the nearest integer, minimum 1).
func (g *Grid) SetGridSizeKeepResolution(min, max [3]float64) error {
	var resolution [3]int
	for i := 0; i < 3; i++ {
		extent := max[i] - min[i]
		n := int(extent/g.VoxelSize[i] + 0.5)
		if n < 1 {
			n = 1
		}
		resolution[i] = n
	}
	return g.reconfigure(min, max, resolution)
}

// SetGridResolution rebinds resolution, rescaling voxel size to the
// current bounds, and clears all cells.
func (g *Grid) SetGridResolution(resolution [3]int) error {
	return g.reconfigure(g.Min, g.Max, resolution)
}

// Clear resets every cell to zero without changing bounds or resolution.
func (g *Grid) Clear() {
	for i := range g.Cells {
		g.Cells[i] = 0
	}
}

// Index returns the flat Cells offset for the 3D index (i0, i1, i2).
func (g *Grid) Index(i0, i1, i2 int) int {
	return (i0*g.Resolution[1]+i1)*g.Resolution[2] + i2
}

// AddGridData accumulates weights into cells at the given voxel
// indices: cells[v] += weights[k]. Callers (the DDA tracer) must only
// pass in-range indices.
func (g *Grid) AddGridData(voxels [][3]int, weights []uint8) {
	for k, v := range voxels {
		g.Cells[g.Index(v[0], v[1], v[2])] += uint64(weights[k])
	}
}

// RepresentativeVoxelEdge returns the largest per-axis voxel size,
// used as the characteristic length scale for clustering eps when the
// grid's axes do not share units (degrees vs metres).
func (g *Grid) RepresentativeVoxelEdge() float64 {
	max := g.VoxelSize[0]
	for _, v := range g.VoxelSize[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// InBounds reports whether the 3D index lies within [0, Resolution) on
// every axis.
func (g *Grid) InBounds(idx [3]int) bool {
	for i := 0; i < 3; i++ {
		if idx[i] < 0 || idx[i] >= g.Resolution[i] {
			return false
		}
	}
	return true
}
