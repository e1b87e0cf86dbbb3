package voxel

import (
	"math"

	"github.com/skyvoxel/skyvoxel/internal/raygen"
)

// MaxRaySteps bounds the 3D-DDA traversal per ray, guaranteeing a tick
// terminates regardless of grid size or ray direction.
const MaxRaySteps = 512

// Tracer owns a Grid and performs batched ray-AABB intersection plus
// 3D-DDA traversal (Amanatides & Woo) against it.
type Tracer struct {
	grid *Grid
}

// NewTracer builds a Tracer over a fresh Grid spanning the given
// geographic bottom-left/top-right corners and height.
func NewTracer(bottomLeftLatLon, topRightLatLon [2]float64, heightM float64, resolution [3]int) (*Tracer, error) {
	min := [3]float64{bottomLeftLatLon[0], bottomLeftLatLon[1], 0}
	max := [3]float64{topRightLatLon[0], topRightLatLon[1], heightM}
	g, err := NewGrid(min, max, resolution)
	if err != nil {
		return nil, err
	}
	return &Tracer{grid: g}, nil
}

// Grid returns the tracer's underlying voxel grid.
func (t *Tracer) Grid() *Grid { return t.grid }

// SetGridSize delegates to Grid.SetGridSize.
func (t *Tracer) SetGridSize(min, max [3]float64) error { return t.grid.SetGridSize(min, max) }

// SetGridSizeKeepResolution delegates to Grid.SetGridSizeKeepResolution.
func (t *Tracer) SetGridSizeKeepResolution(min, max [3]float64) error {
	return t.grid.SetGridSizeKeepResolution(min, max)
}

// SetGridResolution delegates to Grid.SetGridResolution.
func (t *Tracer) SetGridResolution(resolution [3]int) error {
	return t.grid.SetGridResolution(resolution)
}

// AddGridData delegates to Grid.AddGridData.
func (t *Tracer) AddGridData(voxels [][3]int, weights []uint8) {
	t.grid.AddGridData(voxels, weights)
}

// Clear delegates to Grid.Clear.
func (t *Tracer) Clear() { t.grid.Clear() }

// RaycastBatch intersects every ray in batch against the grid and
// traces each intersecting ray's 3D-DDA path, returning the
// concatenation (in input order) of each ray's emitted voxel indices
// and matching weights. Rays that miss the grid are silently dropped.
func (t *Tracer) RaycastBatch(batch *raygen.RayBatch) ([][3]int, []uint8) {
	var voxels [][3]int
	var weights []uint8
	for k := 0; k < batch.Len(); k++ {
		rayVoxels := t.traceRay(batch.Origins[k], batch.Dirs[k])
		for _, v := range rayVoxels {
			voxels = append(voxels, v)
			weights = append(weights, batch.Weights[k])
		}
	}
	return voxels, weights
}

// RayAABB computes the ray-AABB slab intersection against the grid's
// bounds, returning whether the ray intersects and its entry parameter
// tmin. Axis-parallel rays whose origin lies exactly on that axis'
// boundary are tolerated via NaN-ignoring reduction, per the design
// note on 0*Inf in the slab test.
func (t *Tracer) RayAABB(origin, dir [3]float64) (tmin, tmax float64, intersects bool) {
	var axisMin, axisMax [3]float64
	for i := 0; i < 3; i++ {
		inv := 1 / dir[i]
		t1 := (t.grid.Min[i] - origin[i]) * inv
		t2 := (t.grid.Max[i] - origin[i]) * inv
		axisMin[i] = math.Min(t1, t2)
		axisMax[i] = math.Max(t1, t2)
	}
	tmin = nanIgnoringMax(axisMin[:])
	tmax = nanIgnoringMin(axisMax[:])
	intersects = tmax > math.Max(tmin, 0)
	return tmin, tmax, intersects
}

func nanIgnoringMax(vals []float64) float64 {
	result := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(result) || v > result {
			result = v
		}
	}
	return result
}

func nanIgnoringMin(vals []float64) float64 {
	result := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(result) || v < result {
			result = v
		}
	}
	return result
}

// traceRay runs the scalar 3D-DDA path for a single ray, returning its
// emitted voxel index sequence. Used both directly (scalar reference
// path) and per-row within RaycastBatch, so batch output is defined to
// equal the concatenation of scalar output in input order.
func (t *Tracer) traceRay(origin, dir [3]float64) [][3]int {
	tmin, _, intersects := t.RayAABB(origin, dir)
	if !intersects {
		return nil
	}

	entry := math.Max(tmin, 0)
	var start, step [3]float64
	var delta [3]float64
	var stepDir [3]int
	for i := 0; i < 3; i++ {
		start[i] = origin[i] + dir[i]*entry
		step[i] = sign(dir[i])
		stepDir[i] = int(step[i])
		if dir[i] == 0 {
			delta[i] = math.Inf(1)
		} else {
			delta[i] = t.grid.VoxelSize[i] / math.Abs(dir[i])
		}
	}

	var current [3]int
	for i := 0; i < 3; i++ {
		c := int(math.Floor((start[i] - t.grid.Min[i]) / t.grid.VoxelSize[i]))
		if c < 0 {
			c = 0
		}
		if c > t.grid.Resolution[i]-1 {
			c = t.grid.Resolution[i] - 1
		}
		current[i] = c
	}

	var tMax [3]float64
	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			tMax[i] = math.Inf(1)
			continue
		}
		boundaryOffset := 0.0
		if stepDir[i] > 0 {
			boundaryOffset = 1
		}
		nextBoundary := t.grid.Min[i] + (float64(current[i])+boundaryOffset)*t.grid.VoxelSize[i]
		tMax[i] = (nextBoundary - origin[i]) / dir[i]
	}

	voxels := make([][3]int, 0, 8)
	voxels = append(voxels, current)

	for step := 0; step < MaxRaySteps; step++ {
		axis := argMinAxis(tMax)
		current[axis] += stepDir[axis]
		if current[axis] < 0 || current[axis] >= t.grid.Resolution[axis] {
			break
		}
		tMax[axis] += delta[axis]
		voxels = append(voxels, current)
	}

	return voxels
}

// argMinAxis returns the axis (0, 1, or 2) with the smallest tMax
// value, preferring the lower axis index on ties.
func argMinAxis(tMax [3]float64) int {
	axis := 0
	for i := 1; i < 3; i++ {
		if tMax[i] < tMax[axis] {
			axis = i
		}
	}
	return axis
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
