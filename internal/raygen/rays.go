// Package raygen back-projects motion-mask pixels through a camera's
// viewport basis into world-space rays.
package raygen

import "github.com/skyvoxel/skyvoxel/internal/geometry"

// MotionMask is a decoded grayscale frame; non-zero pixels mark motion
// and their magnitude becomes the ray weight.
type MotionMask struct {
	Width  int
	Height int
	// Pixels is row-major, Height*Width long.
	Pixels []uint8
}

// At returns the pixel value at (x, y).
func (m *MotionMask) At(x, y int) uint8 {
	return m.Pixels[y*m.Width+x]
}

// RayBatch stores N rays in parallel, contiguous slices: N origins, N
// directions, N integer weights. Directions are not renormalized.
type RayBatch struct {
	Origins [][3]float64
	Dirs    [][3]float64
	Weights []uint8
}

// Len returns the number of rays in the batch.
func (b *RayBatch) Len() int { return len(b.Weights) }

// Build enumerates non-zero pixels in mask and back-projects each into
// a world-space ray through cam's viewport. Returns (nil, false) if the
// mask has no motion, signalling the caller to skip this camera.
func Build(cam geometry.CameraState, mask *MotionMask) (*RayBatch, bool) {
	rot := geometry.RotationMatrix(cam.RotationRad[0], cam.RotationRad[1], cam.RotationRad[2])

	batch := &RayBatch{}
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			w := mask.At(x, y)
			if w == 0 {
				continue
			}
			pixelCenter := add(
				add(cam.Pixel00World, scale(cam.PixelDeltaU, float64(x))),
				scale(cam.PixelDeltaV, float64(y)),
			)
			rawDir := sub(pixelCenter, cam.Position)
			worldDir := applyTranspose(rot, rawDir)

			batch.Origins = append(batch.Origins, cam.Position)
			batch.Dirs = append(batch.Dirs, worldDir)
			batch.Weights = append(batch.Weights, w)
		}
	}

	if batch.Len() == 0 {
		return nil, false
	}
	return batch, true
}

// applyTranspose computes v @ R^T, i.e. right-multiplication of the row
// vector v by the transpose of rotation matrix r. Equivalently this is
// R applied to v from the left when r is read as acting on column
// vectors via its rows -- callers MUST NOT transpose this order.
func applyTranspose(r [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		var sum float64
		for j := 0; j < 3; j++ {
			sum += v[j] * r[i][j]
		}
		out[i] = sum
	}
	return out
}

func add(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
