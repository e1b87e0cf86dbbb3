// Package geometry converts a camera's raw pose into the viewport basis
// used by the ray builder: pinhole projection parameters derived from
// position, Euler rotation, and horizontal field of view.
package geometry

import "math"

// RawSensorRecord is one camera's reported pose for a single tick.
// Rotation is (roll, pitch, yaw) in degrees around X, Y, Z respectively;
// position is (latitude, longitude, altitude).
type RawSensorRecord struct {
	CamID      int
	Timestamp  float64
	RotationX  float64
	RotationY  float64
	RotationZ  float64
	Latitude   float64
	Longitude  float64
	Altitude   float64
	MaskPath   string
	FOVDegrees float64
}

// Position returns the record's pose as a 3-vector (lat, lon, alt).
func (r RawSensorRecord) Position() [3]float64 {
	return [3]float64{r.Latitude, r.Longitude, r.Altitude}
}

// CameraState is the derived, immutable geometry for one camera at one
// tick: the viewport basis vectors that locate a pixel's image-plane
// position one focal length in front of the camera, pre-rotation.
type CameraState struct {
	CamID        int
	Timestamp    float64
	RotationRad  [3]float64
	Position     [3]float64
	FOVDegrees   float64
	PixelDeltaU  [3]float64
	PixelDeltaV  [3]float64
	Pixel00World [3]float64
}

// Process derives a CameraState from a raw record and the decoded
// motion mask's pixel dimensions. Width/height are supplied by the
// caller (the pipeline decodes the mask image) rather than performed
// here, keeping this package free of file I/O.
func Process(raw RawSensorRecord, width, height int) CameraState {
	fovRad := radians(raw.FOVDegrees)
	h := math.Tan(fovRad / 2)
	focalLength := (float64(width) / 2) / h

	viewportHeight := h * focalLength
	viewportWidth := viewportHeight * float64(width) / float64(height)

	u := [3]float64{viewportWidth, 0, 0}
	v := [3]float64{0, -viewportHeight, 0}

	position := raw.Position()

	pixelDeltaU := scale(u, 1/float64(width))
	pixelDeltaV := scale(v, 1/float64(height))

	viewportUpperLeft := sub(sub(sub(position, [3]float64{0, 0, focalLength}), scale(u, 0.5)), scale(v, 0.5))
	pixel00World := add(viewportUpperLeft, scale(add(pixelDeltaU, pixelDeltaV), 0.5))

	return CameraState{
		CamID:        raw.CamID,
		Timestamp:    raw.Timestamp,
		RotationRad:  [3]float64{radians(raw.RotationX), radians(raw.RotationY), radians(raw.RotationZ)},
		Position:     position,
		FOVDegrees:   raw.FOVDegrees,
		PixelDeltaU:  pixelDeltaU,
		PixelDeltaV:  pixelDeltaV,
		Pixel00World: pixel00World,
	}
}

// RotationMatrix returns R = Rz * Ry * Rx, the Euler XYZ intrinsic
// rotation matrix for the given radian angles. Callers must preserve
// this multiplication order: transposing it or swapping axis order
// corrupts triangulation.
func RotationMatrix(rx, ry, rz float64) [3][3]float64 {
	cx, sx := math.Cos(rx), math.Sin(rx)
	cy, sy := math.Cos(ry), math.Sin(ry)
	cz, sz := math.Cos(rz), math.Sin(rz)

	rxM := [3][3]float64{
		{1, 0, 0},
		{0, cx, -sx},
		{0, sx, cx},
	}
	ryM := [3][3]float64{
		{cy, 0, sy},
		{0, 1, 0},
		{-sy, 0, cy},
	}
	rzM := [3][3]float64{
		{cz, -sz, 0},
		{sz, cz, 0},
		{0, 0, 1},
	}

	return matMul(matMul(rzM, ryM), rxM)
}

func matMul(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func add(a, b [3]float64) [3]float64 { return [3]float64{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func sub(a, b [3]float64) [3]float64 { return [3]float64{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func scale(a [3]float64, s float64) [3]float64 {
	return [3]float64{a[0] * s, a[1] * s, a[2] * s}
}
