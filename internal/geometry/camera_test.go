package geometry

import (
	"math"
	"testing"
)

func TestProcessSquareViewportBasis(t *testing.T) {
	raw := RawSensorRecord{
		CamID:      1,
		Latitude:   5,
		Longitude:  5,
		Altitude:   11,
		FOVDegrees: 90,
	}
	cam := Process(raw, 100, 100)

	// Square image, square fov -> pixel deltas have equal magnitude on
	// their respective axes.
	if math.Abs(math.Abs(cam.PixelDeltaU[0])-math.Abs(cam.PixelDeltaV[1])) > 1e-9 {
		t.Errorf("expected symmetric pixel deltas for square image, got u=%v v=%v", cam.PixelDeltaU, cam.PixelDeltaV)
	}
	if cam.PixelDeltaV[1] >= 0 {
		t.Errorf("pixel_delta_v y-component must be negative (image Y points down), got %v", cam.PixelDeltaV[1])
	}
	if cam.Position != raw.Position() {
		t.Errorf("Position = %v, want %v", cam.Position, raw.Position())
	}
}

func TestProcessWideAspectRatio(t *testing.T) {
	raw := RawSensorRecord{FOVDegrees: 60}
	cam := Process(raw, 1920, 1080)
	widthRatio := math.Abs(cam.PixelDeltaU[0]) * 1920
	heightRatio := math.Abs(cam.PixelDeltaV[1]) * 1080
	// viewport_width / viewport_height should equal width / height.
	if math.Abs(widthRatio/heightRatio-1920.0/1080.0) > 1e-6 {
		t.Errorf("viewport aspect ratio mismatch: %v vs %v", widthRatio/heightRatio, 1920.0/1080.0)
	}
}

func TestRotationMatrixIdentityAtZero(t *testing.T) {
	r := RotationMatrix(0, 0, 0)
	want := [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	if r != want {
		t.Errorf("RotationMatrix(0,0,0) = %v, want identity", r)
	}
}

func TestRotationMatrixOrderZYX(t *testing.T) {
	// A 90 degree yaw (about Z) should map the X axis to Y.
	r := RotationMatrix(0, 0, math.Pi/2)
	x := [3]float64{1, 0, 0}
	rotated := apply(r, x)
	if math.Abs(rotated[0]) > 1e-9 || math.Abs(rotated[1]-1) > 1e-9 {
		t.Errorf("90deg yaw of X axis = %v, want (0,1,0)", rotated)
	}

	// With 90deg roll and 90deg yaw, Rz*Ry*Rx sends Y to Z (Rx first);
	// the reversed order Rx*Ry*Rz would send Y to -X instead.
	r = RotationMatrix(math.Pi/2, 0, math.Pi/2)
	rotated = apply(r, [3]float64{0, 1, 0})
	if math.Abs(rotated[0]) > 1e-9 || math.Abs(rotated[1]) > 1e-9 || math.Abs(rotated[2]-1) > 1e-9 {
		t.Errorf("roll+yaw of Y axis = %v, want (0,0,1) for Rz*Ry*Rx order", rotated)
	}
}

func apply(r [3][3]float64, v [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = r[i][0]*v[0] + r[i][1]*v[1] + r[i][2]*v[2]
	}
	return out
}
