package batch

import (
	"context"
	"fmt"

	"github.com/skyvoxel/skyvoxel/internal/geometry"
	"github.com/skyvoxel/skyvoxel/internal/pipeline"
)

// RawSource is the narrow interface both QueueSource and TableSource
// satisfy: producing a synchronized batch of raw sensor records,
// mask decoding not yet applied.
type RawSource interface {
	Batch(ctx context.Context) ([]geometry.RawSensorRecord, error)
}

// Adapter decodes each RawSource batch's mask files into
// pipeline.CameraInput, satisfying pipeline.Batcher. Cameras whose mask
// fails to decode are dropped from the batch and logged, matching the
// "mask unreadable: skip camera, no global raise" error-handling rule.
type Adapter struct {
	Source RawSource
}

// NewAdapter wraps a RawSource as a pipeline.Batcher.
func NewAdapter(source RawSource) *Adapter {
	return &Adapter{Source: source}
}

// Batch satisfies pipeline.Batcher.
func (a *Adapter) Batch(ctx context.Context) ([]pipeline.CameraInput, error) {
	raw, err := a.Source.Batch(ctx)
	if err != nil {
		return nil, fmt.Errorf("raw batch source: %w", err)
	}

	inputs := make([]pipeline.CameraInput, 0, len(raw))
	for _, rec := range raw {
		mask, err := decodeMask(rec.MaskPath)
		if err != nil {
			opsf("camera %d: mask %q unreadable, skipping: %v", rec.CamID, rec.MaskPath, err)
			continue
		}
		inputs = append(inputs, pipeline.CameraInput{Record: rec, Mask: mask})
	}
	return inputs, nil
}
