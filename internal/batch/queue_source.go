package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/skyvoxel/skyvoxel/internal/geometry"
)

// queueRecord is the wire shape read from the named-pipe JSON array
// source: nested orientation/position fields instead of the flat
// sensor_data columns.
type queueRecord struct {
	CameraID    int     `json:"camera_id"`
	Timestamp   float64 `json:"timestamp"`
	Orientation struct {
		Roll  float64 `json:"roll"`
		Pitch float64 `json:"pitch"`
		Yaw   float64 `json:"yaw"`
	} `json:"orientation"`
	Position struct {
		Latitude  float64 `json:"latitude"`
		Altitude  float64 `json:"altitude"`
		Longitude float64 `json:"longitude"`
	} `json:"position"`
	ImagePath string  `json:"image_path"`
	FOV       float64 `json:"fov"`
}

// QueueSource reads one JSON array batch per call from a named FIFO.
// Each call opens, reads, and closes the pipe: a blocked writer on the
// other end is the producer-side backpressure the continuous-mode
// concurrency model relies on.
type QueueSource struct {
	path string
}

// NewQueueSource builds a QueueSource reading from the named pipe at path.
func NewQueueSource(path string) *QueueSource {
	return &QueueSource{path: path}
}

// Batch reads and decodes the next JSON array from the pipe.
func (s *QueueSource) Batch(ctx context.Context) ([]geometry.RawSensorRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open queue source %q: %w", s.path, err)
	}
	defer f.Close()

	var wire []queueRecord
	if err := json.NewDecoder(f).Decode(&wire); err != nil {
		return nil, fmt.Errorf("decode queue source %q: %w", s.path, err)
	}

	records := make([]geometry.RawSensorRecord, len(wire))
	for i, q := range wire {
		records[i] = geometry.RawSensorRecord{
			CamID:      q.CameraID,
			Timestamp:  q.Timestamp,
			RotationX:  q.Orientation.Roll,
			RotationY:  q.Orientation.Pitch,
			RotationZ:  q.Orientation.Yaw,
			Latitude:   q.Position.Latitude,
			Longitude:  q.Position.Longitude,
			Altitude:   q.Position.Altitude,
			MaskPath:   q.ImagePath,
			FOVDegrees: q.FOV,
		}
	}
	return records, nil
}
