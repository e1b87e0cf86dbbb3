// Package pipeline wires CameraGeometry, RayBuilder, the voxel tracer,
// percentile extraction, clustering, and cluster tracking into the
// per-tick detection-and-tracking orchestrator.
package pipeline

import (
	"context"
	"math"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/skyvoxel/skyvoxel/internal/cluster"
	"github.com/skyvoxel/skyvoxel/internal/geometry"
	"github.com/skyvoxel/skyvoxel/internal/percentile"
	"github.com/skyvoxel/skyvoxel/internal/raygen"
	"github.com/skyvoxel/skyvoxel/internal/timeutil"
	"github.com/skyvoxel/skyvoxel/internal/tracker"
	"github.com/skyvoxel/skyvoxel/internal/voxel"
)

// ObjectRecord is the pipeline's emitted result: a tracked object's
// position and velocity at the tick's average timestamp.
type ObjectRecord struct {
	ID        int64
	Timestamp float64
	Position  [3]float64
	Velocity  [3]float64
}

// CameraInput bundles one camera's raw pose with its already-decoded
// motion mask. Decoding image files is the caller's responsibility;
// CameraGeometry and RayBuilder stay free of file I/O.
type CameraInput struct {
	Record geometry.RawSensorRecord
	Mask   *raygen.MotionMask
}

// DebugRecorder receives per-tick counters for observability. Optional;
// the pipeline works fine with a nil recorder.
type DebugRecorder interface {
	RecordTick(info TickInfo)
}

// TickInfo summarizes one tick for a DebugRecorder.
type TickInfo struct {
	TickID        string
	FrameCount    int64
	CamerasSeen   int
	CamerasSkipped int
	VoxelsEmitted int
	ClustersFound int
	TracksActive  int
}

// OnTickFunc is an optional extension point invoked after every tick
// with the grid state (before it is cleared) and the emitted records,
// e.g. for an out-of-tree live visualiser. It must not mutate grid.
type OnTickFunc func(grid *voxel.Grid, records []ObjectRecord)

// Pipeline owns the VoxelTracer and ClusterTracker for one detection
// instance. A Pipeline is not safe for concurrent use: the caller must
// ensure only one goroutine calls Tick at a time (see Run for the
// continuous-mode single-consumer loop).
type Pipeline struct {
	tracer     *voxel.Tracer
	tracker    *tracker.Tracker
	percentile float64
	minSamples int
	onTick     OnTickFunc
	debug      DebugRecorder
}

// New builds a Pipeline over the given tracer and tracker, extracting
// at the given percentile with the given DBSCAN min_samples.
func New(tracer *voxel.Tracer, trk *tracker.Tracker, percentile float64, minSamples int) *Pipeline {
	return &Pipeline{
		tracer:     tracer,
		tracker:    trk,
		percentile: percentile,
		minSamples: minSamples,
	}
}

// SetOnTick installs an optional post-tick hook.
func (p *Pipeline) SetOnTick(fn OnTickFunc) { p.onTick = fn }

// SetDebugRecorder installs an optional per-tick debug recorder.
func (p *Pipeline) SetDebugRecorder(r DebugRecorder) { p.debug = r }

// Tick runs one end-to-end pass over a non-empty batch of camera
// inputs: geometry -> rays -> DDA accumulation -> percentile
// extraction -> clustering -> tracking -> ObjectRecords. Callers own
// deciding whether to invoke Tick at all when a batch is empty (see
// Run); Tick itself always advances the tracker exactly once.
func (p *Pipeline) Tick(ctx context.Context, batch []CameraInput) []ObjectRecord {
	tickID := uuid.NewString()
	avgTimestamp := averageTimestamp(batch)

	camerasSkipped := 0
	for _, input := range batch {
		width, height := input.Mask.Width, input.Mask.Height
		cam := geometry.Process(input.Record, width, height)

		rays, ok := raygen.Build(cam, input.Mask)
		if !ok {
			camerasSkipped++
			tracef("tick %s: camera %d has no motion, skipping", tickID, input.Record.CamID)
			continue
		}

		voxels, weights := p.tracer.RaycastBatch(rays)
		p.tracer.AddGridData(voxels, weights)

		if input.Record.MaskPath != "" {
			if err := os.Remove(input.Record.MaskPath); err != nil {
				tracef("tick %s: consumed mask %q not removed: %v", tickID, input.Record.MaskPath, err)
			}
		}
	}

	grid := p.tracer.Grid()
	indices, found := percentile.Extract(grid, p.percentile)
	if !found {
		opsf("tick %s: percentile extraction empty, skipping batch", tickID)
		p.tracer.Clear()
		p.tracker.Track(nil, avgTimestamp)
		p.tracker.Cleanup()
		p.recordDebug(tickID, len(batch), camerasSkipped, 0, 0)
		if p.onTick != nil {
			p.onTick(grid, nil)
		}
		return nil
	}

	points := percentile.ToPoints(grid, indices)
	clusterPoints := make([]cluster.Point, len(points))
	for i, pt := range points {
		clusterPoints[i] = cluster.Point(pt)
	}

	eps := math.Sqrt(3) * grid.RepresentativeVoxelEdge()
	centroids := cluster.Cluster(clusterPoints, eps, p.minSamples)

	centroidVecs := make([][3]float64, len(centroids))
	for i, c := range centroids {
		centroidVecs[i] = [3]float64(c)
	}

	ids := p.tracker.Track(centroidVecs, avgTimestamp)
	positions := p.tracker.Position(ids)
	velocities := p.tracker.Velocity(ids)

	records := make([]ObjectRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, ObjectRecord{
			ID:        id,
			Timestamp: avgTimestamp,
			Position:  positions[id],
			Velocity:  velocities[id],
		})
	}

	p.tracker.Cleanup()
	p.recordDebug(tickID, len(batch), camerasSkipped, len(indices), len(centroids))

	if p.onTick != nil {
		p.onTick(grid, records)
	}
	p.tracer.Clear()

	return records
}

func (p *Pipeline) recordDebug(tickID string, camerasSeen, camerasSkipped, voxelsEmitted, clustersFound int) {
	diagf("tick %s: cameras=%d skipped=%d voxels=%d clusters=%d tracks=%d",
		tickID, camerasSeen, camerasSkipped, voxelsEmitted, clustersFound, len(p.tracker.ActiveIDs()))
	if p.debug != nil {
		p.debug.RecordTick(TickInfo{
			TickID:         tickID,
			FrameCount:     p.tracker.FrameCount(),
			CamerasSeen:    camerasSeen,
			CamerasSkipped: camerasSkipped,
			VoxelsEmitted:  voxelsEmitted,
			ClustersFound:  clustersFound,
			TracksActive:   len(p.tracker.ActiveIDs()),
		})
	}
}

func averageTimestamp(batch []CameraInput) float64 {
	if len(batch) == 0 {
		return 0
	}
	var sum float64
	for _, input := range batch {
		sum += input.Record.Timestamp
	}
	return sum / float64(len(batch))
}

// Batcher is the pipeline's upstream source of synchronized batches.
type Batcher interface {
	Batch(ctx context.Context) ([]CameraInput, error)
}

// Exporter is the pipeline's downstream sink for emitted records.
type Exporter interface {
	Export(ctx context.Context, records []ObjectRecord) error
}

// emptyPollInterval is how long Run waits before re-polling a source
// that returned an empty batch, avoiding a busy loop against sources
// like TableSource that return immediately when nothing is pending.
const emptyPollInterval = 200 * time.Millisecond

// Run drives the pipeline continuously: pull a batch, tick if
// non-empty, export, repeat, until ctx is cancelled. Cancellation is
// polled at tick boundaries only, matching the single-threaded,
// atomic-tick concurrency model. clock is used to back off between
// empty-batch polls; pass timeutil.RealClock{} in production.
func Run(ctx context.Context, p *Pipeline, batcher Batcher, exporter Exporter, clock timeutil.Clock) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		batch, err := batcher.Batch(ctx)
		if err != nil {
			opsf("batch source error: %v", err)
			clock.Sleep(emptyPollInterval)
			continue
		}
		if len(batch) == 0 {
			clock.Sleep(emptyPollInterval)
			continue
		}

		records := p.Tick(ctx, batch)

		if err := exporter.Export(ctx, records); err != nil {
			opsf("exporter error: %v", err)
		}
	}
}
