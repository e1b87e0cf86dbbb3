// Package tracker associates successive cluster centroids into
// persistent object tracks via greedy nearest-neighbour matching, with
// age-out and finite-difference velocity estimation.
package tracker

import (
	"math"
	"sort"
	"sync"
)

// Record is the observation history for one tracked object.
type Record struct {
	ID          int64
	Centroids   [][3]float64
	Timestamps  []float64
	LastUpdated int64
}

// Tracker is a stateful greedy nearest-neighbour cluster tracker. Not
// an optimal (bipartite) assignment: acceptable because cluster
// centroids are sparse relative to MaxDistance.
type Tracker struct {
	mu          sync.Mutex
	history     map[int64]*Record
	nextID      int64
	frameCount  int64
	maxDistance float64
	maxAge      int64
}

// New creates a Tracker with the given association gate (metres) and
// age-out threshold (ticks).
func New(maxDistance float64, maxAge int64) *Tracker {
	return &Tracker{
		history:     make(map[int64]*Record),
		maxDistance: maxDistance,
		maxAge:      maxAge,
	}
}

// Track associates each input centroid with an existing record (the
// minimum-distance match under MaxDistance, earliest id wins ties) or
// allocates a new one, and returns the matched/allocated id per input
// centroid in input order. frameCount advances by exactly one per
// call, regardless of how many centroids were supplied.
func (t *Tracker) Track(centroids [][3]float64, timestamp float64) []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.frameCount++
	ids := make([]int64, len(centroids))
	sortedIDs := t.sortedIDsLocked()

	for i, c := range centroids {
		bestID := int64(-1)
		bestDist := math.Inf(1)

		for _, id := range sortedIDs {
			rec := t.history[id]
			last := rec.Centroids[len(rec.Centroids)-1]
			d := distance(c, last)
			if d < t.maxDistance && d < bestDist {
				bestDist = d
				bestID = id
			}
		}

		if bestID >= 0 {
			rec := t.history[bestID]
			rec.Centroids = append(rec.Centroids, c)
			rec.Timestamps = append(rec.Timestamps, timestamp)
			rec.LastUpdated = t.frameCount
			ids[i] = bestID
			continue
		}

		id := t.nextID
		t.nextID++
		t.history[id] = &Record{
			ID:          id,
			Centroids:   [][3]float64{c},
			Timestamps:  []float64{timestamp},
			LastUpdated: t.frameCount,
		}
		ids[i] = id
		sortedIDs = append(sortedIDs, id) // newly allocated ids are candidates for this tick's later centroids
	}

	return ids
}

// Velocity returns, for each id with at least two observations, the
// two-point finite-difference velocity between its last two
// observations. Single-observation ids map to the zero vector.
// Unknown ids are omitted.
func (t *Tracker) Velocity(ids []int64) map[int64][3]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int64][3]float64, len(ids))
	for _, id := range ids {
		rec, ok := t.history[id]
		if !ok {
			continue
		}
		n := len(rec.Centroids)
		if n < 2 {
			out[id] = [3]float64{}
			continue
		}
		last := rec.Centroids[n-1]
		prev := rec.Centroids[n-2]
		dt := rec.Timestamps[n-1] - rec.Timestamps[n-2]
		var v [3]float64
		for axis := 0; axis < 3; axis++ {
			v[axis] = (last[axis] - prev[axis]) / dt
		}
		out[id] = v
	}
	return out
}

// Position returns the most recent centroid for each id. Unknown ids
// are omitted.
func (t *Tracker) Position(ids []int64) map[int64][3]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make(map[int64][3]float64, len(ids))
	for _, id := range ids {
		rec, ok := t.history[id]
		if !ok {
			continue
		}
		out[id] = rec.Centroids[len(rec.Centroids)-1]
	}
	return out
}

// Cleanup removes every record whose frameCount - LastUpdated exceeds
// MaxAge. Call once per tick, after that tick's emission, so removals
// only affect the following tick.
func (t *Tracker) Cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for id, rec := range t.history {
		if t.frameCount-rec.LastUpdated > t.maxAge {
			delete(t.history, id)
		}
	}
}

// FrameCount returns the number of Track() invocations so far.
func (t *Tracker) FrameCount() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameCount
}

// ActiveIDs returns every currently-tracked id, ascending.
func (t *Tracker) ActiveIDs() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sortedIDsLocked()
}

func (t *Tracker) sortedIDsLocked() []int64 {
	ids := make([]int64, 0, len(t.history))
	for id := range t.history {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func distance(a, b [3]float64) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	dz := a[2] - b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
