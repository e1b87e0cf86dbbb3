package tracker

import "testing"

func TestTrackAssignsNewIDsWhenFarApart(t *testing.T) {
	tr := New(5.0, 3)
	ids := tr.Track([][3]float64{{0, 0, 0}, {100, 100, 100}}, 0)
	if ids[0] == ids[1] {
		t.Fatalf("expected distinct ids for far-apart centroids, got %v", ids)
	}
}

// Property 7: tracker stability under small consecutive offsets.
func TestTrackStabilityAcrossSmallOffsets(t *testing.T) {
	tr := New(5.0, 3)
	ids0 := tr.Track([][3]float64{{0, 0, 0}}, 0)
	ids1 := tr.Track([][3]float64{{1, 0, 0}}, 1)
	ids2 := tr.Track([][3]float64{{2, 0, 0}}, 2)

	if ids0[0] != ids1[0] || ids1[0] != ids2[0] {
		t.Fatalf("expected stable id across small offsets: %v %v %v", ids0, ids1, ids2)
	}
}

func TestTrackTieBreakPrefersLowestID(t *testing.T) {
	tr := New(6.0, 3)
	// id 0 at (0,0,0); id 1 at (10,0,0) -- distance 10 exceeds the gate
	// so the second centroid does not merge into the first.
	tr.Track([][3]float64{{0, 0, 0}}, 0)
	tr.Track([][3]float64{{10, 0, 0}}, 0)
	// (5,0,0) is equidistant (5) from both records; tie broken toward
	// the earlier (lower) id.
	ids := tr.Track([][3]float64{{5, 0, 0}}, 1)
	if ids[0] != 0 {
		t.Errorf("expected tie-break to favor id 0, got %d", ids[0])
	}
}

// Property 8: velocity formula.
func TestVelocityFormula(t *testing.T) {
	tr := New(5.0, 3)
	ids := tr.Track([][3]float64{{0, 0, 0}}, 0)
	tr.Track([][3]float64{{2, 0, 0}}, 1)

	v := tr.Velocity(ids)
	got := v[ids[0]]
	want := [3]float64{2, 0, 0}
	if got != want {
		t.Errorf("Velocity = %v, want %v", got, want)
	}
}

func TestVelocitySingleObservationIsZero(t *testing.T) {
	tr := New(5.0, 3)
	ids := tr.Track([][3]float64{{0, 0, 0}}, 0)
	v := tr.Velocity(ids)
	if v[ids[0]] != ([3]float64{}) {
		t.Errorf("expected zero velocity for a single observation, got %v", v[ids[0]])
	}
}

// E3: age-out.
func TestCleanupRemovesAgedOutTracks(t *testing.T) {
	tr := New(5.0, 2)
	ids := tr.Track([][3]float64{{0, 0, 0}}, 0)
	id := ids[0]

	// max_age empty ticks: the record survives while age <= max_age.
	for i := 0; i < 2; i++ {
		tr.Track(nil, float64(i+1))
		tr.Cleanup()
	}
	if pos := tr.Position([]int64{id}); len(pos) == 0 {
		t.Fatal("expected record to survive exactly max_age empty ticks")
	}

	// One more empty tick pushes age past max_age.
	tr.Track(nil, 3)
	tr.Cleanup()
	if pos := tr.Position([]int64{id}); len(pos) != 0 {
		t.Fatal("expected record to be removed after exceeding max_age")
	}

	// Re-introducing a nearby centroid allocates a fresh id.
	newIDs := tr.Track([][3]float64{{0.1, 0, 0}}, 4)
	if newIDs[0] == id {
		t.Error("expected a fresh id after age-out, not the old one")
	}
}

func TestFrameCountAdvancesOncePerCall(t *testing.T) {
	tr := New(5.0, 3)
	tr.Track([][3]float64{{0, 0, 0}, {1, 1, 1}, {2, 2, 2}}, 0)
	if tr.FrameCount() != 1 {
		t.Errorf("FrameCount() = %d, want 1 after a single Track() call with 3 centroids", tr.FrameCount())
	}
	tr.Track(nil, 1)
	if tr.FrameCount() != 2 {
		t.Errorf("FrameCount() = %d, want 2 after a Track() call with zero centroids", tr.FrameCount())
	}
}
