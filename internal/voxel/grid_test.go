package voxel

import "testing"

func TestNewGridRejectsInvertedBounds(t *testing.T) {
	_, err := NewGrid([3]float64{0, 0, 0}, [3]float64{-1, 1, 1}, [3]int{1, 1, 1})
	if err == nil {
		t.Fatal("expected error for inverted axis 0 bounds")
	}
}

func TestNewGridRejectsNonPositiveResolution(t *testing.T) {
	_, err := NewGrid([3]float64{0, 0, 0}, [3]float64{1, 1, 1}, [3]int{0, 1, 1})
	if err == nil {
		t.Fatal("expected error for zero resolution")
	}
}

func TestAddGridDataAccumulates(t *testing.T) {
	g, err := NewGrid([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, [3]int{10, 10, 10})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	g.AddGridData([][3]int{{1, 2, 3}, {1, 2, 3}}, []uint8{5, 7})
	if got := g.Cells[g.Index(1, 2, 3)]; got != 12 {
		t.Errorf("accumulated cell = %d, want 12", got)
	}
}

// Property 5: clear after any sequence of AddGridData returns cells to
// zero.
func TestClearIsIdempotentAfterAccumulation(t *testing.T) {
	g, _ := NewGrid([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, [3]int{5, 5, 5})
	g.AddGridData([][3]int{{0, 0, 0}, {4, 4, 4}}, []uint8{1, 1})
	g.Clear()
	for i, v := range g.Cells {
		if v != 0 {
			t.Fatalf("cell %d = %d after Clear, want 0", i, v)
		}
	}
}

// Property/E5: reconfiguration clears the grid and matches new shape.
func TestSetGridResolutionClearsAndReshapes(t *testing.T) {
	g, _ := NewGrid([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, [3]int{5, 5, 5})
	g.AddGridData([][3]int{{1, 1, 1}}, []uint8{9})

	if err := g.SetGridResolution([3]int{2, 2, 2}); err != nil {
		t.Fatalf("SetGridResolution: %v", err)
	}
	if len(g.Cells) != 8 {
		t.Fatalf("len(Cells) = %d, want 8", len(g.Cells))
	}
	var sum uint64
	for _, v := range g.Cells {
		sum += v
	}
	if sum != 0 {
		t.Fatalf("sum(Cells) = %d after reconfiguration, want 0", sum)
	}
}

func TestSetGridSizeKeepResolutionPreservesApproxVoxelSize(t *testing.T) {
	g, _ := NewGrid([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, [3]int{10, 10, 10})
	// voxel size is 1 on every axis; doubling the extent should double
	// resolution to keep voxel size ~1.
	if err := g.SetGridSizeKeepResolution([3]float64{0, 0, 0}, [3]float64{20, 20, 20}); err != nil {
		t.Fatalf("SetGridSizeKeepResolution: %v", err)
	}
	if g.Resolution != ([3]int{20, 20, 20}) {
		t.Errorf("Resolution = %v, want (20,20,20)", g.Resolution)
	}
}

func TestSetGridSizeRejectsInvalidAndKeepsPreviousGrid(t *testing.T) {
	g, _ := NewGrid([3]float64{0, 0, 0}, [3]float64{10, 10, 10}, [3]int{5, 5, 5})
	prevMin, prevMax := g.Min, g.Max
	err := g.SetGridSize([3]float64{5, 0, 0}, [3]float64{5, 10, 10})
	if err == nil {
		t.Fatal("expected error for non-positive extent on axis 0")
	}
	if g.Min != prevMin || g.Max != prevMax {
		t.Error("previous grid bounds must remain after a rejected reconfiguration")
	}
}
