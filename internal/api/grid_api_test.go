package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/skyvoxel/skyvoxel/internal/testutil"
	"github.com/skyvoxel/skyvoxel/internal/voxel"
)

func newTestGridAPI(t *testing.T) *GridAPI {
	t.Helper()
	tracer, err := voxel.NewTracer([2]float64{0, 0}, [2]float64{10, 10}, 10, [3]int{5, 5, 5})
	if err != nil {
		t.Fatalf("NewTracer: %v", err)
	}
	return NewGridAPI(tracer)
}

func TestHandleGridGetReturnsCurrentConfig(t *testing.T) {
	api := newTestGridAPI(t)
	req := testutil.NewTestRequest(http.MethodGet, "/api/grid")
	rec := testutil.NewTestRecorder()

	api.handleGrid(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp GridUpdateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Resolution != [3]int{5, 5, 5} {
		t.Errorf("Resolution = %v, want [5 5 5]", resp.Resolution)
	}
}

func TestHandleGridPutAppliesSizeThenResolution(t *testing.T) {
	api := newTestGridAPI(t)
	body, _ := json.Marshal(GridUpdateRequest{
		GridMin:    [2]float64{1, 1},
		GridMax:    [2]float64{20, 20},
		Height:     50,
		Resolution: [3]int{8, 8, 8},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/grid", bytes.NewReader(body))
	rec := testutil.NewTestRecorder()

	api.handleGrid(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)

	var resp GridUpdateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.GridMin != [3]float64{1, 1, 0} || resp.GridMax != [3]float64{20, 20, 50} {
		t.Errorf("grid bounds not applied: min=%v max=%v", resp.GridMin, resp.GridMax)
	}
	if resp.Resolution != [3]int{8, 8, 8} {
		t.Errorf("Resolution = %v, want [8 8 8]", resp.Resolution)
	}
}

func TestHandleGridPutRejectsInvertedBoundsKeepsPreviousGrid(t *testing.T) {
	api := newTestGridAPI(t)
	body, _ := json.Marshal(GridUpdateRequest{
		GridMin:    [2]float64{20, 20},
		GridMax:    [2]float64{1, 1},
		Height:     50,
		Resolution: [3]int{8, 8, 8},
	})

	req := httptest.NewRequest(http.MethodPut, "/api/grid", bytes.NewReader(body))
	rec := testutil.NewTestRecorder()

	api.handleGrid(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	grid := api.tracer.Grid()
	if grid.Resolution != [3]int{5, 5, 5} {
		t.Errorf("expected previous grid retained after a rejected update, got resolution %v", grid.Resolution)
	}
}

func TestHandleGridRejectsUnsupportedMethod(t *testing.T) {
	api := newTestGridAPI(t)
	req := testutil.NewTestRequest(http.MethodDelete, "/api/grid")
	rec := testutil.NewTestRecorder()

	api.handleGrid(rec, req)
	testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
}
