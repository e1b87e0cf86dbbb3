// Package api exposes the grid parameter-update control endpoint over
// HTTP, grounded on the lidar monitor subsystem's GET/POST config
// handler shape.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/skyvoxel/skyvoxel/internal/voxel"
)

// GridAPI exposes the voxel grid's reconfiguration endpoint.
type GridAPI struct {
	tracer *voxel.Tracer
	mu     sync.Mutex
}

// NewGridAPI builds a GridAPI controlling tracer.
func NewGridAPI(tracer *voxel.Tracer) *GridAPI {
	return &GridAPI{tracer: tracer}
}

// RegisterRoutes registers the grid API route on mux.
func (api *GridAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/grid", api.handleGrid)
}

// GridUpdateRequest is the wire shape for reconfiguring the grid:
// bottom-left/top-right corners (lat, lon), a height in metres, and a
// per-axis voxel resolution.
type GridUpdateRequest struct {
	GridMin    [2]float64 `json:"grid_min"`
	GridMax    [2]float64 `json:"grid_max"`
	Height     float64    `json:"height"`
	Resolution [3]int     `json:"resolution"`
}

// GridUpdateResponse echoes the grid configuration actually applied.
type GridUpdateResponse struct {
	GridMin    [3]float64 `json:"grid_min"`
	GridMax    [3]float64 `json:"grid_max"`
	Resolution [3]int     `json:"resolution"`
}

func (api *GridAPI) handleGrid(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		api.handleGetGrid(w)
	case http.MethodPut:
		api.handleUpdateGrid(w, r)
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed; use GET or PUT")
	}
}

func (api *GridAPI) handleGetGrid(w http.ResponseWriter) {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.writeGridLocked(w)
}

// writeGridLocked writes the current grid configuration. Callers must
// already hold api.mu.
func (api *GridAPI) writeGridLocked(w http.ResponseWriter) {
	grid := api.tracer.Grid()
	writeJSON(w, GridUpdateResponse{
		GridMin:    grid.Min,
		GridMax:    grid.Max,
		Resolution: grid.Resolution,
	})
}

// handleUpdateGrid applies set_grid_size followed by set_grid_resolution,
// per the control-endpoint contract: on either step's rejection the
// previous bounds and resolution remain in effect and the rejection
// reason is reported.
func (api *GridAPI) handleUpdateGrid(w http.ResponseWriter, r *http.Request) {
	var req GridUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
		return
	}

	api.mu.Lock()
	defer api.mu.Unlock()

	min := [3]float64{req.GridMin[0], req.GridMin[1], 0}
	max := [3]float64{req.GridMax[0], req.GridMax[1], req.Height}
	prevMin, prevMax := api.tracer.Grid().Min, api.tracer.Grid().Max

	if err := api.tracer.SetGridSize(min, max); err != nil {
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("rejected grid size: %v", err))
		return
	}
	if err := api.tracer.SetGridResolution(req.Resolution); err != nil {
		// Restore the bounds the size step already replaced.
		_ = api.tracer.SetGridSize(prevMin, prevMax)
		writeJSONError(w, http.StatusBadRequest, fmt.Sprintf("rejected grid resolution: %v", err))
		return
	}

	api.writeGridLocked(w)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
