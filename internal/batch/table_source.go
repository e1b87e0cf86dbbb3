package batch

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/skyvoxel/skyvoxel/internal/geometry"
)

// TableSource batches the oldest pending row per camera from the
// sensor_data table, trims the batch to its largest-window-in-threshold
// subset, and marks the selected rows consumed.
type TableSource struct {
	db        *sql.DB
	threshold float64
	// SoftDelete marks selected rows is_deleted=1 instead of removing
	// them outright, preserving history for later inspection.
	SoftDelete bool
}

// NewTableSource builds a TableSource reading from db with the given
// window threshold (seconds).
func NewTableSource(db *sql.DB, threshold float64) *TableSource {
	return &TableSource{db: db, threshold: threshold}
}

// Batch pulls the oldest undeleted row per camera, ordered by
// timestamp, applies the largest-window selection, and deletes
// (hard or soft) the selected rows so they are not returned again.
func (s *TableSource) Batch(ctx context.Context) ([]geometry.RawSensorRecord, error) {
	// SQLite resolves the bare row_id/timestamp/... columns alongside
	// MIN(timestamp) to the row that produced the minimum, per camera --
	// the same "oldest row per group" idiom the original batcher uses.
	rows, err := s.db.QueryContext(ctx, `
		SELECT row_id, camera_id, timestamp, latitude, longitude, altitude,
		       rotation_x, rotation_y, rotation_z, fov, image_path, MIN(timestamp)
		FROM sensor_data
		WHERE is_deleted = 0
		GROUP BY camera_id
		ORDER BY timestamp ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query sensor_data: %w", err)
	}
	defer rows.Close()

	var rowIDs []int64
	var timestamps []float64
	var records []geometry.RawSensorRecord

	for rows.Next() {
		var rowID int64
		var rec geometry.RawSensorRecord
		var minTimestamp float64
		if err := rows.Scan(&rowID, &rec.CamID, &rec.Timestamp, &rec.Latitude, &rec.Longitude, &rec.Altitude,
			&rec.RotationX, &rec.RotationY, &rec.RotationZ, &rec.FOVDegrees, &rec.MaskPath, &minTimestamp); err != nil {
			return nil, fmt.Errorf("scan sensor_data row: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
		timestamps = append(timestamps, rec.Timestamp)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sensor_data rows: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	left, right := FindLargestWindowInThreshold(timestamps, s.threshold)
	selected := records[left : right+1]
	selectedRowIDs := rowIDs[left : right+1]

	if err := s.consume(ctx, selectedRowIDs); err != nil {
		return nil, err
	}

	return selected, nil
}

func (s *TableSource) consume(ctx context.Context, rowIDs []int64) error {
	query := "DELETE FROM sensor_data WHERE row_id = ?"
	if s.SoftDelete {
		query = "UPDATE sensor_data SET is_deleted = 1 WHERE row_id = ?"
	}
	for _, id := range rowIDs {
		if _, err := s.db.ExecContext(ctx, query, id); err != nil {
			return fmt.Errorf("consume sensor_data row %d: %w", id, err)
		}
	}
	return nil
}
