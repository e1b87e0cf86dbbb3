// Package export implements the pipeline's downstream sinks: CLI
// (stdout), SQLite (ProcessedData table), and named-FIFO JSON push.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/skyvoxel/skyvoxel/internal/pipeline"
	"github.com/skyvoxel/skyvoxel/internal/units"
)

// CLIExporter writes one line per emitted record to an io.Writer
// (stdout in normal operation). Velocities are converted from the
// pipeline's internal m/s to displayUnits for human-readable output;
// position and timestamp are never unit-converted.
type CLIExporter struct {
	w            io.Writer
	displayUnits string
}

// NewCLIExporter builds a CLIExporter writing to w, displaying
// velocity components in displayUnits (see package units for valid
// values; an unrecognised unit falls back to m/s).
func NewCLIExporter(w io.Writer, displayUnits string) *CLIExporter {
	return &CLIExporter{w: w, displayUnits: displayUnits}
}

// Export satisfies pipeline.Exporter.
func (e *CLIExporter) Export(ctx context.Context, records []pipeline.ObjectRecord) error {
	for _, r := range records {
		_, err := fmt.Fprintf(e.w, "id=%d t=%.3f pos=(%.3f,%.3f,%.3f) vel=(%.3f,%.3f,%.3f) %s\n",
			r.ID, r.Timestamp,
			r.Position[0], r.Position[1], r.Position[2],
			units.ConvertSpeed(r.Velocity[0], e.displayUnits),
			units.ConvertSpeed(r.Velocity[1], e.displayUnits),
			units.ConvertSpeed(r.Velocity[2], e.displayUnits),
			e.displayUnits)
		if err != nil {
			return fmt.Errorf("write cli record: %w", err)
		}
	}
	return nil
}

// SQLiteExporter appends each tick's records to the processed_data
// table. The table's camera_id column carries the tracked object's id,
// not a camera identifier: a naming quirk carried over from the
// original schema this system replaces.
type SQLiteExporter struct {
	db *sql.DB
}

// NewSQLiteExporter builds a SQLiteExporter writing into db.
func NewSQLiteExporter(db *sql.DB) *SQLiteExporter { return &SQLiteExporter{db: db} }

// Export satisfies pipeline.Exporter.
func (e *SQLiteExporter) Export(ctx context.Context, records []pipeline.ObjectRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin processed_data transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO processed_data
			(camera_id, timestamp, latitude, altitude, longitude, velocity_x, velocity_y, velocity_z)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare processed_data insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx, r.ID, r.Timestamp,
			r.Position[0], r.Position[2], r.Position[1],
			r.Velocity[0], r.Velocity[1], r.Velocity[2])
		if err != nil {
			return fmt.Errorf("insert processed_data row for id %d: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit processed_data transaction: %w", err)
	}
	return nil
}

// wireRecord is the FIFO exporter's JSON shape, matching the queue
// source's nested position convention.
type wireRecord struct {
	ID        int64   `json:"id"`
	Timestamp float64 `json:"timestamp"`
	Position  struct {
		Latitude  float64 `json:"latitude"`
		Altitude  float64 `json:"altitude"`
		Longitude float64 `json:"longitude"`
	} `json:"position"`
	Velocity struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
		Z float64 `json:"z"`
	} `json:"velocity"`
}

// FIFOExporter pushes one JSON array per tick into a named pipe.
type FIFOExporter struct {
	path string
}

// NewFIFOExporter builds a FIFOExporter writing to the named pipe at path.
func NewFIFOExporter(path string) *FIFOExporter { return &FIFOExporter{path: path} }

// Export satisfies pipeline.Exporter. A blocked reader on the other end
// of the pipe blocks this call, which is the producer-side
// backpressure the continuous-mode concurrency model assumes.
func (e *FIFOExporter) Export(ctx context.Context, records []pipeline.ObjectRecord) error {
	wire := make([]wireRecord, len(records))
	for i, r := range records {
		w := wireRecord{ID: r.ID, Timestamp: r.Timestamp}
		w.Position.Latitude = r.Position[0]
		w.Position.Longitude = r.Position[1]
		w.Position.Altitude = r.Position[2]
		w.Velocity.X = r.Velocity[0]
		w.Velocity.Y = r.Velocity[1]
		w.Velocity.Z = r.Velocity[2]
		wire[i] = w
	}

	f, err := os.OpenFile(e.path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open fifo exporter %q: %w", e.path, err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(wire); err != nil {
		return fmt.Errorf("encode fifo export %q: %w", e.path, err)
	}
	return nil
}
