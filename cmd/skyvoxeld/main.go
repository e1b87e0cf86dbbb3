// Command skyvoxeld runs the voxel-fusion detection and tracking
// pipeline: it batches raw per-camera sensor records and motion masks,
// fuses them into a shared geographic voxel grid, extracts and tracks
// clusters, and exports the resulting object records.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/skyvoxel/skyvoxel/internal/api"
	"github.com/skyvoxel/skyvoxel/internal/batch"
	"github.com/skyvoxel/skyvoxel/internal/config"
	"github.com/skyvoxel/skyvoxel/internal/export"
	"github.com/skyvoxel/skyvoxel/internal/pipeline"
	"github.com/skyvoxel/skyvoxel/internal/skyvoxeldb"
	"github.com/skyvoxel/skyvoxel/internal/timeutil"
	"github.com/skyvoxel/skyvoxel/internal/tracker"
	"github.com/skyvoxel/skyvoxel/internal/units"
	"github.com/skyvoxel/skyvoxel/internal/version"
	"github.com/skyvoxel/skyvoxel/internal/voxel"
)

var (
	dbPathFlag    = flag.String("db-path", "sensor_data.db", "path to sqlite DB file")
	configFile    = flag.String("config", config.DefaultConfigPath, "path to JSON tuning configuration file")
	sourceMode    = flag.String("source", "table", "batch source: table (poll sensor_data) or queue (read a named pipe)")
	queuePathFlag = flag.String("queue-path", "", "named pipe path to read camera batches from (source=queue)")
	exportMode    = flag.String("export", "cli", "export sink: cli, sqlite, or fifo")
	exportPath    = flag.String("export-path", "", "named pipe path to write object records to (export=fifo)")
	unitsFlag     = flag.String("units", units.MPS, "speed units for the cli exporter's display (mps, mph, kmph)")
	listen        = flag.String("listen", "", "HTTP listen address for the grid control API (empty disables it)")
	once          = flag.Bool("once", false, "process a single batch and exit, instead of running continuously")
	versionFlag   = flag.Bool("version", false, "print version information and exit")
)

func main() {
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.SetOutput(os.Stdout)

	// Three-stream pipeline logging: SKYVOXEL_{OPS,DIAG,TRACE}_LOG env
	// vars, falling back to a single legacy stream when unset.
	var logFiles []*os.File
	opsPath := os.Getenv("SKYVOXEL_OPS_LOG")
	diagPath := os.Getenv("SKYVOXEL_DIAG_LOG")
	tracePath := os.Getenv("SKYVOXEL_TRACE_LOG")
	if opsPath != "" || diagPath != "" || tracePath != "" {
		openLog := func(path string) io.Writer {
			if path == "" {
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				log.Printf("warning: create directory for %s: %v", path, err)
				return nil
			}
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
			if err != nil {
				log.Printf("warning: open %s: %v", path, err)
				return nil
			}
			logFiles = append(logFiles, f)
			return f
		}
		pipeline.SetLogWriters(openLog(opsPath), openLog(diagPath), openLog(tracePath))
		batch.SetLogWriter(openLog(opsPath))
	} else if legacyPath := os.Getenv("SKYVOXEL_DEBUG_LOG"); legacyPath != "" {
		if err := os.MkdirAll(filepath.Dir(legacyPath), 0o755); err == nil {
			if f, err := os.OpenFile(legacyPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644); err == nil {
				logFiles = append(logFiles, f)
				pipeline.SetLegacyLogger(f)
				batch.SetLogWriter(f)
			} else {
				log.Printf("warning: failed to open debug log %s: %v", legacyPath, err)
			}
		}
	}
	defer func() {
		for _, f := range logFiles {
			if err := f.Close(); err != nil {
				log.Printf("warning: failed to close log file: %v", err)
			}
		}
	}()

	if *versionFlag {
		fmt.Printf("skyvoxeld v%s (git SHA: %s)\n", version.Version, version.GitSHA)
		os.Exit(0)
	}

	if !units.IsValid(*unitsFlag) {
		log.Fatalf("invalid -units %q: valid options are %s", *unitsFlag, units.GetValidUnitsString())
	}

	tuningCfg, err := config.LoadTuningConfig(*configFile)
	if err != nil {
		log.Fatalf("failed to load tuning config from %s: %v", *configFile, err)
	}
	log.Printf("loaded tuning configuration from %s", *configFile)
	log.Printf("skyvoxeld v%s (git SHA: %s)", version.Version, version.GitSHA)

	database, err := skyvoxeldb.Open(*dbPathFlag)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer database.Close()

	gridMin, gridMax := tuningCfg.GridBounds()
	resolution := tuningCfg.GetResolution()
	tracer, err := voxel.NewTracer(
		[2]float64{gridMin[0], gridMin[1]},
		[2]float64{gridMax[0], gridMax[1]},
		gridMax[2]-gridMin[2],
		[3]int{resolution, resolution, resolution},
	)
	if err != nil {
		log.Fatalf("failed to construct voxel grid: %v", err)
	}

	trk := tracker.New(tuningCfg.GetMaxAssociationDistance(), tuningCfg.GetMaxAge())
	p := pipeline.New(tracer, trk, tuningCfg.GetPercentile(), tuningCfg.GetMinSamples())

	batcher, err := buildBatcher(database.DB, tuningCfg)
	if err != nil {
		log.Fatalf("failed to construct batch source: %v", err)
	}

	exporter, err := buildExporter(database.DB, *unitsFlag)
	if err != nil {
		log.Fatalf("failed to construct exporter: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	if *listen != "" {
		gridAPI := api.NewGridAPI(tracer)
		mux := http.NewServeMux()
		gridAPI.RegisterRoutes(mux)

		server := &http.Server{Addr: *listen, Handler: mux}
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-ctx.Done()
			_ = server.Close()
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("grid control API listening on %s", *listen)
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("grid control API error: %v", err)
			}
		}()
	}

	if *once {
		batchInputs, err := batcher.Batch(ctx)
		if err != nil {
			log.Fatalf("batch source error: %v", err)
		}
		records := p.Tick(ctx, batchInputs)
		if err := exporter.Export(ctx, records); err != nil {
			log.Fatalf("exporter error: %v", err)
		}
		log.Printf("processed one batch, emitted %d records", len(records))
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := pipeline.Run(ctx, p, batcher, exporter, timeutil.RealClock{}); err != nil && err != context.Canceled {
			log.Printf("pipeline run error: %v", err)
		}
		log.Print("pipeline run terminated")
	}()

	wg.Wait()
	log.Printf("graceful shutdown complete")
}

func buildBatcher(db *sql.DB, tuningCfg *config.TuningConfig) (pipeline.Batcher, error) {
	switch *sourceMode {
	case "table":
		source := batch.NewTableSource(db, tuningCfg.GetWindowThresholdSeconds())
		return batch.NewAdapter(source), nil
	case "queue":
		if *queuePathFlag == "" {
			return nil, fmt.Errorf("source=queue requires -queue-path")
		}
		source := batch.NewQueueSource(*queuePathFlag)
		return batch.NewAdapter(source), nil
	default:
		return nil, fmt.Errorf("unknown -source %q (valid: table, queue)", *sourceMode)
	}
}

func buildExporter(db *sql.DB, displayUnits string) (pipeline.Exporter, error) {
	switch *exportMode {
	case "cli":
		return export.NewCLIExporter(os.Stdout, displayUnits), nil
	case "sqlite":
		return export.NewSQLiteExporter(db), nil
	case "fifo":
		if *exportPath == "" {
			return nil, fmt.Errorf("export=fifo requires -export-path")
		}
		return export.NewFIFOExporter(*exportPath), nil
	default:
		return nil, fmt.Errorf("unknown -export %q (valid: cli, sqlite, fifo)", *exportMode)
	}
}
