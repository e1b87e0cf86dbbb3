package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaultsFile(t *testing.T) {
	cfg := MustLoadDefaultConfig()

	if cfg.Resolution == nil {
		t.Fatal("Resolution must be set")
	}
	if cfg.Percentile == nil {
		t.Fatal("Percentile must be set")
	}
	if cfg.MinSamples == nil {
		t.Fatal("MinSamples must be set")
	}
	if cfg.MaxAssociationDistance == nil {
		t.Fatal("MaxAssociationDistance must be set")
	}
	if cfg.MaxAge == nil {
		t.Fatal("MaxAge must be set")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must validate: %v", err)
	}
}

func TestLoadTuningConfigRejectsNonJSONExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.txt")
	if err := os.WriteFile(path, []byte("{}"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadTuningConfig(path); err == nil {
		t.Fatal("expected error for non-.json extension")
	} else if !strings.Contains(err.Error(), ".json extension") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadTuningConfigPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	if err := os.WriteFile(path, []byte(`{"resolution": 64, "percentile": 95.0}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := LoadTuningConfig(path)
	if err != nil {
		t.Fatalf("LoadTuningConfig: %v", err)
	}
	if got := cfg.GetResolution(); got != 64 {
		t.Errorf("GetResolution() = %d, want 64", got)
	}
	if got := cfg.GetPercentile(); got != 95.0 {
		t.Errorf("GetPercentile() = %f, want 95.0", got)
	}
	// Untouched fields fall back to defaults.
	if got := cfg.GetMinSamples(); got != 3 {
		t.Errorf("GetMinSamples() = %d, want default 3", got)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		cfg  TuningConfig
	}{
		{"resolution", TuningConfig{Resolution: ptrInt(0)}},
		{"percentile-low", TuningConfig{Percentile: ptrFloat64(-1)}},
		{"percentile-high", TuningConfig{Percentile: ptrFloat64(101)}},
		{"min-samples", TuningConfig{MinSamples: ptrInt(0)}},
		{"max-association-distance", TuningConfig{MaxAssociationDistance: ptrFloat64(-5)}},
		{"max-age", TuningConfig{MaxAge: ptrInt64(-1)}},
		{"window-threshold", TuningConfig{WindowThresholdSeconds: ptrFloat64(0)}},
		{"grid-x-inverted", TuningConfig{GridMinX: ptrFloat64(10), GridMaxX: ptrFloat64(5)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestGridBoundsDefaultsAndOverrides(t *testing.T) {
	cfg := EmptyTuningConfig()
	min, max := cfg.GridBounds()
	if min != ([3]float64{-1000, -1000, 0}) {
		t.Errorf("default min = %v", min)
	}
	if max != ([3]float64{1000, 1000, 1000}) {
		t.Errorf("default max = %v", max)
	}

	cfg.GridMinX = ptrFloat64(-50)
	cfg.GridMaxX = ptrFloat64(50)
	min, max = cfg.GridBounds()
	if min[0] != -50 || max[0] != 50 {
		t.Errorf("override not applied: min=%v max=%v", min, max)
	}
}
