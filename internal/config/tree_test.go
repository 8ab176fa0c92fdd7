package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/spatial/r3"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return path
}

func TestDefaultsFileMatchesGetters(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	empty := EmptyTreeConfig()

	if diff := cmp.Diff(empty.GrowthParams(), cfg.GrowthParams()); diff != "" {
		t.Errorf("GrowthParams mismatch (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(empty.RadiusParams(), cfg.RadiusParams()); diff != "" {
		t.Errorf("RadiusParams mismatch (-getters +file):\n%s", diff)
	}
	if diff := cmp.Diff(empty.SolidOptions(), cfg.SolidOptions()); diff != "" {
		t.Errorf("SolidOptions mismatch (-getters +file):\n%s", diff)
	}
	if cfg.GetVoxelSize() != empty.GetVoxelSize() {
		t.Errorf("GetVoxelSize() = %v, want %v", cfg.GetVoxelSize(), empty.GetVoxelSize())
	}
	if _, ok := cfg.GetSeed(); ok {
		t.Error("defaults file should leave the seed unset")
	}
}

func TestEmptyConfigMatchesDomainDefaults(t *testing.T) {
	cfg := EmptyTreeConfig()

	want := skeleton.DefaultGrowthParams()
	want.RootDirection = r3.Vec{Y: 1}
	if diff := cmp.Diff(want, cfg.GrowthParams()); diff != "" {
		t.Errorf("GrowthParams mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(skeleton.DefaultRadiusParams(), cfg.RadiusParams()); diff != "" {
		t.Errorf("RadiusParams mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTreeConfig(t *testing.T) {
	path := writeConfig(t, "tree.json", `{
  "branch_length": 0.1,
  "kill_range": 0.3,
  "attraction_range": 2.5,
  "random_factor": 0.4,
  "iteration_cap": 50,
  "seed": 7,
  "root_start": [1, 2, 3],
  "enable_leaves": true,
  "leaf_path": "needle.ply"
}`)

	cfg, err := LoadTreeConfig(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	p := cfg.GrowthParams()
	if p.BranchLength != 0.1 || p.KillRange != 0.3 || p.AttractionRange != 2.5 {
		t.Errorf("unexpected ranges: %+v", p)
	}
	if p.RandomFactor != 0.4 {
		t.Errorf("RandomFactor = %v, want 0.4", p.RandomFactor)
	}
	if p.IterationCap != 50 {
		t.Errorf("IterationCap = %d, want 50", p.IterationCap)
	}
	if p.RootStart != (r3.Vec{X: 1, Y: 2, Z: 3}) {
		t.Errorf("RootStart = %v", p.RootStart)
	}
	if seed, ok := cfg.GetSeed(); !ok || seed != 7 {
		t.Errorf("GetSeed() = %d, %v; want 7, true", seed, ok)
	}
	if !cfg.GetEnableLeaves() {
		t.Error("GetEnableLeaves() = false, want true")
	}
	if cfg.GetLeafPath() != "needle.ply" {
		t.Errorf("GetLeafPath() = %q", cfg.GetLeafPath())
	}
	// Omitted fields keep their defaults.
	if cfg.GetConeSteps() != 16 {
		t.Errorf("GetConeSteps() = %d, want 16", cfg.GetConeSteps())
	}
}

func TestLoadTreeConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantSub string
	}{
		{"wrong extension", "tree.yaml", `{}`, ".json extension"},
		{"invalid JSON", "tree.json", `{"branch_length": "long"`, "parse config JSON"},
		{"fails validation", "tree.json", `{"kill_range": 0.1}`, "invalid configuration"},
		{"oversized", "tree.json", `{"pad": "` + strings.Repeat("x", 1024*1024) + `"}`, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadTreeConfig(path)
			if err == nil || !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("LoadTreeConfig() error = %v, want substring %q", err, tt.wantSub)
			}
		})
	}
}

func TestLoadTreeConfigMissing(t *testing.T) {
	_, err := LoadTreeConfig("/nonexistent/path/to/tree.json")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *TreeConfig
		wantErr bool
	}{
		{"empty config is valid", &TreeConfig{}, false},
		{"explicit valid ranges", &TreeConfig{BranchLength: ptrFloat64(1), KillRange: ptrFloat64(2), AttractionRange: ptrFloat64(3)}, false},
		{"zero branch length", &TreeConfig{BranchLength: ptrFloat64(0)}, true},
		{"kill range equals branch length", &TreeConfig{KillRange: ptrFloat64(0.2)}, true},
		{"attraction range below kill range", &TreeConfig{AttractionRange: ptrFloat64(0.4)}, true},
		{"branch length above default kill range", &TreeConfig{BranchLength: ptrFloat64(0.6)}, true},
		{"negative random factor", &TreeConfig{RandomFactor: ptrFloat64(-1)}, true},
		{"zero iteration cap", &TreeConfig{IterationCap: ptrInt(0)}, true},
		{"zero leaf radius", &TreeConfig{LeafRadius: ptrFloat64(0)}, true},
		{"negative inverted growth", &TreeConfig{InvertedGrowth: ptrFloat64(-2)}, true},
		{"too few sphere steps", &TreeConfig{SphereSteps: ptrInt(2)}, true},
		{"too few cone steps", &TreeConfig{ConeSteps: ptrInt(1)}, true},
		{"zero leaf scale", &TreeConfig{EnableLeaves: ptrBool(true), LeafScale: ptrFloat64(0)}, true},
		{"negative voxel size", &TreeConfig{VoxelSize: ptrFloat64(-0.1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProjectedParamsAreAccepted(t *testing.T) {
	cfg := &TreeConfig{
		BranchLength:    ptrFloat64(0.05),
		KillRange:       ptrFloat64(0.1),
		AttractionRange: ptrFloat64(0.4),
		SphereSteps:     ptrInt(3),
		EnableLeaves:    ptrBool(true),
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
	if err := cfg.GrowthParams().Validate(); err != nil {
		t.Errorf("GrowthParams().Validate() = %v", err)
	}
	if err := cfg.RadiusParams().Validate(); err != nil {
		t.Errorf("RadiusParams().Validate() = %v", err)
	}
	if err := cfg.SolidOptions().Validate(); err != nil {
		t.Errorf("SolidOptions().Validate() = %v", err)
	}
}
