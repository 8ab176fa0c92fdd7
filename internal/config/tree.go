package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/banshee-data/arbor/internal/mesh"
	"github.com/banshee-data/arbor/internal/mesher"
	"github.com/banshee-data/arbor/internal/skeleton"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultConfigPath is the path to the canonical tree defaults file.
const DefaultConfigPath = "config/tree.defaults.json"

// TreeConfig is the JSON tuning surface for a tree run. Every field is
// optional; the Get* methods supply the defaults for omitted fields, so
// partial files are safe.
type TreeConfig struct {
	// Growth
	BranchLength    *float64    `json:"branch_length,omitempty"`
	KillRange       *float64    `json:"kill_range,omitempty"`
	AttractionRange *float64    `json:"attraction_range,omitempty"`
	RandomFactor    *float64    `json:"random_factor,omitempty"`
	IterationCap    *int        `json:"iteration_cap,omitempty"`
	Seed            *uint64     `json:"seed,omitempty"` // unset means time based
	RootStart       *[3]float64 `json:"root_start,omitempty"`
	RootDirection   *[3]float64 `json:"root_direction,omitempty"`

	// Radii
	LeafRadius     *float64 `json:"leaf_radius,omitempty"`
	InvertedGrowth *float64 `json:"inverted_growth,omitempty"`

	// Solid mesh
	SphereSteps  *int     `json:"sphere_steps,omitempty"`
	ConeSteps    *int     `json:"cone_steps,omitempty"`
	EnableLeaves *bool    `json:"enable_leaves,omitempty"`
	LeafScale    *float64 `json:"leaf_scale,omitempty"`
	LeafPath     *string  `json:"leaf_path,omitempty"` // mesh file replacing the pine needle

	// Point source and output
	VoxelSize *float64 `json:"voxel_size,omitempty"` // 0 disables downsampling
	BinaryPLY *bool    `json:"binary_ply,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTreeConfig returns a TreeConfig with all fields set to nil.
func EmptyTreeConfig() *TreeConfig {
	return &TreeConfig{}
}

// LoadTreeConfig loads a TreeConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadTreeConfig(path string) (*TreeConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTreeConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *TreeConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadTreeConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the effective values, defaults included, so a partial file
// cannot pair an explicit value with an incompatible default.
func (c *TreeConfig) Validate() error {
	bl, kr, ar := c.GetBranchLength(), c.GetKillRange(), c.GetAttractionRange()
	if !(bl > 0) || math.IsInf(bl, 0) {
		return fmt.Errorf("branch_length must be positive, got %v", bl)
	}
	if !(kr > bl) {
		return fmt.Errorf("kill_range (%v) must exceed branch_length (%v)", kr, bl)
	}
	if !(ar > kr) || math.IsInf(ar, 0) {
		return fmt.Errorf("attraction_range (%v) must exceed kill_range (%v)", ar, kr)
	}
	if rf := c.GetRandomFactor(); !(rf >= 0) || math.IsInf(rf, 0) {
		return fmt.Errorf("random_factor must be non-negative, got %v", rf)
	}
	if n := c.GetIterationCap(); n <= 0 {
		return fmt.Errorf("iteration_cap must be positive, got %d", n)
	}
	if lr := c.GetLeafRadius(); !(lr > 0) || math.IsInf(lr, 0) {
		return fmt.Errorf("leaf_radius must be positive, got %v", lr)
	}
	if p := c.GetInvertedGrowth(); !(p > 0) || math.IsInf(p, 0) {
		return fmt.Errorf("inverted_growth must be positive, got %v", p)
	}
	if n := c.GetSphereSteps(); n < mesh.MinSteps {
		return fmt.Errorf("sphere_steps must be at least %d, got %d", mesh.MinSteps, n)
	}
	if n := c.GetConeSteps(); n < mesh.MinSteps {
		return fmt.Errorf("cone_steps must be at least %d, got %d", mesh.MinSteps, n)
	}
	if s := c.GetLeafScale(); !(s > 0) {
		return fmt.Errorf("leaf_scale must be positive, got %v", s)
	}
	if v := c.GetVoxelSize(); !(v >= 0) {
		return fmt.Errorf("voxel_size must be non-negative, got %v", v)
	}
	vectors := []struct {
		name string
		v    *[3]float64
	}{{"root_start", c.RootStart}, {"root_direction", c.RootDirection}}
	for _, vec := range vectors {
		if vec.v == nil {
			continue
		}
		for _, x := range vec.v {
			if math.IsNaN(x) || math.IsInf(x, 0) {
				return fmt.Errorf("%s must be finite, got %v", vec.name, *vec.v)
			}
		}
	}
	return nil
}

// GetBranchLength returns the branch_length value or the default.
func (c *TreeConfig) GetBranchLength() float64 {
	if c.BranchLength == nil {
		return 0.2
	}
	return *c.BranchLength
}

// GetKillRange returns the kill_range value or the default.
func (c *TreeConfig) GetKillRange() float64 {
	if c.KillRange == nil {
		return 0.5
	}
	return *c.KillRange
}

// GetAttractionRange returns the attraction_range value or the default.
func (c *TreeConfig) GetAttractionRange() float64 {
	if c.AttractionRange == nil {
		return 1.0
	}
	return *c.AttractionRange
}

// GetRandomFactor returns the random_factor value or the default.
func (c *TreeConfig) GetRandomFactor() float64 {
	if c.RandomFactor == nil {
		return 0
	}
	return *c.RandomFactor
}

// GetIterationCap returns the iteration_cap value or the default.
func (c *TreeConfig) GetIterationCap() int {
	if c.IterationCap == nil {
		return 1000000
	}
	return *c.IterationCap
}

// GetSeed returns the seed and whether one was configured.
func (c *TreeConfig) GetSeed() (uint64, bool) {
	if c.Seed == nil {
		return 0, false
	}
	return *c.Seed, true
}

// GetRootStart returns the trunk origin, the origin by default.
func (c *TreeConfig) GetRootStart() r3.Vec {
	if c.RootStart == nil {
		return r3.Vec{}
	}
	return r3.Vec{X: c.RootStart[0], Y: c.RootStart[1], Z: c.RootStart[2]}
}

// GetRootDirection returns the trunk heading, +Y by default.
func (c *TreeConfig) GetRootDirection() r3.Vec {
	if c.RootDirection == nil {
		return r3.Vec{Y: 1}
	}
	return r3.Vec{X: c.RootDirection[0], Y: c.RootDirection[1], Z: c.RootDirection[2]}
}

// GetLeafRadius returns the leaf_radius value or the default.
func (c *TreeConfig) GetLeafRadius() float64 {
	if c.LeafRadius == nil {
		return 0.02
	}
	return *c.LeafRadius
}

// GetInvertedGrowth returns the inverted_growth value or the default.
func (c *TreeConfig) GetInvertedGrowth() float64 {
	if c.InvertedGrowth == nil {
		return 2
	}
	return *c.InvertedGrowth
}

// GetSphereSteps returns the sphere_steps value or the default.
func (c *TreeConfig) GetSphereSteps() int {
	if c.SphereSteps == nil {
		return 5
	}
	return *c.SphereSteps
}

// GetConeSteps returns the cone_steps value or the default.
func (c *TreeConfig) GetConeSteps() int {
	if c.ConeSteps == nil {
		return 16
	}
	return *c.ConeSteps
}

// GetEnableLeaves returns the enable_leaves value or the default.
func (c *TreeConfig) GetEnableLeaves() bool {
	if c.EnableLeaves == nil {
		return false
	}
	return *c.EnableLeaves
}

// GetLeafScale returns the leaf_scale value or the default.
func (c *TreeConfig) GetLeafScale() float64 {
	if c.LeafScale == nil {
		return 0.05
	}
	return *c.LeafScale
}

// GetLeafPath returns the leaf fragment path, empty for the built-in needle.
func (c *TreeConfig) GetLeafPath() string {
	if c.LeafPath == nil {
		return ""
	}
	return *c.LeafPath
}

// GetVoxelSize returns the voxel_size value or the default.
func (c *TreeConfig) GetVoxelSize() float64 {
	if c.VoxelSize == nil {
		return 0
	}
	return *c.VoxelSize
}

// GetBinaryPLY returns the binary_ply value or the default.
func (c *TreeConfig) GetBinaryPLY() bool {
	if c.BinaryPLY == nil {
		return false
	}
	return *c.BinaryPLY
}

// GrowthParams projects the config onto the growth engine parameters.
func (c *TreeConfig) GrowthParams() skeleton.GrowthParams {
	return skeleton.GrowthParams{
		BranchLength:    c.GetBranchLength(),
		KillRange:       c.GetKillRange(),
		AttractionRange: c.GetAttractionRange(),
		RandomFactor:    c.GetRandomFactor(),
		IterationCap:    c.GetIterationCap(),
		RootStart:       c.GetRootStart(),
		RootDirection:   c.GetRootDirection(),
	}
}

// RadiusParams projects the config onto the radius propagator parameters.
func (c *TreeConfig) RadiusParams() skeleton.RadiusParams {
	return skeleton.RadiusParams{
		LeafRadius:     c.GetLeafRadius(),
		InvertedGrowth: c.GetInvertedGrowth(),
	}
}

// SolidOptions projects the config onto the solid mesher options. The leaf
// fragment itself is loaded by the caller from GetLeafPath.
func (c *TreeConfig) SolidOptions() mesher.SolidOptions {
	return mesher.SolidOptions{
		SphereSteps:  c.GetSphereSteps(),
		ConeSteps:    c.GetConeSteps(),
		EnableLeaves: c.GetEnableLeaves(),
		LeafScale:    c.GetLeafScale(),
	}
}
