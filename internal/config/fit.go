package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
)

// DefaultConfigPath is the path to the canonical fit defaults file.
const DefaultConfigPath = "config/fit.defaults.json"

// FitConfig is the on-disk form of the fitting parameters. Every field is
// optional; the Get* methods fall back to the package defaults of rdc.
type FitConfig struct {
	// Solver params
	MaxAttempts   *int     `json:"max_attempts,omitempty"`
	RankTolerance *float64 `json:"rank_tolerance,omitempty"`
	Seed          *uint64  `json:"seed,omitempty"`

	// Tensor params
	GlobalScale       *float64 `json:"global_scale,omitempty"`
	ReferenceMaxRDC   *float64 `json:"reference_max_rdc,omitempty"`
	RotationTolerance *float64 `json:"rotation_tolerance,omitempty"`

	// TimeBudget bounds a whole fit; duration string like "30s". Empty or
	// "0" means no deadline.
	TimeBudget *string `json:"time_budget,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrUint64(v uint64) *uint64    { return &v }

// EmptyFitConfig returns a FitConfig with all fields unset.
func EmptyFitConfig() *FitConfig {
	return &FitConfig{}
}

// LoadFitConfig loads a FitConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted
// from the file keep their defaults.
func LoadFitConfig(path string) (*FitConfig, error) {
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

	cfg := EmptyFitConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents up to the repository root. Panics if the file
// cannot be loaded; intended for test setup.
func MustLoadDefaultConfig() *FitConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,    // from cmd/
		"../../" + DefaultConfigPath, // from internal/config/, cmd/rdcfit/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadFitConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that every set value is usable.
func (c *FitConfig) Validate() error {
	if c.MaxAttempts != nil && *c.MaxAttempts < 1 {
		return fmt.Errorf("max_attempts must be at least 1, got %d", *c.MaxAttempts)
	}
	if c.RankTolerance != nil && !(*c.RankTolerance > 0 && *c.RankTolerance < 1) {
		return fmt.Errorf("rank_tolerance must be in (0, 1), got %g", *c.RankTolerance)
	}
	if c.GlobalScale != nil && !(*c.GlobalScale > 0 && *c.GlobalScale <= 1) {
		return fmt.Errorf("global_scale must be in (0, 1], got %g", *c.GlobalScale)
	}
	if c.ReferenceMaxRDC != nil && *c.ReferenceMaxRDC == 0 {
		return fmt.Errorf("reference_max_rdc must be non-zero")
	}
	if c.RotationTolerance != nil && !(*c.RotationTolerance > 0) {
		return fmt.Errorf("rotation_tolerance must be positive, got %g", *c.RotationTolerance)
	}
	if c.TimeBudget != nil && *c.TimeBudget != "" {
		d, err := time.ParseDuration(*c.TimeBudget)
		if err != nil {
			return fmt.Errorf("invalid time_budget '%s': %w", *c.TimeBudget, err)
		}
		if d < 0 {
			return fmt.Errorf("time_budget must be non-negative, got %s", d)
		}
	}
	return nil
}

// GetMaxAttempts returns the max_attempts value or the default.
func (c *FitConfig) GetMaxAttempts() int {
	if c.MaxAttempts == nil {
		return rdc.DefaultMaxAttempts
	}
	return *c.MaxAttempts
}

// GetRankTolerance returns the rank_tolerance value or the default.
func (c *FitConfig) GetRankTolerance() float64 {
	if c.RankTolerance == nil {
		return rdc.DefaultRankTolerance
	}
	return *c.RankTolerance
}

// GetSeed returns the seed value or the default.
func (c *FitConfig) GetSeed() uint64 {
	if c.Seed == nil {
		return rdc.DefaultSeed
	}
	return *c.Seed
}

// GetGlobalScale returns the global_scale value or the default.
func (c *FitConfig) GetGlobalScale() float64 {
	if c.GlobalScale == nil {
		return 1
	}
	return *c.GlobalScale
}

// GetReferenceMaxRDC returns the reference_max_rdc value or the default.
func (c *FitConfig) GetReferenceMaxRDC() float64 {
	if c.ReferenceMaxRDC == nil {
		return rdc.DefaultReferenceMaxRDC
	}
	return *c.ReferenceMaxRDC
}

// GetRotationTolerance returns the rotation_tolerance value or the default.
func (c *FitConfig) GetRotationTolerance() float64 {
	if c.RotationTolerance == nil {
		return rdc.DefaultRotationTolerance
	}
	return *c.RotationTolerance
}

// GetTimeBudget parses TimeBudget; zero means unbounded.
func (c *FitConfig) GetTimeBudget() time.Duration {
	if c.TimeBudget == nil || *c.TimeBudget == "" {
		return 0
	}
	d, err := time.ParseDuration(*c.TimeBudget)
	if err != nil {
		return 0
	}
	return d
}

// FitOptions converts the configuration into pipeline options.
func (c *FitConfig) FitOptions() rdc.FitOptions {
	return rdc.FitOptions{
		Solver: rdc.SolverConfig{
			MaxAttempts:   c.GetMaxAttempts(),
			RankTolerance: c.GetRankTolerance(),
			Seed:          c.GetSeed(),
		},
		Scale:             c.GetGlobalScale(),
		ReferenceMaxRDC:   c.GetReferenceMaxRDC(),
		RotationTolerance: c.GetRotationTolerance(),
	}
}

// Override applies explicitly set command-line values on top of c.
// Only non-nil arguments replace the loaded values.
func (c *FitConfig) Override(maxAttempts *int, seed *uint64, scale *float64) {
	if maxAttempts != nil {
		c.MaxAttempts = ptrInt(*maxAttempts)
	}
	if seed != nil {
		c.Seed = ptrUint64(*seed)
	}
	if scale != nil {
		c.GlobalScale = ptrFloat64(*scale)
	}
}
