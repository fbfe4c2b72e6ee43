package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanalysis/nmrfx-sub023/internal/rdc"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyFitConfig_Defaults(t *testing.T) {
	cfg := EmptyFitConfig()

	assert.Equal(t, rdc.DefaultMaxAttempts, cfg.GetMaxAttempts())
	assert.Equal(t, rdc.DefaultRankTolerance, cfg.GetRankTolerance())
	assert.Equal(t, rdc.DefaultSeed, cfg.GetSeed())
	assert.Equal(t, 1.0, cfg.GetGlobalScale())
	assert.Equal(t, rdc.DefaultReferenceMaxRDC, cfg.GetReferenceMaxRDC())
	assert.Equal(t, rdc.DefaultRotationTolerance, cfg.GetRotationTolerance())
	assert.Zero(t, cfg.GetTimeBudget())
	assert.NoError(t, cfg.Validate())

	assert.Equal(t, rdc.DefaultFitOptions(), cfg.FitOptions())
}

func TestLoadFitConfig(t *testing.T) {
	path := writeConfig(t, "fit.json", `{
  "max_attempts": 25,
  "seed": 7,
  "global_scale": 0.5,
  "time_budget": "2s"
}`)

	cfg, err := LoadFitConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.GetMaxAttempts())
	assert.Equal(t, uint64(7), cfg.GetSeed())
	assert.Equal(t, 0.5, cfg.GetGlobalScale())
	assert.Equal(t, 2*time.Second, cfg.GetTimeBudget())
	// Unset fields keep their defaults.
	assert.Equal(t, rdc.DefaultRankTolerance, cfg.GetRankTolerance())

	opts := cfg.FitOptions()
	assert.Equal(t, 25, opts.Solver.MaxAttempts)
	assert.Equal(t, uint64(7), opts.Solver.Seed)
	assert.Equal(t, 0.5, opts.Scale)
}

func TestLoadFitConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{name: "wrong extension", file: "fit.yaml", body: "{}", wantErr: ".json extension"},
		{name: "bad json", file: "fit.json", body: "{", wantErr: "failed to parse"},
		{name: "zero attempts", file: "fit.json", body: `{"max_attempts": 0}`, wantErr: "max_attempts"},
		{name: "scale above one", file: "fit.json", body: `{"global_scale": 1.5}`, wantErr: "global_scale"},
		{name: "zero scale", file: "fit.json", body: `{"global_scale": 0}`, wantErr: "global_scale"},
		{name: "rank tolerance", file: "fit.json", body: `{"rank_tolerance": 2}`, wantErr: "rank_tolerance"},
		{name: "zero reference", file: "fit.json", body: `{"reference_max_rdc": 0}`, wantErr: "reference_max_rdc"},
		{name: "rotation tolerance", file: "fit.json", body: `{"rotation_tolerance": -1}`, wantErr: "rotation_tolerance"},
		{name: "bad duration", file: "fit.json", body: `{"time_budget": "soon"}`, wantErr: "time_budget"},
		{name: "negative duration", file: "fit.json", body: `{"time_budget": "-1s"}`, wantErr: "time_budget"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFitConfig(writeConfig(t, tt.file, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	_, err := LoadFitConfig(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadFitConfig_TooLarge(t *testing.T) {
	body := `{"seed": 1, "pad": "` + strings.Repeat("x", 1024*1024) + `"}`
	_, err := LoadFitConfig(writeConfig(t, "big.json", body))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too large")
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, rdc.DefaultMaxAttempts, cfg.GetMaxAttempts())
	assert.Equal(t, rdc.DefaultReferenceMaxRDC, cfg.GetReferenceMaxRDC())
	assert.Equal(t, 30*time.Second, cfg.GetTimeBudget())
}

func TestOverride(t *testing.T) {
	cfg := EmptyFitConfig()
	cfg.Seed = ptrUint64(3)

	attempts := 50
	scale := 0.25
	cfg.Override(&attempts, nil, &scale)

	assert.Equal(t, 50, cfg.GetMaxAttempts())
	assert.Equal(t, uint64(3), cfg.GetSeed(), "nil override keeps file value")
	assert.Equal(t, 0.25, cfg.GetGlobalScale())
}
