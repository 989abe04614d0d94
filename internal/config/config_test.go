package config_test

import (
	"runtime"
	"testing"
	"time"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("../../testdata/minimal.yaml", nil)
	require.NoError(t, err)

	require.Len(t, cfg.Configurations, 1)
	assert.Equal(t, "design_a", cfg.Configurations[0].ID)
	assert.Equal(t, "design_a", cfg.Configurations[0].DisplayName())
	assert.Equal(t, 820.0, cfg.Configurations[0].CostWeight)
	assert.Equal(t, config.Parameters{{Name: "num_rob_entries", Value: "64"}}, cfg.Configurations[0].Parameters)

	require.Len(t, cfg.Workloads, 1)
	assert.Equal(t, "qsort", cfg.Workloads[0].ID)

	s := cfg.Settings
	assert.Equal(t, "/bin/sh", s.Runner.Executable)
	assert.Equal(t, "out", s.Runner.OutputDir)
	assert.Equal(t, "-o", s.Runner.OutputFlag)
	assert.Equal(t, "--", s.Runner.ParamPrefix)
	assert.Equal(t, runtime.NumCPU(), s.Runner.Concurrency)
	assert.Equal(t, 10, s.Runner.Nice)
	assert.Equal(t, 6*time.Hour, s.Runner.JobTimeout)
	assert.Equal(t, "simulation.log", s.Runner.LogName)
	assert.Equal(t, config.LauncherProcess, s.Runner.Launcher)
	assert.Equal(t, "stats.txt", s.Extract.ReportFile)
	assert.Equal(t, 2.0, s.Extract.MaxIssueWidth)
	assert.Equal(t, "info", s.Logging.Level)
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("../../testdata/full.yaml", nil)
	require.NoError(t, err)

	require.Len(t, cfg.Configurations, 4)
	require.Len(t, cfg.Workloads, 9)
	assert.Equal(t, "dijkstra", cfg.Workloads[8].ID)

	a, ok := cfg.Configuration("design_a")
	require.True(t, ok)
	require.Len(t, a.Parameters, 13)
	assert.Equal(t, "fetch_width", a.Parameters[0].Name)
	assert.Equal(t, "sq_entries", a.Parameters[12].Name)
	pool, ok := a.Parameters.Get("fu_pool")
	require.True(t, ok)
	assert.Equal(t, "extended", pool)

	d, ok := cfg.Configuration("design_d")
	require.True(t, ok)
	assert.Equal(t, 4.0, d.MaxIssueWidth)

	_, ok = cfg.Configuration("design_z")
	assert.False(t, ok)
	assert.True(t, cfg.HasWorkload("qsort"))
	assert.False(t, cfg.HasWorkload("daxpy"))

	s := cfg.Settings
	assert.Equal(t, 4, s.Runner.Concurrency)
	assert.Equal(t, 2*time.Hour, s.Runner.JobTimeout)
	assert.Equal(t, 0.5, s.Runner.LaunchRate)
	assert.Len(t, s.Runner.ExecutableCandidates, 2)
	require.Len(t, s.Extract.Metrics, 1)
	assert.Equal(t, "robFullEvents", s.Extract.Metrics[0].Name)
	assert.Equal(t, []string{"system.cpu.rename.ROBFullEvents"}, s.Extract.Metrics[0].Stats)
	assert.Equal(t, "debug", s.Logging.Level)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("SIMSWEEP_RUNNER_CONCURRENCY", "7")
	cfg, err := config.Load("../../testdata/full.yaml", viper.New())
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Settings.Runner.Concurrency)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml", nil)
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := config.Load("../../testdata/invalid.yaml", nil)
	assert.Error(t, err)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	path := writeConfig(t, `
runner:
  launcher: slurm
configurations:
  - id: a
    cost_weight: 1
workloads: [w1]
`)
	_, err := config.Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown launcher")

	path = writeConfig(t, `
runner:
  launcher: container
configurations:
  - id: a
    cost_weight: 1
workloads: [w1]
`)
	_, err = config.Load(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image is required")
}

func TestLoadRejectsBadCatalog(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no configurations", "workloads: [w1]\n", "no configurations"},
		{"no workloads", "configurations:\n  - id: a\n    cost_weight: 1\n", "no workloads"},
		{"missing config id", "configurations:\n  - name: x\nworkloads: [w1]\n", "id is required"},
		{"negative cost", "configurations:\n  - id: a\n    cost_weight: -1\nworkloads: [w1]\n", "cost_weight"},
		{"missing cost", "configurations:\n  - id: a\nworkloads: [w1]\n", "cost_weight must be positive"},
		{"zero cost", "configurations:\n  - id: a\n    cost_weight: 0\nworkloads: [w1]\n", "cost_weight must be positive"},
		{"nested parameter", "configurations:\n  - id: a\n    parameters:\n      fu: [1, 2]\nworkloads: [w1]\n", "must be a scalar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRejectsIDCollisions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			"duplicate configuration",
			"configurations:\n  - id: A\n    cost_weight: 820\n  - id: A\n    cost_weight: 960\nworkloads: [w1]\n",
			`configuration "A": defined more than once`,
		},
		{
			"duplicate workload",
			"configurations:\n  - id: A\n    cost_weight: 820\nworkloads: [w1, w2, w1]\n",
			`workload "w1": defined more than once`,
		},
		{
			"configuration id with separator",
			"configurations:\n  - id: a/b\n    cost_weight: 820\nworkloads: [w1]\n",
			"single path segment",
		},
		{
			"workload id dot-dot",
			"configurations:\n  - id: A\n    cost_weight: 820\nworkloads: [\"..\"]\n",
			"single path segment",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, config.ErrIDCollision)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
