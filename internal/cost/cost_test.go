package cost_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/signalnine/simsweep/internal/cost"
	"github.com/signalnine/simsweep/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCosts(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credits.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	table, err := cost.Load(writeCosts(t, "design_a: 820\ndesign_b: 960\ndesign_c: 900.5\n"))
	require.NoError(t, err)

	w, ok := table.Weight("design_c")
	assert.True(t, ok)
	assert.Equal(t, 900.5, w)

	_, ok = table.Weight("design_z")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	_, err := cost.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = cost.Load(writeCosts(t, "design_a: [820]\n"))
	assert.Error(t, err)

	_, err = cost.Load(writeCosts(t, "design_a: 0\n"))
	assert.ErrorContains(t, err, "must be positive")

	_, err = cost.Load(writeCosts(t, "design_a: -1\n"))
	assert.ErrorContains(t, err, "must be positive")
}

func TestApply(t *testing.T) {
	table := &cost.Table{Weights: map[string]float64{"design_b": 1000}}
	targets := []extract.Target{
		{ConfigID: "design_a", WorkloadID: "qsort", CostWeight: 820},
		{ConfigID: "design_b", WorkloadID: "qsort", CostWeight: 960},
		{ConfigID: "design_b", WorkloadID: "sha", CostWeight: 960},
	}
	assert.Equal(t, 2, table.Apply(targets))
	assert.Equal(t, 820.0, targets[0].CostWeight)
	assert.Equal(t, 1000.0, targets[1].CostWeight)
	assert.Equal(t, 1000.0, targets[2].CostWeight)

	var empty *cost.Table
	assert.Zero(t, empty.Apply(targets))
}
