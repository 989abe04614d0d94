package result_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/signalnine/simsweep/internal/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadJobResult(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "design_a", "qsort")
	r := &result.JobResult{
		ConfigID:       "design_a",
		WorkloadID:     "qsort",
		Success:        false,
		ExitCode:       -1,
		Kind:           result.KindLaunchFailure,
		ElapsedSeconds: 0.25,
		OutputDir:      dir,
		LogPath:        filepath.Join(dir, "simulation.log"),
		ErrorMessage:   "exec: no such file",
	}
	require.NoError(t, result.WriteJobResult(dir, r))

	got, err := result.ReadJobResult(filepath.Join(dir, result.ResultFile))
	require.NoError(t, err)
	assert.Equal(t, r, got)
	assert.Equal(t, "design_a/qsort", got.Name())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")
}

func TestReadJobResultMissing(t *testing.T) {
	_, err := result.ReadJobResult(filepath.Join(t.TempDir(), result.ResultFile))
	assert.Error(t, err)
}

func TestManifest(t *testing.T) {
	base := t.TempDir()
	m := result.NewRunManifest(4, 36)
	_, err := uuid.Parse(m.RunID)
	require.NoError(t, err)
	assert.Zero(t, m.WallClockSeconds())

	m.EndedAt = m.StartedAt.Add(90 * time.Second)
	require.NoError(t, result.WriteManifest(base, m))

	got, err := result.ReadManifest(base)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, got.RunID)
	assert.Equal(t, 4, got.Concurrency)
	assert.Equal(t, 36, got.Jobs)
	assert.InDelta(t, 90.0, got.WallClockSeconds(), 1e-9)
}
