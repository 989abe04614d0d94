package result

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

const (
	ResultFile   = "result.json"
	ManifestFile = "run.json"
	ReportFile   = "run-report.txt"
	MetricsFile  = "metrics.prom"
)

// NewRunManifest stamps a fresh run id and start time.
func NewRunManifest(concurrency, jobs int) *RunManifest {
	return &RunManifest{
		RunID:       uuid.New().String(),
		StartedAt:   time.Now().UTC(),
		Concurrency: concurrency,
		Jobs:        jobs,
	}
}

func WriteJobResult(outputDir string, r *JobResult) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	return writeJSON(filepath.Join(outputDir, ResultFile), r)
}

func ReadJobResult(path string) (*JobResult, error) {
	var r JobResult
	if err := readJSON(path, &r); err != nil {
		return nil, fmt.Errorf("reading result: %w", err)
	}
	return &r, nil
}

func WriteManifest(baseDir string, m *RunManifest) error {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return fmt.Errorf("creating base dir: %w", err)
	}
	return writeJSON(filepath.Join(baseDir, ManifestFile), m)
}

func ReadManifest(baseDir string) (*RunManifest, error) {
	var m RunManifest
	if err := readJSON(filepath.Join(baseDir, ManifestFile), &m); err != nil {
		return nil, fmt.Errorf("reading run manifest: %w", err)
	}
	return &m, nil
}

// writeJSON replaces path atomically so a reader never sees a partial file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("writing %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("renaming %s: %w", filepath.Base(path), err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
