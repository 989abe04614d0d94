// Package report summarizes scheduler results, either straight from a run or
// re-collected from the output tree.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/simsweep/internal/observability"
	"github.com/signalnine/simsweep/internal/result"
	"go.uber.org/zap"
)

type ConfigSummary struct {
	Config      string  `json:"config"`
	Jobs        int     `json:"jobs"`
	Succeeded   int     `json:"succeeded"`
	PassRate    float64 `json:"pass_rate"`
	MeanElapsed float64 `json:"mean_elapsed_s"`
	CPUSeconds  float64 `json:"cpu_seconds"`
}

// Generate reads job results under baseDir and renders them in format:
// text (the run report), markdown, json, or table (the default). The text
// report covers only the run recorded in run.json; the other formats
// aggregate every result in the tree.
func Generate(baseDir, format string, w io.Writer) error {
	results, err := Collect(baseDir)
	if err != nil {
		return err
	}

	if format == "text" {
		var wall float64
		var concurrency int
		m, err := result.ReadManifest(baseDir)
		if err != nil {
			observability.CLILogger.Warn("no run manifest; timing omitted", zap.String("dir", baseDir), zap.Error(err))
		} else {
			wall = m.WallClockSeconds()
			concurrency = m.Concurrency
			results = forRun(results, m.RunID)
		}
		return WriteRunReport(w, results, Summarize(results, wall, concurrency))
	}

	summaries := aggregate(results)
	switch format {
	case "markdown":
		return writeMarkdown(summaries, w)
	case "json":
		return writeJSON(summaries, w)
	default:
		return writeTable(summaries, w)
	}
}

// Collect loads every result.json below baseDir. Unreadable files are
// logged and skipped.
func Collect(baseDir string) ([]result.JobResult, error) {
	if _, err := os.Stat(baseDir); err != nil {
		return nil, fmt.Errorf("reading results: %w", err)
	}
	var results []result.JobResult
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != result.ResultFile {
			return nil
		}
		r, err := result.ReadJobResult(path)
		if err != nil {
			observability.CLILogger.Warn("skipping result", zap.String("path", path), zap.Error(err))
			return nil
		}
		results = append(results, *r)
		return nil
	})
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("walking %s: %w", baseDir, err)
	}
	return sortResults(results), nil
}

// forRun keeps the results stamped with runID.
func forRun(results []result.JobResult, runID string) []result.JobResult {
	kept := results[:0]
	for _, r := range results {
		if r.RunID == runID {
			kept = append(kept, r)
		}
	}
	if stale := len(results) - len(kept); stale > 0 {
		observability.CLILogger.Info("excluding results from other runs",
			zap.String("run_id", runID), zap.Int("excluded", stale))
	}
	return kept
}

func aggregate(results []result.JobResult) []ConfigSummary {
	type accum struct {
		count   int
		passed  int
		elapsed float64
	}
	byConfig := map[string]*accum{}

	for _, r := range results {
		a, ok := byConfig[r.ConfigID]
		if !ok {
			a = &accum{}
			byConfig[r.ConfigID] = a
		}
		a.count++
		a.elapsed += r.ElapsedSeconds
		if r.Success {
			a.passed++
		}
	}

	var summaries []ConfigSummary
	for name, a := range byConfig {
		summaries = append(summaries, ConfigSummary{
			Config:      name,
			Jobs:        a.count,
			Succeeded:   a.passed,
			PassRate:    float64(a.passed) / float64(a.count),
			MeanElapsed: a.elapsed / float64(a.count),
			CPUSeconds:  a.elapsed,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Config < summaries[j].Config
	})
	return summaries
}

func writeTable(summaries []ConfigSummary, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tJOBS\tSUCCEEDED\tPASS RATE\tMEAN ELAPSED\tCPU TIME")
	fmt.Fprintln(tw, strings.Repeat("-", 72))
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%d\t%d\t%.0f%%\t%.2fs\t%.2fs\n",
			s.Config, s.Jobs, s.Succeeded, s.PassRate*100, s.MeanElapsed, s.CPUSeconds)
	}
	return tw.Flush()
}

func writeMarkdown(summaries []ConfigSummary, w io.Writer) error {
	fmt.Fprintln(w, "| Config | Jobs | Succeeded | Pass Rate | Mean Elapsed | CPU Time |")
	fmt.Fprintln(w, "|---|---|---|---|---|---|")
	for _, s := range summaries {
		fmt.Fprintf(w, "| %s | %d | %d | %.0f%% | %.2fs | %.2fs |\n",
			s.Config, s.Jobs, s.Succeeded, s.PassRate*100, s.MeanElapsed, s.CPUSeconds)
	}
	return nil
}

func writeJSON(summaries []ConfigSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
