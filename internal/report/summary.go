package report

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/signalnine/simsweep/internal/result"
)

// RunSummary aggregates one run. Times are in seconds.
type RunSummary struct {
	Total              int                 `json:"total"`
	Succeeded          int                 `json:"succeeded"`
	Failed             int                 `json:"failed"`
	FailuresByKind     map[result.Kind]int `json:"failures_by_kind"`
	CPUSeconds         float64             `json:"cpu_seconds"`
	WallClockSeconds   float64             `json:"wall_clock_seconds"`
	Concurrency        int                 `json:"concurrency"`
	ParallelEfficiency float64             `json:"parallel_efficiency"`
	Speedup            float64             `json:"speedup"`
	MeanSuccessSeconds float64             `json:"mean_success_seconds"`
}

// Summarize is pure: the same inputs always give the same summary.
// Efficiency and speedup are zero when wall clock or concurrency is unknown.
func Summarize(results []result.JobResult, wallClockSeconds float64, concurrency int) RunSummary {
	s := RunSummary{
		Total:            len(results),
		FailuresByKind:   map[result.Kind]int{},
		WallClockSeconds: wallClockSeconds,
		Concurrency:      concurrency,
	}
	var successSeconds float64
	for _, r := range results {
		s.CPUSeconds += r.ElapsedSeconds
		if r.Success {
			s.Succeeded++
			successSeconds += r.ElapsedSeconds
			continue
		}
		s.Failed++
		s.FailuresByKind[r.Kind]++
	}
	if s.Succeeded > 0 {
		s.MeanSuccessSeconds = successSeconds / float64(s.Succeeded)
	}
	if wallClockSeconds > 0 {
		s.Speedup = s.CPUSeconds / wallClockSeconds
		if concurrency > 0 {
			s.ParallelEfficiency = s.CPUSeconds / (wallClockSeconds * float64(concurrency))
		}
	}
	return s
}

func sortResults(results []result.JobResult) []result.JobResult {
	sorted := slices.Clone(results)
	slices.SortStableFunc(sorted, func(a, b result.JobResult) int {
		return cmp.Or(cmp.Compare(a.ConfigID, b.ConfigID), cmp.Compare(a.WorkloadID, b.WorkloadID))
	})
	return sorted
}

// WriteRunReport renders the human-readable run report. Output depends only
// on its arguments.
func WriteRunReport(w io.Writer, results []result.JobResult, s RunSummary) error {
	sorted := sortResults(results)

	var b strings.Builder
	fmt.Fprintln(&b, "SIMULATION RUN REPORT")
	fmt.Fprintln(&b, strings.Repeat("=", 60))
	fmt.Fprintf(&b, "Total jobs:              %d\n", s.Total)
	fmt.Fprintf(&b, "Succeeded:               %d\n", s.Succeeded)
	fmt.Fprintf(&b, "Failed:                  %d\n", s.Failed)
	for _, k := range sortedKinds(s.FailuresByKind) {
		fmt.Fprintf(&b, "  %-22s %d\n", string(k)+":", s.FailuresByKind[k])
	}
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "Total simulation time:   %.2f s (%.2f h)\n", s.CPUSeconds, s.CPUSeconds/3600)
	fmt.Fprintf(&b, "Wall clock time:         %.2f s (%.2f h)\n", s.WallClockSeconds, s.WallClockSeconds/3600)
	fmt.Fprintf(&b, "Concurrency:             %d\n", s.Concurrency)
	if s.Succeeded > 0 {
		fmt.Fprintf(&b, "Mean per successful job: %.2f s\n", s.MeanSuccessSeconds)
	}
	if s.WallClockSeconds > 0 {
		fmt.Fprintf(&b, "Speedup:                 %.2fx\n", s.Speedup)
		fmt.Fprintf(&b, "Parallel efficiency:     %.1f%%\n", s.ParallelEfficiency*100)
	}
	fmt.Fprintln(&b)

	fmt.Fprintln(&b, "JOBS")
	fmt.Fprintln(&b, strings.Repeat("-", 60))
	tw := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, r := range sorted {
		status := "OK"
		if !r.Success {
			status = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.2f s\n", status, r.Name(), r.Kind, r.ExitCode, r.ElapsedSeconds)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if s.Failed > 0 {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "FAILURES")
		fmt.Fprintln(&b, strings.Repeat("-", 60))
		for _, r := range sorted {
			if r.Success {
				continue
			}
			fmt.Fprintf(&b, "%s: %s\n", r.Name(), r.ErrorMessage)
			if r.LogPath != "" {
				fmt.Fprintf(&b, "  log: %s\n", r.LogPath)
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func sortedKinds(m map[result.Kind]int) []result.Kind {
	kinds := make([]result.Kind, 0, len(m))
	for k := range m {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
