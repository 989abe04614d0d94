// Package extract turns simulator statistics reports into metric records.
package extract

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/observability"
	"go.uber.org/zap"
)

var ErrMissingReport = errors.New("no report")

// MetricRecord holds the metrics found for one job. A metric that could not
// be determined has no key.
type MetricRecord map[string]float64

// Row is one extracted job, ready for the dataset.
type Row struct {
	ConfigID   string
	WorkloadID string
	CostWeight float64
	Metrics    MetricRecord
}

type Status string

const (
	StatusOK          Status = "ok"
	StatusMissing     Status = "missing"
	StatusAmbiguous   Status = "ambiguous"
	StatusUnparseable Status = "unparseable"
)

type Outcome struct {
	ConfigID   string
	WorkloadID string
	Status     Status
	Sections   int
	Err        error
}

type Outcomes []Outcome

// Count returns how many outcomes have status s.
func (o Outcomes) Count(s Status) int {
	n := 0
	for _, oc := range o {
		if oc.Status == s {
			n++
		}
	}
	return n
}

func (o Outcomes) Failed() Outcomes {
	var failed Outcomes
	for _, oc := range o {
		if oc.Status != StatusOK {
			failed = append(failed, oc)
		}
	}
	return failed
}

type Extractor struct {
	Registry      Registry
	Markers       Markers
	ReportFile    string
	MaxIssueWidth float64
	Logger        *zap.Logger
}

func New(s config.ExtractSettings) *Extractor {
	return &Extractor{
		Registry:      DefaultRegistry().Extend(s.Metrics),
		Markers:       Markers{Begin: s.BeginMarker, End: s.EndMarker},
		ReportFile:    s.ReportFile,
		MaxIssueWidth: s.MaxIssueWidth,
		Logger:        observability.CLILogger,
	}
}

// Columns lists every metric name the extractor can produce: registry
// metrics followed by derived metrics.
func (e *Extractor) Columns() []string {
	return append(e.Registry.Names(), DerivedNames...)
}

// ExtractFile reads the report at path and returns its metrics, derived
// ones included.
func (e *Extractor) ExtractFile(path string, costWeight, maxIssueWidth float64) (MetricRecord, error) {
	lines, err := readLines(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingReport, path)
		}
		return nil, fmt.Errorf("reading report: %w", err)
	}
	section, n, err := SelectSection(lines, e.Markers)
	if err != nil {
		return nil, fmt.Errorf("%s (%d sections): %w", path, n, err)
	}
	if n == 1 {
		e.logger().Warn("single dump section, using it", zap.String("path", path))
	}
	rec := e.Registry.Lookup(ParseLines(section))
	Derive(rec, costWeight, maxIssueWidth)
	return rec, nil
}

// Run extracts every target. Failed targets are reported in the outcomes
// and left out of the rows.
func (e *Extractor) Run(targets []Target) ([]Row, Outcomes) {
	rows := make([]Row, 0, len(targets))
	outcomes := make(Outcomes, 0, len(targets))
	for _, t := range targets {
		width := t.MaxIssueWidth
		if width <= 0 {
			width = e.MaxIssueWidth
		}
		rec, err := e.ExtractFile(filepath.Join(t.Dir, e.ReportFile), t.CostWeight, width)
		oc := Outcome{ConfigID: t.ConfigID, WorkloadID: t.WorkloadID, Status: StatusOK, Err: err}
		switch {
		case err == nil:
			rows = append(rows, Row{ConfigID: t.ConfigID, WorkloadID: t.WorkloadID, CostWeight: t.CostWeight, Metrics: rec})
		case errors.Is(err, ErrMissingReport):
			oc.Status = StatusMissing
		case errors.Is(err, ErrAmbiguousReport):
			oc.Status = StatusAmbiguous
			oc.Sections = 2
		default:
			oc.Status = StatusUnparseable
		}
		if err != nil {
			e.logger().Warn("extraction failed",
				zap.String("config", t.ConfigID),
				zap.String("workload", t.WorkloadID),
				zap.String("status", string(oc.Status)),
				zap.Error(err))
		}
		outcomes = append(outcomes, oc)
	}
	return rows, outcomes
}

func (e *Extractor) logger() *zap.Logger {
	if e.Logger == nil {
		return observability.CLILogger
	}
	return e.Logger
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
