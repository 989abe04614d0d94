package extract_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	begin = "---------- Begin Simulation Statistics ----------"
	end   = "---------- End Simulation Statistics   ----------"
)

var markers = extract.Markers{Begin: begin, End: "---------- End Simulation Statistics"}

// dumps renders one section per body.
func dumps(bodies ...string) string {
	var b strings.Builder
	for _, body := range bodies {
		fmt.Fprintf(&b, "\n%s\n%s\n\n%s\n", begin, body, end)
	}
	return b.String()
}

func TestSelectSection(t *testing.T) {
	tests := []struct {
		name      string
		report    string
		wantCount int
		wantErr   error
		want      string
	}{
		{"three sections picks second", dumps("sentinel 1", "sentinel 2", "sentinel 3"), 3, nil, "sentinel 2"},
		{"four sections picks second", dumps("sentinel 1", "sentinel 2", "sentinel 3", "sentinel 4"), 4, nil, "sentinel 2"},
		{"single section fallback", dumps("sentinel 1"), 1, nil, "sentinel 1"},
		{"two sections ambiguous", dumps("sentinel 1", "sentinel 2"), 2, extract.ErrAmbiguousReport, ""},
		{"no sections", "simInsts 100\n", 0, extract.ErrNoSections, ""},
		{"unterminated section", begin + "\nsentinel 1\n", 1, nil, "sentinel 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			section, n, err := extract.SelectSection(strings.Split(tc.report, "\n"), markers)
			assert.Equal(t, tc.wantCount, n)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, section)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, map[string]float64{"sentinel": parseSentinel(tc.want)}, extract.ParseLines(section))
		})
	}
}

func parseSentinel(s string) float64 {
	var v float64
	fmt.Sscanf(s, "sentinel %g", &v)
	return v
}

func TestParseLines(t *testing.T) {
	got := extract.ParseLines([]string{
		"",
		"# comment line",
		"-------- separator",
		"simInsts                                  1234567                       # Number of instructions simulated",
		"system.cpu.ipc                             0.695843                       # IPC",
		"system.cpu.numIssuedDist::mean             1.25e+00",
		"system.cpu.l1d.demandAvgMissLatency::total nan                            # undefined",
		"system.cpu.bogus                           inf",
		"lonely",
		"system.cpu.name                            o3cpu",
		"dup 1",
		"dup 2",
	})
	assert.Equal(t, map[string]float64{
		"simInsts":                       1234567,
		"system.cpu.ipc":                 0.695843,
		"system.cpu.numIssuedDist::mean": 1.25,
		"dup":                            2,
	}, got)
}

func TestRegistryLookup(t *testing.T) {
	reg := extract.DefaultRegistry()
	rec := reg.Lookup(map[string]float64{
		"ipc":                  0.5,
		"system.cpu.numCycles": 1000,
		"unrelated.stat":       3,
	})
	assert.Equal(t, extract.MetricRecord{"ipc": 0.5, "numCycles": 1000}, rec)

	rec = reg.Lookup(map[string]float64{"system.cpu.ipc": 0.7, "ipc": 0.5})
	assert.Equal(t, 0.7, rec["ipc"], "qualified stat takes precedence")
}

func TestRegistryExtend(t *testing.T) {
	base := extract.DefaultRegistry()
	reg := base.Extend([]config.MetricSpec{
		{Name: "robFullEvents", Stats: []string{"system.cpu.rob.fullEvents"}},
		{Name: "ipc", Stats: []string{"system.cpu0.ipc"}},
		{Name: "simFreq"},
	})
	assert.Len(t, reg, len(base)+2)
	assert.Equal(t, base.Names()[:6], reg.Names()[:6])

	rec := reg.Lookup(map[string]float64{
		"system.cpu.rob.fullEvents": 12,
		"system.cpu0.ipc":           1.1,
		"system.cpu.ipc":            0.4,
		"simFreq":                   1e12,
	})
	assert.Equal(t, 12.0, rec["robFullEvents"])
	assert.Equal(t, 1.1, rec["ipc"])
	assert.Equal(t, 1e12, rec["simFreq"])
	assert.Len(t, base, len(extract.DefaultRegistry()), "base registry untouched")
}

func TestDerive(t *testing.T) {
	rec := extract.MetricRecord{
		"ipc":                   0.5,
		"meanIssuedPerCycle":    1.5,
		"meanCommittedPerCycle": 1.0,
		"l1InstrMissRate":       0.25,
		"l1DataMissRate":        0.1,
		"squashedInstructions":  50,
		"totalInstructions":     1000,
		"branchMispredicts":     4,
		"committedLoads":        200,
		"committedStores":       100,
		"totalOps":              1200,
	}
	extract.Derive(rec, 820, 2)

	assert.InDelta(t, 0.5/820, rec[extract.ThroughputPerCost], 1e-12)
	assert.InDelta(t, 75.0, rec[extract.IssueUtilizationPct], 1e-9)
	assert.InDelta(t, 50.0, rec[extract.CommitUtilizationPct], 1e-9)
	assert.InDelta(t, 0.75, rec[extract.L1InstrHitRate], 1e-12)
	assert.InDelta(t, 0.9, rec[extract.L1DataHitRate], 1e-12)
	assert.InDelta(t, 5.0, rec[extract.SpeculationOverheadPct], 1e-9)
	assert.InDelta(t, 4.0, rec[extract.BranchMispredictPerKiloInst], 1e-9)
	assert.InDelta(t, 25.0, rec[extract.MemoryOpsPct], 1e-9)
}

func TestDeriveAbsence(t *testing.T) {
	rec := extract.MetricRecord{
		"squashedInstructions": 50,
		"branchMispredicts":    4,
		"committedLoads":       200,
		"totalOps":             0,
		"ipc":                  0.5,
	}
	extract.Derive(rec, 0, 0)

	for _, name := range extract.DerivedNames {
		assert.NotContains(t, rec, name)
	}
}

func writeReport(t *testing.T, dir, body string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, "stats.txt")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func newExtractor() *extract.Extractor {
	return extract.New(config.ExtractSettings{
		ReportFile:    "stats.txt",
		BeginMarker:   markers.Begin,
		EndMarker:     markers.End,
		MaxIssueWidth: 2,
	})
}

func TestExtractFile(t *testing.T) {
	path := writeReport(t, t.TempDir(), dumps(
		"system.cpu.ipc 0.1\nsimInsts 10",
		"system.cpu.ipc 0.5\nsystem.cpu.numCycles 1000\nsystem.cpu.numIssuedDist::mean 1.0",
		"system.cpu.ipc 0.9",
	))

	rec, err := newExtractor().ExtractFile(path, 960, 4)
	require.NoError(t, err)
	assert.Equal(t, 0.5, rec["ipc"])
	assert.Equal(t, 1000.0, rec["numCycles"])
	assert.InDelta(t, 0.5/960, rec[extract.ThroughputPerCost], 1e-12)
	assert.InDelta(t, 25.0, rec[extract.IssueUtilizationPct], 1e-9)
	assert.NotContains(t, rec, "totalInstructions")
	assert.NotContains(t, rec, extract.BranchMispredictPerKiloInst)
	assert.NotContains(t, rec, extract.SpeculationOverheadPct)
}

func TestExtractFileErrors(t *testing.T) {
	ex := newExtractor()
	dir := t.TempDir()

	_, err := ex.ExtractFile(filepath.Join(dir, "stats.txt"), 1, 2)
	assert.ErrorIs(t, err, extract.ErrMissingReport)

	path := writeReport(t, filepath.Join(dir, "two"), dumps("ipc 1", "ipc 2"))
	_, err = ex.ExtractFile(path, 1, 2)
	assert.ErrorIs(t, err, extract.ErrAmbiguousReport)

	path = writeReport(t, filepath.Join(dir, "none"), "gem5 crashed before dumping stats\n")
	_, err = ex.ExtractFile(path, 1, 2)
	assert.ErrorIs(t, err, extract.ErrNoSections)
}

func TestDiscoverAndRun(t *testing.T) {
	base := t.TempDir()
	cat := &config.Catalog{
		Configurations: []config.Configuration{
			{ID: "design_b", CostWeight: 960},
			{ID: "design_a", CostWeight: 820, MaxIssueWidth: 4},
		},
		Workloads: []config.Workload{{ID: "qsort"}, {ID: "sha"}, {ID: "fft"}},
	}
	good := dumps("ipc 0.1", "ipc 0.5\nsystem.cpu.numIssuedDist::mean 1.0", "ipc 0.9")
	writeReport(t, filepath.Join(base, "design_a", "qsort"), good)
	writeReport(t, filepath.Join(base, "design_a", "sha"), dumps("ipc 1", "ipc 2"))
	writeReport(t, filepath.Join(base, "design_b", "qsort"), good)
	require.NoError(t, os.MkdirAll(filepath.Join(base, "design_b", "sha"), 0o755))
	writeReport(t, filepath.Join(base, "design_b", "fft"), "gem5 crashed before dumping stats\n")
	writeReport(t, filepath.Join(base, "design_z", "qsort"), good)
	writeReport(t, filepath.Join(base, "design_a", "stray"), good)
	require.NoError(t, os.WriteFile(filepath.Join(base, "run.json"), []byte("{}"), 0o644))

	targets, err := extract.Discover(base, cat)
	require.NoError(t, err)
	var names []string
	for _, tg := range targets {
		names = append(names, tg.ConfigID+"/"+tg.WorkloadID)
	}
	assert.Equal(t, []string{"design_b/qsort", "design_b/sha", "design_b/fft", "design_a/qsort", "design_a/sha"}, names)

	rows, outcomes := newExtractor().Run(targets)
	require.Len(t, rows, 2)
	assert.Equal(t, "design_b", rows[0].ConfigID)
	assert.Equal(t, 960.0, rows[0].CostWeight)
	assert.InDelta(t, 50.0, rows[0].Metrics[extract.IssueUtilizationPct], 1e-9)
	assert.InDelta(t, 25.0, rows[1].Metrics[extract.IssueUtilizationPct], 1e-9, "per-config issue width")

	assert.Equal(t, 2, outcomes.Count(extract.StatusOK))
	assert.Equal(t, 1, outcomes.Count(extract.StatusMissing))
	assert.Equal(t, 1, outcomes.Count(extract.StatusAmbiguous))
	assert.Equal(t, 1, outcomes.Count(extract.StatusUnparseable))
	failed := outcomes.Failed()
	require.Len(t, failed, 3)
	assert.Equal(t, "sha", failed[0].WorkloadID)
	assert.Equal(t, extract.StatusUnparseable, failed[1].Status)
	assert.ErrorIs(t, failed[1].Err, extract.ErrNoSections)
}

func TestDiscoverRejectsDuplicateIDs(t *testing.T) {
	base := t.TempDir()
	writeReport(t, filepath.Join(base, "A", "w1"), dumps("ipc 0.1", "ipc 0.5", "ipc 0.9"))
	cat := &config.Catalog{
		Configurations: []config.Configuration{{ID: "A", CostWeight: 820}, {ID: "A", CostWeight: 960}},
		Workloads:      []config.Workload{{ID: "w1"}},
	}
	targets, err := extract.Discover(base, cat)
	assert.ErrorIs(t, err, config.ErrIDCollision)
	assert.Nil(t, targets)
}

func TestDiscoverMissingBase(t *testing.T) {
	_, err := extract.Discover(filepath.Join(t.TempDir(), "nope"), &config.Catalog{})
	assert.Error(t, err)
}
