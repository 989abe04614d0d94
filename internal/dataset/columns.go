// Package dataset writes extracted metrics as one table, one row per job.
package dataset

import (
	"slices"

	"github.com/signalnine/simsweep/internal/extract"
)

const (
	ColConfigID   = "configId"
	ColWorkloadID = "workloadId"
	ColCostWeight = "costWeight"
)

// Prefix is the fixed leading column order.
var Prefix = []string{ColConfigID, ColWorkloadID, ColCostWeight, "ipc", extract.ThroughputPerCost, "cpi"}

// Columns returns Prefix followed by every other known or observed metric
// name in sorted order. The result depends only on the set of names.
func Columns(metricNames []string, rows []extract.Row) []string {
	seen := map[string]bool{}
	for _, p := range Prefix {
		seen[p] = true
	}
	var rest []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			rest = append(rest, name)
		}
	}
	for _, n := range metricNames {
		add(n)
	}
	for _, r := range rows {
		for n := range r.Metrics {
			add(n)
		}
	}
	slices.Sort(rest)
	return append(slices.Clone(Prefix), rest...)
}

// cell returns the value of col for r and whether it is present.
func cell(r extract.Row, col string) (any, bool) {
	switch col {
	case ColConfigID:
		return r.ConfigID, true
	case ColWorkloadID:
		return r.WorkloadID, true
	case ColCostWeight:
		return r.CostWeight, true
	}
	v, ok := r.Metrics[col]
	return v, ok
}
