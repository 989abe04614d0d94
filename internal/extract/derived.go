package extract

// Derived metric names, in the order they are computed.
const (
	ThroughputPerCost           = "throughputPerCost"
	IssueUtilizationPct         = "issueUtilizationPct"
	CommitUtilizationPct        = "commitUtilizationPct"
	L1InstrHitRate              = "l1InstrHitRate"
	L1DataHitRate               = "l1DataHitRate"
	SpeculationOverheadPct      = "speculationOverheadPct"
	BranchMispredictPerKiloInst = "branchMispredictPerKiloInstr"
	MemoryOpsPct                = "memoryOpsPct"
)

var DerivedNames = []string{
	ThroughputPerCost,
	IssueUtilizationPct,
	CommitUtilizationPct,
	L1InstrHitRate,
	L1DataHitRate,
	SpeculationOverheadPct,
	BranchMispredictPerKiloInst,
	MemoryOpsPct,
}

// Derive adds the derived metrics to rec. A derived metric is set only when
// all of its inputs are present and no denominator is zero.
func Derive(rec MetricRecord, costWeight, maxIssueWidth float64) {
	cost := MetricRecord{"costWeight": costWeight, "maxIssueWidth": maxIssueWidth}
	get := func(name string) (float64, bool) {
		if v, ok := rec[name]; ok {
			return v, true
		}
		v, ok := cost[name]
		return v, ok
	}
	ratio := func(out, num, den string, scale float64) {
		n, ok1 := get(num)
		d, ok2 := get(den)
		if ok1 && ok2 && d != 0 {
			rec[out] = n / d * scale
		}
	}
	complement := func(out, in string) {
		if v, ok := rec[in]; ok {
			rec[out] = 1 - v
		}
	}

	ratio(ThroughputPerCost, "ipc", "costWeight", 1)
	ratio(IssueUtilizationPct, "meanIssuedPerCycle", "maxIssueWidth", 100)
	ratio(CommitUtilizationPct, "meanCommittedPerCycle", "maxIssueWidth", 100)
	complement(L1InstrHitRate, "l1InstrMissRate")
	complement(L1DataHitRate, "l1DataMissRate")
	ratio(SpeculationOverheadPct, "squashedInstructions", "totalInstructions", 100)
	ratio(BranchMispredictPerKiloInst, "branchMispredicts", "totalInstructions", 1000)

	loads, ok1 := rec["committedLoads"]
	stores, ok2 := rec["committedStores"]
	ops, ok3 := rec["totalOps"]
	if ok1 && ok2 && ok3 && ops != 0 {
		rec[MemoryOpsPct] = (loads + stores) / ops * 100
	}
}
