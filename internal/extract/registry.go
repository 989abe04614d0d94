package extract

import "github.com/signalnine/simsweep/internal/config"

// Metric maps one dataset column to the report stats that can supply it.
// The first stat present in a report wins.
type Metric struct {
	Name  string
	Stats []string
}

// Registry is the ordered set of raw metrics looked up in every report.
type Registry []Metric

func stat(name string, stats ...string) Metric {
	return Metric{Name: name, Stats: stats}
}

// DefaultRegistry covers the gem5 O3 CPU statistics used for design-space
// comparisons.
func DefaultRegistry() Registry {
	return Registry{
		stat("simSeconds", "simSeconds"),
		stat("simTicks", "simTicks"),
		stat("totalInstructions", "simInsts"),
		stat("totalOps", "simOps"),
		stat("numCycles", "system.cpu.numCycles"),
		stat("ipc", "system.cpu.ipc", "ipc"),
		stat("cpi", "system.cpu.cpi", "cpi"),

		stat("instsIssued", "system.cpu.instsIssued"),
		stat("instsAdded", "system.cpu.instsAdded"),
		stat("meanIssuedPerCycle", "system.cpu.numIssuedDist::mean"),
		stat("issuedDist0", "system.cpu.numIssuedDist::0"),
		stat("issuedDist1", "system.cpu.numIssuedDist::1"),
		stat("issuedDist2", "system.cpu.numIssuedDist::2"),
		stat("issuedDistTotal", "system.cpu.numIssuedDist::total"),

		stat("squashedInstructions", "system.cpu.commit.commitSquashedInsts"),
		stat("branchMispredicts", "system.cpu.commit.branchMispredicts"),
		stat("meanCommittedPerCycle", "system.cpu.commit.numCommittedDist::mean"),
		stat("committedDist0", "system.cpu.commit.numCommittedDist::0"),
		stat("committedDist1", "system.cpu.commit.numCommittedDist::1"),
		stat("committedDist2", "system.cpu.commit.numCommittedDist::2"),

		stat("squashedInstsIssued", "system.cpu.squashedInstsIssued"),
		stat("squashedInstsExamined", "system.cpu.squashedInstsExamined"),

		stat("fuBusyIntAlu", "system.cpu.statFuBusy::IntAlu"),
		stat("fuBusyIntMult", "system.cpu.statFuBusy::IntMult"),
		stat("fuBusyIntDiv", "system.cpu.statFuBusy::IntDiv"),
		stat("fuBusyFloatAdd", "system.cpu.statFuBusy::FloatAdd"),
		stat("fuBusyFloatMult", "system.cpu.statFuBusy::FloatMult"),
		stat("fuBusyFloatDiv", "system.cpu.statFuBusy::FloatDiv"),
		stat("fuBusyMemRead", "system.cpu.statFuBusy::MemRead"),
		stat("fuBusyMemWrite", "system.cpu.statFuBusy::MemWrite"),
		stat("fuBusySimdAlu", "system.cpu.statFuBusy::SimdAlu"),
		stat("fuBusySimdCvt", "system.cpu.statFuBusy::SimdCvt"),
		stat("fuBusySimdMisc", "system.cpu.statFuBusy::SimdMisc"),

		stat("l1InstrHits", "system.cpu.l1i.demandHits::total"),
		stat("l1InstrMisses", "system.cpu.l1i.demandMisses::total"),
		stat("l1InstrMissRate", "system.cpu.l1i.demandMissRate::total"),
		stat("l1InstrAccesses", "system.cpu.l1i.demandAccesses::total"),

		stat("l1DataHits", "system.cpu.l1d.demandHits::total"),
		stat("l1DataMisses", "system.cpu.l1d.demandMisses::total"),
		stat("l1DataMissRate", "system.cpu.l1d.demandMissRate::total"),
		stat("l1DataAccesses", "system.cpu.l1d.demandAccesses::total"),
		stat("l1DataAvgMissLatency", "system.cpu.l1d.demandAvgMissLatency::total"),

		stat("committedIntAlu", "system.cpu.commit.committedInstType_0::IntAlu"),
		stat("committedIntMult", "system.cpu.commit.committedInstType_0::IntMult"),
		stat("committedIntDiv", "system.cpu.commit.committedInstType_0::IntDiv"),
		stat("committedFloatAdd", "system.cpu.commit.committedInstType_0::FloatAdd"),
		stat("committedLoads", "system.cpu.commit.committedInstType_0::MemRead"),
		stat("committedStores", "system.cpu.commit.committedInstType_0::MemWrite"),
	}
}

// Extend returns a copy of r with specs added. A spec whose name is already
// registered replaces that entry in place.
func (r Registry) Extend(specs []config.MetricSpec) Registry {
	out := make(Registry, len(r), len(r)+len(specs))
	copy(out, r)
	for _, s := range specs {
		metric := Metric{Name: s.Name, Stats: append([]string(nil), s.Stats...)}
		if len(metric.Stats) == 0 {
			metric.Stats = []string{s.Name}
		}
		replaced := false
		for i := range out {
			if out[i].Name == metric.Name {
				out[i] = metric
				replaced = true
				break
			}
		}
		if !replaced {
			out = append(out, metric)
		}
	}
	return out
}

func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, metric := range r {
		names[i] = metric.Name
	}
	return names
}

// Lookup resolves every registered metric present in stats.
func (r Registry) Lookup(stats map[string]float64) MetricRecord {
	rec := make(MetricRecord, len(r))
	for _, metric := range r {
		for _, key := range metric.Stats {
			if v, ok := stats[key]; ok {
				rec[metric.Name] = v
				break
			}
		}
	}
	return rec
}
