package config

import (
	"errors"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrEmptySelection is returned when the filters leave nothing to run.
var ErrEmptySelection = errors.New("selection matches no configuration or no workload")

// Selection narrows a catalog with glob patterns over ids. An empty pattern
// list keeps everything of that kind.
type Selection struct {
	Configs   []string
	Workloads []string
}

// Select returns a new catalog holding the configurations and workloads that
// match sel, in their original order.
func Select(cat *Catalog, sel Selection) (*Catalog, error) {
	if err := validatePatterns(sel.Configs); err != nil {
		return nil, err
	}
	if err := validatePatterns(sel.Workloads); err != nil {
		return nil, err
	}

	out := &Catalog{}
	for _, c := range cat.Configurations {
		if matchAny(sel.Configs, c.ID) {
			out.Configurations = append(out.Configurations, c)
		}
	}
	for _, w := range cat.Workloads {
		if matchAny(sel.Workloads, w.ID) {
			out.Workloads = append(out.Workloads, w)
		}
	}
	if len(out.Configurations) == 0 || len(out.Workloads) == 0 {
		return nil, ErrEmptySelection
	}
	return out, nil
}

func validatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid selection pattern %q", p)
		}
	}
	return nil
}

func matchAny(patterns []string, id string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, id); ok {
			return true
		}
	}
	return false
}
