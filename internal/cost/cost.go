// Package cost loads a standalone table of configuration cost weights.
package cost

import (
	"fmt"
	"os"

	"github.com/signalnine/simsweep/internal/extract"
	"gopkg.in/yaml.v3"
)

// Table maps configuration ids to cost weights.
type Table struct {
	Weights map[string]float64
}

func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading cost file: %w", err)
	}
	var weights map[string]float64
	if err := yaml.Unmarshal(data, &weights); err != nil {
		return nil, fmt.Errorf("parsing cost file: %w", err)
	}
	for id, w := range weights {
		if w <= 0 {
			return nil, fmt.Errorf("cost file %s: %s: weight must be positive, got %g", path, id, w)
		}
	}
	return &Table{Weights: weights}, nil
}

func (t *Table) Weight(configID string) (float64, bool) {
	if t == nil || t.Weights == nil {
		return 0, false
	}
	w, ok := t.Weights[configID]
	return w, ok
}

// Apply overrides the cost weight of every target listed in the table and
// returns how many were changed.
func (t *Table) Apply(targets []extract.Target) int {
	n := 0
	for i := range targets {
		if w, ok := t.Weight(targets[i].ConfigID); ok {
			targets[i].CostWeight = w
			n++
		}
	}
	return n
}
