package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Catalog  `yaml:",inline"`
	Settings Settings `yaml:"-"`
}

// Catalog is the declarative set of hardware configurations and workloads a
// sweep runs over. Order is significant: jobs and dataset rows follow it.
type Catalog struct {
	Configurations []Configuration `yaml:"configurations"`
	Workloads      []Workload      `yaml:"workloads"`
}

type Configuration struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name"`
	CostWeight    float64    `yaml:"cost_weight"`
	MaxIssueWidth float64    `yaml:"max_issue_width"`
	Parameters    Parameters `yaml:"parameters"`
}

// DisplayName falls back to the id when no name is set.
func (c *Configuration) DisplayName() string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}

type Workload struct {
	ID string `yaml:"id"`
}

// UnmarshalYAML accepts either a bare scalar (`- qsort`) or a mapping
// (`- id: qsort`).
func (w *Workload) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		w.ID = node.Value
		return nil
	}
	type plain Workload
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*w = Workload(p)
	return nil
}

type Param struct {
	Name  string
	Value string
}

// Parameters keeps the order parameters were declared in, since they are
// forwarded verbatim as simulator flags.
type Parameters []Param

func (p *Parameters) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: parameters must be a mapping", node.Line)
	}
	out := make(Parameters, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: parameter %q must be a scalar", v.Line, k.Value)
		}
		out = append(out, Param{Name: k.Value, Value: v.Value})
	}
	*p = out
	return nil
}

// Get returns the value of the named parameter.
func (p Parameters) Get(name string) (string, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}

func (c *Catalog) Configuration(id string) (*Configuration, bool) {
	for i := range c.Configurations {
		if c.Configurations[i].ID == id {
			return &c.Configurations[i], true
		}
	}
	return nil, false
}

func (c *Catalog) HasWorkload(id string) bool {
	for _, w := range c.Workloads {
		if w.ID == id {
			return true
		}
	}
	return false
}

// Load reads the catalog and settings from path. Settings are layered through
// v (defaults, file, SIMSWEEP_* env, bound flags); pass nil for a private
// viper instance.
func Load(path string, v *viper.Viper) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validateCatalog(&cfg.Catalog); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	settings, err := LoadSettings(path, v)
	if err != nil {
		return nil, err
	}
	cfg.Settings = *settings
	return &cfg, nil
}

func validateCatalog(cat *Catalog) error {
	if len(cat.Configurations) == 0 {
		return fmt.Errorf("no configurations defined")
	}
	for i, c := range cat.Configurations {
		if strings.TrimSpace(c.ID) == "" {
			return fmt.Errorf("configuration %d: id is required", i)
		}
		// Throughput per cost divides by the weight.
		if c.CostWeight <= 0 {
			return fmt.Errorf("configuration %q: cost_weight must be positive", c.ID)
		}
		if c.MaxIssueWidth < 0 {
			return fmt.Errorf("configuration %q: max_issue_width must not be negative", c.ID)
		}
		for _, p := range c.Parameters {
			if strings.TrimSpace(p.Name) == "" {
				return fmt.Errorf("configuration %q: empty parameter name", c.ID)
			}
		}
	}
	if len(cat.Workloads) == 0 {
		return fmt.Errorf("no workloads defined")
	}
	for i, w := range cat.Workloads {
		if strings.TrimSpace(w.ID) == "" {
			return fmt.Errorf("workload %d: id is required", i)
		}
	}
	return cat.CheckIDs()
}
