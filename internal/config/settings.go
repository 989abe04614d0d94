package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	LauncherProcess   = "process"
	LauncherContainer = "container"
)

// Settings are the environment-specific knobs: where the simulator lives, how
// jobs are launched and how reports are read back.
type Settings struct {
	Runner  RunnerSettings  `mapstructure:"runner"`
	Extract ExtractSettings `mapstructure:"extract"`
	Logging LoggingSettings `mapstructure:"logging"`
}

type RunnerSettings struct {
	Executable           string            `mapstructure:"executable"`
	ExecutableCandidates []string          `mapstructure:"executable_candidates"`
	Script               string            `mapstructure:"script"`
	OutputDir            string            `mapstructure:"output_dir"`
	OutputFlag           string            `mapstructure:"output_flag"`
	ParamPrefix          string            `mapstructure:"param_prefix"`
	Concurrency          int               `mapstructure:"concurrency"`
	Nice                 int               `mapstructure:"nice"`
	JobTimeout           time.Duration     `mapstructure:"job_timeout"`
	LaunchRate           float64           `mapstructure:"launch_rate"`
	LogName              string            `mapstructure:"log_name"`
	EnvFile              string            `mapstructure:"env_file"`
	Launcher             string            `mapstructure:"launcher"`
	Container            ContainerSettings `mapstructure:"container"`
}

type ContainerSettings struct {
	Image       string   `mapstructure:"image"`
	CPULimit    float64  `mapstructure:"cpu_limit"`
	MemoryLimit int64    `mapstructure:"memory_limit"`
	Mounts      []string `mapstructure:"mounts"`
}

type ExtractSettings struct {
	ReportFile    string       `mapstructure:"report_file"`
	BeginMarker   string       `mapstructure:"begin_marker"`
	EndMarker     string       `mapstructure:"end_marker"`
	MaxIssueWidth float64      `mapstructure:"max_issue_width"`
	Dataset       string       `mapstructure:"dataset"`
	SQLite        string       `mapstructure:"sqlite"`
	SQLiteTable   string       `mapstructure:"sqlite_table"`
	CostsFile     string       `mapstructure:"costs_file"`
	Metrics       []MetricSpec `mapstructure:"metrics"`
}

// MetricSpec adds a metric to the extraction registry. Stats lists report
// names to look for, first match wins.
type MetricSpec struct {
	Name  string   `mapstructure:"name"`
	Stats []string `mapstructure:"stats"`
}

type LoggingSettings struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// SetDefaults installs the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("runner.executable", "gem5.opt")
	v.SetDefault("runner.executable_candidates", []string{})
	v.SetDefault("runner.script", "")
	v.SetDefault("runner.output_dir", "data")
	v.SetDefault("runner.output_flag", "-o")
	v.SetDefault("runner.param_prefix", "--")
	v.SetDefault("runner.concurrency", runtime.NumCPU())
	v.SetDefault("runner.nice", 10)
	v.SetDefault("runner.job_timeout", "6h")
	v.SetDefault("runner.launch_rate", 0.0)
	v.SetDefault("runner.log_name", "simulation.log")
	v.SetDefault("runner.env_file", "")
	v.SetDefault("runner.launcher", LauncherProcess)
	v.SetDefault("runner.container.image", "")
	v.SetDefault("runner.container.cpu_limit", 0.0)
	v.SetDefault("runner.container.memory_limit", 0)

	v.SetDefault("extract.report_file", "stats.txt")
	v.SetDefault("extract.begin_marker", "---------- Begin Simulation Statistics ----------")
	v.SetDefault("extract.end_marker", "---------- End Simulation Statistics")
	v.SetDefault("extract.max_issue_width", 2.0)
	v.SetDefault("extract.dataset", "")
	v.SetDefault("extract.sqlite", "")
	v.SetDefault("extract.sqlite_table", "metrics")
	v.SetDefault("extract.costs_file", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json", false)
}

// LoadSettings layers defaults, the config file at path and SIMSWEEP_*
// environment variables on v and decodes the result.
func LoadSettings(path string, v *viper.Viper) (*Settings, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvPrefix("SIMSWEEP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading settings %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}
	if err := validateSettings(&s); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	return &s, nil
}

func validateSettings(s *Settings) error {
	r := &s.Runner
	switch r.Launcher {
	case LauncherProcess:
		if r.Executable == "" && len(r.ExecutableCandidates) == 0 {
			return fmt.Errorf("runner.executable is required")
		}
	case LauncherContainer:
		if r.Container.Image == "" {
			return fmt.Errorf("runner.container.image is required for the container launcher")
		}
	default:
		return fmt.Errorf("runner.launcher: unknown launcher %q", r.Launcher)
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return fmt.Errorf("runner.output_dir is required")
	}
	if r.Concurrency < 1 {
		r.Concurrency = runtime.NumCPU()
	}
	if r.JobTimeout < 0 {
		return fmt.Errorf("runner.job_timeout must not be negative")
	}
	if r.LaunchRate < 0 {
		return fmt.Errorf("runner.launch_rate must not be negative")
	}
	if r.LogName == "" {
		r.LogName = "simulation.log"
	}

	e := &s.Extract
	if e.BeginMarker == "" || e.EndMarker == "" {
		return fmt.Errorf("extract.begin_marker and extract.end_marker are required")
	}
	if e.ReportFile == "" {
		return fmt.Errorf("extract.report_file is required")
	}
	if e.MaxIssueWidth < 0 {
		return fmt.Errorf("extract.max_issue_width must not be negative")
	}
	for i, m := range e.Metrics {
		if m.Name == "" || len(m.Stats) == 0 {
			return fmt.Errorf("extract.metrics[%d]: name and stats are required", i)
		}
	}
	return nil
}
