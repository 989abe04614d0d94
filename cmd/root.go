package cmd

import (
	"fmt"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile     string
	flagLogJSON bool
	flagLogLvl  string
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "simsweep",
		Short: "Run simulator design-space sweeps and harvest their statistics",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "simsweep.yaml", "config file path")
	root.PersistentFlags().StringVar(&flagLogLvl, "log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "log as JSON")
	root.AddCommand(newRunCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newReportCmd())
	return root
}

// loadConfig reads the config file, layering the given flags (setting key →
// flag name) over it, and initialises logging.
func loadConfig(cmd *cobra.Command, flags map[string]string) (*config.Config, error) {
	v := viper.New()
	bindings := map[string]string{
		"logging.level": "log-level",
		"logging.json":  "log-json",
	}
	for key, name := range flags {
		bindings[key] = name
	}
	for key, name := range bindings {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return nil, fmt.Errorf("binding flag --%s: %w", name, err)
		}
	}

	cfg, err := config.Load(cfgFile, v)
	if err != nil {
		return nil, err
	}
	if err := observability.InitCLILogger(cfg.Settings.Logging.Level, cfg.Settings.Logging.JSON); err != nil {
		return nil, err
	}
	return cfg, nil
}
