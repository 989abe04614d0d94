package cmd

import (
	"github.com/signalnine/simsweep/internal/report"
	"github.com/spf13/cobra"
)

var flagFormat string

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [base-dir]",
		Short: "Summarize stored job results",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			baseDir := cfg.Settings.Runner.OutputDir
			if len(args) > 0 {
				baseDir = args[0]
			}
			return report.Generate(baseDir, flagFormat, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&flagFormat, "format", "table", "output format (text, table, markdown, json)")
	return cmd
}
