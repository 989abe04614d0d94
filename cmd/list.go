package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var flagListParams bool

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List configurations and workloads",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			fmt.Fprintln(out, "Configurations:")
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  ID\tNAME\tCOST\tISSUE WIDTH\tPARAMS")
			for _, c := range cfg.Catalog.Configurations {
				width := "-"
				if c.MaxIssueWidth > 0 {
					width = fmt.Sprintf("%g", c.MaxIssueWidth)
				}
				fmt.Fprintf(tw, "  %s\t%s\t%g\t%s\t%d\n", c.ID, c.DisplayName(), c.CostWeight, width, len(c.Parameters))
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if flagListParams {
				for _, c := range cfg.Catalog.Configurations {
					fmt.Fprintf(out, "\n%s:\n", c.ID)
					tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
					for _, p := range c.Parameters {
						fmt.Fprintf(tw, "  %s\t%s\n", p.Name, p.Value)
					}
					if err := tw.Flush(); err != nil {
						return err
					}
				}
			}

			ids := make([]string, len(cfg.Catalog.Workloads))
			for i, w := range cfg.Catalog.Workloads {
				ids[i] = w.ID
			}
			fmt.Fprintf(out, "\nWorkloads (%d):\n  %s\n", len(ids), strings.Join(ids, ", "))
			fmt.Fprintf(out, "\n%d jobs in the full sweep\n", len(cfg.Catalog.Configurations)*len(ids))
			return nil
		},
	}
	cmd.Flags().BoolVar(&flagListParams, "params", false, "show each configuration's parameters")
	return cmd
}
