package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/signalnine/simsweep/internal/cost"
	"github.com/signalnine/simsweep/internal/dataset"
	"github.com/signalnine/simsweep/internal/extract"
	"github.com/spf13/cobra"
)

const defaultDatasetName = "metrics.csv"

var (
	flagOut    string
	flagSQLite string
	flagCosts  string
)

var extractFlags = map[string]string{
	"extract.dataset":    "out",
	"extract.sqlite":     "sqlite",
	"extract.costs_file": "costs",
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract [base-dir]",
		Short: "Extract metrics from every job report into one dataset",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runExtract,
	}
	cmd.Flags().StringVar(&flagOut, "out", "", "CSV output path, - for stdout (default <base-dir>/metrics.csv)")
	cmd.Flags().StringVar(&flagSQLite, "sqlite", "", "also write the dataset to this SQLite database")
	cmd.Flags().StringVar(&flagCosts, "costs", "", "YAML file of configId: cost weight overrides")
	return cmd
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, extractFlags)
	if err != nil {
		return err
	}
	es := cfg.Settings.Extract
	baseDir := cfg.Settings.Runner.OutputDir
	if len(args) > 0 {
		baseDir = args[0]
	}

	targets, err := extract.Discover(baseDir, &cfg.Catalog)
	if err != nil {
		return err
	}
	if es.CostsFile != "" {
		table, err := cost.Load(es.CostsFile)
		if err != nil {
			return err
		}
		table.Apply(targets)
	}

	ex := extract.New(es)
	rows, outcomes := ex.Run(targets)
	columns := dataset.Columns(ex.Columns(), rows)

	msg := cmd.OutOrStdout()
	outPath := es.Dataset
	if outPath == "" {
		outPath = filepath.Join(baseDir, defaultDatasetName)
	}
	if outPath == "-" {
		msg = cmd.ErrOrStderr()
		if err := dataset.WriteCSV(cmd.OutOrStdout(), columns, rows); err != nil {
			return err
		}
	} else if err := writeDatasetFile(outPath, columns, rows); err != nil {
		return err
	}

	if es.SQLite != "" {
		if err := dataset.WriteSQLite(cmd.Context(), es.SQLite, es.SQLiteTable, columns, rows); err != nil {
			return err
		}
	}

	expected := len(cfg.Catalog.Configurations) * len(cfg.Catalog.Workloads)
	printExtractSummary(msg, expected, len(targets), rows, outcomes)
	if outPath != "-" {
		fmt.Fprintf(msg, "Dataset written to %s\n", outPath)
	}
	if es.SQLite != "" {
		fmt.Fprintf(msg, "SQLite table %q written to %s\n", es.SQLiteTable, es.SQLite)
	}
	return nil
}

func writeDatasetFile(path string, columns []string, rows []extract.Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating dataset dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}
	if err := dataset.WriteCSV(f, columns, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printExtractSummary(w io.Writer, expected, found int, rows []extract.Row, outcomes extract.Outcomes) {
	fmt.Fprintf(w, "Extracted %d of %d expected jobs\n", len(rows), expected)
	if missing := expected - found; missing > 0 {
		fmt.Fprintf(w, "  %d jobs have no output directory\n", missing)
	}
	for _, oc := range outcomes.Failed() {
		fmt.Fprintf(w, "  %-12s %s/%s: %v\n", oc.Status, oc.ConfigID, oc.WorkloadID, oc.Err)
	}
}
