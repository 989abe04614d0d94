package cmd

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/job"
	"github.com/signalnine/simsweep/internal/launcher"
	"github.com/signalnine/simsweep/internal/observability"
	"github.com/signalnine/simsweep/internal/report"
	"github.com/signalnine/simsweep/internal/result"
	"github.com/signalnine/simsweep/internal/runner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	flagConfigIDs   []string
	flagWorkloads   []string
	flagParallel    int
	flagTimeout     time.Duration
	flagFailOnError bool
	flagDryRun      bool
)

var runFlags = map[string]string{
	"runner.concurrency": "parallel",
	"runner.job_timeout": "timeout",
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run every selected configuration × workload job",
		RunE:  runSweep,
	}
	cmd.Flags().StringSliceVar(&flagConfigIDs, "config-id", nil, "configuration id glob to include (repeatable)")
	cmd.Flags().StringSliceVar(&flagWorkloads, "workload", nil, "workload id glob to include (repeatable)")
	cmd.Flags().IntVar(&flagParallel, "parallel", 0, "max concurrent simulations (default: number of CPUs)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per-job timeout, 0 disables (default from config)")
	cmd.Flags().BoolVar(&flagFailOnError, "fail-on-error", false, "exit non-zero when any job fails")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "print the invocations without running them")
	return cmd
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, runFlags)
	if err != nil {
		return err
	}
	s := cfg.Settings.Runner
	out := cmd.OutOrStdout()

	cat, err := config.Select(&cfg.Catalog, config.Selection{Configs: flagConfigIDs, Workloads: flagWorkloads})
	if err != nil {
		return err
	}

	exe, err := resolveExecutable(s)
	if err != nil {
		if !flagDryRun {
			return err
		}
		observability.CLILogger.Warn("executable not found", zap.Error(err))
		exe = s.Executable
	}

	jobs, err := job.Build(cat, job.BuildOpts{
		BaseDir:     s.OutputDir,
		Executable:  exe,
		Script:      s.Script,
		OutputFlag:  s.OutputFlag,
		ParamPrefix: s.ParamPrefix,
		Nice:        s.Nice,
	})
	if err != nil {
		return err
	}

	if flagDryRun {
		printPlan(out, jobs)
		return nil
	}

	var env []string
	if s.EnvFile != "" {
		if env, err = launcher.ParseEnvFile(s.EnvFile); err != nil {
			return err
		}
	}
	l, closeLauncher, err := newLauncher(s, exe, env)
	if err != nil {
		return err
	}
	defer closeLauncher()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manifest := result.NewRunManifest(s.Concurrency, len(jobs))
	manifest.Executable = exe
	if err := result.WriteManifest(s.OutputDir, manifest); err != nil {
		return err
	}

	fmt.Fprintf(out, "Running %d jobs (%d configurations × %d workloads), %d at a time\n",
		len(jobs), len(cat.Configurations), len(cat.Workloads), s.Concurrency)
	fmt.Fprintf(out, "Output directory: %s\n\n", s.OutputDir)

	metrics := observability.NewRunMetrics()
	sched := runner.New(l, runner.Options{
		RunID:       manifest.RunID,
		Concurrency: s.Concurrency,
		JobTimeout:  s.JobTimeout,
		LaunchRate:  s.LaunchRate,
		LogName:     s.LogName,
		Metrics:     metrics,
		OnResult: func(done, total int, r result.JobResult) {
			fmt.Fprintln(out, progressLine(done, total, r))
		},
	})
	results, err := sched.Run(ctx, jobs)
	if err != nil {
		return err
	}

	manifest.EndedAt = time.Now().UTC()
	if err := result.WriteManifest(s.OutputDir, manifest); err != nil {
		observability.CLILogger.Warn("updating run manifest", zap.Error(err))
	}
	if err := metrics.WriteTextfile(filepath.Join(s.OutputDir, result.MetricsFile)); err != nil {
		observability.CLILogger.Warn("writing metrics", zap.Error(err))
	}

	summary := report.Summarize(results, manifest.WallClockSeconds(), s.Concurrency)
	if err := writeRunReport(filepath.Join(s.OutputDir, result.ReportFile), results, summary); err != nil {
		observability.CLILogger.Warn("writing run report", zap.Error(err))
	}
	fmt.Fprintln(out)
	if err := report.WriteRunReport(out, results, summary); err != nil {
		return err
	}

	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %d of %d jobs did not complete", summary.FailuresByKind[result.KindCanceled], summary.Total)
	}
	if flagFailOnError && summary.Failed > 0 {
		return fmt.Errorf("%d of %d jobs failed", summary.Failed, summary.Total)
	}
	return nil
}

func resolveExecutable(s config.RunnerSettings) (string, error) {
	if s.Launcher == config.LauncherContainer {
		return s.Executable, nil
	}
	return launcher.ResolveExecutable(s.Executable, s.ExecutableCandidates)
}

func newLauncher(s config.RunnerSettings, exe string, env []string) (launcher.Launcher, func(), error) {
	if s.Launcher == config.LauncherContainer {
		c, err := launcher.NewContainer(s.Container, env)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	}
	return launcher.NewProcess(exe, s.Script, env), func() {}, nil
}

func writeRunReport(path string, results []result.JobResult, summary report.RunSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating run report: %w", err)
	}
	if err := report.WriteRunReport(f, results, summary); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func printPlan(w io.Writer, jobs []job.Job) {
	fmt.Fprintf(w, "%d jobs:\n", len(jobs))
	for _, j := range jobs {
		fmt.Fprintf(w, "  %s\n    %s\n", j.Name(), strings.Join(j.Invocation, " "))
	}
}

func progressLine(done, total int, r result.JobResult) string {
	if r.Success {
		return fmt.Sprintf("[%d/%d] OK    %s (%.1fs)", done, total, r.Name(), r.ElapsedSeconds)
	}
	return fmt.Sprintf("[%d/%d] FAIL  %s: %s", done, total, r.Name(), r.ErrorMessage)
}
