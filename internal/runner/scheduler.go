// Package runner schedules simulation jobs onto a bounded worker pool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/signalnine/simsweep/internal/job"
	"github.com/signalnine/simsweep/internal/launcher"
	"github.com/signalnine/simsweep/internal/observability"
	"github.com/signalnine/simsweep/internal/result"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const DefaultLogName = "simulation.log"

type Options struct {
	// RunID is stamped on every result so reports can tell runs apart.
	RunID       string
	Concurrency int
	// JobTimeout kills a job that runs longer. Zero disables it.
	JobTimeout time.Duration
	// LaunchRate caps admissions per second. Zero means unlimited.
	LaunchRate float64
	LogName    string
	Logger     *zap.Logger
	Metrics    *observability.RunMetrics
	// OnResult is called after each job, serialized across workers.
	OnResult func(done, total int, r result.JobResult)
}

type Scheduler struct {
	launcher launcher.Launcher
	opts     Options
}

func New(l launcher.Launcher, opts Options) *Scheduler {
	if opts.Concurrency < 1 {
		opts.Concurrency = runtime.NumCPU()
	}
	if opts.LogName == "" {
		opts.LogName = DefaultLogName
	}
	if opts.Logger == nil {
		opts.Logger = observability.CLILogger
	}
	return &Scheduler{launcher: l, opts: opts}
}

func (s *Scheduler) Concurrency() int {
	return s.opts.Concurrency
}

// Run executes every job and returns one result per job, in job order. The
// only error is a failed launcher preflight, in which case nothing runs.
func (s *Scheduler) Run(ctx context.Context, jobs []job.Job) ([]result.JobResult, error) {
	if err := s.launcher.Preflight(ctx); err != nil {
		return nil, fmt.Errorf("preflight: %w", err)
	}

	results := make([]result.JobResult, len(jobs))
	var (
		mu   sync.Mutex
		done int
	)
	record := func(i int, r result.JobResult) {
		results[i] = r
		mu.Lock()
		defer mu.Unlock()
		done++
		if s.opts.OnResult != nil {
			s.opts.OnResult(done, len(jobs), r)
		}
	}

	var limiter *rate.Limiter
	if s.opts.LaunchRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.LaunchRate), 1)
	}

	RunPool(ctx, s.opts.Concurrency, len(jobs), limiter,
		func(i int) { record(i, s.execute(ctx, jobs[i])) },
		func(i int) { record(i, s.skipped(jobs[i])) },
	)
	return results, nil
}

func (s *Scheduler) execute(ctx context.Context, j job.Job) result.JobResult {
	s.opts.Metrics.JobStarted()
	start := time.Now()
	r := result.JobResult{
		RunID:      s.opts.RunID,
		ConfigID:   j.ConfigID,
		WorkloadID: j.WorkloadID,
		ExitCode:   -1,
		OutputDir:  j.OutputDir,
		StartedAt:  start.UTC(),
	}
	s.launch(ctx, j, &r)
	r.ElapsedSeconds = time.Since(start).Seconds()

	s.opts.Metrics.JobFinished(j.ConfigID, string(r.Kind), r.ElapsedSeconds)
	s.logResult(&r)
	if err := result.WriteJobResult(j.OutputDir, &r); err != nil {
		s.opts.Logger.Warn("persisting job result failed", zap.String("job", j.Name()), zap.Error(err))
	}
	return r
}

func (s *Scheduler) launch(ctx context.Context, j job.Job, r *result.JobResult) {
	if err := os.MkdirAll(j.OutputDir, 0o755); err != nil {
		r.Kind = result.KindPrepareFailure
		r.ErrorMessage = fmt.Sprintf("creating output dir: %v", err)
		return
	}
	logPath := filepath.Join(j.OutputDir, s.opts.LogName)
	logFile, err := os.Create(logPath)
	if err != nil {
		r.Kind = result.KindPrepareFailure
		r.ErrorMessage = fmt.Sprintf("creating log file: %v", err)
		return
	}
	defer logFile.Close()
	r.LogPath = logPath

	jobCtx := ctx
	if s.opts.JobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, s.opts.JobTimeout)
		defer cancel()
	}

	code, err := s.launcher.Launch(jobCtx, launcher.Request{
		Argv:      j.Invocation,
		OutputDir: j.OutputDir,
		Log:       logFile,
		Priority:  j.PriorityHint,
	})
	r.ExitCode = code
	var sigErr *launcher.SignalError
	switch {
	case err != nil && ctx.Err() != nil:
		r.ExitCode = -1
		r.Kind = result.KindCanceled
		r.ErrorMessage = fmt.Sprintf("run canceled: %v", context.Cause(ctx))
	case err != nil && errors.Is(jobCtx.Err(), context.DeadlineExceeded):
		r.ExitCode = -1
		r.Kind = result.KindTimeout
		r.ErrorMessage = fmt.Sprintf("timed out after %s", s.opts.JobTimeout)
	case errors.As(err, &sigErr):
		r.ExitCode = -1
		r.Kind = result.KindNonZeroExit
		r.ErrorMessage = sigErr.Error()
	case err != nil:
		r.ExitCode = -1
		r.Kind = result.KindLaunchFailure
		r.ErrorMessage = err.Error()
	case code == 0:
		r.Success = true
		r.Kind = result.KindCompleted
	default:
		r.Kind = result.KindNonZeroExit
		r.ErrorMessage = fmt.Sprintf("exit status %d", code)
	}
}

// skipped records a job that was never dispatched because the run was
// canceled. Nothing is written to its output directory.
func (s *Scheduler) skipped(j job.Job) result.JobResult {
	s.opts.Metrics.JobSkipped(j.ConfigID, string(result.KindCanceled))
	return result.JobResult{
		RunID:        s.opts.RunID,
		ConfigID:     j.ConfigID,
		WorkloadID:   j.WorkloadID,
		ExitCode:     -1,
		Kind:         result.KindCanceled,
		OutputDir:    j.OutputDir,
		ErrorMessage: "not started: run canceled",
	}
}

func (s *Scheduler) logResult(r *result.JobResult) {
	fields := []zap.Field{
		zap.String("config", r.ConfigID),
		zap.String("workload", r.WorkloadID),
		zap.String("kind", string(r.Kind)),
		zap.Int("exit_code", r.ExitCode),
		zap.Float64("elapsed_s", r.ElapsedSeconds),
	}
	if r.Success {
		s.opts.Logger.Info("job completed", fields...)
		return
	}
	s.opts.Logger.Warn("job failed", append(fields, zap.String("error", r.ErrorMessage))...)
}
