package result

import "time"

// Kind classifies how a job ended.
type Kind string

const (
	KindCompleted      Kind = "completed"
	KindNonZeroExit    Kind = "nonzero_exit"
	KindLaunchFailure  Kind = "launch_failure"
	KindPrepareFailure Kind = "prepare_failure"
	KindTimeout        Kind = "timeout"
	KindCanceled       Kind = "canceled"
)

// JobResult is the outcome of one scheduled job. It is persisted as
// result.json in the job's output directory.
type JobResult struct {
	RunID          string    `json:"run_id,omitempty"`
	ConfigID       string    `json:"config_id"`
	WorkloadID     string    `json:"workload_id"`
	Success        bool      `json:"success"`
	ExitCode       int       `json:"exit_code"`
	Kind           Kind      `json:"kind"`
	ElapsedSeconds float64   `json:"elapsed_seconds"`
	OutputDir      string    `json:"output_dir"`
	LogPath        string    `json:"log_path,omitempty"`
	ErrorMessage   string    `json:"error_message,omitempty"`
	StartedAt      time.Time `json:"started_at,omitzero"`
}

// Name is configId/workloadId.
func (r *JobResult) Name() string {
	return r.ConfigID + "/" + r.WorkloadID
}

// RunManifest records one scheduling pass at the root of the output tree.
type RunManifest struct {
	RunID       string    `json:"run_id"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at,omitzero"`
	Concurrency int       `json:"concurrency"`
	Jobs        int       `json:"jobs"`
	Executable  string    `json:"executable,omitempty"`
}

// WallClockSeconds is zero until the run has ended.
func (m *RunManifest) WallClockSeconds() float64 {
	if m.EndedAt.IsZero() {
		return 0
	}
	return m.EndedAt.Sub(m.StartedAt).Seconds()
}
