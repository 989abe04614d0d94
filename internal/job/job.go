// Package job expands a catalog into the flat list of simulation jobs and
// maps job identities to and from their output directories.
package job

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/signalnine/simsweep/internal/config"
)

// ErrIDCollision marks a catalog whose ids do not give every job a distinct
// identity and output directory.
var ErrIDCollision = config.ErrIDCollision

type CollisionError = config.CollisionError

type Job struct {
	ConfigID     string
	WorkloadID   string
	OutputDir    string
	Invocation   []string
	PriorityHint *int
}

// Name is the display form of the job identity, configId/workloadId.
func (j *Job) Name() string {
	return j.ConfigID + "/" + j.WorkloadID
}

type BuildOpts struct {
	BaseDir     string
	Executable  string
	Script      string
	OutputFlag  string
	ParamPrefix string
	// Nice is the scheduling priority offset for every job; zero leaves the
	// priority untouched.
	Nice int
}

// Build returns one job per configuration × workload, configurations outer,
// both in catalog order.
func Build(cat *config.Catalog, opts BuildOpts) ([]Job, error) {
	if err := cat.CheckIDs(); err != nil {
		return nil, err
	}

	var hint *int
	if opts.Nice != 0 {
		n := opts.Nice
		hint = &n
	}

	jobs := make([]Job, 0, len(cat.Configurations)*len(cat.Workloads))
	seenDirs := make(map[string]string, cap(jobs))
	for i := range cat.Configurations {
		c := &cat.Configurations[i]
		for _, w := range cat.Workloads {
			j := Job{
				ConfigID:     c.ID,
				WorkloadID:   w.ID,
				OutputDir:    Dir(opts.BaseDir, c.ID, w.ID),
				PriorityHint: hint,
			}
			// Case-folded so trees stay distinct on case-insensitive filesystems.
			key := strings.ToLower(filepath.Clean(j.OutputDir))
			if prev, ok := seenDirs[key]; ok {
				return nil, &CollisionError{Kind: "job", ID: j.Name(), Reason: "output directory already used by " + prev}
			}
			seenDirs[key] = j.Name()
			j.Invocation = Invocation(opts, c, w.ID, j.OutputDir)
			jobs = append(jobs, j)
		}
	}
	return jobs, nil
}

// Invocation builds the simulator argv:
//
//	<executable> [script] <workload> <output-flag> <dir> [<prefix><param> <value>]...
func Invocation(opts BuildOpts, c *config.Configuration, workloadID, outputDir string) []string {
	outputFlag := opts.OutputFlag
	if outputFlag == "" {
		outputFlag = "-o"
	}
	argv := make([]string, 0, 5+2*len(c.Parameters))
	argv = append(argv, opts.Executable)
	if opts.Script != "" {
		argv = append(argv, opts.Script)
	}
	argv = append(argv, workloadID, outputFlag, outputDir)
	for _, p := range c.Parameters {
		argv = append(argv, opts.ParamPrefix+p.Name, p.Value)
	}
	return argv
}

// Dir is the output directory of a job: baseDir/configId/workloadId.
func Dir(baseDir, configID, workloadID string) string {
	return filepath.Join(baseDir, configID, workloadID)
}

// IdentityFromDir recovers (configId, workloadId) from a job output
// directory below baseDir.
func IdentityFromDir(baseDir, dir string) (configID, workloadID string, err error) {
	rel, err := filepath.Rel(baseDir, dir)
	if err != nil {
		return "", "", fmt.Errorf("resolving %s against %s: %w", dir, baseDir, err)
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) != 2 || !config.ValidSegment(parts[0]) || !config.ValidSegment(parts[1]) {
		return "", "", fmt.Errorf("%s is not a <config>/<workload> directory below %s", dir, baseDir)
	}
	return parts[0], parts[1], nil
}
