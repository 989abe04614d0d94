package extract

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/signalnine/simsweep/internal/config"
	"github.com/signalnine/simsweep/internal/job"
	"github.com/signalnine/simsweep/internal/observability"
	"go.uber.org/zap"
)

// Target is one job output directory found on disk.
type Target struct {
	ConfigID      string
	WorkloadID    string
	Dir           string
	CostWeight    float64
	MaxIssueWidth float64
}

// Discover finds the job directories under baseDir that belong to cat, in
// catalog order. Directories outside the catalog are logged and skipped.
func Discover(baseDir string, cat *config.Catalog) ([]Target, error) {
	if err := cat.CheckIDs(); err != nil {
		return nil, err
	}
	configDirs, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("reading output tree: %w", err)
	}
	found := map[[2]string]bool{}
	for _, cd := range configDirs {
		if !cd.IsDir() {
			continue
		}
		if _, ok := cat.Configuration(cd.Name()); !ok {
			observability.CLILogger.Warn("skipping directory not in catalog", zap.String("dir", filepath.Join(baseDir, cd.Name())))
			continue
		}
		workloadDirs, err := os.ReadDir(filepath.Join(baseDir, cd.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading output tree: %w", err)
		}
		for _, wd := range workloadDirs {
			if !wd.IsDir() {
				continue
			}
			dir := filepath.Join(baseDir, cd.Name(), wd.Name())
			cfgID, wlID, err := job.IdentityFromDir(baseDir, dir)
			if err != nil || !cat.HasWorkload(wlID) {
				observability.CLILogger.Warn("skipping directory not in catalog", zap.String("dir", dir))
				continue
			}
			found[[2]string{cfgID, wlID}] = true
		}
	}

	var targets []Target
	for i := range cat.Configurations {
		c := &cat.Configurations[i]
		for _, w := range cat.Workloads {
			if !found[[2]string{c.ID, w.ID}] {
				continue
			}
			targets = append(targets, Target{
				ConfigID:      c.ID,
				WorkloadID:    w.ID,
				Dir:           job.Dir(baseDir, c.ID, w.ID),
				CostWeight:    c.CostWeight,
				MaxIssueWidth: c.MaxIssueWidth,
			})
		}
	}
	return targets, nil
}
