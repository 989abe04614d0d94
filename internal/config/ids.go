package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIDCollision marks a catalog whose ids do not give every job a distinct
// identity and output directory.
var ErrIDCollision = errors.New("catalog id collision")

type CollisionError struct {
	Kind   string
	ID     string
	Reason string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Kind, e.ID, e.Reason)
}

func (e *CollisionError) Unwrap() error { return ErrIDCollision }

// ValidSegment reports whether id can name exactly one directory level.
func ValidSegment(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && strings.TrimSpace(id) == id
}

// CheckIDs rejects ids that are not single path segments or that repeat.
func CheckIDs(kind string, ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !ValidSegment(id) {
			return &CollisionError{Kind: kind, ID: id, Reason: "id must be a single path segment"}
		}
		if seen[id] {
			return &CollisionError{Kind: kind, ID: id, Reason: "defined more than once"}
		}
		seen[id] = true
	}
	return nil
}

// CheckIDs validates configuration and workload ids.
func (c *Catalog) CheckIDs() error {
	ids := make([]string, len(c.Configurations))
	for i, cfg := range c.Configurations {
		ids[i] = cfg.ID
	}
	if err := CheckIDs("configuration", ids); err != nil {
		return err
	}
	ids = make([]string, len(c.Workloads))
	for i, w := range c.Workloads {
		ids[i] = w.ID
	}
	return CheckIDs("workload", ids)
}
