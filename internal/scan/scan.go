// Package scan estimates the size of a search tree before searching, so
// unattended runs can derive a wall-clock timeout proportional to the work.
package scan

import (
	"io/fs"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultWalkBudget bounds how many directory entries the estimator visits;
// the estimate exists to size a timeout, not to be exact.
const DefaultWalkBudget = 50000

// Estimate summarizes a pre-scan of the search tree.
type Estimate struct {
	Files     int
	Bytes     int64
	Truncated bool
}

// EstimateTree walks root counting files and bytes, skipping paths that match
// any exclude glob (doublestar syntax, matched against the root-relative
// path). The walk stops once budget entries have been visited and marks the
// estimate truncated. budget <= 0 uses DefaultWalkBudget. Walk errors are
// skipped, never fatal.
func EstimateTree(root string, excludes []string, budget int) Estimate {
	if budget <= 0 {
		budget = DefaultWalkBudget
	}
	var est Estimate
	visited := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		visited++
		if visited > budget {
			est.Truncated = true
			return fs.SkipAll
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && excluded(rel, excludes) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return nil
		}
		est.Files++
		est.Bytes += info.Size()
		return nil
	})
	return est
}

func excluded(rel string, excludes []string) bool {
	if rel == "." {
		return false
	}
	rel = filepath.ToSlash(rel)
	for _, pattern := range excludes {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// Timeout scaling: one extra step per scaleBytes searched or scaleFiles files.
const (
	scaleBytes        = 256 << 20 // 256 MiB
	scaleFiles        = 10000
	perScaleIncrement = 30 * time.Second
)

// DeriveTimeout turns an estimate into a wall-clock budget: base plus
// size- and file-count-scaled increments, capped at max. A truncated estimate
// means the tree is larger than we can cheaply measure, so the cap applies.
func DeriveTimeout(base time.Duration, est Estimate, max time.Duration) time.Duration {
	if base <= 0 {
		return 0
	}
	if max > 0 && est.Truncated {
		return max
	}
	d := base
	d += time.Duration(est.Bytes/scaleBytes) * perScaleIncrement
	d += time.Duration(est.Files/scaleFiles) * perScaleIncrement
	if max > 0 && d > max {
		return max
	}
	return d
}
