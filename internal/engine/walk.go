package engine

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/printgate/printgate/internal/types"
)

// Discovery is the artifact set selected for one batch, in path order.
type Discovery struct {
	Artifacts []types.Artifact
	Found     int    // matches before the cap was applied
	Truncated bool   // true when Found exceeded cfg.MaxArtifacts
	Warning   string // human-readable note when Truncated
}

// Discover walks cfg.Root and returns every file matching the extension and
// glob filters, sorted by slash-separated relative path. When more than
// cfg.MaxArtifacts files match, only the first MaxArtifacts are kept and a
// warning is logged. An unreadable root is an error; zero matches is not.
func Discover(cfg Config) (Discovery, error) {
	var d Discovery
	st, err := os.Stat(cfg.Root)
	if err != nil {
		return d, fmt.Errorf("cannot open input directory: %w", err)
	}
	if !st.IsDir() {
		return d, fmt.Errorf("input path is not a directory: %s", cfg.Root)
	}

	exts := normalizeExtensions(cfg.Extensions)
	var paths []string
	err = filepath.WalkDir(cfg.Root, func(p string, de fs.DirEntry, err error) error {
		if err != nil {
			if p == cfg.Root {
				return err
			}
			logrus.WithField("path", p).WithError(err).Debug("skipping unreadable entry")
			return nil
		}
		if de.IsDir() {
			if p != cfg.Root && cfg.DefaultExcludes && isDefaultDirExcluded(de.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, err := filepath.Rel(cfg.Root, p)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)
		if !matchesExtension(rel, exts) || !allowedByGlobs(rel, cfg) {
			return nil
		}
		paths = append(paths, rel)
		return nil
	})
	if err != nil {
		return d, fmt.Errorf("walk %s: %w", cfg.Root, err)
	}

	sort.Strings(paths)
	d.Found = len(paths)
	if cfg.MaxArtifacts > 0 && len(paths) > cfg.MaxArtifacts {
		d.Truncated = true
		d.Warning = fmt.Sprintf("Excessive amount of artifacts (%d) detected, only the first %d were checked", len(paths), cfg.MaxArtifacts)
		logrus.Warn(d.Warning)
		paths = paths[:cfg.MaxArtifacts]
	}
	d.Artifacts = make([]types.Artifact, 0, len(paths))
	for _, p := range paths {
		d.Artifacts = append(d.Artifacts, types.Artifact{Root: cfg.Root, Path: p})
	}
	return d, nil
}
