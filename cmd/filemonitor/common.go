package main

import (
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/monocle-build/filemonitor/pkg/config"
	"github.com/monocle-build/filemonitor/pkg/filemonitor"
	"github.com/monocle-build/filemonitor/pkg/logging"
)

// loaded bundles everything derived from a manifest file that the check,
// update, and begin-update subcommands all need.
type loaded struct {
	manifest  *config.Manifest
	paths     []filemonitor.MonitorPath
	monitor   *filemonitor.Monitor
	cachePath string
}

// loadMonitor loads the .env overrides alongside manifestPath (if present),
// reads the manifest itself, and constructs the Monitor it describes,
// rooted at root (made absolute first, so that the default "." works for
// relative glob roots too).
func loadMonitor(manifestPath, root string) (*loaded, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve root directory")
	}

	envPath := filepath.Join(filepath.Dir(manifestPath), ".env")
	if err := config.LoadEnv(envPath); err != nil {
		return nil, errors.Wrap(err, "unable to load environment overrides")
	}

	manifest, err := config.Load(manifestPath)
	if err != nil {
		return nil, errors.Wrap(err, "unable to load manifest")
	}

	paths, err := manifest.MonitorPaths()
	if err != nil {
		return nil, errors.Wrap(err, "unable to interpret declared paths")
	}

	cachePath := manifest.CacheFile
	if !filepath.IsAbs(cachePath) {
		cachePath = filepath.Join(filepath.Dir(manifestPath), cachePath)
	}

	logger := logging.RootLogger.Sublogger("filemonitor")
	monitor := filemonitor.NewMonitor(root, cachePath, manifest.HashAlgorithm, nil, false, logger)

	return &loaded{manifest: manifest, paths: paths, monitor: monitor, cachePath: cachePath}, nil
}
