package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trialmetrics/trialstat/internal/logging"
)

// ErrNoProject indicates no project-local .trialstat directory was found
// walking up from the start directory.
var ErrNoProject = errors.New("no project directory found")

// resolvedProjectDir holds the resolved project directory path for use
// by other config functions during the lifetime of a CLI invocation.
var (
	resolvedProjectDir   string       //nolint:gochecknoglobals // Set once at startup, read by config loaders
	resolvedProjectDirMu sync.RWMutex //nolint:gochecknoglobals // Protects resolvedProjectDir
)

// SetResolvedProjectDir stores the resolved project directory for use by other config functions.
func SetResolvedProjectDir(dir string) {
	resolvedProjectDirMu.Lock()
	defer resolvedProjectDirMu.Unlock()
	resolvedProjectDir = dir
}

// GetResolvedProjectDir returns the stored resolved project directory.
func GetResolvedProjectDir() string {
	resolvedProjectDirMu.RLock()
	defer resolvedProjectDirMu.RUnlock()
	return resolvedProjectDir
}

// ResolveProjectDir determines the project-local .trialstat directory path.
// It checks (in order):
//  1. flagValue (--project-dir CLI flag)
//  2. TRIALSTAT_PROJECT_DIR env var
//  3. findProjectRoot(startDir) walk-up
//
// Returns the path to $PROJECT/.trialstat/ or empty string if no project
// found. Does NOT create the directory (read-only operation). Returned
// path is always absolute (or empty).
func ResolveProjectDir(ctx context.Context, flagValue, startDir string) string {
	if flagValue != "" {
		return toAbsProjectDir(ctx, flagValue)
	}

	if envDir := os.Getenv(EnvProjectDir); envDir != "" {
		return toAbsProjectDir(ctx, envDir)
	}

	projectRoot, err := findProjectRoot(startDir)
	if err != nil {
		if !errors.Is(err, ErrNoProject) {
			logger := logging.FromContext(ctx)
			logger.Warn().
				Str("component", "config").
				Err(err).
				Str("start_dir", startDir).
				Msg("unexpected error during project discovery")
		}
		return ""
	}

	return toAbsProjectDir(ctx, projectRoot)
}

// findProjectRoot walks up from dir looking for a directory that contains
// a .trialstat directory, and returns that directory. The global config
// directory itself (typically ~/.trialstat) is not a project marker.
func findProjectRoot(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving absolute path: %w", err)
	}

	globalDir, err := GetConfigDir()
	if err != nil {
		globalDir = ""
	}

	current := absDir
	for {
		candidate := filepath.Join(current, ".trialstat")
		if info, statErr := os.Stat(candidate); statErr == nil && info.IsDir() && candidate != globalDir {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached filesystem root.
			return "", ErrNoProject
		}
		current = parent
	}
}

// NewWithProjectDir creates a Config by loading global config then
// shallow-merging project-local config on top. If projectDir is empty,
// behaves identically to New().
func NewWithProjectDir(ctx context.Context, projectDir string) *Config {
	cfg := New()

	if projectDir == "" {
		return cfg
	}

	overlayPath := filepath.Join(projectDir, "config.yaml")
	if _, err := os.Stat(overlayPath); err != nil {
		// Missing project config is not an error — use global defaults.
		return cfg
	}

	cfgCopy := New()
	if err := ShallowMergeYAML(cfgCopy, overlayPath); err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Str("operation", "merge_project_config").
			Err(err).
			Str("overlay_path", overlayPath).
			Msg("failed to merge project config, using global defaults")
		return cfg
	}

	return cfgCopy
}

// toAbsProjectDir converts dir to an absolute path and appends ".trialstat".
// If the path already ends with ".trialstat", it is returned as-is (after
// resolving to an absolute path) to prevent double-append.
func toAbsProjectDir(ctx context.Context, dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		logger := logging.FromContext(ctx)
		logger.Warn().
			Str("component", "config").
			Err(err).
			Str("dir", dir).
			Msg("failed to resolve absolute path for project directory")
		abs = dir
	}

	if filepath.Base(abs) == ".trialstat" {
		return abs
	}

	return filepath.Join(abs, ".trialstat")
}
