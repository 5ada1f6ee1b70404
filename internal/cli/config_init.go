package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/trialmetrics/trialstat/internal/config"
)

// NewConfigInitCmd creates the config init command for initializing configuration.
// When run inside a project (without --global), it creates a project-local
// .trialstat/ directory with config.yaml and a .gitignore. Otherwise, it
// creates the global ~/.trialstat/config.yaml.
func NewConfigInitCmd() *cobra.Command {
	var (
		force  bool
		global bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Long: `Creates a new configuration file with default values.

When run inside a project (a directory tree containing .trialstat/), creates
project-local configuration at $PROJECT/.trialstat/config.yaml with a
.gitignore to keep machine-specific data out of version control.
Use --global to force global configuration initialization even inside a project.`,
		Example: `  # Create project-local configuration (inside a project)
  trialstat config init

  # Create global configuration
  trialstat config init --global

  # Create configuration, overwriting existing
  trialstat config init --force`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			projectDir := config.GetResolvedProjectDir()

			if projectDir != "" && !global {
				return initProjectConfig(cmd, projectDir, force)
			}

			return initGlobalConfig(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	cmd.Flags().BoolVar(&global, "global", false, "force global configuration init even inside a project")

	return cmd
}

// initProjectConfig creates project-local config at projectDir/config.yaml with .gitignore.
func initProjectConfig(cmd *cobra.Command, projectDir string, force bool) error {
	configPath := filepath.Join(projectDir, "config.yaml")

	if err := checkConfigOverwrite(configPath, force); err != nil {
		return err
	}

	// Ensure the project .trialstat/ directory exists
	if err := os.MkdirAll(projectDir, 0o750); err != nil {
		return fmt.Errorf("failed to create project config directory: %w", err)
	}

	// Save default configuration to the project directory
	cfg := config.DefaultConfig()
	cfg.SetConfigPath(configPath)
	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	// Create .gitignore (never overwrites existing)
	created, err := config.EnsureGitignore(projectDir)
	if err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}

	cmd.Printf("Configuration initialized at %s\n", configPath)
	if created {
		cmd.Printf("Created .gitignore to keep machine-specific data out of version control\n")
	}

	return nil
}

// initGlobalConfig creates global config at ~/.trialstat/config.yaml.
func initGlobalConfig(cmd *cobra.Command, force bool) error {
	dir, err := config.GetConfigDir()
	if err != nil {
		return fmt.Errorf("resolving config directory: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.SetConfigPath(filepath.Join(dir, "config.yaml"))

	if err := checkConfigOverwrite(cfg.ConfigPath(), force); err != nil {
		return err
	}

	if err := cfg.Save(); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	cmd.Printf("Configuration initialized successfully\n")
	cmd.Printf("Configuration file: %s\n", cfg.ConfigPath())

	return nil
}

// checkConfigOverwrite fails when the config file already exists and force
// is not set.
func checkConfigOverwrite(configPath string, force bool) error {
	if force {
		return nil
	}
	_, err := os.Stat(configPath)
	if err == nil {
		return errors.New("configuration file already exists, use --force to overwrite")
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("cannot access config path %s: %w", configPath, err)
	}
	return nil
}
