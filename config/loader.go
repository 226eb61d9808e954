package config

import (
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// ProjectConfigFile is the name of the project-level config file.
	ProjectConfigFile = "tracegraph.yaml"
	// UserConfigDir is the directory for user-level config.
	UserConfigDir = ".config/tracegraph"
	// UserConfigFile is the name of the user-level config file.
	UserConfigFile = "config.yaml"
	// EnvPrefix prefixes all environment overrides.
	EnvPrefix = "TRACEGRAPH_"
)

// Loader handles configuration loading with layered precedence.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/tracegraph/config.yaml)
// 3. Project config (tracegraph.yaml in current or parent directories)
// 4. Environment variables (TRACEGRAPH_*)
func (l *Loader) Load() (*Config, error) {
	config := DefaultConfig()

	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	projectConfigPath := l.findProjectConfig()
	if projectConfigPath != "" {
		if projectConfig, err := LoadFromFile(projectConfigPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectConfigPath))
			config.Merge(projectConfig)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectConfigPath), slog.String("error", err.Error()))
		}
	} else {
		l.logger.Debug("No project config found")
	}

	l.applyEnv(config)

	// Auto-detect corpus root if not set
	if config.Corpus.Root == "" {
		if gitRoot := l.detectGitRoot(); gitRoot != "" {
			config.Corpus.Root = gitRoot
			l.logger.Debug("Auto-detected git root", slog.String("path", gitRoot))
		} else if cwd, err := os.Getwd(); err == nil {
			config.Corpus.Root = cwd
			l.logger.Debug("Using current directory as corpus root", slog.String("path", cwd))
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnv applies TRACEGRAPH_* environment overrides, the highest
// precedence layer.
func (l *Loader) applyEnv(config *Config) {
	if v := os.Getenv(EnvPrefix + "ROOT"); v != "" {
		config.Corpus.Root = v
	}
	if v := os.Getenv(EnvPrefix + "PATTERNS"); v != "" {
		config.Corpus.Patterns = strings.Split(v, ",")
	}
	if v := os.Getenv(EnvPrefix + "REPO"); v != "" {
		config.Corpus.Repo = v
	}
	if v := os.Getenv(EnvPrefix + "HASH_ALGORITHM"); v != "" {
		config.Hash.Algorithm = v
	}
	if v := os.Getenv(EnvPrefix + "INFER_INHERITED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			config.Coverage.InferInherited = &b
		} else {
			l.logger.Warn("Invalid boolean in environment", slog.String("var", EnvPrefix+"INFER_INHERITED"), slog.String("value", v))
		}
	}
}

// EnsureUserConfig creates the user config file with defaults if it
// doesn't exist.
func (l *Loader) EnsureUserConfig() error {
	userConfigPath := l.userConfigPath()

	if _, err := os.Stat(userConfigPath); err == nil {
		return nil // Already exists
	}

	config := DefaultConfig()
	if err := config.SaveToFile(userConfigPath); err != nil {
		return err
	}

	l.logger.Info("Created default user config", slog.String("path", userConfigPath))
	return nil
}

// userConfigPath returns the path to the user config file.
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findProjectConfig searches for tracegraph.yaml in current and parent
// directories.
func (l *Loader) findProjectConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// detectGitRoot finds the git repository root from current directory.
func (l *Loader) detectGitRoot() string {
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	output, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(output))
}
