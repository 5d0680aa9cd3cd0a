package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	// CampaignConfigFile is the name of the campaign-level config file
	CampaignConfigFile = "fieldreport.yaml"
	// UserConfigDir is the directory for user-level config
	UserConfigDir = ".config/fieldreport"
	// UserConfigFile is the name of the user-level config file
	UserConfigFile = "config.yaml"
)

// Loader handles configuration loading with layered precedence
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new configuration loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// Load loads configuration with layered precedence:
// 1. Default config
// 2. User config (~/.config/fieldreport/config.yaml)
// 3. Campaign config (explicit path, or fieldreport.yaml in current or
// parent directories)
func (l *Loader) Load(campaignPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// Load user config
	userConfigPath := l.userConfigPath()
	if userConfig, err := LoadFromFile(userConfigPath); err == nil {
		l.logger.Debug("Loaded user config", slog.String("path", userConfigPath))
		config.Merge(userConfig)
	} else if !errors.Is(err, os.ErrNotExist) {
		l.logger.Warn("Failed to load user config", slog.String("path", userConfigPath), slog.String("error", err.Error()))
	}

	// Load campaign config
	if campaignPath == "" {
		campaignPath = l.findCampaignConfig()
	}
	if campaignPath != "" {
		campaignConfig, err := LoadFromFile(campaignPath)
		if err != nil {
			return nil, err
		}
		l.logger.Debug("Loaded campaign config", slog.String("path", campaignPath))
		config.Merge(campaignConfig)
	} else {
		l.logger.Debug("No campaign config found")
	}

	// Default the output directory next to the workbook
	if config.Output.Dir == "" && config.Input.Workbook != "" {
		config.Output.Dir = filepath.Join(filepath.Dir(config.Input.Workbook), "Report")
		l.logger.Debug("Defaulted output directory", slog.String("dir", config.Output.Dir))
	}

	// Validate final config
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// userConfigPath returns the path to the user config file
func (l *Loader) userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, UserConfigDir, UserConfigFile)
}

// findCampaignConfig searches for fieldreport.yaml in current and parent directories
func (l *Loader) findCampaignConfig() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		configPath := filepath.Join(dir, CampaignConfigFile)
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			break
		}
		dir = parent
	}

	return ""
}
