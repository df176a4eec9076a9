package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const defaultConfigRelPath = "snapdiff/config.yaml"

const (
	flagNameServer       = "server"
	flagNameAssets       = "assets"
	flagNameTheme        = "theme"
	flagNameSidebar      = "sidebar"
	flagNamePollInterval = "poll-interval"
)

type startupConfig struct {
	Server       *string `yaml:"server"`
	Assets       *string `yaml:"assets"`
	Theme        *string `yaml:"theme"`
	Sidebar      *bool   `yaml:"sidebar"`
	PollInterval *string `yaml:"poll-interval"`
}

type startupFlagValues struct {
	ServerURL      string
	AssetURL       string
	ThemeName      string
	SidebarVisible bool
	PollInterval   string
}

type resolvedConfigPath struct {
	Path     string
	Required bool
	Enabled  bool
}

func resolveStartupConfigPath(configHome string, explicitPath string, noConfig bool) resolvedConfigPath {
	if noConfig {
		return resolvedConfigPath{Enabled: false}
	}
	if explicitPath != "" {
		return resolvedConfigPath{
			Path:     explicitPath,
			Required: true,
			Enabled:  true,
		}
	}
	return resolvedConfigPath{
		Path:     filepath.Join(configHome, defaultConfigRelPath),
		Required: false,
		Enabled:  true,
	}
}

func loadStartupConfig(configHome string, explicitPath string, noConfig bool) (startupConfig, error) {
	path := resolveStartupConfigPath(configHome, explicitPath, noConfig)
	if !path.Enabled {
		return startupConfig{}, nil
	}
	return readStartupConfig(path.Path, path.Required)
}

func readStartupConfig(path string, required bool) (startupConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return startupConfig{}, nil
		}
		return startupConfig{}, fmt.Errorf("read config %q: %w", path, err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var cfg startupConfig
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return startupConfig{}, nil
		}
		return startupConfig{}, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := validateStartupConfig(path, cfg); err != nil {
		return startupConfig{}, err
	}

	return cfg, nil
}

func validateStartupConfig(path string, cfg startupConfig) error {
	if cfg.Server != nil {
		if _, err := parseBaseURL(*cfg.Server); err != nil {
			return fmt.Errorf("invalid config value for key %q in %q: %w", flagNameServer, path, err)
		}
	}

	if cfg.Assets != nil && *cfg.Assets != "" {
		if _, err := parseBaseURL(*cfg.Assets); err != nil {
			return fmt.Errorf("invalid config value for key %q in %q: %w", flagNameAssets, path, err)
		}
	}

	if cfg.Theme != nil {
		if _, err := parseThemeName(*cfg.Theme); err != nil {
			return fmt.Errorf("invalid config value for key %q in %q: %w", flagNameTheme, path, err)
		}
	}

	if cfg.PollInterval != nil {
		if _, err := parsePollInterval(*cfg.PollInterval); err != nil {
			return fmt.Errorf("invalid config value for key %q in %q: %w", flagNamePollInterval, path, err)
		}
	}

	return nil
}

func applyStartupConfig(values startupFlagValues, cfg startupConfig, explicitlySet map[string]bool) startupFlagValues {
	if cfg.Server != nil && !explicitlySet[flagNameServer] {
		values.ServerURL = *cfg.Server
	}
	if cfg.Assets != nil && !explicitlySet[flagNameAssets] {
		values.AssetURL = *cfg.Assets
	}
	if cfg.Theme != nil && !explicitlySet[flagNameTheme] {
		values.ThemeName = *cfg.Theme
	}
	if cfg.Sidebar != nil && !explicitlySet[flagNameSidebar] {
		values.SidebarVisible = *cfg.Sidebar
	}
	if cfg.PollInterval != nil && !explicitlySet[flagNamePollInterval] {
		values.PollInterval = *cfg.PollInterval
	}
	return values
}
