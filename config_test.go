package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveStartupConfigPath(t *testing.T) {
	configHome := "/tmp/xdg-config-home"

	t.Run("defaultPath", func(t *testing.T) {
		path := resolveStartupConfigPath(configHome, "", false)
		require.True(t, path.Enabled)
		require.False(t, path.Required)
		require.Equal(t, filepath.Join(configHome, defaultConfigRelPath), path.Path)
	})

	t.Run("explicitPath", func(t *testing.T) {
		path := resolveStartupConfigPath(configHome, "/tmp/custom.yaml", false)
		require.True(t, path.Enabled)
		require.True(t, path.Required)
		require.Equal(t, "/tmp/custom.yaml", path.Path)
	})

	t.Run("noConfigWins", func(t *testing.T) {
		path := resolveStartupConfigPath(configHome, "/tmp/custom.yaml", true)
		require.False(t, path.Enabled)
		require.False(t, path.Required)
		require.Empty(t, path.Path)
	})
}

func TestLoadStartupConfig_DefaultMissingFileIsOptional(t *testing.T) {
	configHome := t.TempDir()
	cfg, err := loadStartupConfig(configHome, "", false)
	require.NoError(t, err)
	require.Equal(t, startupConfig{}, cfg)
}

func TestLoadStartupConfig_ExplicitMissingFileErrors(t *testing.T) {
	configHome := t.TempDir()
	_, err := loadStartupConfig(configHome, filepath.Join(configHome, "missing.yaml"), false)
	require.Error(t, err)
	require.ErrorContains(t, err, "read config")
	require.ErrorContains(t, err, "missing.yaml")
}

func TestLoadStartupConfig_NoConfigSkipsLoading(t *testing.T) {
	configHome := t.TempDir()
	configPath := filepath.Join(configHome, "custom.yaml")
	writeTestConfig(t, configPath, "server: [")

	cfg, err := loadStartupConfig(configHome, configPath, true)
	require.NoError(t, err)
	require.Equal(t, startupConfig{}, cfg)
}

func TestLoadStartupConfig_ParsesValidYAML(t *testing.T) {
	configHome := t.TempDir()
	configPath := filepath.Join(configHome, "custom.yaml")
	writeTestConfig(t, configPath, `
server: http://snapshots.internal:8080
assets: http://cdn.internal
theme: catppuccin
sidebar: false
poll-interval: 30s
`)

	cfg, err := loadStartupConfig(configHome, configPath, false)
	require.NoError(t, err)
	require.NotNil(t, cfg.Server)
	require.NotNil(t, cfg.Assets)
	require.NotNil(t, cfg.Theme)
	require.NotNil(t, cfg.Sidebar)
	require.NotNil(t, cfg.PollInterval)
	require.Equal(t, "http://snapshots.internal:8080", *cfg.Server)
	require.Equal(t, "http://cdn.internal", *cfg.Assets)
	require.Equal(t, "catppuccin", *cfg.Theme)
	require.False(t, *cfg.Sidebar)
	require.Equal(t, "30s", *cfg.PollInterval)
}

func TestLoadStartupConfig_UnknownKeyErrors(t *testing.T) {
	configHome := t.TempDir()
	configPath := filepath.Join(configHome, "custom.yaml")
	writeTestConfig(t, configPath, `
server: http://localhost:8080
unknown: true
`)

	_, err := loadStartupConfig(configHome, configPath, false)
	require.Error(t, err)
	require.ErrorContains(t, err, "parse config")
	require.ErrorContains(t, err, "unknown")
}

func TestLoadStartupConfig_InvalidYAMLErrors(t *testing.T) {
	configHome := t.TempDir()
	configPath := filepath.Join(configHome, "custom.yaml")
	writeTestConfig(t, configPath, "server: [")

	_, err := loadStartupConfig(configHome, configPath, false)
	require.Error(t, err)
	require.ErrorContains(t, err, "parse config")
}

func TestLoadStartupConfig_InvalidValuesIncludeKeyContext(t *testing.T) {
	tests := []struct {
		name        string
		yaml        string
		wantKeyName string
	}{
		{
			name:        "server",
			yaml:        "server: ftp://nope\n",
			wantKeyName: flagNameServer,
		},
		{
			name:        "assets",
			yaml:        "assets: not-a-url\n",
			wantKeyName: flagNameAssets,
		},
		{
			name:        "theme",
			yaml:        "theme: missing-theme\n",
			wantKeyName: flagNameTheme,
		},
		{
			name:        "pollInterval",
			yaml:        "poll-interval: 100ms\n",
			wantKeyName: flagNamePollInterval,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			configHome := t.TempDir()
			configPath := filepath.Join(configHome, "custom.yaml")
			writeTestConfig(t, configPath, tc.yaml)

			_, err := loadStartupConfig(configHome, configPath, false)
			require.Error(t, err)
			require.ErrorContains(t, err, tc.wantKeyName)
		})
	}
}

func TestApplyStartupConfig_AppliesWhenFlagNotSet(t *testing.T) {
	server := "http://snapshots.internal:8080"
	assets := "http://cdn.internal"
	theme := "dracula"
	sidebar := false
	pollInterval := "30s"

	got := applyStartupConfig(
		startupFlagValues{
			ServerURL:      "http://localhost:8080",
			AssetURL:       "",
			ThemeName:      "catppuccin",
			SidebarVisible: true,
			PollInterval:   "10s",
		},
		startupConfig{
			Server:       &server,
			Assets:       &assets,
			Theme:        &theme,
			Sidebar:      &sidebar,
			PollInterval: &pollInterval,
		},
		map[string]bool{},
	)

	require.Equal(t, "http://snapshots.internal:8080", got.ServerURL)
	require.Equal(t, "http://cdn.internal", got.AssetURL)
	require.Equal(t, "dracula", got.ThemeName)
	require.False(t, got.SidebarVisible)
	require.Equal(t, "30s", got.PollInterval)
}

func TestApplyStartupConfig_FlagsOverrideConfig(t *testing.T) {
	server := "http://snapshots.internal:8080"
	assets := "http://cdn.internal"
	theme := "dracula"
	sidebar := false
	pollInterval := "30s"

	got := applyStartupConfig(
		startupFlagValues{
			ServerURL:      "http://localhost:8080",
			AssetURL:       "http://localhost:9090",
			ThemeName:      "catppuccin",
			SidebarVisible: true,
			PollInterval:   "10s",
		},
		startupConfig{
			Server:       &server,
			Assets:       &assets,
			Theme:        &theme,
			Sidebar:      &sidebar,
			PollInterval: &pollInterval,
		},
		map[string]bool{
			flagNameServer:       true,
			flagNameAssets:       true,
			flagNameTheme:        true,
			flagNameSidebar:      true,
			flagNamePollInterval: true,
		},
	)

	require.Equal(t, "http://localhost:8080", got.ServerURL)
	require.Equal(t, "http://localhost:9090", got.AssetURL)
	require.Equal(t, "catppuccin", got.ThemeName)
	require.True(t, got.SidebarVisible)
	require.Equal(t, "10s", got.PollInterval)
}

func TestApplyStartupConfig_ExplicitFalseBooleanFlagsWinOverConfig(t *testing.T) {
	sidebar := true

	got := applyStartupConfig(
		startupFlagValues{
			ServerURL:      "http://localhost:8080",
			SidebarVisible: false,
			ThemeName:      "catppuccin",
		},
		startupConfig{
			Sidebar: &sidebar,
		},
		map[string]bool{
			flagNameSidebar: true,
		},
	)

	require.False(t, got.SidebarVisible)
}

func writeTestConfig(t *testing.T, path string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
