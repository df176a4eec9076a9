package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	t "github.com/darrenburns/terma"
)

const themeAliasCatpuccin = "catpuccin"

func startupInitialStateFromFlags(serverURL string, assetURL string, themeName string, sidebarVisible bool, pollInterval string) (SnapInitialState, error) {
	parsedServer, err := parseBaseURL(serverURL)
	if err != nil {
		return SnapInitialState{}, fmt.Errorf("invalid --server value %q: %w", serverURL, err)
	}

	parsedAssets := parsedServer
	if assetURL != "" {
		parsedAssets, err = parseBaseURL(assetURL)
		if err != nil {
			return SnapInitialState{}, fmt.Errorf("invalid --assets value %q: %w", assetURL, err)
		}
	}

	parsedThemeName, err := parseThemeName(themeName)
	if err != nil {
		return SnapInitialState{}, err
	}

	parsedInterval, err := parsePollInterval(pollInterval)
	if err != nil {
		return SnapInitialState{}, fmt.Errorf("invalid --poll-interval value %q: %w", pollInterval, err)
	}

	return SnapInitialState{
		ServerURL:      parsedServer,
		AssetURL:       parsedAssets,
		ThemeName:      parsedThemeName,
		SidebarVisible: sidebarVisible,
		PollInterval:   parsedInterval,
	}, nil
}

func parseBaseURL(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("empty URL")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("URL %q must use http or https", trimmed)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("URL %q has no host", trimmed)
	}
	return strings.TrimRight(trimmed, "/"), nil
}

func parsePollInterval(value string) (time.Duration, error) {
	normalized := strings.TrimSpace(value)
	if normalized == "" {
		return defaultJobPollInterval, nil
	}
	interval, err := time.ParseDuration(normalized)
	if err != nil {
		return 0, err
	}
	if interval < time.Second {
		return 0, fmt.Errorf("interval %q is below the 1s minimum", value)
	}
	return interval, nil
}

func parseThemeName(value string) (string, error) {
	normalized := normalizeCLIValue(value)
	if normalized == themeAliasCatpuccin {
		normalized = t.ThemeNameCatppuccin
	}
	if _, ok := t.GetTheme(normalized); ok {
		return normalized, nil
	}
	return "", fmt.Errorf("invalid --theme value %q (available themes: %s)", value, strings.Join(t.ThemeNames(), ", "))
}

func normalizeCLIValue(value string) string {
	normalized := strings.TrimSpace(strings.ToLower(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	return normalized
}
