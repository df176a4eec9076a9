package main

import (
	"testing"
	"time"

	terma "github.com/darrenburns/terma"
	"github.com/stretchr/testify/require"
)

func TestStartupInitialStateFromFlags_ParsesValues(t *testing.T) {
	initialState, err := startupInitialStateFromFlags("http://localhost:8080/", "http://cdn.internal", "catpuccin", false, "30s")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", initialState.ServerURL)
	require.Equal(t, "http://cdn.internal", initialState.AssetURL)
	require.Equal(t, terma.ThemeNameCatppuccin, initialState.ThemeName)
	require.False(t, initialState.SidebarVisible)
	require.Equal(t, 30*time.Second, initialState.PollInterval)
}

func TestStartupInitialStateFromFlags_AssetsDefaultToServer(t *testing.T) {
	initialState, err := startupInitialStateFromFlags("http://localhost:8080", "", "catppuccin", true, "")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", initialState.AssetURL)
	require.Equal(t, defaultJobPollInterval, initialState.PollInterval)
}

func TestStartupInitialStateFromFlags_InvalidServerErrors(t *testing.T) {
	_, err := startupInitialStateFromFlags("localhost:8080", "", "catppuccin", true, "10s")
	require.Error(t, err)
	require.ErrorContains(t, err, "--server")
}

func TestParseBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "plainHTTP", value: "http://localhost:8080", want: "http://localhost:8080"},
		{name: "httpsWithPath", value: "https://snapshots.internal/api", want: "https://snapshots.internal/api"},
		{name: "trailingSlashTrimmed", value: "http://localhost:8080/", want: "http://localhost:8080"},
		{name: "surroundingWhitespace", value: "  http://localhost:8080  ", want: "http://localhost:8080"},
		{name: "empty", value: "", wantErr: true},
		{name: "noScheme", value: "localhost:8080", wantErr: true},
		{name: "wrongScheme", value: "ftp://files.internal", wantErr: true},
		{name: "noHost", value: "http://", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseBaseURL(tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParsePollInterval(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    time.Duration
		wantErr bool
	}{
		{name: "emptyUsesDefault", value: "", want: defaultJobPollInterval},
		{name: "seconds", value: "30s", want: 30 * time.Second},
		{name: "minutes", value: "2m", want: 2 * time.Minute},
		{name: "belowMinimum", value: "100ms", wantErr: true},
		{name: "garbage", value: "soon", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parsePollInterval(tc.value)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseThemeName(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "exactName", value: terma.ThemeNameCatppuccin, want: terma.ThemeNameCatppuccin},
		{name: "commonMisspelling", value: "catpuccin", want: terma.ThemeNameCatppuccin},
		{name: "caseAndSpacesNormalized", value: "  CATPPUCCIN  ", want: terma.ThemeNameCatppuccin},
		{name: "unknownTheme", value: "missing-theme", wantErr: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseThemeName(tc.value)
			if tc.wantErr {
				require.Error(t, err)
				require.ErrorContains(t, err, "--theme")
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeCLIValue(t *testing.T) {
	require.Equal(t, "side-by-side", normalizeCLIValue(" Side_By Side "))
	require.Equal(t, "catppuccin", normalizeCLIValue("CATPPUCCIN"))
}
