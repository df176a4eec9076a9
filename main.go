package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/adrg/xdg"
	t "github.com/darrenburns/terma"
)

const defaultSessionRelPath = "snapdiff/session.json"

// Set at build time by GoReleaser via ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	var serverURL string
	var assetURL string
	var themeName string
	var sidebarVisible bool
	var pollInterval string
	var fromFile string
	var configPath string
	var noConfig bool
	var noSession bool
	var showVersion bool

	flag.StringVar(&serverURL, "server", "http://localhost:8080", "base URL of the snapshot diff API")
	flag.StringVar(&assetURL, "assets", "", "base URL for image assets (defaults to the server URL)")
	flag.StringVar(&themeName, "theme", t.ThemeNameCatppuccin, "default theme")
	flag.BoolVar(&sidebarVisible, "sidebar", true, "show the detail sidebar on startup")
	flag.StringVar(&pollInterval, "poll-interval", "10s", "how often to refresh the running jobs list")
	flag.StringVar(&fromFile, "from-file", "", "review a saved comparison result JSON file instead of a live server")
	flag.StringVar(&configPath, "config", "", "path to YAML config file")
	flag.BoolVar(&noConfig, "no-config", false, "disable config file loading")
	flag.BoolVar(&noSession, "no-session", false, "disable the persisted session cache")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	explicitlySetFlags := map[string]bool{}
	flag.Visit(func(f *flag.Flag) {
		explicitlySetFlags[f.Name] = true
	})

	if showVersion {
		fmt.Printf("snapdiff %s (%s)\n", version, commit)
		os.Exit(0)
	}

	cfg, err := loadStartupConfig(xdg.ConfigHome, configPath, noConfig)
	if err != nil {
		log.Fatal(err)
	}

	flagValues := startupFlagValues{
		ServerURL:      serverURL,
		AssetURL:       assetURL,
		ThemeName:      themeName,
		SidebarVisible: sidebarVisible,
		PollInterval:   pollInterval,
	}
	flagValues = applyStartupConfig(flagValues, cfg, explicitlySetFlags)

	initialState, err := startupInitialStateFromFlags(flagValues.ServerURL, flagValues.AssetURL, flagValues.ThemeName, flagValues.SidebarVisible, flagValues.PollInterval)
	if err != nil {
		log.Fatal(err)
	}

	gateway, initialState, err := startupGateway(fromFile, initialState)
	if err != nil {
		log.Fatal(err)
	}

	sessionPath := resolveSessionPath(noSession, fromFile, xdg.StateFile)

	cache := NewComparisonCache(gateway, NewSessionStore(sessionPath))
	poller := NewJobPoller(gateway, initialState.PollInterval)

	app := NewSnapApp(gateway, cache, poller, initialState)
	defer poller.Stop()
	if err := t.Run(app); err != nil {
		log.Fatal(err)
	}
}

// startupGateway picks the live HTTP gateway, or the offline file gateway
// when -from-file names a saved result.
func startupGateway(fromFile string, initialState SnapInitialState) (Gateway, SnapInitialState, error) {
	if fromFile == "" {
		return NewHTTPGateway(initialState.ServerURL, initialState.AssetURL), initialState, nil
	}
	offline, err := LoadFileGateway(fromFile, initialState.AssetURL)
	if err != nil {
		return nil, initialState, err
	}
	initialState.Offline = true
	initialState.OfflineResultID = offline.Result.ID
	return offline, initialState, nil
}

// resolveSessionPath returns where to persist the session cache. Offline
// review and -no-session disable persistence; so does a state dir failure,
// since the session is strictly best-effort.
func resolveSessionPath(noSession bool, fromFile string, stateFile func(string) (string, error)) string {
	if noSession || fromFile != "" {
		return ""
	}
	path, err := stateFile(defaultSessionRelPath)
	if err != nil {
		return ""
	}
	return path
}
