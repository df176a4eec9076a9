package main

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"
	"strings"
	"time"

	t "github.com/darrenburns/terma"
)

const (
	snapNavTreeID        = "terma-snap-nav-tree"
	snapNavScrollID      = "terma-snap-nav-scroll"
	snapNavFilterID      = "terma-snap-nav-filter"
	snapViewerScrollID   = "terma-snap-viewer-scroll"
	snapSplitPaneID      = "terma-snap-split"
	snapOldURLInputID    = "terma-snap-old-url"
	snapNewURLInputID    = "terma-snap-new-url"
	snapHistoryTreeID    = "terma-snap-history-tree"
	snapHistoryScrollID  = "terma-snap-history-scroll"
	snapJobsScrollID     = "terma-snap-jobs-scroll"
	snapCommandPaletteID = "terma-snap-command-palette"
	snapThemesPalette    = "Themes"
)

type Screen int

const (
	ScreenStart Screen = iota
	ScreenHistory
	ScreenJobs
	ScreenAdmin
	ScreenDetail
)

func (s Screen) DisplayName() string {
	switch s {
	case ScreenStart:
		return "Home"
	case ScreenHistory:
		return "Historical"
	case ScreenJobs:
		return "Jobs"
	case ScreenAdmin:
		return "Admin"
	case ScreenDetail:
		return "Comparison"
	}
	return "Unknown"
}

type SnapInitialState struct {
	ServerURL       string
	AssetURL        string
	ThemeName       string
	SidebarVisible  bool
	PollInterval    time.Duration
	Offline         bool
	OfflineResultID string
}

func DefaultSnapInitialState() SnapInitialState {
	return SnapInitialState{
		ServerURL:      "http://localhost:8080",
		ThemeName:      t.ThemeNameCatppuccin,
		SidebarVisible: true,
		PollInterval:   defaultJobPollInterval,
	}
}

func normalizeSnapInitialState(initial SnapInitialState) SnapInitialState {
	defaults := DefaultSnapInitialState()

	if initial.ServerURL == "" {
		initial.ServerURL = defaults.ServerURL
	}
	if initial.AssetURL == "" {
		initial.AssetURL = initial.ServerURL
	}
	if initial.PollInterval <= 0 {
		initial.PollInterval = defaults.PollInterval
	}

	parsedThemeName, err := parseThemeName(initial.ThemeName)
	if err != nil {
		initial.ThemeName = defaults.ThemeName
	} else {
		initial.ThemeName = parsedThemeName
	}

	return initial
}

// historyNodeData is one row of the history list.
type historyNodeData struct {
	Entry HistoryEntry
}

// panicReport captures an unhandled build failure. The affected subtree is
// replaced with a diagnostic pane; there is no recovery or retry.
type panicReport struct {
	Message string
	Stack   string
	At      time.Time
	Screen  Screen
}

// SnapApp is the terminal client for the snapshot diff service: submit two
// build URLs, browse past comparisons, watch running jobs and walk the
// resulting image tree.
type SnapApp struct {
	gateway Gateway
	cache   *ComparisonCache
	poller  *JobPoller

	screen     Screen
	cameFrom   Screen
	navMenu    *NavMenu
	selection  *SelectionState
	notice     string
	buildPanic *panicReport

	offline         bool
	offlineResultID string
	serverURL       string

	oldURLInput *t.TextInputState
	newURLInput *t.TextInputState
	oldURLText  string
	newURLText  string
	submitting  bool
	lastRequest ComparisonRequest

	result *ComparisonResult
	tree   *NavTree

	treeState           *t.TreeState[SnapNodeData]
	treeScrollState     *t.ScrollState
	treeFilterState     *t.FilterState
	treeFilterInput     *t.TextInputState
	treeFilterVisible   bool
	treeFilterNoMatches bool
	viewerScrollState   *t.ScrollState
	splitState          *t.SplitPaneState
	sidebarVisible      bool

	historyTreeState   *t.TreeState[historyNodeData]
	historyScrollState *t.ScrollState
	historyEntries     []HistoryEntry
	historyLoaded      bool
	historySelectedID  string

	jobsScrollState *t.ScrollState

	commandPalette  *t.CommandPaletteState
	focusedWidgetID string
}

func NewSnapApp(gateway Gateway, cache *ComparisonCache, poller *JobPoller, initialState SnapInitialState) *SnapApp {
	initialState = normalizeSnapInitialState(initialState)
	t.SetTheme(initialState.ThemeName)

	app := &SnapApp{
		gateway:            gateway,
		cache:              cache,
		poller:             poller,
		screen:             ScreenStart,
		navMenu:            NewNavMenu(defaultNavItems()),
		selection:          NewSelectionState(),
		offline:            initialState.Offline,
		offlineResultID:    initialState.OfflineResultID,
		serverURL:          initialState.ServerURL,
		oldURLInput:        t.NewTextInputState(""),
		newURLInput:        t.NewTextInputState(""),
		treeState:          t.NewTreeState([]t.TreeNode[SnapNodeData]{}),
		treeScrollState:    t.NewScrollState(),
		treeFilterState:    t.NewFilterState(),
		treeFilterInput:    t.NewTextInputState(""),
		viewerScrollState:  t.NewScrollState(),
		splitState:         t.NewSplitPaneState(0.30),
		sidebarVisible:     initialState.SidebarVisible,
		historyTreeState:   t.NewTreeState([]t.TreeNode[historyNodeData]{}),
		historyScrollState: t.NewScrollState(),
		jobsScrollState:    t.NewScrollState(),
	}
	app.commandPalette = app.newCommandPalette()

	if app.offline && app.offlineResultID != "" {
		if result, err := app.cache.FetchByID(context.Background(), app.offlineResultID); err == nil {
			app.openDetail(result)
		}
	} else {
		t.RequestFocus(snapOldURLInputID)
	}
	return app
}

func (a *SnapApp) Keybinds() []t.Keybind {
	onDetail := a.screen == ScreenDetail
	return []t.Keybind{
		{Key: "1", Name: "Home", Action: func() { a.switchScreen(ScreenStart) }, Hidden: onDetail},
		{Key: "2", Name: "Historical", Action: func() { a.switchScreen(ScreenHistory) }, Hidden: onDetail},
		{Key: "3", Name: "Jobs", Action: func() { a.switchScreen(ScreenJobs) }, Hidden: onDetail},
		{Key: "4", Name: "Admin", Action: func() { a.switchScreen(ScreenAdmin) }, Hidden: onDetail},
		{Key: "enter", Name: "Open", Action: a.activateSelection, Hidden: a.screen != ScreenHistory},
		{Key: "n", Name: "Next image", Action: func() { a.moveLeafCursor(1) }, Hidden: !onDetail},
		{Key: "p", Name: "Prev image", Action: func() { a.moveLeafCursor(-1) }, Hidden: !onDetail},
		{Key: "/", Name: "Filter images", Action: a.openTreeFilter, Hidden: !onDetail},
		{Key: "b", Name: "Toggle sidebar", Action: a.toggleSidebar, Hidden: true},
		{Key: "r", Name: "Refresh", Action: a.manualRefresh, Hidden: true},
		{Key: "escape", Name: "Back", Action: a.handleEscape, Hidden: !onDetail},
		{Key: "D", Name: "Clear all data", Action: a.clearAllData, Hidden: a.screen != ScreenAdmin},
		{Key: "ctrl+p", Name: "Command palette", Action: a.togglePalette},
		{Key: "t", Name: "Theme menu", Action: a.openThemePalette, Hidden: true},
		{Key: "q", Name: "Quit", Action: t.Quit, Hidden: a.screen == ScreenStart},
		{Key: "ctrl+c", Name: "Quit", Action: t.Quit, Hidden: true},
	}
}

func (a *SnapApp) Build(ctx t.BuildContext) (widget t.Widget) {
	theme := ctx.Theme()
	if a.buildPanic != nil {
		return a.buildPanicPane(theme)
	}
	defer func() {
		if r := recover(); r != nil {
			a.buildPanic = &panicReport{
				Message: fmt.Sprint(r),
				Stack:   string(debug.Stack()),
				At:      time.Now(),
				Screen:  a.screen,
			}
			widget = a.buildPanicPane(theme)
		}
	}()

	a.syncFocusState(ctx)

	var body t.Widget
	switch a.screen {
	case ScreenStart:
		body = a.buildStartScreen(theme)
	case ScreenHistory:
		body = a.buildHistoryScreen(theme)
	case ScreenJobs:
		body = a.buildJobsScreen(theme)
	case ScreenAdmin:
		body = a.buildAdminScreen(theme)
	case ScreenDetail:
		body = a.buildDetailScreen(ctx, theme)
	default:
		body = a.buildStartScreen(theme)
	}

	return t.Stack{
		Style: t.Style{
			Width:           t.Flex(1),
			Height:          t.Flex(1),
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Dock{
				Style: t.Style{
					BackgroundColor: theme.Background,
				},
				Top: []t.Widget{a.buildHeader(theme)},
				Bottom: []t.Widget{
					t.Row{
						Style: t.Style{
							Width:           t.Flex(1),
							BackgroundColor: theme.Background,
						},
						Children: []t.Widget{
							t.Spacer{Width: t.Flex(1)},
							t.KeybindBar{
								Style: t.Style{
									Width:           t.Auto,
									BackgroundColor: theme.Background,
									Padding:         t.EdgeInsetsXY(1, 0),
								},
							},
							t.Spacer{Width: t.Flex(1)},
						},
					},
				},
				Body: body,
			},
			t.CommandPalette{
				ID:            snapCommandPaletteID,
				State:         a.commandPalette,
				Position:      t.FloatPositionTopCenter,
				Offset:        t.Offset{Y: 1},
				BackdropColor: t.Black.WithAlpha(0.05),
			},
		},
	}
}

func (a *SnapApp) buildHeader(theme t.ThemeData) t.Widget {
	children := []t.Widget{
		t.Label("snapdiff", t.LabelPrimary, theme),
		t.Spacer{Width: t.Cells(1)},
		t.Text{
			Content: a.serverDisplayName(),
			Style: t.Style{
				ForegroundColor: theme.Accent,
			},
		},
	}
	if a.notice != "" {
		children = append(children,
			t.Spacer{Width: t.Cells(1)},
			t.Label(a.notice, t.LabelError, theme),
		)
	}
	children = append(children,
		t.Spacer{Width: t.Flex(1)},
		t.Text{Spans: a.navMenuSpans(theme)},
		t.Spacer{Width: t.Cells(1)},
		t.Text{
			Content: themeDisplayName(t.CurrentThemeName()) + " [t]",
			Style: t.Style{
				Padding:         t.EdgeInsetsXY(1, 0),
				ForegroundColor: theme.SecondaryText,
			},
		},
	)

	return t.Row{
		Style: t.Style{
			Width:   t.Flex(1),
			Padding: t.EdgeInsets{Left: 1},
			BackgroundColor: t.NewGradient(
				theme.Surface,
				theme.Surface,
				theme.Background,
				theme.Background,
				theme.SecondaryBg,
			).WithAngle(90),
		},
		Children: children,
	}
}

func (a *SnapApp) serverDisplayName() string {
	if a.offline {
		return "(saved result)"
	}
	parsed, err := url.Parse(a.serverURL)
	if err != nil || parsed.Host == "" {
		return a.serverURL
	}
	return parsed.Host
}

func (a *SnapApp) navMenuSpans(theme t.ThemeData) []t.Span {
	items := a.navMenu.Items()
	spans := make([]t.Span, 0, len(items)*2)
	for idx, item := range items {
		if idx > 0 {
			spans = append(spans, t.PlainSpan("  "))
		}
		label := "[esc] " + item.Label
		if !a.navMenu.Swapped() {
			label = fmt.Sprintf("[%d] %s", idx+1, item.Label)
		}
		style := t.SpanStyle{Foreground: theme.TextMuted}
		if !a.navMenu.Swapped() && item.Screen == a.screen {
			style = t.SpanStyle{Foreground: theme.Accent, Bold: true}
		}
		spans = append(spans, t.StyledSpan(label, style))
	}
	return spans
}

func (a *SnapApp) buildPanicPane(theme t.ThemeData) t.Widget {
	report := a.buildPanic
	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			Width:           t.Flex(1),
			Padding:         t.EdgeInsets{Top: 1, Left: 2, Right: 2},
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Label("Something went wrong", t.LabelError, theme),
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: fmt.Sprintf("%s screen failed at %s", report.Screen.DisplayName(), report.At.Format(time.RFC3339)),
				Style:   t.Style{ForegroundColor: theme.Text},
			},
			t.Text{
				Content: report.Message,
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.Error, Bold: true},
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: report.Stack,
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
		},
	}
}

func (a *SnapApp) buildStartScreen(theme t.ThemeData) t.Widget {
	submitHint := "Press enter to compare"
	if a.submitting {
		submitHint = "Comparing, please wait..."
	}
	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			Width:           t.Flex(1),
			Padding:         t.EdgeInsets{Top: 2, Left: 4, Right: 4},
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Text{
				Content: "Diff images",
				Style:   t.Style{ForegroundColor: theme.Text, Bold: true},
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: "Old story book URL",
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
			t.TextInput{
				ID:            snapOldURLInputID,
				State:         a.oldURLInput,
				Placeholder:   "https://old.example.com",
				Width:         t.Flex(1),
				Style:         t.Style{BackgroundColor: theme.Surface, ForegroundColor: theme.Text},
				OnChange:      func(text string) { a.oldURLText = text },
				ExtraKeybinds: a.startInputKeybinds(),
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: "New story book URL",
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
			t.TextInput{
				ID:            snapNewURLInputID,
				State:         a.newURLInput,
				Placeholder:   "https://new.example.com",
				Width:         t.Flex(1),
				Style:         t.Style{BackgroundColor: theme.Surface, ForegroundColor: theme.Text},
				OnChange:      func(text string) { a.newURLText = text },
				ExtraKeybinds: a.startInputKeybinds(),
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: submitHint,
				Style:   t.Style{ForegroundColor: theme.SecondaryText},
			},
		},
	}
}

func (a *SnapApp) startInputKeybinds() []t.Keybind {
	return []t.Keybind{
		{Key: "enter", Action: a.submitComparison, Hidden: true},
		{Key: "tab", Action: a.cycleStartFocus, Hidden: true},
	}
}

func (a *SnapApp) cycleStartFocus() {
	if a.focusedWidgetID == snapOldURLInputID {
		t.RequestFocus(snapNewURLInputID)
		return
	}
	t.RequestFocus(snapOldURLInputID)
}

func (a *SnapApp) buildHistoryScreen(theme t.ThemeData) t.Widget {
	if len(a.historyEntries) == 0 {
		message := "No historical comparisons yet."
		if !a.historyLoaded {
			message = "History unavailable. Press r to retry."
		}
		return a.buildEmptyState(theme, "Historical comparisons", message)
	}

	treeWidget := t.Tree[historyNodeData]{
		ID:                snapHistoryTreeID,
		State:             a.historyTreeState,
		ScrollState:       a.historyScrollState,
		Style:             t.Style{Width: t.Flex(1), Padding: t.EdgeInsets{Left: 1}},
		ExpandIndicator:   "",
		CollapseIndicator: "",
		LeafIndicator:     " ",
		NodeID: func(node historyNodeData) string {
			return node.Entry.ID
		},
		HasChildren: func(node historyNodeData) bool {
			return false
		},
		OnCursorChange: a.onHistoryCursorChange,
	}
	treeWidget.RenderNodeWithMatch = a.renderHistoryNode(theme)

	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Text{
				Content: fmt.Sprintf("Historical comparisons (%d)", len(a.historyEntries)),
				Style: t.Style{
					Padding:         t.EdgeInsetsXY(1, 0),
					ForegroundColor: theme.Text,
					Bold:            true,
				},
			},
			t.Scrollable{
				ID:        snapHistoryScrollID,
				State:     a.historyScrollState,
				Focusable: true,
				Style: t.Style{
					Width:           t.Flex(1),
					Height:          t.Flex(1),
					BackgroundColor: theme.Background,
				},
				Child: treeWidget,
			},
		},
	}
}

func (a *SnapApp) renderHistoryNode(theme t.ThemeData) func(node historyNodeData, nodeCtx t.TreeNodeContext, match t.MatchResult) t.Widget {
	return func(node historyNodeData, nodeCtx t.TreeNodeContext, match t.MatchResult) t.Widget {
		rowStyle := t.Style{
			Width:   t.Flex(1),
			Padding: t.EdgeInsets{Right: 1},
		}
		labelStyle := t.Style{ForegroundColor: theme.Text}
		if nodeCtx.Active {
			rowStyle.BackgroundColor = theme.ActiveCursor
			labelStyle.ForegroundColor = theme.SelectionText
		}

		entry := node.Entry
		counts := fmt.Sprintf("~%d +%d -%d", entry.ChangedCount, entry.CreatedCount, entry.DeletedCount)
		return t.Row{
			Style: rowStyle,
			Children: []t.Widget{
				t.Text{Content: historyEntryLabel(entry), Style: labelStyle},
				t.Spacer{Width: t.Flex(1)},
				t.Text{Content: counts, Style: t.Style{ForegroundColor: theme.SecondaryText}},
			},
		}
	}
}

func historyEntryLabel(entry HistoryEntry) string {
	name := entry.Name
	if name == "" {
		name = entry.ID
	}
	label := name
	if entry.CreatedAt != "" {
		label = fmt.Sprintf("%s  %s", entry.CreatedAt, name)
	}
	if entry.OldStoryBookVersion != "" || entry.NewStoryBookVersion != "" {
		label = fmt.Sprintf("%s  (%s -> %s)", label, entry.OldStoryBookVersion, entry.NewStoryBookVersion)
	}
	return label
}

func (a *SnapApp) buildJobsScreen(theme t.ThemeData) t.Widget {
	jobs := a.poller.Jobs()
	if len(jobs) == 0 {
		message := "No running jobs."
		if !a.poller.Polled() {
			message = "Waiting for the first poll..."
		}
		return a.buildEmptyState(theme, "Jobs", message)
	}

	children := []t.Widget{
		t.Text{
			Content: fmt.Sprintf("Jobs (%d)", len(jobs)),
			Style: t.Style{
				Padding:         t.EdgeInsetsXY(1, 0),
				ForegroundColor: theme.Text,
				Bold:            true,
			},
		},
	}
	rows := make([]t.Widget, 0, len(jobs))
	for _, job := range jobs {
		rows = append(rows, a.buildJobRow(theme, job))
	}
	children = append(children, t.Scrollable{
		ID:    snapJobsScrollID,
		State: a.jobsScrollState,
		Style: t.Style{
			Width:           t.Flex(1),
			Height:          t.Flex(1),
			BackgroundColor: theme.Background,
		},
		Child: t.Column{
			Style:    t.Style{Width: t.Flex(1)},
			Children: rows,
		},
	})

	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			BackgroundColor: theme.Background,
		},
		Children: children,
	}
}

func (a *SnapApp) buildJobRow(theme t.ThemeData, job Job) t.Widget {
	statusColor := theme.TextMuted
	switch job.Status {
	case JobStatusRunning:
		statusColor = theme.Accent
	case JobStatusSucceeded:
		statusColor = theme.Success
	case JobStatusFailed:
		statusColor = theme.Error
	}

	batch := ""
	if job.SnapShotBatchID != nil {
		batch = " -> " + *job.SnapShotBatchID
	}
	return t.Row{
		Style: t.Style{
			Width:   t.Flex(1),
			Padding: t.EdgeInsetsXY(1, 0),
		},
		Children: []t.Widget{
			t.Text{Content: job.ID, Style: t.Style{ForegroundColor: theme.Text}},
			t.Spacer{Width: t.Cells(2)},
			t.Text{Content: job.Status.DisplayName(), Style: t.Style{ForegroundColor: statusColor, Bold: true}},
			t.Spacer{Width: t.Cells(2)},
			t.Text{Content: fmt.Sprintf("%3.0f%%", job.Progress*100), Style: t.Style{ForegroundColor: theme.SecondaryText}},
			t.Text{Content: batch, Style: t.Style{ForegroundColor: theme.TextMuted}},
		},
	}
}

func (a *SnapApp) buildAdminScreen(theme t.ThemeData) t.Widget {
	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			Width:           t.Flex(1),
			Padding:         t.EdgeInsets{Top: 2, Left: 4, Right: 4},
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Text{
				Content: "Admin",
				Style:   t.Style{ForegroundColor: theme.Text, Bold: true},
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: "Press D to delete every stored snapshot and comparison on the server.",
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
			t.Text{
				Content: "The local cache is only cleared once the server confirms.",
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
		},
	}
}

func (a *SnapApp) buildEmptyState(theme t.ThemeData, heading string, details string) t.Widget {
	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			Width:           t.Flex(1),
			Padding:         t.EdgeInsets{Top: 1, Left: 2, Right: 2},
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Text{
				Content: heading,
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.TextMuted, Bold: true},
			},
			t.Spacer{Height: t.Cells(1)},
			t.Text{
				Content: details,
				Wrap:    t.WrapSoft,
				Style:   t.Style{ForegroundColor: theme.TextMuted},
			},
		},
	}
}

func (a *SnapApp) buildDetailScreen(ctx t.BuildContext, theme t.ThemeData) t.Widget {
	if a.result == nil || a.tree == nil {
		return a.buildEmptyState(theme, "No comparison loaded", "Submit a comparison or open one from the history screen.")
	}

	body := a.buildViewerPane(theme)
	if a.sidebarVisible {
		body = t.SplitPane{
			ID:                snapSplitPaneID,
			State:             a.splitState,
			Orientation:       t.SplitHorizontal,
			DividerSize:       1,
			MinPaneSize:       20,
			DividerBackground: theme.Background,
			DividerForeground: dividerForeground(theme),
			Style: t.Style{
				Width:           t.Flex(1),
				Height:          t.Flex(1),
				BackgroundColor: theme.Background,
			},
			First:  a.buildNavPane(ctx, theme),
			Second: a.buildViewerPane(theme),
		}
	}
	return body
}

func (a *SnapApp) buildNavPane(ctx t.BuildContext, theme t.ThemeData) t.Widget {
	treeWidget := t.Tree[SnapNodeData]{
		ID:                snapNavTreeID,
		State:             a.treeState,
		Filter:            a.treeFilterState,
		ScrollState:       a.treeScrollState,
		Style:             t.Style{Width: t.Flex(1), Padding: t.EdgeInsets{Left: 1}},
		ExpandIndicator:   "▼ ",
		CollapseIndicator: "▶ ",
		LeafIndicator:     " ",
		NodeID: func(node SnapNodeData) string {
			return node.Key
		},
		HasChildren: func(node SnapNodeData) bool {
			return node.Kind == SnapNodeGroup
		},
		MatchNode: func(node SnapNodeData, query string, options t.FilterOptions) t.MatchResult {
			return t.MatchString(node.Label, query, options)
		},
		OnCursorChange: a.onTreeCursorChange,
	}
	sidebarFocused := ctx.IsFocused(treeWidget)
	treeWidget.RenderNodeWithMatch = a.renderTreeNode(theme, sidebarFocused)

	children := []t.Widget{
		t.Row{
			Style: t.Style{
				Width:           t.Flex(1),
				Padding:         t.EdgeInsetsXY(1, 0),
				BackgroundColor: theme.Background,
			},
			Children: []t.Widget{
				t.Text{Spans: a.sidebarHeadingSpans(theme)},
			},
		},
	}

	if a.shouldShowTreeFilterInput() {
		children = append(children, t.TextInput{
			ID:          snapNavFilterID,
			State:       a.treeFilterInput,
			Placeholder: "Filter images...",
			Width:       t.Flex(1),
			Style: t.Style{
				Padding:         t.EdgeInsetsXY(1, 0),
				BackgroundColor: theme.Background,
				ForegroundColor: theme.Text,
			},
			OnChange: a.onTreeFilterChange,
		})
	}

	treeContent := t.Widget(treeWidget)
	if a.treeFilterNoMatches {
		treeContent = a.buildEmptyState(theme, "No matching images", "Press escape to clear the filter.")
	}

	children = append(children, t.Scrollable{
		ID:    snapNavScrollID,
		State: a.treeScrollState,
		Style: t.Style{
			Width:           t.Flex(1),
			Height:          t.Flex(1),
			BackgroundColor: theme.Background,
		},
		Child: treeContent,
	})

	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			BackgroundColor: theme.Background,
		},
		Children: children,
	}
}

func (a *SnapApp) sidebarHeadingSpans(theme t.ThemeData) []t.Span {
	spans := []t.Span{}
	for idx, category := range []SnapCategory{CategoryChanged, CategoryCreated, CategoryDeleted} {
		if idx > 0 {
			spans = append(spans, t.PlainSpan("  "))
		}
		count := 0
		if data, ok := a.tree.Node(category.GroupKey()); ok {
			count = data.Count
		}
		spans = append(spans,
			t.StyledSpan(category.DisplayName()+": ", t.SpanStyle{
				Foreground: theme.TextMuted,
			}),
			t.StyledSpan(fmt.Sprintf("%d", count), t.SpanStyle{
				Foreground: categoryColor(theme, category),
				Bold:       true,
			}),
		)
	}
	return spans
}

func (a *SnapApp) renderTreeNode(theme t.ThemeData, widgetFocused bool) func(node SnapNodeData, nodeCtx t.TreeNodeContext, match t.MatchResult) t.Widget {
	highlightStyle := t.MatchHighlightStyle(theme)
	return func(node SnapNodeData, nodeCtx t.TreeNodeContext, match t.MatchResult) t.Widget {
		rowStyle := t.Style{
			Width:   t.Flex(1),
			Padding: t.EdgeInsets{Right: 1},
		}
		labelStyle := t.Style{ForegroundColor: theme.Text}

		switch node.Kind {
		case SnapNodeGroup:
			labelStyle.Bold = true
			labelStyle.ForegroundColor = categoryColor(theme, node.Category)
		case SnapNodeHome:
			labelStyle.ForegroundColor = theme.Accent
		}

		if nodeCtx.Active {
			if widgetFocused {
				rowStyle.BackgroundColor = theme.ActiveCursor
				labelStyle.ForegroundColor = theme.SelectionText
			} else {
				rowStyle.BackgroundColor = unfocusedTreeCursorColor(theme)
			}
		}

		label := node.Label
		if node.Kind == SnapNodeGroup {
			label = fmt.Sprintf("%s (%d)", node.Label, node.Count)
		}

		labelWidget := t.Text{Content: label, Style: labelStyle}
		if node.Kind == SnapNodeLeaf && match.Matched && len(match.Ranges) > 0 {
			labelWidget = t.Text{
				Spans: t.HighlightSpans(node.Label, match.Ranges, highlightStyle),
				Style: labelStyle,
			}
		}

		return t.Row{
			Style:    rowStyle,
			Children: []t.Widget{labelWidget},
		}
	}
}

func (a *SnapApp) buildViewerPane(theme t.ThemeData) t.Widget {
	lines := a.viewerLines()
	rows := make([]t.Widget, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, t.Text{
			Content: line,
			Wrap:    t.WrapSoft,
			Style:   t.Style{ForegroundColor: theme.Text},
		})
	}

	return t.Column{
		Height: t.Flex(1),
		Style: t.Style{
			BackgroundColor: theme.Background,
		},
		Children: []t.Widget{
			t.Text{
				Content: a.viewerTitle(),
				Style: t.Style{
					Padding:         t.EdgeInsetsXY(1, 0),
					BackgroundColor: theme.Background,
					ForegroundColor: theme.Text,
					Bold:            true,
				},
			},
			t.Scrollable{
				ID:        snapViewerScrollID,
				State:     a.viewerScrollState,
				Focusable: true,
				Style: t.Style{
					Width:           t.Flex(1),
					Height:          t.Flex(1),
					BackgroundColor: theme.Background,
				},
				Child: t.Column{
					Style: t.Style{
						Width:   t.Flex(1),
						Padding: t.EdgeInsetsXY(1, 0),
					},
					Children: rows,
				},
			},
		},
	}
}

func (a *SnapApp) viewerTitle() string {
	if a.result == nil {
		return "Comparison"
	}
	switch a.selection.Kind() {
	case LeafSelected:
		if data, ok := a.tree.Node(a.selection.LeafKey()); ok {
			return data.Label
		}
	case GroupExpanded:
		if data, ok := a.tree.Node(a.selection.GroupKey()); ok {
			return a.tree.groupCountLabel(data.Category)
		}
	}
	return fmt.Sprintf("Comparing %s with %s", a.result.OldStoryBookVersion, a.result.NewStoryBookVersion)
}

func (a *SnapApp) viewerLines() []string {
	if a.result == nil {
		return nil
	}
	switch a.selection.Kind() {
	case LeafSelected:
		if data, ok := a.tree.Node(a.selection.LeafKey()); ok {
			return a.leafLines(data)
		}
	case GroupExpanded:
		if data, ok := a.tree.Node(a.selection.GroupKey()); ok {
			return a.groupLines(data)
		}
	}
	return a.resultSummaryLines()
}

func (a *SnapApp) resultSummaryLines() []string {
	result := a.result
	return []string{
		fmt.Sprintf("Old: %s", result.OldStoryBookVersion),
		fmt.Sprintf("New: %s", result.NewStoryBookVersion),
		fmt.Sprintf("Created at: %s", result.CreatedAt),
		"",
		fmt.Sprintf("Changed: %d", len(result.DiffImages)),
		fmt.Sprintf("Created: %d", len(result.CreatedImages)),
		fmt.Sprintf("Deleted: %d", len(result.DeletedImages)),
		fmt.Sprintf("New set: %d  Old set: %d", len(result.NewImages), len(result.OldImages)),
		"",
		"Use the sidebar or n/p to pick an image.",
	}
}

func (a *SnapApp) groupLines(data SnapNodeData) []string {
	lines := []string{
		fmt.Sprintf("Category: %s", data.Category.DisplayName()),
		fmt.Sprintf("Images: %d", data.Count),
	}
	if data.Count == 0 {
		lines = append(lines, "", fmt.Sprintf("No %s images in this comparison.", strings.ToLower(data.Category.DisplayName())))
	}
	return lines
}

func (a *SnapApp) leafLines(data SnapNodeData) []string {
	if data.Diff != nil {
		lines := []string{}
		lines = append(lines, imageLines("Color diff", data.Diff.ColorDiff, a.assetURL(data.Diff.ColorDiff.Path))...)
		lines = append(lines, "")
		lines = append(lines, imageLines("New", data.Diff.New, a.assetURL(data.Diff.New.Path))...)
		lines = append(lines, "")
		lines = append(lines, imageLines("Old", data.Diff.Old, a.assetURL(data.Diff.Old.Path))...)
		if !data.Diff.LcsDiff.IsZero() {
			lines = append(lines, "")
			lines = append(lines, imageLines("LCS diff", data.Diff.LcsDiff, a.assetURL(data.Diff.LcsDiff.Path))...)
		}
		return lines
	}
	if data.Image != nil {
		return imageLines(data.Category.DisplayName(), *data.Image, a.assetURL(data.Image.Path))
	}
	return nil
}

func imageLines(title string, image SnapImage, assetURL string) []string {
	return []string{
		fmt.Sprintf("%s: %s", title, image.Name),
		fmt.Sprintf("  %.0fx%.0f", image.Width, image.Height),
		fmt.Sprintf("  %s", assetURL),
	}
}

func (a *SnapApp) assetURL(path string) string {
	if resolver, ok := a.gateway.(AssetResolver); ok {
		return resolver.AssetURL(path)
	}
	return path
}

func (a *SnapApp) switchScreen(screen Screen) {
	if a.screen == ScreenDetail && screen != ScreenDetail {
		a.leaveDetail()
	}
	a.notice = ""
	wasJobs := a.screen == ScreenJobs
	a.screen = screen

	switch screen {
	case ScreenStart:
		a.cache.CancelPending(a.lastRequest)
		t.RequestFocus(snapOldURLInputID)
	case ScreenHistory:
		a.loadHistory()
		t.RequestFocus(snapHistoryScrollID)
	case ScreenJobs:
		a.poller.Start()
	}
	if wasJobs && screen != ScreenJobs {
		a.poller.Stop()
	}
}

func (a *SnapApp) loadHistory() {
	entries, err := a.cache.ListHistory(context.Background())
	if err != nil {
		a.notice = "Error while fetching history"
		a.historyLoaded = false
		return
	}
	a.setHistoryEntries(entries)
}

func (a *SnapApp) setHistoryEntries(entries []HistoryEntry) {
	a.historyEntries = entries
	a.historyLoaded = true
	roots := make([]t.TreeNode[historyNodeData], 0, len(entries))
	for _, entry := range entries {
		roots = append(roots, t.TreeNode[historyNodeData]{Data: historyNodeData{Entry: entry}})
	}
	a.historyTreeState.Nodes.Set(roots)
	a.historyTreeState.CursorPath.Set(nil)
	a.historySelectedID = ""
	if len(entries) > 0 {
		a.historyTreeState.CursorPath.Set([]int{0})
		a.historySelectedID = entries[0].ID
	}
}

func (a *SnapApp) onHistoryCursorChange(node historyNodeData) {
	a.historySelectedID = node.Entry.ID
}

func (a *SnapApp) activateSelection() {
	if a.screen != ScreenHistory || a.historySelectedID == "" {
		return
	}
	result, err := a.cache.FetchByID(context.Background(), a.historySelectedID)
	if err != nil {
		a.notice = "Error while fetching data"
		return
	}
	a.openDetail(result)
}

func (a *SnapApp) submitComparison() {
	if a.screen != ScreenStart || a.submitting {
		return
	}
	request := ComparisonRequest{
		Old: strings.TrimSpace(a.oldURLText),
		New: strings.TrimSpace(a.newURLText),
	}
	if !request.IsComplete() {
		a.notice = "Both URLs are required"
		return
	}

	a.notice = ""
	a.submitting = true
	a.lastRequest = request
	result, err := a.cache.Submit(context.Background(), request)
	a.submitting = false
	if err != nil {
		if context.Canceled != err {
			a.notice = "Error while fetching data"
		}
		return
	}
	if result == nil {
		return
	}
	a.openDetail(result)
}

func (a *SnapApp) openDetail(result *ComparisonResult) {
	a.result = result
	a.tree = BuildNavTree(result)
	a.selection.Reset()
	a.treeState.Nodes.Set(a.tree.Roots)
	a.treeState.CursorPath.Set(nil)
	a.treeState.Collapsed.Set(map[string]bool{})
	a.treeFilterNoMatches = false
	a.treeFilterVisible = false
	a.treeFilterInput.SetText("")
	a.treeFilterState.Query.Set("")
	a.viewerScrollState.SetOffset(0)

	if !a.navMenu.Swapped() {
		a.navMenu.Swap([]NavItem{{Key: "nav-back", Label: "Back", Screen: ScreenStart}})
	}
	a.cameFrom = a.screen
	if a.screen == ScreenDetail {
		a.cameFrom = ScreenStart
	}
	a.screen = ScreenDetail
	t.RequestFocus(snapNavTreeID)
}

func (a *SnapApp) leaveDetail() {
	a.navMenu.Restore()
	a.selection.Reset()
}

func (a *SnapApp) goBack() {
	if a.screen != ScreenDetail {
		return
	}
	target := a.cameFrom
	if target == ScreenDetail {
		target = ScreenStart
	}
	a.switchScreen(target)
}

func (a *SnapApp) onTreeCursorChange(node SnapNodeData) {
	switch node.Kind {
	case SnapNodeHome:
		// Navigational only; selecting it leaves the detail view.
		a.goBack()
	case SnapNodeGroup:
		a.selection.HandleClick([]string{node.Key})
		a.viewerScrollState.SetOffset(0)
	case SnapNodeLeaf:
		a.selection.HandleClick([]string{node.Category.GroupKey(), node.Key})
		a.viewerScrollState.SetOffset(0)
	}
}

func (a *SnapApp) selectLeafKey(key string) bool {
	if a.tree == nil {
		return false
	}
	treePath, ok := a.tree.TreePath(key)
	if !ok {
		return false
	}
	a.treeState.CursorPath.Set(clonePath(treePath))
	node, ok := a.treeState.NodeAtPath(treePath)
	if !ok {
		return false
	}
	a.onTreeCursorChange(node.Data)
	return true
}

func (a *SnapApp) moveLeafCursor(delta int) {
	if a.screen != ScreenDetail || a.tree == nil {
		return
	}
	leafKeys := a.tree.LeafKeys()
	if len(leafKeys) == 0 {
		return
	}

	currentIdx := -1
	if key := a.selection.LeafKey(); key != "" {
		currentIdx = indexOfKey(leafKeys, key)
	}

	nextIdx := 0
	if currentIdx < 0 {
		if delta < 0 {
			nextIdx = len(leafKeys) - 1
		}
	} else {
		nextIdx = currentIdx + delta
		for nextIdx < 0 {
			nextIdx += len(leafKeys)
		}
		nextIdx = nextIdx % len(leafKeys)
	}

	a.selectLeafKey(leafKeys[nextIdx])
}

func (a *SnapApp) manualRefresh() {
	switch a.screen {
	case ScreenHistory:
		a.loadHistory()
	case ScreenJobs:
		if err := a.poller.Refresh(context.Background()); err != nil {
			a.notice = "Error while fetching jobs"
		}
	}
}

func (a *SnapApp) clearAllData() {
	if a.screen != ScreenAdmin {
		return
	}
	if err := a.cache.InvalidateAll(context.Background()); err != nil {
		a.notice = "Failed to clear data"
		return
	}
	a.notice = "All data cleared"
	a.historyEntries = nil
	a.historyLoaded = false
	a.historyTreeState.Nodes.Set([]t.TreeNode[historyNodeData]{})
	a.historySelectedID = ""
	a.result = nil
	a.tree = nil
}

func (a *SnapApp) toggleSidebar() {
	a.sidebarVisible = !a.sidebarVisible
	if a.sidebarVisible {
		return
	}
	switch a.focusedWidgetID {
	case snapSplitPaneID, snapNavTreeID, snapNavFilterID, snapNavScrollID:
		t.RequestFocus(snapViewerScrollID)
	}
}

func (a *SnapApp) openTreeFilter() {
	if a.screen != ScreenDetail {
		return
	}
	if !a.sidebarVisible {
		a.sidebarVisible = true
	}
	a.treeFilterVisible = true
	if a.treeFilterInput != nil {
		a.treeFilterInput.ClearSelection()
		a.treeFilterInput.CursorEnd()
	}
	t.RequestFocus(snapNavFilterID)
}

func (a *SnapApp) handleEscape() {
	if a.clearTreeFilter() {
		return
	}
	if a.focusedWidgetID == snapNavFilterID && a.treeFilterVisible {
		a.treeFilterVisible = false
		t.RequestFocus(snapNavTreeID)
		return
	}
	a.goBack()
}

func (a *SnapApp) onTreeFilterChange(text string) {
	a.treeFilterVisible = true
	if a.treeFilterState != nil {
		a.treeFilterState.Query.Set(text)
	}
	a.syncTreeFilterMatches()
}

func (a *SnapApp) clearTreeFilter() bool {
	if a.treeFilterState == nil {
		return false
	}
	if a.treeFilterState.PeekQuery() == "" {
		return false
	}
	if a.treeFilterInput != nil {
		a.treeFilterInput.SetText("")
	}
	a.treeFilterState.Query.Set("")
	a.treeFilterVisible = false
	a.treeFilterNoMatches = false
	t.RequestFocus(snapNavTreeID)
	return true
}

func (a *SnapApp) shouldShowTreeFilterInput() bool {
	if a.treeFilterVisible {
		return true
	}
	if a.focusedWidgetID == snapNavFilterID {
		return true
	}
	if a.treeFilterState == nil {
		return false
	}
	return a.treeFilterState.PeekQuery() != ""
}

func (a *SnapApp) syncTreeFilterMatches() {
	query := ""
	options := t.FilterOptions{}
	if a.treeFilterState != nil {
		query = a.treeFilterState.PeekQuery()
		options = a.treeFilterState.PeekOptions()
	}
	if query == "" || a.tree == nil {
		a.treeFilterNoMatches = false
		return
	}
	for _, key := range a.tree.LeafKeys() {
		data, ok := a.tree.Node(key)
		if !ok {
			continue
		}
		if t.MatchString(data.Label, query, options).Matched {
			a.treeFilterNoMatches = false
			return
		}
	}
	a.treeFilterNoMatches = true
}

func (a *SnapApp) togglePalette() {
	if a.commandPalette == nil {
		return
	}
	if a.commandPalette.Visible.Peek() {
		a.commandPalette.Close(false)
		return
	}
	a.commandPalette.Open()
}

func (a *SnapApp) openThemePalette() {
	if a.commandPalette == nil {
		return
	}
	a.commandPalette.Close(false)
	a.commandPalette.Open()
	a.commandPalette.PushLevel(snapThemesPalette, a.themeItems())
}

func (a *SnapApp) syncFocusState(ctx t.BuildContext) {
	a.focusedWidgetID = focusedWidgetID(ctx)
}

func (a *SnapApp) newCommandPalette() *t.CommandPaletteState {
	return t.NewCommandPaletteState("Commands", a.commandPaletteItems())
}

func (a *SnapApp) commandPaletteItems() []t.CommandPaletteItem {
	items := []t.CommandPaletteItem{
		{
			Label:      "Go home",
			FilterText: "Go home start compare submit",
			Hint:       "[1]",
			Action:     a.paletteAction(func() { a.switchScreen(ScreenStart) }),
		},
		{
			Label:      "Historical comparisons",
			FilterText: "Historical comparisons history list",
			Hint:       "[2]",
			Action:     a.paletteAction(func() { a.switchScreen(ScreenHistory) }),
		},
		{
			Label:      "Jobs",
			FilterText: "Jobs running progress poll",
			Hint:       "[3]",
			Action:     a.paletteAction(func() { a.switchScreen(ScreenJobs) }),
		},
		{
			Label:      "Admin",
			FilterText: "Admin clean clear wipe",
			Hint:       "[4]",
			Action:     a.paletteAction(func() { a.switchScreen(ScreenAdmin) }),
		},
		{Divider: "Actions"},
		{
			Label:      "Refresh",
			FilterText: "Refresh reload history jobs",
			Hint:       "[r]",
			Action:     a.paletteAction(a.manualRefresh),
		},
		{
			Label:      "Toggle sidebar",
			FilterText: "Toggle sidebar layout panel",
			Hint:       "[b]",
			Action:     a.paletteAction(a.toggleSidebar),
		},
		{Divider: "Appearance"},
		{
			Label:         "Theme",
			Hint:          "[t]",
			ChildrenTitle: snapThemesPalette,
			Children:      a.themeItems,
		},
	}
	return items
}

func (a *SnapApp) themeItems() []t.CommandPaletteItem {
	items := make([]t.CommandPaletteItem, 0, len(t.ThemeNames())+2)
	addGroup := func(title string, names []string) {
		if len(names) == 0 {
			return
		}
		items = append(items, t.CommandPaletteItem{Divider: title})
		for _, name := range names {
			label := themeDisplayName(name)
			hint := ""
			if name == t.CurrentThemeName() {
				hint = "current"
			}
			themeName := name
			items = append(items, t.CommandPaletteItem{
				Label:      label,
				FilterText: label + " " + themeName,
				Hint:       hint,
				Data:       themeName,
				Action:     a.setThemeAction(themeName),
			})
		}
	}

	addGroup("Dark themes", t.DarkThemeNames())
	addGroup("Light themes", t.LightThemeNames())

	return items
}

func (a *SnapApp) setThemeAction(themeName string) func() {
	return func() {
		t.SetTheme(themeName)
		if a.commandPalette != nil {
			a.commandPalette.Close(false)
		}
	}
}

func (a *SnapApp) paletteAction(action func()) func() {
	return func() {
		if action != nil {
			action()
		}
		if a.commandPalette != nil {
			a.commandPalette.Close(false)
		}
	}
}

func categoryColor(theme t.ThemeData, category SnapCategory) t.Color {
	switch category {
	case CategoryChanged:
		return theme.Accent
	case CategoryCreated:
		return theme.Success
	case CategoryDeleted:
		return theme.Error
	default:
		return theme.SecondaryText
	}
}

func unfocusedTreeCursorColor(theme t.ThemeData) t.Color {
	alpha := theme.ActiveCursor.Alpha()
	if alpha <= 0 {
		alpha = 1.0
	}
	alpha = alpha * 0.35
	if alpha < 0.12 {
		alpha = 0.12
	}
	if alpha > 0.35 {
		alpha = 0.35
	}
	return theme.ActiveCursor.WithAlpha(alpha)
}

func dividerForeground(theme t.ThemeData) t.ColorProvider {
	return t.NewGradient(theme.Background, theme.TextDisabled, theme.Background).WithAngle(0)
}

func focusedWidgetID(ctx t.BuildContext) string {
	focused := ctx.Focused()
	if focused == nil {
		return ""
	}
	if identifiable, ok := focused.(t.Identifiable); ok {
		return identifiable.WidgetID()
	}
	return ""
}

func themeDisplayName(name string) string {
	parts := strings.Split(name, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}

func indexOfKey(keys []string, key string) int {
	if key == "" {
		return -1
	}
	for idx, value := range keys {
		if value == key {
			return idx
		}
	}
	return -1
}
