package main

type SelectionKind int

const (
	NoSelection SelectionKind = iota
	GroupExpanded
	LeafSelected
)

// SelectionState tracks which tree node is active in the detail view. It is
// driven purely by click events carrying a key path, so the logic is
// testable without a rendered view. Initial state is NoSelection; there is
// no terminal state.
type SelectionState struct {
	kind     SelectionKind
	groupKey string
	leafKey  string
}

func NewSelectionState() *SelectionState {
	return &SelectionState{}
}

// HandleClick applies one click event. A key path of length 1 expands the
// clicked group; a longer path selects the leaf named by its last element
// under the group named by its first.
func (s *SelectionState) HandleClick(keyPath []string) {
	if len(keyPath) == 0 {
		return
	}
	if len(keyPath) == 1 {
		s.kind = GroupExpanded
		s.groupKey = keyPath[0]
		s.leafKey = ""
		return
	}
	s.kind = LeafSelected
	s.groupKey = keyPath[0]
	s.leafKey = keyPath[len(keyPath)-1]
}

func (s *SelectionState) Reset() {
	*s = SelectionState{}
}

func (s *SelectionState) Kind() SelectionKind {
	return s.kind
}

func (s *SelectionState) GroupKey() string {
	return s.groupKey
}

// LeafKey is the key used to resolve the displayed image; empty unless the
// state is LeafSelected.
func (s *SelectionState) LeafKey() string {
	if s.kind != LeafSelected {
		return ""
	}
	return s.leafKey
}

// NavItem is one entry in the top-level navigation menu.
type NavItem struct {
	Key    string
	Label  string
	Screen Screen
}

func defaultNavItems() []NavItem {
	return []NavItem{
		{Key: "nav-home", Label: "Home", Screen: ScreenStart},
		{Key: "nav-history", Label: "Historical", Screen: ScreenHistory},
		{Key: "nav-jobs", Label: "Jobs", Screen: ScreenJobs},
		{Key: "nav-admin", Label: "Admin", Screen: ScreenAdmin},
	}
}

// NavMenu holds the current navigation items. Detail views swap the default
// set for a single Back affordance on entry and restore it on exit; the swap
// saves at most one menu set, so nested detail visits never accumulate.
type NavMenu struct {
	items []NavItem
	saved []NavItem
}

func NewNavMenu(items []NavItem) *NavMenu {
	return &NavMenu{items: items}
}

func (m *NavMenu) Items() []NavItem {
	return m.items
}

// Swap replaces the menu, remembering the pre-swap set only the first time.
func (m *NavMenu) Swap(items []NavItem) {
	if m.saved == nil {
		m.saved = m.items
	}
	m.items = items
}

// Restore reverts exactly what the first Swap replaced. Calling it with no
// swap outstanding is a no-op.
func (m *NavMenu) Restore() {
	if m.saved == nil {
		return
	}
	m.items = m.saved
	m.saved = nil
}

func (m *NavMenu) Swapped() bool {
	return m.saved != nil
}
