// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the visual UI components for the
// excelmanus TUI.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/ui/styles"
)

// =============================================================================
// SCROLLABLE - tri-state container for overflowing preview content
// =============================================================================

// ViewMode is the display mode of a Scrollable container.
type ViewMode int

const (
	// ViewCollapsed shows a fixed-height peek with an affordance to
	// reveal the rest. Initial mode.
	ViewCollapsed ViewMode = iota
	// ViewScroll shows the content in a scrollable window at the
	// collapsed height budget.
	ViewScroll
	// ViewExpanded shows the content in a scrollable window at the
	// larger expanded height budget.
	ViewExpanded
)

// String returns the mode name.
func (m ViewMode) String() string {
	switch m {
	case ViewCollapsed:
		return "collapsed"
	case ViewScroll:
		return "scroll"
	case ViewExpanded:
		return "expanded"
	default:
		return "unknown"
	}
}

// modeTransitions is the explicit transition table. Anything not listed
// is rejected, so invariants stay checkable in one place: expanded can
// only return to collapsed, and nothing re-enters collapsed without a
// scroll reset (see transition).
var modeTransitions = map[ViewMode]map[ViewMode]bool{
	ViewCollapsed: {ViewScroll: true},
	ViewScroll:    {ViewExpanded: true, ViewCollapsed: true},
	ViewExpanded:  {ViewCollapsed: true},
}

// ScrollableConfig configures a Scrollable container.
type ScrollableConfig struct {
	// CollapsedHeight is the row budget for collapsed and scroll
	// modes. Content at or under this budget renders directly with no
	// chrome.
	CollapsedHeight int

	// ExpandedHeight is the row budget for expanded mode.
	ExpandedHeight int

	// AutoFollow skips collapsed mode on first overflow and keeps the
	// window pinned to the newest content as it grows.
	AutoFollow bool
}

// DefaultScrollableConfig returns the standard height budgets.
func DefaultScrollableConfig() ScrollableConfig {
	return ScrollableConfig{
		CollapsedHeight: 8,
		ExpandedHeight:  20,
	}
}

// Scrollable wraps arbitrary rendered content and presents it within
// one of three height budgets, exposing scroll affordances only when
// the content overflows. Content that fits renders directly and the
// state machine never engages.
type Scrollable struct {
	viewport viewport.Model
	theme    *styles.Theme

	content      string
	contentLines int
	width        int

	collapsedHeight int
	expandedHeight  int
	autoFollow      bool

	mode ViewMode
	// autoEntered records that auto-follow already skipped collapsed
	// mode once; a later user collapse is not overridden.
	autoEntered bool
}

// NewScrollable creates a Scrollable with the given budgets.
// Zero heights fall back to defaults.
func NewScrollable(theme *styles.Theme, cfg ScrollableConfig) *Scrollable {
	def := DefaultScrollableConfig()
	if cfg.CollapsedHeight <= 0 {
		cfg.CollapsedHeight = def.CollapsedHeight
	}
	if cfg.ExpandedHeight <= cfg.CollapsedHeight {
		cfg.ExpandedHeight = def.ExpandedHeight
		if cfg.ExpandedHeight <= cfg.CollapsedHeight {
			cfg.ExpandedHeight = cfg.CollapsedHeight * 2
		}
	}

	vp := viewport.New(80, cfg.CollapsedHeight)

	return &Scrollable{
		viewport:        vp,
		theme:           theme,
		width:           80,
		collapsedHeight: cfg.CollapsedHeight,
		expandedHeight:  cfg.ExpandedHeight,
		autoFollow:      cfg.AutoFollow,
		mode:            ViewCollapsed,
	}
}

// =============================================================================
// MEASUREMENT
// =============================================================================

// SetWidth updates the container width and re-measures.
func (s *Scrollable) SetWidth(width int) {
	s.width = width
	s.viewport.Width = width
	s.remeasure()
}

// SetContent replaces the content and re-evaluates overflow. With
// auto-follow enabled the window additionally snaps to the bottom.
func (s *Scrollable) SetContent(content string) {
	s.content = content
	s.viewport.SetContent(content)
	s.remeasure()
}

// AppendLine adds one line of content, for row-by-row streaming.
func (s *Scrollable) AppendLine(line string) {
	if s.content == "" {
		s.SetContent(line)
		return
	}
	s.SetContent(s.content + "\n" + line)
}

// remeasure recomputes overflow and applies auto-follow. All the
// engagement rules live here so static content and streaming content
// go through the same path.
func (s *Scrollable) remeasure() {
	if s.content == "" {
		s.contentLines = 0
	} else {
		s.contentLines = strings.Count(s.content, "\n") + 1
	}

	if !s.Overflows() {
		// Content fits again (or the container is unmeasurable):
		// disengage back to the initial mode.
		if s.mode != ViewCollapsed {
			s.mode = ViewCollapsed
			s.autoEntered = false
		}
		return
	}

	if s.autoFollow {
		if s.mode == ViewCollapsed && !s.autoEntered {
			// Streaming content skips the collapsed affordance.
			s.enter(ViewScroll)
			s.autoEntered = true
		}
		s.viewport.GotoBottom()
	}
}

// Overflows reports whether content exceeds the collapsed budget.
// Rows are integral, so the overflow comparison needs no tolerance;
// an unmeasurable (zero-size) container never overflows.
func (s *Scrollable) Overflows() bool {
	if s.width <= 0 {
		return false
	}
	return s.contentLines > s.collapsedHeight
}

// Mode returns the active display mode.
func (s *Scrollable) Mode() ViewMode {
	return s.mode
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// enter commits a mode change if the transition table allows it.
// Illegal requests (including self-transitions) are no-ops.
func (s *Scrollable) enter(to ViewMode) {
	if !modeTransitions[s.mode][to] {
		return
	}
	if to == ViewCollapsed {
		// Scroll offset resets before the mode change commits so the
		// next activation starts from the top.
		s.viewport.GotoTop()
	}
	s.mode = to
	s.viewport.Height = s.visibleHeight()
}

// Activate moves collapsed content into scroll mode. Only meaningful
// while overflowing; otherwise there is nothing to reveal.
func (s *Scrollable) Activate() {
	if !s.Overflows() {
		return
	}
	s.enter(ViewScroll)
}

// Expand grows the window to the expanded budget. No-op unless in
// scroll mode, and idempotent when already expanded.
func (s *Scrollable) Expand() {
	s.enter(ViewExpanded)
}

// Collapse returns to the collapsed peek from either scrolling mode.
// Idempotent when already collapsed.
func (s *Scrollable) Collapse() {
	s.enter(ViewCollapsed)
}

// budget returns the active mode's height budget.
func (s *Scrollable) budget() int {
	if s.mode == ViewExpanded {
		return s.expandedHeight
	}
	return s.collapsedHeight
}

// visibleHeight is the window height actually rendered: the budget,
// shrunk to the content when the content is shorter.
func (s *Scrollable) visibleHeight() int {
	h := s.budget()
	if s.contentLines < h {
		return s.contentLines
	}
	return h
}

// =============================================================================
// SCROLLING
// =============================================================================

// CanScrollUp reports whether content extends above the window.
func (s *Scrollable) CanScrollUp() bool {
	if s.mode == ViewCollapsed || !s.Overflows() {
		return false
	}
	return s.viewport.YOffset > 0
}

// CanScrollDown reports whether content extends below the window.
func (s *Scrollable) CanScrollDown() bool {
	if s.mode == ViewCollapsed || !s.Overflows() {
		return false
	}
	return s.viewport.YOffset+s.visibleHeight() < s.contentLines
}

// scrollStep is three-quarters of the active budget, so consecutive
// steps overlap enough to keep reading context.
func (s *Scrollable) scrollStep() int {
	step := s.budget() * 3 / 4
	if step < 1 {
		step = 1
	}
	return step
}

// ScrollUp moves the window up by one step.
func (s *Scrollable) ScrollUp() {
	if !s.CanScrollUp() {
		return
	}
	offset := s.viewport.YOffset - s.scrollStep()
	if offset < 0 {
		offset = 0
	}
	s.viewport.SetYOffset(offset)
}

// ScrollDown moves the window down by one step.
func (s *Scrollable) ScrollDown() {
	if !s.CanScrollDown() {
		return
	}
	max := s.contentLines - s.visibleHeight()
	offset := s.viewport.YOffset + s.scrollStep()
	if offset > max {
		offset = max
	}
	s.viewport.SetYOffset(offset)
}

// ScrollOffset returns the current window offset in rows.
func (s *Scrollable) ScrollOffset() int {
	return s.viewport.YOffset
}

// AtBottom reports whether the window shows the last content row.
func (s *Scrollable) AtBottom() bool {
	return s.viewport.YOffset+s.visibleHeight() >= s.contentLines
}

// =============================================================================
// UPDATE
// =============================================================================

// Update handles interaction for an engaged container.
func (s *Scrollable) Update(msg tea.Msg) (*Scrollable, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			switch s.mode {
			case ViewCollapsed:
				s.Activate()
			case ViewScroll:
				s.Expand()
			}
		case "esc":
			s.Collapse()
		case "up", "k":
			s.ScrollUp()
		case "down", "j":
			s.ScrollDown()
		}

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			s.ScrollUp()
		case tea.MouseWheelDown:
			s.ScrollDown()
		}
	}

	return s, nil
}

// =============================================================================
// RENDERING
// =============================================================================

// View renders the container for its current mode.
func (s *Scrollable) View() string {
	// Fitting content renders directly: no chrome, no state machine.
	if !s.Overflows() {
		return s.content
	}

	switch s.mode {
	case ViewCollapsed:
		return s.viewCollapsed()
	default:
		return s.viewScrolling()
	}
}

// viewCollapsed shows the first rows of content plus the affordance to
// reveal the rest.
func (s *Scrollable) viewCollapsed() string {
	lines := strings.Split(s.content, "\n")
	visible := s.collapsedHeight - 1 // last row is the affordance
	if visible < 1 {
		visible = 1
	}

	var sb strings.Builder
	for i := 0; i < visible && i < len(lines); i++ {
		sb.WriteString(lines[i])
		sb.WriteByte('\n')
	}

	hidden := s.contentLines - visible
	affordance := s.theme.AffordanceArrow.Render("▸") + " " +
		s.theme.Affordance.Render(fmt.Sprintf("%d more rows · enter to view", hidden))
	sb.WriteString(affordance)

	return sb.String()
}

// viewScrolling shows the viewport window framed by directional
// affordances.
func (s *Scrollable) viewScrolling() string {
	s.viewport.Height = s.visibleHeight()

	var sb strings.Builder

	if s.CanScrollUp() {
		sb.WriteString(s.theme.AffordanceArrow.Render("▲") + " " +
			s.theme.Affordance.Render("more above"))
		sb.WriteByte('\n')
	}

	sb.WriteString(s.viewport.View())

	if s.CanScrollDown() {
		below := s.contentLines - s.viewport.YOffset - s.visibleHeight()
		sb.WriteByte('\n')
		sb.WriteString(s.theme.AffordanceArrow.Render("▼") + " " +
			s.theme.Affordance.Render(fmt.Sprintf("%d more below", below)))
	}

	return sb.String()
}
