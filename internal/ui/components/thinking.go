// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilolonion/excelmanus/internal/ui/styles"
)

// =============================================================================
// THINKING VIEW - streaming reasoning trace behind a collapsible header
// =============================================================================

// ThinkingView shows the assistant's reasoning trace while it streams.
// The trace lives in an auto-following Scrollable so a long trace
// stays pinned to its newest lines; once the answer starts the view
// collapses to a one-line summary the user can reopen.
type ThinkingView struct {
	theme *styles.Theme

	trace     string
	startedAt time.Time
	elapsed   time.Duration
	active    bool
	open      bool

	spinnerFrame int
	scroll       *Scrollable
}

// NewThinkingView creates a thinking view with the given height budgets.
func NewThinkingView(theme *styles.Theme, cfg ScrollableConfig) *ThinkingView {
	cfg.AutoFollow = true
	return &ThinkingView{
		theme:  theme,
		scroll: NewScrollable(theme, cfg),
	}
}

// Start begins a new trace.
func (tv *ThinkingView) Start() {
	tv.trace = ""
	tv.startedAt = time.Now()
	tv.elapsed = 0
	tv.active = true
	tv.open = true
	tv.scroll.SetContent("")
}

// Append streams more reasoning text into the trace.
func (tv *ThinkingView) Append(text string) {
	tv.trace += text
	tv.scroll.SetContent(tv.theme.ThinkingBody.Render(tv.trace))
}

// Finish closes the trace and records its duration. The view collapses
// to its summary line.
func (tv *ThinkingView) Finish() {
	if !tv.active {
		return
	}
	tv.active = false
	tv.elapsed = time.Since(tv.startedAt)
	tv.open = false
}

// Active reports whether a trace is currently streaming.
func (tv *ThinkingView) Active() bool { return tv.active }

// Toggle opens or closes a finished trace.
func (tv *ThinkingView) Toggle() {
	if tv.active {
		return
	}
	tv.open = !tv.open
}

// Open reports whether the trace body is shown.
func (tv *ThinkingView) Open() bool { return tv.open }

// SetWidth updates the display width.
func (tv *ThinkingView) SetWidth(width int) {
	tv.scroll.SetWidth(width)
}

// Scrollable exposes the container for interaction routing.
func (tv *ThinkingView) Scrollable() *Scrollable { return tv.scroll }

// AdvanceSpinner moves the spinner one frame.
func (tv *ThinkingView) AdvanceSpinner() {
	tv.spinnerFrame = (tv.spinnerFrame + 1) % len(styles.DotsSpinner.Frames)
}

// View renders the header line and, when open, the trace body.
func (tv *ThinkingView) View() string {
	if tv.trace == "" && !tv.active {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(tv.renderHeader())
	if tv.open && tv.trace != "" {
		sb.WriteByte('\n')
		sb.WriteString(tv.scroll.View())
	}
	return sb.String()
}

func (tv *ThinkingView) renderHeader() string {
	if tv.active {
		frame := styles.DotsSpinner.Frames[tv.spinnerFrame]
		return tv.theme.Spinner.Render(frame) + " " +
			tv.theme.ThinkingText.Render("thinking…")
	}

	arrow := "▸"
	if tv.open {
		arrow = "▾"
	}
	return tv.theme.AffordanceArrow.Render(arrow) + " " +
		tv.theme.ThinkingText.Render("thought") + " " +
		tv.theme.ThinkingTime.Render(fmt.Sprintf("for %s", formatElapsed(tv.elapsed)))
}
