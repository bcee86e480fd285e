// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
	"github.com/kilolonion/excelmanus/internal/util"
)

// =============================================================================
// TOOL CARD - one spreadsheet tool invocation with status and result
// =============================================================================

// maxResultPreview limits how many result lines a collapsed card shows.
const maxResultPreview = 3

// ToolCard displays a single tool call: status icon, name, arguments,
// elapsed time, and either a result preview or an embedded diff viewer
// when the call reported workbook changes.
type ToolCard struct {
	theme *styles.Theme

	call         model.ToolCall
	spinnerFrame int

	diff     *DiffViewer
	expanded bool
	width    int
}

// NewToolCard creates a card for a tool call.
func NewToolCard(theme *styles.Theme, cfg ScrollableConfig, displayCap int) *ToolCard {
	return &ToolCard{
		theme: theme,
		diff:  NewDiffViewer(theme, cfg, displayCap),
		width: 80,
	}
}

// SetCall loads or updates the displayed call. Diff lines are parsed
// once the call finishes; a running call keeps its spinner.
func (tc *ToolCard) SetCall(call model.ToolCall) {
	tc.call = call
	if call.Done() && len(call.DiffLines) > 0 {
		tc.diff.SetDiff("", call.DiffLines)
	}
}

// Call returns the displayed call.
func (tc *ToolCard) Call() model.ToolCall { return tc.call }

// SetWidth updates the display width.
func (tc *ToolCard) SetWidth(width int) {
	tc.width = width
	tc.diff.SetWidth(width - 2)
}

// AdvanceSpinner moves the running-state spinner one frame.
func (tc *ToolCard) AdvanceSpinner() {
	tc.spinnerFrame = (tc.spinnerFrame + 1) % len(styles.BrailleSpinner.Frames)
}

// Toggle expands or collapses the result detail.
func (tc *ToolCard) Toggle() { tc.expanded = !tc.expanded }

// Expanded reports whether the result detail is shown in full.
func (tc *ToolCard) Expanded() bool { return tc.expanded }

// Diff exposes the embedded diff viewer for interaction routing.
func (tc *ToolCard) Diff() *DiffViewer { return tc.diff }

// HasDiff reports whether the call produced workbook changes to show.
func (tc *ToolCard) HasDiff() bool {
	return tc.call.Done() && len(tc.call.DiffLines) > 0
}

// View renders the card.
func (tc *ToolCard) View() string {
	if tc.call.Name == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(tc.renderHeader())

	if body := tc.renderBody(); body != "" {
		sb.WriteByte('\n')
		sb.WriteString(body)
	}

	frame := tc.theme.ToolCard
	if tc.call.Status == model.ToolFailed {
		frame = tc.theme.ToolCardFailed
	}
	return frame.Render(sb.String())
}

// renderHeader renders the status icon, name, args and elapsed time.
func (tc *ToolCard) renderHeader() string {
	var parts []string

	switch tc.call.Status {
	case model.ToolRunning:
		frame := styles.BrailleSpinner.Frames[tc.spinnerFrame]
		parts = append(parts, tc.theme.Spinner.Render(frame))
	case model.ToolSucceeded:
		parts = append(parts, tc.theme.SuccessStyle.Render(styles.StatusIndicators.Success))
	default:
		parts = append(parts, tc.theme.ErrorStyle.Render(styles.StatusIndicators.Error))
	}

	parts = append(parts, tc.theme.ToolName.Render(tc.call.Name))

	if tc.call.Args != "" {
		args := util.TruncateRunes(tc.call.Args, 60)
		parts = append(parts, tc.theme.ToolArgs.Render(args))
	}

	if tc.call.Done() && tc.call.Elapsed > 0 {
		parts = append(parts, tc.theme.ToolElapsed.Render(formatElapsed(tc.call.Elapsed)))
	}

	return strings.Join(parts, " ")
}

// renderBody renders the diff, error, or result preview.
func (tc *ToolCard) renderBody() string {
	if tc.HasDiff() {
		return tc.diff.View()
	}

	if tc.call.Status == model.ToolFailed && tc.call.Error != "" {
		return tc.theme.ToolResultError.Render(tc.call.Error)
	}

	if tc.call.Result == "" {
		return ""
	}

	lines := strings.Split(tc.call.Result, "\n")
	if !tc.expanded && len(lines) > maxResultPreview {
		hidden := len(lines) - maxResultPreview
		lines = append(lines[:maxResultPreview:maxResultPreview],
			tc.theme.Affordance.Render(fmt.Sprintf("… %d more lines", hidden)))
	}
	return tc.theme.ToolResultOK.Render(strings.Join(lines, "\n"))
}

// formatElapsed renders a duration compactly: "312ms", "2.4s", "1m 05s".
func formatElapsed(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		m := int(d.Minutes())
		s := int(d.Seconds()) - m*60
		return fmt.Sprintf("%dm %02ds", m, s)
	}
}
