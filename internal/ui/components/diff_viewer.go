// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/kilolonion/excelmanus/internal/diff"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
)

// =============================================================================
// DIFF VIEWER - classified diff rows inside a scrollable container
// =============================================================================

// DiffViewer renders a workbook edit as a colored, line-numbered diff
// table. Overflowing diffs collapse behind the shared Scrollable
// container; very large diffs additionally cap the rendered rows until
// the user asks for all of them.
type DiffViewer struct {
	theme *styles.Theme

	title string // usually "<sheet> +a -d"
	lines []diff.Line

	additions int
	deletions int

	// displayCap limits rendered rows (0 = uncapped); showAll lifts it.
	displayCap int
	showAll    bool

	scroll *Scrollable
	width  int
}

// NewDiffViewer creates a diff viewer with the given height budgets.
func NewDiffViewer(theme *styles.Theme, cfg ScrollableConfig, displayCap int) *DiffViewer {
	return &DiffViewer{
		theme:      theme,
		displayCap: displayCap,
		scroll:     NewScrollable(theme, cfg),
		width:      80,
	}
}

// SetDiff loads raw unified-diff hunk lines, as reported by an edit
// tool, classifying them for display.
func (dv *DiffViewer) SetDiff(title string, raw []string) {
	dv.title = title
	dv.lines = diff.ParseHunks(raw)
	dv.additions, dv.deletions = diff.CountChanges(dv.lines)
	dv.showAll = false
	dv.refresh()
}

// SetParsed loads already-classified lines (e.g. from a stored edit).
func (dv *DiffViewer) SetParsed(title string, lines []diff.Line) {
	dv.title = title
	dv.lines = lines
	dv.additions, dv.deletions = diff.CountChanges(lines)
	dv.showAll = false
	dv.refresh()
}

// SetWidth updates the display width.
func (dv *DiffViewer) SetWidth(width int) {
	dv.width = width
	dv.scroll.SetWidth(width)
}

// Additions returns the added-row count.
func (dv *DiffViewer) Additions() int { return dv.additions }

// Deletions returns the deleted-row count.
func (dv *DiffViewer) Deletions() int { return dv.deletions }

// Scrollable exposes the container for interaction routing.
func (dv *DiffViewer) Scrollable() *Scrollable { return dv.scroll }

// Capped reports whether rows are currently hidden by the display cap.
func (dv *DiffViewer) Capped() bool {
	return dv.displayCap > 0 && !dv.showAll && len(dv.lines) > dv.displayCap
}

// ShowAll lifts the display cap.
func (dv *DiffViewer) ShowAll() {
	if !dv.Capped() {
		return
	}
	dv.showAll = true
	dv.refresh()
}

// refresh re-renders the rows into the scroll container.
func (dv *DiffViewer) refresh() {
	dv.scroll.SetContent(dv.renderRows())
}

// View renders the header line plus the contained diff rows.
func (dv *DiffViewer) View() string {
	if len(dv.lines) == 0 {
		return dv.theme.Affordance.Render("no changes")
	}

	var sb strings.Builder
	sb.WriteString(dv.renderTitle())
	sb.WriteByte('\n')
	sb.WriteString(dv.scroll.View())
	return sb.String()
}

// renderTitle renders "<title> +a -d" with colored counts.
func (dv *DiffViewer) renderTitle() string {
	var parts []string
	if dv.title != "" {
		parts = append(parts, dv.theme.DiffCounts.Render(dv.title))
	}
	if dv.additions > 0 {
		parts = append(parts, dv.theme.DiffAdded.Render(fmt.Sprintf("+%d", dv.additions)))
	}
	if dv.deletions > 0 {
		parts = append(parts, dv.theme.DiffDeleted.Render(fmt.Sprintf("-%d", dv.deletions)))
	}
	return strings.Join(parts, " ")
}

// renderRows renders the classified lines, honoring the display cap.
func (dv *DiffViewer) renderRows() string {
	lines := dv.lines
	capped := dv.Capped()
	if capped {
		lines = lines[:dv.displayCap]
	}

	var sb strings.Builder
	for i, line := range lines {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(dv.renderRow(line))
	}
	if capped {
		sb.WriteByte('\n')
		sb.WriteString(dv.theme.Affordance.Render(
			fmt.Sprintf("… %d rows hidden · show all", len(dv.lines)-dv.displayCap)))
	}
	return sb.String()
}

// renderRow renders one classified diff row with its gutter.
func (dv *DiffViewer) renderRow(line diff.Line) string {
	gutter := dv.renderGutter(line)

	switch line.Kind {
	case diff.KindAdded:
		return gutter + dv.theme.DiffAdded.Render("+"+line.Text)
	case diff.KindDeleted:
		return gutter + dv.theme.DiffDeleted.Render("-"+line.Text)
	case diff.KindHunk:
		return gutter + dv.theme.DiffHunk.Render(line.Text)
	case diff.KindHeader:
		return gutter + dv.theme.DiffHeader.Render(line.Text)
	default:
		return gutter + dv.theme.DiffContext.Render(" "+line.Text)
	}
}

// renderGutter renders the old/new line number columns. Hunk and header
// rows get an empty gutter of the same width so content stays aligned.
func (dv *DiffViewer) renderGutter(line diff.Line) string {
	var old, new string
	switch line.Kind {
	case diff.KindAdded:
		old, new = "    ", fmt.Sprintf("%4d", line.NewLine)
	case diff.KindDeleted:
		old, new = fmt.Sprintf("%4d", line.OldLine), "    "
	case diff.KindContext:
		old, new = fmt.Sprintf("%4d", line.OldLine), fmt.Sprintf("%4d", line.NewLine)
	default:
		old, new = "    ", "    "
	}
	return dv.theme.DiffLineNum.Render(old+" "+new) + " "
}
