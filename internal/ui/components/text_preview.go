// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"

	"github.com/kilolonion/excelmanus/internal/ui/styles"
	"github.com/kilolonion/excelmanus/internal/util"
)

// =============================================================================
// TEXT PREVIEW - line-numbered sheet/file content in a scrollable box
// =============================================================================

// TextPreview renders line-numbered content (sheet rows, file excerpts)
// inside the shared Scrollable container. Rows longer than the width
// are truncated with an ellipsis; display-width aware so CJK cell
// values keep the columns aligned.
type TextPreview struct {
	theme *styles.Theme

	title     string
	rows      []string
	startLine int  // first row's line number (1-based)
	truncated bool // upstream cut the content short

	scroll *Scrollable
	width  int
}

// NewTextPreview creates a text preview with the given height budgets.
func NewTextPreview(theme *styles.Theme, cfg ScrollableConfig) *TextPreview {
	return &TextPreview{
		theme:     theme,
		startLine: 1,
		scroll:    NewScrollable(theme, cfg),
		width:     80,
	}
}

// SetContent loads rows for display. truncated marks that upstream
// capped the rows, which adds a trailing notice.
func (tp *TextPreview) SetContent(title string, rows []string, truncated bool) {
	tp.title = title
	tp.rows = rows
	tp.truncated = truncated
	tp.refresh()
}

// SetStartLine sets the line number of the first row.
func (tp *TextPreview) SetStartLine(n int) {
	if n < 1 {
		n = 1
	}
	tp.startLine = n
	tp.refresh()
}

// AppendRow streams one more row into the preview.
func (tp *TextPreview) AppendRow(row string) {
	tp.rows = append(tp.rows, row)
	tp.scroll.AppendLine(tp.renderRow(len(tp.rows)-1, row))
}

// SetWidth updates the display width.
func (tp *TextPreview) SetWidth(width int) {
	tp.width = width
	tp.scroll.SetWidth(width)
	tp.refresh()
}

// Scrollable exposes the container for interaction routing.
func (tp *TextPreview) Scrollable() *Scrollable { return tp.scroll }

// refresh re-renders all rows into the scroll container.
func (tp *TextPreview) refresh() {
	var sb strings.Builder
	for i, row := range tp.rows {
		if i > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(tp.renderRow(i, row))
	}
	if tp.truncated {
		if len(tp.rows) > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(tp.theme.PreviewTruncate.Render("… content truncated"))
	}
	tp.scroll.SetContent(sb.String())
}

// renderRow renders one numbered row, width-truncated.
func (tp *TextPreview) renderRow(idx int, row string) string {
	num := tp.theme.PreviewLineNum.Render(fmt.Sprintf("%4d ", tp.startLine+idx))

	// UNICODE: truncate by display width, not rune count.
	body := row
	if avail := tp.width - 6; avail > 0 {
		body = util.TruncateWidth(row, avail)
	}
	return num + tp.theme.PreviewText.Render(body)
}

// View renders the title line plus the contained rows.
func (tp *TextPreview) View() string {
	if len(tp.rows) == 0 && !tp.truncated {
		return tp.theme.Affordance.Render("empty")
	}

	var sb strings.Builder
	if tp.title != "" {
		sb.WriteString(tp.theme.DiffCounts.Render(tp.title))
		sb.WriteByte('\n')
	}
	sb.WriteString(tp.scroll.View())
	return sb.String()
}
