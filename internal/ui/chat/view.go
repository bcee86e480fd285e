// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"fmt"
	"path/filepath"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/kilolonion/excelmanus/internal/session"
)

// numPrinter formats token/row counts with thousand separators.
var numPrinter = message.NewPrinter(language.English)

// =============================================================================
// VIEW
// =============================================================================

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading…"
	}

	var sb strings.Builder
	sb.WriteString(m.renderHeader())
	sb.WriteByte('\n')
	sb.WriteString(m.viewport.View())
	sb.WriteByte('\n')
	sb.WriteString(m.renderInput())
	sb.WriteByte('\n')
	sb.WriteString(m.renderStatusBar())

	if m.showHelp {
		sb.WriteByte('\n')
		sb.WriteString(m.renderHelp())
	}
	return sb.String()
}

// refreshTranscript re-renders the transcript into the viewport and
// keeps it pinned to the newest content.
func (m *Model) refreshTranscript() {
	if !m.ready {
		return
	}

	wasAtBottom := m.viewport.AtBottom()

	var sb strings.Builder
	m.messages.SetMessages(m.conversation.Messages)
	sb.WriteString(m.messages.View())

	if view := m.thinking.View(); view != "" {
		sb.WriteByte('\n')
		sb.WriteString(view)
	}
	for _, id := range m.cardOrder {
		sb.WriteByte('\n')
		sb.WriteString(m.cards[id].View())
	}
	if m.externalDiff != nil {
		sb.WriteByte('\n')
		sb.WriteString(m.externalDiff.View())
	}
	if m.showPreview && m.workbookPath != "" {
		sb.WriteByte('\n')
		sb.WriteString(m.preview.View())
	}

	m.viewport.SetContent(sb.String())
	if wasAtBottom || m.state == StateStreaming {
		m.viewport.GotoBottom()
	}
}

// =============================================================================
// CHROME
// =============================================================================

func (m *Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render("ExcelManus")

	wb := "no workbook"
	if m.workbookPath != "" {
		wb = filepath.Base(m.workbookPath)
		if m.workbookInfo != nil {
			wb += fmt.Sprintf(" · %d sheets", len(m.workbookInfo.SheetNames))
		}
	}

	return m.theme.Header.Render(
		title + "  " + m.theme.HeaderWorkbook.Render(wb) + "  " + m.tabs.View())
}

func (m *Model) renderInput() string {
	if m.state == StateStreaming {
		return m.theme.InputContainer.Render(m.spin.View() + " generating… (Esc to cancel)")
	}
	return m.theme.InputContainer.Render(m.input.View())
}

func (m *Model) renderStatusBar() string {
	var parts []string

	if target, ok := m.focusedTarget(); ok {
		parts = append(parts, m.theme.InfoStyle.Render("viewing "+target.name+" · esc to leave"))
	}

	if m.lastError != "" {
		parts = append(parts, m.theme.ErrorStyle.Render(m.lastError))
	} else if m.statusMsg != "" {
		parts = append(parts, m.theme.InfoStyle.Render(m.statusMsg))
	}

	parts = append(parts, numPrinter.Sprintf("%d tokens", m.conversation.TokensUsed))

	if m.conversation.MaxTokens > 0 {
		pct := float64(m.conversation.TokensUsed) / float64(m.conversation.MaxTokens) * 100
		parts = append(parts, fmt.Sprintf("ctx %.1f%%", pct))
	}

	if m.session != nil {
		status := m.session.GetStatus()
		parts = append(parts, session.FormatDuration(status.Duration))
		if status.IsDirty {
			parts = append(parts, "unsaved")
		}
	}

	return m.theme.StatusBar.Render(strings.Join(parts, " · "))
}

func (m *Model) renderHelp() string {
	var sb strings.Builder
	for i, group := range m.keyMap.FullHelp() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		var cols []string
		for _, b := range group {
			cols = append(cols,
				m.theme.ShortcutKey.Render(b.Help().Key)+" "+
					m.theme.ShortcutDesc.Render(b.Help().Desc))
		}
		sb.WriteString(strings.Join(cols, "   "))
	}
	return sb.String()
}
