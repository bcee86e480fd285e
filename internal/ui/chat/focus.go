// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/ui/components"
)

// focusTarget is one keyboard-focusable widget in the transcript.
// scroll is nil for widgets without a scrollable body (a tool card
// that produced no diff).
type focusTarget struct {
	name   string
	scroll *components.Scrollable
	card   *components.ToolCard
	diff   *components.DiffViewer
	think  *components.ThinkingView
}

// focusTargets lists the widgets shift+tab cycles through, in render
// order. The list is rebuilt per keystroke so cards appearing during a
// stream join the cycle immediately.
func (m *Model) focusTargets() []focusTarget {
	var targets []focusTarget

	if m.thinking.View() != "" {
		targets = append(targets, focusTarget{
			name:   "thinking",
			scroll: m.thinking.Scrollable(),
			think:  m.thinking,
		})
	}

	for _, id := range m.cardOrder {
		card := m.cards[id]
		t := focusTarget{name: card.Call().Name, card: card}
		if card.HasDiff() {
			t.scroll = card.Diff().Scrollable()
			t.diff = card.Diff()
		}
		targets = append(targets, t)
	}

	if m.externalDiff != nil {
		targets = append(targets, focusTarget{
			name:   "workbook diff",
			scroll: m.externalDiff.Scrollable(),
			diff:   m.externalDiff,
		})
	}

	if m.showPreview && m.workbookPath != "" {
		targets = append(targets, focusTarget{
			name:   "preview",
			scroll: m.preview.Scrollable(),
		})
	}
	return targets
}

// focusedTarget resolves the focus index, dropping focus back to the
// input when the target list shrank underneath it.
func (m *Model) focusedTarget() (focusTarget, bool) {
	if m.focus < 0 {
		return focusTarget{}, false
	}
	targets := m.focusTargets()
	if m.focus >= len(targets) {
		m.setFocus(-1)
		return focusTarget{}, false
	}
	return targets[m.focus], true
}

// setFocus moves keyboard focus; -1 returns it to the input line.
func (m *Model) setFocus(i int) {
	m.focus = i
	if i < 0 {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

// cycleFocus advances to the next widget, wrapping past the last one
// back to the input.
func (m *Model) cycleFocus() {
	targets := m.focusTargets()
	if len(targets) == 0 {
		m.setFocus(-1)
		return
	}
	next := m.focus + 1
	if next >= len(targets) {
		next = -1
	}
	m.setFocus(next)
}

// handleFocusedKey routes a key press to the focused widget instead of
// the input line.
func (m *Model) handleFocusedKey(msg tea.KeyMsg, target focusTarget) (tea.Model, tea.Cmd) {
	defer m.refreshTranscript()

	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		// Unwind one level at a time: expanded card body, then the
		// scroll state, then the focus itself.
		if target.card != nil && target.card.Expanded() {
			target.card.Toggle()
			return m, nil
		}
		if target.scroll != nil && target.scroll.Mode() != components.ViewCollapsed {
			target.scroll.Update(msg)
			return m, nil
		}
		m.setFocus(-1)
		return m, nil

	case key.Matches(msg, m.keyMap.ShowAll):
		if target.diff != nil {
			target.diff.ShowAll()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		switch {
		case target.think != nil && !target.think.Open():
			target.think.Toggle()
		case target.scroll != nil:
			target.scroll.Update(msg)
		case target.card != nil:
			target.card.Toggle()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageUp):
		if target.scroll != nil {
			target.scroll.ScrollUp()
		}
		return m, nil

	case key.Matches(msg, m.keyMap.PageDown):
		if target.scroll != nil {
			target.scroll.ScrollDown()
		}
		return m, nil
	}

	if target.scroll != nil {
		target.scroll.Update(msg)
	}
	return m, nil
}
