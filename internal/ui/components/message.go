// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLES
// =============================================================================

// MessageBubble renders a single conversation message: user messages as
// right-leaning bubbles, assistant messages left-aligned with markdown
// formatting, system notices centered.
type MessageBubble struct {
	Message   *model.Message
	Width     int
	Streaming bool

	theme    *styles.Theme
	markdown *glamour.TermRenderer
}

// NewMessageBubble creates a bubble for a message. markdown may be nil,
// in which case assistant content renders as plain text.
func NewMessageBubble(msg *model.Message, theme *styles.Theme, markdown *glamour.TermRenderer) *MessageBubble {
	if msg == nil {
		msg = &model.Message{Role: model.RoleSystem}
	}
	return &MessageBubble{
		Message:   msg,
		Width:     80,
		Streaming: msg.IsStreaming,
		theme:     theme,
		markdown:  markdown,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the message bubble.
func (b *MessageBubble) View() string {
	switch b.Message.Role {
	case model.RoleUser:
		return b.renderUser()
	case model.RoleAssistant:
		return b.renderAssistant()
	default:
		return b.renderSystem()
	}
}

// ==========================================================================
// USER BUBBLE - right-aligned
// ==========================================================================

func (b *MessageBubble) renderUser() string {
	content := b.Message.DisplayContent()
	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.UserBubble.Width(contentWidth).Render(wrapped)

	role := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("you")

	leftMargin := b.Width - contentWidth - 4
	if leftMargin < 0 {
		leftMargin = 0
	}
	margin := lipgloss.NewStyle().MarginLeft(leftMargin)

	return lipgloss.JoinVertical(lipgloss.Right,
		margin.Render(role+" "+b.renderTimestamp()),
		margin.Render(bubble),
	)
}

// ==========================================================================
// ASSISTANT BUBBLE - left-aligned, markdown when finished
// ==========================================================================

func (b *MessageBubble) renderAssistant() string {
	content := b.Message.DisplayContent()

	if b.Streaming {
		// Streaming text is raw: running markdown through the renderer
		// on every token would reflow partially received constructs.
		content += b.renderCursor()
	} else if b.markdown != nil && content != "" {
		if rendered, err := b.markdown.Render(content); err == nil {
			content = strings.TrimRight(rendered, "\n")
		}
	}

	if content == "" {
		content = "..."
	}

	maxContentWidth := b.Width - 12
	if maxContentWidth < 20 {
		maxContentWidth = 20
	}
	var wrapped string
	if b.Streaming || b.markdown == nil {
		wrapped = wordWrap(content, maxContentWidth)
	} else {
		// glamour already wrapped to the renderer's width
		wrapped = content
	}
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-8)

	bubble := b.theme.AssistantBubble.Width(contentWidth).Render(wrapped)

	role := lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Italic(true).
		Render("manus")

	header := role
	if ts := b.renderTimestamp(); ts != "" {
		header += " " + ts
	}

	parts := []string{header, bubble}
	if !b.Streaming {
		if stats := b.Message.FormatStats(); stats != "" {
			parts = append(parts, b.theme.ThinkingTime.Render(stats))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// ==========================================================================
// SYSTEM BUBBLE - centered notice
// ==========================================================================

func (b *MessageBubble) renderSystem() string {
	content := b.Message.DisplayContent()
	if content == "" {
		return ""
	}

	maxContentWidth := b.Width - 20
	if maxContentWidth < 30 {
		maxContentWidth = 30
	}
	wrapped := wordWrap(content, maxContentWidth)
	contentWidth := minInt(maxLineWidth(wrapped)+4, b.Width-16)

	bubble := b.theme.SystemBubble.Width(contentWidth).Render(wrapped)

	center := lipgloss.NewStyle().Width(b.Width).Align(lipgloss.Center)
	return center.Render(bubble)
}

func (b *MessageBubble) renderTimestamp() string {
	if b.Message.Timestamp.IsZero() {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(styles.TextMuted).
		Render(b.Message.Timestamp.Format("15:04"))
}

func (b *MessageBubble) renderCursor() string {
	// The terminal's own cadence handles blinking; render the block frame.
	return lipgloss.NewStyle().
		Foreground(styles.Teal).
		Render(styles.TypingCursor[0])
}

// =============================================================================
// MESSAGE LIST
// =============================================================================

// MessageList renders the conversation transcript. A single glamour
// renderer is shared by all assistant bubbles and rebuilt on resize.
type MessageList struct {
	Messages []*model.Message
	Width    int

	theme    *styles.Theme
	markdown *glamour.TermRenderer
}

// NewMessageList creates an empty message list.
func NewMessageList(theme *styles.Theme) *MessageList {
	ml := &MessageList{
		Messages: []*model.Message{},
		Width:    80,
		theme:    theme,
	}
	ml.rebuildRenderer()
	return ml
}

// SetMessages sets the messages to display.
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width and reflows markdown.
func (ml *MessageList) SetWidth(width int) {
	if width == ml.Width {
		return
	}
	ml.Width = width
	ml.rebuildRenderer()
}

// rebuildRenderer recreates the markdown renderer for the current
// width. A nil renderer falls back to plain text.
func (ml *MessageList) rebuildRenderer() {
	wrap := ml.Width - 12
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		ml.markdown = nil
		return
	}
	ml.markdown = renderer
}

// View renders all messages.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		empty := lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0)
		return empty.Render("Open a workbook and ask for an edit to get started.")
	}

	bubbles := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		bubble := NewMessageBubble(msg, ml.theme, ml.markdown)
		bubble.SetWidth(ml.Width)
		bubbles = append(bubbles, bubble.View())
	}
	return strings.Join(bubbles, "\n")
}
