// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"

	"github.com/kilolonion/excelmanus/internal/model"
)

func TestUserBubbleRendersContent(t *testing.T) {
	msg := model.NewUserMessage("double column B")
	b := NewMessageBubble(msg, testTheme(), nil)
	b.SetWidth(60)

	view := b.View()
	if !strings.Contains(view, "double column B") {
		t.Errorf("user bubble missing content:\n%s", view)
	}
	if !strings.Contains(view, "you") {
		t.Errorf("user bubble missing role label:\n%s", view)
	}
}

func TestAssistantBubblePlainFallback(t *testing.T) {
	msg := model.NewMessage(model.RoleAssistant, "Done. Column B doubled.")
	b := NewMessageBubble(msg, testTheme(), nil)
	b.SetWidth(60)

	view := b.View()
	if !strings.Contains(view, "Column B doubled") {
		t.Errorf("assistant bubble missing content:\n%s", view)
	}
	if !strings.Contains(view, "manus") {
		t.Errorf("assistant bubble missing role label:\n%s", view)
	}
}

func TestStreamingBubbleShowsCursor(t *testing.T) {
	msg := model.NewAssistantMessage(model.ModeAgent)
	msg.AppendToken("Working on")
	b := NewMessageBubble(msg, testTheme(), nil)
	b.SetWidth(60)

	view := b.View()
	if !strings.Contains(view, "Working on") {
		t.Errorf("streaming bubble missing partial content:\n%s", view)
	}
	if !strings.Contains(view, "▌") {
		t.Errorf("streaming bubble missing cursor block:\n%s", view)
	}
}

func TestSystemBubbleCentered(t *testing.T) {
	msg := model.NewSystemMessage("workbook reloaded")
	b := NewMessageBubble(msg, testTheme(), nil)
	b.SetWidth(60)

	if view := b.View(); !strings.Contains(view, "workbook reloaded") {
		t.Errorf("system bubble missing content:\n%s", view)
	}
}

func TestNilMessageSafe(t *testing.T) {
	b := NewMessageBubble(nil, testTheme(), nil)
	b.SetWidth(60)
	// Must not panic; an empty system message renders nothing.
	if got := b.View(); got != "" {
		t.Errorf("nil message view = %q, want empty", got)
	}
}

func TestMessageListEmptyState(t *testing.T) {
	ml := NewMessageList(testTheme())
	if view := ml.View(); !strings.Contains(view, "workbook") {
		t.Errorf("empty state missing hint:\n%s", view)
	}
}

func TestMessageListRendersTranscript(t *testing.T) {
	ml := NewMessageList(testTheme())
	ml.SetWidth(60)
	ml.SetMessages([]*model.Message{
		model.NewUserMessage("sum column C"),
		model.NewMessage(model.RoleAssistant, "The total is 420."),
	})

	view := ml.View()
	if !strings.Contains(view, "sum column C") {
		t.Errorf("transcript missing user message:\n%s", view)
	}
	if !strings.Contains(view, "420") {
		t.Errorf("transcript missing assistant message:\n%s", view)
	}
}
