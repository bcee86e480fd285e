// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/kilolonion/excelmanus/internal/model"
)

// =============================================================================
// BACKEND EVENT SOURCE
// =============================================================================

// Backend produces the assistant's response to a conversation as a
// stream of events. The channel is closed after DoneEvent or
// ErrorEvent; cancelling the context must also close it.
type Backend interface {
	Stream(ctx context.Context, conv *model.Conversation) (<-chan Event, error)
}

// Event is one item in a response stream.
type Event interface {
	isEvent()
}

// TokenEvent carries a chunk of assistant answer text.
type TokenEvent struct {
	Text string
}

// ThinkingEvent carries a chunk of reasoning-trace text.
type ThinkingEvent struct {
	Text string
}

// ToolStartEvent announces a tool call the assistant has begun.
type ToolStartEvent struct {
	Call model.ToolCall
}

// ToolDoneEvent carries the finished call, including any diff lines
// for workbook edits.
type ToolDoneEvent struct {
	Call model.ToolCall
}

// DoneEvent ends a successful stream.
type DoneEvent struct {
	PromptTokens int
}

// ErrorEvent ends a failed stream.
type ErrorEvent struct {
	Err error
}

func (TokenEvent) isEvent()     {}
func (ThinkingEvent) isEvent()  {}
func (ToolStartEvent) isEvent() {}
func (ToolDoneEvent) isEvent()  {}
func (DoneEvent) isEvent()      {}
func (ErrorEvent) isEvent()     {}
