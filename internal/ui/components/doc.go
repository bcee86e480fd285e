// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the widgets composed by the chat view.

Built on Bubble Tea and Lip Gloss, each widget owns its rendering and
local state; the chat model owns layout and event routing.

Scrollable (scrollable.go) is the tri-state container the larger
widgets embed: collapsed to a few rows, scrolling inside a fixed
window, or fully expanded.

DiffViewer (diff_viewer.go) renders unified-diff hunks with classified
rows, a dual line-number gutter, and add/delete counts.

TextPreview (text_preview.go) shows a window of sheet rows with line
numbers and a truncation notice.

ToolCard (tool_card.go) tracks one backend tool call from running
spinner to success or failure, with the diff or result preview inline.

ThinkingView (thinking.go) collects the reasoning trace while the
assistant works and collapses it to a "thought for N s" line when the
answer starts.

MessageBubble and MessageList (message.go) render the transcript,
with Markdown via glamour for finished assistant messages.

ModeTabs (mode_tabs.go) switches between agent and ask modes.
*/
package components
