// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and editing modes.
//
// A Conversation holds ordered Messages; assistant Messages may stream
// (content and thinking accumulate in builders until finalized) and carry
// ToolCalls describing spreadsheet operations. EditMode selects between
// agent (tool use allowed) and ask (read-only) behavior and is surfaced in
// the UI as mode tabs.
package model
