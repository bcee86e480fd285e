// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the Bubble Tea model for the ExcelManus chat
// view: the conversation transcript, streaming assistant output, tool
// call cards, the thinking trace, and the input line.
//
// The package does not talk to any backend itself. A Backend
// implementation is injected and feeds the model a channel of Events
// (tokens, thinking text, tool lifecycle, completion); the model turns
// those into rendered state. Workbook reads, conversation persistence
// and the edit history log are likewise injected.
package chat
