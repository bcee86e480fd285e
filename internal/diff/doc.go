// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package diff parses unified diffs for spreadsheet edit previews.
//
// The parser classifies raw unified-diff hunk lines into display rows
// with old/new line numbers; it is the input side of the diff viewer
// and tolerates arbitrary text. A malformed hunk header still renders
// as a hunk row; it just leaves the line counters untouched.
//
// # Key Types
//
//   - LineKind: classification of a row (header, hunk, added, deleted, context)
//   - Line: one display row with stripped marker and line numbers
//
// # Usage
//
// Parse raw hunk lines received from a tool call:
//
//	rows := diff.ParseHunks(rawLines)
//	adds, dels := diff.CountChanges(rows)
//
// Whole documents come in as text:
//
//	rows := diff.ParseUnified(text)
package diff
