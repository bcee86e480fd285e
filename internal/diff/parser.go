// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// =============================================================================
// LINE KIND
// =============================================================================

// LineKind classifies one rendered row of a unified diff.
type LineKind int

const (
	// KindHeader is a file header line (--- or +++).
	KindHeader LineKind = iota
	// KindHunk is a hunk separator line (@@ ... @@).
	KindHunk
	// KindAdded is a line present only in the new content.
	KindAdded
	// KindDeleted is a line present only in the old content.
	KindDeleted
	// KindContext is an unchanged line shown for surrounding clarity.
	KindContext
)

// String returns the string representation of a line kind.
func (k LineKind) String() string {
	switch k {
	case KindHeader:
		return "header"
	case KindHunk:
		return "hunk"
	case KindAdded:
		return "added"
	case KindDeleted:
		return "deleted"
	case KindContext:
		return "context"
	default:
		return "unknown"
	}
}

// Prefix returns the unified-diff marker character for this kind.
// Header and hunk lines keep their markers in the text itself.
func (k LineKind) Prefix() string {
	switch k {
	case KindAdded:
		return "+"
	case KindDeleted:
		return "-"
	case KindContext:
		return " "
	default:
		return ""
	}
}

// =============================================================================
// LINE
// =============================================================================

// Line is one displayable row of a parsed diff. Text holds the display
// content with the leading marker stripped for added/deleted/context rows;
// header and hunk rows keep their raw text. OldLine/NewLine are 1-based
// and zero when the side does not apply to the kind.
type Line struct {
	Kind    LineKind
	Text    string
	OldLine int
	NewLine int
}

// hunkHeaderRe matches "@@ -oldStart[,oldCount] +newStart[,newCount] @@".
// The counts are optional, as in single-line hunks emitted by git.
var hunkHeaderRe = regexp.MustCompile(`@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// =============================================================================
// PARSER
// =============================================================================

// ParseHunks classifies raw unified-diff hunk lines into display rows.
// The transform is a single pass with two running line counters that reset
// at each well-formed hunk header. It emits exactly one row per input line,
// preserves order, and accepts any input: a malformed hunk header is still
// emitted as a hunk row, it just leaves the counters where they were.
func ParseHunks(raw []string) []Line {
	lines := make([]Line, 0, len(raw))
	oldLine, newLine := 0, 0

	for _, text := range raw {
		switch {
		case strings.HasPrefix(text, "---") || strings.HasPrefix(text, "+++"):
			// File headers keep their markers and do not touch counters.
			lines = append(lines, Line{Kind: KindHeader, Text: text})

		case strings.HasPrefix(text, "@@"):
			if m := hunkHeaderRe.FindStringSubmatch(text); m != nil {
				// Atoi cannot fail here: the groups are \d+ by construction.
				oldLine, _ = strconv.Atoi(m[1])
				newLine, _ = strconv.Atoi(m[3])
			}
			lines = append(lines, Line{Kind: KindHunk, Text: text})

		case strings.HasPrefix(text, "+"):
			lines = append(lines, Line{Kind: KindAdded, Text: text[1:], NewLine: newLine})
			newLine++

		case strings.HasPrefix(text, "-"):
			lines = append(lines, Line{Kind: KindDeleted, Text: text[1:], OldLine: oldLine})
			oldLine++

		default:
			lines = append(lines, Line{
				Kind:    KindContext,
				Text:    strings.TrimPrefix(text, " "),
				OldLine: oldLine,
				NewLine: newLine,
			})
			oldLine++
			newLine++
		}
	}

	return lines
}

// ParseUnified splits a unified diff text into lines and parses them.
// A trailing newline does not produce a phantom empty row.
func ParseUnified(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}
	return ParseHunks(raw)
}

// CountChanges returns the number of added and deleted rows in a parsed
// diff. Display-side aggregate, layered outside the parser itself.
func CountChanges(lines []Line) (additions, deletions int) {
	for _, line := range lines {
		switch line.Kind {
		case KindAdded:
			additions++
		case KindDeleted:
			deletions++
		}
	}
	return additions, deletions
}
