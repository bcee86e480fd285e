// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package diff

import (
	"strings"
	"testing"
)

func TestParseHunks_Classification(t *testing.T) {
	input := []string{
		"--- a/f",
		"+++ b/f",
		"@@ -1,2 +1,3 @@",
		" keep",
		"-old",
		"+new1",
		"+new2",
	}

	lines := ParseHunks(input)

	if len(lines) != len(input) {
		t.Fatalf("Expected %d lines, got %d", len(input), len(lines))
	}

	wantKinds := []LineKind{KindHeader, KindHeader, KindHunk, KindContext, KindDeleted, KindAdded, KindAdded}
	for i, want := range wantKinds {
		if lines[i].Kind != want {
			t.Errorf("Line %d: expected kind %s, got %s", i, want, lines[i].Kind)
		}
	}

	// Context line reports the pre-increment counters from the hunk header.
	if lines[3].OldLine != 1 || lines[3].NewLine != 1 {
		t.Errorf("Context line numbers: got old=%d new=%d, want 1/1", lines[3].OldLine, lines[3].NewLine)
	}

	// Deleted line advances only the old side.
	if lines[4].OldLine != 2 {
		t.Errorf("Deleted line: got old=%d, want 2", lines[4].OldLine)
	}
	if lines[4].NewLine != 0 {
		t.Errorf("Deleted line should have no new-side number, got %d", lines[4].NewLine)
	}

	// Added lines advance only the new side.
	if lines[5].NewLine != 2 {
		t.Errorf("First added line: got new=%d, want 2", lines[5].NewLine)
	}
	if lines[6].NewLine != 3 {
		t.Errorf("Second added line: got new=%d, want 3", lines[6].NewLine)
	}
	if lines[5].OldLine != 0 || lines[6].OldLine != 0 {
		t.Error("Added lines should have no old-side number")
	}
}

func TestParseHunks_MarkerStripping(t *testing.T) {
	lines := ParseHunks([]string{
		"@@ -1,1 +1,1 @@",
		"+added text",
		"-deleted text",
		" context text",
	})

	if lines[1].Text != "added text" {
		t.Errorf("Added text: got %q", lines[1].Text)
	}
	if lines[2].Text != "deleted text" {
		t.Errorf("Deleted text: got %q", lines[2].Text)
	}
	if lines[3].Text != "context text" {
		t.Errorf("Context text: got %q", lines[3].Text)
	}
}

func TestParseHunks_HeadersKeepMarkers(t *testing.T) {
	lines := ParseHunks([]string{"--- a/sheet.tsv", "+++ b/sheet.tsv"})

	if lines[0].Text != "--- a/sheet.tsv" {
		t.Errorf("Header text should keep markers, got %q", lines[0].Text)
	}
	if lines[1].Text != "+++ b/sheet.tsv" {
		t.Errorf("Header text should keep markers, got %q", lines[1].Text)
	}
	if lines[0].OldLine != 0 || lines[0].NewLine != 0 {
		t.Error("Header lines carry no line numbers")
	}
}

func TestParseHunks_HunkResetsCounters(t *testing.T) {
	lines := ParseHunks([]string{
		"@@ -10,3 +20,4 @@",
		" shared",
	})

	if lines[0].Kind != KindHunk {
		t.Fatalf("Expected hunk kind, got %s", lines[0].Kind)
	}
	if lines[1].OldLine != 10 || lines[1].NewLine != 20 {
		t.Errorf("Counters after hunk header: got old=%d new=%d, want 10/20", lines[1].OldLine, lines[1].NewLine)
	}
}

func TestParseHunks_HunkWithoutCounts(t *testing.T) {
	// Single-line hunks may omit the count groups.
	lines := ParseHunks([]string{
		"@@ -5 +7 @@",
		" shared",
	})

	if lines[1].OldLine != 5 || lines[1].NewLine != 7 {
		t.Errorf("Partial capture groups: got old=%d new=%d, want 5/7", lines[1].OldLine, lines[1].NewLine)
	}
}

func TestParseHunks_MalformedHunkHeader(t *testing.T) {
	lines := ParseHunks([]string{
		"@@ -3,1 +4,1 @@",
		" a",
		"@@ garbage @@",
		" b",
	})

	if lines[2].Kind != KindHunk {
		t.Errorf("Malformed header still emits a hunk line, got %s", lines[2].Kind)
	}
	if lines[2].Text != "@@ garbage @@" {
		t.Errorf("Malformed header keeps raw text, got %q", lines[2].Text)
	}

	// Counters continue from the previous hunk: " a" consumed 3/4, so
	// " b" reports 4/5 despite the garbage header between them.
	if lines[3].OldLine != 4 || lines[3].NewLine != 5 {
		t.Errorf("Counters after malformed header: got old=%d new=%d, want 4/5", lines[3].OldLine, lines[3].NewLine)
	}
}

func TestParseHunks_ContextWithoutLeadingSpace(t *testing.T) {
	lines := ParseHunks([]string{"plain line"})

	if lines[0].Kind != KindContext {
		t.Fatalf("Expected context, got %s", lines[0].Kind)
	}
	if lines[0].Text != "plain line" {
		t.Errorf("Text without leading space kept verbatim, got %q", lines[0].Text)
	}
}

func TestParseHunks_StripsOnlyOneSpace(t *testing.T) {
	lines := ParseHunks([]string{"  indented context"})

	if lines[0].Text != " indented context" {
		t.Errorf("Only one leading space is stripped, got %q", lines[0].Text)
	}
}

func TestParseHunks_EmptyInput(t *testing.T) {
	if lines := ParseHunks(nil); len(lines) != 0 {
		t.Errorf("Expected empty output for nil input, got %d lines", len(lines))
	}
	if lines := ParseHunks([]string{}); len(lines) != 0 {
		t.Errorf("Expected empty output for empty input, got %d lines", len(lines))
	}
}

func TestParseHunks_EmptyLineIsContext(t *testing.T) {
	lines := ParseHunks([]string{"@@ -1,1 +1,1 @@", ""})

	if lines[1].Kind != KindContext {
		t.Errorf("Empty line should be context, got %s", lines[1].Kind)
	}
	if lines[1].OldLine != 1 || lines[1].NewLine != 1 {
		t.Errorf("Empty context line numbers: got old=%d new=%d, want 1/1", lines[1].OldLine, lines[1].NewLine)
	}
}

func TestParseHunks_LengthAlwaysMatchesInput(t *testing.T) {
	inputs := [][]string{
		{"+a", "-b", " c"},
		{"@@", "@@ nonsense", "---", "+++", ""},
		{"no markers at all", "\tleading tab"},
	}

	for _, input := range inputs {
		lines := ParseHunks(input)
		if len(lines) != len(input) {
			t.Errorf("Input %v: expected %d lines, got %d", input, len(input), len(lines))
		}
	}
}

func TestParseHunks_MonotonicLineNumbers(t *testing.T) {
	lines := ParseHunks([]string{
		"@@ -1,4 +1,4 @@",
		" a",
		"-b",
		"+B",
		" c",
		" d",
	})

	prevOld, prevNew := 0, 0
	for i, line := range lines {
		if line.OldLine > 0 {
			if line.OldLine < prevOld {
				t.Errorf("Line %d: old line %d went backwards from %d", i, line.OldLine, prevOld)
			}
			prevOld = line.OldLine
		}
		if line.NewLine > 0 {
			if line.NewLine < prevNew {
				t.Errorf("Line %d: new line %d went backwards from %d", i, line.NewLine, prevNew)
			}
			prevNew = line.NewLine
		}
	}
}

func TestParseUnified_SplitsAndParses(t *testing.T) {
	text := "--- a/f\n+++ b/f\n@@ -1,1 +1,1 @@\n-x\n+y\n"

	lines := ParseUnified(text)

	if len(lines) != 5 {
		t.Fatalf("Expected 5 lines, got %d", len(lines))
	}
	if lines[3].Kind != KindDeleted || lines[4].Kind != KindAdded {
		t.Errorf("Unexpected kinds: %s, %s", lines[3].Kind, lines[4].Kind)
	}
}

func TestParseUnified_Empty(t *testing.T) {
	if lines := ParseUnified(""); lines != nil {
		t.Errorf("Expected nil for empty text, got %v", lines)
	}
}

func TestCountChanges(t *testing.T) {
	lines := ParseHunks([]string{"+a", "+b", "-c", " d", "@@ x @@", "--- h"})

	adds, dels := CountChanges(lines)
	if adds != 2 {
		t.Errorf("Expected 2 additions, got %d", adds)
	}
	if dels != 1 {
		t.Errorf("Expected 1 deletion, got %d", dels)
	}
}

func TestParseHunks_Idempotent(t *testing.T) {
	input := []string{"@@ -2,2 +3,2 @@", " a", "-b", "+c"}

	first := ParseHunks(input)
	second := ParseHunks(input)

	if len(first) != len(second) {
		t.Fatalf("Parse is not deterministic: %d vs %d lines", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("Line %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestParseUnified_FullDocument(t *testing.T) {
	text := strings.Join([]string{
		"--- budget.tsv (before)",
		"+++ budget.tsv (after)",
		"@@ -1,3 +1,3 @@",
		" q1\t100",
		"-q2\t200",
		"+q2\t250",
		" q3\t300",
	}, "\n")

	lines := ParseUnified(text)

	adds, dels := CountChanges(lines)
	if adds != 1 || dels != 1 {
		t.Errorf("Counts: got +%d -%d, want +1 -1", adds, dels)
	}

	var kinds []string
	for _, line := range lines {
		kinds = append(kinds, line.Kind.String())
	}
	joined := strings.Join(kinds, ",")
	if !strings.Contains(joined, "deleted,added") {
		t.Errorf("Expected a deleted/added pair in %s", joined)
	}
}
