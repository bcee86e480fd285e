// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/kilolonion/excelmanus/internal/diff"
)

func newTestDiffViewer(displayCap int) *DiffViewer {
	return NewDiffViewer(testTheme(), ScrollableConfig{
		CollapsedHeight: 5,
		ExpandedHeight:  10,
	}, displayCap)
}

func sampleDiff() []string {
	return []string{
		"--- Sheet1 (before)",
		"+++ Sheet1 (after)",
		"@@ -1,3 +1,3 @@",
		" A\t1",
		"-B\t100",
		"+B\t250",
		" C\t3",
	}
}

func TestSetDiffCountsChanges(t *testing.T) {
	dv := newTestDiffViewer(0)
	dv.SetDiff("Sheet1", sampleDiff())

	if dv.Additions() != 1 {
		t.Errorf("Additions = %d, want 1", dv.Additions())
	}
	if dv.Deletions() != 1 {
		t.Errorf("Deletions = %d, want 1", dv.Deletions())
	}
}

func TestViewShowsTitleAndCounts(t *testing.T) {
	dv := newTestDiffViewer(0)
	dv.SetDiff("Sheet1", sampleDiff())

	view := dv.View()
	for _, want := range []string{"Sheet1", "+1", "-1"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestViewRendersClassifiedRows(t *testing.T) {
	dv := newTestDiffViewer(0)
	dv.SetDiff("Sheet1", sampleDiff())

	view := dv.View()
	if !strings.Contains(view, "-B\t100") {
		t.Errorf("deleted row not rendered with - prefix:\n%s", view)
	}
	if !strings.Contains(view, "+B\t250") {
		t.Errorf("added row not rendered with + prefix:\n%s", view)
	}
	if !strings.Contains(view, "@@ -1,3 +1,3 @@") {
		t.Errorf("hunk row not rendered:\n%s", view)
	}
}

func TestGutterLineNumbers(t *testing.T) {
	dv := newTestDiffViewer(0)
	dv.SetDiff("Sheet1", sampleDiff())

	view := dv.View()
	// Context row "A\t1" carries both old and new line 1; the deleted
	// row carries old line 2 with a blank new column.
	if !strings.Contains(view, "   1    1") {
		t.Errorf("context gutter missing old/new numbers:\n%s", view)
	}
	if !strings.Contains(view, "   2      -B") {
		t.Errorf("deleted gutter should have old number and blank new column:\n%s", view)
	}
}

func TestEmptyDiffShowsNoChanges(t *testing.T) {
	dv := newTestDiffViewer(0)
	dv.SetDiff("Sheet1", nil)

	if got := dv.View(); !strings.Contains(got, "no changes") {
		t.Errorf("empty diff view = %q, want no-changes notice", got)
	}
}

func TestDisplayCapHidesRows(t *testing.T) {
	raw := []string{"@@ -1,0 +1,30 @@"}
	for i := 1; i <= 30; i++ {
		raw = append(raw, fmt.Sprintf("+row %d", i))
	}

	dv := newTestDiffViewer(10)
	dv.SetDiff("Data", raw)

	if !dv.Capped() {
		t.Fatal("31 rows with cap 10 should be capped")
	}
	view := dv.View()
	if !strings.Contains(view, "21 rows hidden") {
		t.Errorf("capped view missing hidden-row count:\n%s", view)
	}
	if strings.Contains(view, "row 30") {
		t.Errorf("capped view should not render rows past the cap:\n%s", view)
	}
}

func TestShowAllLiftsCap(t *testing.T) {
	raw := []string{"@@ -1,0 +1,30 @@"}
	for i := 1; i <= 30; i++ {
		raw = append(raw, fmt.Sprintf("+row %d", i))
	}

	dv := newTestDiffViewer(10)
	dv.SetDiff("Data", raw)
	dv.ShowAll()

	if dv.Capped() {
		t.Error("ShowAll should lift the cap")
	}
	// All rows now live in the container content; the bottom ones sit
	// behind the scroll affordance rather than being dropped.
	dv.Scrollable().Activate()
	for !dv.Scrollable().AtBottom() {
		dv.Scrollable().ScrollDown()
	}
	if view := dv.View(); !strings.Contains(view, "row 30") {
		t.Errorf("uncapped view should reach the last row:\n%s", view)
	}
}

func TestSetDiffResetsShowAll(t *testing.T) {
	raw := []string{"@@ -1,0 +1,30 @@"}
	for i := 1; i <= 30; i++ {
		raw = append(raw, fmt.Sprintf("+row %d", i))
	}

	dv := newTestDiffViewer(10)
	dv.SetDiff("Data", raw)
	dv.ShowAll()
	dv.SetDiff("Data", raw)

	if !dv.Capped() {
		t.Error("loading a new diff should restore the display cap")
	}
}

func TestSetParsedLines(t *testing.T) {
	lines := []diff.Line{
		{Kind: diff.KindAdded, Text: "X\t9", NewLine: 1},
		{Kind: diff.KindAdded, Text: "Y\t8", NewLine: 2},
	}

	dv := newTestDiffViewer(0)
	dv.SetParsed("Restored", lines)

	if dv.Additions() != 2 || dv.Deletions() != 0 {
		t.Errorf("counts = +%d -%d, want +2 -0", dv.Additions(), dv.Deletions())
	}
	if view := dv.View(); !strings.Contains(view, "+X\t9") {
		t.Errorf("parsed rows not rendered:\n%s", view)
	}
}
