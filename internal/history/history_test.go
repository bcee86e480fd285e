// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndGet(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	edit := &Edit{
		ConversationID: "conv_1",
		ToolCallID:     "call_1",
		WorkbookPath:   "/data/report.xlsx",
		Sheet:          "Sheet1",
		CellRange:      "B2:B4",
		ToolName:       "write_range",
		DiffText:       "@@ -2,3 +2,3 @@\n-B2: 10\n+B2: 12\n B3: 20\n B4: 30\n",
	}

	id, err := l.Record(ctx, edit)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if id == 0 {
		t.Error("expected nonzero ID")
	}

	got, err := l.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Sheet != "Sheet1" || got.CellRange != "B2:B4" {
		t.Errorf("unexpected edit: %+v", got)
	}
	// Counts derived from the diff text.
	if got.Additions != 1 || got.Deletions != 1 {
		t.Errorf("Additions/Deletions = %d/%d, want 1/1", got.Additions, got.Deletions)
	}
	if got.Summary != "+1 -1" {
		t.Errorf("Summary = %q, want +1 -1", got.Summary)
	}
	if got.AppliedAt.IsZero() {
		t.Error("AppliedAt should be set")
	}
}

func TestGetNotFound(t *testing.T) {
	l := openTestLog(t)
	_, err := l.Get(context.Background(), 999)
	if !errors.Is(err, ErrEditNotFound) {
		t.Errorf("err = %v, want ErrEditNotFound", err)
	}
}

func TestForWorkbookOrdering(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := l.Record(ctx, &Edit{
			ConversationID: "conv_1",
			WorkbookPath:   "/data/report.xlsx",
			ToolName:       "write_range",
			Summary:        "edit",
			AppliedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := l.Record(ctx, &Edit{
		ConversationID: "conv_2",
		WorkbookPath:   "/data/other.xlsx",
		ToolName:       "write_range",
		Summary:        "edit",
	}); err != nil {
		t.Fatal(err)
	}

	edits, err := l.ForWorkbook(ctx, "/data/report.xlsx", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(edits) != 3 {
		t.Fatalf("got %d edits, want 3", len(edits))
	}
	// Most recent first.
	if !edits[0].AppliedAt.After(edits[2].AppliedAt) {
		t.Error("edits should be ordered most recent first")
	}

	limited, err := l.ForWorkbook(ctx, "/data/report.xlsx", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 {
		t.Errorf("limit 2 returned %d edits", len(limited))
	}
}

func TestForConversation(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for _, conv := range []string{"conv_a", "conv_a", "conv_b"} {
		if _, err := l.Record(ctx, &Edit{
			ConversationID: conv,
			WorkbookPath:   "/data/report.xlsx",
			ToolName:       "format_cells",
			Summary:        "edit",
		}); err != nil {
			t.Fatal(err)
		}
	}

	edits, err := l.ForConversation(ctx, "conv_a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(edits) != 2 {
		t.Errorf("got %d edits for conv_a, want 2", len(edits))
	}
}

func TestTotals(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for _, e := range []*Edit{
		{ConversationID: "c", WorkbookPath: "/wb.xlsx", ToolName: "t", Additions: 3, Deletions: 1, Summary: "s"},
		{ConversationID: "c", WorkbookPath: "/wb.xlsx", ToolName: "t", Additions: 2, Deletions: 4, Summary: "s"},
	} {
		if _, err := l.Record(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	add, del, err := l.Totals(ctx, "/wb.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	if add != 5 || del != 5 {
		t.Errorf("Totals = +%d -%d, want +5 -5", add, del)
	}
}

func TestPrune(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	old := &Edit{
		ConversationID: "c", WorkbookPath: "/wb.xlsx", ToolName: "t",
		Summary: "s", AppliedAt: time.Now().Add(-48 * time.Hour),
	}
	recent := &Edit{
		ConversationID: "c", WorkbookPath: "/wb.xlsx", ToolName: "t", Summary: "s",
	}
	if _, err := l.Record(ctx, old); err != nil {
		t.Fatal(err)
	}
	if _, err := l.Record(ctx, recent); err != nil {
		t.Fatal(err)
	}

	n, err := l.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("Prune removed %d rows, want 1", n)
	}

	remaining, err := l.ForWorkbook(ctx, "/wb.xlsx", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(remaining) != 1 {
		t.Errorf("%d edits remain, want 1", len(remaining))
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")
	ctx := context.Background()

	l, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	id, err := l.Record(ctx, &Edit{
		ConversationID: "c", WorkbookPath: "/wb.xlsx", ToolName: "t", Summary: "s",
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	if _, err := reopened.Get(ctx, id); err != nil {
		t.Errorf("edit should survive reopen: %v", err)
	}
}
