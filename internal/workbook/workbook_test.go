// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package workbook

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kilolonion/excelmanus/internal/diff"
)

// writeTestWorkbook creates an xlsx file with the given Sheet1 cells.
func writeTestWorkbook(t *testing.T, path string, cells map[string]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("SetCellValue(%s): %v", cell, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func TestTakeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{
		"A1": "Item", "B1": "Qty",
		"A2": "Widgets", "B2": 10,
	})

	snap, err := Take(path, 0)
	if err != nil {
		t.Fatalf("Take failed: %v", err)
	}
	if len(snap.Sheets) != 1 || snap.Sheets[0].Name != "Sheet1" {
		t.Fatalf("unexpected sheets: %v", snap.SheetNames())
	}

	sheet, err := snap.Sheet("Sheet1")
	if err != nil {
		t.Fatal(err)
	}
	if len(sheet.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(sheet.Rows))
	}
	if sheet.Rows[0][0] != "Item" || sheet.Rows[1][1] != "10" {
		t.Errorf("unexpected cells: %v", sheet.Rows)
	}

	text := sheet.Text()
	if !strings.Contains(text, "Widgets\t10") {
		t.Errorf("Text() = %q", text)
	}
}

func TestTakeMaxRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{
		"A1": 1, "A2": 2, "A3": 3, "A4": 4, "A5": 5,
	})

	snap, err := Take(path, 3)
	if err != nil {
		t.Fatal(err)
	}
	if got := len(snap.Sheets[0].Rows); got != 3 {
		t.Errorf("got %d rows, want 3", got)
	}
}

func TestTakeMissingFile(t *testing.T) {
	_, err := Take(filepath.Join(t.TempDir(), "nope.xlsx"), 0)
	if !errors.Is(err, ErrWorkbookNotFound) {
		t.Errorf("err = %v, want ErrWorkbookNotFound", err)
	}
}

func TestSheetNotFound(t *testing.T) {
	snap := &Snapshot{Sheets: []SheetData{{Name: "Sheet1"}}}
	if _, err := snap.Sheet("Budget"); !errors.Is(err, ErrSheetNotFound) {
		t.Errorf("err = %v, want ErrSheetNotFound", err)
	}
}

func TestCompareDetectsCellEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")

	writeTestWorkbook(t, path, map[string]any{"A1": "Total", "B1": 100})
	before, err := Take(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	writeTestWorkbook(t, path, map[string]any{"A1": "Total", "B1": 250})
	after, err := Take(path, 0)
	if err != nil {
		t.Fatal(err)
	}

	changes, err := Compare(before, after)
	if err != nil {
		t.Fatalf("Compare failed: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(changes))
	}
	c := changes[0]
	if c.Sheet != "Sheet1" || !c.Changed() {
		t.Errorf("unexpected change: %+v", c)
	}
	if c.Additions != 1 || c.Deletions != 1 {
		t.Errorf("Additions/Deletions = %d/%d, want 1/1", c.Additions, c.Deletions)
	}

	// The classified lines carry the old and new row content.
	var sawOld, sawNew bool
	for _, line := range c.Lines() {
		if line.Kind == diff.KindDeleted && strings.Contains(line.Text, "100") {
			sawOld = true
		}
		if line.Kind == diff.KindAdded && strings.Contains(line.Text, "250") {
			sawNew = true
		}
	}
	if !sawOld || !sawNew {
		t.Errorf("diff lines missing old/new content: %s", c.DiffText)
	}
}

func TestCompareIdenticalSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{"A1": "x"})

	snap, err := Take(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	changes, err := Compare(snap, snap)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Errorf("identical snapshots produced changes: %v", Summary(changes))
	}
}

func TestCompareAddedSheet(t *testing.T) {
	before := &Snapshot{Sheets: []SheetData{
		{Name: "Sheet1", Rows: [][]string{{"a"}}},
	}}
	after := &Snapshot{Sheets: []SheetData{
		{Name: "Sheet1", Rows: [][]string{{"a"}}},
		{Name: "Summary", Rows: [][]string{{"total", "9"}}},
	}}

	changes, err := Compare(before, after)
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 1 || changes[0].Sheet != "Summary" {
		t.Fatalf("unexpected changes: %v", Summary(changes))
	}
	if changes[0].Additions != 1 || changes[0].Deletions != 0 {
		t.Errorf("new sheet should be all additions: %+v", changes[0])
	}
}

func TestSummary(t *testing.T) {
	changes := []SheetChange{
		{Sheet: "Sheet1", Additions: 3, Deletions: 1},
		{Sheet: "Data", Additions: 2},
	}
	got := Summary(changes)
	want := "Sheet1 +3 -1, Data +2 -0"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
	if Summary(nil) != "no changes" {
		t.Errorf("empty Summary = %q", Summary(nil))
	}
}

func TestStat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{"A1": "x"})

	info, err := Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if len(info.SheetNames) != 1 || info.SheetNames[0] != "Sheet1" {
		t.Errorf("SheetNames = %v", info.SheetNames)
	}
	if info.SizeBytes <= 0 {
		t.Error("SizeBytes should be positive")
	}
}

func TestPreviewRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{
		"A1": "Name", "B1": "Score",
		"A2": "Ada", "B2": 99,
	})

	lines, err := PreviewRows(path, "Sheet1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0] != "1\tName\tScore" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if lines[1] != "2\tAda\t99" {
		t.Errorf("lines[1] = %q", lines[1])
	}
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{"A1": "x"})

	changes := make(chan struct{}, 8)
	w, err := NewWatcher(path, 150*time.Millisecond, func() {
		changes <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch(); err != nil {
		t.Fatalf("Watch failed: %v", err)
	}

	// A burst of writes collapses into one notification.
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("changed"), 0644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-changes:
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change notification")
	}

	select {
	case <-changes:
		t.Error("burst should debounce to a single notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherIgnoresLockFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "book.xlsx")
	writeTestWorkbook(t, path, map[string]any{"A1": "x"})

	changes := make(chan struct{}, 1)
	w, err := NewWatcher(path, 50*time.Millisecond, func() {
		changes <- struct{}{}
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := w.Watch(); err != nil {
		t.Fatal(err)
	}

	// Office-style lock file next to the workbook.
	if err := os.WriteFile(filepath.Join(dir, "~$book.xlsx"), []byte("lock"), 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Error("lock file should not trigger a notification")
	case <-time.After(300 * time.Millisecond):
	}
}
