// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package workbook provides spreadsheet snapshots, previews, and change
// detection for excelmanus.
package workbook

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrWorkbookNotFound = errors.New("workbook not found")
	ErrSheetNotFound    = errors.New("sheet not found")
)

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a point-in-time capture of a workbook's cell contents,
// used to diff the file before and after a tool edit.
type Snapshot struct {
	Path    string
	TakenAt time.Time
	Sheets  []SheetData
}

// SheetData holds one sheet's rows as formatted cell values.
type SheetData struct {
	Name string
	Rows [][]string
}

// Take captures a snapshot of the workbook at path. maxRows caps the
// rows read per sheet (0 = unlimited); huge sheets would otherwise make
// every diff pass unusable.
func Take(path string, maxRows int) (*Snapshot, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	snap := &Snapshot{
		Path:    path,
		TakenAt: time.Now(),
	}

	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		if maxRows > 0 && len(rows) > maxRows {
			rows = rows[:maxRows]
		}
		snap.Sheets = append(snap.Sheets, SheetData{Name: name, Rows: rows})
	}

	return snap, nil
}

// Sheet returns the named sheet's data.
func (s *Snapshot) Sheet(name string) (*SheetData, error) {
	for i := range s.Sheets {
		if s.Sheets[i].Name == name {
			return &s.Sheets[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, name)
}

// SheetNames lists the sheets in capture order.
func (s *Snapshot) SheetNames() []string {
	names := make([]string, len(s.Sheets))
	for i, sheet := range s.Sheets {
		names[i] = sheet.Name
	}
	return names
}

// Text renders a sheet as one line per row with cells joined by tabs.
// This is the canonical form both the differ and the preview consume,
// so line numbers in a diff map 1:1 to spreadsheet rows.
func (d *SheetData) Text() string {
	var sb strings.Builder
	for _, row := range d.Rows {
		sb.WriteString(strings.Join(row, "\t"))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// =============================================================================
// WORKBOOK INFO
// =============================================================================

// Info summarizes a workbook for the status bar.
type Info struct {
	Path        string
	SheetNames  []string
	ActiveSheet string
	ModTime     time.Time
	SizeBytes   int64
}

// Stat reads workbook metadata without loading cell contents.
func Stat(path string) (*Info, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrWorkbookNotFound, path)
		}
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	info := &Info{
		Path:       path,
		SheetNames: f.GetSheetList(),
		ModTime:    fi.ModTime(),
		SizeBytes:  fi.Size(),
	}
	if idx := f.GetActiveSheetIndex(); idx >= 0 && idx < len(info.SheetNames) {
		info.ActiveSheet = info.SheetNames[idx]
	}
	return info, nil
}

// =============================================================================
// PREVIEW
// =============================================================================

// PreviewRows returns up to maxRows rows of a sheet with A1-style row
// labels, for the text preview widget.
func PreviewRows(path, sheet string, maxRows int) ([]string, error) {
	snap, err := Take(path, maxRows)
	if err != nil {
		return nil, err
	}
	data, err := snap.Sheet(sheet)
	if err != nil {
		return nil, err
	}

	lines := make([]string, 0, len(data.Rows))
	for i, row := range data.Rows {
		lines = append(lines, fmt.Sprintf("%d\t%s", i+1, strings.Join(row, "\t")))
	}
	return lines, nil
}
