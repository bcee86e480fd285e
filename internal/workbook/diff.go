// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package workbook

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/kilolonion/excelmanus/internal/diff"
)

// =============================================================================
// SNAPSHOT DIFFING
// =============================================================================

// contextRows is how many unchanged rows frame each change in a diff.
const contextRows = 3

// SheetChange is the unified diff of one sheet between two snapshots.
type SheetChange struct {
	Sheet     string
	DiffText  string
	Additions int
	Deletions int
}

// Changed reports whether the sheet actually differs.
func (c *SheetChange) Changed() bool {
	return c.DiffText != ""
}

// Lines parses the diff text into classified viewer lines.
func (c *SheetChange) Lines() []diff.Line {
	return diff.ParseUnified(c.DiffText)
}

// Compare diffs two snapshots of the same workbook, sheet by sheet.
// Sheets present in only one snapshot diff against empty content, so an
// added or deleted sheet shows as all-added or all-deleted rows.
func Compare(before, after *Snapshot) ([]SheetChange, error) {
	seen := make(map[string]bool)
	var changes []SheetChange

	appendChange := func(name, oldText, newText string) error {
		text, err := unifiedDiff(name, oldText, newText)
		if err != nil {
			return err
		}
		if text == "" {
			return nil
		}
		adds, dels := diff.CountChanges(diff.ParseUnified(text))
		changes = append(changes, SheetChange{
			Sheet:     name,
			DiffText:  text,
			Additions: adds,
			Deletions: dels,
		})
		return nil
	}

	for _, sheet := range before.Sheets {
		seen[sheet.Name] = true
		newText := ""
		if data, err := after.Sheet(sheet.Name); err == nil {
			newText = data.Text()
		}
		if err := appendChange(sheet.Name, sheet.Text(), newText); err != nil {
			return nil, err
		}
	}
	for _, sheet := range after.Sheets {
		if seen[sheet.Name] {
			continue
		}
		if err := appendChange(sheet.Name, "", sheet.Text()); err != nil {
			return nil, err
		}
	}

	return changes, nil
}

// unifiedDiff produces a unified diff between two sheet renderings.
func unifiedDiff(sheet, oldText, newText string) (string, error) {
	if oldText == newText {
		return "", nil
	}
	ud := difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldText),
		B:        difflib.SplitLines(newText),
		FromFile: sheet + " (before)",
		ToFile:   sheet + " (after)",
		Context:  contextRows,
	}
	text, err := difflib.GetUnifiedDiffString(ud)
	if err != nil {
		return "", fmt.Errorf("failed to diff sheet %q: %w", sheet, err)
	}
	return text, nil
}

// Summary renders a one-line change summary across all sheets,
// e.g. "Sheet1 +3 -1, Sheet2 +2 -0".
func Summary(changes []SheetChange) string {
	if len(changes) == 0 {
		return "no changes"
	}
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%s +%d -%d", c.Sheet, c.Additions, c.Deletions)
	}
	return strings.Join(parts, ", ")
}
