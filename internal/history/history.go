// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/kilolonion/excelmanus/internal/diff"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrEditNotFound  = errors.New("edit not found")
	ErrDatabaseError = errors.New("database error")
)

// =============================================================================
// EDIT RECORD
// =============================================================================

// Edit is one applied workbook modification.
type Edit struct {
	ID             int64
	ConversationID string
	ToolCallID     string
	WorkbookPath   string
	Sheet          string
	CellRange      string
	ToolName       string
	Summary        string
	Additions      int
	Deletions      int
	DiffText       string
	AppliedAt      time.Time
}

// =============================================================================
// HISTORY LOG
// =============================================================================

// Log records workbook edits in a SQLite database.
type Log struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	// SQLite handles one writer at a time; serialize through a single
	// connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	l := &Log{db: db}
	if err := l.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

func (l *Log) initSchema() error {
	if _, err := l.db.Exec(Schema); err != nil {
		return fmt.Errorf("%w: failed to create schema: %v", ErrDatabaseError, err)
	}
	if _, err := l.db.Exec(InitMetadata); err != nil {
		return fmt.Errorf("%w: failed to init metadata: %v", ErrDatabaseError, err)
	}
	return nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.db.Close()
}

// =============================================================================
// RECORD
// =============================================================================

// Record appends an edit to the log and returns its assigned ID.
// Additions and deletions are derived from DiffText when unset.
func (l *Log) Record(ctx context.Context, e *Edit) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e.AppliedAt.IsZero() {
		e.AppliedAt = time.Now()
	}
	if e.Additions == 0 && e.Deletions == 0 && e.DiffText != "" {
		e.Additions, e.Deletions = diff.CountChanges(diff.ParseUnified(e.DiffText))
	}
	if e.Summary == "" {
		e.Summary = fmt.Sprintf("+%d -%d", e.Additions, e.Deletions)
	}

	res, err := l.db.ExecContext(ctx, `
		INSERT INTO edits (conversation_id, tool_call_id, workbook_path, sheet,
			cell_range, tool_name, summary, additions, deletions, diff_text, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ConversationID, e.ToolCallID, e.WorkbookPath, e.Sheet,
		e.CellRange, e.ToolName, e.Summary, e.Additions, e.Deletions,
		e.DiffText, e.AppliedAt.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	e.ID = id
	return id, nil
}

// =============================================================================
// QUERIES
// =============================================================================

// Get retrieves one edit by ID.
func (l *Log) Get(ctx context.Context, id int64) (*Edit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := l.db.QueryRowContext(ctx, `
		SELECT id, conversation_id, tool_call_id, workbook_path, sheet,
			cell_range, tool_name, summary, additions, deletions, diff_text, applied_at
		FROM edits WHERE id = ?`, id)

	e, err := scanEdit(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEditNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return e, nil
}

// ForWorkbook returns edits for a workbook, most recent first.
// limit <= 0 means no limit.
func (l *Log) ForWorkbook(ctx context.Context, path string, limit int) ([]*Edit, error) {
	return l.query(ctx, `workbook_path = ?`, path, limit)
}

// ForConversation returns edits made during a conversation, most recent first.
func (l *Log) ForConversation(ctx context.Context, conversationID string, limit int) ([]*Edit, error) {
	return l.query(ctx, `conversation_id = ?`, conversationID, limit)
}

func (l *Log) query(ctx context.Context, where string, arg any, limit int) ([]*Edit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := `
		SELECT id, conversation_id, tool_call_id, workbook_path, sheet,
			cell_range, tool_name, summary, additions, deletions, diff_text, applied_at
		FROM edits WHERE ` + where + ` ORDER BY applied_at DESC, id DESC`
	args := []any{arg}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	var edits []*Edit
	for rows.Next() {
		e, err := scanEdit(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
		}
		edits = append(edits, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return edits, nil
}

// Totals returns cumulative additions and deletions for a workbook.
func (l *Log) Totals(ctx context.Context, path string) (additions, deletions int, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	row := l.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(additions), 0), COALESCE(SUM(deletions), 0)
		FROM edits WHERE workbook_path = ?`, path)
	if err := row.Scan(&additions, &deletions); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return additions, deletions, nil
}

// Prune deletes edits older than the cutoff. Returns rows removed.
func (l *Log) Prune(ctx context.Context, before time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	res, err := l.db.ExecContext(ctx, `DELETE FROM edits WHERE applied_at < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDatabaseError, err)
	}
	return n, nil
}

// =============================================================================
// SCANNING
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEdit(row rowScanner) (*Edit, error) {
	var (
		e         Edit
		appliedAt int64
		toolCall  sql.NullString
		sheet     sql.NullString
		cellRange sql.NullString
		summary   sql.NullString
		diffText  sql.NullString
	)
	err := row.Scan(&e.ID, &e.ConversationID, &toolCall, &e.WorkbookPath,
		&sheet, &cellRange, &e.ToolName, &summary, &e.Additions,
		&e.Deletions, &diffText, &appliedAt)
	if err != nil {
		return nil, err
	}
	e.ToolCallID = toolCall.String
	e.Sheet = sheet.String
	e.CellRange = cellRange.String
	e.Summary = summary.String
	e.DiffText = diffText.String
	e.AppliedAt = time.Unix(appliedAt, 0)
	return &e, nil
}
