// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package history provides a persistent log of workbook edits.
package history

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the workbook edit history
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Edits table: one row per applied workbook edit
CREATE TABLE IF NOT EXISTS edits (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    conversation_id TEXT NOT NULL,
    tool_call_id TEXT,
    workbook_path TEXT NOT NULL,
    sheet TEXT,
    cell_range TEXT,            -- A1-style range, e.g. "B2:D10"
    tool_name TEXT NOT NULL,
    summary TEXT,               -- e.g. "+3 -1"
    additions INTEGER NOT NULL DEFAULT 0,
    deletions INTEGER NOT NULL DEFAULT 0,
    diff_text TEXT,             -- full unified diff, for replay in the viewer
    applied_at INTEGER NOT NULL -- Unix timestamp
);

CREATE INDEX IF NOT EXISTS idx_edits_conversation ON edits(conversation_id);
CREATE INDEX IF NOT EXISTS idx_edits_workbook ON edits(workbook_path);
CREATE INDEX IF NOT EXISTS idx_edits_applied_at ON edits(applied_at);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
