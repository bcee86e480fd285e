// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files. Markdown is
// the shareable format; JSON is the lossless one.
package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/util"
)

// =============================================================================
// EXPORTER INTERFACE
// =============================================================================

// Exporter renders a conversation in one output format.
type Exporter interface {
	Export(conv *model.Conversation) ([]byte, error)
	FileExtension() string
}

// Options configures export output.
type Options struct {
	// OutputDir is where files are written. Default: current directory.
	OutputDir string

	// IncludeMetadata adds the session header (workbook, mode, tokens).
	IncludeMetadata bool

	// IncludeTimestamps adds per-message timestamps.
	IncludeTimestamps bool
}

// DefaultOptions returns the defaults used by the /export command.
func DefaultOptions() *Options {
	return &Options{
		OutputDir:         ".",
		IncludeMetadata:   true,
		IncludeTimestamps: true,
	}
}

// ForFormat returns the exporter for a format name ("markdown", "md",
// "json"), or an error for anything else.
func ForFormat(format string, opts *Options) (Exporter, error) {
	switch format {
	case "markdown", "md", "":
		return NewMarkdownExporter(opts), nil
	case "json":
		return NewJSONExporter(), nil
	default:
		return nil, fmt.Errorf("unknown export format %q (want markdown or json)", format)
	}
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// ToFile renders conv with the exporter and writes it under
// opts.OutputDir. Returns the path of the written file.
func ToFile(conv *model.Conversation, exporter Exporter, opts *Options) (string, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	content, err := exporter.Export(conv)
	if err != nil {
		return "", fmt.Errorf("export: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	name := fmt.Sprintf("%s_%s%s", sanitizeFilename(conv.Title), stamp, exporter.FileExtension())
	path := filepath.Join(opts.OutputDir, name)

	// RELIABILITY: atomic write, a crash never leaves a half transcript.
	if err := util.AtomicWriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("write transcript: %w", err)
	}
	return path, nil
}

// sanitizeFilename maps a conversation title to a safe file stem.
func sanitizeFilename(s string) string {
	const maxLen = 50
	runes := []rune(s)
	if len(runes) > maxLen {
		runes = runes[:maxLen]
	}

	out := make([]rune, 0, len(runes))
	for _, r := range runes {
		switch {
		case r == '/' || r == '\\' || r == ':' || r == '*' || r == '?' ||
			r == '"' || r == '<' || r == '>' || r == '|':
			out = append(out, '-')
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = append(out, '_')
		case r < 32 || r == 127:
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		return "conversation"
	}
	return string(out)
}
