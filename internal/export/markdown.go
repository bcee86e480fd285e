// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/kilolonion/excelmanus/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter renders a conversation as a shareable Markdown
// document: session header, one section per message, tool calls with
// their diffs in fenced blocks.
type MarkdownExporter struct {
	opts *Options
}

// NewMarkdownExporter creates a Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{opts: opts}
}

// FileExtension returns ".md".
func (e *MarkdownExporter) FileExtension() string { return ".md" }

// Export renders the conversation.
func (e *MarkdownExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	if len(conv.Messages) == 0 {
		return nil, fmt.Errorf("conversation has no messages")
	}

	var sb strings.Builder

	title := conv.Title
	if title == "" {
		title = "Conversation"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)

	if e.opts.IncludeMetadata {
		e.writeHeader(&sb, conv)
	}

	for i, msg := range conv.Messages {
		e.writeMessage(&sb, msg)
		if i < len(conv.Messages)-1 {
			sb.WriteString("---\n\n")
		}
	}

	fmt.Fprintf(&sb, "\n*Exported %s by excelmanus*\n",
		time.Now().Format("2006-01-02 15:04"))
	return []byte(sb.String()), nil
}

func (e *MarkdownExporter) writeHeader(sb *strings.Builder, conv *model.Conversation) {
	sb.WriteString("## Session\n\n")
	if conv.WorkbookPath != "" {
		fmt.Fprintf(sb, "- **Workbook**: %s\n", filepath.Base(conv.WorkbookPath))
	}
	fmt.Fprintf(sb, "- **Mode**: %s\n", conv.Mode)
	fmt.Fprintf(sb, "- **Created**: %s\n", conv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(sb, "- **Messages**: %d\n", len(conv.Messages))
	if conv.TokensUsed > 0 {
		fmt.Fprintf(sb, "- **Tokens**: %d\n", conv.TokensUsed)
	}
	sb.WriteString("\n---\n\n")
}

func (e *MarkdownExporter) writeMessage(sb *strings.Builder, msg *model.Message) {
	label := roleLabel(msg.Role)
	if e.opts.IncludeTimestamps && !msg.Timestamp.IsZero() {
		fmt.Fprintf(sb, "### %s <sub>%s</sub>\n\n", label, msg.Timestamp.Format("15:04:05"))
	} else {
		fmt.Fprintf(sb, "### %s\n\n", label)
	}

	if msg.Thinking != "" {
		sb.WriteString("<details><summary>Thinking</summary>\n\n")
		sb.WriteString(msg.Thinking)
		sb.WriteString("\n\n</details>\n\n")
	}

	if msg.Content != "" {
		sb.WriteString(msg.Content)
		sb.WriteString("\n\n")
	}

	for _, tc := range msg.ToolCalls {
		e.writeToolCall(sb, tc)
	}
}

func (e *MarkdownExporter) writeToolCall(sb *strings.Builder, tc *model.ToolCall) {
	status := "ok"
	if !tc.Succeeded() {
		status = "failed"
	}
	fmt.Fprintf(sb, "**%s** (%s)", tc.Name, status)
	if tc.Args != "" {
		fmt.Fprintf(sb, " — `%s`", tc.Args)
	}
	sb.WriteString("\n\n")

	if tc.Error != "" {
		fmt.Fprintf(sb, "> %s\n\n", tc.Error)
	}
	if len(tc.DiffLines) > 0 {
		sb.WriteString("```diff\n")
		for _, line := range tc.DiffLines {
			sb.WriteString(line)
			sb.WriteString("\n")
		}
		sb.WriteString("```\n\n")
	} else if tc.Result != "" {
		sb.WriteString("```\n")
		sb.WriteString(tc.Result)
		sb.WriteString("\n```\n\n")
	}
}

func roleLabel(role model.Role) string {
	switch role {
	case model.RoleUser:
		return "You"
	case model.RoleAssistant:
		return "Manus"
	case model.RoleSystem:
		return "System"
	default:
		return string(role)
	}
}
