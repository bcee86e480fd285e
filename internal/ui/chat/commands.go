// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/export"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/storage"
	"github.com/kilolonion/excelmanus/internal/ui/components"
	"github.com/kilolonion/excelmanus/internal/util"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// runCommand executes a /command line. Output lands in the transcript
// as a system message; unknown commands surface in the status line.
func (m *Model) runCommand(line string) tea.Cmd {
	fields := strings.Fields(line)
	name := strings.TrimPrefix(fields[0], "/")
	args := fields[1:]

	var out string
	var err error

	switch name {
	case "help":
		out = m.cmdHelp()
	case "mode":
		out, err = m.cmdMode(args)
	case "open":
		out, err = m.cmdOpen(args)
	case "sheets":
		out, err = m.cmdSheets()
	case "preview":
		out, err = m.cmdPreview(args)
	case "history":
		out, err = m.cmdHistory(args)
	case "conversations":
		out, err = m.cmdConversations()
	case "load":
		out, err = m.cmdLoad(args)
	case "save":
		out, err = m.cmdSave()
	case "export":
		out, err = m.cmdExport(args)
	case "clear":
		out = m.cmdClear()
	case "quit":
		m.quitting = true
		if saveErr := m.saveConversation(); saveErr != nil {
			m.lastError = saveErr.Error()
		}
		return tea.Quit
	default:
		m.statusMsg = "unknown command: /" + name
		return clearStatusCmd()
	}

	if err != nil {
		m.lastError = err.Error()
	} else if out != "" {
		m.conversation.AddSystemMessage(out)
	}
	m.refreshTranscript()
	return nil
}

func (m *Model) cmdHelp() string {
	return strings.Join([]string{
		"/mode [agent|ask]      switch editing mode",
		"/open <file.xlsx>      open a workbook",
		"/sheets                list sheets in the open workbook",
		"/preview [sheet]       preview a sheet",
		"/history [n]           recent edits to the open workbook",
		"/conversations         list saved conversations",
		"/load <n|id>           load a saved conversation",
		"/save                  save the conversation now",
		"/export [md|json]      write the transcript to a file",
		"/clear                 clear the transcript",
		"/quit                  save and exit",
	}, "\n")
}

func (m *Model) cmdMode(args []string) (string, error) {
	if len(args) == 0 {
		return "mode: " + string(m.tabs.Mode()), nil
	}
	mode := model.EditMode(args[0])
	if !mode.Valid() {
		return "", fmt.Errorf("unknown mode %q (agent or ask)", args[0])
	}
	m.tabs.SetMode(mode)
	m.conversation.SetMode(mode)
	return "mode: " + string(mode), nil
}

func (m *Model) cmdOpen(args []string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /open <file.xlsx>")
	}
	path := args[0]
	if err := m.openWorkbook(path); err != nil {
		return "", err
	}
	return "opened " + filepath.Base(path), nil
}

func (m *Model) cmdSheets() (string, error) {
	if m.workbookInfo == nil {
		return "", fmt.Errorf("no workbook open")
	}
	var sb strings.Builder
	sb.WriteString("sheets:")
	for _, name := range m.workbookInfo.SheetNames {
		sb.WriteString("\n  ")
		sb.WriteString(name)
		if name == m.workbookInfo.ActiveSheet {
			sb.WriteString(" (active)")
		}
	}
	return sb.String(), nil
}

func (m *Model) cmdPreview(args []string) (string, error) {
	if m.workbookInfo == nil {
		return "", fmt.Errorf("no workbook open")
	}
	if len(args) > 0 {
		// Sheet names can contain spaces, and match case-insensitively.
		want := strings.Join(args, " ")
		canonical := ""
		for _, name := range m.workbookInfo.SheetNames {
			if strings.EqualFold(name, want) {
				canonical = name
				break
			}
		}
		if canonical == "" {
			if hint := util.ClosestMatch(want, m.workbookInfo.SheetNames); hint != "" {
				return "", fmt.Errorf("no sheet named %q (did you mean %q?)", want, hint)
			}
			return "", fmt.Errorf("no sheet named %q", want)
		}
		m.workbookInfo.ActiveSheet = canonical
	}
	if err := m.refreshPreview(); err != nil {
		return "", err
	}
	m.showPreview = true
	return "", nil
}

func (m *Model) cmdHistory(args []string) (string, error) {
	if m.edits == nil {
		return "", fmt.Errorf("edit history unavailable")
	}
	if m.workbookPath == "" {
		return "", fmt.Errorf("no workbook open")
	}

	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return "", fmt.Errorf("usage: /history [n]")
		}
		limit = n
	}

	edits, err := m.edits.ForWorkbook(context.Background(), m.workbookPath, limit)
	if err != nil {
		return "", err
	}
	if len(edits) == 0 {
		return "no recorded edits", nil
	}

	var sb strings.Builder
	sb.WriteString("recent edits:")
	for _, e := range edits {
		sb.WriteString(fmt.Sprintf("\n  %s  %s  %s",
			e.AppliedAt.Format("Jan 02 15:04"), e.ToolName, e.Summary))
	}
	return sb.String(), nil
}

func (m *Model) cmdConversations() (string, error) {
	if m.store == nil {
		return "", fmt.Errorf("conversation storage unavailable")
	}
	metas, err := m.store.List()
	if err != nil {
		return "", err
	}
	if len(metas) == 0 {
		return "no saved conversations", nil
	}

	var sb strings.Builder
	sb.WriteString("conversations:")
	for i, meta := range metas {
		sb.WriteString(fmt.Sprintf("\n  %d. %s (%d messages)",
			i+1, meta.Title, meta.MessageCount))
	}
	return sb.String(), nil
}

func (m *Model) cmdLoad(args []string) (string, error) {
	if m.store == nil {
		return "", fmt.Errorf("conversation storage unavailable")
	}
	if len(args) == 0 {
		return "", fmt.Errorf("usage: /load <n|id>")
	}

	var err error
	var stored *storage.StoredConversation
	if n, convErr := strconv.Atoi(args[0]); convErr == nil {
		// /conversations numbers entries from 1
		stored, err = m.store.LoadByIndex(n - 1)
	} else {
		stored, err = m.store.Load(args[0])
	}
	if err != nil {
		return "", err
	}

	m.conversation = stored.ToModel()
	m.tabs.SetMode(m.conversation.Mode)
	if m.session != nil {
		m.session.BindConversation(m.conversation.ID)
	}
	if m.conversation.WorkbookPath != "" {
		if wbErr := m.openWorkbook(m.conversation.WorkbookPath); wbErr != nil {
			m.lastError = wbErr.Error()
		}
	}
	return fmt.Sprintf("loaded %q", m.conversation.Title), nil
}

func (m *Model) cmdSave() (string, error) {
	if err := m.saveConversation(); err != nil {
		return "", err
	}
	return "conversation saved", nil
}

func (m *Model) cmdExport(args []string) (string, error) {
	format := ""
	if len(args) > 0 {
		format = args[0]
	}
	opts := export.DefaultOptions()
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return "", err
	}
	path, err := export.ToFile(m.conversation, exporter, opts)
	if err != nil {
		return "", err
	}
	return "exported to " + path, nil
}

func (m *Model) cmdClear() string {
	m.conversation.ClearHistory()
	m.cards = make(map[string]*components.ToolCard)
	m.cardOrder = nil
	return "transcript cleared"
}
