// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/kilolonion/excelmanus/internal/config"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/storage"
	"github.com/kilolonion/excelmanus/internal/ui/chat"
	"github.com/kilolonion/excelmanus/internal/workbook"
)

// =============================================================================
// LINE EDITOR
// =============================================================================

// lineEditor wraps liner with persistent history under the config dir.
type lineEditor struct {
	line        *liner.State
	historyFile string
}

func newLineEditor() *lineEditor {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	ed := &lineEditor{
		line:        line,
		historyFile: filepath.Join(dir, "chat_history"),
	}
	if f, err := os.Open(ed.historyFile); err == nil {
		ed.line.ReadHistory(f)
		f.Close()
	}
	return ed
}

func (ed *lineEditor) read(prompt string) (string, error) {
	input, err := ed.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		ed.line.AppendHistory(input)
	}
	return input, nil
}

func (ed *lineEditor) close() {
	if dir := filepath.Dir(ed.historyFile); dir != "" {
		os.MkdirAll(dir, 0o755)
	}
	if f, err := os.OpenFile(ed.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600); err == nil {
		ed.line.WriteHistory(f)
		f.Close()
	}
	ed.line.Close()
}

// =============================================================================
// REPL
// =============================================================================

// REPL is the plain-terminal chat loop.
type REPL struct {
	cfg     *config.Config
	backend chat.Backend
	store   *storage.ConversationStore
	out     io.Writer

	conversation *model.Conversation
	workbookPath string
}

// NewREPL creates a plain-mode chat session.
func NewREPL(cfg *config.Config, backend chat.Backend, store *storage.ConversationStore) *REPL {
	return &REPL{
		cfg:          cfg,
		backend:      backend,
		store:        store,
		out:          os.Stdout,
		conversation: model.NewConversation(),
	}
}

// Run drives the read-eval loop until /quit, Ctrl-C or EOF.
func (r *REPL) Run(ctx context.Context) error {
	ed := newLineEditor()
	defer ed.close()

	fmt.Fprintln(r.out, "ExcelManus (plain mode). /help for commands, /quit to exit.")

	for {
		input, err := ed.read("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				break
			}
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		if strings.HasPrefix(input, "/") {
			if done := r.runCommand(input); done {
				break
			}
			continue
		}
		if err := r.ask(ctx, input); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	}

	return r.save()
}

// ask sends one prompt and prints the streamed response.
func (r *REPL) ask(ctx context.Context, prompt string) error {
	r.conversation.AddUserMessage(prompt)
	r.conversation.AddAssistantMessage()

	events, err := r.backend.Stream(ctx, r.conversation)
	if err != nil {
		r.conversation.FinalizeLast(nil)
		return err
	}

	var streamErr error
	for ev := range events {
		switch ev := ev.(type) {
		case chat.TokenEvent:
			fmt.Fprint(r.out, ev.Text)
			r.conversation.AppendToLast(ev.Text)
		case chat.ToolStartEvent:
			fmt.Fprintf(r.out, "[%s …]\n", ev.Call.Name)
		case chat.ToolDoneEvent:
			r.printToolResult(ev.Call)
		case chat.ErrorEvent:
			streamErr = ev.Err
		}
		// Thinking events are dropped in plain mode.
	}
	fmt.Fprintln(r.out)

	r.conversation.FinalizeLast(nil)
	return streamErr
}

// printToolResult prints one finished call, including its diff.
func (r *REPL) printToolResult(call model.ToolCall) {
	status := "ok"
	if !call.Succeeded() {
		status = "failed: " + call.Error
	}
	fmt.Fprintf(r.out, "[%s %s]\n", call.Name, status)
	for _, line := range call.DiffLines {
		fmt.Fprintln(r.out, "  "+line)
	}
}

// runCommand handles the plain-mode command subset. Returns true when
// the loop should exit.
func (r *REPL) runCommand(input string) bool {
	fields := strings.Fields(input)
	switch strings.TrimPrefix(fields[0], "/") {
	case "quit", "exit":
		return true
	case "help":
		fmt.Fprintln(r.out, "/open <file.xlsx>   open a workbook")
		fmt.Fprintln(r.out, "/sheets             list sheets")
		fmt.Fprintln(r.out, "/mode [agent|ask]   switch mode")
		fmt.Fprintln(r.out, "/quit               save and exit")
	case "open":
		if len(fields) < 2 {
			fmt.Fprintln(r.out, "usage: /open <file.xlsx>")
			return false
		}
		if err := r.openWorkbook(fields[1]); err != nil {
			fmt.Fprintf(r.out, "error: %v\n", err)
		}
	case "sheets":
		r.printSheets()
	case "mode":
		if len(fields) < 2 {
			fmt.Fprintf(r.out, "mode: %s\n", r.conversation.Mode)
			return false
		}
		mode := model.EditMode(fields[1])
		if !mode.Valid() {
			fmt.Fprintf(r.out, "unknown mode %q\n", fields[1])
			return false
		}
		r.conversation.SetMode(mode)
	default:
		fmt.Fprintf(r.out, "unknown command: %s\n", fields[0])
	}
	return false
}

// Open attaches a workbook before the prompt loop starts.
func (r *REPL) Open(path string) error {
	return r.openWorkbook(path)
}

func (r *REPL) openWorkbook(path string) error {
	info, err := workbook.Stat(path)
	if err != nil {
		return err
	}
	r.workbookPath = path
	r.conversation.WorkbookPath = path
	fmt.Fprintf(r.out, "opened %s (%d sheets)\n", filepath.Base(path), len(info.SheetNames))
	return nil
}

func (r *REPL) printSheets() {
	if r.workbookPath == "" {
		fmt.Fprintln(r.out, "no workbook open")
		return
	}
	info, err := workbook.Stat(r.workbookPath)
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	for _, name := range info.SheetNames {
		fmt.Fprintln(r.out, name)
	}
}

func (r *REPL) save() error {
	if r.store == nil || r.conversation.IsEmpty() {
		return nil
	}
	_, err := r.store.Save(storage.FromModel(r.conversation))
	return err
}
