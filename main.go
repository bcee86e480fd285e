// ExcelManus - an AI spreadsheet-editing assistant in the terminal.
//
// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/agent"
	"github.com/kilolonion/excelmanus/internal/cli"
	"github.com/kilolonion/excelmanus/internal/config"
	"github.com/kilolonion/excelmanus/internal/history"
	"github.com/kilolonion/excelmanus/internal/session"
	"github.com/kilolonion/excelmanus/internal/storage"
	"github.com/kilolonion/excelmanus/internal/ui/chat"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
	"github.com/kilolonion/excelmanus/internal/workbook"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	var (
		workbookPath string
		agentCmd     string
		plainMode    bool
		showVersion  bool
	)
	flag.StringVar(&workbookPath, "workbook", "", "open this .xlsx workbook at startup")
	flag.StringVar(&agentCmd, "agent", "", "agent command (default $EXCELMANUS_AGENT)")
	flag.BoolVar(&plainMode, "plain", false, "force the plain-terminal REPL")
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("excelmanus %s (%s, %s)\n", Version, GitCommit, BuildDate)
		return
	}

	// A bare path argument also opens a workbook.
	if workbookPath == "" && flag.NArg() > 0 {
		workbookPath = flag.Arg(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	if agentCmd == "" {
		agentCmd = os.Getenv("EXCELMANUS_AGENT")
	}
	if agentCmd == "" {
		fmt.Fprintln(os.Stderr, "no agent configured: pass -agent or set EXCELMANUS_AGENT")
		os.Exit(1)
	}
	backend := agent.NewSubprocess("sh", "-c", agentCmd)

	convDir, err := cfg.ConversationDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewConversationStoreWithDir(convDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "storage: %v\n", err)
		os.Exit(1)
	}
	if cfg.Storage.MaxConversations > 0 {
		store.MaxConversations = cfg.Storage.MaxConversations
	}

	historyPath, err := cfg.HistoryDBPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
	edits, err := history.Open(historyPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "history: %v\n", err)
		os.Exit(1)
	}
	defer edits.Close()

	if plainMode || !cli.IsInteractive() {
		runPlain(cfg, backend, store, workbookPath)
		return
	}
	runTUI(cfg, backend, store, edits, workbookPath)
}

// runPlain drives the line-editor fallback.
func runPlain(cfg *config.Config, backend chat.Backend, store *storage.ConversationStore, workbookPath string) {
	repl := cli.NewREPL(cfg, backend, store)
	if workbookPath != "" {
		if err := repl.Open(workbookPath); err != nil {
			fmt.Fprintf(os.Stderr, "workbook: %v\n", err)
		}
	}
	if err := repl.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// runTUI starts the full-screen chat interface.
func runTUI(cfg *config.Config, backend chat.Backend, store *storage.ConversationStore, edits *history.Log, workbookPath string) {
	// DEBUGGING: the TUI owns stdout, so debug logs go to a file.
	if cfg.Log.Enabled {
		logPath := cfg.Log.Path
		if logPath == "" {
			logPath = "excelmanus.log"
		}
		f, err := tea.LogToFile(logPath, "excelmanus")
		if err == nil {
			defer f.Close()
		}
	}

	sess := session.NewManager(session.DefaultConfig())

	m := chat.New(chat.Options{
		Config:       cfg,
		Theme:        styles.NewTheme(cfg.UI.Theme),
		Backend:      backend,
		Store:        store,
		Edits:        edits,
		Session:      sess,
		WorkbookPath: workbookPath,
	})

	opts := []tea.ProgramOption{tea.WithMouseCellMotion()}
	if cfg.UI.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(m, opts...)

	// Out-of-band workbook edits refresh the preview.
	var watcher *workbook.Watcher
	if workbookPath != "" {
		debounce := time.Duration(cfg.Workbook.WatchDebounceMs) * time.Millisecond
		w, err := workbook.NewWatcher(workbookPath, debounce, func() {
			p.Send(chat.WorkbookChangedMsg{Path: workbookPath})
		})
		if err == nil && w.Watch() == nil {
			watcher = w
		}
	}
	if watcher != nil {
		defer watcher.Close()
	}

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
