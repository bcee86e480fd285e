// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/config"
	"github.com/kilolonion/excelmanus/internal/history"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/session"
	"github.com/kilolonion/excelmanus/internal/storage"
	"github.com/kilolonion/excelmanus/internal/ui/components"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
	"github.com/kilolonion/excelmanus/internal/workbook"
)

// =============================================================================
// CHAT STATE
// =============================================================================

// State is the top-level state of the chat view.
type State int

const (
	StateReady     State = iota // Waiting for input
	StateStreaming              // Receiving a response
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat view.
type Model struct {
	state State

	theme *styles.Theme
	cfg   *config.Config

	width  int
	height int
	ready  bool

	// Conversation and streaming
	conversation *model.Conversation
	backend      Backend
	events       <-chan Event
	cancelStream context.CancelFunc
	buffer       *StreamingBuffer
	stats        *model.Statistics

	// Injected services
	session *session.Manager
	store   *storage.ConversationStore
	edits   *history.Log

	// Workbook state
	workbookPath string
	workbookInfo *workbook.Info
	snapshot     *workbook.Snapshot

	// Widgets
	viewport viewport.Model
	input    textinput.Model
	spin     spinner.Model
	messages *components.MessageList
	thinking *components.ThinkingView
	tabs     *components.ModeTabs
	preview  *components.TextPreview

	// Tool cards for the in-flight assistant message, in call order.
	cards     map[string]*components.ToolCard
	cardOrder []string
	scrollCfg components.ScrollableConfig

	// Diff of on-disk workbook changes made outside the chat.
	externalDiff *components.DiffViewer

	// Index into focusTargets(), or -1 when the input has focus.
	focus int

	keyMap      KeyMap
	showHelp    bool
	showPreview bool
	statusMsg   string
	lastError   string
	quitting    bool
}

// Options carries the injected services for New.
type Options struct {
	Config  *config.Config
	Theme   *styles.Theme
	Backend Backend
	Store   *storage.ConversationStore
	Edits   *history.Log
	Session *session.Manager

	// WorkbookPath optionally opens a workbook at startup.
	WorkbookPath string
}

// New creates the chat model.
func New(opts Options) *Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme(opts.Config.UI.Theme)
	}

	input := textinput.New()
	input.Placeholder = "Ask for an edit, or /help"
	input.Prompt = "> "
	input.CharLimit = 4000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{
		Frames: styles.BrailleSpinner.Frames,
		FPS:    styles.BrailleSpinner.Duration(),
	}
	sp.Style = theme.Spinner

	scrollCfg := components.ScrollableConfig{
		CollapsedHeight: opts.Config.UI.CollapsedRows,
		ExpandedHeight:  opts.Config.UI.ExpandedRows,
		AutoFollow:      opts.Config.UI.AutoFollow,
	}

	m := &Model{
		state:        StateReady,
		theme:        theme,
		cfg:          opts.Config,
		conversation: model.NewConversation(),
		backend:      opts.Backend,
		buffer:       NewStreamingBuffer(),
		session:      opts.Session,
		store:        opts.Store,
		edits:        opts.Edits,
		input:        input,
		spin:         sp,
		messages:     components.NewMessageList(theme),
		thinking:     components.NewThinkingView(theme, scrollCfg),
		tabs:         components.NewModeTabs(theme),
		preview:      components.NewTextPreview(theme, scrollCfg),
		cards:        make(map[string]*components.ToolCard),
		scrollCfg:    scrollCfg,
		keyMap:       DefaultKeyMap(),
		focus:        -1,
	}

	if m.session != nil {
		m.session.SetAutoSaveCallback(m.saveConversation)
	}

	if opts.WorkbookPath != "" {
		if err := m.openWorkbook(opts.WorkbookPath); err != nil {
			m.lastError = err.Error()
		}
	}
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, session.TickCmd())
}

// Conversation returns the active conversation.
func (m *Model) Conversation() *model.Conversation {
	return m.conversation
}

// Streaming reports whether a response is in flight.
func (m *Model) Streaming() bool {
	return m.state == StateStreaming
}

// WorkbookPath returns the open workbook path, or "".
func (m *Model) WorkbookPath() string {
	return m.workbookPath
}

// newToolCard creates a card with the configured budgets.
func (m *Model) newToolCard() *components.ToolCard {
	return components.NewToolCard(m.theme, m.scrollCfg, m.cfg.UI.DiffDisplayCap)
}

// =============================================================================
// WORKBOOK BINDING
// =============================================================================

// openWorkbook binds a workbook to the conversation and loads the
// preview snapshot.
func (m *Model) openWorkbook(path string) error {
	info, err := workbook.Stat(path)
	if err != nil {
		return fmt.Errorf("open workbook: %w", err)
	}

	m.workbookPath = path
	m.workbookInfo = info
	m.conversation.WorkbookPath = path
	if m.session != nil {
		m.session.BindWorkbook(path)
	}
	return m.refreshPreview()
}

// refreshPreview re-snapshots the active sheet into the preview widget.
func (m *Model) refreshPreview() error {
	if m.workbookPath == "" || m.workbookInfo == nil {
		return nil
	}
	sheet := m.workbookInfo.ActiveSheet
	maxRows := m.cfg.Workbook.MaxPreviewRows
	rows, err := workbook.PreviewRows(m.workbookPath, sheet, maxRows)
	if err != nil {
		return fmt.Errorf("preview %s: %w", sheet, err)
	}
	m.preview.SetContent(sheet, rows, len(rows) >= maxRows)

	// Keep a full snapshot as the baseline for detecting edits made
	// outside the chat. A failed snapshot leaves the old baseline.
	if snap, snapErr := workbook.Take(m.workbookPath, maxRows); snapErr == nil {
		m.snapshot = snap
	}
	return nil
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// saveConversation persists the active conversation, creating its
// stored ID on first save.
func (m *Model) saveConversation() error {
	if m.store == nil || m.conversation.IsEmpty() {
		return nil
	}
	id, err := m.store.Save(storage.FromModel(m.conversation))
	if err != nil {
		return err
	}
	m.conversation.ID = id
	if m.session != nil {
		m.session.BindConversation(id)
		m.session.MarkClean()
	}
	return nil
}

// recordEdit logs a finished workbook-edit tool call to the history
// database. History failures surface in the status line but never
// interrupt the stream.
func (m *Model) recordEdit(call model.ToolCall) {
	if m.edits == nil || len(call.DiffLines) == 0 {
		return
	}
	diffText := ""
	for i, line := range call.DiffLines {
		if i > 0 {
			diffText += "\n"
		}
		diffText += line
	}
	_, err := m.edits.Record(context.Background(), &history.Edit{
		ConversationID: m.conversation.ID,
		ToolCallID:     call.ID,
		WorkbookPath:   m.workbookPath,
		ToolName:       call.Name,
		DiffText:       diffText,
	})
	if err != nil {
		m.statusMsg = "history: " + err.Error()
	}
}
