// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session tracks the lifetime of one excelmanus editing session:
// identity, activity, dirty state, and periodic auto-save.
package session

import (
	"fmt"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks session state for the chat UI.
type Manager struct {
	mu sync.Mutex

	// Session tracking
	sessionID    string
	startTime    time.Time
	lastActivity time.Time

	// Bound resources
	workbookPath   string
	conversationID string

	// Auto-save configuration
	autoSaveEnabled  bool
	autoSaveInterval time.Duration
	lastAutoSave     time.Time
	isDirty          bool

	// Callbacks
	onAutoSave func() error
}

// Config holds configuration for the session manager.
type Config struct {
	// AutoSaveEnabled enables periodic conversation saving
	AutoSaveEnabled bool

	// AutoSaveInterval is how often to auto-save (default: 30 seconds)
	AutoSaveInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		AutoSaveEnabled:  true,
		AutoSaveInterval: 30 * time.Second,
	}
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	now := time.Now()
	return &Manager{
		sessionID:        "sess_" + uuid.NewString(),
		startTime:        now,
		lastActivity:     now,
		autoSaveEnabled:  cfg.AutoSaveEnabled,
		autoSaveInterval: cfg.AutoSaveInterval,
		lastAutoSave:     now,
	}
}

// =============================================================================
// SESSION STATE
// =============================================================================

// SessionID returns the current session ID.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// StartTime returns when the session started.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startTime
}

// Duration returns how long the session has been active.
func (m *Manager) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.startTime)
}

// IdleTime returns how long since the last user activity.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return time.Since(m.lastActivity)
}

// RecordActivity marks the session as active now.
func (m *Manager) RecordActivity() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastActivity = time.Now()
}

// =============================================================================
// BOUND RESOURCES
// =============================================================================

// BindWorkbook records the workbook this session edits.
func (m *Manager) BindWorkbook(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workbookPath = path
}

// WorkbookPath returns the bound workbook path, if any.
func (m *Manager) WorkbookPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.workbookPath
}

// BindConversation records the active conversation.
func (m *Manager) BindConversation(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conversationID = id
}

// ConversationID returns the active conversation ID, if any.
func (m *Manager) ConversationID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conversationID
}

// =============================================================================
// DIRTY STATE
// =============================================================================

// MarkDirty flags unsaved conversation state.
func (m *Manager) MarkDirty() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isDirty = true
}

// MarkClean clears the dirty flag after a successful save.
func (m *Manager) MarkClean() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isDirty = false
	m.lastAutoSave = time.Now()
}

// IsDirty reports whether there is unsaved state.
func (m *Manager) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.isDirty
}

// =============================================================================
// AUTO-SAVE
// =============================================================================

// SetAutoSaveCallback registers the save function invoked by AutoSave.
func (m *Manager) SetAutoSaveCallback(fn func() error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAutoSave = fn
}

// ShouldAutoSave reports whether an auto-save is due.
func (m *Manager) ShouldAutoSave() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.autoSaveEnabled || !m.isDirty {
		return false
	}
	return time.Since(m.lastAutoSave) >= m.autoSaveInterval
}

// AutoSave invokes the registered save callback and clears the dirty
// flag on success.
func (m *Manager) AutoSave() error {
	m.mu.Lock()
	fn := m.onAutoSave
	m.mu.Unlock()

	if fn == nil {
		return nil
	}
	if err := fn(); err != nil {
		return err
	}
	m.MarkClean()
	return nil
}

// SetAutoSaveEnabled toggles periodic saving.
func (m *Manager) SetAutoSaveEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSaveEnabled = enabled
}

// SetAutoSaveInterval updates the auto-save interval.
func (m *Manager) SetAutoSaveInterval(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoSaveInterval = d
}

// =============================================================================
// TICK INTEGRATION (BUBBLE TEA)
// =============================================================================

// TickMsg is delivered once per second while the UI runs.
type TickMsg struct {
	Time time.Time
}

// AutoSaveMsg indicates auto-save should occur.
type AutoSaveMsg struct{}

// TickCmd returns a command that ticks periodically.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}

// HandleTick processes a tick and returns follow-up commands.
func (m *Manager) HandleTick() tea.Cmd {
	var cmds []tea.Cmd

	if m.ShouldAutoSave() {
		cmds = append(cmds, func() tea.Msg {
			return AutoSaveMsg{}
		})
	}

	// Continue ticking
	cmds = append(cmds, TickCmd())

	return tea.Batch(cmds...)
}

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status represents the current session status.
type Status struct {
	SessionID      string
	StartTime      time.Time
	Duration       time.Duration
	IdleTime       time.Duration
	WorkbookPath   string
	ConversationID string
	IsDirty        bool
}

// GetStatus returns a snapshot of the session state.
func (m *Manager) GetStatus() Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	return Status{
		SessionID:      m.sessionID,
		StartTime:      m.startTime,
		Duration:       now.Sub(m.startTime),
		IdleTime:       now.Sub(m.lastActivity),
		WorkbookPath:   m.workbookPath,
		ConversationID: m.conversationID,
		IsDirty:        m.isDirty,
	}
}

// FormatDuration renders a duration as "1h 23m" / "4m 05s" for the
// status bar.
func FormatDuration(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dm %02ds", int(d.Minutes()), int(d.Seconds())%60)
}
