// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/kilolonion/excelmanus/internal/diff"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/session"
	"github.com/kilolonion/excelmanus/internal/ui/components"
	"github.com/kilolonion/excelmanus/internal/workbook"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		// The wheel scrolls the focused widget when there is one,
		// otherwise the transcript viewport.
		if target, ok := m.focusedTarget(); ok && target.scroll != nil {
			target.scroll.Update(msg)
			m.refreshTranscript()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		if m.state == StateStreaming {
			m.thinking.AdvanceSpinner()
			for _, card := range m.cards {
				card.AdvanceSpinner()
			}
			m.refreshTranscript()
		}
		return m, cmd

	case session.TickMsg:
		if m.session == nil {
			return m, session.TickCmd()
		}
		return m, m.session.HandleTick()

	case session.AutoSaveMsg:
		if m.session != nil {
			if err := m.session.AutoSave(); err != nil {
				m.lastError = err.Error()
			}
		}
		return m, nil

	case StreamEventMsg:
		return m.handleStreamEvent(msg.Event)

	case StreamClosedMsg:
		return m, m.finishStream(nil)

	case StreamTickMsg:
		if m.state != StateStreaming {
			return m, nil
		}
		if chunk, ok := m.buffer.Flush(); ok {
			m.conversation.AppendToLast(chunk)
			m.refreshTranscript()
		}
		return m, streamTickCmd()

	case WorkbookChangedMsg:
		m.handleWorkbookChanged()
		return m, nil

	case ErrorMsg:
		m.lastError = msg.Err.Error()
		return m, nil

	case statusClearMsg:
		m.statusMsg = ""
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleResize lays out the widgets for a new terminal size.
func (m *Model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.width = msg.Width
	m.height = msg.Height

	headerHeight := 2
	footerHeight := 3
	vpHeight := m.height - headerHeight - footerHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}

	m.theme.SetSize(m.width, m.height)
	m.input.Width = m.width - 4
	m.messages.SetWidth(m.width)
	m.thinking.SetWidth(m.width - 2)
	m.preview.SetWidth(m.width - 2)
	if m.externalDiff != nil {
		m.externalDiff.SetWidth(m.width - 2)
	}
	for _, card := range m.cards {
		card.SetWidth(m.width - 2)
	}

	m.refreshTranscript()
	return nil
}

// handleWorkbookChanged reacts to an on-disk edit made outside the
// chat: the preview reloads, and the held snapshot is diffed against
// the fresh one so the change itself lands in the transcript.
func (m *Model) handleWorkbookChanged() {
	before := m.snapshot
	if err := m.refreshPreview(); err != nil {
		m.lastError = err.Error()
	}

	notice := "workbook changed on disk, preview reloaded"
	if before != nil && m.snapshot != nil {
		if changes, err := workbook.Compare(before, m.snapshot); err == nil && len(changes) > 0 {
			var lines []diff.Line
			for _, c := range changes {
				lines = append(lines, c.Lines()...)
			}
			dv := components.NewDiffViewer(m.theme, m.scrollCfg, m.cfg.UI.DiffDisplayCap)
			dv.SetWidth(m.width - 2)
			dv.SetParsed(workbook.Summary(changes), lines)
			m.externalDiff = dv
			notice = "workbook changed on disk: " + workbook.Summary(changes)
		}
	}
	m.conversation.AddSystemMessage(notice)
	m.refreshTranscript()
}

// =============================================================================
// KEY HANDLING
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		if err := m.saveConversation(); err != nil {
			m.lastError = err.Error()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keyMap.FocusNext):
		m.cycleFocus()
		m.refreshTranscript()
		return m, nil
	}

	// A focused widget takes every remaining key until esc hands
	// control back to the input.
	if target, ok := m.focusedTarget(); ok {
		return m.handleFocusedKey(msg, target)
	}

	switch {
	case key.Matches(msg, m.keyMap.Cancel):
		if m.state == StateStreaming {
			m.cancelStreaming()
			return m, nil
		}
		m.showHelp = false
		return m, nil

	case key.Matches(msg, m.keyMap.Submit):
		return m.handleSubmit()

	case key.Matches(msg, m.keyMap.CycleMode):
		if m.state == StateStreaming {
			return m, nil
		}
		m.tabs.Cycle()
		m.conversation.SetMode(m.tabs.Mode())
		return m, nil

	case key.Matches(msg, m.keyMap.Preview):
		m.showPreview = !m.showPreview
		m.refreshTranscript()
		return m, nil

	case key.Matches(msg, m.keyMap.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keyMap.Up),
		key.Matches(msg, m.keyMap.Down),
		key.Matches(msg, m.keyMap.PageUp),
		key.Matches(msg, m.keyMap.PageDown),
		key.Matches(msg, m.keyMap.Top),
		key.Matches(msg, m.keyMap.Bottom):
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if m.session != nil {
		m.session.RecordActivity()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit sends the input line: slash commands locally, anything
// else to the backend.
func (m *Model) handleSubmit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" || m.state == StateStreaming {
		return m, nil
	}
	m.input.Reset()
	m.lastError = ""

	if strings.HasPrefix(text, "/") {
		return m, m.runCommand(text)
	}
	return m, m.startStream(text)
}

// =============================================================================
// STREAM LIFECYCLE
// =============================================================================

// startStream sends the prompt and begins consuming backend events.
func (m *Model) startStream(prompt string) tea.Cmd {
	if m.backend == nil {
		m.lastError = "no backend configured"
		return nil
	}

	m.conversation.AddUserMessage(prompt)
	m.conversation.AddAssistantMessage()
	if m.session != nil {
		m.session.RecordActivity()
		m.session.MarkDirty()
	}

	ctx, cancel := context.WithCancel(context.Background())
	events, err := m.backend.Stream(ctx, m.conversation)
	if err != nil {
		cancel()
		m.lastError = err.Error()
		m.conversation.FinalizeLast(nil)
		m.refreshTranscript()
		return nil
	}

	m.state = StateStreaming
	m.events = events
	m.cancelStream = cancel
	m.stats = model.NewStatistics()
	m.buffer.Reset()
	m.thinking.Start()
	m.cards = make(map[string]*components.ToolCard)
	m.cardOrder = nil
	m.externalDiff = nil
	m.setFocus(-1)

	m.refreshTranscript()
	return tea.Batch(waitEvent(events), streamTickCmd(), m.spin.Tick)
}

// handleStreamEvent applies one backend event.
func (m *Model) handleStreamEvent(ev Event) (tea.Model, tea.Cmd) {
	switch ev := ev.(type) {
	case TokenEvent:
		m.stats.RecordFirstToken()
		if m.thinking.Active() {
			m.thinking.Finish()
		}
		m.buffer.Write(ev.Text)
		return m, waitEvent(m.events)

	case ThinkingEvent:
		if !m.thinking.Active() {
			m.thinking.Start()
		}
		m.thinking.Append(ev.Text)
		if last := m.conversation.LastMessage(); last != nil {
			last.AppendThinking(ev.Text)
		}
		m.refreshTranscript()
		return m, waitEvent(m.events)

	case ToolStartEvent:
		m.upsertCard(ev.Call)
		m.refreshTranscript()
		return m, waitEvent(m.events)

	case ToolDoneEvent:
		m.upsertCard(ev.Call)
		if ev.Call.Succeeded() {
			m.recordEdit(ev.Call)
			if len(ev.Call.DiffLines) > 0 {
				if err := m.refreshPreview(); err != nil {
					m.lastError = err.Error()
				}
			}
		}
		m.refreshTranscript()
		return m, waitEvent(m.events)

	case DoneEvent:
		m.stats.PromptTokens = ev.PromptTokens
		return m, m.finishStream(nil)

	case ErrorEvent:
		return m, m.finishStream(ev.Err)
	}
	return m, waitEvent(m.events)
}

// finishStream flushes the tail, finalizes the message, and persists.
func (m *Model) finishStream(err error) tea.Cmd {
	if m.state != StateStreaming {
		return nil
	}

	if chunk, ok := m.buffer.ForceFlush(); ok {
		m.conversation.AppendToLast(chunk)
	}
	if m.thinking.Active() {
		m.thinking.Finish()
	}

	if m.stats != nil {
		if last := m.conversation.LastMessage(); last != nil {
			m.stats.Finalize(last.EstimateTokens())
		}
	}
	m.conversation.FinalizeLast(m.stats)
	m.attachToolCalls()
	m.state = StateReady
	m.events = nil
	if m.cancelStream != nil {
		m.cancelStream()
		m.cancelStream = nil
	}

	if err != nil {
		m.lastError = err.Error()
		m.conversation.AddSystemMessage("response failed: " + err.Error())
	}

	if saveErr := m.saveConversation(); saveErr != nil {
		m.lastError = saveErr.Error()
	}
	m.refreshTranscript()
	return nil
}

// cancelStreaming aborts the in-flight response, keeping whatever
// already arrived.
func (m *Model) cancelStreaming() {
	if m.cancelStream != nil {
		m.cancelStream()
	}
	m.buffer.Reset()
	m.statusMsg = "response cancelled"
	// finishStream runs when the closed channel delivers StreamClosedMsg.
}

// attachToolCalls copies the finished cards onto the assistant message
// so persistence and re-rendering see them.
func (m *Model) attachToolCalls() {
	last := m.conversation.LastAssistantMessage()
	if last == nil {
		return
	}
	for _, id := range m.cardOrder {
		call := m.cards[id].Call()
		if existing := last.ToolCallByID(call.ID); existing != nil {
			*existing = call
		} else {
			last.AddToolCall(&call)
		}
	}
}

// upsertCard creates or updates the card for a call.
func (m *Model) upsertCard(call model.ToolCall) {
	card, ok := m.cards[call.ID]
	if !ok {
		card = m.newToolCard()
		card.SetWidth(m.width - 2)
		m.cards[call.ID] = card
		m.cardOrder = append(m.cardOrder, call.ID)
	}
	card.SetCall(call)
}
