// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xuri/excelize/v2"

	"github.com/kilolonion/excelmanus/internal/config"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/session"
	"github.com/kilolonion/excelmanus/internal/storage"
	"github.com/kilolonion/excelmanus/internal/ui/components"
)

// fakeBackend replays a scripted event sequence.
type fakeBackend struct {
	events []Event
	err    error
}

func (f *fakeBackend) Stream(ctx context.Context, conv *model.Conversation) (<-chan Event, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestModel(backend Backend) *Model {
	m := New(Options{
		Config:  config.Default(),
		Backend: backend,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return m
}

func typeAndSubmit(m *Model, text string) {
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
}

// drain pumps every queued backend event through the update loop.
func drain(m *Model) {
	for m.Streaming() {
		ev, ok := <-m.events
		if !ok {
			m.Update(StreamClosedMsg{})
			return
		}
		m.Update(StreamEventMsg{Event: ev})
	}
}

func TestSubmitStartsStream(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		TokenEvent{Text: "done"},
		DoneEvent{},
	}})

	typeAndSubmit(m, "double column B")

	if !m.Streaming() {
		t.Fatal("submit should start streaming")
	}
	conv := m.Conversation()
	if conv.MessageCount() != 2 {
		t.Fatalf("messages = %d, want user + assistant", conv.MessageCount())
	}
	if conv.LastUserMessage().Content != "double column B" {
		t.Errorf("user message = %q", conv.LastUserMessage().Content)
	}
}

func TestStreamCompletes(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		TokenEvent{Text: "The total "},
		TokenEvent{Text: "is 42."},
		DoneEvent{PromptTokens: 12},
	}})

	typeAndSubmit(m, "sum column C")
	drain(m)

	if m.Streaming() {
		t.Fatal("stream should have finished")
	}
	last := m.Conversation().LastAssistantMessage()
	if last == nil {
		t.Fatal("no assistant message")
	}
	if last.Content != "The total is 42." {
		t.Errorf("content = %q", last.Content)
	}
	if last.IsStreaming {
		t.Error("message should be finalized")
	}
}

func TestStreamErrorSurfacesInTranscript(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		ErrorEvent{Err: errors.New("backend unreachable")},
	}})

	typeAndSubmit(m, "hello")
	drain(m)

	if m.Streaming() {
		t.Fatal("error should end the stream")
	}
	if !strings.Contains(m.lastError, "backend unreachable") {
		t.Errorf("lastError = %q", m.lastError)
	}
}

func TestBackendStartErrorKeepsReady(t *testing.T) {
	m := newTestModel(&fakeBackend{err: errors.New("not running")})

	typeAndSubmit(m, "hello")

	if m.Streaming() {
		t.Fatal("failed start should not enter streaming state")
	}
	if !strings.Contains(m.lastError, "not running") {
		t.Errorf("lastError = %q", m.lastError)
	}
}

func TestToolEventsBuildCards(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		ToolStartEvent{Call: model.ToolCall{ID: "tc1", Name: "set_cell", Status: model.ToolRunning}},
		ToolDoneEvent{Call: model.ToolCall{
			ID:     "tc1",
			Name:   "set_cell",
			Status: model.ToolSucceeded,
			DiffLines: []string{
				"@@ -2,1 +2,1 @@",
				"-B\t100",
				"+B\t250",
			},
		}},
		TokenEvent{Text: "Updated."},
		DoneEvent{},
	}})

	typeAndSubmit(m, "set B2 to 250")
	drain(m)

	last := m.Conversation().LastAssistantMessage()
	if last == nil || len(last.ToolCalls) != 1 {
		t.Fatalf("assistant message should carry 1 tool call, got %+v", last)
	}
	tc := last.ToolCalls[0]
	if tc.Status != model.ToolSucceeded || len(tc.DiffLines) != 3 {
		t.Errorf("tool call not updated: %+v", tc)
	}
}

func TestThinkingEventsAccumulate(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		ThinkingEvent{Text: "user wants a sum"},
		TokenEvent{Text: "42"},
		DoneEvent{},
	}})

	typeAndSubmit(m, "sum")
	drain(m)

	last := m.Conversation().LastAssistantMessage()
	if last.Thinking != "user wants a sum" {
		t.Errorf("thinking = %q", last.Thinking)
	}
}

func TestTabCyclesMode(t *testing.T) {
	m := newTestModel(&fakeBackend{})

	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.Conversation().Mode != model.ModeAsk {
		t.Errorf("mode = %v, want ask", m.Conversation().Mode)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if m.Conversation().Mode != model.ModeAgent {
		t.Errorf("mode = %v, want agent", m.Conversation().Mode)
	}
}

func TestSubmitIgnoredWhileStreaming(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{DoneEvent{}}})

	typeAndSubmit(m, "first")
	if !m.Streaming() {
		t.Fatal("expected streaming")
	}
	before := m.Conversation().MessageCount()

	typeAndSubmit(m, "second")
	if got := m.Conversation().MessageCount(); got != before {
		t.Errorf("messages = %d, want %d (submit during stream ignored)", got, before)
	}
}

func TestWorkbookChangedAddsNotice(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.Update(WorkbookChangedMsg{Path: "budget.xlsx"})

	last := m.Conversation().LastMessage()
	if last == nil || last.Role != model.RoleSystem {
		t.Fatalf("expected system notice, got %+v", last)
	}
	if !strings.Contains(last.Content, "changed on disk") {
		t.Errorf("notice = %q", last.Content)
	}
}

// longDiff builds a hunk large enough to overflow a collapsed card.
func longDiff(rows int) []string {
	lines := []string{fmt.Sprintf("@@ -1,%d +1,%d @@", rows, rows)}
	for i := 0; i < rows; i++ {
		lines = append(lines, fmt.Sprintf("+A%d\t%d", i+1, i*10))
	}
	return lines
}

func TestFocusCycleDrivesCardDiff(t *testing.T) {
	m := newTestModel(&fakeBackend{events: []Event{
		ToolDoneEvent{Call: model.ToolCall{
			ID:        "tc1",
			Name:      "fill_range",
			Status:    model.ToolSucceeded,
			DiffLines: longDiff(30),
		}},
		TokenEvent{Text: "Filled."},
		DoneEvent{},
	}})

	typeAndSubmit(m, "fill column A")
	drain(m)

	scroll := m.cards["tc1"].Diff().Scrollable()
	if scroll.Mode() != components.ViewCollapsed {
		t.Fatalf("mode = %v, want collapsed", scroll.Mode())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	target, ok := m.focusedTarget()
	if !ok || target.name != "fill_range" {
		t.Fatalf("focused = %q (ok=%v), want fill_range", target.name, ok)
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if scroll.Mode() != components.ViewScroll {
		t.Fatalf("mode after enter = %v, want scroll", scroll.Mode())
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if scroll.Mode() != components.ViewExpanded {
		t.Fatalf("mode after second enter = %v, want expanded", scroll.Mode())
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if scroll.Mode() != components.ViewCollapsed {
		t.Fatalf("mode after esc = %v, want collapsed", scroll.Mode())
	}
	if _, ok := m.focusedTarget(); !ok {
		t.Fatal("esc should collapse first, keeping focus")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if _, ok := m.focusedTarget(); ok {
		t.Fatal("second esc should return focus to the input")
	}
}

func TestFocusedDiffShowAllLiftsCap(t *testing.T) {
	m := newTestModel(&fakeBackend{})
	m.cfg.UI.DiffDisplayCap = 10

	typeAndSubmit(m, "fill column A")
	m.Update(StreamEventMsg{Event: ToolDoneEvent{Call: model.ToolCall{
		ID:        "tc1",
		Name:      "fill_range",
		Status:    model.ToolSucceeded,
		DiffLines: longDiff(30),
	}}})
	m.Update(StreamClosedMsg{})

	dv := m.cards["tc1"].Diff()
	if !dv.Capped() {
		t.Fatal("30 rows over a cap of 10 should be capped")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a")})

	if dv.Capped() {
		t.Error("show-all should lift the display cap")
	}
}

func TestAutoSavePersistsConversation(t *testing.T) {
	store, err := storage.NewConversationStoreWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sess := session.NewManager(session.DefaultConfig())

	m := New(Options{
		Config:  config.Default(),
		Backend: &fakeBackend{},
		Store:   store,
		Session: sess,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	m.Conversation().AddUserMessage("rename Sheet2 to Costs")
	sess.MarkDirty()

	m.Update(session.AutoSaveMsg{})

	if sess.IsDirty() {
		t.Error("auto-save should clear the dirty flag")
	}
	metas, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 {
		t.Fatalf("stored conversations = %d, want 1", len(metas))
	}
}

// writeChatWorkbook writes a single-sheet workbook for change tests.
func writeChatWorkbook(t *testing.T, path string, cells map[string]any) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for cell, value := range cells {
		if err := f.SetCellValue("Sheet1", cell, value); err != nil {
			t.Fatalf("SetCellValue(%s): %v", cell, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}
}

func TestWorkbookChangedRendersExternalDiff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "budget.xlsx")
	writeChatWorkbook(t, path, map[string]any{"A1": "total", "B1": 100})

	m := New(Options{
		Config:       config.Default(),
		Backend:      &fakeBackend{},
		WorkbookPath: path,
	})
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	if m.snapshot == nil {
		t.Fatal("opening a workbook should take a snapshot")
	}

	writeChatWorkbook(t, path, map[string]any{"A1": "total", "B1": 250})
	m.Update(WorkbookChangedMsg{Path: path})

	if m.externalDiff == nil {
		t.Fatal("external edit should produce a diff in the transcript")
	}
	if m.externalDiff.Additions() == 0 {
		t.Error("diff should count the changed row as an addition")
	}
	last := m.Conversation().LastMessage()
	if last == nil || !strings.Contains(last.Content, "changed on disk") {
		t.Errorf("notice = %+v", last)
	}
}
