// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kilolonion/excelmanus/internal/config"
	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/ui/chat"
)

// scriptedBackend replays a fixed event sequence.
type scriptedBackend struct {
	events []chat.Event
	err    error
}

func (s *scriptedBackend) Stream(ctx context.Context, conv *model.Conversation) (<-chan chat.Event, error) {
	if s.err != nil {
		return nil, s.err
	}
	ch := make(chan chat.Event, len(s.events))
	for _, ev := range s.events {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func newTestREPL(backend chat.Backend) (*REPL, *bytes.Buffer) {
	r := NewREPL(config.Default(), backend, nil)
	var buf bytes.Buffer
	r.out = &buf
	return r, &buf
}

func TestAskPrintsTokens(t *testing.T) {
	r, buf := newTestREPL(&scriptedBackend{events: []chat.Event{
		chat.TokenEvent{Text: "The total "},
		chat.TokenEvent{Text: "is 42."},
		chat.DoneEvent{},
	}})

	if err := r.ask(context.Background(), "sum column C"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if !strings.Contains(buf.String(), "The total is 42.") {
		t.Errorf("output = %q", buf.String())
	}
	if r.conversation.LastAssistantMessage().Content != "The total is 42." {
		t.Errorf("conversation content = %q", r.conversation.LastAssistantMessage().Content)
	}
}

func TestAskPrintsToolLifecycle(t *testing.T) {
	r, buf := newTestREPL(&scriptedBackend{events: []chat.Event{
		chat.ToolStartEvent{Call: model.ToolCall{ID: "tc1", Name: "set_cell", Status: model.ToolRunning}},
		chat.ToolDoneEvent{Call: model.ToolCall{
			ID:        "tc1",
			Name:      "set_cell",
			Status:    model.ToolSucceeded,
			DiffLines: []string{"-B\t100", "+B\t250"},
		}},
		chat.DoneEvent{},
	}})

	if err := r.ask(context.Background(), "set B2"); err != nil {
		t.Fatalf("ask: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"[set_cell …]", "[set_cell ok]", "+B\t250"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestAskReturnsStreamError(t *testing.T) {
	r, _ := newTestREPL(&scriptedBackend{events: []chat.Event{
		chat.ErrorEvent{Err: errors.New("backend gone")},
	}})

	err := r.ask(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "backend gone") {
		t.Errorf("err = %v", err)
	}
}

func TestCommandModeSwitches(t *testing.T) {
	r, _ := newTestREPL(&scriptedBackend{})

	if done := r.runCommand("/mode ask"); done {
		t.Fatal("mode switch should not exit")
	}
	if r.conversation.Mode != model.ModeAsk {
		t.Errorf("mode = %v, want ask", r.conversation.Mode)
	}
}

func TestCommandQuitExits(t *testing.T) {
	r, _ := newTestREPL(&scriptedBackend{})
	if done := r.runCommand("/quit"); !done {
		t.Error("/quit should end the loop")
	}
}

func TestCommandUnknownPrints(t *testing.T) {
	r, buf := newTestREPL(&scriptedBackend{})
	r.runCommand("/bogus")
	if !strings.Contains(buf.String(), "unknown command") {
		t.Errorf("output = %q", buf.String())
	}
}
