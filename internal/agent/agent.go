// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package agent bridges the chat UI to an external agent process. The
// agent binary is launched per request, receives the conversation as
// JSON on stdin, and emits newline-delimited JSON events on stdout:
//
//	{"type":"thinking","text":"..."}
//	{"type":"token","text":"..."}
//	{"type":"tool_start","call":{"id":"tc1","name":"set_cell","args":"..."}}
//	{"type":"tool_done","call":{"id":"tc1","name":"set_cell","status":"succeeded","diff_lines":["..."]}}
//	{"type":"done","prompt_tokens":123}
//	{"type":"error","message":"..."}
//
// The model provider, prompting and spreadsheet tooling all live in
// the agent process; this package only does transport.
package agent

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/ui/chat"
)

// maxEventBytes caps one event line (diff lines for a large edit can
// make tool_done events big).
const maxEventBytes = 4 << 20

// Subprocess runs an external agent command for each request.
type Subprocess struct {
	command string
	args    []string
}

// NewSubprocess creates a backend that launches the given command.
func NewSubprocess(command string, args ...string) *Subprocess {
	return &Subprocess{command: command, args: args}
}

// request is the JSON payload the agent receives on stdin.
type request struct {
	Mode         string         `json:"mode"`
	WorkbookPath string         `json:"workbook_path,omitempty"`
	Messages     []requestEntry `json:"messages"`
}

type requestEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// wireEvent is one stdout line from the agent.
type wireEvent struct {
	Type         string    `json:"type"`
	Text         string    `json:"text,omitempty"`
	Call         *wireCall `json:"call,omitempty"`
	PromptTokens int       `json:"prompt_tokens,omitempty"`
	Message      string    `json:"message,omitempty"`
}

type wireCall struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Args      string   `json:"args,omitempty"`
	Status    string   `json:"status,omitempty"`
	Result    string   `json:"result,omitempty"`
	Error     string   `json:"error,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms,omitempty"`
	DiffLines []string `json:"diff_lines,omitempty"`
}

// Stream implements chat.Backend.
func (s *Subprocess) Stream(ctx context.Context, conv *model.Conversation) (<-chan chat.Event, error) {
	cmd := exec.CommandContext(ctx, s.command, s.args...)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start agent %q: %w", s.command, err)
	}

	go func() {
		defer stdin.Close()
		enc := json.NewEncoder(stdin)
		enc.Encode(buildRequest(conv))
	}()

	events := make(chan chat.Event, 16)
	go func() {
		defer close(events)
		defer cmd.Wait()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxEventBytes)

		terminal := false
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			ev, ok := decodeEvent(line)
			if !ok {
				continue
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
			switch ev.(type) {
			case chat.DoneEvent, chat.ErrorEvent:
				terminal = true
			}
			if terminal {
				return
			}
		}
		if err := scanner.Err(); err != nil && ctx.Err() == nil {
			events <- chat.ErrorEvent{Err: fmt.Errorf("agent output: %w", err)}
		}
	}()

	return events, nil
}

// buildRequest converts the conversation to the wire payload. Only
// finished content is sent; the trailing streaming placeholder and
// thinking traces stay local.
func buildRequest(conv *model.Conversation) request {
	req := request{
		Mode:         string(conv.Mode),
		WorkbookPath: conv.WorkbookPath,
	}
	for _, msg := range conv.Messages {
		if msg.IsStreaming || msg.Content == "" {
			continue
		}
		req.Messages = append(req.Messages, requestEntry{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return req
}

// decodeEvent maps one stdout line to a chat event. Unknown types and
// malformed lines are skipped so an agent can add event types without
// breaking older UIs.
func decodeEvent(line string) (chat.Event, bool) {
	var we wireEvent
	if err := json.Unmarshal([]byte(line), &we); err != nil {
		return nil, false
	}

	switch we.Type {
	case "token":
		return chat.TokenEvent{Text: we.Text}, true
	case "thinking":
		return chat.ThinkingEvent{Text: we.Text}, true
	case "tool_start":
		if we.Call == nil {
			return nil, false
		}
		return chat.ToolStartEvent{Call: toModelCall(we.Call, model.ToolRunning)}, true
	case "tool_done":
		if we.Call == nil {
			return nil, false
		}
		status := model.ToolFailed
		if we.Call.Status == "succeeded" {
			status = model.ToolSucceeded
		}
		return chat.ToolDoneEvent{Call: toModelCall(we.Call, status)}, true
	case "done":
		return chat.DoneEvent{PromptTokens: we.PromptTokens}, true
	case "error":
		return chat.ErrorEvent{Err: fmt.Errorf("agent: %s", we.Message)}, true
	default:
		return nil, false
	}
}

func toModelCall(wc *wireCall, status model.ToolStatus) model.ToolCall {
	return model.ToolCall{
		ID:        wc.ID,
		Name:      wc.Name,
		Args:      wc.Args,
		Status:    status,
		Result:    wc.Result,
		Error:     wc.Error,
		Elapsed:   time.Duration(wc.ElapsedMs) * time.Millisecond,
		DiffLines: wc.DiffLines,
	}
}
