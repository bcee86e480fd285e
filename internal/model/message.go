// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations, messages,
// and editing modes.
package model

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ROLE TYPE
// =============================================================================

// Role represents the sender of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}

// DisplayName returns a human-readable name for the role.
func (r Role) DisplayName() string {
	switch r {
	case RoleUser:
		return "You"
	case RoleAssistant:
		return "Manus"
	case RoleSystem:
		return "System"
	case RoleTool:
		return "Tool"
	default:
		return string(r)
	}
}

// =============================================================================
// EDIT MODE
// =============================================================================

// EditMode selects how the assistant treats the open workbook.
type EditMode string

const (
	// ModeAgent lets the assistant propose and apply edits via tool calls.
	ModeAgent EditMode = "agent"
	// ModeAsk restricts the assistant to answering questions; the
	// workbook is read-only.
	ModeAsk EditMode = "ask"
)

// Modes lists the edit modes in tab order.
var Modes = []EditMode{ModeAgent, ModeAsk}

// Label returns the tab label for the mode.
func (m EditMode) Label() string {
	switch m {
	case ModeAgent:
		return "Agent"
	case ModeAsk:
		return "Ask"
	default:
		return string(m)
	}
}

// Valid reports whether the mode is one of the known modes.
func (m EditMode) Valid() bool {
	return m == ModeAgent || m == ModeAsk
}

// =============================================================================
// TOOL CALL
// =============================================================================

// ToolStatus is the lifecycle state of a tool call.
type ToolStatus int

const (
	// ToolRunning means the call has started and has no result yet.
	ToolRunning ToolStatus = iota
	// ToolSucceeded means the call completed normally.
	ToolSucceeded
	// ToolFailed means the call returned an error.
	ToolFailed
)

// ToolCall records one spreadsheet tool invocation made by the assistant.
type ToolCall struct {
	ID      string        `json:"id"`
	Name    string        `json:"name"`
	Args    string        `json:"args,omitempty"`
	Status  ToolStatus    `json:"status"`
	Result  string        `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`

	// DiffLines holds raw unified-diff hunk lines for edit tools, as
	// reported by the backend. Consumed by the diff viewer.
	DiffLines []string `json:"diff_lines,omitempty"`
}

// Succeeded reports whether the call completed without error.
func (tc *ToolCall) Succeeded() bool {
	return tc.Status == ToolSucceeded
}

// Done reports whether the call has finished, successfully or not.
func (tc *ToolCall) Done() bool {
	return tc.Status != ToolRunning
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message represents a single message in a conversation.
type Message struct {
	// Identity
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Timestamp time.Time `json:"timestamp"`

	// Content
	Content string `json:"content"`

	// Thinking holds the assistant's reasoning trace, shown in its own
	// collapsible widget, never sent back to the backend.
	Thinking string `json:"thinking,omitempty"`

	// Mode the message was produced under.
	Mode EditMode `json:"mode,omitempty"`

	// Streaming state (not persisted).
	// PERFORMANCE: strings.Builder avoids quadratic allocations while
	// tokens stream in.
	IsStreaming     bool            `json:"-"`
	streamContent   strings.Builder `json:"-"`
	thinkingContent strings.Builder `json:"-"`

	// Tool calls issued while producing this message, in order.
	ToolCalls []*ToolCall `json:"tool_calls,omitempty"`

	// Token statistics
	TokenCount int `json:"token_count,omitempty"`

	// Performance metrics (for assistant messages)
	TTFT          time.Duration `json:"ttft_ns,omitempty"`
	TotalDuration time.Duration `json:"total_duration_ns,omitempty"`
	TokensPerSec  float64       `json:"tokens_per_sec,omitempty"`
}

// NewMessage creates a new message with a generated ID.
func NewMessage(role Role, content string) *Message {
	return &Message{
		ID:        generateID(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) *Message {
	return NewMessage(RoleUser, content)
}

// NewAssistantMessage creates a new streaming assistant message.
func NewAssistantMessage(mode EditMode) *Message {
	return &Message{
		ID:          generateID(),
		Role:        RoleAssistant,
		Mode:        mode,
		Timestamp:   time.Now(),
		IsStreaming: true,
	}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) *Message {
	return NewMessage(RoleSystem, content)
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// AppendToken appends a content token to a streaming message.
func (m *Message) AppendToken(token string) {
	if m.IsStreaming {
		m.streamContent.WriteString(token)
	}
}

// AppendThinking appends a reasoning token to a streaming message.
func (m *Message) AppendThinking(token string) {
	if m.IsStreaming {
		m.thinkingContent.WriteString(token)
	}
}

// AddToolCall attaches a tool call to the message and returns it.
func (m *Message) AddToolCall(tc *ToolCall) *ToolCall {
	m.ToolCalls = append(m.ToolCalls, tc)
	return tc
}

// ToolCallByID returns the tool call with the given ID, or nil.
func (m *Message) ToolCallByID(id string) *ToolCall {
	for _, tc := range m.ToolCalls {
		if tc.ID == id {
			return tc
		}
	}
	return nil
}

// FinalizeStream completes streaming and sets statistics.
func (m *Message) FinalizeStream(stats *Statistics) {
	if !m.IsStreaming {
		return
	}

	m.Content = m.streamContent.String()
	m.Thinking = m.thinkingContent.String()
	m.streamContent.Reset()
	m.thinkingContent.Reset()
	m.IsStreaming = false

	if stats != nil {
		m.TTFT = stats.TTFT
		m.TotalDuration = stats.TotalDuration
		m.TokenCount = stats.CompletionTokens
		m.TokensPerSec = stats.TokensPerSecond
	}
}

// DisplayContent returns the content to display (streaming or final).
func (m *Message) DisplayContent() string {
	if m.IsStreaming {
		return m.streamContent.String()
	}
	return m.Content
}

// DisplayThinking returns the reasoning trace to display.
func (m *Message) DisplayThinking() string {
	if m.IsStreaming {
		return m.thinkingContent.String()
	}
	return m.Thinking
}

// Preview returns a truncated preview of the message content.
// Rune-based so multi-byte characters are never split.
func (m *Message) Preview(maxLen int) string {
	content := m.DisplayContent()
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has no content.
func (m *Message) IsEmpty() bool {
	return len(m.Content) == 0 && m.streamContent.Len() == 0
}

// EstimateTokens gives a rough token-count estimate (~4 chars/token).
func (m *Message) EstimateTokens() int {
	return (len(m.DisplayContent()) + 3) / 4
}

// FormatStats returns a formatted statistics line for assistant messages.
func (m *Message) FormatStats() string {
	if m.Role != RoleAssistant || m.TotalDuration == 0 {
		return ""
	}
	return fmt.Sprintf("%.1fs | %d tokens | %.1f tok/s | TTFT %dms",
		m.TotalDuration.Seconds(), m.TokenCount, m.TokensPerSec, m.TTFT.Milliseconds())
}

// =============================================================================
// STATISTICS TYPE
// =============================================================================

// Statistics holds timing and token counts for one generation.
type Statistics struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	PromptTokens     int
	CompletionTokens int

	// Derived metrics (computed on Finalize)
	TTFT            time.Duration
	TotalDuration   time.Duration
	TokensPerSecond float64
}

// NewStatistics creates a Statistics with the start time set.
func NewStatistics() *Statistics {
	return &Statistics{StartTime: time.Now()}
}

// RecordFirstToken records when the first token was received.
func (s *Statistics) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes the derived statistics.
func (s *Statistics) Finalize(tokenCount int) {
	s.EndTime = time.Now()
	s.CompletionTokens = tokenCount
	s.TotalDuration = s.EndTime.Sub(s.StartTime)

	if s.TotalDuration > 0 {
		s.TokensPerSecond = float64(tokenCount) / s.TotalDuration.Seconds()
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// generateID creates a unique message ID.
func generateID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return "msg_" + hex.EncodeToString(bytes)
}
