// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides conversation persistence for excelmanus.
package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/util"
)

// =============================================================================
// STORED CONVERSATION TYPE
// =============================================================================

// StoredConversation is the on-disk form of a conversation.
type StoredConversation struct {
	// Identity
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Spreadsheet context
	WorkbookPath string `json:"workbook_path,omitempty"`
	Mode         string `json:"mode,omitempty"`

	// Messages
	Messages []StoredMessage `json:"messages"`

	// Context tracking
	TokensUsed int `json:"tokens_used,omitempty"`
}

// StoredMessage is the on-disk form of a message.
type StoredMessage struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"` // "user", "assistant", "system", "tool"
	Content   string    `json:"content"`
	Thinking  string    `json:"thinking,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Statistics (for assistant messages)
	TokenCount   int     `json:"token_count,omitempty"`
	DurationMs   int64   `json:"duration_ms,omitempty"`
	TokensPerSec float64 `json:"tokens_per_sec,omitempty"`
	TTFTMs       int64   `json:"ttft_ms,omitempty"`

	// Tool calls made during this message
	ToolCalls []StoredToolCall `json:"tool_calls,omitempty"`
}

// StoredToolCall is the on-disk form of a tool invocation.
type StoredToolCall struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Args      string   `json:"args,omitempty"`
	Status    string   `json:"status"`
	Result    string   `json:"result,omitempty"`
	Error     string   `json:"error,omitempty"`
	ElapsedMs int64    `json:"elapsed_ms,omitempty"`
	DiffLines []string `json:"diff_lines,omitempty"`
}

// ConversationMeta contains metadata for listing conversations.
type ConversationMeta struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	WorkbookPath string    `json:"workbook_path,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
	Preview      string    `json:"preview"` // First user message truncated
}

// =============================================================================
// MODEL CONVERSION
// =============================================================================

// FromModel converts an in-memory conversation into its stored form.
func FromModel(conv *model.Conversation) *StoredConversation {
	stored := &StoredConversation{
		ID:           conv.ID,
		Title:        conv.Title,
		CreatedAt:    conv.CreatedAt,
		UpdatedAt:    conv.UpdatedAt,
		WorkbookPath: conv.WorkbookPath,
		Mode:         string(conv.Mode),
		TokensUsed:   conv.TokensUsed,
		Messages:     make([]StoredMessage, 0, len(conv.Messages)),
	}

	for _, msg := range conv.Messages {
		sm := StoredMessage{
			ID:           msg.ID,
			Role:         string(msg.Role),
			Content:      msg.DisplayContent(),
			Thinking:     msg.DisplayThinking(),
			Timestamp:    msg.Timestamp,
			TokenCount:   msg.TokenCount,
			DurationMs:   msg.TotalDuration.Milliseconds(),
			TokensPerSec: msg.TokensPerSec,
			TTFTMs:       msg.TTFT.Milliseconds(),
		}
		for _, tc := range msg.ToolCalls {
			sm.ToolCalls = append(sm.ToolCalls, StoredToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Args:      tc.Args,
				Status:    toolStatusString(tc.Status),
				Result:    tc.Result,
				Error:     tc.Error,
				ElapsedMs: tc.Elapsed.Milliseconds(),
				DiffLines: tc.DiffLines,
			})
		}
		stored.Messages = append(stored.Messages, sm)
	}

	return stored
}

// toolStatusString maps a tool status to its stable on-disk name.
func toolStatusString(s model.ToolStatus) string {
	switch s {
	case model.ToolSucceeded:
		return "succeeded"
	case model.ToolFailed:
		return "failed"
	default:
		return "running"
	}
}

// toolStatusFromString is the inverse of toolStatusString. Unknown
// values load as failed so a stale "running" never survives a restart.
func toolStatusFromString(s string) model.ToolStatus {
	if s == "succeeded" {
		return model.ToolSucceeded
	}
	return model.ToolFailed
}

// ToModel restores an in-memory conversation from its stored form.
func (c *StoredConversation) ToModel() *model.Conversation {
	conv := &model.Conversation{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		WorkbookPath: c.WorkbookPath,
		Mode:         model.EditMode(c.Mode),
		TokensUsed:   c.TokensUsed,
		MaxTokens:    model.DefaultMaxTokens,
	}
	if !conv.Mode.Valid() {
		conv.Mode = model.ModeAgent
	}

	for _, sm := range c.Messages {
		msg := &model.Message{
			ID:            sm.ID,
			Role:          model.Role(sm.Role),
			Content:       sm.Content,
			Thinking:      sm.Thinking,
			Timestamp:     sm.Timestamp,
			TokenCount:    sm.TokenCount,
			TotalDuration: time.Duration(sm.DurationMs) * time.Millisecond,
			TokensPerSec:  sm.TokensPerSec,
			TTFT:          time.Duration(sm.TTFTMs) * time.Millisecond,
		}
		for _, tc := range sm.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, &model.ToolCall{
				ID:        tc.ID,
				Name:      tc.Name,
				Args:      tc.Args,
				Status:    toolStatusFromString(tc.Status),
				Result:    tc.Result,
				Error:     tc.Error,
				Elapsed:   time.Duration(tc.ElapsedMs) * time.Millisecond,
				DiffLines: tc.DiffLines,
			})
		}
		conv.Messages = append(conv.Messages, msg)
	}

	return conv
}

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore handles conversation persistence.
type ConversationStore struct {
	// BaseDir is the directory for storing conversations
	// Default: ~/.excelmanus/conversations/
	BaseDir string

	// MaxConversations limits stored conversations (0 = unlimited)
	MaxConversations int
}

// NewConversationStore creates a store under the default directory.
func NewConversationStore() (*ConversationStore, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewConversationStoreWithDir(filepath.Join(homeDir, ".excelmanus", "conversations"))
}

// NewConversationStoreWithDir creates a store with a custom directory.
func NewConversationStoreWithDir(baseDir string) (*ConversationStore, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, err
	}

	return &ConversationStore{
		BaseDir:          baseDir,
		MaxConversations: 100,
	}, nil
}

// =============================================================================
// SAVE OPERATIONS
// =============================================================================

// Save persists a conversation and returns its ID.
func (s *ConversationStore) Save(conv *StoredConversation) (string, error) {
	if conv.ID == "" {
		return "", &ConversationError{Message: "conversation has no ID"}
	}

	if conv.Title == "" {
		conv.Title = s.generateTitle(conv)
	}

	conv.UpdatedAt = time.Now()
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return "", err
	}

	// RELIABILITY: Atomic write with fsync prevents data loss on crash
	filePath := s.filePath(conv.ID)
	if err := util.AtomicWriteFile(filePath, data, 0644); err != nil {
		return "", err
	}

	if s.MaxConversations > 0 {
		s.enforceLimit()
	}

	return conv.ID, nil
}

// generateTitle creates a title from the first user message.
func (s *ConversationStore) generateTitle(conv *StoredConversation) string {
	for _, msg := range conv.Messages {
		if msg.Role == "user" && msg.Content != "" {
			content := strings.ReplaceAll(msg.Content, "\n", " ")
			content = strings.ReplaceAll(content, "\r", "")
			return util.TruncateRunes(content, 50)
		}
	}
	return "New conversation"
}

// enforceLimit removes oldest conversations if over limit.
func (s *ConversationStore) enforceLimit() {
	metas, err := s.List()
	if err != nil || len(metas) <= s.MaxConversations {
		return
	}

	// Sort by updated time (oldest first)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.Before(metas[j].UpdatedAt)
	})

	excess := len(metas) - s.MaxConversations
	for i := 0; i < excess; i++ {
		s.Delete(metas[i].ID)
	}
}

// =============================================================================
// LOAD OPERATIONS
// =============================================================================

// Load retrieves a conversation by ID.
func (s *ConversationStore) Load(id string) (*StoredConversation, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}

	var conv StoredConversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, err
	}

	return &conv, nil
}

// LoadByIndex loads a conversation by its index in the list (0 = most recent).
func (s *ConversationStore) LoadByIndex(index int) (*StoredConversation, error) {
	metas, err := s.List()
	if err != nil {
		return nil, err
	}

	if index < 0 || index >= len(metas) {
		return nil, ErrConversationNotFound
	}

	return s.Load(metas[index].ID)
}

// =============================================================================
// LIST OPERATIONS
// =============================================================================

// List returns all saved conversations (most recent first).
func (s *ConversationStore) List() ([]ConversationMeta, error) {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []ConversationMeta{}, nil
		}
		return nil, err
	}

	var metas []ConversationMeta

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")

		conv, err := s.Load(id)
		if err != nil {
			continue // Skip corrupted files
		}

		metas = append(metas, ConversationMeta{
			ID:           conv.ID,
			Title:        conv.Title,
			WorkbookPath: conv.WorkbookPath,
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
			MessageCount: len(conv.Messages),
			Preview:      conv.Preview(),
		})
	}

	// Sort by updated time (most recent first)
	sort.Slice(metas, func(i, j int) bool {
		return metas[i].UpdatedAt.After(metas[j].UpdatedAt)
	})

	return metas, nil
}

// Search finds conversations whose title or preview matches a query.
func (s *ConversationStore) Search(query string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	query = strings.ToLower(query)
	var results []ConversationMeta

	for _, meta := range all {
		if strings.Contains(strings.ToLower(meta.Title), query) ||
			strings.Contains(strings.ToLower(meta.Preview), query) {
			results = append(results, meta)
		}
	}

	return results, nil
}

// SearchMessages searches conversations by message content (case-insensitive).
func (s *ConversationStore) SearchMessages(query string) ([]ConversationMeta, error) {
	if query == "" {
		return s.List()
	}

	query = strings.ToLower(query)
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var results []ConversationMeta

	for _, meta := range all {
		conv, err := s.Load(meta.ID)
		if err != nil {
			continue
		}

		for _, msg := range conv.Messages {
			if strings.Contains(strings.ToLower(msg.Content), query) {
				results = append(results, meta)
				break
			}
		}
	}

	return results, nil
}

// ForWorkbook lists conversations attached to a workbook path.
func (s *ConversationStore) ForWorkbook(path string) ([]ConversationMeta, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}

	var results []ConversationMeta
	for _, meta := range all {
		if meta.WorkbookPath == path {
			results = append(results, meta)
		}
	}
	return results, nil
}

// =============================================================================
// DELETE OPERATIONS
// =============================================================================

// Delete removes a conversation by ID.
func (s *ConversationStore) Delete(id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return ErrConversationNotFound
		}
		return err
	}
	return nil
}

// Clear removes all saved conversations.
func (s *ConversationStore) Clear() error {
	entries, err := os.ReadDir(s.BaseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".json") {
			os.Remove(filepath.Join(s.BaseDir, entry.Name()))
		}
	}

	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// filePath returns the file path for a conversation ID.
func (s *ConversationStore) filePath(id string) string {
	return filepath.Join(s.BaseDir, id+".json")
}

// Preview returns a preview string from the first user message.
func (c *StoredConversation) Preview() string {
	for _, msg := range c.Messages {
		if msg.Role == "user" && msg.Content != "" {
			return util.TruncateRunes(msg.Content, 80)
		}
	}
	return ""
}

// MessageCount returns the number of messages in the conversation.
func (c *StoredConversation) MessageCount() int {
	return len(c.Messages)
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrConversationNotFound is returned when a conversation doesn't exist.
// Use errors.Is(err, ErrConversationNotFound) to check for this error.
var ErrConversationNotFound = &ConversationError{Message: "conversation not found"}

// ConversationError represents a conversation-related error.
type ConversationError struct {
	Message string
}

// Error implements the error interface.
func (e *ConversationError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing conversation errors.
func (e *ConversationError) Is(target error) bool {
	t, ok := target.(*ConversationError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
