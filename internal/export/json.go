// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"fmt"

	"github.com/kilolonion/excelmanus/internal/model"
)

// JSONExporter renders a conversation as indented JSON, the same shape
// the conversation store persists.
type JSONExporter struct{}

// NewJSONExporter creates a JSON exporter.
func NewJSONExporter() *JSONExporter { return &JSONExporter{} }

// FileExtension returns ".json".
func (e *JSONExporter) FileExtension() string { return ".json" }

// Export marshals the conversation.
func (e *JSONExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal conversation: %w", err)
	}
	return append(data, '\n'), nil
}
