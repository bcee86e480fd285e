// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/kilolonion/excelmanus/internal/model"
	"github.com/kilolonion/excelmanus/internal/ui/styles"
)

// =============================================================================
// MODE TABS - agent / ask selector
// =============================================================================

// ModeTabs renders the interaction-mode selector. Agent mode lets the
// assistant edit the workbook through tools; ask mode is read-only
// question answering.
type ModeTabs struct {
	theme *styles.Theme
	mode  model.EditMode
}

// NewModeTabs creates the selector in agent mode.
func NewModeTabs(theme *styles.Theme) *ModeTabs {
	return &ModeTabs{theme: theme, mode: model.ModeAgent}
}

// Mode returns the active mode.
func (mt *ModeTabs) Mode() model.EditMode { return mt.mode }

// SetMode selects a mode.
func (mt *ModeTabs) SetMode(mode model.EditMode) { mt.mode = mode }

// Cycle switches to the other mode.
func (mt *ModeTabs) Cycle() {
	if mt.mode == model.ModeAgent {
		mt.mode = model.ModeAsk
	} else {
		mt.mode = model.ModeAgent
	}
}

// View renders both tabs with the active one highlighted.
func (mt *ModeTabs) View() string {
	var sb strings.Builder
	sb.WriteString(mt.renderTab("agent", mt.mode == model.ModeAgent))
	sb.WriteString(" ")
	sb.WriteString(mt.renderTab("ask", mt.mode == model.ModeAsk))
	return sb.String()
}

func (mt *ModeTabs) renderTab(label string, active bool) string {
	if active {
		return mt.theme.TabActive.Render(label)
	}
	return mt.theme.TabInactive.Render(label)
}
