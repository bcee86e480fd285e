// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// StreamEventMsg wraps one backend event for the update loop.
type StreamEventMsg struct {
	Event Event
}

// StreamClosedMsg reports that the backend channel closed without a
// terminal event (cancellation, backend bug).
type StreamClosedMsg struct{}

// StreamTickMsg drives buffered-token flushes while streaming.
type StreamTickMsg struct {
	Time time.Time
}

// WorkbookChangedMsg reports an out-of-band change to the open
// workbook, from the filesystem watcher.
type WorkbookChangedMsg struct {
	Path string
}

// ErrorMsg carries a user-visible error into the status line.
type ErrorMsg struct {
	Err error
}

// statusClearMsg clears a temporary status message.
type statusClearMsg struct{}

// waitEvent returns a command that delivers the next backend event.
func waitEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return StreamClosedMsg{}
		}
		return StreamEventMsg{Event: ev}
	}
}

// streamTickCmd schedules the next flush tick at ~30fps.
func streamTickCmd() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return StreamTickMsg{Time: t}
	})
}

// clearStatusCmd clears the status line after a delay.
func clearStatusCmd() tea.Cmd {
	return tea.Tick(4*time.Second, func(time.Time) tea.Msg {
		return statusClearMsg{}
	})
}
