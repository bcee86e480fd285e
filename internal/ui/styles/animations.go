// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"time"
)

// =============================================================================
// SPINNERS
// =============================================================================

// SpinnerConfig defines an animated spinner.
type SpinnerConfig struct {
	Frames []string
	FPS    int
}

// Duration returns the frame interval.
func (s SpinnerConfig) Duration() time.Duration {
	return time.Second / time.Duration(s.FPS)
}

// BrailleSpinner is the default spinner shown while the assistant works.
var BrailleSpinner = SpinnerConfig{
	Frames: []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	FPS:    10,
}

// DotsSpinner is a low-profile spinner for inline use.
var DotsSpinner = SpinnerConfig{
	Frames: []string{"   ", ".  ", ".. ", "..."},
	FPS:    4,
}

// =============================================================================
// PROGRESS BAR
// =============================================================================

var (
	progressFilled = "█"
	progressEmpty  = "░"
)

// RenderProgressBar renders a horizontal progress bar of the given
// width. percent is clamped to [0, 1].
func RenderProgressBar(width int, percent float64) string {
	if width <= 0 {
		return ""
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 1 {
		percent = 1
	}

	filled := int(float64(width) * percent)
	if filled > width {
		filled = width
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(progressFilled, filled))
	sb.WriteString(strings.Repeat(progressEmpty, width-filled))
	return sb.String()
}

// =============================================================================
// CURSOR
// =============================================================================

// TypingCursor frames for the streaming-text cursor.
var TypingCursor = []string{"▌", " "}

// CursorBlinkRate matches common terminal cursor cadence.
var CursorBlinkRate = 530 * time.Millisecond
