// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"strings"
	"testing"
)

func TestNewThemeModes(t *testing.T) {
	dark := NewTheme("dark")
	if !dark.IsDark {
		t.Error("dark theme should report IsDark")
	}
	light := NewTheme("light")
	if light.IsDark {
		t.Error("light theme should not report IsDark")
	}
	// auto must not panic regardless of the test terminal.
	_ = NewTheme("auto")
}

func TestThemeSetSize(t *testing.T) {
	th := NewTheme("dark")
	th.SetSize(120, 40)
	if th.Width != 120 || th.Height != 40 {
		t.Errorf("size = %dx%d, want 120x40", th.Width, th.Height)
	}
}

func TestRenderProgressBar(t *testing.T) {
	tests := []struct {
		width   int
		percent float64
		filled  int
	}{
		{10, 0.5, 5},
		{10, 0, 0},
		{10, 1, 10},
		{10, 1.5, 10}, // clamped
		{10, -1, 0},   // clamped
	}
	for _, tc := range tests {
		bar := RenderProgressBar(tc.width, tc.percent)
		if got := strings.Count(bar, progressFilled); got != tc.filled {
			t.Errorf("RenderProgressBar(%d, %v): %d filled, want %d",
				tc.width, tc.percent, got, tc.filled)
		}
		if n := len([]rune(bar)); n != tc.width {
			t.Errorf("bar width = %d, want %d", n, tc.width)
		}
	}
	if RenderProgressBar(0, 0.5) != "" {
		t.Error("zero width should render empty")
	}
}

func TestSpinnerConfigs(t *testing.T) {
	for _, s := range []SpinnerConfig{BrailleSpinner, DotsSpinner} {
		if len(s.Frames) == 0 {
			t.Error("spinner has no frames")
		}
		if s.Duration() <= 0 {
			t.Error("spinner duration should be positive")
		}
	}
}

func TestRenderStatusHelpers(t *testing.T) {
	if !strings.Contains(RenderSuccess("saved"), StatusIndicators.Success) {
		t.Error("success indicator missing")
	}
	if !strings.Contains(RenderError("boom"), StatusIndicators.Error) {
		t.Error("error indicator missing")
	}
	if !strings.Contains(RenderStatus(false, "x"), StatusIndicators.Error) {
		t.Error("RenderStatus(false) should use the error indicator")
	}
}
