// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the plain-terminal fallback: a line-editor
// REPL for environments where the full TUI cannot run (dumb terminals,
// piped output, CI).
package cli

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether both stdin and stdout are terminals.
// The TUI requires this; otherwise the plain REPL (or piped mode) runs.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Width returns the terminal width, or 80 when unknown.
func Width() int {
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return 80
	}
	return w
}
