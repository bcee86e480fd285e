// Copyright (c) 2025 Kilolonion
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	HasTrueColor bool
	ColorProfile termenv.Profile

	// Layout dimensions
	Width  int
	Height int

	// ==========================================================================
	// APPLICATION CONTAINER STYLES
	// ==========================================================================

	App       lipgloss.Style
	Container lipgloss.Style

	// ==========================================================================
	// HEADER STYLES
	// ==========================================================================

	Header         lipgloss.Style
	HeaderTitle    lipgloss.Style
	HeaderWorkbook lipgloss.Style

	// ==========================================================================
	// MESSAGE BUBBLE STYLES
	// ==========================================================================

	UserBubble      lipgloss.Style
	AssistantBubble lipgloss.Style
	SystemBubble    lipgloss.Style

	// ==========================================================================
	// INPUT AREA STYLES
	// ==========================================================================

	InputContainer   lipgloss.Style
	InputPrompt      lipgloss.Style
	InputText        lipgloss.Style
	InputPlaceholder lipgloss.Style

	// ==========================================================================
	// STATUS BAR STYLES
	// ==========================================================================

	StatusBar    lipgloss.Style
	ModeAgent    lipgloss.Style
	ModeAsk      lipgloss.Style
	ShortcutKey  lipgloss.Style
	ShortcutDesc lipgloss.Style

	// ==========================================================================
	// MODE TAB STYLES
	// ==========================================================================

	TabActive   lipgloss.Style
	TabInactive lipgloss.Style

	// ==========================================================================
	// THINKING / SPINNER STYLES
	// ==========================================================================

	Spinner      lipgloss.Style
	ThinkingText lipgloss.Style
	ThinkingTime lipgloss.Style
	ThinkingBody lipgloss.Style

	// ==========================================================================
	// TOOL CARD STYLES
	// ==========================================================================

	ToolCard        lipgloss.Style
	ToolCardFailed  lipgloss.Style
	ToolName        lipgloss.Style
	ToolArgs        lipgloss.Style
	ToolElapsed     lipgloss.Style
	ToolResultOK    lipgloss.Style
	ToolResultError lipgloss.Style

	// ==========================================================================
	// DIFF VIEWER STYLES
	// ==========================================================================

	DiffAdded   lipgloss.Style
	DiffDeleted lipgloss.Style
	DiffContext lipgloss.Style
	DiffHunk    lipgloss.Style
	DiffHeader  lipgloss.Style
	DiffLineNum lipgloss.Style
	DiffCounts  lipgloss.Style

	// ==========================================================================
	// VIEWPORT AFFORDANCE STYLES
	// ==========================================================================

	Affordance      lipgloss.Style
	AffordanceArrow lipgloss.Style
	ViewportFrame   lipgloss.Style

	// ==========================================================================
	// TEXT PREVIEW STYLES
	// ==========================================================================

	PreviewLineNum  lipgloss.Style
	PreviewText     lipgloss.Style
	PreviewTruncate lipgloss.Style

	// ==========================================================================
	// STATUS MESSAGE STYLES
	// ==========================================================================

	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
	InfoStyle    lipgloss.Style
}

// NewTheme creates a new theme with all styles configured.
// mode selects "dark", "light", or "auto" terminal detection.
func NewTheme(mode string) *Theme {
	colorProfile := termenv.ColorProfile()

	var isDark bool
	switch mode {
	case "dark":
		isDark = true
	case "light":
		isDark = false
	default:
		isDark = termenv.HasDarkBackground()
	}

	t := &Theme{
		IsDark:       isDark,
		HasTrueColor: colorProfile == termenv.TrueColor,
		ColorProfile: colorProfile,
	}

	t.initStyles()
	return t
}

// initStyles initializes all the lip gloss styles.
func (t *Theme) initStyles() {
	// App container
	t.App = lipgloss.NewStyle()
	t.Container = lipgloss.NewStyle().Padding(0, 1)

	// Header
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal).
		Background(SurfaceDim).
		Padding(0, 2)

	t.HeaderTitle = lipgloss.NewStyle().
		Bold(true).
		Foreground(Teal)

	t.HeaderWorkbook = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(UserBubbleFg).
		Background(UserBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(UserBubbleBorder).
		Padding(0, 2).
		MarginLeft(4)

	t.AssistantBubble = lipgloss.NewStyle().
		Foreground(AssistantBubbleFg).
		Background(AssistantBubbleBg).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(AssistantBubbleBorder).
		Padding(0, 2).
		MarginRight(4)

	t.SystemBubble = lipgloss.NewStyle().
		Foreground(SystemBubbleFg).
		Background(SystemBubbleBg).
		Padding(0, 2).
		Align(lipgloss.Center)

	// Input area
	t.InputContainer = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)

	t.InputPrompt = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.InputText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.InputPlaceholder = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status bar
	t.StatusBar = lipgloss.NewStyle().
		Background(SurfaceDim).
		Foreground(TextSecondary).
		Padding(0, 1)

	t.ModeAgent = lipgloss.NewStyle().
		Foreground(Emerald).
		Bold(true)

	t.ModeAsk = lipgloss.NewStyle().
		Foreground(Amber).
		Bold(true)

	t.ShortcutKey = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ShortcutDesc = lipgloss.NewStyle().
		Foreground(TextMuted)

	// Mode tabs
	t.TabActive = lipgloss.NewStyle().
		Foreground(TextInverse).
		Background(Teal).
		Bold(true).
		Padding(0, 2)

	t.TabInactive = lipgloss.NewStyle().
		Foreground(TextMuted).
		Padding(0, 2)

	// Thinking / spinner
	t.Spinner = lipgloss.NewStyle().
		Foreground(Teal)

	t.ThinkingText = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Italic(true)

	t.ThinkingTime = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ThinkingBody = lipgloss.NewStyle().
		Foreground(TextMuted).
		PaddingLeft(2)

	// Tool cards
	t.ToolCard = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Emerald).
		PaddingLeft(2)

	t.ToolCardFailed = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderLeft(true).
		BorderForeground(Rose).
		PaddingLeft(2)

	t.ToolName = lipgloss.NewStyle().
		Foreground(Teal).
		Bold(true)

	t.ToolArgs = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.ToolElapsed = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.ToolResultOK = lipgloss.NewStyle().
		Foreground(ToolSuccessFg)

	t.ToolResultError = lipgloss.NewStyle().
		Foreground(ToolErrorFg)

	// Diff viewer
	t.DiffAdded = lipgloss.NewStyle().
		Foreground(DiffAddedFg).
		Background(DiffAddedBg)

	t.DiffDeleted = lipgloss.NewStyle().
		Foreground(DiffDeletedFg).
		Background(DiffDeletedBg)

	t.DiffContext = lipgloss.NewStyle().
		Foreground(TextSecondary)

	t.DiffHunk = lipgloss.NewStyle().
		Foreground(DiffHunkFg).
		Bold(true)

	t.DiffHeader = lipgloss.NewStyle().
		Foreground(DiffHeaderFg).
		Italic(true)

	t.DiffLineNum = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.DiffCounts = lipgloss.NewStyle().
		Foreground(TextSecondary).
		Bold(true)

	// Viewport affordances
	t.Affordance = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	t.AffordanceArrow = lipgloss.NewStyle().
		Foreground(Teal)

	t.ViewportFrame = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Overlay)

	// Text preview
	t.PreviewLineNum = lipgloss.NewStyle().
		Foreground(TextMuted)

	t.PreviewText = lipgloss.NewStyle().
		Foreground(TextPrimary)

	t.PreviewTruncate = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true)

	// Status messages
	t.SuccessStyle = lipgloss.NewStyle().Foreground(SuccessHighContrast).Bold(true)
	t.ErrorStyle = lipgloss.NewStyle().Foreground(ErrorHighContrast).Bold(true)
	t.WarningStyle = lipgloss.NewStyle().Foreground(WarningHighContrast).Bold(true)
	t.InfoStyle = lipgloss.NewStyle().Foreground(InfoHighContrast).Bold(true)
}

// SetSize records the terminal dimensions for layout decisions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
