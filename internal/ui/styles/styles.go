// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#1F1F1F", Dark: "#CCCCCC"} // Main/primary text
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#555555", Dark: "#BBBBBB"} // Titles, secondary info
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, line numbers
	TextDescriptionColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"} // Diagnostics body

	// Semantic color names - Border
	BorderDefaultColor        = lipgloss.AdaptiveColor{Light: "#BBBBBB", Dark: "#696969"} // Unfocused panes
	BorderHighlightFocusColor = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Active pane

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Toast notification colors
	ToastBorderSuccessColor = StatusSuccessColor
	ToastBorderErrorColor   = StatusErrorColor
	ToastBorderInfoColor    = BorderHighlightFocusColor
	ToastBorderWarnColor    = StatusWarningColor

	// Tabs inside a pane title
	TabActiveStyle   = lipgloss.NewStyle().Foreground(TextPrimaryColor).Bold(true)
	TabInactiveStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Editor gutter
	LineNumberStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Preview pane
	DiagnosticStyle = lipgloss.NewStyle().Foreground(StatusErrorColor)
	StaleStyle      = lipgloss.NewStyle().Foreground(TextMutedColor).Italic(true)
	ChangesStyle    = lipgloss.NewStyle().Foreground(StatusSuccessColor)
	EmptyStyle      = lipgloss.NewStyle().Foreground(TextMutedColor).Italic(true)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	// Error display
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true).
			Padding(1, 2)

	// Loading spinner color
	SpinnerColor = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#FFF"}
)
