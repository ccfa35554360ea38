// Package panes renders bordered panes with titles embedded in the border.
package panes

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/pumlview/internal/ui/styles"
)

// Border characters (rounded)
const (
	borderTopLeft     = "╭"
	borderTopRight    = "╮"
	borderBottomLeft  = "╰"
	borderBottomRight = "╯"
	borderHorizontal  = "─"
	borderVertical    = "│"
)

// BorderConfig configures the appearance of a bordered pane.
type BorderConfig struct {
	Content string // Lines wider than the pane are clipped, never wrapped
	Width   int    // Total width including borders
	Height  int    // Total height including borders

	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string

	Focused            bool
	TitleColor         lipgloss.TerminalColor
	BorderColor        lipgloss.TerminalColor // nil means BorderDefaultColor
	FocusedBorderColor lipgloss.TerminalColor // nil means BorderColor
}

// BorderedPane renders content within a bordered pane with optional titles.
// Diagram output is column aligned, so lines are clipped to the inner width
// rather than wrapped.
func BorderedPane(cfg BorderConfig) string {
	borderColor := resolveBorderColor(cfg.BorderColor, cfg.FocusedBorderColor, cfg.Focused)
	titleColor := cfg.TitleColor
	if titleColor == nil {
		titleColor = styles.TextSecondaryColor
	}

	borderStyle := lipgloss.NewStyle().Foreground(borderColor)
	titleStyle := lipgloss.NewStyle().Foreground(titleColor)

	innerWidth := max(cfg.Width-2, 1)
	contentHeight := max(cfg.Height-2, 1)

	lines := strings.Split(cfg.Content, "\n")
	side := borderStyle.Render(borderVertical)

	var b strings.Builder
	b.WriteString(buildBorder(cfg.TopLeft, cfg.TopRight, innerWidth, borderTopLeft, borderTopRight, borderStyle, titleStyle))
	for i := range contentHeight {
		var line string
		if i < len(lines) {
			line = ansi.Truncate(lines[i], innerWidth, "")
		}
		if w := ansi.StringWidth(line); w < innerWidth {
			line += strings.Repeat(" ", innerWidth-w)
		}
		b.WriteString("\n")
		b.WriteString(side + line + side)
	}
	b.WriteString("\n")
	b.WriteString(buildBorder(cfg.BottomLeft, cfg.BottomRight, innerWidth, borderBottomLeft, borderBottomRight, borderStyle, titleStyle))
	return b.String()
}

// resolveBorderColor picks the border color for the focus state.
func resolveBorderColor(borderColor, focusedBorderColor lipgloss.TerminalColor, focused bool) lipgloss.TerminalColor {
	if borderColor == nil {
		borderColor = styles.BorderDefaultColor
	}
	if focused && focusedBorderColor != nil {
		return focusedBorderColor
	}
	return borderColor
}

// buildBorder renders one horizontal border line with optional titles.
// Format: ╭─ Left ─────────── Right ─╮
// The right title is dropped first when space runs out, then the left
// title is truncated.
func buildBorder(left, right string, innerWidth int, cornerLeft, cornerRight string, borderStyle, titleStyle lipgloss.Style) string {
	plain := func() string {
		return borderStyle.Render(cornerLeft + strings.Repeat(borderHorizontal, innerWidth) + cornerRight)
	}
	if innerWidth < 4 || (left == "" && right == "") {
		return plain()
	}

	leftWidth := ansi.StringWidth(left)
	rightWidth := ansi.StringWidth(right)

	// "─ " + left + " " + dashes + " " + right + " ─"
	if right != "" && leftWidth+rightWidth+7 > innerWidth {
		right, rightWidth = "", 0
	}
	if left != "" && leftWidth+4 > innerWidth {
		left = styles.TruncateString(left, innerWidth-4)
		leftWidth = ansi.StringWidth(left)
	}
	if left == "" && right == "" {
		return plain()
	}

	used := 0
	if left != "" {
		used += leftWidth + 3
	}
	if right != "" {
		used += rightWidth + 3
	}
	dashes := max(innerWidth-used, 1)

	var b strings.Builder
	b.WriteString(borderStyle.Render(cornerLeft))
	if left != "" {
		b.WriteString(borderStyle.Render(borderHorizontal + " "))
		b.WriteString(titleStyle.Render(left))
		b.WriteString(borderStyle.Render(" "))
	}
	b.WriteString(borderStyle.Render(strings.Repeat(borderHorizontal, dashes)))
	if right != "" {
		b.WriteString(borderStyle.Render(" "))
		b.WriteString(titleStyle.Render(right))
		b.WriteString(borderStyle.Render(" " + borderHorizontal))
	}
	b.WriteString(borderStyle.Render(cornerRight))
	return b.String()
}
