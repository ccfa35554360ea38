package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/ui/editorview"
	"github.com/zjrosen/pumlview/internal/ui/panes"
	"github.com/zjrosen/pumlview/internal/ui/previewview"
	"github.com/zjrosen/pumlview/internal/ui/styles"
	"github.com/zjrosen/pumlview/internal/workspace"
)

const emptyPaneText = "No items. Open a file with: pumlview FILE.puml"

func paneZoneID(i int) string {
	return fmt.Sprintf("pane-%d", i)
}

// paneWidths splits the terminal width across n panes; the last pane takes
// the remainder.
func paneWidths(total, n int) []int {
	widths := make([]int, n)
	if n == 0 {
		return widths
	}
	base := total / n
	for i := range widths {
		widths[i] = base
	}
	widths[n-1] += total - base*n
	return widths
}

func (m Model) statusBar() string {
	var helpView string
	if m.showHelp {
		helpView = m.help.FullHelpView(m.keys.FullHelp())
	} else {
		helpView = m.help.ShortHelpView(m.keys.ShortHelp())
	}
	return styles.StatusBarStyle.Width(m.width).Render(helpView)
}

func (m Model) bodyHeight() int {
	return max(m.height-lipgloss.Height(m.statusBar()), 3)
}

// layout creates, resizes and syncs the item views for every pane item and
// forgets views whose items are gone.
func (m Model) layout() Model {
	if m.width == 0 {
		return m
	}
	ps := m.svc.Workspace.Panes()
	widths := paneWidths(m.width, len(ps))
	height := m.bodyHeight() - 2

	frame := ""
	if m.ticking {
		frame = m.spinner.View()
	}

	live := make(map[string]bool)
	for i, p := range ps {
		width := max(widths[i]-2, 1)
		for _, it := range p.Items() {
			id := it.ItemID()
			live[id] = true
			switch it := it.(type) {
			case *workspace.Editor:
				ev, ok := m.editors[id]
				if !ok {
					ev = editorview.New(it.Document())
				}
				m.editors[id] = ev.SetSize(width, height)
			case *preview.View:
				pv, ok := m.previews[id]
				if !ok {
					pv = previewview.New(it, m.svc.Config.UI.MarkdownStyle)
				}
				m.previews[id] = pv.SetSize(width, height).Sync(frame)
			}
		}
	}
	for id := range m.editors {
		if !live[id] {
			delete(m.editors, id)
		}
	}
	for id := range m.previews {
		if !live[id] {
			delete(m.previews, id)
		}
	}
	return m
}

// View implements tea.Model.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	ps := m.svc.Workspace.Panes()
	widths := paneWidths(m.width, len(ps))
	height := m.bodyHeight()

	rendered := make([]string, len(ps))
	for i, p := range ps {
		rendered[i] = zone.Mark(paneZoneID(i), m.renderPane(p, widths[i], height))
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, rendered...),
		m.statusBar(),
	)
	view = m.toaster.Overlay(view, m.width, m.height)
	return zone.Scan(view)
}

func (m Model) renderPane(p *workspace.Pane, width, height int) string {
	cfg := panes.BorderConfig{
		Width:              width,
		Height:             height,
		Focused:            p.IsActive(),
		FocusedBorderColor: styles.BorderHighlightFocusColor,
	}

	items := p.Items()
	active := p.ActiveItem()
	cfg.TopLeft = tabs(items, active)

	switch it := active.(type) {
	case *workspace.Editor:
		if ev, ok := m.editors[it.ItemID()]; ok {
			cfg.Content = ev.View()
			cfg.BottomRight = fmt.Sprintf("%d%%", int(ev.ScrollPercent()*100))
		}
		cfg.BottomLeft = grammarName(it.Document().Grammar())
		if v, ok := m.svc.Controller.View(it.Document().Path()); ok && !v.Destroyed() {
			cfg.TopRight = "previewing"
		}
	case *preview.View:
		if pv, ok := m.previews[it.ItemID()]; ok {
			cfg.Content = pv.View()
			cfg.BottomLeft, cfg.BottomRight = pv.Status()
		}
		cfg.TopRight = string(m.svc.Controller.Format())
	default:
		cfg.Content = styles.EmptyStyle.Render(emptyPaneText)
	}
	return panes.BorderedPane(cfg)
}

// tabs lists item titles, highlighting the active one.
func tabs(items []workspace.Item, active workspace.Item) string {
	titles := make([]string, len(items))
	for i, it := range items {
		if it == active {
			titles[i] = styles.TabActiveStyle.Render(it.Title())
		} else {
			titles[i] = styles.TabInactiveStyle.Render(it.Title())
		}
	}
	return strings.Join(titles, " | ")
}

func grammarName(g *grammar.Grammar) string {
	if g == nil {
		return grammar.Null.Name
	}
	return g.Name
}
