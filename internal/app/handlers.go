package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/pumlview/internal/config"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/pubsub"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/ui/toaster"
	"github.com/zjrosen/pumlview/internal/workspace"
)

// Results of work run off the update loop. Each one ends a unit of work
// started with startWork.
type (
	commandDoneMsg struct {
		name string
		err  error
	}
	filesOpenedMsg struct {
		err error
	}
	restoredMsg struct {
		count int
		err   error
	}
	exportedMsg struct {
		path string
		err  error
	}
	formatChangedMsg struct {
		format render.Format
		err    error
	}
	reloadedMsg struct {
		path    string
		changed bool
		err     error
	}
)

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m.layout(), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case spinner.TickMsg:
		return m.handleTick(msg)

	case pubsub.Event[preview.Event]:
		log.Debug(log.CatUI, "Preview event", "type", msg.Type, "path", msg.Payload.Path)
		return m.layout(), m.previewListener.Listen()

	case pubsub.Event[string]:
		log.Debug(log.CatWatcher, "File changed", "path", msg.Payload)
		var cmd tea.Cmd
		m, cmd = m.startWork(m.reloadCmd(msg.Payload))
		return m, tea.Batch(cmd, m.watchListener.Listen())

	case commandDoneMsg:
		m = m.finishWork()
		if msg.err != nil {
			m = m.showError(msg.err)
		}
		m.syncWatches()
		return m.layout(), m.toaster.ScheduleDismiss(toastDuration)

	case filesOpenedMsg:
		m = m.finishWork()
		if msg.err != nil {
			m = m.showError(msg.err)
		}
		m.syncWatches()
		return m.layout(), m.toaster.ScheduleDismiss(toastDuration)

	case restoredMsg:
		m = m.finishWork()
		switch {
		case msg.err != nil:
			m = m.showError(msg.err)
		case msg.count > 0:
			m.toaster = m.toaster.Show(fmt.Sprintf("Restored %d preview(s)", msg.count), toaster.StyleInfo)
		}
		m.syncWatches()
		return m.layout(), m.toaster.ScheduleDismiss(toastDuration)

	case exportedMsg:
		m = m.finishWork()
		if msg.err != nil {
			m = m.showError(msg.err)
		} else {
			m.toaster = m.toaster.Show("Exported "+msg.path, toaster.StyleSuccess)
		}
		return m.layout(), m.toaster.ScheduleDismiss(toastDuration)

	case formatChangedMsg:
		m = m.finishWork()
		if msg.err != nil {
			m = m.showError(msg.err)
		} else {
			m.toaster = m.toaster.Show("Format: "+string(msg.format), toaster.StyleInfo)
		}
		return m.layout(), m.toaster.ScheduleDismiss(toastDuration)

	case reloadedMsg:
		m = m.finishWork()
		if msg.err != nil {
			m = m.showError(msg.err)
			return m.layout(), m.toaster.ScheduleDismiss(toastDuration)
		}
		return m.layout(), nil

	case toaster.DismissMsg:
		m.toaster = m.toaster.Dismiss(msg)
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ws := m.svc.Workspace
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m.layout(), nil

	case key.Matches(msg, m.keys.TogglePreview):
		return m.startWork(m.dispatchCmd(preview.CommandToggle))

	case key.Matches(msg, m.keys.Refresh):
		return m.startWork(m.dispatchCmd(preview.CommandRefresh))

	case key.Matches(msg, m.keys.Export):
		return m.startWork(m.exportCmd())

	case key.Matches(msg, m.keys.CycleFormat):
		next := nextFormat(m.svc.Controller.Format())
		m.svc.Controller.SetFormat(next)
		return m.startWork(m.formatCmd(next))

	case key.Matches(msg, m.keys.NextPane):
		ws.FocusNextPane(1)
		return m.layout(), nil

	case key.Matches(msg, m.keys.PrevPane):
		ws.FocusNextPane(-1)
		return m.layout(), nil

	case key.Matches(msg, m.keys.NextItem):
		ws.ActivePane().CycleItem(1)
		return m.layout(), nil

	case key.Matches(msg, m.keys.PrevItem):
		ws.ActivePane().CycleItem(-1)
		return m.layout(), nil
	}
	return m.updateActiveItem(msg)
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if tea.MouseEvent(msg).IsWheel() {
		return m.updateActiveItem(msg)
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for i, p := range m.svc.Workspace.Panes() {
		if z := zone.Get(paneZoneID(i)); z != nil && z.InBounds(msg) {
			p.Activate()
			return m.layout(), nil
		}
	}
	return m, nil
}

// handleTick animates the spinner while work or renders are in flight.
func (m Model) handleTick(msg spinner.TickMsg) (tea.Model, tea.Cmd) {
	if m.inFlight == 0 && !m.anyRendering() {
		m.ticking = false
		return m.layout(), nil
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	if cmd != nil {
		m.ticking = true
	}
	return m.layout(), cmd
}

// updateActiveItem forwards scrolling to the focused item.
func (m Model) updateActiveItem(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch it := m.svc.Workspace.ActivePaneItem().(type) {
	case *workspace.Editor:
		if ev, ok := m.editors[it.ItemID()]; ok {
			m.editors[it.ItemID()], cmd = ev.Update(msg)
		}
	case *preview.View:
		if pv, ok := m.previews[it.ItemID()]; ok {
			m.previews[it.ItemID()], cmd = pv.Update(msg)
		}
	}
	return m, cmd
}

// startWork runs cmd and keeps the spinner going until it reports back.
func (m Model) startWork(cmd tea.Cmd) (Model, tea.Cmd) {
	m.inFlight++
	if m.ticking {
		return m, cmd
	}
	m.ticking = true
	return m, tea.Batch(cmd, m.spinner.Tick)
}

func (m Model) finishWork() Model {
	m.inFlight = max(m.inFlight-1, 0)
	return m
}

func (m Model) anyRendering() bool {
	for _, v := range m.svc.Controller.Views() {
		if v.Rendering() {
			return true
		}
	}
	return false
}

// showError turns err into a toast. Render failures are already shown in
// the preview itself.
func (m Model) showError(err error) Model {
	switch {
	case errors.Is(err, preview.ErrRenderFailure):
		return m
	case errors.Is(err, preview.ErrUnsupportedContent):
		m.toaster = m.toaster.Show(err.Error(), toaster.StyleWarn)
	case errors.Is(err, preview.ErrNilDocument):
		m.toaster = m.toaster.Show("Open a document first", toaster.StyleWarn)
	case errors.Is(err, preview.ErrNothingToExport):
		m.toaster = m.toaster.Show("Nothing rendered to export", toaster.StyleWarn)
	default:
		log.ErrorErr(log.CatUI, "Command failed", err)
		m.toaster = m.toaster.Show(err.Error(), toaster.StyleError)
	}
	return m
}

// syncWatches watches every open document.
func (m Model) syncWatches() {
	if m.svc.Watcher == nil {
		return
	}
	watching := make(map[string]bool)
	for _, p := range m.svc.Watcher.Watching() {
		watching[p] = true
	}
	for _, doc := range m.svc.Workspace.Documents() {
		if watching[doc.Path()] {
			continue
		}
		if err := m.svc.Watcher.Add(doc.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Warn(log.CatWatcher, "Failed to watch document", "path", doc.Path(), "error", err)
		}
	}
}

// nextFormat cycles through the render formats.
func nextFormat(f render.Format) render.Format {
	formats := render.Formats()
	for i, candidate := range formats {
		if candidate == f {
			return formats[(i+1)%len(formats)]
		}
	}
	return formats[0]
}

// saveFormat persists the format to the config file, when there is one.
func (m Model) saveFormat(f render.Format) error {
	if m.svc.ConfigPath == "" {
		return nil
	}
	if err := config.SetValue(m.svc.ConfigPath, []string{"render", "format"}, string(f)); err != nil {
		return fmt.Errorf("saving format: %w", err)
	}
	return nil
}
