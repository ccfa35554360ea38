// Package app contains the root application model.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/pumlview/internal/config"
	"github.com/zjrosen/pumlview/internal/keys"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/pubsub"
	"github.com/zjrosen/pumlview/internal/store"
	"github.com/zjrosen/pumlview/internal/ui/editorview"
	"github.com/zjrosen/pumlview/internal/ui/previewview"
	"github.com/zjrosen/pumlview/internal/ui/styles"
	"github.com/zjrosen/pumlview/internal/ui/toaster"
	"github.com/zjrosen/pumlview/internal/watcher"
	"github.com/zjrosen/pumlview/internal/workspace"
)

// toastDuration is how long a toast stays on screen.
const toastDuration = 3 * time.Second

// Services are the collaborators the model drives. Workspace and
// Controller are required; the rest may be nil.
type Services struct {
	Config     config.Config
	ConfigPath string // where format changes are saved; empty disables saving

	Workspace  *workspace.Workspace
	Controller *preview.Controller
	Watcher    *watcher.Watcher
	Recorder   *store.Recorder
	Previews   store.PreviewRepository // previews to reopen at start

	// Files are opened in editors at start, in order.
	Files []string
}

// Model is the root application state.
type Model struct {
	svc  Services
	keys keys.KeyMap

	width  int
	height int

	editors  map[string]editorview.Model
	previews map[string]previewview.Model

	spinner  spinner.Model
	ticking  bool
	inFlight int

	help     help.Model
	showHelp bool
	toaster  toaster.Model

	// Event subscriptions live until Close.
	ctx             context.Context
	cancel          context.CancelFunc
	previewListener *pubsub.ContinuousListener[preview.Event]
	watchListener   *pubsub.ContinuousListener[string]
	recorderDone    *sync.WaitGroup
}

// New creates the application model and starts the history recorder.
func New(svc Services) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	m := Model{
		svc:             svc,
		keys:            keys.DefaultKeyMap(),
		editors:         make(map[string]editorview.Model),
		previews:        make(map[string]previewview.Model),
		spinner:         sp,
		help:            help.New(),
		toaster:         toaster.New(),
		ctx:             ctx,
		cancel:          cancel,
		previewListener: pubsub.NewContinuousListener[preview.Event](ctx, svc.Controller.Events()),
		recorderDone:    &sync.WaitGroup{},
	}

	if svc.Watcher != nil {
		m.watchListener = pubsub.NewContinuousListener[string](ctx, svc.Watcher.Events())
	}

	if svc.Recorder != nil {
		events := svc.Controller.Events().Subscribe(ctx)
		m.recorderDone.Add(1)
		go func() {
			defer m.recorderDone.Done()
			svc.Recorder.Run(events)
		}()
	}

	return m
}

// Init opens the start files, restores the last session and starts
// listening for preview and watcher events.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.previewListener.Listen()}
	if m.watchListener != nil {
		cmds = append(cmds, m.watchListener.Listen())
	}
	if len(m.svc.Files) > 0 {
		cmds = append(cmds, m.openFilesCmd(m.svc.Files))
	}
	if m.svc.Previews != nil && m.svc.Config.Preview.RestoreSession {
		cmds = append(cmds, m.restoreCmd())
	}
	return tea.Batch(cmds...)
}

// Close stops listeners and the recorder, then closes every preview.
// Previews are closed after the recorder stops so the session they form is
// still stored for the next start.
func (m *Model) Close() error {
	m.cancel()
	m.recorderDone.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := m.svc.Controller.CloseAll(ctx)
	if err != nil {
		log.ErrorErr(log.CatPreview, "Failed to close previews", err)
	}

	if m.svc.Watcher != nil {
		if werr := m.svc.Watcher.Stop(); werr != nil {
			log.ErrorErr(log.CatWatcher, "Failed to stop watcher", werr)
		}
	}
	m.svc.Controller.Close()
	return err
}
