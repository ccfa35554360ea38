// Package preview opens, closes and renders diagram previews for source
// documents shown in the workspace.
package preview

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/semaphore"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/pubsub"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/tracing"
	"github.com/zjrosen/pumlview/internal/workspace"
)

// Host is the display surface previews are shown on.
type Host interface {
	OpenDocument(ctx context.Context, path string) (*document.Document, error)
	PresentInSecondaryPane(ctx context.Context, item workspace.Item) error
	DestroyFromPane(ctx context.Context, item workspace.Item) error
}

// State is a document's preview state.
type State int

const (
	NoPreview State = iota
	PreviewOpen
)

func (s State) String() string {
	if s == PreviewOpen {
		return "preview-open"
	}
	return "no-preview"
}

// Event is the payload published on the controller's broker.
type Event struct {
	Path       string
	ViewID     string
	Backend    string
	Format     render.Format
	Bytes      int
	Version    int
	Duration   time.Duration
	Diagnostic string
	Changes    string
}

// ToggleResult describes what a toggle did. View is nil after a close.
type ToggleResult struct {
	View   *View
	Opened bool
	// RenderErr is the outcome of the initial render of an opened view.
	RenderErr error
}

// Options configures a Controller.
type Options struct {
	Backend render.Backend
	Format  render.Format
	// Timeout bounds a single render; zero means no limit.
	Timeout time.Duration
	// ExtraScopes are grammar scopes previewable in addition to PlantUML,
	// plain text and the null grammar.
	ExtraScopes []string
	Tracer      trace.Tracer
}

type binding struct {
	doc  *document.Document
	view *View
}

// Controller keeps at most one live preview per document.
type Controller struct {
	host        Host
	backend     render.Backend
	timeout     time.Duration
	previewable map[string]struct{}
	tracer      trace.Tracer
	events      *pubsub.Broker[Event]

	mu       sync.Mutex
	format   render.Format
	bindings map[string]*binding
	locks    map[string]*semaphore.Weighted
}

// NewController creates a controller presenting views on host.
func NewController(host Host, opts Options) *Controller {
	format := opts.Format
	if format == "" {
		format = render.FormatUTXT
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("noop")
	}

	previewable := map[string]struct{}{
		grammar.ScopePlantUML:  {},
		grammar.ScopePlainText: {},
		grammar.ScopeNull:      {},
	}
	for _, s := range opts.ExtraScopes {
		previewable[s] = struct{}{}
	}

	return &Controller{
		host:        host,
		backend:     opts.Backend,
		format:      format,
		timeout:     opts.Timeout,
		previewable: previewable,
		tracer:      tracer,
		events:      pubsub.NewBroker[Event](),
		bindings:    make(map[string]*binding),
		locks:       make(map[string]*semaphore.Weighted),
	}
}

// Events publishes opened, closed, rendered and render-failed events.
func (c *Controller) Events() *pubsub.Broker[Event] { return c.events }

// Format is the output format views are rendered in.
func (c *Controller) Format() render.Format {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.format
}

// SetFormat changes the format of subsequent renders. Output already shown
// stays until the view is rendered again.
func (c *Controller) SetFormat(f render.Format) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.format = f
}

// IsPreviewable reports whether doc's grammar can be previewed. A nil
// grammar counts as the null grammar.
func (c *Controller) IsPreviewable(doc *document.Document) bool {
	if doc == nil {
		return false
	}
	_, ok := c.previewable[grammar.Scope(doc.Grammar())]
	return ok
}

// View returns the live view bound to path.
func (c *Controller) View(path string) (*View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.bindings[path]
	if !ok || b.view.Destroyed() {
		return nil, false
	}
	return b.view, true
}

// Views returns every live view ordered by document path.
func (c *Controller) Views() []*View {
	c.mu.Lock()
	defer c.mu.Unlock()
	paths := make([]string, 0, len(c.bindings))
	for p, b := range c.bindings {
		if !b.view.Destroyed() {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	views := make([]*View, len(paths))
	for i, p := range paths {
		views[i] = c.bindings[p].view
	}
	return views
}

// State returns the preview state of the document at path.
func (c *Controller) State(path string) State {
	if _, ok := c.View(path); ok {
		return PreviewOpen
	}
	return NoPreview
}

// lockFor returns the FIFO semaphore serializing toggles on path.
func (c *Controller) lockFor(path string) *semaphore.Weighted {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[path]
	if !ok {
		l = semaphore.NewWeighted(1)
		c.locks[path] = l
	}
	return l
}

type toggleMode int

const (
	modeToggle toggleMode = iota
	modeOpen
	modeClose
)

// Toggle opens a preview for doc, or closes the one already open. The
// preview appears in the secondary pane without moving focus. An opened
// view is rendered once before Toggle returns; a failed render leaves the
// view open and is reported in ToggleResult.RenderErr.
func (c *Controller) Toggle(ctx context.Context, doc *document.Document) (ToggleResult, error) {
	return c.apply(ctx, doc, modeToggle)
}

// Open is Toggle that leaves an existing preview alone. The result carries
// the existing view with Opened false.
func (c *Controller) Open(ctx context.Context, doc *document.Document) (ToggleResult, error) {
	return c.apply(ctx, doc, modeOpen)
}

// ClosePreview destroys doc's preview if one is open.
func (c *Controller) ClosePreview(ctx context.Context, doc *document.Document) error {
	_, err := c.apply(ctx, doc, modeClose)
	return err
}

func (c *Controller) apply(ctx context.Context, doc *document.Document, mode toggleMode) (ToggleResult, error) {
	if doc == nil {
		return ToggleResult{}, ErrNilDocument
	}

	path := doc.Path()
	scope := grammar.Scope(doc.Grammar())
	ctx, span := c.tracer.Start(ctx, tracing.SpanToggle, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, path),
		attribute.String(tracing.AttrGrammarScope, scope),
	))
	defer span.End()

	if !c.IsPreviewable(doc) {
		err := &UnsupportedContentError{Path: path, Scope: scope}
		log.Debug(log.CatPreview, "toggle ignored", "path", path, "grammar", scope)
		tracing.RecordError(span, err, "unsupported_content")
		return ToggleResult{}, err
	}

	lock := c.lockFor(path)
	if err := lock.Acquire(ctx, 1); err != nil {
		tracing.RecordError(span, err, "cancelled")
		return ToggleResult{}, err
	}
	span.AddEvent(tracing.EventLockAcquired)
	view, opened, err := c.transitionLocked(ctx, doc, mode)
	lock.Release(1)

	if err != nil {
		log.ErrorErr(log.CatPreview, "toggle failed", err, "path", path)
		tracing.RecordError(span, err, "host_operation")
		return ToggleResult{}, err
	}
	tracing.RecordError(span, nil, "")

	switch {
	case view == nil:
		span.SetAttributes(attribute.String(tracing.AttrToggleAction, "none"))
		return ToggleResult{}, nil
	case !opened && mode == modeOpen:
		span.SetAttributes(attribute.String(tracing.AttrToggleAction, "none"))
		return ToggleResult{View: view}, nil
	case !opened:
		span.SetAttributes(
			attribute.String(tracing.AttrToggleAction, "close"),
			attribute.String(tracing.AttrViewID, view.ID()),
		)
		log.Info(log.CatPreview, "preview closed", "path", path, "view", view.ID())
		c.events.Publish(pubsub.ClosedEvent, Event{Path: path, ViewID: view.ID()})
		return ToggleResult{}, nil
	}

	span.SetAttributes(
		attribute.String(tracing.AttrToggleAction, "open"),
		attribute.String(tracing.AttrViewID, view.ID()),
	)
	log.Info(log.CatPreview, "preview opened", "path", path, "view", view.ID())
	c.events.Publish(pubsub.OpenedEvent, Event{Path: path, ViewID: view.ID()})
	renderErr := c.Render(ctx, view)
	return ToggleResult{View: view, Opened: true, RenderErr: renderErr}, nil
}

// transitionLocked runs with path's semaphore held. Bindings change only
// after the host call succeeded. It returns the affected view, or nil when
// mode asked for nothing to happen.
func (c *Controller) transitionLocked(ctx context.Context, doc *document.Document, mode toggleMode) (*View, bool, error) {
	path := doc.Path()

	if live, ok := c.View(path); ok {
		if mode == modeOpen {
			return live, false, nil
		}
		if err := c.host.DestroyFromPane(ctx, live); err != nil {
			return nil, false, &HostError{Op: OpDestroy, Path: path, Err: err}
		}
		live.Destroy()
		c.mu.Lock()
		delete(c.bindings, path)
		c.mu.Unlock()
		return live, false, nil
	}
	if mode == modeClose {
		return nil, false, nil
	}

	view := newView(doc)
	if err := c.host.PresentInSecondaryPane(ctx, view); err != nil {
		view.Destroy()
		return nil, false, &HostError{Op: OpPresent, Path: path, Err: err}
	}
	c.mu.Lock()
	c.bindings[path] = &binding{doc: doc, view: view}
	c.mu.Unlock()
	return view, true, nil
}

// Render renders view's document with its current text. The newest render
// of a view wins: starting one cancels the previous, and a render that was
// superseded or whose view was destroyed returns nil without touching the
// view. On failure the previous output stays and the diagnostic is stored.
func (c *Controller) Render(ctx context.Context, view *View) error {
	if view == nil {
		return ErrViewClosed
	}
	doc := view.Document()
	path := doc.Path()
	format := c.Format()

	ctx, span := c.tracer.Start(ctx, tracing.SpanRender, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, path),
		attribute.String(tracing.AttrViewID, view.ID()),
		attribute.String(tracing.AttrBackend, c.backend.Name()),
		attribute.String(tracing.AttrFormat, string(format)),
	))
	defer span.End()

	rctx, gen, err := view.beginRender(ctx, c.timeout)
	if err != nil {
		tracing.RecordError(span, err, "view_closed")
		return err
	}
	span.SetAttributes(attribute.Int64(tracing.AttrGeneration, int64(gen)))

	source, version := doc.Text(), doc.Version()
	start := time.Now()
	out, renderErr := c.backend.Render(rctx, source, format)
	elapsed := time.Since(start)

	if !view.finishRender(gen, version, out, renderErr) {
		log.Debug(log.CatRender, "discarding stale render", "path", path, "generation", gen)
		span.AddEvent(tracing.EventStaleResult)
		return nil
	}

	evt := Event{
		Path:     path,
		ViewID:   view.ID(),
		Backend:  c.backend.Name(),
		Format:   format,
		Version:  version,
		Duration: elapsed,
	}
	if renderErr != nil {
		err := &RenderError{Path: path, Err: renderErr}
		evt.Diagnostic = view.Diagnostic()
		log.Warn(log.CatRender, "render failed", "path", path, "error", renderErr, "duration", elapsed)
		tracing.RecordError(span, err, "render_failure")
		c.events.Publish(pubsub.RenderFailedEvent, evt)
		return err
	}

	evt.Bytes = len(out.Data)
	evt.Changes = view.Changes()
	span.SetAttributes(attribute.Int(tracing.AttrOutputBytes, evt.Bytes))
	tracing.RecordError(span, nil, "")
	log.Debug(log.CatRender, "rendered", "path", path, "bytes", evt.Bytes, "duration", elapsed)
	c.events.Publish(pubsub.RenderedEvent, evt)
	return nil
}

// Refresh re-renders the preview bound to path. It is a no-op when the
// document has no preview, including one closed while Refresh runs.
func (c *Controller) Refresh(ctx context.Context, path string) error {
	view, ok := c.View(path)
	if !ok {
		return nil
	}
	ctx, span := c.tracer.Start(ctx, tracing.SpanRefresh, trace.WithAttributes(
		attribute.String(tracing.AttrDocumentPath, path),
	))
	defer span.End()
	if err := c.Render(ctx, view); !errors.Is(err, ErrViewClosed) {
		return err
	}
	return nil
}

// Show opens the document at path through the host and makes sure it is
// previewed.
func (c *Controller) Show(ctx context.Context, path string) (*View, error) {
	doc, err := c.host.OpenDocument(ctx, path)
	if err != nil {
		return nil, &HostError{Op: OpOpen, Path: path, Err: err}
	}
	res, err := c.Open(ctx, doc)
	if err != nil {
		return nil, err
	}
	return res.View, res.RenderErr
}

// CloseAll closes every live preview.
func (c *Controller) CloseAll(ctx context.Context) error {
	var errs []error
	for _, v := range c.Views() {
		if err := c.ClosePreview(ctx, v.Document()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close shuts down the event broker.
func (c *Controller) Close() {
	c.events.Close()
}
