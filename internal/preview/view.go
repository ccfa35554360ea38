package preview

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/workspace"
)

// View is the pane item showing a document's rendered diagram. A view is
// bound to one document for its whole life and never reused.
type View struct {
	id  string
	doc *document.Document

	mu         sync.RWMutex
	output     *render.Output
	diagnostic string
	changes    string
	version    int
	renderedAt time.Time
	generation uint64
	cancel     context.CancelFunc
	destroyed  bool
}

var (
	_ workspace.Item      = (*View)(nil)
	_ workspace.Destroyer = (*View)(nil)
)

func newView(doc *document.Document) *View {
	return &View{id: uuid.NewString(), doc: doc}
}

// ID is unique per view.
func (v *View) ID() string { return v.id }

func (v *View) ItemID() string { return "preview:" + v.id }

func (v *View) Title() string { return v.doc.Title() + " Preview" }

// Document returns the bound document.
func (v *View) Document() *document.Document { return v.doc }

// Output is the last successful render, nil before the first one.
func (v *View) Output() *render.Output {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.output
}

// Diagnostic is the message of the last failed render, cleared by the next
// successful one.
func (v *View) Diagnostic() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.diagnostic
}

// Changes summarizes the difference between the last two text renders.
func (v *View) Changes() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.changes
}

// RenderedVersion is the document version of the current output.
func (v *View) RenderedVersion() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.version
}

// RenderedAt is when the current output or diagnostic was produced.
func (v *View) RenderedAt() time.Time {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.renderedAt
}

// Rendering reports whether a render is in flight.
func (v *View) Rendering() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cancel != nil
}

// Destroyed reports whether the view has been torn down.
func (v *View) Destroyed() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.destroyed
}

// Destroy cancels any in-flight render. It is idempotent.
func (v *View) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.destroyed = true
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
}

// beginRender starts a new generation and cancels the previous render.
func (v *View) beginRender(ctx context.Context, timeout time.Duration) (context.Context, uint64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return nil, 0, ErrViewClosed
	}
	if v.cancel != nil {
		v.cancel()
	}

	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	v.generation++
	v.cancel = cancel
	return ctx, v.generation, nil
}

// finishRender applies a result when gen is still current. It reports
// whether the result was applied.
func (v *View) finishRender(gen uint64, version int, out *render.Output, err error) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed || gen != v.generation {
		return false
	}
	v.cancel()
	v.cancel = nil
	v.renderedAt = time.Now()

	if err != nil {
		v.diagnostic = render.Diagnostic(err)
		return true
	}
	v.changes = changeSummary(v.output.Text(), out.Text())
	v.output = out
	v.version = version
	v.diagnostic = ""
	return true
}
