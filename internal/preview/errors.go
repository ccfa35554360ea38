package preview

import (
	"errors"
	"fmt"
)

var (
	// ErrNilDocument is returned when toggling without a document.
	ErrNilDocument = errors.New("no document")
	// ErrUnsupportedContent matches *UnsupportedContentError.
	ErrUnsupportedContent = errors.New("content cannot be previewed")
	// ErrRenderFailure matches *RenderError.
	ErrRenderFailure = errors.New("render failed")
	// ErrHostOperation matches *HostError.
	ErrHostOperation = errors.New("host operation failed")
	// ErrViewClosed is returned when rendering a destroyed view.
	ErrViewClosed = errors.New("preview view is closed")
)

// UnsupportedContentError reports a document whose grammar has no preview.
// Nothing was changed.
type UnsupportedContentError struct {
	Path  string
	Scope string
}

func (e *UnsupportedContentError) Error() string {
	return fmt.Sprintf("%s: grammar %s cannot be previewed", e.Path, e.Scope)
}

func (e *UnsupportedContentError) Is(target error) bool { return target == ErrUnsupportedContent }

// RenderError wraps a backend failure. The view stays open with its
// previous output.
type RenderError struct {
	Path string
	Err  error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("rendering %s: %v", e.Path, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func (e *RenderError) Is(target error) bool { return target == ErrRenderFailure }

// Host operations named in HostError.Op.
const (
	OpOpen    = "open"
	OpPresent = "present"
	OpDestroy = "destroy"
)

// HostError reports a failed workspace call. The toggle was aborted and the
// binding left as it was.
type HostError struct {
	Op   string
	Path string
	Err  error
}

func (e *HostError) Error() string {
	return fmt.Sprintf("%s preview for %s: %v", e.Op, e.Path, e.Err)
}

func (e *HostError) Unwrap() error { return e.Err }

func (e *HostError) Is(target error) bool { return target == ErrHostOperation }
