package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span names.
const (
	SpanToggle  = "preview.toggle"
	SpanRender  = "preview.render"
	SpanRefresh = "preview.refresh"
)

// Span attribute keys.
const (
	AttrDocumentPath = "document.path"
	AttrGrammarScope = "document.grammar"
	AttrViewID       = "view.id"
	AttrToggleAction = "toggle.action"
	AttrGeneration   = "render.generation"
	AttrBackend      = "render.backend"
	AttrFormat       = "render.format"
	AttrOutputBytes  = "render.bytes"
	AttrErrorType    = "error.type"
)

// Event names.
const (
	EventLockAcquired = "lock.acquired"
	EventStaleResult  = "render.stale"
)

// RecordError marks span failed with err. A nil err marks it OK.
func RecordError(span trace.Span, err error, errType string) {
	if err == nil {
		span.SetStatus(codes.Ok, "")
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	if errType != "" {
		span.SetAttributes(attribute.String(AttrErrorType, errType))
	}
}
