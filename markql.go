// Package markql is the root-level re-export of spec §6's six entry
// points, for callers that want an import one level up from
// internal/markql without wiring an Engine themselves.
//
// The teacher exposed its graph engine the same way: a thin root
// package (PGraph, New, Load, LoadFile) wrapping internal collaborators
// so external callers never import internal/... directly.
package markql

import (
	"context"
	"time"

	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/loader"
	internalmarkql "github.com/darhnoel/markql-sub000/internal/markql"
	"github.com/darhnoel/markql-sub000/internal/prepare"
	"github.com/darhnoel/markql-sub000/internal/result"
)

type (
	QueryResult          = result.QueryResult
	Diagnostic           = diag.Diagnostic
	PreparedHandle       = prepare.PreparedHandle
	SourceDescriptor     = internalmarkql.SourceDescriptor
	SourceDescriptorKind = internalmarkql.SourceDescriptorKind
)

const (
	Inline = internalmarkql.Inline
	Path   = internalmarkql.Path
	Url    = internalmarkql.Url
)

// Engine is a ready-to-use MarkQL engine: the default file/HTTP Loader
// (spec §5) and an 8-entry prepared-document cache (spec §6).
type Engine struct {
	inner *internalmarkql.Engine
}

// New builds an Engine whose Loader enforces timeout for any PATH/URL
// source a query names.
func New(timeout time.Duration) *Engine {
	return &Engine{inner: internalmarkql.NewEngine(timeout)}
}

// NewWithLoader builds an Engine around a caller-supplied Loader.
func NewWithLoader(l loader.Loader) *Engine {
	return &Engine{inner: internalmarkql.NewEngineWithLoader(l)}
}

// ExecuteQuery is spec §6's execute_query(html_bytes, source_uri,
// query_text) -> QueryResult.
func (e *Engine) ExecuteQuery(ctx context.Context, htmlBytes []byte, sourceURI, queryText string) (*QueryResult, []Diagnostic) {
	return e.inner.ExecuteQuery(ctx, htmlBytes, sourceURI, queryText)
}

// ExecuteQueryWithLoader is spec §6's execute_query_with_loader
// (source_descriptor, query_text, timeout_ms) -> QueryResult.
func (e *Engine) ExecuteQueryWithLoader(ctx context.Context, src SourceDescriptor, queryText string, timeoutMs int) (*QueryResult, []Diagnostic) {
	return e.inner.ExecuteQueryWithLoader(ctx, src, queryText, timeoutMs)
}

// PrepareDocument is spec §6's prepare_document(html_bytes,
// source_uri) -> PreparedHandle.
func (e *Engine) PrepareDocument(htmlBytes []byte, sourceURI string) (*PreparedHandle, error) {
	return e.inner.PrepareDocument(htmlBytes, sourceURI)
}

// ExecuteWithPrepared is spec §6's execute_with_prepared(handle,
// query_text) -> QueryResult.
func (e *Engine) ExecuteWithPrepared(ctx context.Context, handleID, queryText string) (*QueryResult, []Diagnostic) {
	return e.inner.ExecuteWithPrepared(ctx, handleID, queryText)
}

// LintQuery is spec §6's lint_query(query_text) -> [Diagnostic].
func LintQuery(queryText string) []Diagnostic {
	return internalmarkql.LintQuery(queryText)
}

// DiagnoseFailure is spec §6's diagnose_failure(query_text,
// error_message) -> [Diagnostic].
func DiagnoseFailure(queryText, errorMessage string) []Diagnostic {
	return internalmarkql.DiagnoseFailure(queryText, errorMessage)
}
