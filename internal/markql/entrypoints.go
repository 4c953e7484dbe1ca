package markql

import (
	"context"
	"fmt"
	"time"

	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/execnode"
	"github.com/darhnoel/markql-sub000/internal/execrel"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/loader"
	"github.com/darhnoel/markql-sub000/internal/prepare"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// SourceDescriptorKind discriminates execute_query_with_loader's
// source_descriptor union (spec §6).
type SourceDescriptorKind int

const (
	Inline SourceDescriptorKind = iota
	Path
	Url
)

// SourceDescriptor is Inline(bytes) | Path | Url from spec §6.
type SourceDescriptor struct {
	Kind  SourceDescriptorKind
	Bytes []byte
	URI   string
}

// ExecuteQuery is spec §6's execute_query(html_bytes, source_uri,
// query_text) -> QueryResult, using the Engine's default Loader for
// any FROM PATH/URL the query text itself names.
func (e *Engine) ExecuteQuery(ctx context.Context, htmlBytes []byte, sourceURI, queryText string) (*result.QueryResult, []diag.Diagnostic) {
	return e.execute(ctx, string(htmlBytes), sourceURI, queryText)
}

// ExecuteQueryWithLoader is spec §6's execute_query_with_loader
// (source_descriptor, query_text, timeout_ms) -> QueryResult: the
// descriptor supplies the base document instead of inline bytes, and
// timeoutMs bounds both the descriptor fetch and any Loader call the
// query text triggers itself.
func (e *Engine) ExecuteQueryWithLoader(ctx context.Context, src SourceDescriptor, queryText string, timeoutMs int) (*result.QueryResult, []diag.Diagnostic) {
	if timeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
		defer cancel()
	}

	var html, sourceURI string
	switch src.Kind {
	case Inline:
		html, sourceURI = string(src.Bytes), src.URI
	case Path, Url:
		fetched, err := e.Loader.Load(ctx, src.URI)
		if err != nil {
			return nil, []diag.Diagnostic{loader.ToDiagnostic(err)}
		}
		html, sourceURI = fetched, src.URI
	}
	return e.execute(ctx, html, sourceURI, queryText)
}

func (e *Engine) execute(ctx context.Context, html, sourceURI, queryText string) (*result.QueryResult, []diag.Diagnostic) {
	start := time.Now()
	q, diags := compile(queryText)
	if q == nil {
		return nil, diags
	}

	baseDoc := htmldoc.ParseHTML(html, sourceURI)
	res, err := e.runQuery(ctx, baseDoc, sourceURI, q)
	if err != nil {
		return nil, append(diags, runtimeDiagnostic(err))
	}
	res.SourceURI = sourceURI
	res.ElapsedMs = time.Since(start).Milliseconds()
	res.Diagnostics = append(res.Diagnostics, diagnosticTexts(diags)...)
	return res, diags
}

// PrepareDocument is spec §6's prepare_document(html_bytes,
// source_uri) -> PreparedHandle: parse once, hand back an opaque
// handle execute_with_prepared can reuse.
func (e *Engine) PrepareDocument(htmlBytes []byte, sourceURI string) (*prepare.PreparedHandle, error) {
	return e.Cache.Prepare(string(htmlBytes), sourceURI)
}

// ExecuteWithPrepared is spec §6's execute_with_prepared(handle,
// query_text) -> QueryResult.
func (e *Engine) ExecuteWithPrepared(ctx context.Context, handleID, queryText string) (*result.QueryResult, []diag.Diagnostic) {
	start := time.Now()
	handle, ok := e.Cache.Get(handleID)
	if !ok {
		return nil, []diag.Diagnostic{diag.New(diag.Error, diag.CodeRuntimeFailure,
			fmt.Sprintf("no prepared document for handle %q", handleID),
			"call prepare_document again; prepared handles are evicted after the 8 most recent documents", diag.Span{}, "")}
	}

	q, diags := compile(queryText)
	if q == nil {
		return nil, diags
	}

	res, err := e.runQuery(ctx, handle.Doc, "", q)
	if err != nil {
		return nil, append(diags, runtimeDiagnostic(err))
	}
	res.SourceURI = handle.Doc.SourceURI
	res.ElapsedMs = time.Since(start).Milliseconds()
	res.Diagnostics = append(res.Diagnostics, diagnosticTexts(diags)...)
	return res, diags
}

// LintQuery is spec §6's lint_query(query_text) -> [Diagnostic]: parse
// and validate, never execute.
func LintQuery(queryText string) []diag.Diagnostic {
	_, diags := compile(queryText)
	return diags
}

// DiagnoseFailure is spec §6's diagnose_failure(query_text,
// error_message) -> [Diagnostic]: re-lint the query first, since a
// syntax/semantic diagnostic almost always explains a runtime failure
// better than the raw error string did; fall back to wrapping
// errorMessage only when linting found nothing wrong.
func DiagnoseFailure(queryText, errorMessage string) []diag.Diagnostic {
	diags := LintQuery(queryText)
	if len(diags) > 0 {
		return diags
	}
	return []diag.Diagnostic{diag.New(diag.Error, diag.CodeRuntimeFailure, errorMessage,
		"the query is syntactically and semantically valid; this failure happened while running it", diag.Span{}, "")}
}

func diagnosticTexts(diags []diag.Diagnostic) []string {
	if len(diags) == 0 {
		return nil
	}
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Text()
	}
	return out
}

// runtimeDiagnostic maps an execution-time error from the Loader or
// either executor onto the stable MQL-RUN-#### diagnostics spec §6
// promises callers.
func runtimeDiagnostic(err error) diag.Diagnostic {
	switch e := err.(type) {
	case execnode.ExecError:
		return diag.New(diag.Error, diag.CodeRuntimeFailure, e.Message, "", diag.Span{}, "")
	case execrel.ExecError:
		return diag.New(diag.Error, diag.CodeRuntimeFailure, e.Message, "", diag.Span{}, "")
	default:
		return loader.ToDiagnostic(err)
	}
}
