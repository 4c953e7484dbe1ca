package loader

import (
	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/samber/oops"
)

// ToDiagnostic maps a Loader error (always an oops error, coded at
// the point it was raised) onto the stable MQL-RUN-#### diagnostics
// spec §6 promises callers, per SPEC_FULL.md's ambient-errors rule:
// internal errors use oops, but they are never handed to a caller
// directly — they get converted to Diagnostic at this boundary.
func ToDiagnostic(err error) diag.Diagnostic {
	code := ""
	if oe, ok := oops.AsOops(err); ok {
		code = oe.Code()
	}
	span := diag.Span{}
	switch code {
	case "FILE_READ_FAILED":
		return diag.New(diag.Error, diag.CodeFileReadFailed, "could not read the document from disk", err.Error(), span, "")
	case "URL_FETCH_FAILED":
		return diag.New(diag.Error, diag.CodeURLFetchFailed, "could not fetch the document over HTTP", err.Error(), span, "")
	case "CONTENT_TYPE_BAD":
		return diag.New(diag.Error, diag.CodeContentTypeBad, "the fetched document is not HTML/text", err.Error(), span, "")
	case "LOADER_TIMEOUT":
		return diag.New(diag.Error, diag.CodeLoaderTimeout, "loading the document exceeded its timeout", "increase --timeout-ms or check the source's availability", span, "")
	default:
		return diag.New(diag.Error, diag.CodeFileReadFailed, "failed to load the document", err.Error(), span, "")
	}
}
