// Package execnode implements the node-oriented executor (spec §4.5):
// the fast path for queries that read from a single implicit "doc"
// row per candidate node, with no JOIN/WITH/derived source in play.
package execnode

import (
	"context"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/htmldoc"
	"github.com/darhnoel/markql-sub000/internal/result"
)

// Executor runs a single ast.Query against an already-parsed document.
type Executor interface {
	Execute(ctx context.Context, doc *htmldoc.HtmlDocument, q *ast.Query) (*result.QueryResult, error)
}
