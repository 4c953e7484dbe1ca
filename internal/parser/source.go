package parser

import (
	"strconv"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/token"
)

// From := 'FROM' Source ['AS' Ident]
func (p *Parser) parseFromClause() (*ast.Source, bool) {
	p.advance() // FROM
	return p.parseSource()
}

// Source := 'DOCUMENT'|'DOC' | Ident (CteRef) | String (Path|Url heuristic)
//         | 'RAW' '(' String ')' | 'PARSE' '(' (ScalarExpr|SelectStmt) ')'
//         | 'FRAGMENTS' '(' (Raw|SelectStmt) ')' | '(' SelectStmt ')'
func (p *Parser) parseSource() (*ast.Source, bool) {
	start := p.cur()
	src := &ast.Source{}

	switch {
	case p.peekKind(token.Document):
		p.advance()
		src.Kind = ast.SrcDocument

	case p.peekKind(token.Raw):
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		v, ok := p.expect(token.String, "a string literal")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		src.Kind = ast.SrcRawHTML
		src.RawHTML = v.Lit

	case p.peekKind(token.Parse):
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		src.Kind = ast.SrcParse
		if p.peekKind(token.Select) {
			sub := p.parseSelectStmt()
			if sub == nil {
				return nil, false
			}
			src.ParseQuery = sub
		} else {
			expr, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			src.ParseExpr = expr
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}

	case p.peekKind(token.Fragments):
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		src.Kind = ast.SrcFragments
		if p.peekKind(token.Select) {
			sub := p.parseSelectStmt()
			if sub == nil {
				return nil, false
			}
			src.FragmentsQuery = sub
		} else {
			expr, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			src.FragmentsExpr = expr
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}

	case p.peekKind(token.LParen):
		p.advance()
		sub := p.parseSelectStmt()
		if sub == nil {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		src.Kind = ast.SrcDerivedSubquery
		src.Subquery = sub
		// Derived tables require an alias (spec §4.2).
		if !p.peekKind(token.As) {
			p.failAtCur(diag.CodeDerivedNeedsAlias, "a derived table must have an alias", "add AS <name> after the closing parenthesis")
			return nil, false
		}

	case p.peekKind(token.String):
		v := p.advance()
		if looksLikeURL(v.Lit) {
			src.Kind = ast.SrcURL
			src.URL = v.Lit
		} else {
			src.Kind = ast.SrcPath
			src.Path = v.Lit
		}

	case p.peekKind(token.Ident):
		t := p.advance()
		src.Kind = ast.SrcCteRef
		src.CteName = t.Lit

	default:
		p.failAtCur(diag.CodeUnexpectedToken, "expected a FROM source", "use DOCUMENT, a quoted path/URL, RAW(...), PARSE(...), FRAGMENTS(...), a CTE name, or a derived subquery")
		return nil, false
	}

	if p.peekKind(token.As) {
		p.advance()
		aliasTok, ok := p.expect(token.Ident, "an alias")
		if !ok {
			return nil, false
		}
		src.Alias = aliasTok.Lit
	}

	src.Span = span(start, p.prevTok())
	return src, true
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func (p *Parser) startsJoin() bool {
	switch p.cur().Kind {
	case token.Join, token.Left, token.Inner, token.Cross:
		return true
	}
	return false
}

// Join := [Type] 'JOIN' ['LATERAL'] Source 'AS' Ident ['ON' Expr]
func (p *Parser) parseJoin() (*ast.Join, bool) {
	start := p.cur()
	j := &ast.Join{Kind: ast.JoinInner}

	switch p.cur().Kind {
	case token.Left:
		p.advance()
		j.Kind = ast.JoinLeft
	case token.Inner:
		p.advance()
		j.Kind = ast.JoinInner
	case token.Cross:
		p.advance()
		j.Kind = ast.JoinCross
	}

	if _, ok := p.expect(token.Join, "JOIN"); !ok {
		return nil, false
	}

	if p.peekKind(token.Lateral) {
		p.advance()
		j.Lateral = true
	}

	right, ok := p.parseSource()
	if !ok {
		return nil, false
	}
	j.Right = right

	if j.Lateral && right.Alias == "" {
		p.fail(diag.CodeLateralNeedsAlias, "a LATERAL join source must have an alias", "add AS <name> to the joined source", diag.Span{Start: start.Offset, End: p.prevTok().End})
		return nil, false
	}

	if p.peekKind(token.On) {
		if j.Kind == ast.JoinCross {
			onTok := p.cur()
			p.fail(diag.CodeCrossJoinWithOn, "CROSS JOIN may not have an ON clause", "remove the ON clause or change CROSS JOIN to an INNER/LEFT JOIN", diag.Span{Start: onTok.Offset, End: onTok.End})
			return nil, false
		}
		p.advance()
		on, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		j.On = on
	} else if j.Kind != ast.JoinCross {
		p.fail(diag.CodeJoinWithoutOn, "non-CROSS joins require an ON clause", "add ON <condition> after the joined source", diag.Span{Start: start.Offset, End: p.prevTok().End})
		return nil, false
	}

	j.Span = span(start, p.prevTok())
	return j, true
}

// OrderBy := 'ORDER' 'BY' OrderKey (',' OrderKey)*
func (p *Parser) parseOrderBy() ([]ast.OrderKey, bool) {
	p.advance() // ORDER
	if _, ok := p.expect(token.By, "BY"); !ok {
		return nil, false
	}
	var keys []ast.OrderKey
	for {
		fieldTok, ok := p.expect(token.Ident, "a field name")
		if !ok {
			return nil, false
		}
		field := fieldTok.Lit
		if p.peekKind(token.Dot) {
			p.advance()
			sub, ok := p.expect(token.Ident, "a field name")
			if !ok {
				return nil, false
			}
			field = fieldTok.Lit + "." + sub.Lit
		}
		k := ast.OrderKey{Field: field}
		switch p.cur().Kind {
		case token.Asc:
			p.advance()
		case token.Desc:
			p.advance()
			k.Descending = true
		}
		keys = append(keys, k)
		if p.peekKind(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return keys, true
}

// Exclude := 'EXCLUDE' '(' Ident (',' Ident)* ')'
func (p *Parser) parseExclude() ([]string, bool) {
	p.advance() // EXCLUDE
	if _, ok := p.expect(token.LParen, "("); !ok {
		return nil, false
	}
	var fields []string
	for {
		t, ok := p.expect(token.Ident, "a field name")
		if !ok {
			return nil, false
		}
		fields = append(fields, t.Lit)
		if p.peekKind(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, ")"); !ok {
		return nil, false
	}
	return fields, true
}

// To := 'TO' ( 'LIST' '(' ')' | 'TABLE' '(' TableOpt* ')'
//            | ('CSV'|'PARQUET'|'JSON'|'NDJSON') '(' String ')' )
func (p *Parser) parseTo(q *ast.Query) bool {
	p.advance() // TO
	switch p.cur().Kind {
	case token.List:
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return false
		}
		q.ToList = true
		return true

	case token.Table:
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return false
		}
		for !p.peekKind(token.RParen) {
			if !p.parseTableOption(q) {
				return false
			}
			if p.peekKind(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return false
		}
		q.ToTable = true
		return true

	case token.Csv, token.Parquet, token.Json, token.Ndjson:
		kindTok := p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return false
		}
		pathTok, ok := p.expect(token.String, "an output path")
		if !ok {
			return false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return false
		}
		switch kindTok.Kind {
		case token.Csv:
			q.ExportSinkKind = ast.SinkCsv
		case token.Parquet:
			q.ExportSinkKind = ast.SinkParquet
		case token.Json:
			q.ExportSinkKind = ast.SinkJson
		case token.Ndjson:
			q.ExportSinkKind = ast.SinkNdjson
		}
		q.ExportSinkPath = pathTok.Lit
		return true

	default:
		p.failAtCur(diag.CodeUnexpectedToken, "expected LIST, TABLE, CSV, PARQUET, JSON or NDJSON after TO", "")
		return false
	}
}

func (p *Parser) parseTableOption(q *ast.Query) bool {
	nameTok, ok := p.expect(token.Ident, "a table option name")
	if !ok {
		return false
	}
	if _, ok := p.expect(token.Eq, "="); !ok {
		return false
	}
	name := strings.ToUpper(nameTok.Lit)
	switch name {
	case "HEADER":
		v, ok := p.expectBool()
		if !ok {
			return false
		}
		q.TableOptions.Header = v
	case "NORMALIZE":
		v, ok := p.expectBool()
		if !ok {
			return false
		}
		q.TableOptions.Normalize = v
	case "TRIM_EMPTY_ROWS":
		v, ok := p.expectBool()
		if !ok {
			return false
		}
		q.TableOptions.TrimEmptyRows = v
	case "TRIM_EMPTY_COLS":
		t, ok := p.expect(token.Ident, "OFF, TRAILING or ALL")
		if !ok {
			return false
		}
		switch strings.ToUpper(t.Lit) {
		case "OFF":
			q.TableOptions.TrimEmptyCols = ast.TrimOff
		case "TRAILING":
			q.TableOptions.TrimEmptyCols = ast.TrimTrailing
		case "ALL":
			q.TableOptions.TrimEmptyCols = ast.TrimAll
		default:
			p.fail(diag.CodeUnexpectedToken, "invalid TRIM_EMPTY_COLS value", "", diag.Span{Start: t.Offset, End: t.End})
			return false
		}
	case "EMPTY_IS":
		t, ok := p.expect(token.Ident, "BLANK_OR_NULL, NULL_ONLY or BLANK_ONLY")
		if !ok {
			return false
		}
		switch strings.ToUpper(t.Lit) {
		case "BLANK_OR_NULL":
			q.TableOptions.EmptyIs = ast.BlankOrNull
		case "NULL_ONLY":
			q.TableOptions.EmptyIs = ast.NullOnly
		case "BLANK_ONLY":
			q.TableOptions.EmptyIs = ast.BlankOnly
		default:
			p.fail(diag.CodeUnexpectedToken, "invalid EMPTY_IS value", "", diag.Span{Start: t.Offset, End: t.End})
			return false
		}
	case "STOP_AFTER_EMPTY_ROWS":
		v, ok := p.expect(token.Int, "an integer")
		if !ok {
			return false
		}
		q.TableOptions.StopAfterEmptyRows, _ = strconv.Atoi(v.Lit)
	case "FORMAT":
		t, ok := p.expect(token.Ident, "RECT or SPARSE")
		if !ok {
			return false
		}
		switch strings.ToUpper(t.Lit) {
		case "RECT":
			q.TableOptions.Format = ast.FormatRect
		case "SPARSE":
			q.TableOptions.Format = ast.FormatSparse
		default:
			p.fail(diag.CodeUnexpectedToken, "invalid FORMAT value", "", diag.Span{Start: t.Offset, End: t.End})
			return false
		}
	case "SPARSE_SHAPE":
		t, ok := p.expect(token.Ident, "LONG or WIDE")
		if !ok {
			return false
		}
		switch strings.ToUpper(t.Lit) {
		case "LONG":
			q.TableOptions.SparseShape = ast.SparseLong
		case "WIDE":
			q.TableOptions.SparseShape = ast.SparseWide
		default:
			p.fail(diag.CodeUnexpectedToken, "invalid SPARSE_SHAPE value", "", diag.Span{Start: t.Offset, End: t.End})
			return false
		}
	default:
		p.fail(diag.CodeUnexpectedToken, "unknown table option "+strconv.Quote(nameTok.Lit), "", diag.Span{Start: nameTok.Offset, End: nameTok.End})
		return false
	}
	return true
}

func (p *Parser) expectBool() (bool, bool) {
	t, ok := p.expect(token.Ident, "TRUE or FALSE")
	if !ok {
		return false, false
	}
	switch strings.ToUpper(t.Lit) {
	case "TRUE":
		return true, true
	case "FALSE":
		return false, true
	default:
		p.fail(diag.CodeUnexpectedToken, "expected TRUE or FALSE", "", diag.Span{Start: t.Offset, End: t.End})
		return false, false
	}
}
