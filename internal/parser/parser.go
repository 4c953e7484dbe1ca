// Package parser implements the MarkQL recursive-descent parser (spec
// §4.2). Parse never panics on malformed input: it stops at the first
// error and returns the diagnostic collected so far, with a precise span.
package parser

import (
	"strconv"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/lexer"
	"github.com/darhnoel/markql-sub000/internal/token"
)

// Parser holds the token stream and accumulated diagnostics for one
// statement.
type Parser struct {
	src    string
	toks   []token.Token
	pos    int
	diags  []diag.Diagnostic
	halted bool
}

// Parse lexes and parses src, returning the IR and any diagnostics. A
// non-empty diagnostic slice means q is nil or partially built and must
// not be executed.
func Parse(src string) (*ast.Query, []diag.Diagnostic) {
	p := &Parser{src: src, toks: lexer.New(src).Tokenize()}
	q := p.parseQuery()
	if p.halted {
		return nil, p.diags
	}
	return q, p.diags
}

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *Parser) peekKind(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 || t.Kind != token.EOF {
		p.pos++
	}
	return t
}

// fail records a syntax diagnostic and halts parsing.
func (p *Parser) fail(code, msg, help string, span diag.Span) {
	if p.halted {
		return
	}
	p.diags = append(p.diags, diag.New(diag.Error, code, msg, help, span, p.src))
	p.halted = true
}

func (p *Parser) failAtCur(code, msg, help string) {
	t := p.cur()
	p.fail(code, msg, help, diag.Span{Start: t.Offset, End: t.End})
}

func (p *Parser) expect(k token.Kind, human string) (token.Token, bool) {
	if p.halted {
		return token.Token{}, false
	}
	t := p.cur()
	if t.Kind == token.Invalid {
		if strings.HasPrefix(t.Lit, "/*") {
			p.fail(diag.CodeUnterminatedComment, "unterminated block comment", "close the comment with */", diag.Span{Start: t.Offset, End: t.End})
		} else {
			p.fail(diag.CodeUnexpectedToken, "unexpected character "+strconv.Quote(t.Lit), "", diag.Span{Start: t.Offset, End: t.End})
		}
		return token.Token{}, false
	}
	if t.Kind != k {
		p.failAtCur(diag.CodeExpectedToken, "expected "+human+", found "+describe(t), "")
		return token.Token{}, false
	}
	p.advance()
	return t, true
}

func describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of input"
	}
	if t.Lit == "" {
		return "token"
	}
	return strconv.Quote(t.Lit)
}

func (p *Parser) ok() bool { return !p.halted }

func span(start, end token.Token) diag.Span {
	return diag.Span{Start: start.Offset, End: end.End}
}

// ---------------------------------------------------------------------
// Top level

func (p *Parser) parseQuery() *ast.Query {
	start := p.cur()
	switch p.cur().Kind {
	case token.Show:
		return p.parseShow()
	case token.Describe:
		return p.parseDescribe()
	default:
		q := p.parseSelectStmt()
		if q != nil {
			q.Span = span(start, p.prevTok())
		}
		return q
	}
}

func (p *Parser) prevTok() token.Token {
	if p.pos == 0 {
		return p.cur()
	}
	return p.toks[p.pos-1]
}

func (p *Parser) parseShow() *ast.Query {
	p.advance() // SHOW
	switch p.cur().Kind {
	case token.Input:
		p.advance()
		return &ast.Query{Kind: ast.KindShowInput}
	case token.Inputs:
		p.advance()
		return &ast.Query{Kind: ast.KindShowInputs}
	case token.Functions:
		p.advance()
		return &ast.Query{Kind: ast.KindShowFunctions}
	case token.Axes:
		p.advance()
		return &ast.Query{Kind: ast.KindShowAxes}
	case token.Operators:
		p.advance()
		return &ast.Query{Kind: ast.KindShowOperators}
	default:
		p.failAtCur(diag.CodeUnexpectedToken, "expected INPUT, INPUTS, FUNCTIONS, AXES or OPERATORS after SHOW", "")
		return nil
	}
}

func (p *Parser) parseDescribe() *ast.Query {
	p.advance() // DESCRIBE
	switch p.cur().Kind {
	case token.Document:
		p.advance()
		return &ast.Query{Kind: ast.KindDescribeDoc}
	case token.Ident:
		if strings.EqualFold(p.cur().Lit, "LANGUAGE") {
			p.advance()
			return &ast.Query{Kind: ast.KindDescribeLanguage}
		}
		t := p.advance()
		return &ast.Query{Kind: ast.KindDescribeDoc, DescribeTarget: t.Lit}
	default:
		p.failAtCur(diag.CodeUnexpectedToken, "expected DOCUMENT or LANGUAGE after DESCRIBE", "")
		return nil
	}
}

// SelectStmt := [With] Select From [Joins] [Where] [OrderBy] [Exclude]
//               [Limit] [To]
func (p *Parser) parseSelectStmt() *ast.Query {
	q := &ast.Query{Kind: ast.KindSelect, TableOptions: ast.DefaultTableOptions()}

	if p.peekKind(token.With) {
		with, ok := p.parseWith()
		if !ok {
			return nil
		}
		q.With = with
	}

	items, ok := p.parseSelect()
	if !ok {
		return nil
	}
	q.SelectItems = items

	if !p.peekKind(token.From) {
		p.failAtCur(diag.CodeSelectWithoutFrom, "SELECT must be followed by FROM", "add a FROM clause naming the document source")
		return nil
	}
	src, ok := p.parseFromClause()
	if !ok {
		return nil
	}
	q.Source = src

	for p.startsJoin() {
		j, ok := p.parseJoin()
		if !ok {
			return nil
		}
		q.Joins = append(q.Joins, *j)
	}

	if p.peekKind(token.Where) {
		p.advance()
		w, ok := p.parseExpr()
		if !ok {
			return nil
		}
		q.Where = w
	}

	if p.peekKind(token.Order) {
		ob, ok := p.parseOrderBy()
		if !ok {
			return nil
		}
		q.OrderBy = ob
	}

	if p.peekKind(token.Exclude) {
		fields, ok := p.parseExclude()
		if !ok {
			return nil
		}
		q.ExcludeFields = fields
	}

	if p.peekKind(token.Limit) {
		p.advance()
		n, okTok := p.expect(token.Int, "an integer literal")
		if !okTok {
			return nil
		}
		v, err := strconv.Atoi(n.Lit)
		if err != nil {
			p.fail(diag.CodeInvalidNumber, "invalid LIMIT value", "", diag.Span{Start: n.Offset, End: n.End})
			return nil
		}
		q.Limit = &v
		q.LimitSet = true
	}

	if p.peekKind(token.To) {
		if !p.parseTo(q) {
			return nil
		}
	}

	return q
}

// With := 'WITH' CteDef (',' CteDef)*
func (p *Parser) parseWith() ([]ast.CteDef, bool) {
	p.advance() // WITH
	seen := map[string]bool{}
	var defs []ast.CteDef
	for {
		start := p.cur()
		nameTok, ok := p.expect(token.Ident, "a CTE name")
		if !ok {
			return nil, false
		}
		name := nameTok.Lit
		if seen[strings.ToLower(name)] {
			p.fail(diag.CodeDuplicateCteName, "duplicate CTE name "+strconv.Quote(name), "rename one of the WITH bindings", diag.Span{Start: nameTok.Offset, End: nameTok.End})
			return nil, false
		}
		seen[strings.ToLower(name)] = true

		if _, ok := p.expect(token.As, "AS"); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		sub := p.parseSelectStmt()
		if sub == nil {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		defs = append(defs, ast.CteDef{Name: name, Query: sub, Span: span(start, p.prevTok())})

		if p.peekKind(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return defs, true
}

// Select := 'SELECT' SelectItem (',' SelectItem)*
func (p *Parser) parseSelect() ([]ast.SelectItem, bool) {
	if _, ok := p.expect(token.Select, "SELECT"); !ok {
		return nil, false
	}
	var items []ast.SelectItem
	for {
		it, ok := p.parseSelectItem()
		if !ok {
			return nil, false
		}
		items = append(items, *it)
		if p.peekKind(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	return items, true
}

func (p *Parser) parseSelectItem() (*ast.SelectItem, bool) {
	start := p.cur()
	item := &ast.SelectItem{FlattenDepth: -1}

	switch {
	case p.peekKind(token.Star):
		p.advance()
		item.Star = true

	case p.peekKind(token.Count):
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		if p.peekKind(token.Star) {
			p.advance()
			item.Tag = "*"
		} else {
			t, ok := p.expect(token.Ident, "a tag name or *")
			if !ok {
				return nil, false
			}
			item.Tag = strings.ToLower(t.Lit)
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		item.Aggregate = ast.AggCount

	case p.peekKind(token.Ident) && strings.EqualFold(p.cur().Lit, "SUMMARIZE"):
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		if p.peekKind(token.Star) {
			p.advance()
		} else if _, ok := p.expect(token.Ident, "* or a tag name"); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		item.Aggregate = ast.AggSummarize

	case p.peekKind(token.Ident) && strings.EqualFold(p.cur().Lit, "TFIDF"):
		tfidf, ok := p.parseTfidf()
		if !ok {
			return nil, false
		}
		item.Aggregate = ast.AggTfidf
		item.Tfidf = tfidf

	case p.peekKind(token.Project) || (p.peekKind(token.Ident) && strings.EqualFold(p.cur().Lit, "FLATTEN_EXTRACT")):
		p.advance()
		tagTok, ok := p.expect(token.Ident, "a tag name")
		if !ok {
			return nil, false
		}
		item.Tag = strings.ToLower(tagTok.Lit)
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.As, "AS"); !ok {
			return nil, false
		}
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		var bindings []ast.ProjectBinding
		for {
			aliasTok, ok := p.expect(token.Ident, "an alias name")
			if !ok {
				return nil, false
			}
			if _, ok := p.expect(token.Colon, ":"); !ok {
				return nil, false
			}
			expr, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			bindings = append(bindings, ast.ProjectBinding{Alias: aliasTok.Lit, Expr: *expr})
			if p.peekKind(token.Comma) {
				p.advance()
				continue
			}
			break
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		item.Project = bindings

	default:
		// Wrapper functions (TEXT/INNER_HTML/...), a bare tag, or a general
		// scalar expression.
		if p.peekKind(token.Ident) && isWrapperName(p.cur().Lit) && p.toks[min(p.pos+1, len(p.toks)-1)].Kind == token.LParen {
			name := strings.ToUpper(p.cur().Lit)
			p.advance()
			p.advance() // (
			tagTok, ok := p.expect(token.Ident, "a tag name or self")
			if !ok {
				return nil, false
			}
			item.Tag = strings.ToLower(tagTok.Lit)
			if name == "INNER_HTML" || name == "RAW_INNER_HTML" {
				if p.peekKind(token.Comma) {
					p.advance()
					if p.peekKind(token.Int) {
						d, _ := strconv.Atoi(p.advance().Lit)
						item.InnerHTMLDepthKind = ast.InnerHTMLDepthLiteral
						item.InnerHTMLDepthN = d
					} else {
						p.advance() // MAX_DEPTH identifier
						item.InnerHTMLDepthKind = ast.InnerHTMLDepthMax
					}
				}
			}
			if name == "FLATTEN_TEXT" && p.peekKind(token.Comma) {
				p.advance()
				depthTok, ok := p.expect(token.Int, "a depth")
				if !ok {
					return nil, false
				}
				d, _ := strconv.Atoi(depthTok.Lit)
				item.FlattenDepth = d
			}
			if _, ok := p.expect(token.RParen, ")"); !ok {
				return nil, false
			}
			switch name {
			case "TEXT":
				item.WrapText = true
			case "INNER_HTML":
				item.WrapInnerHTML = true
			case "RAW_INNER_HTML":
				item.WrapRawInner = true
			case "DIRECT_TEXT":
				item.WrapDirectText = true
			case "FLATTEN_TEXT":
				item.WrapText = true
				item.FlattenText = true
			}
		} else if p.peekKind(token.Ident) && p.toks[min(p.pos+1, len(p.toks)-1)].Kind != token.LParen &&
			!startsExprContinuation(p.toks[min(p.pos+1, len(p.toks)-1)].Kind) {
			t := p.advance()
			item.Tag = strings.ToLower(t.Lit)
		} else {
			expr, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			item.Scalar = expr
		}
	}

	if p.peekKind(token.As) {
		p.advance()
		aliasTok, ok := p.expect(token.Ident, "an alias")
		if !ok {
			return nil, false
		}
		item.Alias = aliasTok.Lit
	}

	item.Span = span(start, p.prevTok())
	return item, true
}

func isWrapperName(s string) bool {
	switch strings.ToUpper(s) {
	case "TEXT", "INNER_HTML", "RAW_INNER_HTML", "DIRECT_TEXT", "FLATTEN_TEXT":
		return true
	}
	return false
}

// startsExprContinuation reports whether kind could begin a binary/scalar
// continuation, meaning the preceding identifier is not a bare tag name.
func startsExprContinuation(k token.Kind) bool {
	switch k {
	case token.Dot:
		return true
	}
	return false
}

func (p *Parser) parseTfidf() (*ast.TfidfParams, bool) {
	p.advance() // TFIDF
	if _, ok := p.expect(token.LParen, "("); !ok {
		return nil, false
	}
	params := &ast.TfidfParams{TopTerms: 10, MinDF: 1, MaxDF: 1 << 30}
	if p.peekKind(token.Star) {
		p.advance()
		params.AllTags = true
	} else {
		for {
			t, ok := p.expect(token.Ident, "a tag name")
			if !ok {
				return nil, false
			}
			params.Tags = append(params.Tags, strings.ToLower(t.Lit))
			if p.peekKind(token.Comma) && p.toks[min(p.pos+1, len(p.toks)-1)].Kind == token.Ident && !isTfidfOption(p.toks[min(p.pos+1, len(p.toks)-1)].Lit) {
				p.advance()
				continue
			}
			break
		}
	}
	for p.peekKind(token.Comma) {
		p.advance()
		optTok, ok := p.expect(token.Ident, "a TFIDF option")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Eq, "="); !ok {
			return nil, false
		}
		switch strings.ToUpper(optTok.Lit) {
		case "TOP_TERMS":
			v, ok := p.expect(token.Int, "an integer")
			if !ok {
				return nil, false
			}
			params.TopTerms, _ = strconv.Atoi(v.Lit)
		case "MIN_DF":
			v, ok := p.expect(token.Int, "an integer")
			if !ok {
				return nil, false
			}
			params.MinDF, _ = strconv.Atoi(v.Lit)
		case "MAX_DF":
			v, ok := p.expect(token.Int, "an integer")
			if !ok {
				return nil, false
			}
			params.MaxDF, _ = strconv.Atoi(v.Lit)
		case "STOPWORDS":
			v, ok := p.expect(token.String, "a string")
			if !ok {
				return nil, false
			}
			params.Stopwords = map[string]struct{}{}
			for _, w := range strings.Fields(v.Lit) {
				params.Stopwords[strings.ToLower(w)] = struct{}{}
			}
		default:
			p.fail(diag.CodeUnexpectedToken, "unknown TFIDF option "+strconv.Quote(optTok.Lit), "", diag.Span{Start: optTok.Offset, End: optTok.End})
			return nil, false
		}
	}
	if _, ok := p.expect(token.RParen, ")"); !ok {
		return nil, false
	}
	return params, true
}

func isTfidfOption(s string) bool {
	switch strings.ToUpper(s) {
	case "TOP_TERMS", "MIN_DF", "MAX_DF", "STOPWORDS":
		return true
	}
	return false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
