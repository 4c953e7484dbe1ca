package parser

import (
	"strconv"
	"strings"

	"github.com/darhnoel/markql-sub000/internal/ast"
	"github.com/darhnoel/markql-sub000/internal/diag"
	"github.com/darhnoel/markql-sub000/internal/token"
)

// Expr := OrExpr ; OrExpr := AndExpr ('OR' AndExpr)* ; AndExpr := NotExpr ('AND' NotExpr)*
func (p *Parser) parseExpr() (ast.Expr, bool) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.Expr, bool) {
	start := p.cur()
	left, ok := p.parseAnd()
	if !ok {
		return nil, false
	}
	for p.peekKind(token.Or) {
		p.advance()
		right, ok := p.parseAnd()
		if !ok {
			return nil, false
		}
		left = &ast.Binary{Kind: ast.BinOr, Left: left, Right: right, Span: span(start, p.prevTok())}
	}
	return left, true
}

func (p *Parser) parseAnd() (ast.Expr, bool) {
	start := p.cur()
	left, ok := p.parseNot()
	if !ok {
		return nil, false
	}
	for p.peekKind(token.And) {
		p.advance()
		right, ok := p.parseNot()
		if !ok {
			return nil, false
		}
		left = &ast.Binary{Kind: ast.BinAnd, Left: left, Right: right, Span: span(start, p.prevTok())}
	}
	return left, true
}

// NotExpr := Compare | 'EXISTS' '(' Axis ['WHERE' Expr] ')'
func (p *Parser) parseNot() (ast.Expr, bool) {
	start := p.cur()
	if p.peekKind(token.LParen) {
		p.advance()
		inner, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		return inner, true
	}
	if p.peekKind(token.Exists) {
		p.advance()
		if _, ok := p.expect(token.LParen, "("); !ok {
			return nil, false
		}
		axis, tag, ok := p.parseAxisRef()
		if !ok {
			return nil, false
		}
		var where ast.Expr
		if p.peekKind(token.Where) {
			p.advance()
			w, ok := p.parseExpr()
			if !ok {
				return nil, false
			}
			where = w
		}
		if _, ok := p.expect(token.RParen, ")"); !ok {
			return nil, false
		}
		return &ast.Exists{Axis: axis, Tag: tag, Where: where, Span: span(start, p.prevTok())}, true
	}
	return p.parseCompare()
}

// parseAxisRef parses "child::tag" / "descendant::tag" / "tag" forms used
// inside EXISTS(...). Bare tag names default to the Child axis.
func (p *Parser) parseAxisRef() (ast.Axis, string, bool) {
	axis := ast.AxisChild
	if p.peekKind(token.Ident) {
		switch strings.ToUpper(p.cur().Lit) {
		case "PARENT":
			axis = ast.AxisParent
		case "ANCESTOR":
			axis = ast.AxisAncestor
		case "DESCENDANT":
			axis = ast.AxisDescendant
		case "CHILD":
			axis = ast.AxisChild
		case "SELF":
			axis = ast.AxisSelf
		default:
			t := p.advance()
			return axis, strings.ToLower(t.Lit), true
		}
		p.advance()
		if p.peekKind(token.Colon) {
			p.advance()
			p.expect(token.Colon, ":")
		}
	}
	if p.peekKind(token.Star) {
		p.advance()
		return axis, "", true
	}
	t, ok := p.expect(token.Ident, "a tag name")
	if !ok {
		return axis, "", false
	}
	return axis, strings.ToLower(t.Lit), true
}

// Compare := ScalarExpr (CmpOp Value | 'IN' ValueList | 'LIKE' Value
//          | 'CONTAINS'['ALL'|'ANY'] Value | 'IS' ['NOT'] 'NULL'
//          | 'HAS_DIRECT_TEXT' Value | '~' Value)
func (p *Parser) parseCompare() (ast.Expr, bool) {
	start := p.cur()
	left, ok := p.parseScalarExpr()
	if !ok {
		return nil, false
	}

	cmp := &ast.CompareExpr{Left: *left}

	switch p.cur().Kind {
	case token.Eq:
		p.advance()
		cmp.Op = ast.OpEq
	case token.NotEq:
		p.advance()
		cmp.Op = ast.OpNotEq
	case token.Lt:
		p.advance()
		cmp.Op = ast.OpLt
	case token.Lte:
		p.advance()
		cmp.Op = ast.OpLte
	case token.Gt:
		p.advance()
		cmp.Op = ast.OpGt
	case token.Gte:
		p.advance()
		cmp.Op = ast.OpGte
	case token.Tilde:
		p.advance()
		cmp.Op = ast.OpRegex
	case token.Like:
		p.advance()
		cmp.Op = ast.OpLike
	case token.HasDirectText:
		p.advance()
		cmp.Op = ast.OpHasDirectText
	case token.Contains:
		p.advance()
		cmp.Op = ast.OpContains
		if p.peekKind(token.All) {
			p.advance()
			cmp.Op = ast.OpContainsAll
		} else if p.peekKind(token.Any) {
			p.advance()
			cmp.Op = ast.OpContainsAny
		}
	case token.In:
		p.advance()
		cmp.Op = ast.OpIn
		vals, ok := p.parseValueList()
		if !ok {
			return nil, false
		}
		cmp.Values = vals
		cmp.Span = span(start, p.prevTok())
		return cmp, true
	case token.Is:
		p.advance()
		cmp.Op = ast.OpIsNull
		if p.peekKind(token.Not) {
			p.advance()
			cmp.Op = ast.OpIsNotNull
		}
		if _, ok := p.expect(token.Null, "NULL"); !ok {
			return nil, false
		}
		cmp.Span = span(start, p.prevTok())
		return cmp, true
	default:
		p.failAtCur(diag.CodeUnexpectedToken, "expected a comparison operator", "")
		return nil, false
	}

	if cmp.Op == ast.OpContainsAll || cmp.Op == ast.OpContainsAny {
		vals, ok := p.parseValueList()
		if !ok {
			return nil, false
		}
		cmp.Values = vals
		cmp.Span = span(start, p.prevTok())
		return cmp, true
	}

	right, ok := p.parseScalarExpr()
	if !ok {
		return nil, false
	}
	cmp.Right = right
	cmp.Span = span(start, p.prevTok())
	return cmp, true
}

func (p *Parser) parseValueList() ([]ast.ScalarExpr, bool) {
	if _, ok := p.expect(token.LParen, "("); !ok {
		return nil, false
	}
	var vals []ast.ScalarExpr
	for {
		v, ok := p.parseScalarExpr()
		if !ok {
			return nil, false
		}
		vals = append(vals, *v)
		if p.peekKind(token.Comma) {
			p.advance()
			continue
		}
		break
	}
	if _, ok := p.expect(token.RParen, ")"); !ok {
		return nil, false
	}
	return vals, true
}

// ScalarExpr := Operand | SelfRef | StringLiteral | NumberLiteral
//             | NullLiteral | FunctionCall(name, args) | CaseExpr
func (p *Parser) parseScalarExpr() (*ast.ScalarExpr, bool) {
	start := p.cur()

	switch p.cur().Kind {
	case token.String:
		t := p.advance()
		s := t.Lit
		return &ast.ScalarExpr{StringLiteral: &s, Span: span(start, t)}, true

	case token.Int:
		t := p.advance()
		n, err := strconv.ParseInt(t.Lit, 10, 64)
		if err != nil {
			p.fail(diag.CodeInvalidNumber, "invalid integer literal", "", diag.Span{Start: t.Offset, End: t.End})
			return nil, false
		}
		return &ast.ScalarExpr{NumberLiteral: &n, Span: span(start, t)}, true

	case token.Null:
		p.advance()
		return &ast.ScalarExpr{NullLiteral: true, Span: span(start, start)}, true

	case token.Self:
		p.advance()
		return &ast.ScalarExpr{SelfRef: true, Span: span(start, start)}, true

	case token.Case:
		return p.parseCaseExpr()
	}

	if p.peekKind(token.Ident) && isFunctionName(p.cur().Lit) && p.toks[min(p.pos+1, len(p.toks)-1)].Kind == token.LParen {
		return p.parseFunctionCall()
	}

	op, ok := p.parseOperand()
	if !ok {
		return nil, false
	}
	return &ast.ScalarExpr{Operand: op, Span: op.Span}, true
}

var functionNames = map[string]bool{
	"TEXT": true, "DIRECT_TEXT": true, "INNER_HTML": true, "RAW_INNER_HTML": true,
	"ATTR": true, "FIRST_TEXT": true, "LAST_TEXT": true, "FIRST_ATTR": true, "LAST_ATTR": true,
	"CONCAT": true, "LOWER": true, "UPPER": true, "TRIM": true, "LTRIM": true, "RTRIM": true,
	"REPLACE": true, "LENGTH": true, "CHAR_LENGTH": true, "SUBSTRING": true, "SUBSTR": true,
	"POSITION": true, "LOCATE": true, "COALESCE": true,
}

func isFunctionName(s string) bool {
	return functionNames[strings.ToUpper(s)]
}

func (p *Parser) parseFunctionCall() (*ast.ScalarExpr, bool) {
	start := p.cur()
	nameTok := p.advance()
	name := strings.ToUpper(nameTok.Lit)
	p.advance() // (

	var args []ast.ScalarExpr
	if !p.peekKind(token.RParen) {
		if name == "POSITION" {
			// POSITION(sub IN str)
			a, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			args = append(args, *a)
			if _, ok := p.expect(token.In, "IN"); !ok {
				return nil, false
			}
			b, ok := p.parseScalarExpr()
			if !ok {
				return nil, false
			}
			args = append(args, *b)
		} else {
			for {
				a, ok := p.parseScalarExpr()
				if !ok {
					return nil, false
				}
				args = append(args, *a)
				if p.peekKind(token.Comma) {
					p.advance()
					continue
				}
				break
			}
		}
	}
	if _, ok := p.expect(token.RParen, ")"); !ok {
		return nil, false
	}
	fc := &ast.FunctionCall{Name: name, Args: args, Span: span(start, p.prevTok())}
	return &ast.ScalarExpr{FunctionCall: fc, Span: fc.Span}, true
}

func (p *Parser) parseCaseExpr() (*ast.ScalarExpr, bool) {
	start := p.cur()
	p.advance() // CASE
	var whens []ast.CaseWhen
	for p.peekKind(token.When) {
		p.advance()
		cond, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Then, "THEN"); !ok {
			return nil, false
		}
		then, ok := p.parseScalarExpr()
		if !ok {
			return nil, false
		}
		whens = append(whens, ast.CaseWhen{Cond: cond, Then: *then})
	}
	var elseExpr *ast.ScalarExpr
	if p.peekKind(token.Else) {
		p.advance()
		e, ok := p.parseScalarExpr()
		if !ok {
			return nil, false
		}
		elseExpr = e
	}
	if _, ok := p.expect(token.End, "END"); !ok {
		return nil, false
	}
	ce := &ast.CaseExpr{Whens: whens, Else: elseExpr, Span: span(start, p.prevTok())}
	return &ast.ScalarExpr{Case: ce, Span: ce.Span}, true
}

// Operand := [Axis '.'] (tag | 'attributes' ['.' name] | 'text' | ...)
func (p *Parser) parseOperand() (*ast.Operand, bool) {
	start := p.cur()
	op := &ast.Operand{Axis: ast.AxisSelf}

	// Optional qualifier / axis prefix: "alias.field", "parent.field",
	// "ancestor.tag.field", etc. We resolve this heuristically: a leading
	// identifier that names an axis keyword sets Axis; otherwise it is
	// treated as an alias qualifier if followed by '.'.
	if p.peekKind(token.Ident) {
		first := p.cur().Lit
		switch strings.ToUpper(first) {
		case "PARENT":
			op.Axis = ast.AxisParent
			p.advance()
			p.expect(token.Dot, ".")
		case "ANCESTOR":
			op.Axis = ast.AxisAncestor
			p.advance()
			p.expect(token.Dot, ".")
		case "CHILD":
			op.Axis = ast.AxisChild
			p.advance()
			p.expect(token.Dot, ".")
		case "DESCENDANT":
			op.Axis = ast.AxisDescendant
			p.advance()
			p.expect(token.Dot, ".")
		case "SELF":
			op.Axis = ast.AxisSelf
			p.advance()
			p.expect(token.Dot, ".")
		default:
			// Could be "alias.field" — only consume as a qualifier if the
			// next token is a dot, to avoid eating bare field identifiers.
			if p.toks[min(p.pos+1, len(p.toks)-1)].Kind == token.Dot {
				p.advance()
				p.advance()
				op.Qualifier = first
			}
		}
	}

	fieldTok, ok := p.expect(token.Ident, "a field name")
	if !ok {
		return nil, false
	}
	field := strings.ToLower(fieldTok.Lit)

	switch field {
	case "attributes":
		op.FieldKind = ast.FieldAttributesMap
		if p.peekKind(token.Dot) {
			p.advance()
			nameTok, ok := p.expect(token.Ident, "an attribute name")
			if !ok {
				return nil, false
			}
			op.FieldKind = ast.FieldAttribute
			op.Attribute = strings.ToLower(nameTok.Lit)
		}
	case "tag":
		op.FieldKind = ast.FieldTag
	case "text":
		op.FieldKind = ast.FieldText
	case "node_id":
		op.FieldKind = ast.FieldNodeID
	case "parent_id":
		op.FieldKind = ast.FieldParentID
	case "sibling_pos":
		op.FieldKind = ast.FieldSiblingPos
	case "max_depth":
		op.FieldKind = ast.FieldMaxDepth
	case "doc_order":
		op.FieldKind = ast.FieldDocOrder
	default:
		// Bare attribute name shorthand, e.g. "class = 'x'".
		op.FieldKind = ast.FieldAttribute
		op.Attribute = field
	}

	op.Span = span(start, p.prevTok())
	return op, true
}
