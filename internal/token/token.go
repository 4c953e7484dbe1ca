// Package token defines the lexical token kinds shared by the lexer and
// parser.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	Invalid Kind = iota
	EOF

	Ident
	Int
	String

	// Punctuation
	Comma
	Colon
	Dot
	LParen
	RParen
	Semicolon
	Star

	// Operators
	Eq
	NotEq
	Lt
	Lte
	Gt
	Gte
	Tilde

	// Keywords
	Select
	From
	Where
	With
	Join
	Left
	Inner
	Cross
	Lateral
	On
	And
	Or
	In
	Exists
	Document
	Limit
	Exclude
	Order
	By
	Asc
	Desc
	As
	To
	List
	Count
	Table
	Csv
	Parquet
	Json
	Ndjson
	Raw
	Fragments
	Parse
	Contains
	HasDirectText
	Like
	All
	Any
	Is
	Not
	Null
	Case
	When
	Then
	Else
	End
	Show
	Describe
	Project
	Input
	Inputs
	Functions
	Axes
	Operators
	Self
)

var keywords = map[string]Kind{
	"SELECT":          Select,
	"FROM":            From,
	"WHERE":           Where,
	"WITH":            With,
	"JOIN":            Join,
	"LEFT":            Left,
	"INNER":           Inner,
	"CROSS":           Cross,
	"LATERAL":         Lateral,
	"ON":              On,
	"AND":             And,
	"OR":              Or,
	"IN":              In,
	"EXISTS":          Exists,
	"DOCUMENT":        Document,
	"LIMIT":           Limit,
	"EXCLUDE":         Exclude,
	"ORDER":           Order,
	"BY":              By,
	"ASC":             Asc,
	"DESC":            Desc,
	"AS":              As,
	"TO":              To,
	"LIST":            List,
	"COUNT":           Count,
	"TABLE":           Table,
	"CSV":             Csv,
	"PARQUET":         Parquet,
	"JSON":            Json,
	"NDJSON":          Ndjson,
	"RAW":             Raw,
	"FRAGMENTS":       Fragments,
	"PARSE":           Parse,
	"CONTAINS":        Contains,
	"HAS_DIRECT_TEXT": HasDirectText,
	"LIKE":            Like,
	"ALL":             All,
	"ANY":             Any,
	"IS":              Is,
	"NOT":             Not,
	"NULL":            Null,
	"CASE":            Case,
	"WHEN":            When,
	"THEN":            Then,
	"ELSE":            Else,
	"END":             End,
	"SHOW":            Show,
	"DESCRIBE":        Describe,
	"PROJECT":         Project,
	"INPUT":           Input,
	"INPUTS":          Inputs,
	"FUNCTIONS":       Functions,
	"AXES":            Axes,
	"OPERATORS":       Operators,
	"SELF":            Self,
	"DOC":             Document,
}

// Lookup returns the keyword Kind for an upper-cased identifier, or
// (Ident, false) if it is not a keyword.
func Lookup(upper string) (Kind, bool) {
	k, ok := keywords[upper]
	return k, ok
}

// Token is one lexical unit with its source position.
type Token struct {
	Kind   Kind
	Lit    string // literal text as it appeared in source (quotes stripped for String)
	Offset int    // byte offset of the first byte of the token in the source
	End    int    // byte offset one past the last byte of the token
}

func (t Token) String() string {
	return t.Lit
}
