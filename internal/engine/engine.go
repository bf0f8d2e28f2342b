package engine

import (
	"io"
	"strings"
)

// Kind represents token kinds produced by every format driver.
type Kind int

const (
	KindStartDocument Kind = iota
	KindEndDocument
	KindStartElement
	KindEndElement
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindStartDocument:
		return "start-document"
	case KindEndDocument:
		return "end-document"
	case KindStartElement:
		return "start-element"
	case KindEndElement:
		return "end-element"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// XIncludeNamespace is the namespace of the include element.
const XIncludeNamespace = "http://www.w3.org/2001/XInclude"

// Name is a namespace-qualified element or attribute name.
type Name struct {
	Space string
	Local string
}

func (n Name) String() string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

// Attr is a single attribute on a start element.
type Attr struct {
	Name  Name
	Value string
}

// Token represents a streaming token with its position in the source.
// Line and Column are 1-based; 0 means unknown.
type Token struct {
	Kind   Kind
	Name   Name
	Attrs  []Attr
	Text   string
	Line   int
	Column int
}

// IsWhitespace reports whether a text token carries only whitespace.
func (t Token) IsWhitespace() bool {
	return t.Kind == KindText && strings.TrimSpace(t.Text) == ""
}

// TokenSource is the minimal interface every driver implements. After
// KindEndDocument it returns io.EOF.
type TokenSource interface {
	NextToken() (Token, error)
}

// Node is an element tree used by drivers whose formats cannot be mapped
// onto elements token by token (JSON and YAML need lookahead to separate
// attributes from children).
type Node struct {
	Name     Name
	Attrs    []Attr
	Children []*Node
	Text     string
	Line     int
	Column   int
}

// TreeSource walks a forest of root nodes and emits a token stream.
type TreeSource struct {
	queue []Token
	done  bool
}

// NewTreeSource flattens roots into a token stream bracketed by
// KindStartDocument and KindEndDocument.
func NewTreeSource(roots []*Node) *TreeSource {
	ts := &TreeSource{}
	ts.queue = append(ts.queue, Token{Kind: KindStartDocument, Line: 1, Column: 1})
	for _, n := range roots {
		ts.emit(n)
	}
	ts.queue = append(ts.queue, Token{Kind: KindEndDocument})
	return ts
}

func (ts *TreeSource) emit(n *Node) {
	ts.queue = append(ts.queue, Token{Kind: KindStartElement, Name: n.Name, Attrs: n.Attrs, Line: n.Line, Column: n.Column})
	if n.Text != "" {
		ts.queue = append(ts.queue, Token{Kind: KindText, Text: n.Text, Line: n.Line, Column: n.Column})
	}
	for _, c := range n.Children {
		ts.emit(c)
	}
	ts.queue = append(ts.queue, Token{Kind: KindEndElement, Name: n.Name, Line: n.Line, Column: n.Column})
}

func (ts *TreeSource) NextToken() (Token, error) {
	if len(ts.queue) == 0 {
		return Token{}, io.EOF
	}
	t := ts.queue[0]
	ts.queue = ts.queue[1:]
	return t, nil
}
