package confdispatch

import "fmt"

// Namespace declares a (URI, root element, version range) a parser serves.
//
// URI may be empty (unqualified elements), an exact versioned URI such as
// urn:confdispatch:config:10.1, or a wildcard such as urn:confdispatch:config:*
// that applies to every version between Since and Until. For exact
// versioned URIs an unset Since is derived from the URI.
type Namespace struct {
	URI   string
	Root  string
	Since Version
	Until Version
}

func (n Namespace) String() string {
	r := n.Since.String() + "+"
	if !n.Until.IsZero() {
		r = n.Since.String() + "-" + n.Until.String()
	}
	if n.URI == "" {
		return fmt.Sprintf("<%s> [%s]", n.Root, r)
	}
	return fmt.Sprintf("{%s}%s [%s]", n.URI, n.Root, r)
}

// normalize fills Since from an exact versioned URI.
func (n Namespace) normalize() Namespace {
	if n.Since.IsZero() {
		if v, ok := VersionFromURI(n.URI); ok {
			n.Since = v
			if n.Until.IsZero() {
				n.Until = v
			}
		}
	}
	return n
}

// Accepts reports whether a document at v falls within the declared range.
func (n Namespace) Accepts(v Version) bool { return v.Within(n.Since, n.Until) }

func (n Namespace) overlaps(o Namespace) bool {
	lo := n.Since
	if lo.Less(o.Since) {
		lo = o.Since
	}
	switch {
	case n.Until.IsZero() && o.Until.IsZero():
		return true
	case n.Until.IsZero():
		return !o.Until.Less(lo)
	case o.Until.IsZero():
		return !n.Until.Less(lo)
	}
	hi := n.Until
	if o.Until.Less(hi) {
		hi = o.Until
	}
	return !hi.Less(lo)
}

// Parser is a versioned parser implementation. ReadElement is called with
// the reader positioned on a start element the parser declared in
// Namespaces and must return positioned on the matching end element.
type Parser interface {
	Namespaces() []Namespace
	ReadElement(r *Reader, h *Holder) error
}

// AttributeParser is implemented by parsers that also handle attributes
// from their namespace appearing on foreign elements.
type AttributeParser interface {
	Parser
	ReadAttribute(r *Reader, index int, h *Holder) error
}

// Binding associates a declared namespace with the parser serving it.
type Binding struct {
	Namespace Namespace
	Parser    Parser
	// Version is the schema version the resolved element is parsed at.
	Version Version
}
