package confdispatch

import (
	"strconv"
	"strings"
)

// RequireAttributes returns the values of the named unqualified attributes
// of the current start element, in order. Every missing name is reported in
// a single CodeMissingRequired error.
func (r *Reader) RequireAttributes(names ...string) ([]string, error) {
	values := make([]string, len(names))
	var missing []string
	for i, n := range names {
		v, ok := r.Attribute(n)
		if !ok {
			missing = append(missing, n)
			continue
		}
		values[i] = v
	}
	if len(missing) > 0 {
		e := newError(CodeMissingRequired, r.Location(), missing[0], "<%s> is missing required attribute(s) %s", r.LocalName(), quoteAll(missing))
		e.Names = missing
		return nil, e
	}
	return values, nil
}

// UnexpectedAttribute reports attribute i of the current element.
func (r *Reader) UnexpectedAttribute(i int) error {
	name := r.AttributeName(i)
	if ns := r.AttributeNamespace(i); ns != "" {
		return newError(CodeUnexpectedAttribute, r.Location(), name, "unexpected attribute '%s' in namespace '%s' on <%s>", name, ns, r.LocalName())
	}
	return newError(CodeUnexpectedAttribute, r.Location(), name, "unexpected attribute '%s' on <%s>", name, r.LocalName())
}

// UnexpectedElement reports the current start element.
func (r *Reader) UnexpectedElement() error {
	return newError(CodeUnexpectedElement, r.Location(), r.LocalName(), "unexpected element <%s>", r.LocalName())
}

// MissingElement reports an end element reached before any of the expected
// children appeared.
func (r *Reader) MissingElement(expected ...string) error {
	e := newError(CodeUnexpectedEndOfElement, r.Location(), r.LocalName(), "<%s> ended before %s", r.LocalName(), elementList(expected))
	e.Names = expected
	return e
}

// AttributeBool parses attribute i as a boolean.
func (r *Reader) AttributeBool(i int) (bool, error) {
	v := r.AttributeValue(i)
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, r.invalidValue(i, v, "a boolean")
	}
	return b, nil
}

// AttributeInt parses attribute i as a decimal integer.
func (r *Reader) AttributeInt(i int) (int, error) {
	v := r.AttributeValue(i)
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, r.invalidValue(i, v, "an integer")
	}
	return n, nil
}

// AttributeEnum checks attribute i against allowed.
func (r *Reader) AttributeEnum(i int, allowed ...string) (string, error) {
	v := r.AttributeValue(i)
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", r.invalidValue(i, v, "one of "+strings.Join(allowed, ", "))
}

func (r *Reader) invalidValue(i int, v, want string) error {
	name := r.AttributeName(i)
	return newError(CodeInvalidValue, r.Location(), name, "attribute '%s' on <%s> must be %s, got %q", name, r.LocalName(), want, v)
}

// EachChild calls fn for every child element of the current element. fn is
// called on the child's start element and must leave the reader on the
// child's end element. EachChild returns on the current element's end.
func (r *Reader) EachChild(fn func() error) error {
	if err := r.Require(StartElement, ""); err != nil {
		return err
	}
	for {
		k, err := r.NextTag()
		if err != nil {
			return err
		}
		switch k {
		case EndElement:
			return nil
		case StartElement:
			if err := fn(); err != nil {
				return err
			}
		default:
			return newError(CodeUnexpectedToken, r.Location(), "", "unexpected %s", k)
		}
	}
}

func quoteAll(names []string) string {
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "'" + n + "'"
	}
	return strings.Join(q, ", ")
}

func elementList(names []string) string {
	if len(names) == 0 {
		return "its required content"
	}
	q := make([]string, len(names))
	for i, n := range names {
		q[i] = "<" + n + ">"
	}
	if len(q) == 1 {
		return q[0]
	}
	return "one of " + strings.Join(q, ", ")
}

// HandleAttribute delegates attribute i of the current element to the
// parser registered for the attribute's namespace.
func (r *Reader) HandleAttribute(i int, h *Holder) error {
	if r.dispatcher == nil {
		return r.UnexpectedAttribute(i)
	}
	return r.dispatcher.ParseAttribute(r, i, h)
}
