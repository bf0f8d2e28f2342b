package engine

import "fmt"

// ValueKind classifies nodes of a JSON-like document.
type ValueKind int

const (
	ValueObject ValueKind = iota
	ValueArray
	ValueScalar
	ValueNull
)

// Value is an order-preserving JSON-like document node produced by the
// JSON and YAML drivers before it is mapped onto elements.
type Value struct {
	Kind   ValueKind
	Fields []Field
	Items  []*Value
	Scalar string
	Line   int
	Column int
}

// Field is one key of an object value.
type Field struct {
	Key    string
	Value  *Value
	Line   int
	Column int
}

const (
	namespaceKey = "xmlns"
	includeKey   = "xi:include"
)

// MapDocument maps a JSON-like document onto element trees:
//
//   - each key of the top-level object becomes a root element
//   - object values become child elements, scalars become attributes
//   - arrays repeat the element; scalar items become element text
//   - "xmlns" sets the namespace of the element and its descendants
//   - "xi:include" becomes the XInclude include element
func MapDocument(root *Value) ([]*Node, error) {
	if root == nil || root.Kind == ValueNull {
		return nil, nil
	}
	if root.Kind != ValueObject {
		return nil, fmt.Errorf("line %d: document root must be an object", root.Line)
	}
	ns := lookupNamespace(root, "")
	var out []*Node
	for _, f := range root.Fields {
		if f.Key == namespaceKey {
			continue
		}
		nodes, err := mapField(f, ns)
		if err != nil {
			return nil, err
		}
		out = append(out, nodes...)
	}
	return out, nil
}

func lookupNamespace(v *Value, inherited string) string {
	if v == nil || v.Kind != ValueObject {
		return inherited
	}
	for _, f := range v.Fields {
		if f.Key == namespaceKey && f.Value != nil && f.Value.Kind == ValueScalar {
			return f.Value.Scalar
		}
	}
	return inherited
}

func elementName(key, ns string) Name {
	if key == includeKey {
		return Name{Space: XIncludeNamespace, Local: "include"}
	}
	return Name{Space: ns, Local: key}
}

func mapField(f Field, ns string) ([]*Node, error) {
	v := f.Value
	if v == nil {
		v = &Value{Kind: ValueNull, Line: f.Line, Column: f.Column}
	}
	switch v.Kind {
	case ValueArray:
		out := make([]*Node, 0, len(v.Items))
		for _, item := range v.Items {
			if item == nil {
				item = &Value{Kind: ValueNull, Line: v.Line, Column: v.Column}
			}
			switch item.Kind {
			case ValueArray:
				return nil, fmt.Errorf("line %d: nested arrays are not supported for '%s'", item.Line, f.Key)
			case ValueScalar:
				out = append(out, &Node{Name: elementName(f.Key, ns), Text: item.Scalar, Line: item.Line, Column: item.Column})
			default:
				n, err := mapObject(f.Key, item, ns)
				if err != nil {
					return nil, err
				}
				out = append(out, n)
			}
		}
		return out, nil
	case ValueScalar:
		return []*Node{{Name: elementName(f.Key, ns), Text: v.Scalar, Line: f.Line, Column: f.Column}}, nil
	default:
		n, err := mapObject(f.Key, v, ns)
		if err != nil {
			return nil, err
		}
		return []*Node{n}, nil
	}
}

func mapObject(key string, v *Value, inherited string) (*Node, error) {
	ns := lookupNamespace(v, inherited)
	n := &Node{Name: elementName(key, ns), Line: v.Line, Column: v.Column}
	if v.Kind == ValueNull {
		return n, nil
	}
	for _, f := range v.Fields {
		if f.Key == namespaceKey {
			continue
		}
		if f.Value != nil && f.Value.Kind == ValueScalar {
			n.Attrs = append(n.Attrs, Attr{Name: Name{Local: f.Key}, Value: f.Value.Scalar})
			continue
		}
		children, err := mapField(f, ns)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, children...)
	}
	return n, nil
}
