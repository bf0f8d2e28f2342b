package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	eng "github.com/reoring/confdispatch/internal/engine"
)

// DuplicateKeyError reports a duplicate key found in a YAML mapping with both
// the first occurrence position and the duplicate occurrence position.
type DuplicateKeyError struct {
	Key       string
	FirstLine int
	FirstCol  int
	Line      int
	Col       int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate YAML key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}

// NewReader decodes the first YAML document of r and returns an
// engine.TokenSource over its element mapping. Positions come from the
// yaml.Node tree; duplicate keys are rejected.
func NewReader(r io.Reader) (eng.TokenSource, error) {
	var root yaml.Node
	if err := yaml.NewDecoder(r).Decode(&root); err != nil {
		if errors.Is(err, io.EOF) {
			return eng.NewTreeSource(nil), nil
		}
		return nil, err
	}
	v, err := convert(&root)
	if err != nil {
		return nil, err
	}
	nodes, err := eng.MapDocument(v)
	if err != nil {
		return nil, err
	}
	return eng.NewTreeSource(nodes), nil
}

// NewBytes wraps a byte slice into an engine.TokenSource for YAML.
func NewBytes(b []byte) (eng.TokenSource, error) { return NewReader(bytes.NewReader(b)) }

func convert(n *yaml.Node) (*eng.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return convert(n.Content[0])
	case yaml.AliasNode:
		if n.Alias == nil {
			return &eng.Value{Kind: eng.ValueNull, Line: n.Line, Column: n.Column}, nil
		}
		return convert(n.Alias)
	case yaml.MappingNode:
		v := &eng.Value{Kind: eng.ValueObject, Line: n.Line, Column: n.Column}
		first := make(map[string][2]int, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k := n.Content[i]
			key := k.Value
			if pos, dup := first[key]; dup {
				return nil, &DuplicateKeyError{Key: key, FirstLine: pos[0], FirstCol: pos[1], Line: k.Line, Col: k.Column}
			}
			first[key] = [2]int{k.Line, k.Column}
			val, err := convert(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			v.Fields = append(v.Fields, eng.Field{Key: key, Value: val, Line: k.Line, Column: k.Column})
		}
		return v, nil
	case yaml.SequenceNode:
		v := &eng.Value{Kind: eng.ValueArray, Line: n.Line, Column: n.Column}
		for _, c := range n.Content {
			item, err := convert(c)
			if err != nil {
				return nil, err
			}
			v.Items = append(v.Items, item)
		}
		return v, nil
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return &eng.Value{Kind: eng.ValueNull, Line: n.Line, Column: n.Column}, nil
		}
		return &eng.Value{Kind: eng.ValueScalar, Scalar: n.Value, Line: n.Line, Column: n.Column}, nil
	default:
		return nil, nil
	}
}
