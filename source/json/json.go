package json

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/confdispatch/internal/engine"
)

// NewReader decodes JSON from r with go-json and returns an
// engine.TokenSource over the element mapping of the document.
// Mapping onto elements needs the full object (scalars become attributes
// of their enclosing element), so the document is buffered as an
// order-preserving value tree before tokens are emitted.
func NewReader(r io.Reader) (eng.TokenSource, error) {
	dec := j.NewDecoder(r)
	dec.UseNumber()
	b := &builder{dec: dec}
	root, err := b.document()
	if err != nil {
		return nil, err
	}
	nodes, err := eng.MapDocument(root)
	if err != nil {
		return nil, err
	}
	return eng.NewTreeSource(nodes), nil
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) (eng.TokenSource, error) { return NewReader(bytes.NewReader(b)) }

// DuplicateKeyError reports a key repeated within one JSON object. Path is
// the slash-separated key path of the object holding the duplicate.
type DuplicateKeyError struct {
	Key  string
	Path string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate JSON key %q in object %s", e.Key, e.Path)
}

type builder struct {
	dec  *j.Decoder
	path []string
}

func (b *builder) objectPath() string {
	if len(b.path) == 0 {
		return "/"
	}
	return "/" + strings.Join(b.path, "/")
}

func (b *builder) document() (*eng.Value, error) {
	tok, err := b.dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, err
	}
	v, err := b.value(tok)
	if err != nil {
		return nil, err
	}
	if _, err := b.dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("json: unexpected data after top-level value")
	}
	return v, nil
}

func (b *builder) value(tok j.Token) (*eng.Value, error) {
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			return b.object()
		case '[':
			return b.array()
		}
		return nil, fmt.Errorf("json: unexpected delimiter %q", rune(v))
	case string:
		return &eng.Value{Kind: eng.ValueScalar, Scalar: v}, nil
	case j.Number:
		return &eng.Value{Kind: eng.ValueScalar, Scalar: string(v)}, nil
	case float64:
		return &eng.Value{Kind: eng.ValueScalar, Scalar: fmt.Sprint(v)}, nil
	case bool:
		if v {
			return &eng.Value{Kind: eng.ValueScalar, Scalar: "true"}, nil
		}
		return &eng.Value{Kind: eng.ValueScalar, Scalar: "false"}, nil
	case nil:
		return &eng.Value{Kind: eng.ValueNull}, nil
	}
	return nil, fmt.Errorf("json: unsupported token %T", tok)
}

func (b *builder) object() (*eng.Value, error) {
	obj := &eng.Value{Kind: eng.ValueObject}
	seen := make(map[string]struct{})
	for {
		tok, err := b.dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(j.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("json: expected object key, got %v", tok)
		}
		if _, dup := seen[key]; dup {
			return nil, &DuplicateKeyError{Key: key, Path: b.objectPath()}
		}
		seen[key] = struct{}{}
		vt, err := b.dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		b.path = append(b.path, key)
		v, err := b.value(vt)
		b.path = b.path[:len(b.path)-1]
		if err != nil {
			return nil, err
		}
		obj.Fields = append(obj.Fields, eng.Field{Key: key, Value: v})
	}
}

func (b *builder) array() (*eng.Value, error) {
	arr := &eng.Value{Kind: eng.ValueArray}
	for {
		tok, err := b.dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(j.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := b.value(tok)
		if err != nil {
			return nil, err
		}
		arr.Items = append(arr.Items, v)
	}
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
