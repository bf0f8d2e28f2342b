package json

import (
	"errors"
	"io"
	"testing"

	eng "github.com/reoring/confdispatch/internal/engine"
)

func collect(t *testing.T, ts eng.TokenSource) []eng.Token {
	t.Helper()
	var out []eng.Token
	for {
		tok, err := ts.NextToken()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out = append(out, tok)
	}
}

func TestJSON_Mapping(t *testing.T) {
	ts, err := NewBytes([]byte(`{"config": {"xmlns": "urn:x:1.0", "cache": [{"name": "a", "owners": 2}, {"name": "b", "enabled": true}]}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var starts []eng.Token
	for _, tok := range collect(t, ts) {
		if tok.Kind == eng.KindStartElement {
			starts = append(starts, tok)
		}
	}
	if len(starts) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(starts))
	}
	if starts[1].Name != (eng.Name{Space: "urn:x:1.0", Local: "cache"}) {
		t.Fatalf("unexpected name %v", starts[1].Name)
	}
	if got := starts[1].Attrs[1]; got.Name.Local != "owners" || got.Value != "2" {
		t.Fatalf("numbers must keep their literal form: %+v", got)
	}
	if got := starts[2].Attrs[1]; got.Value != "true" {
		t.Fatalf("booleans become attribute text: %+v", got)
	}
}

func TestJSON_Empty(t *testing.T) {
	ts, err := NewBytes(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks := collect(t, ts); len(toks) != 2 {
		t.Fatalf("expected only document tokens, got %d", len(toks))
	}
}

func TestJSON_Errors(t *testing.T) {
	for _, in := range []string{
		`{"a": {}} {"b": {}}`,
		`{"a": `,
		`[1, 2]`,
	} {
		if _, err := NewBytes([]byte(in)); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestJSON_DuplicateKey(t *testing.T) {
	cases := []struct {
		in   string
		key  string
		path string
	}{
		{`{"config": {"cache-container": {"name": "a"}, "cache-container": {"name": "b"}}}`, "cache-container", "/config"},
		{`{"config": {"c": {"owners": 1, "owners": 2}}}`, "owners", "/config/c"},
		{`{"a": {}, "a": {}}`, "a", "/"},
	}
	for _, tc := range cases {
		_, err := NewBytes([]byte(tc.in))
		var dk *DuplicateKeyError
		if !errors.As(err, &dk) {
			t.Fatalf("expected DuplicateKeyError for %s, got %v", tc.in, err)
		}
		if dk.Key != tc.key || dk.Path != tc.path {
			t.Fatalf("unexpected duplicate: %+v", dk)
		}
	}
	// the same key in sibling objects is fine
	if _, err := NewBytes([]byte(`{"a": {"x": {"k": 1}, "y": {"k": 2}}}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
