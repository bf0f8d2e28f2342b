package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	eng "github.com/reoring/confdispatch/internal/engine"
)

type xmlSource struct {
	dec     *xml.Decoder
	started bool
	ended   bool
}

// NewReader wraps an io.Reader into an engine.TokenSource for XML.
// Namespace prefixes are resolved to URIs by the decoder; xmlns
// declarations never surface as attributes.
func NewReader(r io.Reader) eng.TokenSource {
	dec := xml.NewDecoder(r)
	dec.Strict = true
	return &xmlSource{dec: dec}
}

// NewBytes wraps a byte slice into an engine.TokenSource for XML.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

func (s *xmlSource) NextToken() (eng.Token, error) {
	if !s.started {
		s.started = true
		return eng.Token{Kind: eng.KindStartDocument, Line: 1, Column: 1}, nil
	}
	if s.ended {
		return eng.Token{}, io.EOF
	}
	for {
		line, col := s.dec.InputPos()
		tok, err := s.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.ended = true
				return eng.Token{Kind: eng.KindEndDocument, Line: line, Column: col}, nil
			}
			return eng.Token{}, err
		}
		switch v := tok.(type) {
		case xml.StartElement:
			return eng.Token{
				Kind:   eng.KindStartElement,
				Name:   eng.Name{Space: v.Name.Space, Local: v.Name.Local},
				Attrs:  convertAttrs(v.Attr),
				Line:   line,
				Column: col,
			}, nil
		case xml.EndElement:
			return eng.Token{Kind: eng.KindEndElement, Name: eng.Name{Space: v.Name.Space, Local: v.Name.Local}, Line: line, Column: col}, nil
		case xml.CharData:
			return eng.Token{Kind: eng.KindText, Text: string(v), Line: line, Column: col}, nil
		default:
			// comments, processing instructions and directives carry no configuration
			continue
		}
	}
}

func convertAttrs(in []xml.Attr) []eng.Attr {
	if len(in) == 0 {
		return nil
	}
	out := make([]eng.Attr, 0, len(in))
	for _, a := range in {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		out = append(out, eng.Attr{Name: eng.Name{Space: a.Name.Space, Local: a.Name.Local}, Value: a.Value})
	}
	return out
}
