package confdispatch

import (
	"errors"
	"fmt"
	"io"

	eng "github.com/reoring/confdispatch/internal/engine"
)

func isInclude(tok eng.Token) bool {
	return tok.Name.Space == eng.XIncludeNamespace && tok.Name.Local == "include"
}

// pushInclude replaces the current document with the one referenced by the
// include element tok. The include element and anything inside it are
// consumed from the including document first, so the parent resumes right
// after it once the included document is exhausted.
func (r *Reader) pushInclude(tok eng.Token) error {
	parent := &r.frames[len(r.frames)-1]
	loc := r.Location()
	loc.Resource = parent.name

	var href string
	for _, a := range tok.Attrs {
		if a.Name.Space == "" && a.Name.Local == "href" {
			href = ReplaceProperties(a.Value, r.props)
		}
	}
	if href == "" {
		e := newError(CodeMissingRequired, loc, "href", "include is missing required attribute 'href'")
		e.Names = []string{"href"}
		return e
	}
	if err := skipIncludeBody(parent); err != nil {
		return r.sourceError(err, parent)
	}
	if r.IncludeDepth() >= r.opts.MaxIncludeDepth {
		return resourceFailure(loc, href, fmt.Errorf("include depth exceeds %d", r.opts.MaxIncludeDepth))
	}
	if r.resolver == nil {
		return resourceFailure(loc, href, errors.New("no resource resolver configured"))
	}
	res, err := r.resolver.Resolve(parent.name, href)
	if err != nil {
		return resourceFailure(loc, href, err)
	}
	for _, f := range r.frames {
		if f.name == res.Name {
			_ = res.Body.Close()
			return resourceFailure(loc, href, fmt.Errorf("include cycle through %s", res.Name))
		}
	}
	media := res.MediaType
	if media == "" {
		media = MediaTypeFromName(res.Name)
	}
	if media == "" {
		media = parent.media
	}
	src, err := openSource(res.Body, media, r.opts)
	if err != nil {
		_ = res.Body.Close()
		return openError(err, res.Name)
	}
	r.frames = append(r.frames, frame{src: src, name: res.Name, media: media, closer: res.Body, includedAt: loc})
	r.opts.Logger.Debug("include opened", "href", href, "resource", res.Name, "from", loc.String(), "depth", r.IncludeDepth())
	return nil
}

// popInclude closes the exhausted included document and resumes its parent.
func (r *Reader) popInclude() error {
	n := len(r.frames) - 1
	f := r.frames[n]
	r.frames = r.frames[:n]
	r.opts.Logger.Debug("include closed", "resource", f.name, "depth", r.IncludeDepth())
	if f.closer == nil {
		return nil
	}
	if err := f.closer.Close(); err != nil {
		return resourceFailure(f.includedAt, f.name, err)
	}
	return nil
}

func skipIncludeBody(f *frame) error {
	for depth := 1; depth > 0; {
		tok, err := f.src.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		switch tok.Kind {
		case eng.KindStartElement:
			depth++
		case eng.KindEndElement:
			depth--
		}
	}
	return nil
}

func resourceFailure(loc Location, href string, cause error) error {
	return &Error{
		Code:     CodeResourceFailure,
		Message:  fmt.Sprintf("cannot include '%s'", href),
		Name:     href,
		Location: loc,
		Cause:    cause,
	}
}
