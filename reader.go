package confdispatch

import (
	"errors"
	"fmt"
	"io"
	"strings"

	eng "github.com/reoring/confdispatch/internal/engine"
	jsonsrc "github.com/reoring/confdispatch/source/json"
	xmlsrc "github.com/reoring/confdispatch/source/xml"
	yamlsrc "github.com/reoring/confdispatch/source/yaml"
)

// TokenKind aliases the engine token kind so parsers can branch on it.
type TokenKind = eng.Kind

const (
	StartDocument TokenKind = eng.KindStartDocument
	EndDocument   TokenKind = eng.KindEndDocument
	StartElement  TokenKind = eng.KindStartElement
	EndElement    TokenKind = eng.KindEndElement
	Text          TokenKind = eng.KindText
)

// QName is a namespace-qualified element or attribute name.
type QName = eng.Name

// ReaderState is the meta-state of a Reader.
type ReaderState int

const (
	NotStarted ReaderState = iota
	InDocument
	InIncludedDocument
	Closed
)

func (s ReaderState) String() string {
	switch s {
	case NotStarted:
		return "not-started"
	case InDocument:
		return "in-document"
	case InIncludedDocument:
		return "in-included-document"
	default:
		return "closed"
	}
}

// frame is one document on the inclusion stack.
type frame struct {
	src    eng.TokenSource
	name   string
	media  MediaType
	closer io.Closer
	// includedAt is the location of the include element that opened this
	// frame; zero for the root document.
	includedAt Location
}

// readerContext bounds how far a delegate may read. remaining counts the
// elements still open in the delegate's scope; -1 means unbounded.
type readerContext struct {
	remaining int
}

// Reader is a pull cursor over a configuration document. It splices
// included documents into the token stream and keeps a stack of depth
// contexts so a delegated parser cannot read past the element it was
// handed. A Reader serves a single parse session and is not safe for
// concurrent use.
type Reader struct {
	frames     []frame
	contexts   []readerContext
	resolver   Resolver
	opts       Options
	props      PropertyLookup
	dispatcher *Dispatcher

	tok        eng.Token
	tokSource  string
	path       []string
	pendingPop bool
	started    bool
	closed     bool
	version    Version
}

// NewReader creates a reader over src. name identifies the document for
// diagnostics and relative include resolution; media selects the
// tokenizer (XML when empty). The caller keeps ownership of src.
func NewReader(src io.Reader, name string, media MediaType, resolver Resolver, opts ...Options) (*Reader, error) {
	return newReader(src, nil, name, media, resolver, normalizeOptions(opts))
}

// NewResourceReader creates a reader over an opened resource and takes
// ownership of its body: Close releases it.
func NewResourceReader(res Resource, resolver Resolver, opts ...Options) (*Reader, error) {
	media := res.MediaType
	if media == "" {
		media = MediaTypeFromName(res.Name)
	}
	r, err := newReader(res.Body, res.Body, res.Name, media, resolver, normalizeOptions(opts))
	if err != nil {
		_ = res.Body.Close()
		return nil, err
	}
	return r, nil
}

func newReader(src io.Reader, closer io.Closer, name string, media MediaType, resolver Resolver, opt Options) (*Reader, error) {
	if src == nil {
		return nil, fmt.Errorf("nil configuration reader")
	}
	if media == "" {
		media = MediaXML
	}
	ts, err := openSource(src, media, opt)
	if err != nil {
		return nil, openError(err, name)
	}
	r := &Reader{
		frames:   []frame{{src: ts, name: name, media: media, closer: closer}},
		contexts: []readerContext{{remaining: -1}},
		resolver: resolver,
		opts:     opt,
		props:    MapProperties(opt.Properties),
	}
	return r, nil
}

func openSource(src io.Reader, media MediaType, opt Options) (eng.TokenSource, error) {
	var (
		ts  eng.TokenSource
		err error
	)
	switch media {
	case MediaXML:
		ts = xmlsrc.NewReader(src)
	case MediaJSON:
		ts, err = jsonsrc.NewReader(src)
	case MediaYAML:
		ts, err = yamlsrc.NewReader(src)
	default:
		return nil, fmt.Errorf("unsupported media type %q", media)
	}
	if err != nil {
		return nil, err
	}
	return eng.WrapWithEnforcement(ts, eng.EnforceOptions{MaxDepth: opt.MaxDepth, RejectDuplicateAttrs: true}), nil
}

// State reports the reader's meta-state.
func (r *Reader) State() ReaderState {
	switch {
	case r.closed:
		return Closed
	case !r.started:
		return NotStarted
	case len(r.frames) > 1:
		return InIncludedDocument
	default:
		return InDocument
	}
}

// IncludeDepth is the number of included documents currently open.
func (r *Reader) IncludeDepth() int { return len(r.frames) - 1 }

// Version is the schema version the current element is parsed at.
func (r *Reader) Version() Version { return r.version }

func (r *Reader) setVersion(v Version) { r.version = v }

// Location snapshots the position of the current token.
func (r *Reader) Location() Location {
	loc := Location{Resource: r.tokSource, Line: r.tok.Line, Column: r.tok.Column}
	if r.tokSource == "" && len(r.frames) > 0 {
		loc.Resource = r.frames[len(r.frames)-1].name
	}
	if len(r.path) > 0 {
		loc.Path = "/" + strings.Join(r.path, "/")
	}
	return loc
}

func (r *Reader) top() *readerContext { return &r.contexts[len(r.contexts)-1] }

// Next advances to the next token. Include elements are never returned:
// the included document's elements appear in their place.
func (r *Reader) Next() (TokenKind, error) {
	if r.closed {
		return 0, newError(CodeReadPastEnd, r.Location(), "", "reader is closed")
	}
	if r.top().remaining == 0 {
		return 0, newError(CodeReadPastEnd, r.Location(), r.tok.Name.Local, "attempt to read past end of element <%s>", r.tok.Name.Local)
	}
	if r.started && r.tok.Kind == EndDocument {
		return 0, newError(CodeReadPastEnd, r.Location(), "", "attempt to read past end of document")
	}
	if r.pendingPop {
		r.path = r.path[:len(r.path)-1]
		r.pendingPop = false
	}
	for {
		f := &r.frames[len(r.frames)-1]
		tok, err := f.src.NextToken()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return 0, r.sourceError(err, f)
		}
		switch tok.Kind {
		case StartDocument:
			if len(r.frames) > 1 {
				continue
			}
			r.started = true
		case EndDocument:
			if len(r.frames) > 1 {
				if err := r.popInclude(); err != nil {
					return 0, err
				}
				continue
			}
		case StartElement:
			if isInclude(tok) {
				r.tok, r.tokSource = tok, f.name
				if err := r.pushInclude(tok); err != nil {
					return 0, err
				}
				continue
			}
			r.path = append(r.path, tok.Name.Local)
			if c := r.top(); c.remaining >= 0 {
				c.remaining++
			}
		case EndElement:
			r.pendingPop = true
			if c := r.top(); c.remaining > 0 {
				c.remaining--
			}
		}
		r.tok, r.tokSource = tok, f.name
		return tok.Kind, nil
	}
}

// openError locates a failure to load a document. Duplicate mapping keys
// are reported with the position the driver recorded.
func openError(err error, name string) error {
	var (
		jd *jsonsrc.DuplicateKeyError
		yd *yamlsrc.DuplicateKeyError
	)
	switch {
	case errors.As(err, &jd):
		return &Error{Code: CodeDuplicateKey, Message: jd.Error(), Name: jd.Key, Location: Location{Resource: name, Path: jd.Path}}
	case errors.As(err, &yd):
		return &Error{Code: CodeDuplicateKey, Message: yd.Error(), Name: yd.Key, Location: Location{Resource: name, Line: yd.Line, Column: yd.Col}}
	}
	return wrapError(err, Location{Resource: name})
}

func (r *Reader) sourceError(err error, f *frame) error {
	var ee *eng.EnforceError
	if errors.As(err, &ee) {
		loc := Location{Resource: f.name, Line: ee.Token.Line, Column: ee.Token.Column}
		code := CodeParseError
		if ee.Code == "duplicate_attribute" {
			code = CodeUnexpectedAttribute
		}
		return &Error{Code: code, Message: ee.Message, Name: ee.Token.Name.Local, Location: loc}
	}
	return wrapError(err, Location{Resource: f.name, Line: r.tok.Line, Column: r.tok.Column})
}

// NextTag advances to the next start or end element (or end of document),
// skipping whitespace. Non-whitespace text is an error.
func (r *Reader) NextTag() (TokenKind, error) {
	for {
		k, err := r.Next()
		if err != nil {
			return 0, err
		}
		switch k {
		case StartElement, EndElement, EndDocument:
			return k, nil
		case Text:
			if !r.tok.IsWhitespace() {
				return 0, newError(CodeUnexpectedToken, r.Location(), "", "unexpected text %q", strings.TrimSpace(r.tok.Text))
			}
		}
	}
}

// Kind returns the kind of the current token.
func (r *Reader) Kind() TokenKind { return r.tok.Kind }

// QName returns the name of the current element.
func (r *Reader) QName() QName { return r.tok.Name }

// LocalName returns the local name of the current element.
func (r *Reader) LocalName() string { return r.tok.Name.Local }

// Namespace returns the namespace URI of the current element.
func (r *Reader) Namespace() string { return r.tok.Name.Space }

// AttributeCount returns the number of attributes of the current start element.
func (r *Reader) AttributeCount() int { return len(r.tok.Attrs) }

// AttributeName returns the local name of attribute i.
func (r *Reader) AttributeName(i int) string { return r.tok.Attrs[i].Name.Local }

// AttributeNamespace returns the namespace URI of attribute i.
func (r *Reader) AttributeNamespace(i int) string { return r.tok.Attrs[i].Name.Space }

// AttributeValue returns the value of attribute i with properties replaced.
func (r *Reader) AttributeValue(i int) string {
	return ReplaceProperties(r.tok.Attrs[i].Value, r.props)
}

// Attribute returns the value of the unqualified attribute name with
// properties replaced.
func (r *Reader) Attribute(name string) (string, bool) {
	for i, a := range r.tok.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			return r.AttributeValue(i), true
		}
	}
	return "", false
}

// SetAttribute sets an unqualified attribute on the current start element.
func (r *Reader) SetAttribute(name, value string) {
	attrs := make([]eng.Attr, 0, len(r.tok.Attrs)+1)
	replaced := false
	for _, a := range r.tok.Attrs {
		if a.Name.Space == "" && a.Name.Local == name {
			a.Value = value
			replaced = true
		}
		attrs = append(attrs, a)
	}
	if !replaced {
		attrs = append(attrs, eng.Attr{Name: eng.Name{Local: name}, Value: value})
	}
	r.tok.Attrs = attrs
}

// Property resolves a property by name.
func (r *Reader) Property(name string) (string, bool) { return r.props(name) }

// ElementText reads the text content of the current element and leaves the
// reader on its end element. Child elements are an error.
func (r *Reader) ElementText() (string, error) {
	if err := r.Require(StartElement, ""); err != nil {
		return "", err
	}
	name := r.LocalName()
	var b strings.Builder
	for {
		k, err := r.Next()
		if err != nil {
			return "", err
		}
		switch k {
		case Text:
			b.WriteString(r.tok.Text)
		case EndElement:
			return ReplaceProperties(strings.TrimSpace(b.String()), r.props), nil
		case StartElement:
			return "", newError(CodeUnexpectedElement, r.Location(), r.LocalName(), "unexpected element <%s> inside text-only element <%s>", r.LocalName(), name)
		}
	}
}

// Require checks the current token kind and, when local is not empty, the
// element's local name.
func (r *Reader) Require(kind TokenKind, local string) error {
	if r.tok.Kind != kind {
		return newError(CodeUnexpectedToken, r.Location(), r.LocalName(), "expected %s, found %s", kind, r.tok.Kind)
	}
	if local != "" && r.tok.Name.Local != local {
		return newError(CodeUnexpectedElement, r.Location(), r.LocalName(), "expected <%s>, found <%s>", local, r.LocalName())
	}
	return nil
}

// SkipElement consumes the current element and its content, leaving the
// reader on its end element.
func (r *Reader) SkipElement() error {
	if err := r.Require(StartElement, ""); err != nil {
		return err
	}
	for depth := 1; depth > 0; {
		k, err := r.Next()
		if err != nil {
			return err
		}
		switch k {
		case StartElement:
			depth++
		case EndElement:
			depth--
		}
	}
	return nil
}

// HandleAny delegates the current start element to whichever parser the
// dispatcher resolves for it.
func (r *Reader) HandleAny(h *Holder) error {
	if err := r.Require(StartElement, ""); err != nil {
		return err
	}
	if r.dispatcher == nil {
		return newError(CodeUnexpectedElement, r.Location(), r.LocalName(), "no dispatcher available for <%s>", r.LocalName())
	}
	return r.dispatcher.ParseElement(r, h)
}

// pushContext bounds the delegate about to read the current start element.
func (r *Reader) pushContext() int {
	r.contexts = append(r.contexts, readerContext{remaining: 1})
	return len(r.contexts) - 1
}

// popContext ends the delegate scope opened at index. The delegate must
// have consumed its element up to the matching end element.
func (r *Reader) popContext(index int, name string) error {
	c := r.contexts[index]
	r.contexts = r.contexts[:index]
	if c.remaining != 0 {
		return newError(CodeUnexpectedToken, r.Location(), name, "parser for <%s> returned before the end of the element", name)
	}
	if p := r.top(); p.remaining > 0 {
		p.remaining--
	}
	return nil
}

// unwindContexts drops delegate scopes after a failure.
func (r *Reader) unwindContexts(index int) {
	if index < len(r.contexts) {
		r.contexts = r.contexts[:index]
	}
}

// Close releases every open document, innermost first. It is safe to call
// more than once; each resource is closed exactly once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	var errs []error
	for i := len(r.frames) - 1; i >= 0; i-- {
		if c := r.frames[i].closer; c != nil {
			r.frames[i].closer = nil
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s: %w", r.frames[i].name, err))
			}
		}
	}
	r.frames = r.frames[:1]
	return errors.Join(errs...)
}
