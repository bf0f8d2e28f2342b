package confdispatch

import (
	"bytes"
	"io"
	"io/fs"
)

// Dispatcher resolves elements to versioned parsers and runs parse
// sessions. A Dispatcher is immutable after New and may run any number of
// concurrent sessions, each with its own Reader and Holder.
type Dispatcher struct {
	registry *Registry
	opts     Options
}

// New builds the namespace registry from parsers.
func New(parsers []Parser, opts ...Options) (*Dispatcher, error) {
	opt := normalizeOptions(opts)
	reg, err := NewRegistry(opt.Logger, parsers...)
	if err != nil {
		return nil, err
	}
	if opt.LatestVersion.IsZero() {
		opt.LatestVersion = reg.Latest()
	}
	return &Dispatcher{registry: reg, opts: opt}, nil
}

// Registry exposes the read-only namespace registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Options returns the options the dispatcher was built with.
func (d *Dispatcher) Options() Options { return d.opts }

// Parse runs a session over r, which must not have been read yet. The root
// element is resolved and parsed, anything after it is drained, and r is
// closed on every exit path. Every returned error is an *Error.
func (d *Dispatcher) Parse(r *Reader, h *Holder) (err error) {
	if r == nil {
		return &Error{Code: CodeParseError, Message: "parse session has no reader"}
	}
	defer func() {
		if cerr := r.Close(); cerr != nil && err == nil {
			err = wrapError(cerr, r.Location())
		}
	}()
	if h == nil || h.Builder == nil {
		return &Error{Code: CodeParseError, Message: "parse session has no builder", Location: r.Location()}
	}
	h.attachLogger(d.opts.Logger)
	r.dispatcher = d
	if r.State() != NotStarted {
		return newError(CodeUnexpectedToken, r.Location(), "", "reader is not positioned at document start")
	}
	if err := d.parseDocument(r, h); err != nil {
		return wrapError(err, r.Location())
	}
	return nil
}

func (d *Dispatcher) parseDocument(r *Reader, h *Holder) error {
	k, err := r.Next()
	if err != nil {
		return err
	}
	if k != StartDocument {
		return newError(CodeUnexpectedToken, r.Location(), "", "expected start of document, found %s", k)
	}
	k, err = r.NextTag()
	if err != nil {
		return err
	}
	if k == StartElement {
		if err := d.ParseElement(r, h); err != nil {
			return err
		}
	}
	for r.Kind() != EndDocument {
		k, err := r.Next()
		if err != nil {
			return err
		}
		if k == StartElement {
			h.Warn(r, CodeUnexpectedElement, r.LocalName(), "ignored: content after the root element")
			if err := r.SkipElement(); err != nil {
				return err
			}
		}
	}
	return nil
}

// versionFor derives the schema version of an element in namespace uri.
// Unqualified elements inherit the enclosing version; unversioned
// namespaces are read at the latest known version.
func (d *Dispatcher) versionFor(uri string, current Version) Version {
	if v, ok := VersionFromURI(uri); ok {
		return v
	}
	if uri == "" && !current.IsZero() {
		return current
	}
	return d.opts.LatestVersion
}

// ParseElement resolves the parser for the current start element and
// invokes it in a fresh depth context at the element's schema version,
// restoring the previous version afterwards. Unresolved elements go
// through the cache-name fallback.
func (d *Dispatcher) ParseElement(r *Reader, h *Holder) error {
	if err := r.Require(StartElement, ""); err != nil {
		return err
	}
	name := r.QName()
	b, ok := d.registry.Resolve(name.Space, name.Local, d.versionFor(name.Space, r.Version()))
	if !ok {
		return d.parseCacheName(r, h)
	}
	return d.invoke(r, h, b)
}

func (d *Dispatcher) invoke(r *Reader, h *Holder, b Binding) error {
	name := r.LocalName()
	prev := r.Version()
	r.setVersion(b.Version)
	defer r.setVersion(prev)
	idx := r.pushContext()
	if err := b.Parser.ReadElement(r, h); err != nil {
		r.unwindContexts(idx)
		return err
	}
	return r.popContext(idx, name)
}

// ParseAttribute hands attribute index of the current element to the
// parser registered for the attribute's namespace and the element's name.
func (d *Dispatcher) ParseAttribute(r *Reader, index int, h *Holder) error {
	uri, local := r.AttributeNamespace(index), r.AttributeName(index)
	b, ok := d.registry.Resolve(uri, r.LocalName(), d.versionFor(uri, r.Version()))
	ap, isAttr := b.Parser.(AttributeParser)
	if !ok || !isAttr {
		return newError(CodeUnexpectedAttribute, r.Location(), local, "unexpected attribute '%s' in namespace '%s'", local, uri)
	}
	prev := r.Version()
	r.setVersion(b.Version)
	defer r.setVersion(prev)
	return ap.ReadAttribute(r, index, h)
}

// ParseReader parses a document read from src. Includes are resolved with
// resolver, which may be nil when the document has none.
func (d *Dispatcher) ParseReader(src io.Reader, name string, media MediaType, resolver Resolver, h *Holder) error {
	r, err := NewReader(src, name, media, resolver, d.opts)
	if err != nil {
		return err
	}
	return d.Parse(r, h)
}

// ParseBytes parses an in-memory document that has no includes.
func (d *Dispatcher) ParseBytes(data []byte, name string, media MediaType, h *Holder) error {
	return d.ParseReader(bytes.NewReader(data), name, media, nil, h)
}

// ParseFile parses name from fsys; includes are resolved within fsys
// relative to the including document.
func (d *Dispatcher) ParseFile(fsys fs.FS, name string, h *Holder) error {
	resolver := NewFSResolver(fsys)
	res, err := resolver.Open(name)
	if err != nil {
		return &Error{Code: CodeResourceFailure, Message: "cannot open configuration", Name: name, Location: Location{Resource: name}, Cause: err}
	}
	r, err := NewResourceReader(res, resolver, d.opts)
	if err != nil {
		return err
	}
	return d.Parse(r, h)
}
