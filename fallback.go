package confdispatch

import (
	"fmt"
	"slices"

	eng "github.com/reoring/confdispatch/internal/engine"
)

// parseCacheName handles an element no parser declares. In formats without
// namespace syntax a cache is often written as its name wrapping its kind,
// e.g. {"sessions": {"distributed-cache": {...}}}: when the only child is a
// known cache kind, the wrapper's name becomes the cache's name attribute
// and the child is dispatched instead.
func (d *Dispatcher) parseCacheName(r *Reader, h *Holder) error {
	outer := r.QName()
	outerLoc := r.Location()
	outerVersion := d.versionFor(outer.Space, r.Version())
	var outerAttr *eng.Attr
	if r.AttributeCount() > 0 {
		a := r.tok.Attrs[0]
		outerAttr = &a
	}
	idx := r.pushContext()

	k, err := r.NextTag()
	if err != nil {
		r.unwindContexts(idx)
		if IsCode(err, CodeUnexpectedToken) {
			k = Text
		} else {
			return err
		}
	}
	if k != StartElement || !slices.Contains(d.opts.CacheKinds, r.LocalName()) {
		r.unwindContexts(idx)
		return d.unresolved(outer, outerLoc, outerVersion,
			fmt.Sprintf("unsupported configuration: '%s' is neither a namespace-qualified element nor a valid cache name", outer.Local))
	}
	if outerAttr != nil {
		r.unwindContexts(idx)
		return newError(CodeUnexpectedAttribute, outerLoc, outerAttr.Name.Local,
			"unexpected attribute '%s' on cache name '%s': attributes belong on <%s>", outerAttr.Name.Local, outer.Local, r.LocalName())
	}
	inner := r.QName()
	innerVersion := d.versionFor(inner.Space, r.Version())
	b, ok := d.registry.Resolve(inner.Space, inner.Local, innerVersion)
	if !ok {
		r.unwindContexts(idx)
		return d.unresolved(inner, r.Location(), innerVersion, "unsupported configuration root")
	}
	r.SetAttribute("name", outer.Local)
	if err := d.invoke(r, h, b); err != nil {
		r.unwindContexts(idx)
		return err
	}
	k, err = r.NextTag()
	if err != nil {
		r.unwindContexts(idx)
		return err
	}
	if k != EndElement {
		r.unwindContexts(idx)
		return newError(CodeUnexpectedElement, r.Location(), r.LocalName(), "cache name '%s' must wrap exactly one cache definition, found <%s>", outer.Local, r.LocalName())
	}
	return r.popContext(idx, outer.Local)
}

func (d *Dispatcher) unresolved(name QName, loc Location, v Version, prefix string) error {
	ns := name.Space
	if ns == "" {
		ns = "(none)"
	}
	e := newError(CodeUnresolvedRoot, loc, name.Local, "%s: no parser declares element <%s> for namespace '%s' at version %s", prefix, name.Local, ns, v)
	e.Hints = d.registry.Candidates(name.Space, name.Local)
	return e
}
