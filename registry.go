package confdispatch

import (
	"fmt"
	"reflect"
	"slices"
	"sort"

	"github.com/charmbracelet/log"
)

type registryKey struct {
	uri  string
	root string
}

// Registry maps (namespace URI, root element) pairs to parsers. It is
// populated once by NewRegistry and never mutated afterwards, so one
// Registry can serve concurrent parse sessions.
type Registry struct {
	bindings map[registryKey][]Binding
	latest   Version
}

// NewRegistry registers every parser. Parsers are ordered by their newest
// declared version (newest first, ties keep input order) so that conflict
// resolution does not depend on discovery order. A parser that declares no
// namespaces is a configuration error. When two parsers of different types
// claim the same key with overlapping versions, a warning is logged and the
// first one wins.
func NewRegistry(logger *log.Logger, parsers ...Parser) (*Registry, error) {
	if logger == nil {
		logger = discardLogger()
	}
	ordered := slices.Clone(parsers)
	sort.SliceStable(ordered, func(i, j int) bool {
		return newestVersion(ordered[j]).Less(newestVersion(ordered[i]))
	})
	r := &Registry{bindings: make(map[registryKey][]Binding)}
	for _, p := range ordered {
		if err := r.register(logger, p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func newestVersion(p Parser) Version {
	var v Version
	for _, ns := range p.Namespaces() {
		ns = ns.normalize()
		if v.Less(ns.Since) {
			v = ns.Since
		}
		if v.Less(ns.Until) {
			v = ns.Until
		}
	}
	return v
}

func (r *Registry) register(logger *log.Logger, p Parser) error {
	if p == nil {
		return fmt.Errorf("register parser: nil parser")
	}
	declared := p.Namespaces()
	if len(declared) == 0 {
		return fmt.Errorf("register parser %T: no namespaces declared", p)
	}
	for _, ns := range declared {
		ns = ns.normalize()
		if ns.Root == "" {
			return fmt.Errorf("register parser %T: namespace %q declares no root element", p, ns.URI)
		}
		key := registryKey{uri: ns.URI, root: ns.Root}
		if existing, clash := r.conflict(key, ns); clash {
			if reflect.TypeOf(existing.Parser) != reflect.TypeOf(p) {
				logger.Warn("conflicting parser registration ignored",
					"code", CodeRegistryConflict,
					"namespace", ns.String(),
					"kept", fmt.Sprintf("%T", existing.Parser),
					"ignored", fmt.Sprintf("%T", p))
			}
			continue
		}
		r.bindings[key] = append(r.bindings[key], Binding{Namespace: ns, Parser: p})
		for _, v := range []Version{ns.Since, ns.Until} {
			if r.latest.Less(v) {
				r.latest = v
			}
		}
	}
	return nil
}

func (r *Registry) conflict(key registryKey, ns Namespace) (Binding, bool) {
	for _, b := range r.bindings[key] {
		if b.Namespace.overlaps(ns) {
			return b, true
		}
	}
	return Binding{}, false
}

// Latest returns the highest version declared by any registered namespace.
func (r *Registry) Latest() Version { return r.latest }

// Resolve finds the parser for root in namespace uri at version v: first an
// exact (uri, root) binding, then a wildcard binding of the URI's
// namespace family whose range contains v.
func (r *Registry) Resolve(uri, root string, v Version) (Binding, bool) {
	if b, ok := r.lookup(registryKey{uri: uri, root: root}, v); ok {
		return b, true
	}
	if uri == "" || IsWildcardURI(uri) {
		return Binding{}, false
	}
	return r.lookup(registryKey{uri: WildcardURI(uri), root: root}, v)
}

func (r *Registry) lookup(key registryKey, v Version) (Binding, bool) {
	for _, b := range r.bindings[key] {
		if b.Namespace.Accepts(v) {
			b.Version = v
			return b, true
		}
	}
	return Binding{}, false
}

// Candidates lists declared namespaces close to (uri, root): other roots of
// the same namespace family and other namespaces declaring root.
func (r *Registry) Candidates(uri, root string) []string {
	base := BaseURI(uri)
	seen := make(map[string]struct{})
	for key, bs := range r.bindings {
		sameFamily := BaseURI(key.uri) == base
		if !sameFamily && key.root != root {
			continue
		}
		for _, b := range bs {
			seen[b.Namespace.String()] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	const maxHints = 5
	if len(out) > maxHints {
		out = out[:maxHints]
	}
	return out
}

// Namespaces lists every registered namespace, sorted by URI, root and version.
func (r *Registry) Namespaces() []Namespace {
	var out []Namespace
	for _, bs := range r.bindings {
		for _, b := range bs {
			out = append(out, b.Namespace)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.URI != b.URI {
			return a.URI < b.URI
		}
		if a.Root != b.Root {
			return a.Root < b.Root
		}
		return a.Since.Less(b.Since)
	})
	return out
}
