package cacheconf

import (
	confdispatch "github.com/reoring/confdispatch"
)

// ConfigParser reads configuration documents of schema 9.0 to 15.0. It
// declares the document root, the cache container and every cache kind,
// both in the versioned namespace and unqualified, so fragments and
// namespace-less JSON or YAML documents resolve too.
type ConfigParser struct{}

func (ConfigParser) Namespaces() []confdispatch.Namespace {
	roots := append([]string{"config", "cache-container"}, CacheKinds...)
	out := make([]confdispatch.Namespace, 0, 2*len(roots))
	for _, uri := range []string{Namespace, ""} {
		for _, root := range roots {
			out = append(out, confdispatch.Namespace{URI: uri, Root: root, Since: firstVersion, Until: latestVersion})
		}
	}
	return out
}

func (p ConfigParser) ReadElement(r *confdispatch.Reader, h *confdispatch.Holder) error {
	switch local := r.LocalName(); local {
	case "config":
		return p.readConfig(r, h)
	case "cache-container":
		return p.readContainer(r, h)
	default:
		if isCacheKind(local) {
			return p.readCache(r, h, local, false)
		}
		return r.UnexpectedElement()
	}
}

func (p ConfigParser) readConfig(r *confdispatch.Reader, h *confdispatch.Holder) error {
	if r.AttributeCount() > 0 {
		return r.UnexpectedAttribute(0)
	}
	h.Builder.EnterScope("config", "")
	defer h.Builder.LeaveScope()
	h.Builder.SetField("schema", r.Version().String())
	return r.EachChild(func() error {
		if !ownNamespace(r.Namespace()) {
			return r.HandleAny(h)
		}
		switch r.LocalName() {
		case "threads":
			return p.readThreads(r, h)
		case "cache-container":
			return p.readContainer(r, h)
		default:
			return r.UnexpectedElement()
		}
	})
}

func (p ConfigParser) readContainer(r *confdispatch.Reader, h *confdispatch.Holder) error {
	vals, err := r.RequireAttributes("name")
	if err != nil {
		return err
	}
	name := vals[0]
	containerLoc := r.Location()
	var (
		defaultCache     string
		blockingExecutor string
		fields           []field
	)
	for i := 0; i < r.AttributeCount(); i++ {
		if r.AttributeNamespace(i) != "" {
			return r.UnexpectedAttribute(i)
		}
		switch attr := r.AttributeName(i); attr {
		case "name":
		case "default-cache":
			defaultCache = r.AttributeValue(i)
		case "statistics":
			v, err := r.AttributeBool(i)
			if err != nil {
				return err
			}
			fields = append(fields, field{attr, v})
		case "blocking-executor":
			blockingExecutor = r.AttributeValue(i)
			if err := requirePool(r, h, blockingExecutor); err != nil {
				return err
			}
		case "module", "start":
			apply, err := h.AdmitIn(r, Lifecycles, attr)
			if err != nil {
				return err
			}
			if apply {
				fields = append(fields, field{attr, r.AttributeValue(i)})
			}
		default:
			return r.UnexpectedAttribute(i)
		}
	}

	scope := h.Builder.EnterScope("cache-container", name)
	defer h.Builder.LeaveScope()
	if err := h.Declare(r, name, scope, false); err != nil {
		return err
	}
	if defaultCache != "" {
		h.Builder.SetField("default-cache", defaultCache)
	}
	if blockingExecutor != "" {
		h.Builder.SetField("blocking-executor", blockingExecutor)
	}
	setFields(h, fields)

	err = r.EachChild(func() error {
		local := r.LocalName()
		switch {
		case !ownNamespace(r.Namespace()):
			return r.HandleAny(h)
		case isCacheKind(local):
			return p.readCache(r, h, local, false)
		}
		if kind, ok := templateKind(local); ok {
			return p.readCache(r, h, kind, true)
		}
		// Unknown names may be a cache name wrapping its kind.
		return r.HandleAny(h)
	})
	if err != nil {
		return err
	}
	if defaultCache != "" {
		if _, ok := h.Builder.FindNamed(defaultCache); !ok {
			return &confdispatch.Error{
				Code:     confdispatch.CodeUnresolvedReference,
				Message:  "default-cache '" + defaultCache + "' of container '" + name + "' is not declared",
				Name:     defaultCache,
				Location: containerLoc,
			}
		}
	}
	return nil
}

type field struct {
	key   string
	value any
}

func setFields(h *confdispatch.Holder, fields []field) {
	for _, f := range fields {
		h.Builder.SetField(f.key, f.value)
	}
}
