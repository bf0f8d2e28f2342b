package cacheconf

import (
	confdispatch "github.com/reoring/confdispatch"
)

// LegacyParser reads 8.0 documents, whose caches are declared as
// <namedCache name="..."/> inside <config> with an optional <default/> cache.
// Every cache becomes a local cache in the builder.
type LegacyParser struct{}

func (LegacyParser) Namespaces() []confdispatch.Namespace {
	return []confdispatch.Namespace{{URI: LegacyNamespace, Root: "config"}}
}

func (LegacyParser) ReadElement(r *confdispatch.Reader, h *confdispatch.Holder) error {
	if err := r.Require(confdispatch.StartElement, "config"); err != nil {
		return err
	}
	h.Builder.EnterScope("config", "")
	defer h.Builder.LeaveScope()
	h.Builder.SetField("schema", r.Version().String())
	h.Builder.SetField("legacy", true)
	return r.EachChild(func() error {
		switch r.LocalName() {
		case "global":
			h.Warn(r, confdispatch.CodeDeprecatedConstruct, "global", "global settings of schema 8.0 are ignored")
			return r.SkipElement()
		case "default":
			return readLegacyCache(r, h, "___defaultcache")
		case "namedCache":
			vals, err := r.RequireAttributes("name")
			if err != nil {
				return err
			}
			return readLegacyCache(r, h, vals[0])
		default:
			return r.UnexpectedElement()
		}
	})
}

func readLegacyCache(r *confdispatch.Reader, h *confdispatch.Holder, name string) error {
	scope := h.Builder.EnterScope("local-cache", name)
	defer h.Builder.LeaveScope()
	if err := h.Declare(r, name, scope, false); err != nil {
		return err
	}
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "name":
		case "statistics":
			v, err := r.AttributeBool(i)
			if err != nil {
				return err
			}
			h.Builder.SetField(attr, v)
		default:
			return r.UnexpectedAttribute(i)
		}
	}
	return r.EachChild(func() error {
		if r.LocalName() != "jmx-statistics" {
			return r.UnexpectedElement()
		}
		return readJMXStatistics(r, h)
	})
}
