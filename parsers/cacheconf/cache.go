package cacheconf

import (
	"strings"

	confdispatch "github.com/reoring/confdispatch"
)

// inheritor is implemented by builders that can copy a template's fields
// into the current scope.
type inheritor interface {
	Inherit(base confdispatch.Scope)
}

var legacyModes = map[string]string{
	"REPL_SYNC":         "SYNC",
	"REPL_ASYNC":        "ASYNC",
	"DIST_SYNC":         "SYNC",
	"DIST_ASYNC":        "ASYNC",
	"INVALIDATION_SYNC": "SYNC",
}

func (p ConfigParser) readCache(r *confdispatch.Reader, h *confdispatch.Holder, kind string, template bool) error {
	vals, err := r.RequireAttributes("name")
	if err != nil {
		return err
	}
	name := vals[0]
	var (
		base    string
		fields  []field
		foreign []int
	)
	for i := 0; i < r.AttributeCount(); i++ {
		if r.AttributeNamespace(i) != "" {
			foreign = append(foreign, i)
			continue
		}
		switch attr := r.AttributeName(i); attr {
		case "name":
		case "configuration":
			base = r.AttributeValue(i)
		case "mode":
			mode, err := readMode(r, h, i)
			if err != nil {
				return err
			}
			fields = append(fields, field{attr, mode})
		case "owners", "segments", "deadlock-detection-spin":
			if attr == "owners" && kind != "distributed-cache" && kind != "scattered-cache" {
				return r.UnexpectedAttribute(i)
			}
			apply, err := h.AdmitIn(r, Lifecycles, attr)
			if err != nil {
				return err
			}
			n, err := r.AttributeInt(i)
			if err != nil {
				return err
			}
			if apply {
				fields = append(fields, field{attr, n})
			}
		case "statistics":
			v, err := r.AttributeBool(i)
			if err != nil {
				return err
			}
			fields = append(fields, field{attr, v})
		default:
			return r.UnexpectedAttribute(i)
		}
	}

	scopeKind := kind
	if template {
		scopeKind = kind + "-configuration"
	}
	scope := h.Builder.EnterScope(scopeKind, name)
	defer h.Builder.LeaveScope()
	if base != "" {
		tmpl, err := h.Template(r, base)
		if err != nil {
			return err
		}
		if in, ok := h.Builder.(inheritor); ok {
			in.Inherit(tmpl)
		} else {
			h.Builder.SetField("configuration", base)
		}
	}
	if err := h.Declare(r, name, scope, template); err != nil {
		return err
	}
	setFields(h, fields)
	for _, i := range foreign {
		if err := r.HandleAttribute(i, h); err != nil {
			return err
		}
	}

	return r.EachChild(func() error {
		if !ownNamespace(r.Namespace()) {
			return r.HandleAny(h)
		}
		switch r.LocalName() {
		case "expiration":
			return readExpiration(r, h)
		case "memory":
			return readMemory(r, h)
		case "persistence":
			return readPersistence(r, h)
		case "jmx-statistics":
			return readJMXStatistics(r, h)
		default:
			return r.UnexpectedElement()
		}
	})
}

func readMode(r *confdispatch.Reader, h *confdispatch.Holder, i int) (string, error) {
	v := r.AttributeValue(i)
	if mode, ok := legacyModes[strings.ToUpper(v)]; ok {
		l := Lifecycles["mode"]
		l.Replacement = mode
		if _, err := h.Admit(r, "mode", l); err != nil {
			return "", err
		}
		return mode, nil
	}
	return r.AttributeEnum(i, "SYNC", "ASYNC")
}

func readExpiration(r *confdispatch.Reader, h *confdispatch.Holder) error {
	h.Builder.EnterScope("expiration", "")
	defer h.Builder.LeaveScope()
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "lifespan", "max-idle", "interval":
			n, err := r.AttributeInt(i)
			if err != nil {
				return err
			}
			h.Builder.SetField(attr, n)
		default:
			return r.UnexpectedAttribute(i)
		}
	}
	return noChildren(r)
}

func readMemory(r *confdispatch.Reader, h *confdispatch.Holder) error {
	h.Builder.EnterScope("memory", "")
	defer h.Builder.LeaveScope()
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "max-count":
			n, err := r.AttributeInt(i)
			if err != nil {
				return err
			}
			h.Builder.SetField(attr, n)
		case "max-size":
			h.Builder.SetField(attr, r.AttributeValue(i))
		case "when-full":
			v, err := r.AttributeEnum(i, "REMOVE", "EXCEPTION", "MANUAL")
			if err != nil {
				return err
			}
			h.Builder.SetField(attr, v)
		default:
			return r.UnexpectedAttribute(i)
		}
	}
	return noChildren(r)
}

func readPersistence(r *confdispatch.Reader, h *confdispatch.Holder) error {
	h.Builder.EnterScope("persistence", "")
	defer h.Builder.LeaveScope()
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "passivation":
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
		if !ownNamespace(r.Namespace()) {
			return r.HandleAny(h)
		}
		if r.LocalName() != "file-store" {
			return r.UnexpectedElement()
		}
		h.Builder.EnterScope("file-store", "")
		defer h.Builder.LeaveScope()
		for i := 0; i < r.AttributeCount(); i++ {
			if r.AttributeName(i) != "path" {
				return r.UnexpectedAttribute(i)
			}
			h.Builder.SetField("path", r.AttributeValue(i))
		}
		return noChildren(r)
	})
}

// readJMXStatistics reads the pre-10.0 statistics element, which maps onto
// the statistics attribute.
func readJMXStatistics(r *confdispatch.Reader, h *confdispatch.Holder) error {
	apply, err := h.AdmitIn(r, Lifecycles, "jmx-statistics")
	if err != nil {
		return err
	}
	enabled := true
	for i := 0; i < r.AttributeCount(); i++ {
		if r.AttributeName(i) != "enabled" {
			return r.UnexpectedAttribute(i)
		}
		if enabled, err = r.AttributeBool(i); err != nil {
			return err
		}
	}
	if apply {
		h.Builder.SetField("statistics", enabled)
	}
	return noChildren(r)
}

func noChildren(r *confdispatch.Reader) error {
	return r.EachChild(r.UnexpectedElement)
}
