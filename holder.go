package confdispatch

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// Scope is an opaque handle to a builder scope.
type Scope any

// Builder is the object graph that accumulates parsed configuration. The
// dispatcher and parsers only mutate it through these operations.
type Builder interface {
	EnterScope(kind, name string) Scope
	SetField(key string, value any)
	LeaveScope()
	RegisterNamed(name string, s Scope)
	FindNamed(name string) (Scope, bool)
}

type namedEntry struct {
	scope    Scope
	template bool
	loc      Location
}

// Holder is the session context passed through every parser call. It owns
// all mutable per-session state so parsers themselves stay stateless and
// shareable between sessions.
type Holder struct {
	Builder Builder

	id       string
	logger   *log.Logger
	discard  bool // logger is the default created by Logger
	warnings Issues
	named    map[string]namedEntry
	values   map[any]any
}

// NewHolder starts a parse session that populates b.
func NewHolder(b Builder) *Holder {
	return &Holder{
		Builder: b,
		id:      uuid.NewString(),
		named:   make(map[string]namedEntry),
		values:  make(map[any]any),
	}
}

// ID identifies the session in log output.
func (h *Holder) ID() string { return h.id }

// Logger returns the session logger.
func (h *Holder) Logger() *log.Logger {
	if h.logger == nil {
		h.logger = discardLogger()
		h.discard = true
	}
	return h.logger
}

func (h *Holder) attachLogger(l *log.Logger) {
	if h.logger == nil || h.discard {
		h.logger = l.With("session", h.id)
		h.discard = false
	}
}

// Warnings returns the non-fatal findings collected so far.
func (h *Holder) Warnings() Issues { return h.warnings }

// Warn records a non-fatal finding at the reader's current location.
func (h *Holder) Warn(r *Reader, code Code, name, msg string) {
	it := Issue{Code: code, Name: name, Message: msg, Location: r.Location()}
	h.warnings = append(h.warnings, it)
	h.Logger().Warn(msg, "code", code, "name", name, "location", it.Location.String())
}

// Admit applies the version gate for name at the reader's schema version.
// It returns whether the value should be applied; rejections become errors
// naming the construct and its location, deprecations become one warning.
func (h *Holder) Admit(r *Reader, name string, l Lifecycle) (bool, error) {
	d := l.Evaluate(r.Version())
	switch d.Verdict {
	case Reject:
		return false, newError(d.Code, r.Location(), name, "'%s' is %s", name, d.Message)
	case Warn:
		h.Warn(r, d.Code, name, d.Message)
	}
	return d.Apply(), nil
}

// AdmitIn is Admit with the lifecycle looked up in g. Names absent from g
// are always applied.
func (h *Holder) AdmitIn(r *Reader, g Gate, name string) (bool, error) {
	l, ok := g.Lookup(name)
	if !ok {
		return true, nil
	}
	return h.Admit(r, name, l)
}

// Declare registers a named entry with the builder, rejecting duplicates
// within the session and against entries already known to the builder.
func (h *Holder) Declare(r *Reader, name string, s Scope, template bool) error {
	if prev, ok := h.named[name]; ok {
		e := newError(CodeDuplicateDeclaration, r.Location(), name, "'%s' is already declared", name)
		e.Hints = []string{fmt.Sprintf("first declared at %s", prev.loc)}
		return e
	}
	if _, ok := h.Builder.FindNamed(name); ok {
		return newError(CodeDuplicateDeclaration, r.Location(), name, "'%s' is already declared", name)
	}
	h.named[name] = namedEntry{scope: s, template: template, loc: r.Location()}
	h.Builder.RegisterNamed(name, s)
	return nil
}

// Template resolves a base template reference.
func (h *Holder) Template(r *Reader, name string) (Scope, error) {
	if e, ok := h.named[name]; ok {
		if !e.template {
			return nil, newError(CodeUnresolvedReference, r.Location(), name, "'%s' is not a template", name)
		}
		return e.scope, nil
	}
	if s, ok := h.Builder.FindNamed(name); ok {
		return s, nil
	}
	return nil, newError(CodeUnresolvedReference, r.Location(), name, "template '%s' is not declared", name)
}

// Value returns per-session parser state stored under key.
func (h *Holder) Value(key any) any { return h.values[key] }

// SetValue stores per-session parser state under key.
func (h *Holder) SetValue(key, v any) { h.values[key] = v }
