package confdispatch

import "fmt"

// Lifecycle records when a versioned attribute or element was introduced,
// deprecated and removed. Zero versions mean "never".
type Lifecycle struct {
	Introduced Version
	Deprecated Version
	Removed    Version
	// Ignored marks a deprecated construct whose value is no longer applied.
	Ignored bool
	// Replacement optionally names the construct to use instead.
	Replacement string
}

// Verdict is the outcome of a version gate.
type Verdict int

const (
	Accept Verdict = iota
	Warn
	Reject
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case Warn:
		return "warn"
	default:
		return "reject"
	}
}

// Decision is the result of evaluating a Lifecycle against a document version.
type Decision struct {
	Verdict Verdict
	Code    Code
	Message string
	ignored bool
}

// Apply reports whether the construct's value should be applied.
func (d Decision) Apply() bool {
	return d.Verdict == Accept || (d.Verdict == Warn && !d.ignored)
}

// Evaluate decides how a construct is handled in a document declaring doc.
func (l Lifecycle) Evaluate(doc Version) Decision {
	if doc.Less(l.Introduced) {
		return Decision{Verdict: Reject, Code: CodeNotYetAvailable, Message: fmt.Sprintf("not yet available in schema %s (introduced in %s)", doc, l.Introduced)}
	}
	if !l.Removed.IsZero() && !doc.Less(l.Removed) {
		return Decision{Verdict: Reject, Code: CodeRemovedConstruct, Message: fmt.Sprintf("removed as of schema %s%s", l.Removed, l.replacementHint())}
	}
	if !l.Deprecated.IsZero() && !doc.Less(l.Deprecated) {
		msg := fmt.Sprintf("deprecated since schema %s%s", l.Deprecated, l.replacementHint())
		if l.Ignored {
			msg += "; value ignored"
		}
		return Decision{Verdict: Warn, Code: CodeDeprecatedConstruct, Message: msg, ignored: l.Ignored}
	}
	return Decision{Verdict: Accept}
}

func (l Lifecycle) replacementHint() string {
	if l.Replacement == "" {
		return ""
	}
	return ", use '" + l.Replacement + "' instead"
}

// Gate is a table of lifecycles keyed by attribute or element local name.
type Gate map[string]Lifecycle

// Lookup returns the lifecycle for name.
func (g Gate) Lookup(name string) (Lifecycle, bool) {
	l, ok := g[name]
	return l, ok
}

// Evaluate decides how name is handled at doc. Names absent from the table
// are accepted.
func (g Gate) Evaluate(name string, doc Version) Decision {
	l, ok := g[name]
	if !ok {
		return Decision{Verdict: Accept}
	}
	return l.Evaluate(doc)
}
