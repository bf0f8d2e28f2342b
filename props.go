package confdispatch

import (
	"os"
	"strings"
)

// PropertyLookup resolves a property name.
type PropertyLookup func(name string) (string, bool)

// MapProperties returns a lookup over props falling back to the process
// environment for names of the form env.NAME.
func MapProperties(props map[string]string) PropertyLookup {
	return func(name string) (string, bool) {
		if v, ok := props[name]; ok {
			return v, true
		}
		if env, ok := strings.CutPrefix(name, "env."); ok {
			return os.LookupEnv(env)
		}
		return "", false
	}
}

// ReplaceProperties expands ${name} and ${name:default} expressions.
// Several names may be separated by commas; the first defined one wins.
// Expressions that resolve to nothing and have no default are kept verbatim.
func ReplaceProperties(s string, lookup PropertyLookup) string {
	if lookup == nil || !strings.Contains(s, "${") {
		return s
	}
	var b strings.Builder
	for {
		start := strings.Index(s, "${")
		if start < 0 {
			b.WriteString(s)
			return b.String()
		}
		end := strings.IndexByte(s[start:], '}')
		if end < 0 {
			b.WriteString(s)
			return b.String()
		}
		end += start
		b.WriteString(s[:start])
		expr := s[start+2 : end]
		if v, ok := expand(expr, lookup); ok {
			b.WriteString(v)
		} else {
			b.WriteString(s[start : end+1])
		}
		s = s[end+1:]
	}
}

func expand(expr string, lookup PropertyLookup) (string, bool) {
	names, def, hasDefault := strings.Cut(expr, ":")
	for _, name := range strings.Split(names, ",") {
		if v, ok := lookup(strings.TrimSpace(name)); ok {
			return v, true
		}
	}
	return def, hasDefault
}
