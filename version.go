package confdispatch

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a schema version parsed from a namespace URI. The zero value
// means "unset" when used as a deprecation, removal or upper bound.
type Version struct {
	Major int
	Minor int
}

// V is shorthand for Version{major, minor}.
func V(major, minor int) Version { return Version{Major: major, Minor: minor} }

// ParseVersion parses "major" or "major.minor".
func ParseVersion(s string) (Version, error) {
	major, minor, hasMinor := strings.Cut(strings.TrimSpace(s), ".")
	ma, err := strconv.Atoi(major)
	if err != nil || ma < 0 {
		return Version{}, fmt.Errorf("invalid schema version %q", s)
	}
	if !hasMinor {
		return Version{Major: ma}, nil
	}
	mi, err := strconv.Atoi(minor)
	if err != nil || mi < 0 {
		return Version{}, fmt.Errorf("invalid schema version %q", s)
	}
	return Version{Major: ma, Minor: mi}, nil
}

// IsZero reports whether v is unset.
func (v Version) IsZero() bool { return v.Major == 0 && v.Minor == 0 }

// Compare returns -1, 0 or +1.
func (v Version) Compare(o Version) int {
	switch {
	case v.Major != o.Major:
		if v.Major < o.Major {
			return -1
		}
		return 1
	case v.Minor != o.Minor:
		if v.Minor < o.Minor {
			return -1
		}
		return 1
	}
	return 0
}

func (v Version) Less(o Version) bool { return v.Compare(o) < 0 }

// Since reports whether v is at least major.minor.
func (v Version) Since(major, minor int) bool { return v.Compare(V(major, minor)) >= 0 }

// Within reports whether since <= v and, when until is set, v <= until.
func (v Version) Within(since, until Version) bool {
	if v.Less(since) {
		return false
	}
	return until.IsZero() || v.Compare(until) <= 0
}

func (v Version) String() string { return strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) }

// WildcardVersion is the trailing URI token that makes a namespace apply to
// every version of its family.
const WildcardVersion = "*"

// VersionFromURI extracts the trailing version token of a namespace URI of
// the form urn:<product>:config:<major>.<minor>.
func VersionFromURI(uri string) (Version, bool) {
	i := strings.LastIndexByte(uri, ':')
	if i < 0 || i == len(uri)-1 {
		return Version{}, false
	}
	tail := uri[i+1:]
	if tail[0] < '0' || tail[0] > '9' {
		return Version{}, false
	}
	v, err := ParseVersion(tail)
	if err != nil {
		return Version{}, false
	}
	return v, true
}

// BaseURI strips a trailing version or wildcard token from uri.
func BaseURI(uri string) string {
	if _, ok := VersionFromURI(uri); ok || strings.HasSuffix(uri, ":"+WildcardVersion) {
		return uri[:strings.LastIndexByte(uri, ':')]
	}
	return uri
}

// WildcardURI returns the wildcard form of the URI's namespace family.
func WildcardURI(uri string) string {
	if uri == "" {
		return ""
	}
	return BaseURI(uri) + ":" + WildcardVersion
}

// IsWildcardURI reports whether uri ends with the wildcard version token.
func IsWildcardURI(uri string) bool { return strings.HasSuffix(uri, ":"+WildcardVersion) }
