// Package cacheconf is a versioned parser family for a cache server
// configuration schema. Schema versions 9.0 through 15.0 share one wildcard
// namespace; 8.0 documents are read by a separate legacy parser and the
// RocksDB store extension lives in its own namespace.
package cacheconf

import (
	"strings"

	confdispatch "github.com/reoring/confdispatch"
)

const (
	// Family is the base URI of the configuration namespace.
	Family = "urn:confdispatch:config"
	// Namespace matches every supported configuration version.
	Namespace = Family + ":" + confdispatch.WildcardVersion
	// LegacyNamespace is the exact namespace of 8.0 documents.
	LegacyNamespace = Family + ":8.0"
	// RocksNamespace matches every version of the RocksDB store extension.
	RocksNamespace = "urn:confdispatch:store:rocks:" + confdispatch.WildcardVersion
)

var (
	firstVersion  = confdispatch.V(9, 0)
	latestVersion = confdispatch.V(15, 0)
)

// CacheKinds are the cache element names this family declares.
var CacheKinds = []string{
	"local-cache",
	"distributed-cache",
	"replicated-cache",
	"invalidation-cache",
	"scattered-cache",
}

// Lifecycles gates attributes and elements by schema version.
var Lifecycles = confdispatch.Gate{
	"deadlock-detection-spin": {Removed: confdispatch.V(10, 0)},
	"module":                  {Deprecated: confdispatch.V(11, 0)},
	"start":                   {Deprecated: confdispatch.V(10, 1), Ignored: true},
	"segments":                {Introduced: confdispatch.V(10, 0)},
	"mode":                    {Deprecated: confdispatch.V(12, 0)},
	"jmx-statistics":          {Deprecated: confdispatch.V(10, 0), Removed: confdispatch.V(12, 0), Replacement: "statistics"},
	"compression":             {Introduced: confdispatch.V(11, 0)},
}

// Parsers returns every parser of the family.
func Parsers() []confdispatch.Parser {
	return []confdispatch.Parser{ConfigParser{}, LegacyParser{}, RocksStoreParser{}}
}

func ownNamespace(uri string) bool {
	return uri == "" || confdispatch.BaseURI(uri) == Family
}

func isCacheKind(local string) bool {
	for _, k := range CacheKinds {
		if k == local {
			return true
		}
	}
	return false
}

// templateKind returns the cache kind of a "<kind>-configuration" element.
func templateKind(local string) (string, bool) {
	kind, ok := strings.CutSuffix(local, "-configuration")
	if !ok || !isCacheKind(kind) {
		return "", false
	}
	return kind, true
}
