package confdispatch

import (
	"io"
	"path"
	"strings"

	"github.com/charmbracelet/log"
)

// MediaType selects the tokenizer for a configuration document.
type MediaType string

const (
	MediaXML  MediaType = "application/xml"
	MediaJSON MediaType = "application/json"
	MediaYAML MediaType = "application/yaml"
)

// MediaTypeFromName detects the media type from a resource name's
// extension. It returns "" when the extension is not recognized.
func MediaTypeFromName(name string) MediaType {
	switch strings.ToLower(path.Ext(name)) {
	case ".xml":
		return MediaXML
	case ".json":
		return MediaJSON
	case ".yaml", ".yml":
		return MediaYAML
	}
	return ""
}

// DefaultCacheKinds is the closed set of element names the cache-name
// fallback accepts after an unresolved element.
var DefaultCacheKinds = []string{
	"local-cache",
	"distributed-cache",
	"replicated-cache",
	"invalidation-cache",
	"scattered-cache",
}

const defaultMaxIncludeDepth = 16

// Options bundles dispatcher and reader options.
type Options struct {
	// Logger receives registry conflicts, deprecation warnings and include
	// tracing. Defaults to a logger that discards everything.
	Logger *log.Logger
	// Properties feed ${name} substitution in attribute and text values.
	Properties map[string]string
	// LatestVersion is the version assumed for unversioned namespaces.
	// Defaults to the highest version declared in the registry.
	LatestVersion Version
	// CacheKinds overrides DefaultCacheKinds.
	CacheKinds []string
	// MaxIncludeDepth bounds nested includes. Defaults to 16.
	MaxIncludeDepth int
	// MaxDepth bounds element nesting per document; 0 disables the check.
	MaxDepth int
}

func normalizeOptions(opts []Options) Options {
	var opt Options
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if opt.Logger == nil {
		opt.Logger = discardLogger()
	}
	if opt.CacheKinds == nil {
		opt.CacheKinds = DefaultCacheKinds
	}
	if opt.MaxIncludeDepth <= 0 {
		opt.MaxIncludeDepth = defaultMaxIncludeDepth
	}
	return opt
}

func discardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}
