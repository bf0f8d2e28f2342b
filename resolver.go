package confdispatch

import (
	"fmt"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"
)

// Resource is an opened configuration document.
type Resource struct {
	// Name is the canonical identifier of the resource; relative includes
	// inside it are resolved against Name's directory.
	Name string
	Body io.ReadCloser
	// MediaType may be empty; it is then detected from Name or inherited
	// from the including document.
	MediaType MediaType
}

// Resolver opens the resource referenced by href from the document
// identified by base.
type Resolver interface {
	Resolve(base, href string) (Resource, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(base, href string) (Resource, error)

func (f ResolverFunc) Resolve(base, href string) (Resource, error) { return f(base, href) }

// FSResolver resolves documents from an fs.FS with strict path validation:
// locations must be relative, slash-separated and may not escape the root.
type FSResolver struct {
	fsys fs.FS
}

// NewFSResolver creates a resolver backed by the provided filesystem.
func NewFSResolver(fsys fs.FS) *FSResolver {
	return &FSResolver{fsys: fsys}
}

// Resolve implements Resolver.
func (r *FSResolver) Resolve(base, href string) (Resource, error) {
	if r == nil || r.fsys == nil {
		return Resource{}, fmt.Errorf("no filesystem configured")
	}
	name, err := resolveName(base, href)
	if err != nil {
		return Resource{}, err
	}
	f, err := r.fsys.Open(name)
	if err != nil {
		return Resource{}, err
	}
	return Resource{Name: name, Body: f, MediaType: MediaTypeFromName(name)}, nil
}

// Open opens a root document by name.
func (r *FSResolver) Open(name string) (Resource, error) { return r.Resolve("", name) }

func resolveName(base, href string) (string, error) {
	if href == "" {
		return "", fmt.Errorf("location is empty")
	}
	if strings.Contains(href, "\\") {
		return "", fmt.Errorf("location contains backslash: %q", href)
	}
	if strings.HasPrefix(href, "/") {
		return "", fmt.Errorf("location must be relative: %q", href)
	}
	if slices.Contains(strings.Split(href, "/"), "") {
		return "", fmt.Errorf("invalid location segment: %q", href)
	}
	joined := path.Clean(href)
	if dir := baseDir(base); dir != "" {
		joined = path.Clean(dir + "/" + href)
	}
	if joined == "." {
		return "", fmt.Errorf("location is empty")
	}
	if joined == ".." || strings.HasPrefix(joined, "../") {
		return "", fmt.Errorf("location escapes root: %q", href)
	}
	return joined, nil
}

func baseDir(name string) string {
	idx := strings.LastIndex(name, "/")
	if idx == -1 {
		return ""
	}
	return name[:idx]
}
