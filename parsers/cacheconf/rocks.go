package cacheconf

import (
	confdispatch "github.com/reoring/confdispatch"
)

// RocksStoreParser reads the RocksDB store extension. Its element is
// embedded in caches of any configuration version; its attributes may also
// appear on cache elements, prefixed with the extension namespace.
type RocksStoreParser struct{}

func (RocksStoreParser) Namespaces() []confdispatch.Namespace {
	out := []confdispatch.Namespace{{URI: RocksNamespace, Root: "rocks-store", Since: firstVersion, Until: latestVersion}}
	for _, kind := range CacheKinds {
		out = append(out, confdispatch.Namespace{URI: RocksNamespace, Root: kind, Since: firstVersion, Until: latestVersion})
	}
	return out
}

func (RocksStoreParser) ReadElement(r *confdispatch.Reader, h *confdispatch.Holder) error {
	if r.LocalName() != "rocks-store" {
		return r.UnexpectedElement()
	}
	vals, err := r.RequireAttributes("path", "expiration-path")
	if err != nil {
		return err
	}
	h.Builder.EnterScope("rocks-store", "")
	defer h.Builder.LeaveScope()
	h.Builder.SetField("schema", r.Version().String())
	h.Builder.SetField("path", vals[0])
	h.Builder.SetField("expiration-path", vals[1])
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "path", "expiration-path":
		case "compression":
			apply, err := h.AdmitIn(r, Lifecycles, attr)
			if err != nil {
				return err
			}
			v, err := r.AttributeEnum(i, "NONE", "SNAPPY", "LZ4", "ZSTD")
			if err != nil {
				return err
			}
			if apply {
				h.Builder.SetField(attr, v)
			}
		case "block-size":
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

// ReadAttribute applies an extension attribute set directly on a cache.
func (RocksStoreParser) ReadAttribute(r *confdispatch.Reader, index int, h *confdispatch.Holder) error {
	switch attr := r.AttributeName(index); attr {
	case "block-size":
		n, err := r.AttributeInt(index)
		if err != nil {
			return err
		}
		h.Builder.SetField("rocks."+attr, n)
		return nil
	case "path":
		h.Builder.SetField("rocks."+attr, r.AttributeValue(index))
		return nil
	default:
		return r.UnexpectedAttribute(index)
	}
}
