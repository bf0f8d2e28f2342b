package tree

import "testing"

func TestBuilder_Scopes(t *testing.T) {
	b := New()
	s := b.EnterScope("cache", "a")
	b.SetField("size", 3)
	b.EnterScope("memory", "")
	b.SetField("max", 10)
	if b.Depth() != 2 {
		t.Fatalf("depth = %d, want 2", b.Depth())
	}
	b.LeaveScope()
	b.SetField("after", true)
	b.LeaveScope()
	b.LeaveScope() // leaving the root is a no-op
	if b.Depth() != 0 {
		t.Fatalf("depth = %d, want 0", b.Depth())
	}

	cache := b.Root().Child("cache", "a")
	if cache == nil || cache != s {
		t.Fatalf("cache scope not attached to root")
	}
	if v, _ := cache.Field("after"); v != true {
		t.Fatalf("field set after nested scope must land on the cache, got %v", v)
	}
	if m := cache.Child("memory", ""); m == nil || len(m.Fields) != 1 {
		t.Fatalf("unexpected memory scope: %+v", m)
	}
}

func TestBuilder_NamedAndInherit(t *testing.T) {
	b := New()
	base := b.EnterScope("template", "base")
	b.SetField("owners", 2)
	b.SetField("mode", "SYNC")
	b.LeaveScope()
	b.RegisterNamed("base", base)

	b.EnterScope("cache", "impl")
	b.SetField("mode", "ASYNC")
	found, ok := b.FindNamed("base")
	if !ok {
		t.Fatalf("base not registered")
	}
	b.Inherit(found)
	b.LeaveScope()

	impl := b.Root().Child("cache", "impl")
	if impl.Base != "base" {
		t.Fatalf("base = %q", impl.Base)
	}
	if v, _ := impl.Field("mode"); v != "ASYNC" {
		t.Fatalf("own fields must override inherited ones, got %v", v)
	}
	if v, _ := impl.Field("owners"); v != 2 {
		t.Fatalf("inherited field missing, got %v", v)
	}
	if _, ok := b.FindNamed("missing"); ok {
		t.Fatalf("unexpected named entry")
	}
}
