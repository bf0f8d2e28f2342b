package cacheconf

import (
	confdispatch "github.com/reoring/confdispatch"
)

// threadsKey keys the session's thread table in the Holder.
type threadsKey struct{}

type threadTable struct {
	factories map[string]confdispatch.Location
	pools     map[string]confdispatch.Location
}

func threads(h *confdispatch.Holder) *threadTable {
	if t, ok := h.Value(threadsKey{}).(*threadTable); ok {
		return t
	}
	t := &threadTable{
		factories: make(map[string]confdispatch.Location),
		pools:     make(map[string]confdispatch.Location),
	}
	h.SetValue(threadsKey{}, t)
	return t
}

func (p ConfigParser) readThreads(r *confdispatch.Reader, h *confdispatch.Holder) error {
	if r.AttributeCount() > 0 {
		return r.UnexpectedAttribute(0)
	}
	t := threads(h)
	h.Builder.EnterScope("threads", "")
	defer h.Builder.LeaveScope()
	return r.EachChild(func() error {
		switch r.LocalName() {
		case "thread-factory":
			return readThreadFactory(r, h, t)
		case "blocking-thread-pool", "non-blocking-thread-pool", "scheduled-thread-pool":
			return readThreadPool(r, h, t)
		default:
			return r.UnexpectedElement()
		}
	})
}

func readThreadFactory(r *confdispatch.Reader, h *confdispatch.Holder, t *threadTable) error {
	vals, err := r.RequireAttributes("name")
	if err != nil {
		return err
	}
	name := vals[0]
	if err := declareThreads(r, t.factories, name); err != nil {
		return err
	}
	h.Builder.EnterScope("thread-factory", name)
	defer h.Builder.LeaveScope()
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "name":
		case "group-name", "thread-name-pattern":
			h.Builder.SetField(attr, r.AttributeValue(i))
		case "priority":
			n, err := r.AttributeInt(i)
			if err != nil {
				return err
			}
			if n < 1 || n > 10 {
				return &confdispatch.Error{Code: confdispatch.CodeInvalidValue, Message: "thread priority must be between 1 and 10", Name: attr, Location: r.Location()}
			}
			h.Builder.SetField(attr, n)
		default:
			return r.UnexpectedAttribute(i)
		}
	}
	return noChildren(r)
}

func readThreadPool(r *confdispatch.Reader, h *confdispatch.Holder, t *threadTable) error {
	vals, err := r.RequireAttributes("name", "thread-factory")
	if err != nil {
		return err
	}
	name, factory := vals[0], vals[1]
	if _, ok := t.factories[factory]; !ok {
		return &confdispatch.Error{
			Code:     confdispatch.CodeUnresolvedReference,
			Message:  "thread pool '" + name + "' references undeclared thread factory '" + factory + "'",
			Name:     factory,
			Location: r.Location(),
		}
	}
	if err := declareThreads(r, t.pools, name); err != nil {
		return err
	}
	h.Builder.EnterScope(r.LocalName(), name)
	defer h.Builder.LeaveScope()
	h.Builder.SetField("thread-factory", factory)
	for i := 0; i < r.AttributeCount(); i++ {
		switch attr := r.AttributeName(i); attr {
		case "name", "thread-factory":
		case "core-threads", "max-threads", "queue-length", "keepalive-time":
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

func declareThreads(r *confdispatch.Reader, table map[string]confdispatch.Location, name string) error {
	if prev, ok := table[name]; ok {
		return &confdispatch.Error{
			Code:     confdispatch.CodeDuplicateDeclaration,
			Message:  "'" + name + "' is already declared",
			Name:     name,
			Location: r.Location(),
			Hints:    []string{"first declared at " + prev.String()},
		}
	}
	table[name] = r.Location()
	return nil
}

func requirePool(r *confdispatch.Reader, h *confdispatch.Holder, name string) error {
	if _, ok := threads(h).pools[name]; ok {
		return nil
	}
	return &confdispatch.Error{
		Code:     confdispatch.CodeUnresolvedReference,
		Message:  "blocking-executor references undeclared thread pool '" + name + "'",
		Name:     name,
		Location: r.Location(),
	}
}
