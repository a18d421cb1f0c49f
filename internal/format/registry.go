package format

import (
	"slices"
	"sync"
)

// Registry is an ordered, concurrency-safe list of formats. Matching takes the
// read lock; Register and Unregister take the write lock.
type Registry struct {
	mu      sync.RWMutex
	formats []*Format
}

// NewRegistry builds a registry holding formats in the given order.
func NewRegistry(formats ...*Format) *Registry {
	r := &Registry{}
	for _, f := range formats {
		if f != nil {
			r.formats = append(r.formats, f)
		}
	}
	return r
}

// NewDefaultRegistry returns a registry loaded with the built-in formats.
func NewDefaultRegistry() *Registry {
	return NewRegistry(Builtin()...)
}

// Match returns a duplicate of the first format matching name, or nil.
func (r *Registry) Match(name string) *Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if token, ok := f.match(name); ok {
			dup := f.Duplicate()
			dup.MatchedExtension = token
			return dup
		}
	}
	return nil
}

// ByType returns a duplicate of the first registered format with the given
// identifier, or nil.
func (r *Registry) ByType(id Identifier) *Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.formats {
		if f.ID == id {
			return f.Duplicate()
		}
	}
	return nil
}

// Register appends f to the end of the match order.
func (r *Registry) Register(f *Format) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.formats = append(r.formats, f)
}

// Unregister removes f. The exact instance is preferred; otherwise the first
// format sharing its identifier and extensions is removed. It reports whether
// anything was removed.
func (r *Registry) Unregister(f *Format) bool {
	if f == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := slices.Index(r.formats, f)
	if idx < 0 {
		idx = slices.IndexFunc(r.formats, func(candidate *Format) bool {
			return candidate.ID == f.ID && slices.Equal(candidate.Extensions, f.Extensions)
		})
	}
	if idx < 0 {
		return false
	}
	r.formats = slices.Delete(r.formats, idx, idx+1)
	return true
}

// Formats returns duplicates of the registered formats in match order.
func (r *Registry) Formats() []*Format {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Format, 0, len(r.formats))
	for _, f := range r.formats {
		out = append(out, f.Duplicate())
	}
	return out
}
