package adapter

import (
	"sort"
)

// Registry maps tags to adapters. The last registration for a tag wins.
//
// Registry is not safe for concurrent use.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// NewDefaultRegistry creates a registry preloaded with the built-in adapters
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range Builtins() {
		r.adapters[a.Tag()] = a
	}
	return r
}

// Register adds a, replacing any adapter already registered under its tag
func (r *Registry) Register(a Adapter) error {
	if a == nil {
		return ErrNilAdapter
	}
	if a.Tag() == "" {
		return ErrEmptyTag
	}
	r.adapters[a.Tag()] = a
	return nil
}

// Unregister removes the adapter for tag and reports whether one was present
func (r *Registry) Unregister(tag string) bool {
	if _, ok := r.adapters[tag]; !ok {
		return false
	}
	delete(r.adapters, tag)
	return true
}

// Exists reports whether tag has an adapter
func (r *Registry) Exists(tag string) bool {
	_, ok := r.adapters[tag]
	return ok
}

// Get returns the adapter for tag
func (r *Registry) Get(tag string) (Adapter, bool) {
	a, ok := r.adapters[tag]
	return a, ok
}

// Tags returns all registered tags in sorted order
func (r *Registry) Tags() []string {
	tags := make([]string, 0, len(r.adapters))
	for tag := range r.adapters {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

// Len returns the number of registered adapters
func (r *Registry) Len() int {
	return len(r.adapters)
}

// Clear removes every adapter
func (r *Registry) Clear() {
	r.adapters = make(map[string]Adapter)
}
