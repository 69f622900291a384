package container

import (
	"sort"
)

// NameIndex is the in-memory set of entry names known to exist in a file.
// It is not synchronized.
type NameIndex struct {
	names map[string]struct{}
}

// NewNameIndex creates an empty name index
func NewNameIndex() *NameIndex {
	return &NameIndex{names: make(map[string]struct{})}
}

// Add records name
func (idx *NameIndex) Add(name string) {
	idx.names[name] = struct{}{}
}

// Contains reports whether name is indexed
func (idx *NameIndex) Contains(name string) bool {
	_, ok := idx.names[name]
	return ok
}

// Size returns the number of names in the index
func (idx *NameIndex) Size() int {
	return len(idx.names)
}

// Clear removes all names from the index
func (idx *NameIndex) Clear() {
	idx.names = make(map[string]struct{})
}

// Names returns all indexed names in sorted order
func (idx *NameIndex) Names() []string {
	names := make([]string, 0, len(idx.names))
	for name := range idx.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildFromScan clears the index and fills it from a forward scan. Every
// START marker contributes the non-empty name that follows it; tags and payloads are
// not skipped, so scanning resumes right after each name.
func (idx *NameIndex) BuildFromScan(s *scanner) error {
	idx.names = make(map[string]struct{})

	for {
		name, ok, err := s.nextName()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		// Writes reject empty names, so an empty one is a false marker
		if name == "" {
			continue
		}
		idx.names[name] = struct{}{}
	}
}
