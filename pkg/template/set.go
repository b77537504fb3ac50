package template

import (
	"errors"
	"fmt"
)

// Set is a kind-partitioned collection of entries. Order within a kind is
// insertion order and is the matching priority.
type Set struct {
	entries [kindCount][]*Entry
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Add appends entry to the list for kind. The entry's Kind is set to kind.
func (s *Set) Add(kind Kind, entry *Entry) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}

	entry.Kind = kind
	s.entries[kind] = append(s.entries[kind], entry)

	return nil
}

// Entries returns the ordered entries for kind. The slice must not be modified.
// Passing a kind outside the enumeration is a programming error and panics.
func (s *Set) Entries(kind Kind) []*Entry {
	mustValid(kind)

	return s.entries[kind]
}

// ChildEntries returns the nested entries of parent for kind.
func (s *Set) ChildEntries(parent *Entry, kind Kind) []*Entry {
	mustValid(kind)

	if parent == nil || parent.children == nil {
		return nil
	}

	return parent.children.entries[kind]
}

// Len returns the number of top-level entries across all kinds.
func (s *Set) Len() int {
	total := 0

	for _, list := range s.entries {
		total += len(list)
	}

	return total
}

// Find returns the first entry named name for kind, or nil.
func (s *Set) Find(kind Kind, name string) *Entry {
	mustValid(kind)

	for _, entry := range s.entries[kind] {
		if entry.Name == name {
			return entry
		}
	}

	return nil
}

// Put replaces the entry with the same name in place, keeping its priority,
// or appends entry when no such name exists.
func (s *Set) Put(kind Kind, entry *Entry) error {
	if !kind.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidKind, int(kind))
	}

	entry.Kind = kind

	for idx, existing := range s.entries[kind] {
		if existing.Name == entry.Name {
			s.entries[kind][idx] = entry

			return nil
		}
	}

	s.entries[kind] = append(s.entries[kind], entry)

	return nil
}

// Remove deletes the first entry named name for kind and reports whether one existed.
func (s *Set) Remove(kind Kind, name string) bool {
	mustValid(kind)

	for idx, existing := range s.entries[kind] {
		if existing.Name == name {
			s.entries[kind] = append(s.entries[kind][:idx], s.entries[kind][idx+1:]...)

			return true
		}
	}

	return false
}

// Walk visits every entry depth-first in kind then insertion order. The
// depth of top-level entries is 0. Walk stops at the first error.
func (s *Set) Walk(visit func(entry *Entry, depth int) error) error {
	return s.walk(visit, 0)
}

func (s *Set) walk(visit func(entry *Entry, depth int) error, depth int) error {
	for _, kind := range Kinds() {
		for _, entry := range s.entries[kind] {
			err := visit(entry, depth)
			if err != nil {
				return err
			}

			if entry.children == nil {
				continue
			}

			err = entry.children.walk(visit, depth+1)
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// Validate compiles every pattern, nested ones included, and joins the
// failures. Resolution never calls it; patterns stay lazily compiled there.
func (s *Set) Validate() error {
	var errs []error

	_ = s.Walk(func(entry *Entry, _ int) error { //nolint:errcheck // visitor never fails
		_, err := entry.Regexp()
		if err != nil {
			errs = append(errs, err)
		}

		return nil
	})

	return errors.Join(errs...)
}
