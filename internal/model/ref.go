package model

import (
	"fmt"
	"strings"
)

// RefID identifies a name within a registry. Two refs are equal iff their
// IDs are equal, whatever kind each ref expects.
type RefID struct {
	Registry *Registry
	Name     string
}

// AnyRef is implemented by every Ref instantiation.
type AnyRef interface {
	ID() RefID
	RecordName() string
	Registry() *Registry
}

// Ref is a lightweight handle to a record name in a registry. The record may
// not exist yet; Get and TryGet resolve it at call time. Refs are comparable
// values and safe to copy.
//
// The zero Ref refers to nothing and resolves to no record.
type Ref[T Record] struct {
	registry *Registry
	slot     *entry
	kind     *Kind[T]
}

// IsZero reports whether r is the zero Ref.
func (r Ref[T]) IsZero() bool { return r.slot == nil }

// RecordName returns the referenced name.
func (r Ref[T]) RecordName() string {
	if r.slot == nil {
		return ""
	}
	return r.slot.name
}

// Registry returns the registry the name belongs to.
func (r Ref[T]) Registry() *Registry { return r.registry }

// Kind returns the kind the ref expects.
func (r Ref[T]) Kind() *Kind[T] { return r.kind }

// ID returns the registry-and-name identity of the ref.
func (r Ref[T]) ID() RefID {
	return RefID{Registry: r.registry, Name: r.RecordName()}
}

// TryGet resolves the ref. ok is false if nothing is realized under the name
// yet. A realized record of an incompatible kind is a *KindMismatchError.
func (r Ref[T]) TryGet() (rec T, ok bool, err error) {
	if r.slot == nil {
		return rec, false, nil
	}
	r.registry.mu.RLock()
	defer r.registry.mu.RUnlock()
	return resolve(r.registry, r.kind, r.slot)
}

// Get resolves the ref, reporting an unrealized name as
// *UnresolvedReferenceError.
func (r Ref[T]) Get() (T, error) {
	rec, ok, err := r.TryGet()
	if err != nil {
		return rec, err
	}
	if !ok {
		var registry string
		if r.registry != nil {
			registry = r.registry.name
		}
		return rec, &UnresolvedReferenceError{Registry: registry, Name: r.RecordName()}
	}
	return rec, nil
}

// Equal reports whether other refers to the same name in the same registry.
func (r Ref[T]) Equal(other AnyRef) bool {
	if other == nil {
		return r.IsZero()
	}
	return r.ID() == other.ID()
}

// Compare orders refs of the same registry by record name. Refs of different
// registries cannot be ordered.
func (r Ref[T]) Compare(other AnyRef) (int, error) {
	if other == nil || r.registry != other.Registry() {
		return 0, fmt.Errorf("%w: %v and %v", ErrCrossRegistryCompare, r, other)
	}
	return strings.Compare(r.RecordName(), other.RecordName()), nil
}

func (r Ref[T]) String() string {
	if r.slot == nil {
		return "Ref()"
	}
	return fmt.Sprintf("Ref(%s %q)", r.kind.name, r.slot.name)
}
