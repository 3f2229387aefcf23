package model

import (
	"fmt"
	"strings"
)

// Amount is an unresolved (name, quantity) pair as produced by the table
// cell grammar.
type Amount struct {
	Name     string
	Quantity int
}

// CountedRef is a quantity of a referenced game object.
type CountedRef struct {
	Object   Ref[GameObject]
	Quantity int
}

// Resolve dereferences the object.
func (c CountedRef) Resolve() (Counted, error) {
	obj, err := c.Object.Get()
	if err != nil {
		return Counted{}, err
	}
	return Counted{Object: obj, Quantity: c.Quantity}, nil
}

func (c CountedRef) String() string {
	return fmt.Sprintf("%dx %s", c.Quantity, c.Object.RecordName())
}

// Counted is a quantity of a resolved game object.
type Counted struct {
	Object   GameObject
	Quantity int
}

// CountedList is a write-once list of CountedRef entries keyed by the
// referenced name. Adding an entry for a name already present confirms it:
// the quantity must match. New entries are appended in insertion order.
type CountedList struct {
	name    string
	entries []CountedRef
	set     bool
	empty   bool
}

// NewCountedList returns an unset list. The name is used in error messages.
func NewCountedList(name string) CountedList {
	return CountedList{name: name}
}

// Name returns the field name.
func (l *CountedList) Name() string { return l.name }

// IsSet reports whether the list was given any entries or explicitly marked
// empty.
func (l *CountedList) IsSet() bool { return l.set }

// Len returns the number of entries.
func (l *CountedList) Len() int { return len(l.entries) }

// Add appends (ref, quantity) or confirms an existing entry for ref.
func (l *CountedList) Add(ref Ref[GameObject], quantity int) error {
	if l.empty {
		return &InconsistentFieldError{
			Field:    l.name,
			Current:  "[]",
			Proposed: fmt.Sprintf("[%dx %s]", quantity, ref.RecordName()),
		}
	}
	l.set = true
	if i := l.index(ref); i >= 0 {
		if cur := l.entries[i]; cur.Quantity != quantity {
			return &InconsistentFieldError{
				Field:    l.name + "[" + ref.RecordName() + "]",
				Current:  cur.Quantity,
				Proposed: quantity,
			}
		}
		return nil
	}
	l.entries = append(l.entries, CountedRef{Object: ref, Quantity: quantity})
	return nil
}

// MarkEmpty records that the list is known to have no entries. It fails if
// the list already has entries, and later Adds fail.
func (l *CountedList) MarkEmpty() error {
	if len(l.entries) > 0 {
		return &InconsistentFieldError{Field: l.name, Current: l.String(), Proposed: "[]"}
	}
	l.set = true
	l.empty = true
	return nil
}

// Find returns the entry for ref's name.
func (l *CountedList) Find(ref AnyRef) (CountedRef, bool) {
	if i := l.index(ref); i >= 0 {
		return l.entries[i], true
	}
	return CountedRef{}, false
}

func (l *CountedList) index(ref AnyRef) int {
	id := ref.ID()
	for i, e := range l.entries {
		if e.Object.ID() == id {
			return i
		}
	}
	return -1
}

// Entries returns a copy of the entries, or *FieldNotSetError if the list
// was never set.
func (l *CountedList) Entries() ([]CountedRef, error) {
	if !l.set {
		return nil, &FieldNotSetError{Field: l.name}
	}
	out := make([]CountedRef, len(l.entries))
	copy(out, l.entries)
	return out, nil
}

// Resolve returns the entries with every object dereferenced.
func (l *CountedList) Resolve() ([]Counted, error) {
	refs, err := l.Entries()
	if err != nil {
		return nil, err
	}
	out := make([]Counted, 0, len(refs))
	for _, ref := range refs {
		c, err := ref.Resolve()
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (l *CountedList) String() string {
	parts := make([]string, len(l.entries))
	for i, e := range l.entries {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
