// Package model implements the Factory Town record registry: a named
// collection of uniquely named records where any name can be referenced
// before the record it names exists, plus the Building, Item, Coins, Recipe
// and Research record kinds.
//
// References are Ref values. A Ref points at the registry's slot for a name,
// so it resolves to whatever record is instantiated under that name later,
// and resolution never silently yields the wrong kind.
package model

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// entry is the registry slot for one name. record is nil until a record is
// instantiated under the name.
type entry struct {
	name   string
	record Record
}

// Registry is a named set of records keyed by record name. The zero value is
// not usable; construct with NewRegistry.
//
// Registry methods are safe for concurrent use. Record field setters are
// not; populate a registry from one goroutine.
type Registry struct {
	mu       sync.RWMutex
	name     string
	entries  map[string]*entry
	realized int
}

// NewRegistry creates an empty registry.
func NewRegistry(name string) *Registry {
	return &Registry{
		name:    name,
		entries: make(map[string]*entry),
	}
}

// Name returns the registry name.
func (r *Registry) Name() string { return r.name }

func (r *Registry) String() string { return fmt.Sprintf("Registry(%q)", r.name) }

// slotLocked returns the slot for name, creating an unrealized one if the
// name has never been seen. Caller must hold the write lock.
func (r *Registry) slotLocked(name string) *entry {
	e, ok := r.entries[name]
	if !ok {
		e = &entry{name: name}
		r.entries[name] = e
	}
	return e
}

func checkName[T Record](kind *Kind[T], name string) error {
	if name == "" {
		return &MalformedRecordNameError{Kind: kind.name, Name: name, Reason: "empty name"}
	}
	return nil
}

// Create instantiates a new record of kind under name. It fails with
// *DuplicateRecordError if the name is already realized, and with
// ErrAbstractKind if kind has no constructor. A previously referenced but
// unrealized name is fine: existing refs to it resolve to the new record.
func Create[T Record](r *Registry, kind *Kind[T], name string) (T, error) {
	var zero T
	name = kind.RecordName(name)
	if err := checkName(kind, name); err != nil {
		return zero, err
	}
	if kind.create == nil {
		return zero, fmt.Errorf("%w: %s", ErrAbstractKind, kind.name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[name]; ok && e.record != nil {
		return zero, &DuplicateRecordError{Registry: r.name, Name: name}
	}
	return createLocked(r, kind, name)
}

// createLocked runs kind's constructor and stores the result. Constructors
// run under the write lock and must only use the Locked helpers.
func createLocked[T Record](r *Registry, kind *Kind[T], name string) (T, error) {
	rec, err := kind.create(r, name)
	if err != nil {
		var zero T
		return zero, err
	}
	r.slotLocked(name).record = rec
	r.realized++
	return rec, nil
}

// GetRef returns a reference to name, marking it referenced. It never
// requires the record to exist. If the name is already realized with a
// record incompatible with kind, it returns *KindMismatchError.
func GetRef[T Record](r *Registry, kind *Kind[T], name string) (Ref[T], error) {
	name = kind.RecordName(name)
	if err := checkName(kind, name); err != nil {
		return Ref[T]{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return getRefLocked(r, kind, name)
}

func getRefLocked[T Record](r *Registry, kind *Kind[T], name string) (Ref[T], error) {
	e := r.slotLocked(name)
	if e.record != nil {
		if _, ok := kind.match(e.record); !ok {
			return Ref[T]{}, r.mismatch(kind.name, e)
		}
	}
	return Ref[T]{registry: r, slot: e, kind: kind}, nil
}

// TryGet returns the record realized under name. If nothing is realized it
// returns ok == false and a nil error; the name is still marked referenced.
// A realized record of an incompatible kind is a *KindMismatchError.
func TryGet[T Record](r *Registry, kind *Kind[T], name string) (rec T, ok bool, err error) {
	name = kind.RecordName(name)
	if err := checkName(kind, name); err != nil {
		return rec, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return resolve(r, kind, r.slotLocked(name))
}

// Get is TryGet that reports an unrealized name as *UnresolvedReferenceError.
func Get[T Record](r *Registry, kind *Kind[T], name string) (T, error) {
	rec, ok, err := TryGet(r, kind, name)
	if err != nil {
		return rec, err
	}
	if !ok {
		return rec, &UnresolvedReferenceError{Registry: r.name, Name: kind.RecordName(name)}
	}
	return rec, nil
}

// GetOrCreate returns the record realized under name, creating it if needed.
// The check and the creation happen under one lock.
func GetOrCreate[T Record](r *Registry, kind *Kind[T], name string) (T, error) {
	var zero T
	name = kind.RecordName(name)
	if err := checkName(kind, name); err != nil {
		return zero, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok, err := resolve(r, kind, r.slotLocked(name))
	if err != nil || ok {
		return rec, err
	}
	if kind.create == nil {
		return zero, fmt.Errorf("%w: %s", ErrAbstractKind, kind.name)
	}
	return createLocked(r, kind, name)
}

// resolve asserts the slot's record to kind. Caller must hold a lock.
func resolve[T Record](r *Registry, kind *Kind[T], e *entry) (T, bool, error) {
	var zero T
	if e.record == nil {
		return zero, false, nil
	}
	rec, ok := kind.match(e.record)
	if !ok {
		return zero, false, r.mismatch(kind.name, e)
	}
	return rec, true, nil
}

func (r *Registry) mismatch(expected string, e *entry) error {
	return &KindMismatchError{
		Registry: r.name,
		Name:     e.name,
		Expected: expected,
		Actual:   e.record.KindName(),
	}
}

// All returns every realized record compatible with kind, ordered by name.
func All[T Record](r *Registry, kind *Kind[T]) []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]T, 0)
	for _, name := range slices.Sorted(maps.Keys(r.entries)) {
		e := r.entries[name]
		if e.record == nil {
			continue
		}
		if rec, ok := kind.match(e.record); ok {
			out = append(out, rec)
		}
	}
	return out
}

// Lookup returns the record realized under the exact name without marking the
// name referenced.
func (r *Registry) Lookup(name string) (Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	if !ok || e.record == nil {
		return nil, false
	}
	return e.record, true
}

// Contains reports whether name is realized.
func (r *Registry) Contains(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

// ContainsRef reports whether name has been referenced or realized.
func (r *Registry) ContainsRef(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[name]
	return ok
}

// Len returns the number of realized records.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.realized
}

// RefLen returns the number of names referenced or realized.
func (r *Registry) RefLen() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// InstantiatedNames returns the realized names, sorted.
func (r *Registry) InstantiatedNames() []string {
	return r.names(func(e *entry) bool { return e.record != nil })
}

// ReferencedNames returns every name that was referenced or realized, sorted.
func (r *Registry) ReferencedNames() []string {
	return r.names(func(*entry) bool { return true })
}

// UnresolvedNames returns the names referenced but never realized, sorted.
func (r *Registry) UnresolvedNames() []string {
	return r.names(func(e *entry) bool { return e.record == nil })
}

func (r *Registry) names(keep func(*entry) bool) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]string, 0, len(r.entries))
	for name, e := range r.entries {
		if keep(e) {
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}

// Records returns all realized records ordered by name.
func (r *Registry) Records() []Record {
	return All(r, AnyKind)
}

// RecordsWithTag returns realized records carrying tag, ordered by name.
func (r *Registry) RecordsWithTag(tag string) []Record {
	var out []Record
	for _, rec := range r.Records() {
		if rec.HasTag(tag) {
			out = append(out, rec)
		}
	}
	return out
}
