package model

// WriteOnce is a field that starts unset, takes its value from the first Set,
// and afterwards only accepts Sets of an equal value. Re-asserting the same
// value is a no-op so several data sources can state the same fact.
//
// WriteOnce is not safe for concurrent writers; the owning registry is
// single-writer.
type WriteOnce[T comparable] struct {
	name  string
	value T
	set   bool
}

// NewWriteOnce returns an unset field. The name is used in error messages.
func NewWriteOnce[T comparable](name string) WriteOnce[T] {
	return WriteOnce[T]{name: name}
}

// Name returns the field name.
func (f *WriteOnce[T]) Name() string {
	return f.name
}

// IsSet reports whether the field has a value.
func (f *WriteOnce[T]) IsSet() bool {
	return f.set
}

// TrySet sets the field if unset. It returns false, leaving the field
// unchanged, if the field already holds a different value.
func (f *WriteOnce[T]) TrySet(v T) bool {
	if !f.set {
		f.value = v
		f.set = true
		return true
	}
	return f.value == v
}

// Set is TrySet reporting a conflict as an *InconsistentFieldError.
func (f *WriteOnce[T]) Set(v T) error {
	if f.TrySet(v) {
		return nil
	}
	return &InconsistentFieldError{Field: f.name, Current: f.value, Proposed: v}
}

// Get returns the value, or a *FieldNotSetError if the field is unset.
func (f *WriteOnce[T]) Get() (T, error) {
	if !f.set {
		var zero T
		return zero, &FieldNotSetError{Field: f.name}
	}
	return f.value, nil
}

// Value returns the value and whether it is set.
func (f *WriteOnce[T]) Value() (T, bool) {
	return f.value, f.set
}

// Or returns the value if set, otherwise def.
func (f *WriteOnce[T]) Or(def T) T {
	if !f.set {
		return def
	}
	return f.value
}
