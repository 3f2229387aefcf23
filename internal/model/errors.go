package model

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors. Every typed error in this package matches exactly one of
// these with errors.Is.
var (
	// ErrDuplicateRecord is returned by Create when the name is already realized.
	ErrDuplicateRecord = errors.New("record already exists")

	// ErrKindMismatch is returned when a lookup expects a kind the realized record is not.
	ErrKindMismatch = errors.New("record kind mismatch")

	// ErrUnresolvedReference is returned when a strict lookup finds no realized record.
	ErrUnresolvedReference = errors.New("unresolved record reference")

	// ErrInconsistentField is returned when a write-once field is set to a second, different value.
	ErrInconsistentField = errors.New("inconsistent field value")

	// ErrFieldNotSet is returned when reading a write-once field that was never set.
	ErrFieldNotSet = errors.New("field not set")

	// ErrMalformedRecordName is returned when a name violates its kind's grammar.
	ErrMalformedRecordName = errors.New("malformed record name")

	// ErrCrossRegistryCompare is returned when ordering refs from different registries.
	ErrCrossRegistryCompare = errors.New("cannot order refs from different registries")

	// ErrAbstractKind is returned when creating a record of a kind with no constructor.
	ErrAbstractKind = errors.New("cannot create a record of an abstract kind")
)

// DuplicateRecordError reports a Create on an already-realized name.
type DuplicateRecordError struct {
	Registry string
	Name     string
}

func (e *DuplicateRecordError) Error() string {
	return fmt.Sprintf("record %q already exists in registry %q", e.Name, e.Registry)
}

func (e *DuplicateRecordError) Unwrap() error { return ErrDuplicateRecord }

// KindMismatchError reports a realized record that is not of the expected kind.
type KindMismatchError struct {
	Registry string
	Name     string
	Expected string
	Actual   string
}

func (e *KindMismatchError) Error() string {
	return fmt.Sprintf("record %q in registry %q is a %s, not a %s", e.Name, e.Registry, e.Actual, e.Expected)
}

func (e *KindMismatchError) Unwrap() error { return ErrKindMismatch }

// UnresolvedReferenceError reports a strict lookup of a name that was never realized.
type UnresolvedReferenceError struct {
	Registry string
	Name     string
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("record %q is referenced but not instantiated in registry %q", e.Name, e.Registry)
}

func (e *UnresolvedReferenceError) Unwrap() error { return ErrUnresolvedReference }

// InconsistentFieldError reports a second assignment of a different value to
// a write-once field. Record is filled in by the owning record's setter.
type InconsistentFieldError struct {
	Record   string
	Field    string
	Current  any
	Proposed any
}

func (e *InconsistentFieldError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("field %s already set to %v, cannot set to %v", e.Field, e.Current, e.Proposed)
	}
	return fmt.Sprintf("%s: field %s already set to %v, cannot set to %v", e.Record, e.Field, e.Current, e.Proposed)
}

func (e *InconsistentFieldError) Unwrap() error { return ErrInconsistentField }

// FieldNotSetError reports a read of a write-once field that was never set.
type FieldNotSetError struct {
	Record string
	Field  string
}

func (e *FieldNotSetError) Error() string {
	if e.Record == "" {
		return fmt.Sprintf("field %s has not been set", e.Field)
	}
	return fmt.Sprintf("%s: field %s has not been set", e.Record, e.Field)
}

func (e *FieldNotSetError) Unwrap() error { return ErrFieldNotSet }

// MalformedRecordNameError reports a name that does not follow its kind's grammar.
type MalformedRecordNameError struct {
	Kind   string
	Name   string
	Reason string
}

func (e *MalformedRecordNameError) Error() string {
	return fmt.Sprintf("malformed %s record name %q: %s", e.Kind, e.Name, e.Reason)
}

func (e *MalformedRecordNameError) Unwrap() error { return ErrMalformedRecordName }

// UnresolvedReferencesError is returned by a strict reference check when one
// or more names were referenced but never realized.
type UnresolvedReferencesError struct {
	Registry string
	Names    []string
}

func (e *UnresolvedReferencesError) Error() string {
	return fmt.Sprintf("%d unresolved reference(s) in registry %q: %s",
		len(e.Names), e.Registry, strings.Join(e.Names, ", "))
}

func (e *UnresolvedReferencesError) Unwrap() error { return ErrUnresolvedReference }

// withRecord stamps the owning record name onto field errors produced by a
// WriteOnce or CountedList, which do not know who owns them.
func withRecord(name string, err error) error {
	var inconsistent *InconsistentFieldError
	if errors.As(err, &inconsistent) && inconsistent.Record == "" {
		inconsistent.Record = name
		return inconsistent
	}
	var notSet *FieldNotSetError
	if errors.As(err, &notSet) && notSet.Record == "" {
		notSet.Record = name
		return notSet
	}
	return err
}
