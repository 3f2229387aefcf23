package model

import (
	"fmt"
	"slices"
	"strings"
)

// Record is an entity stored in exactly one Registry under a unique record
// name. The set of implementations is closed: *Building, *Item, *Coins,
// *Recipe and *Research.
type Record interface {
	// RecordName returns the unique name of the record within its registry.
	RecordName() string

	// DisplayName returns the human-readable name. Defaults to the record name.
	DisplayName() string

	// SetDisplayName overrides the display name (write-once).
	SetDisplayName(name string) error

	// KindName returns the record's kind, e.g. "Building".
	KindName() string

	// Registry returns the registry that owns the record.
	Registry() *Registry

	// Tags returns the record's tags in sorted order.
	Tags() []string

	// HasTag reports whether the record carries tag.
	HasTag(tag string) bool

	// AddTag adds tag to the record's tag set.
	AddTag(tag string)

	fmt.Stringer

	base() *recordBase
}

// recordBase holds the state shared by every record kind.
type recordBase struct {
	registry *Registry
	name     string
	kind     string
	display  WriteOnce[string]
	tags     map[string]struct{}
}

func newRecordBase(r *Registry, name, kind string) recordBase {
	return recordBase{
		registry: r,
		name:     name,
		kind:     kind,
		display:  NewWriteOnce[string]("display_name"),
		tags:     make(map[string]struct{}),
	}
}

func (b *recordBase) base() *recordBase { return b }

// RecordName returns the unique name of the record within its registry.
func (b *recordBase) RecordName() string { return b.name }

// DisplayName returns the display name override, or the record name.
func (b *recordBase) DisplayName() string { return b.display.Or(b.name) }

// SetDisplayName overrides the display name.
func (b *recordBase) SetDisplayName(name string) error {
	return withRecord(b.name, b.display.Set(name))
}

// KindName returns the record's kind.
func (b *recordBase) KindName() string { return b.kind }

// Registry returns the owning registry.
func (b *recordBase) Registry() *Registry { return b.registry }

// Tags returns the tags in sorted order.
func (b *recordBase) Tags() []string {
	tags := make([]string, 0, len(b.tags))
	for tag := range b.tags {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// HasTag reports whether tag is present.
func (b *recordBase) HasTag(tag string) bool {
	_, ok := b.tags[tag]
	return ok
}

// AddTag adds a tag. Empty tags are ignored.
func (b *recordBase) AddTag(tag string) {
	if tag == "" {
		return
	}
	b.tags[tag] = struct{}{}
}

// AddTags adds each of tags.
func (b *recordBase) AddTags(tags ...string) {
	for _, tag := range tags {
		b.AddTag(tag)
	}
}

// describe renders the fields common to every record for String methods.
func (b *recordBase) describe(display string) string {
	var sb strings.Builder
	if display == b.name {
		fmt.Fprintf(&sb, "name=%q", b.name)
	} else {
		fmt.Fprintf(&sb, "record_name=%q, display_name=%q", b.name, display)
	}
	fmt.Fprintf(&sb, ", tags=%v", b.Tags())
	return sb.String()
}

// GameObject is a record that appears in game (and so has an image): a
// Building, Item, Coins or Recipe. Recipe ingredients and products refer to
// GameObjects.
type GameObject interface {
	Record

	// DefaultImageName is the image name used when none was set explicitly.
	DefaultImageName() string

	// ImageName returns the explicit image name or DefaultImageName.
	ImageName() string

	// SetImageName overrides the image name (write-once).
	SetImageName(name string) error
}

// imageField is the image_name override embedded by every GameObject kind.
type imageField struct {
	image WriteOnce[string]
}

func newImageField() imageField {
	return imageField{image: NewWriteOnce[string]("image_name")}
}
