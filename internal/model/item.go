package model

import "fmt"

// Item is a generic in-game object: a resource, crop or crafted good.
type Item struct {
	recordBase
	imageField
}

func newItem(r *Registry, name string) (*Item, error) {
	it := &Item{
		recordBase: newRecordBase(r, name, KindNameItem),
		imageField: newImageField(),
	}
	it.AddTag(KindNameItem)
	return it, nil
}

// DefaultImageName is the item's record name.
func (it *Item) DefaultImageName() string { return it.name }

// ImageName returns the image override or the default image name.
func (it *Item) ImageName() string { return it.image.Or(it.DefaultImageName()) }

// SetImageName overrides the image name.
func (it *Item) SetImageName(name string) error {
	return withRecord(it.name, it.image.Set(name))
}

func (it *Item) String() string {
	return fmt.Sprintf("Item(%s)", it.describe(it.DisplayName()))
}
