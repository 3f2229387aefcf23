package model

import (
	"fmt"
	"strings"
)

// Building types as they appear in the wiki's building tables.
const (
	BuildingTypeStorage    = "Storage"
	BuildingTypeProduction = "Production"
	BuildingTypeMarket     = "Market"
)

// Building is a placeable structure. Its construction cost is the user
// recipe "[User].<name>.default".
type Building struct {
	recordBase
	imageField

	buildingType    WriteOnce[string]
	gridSize        WriteOnce[GridDim]
	techLevel       WriteOnce[int]
	research        WriteOnce[Ref[*Research]]
	sharedInventory WriteOnce[bool]
	capacityNote    WriteOnce[string]
}

func newBuilding(r *Registry, name string) (*Building, error) {
	b := &Building{
		recordBase:      newRecordBase(r, name, KindNameBuilding),
		imageField:      newImageField(),
		buildingType:    NewWriteOnce[string]("building_type"),
		gridSize:        NewWriteOnce[GridDim]("grid_size"),
		techLevel:       NewWriteOnce[int]("tech_level"),
		research:        NewWriteOnce[Ref[*Research]]("research"),
		sharedInventory: NewWriteOnce[bool]("shared_inventory"),
		capacityNote:    NewWriteOnce[string]("capacity_note"),
	}
	b.AddTag(KindNameBuilding)
	return b, nil
}

// DefaultImageName is the building's record name.
func (b *Building) DefaultImageName() string { return b.name }

// ImageName returns the image override or the default image name.
func (b *Building) ImageName() string { return b.image.Or(b.DefaultImageName()) }

// SetImageName overrides the image name.
func (b *Building) SetImageName(name string) error {
	return withRecord(b.name, b.image.Set(name))
}

// BuildingType returns the building type, e.g. "Production".
func (b *Building) BuildingType() (string, error) {
	v, err := b.buildingType.Get()
	return v, withRecord(b.name, err)
}

// SetBuildingType sets the building type and tags the building with it.
func (b *Building) SetBuildingType(t string) error {
	if err := b.buildingType.Set(t); err != nil {
		return withRecord(b.name, err)
	}
	b.AddTag(t)
	return nil
}

// GridSize returns the building footprint.
func (b *Building) GridSize() (GridDim, error) {
	v, err := b.gridSize.Get()
	return v, withRecord(b.name, err)
}

// SetGridSize sets the building footprint.
func (b *Building) SetGridSize(g GridDim) error {
	return withRecord(b.name, b.gridSize.Set(g))
}

// TechLevel returns the tech level at which the building unlocks.
func (b *Building) TechLevel() (int, error) {
	v, err := b.techLevel.Get()
	return v, withRecord(b.name, err)
}

// SetTechLevel sets the tech level.
func (b *Building) SetTechLevel(level int) error {
	return withRecord(b.name, b.techLevel.Set(level))
}

// ResearchRef returns the required research. A zero Ref means the building
// was explicitly recorded as requiring no research.
func (b *Building) ResearchRef() (Ref[*Research], error) {
	v, err := b.research.Get()
	return v, withRecord(b.name, err)
}

// Research resolves the required research. It returns nil with no error when
// the building requires none.
func (b *Building) Research() (*Research, error) {
	ref, err := b.ResearchRef()
	if err != nil || ref.IsZero() {
		return nil, err
	}
	return ref.Get()
}

// SetResearch records the research the building requires. Pass "" to record
// that no research is required.
func (b *Building) SetResearch(name string) error {
	var ref Ref[*Research]
	if name != "" {
		var err error
		if ref, err = GetRef(b.registry, ResearchKind, name); err != nil {
			return err
		}
	}
	return withRecord(b.name, b.research.Set(ref))
}

// SharedInventory reports whether the building shares the town inventory.
func (b *Building) SharedInventory() (bool, error) {
	v, err := b.sharedInventory.Get()
	return v, withRecord(b.name, err)
}

// SetSharedInventory sets the shared inventory flag.
func (b *Building) SetSharedInventory(shared bool) error {
	return withRecord(b.name, b.sharedInventory.Set(shared))
}

// CapacityNote returns the free-form capacity text from the wiki.
func (b *Building) CapacityNote() (string, error) {
	v, err := b.capacityNote.Get()
	return v, withRecord(b.name, err)
}

// SetCapacityNote sets the capacity text.
func (b *Building) SetCapacityNote(note string) error {
	return withRecord(b.name, b.capacityNote.Set(note))
}

func (b *Building) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Building(%s", b.describe(b.DisplayName()))
	if t, ok := b.buildingType.Value(); ok {
		fmt.Fprintf(&sb, ", type=%s", t)
	}
	if g, ok := b.gridSize.Value(); ok {
		fmt.Fprintf(&sb, ", size=%s", g)
	}
	if lvl, ok := b.techLevel.Value(); ok {
		fmt.Fprintf(&sb, ", tech_level=%d", lvl)
	}
	if ref, ok := b.research.Value(); ok && !ref.IsZero() {
		fmt.Fprintf(&sb, ", research=%q", ref.RecordName())
	}
	sb.WriteString(")")
	return sb.String()
}
