package model

// Kind names. These double as the tag every record of the kind carries.
const (
	KindNameRecord     = "Record"
	KindNameGameObject = "GameObject"
	KindNameBuilding   = "Building"
	KindNameItem       = "Item"
	KindNameCoins      = "Coins"
	KindNameRecipe     = "Recipe"
	KindNameResearch   = "Research"
)

// Kind describes an expected record type for registry operations. T is the
// Go type a realized record must assert to; it may be a concrete record
// pointer or one of the Record / GameObject interfaces. Kinds without a
// constructor are abstract: they can be referenced and looked up, never
// created.
type Kind[T Record] struct {
	name      string
	normalize func(string) string
	create    func(r *Registry, name string) (T, error)
}

// Record kinds.
var (
	AnyKind        = &Kind[Record]{name: KindNameRecord}
	GameObjectKind = &Kind[GameObject]{name: KindNameGameObject}
	BuildingKind   = &Kind[*Building]{name: KindNameBuilding, create: newBuilding}
	ItemKind       = &Kind[*Item]{name: KindNameItem, create: newItem}
	CoinsKind      = &Kind[*Coins]{name: KindNameCoins, create: newCoins}
	RecipeKind     = &Kind[*Recipe]{name: KindNameRecipe, create: newRecipe}
	ResearchKind   = &Kind[*Research]{name: KindNameResearch, normalize: ResearchRecordName, create: newResearch}
)

// Name returns the kind name.
func (k *Kind[T]) Name() string { return k.name }

// Abstract reports whether the kind cannot be instantiated.
func (k *Kind[T]) Abstract() bool { return k.create == nil }

// RecordName maps a caller-supplied name to the record name used in the
// registry. Most kinds use the name unchanged.
func (k *Kind[T]) RecordName(name string) string {
	if k.normalize == nil {
		return name
	}
	return k.normalize(name)
}

// match asserts rec to the kind's Go type.
func (k *Kind[T]) match(rec Record) (T, bool) {
	v, ok := rec.(T)
	return v, ok
}

func (k *Kind[T]) String() string { return k.name }
