package model

import (
	"fmt"
	"strings"
)

// Recipe name parts. A recipe record name is
// "<building>.<product>.<variant>", with UserBuilding standing in for "no
// building" and DefaultVariant for "no variant".
const (
	UserBuilding   = "[User]"
	DefaultVariant = "default"
	recipeNameSep  = "."
)

// RecipeRecordName composes a recipe record name. An empty building means a
// user recipe; an empty variant means the default variant.
func RecipeRecordName(building, product, variant string) (string, error) {
	if err := checkRecipePart("building", building, UserBuilding); err != nil {
		return "", err
	}
	if product == "" {
		return "", &MalformedRecordNameError{Kind: KindNameRecipe, Name: product, Reason: "empty product"}
	}
	if err := checkRecipePart("product", product, ""); err != nil {
		return "", err
	}
	if err := checkRecipePart("variant", variant, DefaultVariant); err != nil {
		return "", err
	}
	if building == "" {
		building = UserBuilding
	}
	if variant == "" {
		variant = DefaultVariant
	}
	return strings.Join([]string{building, product, variant}, recipeNameSep), nil
}

func checkRecipePart(part, value, sentinel string) error {
	if strings.Contains(value, recipeNameSep) {
		return &MalformedRecordNameError{
			Kind:   KindNameRecipe,
			Name:   value,
			Reason: fmt.Sprintf("%s may not contain %q", part, recipeNameSep),
		}
	}
	if sentinel != "" && value == sentinel {
		return &MalformedRecordNameError{
			Kind:   KindNameRecipe,
			Name:   value,
			Reason: fmt.Sprintf("%s may not be the literal %q", part, sentinel),
		}
	}
	return nil
}

// ParseRecipeName splits a recipe record name into its parts. The sentinels
// come back as empty strings.
func ParseRecipeName(name string) (building, product, variant string, err error) {
	parts := strings.Split(name, recipeNameSep)
	if len(parts) != 3 {
		return "", "", "", &MalformedRecordNameError{
			Kind:   KindNameRecipe,
			Name:   name,
			Reason: fmt.Sprintf("want exactly two %q separators, got %d", recipeNameSep, len(parts)-1),
		}
	}
	for i, label := range []string{"building", "product", "variant"} {
		if parts[i] == "" {
			return "", "", "", &MalformedRecordNameError{Kind: KindNameRecipe, Name: name, Reason: "empty " + label}
		}
	}
	building, product, variant = parts[0], parts[1], parts[2]
	if building == UserBuilding {
		building = ""
	}
	if variant == DefaultVariant {
		variant = ""
	}
	return building, product, variant, nil
}

// Recipe turns ingredients into products in a building, or by hand for user
// recipes.
type Recipe struct {
	recordBase
	imageField

	building       Ref[*Building]
	primaryProduct string
	variant        string

	products    CountedList
	ingredients CountedList
	workUnits   WriteOnce[int]
}

// newRecipe runs under the registry write lock.
func newRecipe(r *Registry, name string) (*Recipe, error) {
	building, product, variant, err := ParseRecipeName(name)
	if err != nil {
		return nil, err
	}
	rc := &Recipe{
		recordBase:     newRecordBase(r, name, KindNameRecipe),
		imageField:     newImageField(),
		primaryProduct: product,
		variant:        variant,
		products:       NewCountedList("products"),
		ingredients:    NewCountedList("ingredients"),
		workUnits:      NewWriteOnce[int]("work_units"),
	}
	if building != "" {
		if rc.building, err = getRefLocked(r, BuildingKind, building); err != nil {
			return nil, err
		}
	}
	rc.AddTag(KindNameRecipe)
	return rc, nil
}

// IsUserRecipe reports whether the recipe is crafted without a building.
func (rc *Recipe) IsUserRecipe() bool { return rc.building.IsZero() }

// BuildingRef returns the producing building. It is the zero Ref for user
// recipes.
func (rc *Recipe) BuildingRef() Ref[*Building] { return rc.building }

// Building resolves the producing building. It returns nil with no error for
// user recipes.
func (rc *Recipe) Building() (*Building, error) {
	if rc.building.IsZero() {
		return nil, nil
	}
	return rc.building.Get()
}

// PrimaryProductName is the product part of the record name.
func (rc *Recipe) PrimaryProductName() string { return rc.primaryProduct }

// Variant is the variant part of the record name, or "" for the default.
func (rc *Recipe) Variant() string { return rc.variant }

// DisplayName is the override if set, otherwise the primary product name
// with the variant in parentheses when there is one.
func (rc *Recipe) DisplayName() string {
	if v, ok := rc.display.Value(); ok {
		return v
	}
	if rc.variant == "" {
		return rc.primaryProduct
	}
	return fmt.Sprintf("%s (%s)", rc.primaryProduct, rc.variant)
}

// DefaultImageName is the primary product name.
func (rc *Recipe) DefaultImageName() string { return rc.primaryProduct }

// ImageName returns the image override or the default image name.
func (rc *Recipe) ImageName() string { return rc.image.Or(rc.DefaultImageName()) }

// SetImageName overrides the image name.
func (rc *Recipe) SetImageName(name string) error {
	return withRecord(rc.name, rc.image.Set(name))
}

// AddProduct appends (name, quantity) to the products or confirms it.
func (rc *Recipe) AddProduct(name string, quantity int) error {
	ref, err := GetRef(rc.registry, GameObjectKind, name)
	if err != nil {
		return err
	}
	return withRecord(rc.name, rc.products.Add(ref, quantity))
}

// SetProduct asserts that the recipe has exactly this one product.
func (rc *Recipe) SetProduct(name string, quantity int) error {
	if n := rc.products.Len(); n > 1 {
		return &InconsistentFieldError{
			Record:   rc.name,
			Field:    rc.products.Name(),
			Current:  rc.products.String(),
			Proposed: fmt.Sprintf("[%dx %s]", quantity, name),
		}
	} else if n == 1 {
		cur := rc.products.entries[0]
		if cur.Object.RecordName() != name {
			return &InconsistentFieldError{
				Record:   rc.name,
				Field:    rc.products.Name(),
				Current:  rc.products.String(),
				Proposed: fmt.Sprintf("[%dx %s]", quantity, name),
			}
		}
	}
	return rc.AddProduct(name, quantity)
}

// ProductRefs returns the products in insertion order.
func (rc *Recipe) ProductRefs() ([]CountedRef, error) {
	v, err := rc.products.Entries()
	return v, withRecord(rc.name, err)
}

// Products returns the resolved products.
func (rc *Recipe) Products() ([]Counted, error) {
	v, err := rc.products.Resolve()
	return v, withRecord(rc.name, err)
}

// ProductRef returns the first product.
func (rc *Recipe) ProductRef() (CountedRef, error) {
	refs, err := rc.ProductRefs()
	if err != nil {
		return CountedRef{}, err
	}
	if len(refs) == 0 {
		return CountedRef{}, &FieldNotSetError{Record: rc.name, Field: rc.products.Name()}
	}
	return refs[0], nil
}

// AddIngredient appends (name, quantity) to the ingredients or confirms it.
func (rc *Recipe) AddIngredient(name string, quantity int) error {
	ref, err := GetRef(rc.registry, GameObjectKind, name)
	if err != nil {
		return err
	}
	return withRecord(rc.name, rc.ingredients.Add(ref, quantity))
}

// SetIngredients adds or confirms every amount and marks the ingredient list
// set, even when amounts is empty.
func (rc *Recipe) SetIngredients(amounts []Amount) error {
	if len(amounts) == 0 {
		return rc.SetNoIngredients()
	}
	for _, a := range amounts {
		if err := rc.AddIngredient(a.Name, a.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// SetNoIngredients records that the recipe needs no ingredients.
func (rc *Recipe) SetNoIngredients() error {
	return withRecord(rc.name, rc.ingredients.MarkEmpty())
}

// IngredientRefs returns the ingredients in insertion order.
func (rc *Recipe) IngredientRefs() ([]CountedRef, error) {
	v, err := rc.ingredients.Entries()
	return v, withRecord(rc.name, err)
}

// Ingredients returns the resolved ingredients.
func (rc *Recipe) Ingredients() ([]Counted, error) {
	v, err := rc.ingredients.Resolve()
	return v, withRecord(rc.name, err)
}

// WorkUnits returns the labour needed per craft.
func (rc *Recipe) WorkUnits() (int, error) {
	v, err := rc.workUnits.Get()
	return v, withRecord(rc.name, err)
}

// SetWorkUnits sets the labour needed per craft.
func (rc *Recipe) SetWorkUnits(units int) error {
	return withRecord(rc.name, rc.workUnits.Set(units))
}

func (rc *Recipe) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Recipe(%s", rc.describe(rc.DisplayName()))
	if rc.building.IsZero() {
		sb.WriteString(", building=" + UserBuilding)
	} else {
		fmt.Fprintf(&sb, ", building=%q", rc.building.RecordName())
	}
	if rc.products.IsSet() {
		fmt.Fprintf(&sb, ", products=%s", rc.products.String())
	}
	if rc.ingredients.IsSet() {
		fmt.Fprintf(&sb, ", ingredients=%s", rc.ingredients.String())
	}
	if wu, ok := rc.workUnits.Value(); ok {
		fmt.Fprintf(&sb, ", work_units=%d", wu)
	}
	sb.WriteString(")")
	return sb.String()
}
