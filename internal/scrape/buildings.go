package scrape

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/tracing"
	"github.com/zjrosen/factorytown/internal/wikitable"
)

// BuildingsPage is the wiki page listing every building.
const BuildingsPage = "Buildings"

// Columns of the building tables.
const (
	ColBuilding        = "Building"
	ColSize            = "Size"
	ColTechLevel       = "Tech Lv."
	ColResearch        = "Research Required"
	ColSharedInventory = "Shared Inventory"
	ColCapacity        = "Capacity"
	ColIngredients     = "Ingredients"
)

// townCenter is listed twice on the page; the row without ingredients is
// the starting building and is skipped.
const townCenter = "Town Center"

// buildingTables names the page's tables in order. The name is also the
// building type of every row.
var buildingTables = []string{
	model.BuildingTypeStorage,
	model.BuildingTypeProduction,
	model.BuildingTypeMarket,
}

func scrapeBuildings(ctx context.Context, s *Scraper, m *model.Model, force bool) error {
	text, err := s.Pages.PageWikitext(ctx, BuildingsPage, force)
	if err != nil {
		return err
	}
	tables := wikitable.ParseTables(text)
	if len(tables) < len(buildingTables) {
		return fmt.Errorf("page %s: want %d tables, found %d", BuildingsPage, len(buildingTables), len(tables))
	}

	span := trace.SpanFromContext(ctx)
	for i, buildingType := range buildingTables {
		group := wikitable.NewTableReader(tables[i], buildingType)
		log.Debug(log.CatScrape, "Processing group", "group", group.Name(), "headers", group.Headers())
		span.AddEvent("table", trace.WithAttributes(
			attribute.String(tracing.AttrTable, group.Name()),
			attribute.Int(tracing.AttrRows, group.Len()),
		))
		for _, row := range group.Rows() {
			if err := buildingRow(ctx, m, buildingType, row); err != nil {
				return fmt.Errorf("%s: %w", row, err)
			}
		}
	}
	return nil
}

func buildingRow(ctx context.Context, m *model.Model, buildingType string, row wikitable.Row) error {
	cell, err := row.Get(ColBuilding)
	if err != nil {
		return err
	}
	name, err := wikitable.StripItemTemplate(cell)
	if err != nil {
		return err
	}
	// A table without the column lists no construction costs.
	ingredients, hasIngredients := row.Lookup(ColIngredients)
	if !hasIngredients {
		ingredients = wikitable.NotApplicable
	}
	if name == townCenter && strings.HasPrefix(strings.TrimSpace(ingredients), wikitable.NotApplicable) {
		log.Debug(log.CatScrape, "Skipping starting building", "name", name)
		trace.SpanFromContext(ctx).AddEvent(tracing.EventRowSkipped,
			trace.WithAttributes(attribute.String(tracing.AttrRecordName, name)))
		return nil
	}

	records := m.Records()
	b, err := model.GetOrCreate(records, model.BuildingKind, name)
	if err != nil {
		return err
	}
	if err := b.SetBuildingType(buildingType); err != nil {
		return err
	}

	size, err := row.Get(ColSize)
	if err != nil {
		return err
	}
	grid, err := model.ParseGridDim(size)
	if err != nil {
		return err
	}
	if err := b.SetGridSize(grid); err != nil {
		return err
	}

	techCell, err := row.Get(ColTechLevel)
	if err != nil {
		return err
	}
	tech, err := strconv.Atoi(strings.TrimSpace(techCell))
	if err != nil {
		return fmt.Errorf("%s %q: %w", ColTechLevel, techCell, err)
	}
	if err := b.SetTechLevel(tech); err != nil {
		return err
	}

	if err := setResearch(records, b, row); err != nil {
		return err
	}

	shared := false
	if v, ok := row.Lookup(ColSharedInventory); ok {
		switch strings.TrimSpace(v) {
		case "Yes":
			shared = true
		case "No":
		default:
			return fmt.Errorf("%s: want Yes or No, got %q", ColSharedInventory, v)
		}
	}
	if err := b.SetSharedInventory(shared); err != nil {
		return err
	}

	capacity := ""
	if v, ok := row.Lookup(ColCapacity); ok {
		capacity = strings.TrimSpace(strings.ReplaceAll(v, "<br>", "\n"))
	}
	if err := b.SetCapacityNote(capacity); err != nil {
		return err
	}

	if hasIngredients {
		if err := setConstructionRecipe(records, b, ingredients); err != nil {
			return err
		}
	}
	log.Debug(log.CatScrape, "Building", "building", b.String())
	return nil
}

func setResearch(records *model.Registry, b *model.Building, row wikitable.Row) error {
	v, err := row.Get(ColResearch)
	if err != nil {
		return err
	}
	title := strings.TrimSpace(v)
	if title == "" || title == wikitable.NotApplicable {
		return b.SetResearch("")
	}
	if _, err := model.GetOrCreate(records, model.ResearchKind, title); err != nil {
		return err
	}
	return b.SetResearch(title)
}

// setConstructionRecipe records the building's cost as the user recipe
// "[User].<building>.default" producing one building.
func setConstructionRecipe(records *model.Registry, b *model.Building, ingredients string) error {
	amounts, err := wikitable.ParseCountedList(ingredients)
	if err != nil {
		return fmt.Errorf("%s: %w", ColIngredients, err)
	}
	name, err := model.RecipeRecordName("", b.RecordName(), "")
	if err != nil {
		return err
	}
	rc, err := model.GetOrCreate(records, model.RecipeKind, name)
	if err != nil {
		return err
	}
	if err := rc.SetProduct(b.RecordName(), 1); err != nil {
		return err
	}
	list := make([]model.Amount, len(amounts))
	for i, a := range amounts {
		list[i] = model.Amount{Name: a.Name, Quantity: a.Quantity}
	}
	if err := rc.SetIngredients(list); err != nil {
		return err
	}
	return rc.SetWorkUnits(0)
}
