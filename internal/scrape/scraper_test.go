package scrape

import (
	"context"
	"html"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/factorytown/internal/fetch"
	"github.com/zjrosen/factorytown/internal/model"
	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/tracing"
)

const buildingsWikitext = `The buildings of Factory Town.
{| class="wikitable"
! Building !! Size !! Tech Lv. !! Research Required !! Shared Inventory !! Capacity !! Ingredients
|-
| {{Item|Storage Hut}} || 2x2 || 1 || N/A || Yes || 20 items<br>per slot || 5x {{Item|Plank}}
|-
| {{Item|Warehouse}} || 3x3 || 3 || Storage II || No || 100 items || 10x {{Item|Plank}} + 4x {{Item|Stone Brick}}
|}
{| class="wikitable"
! Building !! Size !! Tech Lv. !! Research Required !! Ingredients
|-
| {{Item|Town Center}} || 5x5 || 1 || || N/A
|-
| {{Item|Town Center}} || 5x5 || 1 || || 20x {{Item|Wood}}
|-
| {{Item|Sawmill}} || 2x3 || 1 || || {{Item|Wood}}
|}
{| class="wikitable"
! Building !! Size !! Tech Lv. !! Research Required !! Ingredients
|-
| {{Item|Market Stall}} || 2x2 || 2 || Trade || N/A
|}
`

func newWikiServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	for page, text := range pages {
		body := `<html><body><form><textarea id="wpTextbox1">` + html.EscapeString(text) + `</textarea></form></body></html>`
		mux.HandleFunc("/wiki/"+page, func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newScraper(t *testing.T, pages map[string]string) *Scraper {
	t.Helper()
	srv := newWikiServer(t, pages)
	store, err := pagecache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return &Scraper{
		Pages: fetch.New(store, fetch.WithBaseURL(srv.URL+"/wiki"), fetch.WithHTTPClient(srv.Client())),
	}
}

func TestScrapeModel_Buildings(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	m := model.New()

	result, err := s.ScrapeModel(context.Background(), m, false)
	require.NoError(t, err)

	hut, err := model.Get(m.Records(), model.BuildingKind, "Storage Hut")
	require.NoError(t, err)
	typ, err := hut.BuildingType()
	require.NoError(t, err)
	require.Equal(t, model.BuildingTypeStorage, typ)
	grid, err := hut.GridSize()
	require.NoError(t, err)
	require.Equal(t, model.GridDim{Width: 2, Height: 2}, grid)
	shared, err := hut.SharedInventory()
	require.NoError(t, err)
	require.True(t, shared)
	capacity, err := hut.CapacityNote()
	require.NoError(t, err)
	require.Equal(t, "20 items\nper slot", capacity)
	research, err := hut.Research()
	require.NoError(t, err)
	require.Nil(t, research)

	warehouse, err := model.Get(m.Records(), model.BuildingKind, "Warehouse")
	require.NoError(t, err)
	tech, err := warehouse.TechLevel()
	require.NoError(t, err)
	require.Equal(t, 3, tech)
	research, err = warehouse.Research()
	require.NoError(t, err)
	require.Equal(t, "Storage II", research.Title())

	sawmill, err := model.Get(m.Records(), model.BuildingKind, "Sawmill")
	require.NoError(t, err)
	typ, err = sawmill.BuildingType()
	require.NoError(t, err)
	require.Equal(t, model.BuildingTypeProduction, typ)
	shared, err = sawmill.SharedInventory()
	require.NoError(t, err)
	require.False(t, shared, "absent column means not shared")
	capacity, err = sawmill.CapacityNote()
	require.NoError(t, err)
	require.Empty(t, capacity)

	stall, err := model.Get(m.Records(), model.BuildingKind, "Market Stall")
	require.NoError(t, err)
	typ, err = stall.BuildingType()
	require.NoError(t, err)
	require.Equal(t, model.BuildingTypeMarket, typ)

	// Ingredients are never defined by these stages.
	var names []string
	for _, u := range result.Unresolved {
		names = append(names, u.Name)
	}
	require.ElementsMatch(t, []string{"Plank", "Stone Brick", "Wood"}, names)
	require.Equal(t, 3, result.Summary.Unresolved)
}

func TestScrapeModel_TownCenterUsesRowWithIngredients(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	m := model.New()

	_, err := s.ScrapeModel(context.Background(), m, false)
	require.NoError(t, err)

	rc, err := model.Get(m.Records(), model.RecipeKind, "[User].Town Center.default")
	require.NoError(t, err)
	require.True(t, rc.IsUserRecipe())

	ingredients, err := rc.IngredientRefs()
	require.NoError(t, err)
	require.Len(t, ingredients, 1)
	require.Equal(t, "Wood", ingredients[0].Object.RecordName())
	require.Equal(t, 20, ingredients[0].Quantity)

	product, err := rc.ProductRef()
	require.NoError(t, err)
	require.Equal(t, "Town Center", product.Object.RecordName())
	require.Equal(t, 1, product.Quantity)

	wu, err := rc.WorkUnits()
	require.NoError(t, err)
	require.Zero(t, wu)
}

func TestScrapeModel_NoIngredientsRecipe(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	m := model.New()

	_, err := s.ScrapeModel(context.Background(), m, false)
	require.NoError(t, err)

	rc, err := model.Get(m.Records(), model.RecipeKind, "[User].Market Stall.default")
	require.NoError(t, err)
	ingredients, err := rc.IngredientRefs()
	require.NoError(t, err, "N/A ingredients are set and empty")
	require.Empty(t, ingredients)
}

func TestScrapeModel_Coins(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	m := model.New()

	result, err := s.ScrapeModel(context.Background(), m, false)
	require.NoError(t, err)

	for _, color := range model.CoinColors {
		c, err := model.Get(m.Records(), model.CoinsKind, color+" Coins")
		require.NoError(t, err)
		require.Equal(t, color, c.Color())
	}
	require.Equal(t, len(model.CoinColors), result.Summary.ByTag[model.KindNameCoins])
}

func TestScrapeModel_StrictFailsOnUnresolved(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	s.Strict = true

	result, err := s.ScrapeModel(context.Background(), model.New(), false)
	require.ErrorIs(t, err, model.ErrUnresolvedReference)
	require.Len(t, result.Unresolved, 3)
}

func TestScrapeModel_MissingTables(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: "{|\n! Building\n|}"})

	_, err := s.ScrapeModel(context.Background(), model.New(), false)
	require.ErrorContains(t, err, "want 3 tables")
}

func TestScrapeModel_TableWithoutIngredients(t *testing.T) {
	text := "{|\n! Building !! Size !! Tech Lv. !! Research Required !! Ingredients\n|-\n" +
		"| {{Item|Storage Hut}} || 2x2 || 1 || || 5x {{Item|Plank}}\n|}\n" +
		"{|\n! Building !! Size !! Tech Lv. !! Research Required\n|-\n" +
		"| {{Item|Town Center}} || 5x5 || 1 || N/A\n|}\n" +
		"{|\n! Building !! Size !! Tech Lv. !! Research Required\n|-\n" +
		"| {{Item|Market Stall}} || 2x2 || 2 || Trade\n|}\n"
	s := newScraper(t, map[string]string{BuildingsPage: text})
	m := model.New()

	_, err := s.ScrapeModel(context.Background(), m, false)
	require.NoError(t, err)

	stall, err := model.Get(m.Records(), model.BuildingKind, "Market Stall")
	require.NoError(t, err)
	typ, err := stall.BuildingType()
	require.NoError(t, err)
	require.Equal(t, model.BuildingTypeMarket, typ)

	_, ok, err := model.TryGet(m.Records(), model.RecipeKind, "[User].Market Stall.default")
	require.NoError(t, err)
	require.False(t, ok, "no construction recipe without an Ingredients column")

	_, ok, err = model.TryGet(m.Records(), model.BuildingKind, "Town Center")
	require.NoError(t, err)
	require.False(t, ok, "the Town Center row without costs is skipped")

	_, ok, err = model.TryGet(m.Records(), model.RecipeKind, "[User].Storage Hut.default")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestScrapeModel_BadSharedInventory(t *testing.T) {
	text := "{|\n! Building !! Size !! Tech Lv. !! Research Required !! Shared Inventory !! Ingredients\n|-\n" +
		"| {{Item|Hut}} || 1x1 || 1 || || Maybe || N/A\n|}\n{|\n|}\n{|\n|}\n"
	s := newScraper(t, map[string]string{BuildingsPage: text})

	_, err := s.ScrapeModel(context.Background(), model.New(), false)
	require.ErrorContains(t, err, "want Yes or No")
}

func TestScrapeModel_PageNotFound(t *testing.T) {
	s := newScraper(t, nil)

	_, err := s.ScrapeModel(context.Background(), model.New(), false)
	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
}

func TestScrapeModel_PublishesStageEvents(t *testing.T) {
	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	broker := pubsub.NewBroker[StageEvent]()
	defer broker.Close()
	s.Events = broker

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	m := model.New()
	_, err := s.ScrapeModel(ctx, m, false)
	require.NoError(t, err)

	var got []string
	for range 4 {
		select {
		case ev := <-events:
			require.Equal(t, m.ID(), ev.Payload.RunID)
			got = append(got, string(ev.Type)+":"+ev.Payload.Stage)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for stage event")
		}
	}
	require.Equal(t, []string{
		string(pubsub.StageStartedEvent) + ":" + StageBuildings,
		string(pubsub.StageFinishedEvent) + ":" + StageBuildings,
		string(pubsub.StageStartedEvent) + ":" + StageCoins,
		string(pubsub.StageFinishedEvent) + ":" + StageCoins,
	}, got)
}

func TestScrapeModel_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	s := newScraper(t, map[string]string{BuildingsPage: buildingsWikitext})
	s.Tracer = tp.Tracer("test")

	_, err := s.ScrapeModel(context.Background(), model.New(), false)
	require.NoError(t, err)

	names := map[string]bool{}
	for _, span := range recorder.Ended() {
		names[span.Name()] = true
	}
	require.True(t, names[tracing.SpanScrapeModel])
	require.True(t, names[tracing.SpanPrefixStage+StageBuildings])
	require.True(t, names[tracing.SpanPrefixStage+StageCoins])
}

func TestScrapeModel_SecondRunReadsCache(t *testing.T) {
	var hits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/"+BuildingsPage, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<textarea id="wpTextbox1">` + html.EscapeString(buildingsWikitext) + `</textarea>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	store, err := pagecache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	s := &Scraper{Pages: fetch.New(store, fetch.WithBaseURL(srv.URL+"/wiki"), fetch.WithHTTPClient(srv.Client()))}

	for range 2 {
		_, err := s.ScrapeModel(context.Background(), model.New(), false)
		require.NoError(t, err)
	}
	require.EqualValues(t, 1, hits.Load())

	_, err = s.ScrapeModel(context.Background(), model.New(), true)
	require.NoError(t, err)
	require.EqualValues(t, 2, hits.Load(), "force refetches")
}
