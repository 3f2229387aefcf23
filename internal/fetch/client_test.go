package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/tracing"
)

type wiki struct {
	server *httptest.Server
	hits   atomic.Int32
	agent  atomic.Value
}

func newWiki(t *testing.T) *wiki {
	t.Helper()
	w := &wiki{}
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Buildings", func(rw http.ResponseWriter, r *http.Request) {
		w.hits.Add(1)
		w.agent.Store(r.UserAgent())
		if r.URL.Query().Get("action") == "edit" {
			_, _ = rw.Write([]byte(`<html><body><textarea id="wpTextbox1">{| |}</textarea></body></html>`))
			return
		}
		_, _ = rw.Write([]byte("<html>Buildings</html>"))
	})
	mux.HandleFunc("/wiki/NoForm", func(rw http.ResponseWriter, r *http.Request) {
		w.hits.Add(1)
		_, _ = rw.Write([]byte("<html></html>"))
	})
	mux.HandleFunc("/wiki/Binary", func(rw http.ResponseWriter, r *http.Request) {
		w.hits.Add(1)
		_, _ = rw.Write([]byte{0xff, 0xfe, 0x00})
	})
	mux.HandleFunc("/images/icon.png", func(rw http.ResponseWriter, r *http.Request) {
		w.hits.Add(1)
		_, _ = rw.Write([]byte{0x89, 'P', 'N', 'G'})
	})
	w.server = httptest.NewServer(mux)
	t.Cleanup(w.server.Close)
	return w
}

func newTestClient(t *testing.T, w *wiki, opts ...Option) (*Client, *pagecache.FileStore) {
	t.Helper()
	store, err := pagecache.NewFileStore(t.TempDir())
	require.NoError(t, err)
	opts = append([]Option{WithBaseURL(w.server.URL + "/wiki"), WithHTTPClient(w.server.Client())}, opts...)
	return New(store, opts...), store
}

func TestClient_BytesCachesUnderHTTP(t *testing.T) {
	w := newWiki(t)
	c, store := newTestClient(t, w, WithUserAgent("factorytown-test"))
	ctx := context.Background()
	url := c.PageURL("Buildings")

	for range 3 {
		body, err := c.Bytes(ctx, url, false)
		require.NoError(t, err)
		require.Equal(t, "<html>Buildings</html>", string(body))
	}
	require.EqualValues(t, 1, w.hits.Load(), "later reads come from cache")
	require.Equal(t, "factorytown-test", w.agent.Load())

	cached, found, err := store.Get(ctx, pagecache.NamespaceHTTP, CacheKey(url))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "<html>Buildings</html>", string(cached))
}

func TestClient_ForceRefetchesAndRewrites(t *testing.T) {
	w := newWiki(t)
	c, store := newTestClient(t, w)
	ctx := context.Background()
	url := c.PageURL("Buildings")

	require.NoError(t, store.Put(ctx, pagecache.NamespaceHTTP, CacheKey(url), []byte("stale")))

	body, err := c.Bytes(ctx, url, false)
	require.NoError(t, err)
	require.Equal(t, "stale", string(body))
	require.Zero(t, w.hits.Load())

	body, err = c.Bytes(ctx, url, true)
	require.NoError(t, err)
	require.Equal(t, "<html>Buildings</html>", string(body))
	require.EqualValues(t, 1, w.hits.Load())

	cached, _, err := store.Get(ctx, pagecache.NamespaceHTTP, CacheKey(url))
	require.NoError(t, err)
	require.Equal(t, "<html>Buildings</html>", string(cached), "forced fetch still writes the cache")
}

func TestClient_WikitextCachesBothNamespaces(t *testing.T) {
	w := newWiki(t)
	c, store := newTestClient(t, w)
	ctx := context.Background()

	text, err := c.PageWikitext(ctx, "Buildings", false)
	require.NoError(t, err)
	require.Equal(t, "{| |}", text)

	editURL := EditURL(c.PageURL("Buildings"))
	md, found, err := store.Get(ctx, pagecache.NamespaceMD, CacheKey(editURL))
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "{| |}", string(md))

	_, found, err = store.Get(ctx, pagecache.NamespaceHTTP, CacheKey(editURL))
	require.NoError(t, err)
	require.True(t, found, "raw edit page is cached too")

	text, err = c.Wikitext(ctx, editURL, false)
	require.NoError(t, err)
	require.Equal(t, "{| |}", text)
	require.EqualValues(t, 1, w.hits.Load())
}

func TestClient_WikitextMissingForm(t *testing.T) {
	w := newWiki(t)
	c, _ := newTestClient(t, w)

	_, err := c.PageWikitext(context.Background(), "NoForm", false)
	require.ErrorIs(t, err, ErrNoWikitext)
}

func TestClient_StatusError(t *testing.T) {
	w := newWiki(t)
	c, store := newTestClient(t, w)
	ctx := context.Background()

	_, err := c.PageHTML(ctx, "Missing", false)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)

	keys, err := store.List(ctx, pagecache.NamespaceHTTP)
	require.NoError(t, err)
	require.Empty(t, keys, "failed fetches are not cached")
}

func TestClient_TextRejectsInvalidUTF8(t *testing.T) {
	w := newWiki(t)
	c, _ := newTestClient(t, w)

	_, err := c.PageHTML(context.Background(), "Binary", false)
	require.ErrorIs(t, err, ErrNotUTF8)
}

func TestClient_PageAsset(t *testing.T) {
	w := newWiki(t)
	c, _ := newTestClient(t, w)

	body, err := c.PageAsset(context.Background(), "Buildings", "/images/icon.png")
	require.NoError(t, err)
	require.Equal(t, []byte{0x89, 'P', 'N', 'G'}, body)
}

func TestClient_PublishesFetchEvents(t *testing.T) {
	w := newWiki(t)
	broker := pubsub.NewBroker[Fetched]()
	defer broker.Close()
	c, _ := newTestClient(t, w, WithPublisher(broker))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := broker.Subscribe(ctx)

	url := c.PageURL("Buildings")
	_, err := c.Bytes(ctx, url, false)
	require.NoError(t, err)
	_, err = c.Bytes(ctx, url, false)
	require.NoError(t, err)

	var sources []string
	for range 2 {
		select {
		case ev := <-events:
			require.Equal(t, pubsub.PageFetchedEvent, ev.Type)
			require.Equal(t, url, ev.Payload.URL)
			require.Equal(t, pagecache.NamespaceHTTP, ev.Payload.Namespace)
			sources = append(sources, ev.Payload.Source)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for fetch event")
		}
	}
	require.Equal(t, []string{SourceNetwork, SourceCache}, sources)
}

func TestClient_RecordsSpans(t *testing.T) {
	w := newWiki(t)
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = tp.Shutdown(context.Background()) }()

	c, _ := newTestClient(t, w, WithTracer(tp.Tracer("test")))
	_, err := c.PageWikitext(context.Background(), "Buildings", false)
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	// The bytes span ends first and is a child of the wikitext span.
	require.Equal(t, tracing.SpanFetchBytes, spans[0].Name())
	require.Equal(t, tracing.SpanFetchWiki, spans[1].Name())
	require.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}
