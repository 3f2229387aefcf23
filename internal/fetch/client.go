// Package fetch downloads wiki pages through the page cache.
//
// Raw responses are cached in the http namespace keyed by CacheKey(url).
// Wikitext extracted from a page's edit form is cached in the md namespace
// keyed by CacheKey(edit url). A forced fetch skips cached reads but still
// writes what it downloads.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/factorytown/internal/config"
	"github.com/zjrosen/factorytown/internal/log"
	"github.com/zjrosen/factorytown/internal/pagecache"
	"github.com/zjrosen/factorytown/internal/pubsub"
	"github.com/zjrosen/factorytown/internal/tracing"
)

// Fetch sources reported in Fetched.
const (
	SourceCache   = "cache"
	SourceNetwork = "network"
)

// ErrNotUTF8 is returned by Text for bodies that are not valid UTF-8.
var ErrNotUTF8 = errors.New("response is not valid UTF-8")

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetched is published for every page read, from cache or network.
type Fetched struct {
	URL       string
	Namespace string
	Key       string
	Source    string
	Bytes     int
}

// Client fetches pages, consulting and filling a pagecache.Store.
type Client struct {
	http      *http.Client
	store     pagecache.Store
	baseURL   string
	userAgent string
	tracer    trace.Tracer
	events    pubsub.Publisher[Fetched]
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithBaseURL sets the wiki root that page titles are joined to.
func WithBaseURL(u string) Option {
	return func(cl *Client) { cl.baseURL = u }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(cl *Client) { cl.userAgent = ua }
}

// WithTracer records a span per fetch.
func WithTracer(t trace.Tracer) Option {
	return func(cl *Client) { cl.tracer = t }
}

// WithPublisher publishes a Fetched event per page read.
func WithPublisher(p pubsub.Publisher[Fetched]) Option {
	return func(cl *Client) { cl.events = p }
}

// WithWikiConfig applies the wiki section of the app config.
func WithWikiConfig(w config.WikiConfig) Option {
	return func(cl *Client) {
		cl.baseURL = w.BaseURL
		cl.userAgent = w.UserAgent
		cl.http = &http.Client{Timeout: w.Timeout}
	}
}

// New returns a client caching into store.
func New(store pagecache.Store, opts ...Option) *Client {
	c := &Client{
		http:      &http.Client{Timeout: 30 * time.Second},
		store:     store,
		baseURL:   config.Defaults().Wiki.BaseURL,
		userAgent: config.Defaults().Wiki.UserAgent,
		tracer:    noop.NewTracerProvider().Tracer(""),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// PageURL returns the URL of a page title under the client's base URL.
func (c *Client) PageURL(page string) string {
	return PageURL(c.baseURL, page)
}

// Bytes returns the body at rawURL.
func (c *Client) Bytes(ctx context.Context, rawURL string, force bool) (body []byte, err error) {
	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanFetchBytes,
		attribute.String(tracing.AttrURL, rawURL),
		attribute.String(tracing.AttrNamespace, pagecache.NamespaceHTTP),
		attribute.Bool(tracing.AttrForce, force),
	)
	defer func() { tracing.End(span, err) }()

	key := CacheKey(rawURL)
	if !force {
		cached, found, err := c.store.Get(ctx, pagecache.NamespaceHTTP, key)
		if err != nil {
			return nil, fmt.Errorf("reading cache for %s: %w", rawURL, err)
		}
		if found {
			span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true), attribute.Int(tracing.AttrBytes, len(cached)))
			c.publish(rawURL, pagecache.NamespaceHTTP, key, SourceCache, len(cached))
			return cached, nil
		}
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))

	body, err = c.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrBytes, len(body)))

	if err := c.store.Put(ctx, pagecache.NamespaceHTTP, key, body); err != nil {
		return nil, fmt.Errorf("caching %s: %w", rawURL, err)
	}
	span.AddEvent(tracing.EventCacheWrite)
	c.publish(rawURL, pagecache.NamespaceHTTP, key, SourceNetwork, len(body))
	return body, nil
}

// Text returns the body at rawURL as a string.
func (c *Client) Text(ctx context.Context, rawURL string, force bool) (string, error) {
	body, err := c.Bytes(ctx, rawURL, force)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(body) {
		return "", fmt.Errorf("%s: %w", rawURL, ErrNotUTF8)
	}
	return string(body), nil
}

// Wikitext returns the wikitext of the page at pageURL, read from its edit
// form. "?action=edit" is appended when missing.
func (c *Client) Wikitext(ctx context.Context, pageURL string, force bool) (text string, err error) {
	editURL := EditURL(pageURL)
	key := CacheKey(editURL)

	ctx, span := tracing.Start(ctx, c.tracer, tracing.SpanFetchWiki,
		attribute.String(tracing.AttrURL, editURL),
		attribute.String(tracing.AttrNamespace, pagecache.NamespaceMD),
		attribute.Bool(tracing.AttrForce, force),
	)
	defer func() { tracing.End(span, err) }()

	if !force {
		cached, found, err := c.store.Get(ctx, pagecache.NamespaceMD, key)
		if err != nil {
			return "", fmt.Errorf("reading cache for %s: %w", editURL, err)
		}
		if found {
			span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, true))
			c.publish(editURL, pagecache.NamespaceMD, key, SourceCache, len(cached))
			return string(cached), nil
		}
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, false))

	page, err := c.Text(ctx, editURL, force)
	if err != nil {
		return "", err
	}
	text, err = ExtractWikitext(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("extracting wikitext from %s: %w", editURL, err)
	}

	if err := c.store.Put(ctx, pagecache.NamespaceMD, key, []byte(text)); err != nil {
		return "", fmt.Errorf("caching wikitext for %s: %w", editURL, err)
	}
	c.publish(editURL, pagecache.NamespaceMD, key, SourceNetwork, len(text))
	return text, nil
}

// PageHTML returns the rendered HTML of a page title.
func (c *Client) PageHTML(ctx context.Context, page string, force bool) (string, error) {
	return c.Text(ctx, c.PageURL(page), force)
}

// PageWikitext returns the wikitext of a page title.
func (c *Client) PageWikitext(ctx context.Context, page string, force bool) (string, error) {
	return c.Wikitext(ctx, c.PageURL(page), force)
}

// PageAsset returns an asset referenced from page, resolving relative URLs
// against the page URL. An empty page fetches asset as given.
func (c *Client) PageAsset(ctx context.Context, page, asset string) ([]byte, error) {
	u, err := AssetURL(c.baseURL, page, asset)
	if err != nil {
		return nil, err
	}
	return c.Bytes(ctx, u, false)
}

func (c *Client) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.ErrorErr(log.CatFetch, "Request failed", err, "url", rawURL)
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int(tracing.AttrStatusCode, resp.StatusCode))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.Warn(log.CatFetch, "Unexpected status", "url", rawURL, "status", resp.StatusCode)
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rawURL, err)
	}
	log.Info(log.CatFetch, "Downloaded", "url", rawURL, "bytes", len(body),
		"elapsed", time.Since(start).Round(time.Millisecond), "run", tracing.RunIDFromContext(ctx))
	return body, nil
}

func (c *Client) publish(rawURL, ns, key, source string, n int) {
	log.Debug(log.CatFetch, "Page read", "url", rawURL, "namespace", ns, "source", source, "bytes", n)
	if c.events == nil {
		return
	}
	c.events.Publish(pubsub.PageFetchedEvent, Fetched{
		URL:       rawURL,
		Namespace: ns,
		Key:       key,
		Source:    source,
		Bytes:     n,
	})
}
