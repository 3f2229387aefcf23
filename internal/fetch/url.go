package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// EditSuffix selects a wiki page's edit form, whose textarea holds the
// page's wikitext.
const EditSuffix = "?action=edit"

var nonWord = regexp.MustCompile(`\W`)

// PageURL joins a wiki base URL and a page title. A trailing slash on base is
// tolerated.
func PageURL(base, page string) string {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + page
}

// EditURL returns the edit-form URL for a page URL.
func EditURL(pageURL string) string {
	if strings.HasSuffix(pageURL, EditSuffix) {
		return pageURL
	}
	return pageURL + EditSuffix
}

// AssetURL resolves asset relative to the page's URL. An empty page returns
// asset unchanged.
func AssetURL(base, page, asset string) (string, error) {
	if page == "" {
		return asset, nil
	}
	pageURL, err := url.Parse(PageURL(base, page))
	if err != nil {
		return "", fmt.Errorf("parsing page url: %w", err)
	}
	ref, err := url.Parse(asset)
	if err != nil {
		return "", fmt.Errorf("parsing asset url: %w", err)
	}
	return pageURL.ResolveReference(ref).String(), nil
}

// CacheKey maps a URL to a readable, unique file name: every non-word
// character becomes "_", followed by "." and the hex SHA-256 of the URL.
func CacheKey(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return nonWord.ReplaceAllString(rawURL, "_") + "." + hex.EncodeToString(sum[:])
}
