package fetch

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestPageURL(t *testing.T) {
	require.Equal(t, "https://factorytown.fandom.com/wiki/Buildings", PageURL("https://factorytown.fandom.com/wiki", "Buildings"))
	require.Equal(t, "https://factorytown.fandom.com/wiki/Buildings", PageURL("https://factorytown.fandom.com/wiki/", "Buildings"))
}

func TestEditURL(t *testing.T) {
	require.Equal(t, "https://w/wiki/Coins?action=edit", EditURL("https://w/wiki/Coins"))
	require.Equal(t, "https://w/wiki/Coins?action=edit", EditURL("https://w/wiki/Coins?action=edit"))
}

func TestAssetURL(t *testing.T) {
	u, err := AssetURL("https://w/wiki", "Buildings", "/images/a.png")
	require.NoError(t, err)
	require.Equal(t, "https://w/images/a.png", u)

	u, err = AssetURL("https://w/wiki", "Buildings", "thumb.png")
	require.NoError(t, err)
	require.Equal(t, "https://w/wiki/thumb.png", u)

	u, err = AssetURL("https://w/wiki", "", "https://cdn/x.png")
	require.NoError(t, err)
	require.Equal(t, "https://cdn/x.png", u)
}

func TestCacheKey(t *testing.T) {
	url := "https://factorytown.fandom.com/wiki/Buildings?action=edit"
	sum := sha256.Sum256([]byte(url))

	require.Equal(t,
		"https___factorytown_fandom_com_wiki_Buildings_action_edit."+hex.EncodeToString(sum[:]),
		CacheKey(url))
}

func TestCacheKey_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		url := rapid.StringMatching(`https?://[a-z.]{1,12}/[A-Za-z0-9_ ?=&/.-]{0,30}`).Draw(t, "url")
		key := CacheKey(url)

		readable, digest, ok := strings.Cut(key, ".")
		if !ok {
			t.Fatalf("key %q has no digest", key)
		}
		if len(digest) != 64 {
			t.Fatalf("digest %q is not hex sha256", digest)
		}
		if len(readable) != len(url) {
			t.Fatalf("readable part %q changed length from %q", readable, url)
		}
		if strings.ContainsAny(readable, "/.?&=:- ") {
			t.Fatalf("readable part %q kept a non-word character", readable)
		}
		if CacheKey(url) != key {
			t.Fatal("cache key is not deterministic")
		}
	})
}
