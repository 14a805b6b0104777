package session

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/browser"
	"github.com/twium/twium/internal/browser/browsertest"
	"github.com/twium/twium/internal/types"
)

func jarPairs(t *testing.T, client *http.Client, rawURL string) map[string]string {
	t.Helper()

	u, err := url.Parse(rawURL)
	require.NoError(t, err)

	pairs := make(map[string]string)
	for _, c := range client.Jar.Cookies(u) {
		pairs[c.Name] = c.Value
	}
	return pairs
}

func TestHTTPClientCopiesNameValuePairs(t *testing.T) {
	t.Parallel()

	fake := browsertest.New().AddCookies(
		browser.Cookie{Name: "a", Value: "1", Domain: ".twitter.com", Path: "/i", Expiry: 1893456000, Secure: true},
		browser.Cookie{Name: "b", Value: "2"},
	)
	s := newTestSession(t, fake)

	client, err := s.HTTPClient(context.Background())
	require.NoError(t, err)

	want := map[string]string{"a": "1", "b": "2"}
	assert.Equal(t, want, jarPairs(t, client, "https://mobile.twitter.com/search"))
	assert.Equal(t, want, jarPairs(t, client, "https://twitter.com/"))
	// Secure and Path were not carried over.
	assert.Equal(t, want, jarPairs(t, client, "http://mobile.twitter.com/"))
	assert.Empty(t, jarPairs(t, client, "https://example.com/"))
}

func TestHTTPClientSnapshotsAreIndependent(t *testing.T) {
	t.Parallel()

	fake := browsertest.New().AddCookies(
		browser.Cookie{Name: "a", Value: "1"},
		browser.Cookie{Name: "b", Value: "2"},
	)
	s := newTestSession(t, fake)

	first, err := s.HTTPClient(context.Background())
	require.NoError(t, err)
	second, err := s.HTTPClient(context.Background())
	require.NoError(t, err)

	const target = "https://mobile.twitter.com/"
	assert.Equal(t, jarPairs(t, first, target), jarPairs(t, second, target))
	assert.NotSame(t, first.Jar, second.Jar)

	fake.AddCookies(browser.Cookie{Name: "c", Value: "3"})
	assert.NotContains(t, jarPairs(t, first, target), "c")
}

type stubSearcher struct {
	calls []string
}

func (s *stubSearcher) Search(_ context.Context, query string, count int) ([]types.Tweet, error) {
	s.calls = append(s.calls, query)
	out := make([]types.Tweet, 0, count)
	for i := 0; i < count && i < 3; i++ {
		out = append(out, types.Tweet{ID: query, Query: query})
	}
	return out, nil
}

func TestSearchBuildsSearcherOnce(t *testing.T) {
	t.Parallel()

	stub := &stubSearcher{}
	built := 0
	var bridged *http.Client
	factory := func(client *http.Client, mobile *url.URL) Searcher {
		built++
		bridged = client
		assert.Equal(t, "https://mobile.twitter.com", mobile.String())
		return stub
	}

	s, fake := newAuthedSession(t, WithSearcherFactory(factory))
	fake.AddCookies(browser.Cookie{Name: "auth_token", Value: "tok"})

	tweets, err := s.Search(context.Background(), "go lang", 0)
	require.NoError(t, err)
	assert.Len(t, tweets, 3)

	_, err = s.Search(context.Background(), "rust", 1)
	require.NoError(t, err)

	assert.Equal(t, 1, built)
	assert.Equal(t, []string{"go lang", "rust"}, stub.calls)
	assert.Equal(t, []string{"https://mobile.twitter.com/search?q=go+lang"}, fake.Navigations)
	assert.Equal(t, map[string]string{"auth_token": "tok"}, jarPairs(t, bridged, "https://mobile.twitter.com/"))
}
