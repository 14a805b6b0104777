package session

import (
	"context"
	"net/http"
	"net/url"

	"github.com/twium/twium/internal/search"
	"github.com/twium/twium/internal/types"
)

// DefaultSearchCount is used when Search is called with a count <= 0.
const DefaultSearchCount = 200

// Searcher runs searches over a bridged HTTP client.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]types.Tweet, error)
}

// SearcherFactory builds a Searcher from a bridged client. mobile is the
// mobile origin of the site.
type SearcherFactory func(client *http.Client, mobile *url.URL) Searcher

// DefaultSearcherFactory builds a search.Client.
func DefaultSearcherFactory(client *http.Client, mobile *url.URL) Searcher {
	return search.New(client, search.Options{BaseURL: mobile.String()})
}

// Search returns up to count tweets matching query. The first call loads
// the mobile search page, bridges the browser's cookies and builds the
// Searcher; later calls reuse it without refreshing cookies.
func (s *Session) Search(ctx context.Context, query string, count int) ([]types.Tweet, error) {
	if err := s.requireAuth(); err != nil {
		return nil, err
	}
	if count <= 0 {
		count = DefaultSearchCount
	}

	if s.searcher == nil {
		q := url.Values{}
		q.Set("q", query)
		if err := s.get(ctx, "/search?"+q.Encode(), true); err != nil {
			return nil, err
		}

		client, err := Bridge(ctx, s.remote, s.base, s.mobile)
		if err != nil {
			return nil, err
		}
		s.searcher = s.newSearcher(client, s.mobile)
		s.logger.Debug("search session created")
	}

	return s.searcher.Search(ctx, query, count)
}
