package session

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"golang.org/x/net/publicsuffix"

	"github.com/twium/twium/internal/browser"
)

// Bridge copies the name and value of every cookie r holds into a new
// cookie jar scoped to origins, and returns an HTTP client using it. Other
// cookie attributes are dropped. The client is a snapshot; later browser
// changes are not reflected.
func Bridge(ctx context.Context, r browser.Remote, origins ...*url.URL) (*http.Client, error) {
	cookies, err := r.Cookies(ctx)
	if err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	pairs := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, &http.Cookie{Name: c.Name, Value: c.Value})
	}
	for _, origin := range origins {
		jar.SetCookies(origin, pairs)
	}

	return &http.Client{Jar: jar}, nil
}

// HTTPClient bridges the browser's cookies into a plain HTTP client for
// both site origins.
func (s *Session) HTTPClient(ctx context.Context) (*http.Client, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	return Bridge(ctx, s.remote, s.base, s.mobile)
}
