package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/auth"
	"github.com/twium/twium/internal/browser"
	"github.com/twium/twium/internal/browser/browsertest"
)

// loggedInRoute sends the mobile root to home only for browsers holding an
// auth_token cookie.
func loggedInRoute(url string, cookies []browser.Cookie) string {
	if url != mobileRoot {
		return url
	}
	for _, c := range cookies {
		if c.Name == "auth_token" && c.Value != "" {
			return mobileHome
		}
	}
	return "https://mobile.twitter.com/login"
}

func showLoginForm(fake *browsertest.Fake) *browsertest.Fake {
	return fake.Show(string(LoginUsername), string(LoginPassword), string(LoginButton))
}

func TestAuthenticateWithCredentials(t *testing.T) {
	t.Parallel()

	fake := showLoginForm(browsertest.New()).Redirect(mobileRoot, mobileHome)
	s := newTestSession(t, fake)

	require.NoError(t, s.Authenticate(context.Background(), "alice", "s3cret"))

	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, Authenticated, s.State())
	assert.Equal(t, []string{"https://mobile.twitter.com/login", mobileRoot}, fake.Navigations)
	assert.Equal(t, []browser.Command{
		{Selector: string(LoginUsername), Verb: browser.VerbType, Value: "alice"},
		{Selector: string(LoginPassword), Verb: browser.VerbType, Value: "s3cret"},
		{Selector: string(LoginButton), Verb: browser.VerbClick},
	}, fake.Commands)
}

func TestAuthenticateFailsWhenHomeNeverLoads(t *testing.T) {
	t.Parallel()

	fake := showLoginForm(browsertest.New())
	s := newTestSession(t, fake)

	err := s.Authenticate(context.Background(), "alice", "wrong")
	require.Error(t, err)

	var ae *AuthenticationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, MethodCredentials, ae.Method)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorIs(t, err, ErrTimeout)

	assert.False(t, s.IsAuthenticated())
	assert.Equal(t, Failed, s.State())
}

func TestAuthenticateTimesOutWaitingForLoginForm(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	s := newTestSession(t, fake)

	err := s.Authenticate(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Empty(t, fake.Commands)
	assert.Equal(t, Failed, s.State())
}

func TestAuthenticateNavigationError(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.NavigateErr = errors.New("net::ERR_NAME_NOT_RESOLVED")
	s := newTestSession(t, fake)

	err := s.Authenticate(context.Background(), "alice", "s3cret")
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorContains(t, err, "ERR_NAME_NOT_RESOLVED")
	assert.NotErrorIs(t, err, ErrTimeout)
}

func writeCookieFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestAuthenticateFromCookiesNormalizesExpiry(t *testing.T) {
	t.Parallel()

	path := writeCookieFile(t, `{"cookies": [
		{"name": "auth_token", "value": "tok", "domain": ".twitter.com", "path": "/", "expiry": 1893456000.9},
		{"name": "ct0", "value": "csrf", "domain": ".twitter.com", "path": "/"}
	]}`)

	fake := browsertest.New()
	fake.Route = loggedInRoute
	s := newTestSession(t, fake)

	require.NoError(t, s.AuthenticateFromCookies(context.Background(), path))
	assert.True(t, s.IsAuthenticated())

	require.Len(t, fake.Injected, 2)
	assert.Equal(t, int64(1893456000), fake.Injected[0].Expiry)
	assert.Zero(t, fake.Injected[1].Expiry)

	// Cookies are injected after the site has been opened, then verified.
	assert.Equal(t, []string{mobileRoot, mobileRoot}, fake.Navigations)
}

func TestAuthenticateFromCookiesVerifiesAfterPartialInjection(t *testing.T) {
	t.Parallel()

	path := writeCookieFile(t, `{"cookies": [
		{"name": "auth_token", "value": "tok", "domain": ".twitter.com"},
		{"name": "bad", "value": "x", "domain": "invalid..domain"}
	]}`)

	fake := browsertest.New()
	fake.Route = loggedInRoute
	fake.SetCookieErr = map[string]error{"bad": errors.New("invalid domain")}
	s := newTestSession(t, fake)

	require.NoError(t, s.AuthenticateFromCookies(context.Background(), path))
	require.Len(t, fake.Injected, 1)
	assert.Equal(t, "auth_token", fake.Injected[0].Name)
}

func TestAuthenticateFromCookiesFailsWithoutSession(t *testing.T) {
	t.Parallel()

	path := writeCookieFile(t, `{"cookies": [{"name": "guest_id", "value": "1", "domain": ".twitter.com"}]}`)

	fake := browsertest.New()
	fake.Route = loggedInRoute
	s := newTestSession(t, fake)

	err := s.AuthenticateFromCookies(context.Background(), path)

	var ae *AuthenticationError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, MethodCookies, ae.Method)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Equal(t, Failed, s.State())
	assert.Len(t, fake.Injected, 1)
}

func TestAuthenticateFromCookiesMissingFile(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	s := newTestSession(t, fake)

	err := s.AuthenticateFromCookies(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, fake.Injected)
}

func TestAuthenticateFromEmptyCookieFileStillVerifies(t *testing.T) {
	t.Parallel()

	path := writeCookieFile(t, `{"cookies": []}`)

	t.Run("logged in", func(t *testing.T) {
		fake := browsertest.New().Redirect(mobileRoot, mobileHome)
		s := newTestSession(t, fake)

		require.NoError(t, s.AuthenticateFromCookies(context.Background(), path))
		assert.True(t, s.IsAuthenticated())
		assert.Equal(t, []string{mobileRoot, mobileRoot}, fake.Navigations)
		assert.Empty(t, fake.Injected)
	})

	t.Run("logged out", func(t *testing.T) {
		fake := browsertest.New()
		fake.Route = loggedInRoute
		s := newTestSession(t, fake)

		err := s.AuthenticateFromCookies(context.Background(), path)
		assert.ErrorIs(t, err, ErrAuthentication)
		assert.ErrorIs(t, err, ErrTimeout)
		assert.Equal(t, Failed, s.State())
	})
}

func TestCookieRoundTripAuthenticatesFreshSession(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.json")

	first := browsertest.New().AddCookies(
		browser.Cookie{Name: "auth_token", Value: "tok", Domain: ".twitter.com", Path: "/", Expiry: 1893456000, Secure: true, HTTPOnly: true},
		browser.Cookie{Name: "ct0", Value: "csrf", Domain: ".twitter.com", Path: "/"},
	)
	first.Route = loggedInRoute
	s1 := newTestSession(t, first)
	require.True(t, s1.Verify(context.Background()))
	require.NoError(t, s1.SaveCookies(context.Background(), path))
	require.NoError(t, s1.Close())

	second := browsertest.New()
	second.Route = loggedInRoute
	s2 := newTestSession(t, second)
	require.False(t, s2.Verify(context.Background()))

	require.NoError(t, s2.AuthenticateFromCookies(context.Background(), path))
	assert.True(t, s2.IsAuthenticated())

	got, err := second.Cookies(context.Background())
	require.NoError(t, err)
	want, err := first.Cookies(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestVerifyTransitions(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	s := newTestSession(t, fake)

	assert.False(t, s.Verify(context.Background()))
	assert.Equal(t, Failed, s.State())

	fake.Redirect(mobileRoot, mobileHome)
	assert.True(t, s.Verify(context.Background()))
	assert.Equal(t, Authenticated, s.State())
}

func TestAuthenticateManually(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.Route = func(url string, cookies []browser.Cookie) string {
		if url == "https://mobile.twitter.com/login" {
			go func() {
				time.Sleep(10 * time.Millisecond)
				fake.AddCookies(browser.Cookie{Name: "auth_token", Value: "tok", Domain: ".twitter.com"})
				fake.SetLocation("https://twitter.com/home")
			}()
		}
		return loggedInRoute(url, cookies)
	}
	s := newTestSession(t, fake)

	require.NoError(t, s.AuthenticateManually(context.Background(), time.Second))
	assert.True(t, s.IsAuthenticated())
	assert.Equal(t, []string{"https://mobile.twitter.com/login", mobileRoot}, fake.Navigations)
}

func TestAuthenticateManuallyTimesOut(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.Route = loggedInRoute
	s := newTestSession(t, fake)

	err := s.AuthenticateManually(context.Background(), 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrAuthentication)
	assert.ErrorIs(t, err, auth.ErrLoginTimeout)
	assert.Equal(t, Failed, s.State())
}
