package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/browser"
	"github.com/twium/twium/internal/browser/browsertest"
)

var homes = []string{"https://twitter.com/home", "https://mobile.twitter.com/home"}

func TestHasSession(t *testing.T) {
	t.Parallel()

	assert.False(t, HasSession(nil))
	assert.False(t, HasSession([]browser.Cookie{{Name: SessionCookie}}))
	assert.True(t, HasSession([]browser.Cookie{{Name: "ct0", Value: "x"}, {Name: SessionCookie, Value: "tok"}}))
}

func TestWaitForManualLogin(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.SetLocation("https://mobile.twitter.com/login")

	go func() {
		time.Sleep(10 * time.Millisecond)
		// Home without a session cookie is not enough.
		fake.SetLocation("https://mobile.twitter.com/home")
		time.Sleep(10 * time.Millisecond)
		fake.AddCookies(browser.Cookie{Name: SessionCookie, Value: "tok", Domain: ".twitter.com"})
	}()

	cookies, err := WaitForManualLogin(context.Background(), fake, homes, time.Second)
	require.NoError(t, err)
	assert.True(t, HasSession(cookies))
}

func TestWaitForManualLoginTimeout(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.SetLocation("https://mobile.twitter.com/login")

	_, err := WaitForManualLogin(context.Background(), fake, homes, 20*time.Millisecond)
	assert.ErrorIs(t, err, ErrLoginTimeout)
}

func TestWaitForManualLoginCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WaitForManualLogin(ctx, browsertest.New(), homes, time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrLoginTimeout)
	assert.ErrorIs(t, err, context.Canceled)
}
