package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/browser"
	"github.com/twium/twium/internal/browser/browsertest"
)

func TestWaitURLEquals(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	go func() {
		time.Sleep(5 * time.Millisecond)
		fake.SetLocation("https://example.com/done")
	}()

	err := Wait(context.Background(), fake, URLEquals("https://example.com/done"), time.Second)
	require.NoError(t, err)
}

func TestWaitTimeout(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	err := Wait(context.Background(), fake, URLEquals("https://example.com/never"), 20*time.Millisecond)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.ErrorContains(t, err, "url to equal https://example.com/never")
}

func TestWaitVisibleTimeout(t *testing.T) {
	t.Parallel()

	err := Wait(context.Background(), browsertest.New(), Visible(FollowForm), 20*time.Millisecond)
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "form.follow to be visible", te.Condition)
}

func TestWaitPropagatesPredicateError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	cond := Predicate("anything", func(context.Context, browser.Remote) (bool, error) {
		return false, boom
	})

	err := Wait(context.Background(), browsertest.New(), cond, time.Second)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWaitParentCancellationIsNotTimeout(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Wait(ctx, browsertest.New(), Visible(FollowForm), time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTimeout)
}

func TestWaitDefaultsTimeout(t *testing.T) {
	t.Parallel()

	fake := browsertest.New().Show(string(RetweetForm))
	require.NoError(t, Wait(context.Background(), fake, Visible(RetweetForm), 0))
}

func TestWaitRejectsEmptyCondition(t *testing.T) {
	t.Parallel()

	var err error
	require.NotPanics(t, func() {
		err = Wait(context.Background(), browsertest.New(), Condition{}, 0)
	})
	assert.ErrorIs(t, err, ErrEmptyCondition)
}
