package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := New(filepath.Join(t.TempDir(), "db", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordActionFillsDefaults(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	a := &types.Action{Account: "main", Kind: types.ActionTweet, Target: "hello", Result: "42"}
	require.NoError(t, s.RecordAction(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	got, err := s.RecentActions(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, types.ActionTweet, got[0].Kind)
	assert.Equal(t, "42", got[0].Result)
	assert.False(t, got[0].Failed())
	assert.WithinDuration(t, a.CreatedAt, got[0].CreatedAt, time.Second)
}

func TestRecentActionsOrderingAndFilter(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	for i, acct := range []string{"main", "alt", "main"} {
		require.NoError(t, s.RecordAction(ctx, &types.Action{
			Account:   acct,
			Kind:      types.ActionFavorite,
			Target:    "1",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, s.RecordAction(ctx, &types.Action{
		Account:   "alt",
		Kind:      types.ActionFollow,
		Target:    "@bob",
		Error:     "timed out",
		CreatedAt: base.Add(time.Hour),
	}))

	all, err := s.RecentActions(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, types.ActionFollow, all[0].Kind)
	assert.True(t, all[0].Failed())

	mains, err := s.RecentActions(ctx, "main", 10)
	require.NoError(t, err)
	require.Len(t, mains, 2)
	assert.True(t, mains[0].CreatedAt.After(mains[1].CreatedAt))

	limited, err := s.RecentActions(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSaveTweetsUpserts(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	tweets := []types.Tweet{
		{ID: "1", AuthorHandle: "a", Content: "first", Query: "go", FetchedAt: now},
		{ID: "2", AuthorHandle: "b", Content: "second", Query: "go", FetchedAt: now},
	}
	require.NoError(t, s.SaveTweets(ctx, tweets))

	tweets[0].Content = "edited"
	require.NoError(t, s.SaveTweets(ctx, tweets[:1]))

	got, err := s.GetTweet(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "edited", got.Content)
	assert.Equal(t, "a", got.AuthorHandle)

	got, err = s.GetTweet(ctx, "2")
	require.NoError(t, err)
	assert.Equal(t, "second", got.Content)

	_, err = s.GetTweet(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
