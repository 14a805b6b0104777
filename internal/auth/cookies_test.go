package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twium/twium/internal/browser"
)

func TestSaveAndLoadCookieFileRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "cookies.json")
	in := []browser.Cookie{
		{Name: "auth_token", Value: "tok", Domain: ".twitter.com", Path: "/", Expiry: 1893456000, Secure: true, HTTPOnly: true},
		{Name: "lang", Value: "en", Domain: "mobile.twitter.com", Path: "/"},
	}

	require.NoError(t, SaveCookieFile(path, in))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	out, err := LoadCookieFile(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestLoadCookieFileTruncatesFractionalExpiry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.json")
	raw := `{"cookies": [
		{"name": "ct0", "value": "abc", "domain": ".twitter.com", "expiry": 1700000000.75},
		{"name": "guest", "value": "1"}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0600))

	cookies, err := LoadCookieFile(path)
	require.NoError(t, err)
	require.Len(t, cookies, 2)

	assert.Equal(t, int64(1700000000), cookies[0].Expiry)
	assert.Zero(t, cookies[1].Expiry)
}

func TestLoadCookieFileErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testCases := []struct {
		name    string
		content string
		wantErr error
		errText string
	}{
		{name: "empty list", content: `{"cookies": []}`, wantErr: ErrNoCookies},
		{name: "missing key", content: `{}`, wantErr: ErrNoCookies},
		{name: "invalid json", content: `{"cookies":`, errText: "failed to parse cookie file"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.name+".json")
			require.NoError(t, os.WriteFile(path, []byte(tc.content), 0600))

			_, err := LoadCookieFile(path)
			require.Error(t, err)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			}
			if tc.errText != "" {
				assert.ErrorContains(t, err, tc.errText)
			}
		})
	}
}

func TestClearIsIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, SaveCookieFile(path, []browser.Cookie{{Name: "a", Value: "1"}}))
	assert.True(t, Exists(path))

	require.NoError(t, Clear(path))
	require.NoError(t, Clear(path))
	assert.False(t, Exists(path))
}
