package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twium/twium/internal/browser"
)

// SessionCookie is set by the site once a browser is logged in.
const SessionCookie = "auth_token"

// DefaultManualLoginTimeout gives a person time to log in by hand
const DefaultManualLoginTimeout = 5 * time.Minute

// ErrLoginTimeout is returned when nobody completed a manual login in time.
var ErrLoginTimeout = errors.New("login timeout exceeded")

// HasSession reports whether cookies carry a non-empty session cookie.
func HasSession(cookies []browser.Cookie) bool {
	for _, c := range cookies {
		if c.Name == SessionCookie && c.Value != "" {
			return true
		}
	}
	return false
}

// WaitForManualLogin polls a visible browser until the person at the
// keyboard has logged in: the page sits on one of homes and the browser
// holds a session cookie. It returns the cookies at that moment.
func WaitForManualLogin(ctx context.Context, r browser.Remote, homes []string, timeout time.Duration) ([]browser.Cookie, error) {
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var cookies []browser.Cookie
	err := r.Poll(waitCtx, func(ctx context.Context) (bool, error) {
		loc, err := r.Location(ctx)
		if err != nil {
			return false, nil
		}
		if !contains(homes, loc) {
			return false, nil
		}
		// Additional check: the session cookie must exist
		cs, err := r.Cookies(ctx)
		if err != nil || !HasSession(cs) {
			return false, nil
		}
		cookies = cs
		return true, nil
	})
	if err != nil {
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrLoginTimeout
		}
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return cookies, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
