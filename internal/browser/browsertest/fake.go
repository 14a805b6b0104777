// Package browsertest provides an in-memory browser.Remote for tests.
package browsertest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/twium/twium/internal/browser"
)

// Fake is a scriptable browser.Remote. Navigations set the location, with
// optional redirects; selectors are visible only once registered; commands
// can trigger hooks that change page state.
type Fake struct {
	mu sync.Mutex

	location  string
	redirects map[string]string
	visible   map[string]bool
	hooks     map[browser.Command]func(*Fake)
	cookies   []browser.Cookie

	// Route, when set, decides where a navigation lands given the cookies
	// the browser holds. It takes precedence over Redirect.
	Route func(url string, cookies []browser.Cookie) string
	// NavigateErr, when set, is returned by every Navigate call.
	NavigateErr error
	// SetCookieErr, when set, is returned for cookies with a matching name.
	SetCookieErr map[string]error

	Navigations []string
	Commands    []browser.Command
	Injected    []browser.Cookie
	closed      int
}

var _ browser.Remote = (*Fake)(nil)

// New returns an empty Fake at about:blank.
func New() *Fake {
	return &Fake{
		location:  "about:blank",
		redirects: make(map[string]string),
		visible:   make(map[string]bool),
		hooks:     make(map[browser.Command]func(*Fake)),
	}
}

// Redirect makes a navigation to from land on to.
func (f *Fake) Redirect(from, to string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.redirects[from] = to
	return f
}

// Show marks selectors as visible.
func (f *Fake) Show(selectors ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range selectors {
		f.visible[s] = true
	}
	return f
}

// On registers fn to run after cmd is performed.
func (f *Fake) On(cmd browser.Command, fn func(*Fake)) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hooks[cmd] = fn
	return f
}

// SetLocation moves the page without recording a navigation.
func (f *Fake) SetLocation(url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.location = url
}

// AddCookies seeds the browser's cookie store.
func (f *Fake) AddCookies(cookies ...browser.Cookie) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cookies = append(f.cookies, cookies...)
	return f
}

// Closed reports how many times Close was called.
func (f *Fake) Closed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	f.Navigations = append(f.Navigations, url)
	if f.Route != nil {
		f.location = f.Route(url, f.cookies)
	} else if to, ok := f.redirects[url]; ok {
		f.location = to
	} else {
		f.location = url
	}
	return nil
}

func (f *Fake) Location(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.location, nil
}

func (f *Fake) WaitVisible(ctx context.Context, selector string) error {
	return f.Poll(ctx, func(context.Context) (bool, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.visible[selector], nil
	})
}

func (f *Fake) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	for {
		ok, err := check(ctx)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Millisecond):
		}
	}
}

func (f *Fake) Perform(ctx context.Context, cmd browser.Command) error {
	f.mu.Lock()
	if !f.visible[cmd.Selector] {
		f.mu.Unlock()
		return errors.New("browsertest: no visible node for " + cmd.Selector)
	}
	f.Commands = append(f.Commands, cmd)
	hook := f.hooks[cmd]
	f.mu.Unlock()

	if hook != nil {
		hook(f)
	}
	return nil
}

func (f *Fake) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]browser.Cookie, len(f.cookies))
	copy(out, f.cookies)
	return out, nil
}

func (f *Fake) SetCookie(ctx context.Context, c browser.Cookie) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.SetCookieErr[c.Name]; err != nil {
		return err
	}
	f.Injected = append(f.Injected, c)
	f.cookies = append(f.cookies, c)
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}
