// Package session drives an authenticated browser session against the
// site: it logs in by credentials or cookie replay, performs intent-page
// actions through the browser, and bridges the browser's cookies into a
// plain HTTP client for search.
//
// A Session owns one browser and is not safe for concurrent use. Run
// independent Sessions to work in parallel.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/twium/twium/internal/browser"
)

// DefaultTimeout bounds every wait when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// Site holds the desktop and mobile origins of the target site.
type Site struct {
	BaseURL   string
	MobileURL string
}

// DefaultSite is the production site.
var DefaultSite = Site{
	BaseURL:   "https://twitter.com",
	MobileURL: "https://mobile.twitter.com",
}

// State is the authentication state of a Session.
type State int

const (
	Unauthenticated State = iota
	Authenticating
	Authenticated
	Failed
)

func (st State) String() string {
	switch st {
	case Unauthenticated:
		return "unauthenticated"
	case Authenticating:
		return "authenticating"
	case Authenticated:
		return "authenticated"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(st))
	}
}

// Session is one browser and its authentication state.
type Session struct {
	remote  browser.Remote
	base    *url.URL
	mobile  *url.URL
	timeout time.Duration
	logger  *slog.Logger

	state State

	newSearcher SearcherFactory
	searcher    Searcher

	closed bool
}

type options struct {
	site        Site
	timeout     time.Duration
	logger      *slog.Logger
	newSearcher SearcherFactory
	launch      Launcher
}

// Launcher starts the browser a Session opened with Open will own.
type Launcher func(ctx context.Context, lo browser.LaunchOptions, logger *slog.Logger) (browser.Remote, error)

// LaunchChrome is the default Launcher.
func LaunchChrome(ctx context.Context, lo browser.LaunchOptions, logger *slog.Logger) (browser.Remote, error) {
	c, err := browser.Launch(ctx, lo, logger)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Option configures a Session.
type Option func(*options)

// WithTimeout sets the bound applied to every wait.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithSite points the Session at other origins.
func WithSite(site Site) Option {
	return func(o *options) { o.site = site }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithLauncher replaces how Open starts the browser.
func WithLauncher(l Launcher) Option {
	return func(o *options) { o.launch = l }
}

// WithSearcherFactory replaces the search collaborator built on first search.
func WithSearcherFactory(f SearcherFactory) Option {
	return func(o *options) { o.newSearcher = f }
}

// New wraps an already launched remote browser. The Session takes
// ownership of remote and closes it on Close.
func New(remote browser.Remote, opts ...Option) (*Session, error) {
	o := options{
		site:        DefaultSite,
		timeout:     DefaultTimeout,
		newSearcher: DefaultSearcherFactory,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = DefaultTimeout
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	base, err := parseOrigin(o.site.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	mobile, err := parseOrigin(o.site.MobileURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mobile url: %w", err)
	}

	return &Session{
		remote:      remote,
		base:        base,
		mobile:      mobile,
		timeout:     o.timeout,
		logger:      o.logger.With("component", "session"),
		state:       Unauthenticated,
		newSearcher: o.newSearcher,
	}, nil
}

// Open launches a browser and returns a Session owning it. The browser is
// closed again if the Session cannot be built.
func Open(ctx context.Context, lo browser.LaunchOptions, opts ...Option) (*Session, error) {
	o := options{launch: LaunchChrome}
	for _, opt := range opts {
		opt(&o)
	}

	remote, err := o.launch(ctx, lo, o.logger)
	if err != nil {
		return nil, err
	}

	s, err := New(remote, opts...)
	if err != nil {
		remote.Close()
		return nil, err
	}
	return s, nil
}

// With opens a Session, runs fn, and closes the Session on every path.
func With(ctx context.Context, lo browser.LaunchOptions, fn func(*Session) error, opts ...Option) (err error) {
	s, err := Open(ctx, lo, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := s.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
	}()
	return fn(s)
}

// Close releases the browser. Further calls are no-ops.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.searcher = nil
	return s.remote.Close()
}

// State returns the current authentication state.
func (s *Session) State() State { return s.state }

// IsAuthenticated reports whether the last verification succeeded.
func (s *Session) IsAuthenticated() bool { return s.state == Authenticated }

// Timeout returns the bound applied to every wait.
func (s *Session) Timeout() time.Duration { return s.timeout }

func (s *Session) checkOpen() error {
	if s.closed {
		return ErrClosed
	}
	return nil
}

func (s *Session) requireAuth() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.state != Authenticated {
		return fmt.Errorf("%w: session is %s", ErrNotAuthenticated, s.state)
	}
	return nil
}

// get navigates to path (which may carry a query) on the desktop or mobile
// origin.
func (s *Session) get(ctx context.Context, path string, mobile bool) error {
	target := s.urlFor(path, mobile)
	s.logger.Debug("navigate", "url", target)
	if err := s.remote.Navigate(ctx, target); err != nil {
		return fmt.Errorf("failed to navigate to %s: %w", target, err)
	}
	return nil
}

func (s *Session) urlFor(path string, mobile bool) string {
	origin := s.base
	if mobile {
		origin = s.mobile
	}
	return strings.TrimSuffix(origin.String(), "/") + path
}

func parseOrigin(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%q is not an absolute url", raw)
	}
	return u, nil
}
