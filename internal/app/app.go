package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/twium/twium/internal/auth"
	"github.com/twium/twium/internal/browser"
	"github.com/twium/twium/internal/config"
	"github.com/twium/twium/internal/search"
	"github.com/twium/twium/internal/session"
	"github.com/twium/twium/internal/store"
	"github.com/twium/twium/internal/types"
)

// Opener launches a fresh, unauthenticated Session.
type Opener func(ctx context.Context) (*session.Session, error)

// App holds the application state. Each account gets its own Session;
// Sessions are never shared between goroutines.
type App struct {
	config *config.Config // immutable after creation
	store  *store.Store   // nil disables history
	open   Opener
	logger *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithOpener replaces how sessions are launched.
func WithOpener(o Opener) Option {
	return func(a *App) { a.open = o }
}

// WithStore records actions and search results in st.
func WithStore(st *store.Store) Option {
	return func(a *App) { a.store = st }
}

func WithLogger(l *slog.Logger) Option {
	return func(a *App) { a.logger = l }
}

// New creates a new App instance.
func New(cfg *config.Config, opts ...Option) *App {
	a := &App{config: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(a)
	}
	if a.open == nil {
		a.open = ChromeOpener(cfg, a.logger)
	}
	return a
}

// ChromeOpener launches Chrome with the configured browser and site settings.
func ChromeOpener(cfg *config.Config, logger *slog.Logger) Opener {
	return func(ctx context.Context) (*session.Session, error) {
		lo := browser.LaunchOptions{
			Headless:  cfg.Browser.Headless,
			Debug:     cfg.Browser.Debug,
			UserAgent: cfg.Browser.UserAgent,
			ExecPath:  cfg.Browser.ExecPath,
		}
		return session.Open(ctx, lo,
			session.WithTimeout(cfg.Browser.Timeout()),
			session.WithSite(session.Site{BaseURL: cfg.Site.BaseURL, MobileURL: cfg.Site.MobileURL}),
			session.WithLogger(logger),
			session.WithSearcherFactory(searcherFactory(cfg, logger)),
		)
	}
}

func searcherFactory(cfg *config.Config, logger *slog.Logger) session.SearcherFactory {
	return func(client *http.Client, mobile *url.URL) session.Searcher {
		return search.New(client, search.Options{
			BaseURL:           mobile.String(),
			RequestsPerSecond: cfg.Search.RequestsPerSecond,
			Logger:            logger,
		})
	}
}

// Config returns the configuration the App was built with.
func (a *App) Config() *config.Config { return a.config }

// Login authenticates s as acct. A saved cookie file is replayed first;
// when it is missing or no longer valid, the account's credentials are
// used and the resulting cookies saved for next time.
func (a *App) Login(ctx context.Context, s *session.Session, acct config.AccountConfig) error {
	cookiePath, err := config.CookiePath(acct)
	if err != nil {
		return err
	}

	if auth.Exists(cookiePath) {
		err := s.AuthenticateFromCookies(ctx, cookiePath)
		if err == nil {
			return nil
		}
		a.logger.Warn("cookie login failed, trying credentials", "account", acct.Name, "error", err)
	}

	password, err := lookupPassword(acct)
	if err != nil {
		return err
	}
	if err := s.Authenticate(ctx, acct.Username, password); err != nil {
		return err
	}

	if err := s.SaveCookies(ctx, cookiePath); err != nil {
		a.logger.Warn("could not save cookies", "account", acct.Name, "error", err)
	}
	return nil
}

// LoginManually opens a session for the named account and waits for a
// person to log in by hand, then saves the cookies for later runs. The
// configured browser must not be headless.
func (a *App) LoginManually(ctx context.Context, name string) error {
	acct, err := a.config.Account(name)
	if err != nil {
		return err
	}
	cookiePath, err := config.CookiePath(acct)
	if err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("account %s: %w", acct.Name, err)
	}
	defer s.Close()

	if err := s.AuthenticateManually(ctx, auth.DefaultManualLoginTimeout); err != nil {
		return fmt.Errorf("account %s: %w", acct.Name, err)
	}
	return s.SaveCookies(ctx, cookiePath)
}

func lookupPassword(acct config.AccountConfig) (string, error) {
	if acct.PasswordEnv == "" {
		return "", fmt.Errorf("account %s: no cookie file and no password_env configured", acct.Name)
	}
	password, ok := os.LookupEnv(acct.PasswordEnv)
	if !ok || password == "" {
		return "", fmt.Errorf("account %s: environment variable %s is not set", acct.Name, acct.PasswordEnv)
	}
	return password, nil
}

// WithAccount opens a session, logs in as the named account, runs fn and
// closes the session on every path.
func (a *App) WithAccount(ctx context.Context, name string, fn func(acct config.AccountConfig, s *session.Session) error) error {
	acct, err := a.config.Account(name)
	if err != nil {
		return err
	}

	s, err := a.open(ctx)
	if err != nil {
		return fmt.Errorf("account %s: %w", acct.Name, err)
	}
	defer func() {
		if cerr := s.Close(); cerr != nil {
			a.logger.Warn("failed to close browser", "account", acct.Name, "error", cerr)
		}
	}()

	if err := a.Login(ctx, s, acct); err != nil {
		return fmt.Errorf("account %s: %w", acct.Name, err)
	}
	return fn(acct, s)
}

// ForAccounts runs fn for each named account (every account when names is
// empty), each in its own goroutine with its own Session, at most
// concurrency.max_sessions at a time. All accounts run even if some fail;
// the errors are joined.
func (a *App) ForAccounts(ctx context.Context, names []string, fn func(ctx context.Context, acct config.AccountConfig, s *session.Session) error) error {
	if len(names) == 0 {
		for _, acct := range a.config.Accounts {
			names = append(names, acct.Name)
		}
	}
	if len(names) == 0 {
		return errors.New("no accounts configured")
	}

	limit := a.config.Concurrency.MaxSessions
	if limit <= 0 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	errs := make([]error, len(names))
	for i, name := range names {
		g.Go(func() error {
			errs[i] = a.WithAccount(ctx, name, func(acct config.AccountConfig, s *session.Session) error {
				return fn(ctx, acct, s)
			})
			return nil
		})
	}
	g.Wait()

	return errors.Join(errs...)
}

// Request is one action to perform on a session.
type Request struct {
	Kind      types.ActionKind
	Text      string
	TweetID   int64
	InReplyTo int64
	User      session.UserRef
	Query     string
	Count     int
}

func (r Request) target() string {
	switch r.Kind {
	case types.ActionTweet, types.ActionReply:
		return r.Text
	case types.ActionFollow, types.ActionUnfollow:
		return r.User.String()
	case types.ActionSearch:
		return r.Query
	default:
		return strconv.FormatInt(r.TweetID, 10)
	}
}

// Result is the outcome of a Request.
type Result struct {
	Action  types.Action
	TweetID int64         // set by tweet and reply
	Tweets  []types.Tweet // set by search
}

// Perform runs req on s and records it in the history store.
func (a *App) Perform(ctx context.Context, account string, s *session.Session, req Request) (Result, error) {
	res := Result{Action: types.Action{Account: account, Kind: req.Kind, Target: req.target()}}

	var err error
	switch req.Kind {
	case types.ActionTweet:
		res.TweetID, err = s.Tweet(ctx, req.Text)
	case types.ActionReply:
		res.TweetID, err = s.Reply(ctx, req.Text, req.InReplyTo)
	case types.ActionDelete:
		err = s.DeleteTweet(ctx, req.TweetID)
	case types.ActionFollow:
		err = s.Follow(ctx, req.User)
	case types.ActionUnfollow:
		err = s.Unfollow(ctx, req.User)
	case types.ActionFavorite:
		err = s.Favorite(ctx, req.TweetID)
	case types.ActionRetweet:
		err = s.Retweet(ctx, req.TweetID)
	case types.ActionSearch:
		count := req.Count
		if count <= 0 {
			count = a.config.Search.DefaultCount
		}
		res.Tweets, err = s.Search(ctx, req.Query, count)
	default:
		return res, fmt.Errorf("unknown action %q", req.Kind)
	}

	switch {
	case err != nil:
		res.Action.Error = err.Error()
	case res.TweetID != 0:
		res.Action.Result = strconv.FormatInt(res.TweetID, 10)
	case req.Kind == types.ActionSearch:
		res.Action.Result = strconv.Itoa(len(res.Tweets))
	}

	a.record(ctx, &res)
	return res, err
}

func (a *App) record(ctx context.Context, res *Result) {
	if a.store == nil {
		return
	}
	// History must be written even when the action's context expired.
	ctx = context.WithoutCancel(ctx)

	if err := a.store.RecordAction(ctx, &res.Action); err != nil {
		a.logger.Warn("failed to record action", "kind", res.Action.Kind, "error", err)
	}
	if len(res.Tweets) > 0 {
		if err := a.store.SaveTweets(ctx, res.Tweets); err != nil {
			a.logger.Warn("failed to save search results", "query", res.Action.Target, "error", err)
		}
	}
}

// History returns the most recent recorded actions.
func (a *App) History(ctx context.Context, account string, limit int) ([]types.Action, error) {
	if a.store == nil {
		return nil, errors.New("history store is not configured")
	}
	return a.store.RecentActions(ctx, account, limit)
}

// SavedTweet returns a tweet stored by an earlier search.
func (a *App) SavedTweet(ctx context.Context, id string) (types.Tweet, error) {
	if a.store == nil {
		return types.Tweet{}, errors.New("history store is not configured")
	}
	return a.store.GetTweet(ctx, id)
}
