package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// pollInterval is the cadence of Chrome.Poll.
const pollInterval = 100 * time.Millisecond

// Chrome is a Remote backed by a chromedp-controlled Chrome instance.
type Chrome struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	logger      *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ Remote = (*Chrome)(nil)

// Launch starts a browser and opens its first tab. The browser lives until
// Close is called; ctx only bounds the launch itself.
func Launch(ctx context.Context, lo LaunchOptions, logger *slog.Logger) (*Chrome, error) {
	if logger == nil {
		logger = slog.Default()
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.WithoutCancel(ctx), Options(lo)...)

	var ctxOpts []chromedp.ContextOption
	if lo.Debug {
		ctxOpts = append(ctxOpts,
			chromedp.WithLogf(func(format string, args ...any) {
				logger.Debug(fmt.Sprintf(format, args...), "component", "chrome")
			}),
			chromedp.WithErrorf(func(format string, args ...any) {
				logger.Warn(fmt.Sprintf(format, args...), "component", "chrome")
			}),
		)
	} else {
		ctxOpts = append(ctxOpts, chromedp.WithErrorf(func(string, ...any) {}))
	}
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, ctxOpts...)

	c := &Chrome{
		ctx:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		logger:      logger,
	}

	// An empty Run allocates the browser and the tab.
	if err := c.run(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	logger.Debug("browser launched", "component", "chrome", "headless", lo.Headless && !lo.Debug)
	return c, nil
}

// run executes actions on the tab, bounded by ctx's deadline and cancellation.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(c.ctx)
	defer cancel()

	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (c *Chrome) Navigate(ctx context.Context, url string) error {
	c.logger.Debug("navigate", "component", "chrome", "url", url)
	return c.run(ctx, chromedp.Navigate(url))
}

func (c *Chrome) Location(ctx context.Context) (string, error) {
	var loc string
	if err := c.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", err
	}
	return loc, nil
}

func (c *Chrome) WaitVisible(ctx context.Context, selector string) error {
	return c.run(ctx, chromedp.WaitVisible(selector, chromedp.ByQuery))
}

func (c *Chrome) Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		ok, err := check(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Chrome) Perform(ctx context.Context, cmd Command) error {
	var action chromedp.Action
	switch cmd.Verb {
	case VerbClick:
		action = chromedp.Click(cmd.Selector, chromedp.ByQuery)
	case VerbSubmit:
		action = chromedp.Submit(cmd.Selector, chromedp.ByQuery)
	case VerbSetValue:
		action = chromedp.SetValue(cmd.Selector, cmd.Value, chromedp.ByQuery)
	case VerbType:
		action = chromedp.SendKeys(cmd.Selector, cmd.Value, chromedp.ByQuery)
	default:
		return fmt.Errorf("unsupported verb %q", cmd.Verb)
	}
	c.logger.Debug("perform", "component", "chrome", "verb", cmd.Verb, "selector", cmd.Selector)
	return c.run(ctx, action)
}

func (c *Chrome) Cookies(ctx context.Context) ([]Cookie, error) {
	var raw []*network.Cookie
	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read cookies: %w", err)
	}

	cookies := make([]Cookie, 0, len(raw))
	for _, rc := range raw {
		cookies = append(cookies, fromNetwork(rc))
	}
	return cookies, nil
}

func (c *Chrome) SetCookie(ctx context.Context, ck Cookie) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := network.SetCookie(ck.Name, ck.Value).
			WithPath(ck.Path).
			WithSecure(ck.Secure).
			WithHTTPOnly(ck.HTTPOnly)

		if ck.Domain != "" {
			params = params.WithDomain(ck.Domain)
		} else {
			// Host-only cookies are scoped to the current page.
			var loc string
			if err := chromedp.Location(&loc).Do(ctx); err != nil {
				return err
			}
			params = params.WithURL(loc)
		}
		if ck.Expiry > 0 {
			expires := cdp.TimeSinceEpoch(time.Unix(ck.Expiry, 0))
			params = params.WithExpires(&expires)
		}
		if ck.SameSite != "" {
			params = params.WithSameSite(network.CookieSameSite(ck.SameSite))
		}

		return params.Do(ctx)
	}))
}

// Close shuts the browser down and releases the allocator.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = chromedp.Cancel(c.ctx)
		c.cancelTab()
		c.cancelAlloc()
		c.logger.Debug("browser closed", "component", "chrome")
	})
	return c.closeErr
}

func fromNetwork(rc *network.Cookie) Cookie {
	var expiry int64
	// Session cookies report -1.
	if rc.Expires > 0 {
		expiry = int64(rc.Expires)
	}
	return Cookie{
		Name:     rc.Name,
		Value:    rc.Value,
		Domain:   rc.Domain,
		Path:     rc.Path,
		Expiry:   expiry,
		Secure:   rc.Secure,
		HTTPOnly: rc.HTTPOnly,
		SameSite: string(rc.SameSite),
	}
}
