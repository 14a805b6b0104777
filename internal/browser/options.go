// Package browser provides the remote browser control used by sessions,
// backed by chromedp, with shared anti-bot-detection allocator options.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	// Headless hides the browser window. Debug overrides it.
	Headless bool
	// Debug shows the window and forwards browser logs.
	Debug     bool
	UserAgent string
	// ExecPath overrides Chrome binary discovery when set.
	ExecPath string
}

// launchSettings is what LaunchOptions resolve to once defaults and the
// debug override are applied.
type launchSettings struct {
	headless   bool
	disableGPU bool
	userAgent  string
	execPath   string
}

func resolve(lo LaunchOptions) launchSettings {
	headless := lo.Headless && !lo.Debug

	ua := lo.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}

	return launchSettings{
		headless:   headless,
		disableGPU: headless,
		userAgent:  ua,
		execPath:   lo.ExecPath,
	}
}

// Options returns chromedp allocator options with anti-bot-detection measures.
// All browser instances should use this to ensure consistent stealth configuration.
func Options(lo LaunchOptions) []chromedp.ExecAllocatorOption {
	ls := resolve(lo)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", ls.headless),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		chromedp.UserAgent(ls.userAgent),
		chromedp.WindowSize(1920, 1080),

		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if ls.disableGPU {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}
	if ls.execPath != "" {
		opts = append(opts, chromedp.ExecPath(ls.execPath))
	}

	return opts
}
