package browser

import "context"

// Verb is an interaction performed on a located element.
type Verb string

const (
	VerbClick    Verb = "click"
	VerbSubmit   Verb = "submit"
	VerbSetValue Verb = "set-value"
	// VerbType sends key events, for inputs that ignore programmatic values.
	VerbType Verb = "type"
)

// Command is a structured element interaction. Selector is a CSS selector
// applied to the first matching node.
type Command struct {
	Selector string
	Verb     Verb
	Value    string
}

// Cookie is a browser cookie as exchanged with the remote browser.
// Expiry is whole seconds since the Unix epoch; zero means a session cookie.
type Cookie struct {
	Name     string
	Value    string
	Domain   string
	Path     string
	Expiry   int64
	Secure   bool
	HTTPOnly bool
	SameSite string
}

// Remote is the remote browser control capability. Implementations are not
// safe for concurrent use; one Remote drives one browser tab.
type Remote interface {
	// Navigate loads url and returns once the navigation has committed.
	Navigate(ctx context.Context, url string) error

	// Location returns the current page URL.
	Location(ctx context.Context) (string, error)

	// WaitVisible blocks until the first node matching selector is visible
	// or ctx is done.
	WaitVisible(ctx context.Context, selector string) error

	// Poll evaluates check at the browser's own polling cadence until it
	// reports true, returns an error, or ctx is done.
	Poll(ctx context.Context, check func(ctx context.Context) (bool, error)) error

	// Perform executes cmd against the first node matching its selector.
	Perform(ctx context.Context, cmd Command) error

	// Cookies returns every cookie the browser holds.
	Cookies(ctx context.Context) ([]Cookie, error)

	// SetCookie injects c into the browser.
	SetCookie(ctx context.Context, c Cookie) error

	// Close releases the browser. It is safe to call more than once.
	Close() error
}
