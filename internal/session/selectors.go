package session

// Selector is a CSS selector from the fixed set below. Actions only accept
// these constants; user input never becomes a selector.
type Selector string

// Twitter DOM selectors.
// These are isolated here because the site changes its DOM frequently.
const (
	// Mobile login form
	LoginUsername Selector = `input[name="session[username_or_email]"]`
	LoginPassword Selector = `input[name="session[password]"]`
	LoginButton   Selector = `[data-testid=LoginForm_Login_Button]`

	// Intent confirmation forms
	TweetForm    Selector = `#update-form`
	FollowForm   Selector = `form.follow`
	UnfollowForm Selector = `form.unfollow`
	FavoriteForm Selector = `#favorite_btn_form`
	RetweetForm  Selector = `#retweet_btn_form`

	// Status page delete flow
	DeleteMenuButton Selector = `.js-actionDelete button`
	DeleteConfirm    Selector = `.delete-action`
)
