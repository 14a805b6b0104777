package session

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
)

var trailingID = regexp.MustCompile(`[0-9]+$`)

// UserRef identifies an account by numeric id or screen name. ID wins
// when both are set; a zero UserRef identifies nobody.
type UserRef struct {
	ID         string
	ScreenName string
}

// IsZero reports whether u identifies nobody.
func (u UserRef) IsZero() bool { return u.ID == "" && u.ScreenName == "" }

func (u UserRef) String() string {
	switch {
	case u.ID != "":
		return "id:" + u.ID
	case u.ScreenName != "":
		return "@" + u.ScreenName
	default:
		return ""
	}
}

func (u UserRef) query() url.Values {
	q := url.Values{}
	if u.ID != "" {
		q.Set("user_id", u.ID)
	} else {
		q.Set("screen_name", u.ScreenName)
	}
	return q
}

// Tweet posts text and returns the new tweet's id.
func (s *Session) Tweet(ctx context.Context, text string) (int64, error) {
	return s.tweet(ctx, text, 0)
}

// Reply posts text in reply to the tweet inReplyTo and returns the new
// tweet's id.
func (s *Session) Reply(ctx context.Context, text string, inReplyTo int64) (int64, error) {
	return s.tweet(ctx, text, inReplyTo)
}

func (s *Session) tweet(ctx context.Context, text string, inReplyTo int64) (int64, error) {
	if err := s.requireAuth(); err != nil {
		return 0, err
	}

	q := url.Values{}
	q.Set("text", text)
	if inReplyTo != 0 {
		q.Set("in_reply_to_status_id", strconv.FormatInt(inReplyTo, 10))
	}
	if err := s.get(ctx, "/intent/tweet?"+q.Encode(), false); err != nil {
		return 0, err
	}

	before, err := s.remote.Location(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.submit(ctx, TweetForm); err != nil {
		return 0, err
	}
	// The form redirects to the new status page.
	if err := s.wait(ctx, URLChangedFrom(before)); err != nil {
		return 0, err
	}

	after, err := s.remote.Location(ctx)
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(trailingID.FindString(after), 10, 64)
	if err != nil {
		return 0, &MalformedResultError{Action: "tweet", URL: after}
	}

	s.logger.Info("tweeted", "id", id, "in_reply_to", inReplyTo)
	return id, nil
}

// DeleteTweet opens the tweet's status page and confirms deletion. Success
// is not checked beyond both clicks completing.
func (s *Session) DeleteTweet(ctx context.Context, tweetID int64) error {
	if err := s.requireAuth(); err != nil {
		return err
	}

	if err := s.get(ctx, "/-/status/"+strconv.FormatInt(tweetID, 10), false); err != nil {
		return err
	}
	if err := s.click(ctx, DeleteMenuButton); err != nil {
		return err
	}
	if err := s.click(ctx, DeleteConfirm); err != nil {
		return err
	}

	s.logger.Info("deleted tweet", "id", tweetID)
	return nil
}

// Follow follows user. A zero UserRef is a successful no-op: nothing is
// navigated or submitted.
func (s *Session) Follow(ctx context.Context, user UserRef) error {
	return s.userIntent(ctx, user, FollowForm, "followed")
}

// Unfollow unfollows user. A zero UserRef is a successful no-op.
func (s *Session) Unfollow(ctx context.Context, user UserRef) error {
	return s.userIntent(ctx, user, UnfollowForm, "unfollowed")
}

func (s *Session) userIntent(ctx context.Context, user UserRef, form Selector, verb string) error {
	if user.IsZero() {
		return nil
	}
	if err := s.requireAuth(); err != nil {
		return err
	}

	if err := s.get(ctx, "/intent/user?"+user.query().Encode(), false); err != nil {
		return err
	}
	if err := s.submit(ctx, form); err != nil {
		return err
	}

	s.logger.Info(verb, "user", user.String())
	return nil
}

// Favorite likes the tweet.
func (s *Session) Favorite(ctx context.Context, tweetID int64) error {
	return s.tweetIntent(ctx, "/intent/favorite", tweetID, FavoriteForm)
}

// Retweet retweets the tweet.
func (s *Session) Retweet(ctx context.Context, tweetID int64) error {
	return s.tweetIntent(ctx, "/intent/retweet", tweetID, RetweetForm)
}

func (s *Session) tweetIntent(ctx context.Context, path string, tweetID int64, form Selector) error {
	if err := s.requireAuth(); err != nil {
		return err
	}

	q := url.Values{}
	q.Set("tweet_id", strconv.FormatInt(tweetID, 10))
	if err := s.get(ctx, path+"?"+q.Encode(), false); err != nil {
		return err
	}
	if err := s.submit(ctx, form); err != nil {
		return err
	}

	s.logger.Info("intent submitted", "intent", path, "tweet_id", tweetID)
	return nil
}
