package types

import "time"

// Tweet represents a tweet returned by search
type Tweet struct {
	ID           string    `json:"id"`
	AuthorHandle string    `json:"author_handle"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	OriginalURL  string    `json:"original_url"`
	Query        string    `json:"query"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// ActionKind names an action performed through a session
type ActionKind string

const (
	ActionTweet    ActionKind = "tweet"
	ActionReply    ActionKind = "reply"
	ActionDelete   ActionKind = "delete"
	ActionFollow   ActionKind = "follow"
	ActionUnfollow ActionKind = "unfollow"
	ActionFavorite ActionKind = "favorite"
	ActionRetweet  ActionKind = "retweet"
	ActionSearch   ActionKind = "search"
)

// Action records one action and its outcome
type Action struct {
	ID        string     `json:"id"`
	Account   string     `json:"account"`
	Kind      ActionKind `json:"kind"`
	Target    string     `json:"target"`           // tweet id, user ref, text or query
	Result    string     `json:"result,omitempty"` // e.g. new tweet id or result count
	Error     string     `json:"error,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Failed reports whether the action returned an error
func (a Action) Failed() bool { return a.Error != "" }
