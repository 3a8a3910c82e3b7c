package models

import "time"

// DateTimeLayout is the wire format of every dateTime field
const DateTimeLayout = "2006-01-02 15:04:05"

// Tweet represents a short message posted by a user
type Tweet struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Text      string    `json:"tweet"`
	CreatedAt time.Time `json:"date_time"`
}

// FeedItem is a tweet of a followed author as shown in the feed
type FeedItem struct {
	Username string `json:"username"`
	Tweet    string `json:"tweet"`
	DateTime string `json:"dateTime"`
}

// TweetStats is a tweet together with its like and reply counts.
// It backs both the tweet detail view and the caller's own tweet list.
type TweetStats struct {
	Tweet    string `json:"tweet"`
	Likes    int    `json:"likes"`
	Replies  int    `json:"replies"`
	DateTime string `json:"dateTime"`
}

// FormatDateTime renders t in DateTimeLayout
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}
