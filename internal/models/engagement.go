package models

// Like marks that a user likes a tweet
type Like struct {
	ID      int64 `json:"id"`
	TweetID int64 `json:"tweet_id"`
	UserID  int64 `json:"user_id"`
}

// Reply is a text response to a tweet
type Reply struct {
	ID      int64  `json:"id"`
	TweetID int64  `json:"tweet_id"`
	UserID  int64  `json:"user_id"`
	Text    string `json:"reply"`
}

// ReplyView is a reply as returned to clients
type ReplyView struct {
	Name  string `json:"name"`
	Reply string `json:"reply"`
}

// LikesResponse is the body of the tweet likes endpoint
type LikesResponse struct {
	Likes []string `json:"likes"`
}

// RepliesResponse is the body of the tweet replies endpoint
type RepliesResponse struct {
	Replies []ReplyView `json:"replies"`
}
