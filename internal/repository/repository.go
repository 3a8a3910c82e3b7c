package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/tweet-service/internal/models"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a requested row does not exist
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("already exists")
)

// pq error code for unique_violation
const uniqueViolation = "23505"

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks that the database is reachable
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UserExists reports whether a user with the given username exists
func (r *Repository) UserExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check user: %w", err)
	}
	return exists, nil
}

// CreateUser creates a new user in the database
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password, name, gender)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id`
	err := r.db.QueryRowContext(ctx, query, user.Username, user.PasswordHash, user.Name, user.Gender).
		Scan(&user.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByUsername retrieves a user by username
func (r *Repository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT user_id, username, password, name, gender
		FROM users
		WHERE username = $1`
	err := r.db.QueryRowContext(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Name, &user.Gender)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UserIDByUsername resolves a username to its numeric id
func (r *Repository) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	var id int64
	query := `SELECT user_id FROM users WHERE username = $1`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to resolve user id: %w", err)
	}
	return id, nil
}

// FollowsTweetAuthor reports whether the caller follows the author of the tweet.
// A missing tweet yields false.
func (r *Repository) FollowsTweetAuthor(ctx context.Context, callerID, tweetID int64) (bool, error) {
	var ok bool
	query := `
		SELECT EXISTS(
			SELECT 1
			FROM tweet t
			INNER JOIN follower f ON f.following_user_id = t.user_id
			WHERE t.tweet_id = $1 AND f.follower_user_id = $2
		)`
	if err := r.db.QueryRowContext(ctx, query, tweetID, callerID).Scan(&ok); err != nil {
		return false, fmt.Errorf("failed to check follow edge: %w", err)
	}
	return ok, nil
}

// Feed returns the newest tweets of the authors the user follows
func (r *Repository) Feed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error) {
	query := `
		SELECT u.username, t.tweet, t.date_time
		FROM tweet t
		INNER JOIN users u ON u.user_id = t.user_id
		WHERE t.user_id IN (
			SELECT following_user_id FROM follower WHERE follower_user_id = $1
		)
		ORDER BY t.date_time DESC, t.tweet_id DESC
		LIMIT $2`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query feed: %w", err)
	}
	defer rows.Close()

	feed := []models.FeedItem{}
	for rows.Next() {
		var item models.FeedItem
		var created time.Time
		if err := rows.Scan(&item.Username, &item.Tweet, &created); err != nil {
			return nil, fmt.Errorf("failed to scan feed item: %w", err)
		}
		item.DateTime = models.FormatDateTime(created)
		feed = append(feed, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}
	return feed, nil
}

// Following returns the users the given user follows
func (r *Repository) Following(ctx context.Context, userID int64) ([]models.Person, error) {
	query := `
		SELECT u.name
		FROM follower f
		INNER JOIN users u ON u.user_id = f.following_user_id
		WHERE f.follower_user_id = $1
		ORDER BY f.follower_id`
	return r.people(ctx, query, userID)
}

// Followers returns the users following the given user
func (r *Repository) Followers(ctx context.Context, userID int64) ([]models.Person, error) {
	query := `
		SELECT u.name
		FROM follower f
		INNER JOIN users u ON u.user_id = f.follower_user_id
		WHERE f.following_user_id = $1
		ORDER BY f.follower_id`
	return r.people(ctx, query, userID)
}

func (r *Repository) people(ctx context.Context, query string, userID int64) ([]models.Person, error) {
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	people := []models.Person{}
	for rows.Next() {
		var p models.Person
		if err := rows.Scan(&p.Name); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		people = append(people, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read users: %w", err)
	}
	return people, nil
}

// TweetStats returns a tweet with its like and reply counts
func (r *Repository) TweetStats(ctx context.Context, tweetID int64) (*models.TweetStats, error) {
	query := `
		SELECT t.tweet,
		       COUNT(DISTINCT l.like_id),
		       COUNT(DISTINCT r.reply_id),
		       t.date_time
		FROM tweet t
		LEFT JOIN likes l ON l.tweet_id = t.tweet_id
		LEFT JOIN reply r ON r.tweet_id = t.tweet_id
		WHERE t.tweet_id = $1
		GROUP BY t.tweet_id`
	stats := &models.TweetStats{}
	var created time.Time
	err := r.db.QueryRowContext(ctx, query, tweetID).
		Scan(&stats.Tweet, &stats.Likes, &stats.Replies, &created)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tweet: %w", err)
	}
	stats.DateTime = models.FormatDateTime(created)
	return stats, nil
}

// UserTweets returns every tweet of the user with like and reply counts
func (r *Repository) UserTweets(ctx context.Context, userID int64) ([]models.TweetStats, error) {
	query := `
		SELECT t.tweet,
		       COUNT(DISTINCT l.like_id),
		       COUNT(DISTINCT r.reply_id),
		       t.date_time
		FROM tweet t
		LEFT JOIN likes l ON l.tweet_id = t.tweet_id
		LEFT JOIN reply r ON r.tweet_id = t.tweet_id
		WHERE t.user_id = $1
		GROUP BY t.tweet_id
		ORDER BY t.tweet_id`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user tweets: %w", err)
	}
	defer rows.Close()

	tweets := []models.TweetStats{}
	for rows.Next() {
		var s models.TweetStats
		var created time.Time
		if err := rows.Scan(&s.Tweet, &s.Likes, &s.Replies, &created); err != nil {
			return nil, fmt.Errorf("failed to scan tweet: %w", err)
		}
		s.DateTime = models.FormatDateTime(created)
		tweets = append(tweets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user tweets: %w", err)
	}
	return tweets, nil
}

// TweetLikers returns the usernames of everyone who liked the tweet
func (r *Repository) TweetLikers(ctx context.Context, tweetID int64) ([]string, error) {
	query := `
		SELECT u.username
		FROM likes l
		INNER JOIN users u ON u.user_id = l.user_id
		WHERE l.tweet_id = $1
		ORDER BY l.like_id`
	rows, err := r.db.QueryContext(ctx, query, tweetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	defer rows.Close()

	likers := []string{}
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		likers = append(likers, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read likes: %w", err)
	}
	return likers, nil
}

// TweetReplies returns the replies to the tweet with the replier's display name
func (r *Repository) TweetReplies(ctx context.Context, tweetID int64) ([]models.ReplyView, error) {
	query := `
		SELECT u.name, r.reply
		FROM reply r
		INNER JOIN users u ON u.user_id = r.user_id
		WHERE r.tweet_id = $1
		ORDER BY r.reply_id`
	rows, err := r.db.QueryContext(ctx, query, tweetID)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	replies := []models.ReplyView{}
	for rows.Next() {
		var v models.ReplyView
		if err := rows.Scan(&v.Name, &v.Reply); err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read replies: %w", err)
	}
	return replies, nil
}

// CreateTweet creates a new tweet in the database
func (r *Repository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	query := `
		INSERT INTO tweet (tweet, user_id, date_time)
		VALUES ($1, $2, $3)
		RETURNING tweet_id`
	err := r.db.QueryRowContext(ctx, query, tweet.Text, tweet.UserID, tweet.CreatedAt).
		Scan(&tweet.ID)
	if err != nil {
		return fmt.Errorf("failed to create tweet: %w", err)
	}
	return nil
}

// DeleteTweet removes the tweet if it belongs to the user.
// Returns ErrNotFound when no such tweet is owned by the user.
func (r *Repository) DeleteTweet(ctx context.Context, tweetID, userID int64) error {
	query := `DELETE FROM tweet WHERE tweet_id = $1 AND user_id = $2`
	res, err := r.db.ExecContext(ctx, query, tweetID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete tweet: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
