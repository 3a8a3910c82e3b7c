package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/Dan9191/tweet-service/internal/models"
	"github.com/Dan9191/tweet-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// CanView reports whether the caller may see the tweet, i.e. whether the
// caller follows its author. A missing tweet is not viewable.
func (s *Service) CanView(ctx context.Context, callerID, tweetID int64) (bool, error) {
	return s.repo.FollowsTweetAuthor(ctx, callerID, tweetID)
}

// viewableTweet resolves the caller and checks the tweet is visible to them.
// A denied check is ErrUnauthorized, never a not-found.
func (s *Service) viewableTweet(ctx context.Context, username string, tweetID int64) error {
	callerID, err := s.caller(ctx, username)
	if err != nil {
		return err
	}
	ok, err := s.CanView(ctx, callerID, tweetID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrUnauthorized
	}
	return nil
}

// Feed returns the newest tweets of the authors the caller follows
func (s *Service) Feed(ctx context.Context, username string) ([]models.FeedItem, error) {
	id, err := s.caller(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.Feed(ctx, id, s.config.FeedLimit)
}

// Tweet returns a visible tweet with its like and reply counts
func (s *Service) Tweet(ctx context.Context, username string, tweetID int64) (*models.TweetStats, error) {
	if err := s.viewableTweet(ctx, username, tweetID); err != nil {
		return nil, err
	}
	stats, err := s.repo.TweetStats(ctx, tweetID)
	if errors.Is(err, repository.ErrNotFound) {
		// deleted between the check and the read
		return nil, ErrUnauthorized
	}
	return stats, err
}

// TweetLikes returns the usernames that liked a visible tweet
func (s *Service) TweetLikes(ctx context.Context, username string, tweetID int64) (*models.LikesResponse, error) {
	if err := s.viewableTweet(ctx, username, tweetID); err != nil {
		return nil, err
	}
	likers, err := s.repo.TweetLikers(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return &models.LikesResponse{Likes: likers}, nil
}

// TweetReplies returns the replies to a visible tweet
func (s *Service) TweetReplies(ctx context.Context, username string, tweetID int64) (*models.RepliesResponse, error) {
	if err := s.viewableTweet(ctx, username, tweetID); err != nil {
		return nil, err
	}
	replies, err := s.repo.TweetReplies(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return &models.RepliesResponse{Replies: replies}, nil
}

// UserTweets returns the caller's own tweets
func (s *Service) UserTweets(ctx context.Context, username string) ([]models.TweetStats, error) {
	id, err := s.caller(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.UserTweets(ctx, id)
}

// CreateTweet posts a new tweet authored by the caller
func (s *Service) CreateTweet(ctx context.Context, username, text string) (*models.Tweet, error) {
	if strings.TrimSpace(text) == "" {
		return nil, invalidInput("Tweet cannot be empty")
	}
	id, err := s.caller(ctx, username)
	if err != nil {
		return nil, err
	}

	tweet := &models.Tweet{
		UserID:    id,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateTweet(ctx, tweet); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": id, "tweet_id": tweet.ID}).Info("Tweet created")
	return tweet, nil
}

// DeleteTweet removes a tweet; only its author may do so
func (s *Service) DeleteTweet(ctx context.Context, username string, tweetID int64) error {
	id, err := s.caller(ctx, username)
	if err != nil {
		return err
	}
	err = s.repo.DeleteTweet(ctx, tweetID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnauthorized
	}
	if err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"user_id": id, "tweet_id": tweetID}).Info("Tweet removed")
	return nil
}
