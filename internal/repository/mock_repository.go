package repository

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/Dan9191/tweet-service/internal/models"
)

var errMockFailure = errors.New("mock: store failure")

type follow struct {
	follower, following int64
}

// MockRepository is an in-memory store with the same semantics as Repository.
// It is used by service and handler tests.
type MockRepository struct {
	mu sync.Mutex

	Users   map[int64]*models.User
	Follows []follow
	Tweets  map[int64]*models.Tweet
	Likes   []models.Like
	Replies []models.Reply

	ShouldFail bool // flag to simulate failures

	nextID int64
}

// NewMock initializes a new mock repository
func NewMock() *MockRepository {
	return &MockRepository{
		Users:  make(map[int64]*models.User),
		Tweets: make(map[int64]*models.Tweet),
	}
}

func (m *MockRepository) id() int64 {
	m.nextID++
	return m.nextID
}

// Ping simulates a database ping
func (m *MockRepository) Ping(ctx context.Context) error {
	if m.ShouldFail {
		return errMockFailure
	}
	return nil
}

// AddFollow records that follower follows following
func (m *MockRepository) AddFollow(follower, following int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Follows = append(m.Follows, follow{follower: follower, following: following})
}

// AddLike records that user likes the tweet
func (m *MockRepository) AddLike(tweetID, userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Likes = append(m.Likes, models.Like{ID: m.id(), TweetID: tweetID, UserID: userID})
}

// AddReply records a reply by user to the tweet
func (m *MockRepository) AddReply(tweetID, userID int64, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, models.Reply{ID: m.id(), TweetID: tweetID, UserID: userID, Text: text})
}

func (m *MockRepository) UserExists(ctx context.Context, username string) (bool, error) {
	if m.ShouldFail {
		return false, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byUsername(username) != nil, nil
}

func (m *MockRepository) CreateUser(ctx context.Context, user *models.User) error {
	if m.ShouldFail {
		return errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.byUsername(user.Username) != nil {
		return ErrDuplicate
	}
	user.ID = m.id()
	stored := *user
	m.Users[user.ID] = &stored
	return nil
}

func (m *MockRepository) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.byUsername(username)
	if u == nil {
		return nil, ErrNotFound
	}
	found := *u
	return &found, nil
}

func (m *MockRepository) UserIDByUsername(ctx context.Context, username string) (int64, error) {
	u, err := m.FindUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (m *MockRepository) byUsername(username string) *models.User {
	for _, u := range m.Users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

func (m *MockRepository) follows(follower, following int64) bool {
	for _, f := range m.Follows {
		if f.follower == follower && f.following == following {
			return true
		}
	}
	return false
}

func (m *MockRepository) FollowsTweetAuthor(ctx context.Context, callerID, tweetID int64) (bool, error) {
	if m.ShouldFail {
		return false, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tweets[tweetID]
	if !ok {
		return false, nil
	}
	return m.follows(callerID, t.UserID), nil
}

func (m *MockRepository) Feed(ctx context.Context, userID int64, limit int) ([]models.FeedItem, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var tweets []*models.Tweet
	for _, t := range m.Tweets {
		if m.follows(userID, t.UserID) {
			tweets = append(tweets, t)
		}
	}
	sort.Slice(tweets, func(i, j int) bool {
		if tweets[i].CreatedAt.Equal(tweets[j].CreatedAt) {
			return tweets[i].ID > tweets[j].ID
		}
		return tweets[i].CreatedAt.After(tweets[j].CreatedAt)
	})
	if len(tweets) > limit {
		tweets = tweets[:limit]
	}

	feed := []models.FeedItem{}
	for _, t := range tweets {
		feed = append(feed, models.FeedItem{
			Username: m.Users[t.UserID].Username,
			Tweet:    t.Text,
			DateTime: models.FormatDateTime(t.CreatedAt),
		})
	}
	return feed, nil
}

func (m *MockRepository) Following(ctx context.Context, userID int64) ([]models.Person, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	people := []models.Person{}
	for _, f := range m.Follows {
		if f.follower == userID {
			people = append(people, models.Person{Name: m.Users[f.following].Name})
		}
	}
	return people, nil
}

func (m *MockRepository) Followers(ctx context.Context, userID int64) ([]models.Person, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	people := []models.Person{}
	for _, f := range m.Follows {
		if f.following == userID {
			people = append(people, models.Person{Name: m.Users[f.follower].Name})
		}
	}
	return people, nil
}

func (m *MockRepository) stats(t *models.Tweet) models.TweetStats {
	s := models.TweetStats{Tweet: t.Text, DateTime: models.FormatDateTime(t.CreatedAt)}
	for _, l := range m.Likes {
		if l.TweetID == t.ID {
			s.Likes++
		}
	}
	for _, r := range m.Replies {
		if r.TweetID == t.ID {
			s.Replies++
		}
	}
	return s
}

func (m *MockRepository) TweetStats(ctx context.Context, tweetID int64) (*models.TweetStats, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tweets[tweetID]
	if !ok {
		return nil, ErrNotFound
	}
	s := m.stats(t)
	return &s, nil
}

func (m *MockRepository) UserTweets(ctx context.Context, userID int64) ([]models.TweetStats, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	var own []*models.Tweet
	for _, t := range m.Tweets {
		if t.UserID == userID {
			own = append(own, t)
		}
	}
	sort.Slice(own, func(i, j int) bool { return own[i].ID < own[j].ID })

	tweets := []models.TweetStats{}
	for _, t := range own {
		tweets = append(tweets, m.stats(t))
	}
	return tweets, nil
}

func (m *MockRepository) TweetLikers(ctx context.Context, tweetID int64) ([]string, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	likers := []string{}
	for _, l := range m.Likes {
		if l.TweetID == tweetID {
			likers = append(likers, m.Users[l.UserID].Username)
		}
	}
	return likers, nil
}

func (m *MockRepository) TweetReplies(ctx context.Context, tweetID int64) ([]models.ReplyView, error) {
	if m.ShouldFail {
		return nil, errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	replies := []models.ReplyView{}
	for _, r := range m.Replies {
		if r.TweetID == tweetID {
			replies = append(replies, models.ReplyView{Name: m.Users[r.UserID].Name, Reply: r.Text})
		}
	}
	return replies, nil
}

func (m *MockRepository) CreateTweet(ctx context.Context, tweet *models.Tweet) error {
	if m.ShouldFail {
		return errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	tweet.ID = m.id()
	stored := *tweet
	m.Tweets[tweet.ID] = &stored
	return nil
}

func (m *MockRepository) DeleteTweet(ctx context.Context, tweetID, userID int64) error {
	if m.ShouldFail {
		return errMockFailure
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.Tweets[tweetID]
	if !ok || t.UserID != userID {
		return ErrNotFound
	}
	delete(m.Tweets, tweetID)

	likes := m.Likes[:0]
	for _, l := range m.Likes {
		if l.TweetID != tweetID {
			likes = append(likes, l)
		}
	}
	m.Likes = likes

	replies := m.Replies[:0]
	for _, r := range m.Replies {
		if r.TweetID != tweetID {
			replies = append(replies, r)
		}
	}
	m.Replies = replies
	return nil
}
