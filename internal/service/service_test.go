package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/Dan9191/tweet-service/internal/config"
	"github.com/Dan9191/tweet-service/internal/models"
	"github.com/Dan9191/tweet-service/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

func newTestService(t *testing.T) (*Service, *repository.MockRepository) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	cfg := &config.Config{
		JWTSecret:  "test-secret",
		BcryptCost: bcrypt.MinCost,
		FeedLimit:  4,
	}
	repo := repository.NewMock()
	return NewService(repo, logger, cfg), repo
}

func mustRegister(t *testing.T, s *Service, username string) *models.User {
	t.Helper()
	u, err := s.Register(context.Background(), RegisterInput{
		Username: username,
		Password: "secret123",
		Name:     "Name " + username,
		Gender:   "female",
	})
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", username, err)
	}
	return u
}

func mustTweet(t *testing.T, repo *repository.MockRepository, userID int64, text string, at time.Time) int64 {
	t.Helper()
	tw := &models.Tweet{UserID: userID, Text: text, CreatedAt: at}
	if err := repo.CreateTweet(context.Background(), tw); err != nil {
		t.Fatalf("CreateTweet failed: %v", err)
	}
	return tw.ID
}

func TestRegister_Conflict(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "almaz")

	_, err := s.Register(context.Background(), RegisterInput{Username: "almaz", Password: "another1"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegister_ShortPassword(t *testing.T) {
	s, repo := newTestService(t)

	for _, pw := range []string{"", "a", "12345"} {
		_, err := s.Register(context.Background(), RegisterInput{Username: "nur", Password: pw, Name: "Nur", Gender: "male"})
		var inErr *InputError
		if !errors.As(err, &inErr) || inErr.Reason != "Password is too short" {
			t.Fatalf("password %q: expected short password error, got %v", pw, err)
		}
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput, got %v", err)
		}
	}
	if len(repo.Users) != 0 {
		t.Fatalf("expected no users stored, got %d", len(repo.Users))
	}
}

func TestRegister_PasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		reason   string
	}{
		{"six ascii chars", "abcdef", ""},
		{"six multibyte chars", "éééééé", ""},
		{"three multibyte chars", "ééé", "Password is too short"},
		{"five ascii chars", "abcde", "Password is too short"},
		{"72 bytes", strings.Repeat("a", MaxPasswordBytes), ""},
		{"73 bytes", strings.Repeat("a", MaxPasswordBytes+1), "Password is too long"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestService(t)
			_, err := s.Register(context.Background(), RegisterInput{Username: "nur", Password: tt.password, Name: "Nur"})
			if tt.reason == "" {
				if err != nil {
					t.Fatalf("expected password accepted, got %v", err)
				}
				if _, err := s.Login(context.Background(), "nur", tt.password); err != nil {
					t.Fatalf("login with registered password failed: %v", err)
				}
				return
			}
			var inErr *InputError
			if !errors.As(err, &inErr) || inErr.Reason != tt.reason {
				t.Fatalf("expected %q, got %v", tt.reason, err)
			}
		})
	}
}

func TestRegister_HashesPassword(t *testing.T) {
	s, repo := newTestService(t)
	u := mustRegister(t, s, "almaz")

	stored := repo.Users[u.ID]
	if stored.PasswordHash == "secret123" {
		t.Fatalf("password stored in clear text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("stored hash does not match: %v", err)
	}
}

func TestLogin(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "almaz")

	token, err := s.Login(context.Background(), "almaz", "secret123")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	username, err := s.Authenticate(token)
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if username != "almaz" {
		t.Fatalf("expected almaz, got %q", username)
	}

	tests := []struct {
		username, password, reason string
	}{
		{"almaz", "wrongpass", "Invalid password"},
		{"ghost", "secret123", "Invalid user"},
	}
	for _, tt := range tests {
		_, err := s.Login(context.Background(), tt.username, tt.password)
		var inErr *InputError
		if !errors.As(err, &inErr) || inErr.Reason != tt.reason {
			t.Fatalf("Login(%q): expected %q, got %v", tt.username, tt.reason, err)
		}
	}
}

func TestLogin_TokenExpiry(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "almaz")

	token, _ := s.Login(context.Background(), "almaz", "secret123")
	claims := &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Fatalf("expected no expiry by default")
	}

	s.config.JWTTTL = time.Hour
	token, _ = s.Login(context.Background(), "almaz", "secret123")
	claims = &Claims{}
	if _, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}); err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if claims.ExpiresAt == nil {
		t.Fatalf("expected expiry when ttl is set")
	}
}

func TestAuthenticate_Rejects(t *testing.T) {
	s, _ := newTestService(t)

	sign := func(method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
		tok, err := jwt.NewWithClaims(method, claims).SignedString(key)
		if err != nil {
			t.Fatalf("sign failed: %v", err)
		}
		return tok
	}

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "", ErrUnauthenticated},
		{"garbage", "not-a-token", ErrInvalidCredential},
		{"wrong secret", sign(jwt.SigningMethodHS256, []byte("other"), Claims{Username: "almaz"}), ErrInvalidCredential},
		{"hs512", sign(jwt.SigningMethodHS512, []byte("test-secret"), Claims{Username: "almaz"}), ErrInvalidCredential},
		{"none alg", sign(jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{Username: "almaz"}), ErrInvalidCredential},
		{"no username", sign(jwt.SigningMethodHS256, []byte("test-secret"), Claims{}), ErrInvalidCredential},
		{"expired", sign(jwt.SigningMethodHS256, []byte("test-secret"), Claims{
			Username:         "almaz",
			RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		}), ErrInvalidCredential},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Authenticate(tt.token); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestVisibilityGuard(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")
	nur := mustRegister(t, s, "nur")
	tweetID := mustTweet(t, repo, nur.ID, "hello", time.Now())

	ok, err := s.CanView(ctx, almaz.ID, tweetID)
	if err != nil || ok {
		t.Fatalf("expected not viewable before follow, got %v %v", ok, err)
	}

	for _, call := range []func() error{
		func() error { _, err := s.Tweet(ctx, "almaz", tweetID); return err },
		func() error { _, err := s.TweetLikes(ctx, "almaz", tweetID); return err },
		func() error { _, err := s.TweetReplies(ctx, "almaz", tweetID); return err },
	} {
		if err := call(); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}

	repo.AddFollow(almaz.ID, nur.ID)
	ok, err = s.CanView(ctx, almaz.ID, tweetID)
	if err != nil || !ok {
		t.Fatalf("expected viewable after follow, got %v %v", ok, err)
	}

	ok, _ = s.CanView(ctx, almaz.ID, 9999)
	if ok {
		t.Fatalf("missing tweet must not be viewable")
	}
	if _, err := s.Tweet(ctx, "almaz", 9999); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("missing tweet must map to ErrUnauthorized, got %v", err)
	}
}

func TestTweetDetailLikesReplies(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")
	nur := mustRegister(t, s, "nur")
	repo.AddFollow(almaz.ID, nur.ID)

	created := time.Date(2021, 4, 7, 14, 50, 19, 0, time.UTC)
	tweetID := mustTweet(t, repo, nur.ID, "hello", created)
	repo.AddLike(tweetID, almaz.ID)
	repo.AddLike(tweetID, nur.ID)
	repo.AddReply(tweetID, almaz.ID, "hi back")

	detail, err := s.Tweet(ctx, "almaz", tweetID)
	if err != nil {
		t.Fatalf("Tweet failed: %v", err)
	}
	want := models.TweetStats{Tweet: "hello", Likes: 2, Replies: 1, DateTime: "2021-04-07 14:50:19"}
	if *detail != want {
		t.Fatalf("expected %+v, got %+v", want, *detail)
	}

	likes, err := s.TweetLikes(ctx, "almaz", tweetID)
	if err != nil {
		t.Fatalf("TweetLikes failed: %v", err)
	}
	if len(likes.Likes) != 2 || likes.Likes[0] != "almaz" || likes.Likes[1] != "nur" {
		t.Fatalf("unexpected likes %v", likes.Likes)
	}

	replies, err := s.TweetReplies(ctx, "almaz", tweetID)
	if err != nil {
		t.Fatalf("TweetReplies failed: %v", err)
	}
	if len(replies.Replies) != 1 || replies.Replies[0] != (models.ReplyView{Name: "Name almaz", Reply: "hi back"}) {
		t.Fatalf("unexpected replies %v", replies.Replies)
	}
}

func TestFeed(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")
	nur := mustRegister(t, s, "nur")
	aida := mustRegister(t, s, "aida")
	stranger := mustRegister(t, s, "stranger")
	repo.AddFollow(almaz.ID, nur.ID)
	repo.AddFollow(almaz.ID, aida.ID)

	base := time.Date(2021, 4, 7, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		mustTweet(t, repo, nur.ID, "nur", base.Add(time.Duration(i)*time.Minute))
		mustTweet(t, repo, aida.ID, "aida", base.Add(time.Duration(i)*time.Minute+30*time.Second))
	}
	mustTweet(t, repo, stranger.ID, "stranger", base.Add(time.Hour))
	mustTweet(t, repo, almaz.ID, "own", base.Add(2*time.Hour))

	feed, err := s.Feed(ctx, "almaz")
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if len(feed) != 4 {
		t.Fatalf("expected 4 items, got %d", len(feed))
	}
	for i, item := range feed {
		if item.Username != "nur" && item.Username != "aida" {
			t.Fatalf("item %d from unfollowed author %q", i, item.Username)
		}
		if i > 0 && feed[i-1].DateTime < item.DateTime {
			t.Fatalf("feed not in descending order: %v", feed)
		}
	}
	if feed[0].Username != "aida" || feed[0].DateTime != "2021-04-07 10:02:30" {
		t.Fatalf("unexpected newest item %+v", feed[0])
	}
}

func TestFeed_NoFollows(t *testing.T) {
	s, _ := newTestService(t)
	mustRegister(t, s, "almaz")

	feed, err := s.Feed(context.Background(), "almaz")
	if err != nil {
		t.Fatalf("Feed failed: %v", err)
	}
	if feed == nil || len(feed) != 0 {
		t.Fatalf("expected empty feed, got %v", feed)
	}
}

func TestFollowingAndFollowers(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")
	nur := mustRegister(t, s, "nur")
	repo.AddFollow(almaz.ID, nur.ID)

	following, err := s.Following(ctx, "almaz")
	if err != nil || len(following) != 1 || following[0].Name != "Name nur" {
		t.Fatalf("unexpected following %v %v", following, err)
	}
	followers, err := s.Followers(ctx, "nur")
	if err != nil || len(followers) != 1 || followers[0].Name != "Name almaz" {
		t.Fatalf("unexpected followers %v %v", followers, err)
	}
	followers, err = s.Followers(ctx, "almaz")
	if err != nil || len(followers) != 0 {
		t.Fatalf("expected no followers, got %v %v", followers, err)
	}
}

func TestUnknownCallerIsInvalidCredential(t *testing.T) {
	s, _ := newTestService(t)
	if _, err := s.Feed(context.Background(), "ghost"); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("expected ErrInvalidCredential, got %v", err)
	}
}

func TestCreateAndListTweets(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")

	if _, err := s.CreateTweet(ctx, "almaz", "   "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for blank tweet, got %v", err)
	}

	tw, err := s.CreateTweet(ctx, "almaz", "first")
	if err != nil {
		t.Fatalf("CreateTweet failed: %v", err)
	}
	if tw.UserID != almaz.ID {
		t.Fatalf("tweet authored by %d, want %d", tw.UserID, almaz.ID)
	}
	repo.AddLike(tw.ID, almaz.ID)

	tweets, err := s.UserTweets(ctx, "almaz")
	if err != nil {
		t.Fatalf("UserTweets failed: %v", err)
	}
	if len(tweets) != 1 || tweets[0].Tweet != "first" || tweets[0].Likes != 1 || tweets[0].Replies != 0 {
		t.Fatalf("unexpected tweets %+v", tweets)
	}
}

func TestDeleteTweet_OnlyOwner(t *testing.T) {
	s, repo := newTestService(t)
	ctx := context.Background()
	almaz := mustRegister(t, s, "almaz")
	nur := mustRegister(t, s, "nur")
	repo.AddFollow(almaz.ID, nur.ID)
	tweetID := mustTweet(t, repo, nur.ID, "mine", time.Now())

	if err := s.DeleteTweet(ctx, "almaz", tweetID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := s.Tweet(ctx, "almaz", tweetID); err != nil {
		t.Fatalf("tweet should remain after rejected delete: %v", err)
	}

	if err := s.DeleteTweet(ctx, "nur", tweetID); err != nil {
		t.Fatalf("owner delete failed: %v", err)
	}
	if _, err := s.Tweet(ctx, "almaz", tweetID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("deleted tweet must not be viewable, got %v", err)
	}
	if err := s.DeleteTweet(ctx, "nur", tweetID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("second delete should be rejected, got %v", err)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	s, repo := newTestService(t)
	repo.ShouldFail = true

	if _, err := s.Feed(context.Background(), "almaz"); err == nil {
		t.Fatalf("expected error from failing store")
	}
	if err := s.Health(context.Background()); err == nil {
		t.Fatalf("expected health check to fail")
	}
}
